// Package store реализует хранилище коллекций записей поверх kv.Backend.
// Каждая коллекция лежит под своим ключом целиком, JSON-массивом объектов.
package store

import (
	"context"
	"encoding/json"
	"io"
	"math/rand"
	"sync"
	"time"

	"mfgtrack/internal/kv"

	"github.com/oklog/ulid/v2"
)

type Store struct {
	backend kv.Backend
	now     func() time.Time

	mu      sync.Mutex
	tables  map[string]*table
	entropy io.Reader
}

// table: разобранная коллекция и индекс id → позиция.
// raw хранит строку, из которой она разобрана: пока значение в бэкенде
// то же самое, повторно JSON не декодируем.
type table struct {
	raw     string
	present bool
	rows    []*Record
	index   map[string]int
}

type Option func(*Store)

// WithClock подменяет часы (даты, год в номерах, время в ULID).
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

func New(backend kv.Backend, opts ...Option) *Store {
	src := rand.New(rand.NewSource(time.Now().UnixNano()))
	s := &Store{
		backend: backend,
		now:     time.Now,
		tables:  make(map[string]*table),
		entropy: ulid.Monotonic(src, 0),
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

func (s *Store) Backend() kv.Backend { return s.backend }

func (s *Store) Now() time.Time { return s.now() }

func (s *Store) Close() error { return s.backend.Close() }

func (s *Store) newID() string {
	return ulid.MustNew(ulid.Timestamp(s.now()), s.entropy).String()
}

// Get возвращает копии записей коллекции; отсутствующий ключ: пустой срез.
func (s *Store) Get(ctx context.Context, collection string) ([]*Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, err := s.load(ctx, collection)
	if err != nil {
		return nil, err
	}
	out := make([]*Record, len(t.rows))
	for i, r := range t.rows {
		out[i] = r.Clone()
	}
	return out, nil
}

// Set заменяет коллекцию целиком.
func (s *Store) Set(ctx context.Context, collection string, records []*Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	rows := make([]*Record, 0, len(records))
	for _, r := range records {
		if r != nil {
			rows = append(rows, r.Clone())
		}
	}
	return s.persist(ctx, collection, rows)
}

// Add присваивает записи новый id, дописывает её в конец и возвращает сохранённую копию.
func (s *Store) Add(ctx context.Context, collection string, rec *Record) (*Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, err := s.load(ctx, collection)
	if err != nil {
		return nil, err
	}
	stored := rec.Clone()
	if stored == nil {
		stored = NewRecord()
	}
	id := s.newID()
	for {
		if _, taken := t.index[id]; !taken {
			break
		}
		id = s.newID()
	}
	stored.Set("id", id)

	rows := append(append(make([]*Record, 0, len(t.rows)+1), t.rows...), stored)
	if err := s.persist(ctx, collection, rows); err != nil {
		return nil, err
	}
	return stored.Clone(), nil
}

// Update сливает patch с записью id. ok=false, если такой записи нет.
// Атрибут id из patch игнорируется: id присваивается один раз.
func (s *Store) Update(ctx context.Context, collection, id string, patch *Record) (*Record, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, err := s.load(ctx, collection)
	if err != nil {
		return nil, false, err
	}
	i, ok := t.index[id]
	if !ok {
		return nil, false, nil
	}
	p := patch.Clone()
	p.Delete("id")
	merged := t.rows[i].Clone().Merge(p)

	rows := make([]*Record, len(t.rows))
	copy(rows, t.rows)
	rows[i] = merged
	if err := s.persist(ctx, collection, rows); err != nil {
		return nil, false, err
	}
	return merged.Clone(), true, nil
}

// Delete удаляет запись по id; неизвестный id: no-op.
func (s *Store) Delete(ctx context.Context, collection, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, err := s.load(ctx, collection)
	if err != nil {
		return err
	}
	if _, ok := t.index[id]; !ok {
		return nil
	}
	rows := make([]*Record, 0, len(t.rows))
	for _, r := range t.rows {
		if r.ID() != id {
			rows = append(rows, r)
		}
	}
	return s.persist(ctx, collection, rows)
}

func (s *Store) Find(ctx context.Context, collection, id string) (*Record, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, err := s.load(ctx, collection)
	if err != nil {
		return nil, false, err
	}
	i, ok := t.index[id]
	if !ok {
		return nil, false, nil
	}
	return t.rows[i].Clone(), true, nil
}

// Watch отдаёт изменения, сделанные другими писателями того же бэкенда.
func (s *Store) Watch(ctx context.Context) (<-chan kv.Change, error) {
	n, ok := s.backend.(kv.Notifier)
	if !ok {
		return nil, kv.ErrNotSupported
	}
	return n.Subscribe(ctx)
}

// load читает коллекцию; разобранная копия переиспользуется, пока сырое значение не изменилось.
func (s *Store) load(ctx context.Context, collection string) (*table, error) {
	raw, ok, err := s.backend.GetItem(ctx, collection)
	if err != nil {
		return nil, &PersistenceError{Collection: collection, Op: "read", Err: err}
	}
	if t := s.tables[collection]; t != nil && t.present == ok && t.raw == raw {
		return t, nil
	}

	var rows []*Record
	if ok && raw != "" {
		if err := json.Unmarshal([]byte(raw), &rows); err != nil {
			return nil, &PersistenceError{Collection: collection, Op: "decode", Err: err}
		}
	}
	t := newTable(raw, ok, rows)
	s.tables[collection] = t
	return t, nil
}

func (s *Store) persist(ctx context.Context, collection string, rows []*Record) error {
	b, err := json.Marshal(rows)
	if err != nil {
		return &PersistenceError{Collection: collection, Op: "encode", Err: err}
	}
	raw := string(b)
	if err := s.backend.SetItem(ctx, collection, raw); err != nil {
		return &PersistenceError{Collection: collection, Op: "write", Err: err}
	}
	s.tables[collection] = newTable(raw, true, rows)
	return nil
}

func newTable(raw string, present bool, rows []*Record) *table {
	t := &table{
		raw:     raw,
		present: present,
		rows:    make([]*Record, 0, len(rows)),
		index:   make(map[string]int, len(rows)),
	}
	for _, r := range rows {
		if r == nil {
			continue
		}
		if id := r.ID(); id != "" {
			// при дублях побеждает первая запись
			if _, dup := t.index[id]; !dup {
				t.index[id] = len(t.rows)
			}
		}
		t.rows = append(t.rows, r)
	}
	return t
}
