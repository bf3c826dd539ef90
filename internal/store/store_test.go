package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"mfgtrack/internal/kv"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fixedClock(year int) func() time.Time {
	return func() time.Time { return time.Date(year, time.March, 14, 10, 0, 0, 0, time.UTC) }
}

func newTestStore(t *testing.T) (*Store, *kv.Memory) {
	t.Helper()
	mem := kv.NewMemory()
	return New(mem), mem
}

func TestGetAbsentCollectionIsEmpty(t *testing.T) {
	s, _ := newTestStore(t)
	recs, err := s.Get(context.Background(), "orders")
	require.NoError(t, err)
	assert.NotNil(t, recs)
	assert.Empty(t, recs)
}

func TestAddAssignsUniqueIDs(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestStore(t)

	seen := map[string]bool{}
	for i := 0; i < 50; i++ {
		in := R("name", "Сахар", "unit", "кг")
		got, err := s.Add(ctx, "rawMaterials", in)
		require.NoError(t, err)
		require.NotEmpty(t, got.ID())
		assert.False(t, seen[got.ID()], "id reused: %s", got.ID())
		seen[got.ID()] = true
		assert.False(t, in.Has("id"), "input record must not be mutated")
	}

	recs, err := s.Get(ctx, "rawMaterials")
	require.NoError(t, err)
	assert.Len(t, recs, 50)
}

func TestAddThenGetContainsRecord(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestStore(t)

	in := R("date", "2025-03-14", "material", "Сахар", "quantity", 100.0)
	got, err := s.Add(ctx, "incoming", in)
	require.NoError(t, err)

	recs, err := s.Get(ctx, "incoming")
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, got, recs[0])

	want := in.Clone().Set("id", got.ID())
	assert.Equal(t, want, recs[0])
}

func TestUpdateMergesPatch(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestStore(t)

	o, err := s.Add(ctx, "orders", R("status", "Создан", "product", "Хлеб", "quantity", 20.0))
	require.NoError(t, err)

	upd, ok, err := s.Update(ctx, "orders", o.ID(), R("status", "В работе", "id", "hijack"))
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, o.ID(), upd.ID(), "id must never change")

	got, ok, err := s.Find(ctx, "orders", o.ID())
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "В работе", got.Str("status"))
	assert.Equal(t, "Хлеб", got.Str("product"))
	assert.Equal(t, []string{"status", "product", "quantity", "id"}, got.Keys())
}

func TestUpdateUnknownIDIsLookupMiss(t *testing.T) {
	ctx := context.Background()
	s, mem := newTestStore(t)
	_, err := s.Add(ctx, "orders", R("status", "Создан"))
	require.NoError(t, err)
	before, _, _ := mem.GetItem(ctx, "orders")

	rec, ok, err := s.Update(ctx, "orders", "nope", R("status", "Принято"))
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Nil(t, rec)

	after, _, _ := mem.GetItem(ctx, "orders")
	assert.Equal(t, before, after)
}

func TestDelete(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestStore(t)

	a, _ := s.Add(ctx, "clients", R("name", "ООО Ромашка"))
	b, _ := s.Add(ctx, "clients", R("name", "ИП Петров"))

	require.NoError(t, s.Delete(ctx, "clients", a.ID()))
	recs, err := s.Get(ctx, "clients")
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, b.ID(), recs[0].ID())

	// повторное удаление и неизвестный id: без изменений
	require.NoError(t, s.Delete(ctx, "clients", a.ID()))
	require.NoError(t, s.Delete(ctx, "clients", "unknown"))
	again, _ := s.Get(ctx, "clients")
	assert.Equal(t, recs, again)
}

func TestSetReplacesCollection(t *testing.T) {
	ctx := context.Background()
	s, mem := newTestStore(t)

	_, _ = s.Add(ctx, "lines", R("name", "Линия 1"))
	require.NoError(t, s.Set(ctx, "lines", []*Record{R("id", "x", "name", "Линия 2")}))

	raw, ok, err := mem.GetItem(ctx, "lines")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, `[{"id":"x","name":"Линия 2"}]`, raw)

	require.NoError(t, s.Set(ctx, "lines", nil))
	raw, _, _ = mem.GetItem(ctx, "lines")
	assert.Equal(t, `[]`, raw)
}

func TestGetReturnsCopies(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestStore(t)
	rec, _ := s.Add(ctx, "users", R("name", "Иванов"))

	recs, _ := s.Get(ctx, "users")
	recs[0].Set("name", "changed")

	got, _, _ := s.Find(ctx, "users", rec.ID())
	assert.Equal(t, "Иванов", got.Str("name"))
}

func TestExternalWriteIsVisible(t *testing.T) {
	ctx := context.Background()
	mem := kv.NewMemory()
	tab1 := New(mem)
	tab2 := New(mem.Tab())

	a, err := tab1.Add(ctx, "orders", R("status", "Создан"))
	require.NoError(t, err)
	_, err = tab2.Add(ctx, "orders", R("status", "Создан"))
	require.NoError(t, err)

	recs, err := tab1.Get(ctx, "orders")
	require.NoError(t, err)
	assert.Len(t, recs, 2)

	// писатели не согласуются: полная запись коллекции затирает чужие изменения
	require.NoError(t, tab2.Set(ctx, "orders", nil))
	_, ok, err := tab1.Find(ctx, "orders", a.ID())
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestCorruptJSONIsPersistenceError(t *testing.T) {
	ctx := context.Background()
	s, mem := newTestStore(t)
	require.NoError(t, mem.SetItem(ctx, "orders", `[{"id":`))

	_, err := s.Get(ctx, "orders")
	var pe *PersistenceError
	require.True(t, errors.As(err, &pe))
	assert.Equal(t, "orders", pe.Collection)
	assert.Equal(t, "decode", pe.Op)

	_, err = s.Add(ctx, "orders", R("status", "Создан"))
	require.Error(t, err)
}

func TestNullRowsAreSkipped(t *testing.T) {
	ctx := context.Background()
	s, mem := newTestStore(t)
	require.NoError(t, mem.SetItem(ctx, "roles", `[null,{"id":"r1","name":"Админ"}]`))

	recs, err := s.Get(ctx, "roles")
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, "r1", recs[0].ID())
}

func TestSequences(t *testing.T) {
	ctx := context.Background()
	mem := kv.NewMemory()
	s := New(mem, WithClock(fixedClock(2025)))

	n, err := s.NextOrderNumber(ctx)
	require.NoError(t, err)
	assert.Equal(t, "SO-2025-001", n)
	n, _ = s.NextOrderNumber(ctx)
	assert.Equal(t, "SO-2025-002", n)

	raw, _, _ := mem.GetItem(ctx, "lastOrderNumber_2025")
	assert.Equal(t, "2", raw)

	sh, err := s.NextShipmentNumber(ctx)
	require.NoError(t, err)
	assert.Equal(t, "SH-2025-001", sh)

	// новый год: новый счётчик
	next := New(mem, WithClock(fixedClock(2026)))
	n, _ = next.NextOrderNumber(ctx)
	assert.Equal(t, "SO-2026-001", n)
}

func TestSequenceToleratesGarbageCounter(t *testing.T) {
	ctx := context.Background()
	mem := kv.NewMemory()
	s := New(mem, WithClock(fixedClock(2025)))

	require.NoError(t, mem.SetItem(ctx, "lastOrderNumber_2025", "41abc"))
	n, _ := s.NextOrderNumber(ctx)
	assert.Equal(t, "SO-2025-042", n)

	require.NoError(t, mem.SetItem(ctx, "lastShipmentNumber_2025", "oops"))
	n, _ = s.NextShipmentNumber(ctx)
	assert.Equal(t, "SH-2025-001", n)

	require.NoError(t, mem.SetItem(ctx, "lastOrderNumber_2025", "999"))
	n, _ = s.NextOrderNumber(ctx)
	assert.Equal(t, "SO-2025-1000", n)
}

func TestWatch(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	mem := kv.NewMemory()
	s := New(mem)
	other := New(mem.Tab())

	ch, err := s.Watch(ctx)
	require.NoError(t, err)

	_, err = other.Add(ctx, "orders", R("status", "Создан"))
	require.NoError(t, err)

	select {
	case c := <-ch:
		assert.Equal(t, "orders", c.Key)
	case <-time.After(time.Second):
		t.Fatal("no change notification")
	}
}

type plainBackend struct{ kv.Backend }

func TestWatchUnsupported(t *testing.T) {
	s := New(plainBackend{kv.NewMemory()})
	_, err := s.Watch(context.Background())
	assert.ErrorIs(t, err, kv.ErrNotSupported)
}
