package kv

import (
	"context"
	"strconv"
	"sync"
	"sync/atomic"
)

const subscriberBuffer = 64

var originSeq atomic.Int64

// Memory: in-memory драйвер. Несколько Memory, полученных через Tab(),
// разделяют одни данные и ведут себя как вкладки одного браузера.
type Memory struct {
	shared *memoryShared
	origin string
}

type memoryShared struct {
	mu    sync.RWMutex
	items map[string]string
	subs  map[int]*memorySub
	next  int
}

type memorySub struct {
	origin string
	ch     chan Change
}

func NewMemory() *Memory {
	return &Memory{
		shared: &memoryShared{
			items: make(map[string]string),
			subs:  make(map[int]*memorySub),
		},
		origin: newOrigin("mem"),
	}
}

// Tab возвращает ещё одного писателя над теми же данными.
func (m *Memory) Tab() *Memory {
	return &Memory{shared: m.shared, origin: newOrigin("mem")}
}

func (m *Memory) Origin() string { return m.origin }

func (m *Memory) GetItem(ctx context.Context, key string) (string, bool, error) {
	if err := ctx.Err(); err != nil {
		return "", false, err
	}
	m.shared.mu.RLock()
	defer m.shared.mu.RUnlock()
	v, ok := m.shared.items[key]
	return v, ok, nil
}

func (m *Memory) SetItem(ctx context.Context, key, value string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.shared.mu.Lock()
	m.shared.items[key] = value
	m.shared.broadcastLocked(Change{Key: key, Origin: m.origin})
	m.shared.mu.Unlock()
	return nil
}

func (m *Memory) RemoveItem(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.shared.mu.Lock()
	if _, ok := m.shared.items[key]; ok {
		delete(m.shared.items, key)
		m.shared.broadcastLocked(Change{Key: key, Origin: m.origin})
	}
	m.shared.mu.Unlock()
	return nil
}

func (m *Memory) Close() error { return nil }

// Subscribe отдаёт изменения, сделанные другими вкладками. Канал закрывается по ctx.
func (m *Memory) Subscribe(ctx context.Context) (<-chan Change, error) {
	ch := make(chan Change, subscriberBuffer)

	m.shared.mu.Lock()
	id := m.shared.next
	m.shared.next++
	m.shared.subs[id] = &memorySub{origin: m.origin, ch: ch}
	m.shared.mu.Unlock()

	go func() {
		<-ctx.Done()
		m.shared.mu.Lock()
		delete(m.shared.subs, id)
		close(ch)
		m.shared.mu.Unlock()
	}()
	return ch, nil
}

func (s *memoryShared) broadcastLocked(c Change) {
	for _, sub := range s.subs {
		if sub.origin == c.Origin {
			continue
		}
		// медленный подписчик теряет уведомление, а не тормозит запись
		select {
		case sub.ch <- c:
		default:
		}
	}
}

func newOrigin(prefix string) string {
	return prefix + "-" + strconv.FormatInt(originSeq.Add(1), 10)
}
