package store

import (
	"context"
	"fmt"
	"strconv"
	"strings"
)

const (
	orderCounterKey    = "lastOrderNumber"
	shipmentCounterKey = "lastShipmentNumber"
)

// NextOrderNumber выдаёт номер заказа вида SO-2025-007.
// Счётчик свой на каждый год; первый запрос нового года начинает с 1.
func (s *Store) NextOrderNumber(ctx context.Context) (string, error) {
	return s.nextNumber(ctx, "SO", orderCounterKey)
}

// NextShipmentNumber делает то же для отгрузок (SH-2025-001).
func (s *Store) NextShipmentNumber(ctx context.Context) (string, error) {
	return s.nextNumber(ctx, "SH", shipmentCounterKey)
}

func (s *Store) nextNumber(ctx context.Context, prefix, counter string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	year := s.now().Year()
	key := fmt.Sprintf("%s_%d", counter, year)

	raw, _, err := s.backend.GetItem(ctx, key)
	if err != nil {
		return "", &PersistenceError{Collection: key, Op: "read", Err: err}
	}
	n := leadingInt(raw) + 1
	if err := s.backend.SetItem(ctx, key, strconv.Itoa(n)); err != nil {
		return "", &PersistenceError{Collection: key, Op: "write", Err: err}
	}
	return fmt.Sprintf("%s-%d-%03d", prefix, year, n), nil
}

// leadingInt читает целое из начала строки; мусор и пустое значение дают 0.
func leadingInt(s string) int {
	s = strings.TrimSpace(s)
	end := 0
	for end < len(s) {
		c := s[end]
		if c >= '0' && c <= '9' || (end == 0 && (c == '-' || c == '+')) {
			end++
			continue
		}
		break
	}
	n, err := strconv.Atoi(s[:end])
	if err != nil {
		return 0
	}
	return n
}
