// Package kv определяет плоское хранилище "ключ → строка", аналог localStorage браузера.
// Каждая коллекция записей лежит под своим ключом как JSON-массив.
package kv

import (
	"context"
	"errors"
)

// ErrNotSupported: драйвер не умеет сообщать о внешних изменениях.
var ErrNotSupported = errors.New("kv: change notifications are not supported by this driver")

type Backend interface {
	// GetItem возвращает значение ключа; ok=false, если ключа нет.
	GetItem(ctx context.Context, key string) (value string, ok bool, err error)
	SetItem(ctx context.Context, key, value string) error
	RemoveItem(ctx context.Context, key string) error
	Close() error
}

// Change: уведомление "хранилище изменено извне" (другой вкладкой/процессом).
type Change struct {
	Key    string `json:"key"`
	Origin string `json:"origin"`
}

// Notifier реализуют драйверы, умеющие рассылать изменения между писателями.
// Свои собственные записи подписчик не получает.
type Notifier interface {
	Subscribe(ctx context.Context) (<-chan Change, error)
}
