package kv

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"io/fs"

	"github.com/pressly/goose/v3"
)

//go:embed migrations
var migrationsFS embed.FS

// sqlBackend реализует драйвер поверх database/sql с одной таблицей kv(key, value).
type sqlBackend struct {
	db        *sql.DB
	getSQL    string
	upsertSQL string
	deleteSQL string
}

func newSQLBackend(db *sql.DB, placeholder func(n int) string) *sqlBackend {
	return &sqlBackend{
		db:     db,
		getSQL: "SELECT value FROM kv WHERE key = " + placeholder(1),
		upsertSQL: "INSERT INTO kv (key, value) VALUES (" + placeholder(1) + ", " + placeholder(2) + ") " +
			"ON CONFLICT (key) DO UPDATE SET value = excluded.value",
		deleteSQL: "DELETE FROM kv WHERE key = " + placeholder(1),
	}
}

// migrate прогоняет встроенные goose-миграции для диалекта.
func migrate(ctx context.Context, db *sql.DB, dialect goose.Dialect, dir string) error {
	sub, err := fs.Sub(migrationsFS, "migrations/"+dir)
	if err != nil {
		return err
	}
	p, err := goose.NewProvider(dialect, db, sub)
	if err != nil {
		return fmt.Errorf("goose provider: %w", err)
	}
	if _, err := p.Up(ctx); err != nil {
		return fmt.Errorf("goose up: %w", err)
	}
	return nil
}

func (b *sqlBackend) GetItem(ctx context.Context, key string) (string, bool, error) {
	var v string
	err := b.db.QueryRowContext(ctx, b.getSQL, key).Scan(&v)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return v, true, nil
}

func (b *sqlBackend) SetItem(ctx context.Context, key, value string) error {
	_, err := b.db.ExecContext(ctx, b.upsertSQL, key, value)
	return err
}

func (b *sqlBackend) RemoveItem(ctx context.Context, key string) error {
	_, err := b.db.ExecContext(ctx, b.deleteSQL, key)
	return err
}

func (b *sqlBackend) Close() error {
	if b == nil || b.db == nil {
		return nil
	}
	return b.db.Close()
}
