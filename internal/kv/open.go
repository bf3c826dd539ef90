package kv

import (
	"context"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"
)

const (
	DriverMemory   = "memory"
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
	DriverRedis    = "redis"
)

type Options struct {
	Driver      string
	SQLitePath  string
	PostgresURL string
	RedisAddr   string
	RedisDB     int
	// Log получает предупреждения драйвера, например о несостоявшейся рассылке изменений.
	Log *logrus.Logger
}

// Open выбирает драйвер по настройкам. Пустой драйвер: memory.
func Open(ctx context.Context, o Options) (Backend, error) {
	switch strings.ToLower(strings.TrimSpace(o.Driver)) {
	case "", DriverMemory:
		return NewMemory(), nil
	case DriverSQLite:
		return OpenSQLite(ctx, o.SQLitePath)
	case DriverPostgres:
		return OpenPostgres(ctx, o.PostgresURL)
	case DriverRedis:
		r, err := OpenRedis(ctx, o.RedisAddr, o.RedisDB)
		if err != nil {
			return nil, err
		}
		if o.Log != nil {
			r.log = o.Log
		}
		return r, nil
	default:
		return nil, fmt.Errorf("kv: unknown driver %q", o.Driver)
	}
}
