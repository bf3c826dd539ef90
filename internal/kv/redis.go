package kv

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"mfgtrack/internal/logger"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

const (
	redisPrefix  = "mfg:"
	redisChannel = "mfg:changes"
)

// Redis хранит ключи с префиксом mfg: и рассылает изменения через pub/sub,
// так несколько процессов получают сигнал "хранилище изменено извне".
type Redis struct {
	rdb    *redis.Client
	origin string
	log    *logrus.Logger
}

func OpenRedis(ctx context.Context, addr string, db int) (*Redis, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		DB:       db,
		PoolSize: 10,
	})
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("ping redis %s: %w", addr, err)
	}
	return &Redis{rdb: rdb, origin: newOrigin("redis"), log: logger.Discard()}, nil
}

func (r *Redis) GetItem(ctx context.Context, key string) (string, bool, error) {
	v, err := r.rdb.Get(ctx, redisPrefix+key).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return v, true, nil
}

func (r *Redis) SetItem(ctx context.Context, key, value string) error {
	if err := r.rdb.Set(ctx, redisPrefix+key, value, 0).Err(); err != nil {
		return err
	}
	r.notify(ctx, key)
	return nil
}

func (r *Redis) RemoveItem(ctx context.Context, key string) error {
	n, err := r.rdb.Del(ctx, redisPrefix+key).Result()
	if err != nil {
		return err
	}
	if n > 0 {
		r.notify(ctx, key)
	}
	return nil
}

func (r *Redis) Close() error { return r.rdb.Close() }

// notify рассылает изменение ключа. Значение к этому моменту уже записано,
// поэтому сбой рассылки не откатывает запись: другие процессы просто не
// узнают о ней до следующего чтения.
func (r *Redis) notify(ctx context.Context, key string) {
	err := r.rdb.Publish(ctx, redisChannel, r.origin+"|"+key).Err()
	if err != nil {
		r.log.WithFields(logrus.Fields{
			"module": "kv",
			"func":   "notify",
			"key":    key,
		}).WithError(err).Warn("change notification failed")
	}
}

func (r *Redis) Subscribe(ctx context.Context) (<-chan Change, error) {
	ps := r.rdb.Subscribe(ctx, redisChannel)
	// дожидаемся подтверждения подписки, иначе первые сообщения теряются
	if _, err := ps.Receive(ctx); err != nil {
		_ = ps.Close()
		return nil, err
	}
	out := make(chan Change, subscriberBuffer)
	go func() {
		defer close(out)
		defer ps.Close()
		msgs := ps.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case m, ok := <-msgs:
				if !ok {
					return
				}
				origin, key, found := strings.Cut(m.Payload, "|")
				if !found || origin == r.origin {
					continue
				}
				select {
				case out <- Change{Key: key, Origin: origin}:
				default:
				}
			}
		}
	}()
	return out, nil
}
