package repo

import (
	"context"
	"errors"
	"strconv"

	"github.com/redis/go-redis/v9"

	errx "github.com/concierge-core/gateway/internal/core/error"
	"github.com/concierge-core/gateway/internal/gateway/model"
)

// RedisCounters backs the cache hit/miss/store counters. Keys follow the
// same colon-separated layout as the conversation and router keys.
type RedisCounters struct {
	rdb    redis.Cmdable
	prefix string
}

func NewRedisCounters(rdb redis.Cmdable, prefix string) *RedisCounters {
	return &RedisCounters{rdb: rdb, prefix: prefix}
}

func (c *RedisCounters) key(name string) string {
	return c.prefix + ":" + name
}

func (c *RedisCounters) Incr(ctx context.Context, name string) error {
	if err := c.rdb.Incr(ctx, c.key(name)).Err(); err != nil {
		return errx.WrapRedis(err)
	}
	return nil
}

func (c *RedisCounters) Get(ctx context.Context, name string) (int64, error) {
	v, err := c.rdb.Get(ctx, c.key(name)).Result()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	if err != nil {
		return 0, errx.WrapRedis(err)
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return 0, err
	}
	return n, nil
}

var _ model.CounterStore = (*RedisCounters)(nil)
