package repo

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"

	"github.com/redis/go-redis/v9"

	errx "github.com/concierge-core/gateway/internal/core/error"
	"github.com/concierge-core/gateway/internal/gateway/model"
)

const splitsKey = "traffic:splits"

// RedisSplits holds the per-intent student traffic split in a single Redis
// hash. Every read goes to Redis so a rollback is visible to all instances
// immediately; nothing is cached locally.
type RedisSplits struct {
	rdb        redis.Cmdable
	defaultPct float64
}

func NewRedisSplits(rdb redis.Cmdable, defaultPct float64) *RedisSplits {
	return &RedisSplits{rdb: rdb, defaultPct: defaultPct}
}

func (s *RedisSplits) Split(ctx context.Context, intent model.Intent) (float64, error) {
	v, err := s.rdb.HGet(ctx, splitsKey, intent.String()).Result()
	if errors.Is(err, redis.Nil) {
		return s.defaultPct, nil
	}
	if err != nil {
		return 0, errx.WrapRedis(err)
	}
	pct, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, fmt.Errorf("parse traffic split for %s: %w", intent, err)
	}
	return pct, nil
}

func (s *RedisSplits) SetSplit(ctx context.Context, intent model.Intent, percentage float64) error {
	if percentage < 0 || percentage > 100 {
		return fmt.Errorf("traffic split out of range: %f", percentage)
	}
	if err := s.rdb.HSet(ctx, splitsKey, intent.String(), strconv.FormatFloat(percentage, 'f', -1, 64)).Err(); err != nil {
		return errx.WrapRedis(err)
	}
	return nil
}

func (s *RedisSplits) Splits(ctx context.Context) (map[model.Intent]float64, error) {
	raw, err := s.rdb.HGetAll(ctx, splitsKey).Result()
	if err != nil {
		return nil, errx.WrapRedis(err)
	}
	out := make(map[model.Intent]float64, len(model.KnownIntents))
	for _, intent := range model.KnownIntents {
		out[intent] = s.defaultPct
	}
	for k, v := range raw {
		pct, err := strconv.ParseFloat(v, 64)
		if err != nil {
			continue
		}
		out[model.ParseIntent(k)] = pct
	}
	return out, nil
}

var _ model.SplitStore = (*RedisSplits)(nil)

// MemorySplits is an in-process SplitStore for tests and single-instance runs.
type MemorySplits struct {
	mu         sync.RWMutex
	splits     map[model.Intent]float64
	defaultPct float64
}

func NewMemorySplits(defaultPct float64) *MemorySplits {
	return &MemorySplits{splits: make(map[model.Intent]float64), defaultPct: defaultPct}
}

func (s *MemorySplits) Split(_ context.Context, intent model.Intent) (float64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if pct, ok := s.splits[intent]; ok {
		return pct, nil
	}
	return s.defaultPct, nil
}

func (s *MemorySplits) SetSplit(_ context.Context, intent model.Intent, percentage float64) error {
	if percentage < 0 || percentage > 100 {
		return fmt.Errorf("traffic split out of range: %f", percentage)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.splits[intent] = percentage
	return nil
}

func (s *MemorySplits) Splits(_ context.Context) (map[model.Intent]float64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[model.Intent]float64, len(model.KnownIntents))
	for _, intent := range model.KnownIntents {
		out[intent] = s.defaultPct
	}
	for k, v := range s.splits {
		out[k] = v
	}
	return out, nil
}

var _ model.SplitStore = (*MemorySplits)(nil)
