package repo

import (
	"context"
	"strconv"

	"github.com/redis/go-redis/v9"

	errx "github.com/concierge-core/gateway/internal/core/error"
	"github.com/concierge-core/gateway/internal/gateway/model"
)

const (
	routerStatsKey        = "router:stats"
	routerDistributionKey = "router:intent_distribution"
)

// RedisRouterStats accumulates routing statistics in Redis hashes so they
// survive restarts and aggregate across instances.
type RedisRouterStats struct {
	rdb redis.Cmdable
}

func NewRedisRouterStats(rdb redis.Cmdable) *RedisRouterStats {
	return &RedisRouterStats{rdb: rdb}
}

func (s *RedisRouterStats) RecordRoute(ctx context.Context, agent model.Intent, transition, newConversation bool) error {
	_, err := s.rdb.TxPipelined(ctx, func(p redis.Pipeliner) error {
		p.HIncrBy(ctx, routerStatsKey, "routes", 1)
		if transition {
			p.HIncrBy(ctx, routerStatsKey, "transitions", 1)
		}
		if newConversation {
			p.HIncrBy(ctx, routerStatsKey, "conversations", 1)
		}
		p.HIncrBy(ctx, routerDistributionKey, agent.String(), 1)
		return nil
	})
	if err != nil {
		return errx.WrapRedis(err)
	}
	return nil
}

func (s *RedisRouterStats) Snapshot(ctx context.Context) (*model.RouterStats, error) {
	counters, err := s.rdb.HGetAll(ctx, routerStatsKey).Result()
	if err != nil {
		return nil, errx.WrapRedis(err)
	}
	dist, err := s.rdb.HGetAll(ctx, routerDistributionKey).Result()
	if err != nil {
		return nil, errx.WrapRedis(err)
	}

	stats := &model.RouterStats{IntentDistribution: make(map[model.Intent]int64, len(dist))}
	stats.TotalRoutes, _ = strconv.ParseInt(counters["routes"], 10, 64)
	stats.IntentTransitions, _ = strconv.ParseInt(counters["transitions"], 10, 64)
	stats.TotalConversations, _ = strconv.ParseInt(counters["conversations"], 10, 64)
	for k, v := range dist {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			continue
		}
		stats.IntentDistribution[model.ParseIntent(k)] = n
	}
	return stats, nil
}

var _ model.RouterStatsStore = (*RedisRouterStats)(nil)
