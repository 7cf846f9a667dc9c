// Package cache implements the safety-gated semantic cache: near-duplicate
// queries reuse stored answers, but never across intents or customer contexts,
// and every operation fails open on infrastructure errors.
package cache

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/concierge-core/gateway/internal/gateway/model"
	logx "github.com/concierge-core/gateway/pkg/logger"
)

const (
	statHits   = "hits"
	statMisses = "misses"
	statStores = "stores"
)

type SemanticCache struct {
	embedder model.Embedder
	index    model.CacheIndex
	counters model.CounterStore
	cfg      model.CacheConfig
	log      zerolog.Logger
}

func New(embedder model.Embedder, index model.CacheIndex, counters model.CounterStore, cfg model.CacheConfig) *SemanticCache {
	return &SemanticCache{
		embedder: embedder,
		index:    index,
		counters: counters,
		cfg:      cfg,
		log:      logx.Component("cache"),
	}
}

func (c *SemanticCache) opCtx(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, time.Duration(c.cfg.OpTimeoutSeconds)*time.Second)
}

// Check looks up a stored answer for (query, intent, context). It never
// returns an error: an embedding or index failure degrades to a miss, because
// a forced model call is always safe and a wrong cached answer is not.
func (c *SemanticCache) Check(ctx context.Context, query string, intent model.Intent, cctx *model.CacheContext) *model.CacheResult {
	fingerprint := c.fingerprint(cctx)

	opctx, cancel := c.opCtx(ctx)
	defer cancel()

	vector, err := c.embedder.Embed(opctx, query)
	if err != nil {
		c.log.Warn().Err(err).Str("intent", intent.String()).Msg("embedding unavailable, failing open to miss")
		c.count(ctx, statMisses)
		return &model.CacheResult{Outcome: model.CacheDegraded}
	}

	match, err := c.index.Search(opctx, vector, c.cfg.SimilarityThreshold, intent, fingerprint)
	if err != nil {
		c.log.Warn().Err(err).Str("intent", intent.String()).Msg("cache index search failed, failing open to miss")
		c.count(ctx, statMisses)
		return &model.CacheResult{Outcome: model.CacheDegraded}
	}
	if match == nil {
		c.count(ctx, statMisses)
		return &model.CacheResult{Outcome: model.CacheMiss}
	}

	c.count(ctx, statHits)
	if err := c.index.RecordHit(opctx, match.Entry.Key, match.Entry.HitCount+1); err != nil {
		c.log.Warn().Err(err).Str("key", match.Entry.Key).Msg("failed to bump hit count")
	}

	return &model.CacheResult{
		Outcome:    model.CacheHit,
		Response:   match.Entry.Response,
		Intent:     match.Entry.Intent,
		Similarity: match.Score,
	}
}

// Store persists a computed answer. Returns false (never an error) when the
// embedding provider or index is unavailable.
func (c *SemanticCache) Store(ctx context.Context, query, response string, intent model.Intent, cctx *model.CacheContext) bool {
	fingerprint := c.fingerprint(cctx)

	opctx, cancel := c.opCtx(ctx)
	defer cancel()

	vector, err := c.embedder.Embed(opctx, query)
	if err != nil {
		c.log.Warn().Err(err).Str("intent", intent.String()).Msg("embedding unavailable, skipping cache store")
		return false
	}

	now := time.Now().UTC()
	entry := model.CacheEntry{
		Key:         Key(query, intent, fingerprint),
		Query:       query,
		Response:    response,
		Intent:      intent,
		Fingerprint: fingerprint,
		CreatedAt:   now,
		ExpiresAt:   now.Add(DetermineTTL(intent)),
	}

	if err := c.index.Upsert(opctx, entry, vector); err != nil {
		c.log.Warn().Err(err).Str("key", entry.Key).Msg("cache store failed")
		return false
	}
	c.count(ctx, statStores)
	return true
}

// Stats returns the running counters plus derived hit rate and savings.
func (c *SemanticCache) Stats(ctx context.Context) (*model.CacheStats, error) {
	stats := &model.CacheStats{}
	var err error
	if stats.Hits, err = c.counters.Get(ctx, statHits); err != nil {
		return nil, err
	}
	if stats.Misses, err = c.counters.Get(ctx, statMisses); err != nil {
		return nil, err
	}
	if stats.Stores, err = c.counters.Get(ctx, statStores); err != nil {
		return nil, err
	}
	if total := stats.Hits + stats.Misses; total > 0 {
		stats.HitRatePercent = float64(stats.Hits) / float64(total) * 100
	}
	stats.EstimatedSavings = float64(stats.Hits) * c.cfg.ExpensiveCallCost
	return stats, nil
}

// Clear removes every entry and returns how many were removed.
func (c *SemanticCache) Clear(ctx context.Context) (int, error) {
	return c.index.Purge(ctx)
}

func (c *SemanticCache) fingerprint(cctx *model.CacheContext) string {
	if !c.cfg.ContextAware {
		return Fingerprint(nil)
	}
	return Fingerprint(cctx)
}

func (c *SemanticCache) count(ctx context.Context, name string) {
	if err := c.counters.Incr(ctx, name); err != nil {
		c.log.Warn().Err(err).Str("counter", name).Msg("failed to increment cache counter")
	}
}
