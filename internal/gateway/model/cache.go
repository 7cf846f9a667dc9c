package model

import (
	"context"
	"time"
)

// CacheOutcome distinguishes a real hit from the two kinds of miss so call
// sites never have to catch errors to express safe degradation.
type CacheOutcome int

const (
	// CacheMiss is a definite miss: the lookup ran and found nothing acceptable.
	CacheMiss CacheOutcome = iota
	// CacheHit returned a stored response.
	CacheHit
	// CacheDegraded means the embedding provider or store failed and the
	// lookup failed open. Treated as a miss by callers.
	CacheDegraded
)

// CacheResult is the outcome of a semantic cache lookup.
type CacheResult struct {
	Outcome    CacheOutcome `json:"-"`
	Response   string       `json:"response,omitempty"`
	Intent     Intent       `json:"intent,omitempty"`
	Similarity float64      `json:"similarity,omitempty"`
}

// Hit reports whether the result carries a reusable cached response.
func (r *CacheResult) Hit() bool {
	return r != nil && r.Outcome == CacheHit
}

// CacheContext scopes cache entries to a customer/session. Entries stored
// under one fingerprint are invisible to lookups under another, no matter
// how similar the embeddings are.
type CacheContext struct {
	CustomerID string
	Flags      map[string]string
}

// CacheEntry is one stored answer.
type CacheEntry struct {
	Key         string
	Query       string
	Response    string
	Intent      Intent
	Fingerprint string
	CreatedAt   time.Time
	ExpiresAt   time.Time
	HitCount    int64
}

// CacheMatch is a candidate returned by the vector index.
type CacheMatch struct {
	Entry CacheEntry
	Score float64
}

// CacheIndex is the vector index backing the semantic cache. Search must
// restrict candidates to the exact intent and fingerprint before applying
// the similarity threshold, and must exclude expired entries.
type CacheIndex interface {
	Search(ctx context.Context, vector []float32, threshold float64, intent Intent, fingerprint string) (*CacheMatch, error)
	Upsert(ctx context.Context, entry CacheEntry, vector []float32) error
	RecordHit(ctx context.Context, key string, hitCount int64) error
	Purge(ctx context.Context) (int, error)
}

// CounterStore keeps the cache's running hit/miss/store counters.
type CounterStore interface {
	Incr(ctx context.Context, name string) error
	Get(ctx context.Context, name string) (int64, error)
}

// CacheStats is the cache's observability snapshot.
type CacheStats struct {
	Hits             int64   `json:"hits"`
	Misses           int64   `json:"misses"`
	Stores           int64   `json:"stores"`
	HitRatePercent   float64 `json:"hit_rate_percent"`
	EstimatedSavings float64 `json:"estimated_savings"`
}
