package model

// ================ Config ================

type RouterConfig struct {
	// ContinuityEpsilon is the score gap under which the conversation's
	// current agent wins a near-tie.
	ContinuityEpsilon float64 `envconfig:"ROUTER_CONTINUITY_EPSILON" default:"0.05"`
	// FallbackThreshold is the default confidence floor for route_with_fallback.
	FallbackThreshold float64 `envconfig:"ROUTER_FALLBACK_THRESHOLD" default:"0.65"`
	// EmbedTimeoutSeconds caps each embedding call from the router.
	EmbedTimeoutSeconds int `envconfig:"ROUTER_EMBED_TIMEOUT_SECONDS" default:"5"`
}

type CacheConfig struct {
	// SimilarityThreshold is deliberately very high: a false hit sends a
	// wrong answer to a paying customer, which is worse than a miss.
	SimilarityThreshold float64 `envconfig:"CACHE_SIMILARITY_THRESHOLD" default:"0.97"`
	ContextAware        bool    `envconfig:"CACHE_CONTEXT_AWARE" default:"true"`
	OpTimeoutSeconds    int     `envconfig:"CACHE_OP_TIMEOUT_SECONDS" default:"3"`
	// ExpensiveCallCost is the per-call USD estimate used for the savings stat.
	ExpensiveCallCost float64 `envconfig:"CACHE_EXPENSIVE_CALL_COST" default:"0.011"`
}

type QualityConfig struct {
	DegradationThreshold float64 `envconfig:"QUALITY_DEGRADATION_THRESHOLD" default:"0.10"`
	CriticalDegradation  float64 `envconfig:"QUALITY_CRITICAL_DEGRADATION" default:"0.20"`
	LatencyRegression    float64 `envconfig:"QUALITY_LATENCY_REGRESSION" default:"0.50"`
	BaselineDays         int     `envconfig:"QUALITY_BASELINE_DAYS" default:"30"`
	RecentHours          int     `envconfig:"QUALITY_RECENT_HOURS" default:"24"`
	HighQualityThreshold float64 `envconfig:"QUALITY_HIGH_QUALITY_THRESHOLD" default:"0.85"`
	CheckInterval        string  `envconfig:"QUALITY_CHECK_INTERVAL" default:"10m"`
	QueryTimeoutSeconds  int     `envconfig:"QUALITY_QUERY_TIMEOUT_SECONDS" default:"5"`
	MaxAlerts            int     `envconfig:"QUALITY_MAX_ALERTS" default:"1000"`
}

type ConversationConfig struct {
	TTL string `envconfig:"CONVERSATION_TTL" default:"15m"`
	History struct {
		MaxTurns int `envconfig:"CONVERSATION_HISTORY_MAX_TURNS" default:"5"`
	}
}

type ShadowConfig struct {
	// SampleRate is the fraction of student-served requests that also run
	// the teacher for comparison.
	SampleRate     float64 `envconfig:"SHADOW_SAMPLE_RATE" default:"0.1"`
	TimeoutSeconds int     `envconfig:"SHADOW_TIMEOUT_SECONDS" default:"30"`
}

type PromptConfig struct {
	BusinessType string `envconfig:"PROMPT_BUSINESS_TYPE" default:"restaurant"`
	BusinessName string `envconfig:"PROMPT_BUSINESS_NAME" default:"Maison Verte"`
}
