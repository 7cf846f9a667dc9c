package model

// Classification is the raw output of the intent classifier.
// Unavailable is set when the embedding provider failed and the router
// degraded to the fallback agent with confidence 0.
type Classification struct {
	Agent       Intent  `json:"agent_type"`
	Confidence  float64 `json:"confidence"`
	Unavailable bool    `json:"classification_unavailable,omitempty"`
}

// FallbackInfo explains a forced fallback so callers and logs can tell a
// confident miss from a below-threshold rejection.
type FallbackInfo struct {
	OriginalAgent      Intent  `json:"original_agent"`
	OriginalConfidence float64 `json:"original_confidence"`
	Threshold          float64 `json:"threshold"`
}

// Routing is the metadata block attached to every routed response.
type Routing struct {
	AgentType                 Intent        `json:"agent_type"`
	Confidence                float64       `json:"confidence"`
	IntentTransition          bool          `json:"intent_transition,omitempty"`
	ClassificationUnavailable bool          `json:"classification_unavailable,omitempty"`
	Fallback                  *FallbackInfo `json:"fallback,omitempty"`
	TotalLatencyMs            int64         `json:"total_latency_ms"`
}

// AgentSuggestion is one ranked candidate from suggest_agent.
type AgentSuggestion struct {
	AgentType   Intent  `json:"agent_type"`
	Confidence  float64 `json:"confidence"`
	Description string  `json:"description"`
}

// ChatRequest is a single inbound customer message.
type ChatRequest struct {
	ConversationID      string    `json:"conversation_id"`
	CustomerID          string    `json:"customer_id"`
	Message             string    `json:"message"`
	Role                string    `json:"role,omitempty"`
	ForceModel          ModelTier `json:"force_model,omitempty"`
	ConfidenceThreshold float64   `json:"confidence_threshold,omitempty"`
}

// ChatResponse is what the gateway hands back to the surrounding application.
type ChatResponse struct {
	Content         string    `json:"content"`
	Routing         Routing   `json:"routing"`
	ModelTier       ModelTier `json:"model_tier"`
	Cached          bool      `json:"cached"`
	CacheSimilarity float64   `json:"cache_similarity,omitempty"`
}
