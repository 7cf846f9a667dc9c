package model

import "context"

// Embedder turns text into a fixed-length vector. May fail or time out;
// router and cache fail open when it does.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// ModelResponse is one completed LLM inference.
type ModelResponse struct {
	Content      string         `json:"content"`
	Model        string         `json:"model"`
	InputTokens  int            `json:"input_tokens"`
	OutputTokens int            `json:"output_tokens"`
	LatencyMs    int64          `json:"latency_ms"`
	Metadata     map[string]any `json:"metadata,omitempty"`
}

// AIProvider generates a completion for a prompt. The gateway holds one
// provider per model tier.
type AIProvider interface {
	Generate(ctx context.Context, prompt string) (*ModelResponse, error)
}
