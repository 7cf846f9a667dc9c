package provider

import (
	"context"
	"fmt"
	"time"

	"google.golang.org/genai"

	gwmodel "github.com/concierge-core/gateway/internal/gateway/model"
)

// GeminiProvider calls a single Gemini model. One instance is created per
// tier so the selector can map tiers to concrete model names.
type GeminiProvider struct {
	client *genai.Client
	name   string
}

func NewGeminiProvider(client *genai.Client, name string) *GeminiProvider {
	return &GeminiProvider{client: client, name: name}
}

func (p *GeminiProvider) Generate(ctx context.Context, prompt string) (*gwmodel.ModelResponse, error) {
	start := time.Now()

	result, err := p.client.Models.GenerateContent(ctx, p.name, genai.Text(prompt), nil)
	if err != nil {
		return nil, fmt.Errorf("generate with %s: %w", p.name, err)
	}

	resp := &gwmodel.ModelResponse{
		Content:   result.Text(),
		Model:     p.name,
		LatencyMs: time.Since(start).Milliseconds(),
	}
	if result.UsageMetadata != nil {
		resp.InputTokens = int(result.UsageMetadata.PromptTokenCount)
		resp.OutputTokens = int(result.UsageMetadata.CandidatesTokenCount)
	}
	return resp, nil
}
