package embedding

import (
	"context"
	"fmt"

	"google.golang.org/genai"
)

// GeminiEmbedder adapts the genai embedding endpoint to the gateway's
// Embedder interface.
type GeminiEmbedder struct {
	client *genai.Client
	name   string // e.g. "text-embedding-004"
}

func NewGeminiEmbedder(client *genai.Client, name string) *GeminiEmbedder {
	return &GeminiEmbedder{client: client, name: name}
}

func (e *GeminiEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	res, err := e.client.Models.EmbedContent(ctx, e.name, genai.Text(text), nil)
	if err != nil {
		return nil, err
	}
	if len(res.Embeddings) == 0 {
		return nil, fmt.Errorf("embedding response contained no vectors")
	}
	return res.Embeddings[0].Values, nil
}
