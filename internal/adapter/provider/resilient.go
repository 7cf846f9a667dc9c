package provider

import (
	"context"
	"fmt"
	"math/rand"
	"strings"
	"time"

	"github.com/rs/zerolog"

	gwmodel "github.com/concierge-core/gateway/internal/gateway/model"
)

// ResilientProvider wraps a primary provider with retries and a single-shot
// fallback. All calls share a per-generation timeout so one stuck upstream
// cannot hold a request slot indefinitely.
type ResilientProvider struct {
	primary    gwmodel.AIProvider
	fallback   gwmodel.AIProvider
	maxRetries int
	baseDelay  time.Duration
	timeout    time.Duration
	log        zerolog.Logger
}

func NewResilientProvider(primary, fallback gwmodel.AIProvider, log zerolog.Logger) *ResilientProvider {
	return &ResilientProvider{
		primary:    primary,
		fallback:   fallback,
		maxRetries: 2,
		baseDelay:  500 * time.Millisecond,
		timeout:    25 * time.Second,
		log:        log,
	}
}

func (r *ResilientProvider) Generate(ctx context.Context, prompt string) (*gwmodel.ModelResponse, error) {
	genCtx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	resp, err := r.executeWithRetry(genCtx, r.primary, prompt)
	if err == nil {
		return resp, nil
	}

	if r.fallback == nil {
		return nil, err
	}
	r.log.Warn().Err(err).Msg("primary provider exhausted, switching to fallback")

	resp, ferr := r.fallback.Generate(genCtx, prompt)
	if ferr != nil {
		return nil, fmt.Errorf("both primary and fallback failed: %w", ferr)
	}

	if resp.Metadata == nil {
		resp.Metadata = make(map[string]any)
	}
	resp.Metadata["fallback_used"] = true

	return resp, nil
}

func (r *ResilientProvider) executeWithRetry(ctx context.Context, p gwmodel.AIProvider, prompt string) (*gwmodel.ModelResponse, error) {
	var lastErr error
	for attempt := 0; attempt <= r.maxRetries; attempt++ {
		resp, err := p.Generate(ctx, prompt)
		if err == nil {
			return resp, nil
		}
		lastErr = err

		if !isRetryable(err) || attempt == r.maxRetries {
			break
		}

		select {
		case <-time.After(r.backoff(attempt)):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	return nil, lastErr
}

// isRetryable treats rate limits, transient server errors, and upstream
// deadline trips as retryable. Anything else fails fast.
func isRetryable(err error) bool {
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "429") ||
		strings.Contains(msg, "500") ||
		strings.Contains(msg, "503") ||
		strings.Contains(msg, "overloaded") ||
		strings.Contains(msg, "deadline")
}

func (r *ResilientProvider) backoff(attempt int) time.Duration {
	wait := float64(r.baseDelay) * float64(int(1)<<attempt)
	jitter := rand.Float64() * 0.2 * wait
	return time.Duration(wait + jitter)
}
