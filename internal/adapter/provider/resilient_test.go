package provider

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	gwmodel "github.com/concierge-core/gateway/internal/gateway/model"
)

type scriptedProvider struct {
	errs  []error
	calls int
}

func (s *scriptedProvider) Generate(ctx context.Context, prompt string) (*gwmodel.ModelResponse, error) {
	idx := s.calls
	s.calls++
	if idx < len(s.errs) && s.errs[idx] != nil {
		return nil, s.errs[idx]
	}
	return &gwmodel.ModelResponse{Content: "ok", Model: "scripted"}, nil
}

func newTestResilient(primary, fallback gwmodel.AIProvider) *ResilientProvider {
	r := NewResilientProvider(primary, fallback, zerolog.Nop())
	r.baseDelay = time.Millisecond
	return r
}

func TestRetriesTransientErrorThenSucceeds(t *testing.T) {
	primary := &scriptedProvider{errs: []error{errors.New("503 service unavailable"), nil}}
	r := newTestResilient(primary, nil)

	resp, err := r.Generate(context.Background(), "hello")

	require.NoError(t, err)
	assert.Equal(t, "ok", resp.Content)
	assert.Equal(t, 2, primary.calls)
	assert.Nil(t, resp.Metadata)
}

func TestNonRetryableFailsFast(t *testing.T) {
	primary := &scriptedProvider{errs: []error{errors.New("400 invalid argument")}}
	fallback := &scriptedProvider{}
	r := newTestResilient(primary, fallback)

	resp, err := r.Generate(context.Background(), "hello")

	require.NoError(t, err)
	assert.Equal(t, 1, primary.calls, "non-retryable error must not be retried")
	assert.Equal(t, 1, fallback.calls)
	assert.Equal(t, true, resp.Metadata["fallback_used"])
}

func TestFallbackUsedAfterRetriesExhausted(t *testing.T) {
	boom := errors.New("model overloaded")
	primary := &scriptedProvider{errs: []error{boom, boom, boom}}
	fallback := &scriptedProvider{}
	r := newTestResilient(primary, fallback)

	resp, err := r.Generate(context.Background(), "hello")

	require.NoError(t, err)
	assert.Equal(t, 3, primary.calls)
	assert.Equal(t, true, resp.Metadata["fallback_used"])
}

func TestBothFailReturnsError(t *testing.T) {
	boom := errors.New("429 rate limited")
	primary := &scriptedProvider{errs: []error{boom, boom, boom}}
	fallback := &scriptedProvider{errs: []error{errors.New("fallback down")}}
	r := newTestResilient(primary, fallback)

	_, err := r.Generate(context.Background(), "hello")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "both primary and fallback failed")
}

func TestNoFallbackPropagatesPrimaryError(t *testing.T) {
	primary := &scriptedProvider{errs: []error{errors.New("400 invalid argument")}}
	r := newTestResilient(primary, nil)

	_, err := r.Generate(context.Background(), "hello")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid argument")
}
