package router

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/concierge-core/gateway/internal/gateway/model"
)

// axisEmbedder maps each agent's exemplars onto that agent's basis axis, so
// centroids are orthogonal unit vectors and query vectors can be crafted to
// land near (or between) specific agents.
type axisEmbedder struct {
	byText map[string][]float32
	fail   bool
}

var axes = map[model.Intent]int{
	model.IntentMenu:    0,
	model.IntentHours:   1,
	model.IntentBooking: 2,
	model.IntentFAQ:     3,
	model.IntentQuote:   4,
	model.IntentSupport: 5,
}

func axis(i model.Intent) []float32 {
	v := make([]float32, len(axes))
	v[axes[i]] = 1
	return v
}

func blend(weights map[model.Intent]float32) []float32 {
	v := make([]float32, len(axes))
	for intent, w := range weights {
		v[axes[intent]] = w
	}
	return v
}

func newAxisEmbedder() *axisEmbedder {
	e := &axisEmbedder{byText: map[string][]float32{}}
	for _, p := range DefaultProfiles() {
		for _, ex := range p.Exemplars {
			e.byText[ex] = axis(p.Agent)
		}
	}
	return e
}

func (e *axisEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	if e.fail {
		return nil, errors.New("embedding provider down")
	}
	if v, ok := e.byText[text]; ok {
		return v, nil
	}
	return blend(map[model.Intent]float32{model.IntentFAQ: 1}), nil
}

type memStates struct {
	mu      sync.Mutex
	current map[string]model.Intent
	history map[string][]model.IntentObservation
	fail    bool
}

func newMemStates() *memStates {
	return &memStates{current: map[string]model.Intent{}, history: map[string][]model.IntentObservation{}}
}

func (s *memStates) Observe(_ context.Context, id string, obs model.IntentObservation) (*model.ObserveResult, error) {
	if s.fail {
		return nil, errors.New("state store down")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	res := &model.ObserveResult{Previous: model.IntentUnknown}
	if prev, ok := s.current[id]; ok {
		res.Previous = prev
		res.Transition = prev != obs.Agent
	} else {
		res.NewConversation = true
	}
	s.current[id] = obs.Agent
	s.history[id] = append(s.history[id], obs)
	return res, nil
}

func (s *memStates) CurrentAgent(_ context.Context, id string) (model.Intent, error) {
	if s.fail {
		return model.IntentUnknown, errors.New("state store down")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if a, ok := s.current[id]; ok {
		return a, nil
	}
	return model.IntentUnknown, nil
}

func (s *memStates) Load(_ context.Context, id string) (*model.ConversationState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return &model.ConversationState{
		ConversationID: id,
		CurrentAgent:   s.current[id],
		IntentHistory:  s.history[id],
	}, nil
}

type memStats struct {
	mu            sync.Mutex
	routes        int64
	transitions   int64
	conversations int64
	distribution  map[model.Intent]int64
}

func newMemStats() *memStats { return &memStats{distribution: map[model.Intent]int64{}} }

func (s *memStats) RecordRoute(_ context.Context, agent model.Intent, transition, newConversation bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.routes++
	if transition {
		s.transitions++
	}
	if newConversation {
		s.conversations++
	}
	s.distribution[agent]++
	return nil
}

func (s *memStats) Snapshot(_ context.Context) (*model.RouterStats, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	dist := make(map[model.Intent]int64, len(s.distribution))
	for k, v := range s.distribution {
		dist[k] = v
	}
	return &model.RouterStats{
		TotalConversations: s.conversations,
		TotalRoutes:        s.routes,
		IntentTransitions:  s.transitions,
		IntentDistribution: dist,
	}, nil
}

func testConfig() model.RouterConfig {
	return model.RouterConfig{ContinuityEpsilon: 0.05, FallbackThreshold: 0.65, EmbedTimeoutSeconds: 2}
}

func newTestRouter(t *testing.T, emb *axisEmbedder) (*Router, *memStates, *memStats) {
	t.Helper()
	states := newMemStates()
	stats := newMemStats()
	r, err := New(context.Background(), emb, states, stats, testConfig(), DefaultProfiles())
	require.NoError(t, err)
	return r, states, stats
}

func TestClassifyPicksBestAgent(t *testing.T) {
	emb := newAxisEmbedder()
	emb.byText["when do you open tomorrow"] = axis(model.IntentHours)
	r, _, _ := newTestRouter(t, emb)

	cls := r.ClassifyIntent(context.Background(), "when do you open tomorrow")
	assert.Equal(t, model.IntentHours, cls.Agent)
	assert.InDelta(t, 1.0, cls.Confidence, 1e-6)
	assert.False(t, cls.Unavailable)
}

func TestContinuityBiasOnNearTie(t *testing.T) {
	emb := newAxisEmbedder()
	// Nearly equidistant between menu and hours; hours marginally ahead.
	emb.byText["ambiguous"] = blend(map[model.Intent]float32{
		model.IntentMenu:  0.705,
		model.IntentHours: 0.709,
	})
	r, _, _ := newTestRouter(t, emb)
	ctx := context.Background()

	// Establish menu as the conversation's current agent.
	routing, err := r.Route(ctx, "conv-1", "What's on your menu?")
	require.NoError(t, err)
	require.Equal(t, model.IntentMenu, routing.AgentType)

	// Near-tie resolves to the current agent, not the raw winner.
	routing, err = r.Route(ctx, "conv-1", "ambiguous")
	require.NoError(t, err)
	assert.Equal(t, model.IntentMenu, routing.AgentType)
	assert.False(t, routing.IntentTransition)

	// Without an owning conversation, the raw winner takes it.
	cls := r.ClassifyIntent(ctx, "ambiguous")
	assert.Equal(t, model.IntentHours, cls.Agent)
}

func TestIntentTransitionMarked(t *testing.T) {
	emb := newAxisEmbedder()
	r, _, stats := newTestRouter(t, emb)
	ctx := context.Background()

	first, err := r.Route(ctx, "conv-2", "What's on your menu?")
	require.NoError(t, err)
	assert.False(t, first.IntentTransition)

	second, err := r.Route(ctx, "conv-2", "I'd like to book a table for four")
	require.NoError(t, err)
	assert.True(t, second.IntentTransition)
	assert.Equal(t, model.IntentBooking, second.AgentType)

	snap, err := stats.Snapshot(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), snap.TotalRoutes)
	assert.Equal(t, int64(1), snap.IntentTransitions)
	assert.Equal(t, int64(1), snap.TotalConversations)
}

func TestRouteWithFallbackBelowThreshold(t *testing.T) {
	emb := newAxisEmbedder()
	// Weak signal: weight spread across every agent, quote barely ahead,
	// so the best cosine stays well under the threshold.
	emb.byText["hmm"] = blend(map[model.Intent]float32{
		model.IntentMenu:    1.0,
		model.IntentHours:   1.0,
		model.IntentBooking: 1.0,
		model.IntentFAQ:     1.0,
		model.IntentQuote:   1.2,
		model.IntentSupport: 1.0,
	})
	r, _, _ := newTestRouter(t, emb)

	routing, err := r.RouteWithFallback(context.Background(), "conv-3", "hmm", 0.65)
	require.NoError(t, err)
	assert.Equal(t, model.IntentGeneral, routing.AgentType)
	require.NotNil(t, routing.Fallback)
	assert.Equal(t, model.IntentQuote, routing.Fallback.OriginalAgent)
	assert.Less(t, routing.Fallback.OriginalConfidence, 0.65)
	assert.Greater(t, routing.Fallback.OriginalConfidence, 0.40)
	assert.Equal(t, 0.65, routing.Fallback.Threshold)
}

func TestRouteWithFallbackConfidentClassificationPasses(t *testing.T) {
	emb := newAxisEmbedder()
	r, _, _ := newTestRouter(t, emb)

	routing, err := r.RouteWithFallback(context.Background(), "conv-4", "What time do you open?", 0.65)
	require.NoError(t, err)
	assert.Equal(t, model.IntentHours, routing.AgentType)
	assert.Nil(t, routing.Fallback)
}

func TestEmbeddingFailureDegradesToFallback(t *testing.T) {
	emb := newAxisEmbedder()
	r, states, _ := newTestRouter(t, emb)
	emb.fail = true

	routing, err := r.Route(context.Background(), "conv-5", "anything")
	require.NoError(t, err)
	assert.Equal(t, model.IntentGeneral, routing.AgentType)
	assert.Zero(t, routing.Confidence)
	assert.True(t, routing.ClassificationUnavailable)

	// A degraded route must not claim ownership of the conversation.
	current, err := states.CurrentAgent(context.Background(), "conv-5")
	require.NoError(t, err)
	assert.Equal(t, model.IntentUnknown, current)
}

func TestStateStoreFailureStillRoutes(t *testing.T) {
	emb := newAxisEmbedder()
	r, states, _ := newTestRouter(t, emb)
	states.fail = true

	routing, err := r.Route(context.Background(), "conv-6", "What time do you open?")
	require.NoError(t, err)
	assert.Equal(t, model.IntentHours, routing.AgentType)
}

func TestSuggestAgents(t *testing.T) {
	emb := newAxisEmbedder()
	emb.byText["mixed"] = blend(map[model.Intent]float32{
		model.IntentBooking: 0.8,
		model.IntentHours:   0.5,
		model.IntentMenu:    0.2,
	})
	r, _, _ := newTestRouter(t, emb)

	got, err := r.SuggestAgents(context.Background(), "mixed", 2)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, model.IntentBooking, got[0].AgentType)
	assert.Equal(t, model.IntentHours, got[1].AgentType)
	assert.NotEmpty(t, got[0].Description)
	assert.Greater(t, got[0].Confidence, got[1].Confidence)
}

func TestRouteLatencyPopulated(t *testing.T) {
	emb := newAxisEmbedder()
	r, _, _ := newTestRouter(t, emb)

	start := time.Now()
	routing, err := r.Route(context.Background(), "conv-7", "What time do you open?")
	require.NoError(t, err)
	assert.GreaterOrEqual(t, routing.TotalLatencyMs, int64(0))
	assert.LessOrEqual(t, routing.TotalLatencyMs, time.Since(start).Milliseconds()+1)
}
