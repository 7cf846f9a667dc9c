// Package router classifies inbound messages into agent intents by embedding
// similarity against per-agent reference centroids, and keeps per-conversation
// routing state.
package router

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/rs/zerolog"

	"github.com/concierge-core/gateway/internal/gateway/model"
	logx "github.com/concierge-core/gateway/pkg/logger"
	"github.com/concierge-core/gateway/pkg/vectors"
)

type agentRef struct {
	agent       model.Intent
	description string
	centroid    []float32
}

type Router struct {
	embedder model.Embedder
	states   model.ConversationStateRepository
	stats    model.RouterStatsStore
	cfg      model.RouterConfig
	refs     []agentRef
	log      zerolog.Logger
}

// New embeds every profile's exemplars and stores their centroid as the
// agent's reference vector. Fails fast: a gateway that cannot embed its own
// exemplars cannot classify anything.
func New(ctx context.Context, embedder model.Embedder, states model.ConversationStateRepository, stats model.RouterStatsStore, cfg model.RouterConfig, profiles []AgentProfile) (*Router, error) {
	r := &Router{
		embedder: embedder,
		states:   states,
		stats:    stats,
		cfg:      cfg,
		log:      logx.Component("router"),
	}
	for _, p := range profiles {
		vecs := make([][]float32, 0, len(p.Exemplars))
		for _, ex := range p.Exemplars {
			v, err := embedder.Embed(ctx, ex)
			if err != nil {
				return nil, fmt.Errorf("embed exemplar for agent %s: %w", p.Agent, err)
			}
			vecs = append(vecs, v)
		}
		centroid := vectors.Centroid(vecs)
		if centroid == nil {
			return nil, fmt.Errorf("agent %s: exemplar embeddings have mismatched dimensions", p.Agent)
		}
		r.refs = append(r.refs, agentRef{agent: p.Agent, description: p.Description, centroid: centroid})
	}
	if len(r.refs) == 0 {
		return nil, fmt.Errorf("router requires at least one agent profile")
	}
	return r, nil
}

// scores embeds the message and ranks every agent by cosine similarity.
func (r *Router) scores(ctx context.Context, message string) ([]model.AgentSuggestion, error) {
	opctx, cancel := context.WithTimeout(ctx, time.Duration(r.cfg.EmbedTimeoutSeconds)*time.Second)
	defer cancel()

	v, err := r.embedder.Embed(opctx, message)
	if err != nil {
		return nil, err
	}
	out := make([]model.AgentSuggestion, 0, len(r.refs))
	for _, ref := range r.refs {
		out = append(out, model.AgentSuggestion{
			AgentType:   ref.agent,
			Confidence:  vectors.Cosine(v, ref.centroid),
			Description: ref.description,
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Confidence > out[j].Confidence })
	return out, nil
}

// ClassifyIntent classifies without touching conversation state. On embedding
// failure it degrades to the general agent with confidence 0 and the
// classification_unavailable flag instead of surfacing an error.
func (r *Router) ClassifyIntent(ctx context.Context, message string) model.Classification {
	return r.classify(ctx, message, model.IntentUnknown)
}

// classify applies the continuity bias: when the top two candidates are
// within ContinuityEpsilon and the conversation's current agent is one of
// them, the current agent keeps the conversation.
func (r *Router) classify(ctx context.Context, message string, current model.Intent) model.Classification {
	ranked, err := r.scores(ctx, message)
	if err != nil {
		r.log.Warn().Err(err).Msg("embedding unavailable, degrading to fallback agent")
		return model.Classification{Agent: model.IntentGeneral, Confidence: 0, Unavailable: true}
	}

	best := ranked[0]
	if len(ranked) > 1 && current.Known() {
		second := ranked[1]
		if best.Confidence-second.Confidence < r.cfg.ContinuityEpsilon {
			for _, cand := range ranked[:2] {
				if cand.AgentType == current {
					best = cand
					break
				}
			}
		}
	}
	return model.Classification{Agent: best.AgentType, Confidence: best.Confidence}
}

// Route classifies the message and records the observation in conversation
// state. State-store failures degrade (routing still answers); only the
// transition marker is lost.
func (r *Router) Route(ctx context.Context, conversationID, message string) (*model.Routing, error) {
	return r.route(ctx, conversationID, message, 0, false)
}

// RouteWithFallback rejects classifications below threshold and routes them
// to the general agent, annotating the routing with the original candidate so
// a forced fallback is distinguishable from a confident miss.
func (r *Router) RouteWithFallback(ctx context.Context, conversationID, message string, threshold float64) (*model.Routing, error) {
	return r.route(ctx, conversationID, message, threshold, true)
}

func (r *Router) route(ctx context.Context, conversationID, message string, threshold float64, useThreshold bool) (*model.Routing, error) {
	start := time.Now()

	current, err := r.states.CurrentAgent(ctx, conversationID)
	if err != nil {
		r.log.Warn().Err(err).Str("conversationID", conversationID).Msg("state unavailable, continuity bias disabled")
		current = model.IntentUnknown
	}

	cls := r.classify(ctx, message, current)
	routing := &model.Routing{
		AgentType:                 cls.Agent,
		Confidence:                cls.Confidence,
		ClassificationUnavailable: cls.Unavailable,
	}

	if useThreshold && !cls.Unavailable && cls.Confidence < threshold {
		routing.AgentType = model.IntentGeneral
		routing.Fallback = &model.FallbackInfo{
			OriginalAgent:      cls.Agent,
			OriginalConfidence: cls.Confidence,
			Threshold:          threshold,
		}
	}

	// No observation is recorded when classification never happened;
	// a degraded fallback must not overwrite the conversation's owner.
	if !cls.Unavailable {
		obs := model.IntentObservation{Agent: routing.AgentType, Confidence: routing.Confidence, At: time.Now().UTC()}
		res, err := r.states.Observe(ctx, conversationID, obs)
		if err != nil {
			r.log.Warn().Err(err).Str("conversationID", conversationID).Msg("failed to record intent observation")
		} else {
			routing.IntentTransition = res.Transition
			if err := r.stats.RecordRoute(ctx, routing.AgentType, res.Transition, res.NewConversation); err != nil {
				r.log.Warn().Err(err).Msg("failed to record router statistics")
			}
		}
	}

	routing.TotalLatencyMs = time.Since(start).Milliseconds()
	return routing, nil
}

// SuggestAgents ranks agents for an ambiguous message.
func (r *Router) SuggestAgents(ctx context.Context, message string, topK int) ([]model.AgentSuggestion, error) {
	ranked, err := r.scores(ctx, message)
	if err != nil {
		return nil, err
	}
	if topK > 0 && topK < len(ranked) {
		ranked = ranked[:topK]
	}
	return ranked, nil
}

// Statistics returns the aggregate routing view.
func (r *Router) Statistics(ctx context.Context) (*model.RouterStats, error) {
	return r.stats.Snapshot(ctx)
}
