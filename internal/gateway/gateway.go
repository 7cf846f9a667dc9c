// Package gateway wires the intent router, model selector, semantic cache and
// quality recorder into the single Chat entry point the API surface exposes.
package gateway

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"github.com/rs/zerolog"

	errx "github.com/concierge-core/gateway/internal/core/error"
	"github.com/concierge-core/gateway/internal/gateway/cache"
	"github.com/concierge-core/gateway/internal/gateway/conversations"
	"github.com/concierge-core/gateway/internal/gateway/model"
	"github.com/concierge-core/gateway/internal/gateway/prompts"
	"github.com/concierge-core/gateway/internal/gateway/quality"
	"github.com/concierge-core/gateway/internal/gateway/router"
	"github.com/concierge-core/gateway/internal/gateway/selector"
	logx "github.com/concierge-core/gateway/pkg/logger"
)

// Providers maps model tiers to their backing AI providers.
type Providers struct {
	Cheap     model.AIProvider
	Medium    model.AIProvider
	Expensive model.AIProvider
}

// ForTier returns the provider serving a tier. Unknown tiers get the
// expensive provider: over-serving is safe, under-serving is not.
func (p Providers) ForTier(tier model.ModelTier) model.AIProvider {
	switch tier {
	case model.TierCheap:
		return p.Cheap
	case model.TierMedium:
		return p.Medium
	default:
		return p.Expensive
	}
}

// Deps bundles everything the gateway composes over.
type Deps struct {
	Router        *router.Router
	Selector      *selector.Selector
	Cache         *cache.SemanticCache
	Conversations *conversations.Manager
	Prompts       *prompts.Builder
	Providers     Providers
	Recorder      *quality.Recorder
	RouterCfg     model.RouterConfig
	ShadowCfg     model.ShadowConfig
}

type Gateway struct {
	router        *router.Router
	selector      *selector.Selector
	cache         *cache.SemanticCache
	conversations *conversations.Manager
	prompts       *prompts.Builder
	providers     Providers
	recorder      *quality.Recorder
	routerCfg     model.RouterConfig
	shadowCfg     model.ShadowConfig

	// sample decides whether a student-served request is shadow-audited.
	sample   func() float64
	shadowWG sync.WaitGroup
	log      zerolog.Logger
}

func New(deps Deps) *Gateway {
	return &Gateway{
		router:        deps.Router,
		selector:      deps.Selector,
		cache:         deps.Cache,
		conversations: deps.Conversations,
		prompts:       deps.Prompts,
		providers:     deps.Providers,
		recorder:      deps.Recorder,
		routerCfg:     deps.RouterCfg,
		shadowCfg:     deps.ShadowCfg,
		sample:        rand.Float64,
		log:           logx.Component("gateway"),
	}
}

// Chat routes, tiers, caches and answers one customer message.
func (g *Gateway) Chat(ctx context.Context, req *model.ChatRequest) (*model.ChatResponse, error) {
	if req.ConversationID == "" {
		return nil, errx.BadRequest(errx.ErrMissingConversationID)
	}
	if req.Message == "" {
		return nil, errx.BadRequest(errx.ErrEmptyMessage)
	}

	threshold := req.ConfidenceThreshold
	if threshold <= 0 {
		threshold = g.routerCfg.FallbackThreshold
	}

	routing, err := g.router.RouteWithFallback(ctx, req.ConversationID, req.Message, threshold)
	if err != nil {
		return nil, err
	}
	agent := routing.AgentType

	if err := g.conversations.RecordUserMessage(ctx, req.ConversationID, req.Message); err != nil {
		g.log.Warn().Err(err).Str("conversationID", req.ConversationID).Msg("failed to record user message")
	}

	historyLen, err := g.conversations.MessageCount(ctx, req.ConversationID)
	if err != nil {
		g.log.Warn().Err(err).Str("conversationID", req.ConversationID).Msg("history unavailable, scoring without it")
		historyLen = 0
	}

	tier, analysis, err := g.selector.SelectModel(ctx, selector.Input{
		Message:       req.Message,
		Intent:        agent,
		Role:          req.Role,
		HistoryLength: historyLen,
		ForceModel:    req.ForceModel,
	})
	if err != nil {
		return nil, err
	}

	cctx := &model.CacheContext{CustomerID: req.CustomerID}
	if cached := g.cache.Check(ctx, req.Message, agent, cctx); cached.Hit() {
		if err := g.conversations.RecordAssistantMessage(ctx, req.ConversationID, cached.Response); err != nil {
			g.log.Warn().Err(err).Str("conversationID", req.ConversationID).Msg("failed to record assistant message")
		}
		return &model.ChatResponse{
			Content:         cached.Response,
			Routing:         *routing,
			ModelTier:       tier,
			Cached:          true,
			CacheSimilarity: cached.Similarity,
		}, nil
	}

	convContext, err := g.conversations.RecentContext(ctx, req.ConversationID)
	if err != nil {
		g.log.Warn().Err(err).Str("conversationID", req.ConversationID).Msg("history unavailable, prompting without context")
		convContext = ""
	}
	prompt := g.prompts.Build(agent, convContext, req.Message)

	resp, err := g.providers.ForTier(tier).Generate(ctx, prompt)
	if err != nil {
		return nil, errx.New(err, 502, "model generation failed")
	}
	g.selector.RecordUsage(tier, resp.InputTokens, resp.OutputTokens)

	g.cache.Store(ctx, req.Message, resp.Content, agent, cctx)
	if err := g.conversations.RecordAssistantMessage(ctx, req.ConversationID, resp.Content); err != nil {
		g.log.Warn().Err(err).Str("conversationID", req.ConversationID).Msg("failed to record assistant message")
	}

	if tier == model.TierCheap && g.recorder != nil && g.sample() < g.shadowCfg.SampleRate {
		g.shadowAudit(agent, prompt, resp)
	}

	g.log.Info().
		Str("conversationID", req.ConversationID).
		Str("agent", agent.String()).
		Str("tier", string(tier)).
		Float64("score", analysis.Score).
		Bool("transition", routing.IntentTransition).
		Msg("chat served")

	return &model.ChatResponse{
		Content:   resp.Content,
		Routing:   *routing,
		ModelTier: tier,
	}, nil
}

// shadowAudit replays the prompt against the expensive tier in the background
// and records the teacher/student pair. Detached from the request context so
// a finished request does not cancel its own audit.
func (g *Gateway) shadowAudit(agent model.Intent, prompt string, student *model.ModelResponse) {
	g.shadowWG.Add(1)
	go func() {
		defer g.shadowWG.Done()

		ctx, cancel := context.WithTimeout(context.Background(), time.Duration(g.shadowCfg.TimeoutSeconds)*time.Second)
		defer cancel()

		teacher, err := g.providers.Expensive.Generate(ctx, prompt)
		if err != nil {
			g.log.Warn().Err(err).Str("agent", agent.String()).Msg("shadow audit generation failed")
			return
		}
		cost, err := selector.EstimateCost(model.TierExpensive, teacher.InputTokens, teacher.OutputTokens)
		if err != nil {
			cost = 0
		}
		if err := g.recorder.Record(ctx, agent, teacher, student, cost); err != nil {
			g.log.Warn().Err(err).Str("agent", agent.String()).Msg("failed to record shadow comparison")
		}
	}()
}

// ClassifyIntent exposes classification without conversation side effects.
func (g *Gateway) ClassifyIntent(ctx context.Context, message string) (model.Classification, error) {
	if message == "" {
		return model.Classification{}, errx.BadRequest(errx.ErrEmptyMessage)
	}
	return g.router.ClassifyIntent(ctx, message), nil
}

// SuggestAgents ranks candidate agents for an ambiguous message.
func (g *Gateway) SuggestAgents(ctx context.Context, message string, topK int) ([]model.AgentSuggestion, error) {
	if message == "" {
		return nil, errx.BadRequest(errx.ErrEmptyMessage)
	}
	return g.router.SuggestAgents(ctx, message, topK)
}

// RouterStats returns the aggregate routing counters.
func (g *Gateway) RouterStats(ctx context.Context) (*model.RouterStats, error) {
	return g.router.Statistics(ctx)
}

// CacheStats returns the semantic cache counters and derived savings.
func (g *Gateway) CacheStats(ctx context.Context) (*model.CacheStats, error) {
	return g.cache.Stats(ctx)
}

// ClearCache purges every cached answer and reports how many were removed.
func (g *Gateway) ClearCache(ctx context.Context) (int, error) {
	return g.cache.Clear(ctx)
}

// Savings reports actual versus all-expensive baseline spend.
func (g *Gateway) Savings() *selector.SavingsReport {
	return g.selector.Savings()
}

// ClearConversation drops a conversation's message history.
func (g *Gateway) ClearConversation(ctx context.Context, conversationID string) error {
	if conversationID == "" {
		return errx.BadRequest(errx.ErrMissingConversationID)
	}
	return g.conversations.Clear(ctx, conversationID)
}

// Drain waits for in-flight shadow audits. Called on shutdown.
func (g *Gateway) Drain() {
	g.shadowWG.Wait()
}
