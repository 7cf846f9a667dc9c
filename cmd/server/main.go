package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"github.com/qdrant/go-client/qdrant"
	"google.golang.org/genai"

	"github.com/concierge-core/gateway/internal/adapter/api"
	"github.com/concierge-core/gateway/internal/adapter/comparison"
	"github.com/concierge-core/gateway/internal/adapter/embedding"
	"github.com/concierge-core/gateway/internal/adapter/provider"
	"github.com/concierge-core/gateway/internal/adapter/vectorstore"
	"github.com/concierge-core/gateway/internal/core"
	"github.com/concierge-core/gateway/internal/gateway"
	"github.com/concierge-core/gateway/internal/gateway/cache"
	"github.com/concierge-core/gateway/internal/gateway/conversations"
	"github.com/concierge-core/gateway/internal/gateway/model"
	"github.com/concierge-core/gateway/internal/gateway/prompts"
	"github.com/concierge-core/gateway/internal/gateway/quality"
	"github.com/concierge-core/gateway/internal/gateway/repo"
	"github.com/concierge-core/gateway/internal/gateway/router"
	"github.com/concierge-core/gateway/internal/gateway/selector"
	logx "github.com/concierge-core/gateway/pkg/logger"
	pkgredis "github.com/concierge-core/gateway/pkg/redis"
)

// AppConfig defines all configurable parameters for the gateway, sourced from
// environment variables (loaded from .env for local runs).
type AppConfig struct {
	Environment string `envconfig:"ENV" default:"development"`
	Port        string `envconfig:"PORT" default:"8080"`

	// Infrastructure
	Redis            pkgredis.Config
	QdrantHost       string `envconfig:"QDRANT_HOST" default:"localhost"`
	QdrantPort       int    `envconfig:"QDRANT_PORT" default:"6334"`
	QdrantCollection string `envconfig:"QDRANT_COLLECTION" default:"semantic_cache"`
	ComparisonDBPath string `envconfig:"COMPARISON_DB_PATH" default:"comparisons.db"`

	// LLM provider
	APIKey         string `envconfig:"GEMINI_API_KEY" required:"true"`
	EmbeddingModel string `envconfig:"EMBEDDING_MODEL" default:"text-embedding-004"`
	EmbeddingDim   uint64 `envconfig:"EMBEDDING_DIM" default:"768"`
	CheapModel     string `envconfig:"CHEAP_MODEL" default:"gemini-2.5-flash-lite"`
	MediumModel    string `envconfig:"MEDIUM_MODEL" default:"gemini-2.5-flash"`
	ExpensiveModel string `envconfig:"EXPENSIVE_MODEL" default:"gemini-2.5-pro"`

	// Traffic split applied to intents with no stored value yet.
	DefaultSplitPercent float64 `envconfig:"DEFAULT_SPLIT_PERCENT" default:"100"`

	// Component configs
	Router       model.RouterConfig
	Cache        model.CacheConfig
	Quality      model.QualityConfig
	Conversation model.ConversationConfig
	Shadow       model.ShadowConfig
	Prompt       model.PromptConfig
}

func main() {
	ctx := context.Background()

	if err := godotenv.Load(".env"); err != nil {
		logx.Warn().Err(err).Msg("could not load .env file, using system environment")
	}

	var cfg AppConfig
	if err := envconfig.Process("", &cfg); err != nil {
		logx.Fatal().Err(err).Msg("failed to process environment config")
	}

	env := core.ParseEnvironment(cfg.Environment)
	logx.Init(logx.LoggerOpts{Environment: env})
	log := logx.Component("main")

	ttl, err := time.ParseDuration(cfg.Conversation.TTL)
	if err != nil {
		log.Fatal().Str("ttl", cfg.Conversation.TTL).Err(err).Msg("invalid CONVERSATION_TTL")
	}
	checkInterval, err := time.ParseDuration(cfg.Quality.CheckInterval)
	if err != nil {
		log.Fatal().Str("interval", cfg.Quality.CheckInterval).Err(err).Msg("invalid QUALITY_CHECK_INTERVAL")
	}

	// ==================== Infrastructure ====================

	rdb, err := cfg.Redis.New()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to redis")
	}
	defer rdb.Close()

	qClient, err := qdrant.NewClient(&qdrant.Config{Host: cfg.QdrantHost, Port: cfg.QdrantPort})
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to qdrant")
	}

	genaiClient, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("failed to init genai client")
	}

	comparisons, err := comparison.NewSQLiteStore(cfg.ComparisonDBPath, cfg.Quality.HighQualityThreshold)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to open comparison store")
	}
	defer comparisons.Close()

	index := vectorstore.NewQdrantIndex(qClient, cfg.QdrantCollection, logx.Component("qdrant"))
	if err := index.InitCollection(ctx, cfg.EmbeddingDim); err != nil {
		log.Fatal().Err(err).Msg("failed to init cache collection")
	}

	// ==================== Providers ====================

	embedder := embedding.NewGeminiEmbedder(genaiClient, cfg.EmbeddingModel)

	cheapModel := provider.NewGeminiProvider(genaiClient, cfg.CheapModel)
	mediumModel := provider.NewGeminiProvider(genaiClient, cfg.MediumModel)
	expensiveModel := provider.NewGeminiProvider(genaiClient, cfg.ExpensiveModel)

	// Each tier falls back to the next one up; the top tier has only retries.
	providers := gateway.Providers{
		Cheap:     provider.NewResilientProvider(cheapModel, mediumModel, logx.Component("provider-cheap")),
		Medium:    provider.NewResilientProvider(mediumModel, expensiveModel, logx.Component("provider-medium")),
		Expensive: provider.NewResilientProvider(expensiveModel, nil, logx.Component("provider-expensive")),
	}

	// ==================== Components ====================

	states := repo.NewRedisConversationStateRepository(rdb, ttl)
	history := repo.NewRedisHistoryRepository(rdb, ttl)
	splits := repo.NewRedisSplits(rdb, cfg.DefaultSplitPercent)
	counters := repo.NewRedisCounters(rdb, "cache")
	routerStats := repo.NewRedisRouterStats(rdb)

	rt, err := router.New(ctx, embedder, states, routerStats, cfg.Router, router.DefaultProfiles())
	if err != nil {
		log.Fatal().Err(err).Msg("failed to build intent router")
	}

	monitor := quality.NewMonitor(comparisons, splits, cfg.Quality)

	gw := gateway.New(gateway.Deps{
		Router:        rt,
		Selector:      selector.New(splits),
		Cache:         cache.New(embedder, index, counters, cfg.Cache),
		Conversations: conversations.NewManager(history, cfg.Conversation),
		Prompts:       prompts.NewBuilder(cfg.Prompt),
		Providers:     providers,
		Recorder:      quality.NewRecorder(comparisons, embedder),
		RouterCfg:     cfg.Router,
		ShadowCfg:     cfg.Shadow,
	})

	monitorCtx, stopMonitor := context.WithCancel(ctx)
	defer stopMonitor()
	go monitor.Run(monitorCtx, checkInterval)

	// ==================== API ====================

	app := fiber.New(fiber.Config{AppName: "Concierge Gateway"})
	api.SetupRouter(app, api.NewHandler(gw, monitor, splits), env)

	go func() {
		log.Info().Str("port", cfg.Port).Str("env", env.String()).Msg("gateway listening")
		if err := app.Listen(":" + cfg.Port); err != nil {
			log.Fatal().Err(err).Msg("server stopped")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down")
	stopMonitor()
	if err := app.Shutdown(); err != nil {
		log.Error().Err(err).Msg("server shutdown failed")
	}
	gw.Drain()
}
