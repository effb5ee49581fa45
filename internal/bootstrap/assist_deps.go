package bootstrap

import (
	"context"

	"assist_server/adapter/out/messaging"
	"assist_server/adapter/out/persistence"
	"assist_server/config"
	"assist_server/core/agent/llm"
	"assist_server/core/domain"
	portin "assist_server/core/port/in"
	"assist_server/core/port/out"
	"assist_server/core/service/pipeline"
	"assist_server/infra/database"
	"assist_server/pkg/logger"
	"assist_server/pkg/metrics"

	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"
)

type Dependencies struct {
	Config *config.Config
	SQLDB  *sqlx.DB
	Redis  *redis.Client

	// Outbound adapters
	Producer     out.DispatchProducer
	TemplateRepo out.ReplyTemplateRepository

	// Capability
	LLMClient *llm.Client

	// Pipeline stages
	Metrics    *metrics.StageMetrics
	Catalog    *pipeline.IntentCatalog
	Normalizer *pipeline.TextNormalizer
	Classifier *pipeline.ClassificationAdapter
	Extractor  *pipeline.ExtractionAdapter
	Drafter    *pipeline.DraftingAdapter
	Aggregator *pipeline.SuggestionAggregator
	AutoSend   *pipeline.AutoSendController

	AssistService portin.AssistService
}

// NewDependencies wires the pipeline. Postgres, Redis and the LLM capability
// are all optional: the pipeline degrades to heuristics and in-process state
// when a dependency is missing, so the API always comes up.
func NewDependencies(cfg *config.Config) (*Dependencies, func(), error) {
	deps := &Dependencies{Config: cfg}
	var cleanups []func()

	// Postgres (sqlx over pgx)
	if cfg.DatabaseURL != "" {
		sqlDB, err := database.NewPostgres(cfg.DatabaseURL)
		if err != nil {
			logger.WithError(err).Warn("Postgres connection failed, template storage disabled")
		} else {
			deps.SQLDB = sqlDB
			cleanups = append(cleanups, func() { sqlDB.Close() })
			deps.TemplateRepo = persistence.NewReplyTemplateAdapter(sqlDB)
			logger.Info("Postgres connected (pool: max=%d, idle=%d)", 25, 10)
		}
	} else {
		logger.Warn("DATABASE_URL not set, template storage disabled")
	}

	// Redis (dispatch and handoff streams)
	if cfg.RedisURL != "" {
		redisClient, err := database.NewRedis(cfg.RedisURL)
		if err != nil {
			logger.WithError(err).Warn("Redis connection failed, dispatch publishing disabled")
		} else {
			deps.Redis = redisClient
			cleanups = append(cleanups, func() { redisClient.Close() })
			deps.Producer = messaging.NewRedisProducer(redisClient)
			logger.Info("Redis connected, stream producer initialized")
		}
	} else {
		logger.Warn("REDIS_URL not set, dispatch publishing disabled")
	}

	// LLM capability
	if cfg.OpenAIAPIKey != "" {
		deps.LLMClient = llm.NewClientWithConfig(llm.ClientConfig{
			APIKey:      cfg.OpenAIAPIKey,
			Model:       cfg.LLMModel,
			MaxTokens:   cfg.LLMMaxTokens,
			Temperature: cfg.LLMTemperature,
			Timeout:     cfg.LLMTimeout,
		})
		logger.Info("LLM capability initialized (model: %s)", deps.LLMClient.Model())
	} else {
		logger.Warn("OPENAI_API_KEY not set, running on heuristics and fallbacks only")
	}

	// Pipeline stages. The capability interfaces stay nil when no client is
	// configured so the adapters take their fallback paths.
	var (
		classifyCap pipeline.ClassifyCapability
		extractCap  pipeline.ExtractCapability
		draftCap    pipeline.DraftCapability
		modelName   string
	)
	if deps.LLMClient != nil {
		classifyCap = deps.LLMClient
		extractCap = deps.LLMClient
		draftCap = deps.LLMClient
		modelName = deps.LLMClient.Model()
	}

	clock := pipeline.NewClock()
	deps.Metrics = metrics.NewStageMetrics()
	deps.Catalog = pipeline.DefaultCatalog()
	deps.Normalizer = pipeline.NewTextNormalizer(cfg.NormalizerMaxChars)

	heuristic := pipeline.NewHeuristicClassifier(deps.Catalog)
	deps.Classifier = pipeline.NewClassificationAdapter(classifyCap, heuristic, deps.Catalog, deps.Metrics)

	cache := pipeline.NewExtractionCache(cfg.ExtractionCacheTTL, clock)
	deps.Extractor = pipeline.NewExtractionAdapter(extractCap, cache, deps.Normalizer, modelName, deps.Metrics)

	deps.Drafter = pipeline.NewDraftingAdapter(draftCap, modelName, deps.Metrics)
	deps.Aggregator = pipeline.NewSuggestionAggregator(cfg.SuggestionLimit)

	// The controller commits through the service, which does not exist yet
	// when the controller is built. The closure resolves the cycle.
	var svc *pipeline.Service
	deps.AutoSend = pipeline.NewAutoSendController(
		pipeline.AutoSendConfig{
			Threshold:        cfg.AutoSendThreshold,
			CountdownSeconds: cfg.AutoSendCountdown,
			MinTextLength:    cfg.AutoSendMinTextLen,
		},
		clock,
		func(session *domain.AutoSendSession) { svc.HandleCommit(session) },
	)

	svc = pipeline.NewService(pipeline.ServiceDeps{
		Normalizer: deps.Normalizer,
		Classifier: deps.Classifier,
		Extractor:  deps.Extractor,
		Drafter:    deps.Drafter,
		Aggregator: deps.Aggregator,
		AutoSend:   deps.AutoSend,
		Templates:  deps.TemplateRepo,
		Producer:   deps.Producer,
		Metrics:    deps.Metrics,
	})
	deps.AssistService = svc

	cleanup := func() {
		for i := len(cleanups) - 1; i >= 0; i-- {
			cleanups[i]()
		}
	}

	return deps, cleanup, nil
}

func (d *Dependencies) HealthCheck(ctx context.Context) error {
	if d.SQLDB != nil {
		if err := d.SQLDB.PingContext(ctx); err != nil {
			return err
		}
	}
	if d.Redis != nil {
		if err := d.Redis.Ping(ctx).Err(); err != nil {
			return err
		}
	}
	return nil
}
