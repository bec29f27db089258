package bootstrap

import (
	"context"
	"log"

	"ai-assistant-be/internal/config"
	"ai-assistant-be/internal/controller"
	"ai-assistant-be/internal/pkg/logger"
	"ai-assistant-be/internal/pkg/serverutils"
	"ai-assistant-be/internal/repository/unitofwork"
	"ai-assistant-be/internal/service"
	"ai-assistant-be/pkg/embedding"
	"ai-assistant-be/pkg/llm"
	"ai-assistant-be/pkg/llm/factory"
	"ai-assistant-be/pkg/rag/budget"
	"ai-assistant-be/pkg/rag/collection"
	"ai-assistant-be/pkg/rag/compaction"
	"ai-assistant-be/pkg/rag/intent"
	"ai-assistant-be/pkg/rag/pipeline"
	"ai-assistant-be/pkg/rag/rerank"
	"ai-assistant-be/pkg/rag/search"

	pktNats "ai-assistant-be/pkg/nats"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

type Container struct {
	// Controllers
	AssistantController controller.IAssistantController

	// Background services, started by main.go
	Consumers    []service.IConsumerService
	AuditService service.IAuditService

	// ErrorMappings translate service sentinels into HTTP statuses.
	ErrorMappings []serverutils.ErrorMapping

	Logger  logger.ILogger
	closers []func()
}

func NewContainer(db *gorm.DB, cfg *config.Config) *Container {
	// 1. Core facades
	uowFactory := unitofwork.NewRepositoryFactory(db)
	sysLogger := logger.NewZapLogger(cfg.App.LogFilePath, cfg.App.Environment == "production")
	catalog := collection.DefaultCatalog()
	c := &Container{Logger: sysLogger}

	// 2. Event bus for background work
	pubSub := gochannel.NewGoChannel(
		gochannel.Config{OutputChannelBuffer: 64},
		watermill.NewStdLogger(false, false),
	)
	c.closers = append(c.closers, func() { _ = pubSub.Close() })

	// 3. Model providers
	llmBaseURL := cfg.Ai.LLMBaseURL
	if llmBaseURL == "" && cfg.Ai.LLMProvider != "huggingface" {
		llmBaseURL = cfg.Ai.OllamaBaseURL
	}
	llmProvider, err := factory.NewLLMProvider(cfg.Ai.LLMProvider, cfg.Ai.LLMModel, llmBaseURL, cfg.Ai.LLMAPIKey)
	if err != nil {
		log.Fatalf("[FATAL] Failed to initialize LLM Provider: %v", err)
	}
	log.Printf("[INFO] Using LLM Provider: %s (%s, fast model %s)", cfg.Ai.LLMProvider, cfg.Ai.LLMModel, cfg.Ai.FastModel)

	pool := llm.NewWorkerPool(llmProvider, cfg.Ai.Workers)
	if cfg.Ai.FastModel != "" {
		fast := llm.WithModel(cfg.Ai.FastModel)
		pool.WithDefaults(llm.RequestClassify, fast).
			WithDefaults(llm.RequestExtractFilters, fast).
			WithDefaults(llm.RequestExpandQuery, fast).
			WithDefaults(llm.RequestSummarize, fast)
	}

	embeddingProvider, err := embedding.NewProvider(
		cfg.Ai.EmbeddingProvider,
		cfg.Ai.OllamaBaseURL,
		cfg.Ai.EmbeddingModel,
		cfg.Ai.GeminiAPIKey,
		cfg.Ai.EmbeddingDims,
	)
	if err != nil {
		log.Fatalf("[FATAL] Failed to initialize Embedding Provider: %v", err)
	}
	log.Printf("[INFO] Using Embedding Provider: %s (%s)", cfg.Ai.EmbeddingProvider, cfg.Ai.EmbeddingModel)

	// 4. Infrastructure
	natsPub, err := pktNats.NewPublisher(cfg.App.NatsURL)
	var eventPublisher service.EventPublisher
	if err != nil {
		log.Printf("[WARN] Failed to connect to NATS Publisher: %v", err)
	} else {
		eventPublisher = natsPub
		c.closers = append(c.closers, natsPub.Close)
	}

	natsSub, err := pktNats.NewSubscriber(cfg.App.NatsURL)
	if err != nil {
		log.Printf("[WARN] Failed to connect to NATS Subscriber: %v", err)
	} else {
		c.AuditService = service.NewAuditService(natsSub, logger.NewIsolatedLogger(cfg.App.AuditLogFilePath))
		c.closers = append(c.closers, natsSub.Close)
	}

	opt, err := redis.ParseURL(cfg.Cache.RedisURL)
	if err != nil {
		log.Printf("[WARN] Failed to parse Redis URL: %v. Using direct Addr", err)
		opt = &redis.Options{
			Addr: cfg.Cache.RedisURL,
		}
	}
	rdb := redis.NewClient(opt)
	if _, err := rdb.Ping(context.Background()).Result(); err != nil {
		log.Printf("[WARN] Failed to connect to Redis: %v", err)
	}
	c.closers = append(c.closers, func() { _ = rdb.Close() })

	// 5. Retrieval pipeline
	documents := search.NewVectorSearcher(
		embeddingProvider,
		service.NewDocumentIndex(uowFactory),
		cfg.Cache.EmbeddingTTL,
		cfg.Cache.EmbeddingCleanup,
		sysLogger.Named("SEARCH"),
	)
	web := search.NewSearxNGSearcher(
		cfg.WebSearch.SearxURL,
		cfg.Retrieval.DefaultLocale,
		cfg.Retrieval.SearchTimeout,
		search.NewRedisResultCache(rdb, sysLogger.Named("SEARCH")),
		cfg.Cache.WebTTL,
		sysLogger.Named("SEARCH"),
	)
	crawler := search.NewHTMLCrawler(cfg.WebSearch.CrawlTimeout, 0, sysLogger.Named("SEARCH"))
	expander := search.NewExpander(pool, cfg.Retrieval.ExpansionWithAI, cfg.Ai.FastModel, sysLogger.Named("SEARCH"))

	searchCfg := search.DefaultConfig()
	searchCfg.Concurrency = cfg.Retrieval.Concurrency
	searchCfg.TopK = cfg.Retrieval.CollectionTopK
	searchCfg.TaskTimeout = cfg.Retrieval.SearchTimeout
	searchCfg.WebMaxResults = cfg.WebSearch.MaxResults
	searchCfg.ExpansionLimit = cfg.Retrieval.ExpansionLimit
	searchCfg.CrawlEnabled = cfg.WebSearch.CrawlEnabled
	searchCfg.CrawlTopN = cfg.WebSearch.CrawlTopN
	searchCfg.CrawlTimeout = cfg.WebSearch.CrawlTimeout
	searchCfg.MaxCitations = cfg.Retrieval.MaxCitations
	orchestrator := search.NewOrchestrator(documents, web, crawler, expander, searchCfg, sysLogger.Named("SEARCH"))

	intentCfg := intent.DefaultConfig()
	intentCfg.Timeout = cfg.Ai.ClassifyTimeout
	intentCfg.MaxTokens = cfg.Ai.ClassifyMaxTokens
	intentCfg.Model = cfg.Ai.FastModel
	classifier := intent.NewClassifier(pool, intentCfg, sysLogger.Named("INTENT"))

	var reranker *rerank.Reranker
	if cfg.Retrieval.RerankEnabled {
		rerankCfg := rerank.DefaultConfig()
		rerankCfg.Timeout = cfg.Retrieval.RerankTimeout
		reranker = rerank.NewReranker(pool, rerankCfg, sysLogger.Named("RERANK"))
	}

	budgetCfg := budget.DefaultConfig()
	budgetCfg.Budget = cfg.Retrieval.EvidenceBudget
	allocator := budget.NewAllocator(budgetCfg, budget.NewCounter(cfg.Retrieval.TokenCounter), sysLogger.Named("BUDGET"))

	compactionCfg := compaction.DefaultConfig()
	compactionCfg.Threshold = cfg.Compaction.Threshold
	compactionCfg.Interval = cfg.Compaction.Threshold
	compactionCfg.KeepRecent = cfg.Compaction.KeepRecent
	compactionCfg.SummaryMaxTokens = cfg.Compaction.SummaryMaxToken
	compactionCfg.Timeout = cfg.Compaction.SummaryTimeout
	compactionCfg.Model = cfg.Ai.FastModel
	compactionSvc := compaction.NewService(service.NewThreadStore(uowFactory), pool, compactionCfg, sysLogger.Named("COMPACTION"))
	compactionRunner := service.NewCompactionRunner(compactionSvc, eventPublisher, sysLogger)

	contextPipeline := pipeline.New(pipeline.Deps{
		Classifier:   classifier,
		Resolver:     collection.NewResolver(catalog),
		Orchestrator: orchestrator,
		Reranker:     reranker,
		Allocator:    allocator,
		Compaction:   compactionRunner,
		MaxCitations: cfg.Retrieval.MaxCitations,
		Logger:       sysLogger.Named("PIPELINE"),
	})

	// 6. Services
	compactionPublisher := service.NewPublisherService(cfg.App.CompactionTopic, pubSub)
	indexPublisher := service.NewPublisherService(cfg.App.IndexTopic, pubSub)

	assistantService := service.NewAssistantService(service.AssistantServiceDeps{
		UowFactory:          uowFactory,
		Pipeline:            contextPipeline,
		Catalog:             catalog,
		Policy:              compactionRunner,
		CompactionPublisher: compactionPublisher,
		IndexPublisher:      indexPublisher,
		EventPublisher:      eventPublisher,
		Logger:              sysLogger,
		DefaultLocale:       cfg.Retrieval.DefaultLocale,
	})

	c.Consumers = []service.IConsumerService{
		service.NewCompactionConsumer(pubSub, cfg.App.CompactionTopic, compactionRunner, sysLogger),
		service.NewIndexConsumer(pubSub, cfg.App.IndexTopic, uowFactory, embeddingProvider, catalog, sysLogger),
	}

	// 7. Controllers
	if cfg.App.JwtSecret == "" {
		log.Printf("[WARN] JWT_SECRET is empty, token validation will fail")
	}
	var auth fiber.Handler = serverutils.JwtMiddleware(cfg.App.JwtSecret)
	c.AssistantController = controller.NewAssistantController(assistantService, auth)
	c.ErrorMappings = []serverutils.ErrorMapping{
		{Err: service.ErrThreadNotFound, Status: fiber.StatusNotFound},
		{Err: service.ErrUnknownCollection, Status: fiber.StatusBadRequest},
	}

	return c
}

// Close releases broker and cache connections in reverse order of creation.
func (c *Container) Close() {
	for i := len(c.closers) - 1; i >= 0; i-- {
		c.closers[i]()
	}
	_ = c.Logger.Sync()
}
