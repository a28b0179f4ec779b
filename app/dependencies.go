package app

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/vidyalabs/tutor-backend/config"
	"github.com/vidyalabs/tutor-backend/handlers"
	"github.com/vidyalabs/tutor-backend/middleware"
	"github.com/vidyalabs/tutor-backend/repositories"
	"github.com/vidyalabs/tutor-backend/repositories/postgres"
	"github.com/vidyalabs/tutor-backend/services/answer"
	"github.com/vidyalabs/tutor-backend/services/cache"
	"github.com/vidyalabs/tutor-backend/services/knowledge"
	"github.com/vidyalabs/tutor-backend/services/providers"
	"github.com/vidyalabs/tutor-backend/services/providers/chromem"
	"github.com/vidyalabs/tutor-backend/services/providers/langchain"
	"github.com/vidyalabs/tutor-backend/services/recorder"
	"github.com/vidyalabs/tutor-backend/services/retrieval"
)

// Dependencies holds all application dependencies. This is the central
// wiring point: every provider handle and service is constructed exactly
// once, explicitly, before the server starts taking requests.
type Dependencies struct {
	// Infrastructure
	Config *config.Config
	DB     *postgres.DB
	Logger *zap.Logger

	// Shared substrate
	Cache    *cache.MemoryCache
	Recorder *recorder.Service

	// Collaborators
	Embedder    providers.Embedder
	VectorIndex providers.VectorIndex
	Completions providers.CompletionClient

	// Repositories
	AnswerRecords repositories.AnswerRecordRepository

	// Services
	Retrieval *retrieval.Service
	Answer    *answer.Service
	Knowledge *knowledge.Service

	// HTTP
	AskHandler       *handlers.AskHandler
	HistoryHandler   *handlers.HistoryHandler
	KnowledgeHandler *handlers.KnowledgeHandler
	HealthHandler    *handlers.HealthHandler
	RateLimiter      *middleware.RateLimiter
}

// NewDependencies creates and wires up all application dependencies.
func NewDependencies(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*Dependencies, error) {
	deps := &Dependencies{
		Config: cfg,
		Logger: logger,
	}

	if err := deps.initDatabase(ctx, cfg); err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	if err := deps.initProviders(cfg); err != nil {
		return nil, fmt.Errorf("failed to initialize providers: %w", err)
	}

	deps.initServices(cfg)
	deps.initHandlers(cfg)

	logger.Info("all dependencies initialized successfully")
	return deps, nil
}

// Close releases resources in reverse construction order.
func (d *Dependencies) Close() {
	if d.Recorder != nil {
		if err := d.Recorder.Stop(10 * time.Second); err != nil {
			d.Logger.Warn("recorder did not drain cleanly", zap.Error(err))
		}
	}
	if d.DB != nil {
		_ = d.DB.Close()
	}
}

func (d *Dependencies) initDatabase(ctx context.Context, cfg *config.Config) error {
	db, err := postgres.NewDB(cfg.Database, d.Logger)
	if err != nil {
		return err
	}
	if err := db.InitSchema(ctx); err != nil {
		return err
	}

	d.DB = db
	d.AnswerRecords = postgres.NewAnswerRecordRepository(db, d.Logger)
	return nil
}

func (d *Dependencies) initProviders(cfg *config.Config) error {
	embedder, err := langchain.NewEmbedder(cfg.Embedding)
	if err != nil {
		return err
	}

	index, err := chromem.NewIndex(cfg.Index, d.Logger)
	if err != nil {
		return err
	}

	completions, err := langchain.NewClient(cfg.Provider, d.Logger)
	if err != nil {
		return err
	}

	d.Embedder = embedder
	d.VectorIndex = index
	d.Completions = completions
	return nil
}

func (d *Dependencies) initServices(cfg *config.Config) {
	d.Cache = cache.NewMemoryCache(cfg.Policy.CacheSize)

	d.Recorder = recorder.NewService(d.AnswerRecords, d.Logger, recorder.DefaultConfig())
	if err := d.Recorder.Start(); err != nil {
		// Only reachable on a double Start, which would be a wiring bug.
		d.Logger.Error("failed to start recorder", zap.Error(err))
	}

	d.Retrieval = retrieval.NewService(d.Embedder, d.VectorIndex, d.Cache, cfg.Policy, d.Logger)
	d.Answer = answer.NewService(d.Retrieval, d.Completions, d.Cache, d.Recorder, cfg.Policy, d.Logger)
	d.Knowledge = knowledge.NewService(d.Embedder, d.VectorIndex, d.Logger)
}

func (d *Dependencies) initHandlers(cfg *config.Config) {
	d.AskHandler = handlers.NewAskHandler(d.Answer, d.Logger)
	d.HistoryHandler = handlers.NewHistoryHandler(d.AnswerRecords, d.Logger)
	d.KnowledgeHandler = handlers.NewKnowledgeHandler(d.Knowledge, d.Logger)
	d.HealthHandler = handlers.NewHealthHandler(d.DB)
	d.RateLimiter = middleware.NewRateLimiter(cfg.Policy.RequestsPerMinute, d.Logger)
}
