package bootstrap

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/finsight-labs/finsight/internal/config"
	"github.com/finsight-labs/finsight/internal/core/ports"
	"github.com/finsight-labs/finsight/internal/core/usecase"
	"github.com/finsight-labs/finsight/internal/infrastructure/auth"
	"github.com/finsight-labs/finsight/internal/infrastructure/extraction"
	"github.com/finsight-labs/finsight/internal/infrastructure/queue/nats"
	"github.com/finsight-labs/finsight/internal/infrastructure/report"
	"github.com/finsight-labs/finsight/internal/infrastructure/repository/postgres"
	"github.com/finsight-labs/finsight/internal/infrastructure/resilience"
	"github.com/finsight-labs/finsight/internal/infrastructure/scoring"
	"github.com/finsight-labs/finsight/internal/infrastructure/storage/localfs"
)

// App owns every wired component shared by the api and worker binaries.
type App struct {
	Config config.Config
	Logger *slog.Logger

	Queue     *nats.Queue
	Documents ports.DocumentRepository

	Ingestor  ports.DocumentIngestor
	Lifecycle ports.DocumentLifecycle
	Processor ports.DocumentProcessor
	Analysis  ports.AnalysisService
	Auth      ports.AuthService
	Clients   ports.ClientDirectory
	Admin     ports.AdminService
	CA        ports.CAService

	closeFn func()
}

func New(ctx context.Context, cfg config.Config, logger *slog.Logger) (*App, error) {
	db, err := postgres.OpenDB(cfg.PostgresDSN)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	if err := postgres.EnsureSchema(ctx, db); err != nil {
		return nil, fmt.Errorf("ensure schema: %w", err)
	}

	users := postgres.NewUserRepository(db)
	clients := postgres.NewClientRepository(db)
	documents := postgres.NewDocumentRepository(db)
	analysisRepo := postgres.NewAnalysisRepository(db)

	storage, err := localfs.New(cfg.UploadDir)
	if err != nil {
		return nil, fmt.Errorf("init object storage: %w", err)
	}

	executor := resilience.NewExecutor(resilience.DefaultConfig())
	queue, err := nats.New(cfg.NATSURL, cfg.NATSSubject, nats.Options{
		ResilienceExecutor: executor,
		Logger:             logger,
	})
	if err != nil {
		return nil, fmt.Errorf("init message queue: %w", err)
	}

	hasher := auth.NewBcryptHasher(0)
	tokens := auth.NewJWTIssuer(cfg.JWTSecret, cfg.TokenTTL)
	extractor := extraction.NewEngine(storage, logger)
	scorer := scoring.NewCibilScorer()
	summarizer := scoring.NewStatementSummarizer()
	chat := scoring.NewDocumentChat()
	reports := report.NewGenerator(logger)

	return &App{
		Config:    cfg,
		Logger:    logger,
		Queue:     queue,
		Documents: documents,

		Ingestor:  usecase.NewUploadDocumentUseCase(documents, clients, storage, cfg.MaxUploadSize, logger),
		Lifecycle: usecase.NewDocumentLifecycleUseCase(documents, analysisRepo, storage, queue, logger),
		Processor: usecase.NewProcessDocumentUseCase(documents, storage, extractor, scorer, summarizer, logger),
		Analysis:  usecase.NewAnalysisUseCase(documents, analysisRepo, scorer, reports, chat),
		Auth:      usecase.NewAuthUseCase(users, hasher, tokens, logger),
		Clients:   usecase.NewClientsUseCase(clients),
		Admin:     usecase.NewAdminUseCase(users, documents, hasher),
		CA:        usecase.NewCAUseCase(clients, documents),

		closeFn: func() {
			queue.Close()
			_ = db.Close()
		},
	}, nil
}

func (a *App) Close() {
	if a.closeFn != nil {
		a.closeFn()
	}
}
