package bootstrap

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	escrowmarketplace "curio/contexts/trading-core/escrow-marketplace"
	"curio/contexts/trading-core/escrow-marketplace/adapters/logpub"
	marketpostgres "curio/contexts/trading-core/escrow-marketplace/adapters/postgres"
	marketworkers "curio/contexts/trading-core/escrow-marketplace/application/workers"
	marketentities "curio/contexts/trading-core/escrow-marketplace/domain/entities"
	royaltyregistry "curio/contexts/trading-core/royalty-registry"
	royaltypostgres "curio/contexts/trading-core/royalty-registry/adapters/postgres"
	royaltyentities "curio/contexts/trading-core/royalty-registry/domain/entities"
	"curio/internal/platform/config"
	"curio/internal/platform/db"
	"curio/internal/platform/httpserver"

	"github.com/joho/godotenv"
)

// Package bootstrap is the composition root.
// Keep construction/wiring here so module code stays framework-agnostic.

type APIApp struct {
	server   *httpserver.Server
	postgres *db.Postgres
	logger   *slog.Logger
}

type WorkerApp struct {
	postgres     *db.Postgres
	outboxRelay  marketworkers.OutboxRelay
	pollInterval time.Duration
	logger       *slog.Logger
}

// BuildAPI assembles the marketplace and royalty modules. With a Postgres
// DSN the repositories run on gorm; without one the process serves from the
// in-memory stores, which is the local development path.
func BuildAPI() (*APIApp, error) {
	_ = godotenv.Load()
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	logger := slog.Default().With("service", cfg.ServiceName, "process", "api")

	marketConfig := marketentities.MarketConfig{
		Admin:          cfg.MarketAdmin,
		Beneficiary:    cfg.MarketBeneficiary,
		FeeBasisPoints: cfg.MarketFeeBps,
	}
	registryConfig := royaltyentities.RegistryConfig{Admin: cfg.RoyaltyAdmin}

	if strings.TrimSpace(cfg.PostgresDSN) == "" {
		logger.Info("no postgres dsn set, serving from memory stores",
			"event", "bootstrap_memory_mode",
			"module", "internal/app/bootstrap",
			"layer", "platform",
		)
		royaltyModule := royaltyregistry.NewInMemoryModule(registryConfig, logger)
		marketModule := escrowmarketplace.NewInMemoryModule(marketConfig, royaltyModule.Service, logger)
		return &APIApp{
			server: httpserver.New(marketModule, royaltyModule, logger, normalizeAddr(cfg.HTTPPort)),
			logger: logger,
		}, nil
	}

	ctx := context.Background()
	pg, err := db.Connect(ctx, cfg.PostgresDSN)
	if err != nil {
		return nil, err
	}

	if err := marketpostgres.Migrate(pg.DB); err != nil {
		return nil, err
	}
	if err := royaltypostgres.Migrate(pg.DB); err != nil {
		return nil, err
	}

	marketRepo := marketpostgres.NewRepository(pg.DB, logger)
	if err := marketRepo.SeedConfig(ctx, marketConfig); err != nil {
		return nil, err
	}
	royaltyRepo := royaltypostgres.NewRepository(pg.DB, logger)
	if err := royaltyRepo.SeedConfig(ctx, registryConfig); err != nil {
		return nil, err
	}

	royaltyModule := royaltyregistry.NewModule(royaltyregistry.Dependencies{
		Repo:        royaltyRepo,
		Clock:       marketpostgres.SystemClock{},
		IDGenerator: marketpostgres.UUIDGenerator{},
		Logger:      logger,
	})
	marketModule := escrowmarketplace.NewModule(escrowmarketplace.Dependencies{
		Config:      marketRepo,
		Reader:      marketRepo,
		Listings:    marketRepo,
		Fees:        marketRepo,
		Ledger:      marketRepo,
		Royalty:     royaltyModule.Service,
		Clock:       marketpostgres.SystemClock{},
		IDGenerator: marketpostgres.UUIDGenerator{},
		CacheTTL:    cfg.ListingCacheTTL,
		Logger:      logger,
	})

	return &APIApp{
		server:   httpserver.New(marketModule, royaltyModule, logger, normalizeAddr(cfg.HTTPPort)),
		postgres: pg,
		logger:   logger,
	}, nil
}

// BuildWorker assembles the outbox relay process. The relay drains durable
// outbox rows, so Postgres is mandatory here.
func BuildWorker() (*WorkerApp, error) {
	_ = godotenv.Load()
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	logger := slog.Default().With("service", cfg.ServiceName, "process", "worker")
	if strings.TrimSpace(cfg.PostgresDSN) == "" {
		return nil, errors.New("POSTGRES_DSN is required")
	}

	pg, err := db.Connect(context.Background(), cfg.PostgresDSN)
	if err != nil {
		return nil, err
	}

	repo := marketpostgres.NewRepository(pg.DB, logger)
	return &WorkerApp{
		postgres: pg,
		outboxRelay: marketworkers.OutboxRelay{
			Outbox:    repo,
			Publisher: logpub.Publisher{Logger: logger},
			Clock:     marketpostgres.SystemClock{},
			Topic:     cfg.OutboxTopic,
			BatchSize: cfg.OutboxBatchSize,
			Logger:    logger,
		},
		pollInterval: cfg.OutboxInterval,
		logger:       logger,
	}, nil
}

func (a *APIApp) Run(_ context.Context) error {
	a.logger.Info("api app started",
		"event", "bootstrap_api_started",
		"module", "internal/app/bootstrap",
		"layer", "platform",
	)
	return a.server.Start()
}

func (a *APIApp) Close() error {
	if a.postgres != nil {
		return a.postgres.Close()
	}
	return nil
}

func (w *WorkerApp) Run(ctx context.Context) error {
	ticker := time.NewTicker(w.pollInterval)
	defer ticker.Stop()

	w.logger.Info("worker app started",
		"event", "bootstrap_worker_started",
		"module", "internal/app/bootstrap",
		"layer", "platform",
		"poll_interval", w.pollInterval.String(),
	)

	for {
		if err := w.outboxRelay.RunOnce(ctx); err != nil {
			return err
		}
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}

func (w *WorkerApp) Close() error {
	if w.postgres != nil {
		return w.postgres.Close()
	}
	return nil
}

func normalizeAddr(port string) string {
	value := strings.TrimSpace(port)
	if value == "" {
		return ":8080"
	}
	if strings.HasPrefix(value, ":") {
		return value
	}
	return ":" + value
}
