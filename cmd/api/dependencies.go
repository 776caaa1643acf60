package main

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/savohq/statement-ingest/internal/domain/ingest"
	"github.com/savohq/statement-ingest/internal/domain/ingest/bank"
	"github.com/savohq/statement-ingest/internal/domain/ingest/categorize"
	"github.com/savohq/statement-ingest/internal/domain/ingest/dedup"
	"github.com/savohq/statement-ingest/internal/domain/ingest/extract"
	"github.com/savohq/statement-ingest/internal/domain/ingest/handler"
	"github.com/savohq/statement-ingest/internal/domain/ingest/parser"
	"github.com/savohq/statement-ingest/internal/domain/ingest/repository"
	"github.com/savohq/statement-ingest/internal/domain/ingest/service"
	"github.com/savohq/statement-ingest/pkg/config"
	"github.com/savohq/statement-ingest/pkg/cron"
	"github.com/savohq/statement-ingest/pkg/db"
	"github.com/savohq/statement-ingest/pkg/metrics"
	"github.com/savohq/statement-ingest/pkg/storage"
)

// Dependencies holds all application dependencies
type Dependencies struct {
	Config *config.Config
	DB     *db.DB
	Logger *slog.Logger

	// Repositories
	UploadRepo      ingest.UploadRepository
	AccountRepo     ingest.AccountRepository
	TransactionRepo ingest.TransactionRepository
	CategoryRepo    ingest.CategoryRepository

	// Services
	Metrics       *metrics.Metrics
	Registry      *prometheus.Registry
	FileStorage   storage.ObjectStore
	Parser        *parser.Parser
	Categorizer   *categorize.Categorizer
	Pool          *service.Pool
	UploadService *service.UploadService
	Scheduler     *cron.Scheduler

	// Handlers
	StatementHandler *handler.Handler
}

// InitDependencies initializes all application dependencies
func InitDependencies(cfg *config.Config, logger *slog.Logger) (*Dependencies, error) {
	deps := &Dependencies{
		Config: cfg,
		Logger: logger,
	}

	if err := deps.initDatabase(); err != nil {
		return nil, fmt.Errorf("failed to init database: %w", err)
	}

	deps.initRepositories()

	if err := deps.initServices(); err != nil {
		return nil, fmt.Errorf("failed to init services: %w", err)
	}

	deps.initHandlers()

	logger.Info("all dependencies initialized successfully")
	return deps, nil
}

// initDatabase initializes the database connection and runs migrations
func (d *Dependencies) initDatabase() error {
	database, err := db.New(db.Config{
		DSN:             d.Config.Database.DSN(),
		MaxConns:        25,
		MinConns:        5,
		MaxConnLifetime: 5 * time.Minute,
		MaxConnIdleTime: 10 * time.Minute,
	}, d.Logger)
	if err != nil {
		return err
	}

	d.DB = database

	if err := d.DB.RunMigrations(); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	d.Logger.Info("database connected and migrations completed successfully")
	return nil
}

func (d *Dependencies) initRepositories() {
	d.UploadRepo = repository.NewUploadRepository(d.DB.Pool)
	d.AccountRepo = repository.NewAccountRepository(d.DB.Pool)
	d.TransactionRepo = repository.NewTransactionRepository(d.DB.Pool)
	d.CategoryRepo = repository.NewCategoryRepository(d.DB.Pool)

	d.Logger.Info("repositories initialized")
}

func (d *Dependencies) initServices() error {
	if d.Config.Metrics.Enabled {
		d.Registry = prometheus.NewRegistry()
		d.Metrics = metrics.New(d.Registry)
	}

	fileStorage, err := storage.New(&storage.Config{
		Type:      d.Config.Storage.Type,
		LocalPath: d.Config.Storage.LocalPath,
	})
	if err != nil {
		return fmt.Errorf("failed to init file storage: %w", err)
	}
	d.FileStorage = fileStorage

	d.Parser = parser.New(d.Logger)
	d.Categorizer = categorize.New(categorize.DefaultTable(), d.CategoryRepo, d.Metrics, d.Logger)

	extractor := extract.NewPDF()
	resolver := bank.NewResolver(d.AccountRepo, d.Logger)
	detector := dedup.New(d.TransactionRepo, d.UploadRepo, d.Parser, d.Metrics, d.Logger)

	d.Pool = service.NewPool(
		d.Config.Upload,
		d.UploadRepo,
		d.AccountRepo,
		d.TransactionRepo,
		extractor,
		d.Parser,
		d.Categorizer,
		d.FileStorage,
		d.Metrics,
		d.Logger,
	)

	d.UploadService = service.NewUploadService(
		d.Config.Upload,
		d.UploadRepo,
		d.AccountRepo,
		d.TransactionRepo,
		resolver,
		detector,
		extractor,
		d.FileStorage,
		d.Pool,
		d.Metrics,
		d.Logger,
	)

	if d.Config.Watchdog.Enabled {
		d.Scheduler = cron.NewScheduler(d.Config.Watchdog, d.UploadRepo, d.Logger)
	}

	d.Logger.Info("services initialized")
	return nil
}

func (d *Dependencies) initHandlers() {
	d.StatementHandler = handler.New(d.UploadService, userFromHeader, d.Logger)
	d.Logger.Info("handlers initialized")
}

// Cleanup closes all resources
func (d *Dependencies) Cleanup() {
	if d.Scheduler != nil {
		<-d.Scheduler.Stop().Done()
	}
	if d.Pool != nil {
		d.Pool.Stop()
	}
	if d.DB != nil {
		d.DB.Close()
	}
	d.Logger.Info("cleanup completed")
}
