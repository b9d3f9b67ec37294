// Package cli provides the initialization shared by the expensetracker
// commands: environment, logging, configuration and the wiring of the
// stores into the expense service.
package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"expensetracker/internal/amqp"
	"expensetracker/internal/blobstore"
	"expensetracker/internal/boundary"
	"expensetracker/internal/cache"
	"expensetracker/internal/config"
	"expensetracker/internal/core"
	"expensetracker/internal/log"
	"expensetracker/internal/services"
	"expensetracker/internal/sheets/google"
	"expensetracker/internal/storage"

	"github.com/joho/godotenv"
)

// SetupLogger configures text logging on stderr at the given level and
// makes it the default logger.
func SetupLogger(level string) *log.Logger {
	cfg := log.DefaultConfig()
	cfg.Level = log.ParseLevel(level)
	logger := log.New(cfg)
	log.SetDefault(logger)
	return logger
}

// LoadEnvFile loads the .env file for local development. A missing file is
// not an error.
func LoadEnvFile() {
	_ = godotenv.Load()
}

// LoadAndValidateConfig loads configuration from the environment and
// validates it.
func LoadAndValidateConfig() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// App holds the initialized components of one process.
type App struct {
	Config   *config.Config
	Logger   *log.Logger
	Records  *storage.SQLiteRepository
	Blobs    *blobstore.Store
	AMQP     *amqp.Client
	Service  *services.ExpenseService
	Handler  *boundary.Handler
	cacheMgr *cache.Manager
	closed   bool
}

// InitStores opens and initializes both stores and wires the expense
// service. Store initialization failures are returned before anything else
// is started; a broker that cannot be reached only disables OCR requests.
func InitStores(ctx context.Context, cfg *config.Config, logger *log.Logger) (*App, error) {
	repo, err := storage.NewSQLiteRepository(cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("open record store: %w", err)
	}
	if err := repo.Init(ctx); err != nil {
		repo.Close()
		return nil, fmt.Errorf("initialize record store: %w", err)
	}

	blobs, err := blobstore.New(cfg.DataDir, cfg.ReceiptsDir, logger.WithComponent(log.ComponentBlob))
	if err != nil {
		repo.Close()
		return nil, fmt.Errorf("open blob store: %w", err)
	}

	app := &App{
		Config:   cfg,
		Logger:   logger,
		Records:  repo,
		Blobs:    blobs,
		cacheMgr: cache.NewManager(logger.WithComponent(log.ComponentCache)),
	}

	projectCache := cache.NewLRUCache[[]core.Project](cfg.ProjectCacheSize, cfg.ProjectCacheTTL)
	app.cacheMgr.Register(projectCache)
	opts := []services.Option{
		services.WithLogger(logger.WithComponent(log.ComponentExpense)),
		services.WithProjectCache(projectCache),
	}

	if cfg.AMQPEnabled() {
		client, err := amqp.NewClient(ctx, amqp.Config{
			URL:          cfg.AMQPURL,
			Exchange:     cfg.AMQPExchange,
			RequestQueue: cfg.AMQPQueue,
			ResultQueue:  cfg.AMQPResultQueue,
		}, logger.WithComponent(log.ComponentAMQP))
		if err != nil {
			logger.WarnContext(ctx, "AMQP broker unavailable, OCR requests disabled", log.FieldError, err)
		} else {
			app.AMQP = client
			opts = append(opts, services.WithPublisher(client))
		}
	}

	if cfg.SheetsEnabled() {
		exporter, err := google.New(ctx, google.Config{
			SpreadsheetID:   cfg.SpreadsheetID,
			SheetName:       cfg.SheetName,
			CredentialsJSON: cfg.ServiceAccountJSON,
			CredentialsFile: cfg.ServiceAccountFile,
		}, logger.WithComponent(log.ComponentSheets))
		if err != nil {
			logger.WarnContext(ctx, "Google Sheets unavailable, export disabled", log.FieldError, err)
		} else {
			opts = append(opts, services.WithExporter(exporter))
		}
	}

	app.Service = services.NewExpenseService(repo, blobs, opts...)
	app.Handler = boundary.NewHandler(app.Service, logger.WithComponent(log.ComponentBoundary))
	if cfg.ProjectCacheTTL > 0 {
		app.cacheMgr.StartCleanup(cfg.ProjectCacheTTL)
	}

	logger.InfoContext(ctx, "Stores initialized",
		"db_path", cfg.DBPath,
		"data_dir", blobs.Root(),
		"schema_version", repo.SchemaVersion(),
		"amqp", app.AMQP != nil)
	return app, nil
}

// Close stops background work and closes the stores. Safe to call twice.
func (a *App) Close() error {
	if a == nil || a.closed {
		return nil
	}
	a.closed = true
	a.cacheMgr.Stop()
	return a.Service.Close()
}

// SignalContext returns a context cancelled on SIGINT or SIGTERM.
func SignalContext(parent context.Context) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
}

// ShutdownTimeout bounds graceful stops of background loops.
const ShutdownTimeout = 10 * time.Second
