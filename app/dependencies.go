package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/upb/llm-footprint/config"
	"github.com/upb/llm-footprint/handlers"
	"github.com/upb/llm-footprint/internal/observability"
	"github.com/upb/llm-footprint/repositories"
	"github.com/upb/llm-footprint/repositories/postgres"
	"github.com/upb/llm-footprint/services/classifier"
	"github.com/upb/llm-footprint/services/compare"
	"github.com/upb/llm-footprint/services/footprint"
	"github.com/upb/llm-footprint/services/providers"
	"github.com/upb/llm-footprint/services/providers/openrouter"
	"github.com/upb/llm-footprint/services/providers/searchsim"
	"github.com/upb/llm-footprint/services/smartroute"
	"github.com/upb/llm-footprint/services/usage"
	"go.uber.org/zap"
)

// Dependencies holds all application dependencies.
// This is the central wiring point for dependency injection.
type Dependencies struct {
	// Infrastructure
	Config  *config.Config
	Logger  *zap.Logger
	Metrics *observability.Metrics

	// Database, nil when no database is configured
	DB          *postgres.DB
	RepoFactory *postgres.RepositoryFactory
	UsageRepo   repositories.UsageRepository
	TxManager   repositories.TransactionManager

	// Usage recorder, nil without a database
	Usage *usage.Service

	// Providers
	Registry   *providers.Registry
	OpenRouter *openrouter.Adapter
	Completer  *classifier.OpenAICompleter
	Estimator  *footprint.Estimator

	// Services
	Compare    *compare.Service
	SmartRoute *smartroute.Service

	closed bool
}

// NewDependencies creates and wires up all application dependencies
func NewDependencies(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*Dependencies, error) {
	if cfg == nil {
		return nil, errors.New("config is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	deps := &Dependencies{
		Config: cfg,
		Logger: logger,
	}
	if cfg.Observability.MetricsEnabled {
		deps.Metrics = observability.NewMetrics()
	}

	if err := deps.initDatabase(ctx, cfg); err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	if err := deps.initUsage(cfg); err != nil {
		_ = deps.Close(ctx)
		return nil, fmt.Errorf("failed to initialize usage recorder: %w", err)
	}

	if err := deps.initProviders(cfg); err != nil {
		_ = deps.Close(ctx)
		return nil, fmt.Errorf("failed to initialize providers: %w", err)
	}

	if err := deps.initServices(cfg); err != nil {
		_ = deps.Close(ctx)
		return nil, fmt.Errorf("failed to initialize services: %w", err)
	}

	logger.Info("all dependencies initialized successfully",
		zap.Bool("usage_recording", deps.Usage != nil),
		zap.Bool("metrics", deps.Metrics != nil),
		zap.Bool("openrouter_configured", deps.OpenRouter.Configured()),
		zap.Bool("openai_configured", deps.Completer.Configured()))
	return deps, nil
}

// initDatabase opens the pool and prepares the schema. Without a database config it does nothing.
func (d *Dependencies) initDatabase(ctx context.Context, cfg *config.Config) error {
	if cfg.Database == nil {
		d.Logger.Warn("no database configured, usage recording disabled")
		return nil
	}

	factory, err := postgres.NewRepositoryFactory(*cfg.Database, d.Logger)
	if err != nil {
		return fmt.Errorf("failed to create repository factory: %w", err)
	}

	if cfg.Database.InitSchema {
		if err := factory.InitSchema(ctx); err != nil {
			_ = factory.Close()
			return err
		}
	}

	repos := factory.NewRepositories()
	d.RepoFactory = factory
	d.DB = factory.GetDB()
	d.UsageRepo = repos.Usage
	d.TxManager = factory.GetTransactionManager()

	d.Logger.Info("repositories initialized")
	return nil
}

func (d *Dependencies) initUsage(cfg *config.Config) error {
	if d.UsageRepo == nil {
		return nil
	}

	svc := usage.NewService(d.UsageRepo, d.TxManager, d.Metrics, d.Logger, usage.Config{
		BufferSize:  cfg.Usage.BufferSize,
		WorkerCount: cfg.Usage.Workers,
	})
	if err := svc.Start(); err != nil {
		return err
	}
	d.Usage = svc
	return nil
}

// initProviders registers the model gateway and the search simulation
func (d *Dependencies) initProviders(cfg *config.Config) error {
	registry := providers.NewRegistry(d.Logger)

	d.OpenRouter = openrouter.NewAdapter(openrouter.Config{
		APIKey:  cfg.Providers.OpenRouter.APIKey,
		BaseURL: cfg.Providers.OpenRouter.BaseURL,
		Referer: cfg.Providers.OpenRouter.Referer,
		Title:   cfg.Providers.OpenRouter.Title,
	}, nil, d.Logger)
	if err := registry.RegisterBackend(d.OpenRouter); err != nil {
		return err
	}

	search := searchsim.New(
		searchsim.WithLatencyRange(cfg.Route.SearchMinDelay, cfg.Route.SearchMaxDelay),
		searchsim.WithLogger(d.Logger),
	)
	if err := registry.RegisterBackend(search); err != nil {
		return err
	}

	if !d.OpenRouter.Configured() {
		d.Logger.Warn("OPENROUTER_API_KEY not set, model calls will be rejected")
	}

	d.Registry = registry

	d.Completer = classifier.NewOpenAICompleter(classifier.OpenAIConfig{
		APIKey:  cfg.Providers.OpenAI.APIKey,
		BaseURL: cfg.Providers.OpenAI.BaseURL,
		Model:   cfg.Providers.OpenAI.Model,
		Timeout: cfg.Providers.OpenAI.Timeout,
	})
	if !d.Completer.Configured() {
		d.Logger.Warn("OPENAI_API_KEY not set, smart routing analysis will be rejected")
	}
	return nil
}

func (d *Dependencies) initServices(cfg *config.Config) error {
	estimator, err := footprint.NewEstimator(cfg.Footprint.DefaultRegion)
	if err != nil {
		return err
	}
	d.Estimator = estimator

	recorder := d.recorder()

	d.Compare = compare.NewService(d.Registry, d.OpenRouter, compare.Config{
		Models:          cfg.Compare.Models,
		ProviderTimeout: cfg.Compare.ProviderTimeout,
	}, recorder, d.Metrics, d.Logger)

	labeler := classifier.New(d.Completer, d.Completer, d.Metrics, d.Logger)
	d.SmartRoute = smartroute.NewService(labeler, d.Registry, d.OpenRouter, smartroute.Config{
		ProviderTimeout: cfg.Route.ProviderTimeout,
	}, recorder, d.Metrics, d.Logger)

	return nil
}

func (d *Dependencies) recorder() usage.Recorder {
	if d.Usage == nil {
		return usage.Noop{}
	}
	return d.Usage
}

// HealthChecker returns the database health checker, or nil without a database
func (d *Dependencies) HealthChecker() repositories.HealthChecker {
	if d.DB == nil {
		return nil
	}
	return d.DB
}

// UsageSummarizer returns the usage repository, or nil without a database
func (d *Dependencies) UsageSummarizer() handlers.UsageSummarizer {
	if d.UsageRepo == nil {
		return nil
	}
	return d.UsageRepo
}

// Credentials lists the upstream keys reported by the readiness check
func (d *Dependencies) Credentials() map[string]handlers.Credential {
	creds := make(map[string]handlers.Credential, 2)
	if d.OpenRouter != nil {
		creds["openrouter"] = d.OpenRouter
	}
	if d.Completer != nil {
		creds["openai"] = d.Completer
	}
	return creds
}

// Close gracefully shuts down all dependencies. Pending usage batches are flushed first.
func (d *Dependencies) Close(ctx context.Context) error {
	if d.closed {
		return nil
	}
	d.closed = true
	d.Logger.Info("shutting down dependencies")

	var errs []error

	if d.Usage != nil {
		timeout := 5 * time.Second
		if deadline, ok := ctx.Deadline(); ok {
			timeout = time.Until(deadline)
		}
		if err := d.Usage.Stop(timeout); err != nil && !errors.Is(err, usage.ErrNotStarted) {
			errs = append(errs, fmt.Errorf("failed to stop usage recorder: %w", err))
		}
	}

	if d.RepoFactory != nil {
		if err := d.RepoFactory.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close database: %w", err))
		} else {
			d.Logger.Info("database connection closed")
		}
	}

	_ = d.Logger.Sync()

	return errors.Join(errs...)
}
