package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"

	"go.opentelemetry.io/otel/sdk/metric"
	"go.uber.org/zap"

	"github.com/prperemyshlev/pettracker-client/internal/config"
	"github.com/prperemyshlev/pettracker-client/internal/repository"
	"github.com/prperemyshlev/pettracker-client/pkg/database"
	"github.com/prperemyshlev/pettracker-client/pkg/observability"
)

const serviceName = "pettracker"

type Infrastructure interface {
	Backend() repository.Backend
	Logger() *zap.Logger
	MetricsHandler() http.Handler
	MeterProvider() *metric.MeterProvider

	Shutdown(ctx context.Context) error
}

type infrastructure struct {
	backend        repository.Backend
	logger         *zap.Logger
	metricsHandler http.Handler
	meterProvider  *metric.MeterProvider
}

var _ Infrastructure = &infrastructure{}

// NewInfrastructure initializes logging, telemetry and the credential backend selected by cfg
func NewInfrastructure(ctx context.Context, cfg config.Config) (*infrastructure, error) {
	i := &infrastructure{}

	logger, err := observability.InitLogger(cfg.Env, cfg.LogLevel)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	i.logger = logger

	meterProvider, metricsHandler, err := observability.InitTelemetry(serviceName)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize telemetry: %w", err)
	}
	i.meterProvider = meterProvider
	i.metricsHandler = metricsHandler

	backend, err := OpenBackend(ctx, cfg, logger)
	if err != nil {
		_ = observability.Shutdown(ctx, meterProvider, nil)
		return nil, err
	}
	i.backend = backend

	return i, nil
}

// NewInfrastructureFrom assembles infrastructure from ready parts, mainly for tests
func NewInfrastructureFrom(backend repository.Backend, logger *zap.Logger) (*infrastructure, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	meterProvider, metricsHandler, err := observability.InitTelemetry(serviceName)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize telemetry: %w", err)
	}
	return &infrastructure{
		backend:        backend,
		logger:         logger,
		metricsHandler: metricsHandler,
		meterProvider:  meterProvider,
	}, nil
}

// OpenBackend connects the credential backend named by cfg.Store.Backend
func OpenBackend(ctx context.Context, cfg config.Config, logger *zap.Logger) (repository.Backend, error) {
	switch cfg.Store.Backend {
	case repository.BackendMemory:
		return repository.NewMemoryBackend(), nil

	case repository.BackendFile:
		path := cfg.Store.FilePath
		if path == "" {
			dir, err := os.UserConfigDir()
			if err != nil {
				return nil, fmt.Errorf("failed to locate config directory: %w", err)
			}
			path = filepath.Join(dir, serviceName, "credentials.json")
		}
		backend, err := repository.NewFileBackend(path)
		if err != nil {
			return nil, fmt.Errorf("failed to open credential file: %w", err)
		}
		logger.Debug("using file credential backend", zap.String("path", backend.Path()))
		return backend, nil

	case repository.BackendRedis:
		redis, err := database.NewRedis(ctx, cfg.Redis.Address(), cfg.Redis.Password, cfg.Redis.DB)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to Redis: %w", err)
		}
		logger.Debug("using redis credential backend", zap.String("address", cfg.Redis.Address()))
		return repository.NewRedisBackend(redis), nil

	case repository.BackendPostgres:
		postgres, err := database.NewPostgres(ctx, cfg.Postgres.DSN())
		if err != nil {
			return nil, fmt.Errorf("failed to connect to PostgreSQL: %w", err)
		}
		if err := database.Migrate(postgres); err != nil {
			_ = postgres.Close()
			return nil, fmt.Errorf("failed to migrate credential table: %w", err)
		}
		logger.Debug("using postgres credential backend", zap.String("host", cfg.Postgres.Host))
		return repository.NewPostgresBackend(postgres), nil

	default:
		return nil, fmt.Errorf("%w: %q", repository.ErrUnknownBackend, cfg.Store.Backend)
	}
}

func (i *infrastructure) Backend() repository.Backend {
	return i.backend
}

func (i *infrastructure) Logger() *zap.Logger {
	return i.logger
}

func (i *infrastructure) MetricsHandler() http.Handler {
	return i.metricsHandler
}

func (i *infrastructure) MeterProvider() *metric.MeterProvider {
	return i.meterProvider
}

func (i *infrastructure) Shutdown(ctx context.Context) error {
	errs := make(chan error, 2)

	go func() { errs <- i.backend.Close() }()
	go func() { errs <- observability.Shutdown(ctx, i.meterProvider, i.logger) }()

	return errors.Join(<-errs, <-errs)
}
