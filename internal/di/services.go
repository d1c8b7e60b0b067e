package di

import (
	"context"
	"fmt"

	"github.com/aristath/portfolio-analytics/internal/cache"
	"github.com/aristath/portfolio-analytics/internal/config"
	"github.com/aristath/portfolio-analytics/internal/modules/analytics"
	"github.com/aristath/portfolio-analytics/internal/modules/marketdata"
	"github.com/aristath/portfolio-analytics/internal/modules/reconciliation"
	"github.com/rs/zerolog"
)

// InitializeServices builds the store, cache and analytics pipeline on top of
// initialized databases.
func InitializeServices(ctx context.Context, container *Container, cfg *config.Config, log zerolog.Logger) error {
	if container.MarketDB == nil {
		return fmt.Errorf("market database not initialized")
	}

	container.MarketStore = marketdata.NewStore(container.MarketDB.Conn(), log)

	backend, err := NewCacheBackend(ctx, cfg, container)
	if err != nil {
		return fmt.Errorf("failed to create cache backend: %w", err)
	}
	container.CacheBackend = backend
	container.CacheService = cache.NewService(backend, log)

	container.Loader = reconciliation.NewLoader(container.MarketStore, log)
	container.AnalyticsService = analytics.NewService(
		container.Loader,
		container.MarketStore,
		container.CacheService,
		cfg.PortfolioDir,
		analytics.KeyStrategy(cfg.Cache.KeyStrategy),
		log,
	)

	log.Info().
		Str("cache_backend", cfg.Cache.Backend).
		Str("key_strategy", cfg.Cache.KeyStrategy).
		Str("portfolio_dir", cfg.PortfolioDir).
		Msg("Services initialized")

	return nil
}

// NewCacheBackend creates the configured artifact backend.
func NewCacheBackend(ctx context.Context, cfg *config.Config, container *Container) (cache.Backend, error) {
	switch cfg.Cache.Backend {
	case config.CacheBackendMemory:
		return cache.NewMemoryBackend(), nil
	case config.CacheBackendSQLite:
		if container.CacheDB == nil {
			return nil, fmt.Errorf("cache database not initialized")
		}
		return cache.NewSQLiteBackend(container.CacheDB.Conn()), nil
	case config.CacheBackendS3:
		client, err := cache.NewS3Client(ctx, cache.S3Config{
			Region:          cfg.Cache.S3.Region,
			Endpoint:        cfg.Cache.S3.Endpoint,
			AccessKeyID:     cfg.Cache.S3.AccessKeyID,
			SecretAccessKey: cfg.Cache.S3.SecretAccessKey,
		})
		if err != nil {
			return nil, err
		}
		return cache.NewS3Backend(client, cfg.Cache.S3.Bucket, cfg.Cache.S3.Prefix), nil
	case config.CacheBackendFS, "":
		backend, err := cache.NewFileBackend(cfg.CacheDir)
		if err != nil {
			return nil, err
		}
		return backend, nil
	default:
		return nil, fmt.Errorf("unknown cache backend %q", cfg.Cache.Backend)
	}
}
