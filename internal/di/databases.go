package di

import (
	"fmt"
	"path/filepath"

	"github.com/aristath/portfolio-analytics/internal/config"
	"github.com/aristath/portfolio-analytics/internal/database"
	"github.com/rs/zerolog"
)

// InitializeDatabases opens the databases and applies schemas. The cache
// database is only opened for the sqlite cache backend.
func InitializeDatabases(cfg *config.Config, log zerolog.Logger) (*Container, error) {
	container := &Container{}

	// market.db - price and FX history
	marketDB, err := database.New(database.Config{
		Path:    cfg.MarketDB,
		Profile: database.ProfileStandard,
		Name:    "market",
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize market database: %w", err)
	}
	container.MarketDB = marketDB

	// cache.db - ephemeral artifacts
	if cfg.Cache.Backend == config.CacheBackendSQLite {
		cacheDB, err := database.New(database.Config{
			Path:    filepath.Join(cfg.DataDir, "cache.db"),
			Profile: database.ProfileCache, // Maximum speed for ephemeral data
			Name:    "cache",
		})
		if err != nil {
			marketDB.Close()
			return nil, fmt.Errorf("failed to initialize cache database: %w", err)
		}
		container.CacheDB = cacheDB
	}

	for _, db := range []*database.DB{container.MarketDB, container.CacheDB} {
		if db == nil {
			continue
		}
		if err := db.Migrate(); err != nil {
			container.Close()
			return nil, fmt.Errorf("failed to apply schema to %s: %w", db.Name(), err)
		}
	}

	log.Info().Str("market_db", cfg.MarketDB).Msg("Databases initialized and schemas applied")

	return container, nil
}
