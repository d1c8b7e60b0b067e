// Package di provides dependency injection type definitions.
//
// The Container holds every long-lived dependency of the analytics binaries
// and is built once by Wire().
package di

import (
	"github.com/aristath/portfolio-analytics/internal/cache"
	"github.com/aristath/portfolio-analytics/internal/database"
	"github.com/aristath/portfolio-analytics/internal/modules/analytics"
	"github.com/aristath/portfolio-analytics/internal/modules/marketdata"
	"github.com/aristath/portfolio-analytics/internal/modules/reconciliation"
	"github.com/aristath/portfolio-analytics/internal/scheduler"
)

// Container holds all dependencies for the application.
type Container struct {
	// Databases
	MarketDB *database.DB // Price and FX history
	CacheDB  *database.DB // Artifact table, only set for the sqlite cache backend

	// Data access
	MarketStore *marketdata.Store

	// Services
	CacheBackend     cache.Backend
	CacheService     *cache.Service
	Loader           *reconciliation.Loader
	AnalyticsService *analytics.Service
}

// JobInstances holds the background jobs registered with the scheduler.
type JobInstances struct {
	CacheCleanup   *cache.CleanupJob
	CheckDatabases *scheduler.CheckDatabasesJob
}

// Close releases the databases held by the container.
func (c *Container) Close() error {
	var firstErr error
	for _, db := range []*database.DB{c.CacheDB, c.MarketDB} {
		if db == nil {
			continue
		}
		if err := db.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
