package di

import (
	"fmt"

	"github.com/aristath/portfolio-analytics/internal/cache"
	"github.com/aristath/portfolio-analytics/internal/config"
	"github.com/aristath/portfolio-analytics/internal/scheduler"
	"github.com/rs/zerolog"
)

// databaseCheckSchedule runs the integrity check hourly.
const databaseCheckSchedule = "0 0 * * * *"

// RegisterJobs creates the background jobs and registers them with sched.
// An empty cleanup schedule leaves the cache cleanup job unscheduled; it can
// still be run by name.
func RegisterJobs(container *Container, cfg *config.Config, sched *scheduler.Scheduler, log zerolog.Logger) (*JobInstances, error) {
	jobs := &JobInstances{
		CacheCleanup:   cache.NewCleanupJob(container.CacheService, log),
		CheckDatabases: scheduler.NewCheckDatabasesJob(log, container.MarketDB, container.CacheDB),
	}

	if cfg.Cache.CleanupSchedule != "" {
		if err := sched.AddJob(cfg.Cache.CleanupSchedule, jobs.CacheCleanup); err != nil {
			return nil, fmt.Errorf("failed to register cache cleanup job: %w", err)
		}
	}
	if err := sched.AddJob(databaseCheckSchedule, jobs.CheckDatabases); err != nil {
		return nil, fmt.Errorf("failed to register database check job: %w", err)
	}

	return jobs, nil
}
