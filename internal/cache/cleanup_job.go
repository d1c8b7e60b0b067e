package cache

import (
	"context"

	"github.com/rs/zerolog"
)

// CleanupJob clears the whole cache. It is scheduled by the server.
type CleanupJob struct {
	service *Service
	log     zerolog.Logger
}

// NewCleanupJob creates a new cache cleanup job.
func NewCleanupJob(service *Service, log zerolog.Logger) *CleanupJob {
	return &CleanupJob{
		service: service,
		log:     log.With().Str("job", "cache_cleanup").Logger(),
	}
}

// Run executes the cleanup job.
func (j *CleanupJob) Run() error {
	n, err := j.service.Clear(context.Background())
	if err != nil {
		j.log.Error().Err(err).Msg("Failed to clear cache")
		return err
	}

	if n > 0 {
		j.log.Info().Int("removed", n).Msg("Cache cleanup completed")
	}
	return nil
}

// Name returns the job name for scheduling and logging.
func (j *CleanupJob) Name() string {
	return "cache_cleanup"
}
