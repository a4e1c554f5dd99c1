package circuits

import (
	"fmt"
	"time"

	"github.com/rs/zerolog"
)

// checkpointer is satisfied by *database.DB.
type checkpointer interface {
	WALCheckpoint(mode string) error
}

// StaleSessionCleanupJob deletes sessions that have not been touched for longer
// than the configured TTL. Runs on the scheduler, daily by default.
type StaleSessionCleanupJob struct {
	service *Service
	db      checkpointer
	ttl     time.Duration
	log     zerolog.Logger
}

// NewStaleSessionCleanupJob creates a new cleanup job. db may be nil, in which
// case no checkpoint follows a deletion.
func NewStaleSessionCleanupJob(service *Service, db checkpointer, ttl time.Duration, log zerolog.Logger) *StaleSessionCleanupJob {
	return &StaleSessionCleanupJob{
		service: service,
		db:      db,
		ttl:     ttl,
		log:     log.With().Str("job", "stale_session_cleanup").Logger(),
	}
}

// Name returns the job name
func (j *StaleSessionCleanupJob) Name() string {
	return "stale_session_cleanup"
}

// Run executes the cleanup job
func (j *StaleSessionCleanupJob) Run() error {
	j.log.Info().Dur("ttl", j.ttl).Msg("Starting stale session cleanup")

	removed, err := j.service.CleanupStale(j.ttl)
	if err != nil {
		return fmt.Errorf("failed to delete stale sessions: %w", err)
	}
	if removed == 0 {
		j.log.Info().Msg("No stale sessions to clean up")
		return nil
	}

	if j.db != nil {
		if err := j.db.WALCheckpoint("TRUNCATE"); err != nil {
			j.log.Warn().Err(err).Msg("WAL checkpoint after cleanup failed")
		}
	}

	j.log.Info().Int64("removed", removed).Msg("Stale session cleanup completed")
	return nil
}
