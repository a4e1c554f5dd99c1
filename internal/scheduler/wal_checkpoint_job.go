package scheduler

import (
	"github.com/OwenQuipo/Bloch-Sphere-Visualizer/internal/database"
	"github.com/rs/zerolog"
)

// walWarnFrames is the WAL size, in frames, above which a warning is logged.
const walWarnFrames = 1000

// WALCheckpointJob checkpoints the WAL of each database and reports its size
type WALCheckpointJob struct {
	log       zerolog.Logger
	databases map[string]*database.DB
}

// NewWALCheckpointJob creates a new WALCheckpointJob over the given databases.
// Nil entries are skipped.
func NewWALCheckpointJob(log zerolog.Logger, databases ...*database.DB) *WALCheckpointJob {
	byName := make(map[string]*database.DB, len(databases))
	for _, db := range databases {
		if db != nil {
			byName[db.Name()] = db
		}
	}
	return &WALCheckpointJob{
		log:       log.With().Str("job", "wal_checkpoint").Logger(),
		databases: byName,
	}
}

// Name returns the job name
func (j *WALCheckpointJob) Name() string {
	return "wal_checkpoint"
}

// Run executes the WAL checkpoint job
func (j *WALCheckpointJob) Run() error {
	checked := 0
	for name, db := range j.databases {
		// PRAGMA wal_checkpoint returns: busy, log, checkpointed
		var busy, frames, checkpointed int
		err := db.Conn().QueryRow("PRAGMA wal_checkpoint(PASSIVE)").Scan(&busy, &frames, &checkpointed)
		if err != nil {
			j.log.Warn().
				Err(err).
				Str("database", name).
				Msg("Failed to checkpoint WAL")
			continue
		}

		if frames > walWarnFrames {
			j.log.Warn().
				Str("database", name).
				Int("wal_frames", frames).
				Int("checkpointed", checkpointed).
				Msg("WAL file is large, checkpoint may be blocked")
		} else {
			j.log.Debug().
				Str("database", name).
				Int("wal_frames", frames).
				Bool("busy", busy != 0).
				Msg("WAL checkpoint status OK")
		}

		checked++
	}

	j.log.Info().
		Int("checked", checked).
		Msg("WAL checkpoint completed")

	return nil
}
