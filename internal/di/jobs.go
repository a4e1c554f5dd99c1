package di

import (
	"fmt"

	"github.com/rs/zerolog"

	"github.com/OwenQuipo/Bloch-Sphere-Visualizer/internal/config"
	"github.com/OwenQuipo/Bloch-Sphere-Visualizer/internal/modules/circuits"
	"github.com/OwenQuipo/Bloch-Sphere-Visualizer/internal/scheduler"
)

// walCheckpointSchedule runs the WAL checkpoint every 15 minutes.
const walCheckpointSchedule = "0 */15 * * * *"

// RegisterJobs creates the background jobs and registers them with the scheduler
func RegisterJobs(container *Container, cfg *config.Config, log zerolog.Logger) (*JobInstances, error) {
	if container == nil {
		return nil, fmt.Errorf("container cannot be nil")
	}
	if container.CircuitService == nil {
		return nil, fmt.Errorf("services must be initialized before jobs")
	}

	container.Scheduler = scheduler.New(log)

	instances := &JobInstances{
		StaleSessionCleanup: circuits.NewStaleSessionCleanupJob(container.CircuitService, container.CircuitsDB, cfg.SessionTTL, log),
		WALCheckpoint:       scheduler.NewWALCheckpointJob(log, container.CircuitsDB),
	}

	if err := container.Scheduler.AddJob(cfg.CleanupSchedule, instances.StaleSessionCleanup); err != nil {
		return nil, fmt.Errorf("failed to register %s: %w", instances.StaleSessionCleanup.Name(), err)
	}
	if err := container.Scheduler.AddJob(walCheckpointSchedule, instances.WALCheckpoint); err != nil {
		return nil, fmt.Errorf("failed to register %s: %w", instances.WALCheckpoint.Name(), err)
	}

	return instances, nil
}
