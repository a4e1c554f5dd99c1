// Package di provides dependency injection type definitions.
//
// The Container holds every long-lived dependency of the server and is the
// single source of truth for service instances.
package di

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/OwenQuipo/Bloch-Sphere-Visualizer/internal/database"
	"github.com/OwenQuipo/Bloch-Sphere-Visualizer/internal/metrics"
	"github.com/OwenQuipo/Bloch-Sphere-Visualizer/internal/modules/circuits"
	circuitshandlers "github.com/OwenQuipo/Bloch-Sphere-Visualizer/internal/modules/circuits/handlers"
	"github.com/OwenQuipo/Bloch-Sphere-Visualizer/internal/modules/quantum"
	quantumhandlers "github.com/OwenQuipo/Bloch-Sphere-Visualizer/internal/modules/quantum/handlers"
	"github.com/OwenQuipo/Bloch-Sphere-Visualizer/internal/modules/replay"
	"github.com/OwenQuipo/Bloch-Sphere-Visualizer/internal/scheduler"
)

// Container holds all application dependencies
type Container struct {
	// Databases
	CircuitsDB *database.DB

	// Metrics
	Registry *prometheus.Registry
	Metrics  *metrics.Metrics

	// Repositories
	CircuitRepo *circuits.Repository

	// Simulation
	Catalog *quantum.Catalog
	Engine  *replay.Engine

	// Services
	Editor         *circuits.Editor
	CircuitService *circuits.Service

	// Handlers
	CircuitHandlers *circuitshandlers.Handler
	QuantumHandlers *quantumhandlers.Handler

	// Background jobs
	Scheduler *scheduler.Scheduler
}

// JobInstances holds the registered jobs for manual triggering via API
type JobInstances struct {
	StaleSessionCleanup scheduler.Job
	WALCheckpoint       scheduler.Job
}

// All returns every job instance
func (j *JobInstances) All() []scheduler.Job {
	return []scheduler.Job{j.StaleSessionCleanup, j.WALCheckpoint}
}

// Close releases the resources held by the container
func (c *Container) Close() error {
	if c.CircuitsDB != nil {
		return c.CircuitsDB.Close()
	}
	return nil
}
