package di

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/rs/zerolog"

	"github.com/OwenQuipo/Bloch-Sphere-Visualizer/internal/config"
	"github.com/OwenQuipo/Bloch-Sphere-Visualizer/internal/metrics"
	"github.com/OwenQuipo/Bloch-Sphere-Visualizer/internal/modules/circuits"
	circuitshandlers "github.com/OwenQuipo/Bloch-Sphere-Visualizer/internal/modules/circuits/handlers"
	"github.com/OwenQuipo/Bloch-Sphere-Visualizer/internal/modules/quantum"
	quantumhandlers "github.com/OwenQuipo/Bloch-Sphere-Visualizer/internal/modules/quantum/handlers"
	"github.com/OwenQuipo/Bloch-Sphere-Visualizer/internal/modules/replay"
)

// InitializeServices creates metrics, repositories, the replay engine,
// services and handlers
func InitializeServices(container *Container, cfg *config.Config, log zerolog.Logger) error {
	if container == nil || container.CircuitsDB == nil {
		return fmt.Errorf("container must hold an open circuits database")
	}

	// Metrics on a private registry so tests can build several containers
	container.Registry = prometheus.NewRegistry()
	container.Registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	container.Metrics = metrics.New(container.Registry)

	// Repositories
	container.CircuitRepo = circuits.NewRepository(container.CircuitsDB.Conn(), log)

	// Simulation
	container.Catalog = quantum.NewCatalog()
	container.Engine = replay.NewEngine(container.Catalog, log, replay.WithStrictGates(cfg.StrictGates))

	// Services
	container.Editor = circuits.NewEditor(container.Catalog, cfg.MaxQubits)
	container.CircuitService = circuits.NewService(
		container.CircuitRepo,
		container.Editor,
		container.Engine,
		container.Metrics,
		log,
	)

	// Handlers
	container.CircuitHandlers = circuitshandlers.NewHandler(container.CircuitService, cfg.PlaybackInterval, container.Metrics, log)
	container.QuantumHandlers = quantumhandlers.NewHandler(container.Catalog, log)

	log.Info().
		Bool("strict_gates", cfg.StrictGates).
		Int("max_qubits", container.Editor.MaxQubits()).
		Msg("Services initialized")
	return nil
}
