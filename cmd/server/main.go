// Package main is the entry point for the Bloch sphere visualizer backend.
// It serves the circuit editor API, single-qubit gate tools and the playback
// stream used by the sphere view.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/OwenQuipo/Bloch-Sphere-Visualizer/internal/config"
	"github.com/OwenQuipo/Bloch-Sphere-Visualizer/internal/di"
	"github.com/OwenQuipo/Bloch-Sphere-Visualizer/internal/server"
	"github.com/OwenQuipo/Bloch-Sphere-Visualizer/pkg/logger"
)

func main() {
	// Load configuration first to get log level
	cfg, err := config.Load()
	if err != nil {
		// Use fallback logger if config fails
		fallbackLog := logger.New(logger.Config{
			Level:  "info",
			Pretty: true,
		})
		fallbackLog.Fatal().Err(err).Msg("Failed to load configuration")
	}

	log := logger.New(logger.Config{
		Level:  cfg.LogLevel,
		Pretty: cfg.DevMode,
	})
	logger.SetGlobalLogger(log)

	log.Info().Str("version", server.Version).Msg("Starting Bloch sphere visualizer")

	// Databases, repositories, services, handlers and jobs
	container, jobs, err := di.Wire(cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to wire dependencies")
	}
	defer container.Close()

	srv := server.New(server.Config{
		Log:             log,
		CircuitsDB:      container.CircuitsDB,
		Config:          cfg,
		Gatherer:        container.Registry,
		CircuitHandlers: container.CircuitHandlers,
		QuantumHandlers: container.QuantumHandlers,
		Scheduler:       container.Scheduler,
		Jobs:            jobs.All(),
	})

	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	log.Info().Int("port", cfg.Port).Msg("Server started successfully")

	container.Scheduler.Start()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")

	container.Scheduler.Stop()

	// Give in-flight requests and playback streams up to 10 seconds
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}

	// Flush the WAL before the connection closes
	if err := container.CircuitsDB.WALCheckpoint("TRUNCATE"); err != nil {
		log.Warn().Err(err).Msg("Final WAL checkpoint failed")
	}

	log.Info().Msg("Server stopped")
}
