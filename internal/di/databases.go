package di

import (
	"fmt"

	"github.com/rs/zerolog"

	"github.com/OwenQuipo/Bloch-Sphere-Visualizer/internal/config"
	"github.com/OwenQuipo/Bloch-Sphere-Visualizer/internal/database"
)

// InitializeDatabases opens circuits.db and applies its schema
func InitializeDatabases(cfg *config.Config, log zerolog.Logger) (*Container, error) {
	container := &Container{}

	// circuits.db - Circuit sessions and their measurement memos
	circuitsDB, err := database.New(database.Config{
		Path:    cfg.SessionsDBPath(),
		Profile: database.ProfileStandard,
		Name:    "circuits",
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize circuits database: %w", err)
	}

	if err := circuitsDB.Migrate(); err != nil {
		circuitsDB.Close()
		return nil, fmt.Errorf("failed to migrate circuits database: %w", err)
	}
	container.CircuitsDB = circuitsDB

	log.Info().Str("path", circuitsDB.Path()).Msg("Circuits database initialized")
	return container, nil
}
