// Package common holds the bootstrap shared by every saathi subcommand.
package common

import (
	"fmt"

	"gorm.io/gorm"

	"github.com/saathi-inc/saathi/internal/infrastructure/config"
	"github.com/saathi-inc/saathi/internal/infrastructure/database"
	"github.com/saathi-inc/saathi/internal/shared/logger"
)

// Env is a loaded configuration with its logger and database handle.
type Env struct {
	Config *config.Config
	Logger logger.Interface
	DB     *gorm.DB
}

// Setup loads configuration, initializes the process logger and opens the database.
func Setup(env string) (*Env, error) {
	cfg, err := config.Load(env)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	cfg.Server.Mode = MapEnvToGinMode(cfg.Server.Mode)

	if err := logger.Init(cfg.Logger, cfg.Server.IsDebug()); err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	log := logger.NewLogger()

	db, err := database.Open(&cfg.Database, log)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	return &Env{Config: cfg, Logger: log, DB: db}, nil
}

// Close releases the database handle.
func (e *Env) Close() {
	if err := database.Close(e.DB); err != nil {
		e.Logger.Warnw("failed to close database", "error", err)
	}
}

// MapEnvToGinMode maps an environment name to a gin mode.
func MapEnvToGinMode(environment string) string {
	switch environment {
	case "production", "prod", "release":
		return "release"
	case "test", "testing":
		return "test"
	default:
		return "debug"
	}
}
