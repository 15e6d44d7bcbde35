package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"

	"github.com/Rrens/order-intake/internal/config"
	"github.com/Rrens/order-intake/internal/logger"
	"github.com/Rrens/order-intake/internal/repository/postgres"
)

func main() {
	source := flag.String("source", "file://migrations/postgres", "migration source URL")
	steps := flag.Int("steps", 0, "number of migrations to apply, negative rolls back, 0 applies all")
	flag.Parse()

	// Load .env file if it exists
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	closer, err := logger.Setup(cfg.Logging, false)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to set up logging: %v\n", err)
		os.Exit(1)
	}
	defer closer.Close()

	log.Info().Str("host", cfg.Database.Host).Int("port", cfg.Database.Port).Str("source", *source).Msg("Running migrations")

	if err := postgres.RunMigrations(cfg.Database.DSN(), *source, *steps); err != nil {
		log.Error().Err(err).Msg("Migration failed")
		closer.Close()
		os.Exit(1)
	}
}
