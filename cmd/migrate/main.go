package main

import (
	"context"
	"flag"
	"os"

	"porch-petals/internal/config"
	"porch-petals/internal/db"
	"porch-petals/internal/logging"
	"porch-petals/internal/migrate"
)

func main() {
	down := flag.Int("down", 0, "roll back this many migrations instead of applying")
	flag.Parse()

	cfg, err := config.Load(".")
	if err != nil {
		fatal := logging.New(os.Stdout, "porch-petals", "migrate", "info")
		fatal.Fatal().Err(err).Msg("load config")
	}
	logger := logging.New(os.Stdout, cfg.AppName, "migrate", cfg.LogLevel)
	if cfg.DBConnString == "" {
		logger.Fatal().Msg("DB_DSN is required")
	}

	ctx := context.Background()
	pool, err := db.Connect(ctx, cfg.DBConnString)
	if err != nil {
		logger.Fatal().Err(err).Msg("connect db")
	}
	defer pool.Close()

	if *down > 0 {
		if err := migrate.Rollback(ctx, pool, *down); err != nil {
			logger.Fatal().Err(err).Msg("rollback migrations")
		}
		logger.Info().Int("steps", *down).Msg("migrations rolled back")
		return
	}

	if err := migrate.Apply(ctx, pool); err != nil {
		logger.Fatal().Err(err).Msg("apply migrations")
	}
	logger.Info().Msg("migrations applied")
}
