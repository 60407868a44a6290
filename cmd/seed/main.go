package main

import (
	"context"
	"os"

	"porch-petals/internal/config"
	"porch-petals/internal/db"
	"porch-petals/internal/logging"
	"porch-petals/internal/seed"
)

func main() {
	cfg, err := config.Load(".")
	if err != nil {
		fatal := logging.New(os.Stdout, "porch-petals", "seed", "info")
		fatal.Fatal().Err(err).Msg("load config")
	}
	logger := logging.New(os.Stdout, cfg.AppName, "seed", cfg.LogLevel)
	if cfg.DBConnString == "" {
		logger.Fatal().Msg("DB_DSN is required")
	}

	ctx := context.Background()
	pool, err := db.Connect(ctx, cfg.DBConnString)
	if err != nil {
		logger.Fatal().Err(err).Msg("connect db")
	}
	defer pool.Close()

	if err := seed.Apply(ctx, pool); err != nil {
		logger.Fatal().Err(err).Msg("seed apply")
	}
	logger.Info().Msg("seed applied")
}
