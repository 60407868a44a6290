package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"porch-petals/internal/config"
	"porch-petals/internal/importer"
	"porch-petals/internal/logging"
	"porch-petals/internal/repository/inventory"
)

func main() {
	var filePath string
	flag.StringVar(&filePath, "file", "", "Path to inventory CSV (id,name,available,total)")
	flag.Parse()

	if filePath == "" {
		flag.Usage()
		os.Exit(2)
	}

	cfg, err := config.Load(".")
	if err != nil {
		fatal := logging.New(os.Stderr, "porch-petals", "importer", "info")
		fatal.Fatal().Err(err).Msg("load config")
	}
	logger := logging.New(os.Stderr, cfg.AppName, "importer", cfg.LogLevel)
	if cfg.DBConnString == "" {
		logger.Fatal().Msg("DB_DSN is required")
	}

	db, err := inventory.Connect(cfg.DBConnString)
	if err != nil {
		logger.Fatal().Err(err).Msg("connect db")
	}
	defer db.Close()

	f, err := os.Open(filePath)
	if err != nil {
		logger.Fatal().Err(err).Msg("open file")
	}
	defer f.Close()

	imp := importer.NewCSVImporter(f, inventory.NewPostgres(db, logger))

	start := time.Now()
	count, err := imp.Run(context.Background())
	if err != nil {
		logger.Fatal().Err(err).Int("imported", count).Msg("import failed")
	}

	fmt.Printf("Imported %d inventory rows in %s\n", count, time.Since(start).Truncate(time.Millisecond))
}
