package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"recommendation-service/internal/adapters/lookup"
	"recommendation-service/internal/adapters/repositories"
	"recommendation-service/internal/config"
	"recommendation-service/internal/platform/db"
	"recommendation-service/internal/platform/logging"
	"syscall"
)

// dbtool initializes the Postgres schema and seeds it from the dataset file.
func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	configPath := flag.String("config", config.Get("RECO_CONFIG_FILE", ""), "optional YAML config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, "dbtool:", err)
		os.Exit(1)
	}

	logger, err := logging.New(os.Stderr, cfg.Log.Level, cfg.Log.Pretty)
	if err != nil {
		fmt.Fprintln(os.Stderr, "dbtool:", err)
		os.Exit(1)
	}
	slog.SetDefault(logger)

	if err := initAndSeed(ctx, cfg, logger); err != nil {
		logger.Error("dbtool failed", "err", err)
		os.Exit(1)
	}
}

func initAndSeed(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	if cfg.Database.URL == "" {
		return errors.New("DATABASE_URL is required")
	}

	conn, err := db.Open(ctx, cfg.Database.URL, db.PoolOptions{
		MaxOpenConns:    cfg.Database.MaxOpenConns,
		MaxIdleConns:    cfg.Database.MaxIdleConns,
		ConnMaxLifetime: cfg.Database.ConnMaxLifetime,
	})
	if err != nil {
		return err
	}
	defer conn.Close()

	logger.Info("initializing database schema")
	if err := repositories.InitSchema(ctx, conn); err != nil {
		return fmt.Errorf("schema initialization failed: %w", err)
	}
	logger.Info("schema ready")

	ds, err := lookup.LoadDatasetFiles(cfg.Dataset.Path, cfg.Dataset.DistancesCSV)
	if err != nil {
		return err
	}

	logger.Info("seeding database", "dataset", cfg.Dataset.Path,
		"locations", len(ds.Locations), "featured", len(ds.Featured), "distances", len(ds.Distances))
	if err := repositories.SeedDataset(ctx, conn, ds); err != nil {
		return fmt.Errorf("seeding failed: %w", err)
	}
	logger.Info("seeding complete")

	return nil
}
