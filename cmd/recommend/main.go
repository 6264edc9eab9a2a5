package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"recommendation-service/internal/config"
	"recommendation-service/internal/domain"
	"recommendation-service/internal/platform/logging"
	"recommendation-service/internal/platform/obs"
	"recommendation-service/internal/services"
	"syscall"
)

// main is the composition root of the recommendation CLI.
// Usage: recommend [-config file.yaml] LOCATION_ID...
func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Args[1:], os.Stdout, os.Stderr); err != nil {
		fmt.Fprintln(os.Stderr, "recommend:", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	fs := flag.NewFlagSet("recommend", flag.ContinueOnError)
	fs.SetOutput(stderr)
	configPath := fs.String("config", config.Get("RECO_CONFIG_FILE", ""), "optional YAML config file")
	if err := fs.Parse(args); err != nil {
		return err
	}

	ids := fs.Args()
	if len(ids) == 0 {
		fs.Usage()
		return errors.New("at least one location id is required")
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		return err
	}

	logger, err := logging.New(stderr, cfg.Log.Level, cfg.Log.Pretty)
	if err != nil {
		return err
	}
	slog.SetDefault(logger)

	ctx = obs.WithRequestID(ctx, "")

	c, err := wire(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := c.Close(); err != nil {
			logger.WarnContext(ctx, "close resources", "err", err)
		}
	}()

	locationIDs := make([]domain.LocationID, 0, len(ids))
	for _, id := range ids {
		locationIDs = append(locationIDs, domain.LocationID(id))
	}

	locations, err := c.locations.FindLocations(ctx, locationIDs)
	if err != nil {
		return err
	}
	journey := domain.NewJourney(locations...)

	recs := services.NewRecommendations(
		c.destinations,
		c.distances,
		services.WithConcurrency(cfg.Recommend.Concurrency),
	)

	suggestions, err := recs.RecommendationsFor(ctx, journey)
	if err != nil {
		return err
	}

	logger.InfoContext(ctx, "recommendations ready",
		"req_id", obs.RequestID(ctx), "journey", journey.Len(), "suggestions", len(suggestions))

	return writeJSON(stdout, toResponse(suggestions))
}
