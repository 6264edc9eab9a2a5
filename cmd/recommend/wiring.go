package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"recommendation-service/internal/adapters/cache"
	"recommendation-service/internal/adapters/distance"
	"recommendation-service/internal/adapters/lookup"
	"recommendation-service/internal/adapters/repositories"
	"recommendation-service/internal/config"
	"recommendation-service/internal/domain"
	"recommendation-service/internal/platform/db"
	"recommendation-service/internal/ports"

	"github.com/redis/go-redis/v9"
)

// components holds the adapters chosen by configuration.
type components struct {
	destinations ports.DestinationFinder
	distances    ports.DistanceFinder
	locations    ports.LocationRepository
	closers      []func() error
}

func (c *components) Close() error {
	var errs []error
	for i := len(c.closers) - 1; i >= 0; i-- {
		errs = append(errs, c.closers[i]())
	}
	return errors.Join(errs...)
}

// wire builds the lookups behind the recommendation engine.
// With a database URL, destinations and locations come from Postgres;
// otherwise they come from the dataset file.
func wire(ctx context.Context, cfg *config.Config, logger *slog.Logger) (_ *components, err error) {
	c := &components{}
	defer func() {
		if err != nil {
			_ = c.Close()
		}
	}()

	var (
		conn    *sql.DB
		dataset *lookup.Dataset
	)

	if cfg.Database.URL != "" {
		conn, err = db.Open(ctx, cfg.Database.URL, db.PoolOptions{
			MaxOpenConns:    cfg.Database.MaxOpenConns,
			MaxIdleConns:    cfg.Database.MaxIdleConns,
			ConnMaxLifetime: cfg.Database.ConnMaxLifetime,
		})
		if err != nil {
			return nil, fmt.Errorf("wire: %w", err)
		}
		c.closers = append(c.closers, conn.Close)

		repo := repositories.NewSQLDestinationRepository(conn)
		c.destinations = repo
		c.locations = repo
	} else {
		dataset, err = lookup.LoadDatasetFiles(cfg.Dataset.Path, cfg.Dataset.DistancesCSV)
		if err != nil {
			return nil, fmt.Errorf("wire: %w", err)
		}
		c.destinations = dataset.DestinationTable()
		c.locations = dataset
	}

	var source ports.DistanceFinder
	switch cfg.Distance.Source {
	case "table":
		if dataset != nil {
			source = dataset.DistanceTable(cfg.Distance.Fallback)
			break
		}
		// Stored distances live in the distance_cache table; unknown pairs use the fallback.
		fallback := cfg.Distance.Fallback
		source = distance.NewCachedDistanceFinder(
			ports.DistanceFinderFunc(func(context.Context, domain.Location, domain.Location) (int, error) {
				return fallback, nil
			}),
			cache.NewSQLDistanceCache(conn),
			logger,
		)
	case "geo":
		source = distance.NewGeoDistanceFinder(cfg.Distance.Fallback)
	case "ors":
		source, err = distance.NewORSDistanceFinder(cfg.ORS.APIKey, distance.ORSOptions{
			BaseURL:  cfg.ORS.BaseURL,
			Profile:  cfg.ORS.Profile,
			Timeout:  cfg.ORS.Timeout,
			Fallback: cfg.Distance.Fallback,
		})
		if err != nil {
			return nil, fmt.Errorf("wire: %w", err)
		}
	default:
		return nil, fmt.Errorf("wire: unknown distance source %q", cfg.Distance.Source)
	}

	switch cfg.Distance.Cache {
	case "none":
	case "postgres":
		if conn == nil {
			return nil, errors.New("wire: postgres distance cache requires a database url")
		}
		source = distance.NewCachedDistanceFinder(source, cache.NewSQLDistanceCache(conn), logger)
	case "redis":
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		c.closers = append(c.closers, client.Close)
		if err := client.Ping(ctx).Err(); err != nil {
			return nil, fmt.Errorf("wire: ping redis %q: %w", cfg.Redis.Addr, err)
		}
		source = distance.NewCachedDistanceFinder(source, cache.NewRedisDistanceCache(client, cfg.Redis.TTL), logger)
	default:
		return nil, fmt.Errorf("wire: unknown distance cache %q", cfg.Distance.Cache)
	}

	c.distances = source
	return c, nil
}
