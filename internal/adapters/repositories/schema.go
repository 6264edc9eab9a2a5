package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"recommendation-service/internal/adapters/lookup"
)

// Initialize the Postgres schema for locations, featured destinations and cached distances.
func InitSchema(ctx context.Context, db *sql.DB) error {
	if db == nil {
		return errors.New("init schema: DB is nil")
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("init schema: begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	createLocationsQuery := `
	CREATE TABLE IF NOT EXISTS locations (
		location_id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		address TEXT NOT NULL DEFAULT '',
		lon DOUBLE PRECISION,
		lat DOUBLE PRECISION
	);
	`

	createFeaturedQuery := `
	CREATE TABLE IF NOT EXISTS featured_destinations (
		origin_id TEXT NOT NULL REFERENCES locations(location_id),
		position INTEGER NOT NULL,
		name TEXT NOT NULL,
		location_id TEXT NOT NULL REFERENCES locations(location_id),
		PRIMARY KEY (origin_id, position)
	);
	`

	createDistanceCacheQuery := `
	CREATE TABLE IF NOT EXISTS distance_cache (
        origin_id TEXT NOT NULL,
        destination_id TEXT NOT NULL,
        distance_meters INTEGER NOT NULL,
        PRIMARY KEY (origin_id, destination_id)
    );
	`

	createIndexQuery := `
	CREATE INDEX IF NOT EXISTS idx_distance_cache_destination_origin
    ON distance_cache(destination_id, origin_id);
	`

	statements := []string{
		createLocationsQuery,
		createFeaturedQuery,
		createDistanceCacheQuery,
		createIndexQuery,
	}

	for i, stmt := range statements {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("init schema: exec statement #%d: %w", i+1, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("init schema: commit tx: %w", err)
	}

	return nil
}

// Populate the database from a validated dataset.
// Featured destinations of every origin in the dataset are replaced, keeping
// dataset order as their position. Dataset distances seed the distance cache.
func SeedDataset(ctx context.Context, db *sql.DB, ds *lookup.Dataset) error {
	if db == nil {
		return errors.New("seed dataset: DB is nil")
	}
	if ds == nil {
		return errors.New("seed dataset: dataset is nil")
	}
	if err := ds.Validate(); err != nil {
		return fmt.Errorf("seed dataset: %w", err)
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("seed dataset: begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	for _, l := range ds.Locations {
		_, err := tx.ExecContext(ctx, `
		INSERT INTO locations (location_id, name, address, lon, lat)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (location_id) DO UPDATE
		SET name = EXCLUDED.name,
			address = EXCLUDED.address,
			lon = EXCLUDED.lon,
			lat = EXCLUDED.lat;
		`, l.ID, l.Name, l.Address, l.Lon, l.Lat)
		if err != nil {
			return fmt.Errorf("seed dataset: insert location %q: %w", l.ID, err)
		}
	}

	positions := make(map[string]int)
	for _, f := range ds.Featured {
		if _, ok := positions[f.Origin]; !ok {
			if _, err := tx.ExecContext(ctx, `DELETE FROM featured_destinations WHERE origin_id = $1;`, f.Origin); err != nil {
				return fmt.Errorf("seed dataset: clear featured for %q: %w", f.Origin, err)
			}
		}

		pos := positions[f.Origin]
		positions[f.Origin] = pos + 1

		_, err := tx.ExecContext(ctx, `
		INSERT INTO featured_destinations (origin_id, position, name, location_id)
		VALUES ($1, $2, $3, $4);
		`, f.Origin, pos, f.Name, f.Location)
		if err != nil {
			return fmt.Errorf("seed dataset: insert featured %q for %q: %w", f.Name, f.Origin, err)
		}
	}

	for _, d := range ds.Distances {
		_, err := tx.ExecContext(ctx, `
		INSERT INTO distance_cache (origin_id, destination_id, distance_meters)
		VALUES ($1, $2, $3)
		ON CONFLICT (origin_id, destination_id) DO UPDATE
		SET distance_meters = EXCLUDED.distance_meters;
		`, d.Origin, d.Destination, d.Meters)
		if err != nil {
			return fmt.Errorf("seed dataset: insert distance %q -> %q: %w", d.Origin, d.Destination, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("seed dataset: commit tx: %w", err)
	}

	return nil
}
