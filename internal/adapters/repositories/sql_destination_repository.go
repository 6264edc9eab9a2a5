package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"recommendation-service/internal/domain"
	"recommendation-service/internal/platform/obs"
)

// Postgres-backed DestinationFinder and LocationRepository.
type SQLDestinationRepository struct{ DB *sql.DB }

func NewSQLDestinationRepository(db *sql.DB) *SQLDestinationRepository {
	return &SQLDestinationRepository{DB: db}
}

// Return the featured destinations listed for location, in stored order.
// A location with no rows has no featured destinations.
func (s *SQLDestinationRepository) DestinationsFor(
	ctx context.Context,
	location domain.Location,
) (_ []domain.FeaturedDestination, err error) {
	defer obs.Time(ctx, "destinations.sql.DestinationsFor")(&err)

	if s.DB == nil {
		return nil, errors.New("sql destination repository: DB is nil")
	}

	query := `
	SELECT
		f.name,
		l.location_id,
		l.name,
		l.address,
		l.lon,
		l.lat
	FROM featured_destinations f
	JOIN locations l ON l.location_id = f.location_id
	WHERE f.origin_id = $1
	ORDER BY f.position;
	`
	rows, err := s.DB.QueryContext(ctx, query, string(location.ID))
	if err != nil {
		return nil, fmt.Errorf("destinations for %q: query featured_destinations table: %w", location.ID, err)
	}
	defer rows.Close()

	out := make([]domain.FeaturedDestination, 0, 8)
	for rows.Next() {
		var name string
		var loc locationRow
		if err := rows.Scan(&name, &loc.id, &loc.name, &loc.address, &loc.lon, &loc.lat); err != nil {
			return nil, fmt.Errorf("destinations for %q: scan row: %w", location.ID, err)
		}
		out = append(out, domain.NewFeaturedDestination(name, loc.toDomain()))
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("destinations for %q: row iteration: %w", location.ID, err)
	}

	return out, nil
}

// Return the locations with the given IDs in the requested order.
func (s *SQLDestinationRepository) FindLocations(
	ctx context.Context,
	ids []domain.LocationID,
) ([]domain.Location, error) {
	if s.DB == nil {
		return nil, errors.New("sql destination repository: DB is nil")
	}

	if len(ids) == 0 {
		return []domain.Location{}, nil
	}

	args := make([]string, 0, len(ids))
	for _, id := range ids {
		args = append(args, string(id))
	}

	query := `
	SELECT location_id, name, address, lon, lat
	FROM locations
	WHERE location_id = ANY($1::text[]);
	`
	rows, err := s.DB.QueryContext(ctx, query, args)
	if err != nil {
		return nil, fmt.Errorf("find locations: query locations table: %w", err)
	}
	defer rows.Close()

	found := make(map[domain.LocationID]domain.Location, len(ids))
	for rows.Next() {
		var loc locationRow
		if err := rows.Scan(&loc.id, &loc.name, &loc.address, &loc.lon, &loc.lat); err != nil {
			return nil, fmt.Errorf("find locations: scan row: %w", err)
		}
		l := loc.toDomain()
		found[l.ID] = l
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("find locations: row iteration: %w", err)
	}

	out := make([]domain.Location, 0, len(ids))
	for _, id := range ids {
		l, ok := found[id]
		if !ok {
			return nil, fmt.Errorf("find locations: unknown location %q", id)
		}
		out = append(out, l)
	}
	return out, nil
}

type locationRow struct {
	id, name, address string
	lon, lat          sql.NullFloat64
}

func (r locationRow) toDomain() domain.Location {
	l := domain.NewLocation(domain.LocationID(r.id), r.name, r.address)
	if r.lon.Valid && r.lat.Valid {
		l = l.WithCoordinates(r.lon.Float64, r.lat.Float64)
	}
	return l
}
