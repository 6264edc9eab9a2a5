package cache

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"recommendation-service/internal/domain"
	"recommendation-service/internal/platform/obs"
	"strings"
)

// SQLDistanceCache is a Postgres-backed cache for origin->destination distances,
// keyed by location IDs.
type SQLDistanceCache struct {
	DB *sql.DB
}

func NewSQLDistanceCache(db *sql.DB) *SQLDistanceCache {
	return &SQLDistanceCache{DB: db}
}

// Fetch cached distances for one origin and multiple destinations.
func (s *SQLDistanceCache) GetMany(
	ctx context.Context,
	origin domain.LocationID,
	destinations []domain.LocationID,
) (_ map[domain.LocationID]int, err error) {
	defer obs.Time(ctx, "distance.cache.sql.GetMany")(&err)

	if s.DB == nil {
		return nil, errors.New("distance cache: db is nil")
	}

	if origin == "" {
		return nil, errors.New("get distance cache: origin must not be empty")
	}

	uniq := uniqueIDs(destinations)
	if len(uniq) == 0 {
		return map[domain.LocationID]int{}, nil
	}

	q := `
	SELECT destination_id, distance_meters
    FROM distance_cache
    WHERE origin_id = $1
        AND destination_id = ANY($2::text[]);
	`

	rows, err := s.DB.QueryContext(ctx, q, string(origin), uniq)
	if err != nil {
		return nil, fmt.Errorf("get distance cache: query distance_cache table: %w", err)
	}
	defer rows.Close()

	out := make(map[domain.LocationID]int, len(uniq))
	for rows.Next() {
		var dest string
		var meters int
		if err := rows.Scan(&dest, &meters); err != nil {
			return nil, fmt.Errorf("get distance cache: scan rows: %w", err)
		}
		out[domain.LocationID(dest)] = meters
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("get distance cache: row iteration: %w", err)
	}

	return out, nil
}

// Store many cached distances for a single origin in one transaction.
func (s *SQLDistanceCache) PutMany(
	ctx context.Context,
	origin domain.LocationID,
	results map[domain.LocationID]int,
) error {
	if s.DB == nil {
		return errors.New("distance cache: db is nil")
	}

	if origin == "" {
		return errors.New("insert distance cache: origin must not be empty")
	}

	if len(results) == 0 {
		return nil
	}

	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("insert distance cache: db begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, `
	INSERT INTO distance_cache (origin_id, destination_id, distance_meters)
    VALUES ($1, $2, $3)
	ON CONFLICT (origin_id, destination_id) DO UPDATE
	SET distance_meters = EXCLUDED.distance_meters;
	`)
	if err != nil {
		return fmt.Errorf("insert distance cache: db prepare: %w", err)
	}
	defer stmt.Close()

	for dest, meters := range results {
		if strings.TrimSpace(string(dest)) == "" {
			return fmt.Errorf("insert distance cache: empty destination key")
		}

		if _, err := stmt.ExecContext(ctx, string(origin), string(dest), meters); err != nil {
			return fmt.Errorf("insert distance cache dest=%q: %w", dest, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("insert distance cache commit: %w", err)
	}

	return nil
}

// uniqueIDs drops blank and repeated IDs, keeping first-seen order.
func uniqueIDs(ids []domain.LocationID) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		s := strings.TrimSpace(string(id))
		if s == "" {
			continue
		}
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return out
}
