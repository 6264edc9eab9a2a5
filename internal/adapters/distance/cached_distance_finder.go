package distance

import (
	"context"
	"fmt"
	"log/slog"
	"recommendation-service/internal/domain"
	"recommendation-service/internal/platform/obs"
	"recommendation-service/internal/ports"
)

// CachedDistanceFinder consults a persistent DistanceCache before delegating
// to the wrapped finder, and stores whatever the wrapped finder computes.
//
// Cache read failures are returned; cache write failures are only logged since
// the distances were already obtained. Negative distances, and the wrapped
// finder's own fallback value when it reports one, are never stored.
type CachedDistanceFinder struct {
	next   ports.DistanceFinder
	cache  ports.DistanceCache
	logger *slog.Logger
}

// fallbackReporter is implemented by finders that resolve unknown pairs to a fixed value.
type fallbackReporter interface {
	Fallback() int
}

func NewCachedDistanceFinder(next ports.DistanceFinder, cache ports.DistanceCache, logger *slog.Logger) *CachedDistanceFinder {
	if logger == nil {
		logger = slog.Default()
	}
	return &CachedDistanceFinder{next: next, cache: cache, logger: logger}
}

func (c *CachedDistanceFinder) DistanceBetween(
	ctx context.Context,
	origin domain.Location,
	destination domain.Location,
) (int, error) {
	results, err := c.DistancesFrom(ctx, origin, []domain.Location{destination})
	if err != nil {
		return 0, err
	}
	return results[destination.ID], nil
}

func (c *CachedDistanceFinder) DistancesFrom(
	ctx context.Context,
	origin domain.Location,
	destinations []domain.Location,
) (_ map[domain.LocationID]int, err error) {
	defer obs.Time(ctx, "distance.cached.DistancesFrom")(&err)

	if len(destinations) == 0 {
		return map[domain.LocationID]int{}, nil
	}

	ids := make([]domain.LocationID, 0, len(destinations))
	for _, d := range destinations {
		ids = append(ids, d.ID)
	}

	hits, err := c.cache.GetMany(ctx, origin.ID, ids)
	if err != nil {
		return nil, fmt.Errorf("cached distance: get cache from %q: %w", origin.ID, err)
	}

	seen := make(map[domain.LocationID]struct{}, len(destinations))
	misses := make([]domain.Location, 0, len(destinations))
	for _, d := range destinations {
		if _, ok := hits[d.ID]; ok {
			continue
		}
		if _, ok := seen[d.ID]; ok {
			continue
		}
		seen[d.ID] = struct{}{}
		misses = append(misses, d)
	}

	out := make(map[domain.LocationID]int, len(destinations))
	for k, v := range hits {
		out[k] = v
	}
	if len(misses) == 0 {
		return out, nil
	}

	fetched, err := c.fetch(ctx, origin, misses)
	if err != nil {
		return nil, err
	}

	known := make(map[domain.LocationID]int, len(fetched))
	for k, v := range fetched {
		if c.storable(v) {
			known[k] = v
		}
	}
	if err := c.cache.PutMany(ctx, origin.ID, known); err != nil {
		c.logger.WarnContext(ctx, "distance cache write failed",
			"req_id", obs.RequestID(ctx), "origin", origin.ID, "err", err)
	}

	for k, v := range fetched {
		out[k] = v
	}
	return out, nil
}

func (c *CachedDistanceFinder) storable(v int) bool {
	if v < 0 {
		return false
	}
	if fr, ok := c.next.(fallbackReporter); ok {
		return v != fr.Fallback()
	}
	return true
}

func (c *CachedDistanceFinder) fetch(
	ctx context.Context,
	origin domain.Location,
	misses []domain.Location,
) (map[domain.LocationID]int, error) {
	if mf, ok := c.next.(ports.DistanceMatrixFinder); ok {
		fetched, err := mf.DistancesFrom(ctx, origin, misses)
		if err != nil {
			return nil, fmt.Errorf("cached distance: fetch from %q: %w", origin.ID, err)
		}
		for _, d := range misses {
			if _, ok := fetched[d.ID]; !ok {
				return nil, fmt.Errorf("cached distance: missing distance result from %q to %q", origin.ID, d.ID)
			}
		}
		return fetched, nil
	}

	fetched := make(map[domain.LocationID]int, len(misses))
	for _, d := range misses {
		dist, err := c.next.DistanceBetween(ctx, origin, d)
		if err != nil {
			return nil, fmt.Errorf("cached distance: fetch %q -> %q: %w", origin.ID, d.ID, err)
		}
		fetched[d.ID] = dist
	}
	return fetched, nil
}
