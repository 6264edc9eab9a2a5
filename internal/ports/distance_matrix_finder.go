package ports

import (
	"context"
	"recommendation-service/internal/domain"
)

// Optional extension of DistanceFinder that supports batched lookups.
type DistanceMatrixFinder interface {
	DistanceFinder
	// Return distances from one origin to many destinations, keyed by destination ID.
	DistancesFrom(ctx context.Context, origin domain.Location, destinations []domain.Location) (map[domain.LocationID]int, error)
}
