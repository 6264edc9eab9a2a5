package ports

import (
	"context"
	"recommendation-service/internal/domain"
)

// Persistent store of previously computed origin->destination distances.
type DistanceCache interface {
	// Return the cached subset of the requested destinations. Misses are simply absent.
	GetMany(ctx context.Context, origin domain.LocationID, destinations []domain.LocationID) (map[domain.LocationID]int, error)
	PutMany(ctx context.Context, origin domain.LocationID, results map[domain.LocationID]int) error
}
