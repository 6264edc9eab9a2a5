package ports

import (
	"context"
	"recommendation-service/internal/domain"
)

// Contract for retrieving the distance between two locations.
//
// Implementations are total over any pair: when no explicit entry exists they
// return their own fallback value rather than an error. Default handling is
// decided when the finder is built, never by its callers.
type DistanceFinder interface {
	DistanceBetween(ctx context.Context, origin domain.Location, destination domain.Location) (int, error)
}

// Adapter allowing an ordinary function to act as a DistanceFinder.
type DistanceFinderFunc func(ctx context.Context, origin domain.Location, destination domain.Location) (int, error)

func (f DistanceFinderFunc) DistanceBetween(ctx context.Context, origin domain.Location, destination domain.Location) (int, error) {
	return f(ctx, origin, destination)
}
