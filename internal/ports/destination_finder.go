package ports

import (
	"context"
	"recommendation-service/internal/domain"
)

// Contract for finding the featured destinations reachable from a location.
//
// Implementations are total: a location with no known destinations yields an
// empty slice and a nil error. A non-nil error means the data source itself failed.
type DestinationFinder interface {
	DestinationsFor(ctx context.Context, location domain.Location) ([]domain.FeaturedDestination, error)
}

// Adapter allowing an ordinary function to act as a DestinationFinder.
type DestinationFinderFunc func(ctx context.Context, location domain.Location) ([]domain.FeaturedDestination, error)

func (f DestinationFinderFunc) DestinationsFor(ctx context.Context, location domain.Location) ([]domain.FeaturedDestination, error) {
	return f(ctx, location)
}
