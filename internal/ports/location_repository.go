package ports

import (
	"context"
	"recommendation-service/internal/domain"
)

// Port: a boundary for resolving Location entities from a data source.
type LocationRepository interface {
	// Retrieve the locations with the given IDs. Unknown IDs are an error.
	FindLocations(ctx context.Context, ids []domain.LocationID) ([]domain.Location, error)
}
