package distance

import (
	"context"
	"errors"
	"fmt"
	"math"
	"recommendation-service/internal/domain"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geo"
)

var ErrMissingCoordinates = errors.New("location has no coordinates")

// GeoDistanceFinder measures great-circle distances in whole meters.
// Locations without coordinates resolve to the fallback value.
type GeoDistanceFinder struct {
	fallback int
}

func NewGeoDistanceFinder(fallback int) *GeoDistanceFinder {
	return &GeoDistanceFinder{fallback: fallback}
}

func (g *GeoDistanceFinder) Fallback() int { return g.fallback }

func (g *GeoDistanceFinder) DistanceBetween(_ context.Context, origin domain.Location, destination domain.Location) (int, error) {
	return g.between(origin, destination), nil
}

func (g *GeoDistanceFinder) DistancesFrom(_ context.Context, origin domain.Location, destinations []domain.Location) (map[domain.LocationID]int, error) {
	out := make(map[domain.LocationID]int, len(destinations))
	for _, d := range destinations {
		out[d.ID] = g.between(origin, d)
	}
	return out, nil
}

func (g *GeoDistanceFinder) between(origin, destination domain.Location) int {
	if origin.Equal(destination) {
		return 0
	}

	from, err := point(origin)
	if err != nil {
		return g.fallback
	}
	to, err := point(destination)
	if err != nil {
		return g.fallback
	}

	return int(math.Round(geo.DistanceHaversine(from, to)))
}

func point(l domain.Location) (orb.Point, error) {
	if l.Coordinates == nil {
		return orb.Point{}, fmt.Errorf("%w: %q", ErrMissingCoordinates, l.ID)
	}
	return orb.Point{l.Coordinates.Lon, l.Coordinates.Lat}, nil
}
