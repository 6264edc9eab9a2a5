package lookup

import (
	"context"
	"recommendation-service/internal/domain"
	"slices"
)

// DestinationTable is an in-memory DestinationFinder.
// Locations without an entry have no featured destinations.
type DestinationTable struct {
	m map[domain.LocationID][]domain.FeaturedDestination
}

func NewDestinationTable(entries map[domain.LocationID][]domain.FeaturedDestination) *DestinationTable {
	m := make(map[domain.LocationID][]domain.FeaturedDestination, len(entries))
	for id, dests := range entries {
		m[id] = slices.Clone(dests)
	}
	return &DestinationTable{m: m}
}

// Return a copy of the destinations listed for location, or an empty slice.
func (t *DestinationTable) DestinationsFor(_ context.Context, location domain.Location) ([]domain.FeaturedDestination, error) {
	dests, ok := t.m[location.ID]
	if !ok {
		return []domain.FeaturedDestination{}, nil
	}
	return slices.Clone(dests), nil
}

type DistancePair struct {
	From, To domain.LocationID
	Distance int
}

// DistanceTable is an in-memory DistanceFinder keyed by location ID pairs.
// Pairs without an entry resolve to the fallback value chosen at construction.
type DistanceTable struct {
	m        map[string]int
	fallback int
}

func NewDistanceTable(pairs []DistancePair, fallback int) *DistanceTable {
	m := make(map[string]int, len(pairs))
	for _, p := range pairs {
		m[pairKey(p.From, p.To)] = p.Distance
	}
	return &DistanceTable{m: m, fallback: fallback}
}

func (t *DistanceTable) DistanceBetween(_ context.Context, origin domain.Location, destination domain.Location) (int, error) {
	return t.lookup(origin.ID, destination.ID), nil
}

// Return distances from origin to every destination in one pass.
func (t *DistanceTable) DistancesFrom(_ context.Context, origin domain.Location, destinations []domain.Location) (map[domain.LocationID]int, error) {
	out := make(map[domain.LocationID]int, len(destinations))
	for _, d := range destinations {
		out[d.ID] = t.lookup(origin.ID, d.ID)
	}
	return out, nil
}

func (t *DistanceTable) Fallback() int { return t.fallback }

func (t *DistanceTable) lookup(from, to domain.LocationID) int {
	if d, ok := t.m[pairKey(from, to)]; ok {
		return d
	}
	return t.fallback
}

func pairKey(from, to domain.LocationID) string {
	return string(from) + "|" + string(to)
}
