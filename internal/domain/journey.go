package domain

import (
	"cmp"
	"slices"
)

// Set of Locations already part of a traveler's itinerary.
// A Journey is immutable once built and carries no ordering of its own.
type Journey struct {
	locations map[LocationID]Location
}

// Build a journey from the given locations.
// Locations sharing an ID collapse into one; the first occurrence is kept.
func NewJourney(locations ...Location) Journey {
	set := make(map[LocationID]Location, len(locations))
	for _, l := range locations {
		if _, ok := set[l.ID]; ok {
			continue
		}
		set[l.ID] = l
	}
	return Journey{locations: set}
}

func (j Journey) Len() int { return len(j.locations) }

func (j Journey) Contains(id LocationID) bool {
	_, ok := j.locations[id]
	return ok
}

// Locations returns a fresh slice of the journey's locations ordered by ID,
// which gives callers a stable iteration order over the set.
func (j Journey) Locations() []Location {
	out := make([]Location, 0, len(j.locations))
	for _, l := range j.locations {
		out = append(out, l)
	}
	slices.SortFunc(out, func(a, b Location) int {
		return cmp.Compare(a.ID, b.ID)
	})
	return out
}
