package services

import (
	"context"
	"errors"
	"recommendation-service/internal/adapters/lookup"
	"recommendation-service/internal/domain"
	"recommendation-service/internal/ports"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	paris          = location("Paris")
	alton          = location("Alton")
	froyle         = location("Froyle")
	louvre         = featured("Louvre", location("Rue de Rivoli"))
	eiffelTower    = featured("Eiffel Tower", location("Champ de Mars"))
	watercressLine = featured("Watercress Line", location("Alton Station"))
	flowerFarm     = featured("West End Flower Farm", froyle)
)

func location(name string) domain.Location {
	return domain.NewLocation(domain.LocationID(name), name, name)
}

func featured(name string, at domain.Location) domain.FeaturedDestination {
	return domain.NewFeaturedDestination(name, at)
}

func suggestion(origin domain.Location, d domain.FeaturedDestination, distance int) domain.FeaturedDestinationSuggestion {
	return domain.NewFeaturedDestinationSuggestion(origin, d, distance)
}

// Known distances; anything else resolves to -1.
func distances() *lookup.DistanceTable {
	return lookup.NewDistanceTable([]lookup.DistancePair{
		{From: paris.ID, To: eiffelTower.Location.ID, Distance: 5000},
		{From: paris.ID, To: louvre.Location.ID, Distance: 1000},
		{From: alton.ID, To: flowerFarm.Location.ID, Distance: 5300},
		{From: alton.ID, To: watercressLine.Location.ID, Distance: 320},
		{From: froyle.ID, To: flowerFarm.Location.ID, Distance: 0},
		{From: froyle.ID, To: watercressLine.Location.ID, Distance: 6300},
	}, -1)
}

func destinations(entries map[domain.Location][]domain.FeaturedDestination) *lookup.DestinationTable {
	byID := make(map[domain.LocationID][]domain.FeaturedDestination, len(entries))
	for l, dests := range entries {
		byID[l.ID] = dests
	}
	return lookup.NewDestinationTable(byID)
}

// pairwiseOnly hides the batched lookup so the one-pair-at-a-time path is exercised.
func pairwiseOnly(f ports.DistanceFinder) ports.DistanceFinder {
	return ports.DistanceFinderFunc(f.DistanceBetween)
}

func TestRecommendationsNoLocations(t *testing.T) {
	recs := NewRecommendations(destinations(nil), distances())

	suggestions, err := recs.RecommendationsFor(context.Background(), domain.NewJourney())
	require.NoError(t, err)
	assert.Equal(t, []domain.FeaturedDestinationSuggestion{}, suggestions)
}

func TestRecommendationsNoFeatured(t *testing.T) {
	recs := NewRecommendations(destinations(nil), distances())

	suggestions, err := recs.RecommendationsFor(context.Background(), domain.NewJourney(paris))
	require.NoError(t, err)
	assert.Equal(t, []domain.FeaturedDestinationSuggestion{}, suggestions)
}

func TestRecommendationsSingleLocation(t *testing.T) {
	recs := NewRecommendations(
		destinations(map[domain.Location][]domain.FeaturedDestination{
			paris: {eiffelTower, louvre},
		}),
		distances(),
	)

	suggestions, err := recs.RecommendationsFor(context.Background(), domain.NewJourney(paris, alton))
	require.NoError(t, err)
	assert.Equal(t, []domain.FeaturedDestinationSuggestion{
		suggestion(paris, louvre, 1000),
		suggestion(paris, eiffelTower, 5000),
	}, suggestions)
}

func TestRecommendationsMultiLocation(t *testing.T) {
	want := []domain.FeaturedDestinationSuggestion{
		suggestion(alton, watercressLine, 320),
		suggestion(paris, louvre, 1000),
		suggestion(paris, eiffelTower, 5000),
		suggestion(alton, flowerFarm, 5300),
	}
	finder := destinations(map[domain.Location][]domain.FeaturedDestination{
		paris: {eiffelTower, louvre},
		alton: {flowerFarm, watercressLine},
	})

	for name, dist := range map[string]ports.DistanceFinder{
		"matrix":   distances(),
		"pairwise": pairwiseOnly(distances()),
	} {
		t.Run(name, func(t *testing.T) {
			recs := NewRecommendations(finder, dist)

			suggestions, err := recs.RecommendationsFor(context.Background(), domain.NewJourney(paris, alton))
			require.NoError(t, err)
			assert.Equal(t, want, suggestions)
		})
	}
}

func TestRecommendationsDeduplicatesUsingSmallestDistance(t *testing.T) {
	recs := NewRecommendations(
		destinations(map[domain.Location][]domain.FeaturedDestination{
			alton:  {flowerFarm, watercressLine},
			froyle: {flowerFarm, watercressLine},
		}),
		distances(),
	)

	suggestions, err := recs.RecommendationsFor(context.Background(), domain.NewJourney(alton, froyle))
	require.NoError(t, err)
	assert.Equal(t, []domain.FeaturedDestinationSuggestion{
		suggestion(froyle, flowerFarm, 0),
		suggestion(alton, watercressLine, 320),
	}, suggestions)
}

func TestRecommendationsTieBreaks(t *testing.T) {
	a, b := location("A"), location("B")
	museum := featured("Museum", location("M"))
	park := featured("Park", location("P"))
	pier := featured("Pier", location("Q"))

	finder := destinations(map[domain.Location][]domain.FeaturedDestination{
		b: {museum, pier},
		a: {park, museum},
	})
	dist := lookup.NewDistanceTable([]lookup.DistancePair{
		{From: a.ID, To: park.Location.ID, Distance: 100},
		{From: a.ID, To: museum.Location.ID, Distance: 100},
		{From: b.ID, To: museum.Location.ID, Distance: 100},
		{From: b.ID, To: pier.Location.ID, Distance: 100},
	}, -1)

	suggestions, err := NewRecommendations(finder, dist).RecommendationsFor(context.Background(), domain.NewJourney(b, a))
	require.NoError(t, err)

	// Journey order is by ID, so A's candidates come first and win the museum tie.
	assert.Equal(t, []domain.FeaturedDestinationSuggestion{
		suggestion(a, park, 100),
		suggestion(a, museum, 100),
		suggestion(b, pier, 100),
	}, suggestions)
}

func TestRecommendationsInvariants(t *testing.T) {
	origins := []domain.Location{location("O1"), location("O2"), location("O3"), location("O4")}
	places := []domain.FeaturedDestination{
		featured("Castle", location("P1")),
		featured("Lake", location("P2")),
		featured("Market", location("P3")),
		featured("Gallery", location("P4")),
		featured("Chapel", location("P5")),
	}

	entries := map[domain.Location][]domain.FeaturedDestination{}
	pairs := []lookup.DistancePair{}
	for i, o := range origins {
		for j, p := range places {
			if (i+j)%3 == 0 {
				continue
			}
			entries[o] = append(entries[o], p)
			pairs = append(pairs, lookup.DistancePair{From: o.ID, To: p.Location.ID, Distance: (i*37 + j*53) % 100})
		}
	}

	recs := NewRecommendations(destinations(entries), lookup.NewDistanceTable(pairs, -1))
	journey := domain.NewJourney(origins...)

	first, err := recs.RecommendationsFor(context.Background(), journey)
	require.NoError(t, err)
	require.NotEmpty(t, first)

	seen := map[domain.DestinationKey]bool{}
	for i, s := range first {
		assert.False(t, seen[s.Destination.Key()], "duplicate destination %q", s.Destination.Name)
		seen[s.Destination.Key()] = true

		if i > 0 {
			assert.LessOrEqual(t, first[i-1].Distance, s.Distance)
		}

		for _, o := range origins {
			for _, d := range entries[o] {
				if d.Equal(s.Destination) {
					dd, _ := recs.distances.DistanceBetween(context.Background(), o, d.Location)
					assert.LessOrEqual(t, s.Distance, dd, "suggestion for %q is not the nearest", d.Name)
				}
			}
		}
	}
	assert.Len(t, first, len(places))

	second, err := recs.RecommendationsFor(context.Background(), journey)
	require.NoError(t, err)
	assert.Equal(t, first, second)

	concurrent, err := NewRecommendations(destinations(entries), lookup.NewDistanceTable(pairs, -1), WithConcurrency(4)).
		RecommendationsFor(context.Background(), journey)
	require.NoError(t, err)
	assert.Equal(t, first, concurrent)
}

func TestRecommendationsUnknownDistanceUsesFallback(t *testing.T) {
	museum := featured("Museum", location("Nowhere"))
	recs := NewRecommendations(
		destinations(map[domain.Location][]domain.FeaturedDestination{paris: {louvre, museum}}),
		distances(),
	)

	suggestions, err := recs.RecommendationsFor(context.Background(), domain.NewJourney(paris))
	require.NoError(t, err)
	assert.Equal(t, []domain.FeaturedDestinationSuggestion{
		suggestion(paris, museum, -1),
		suggestion(paris, louvre, 1000),
	}, suggestions)
}

func TestRecommendationsDoesNotMutateLookupResults(t *testing.T) {
	listed := []domain.FeaturedDestination{eiffelTower, louvre}
	finder := ports.DestinationFinderFunc(func(context.Context, domain.Location) ([]domain.FeaturedDestination, error) {
		return listed, nil
	})

	_, err := NewRecommendations(finder, distances()).RecommendationsFor(context.Background(), domain.NewJourney(paris))
	require.NoError(t, err)
	assert.Equal(t, []domain.FeaturedDestination{eiffelTower, louvre}, listed)
}

func TestRecommendationsPropagatesDestinationErrors(t *testing.T) {
	boom := errors.New("destination store unavailable")
	finder := ports.DestinationFinderFunc(func(context.Context, domain.Location) ([]domain.FeaturedDestination, error) {
		return nil, boom
	})

	suggestions, err := NewRecommendations(finder, distances(), WithConcurrency(2)).
		RecommendationsFor(context.Background(), domain.NewJourney(paris, alton))
	assert.ErrorIs(t, err, boom)
	assert.Nil(t, suggestions)
}

func TestRecommendationsPropagatesDistanceErrors(t *testing.T) {
	boom := errors.New("distance service unavailable")
	dist := ports.DistanceFinderFunc(func(context.Context, domain.Location, domain.Location) (int, error) {
		return 0, boom
	})
	finder := destinations(map[domain.Location][]domain.FeaturedDestination{paris: {louvre}})

	suggestions, err := NewRecommendations(finder, dist).RecommendationsFor(context.Background(), domain.NewJourney(paris))
	assert.ErrorIs(t, err, boom)
	assert.Nil(t, suggestions)
}

type incompleteMatrix struct{ ports.DistanceFinder }

func (incompleteMatrix) DistancesFrom(context.Context, domain.Location, []domain.Location) (map[domain.LocationID]int, error) {
	return map[domain.LocationID]int{}, nil
}

func TestRecommendationsRejectsIncompleteMatrix(t *testing.T) {
	finder := destinations(map[domain.Location][]domain.FeaturedDestination{paris: {louvre}})

	_, err := NewRecommendations(finder, incompleteMatrix{distances()}).
		RecommendationsFor(context.Background(), domain.NewJourney(paris))
	assert.ErrorContains(t, err, "missing distance result")
}

func TestWithConcurrencyClampsToOne(t *testing.T) {
	recs := NewRecommendations(destinations(nil), distances(), WithConcurrency(0))
	assert.Equal(t, 1, recs.concurrency)
}
