package services

import (
	"cmp"
	"context"
	"fmt"
	"recommendation-service/internal/domain"
	"recommendation-service/internal/platform/obs"
	"recommendation-service/internal/ports"
	"slices"

	"golang.org/x/sync/errgroup"
)

// Recommendations suggests featured destinations near the locations of a journey.
//
// It is stateless apart from its two lookups and may be shared between goroutines.
type Recommendations struct {
	destinations ports.DestinationFinder
	distances    ports.DistanceFinder
	concurrency  int
}

type Option func(*Recommendations)

// WithConcurrency bounds how many journey locations are looked up at once.
// Values below 1 are treated as 1. Result order does not depend on it.
func WithConcurrency(n int) Option {
	return func(r *Recommendations) {
		r.concurrency = max(n, 1)
	}
}

func NewRecommendations(
	destinations ports.DestinationFinder,
	distances ports.DistanceFinder,
	opts ...Option,
) *Recommendations {
	r := &Recommendations{
		destinations: destinations,
		distances:    distances,
		concurrency:  1,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// RecommendationsFor returns one suggestion per featured destination reachable
// from the journey, ordered by ascending distance.
//
// A destination reachable from several journey locations is suggested once,
// from the nearest of them. Candidates are generated in journey order (by
// location ID) and then in the order the destination finder lists them:
//   - for equal distances to the same destination, the earliest candidate wins
//   - suggestions with equal distances keep the order in which their
//     destinations were first generated
//
// The first lookup error aborts the call; there are no partial results.
func (r *Recommendations) RecommendationsFor(
	ctx context.Context,
	journey domain.Journey,
) (_ []domain.FeaturedDestinationSuggestion, err error) {
	defer obs.Time(ctx, "recommendations.For")(&err)

	origins := journey.Locations()
	if len(origins) == 0 {
		return []domain.FeaturedDestinationSuggestion{}, nil
	}

	// Each origin writes only its own slot, keeping candidate order independent of scheduling.
	perOrigin := make([][]domain.FeaturedDestinationSuggestion, len(origins))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.concurrency)
	for i, origin := range origins {
		g.Go(func() error {
			candidates, err := r.candidatesFrom(gctx, origin)
			if err != nil {
				return err
			}
			perOrigin[i] = candidates
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("recommendations for journey: %w", err)
	}

	return rankByDistance(nearestPerDestination(slices.Concat(perOrigin...))), nil
}

// candidatesFrom pairs every destination featured near origin with its distance.
func (r *Recommendations) candidatesFrom(
	ctx context.Context,
	origin domain.Location,
) ([]domain.FeaturedDestinationSuggestion, error) {
	featured, err := r.destinations.DestinationsFor(ctx, origin)
	if err != nil {
		return nil, fmt.Errorf("find destinations for %q: %w", origin.ID, err)
	}
	if len(featured) == 0 {
		return nil, nil
	}

	candidates := make([]domain.FeaturedDestinationSuggestion, 0, len(featured))

	// Prefer batched distance lookups when supported to reduce external calls.
	if mf, ok := r.distances.(ports.DistanceMatrixFinder); ok {
		targets := make([]domain.Location, 0, len(featured))
		for _, d := range featured {
			targets = append(targets, d.Location)
		}

		results, err := mf.DistancesFrom(ctx, origin, targets)
		if err != nil {
			return nil, fmt.Errorf("get distances from %q: %w", origin.ID, err)
		}

		for _, d := range featured {
			dist, ok := results[d.Location.ID]
			if !ok {
				return nil, fmt.Errorf("missing distance result from %q to %q", origin.ID, d.Location.ID)
			}
			candidates = append(candidates, domain.NewFeaturedDestinationSuggestion(origin, d, dist))
		}
		return candidates, nil
	}

	for _, d := range featured {
		dist, err := r.distances.DistanceBetween(ctx, origin, d.Location)
		if err != nil {
			return nil, fmt.Errorf("get distance from %q to %q: %w", origin.ID, d.Location.ID, err)
		}
		candidates = append(candidates, domain.NewFeaturedDestinationSuggestion(origin, d, dist))
	}
	return candidates, nil
}

// nearestPerDestination keeps the closest candidate for each destination.
// Output order is the order in which destinations first appear.
func nearestPerDestination(candidates []domain.FeaturedDestinationSuggestion) []domain.FeaturedDestinationSuggestion {
	out := make([]domain.FeaturedDestinationSuggestion, 0, len(candidates))
	at := make(map[domain.DestinationKey]int, len(candidates))

	for _, c := range candidates {
		key := c.Destination.Key()
		i, seen := at[key]
		if !seen {
			at[key] = len(out)
			out = append(out, c)
			continue
		}
		// Strictly less: on a tie the earlier candidate stays.
		if c.Distance < out[i].Distance {
			out[i] = c
		}
	}
	return out
}

func rankByDistance(suggestions []domain.FeaturedDestinationSuggestion) []domain.FeaturedDestinationSuggestion {
	slices.SortStableFunc(suggestions, func(a, b domain.FeaturedDestinationSuggestion) int {
		return cmp.Compare(a.Distance, b.Distance)
	})
	return suggestions
}
