package distance

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"recommendation-service/internal/domain"
	"recommendation-service/internal/platform/obs"
	"strings"
	"time"
)

const (
	defaultORSBaseURL = "https://api.openrouteservice.org"
	defaultORSProfile = "driving-car"
)

// ORSDistanceFinder implements DistanceMatrixFinder using the OpenRouteService
// matrix endpoint. Distances are road distances in meters between the
// coordinates carried by each Location.
//
// Pairs the service cannot route, or where either side has no coordinates,
// resolve to the fallback value; transport and API failures are returned as errors. The finder is safe for concurrent use.
type ORSDistanceFinder struct {
	session  *http.Client
	apiKey   string
	baseURL  string
	profile  string
	fallback int

	maxAttempts int
	backoff     time.Duration
}

type ORSOptions struct {
	BaseURL  string
	Profile  string
	Timeout  time.Duration
	Fallback int
	// Retry policy for transient failures; zero values pick the defaults.
	MaxAttempts int
	Backoff     time.Duration
}

func NewORSDistanceFinder(apiKey string, opts ORSOptions) (*ORSDistanceFinder, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, errors.New("ORS api key is empty")
	}

	if opts.BaseURL == "" {
		opts.BaseURL = defaultORSBaseURL
	}
	if opts.Profile == "" {
		opts.Profile = defaultORSProfile
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 10 * time.Second
	}
	if opts.MaxAttempts <= 0 {
		opts.MaxAttempts = defaultMaxAttempts
	}
	if opts.Backoff <= 0 {
		opts.Backoff = defaultBackoff
	}

	return &ORSDistanceFinder{
		session:  &http.Client{Timeout: opts.Timeout},
		apiKey:   apiKey,
		baseURL:  strings.TrimRight(opts.BaseURL, "/"),
		profile:  opts.Profile,
		fallback: opts.Fallback,

		maxAttempts: opts.MaxAttempts,
		backoff:     opts.Backoff,
	}, nil
}

func (o *ORSDistanceFinder) Fallback() int { return o.fallback }

// Delegate to the batched path so both share request handling.
func (o *ORSDistanceFinder) DistanceBetween(
	ctx context.Context,
	origin domain.Location,
	destination domain.Location,
) (int, error) {
	results, err := o.DistancesFrom(ctx, origin, []domain.Location{destination})
	if err != nil {
		return 0, fmt.Errorf("get ORS distance %q -> %q: %w", origin.ID, destination.ID, err)
	}

	return results[destination.ID], nil
}

// Compute distances from a single origin to many destinations with one matrix request.
func (o *ORSDistanceFinder) DistancesFrom(
	ctx context.Context,
	origin domain.Location,
	destinations []domain.Location,
) (_ map[domain.LocationID]int, err error) {
	defer obs.Time(ctx, "ors.DistancesFrom")(&err)

	out := make(map[domain.LocationID]int, len(destinations))
	if len(destinations) == 0 {
		return out, nil
	}

	seen := make(map[domain.LocationID]struct{}, len(destinations))
	targets := make([]domain.LocationID, 0, len(destinations))
	targetCoords := make([]domain.Coordinates, 0, len(destinations))
	for _, d := range destinations {
		if _, ok := seen[d.ID]; ok {
			continue
		}
		seen[d.ID] = struct{}{}

		switch {
		case d.Equal(origin):
			out[d.ID] = 0
		case origin.Coordinates == nil, d.Coordinates == nil:
			out[d.ID] = o.fallback
		default:
			targets = append(targets, d.ID)
			targetCoords = append(targetCoords, *d.Coordinates)
		}
	}

	if len(targets) == 0 {
		return out, nil
	}

	fetched, err := o.fetchMatrixRow(ctx, *origin.Coordinates, targets, targetCoords)
	if err != nil {
		return nil, fmt.Errorf("fetching matrix row: %w", err)
	}

	for k, v := range fetched {
		out[k] = v
	}

	return out, nil
}
