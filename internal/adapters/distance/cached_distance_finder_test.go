package distance

import (
	"context"
	"errors"
	"recommendation-service/internal/adapters/cache"
	"recommendation-service/internal/domain"
	"recommendation-service/internal/ports"
	"sync/atomic"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingFinder struct {
	calls atomic.Int32
	dist  map[domain.LocationID]int
}

func (f *countingFinder) DistanceBetween(_ context.Context, _ domain.Location, destination domain.Location) (int, error) {
	f.calls.Add(1)
	if d, ok := f.dist[destination.ID]; ok {
		return d, nil
	}
	return -1, nil
}

type failingCache struct {
	getErr, putErr error
}

func (c failingCache) GetMany(context.Context, domain.LocationID, []domain.LocationID) (map[domain.LocationID]int, error) {
	return map[domain.LocationID]int{}, c.getErr
}

func (c failingCache) PutMany(context.Context, domain.LocationID, map[domain.LocationID]int) error {
	return c.putErr
}

func newRedisCache(t *testing.T) *cache.RedisDistanceCache {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return cache.NewRedisDistanceCache(client, 0)
}

func TestCachedDistanceFinderServesRepeatsFromCache(t *testing.T) {
	paris := domain.NewLocation("Paris", "Paris", "")
	louvre := domain.NewLocation("Louvre", "Louvre", "")
	eiffel := domain.NewLocation("Eiffel", "Eiffel", "")
	nowhere := domain.NewLocation("Nowhere", "Nowhere", "")

	next := &countingFinder{dist: map[domain.LocationID]int{"Louvre": 1000, "Eiffel": 5000}}
	finder := NewCachedDistanceFinder(next, newRedisCache(t), nil)
	ctx := context.Background()

	got, err := finder.DistancesFrom(ctx, paris, []domain.Location{louvre, eiffel, louvre, nowhere})
	require.NoError(t, err)
	assert.Equal(t, map[domain.LocationID]int{"Louvre": 1000, "Eiffel": 5000, "Nowhere": -1}, got)
	assert.Equal(t, int32(3), next.calls.Load())

	d, err := finder.DistanceBetween(ctx, paris, eiffel)
	require.NoError(t, err)
	assert.Equal(t, 5000, d)
	assert.Equal(t, int32(3), next.calls.Load(), "cached pair must not reach the wrapped finder")

	d, err = finder.DistanceBetween(ctx, paris, nowhere)
	require.NoError(t, err)
	assert.Equal(t, -1, d)
	assert.Equal(t, int32(4), next.calls.Load(), "fallback distances are not cached")
}

func TestCachedDistanceFinderUsesMatrixWhenAvailable(t *testing.T) {
	a := domain.NewLocation("A", "A", "").WithCoordinates(0, 0)
	b := domain.NewLocation("B", "B", "").WithCoordinates(0, 1)

	finder := NewCachedDistanceFinder(NewGeoDistanceFinder(-1), newRedisCache(t), nil)

	d, err := finder.DistanceBetween(context.Background(), a, b)
	require.NoError(t, err)
	assert.InDelta(t, 111319, d, 200)
}

func TestCachedDistanceFinderCacheFailures(t *testing.T) {
	a := domain.NewLocation("A", "A", "")
	b := domain.NewLocation("B", "B", "")
	next := &countingFinder{dist: map[domain.LocationID]int{"B": 7}}

	readErr := errors.New("cache down")
	_, err := NewCachedDistanceFinder(next, failingCache{getErr: readErr}, nil).DistanceBetween(context.Background(), a, b)
	assert.ErrorIs(t, err, readErr)

	d, err := NewCachedDistanceFinder(next, failingCache{putErr: errors.New("read only")}, nil).DistanceBetween(context.Background(), a, b)
	require.NoError(t, err)
	assert.Equal(t, 7, d)
}

func TestCachedDistanceFinderPropagatesFinderErrors(t *testing.T) {
	boom := errors.New("routing down")
	next := ports.DistanceFinderFunc(func(context.Context, domain.Location, domain.Location) (int, error) {
		return 0, boom
	})

	_, err := NewCachedDistanceFinder(next, newRedisCache(t), nil).
		DistanceBetween(context.Background(), domain.NewLocation("A", "A", ""), domain.NewLocation("B", "B", ""))
	assert.ErrorIs(t, err, boom)
}

func TestCachedDistanceFinderSkipsWrappedFallback(t *testing.T) {
	a := domain.NewLocation("A", "A", "").WithCoordinates(0, 0)
	b := domain.NewLocation("B", "B", "").WithCoordinates(0, 1)
	x := domain.NewLocation("X", "X", "")

	store := newRedisCache(t)
	finder := NewCachedDistanceFinder(NewGeoDistanceFinder(0), store, nil)
	ctx := context.Background()

	got, err := finder.DistancesFrom(ctx, a, []domain.Location{b, x})
	require.NoError(t, err)
	assert.Equal(t, 0, got["X"])

	cached, err := store.GetMany(ctx, "A", []domain.LocationID{"B", "X"})
	require.NoError(t, err)
	assert.Contains(t, cached, domain.LocationID("B"))
	assert.NotContains(t, cached, domain.LocationID("X"), "fallback results must not be cached")
}
