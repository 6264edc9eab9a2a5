package cache

import (
	"context"
	"errors"
	"fmt"
	"recommendation-service/internal/domain"
	"recommendation-service/internal/platform/obs"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

const redisKeyPrefix = "reco:distance:"

// RedisDistanceCache stores one string key per origin->destination pair.
// Entries expire after ttl; a zero ttl keeps them forever.
type RedisDistanceCache struct {
	client redis.UniversalClient
	ttl    time.Duration
}

func NewRedisDistanceCache(client redis.UniversalClient, ttl time.Duration) *RedisDistanceCache {
	return &RedisDistanceCache{client: client, ttl: ttl}
}

func (r *RedisDistanceCache) GetMany(
	ctx context.Context,
	origin domain.LocationID,
	destinations []domain.LocationID,
) (_ map[domain.LocationID]int, err error) {
	defer obs.Time(ctx, "distance.cache.redis.GetMany")(&err)

	if origin == "" {
		return nil, errors.New("get distance cache: origin must not be empty")
	}

	uniq := uniqueIDs(destinations)
	if len(uniq) == 0 {
		return map[domain.LocationID]int{}, nil
	}

	keys := make([]string, 0, len(uniq))
	for _, d := range uniq {
		keys = append(keys, redisKey(origin, domain.LocationID(d)))
	}

	vals, err := r.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, fmt.Errorf("get distance cache: mget: %w", err)
	}

	out := make(map[domain.LocationID]int, len(uniq))
	for i, v := range vals {
		s, ok := v.(string)
		if !ok {
			continue
		}
		meters, err := strconv.Atoi(s)
		if err != nil {
			return nil, fmt.Errorf("get distance cache: parse %q: %w", keys[i], err)
		}
		out[domain.LocationID(uniq[i])] = meters
	}

	return out, nil
}

func (r *RedisDistanceCache) PutMany(
	ctx context.Context,
	origin domain.LocationID,
	results map[domain.LocationID]int,
) error {
	if origin == "" {
		return errors.New("insert distance cache: origin must not be empty")
	}

	if len(results) == 0 {
		return nil
	}

	_, err := r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		for dest, meters := range results {
			if dest == "" {
				return errors.New("insert distance cache: empty destination key")
			}
			pipe.Set(ctx, redisKey(origin, dest), meters, r.ttl)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("insert distance cache: %w", err)
	}

	return nil
}

func redisKey(origin, destination domain.LocationID) string {
	return redisKeyPrefix + string(origin) + "|" + string(destination)
}
