package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"inspection-route-service/internal/domain"
	"inspection-route-service/internal/platform/obs"
	"inspection-route-service/internal/ports"
	"time"

	"github.com/redis/go-redis/v9"
)

const redisKeyPrefix = "travel:"

type redisEstimate struct {
	DistanceKm      float64 `json:"distance_km"`
	DurationMinutes float64 `json:"duration_minutes"`
	Source          string  `json:"source"`
}

func (v redisEstimate) estimate() domain.TravelEstimate {
	return domain.TravelEstimate{
		DistanceKm:      v.DistanceKm,
		DurationMinutes: v.DurationMinutes,
		Source:          v.Source,
	}
}

// RedisEstimateStore shares authoritative travel estimates between service instances.
type RedisEstimateStore struct {
	client *redis.Client
	ttl    time.Duration
}

var _ ports.BatchEstimateStore = (*RedisEstimateStore)(nil)

// NewRedisEstimateStore wraps a client. A zero ttl keeps entries forever.
func NewRedisEstimateStore(client *redis.Client, ttl time.Duration) *RedisEstimateStore {
	return &RedisEstimateStore{client: client, ttl: ttl}
}

func (s *RedisEstimateStore) Get(ctx context.Context, key string) (_ domain.TravelEstimate, ok bool, err error) {
	defer obs.Time(ctx, "estimate.redis.Get")(&err)

	raw, err := s.client.Get(ctx, redisKeyPrefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return domain.TravelEstimate{}, false, nil
	}
	if err != nil {
		return domain.TravelEstimate{}, false, fmt.Errorf("redis get estimate: %w", err)
	}

	var v redisEstimate
	if err := json.Unmarshal(raw, &v); err != nil {
		return domain.TravelEstimate{}, false, fmt.Errorf("redis decode estimate: %w", err)
	}

	return v.estimate(), true, nil
}

// GetMany reads the keys with one MGET; missing keys are absent from the map.
func (s *RedisEstimateStore) GetMany(ctx context.Context, keys []string) (_ map[string]domain.TravelEstimate, err error) {
	defer obs.Time(ctx, "estimate.redis.GetMany")(&err)

	out := make(map[string]domain.TravelEstimate, len(keys))
	if len(keys) == 0 {
		return out, nil
	}

	prefixed := make([]string, len(keys))
	for i, k := range keys {
		prefixed[i] = redisKeyPrefix + k
	}

	vals, err := s.client.MGet(ctx, prefixed...).Result()
	if err != nil {
		return nil, fmt.Errorf("redis mget estimates: %w", err)
	}

	for i, raw := range vals {
		str, ok := raw.(string)
		if !ok {
			continue
		}
		var v redisEstimate
		if err := json.Unmarshal([]byte(str), &v); err != nil {
			return nil, fmt.Errorf("redis decode estimate %q: %w", keys[i], err)
		}
		out[keys[i]] = v.estimate()
	}
	return out, nil
}

// Put stores the estimate only if the key is new.
func (s *RedisEstimateStore) Put(ctx context.Context, key string, est domain.TravelEstimate) error {
	raw, err := json.Marshal(redisEstimate{
		DistanceKm:      est.DistanceKm,
		DurationMinutes: est.DurationMinutes,
		Source:          est.Source,
	})
	if err != nil {
		return fmt.Errorf("redis encode estimate: %w", err)
	}

	if err := s.client.SetNX(ctx, redisKeyPrefix+key, raw, s.ttl).Err(); err != nil {
		return fmt.Errorf("redis put estimate: %w", err)
	}
	return nil
}
