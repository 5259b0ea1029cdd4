package cache

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"inspection-route-service/internal/domain"
	"inspection-route-service/internal/platform/obs"
	"inspection-route-service/internal/ports"
	"strings"
)

// SQLEstimateStore is a Postgres-backed store for authoritative travel estimates.
type SQLEstimateStore struct {
	DB *sql.DB
}

var _ ports.EstimateStore = (*SQLEstimateStore)(nil)

func NewSQLEstimateStore(db *sql.DB) *SQLEstimateStore {
	return &SQLEstimateStore{DB: db}
}

// Fetch one cached estimate. ok is false on a miss.
func (s *SQLEstimateStore) Get(ctx context.Context, key string) (_ domain.TravelEstimate, ok bool, err error) {
	defer obs.Time(ctx, "estimate.store.Get")(&err)

	if s.DB == nil {
		return domain.TravelEstimate{}, false, errors.New("estimate store: db is nil")
	}
	if strings.TrimSpace(key) == "" {
		return domain.TravelEstimate{}, false, errors.New("get estimate: key must not be empty")
	}

	q := `
	SELECT distance_km, duration_minutes, source
	FROM travel_estimate_cache
	WHERE cache_key = $1;
	`

	var est domain.TravelEstimate
	err = s.DB.QueryRowContext(ctx, q, key).Scan(&est.DistanceKm, &est.DurationMinutes, &est.Source)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.TravelEstimate{}, false, nil
	}
	if err != nil {
		return domain.TravelEstimate{}, false, fmt.Errorf("get estimate: query travel_estimate_cache: %w", err)
	}

	return est, true, nil
}

// Fetch many cached estimates at once; missing keys are absent from the map.
func (s *SQLEstimateStore) GetMany(ctx context.Context, keys []string) (_ map[string]domain.TravelEstimate, err error) {
	defer obs.Time(ctx, "estimate.store.GetMany")(&err)

	if s.DB == nil {
		return nil, errors.New("estimate store: db is nil")
	}

	seen := map[string]struct{}{}
	uniq := make([]string, 0, len(keys))
	for _, k := range keys {
		k = strings.TrimSpace(k)
		if k == "" {
			continue
		}
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		uniq = append(uniq, k)
	}

	if len(uniq) == 0 {
		return map[string]domain.TravelEstimate{}, nil
	}

	q := `
	SELECT cache_key, distance_km, duration_minutes, source
	FROM travel_estimate_cache
	WHERE cache_key = ANY($1::text[]);
	`

	rows, err := s.DB.QueryContext(ctx, q, uniq)
	if err != nil {
		return nil, fmt.Errorf("get estimates: query travel_estimate_cache: %w", err)
	}
	defer rows.Close()

	out := make(map[string]domain.TravelEstimate, len(uniq))
	for rows.Next() {
		var key string
		var est domain.TravelEstimate
		if err := rows.Scan(&key, &est.DistanceKm, &est.DurationMinutes, &est.Source); err != nil {
			return nil, fmt.Errorf("get estimates: scan rows: %w", err)
		}
		out[key] = est
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("get estimates: row iteration: %w", err)
	}

	return out, nil
}

// Store one estimate. Existing rows are kept so a key always maps to its first value.
func (s *SQLEstimateStore) Put(ctx context.Context, key string, est domain.TravelEstimate) error {
	if s.DB == nil {
		return errors.New("estimate store: db is nil")
	}
	if strings.TrimSpace(key) == "" {
		return errors.New("put estimate: key must not be empty")
	}

	q := `
	INSERT INTO travel_estimate_cache (cache_key, distance_km, duration_minutes, source)
	VALUES ($1, $2, $3, $4)
	ON CONFLICT (cache_key) DO NOTHING;
	`
	if _, err := s.DB.ExecContext(ctx, q, key, est.DistanceKm, est.DurationMinutes, est.Source); err != nil {
		return fmt.Errorf("put estimate key=%q: %w", key, err)
	}

	return nil
}
