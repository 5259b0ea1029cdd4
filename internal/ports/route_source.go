package ports

import (
	"context"
	"inspection-route-service/internal/domain"
)

// RouteResult is a point-to-point answer from an authoritative routing service.
type RouteResult struct {
	DistanceMeters  float64
	DurationSeconds float64
}

// Port: the authoritative routing source wrapped by the travel-time provider.
type RouteSource interface {
	// Return road distance and duration between two coordinates.
	Route(ctx context.Context, origin, destination domain.Coordinates) (RouteResult, error)
}

// Port: persistent tier for authoritative estimates, shared across runs.
// Get reports ok=false on a miss.
type EstimateStore interface {
	Get(ctx context.Context, key string) (domain.TravelEstimate, bool, error)
	Put(ctx context.Context, key string, estimate domain.TravelEstimate) error
}

// Optional extension of EstimateStore that supports batched reads.
type BatchEstimateStore interface {
	EstimateStore
	// Return the stored estimates for the keys that exist.
	GetMany(ctx context.Context, keys []string) (map[string]domain.TravelEstimate, error)
}
