package ports

import (
	"context"
	"inspection-route-service/internal/domain"
)

// Contract for retrieving travel distance and duration between two points.
// Implementations never fail: when no authoritative figure is available they
// return a fallback estimate tagged with its source.
type TravelTimeProvider interface {
	// Return the travel estimate between two coordinates.
	TravelTime(ctx context.Context, origin, destination domain.Coordinates) domain.TravelEstimate
	// Same as TravelTime, but short-circuits hops inside one named cluster.
	ClusterTravelTime(
		ctx context.Context,
		origin, destination domain.Coordinates,
		originCluster, destinationCluster string,
	) domain.TravelEstimate
}

// Optional extension of TravelTimeProvider that can warm its cache ahead of sequencing.
type TravelTimePrecomputer interface {
	TravelTimeProvider
	// Populate estimates for every cluster pair and every cluster to home.
	Precompute(ctx context.Context, clusters map[string]domain.Coordinates, home domain.Coordinates) error
}
