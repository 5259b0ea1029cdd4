package ports

import (
	"context"
	"inspection-route-service/internal/domain"
)

// Port: a boundary for retrieving Station entities from the catalog.
type StationCatalog interface {
	// Retrieve stations in a region that still need inspection.
	Stations(ctx context.Context, region string) ([]domain.Station, error)
}

// NarrativeInput is everything the narrative generator may describe.
type NarrativeInput struct {
	Request      domain.PlanRequest
	Itinerary    domain.Itinerary
	Violations   []domain.Violation
	Fix          *domain.FixStrategy
	Alternatives []domain.FixStrategy
}

// Port: turns a finished plan into human-readable text.
type NarrativeGenerator interface {
	Narrate(ctx context.Context, in NarrativeInput) (string, error)
}
