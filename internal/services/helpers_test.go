package services

import (
	"context"
	"fmt"
	"inspection-route-service/internal/domain"
	"inspection-route-service/internal/ports"
	"sync"
)

var testHome = domain.Coordinates{Lat: 14.78524443450366, Lon: 102.04253370526135}

func station(id, region string, lat, lon float64) domain.Station {
	c := domain.Coordinates{Lat: lat, Lon: lon}
	return domain.Station{
		ID:       id,
		Name:     "Station " + id,
		Location: &c,
		Region:   region,
		Province: "นครราชสีมา",
		Status:   domain.StatusFlags{OnAir: true, RequestSubmitted: true},
	}
}

func stopIDs(p domain.DailyPlan) []string {
	out := make([]string, 0, len(p.Stops))
	for _, s := range p.Stops {
		out = append(out, s.ID)
	}
	return out
}

func newTestProvider() *TravelProvider {
	return NewTravelProvider(DefaultTravelProviderOptions(), nil, nil, nil)
}

// tableProvider answers from a fixed table of named legs in minutes.
// Distance is half the minutes; legs are symmetric.
type tableProvider struct {
	names map[domain.Coordinates]string
	legs  map[string]float64
}

var _ ports.TravelTimeProvider = (*tableProvider)(nil)

func (p *tableProvider) TravelTime(_ context.Context, a, b domain.Coordinates) domain.TravelEstimate {
	na, nb := p.names[a], p.names[b]
	m, ok := p.legs[na+"-"+nb]
	if !ok {
		m, ok = p.legs[nb+"-"+na]
	}
	if !ok {
		panic(fmt.Sprintf("no leg %s-%s", na, nb))
	}
	return domain.TravelEstimate{DistanceKm: m / 2, DurationMinutes: m, Source: domain.SourceFallback}
}

func (p *tableProvider) ClusterTravelTime(ctx context.Context, a, b domain.Coordinates, _, _ string) domain.TravelEstimate {
	return p.TravelTime(ctx, a, b)
}

// fakeCatalog serves stations by province and counts lookups.
type fakeCatalog struct {
	mu       sync.Mutex
	stations map[string][]domain.Station
	calls    int
	err      error
}

func (c *fakeCatalog) Stations(_ context.Context, region string) ([]domain.Station, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls++
	if c.err != nil {
		return nil, c.err
	}
	return c.stations[region], nil
}
