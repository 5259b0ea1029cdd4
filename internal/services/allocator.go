package services

import (
	"context"
	"errors"
	"fmt"
	"inspection-route-service/internal/domain"
	"inspection-route-service/internal/platform/obs"
)

var ErrInvalidDayCount = errors.New("day count must be at least 1")

// Allocator spreads a station list over consecutive days.
type Allocator struct {
	Sequencer *DaySequencer
}

// SplitEvenly chunks stations on input order: len/days each, with the first
// len%days days taking one extra.
func SplitEvenly(stations []domain.Station, dayCount int) ([][]domain.Station, error) {
	if dayCount < 1 {
		return nil, fmt.Errorf("split stations: %w (got %d)", ErrInvalidDayCount, dayCount)
	}

	base := len(stations) / dayCount
	extra := len(stations) % dayCount

	chunks := make([][]domain.Station, 0, dayCount)
	start := 0
	for day := 0; day < dayCount; day++ {
		size := base
		if day < extra {
			size++
		}
		chunks = append(chunks, stations[start:start+size])
		start += size
	}

	return chunks, nil
}

// Allocate sequences each chunk as its own day, always starting from home.
// Stations a day could not fit are reported in Dropped; no station appears twice.
func (a *Allocator) Allocate(ctx context.Context, stations []domain.Station, dayCount int) (_ domain.Itinerary, err error) {
	defer obs.Time(ctx, "allocator.Allocate")(&err)

	if a.Sequencer == nil {
		return domain.Itinerary{}, errors.New("allocate: sequencer must be non-nil")
	}

	chunks, err := SplitEvenly(stations, dayCount)
	if err != nil {
		return domain.Itinerary{}, fmt.Errorf("allocate: %w", err)
	}

	it := domain.Itinerary{
		Days:     make([]domain.DailyPlan, 0, dayCount),
		Selected: len(stations),
		Dropped:  []domain.Station{},
	}

	for i, chunk := range chunks {
		plan := a.Sequencer.Sequence(ctx, i+1, chunk)

		routed := make([]bool, len(chunk))
		for _, stop := range plan.Stops {
			for j := range chunk {
				if !routed[j] && chunk[j].ID == stop.ID {
					routed[j] = true
					break
				}
			}
		}
		for j, st := range chunk {
			if !routed[j] {
				it.Dropped = append(it.Dropped, st)
			}
		}

		it.Days = append(it.Days, plan)
		it.TotalDistanceKm += plan.TotalDistanceKm
		it.TotalTimeMinutes += plan.TotalTimeMinutes
	}

	return it, nil
}
