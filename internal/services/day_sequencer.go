package services

import (
	"context"
	"inspection-route-service/internal/domain"
	"inspection-route-service/internal/geo"
	"inspection-route-service/internal/ports"
	"math"
	"slices"
	"strings"
)

// DayRules are the operating constants of one inspection day.
type DayRules struct {
	DayStart            domain.TimeOfDay
	DayEnd              domain.TimeOfDay
	LunchStart          domain.TimeOfDay
	LunchEnd            domain.TimeOfDay
	LunchMinutes        float64
	InspectionMinutes   float64
	SafetyBufferMinutes float64
}

func DefaultDayRules() DayRules {
	return DayRules{
		DayStart:            domain.MustParseTimeOfDay("08:00"),
		DayEnd:              domain.MustParseTimeOfDay("17:00"),
		LunchStart:          domain.MustParseTimeOfDay("12:00"),
		LunchEnd:            domain.MustParseTimeOfDay("13:00"),
		LunchMinutes:        60,
		InspectionMinutes:   10,
		SafetyBufferMinutes: 30,
	}
}

// DaySequencer builds one day's route with a greedy nearest-neighbour walk.
//
// Same-cluster candidates win over raw distance so related visits stay
// adjacent. The walk stops at the first station whose visit plus the safe
// return would breach the day-end deadline; committed stops are never
// reordered. Ties fall back to candidate input order, so identical inputs and
// cache state give identical routes.
type DaySequencer struct {
	Provider ports.TravelTimeProvider
	Home     domain.Coordinates
	Rules    DayRules
	// Region-level positions for stations without coordinates, keyed by
	// district or province label.
	RegionCenters map[string]domain.Coordinates
}

// Sequence routes the candidates for one day.
func (s *DaySequencer) Sequence(ctx context.Context, dayNumber int, candidates []domain.Station) domain.DailyPlan {
	rules := s.Rules
	plan := domain.DailyPlan{
		DayNumber:  dayNumber,
		Stops:      []domain.PlannedStop{},
		StartTime:  rules.DayStart,
		ReturnTime: rules.DayStart,
		Candidates: len(candidates),
		Feasible:   true,
	}

	if len(candidates) == 0 {
		return plan
	}

	remaining := slices.Clone(candidates)
	clock := rules.DayStart
	position := s.Home
	lastRegion := ""
	returnLeg := domain.TravelEstimate{}

	for len(remaining) > 0 {
		idx, leg := s.next(ctx, position, lastRegion, remaining)
		st := remaining[idx]
		// A station with no known position is reached by a flat estimate
		// leg; the route carries on from where it was.
		from := position
		if target, ok := s.Locate(st); ok {
			from = target
		}
		back := s.Provider.TravelTime(ctx, from, s.Home)

		arrive := clock.Add(leg.DurationMinutes)
		after := arrive.Add(rules.InspectionMinutes)

		lunch := false
		if !plan.LunchBreakApplied && after > rules.LunchStart && clock < rules.LunchEnd {
			lunch = true
			after = after.Add(rules.LunchMinutes)
		}

		if after.Add(back.DurationMinutes+rules.SafetyBufferMinutes) > rules.DayEnd {
			break
		}

		plan.Stops = append(plan.Stops, domain.PlannedStop{
			Station:          st,
			Sequence:         len(plan.Stops) + 1,
			TravelDistanceKm: leg.DistanceKm,
			TravelMinutes:    leg.DurationMinutes,
			EstimateSource:   leg.Source,
			ArriveAt:         arrive,
			DepartAt:         after,
			LunchBefore:      lunch,
		})
		plan.TotalDistanceKm += leg.DistanceKm
		plan.TotalTimeMinutes += leg.DurationMinutes + rules.InspectionMinutes
		if lunch {
			plan.LunchBreakApplied = true
			plan.TotalTimeMinutes += rules.LunchMinutes
		}

		clock = after
		position = from
		lastRegion = st.Region
		returnLeg = back
		remaining = slices.Delete(remaining, idx, idx+1)
	}

	if len(plan.Stops) == 0 {
		// Even the first candidate could not be visited and returned from in time.
		plan.Feasible = false
		return plan
	}

	plan.ReturnDistanceKm = returnLeg.DistanceKm
	plan.ReturnMinutes = returnLeg.DurationMinutes
	plan.TotalDistanceKm += returnLeg.DistanceKm
	plan.TotalTimeMinutes += returnLeg.DurationMinutes
	plan.ReturnTime = clock.Add(returnLeg.DurationMinutes)

	return plan
}

// next picks the index of the next station and the leg that reaches it.
func (s *DaySequencer) next(
	ctx context.Context,
	position domain.Coordinates,
	lastRegion string,
	remaining []domain.Station,
) (int, domain.TravelEstimate) {
	if SameCluster(lastRegion, lastRegion) {
		best := -1
		bestKm := math.Inf(1)
		for i, st := range remaining {
			if st.Region != lastRegion {
				continue
			}
			target, _ := s.Locate(st)
			km := math.Inf(1)
			if position.Valid() && target.Valid() {
				km = geo.DistanceKm(position, target)
			}
			if best < 0 || km < bestKm {
				best, bestKm = i, km
			}
		}
		if best >= 0 {
			target, _ := s.Locate(remaining[best])
			return best, s.Provider.ClusterTravelTime(ctx, position, target, lastRegion, remaining[best].Region)
		}
	}

	best := -1
	var bestLeg domain.TravelEstimate
	for i, st := range remaining {
		target, _ := s.Locate(st)
		leg := s.Provider.TravelTime(ctx, position, target)
		// Strict comparison keeps the earlier candidate on ties.
		if best < 0 || leg.DistanceKm < bestLeg.DistanceKm {
			best, bestLeg = i, leg
		}
	}
	return best, bestLeg
}

// Locate returns the station's position: its own coordinates, else the centre
// of its district or province. ok is false when none is known, and the
// returned zero coordinates make the provider use its flat region estimate.
func (s *DaySequencer) Locate(st domain.Station) (domain.Coordinates, bool) {
	if st.Locatable() {
		return *st.Location, true
	}
	for _, label := range []string{st.Region, st.Province} {
		if c, ok := lookupCenter(s.RegionCenters, label); ok {
			return c, true
		}
	}
	return domain.Coordinates{}, false
}

func lookupCenter(centers map[string]domain.Coordinates, label string) (domain.Coordinates, bool) {
	label = strings.TrimSpace(label)
	if label == "" || len(centers) == 0 {
		return domain.Coordinates{}, false
	}
	if c, ok := centers[label]; ok && c.Valid() {
		return c, true
	}
	// Config loaders lower-case map keys.
	if c, ok := centers[strings.ToLower(label)]; ok && c.Valid() {
		return c, true
	}
	return domain.Coordinates{}, false
}
