package services

import (
	"fmt"
	"inspection-route-service/internal/domain"
	"math"
	"slices"
	"strings"
)

// FixPolicy holds the tunables behind strategy selection.
type FixPolicy struct {
	HighTotalDistanceKm  float64
	MinReducedStations   int
	StationsPerDay       int
	OptimizeRouteAboveKm float64
}

func DefaultFixPolicy() FixPolicy {
	return FixPolicy{
		HighTotalDistanceKm:  600,
		MinReducedStations:   12,
		StationsPerDay:       6,
		OptimizeRouteAboveKm: 400,
	}
}

// AutoFixPlanner turns monitor findings into one corrective request.
// It proposes and applies; re-checking the revised plan is the caller's call.
type AutoFixPlanner struct {
	Policy FixPolicy
}

// ProposeFix picks a strategy; the first matching rule wins:
//  1. two or more critical violations: add a day
//  2. only distance findings and a very long trip: go to at least 3 days
//  3. only distance findings: cut stations
//  4. only time findings: add a day and start earlier
//  5. otherwise: add a day
//
// Shortfall and station-count warnings do not count against "only".
func (f *AutoFixPlanner) ProposeFix(res MonitorResult, req domain.PlanRequest) domain.FixStrategy {
	req = req.Normalized()
	days := max(1, req.DayCount)

	var strategy domain.FixStrategy
	distanceOnly, timeOnly := safetyCategories(res.Violations)

	switch {
	case res.CriticalCount() >= 2:
		strategy = extendDays(days+1, 90, fmt.Sprintf("%d critical violations", res.CriticalCount()))

	case distanceOnly && res.TotalDistanceKm > f.Policy.HighTotalDistanceKm:
		// At least three days; a request already that long still gains one.
		strategy = extendDays(max(3, days+1), 85,
			fmt.Sprintf("total distance %.0f km is over %.0f km", res.TotalDistanceKm, f.Policy.HighTotalDistanceKm))

	case distanceOnly:
		target := max(f.Policy.MinReducedStations, days*f.Policy.StationsPerDay)
		switch {
		case target < req.StationCount:
			strategy = domain.FixStrategy{
				Action:             domain.ActionReduceStations,
				TargetStationCount: target,
				Confidence:         80,
				Reason:             fmt.Sprintf("daily distance is too long for %d stations", req.StationCount),
			}
		case len(req.Regions) > 1:
			strategy = singleRegion(req.Regions[0], "fewer stations would not shorten the route; narrow the area")
		default:
			strategy = extendDays(days+1, 80, "daily distance is too long")
		}

	case timeOnly:
		strategy = extendDays(days+1, 80, "working days are too long")
		strategy.Secondary = append(strategy.Secondary, domain.SecondaryStartEarlier)

	default:
		strategy = extendDays(days+1, 85, "spread the workload over more days")
	}

	if res.TotalDistanceKm > f.Policy.OptimizeRouteAboveKm {
		strategy.Secondary = append(strategy.Secondary, domain.SecondaryOptimizeRoute)
	}
	strategy.Improvement = estimateImprovement(strategy.Action, res)

	return strategy
}

// Alternatives lists every applicable strategy so the presentation layer can
// offer a choice.
func (f *AutoFixPlanner) Alternatives(res MonitorResult, req domain.PlanRequest) []domain.FixStrategy {
	req = req.Normalized()
	days := max(1, req.DayCount)

	out := []domain.FixStrategy{
		extendDays(days+1, 85, "more days lower the daily load"),
	}

	target := max(f.Policy.MinReducedStations, days*f.Policy.StationsPerDay)
	if target < req.StationCount {
		out = append(out, domain.FixStrategy{
			Action:             domain.ActionReduceStations,
			TargetStationCount: target,
			Confidence:         75,
			Reason:             "fewer stations keep the same number of days",
		})
	}

	if len(req.Regions) > 1 {
		out = append(out, singleRegion(req.Regions[0], "one region cuts inter-region driving"))
	}

	for i := range out {
		out[i].Improvement = estimateImprovement(out[i].Action, res)
	}
	return out
}

// Apply rewrites the request for the strategy and explains which violations it addresses.
func (f *AutoFixPlanner) Apply(strategy domain.FixStrategy, req domain.PlanRequest, violations []domain.Violation) (domain.PlanRequest, string) {
	revised := req.Normalized()
	revised.Regions = slices.Clone(revised.Regions)

	var change string
	switch strategy.Action {
	case domain.ActionExtendDays:
		change = fmt.Sprintf("extend the trip from %d to %d days", req.DayCount, strategy.NewDayCount)
		revised.DayCount = strategy.NewDayCount
	case domain.ActionReduceStations:
		change = fmt.Sprintf("reduce stations from %d to %d", req.StationCount, strategy.TargetStationCount)
		revised.StationCount = strategy.TargetStationCount
	case domain.ActionSingleRegion:
		change = fmt.Sprintf("limit the trip to %s", strategy.ChosenRegion)
		revised.Regions = []string{strategy.ChosenRegion}
	default:
		return revised, "no change"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%s (confidence %d%%)", change, strategy.Confidence)
	if strategy.Reason != "" {
		fmt.Fprintf(&b, ": %s", strategy.Reason)
	}
	if len(violations) > 0 {
		b.WriteString(". Addresses:")
		for _, v := range violations {
			fmt.Fprintf(&b, "\n- %s", v)
		}
	}
	for _, s := range strategy.Secondary {
		switch s {
		case domain.SecondaryStartEarlier:
			b.WriteString("\nAlso consider starting earlier.")
		case domain.SecondaryOptimizeRoute:
			b.WriteString("\nAlso consider reordering stations by district.")
		}
	}

	return revised, b.String()
}

// Summary is a one-line description of a strategy.
func Summary(s domain.FixStrategy) string {
	switch s.Action {
	case domain.ActionExtendDays:
		return fmt.Sprintf("extend to %d days (confidence: %d%%)", s.NewDayCount, s.Confidence)
	case domain.ActionReduceStations:
		return fmt.Sprintf("reduce to %d stations (confidence: %d%%)", s.TargetStationCount, s.Confidence)
	case domain.ActionSingleRegion:
		return fmt.Sprintf("focus on %s only (confidence: %d%%)", s.ChosenRegion, s.Confidence)
	}
	return "no fix"
}

func extendDays(newDays, confidence int, reason string) domain.FixStrategy {
	return domain.FixStrategy{
		Action:      domain.ActionExtendDays,
		NewDayCount: newDays,
		Confidence:  confidence,
		Reason:      reason,
	}
}

func singleRegion(region, reason string) domain.FixStrategy {
	return domain.FixStrategy{
		Action:       domain.ActionSingleRegion,
		ChosenRegion: region,
		Confidence:   75,
		Reason:       reason,
	}
}

// safetyCategories reports whether the safety findings (distance and time
// categories) are all distance, or all time. Both are false when there are none.
func safetyCategories(vs []domain.Violation) (distanceOnly, timeOnly bool) {
	var distance, time int
	for _, v := range vs {
		switch v.Category {
		case domain.CategoryDailyDistance, domain.CategoryTotalDistance:
			distance++
		case domain.CategoryDailyTime:
			time++
		}
	}
	return distance > 0 && time == 0, time > 0 && distance == 0
}

func estimateImprovement(action domain.FixAction, res MonitorResult) domain.Improvement {
	n := len(res.Violations)
	sev := float64(res.SeverityScore)

	switch action {
	case domain.ActionExtendDays:
		return domain.Improvement{
			ViolationsFixed:   max(1, n-1),
			SafetyImprovement: math.Min(90, sev*0.8),
			EfficiencyGain:    60,
			FatigueReduction:  80,
		}
	case domain.ActionReduceStations:
		return domain.Improvement{
			ViolationsFixed:   max(1, n/2),
			SafetyImprovement: math.Min(70, sev*0.6),
			EfficiencyGain:    40,
			FatigueReduction:  70,
		}
	case domain.ActionSingleRegion:
		return domain.Improvement{
			ViolationsFixed:   max(1, n/2),
			SafetyImprovement: math.Min(60, sev*0.5),
			EfficiencyGain:    80,
			FatigueReduction:  50,
		}
	}
	return domain.Improvement{}
}
