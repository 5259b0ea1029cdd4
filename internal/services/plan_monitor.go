package services

import (
	"context"
	"fmt"
	"inspection-route-service/internal/domain"
	"inspection-route-service/internal/platform/obs"

	"github.com/rs/zerolog"
)

// MonitorThresholds are the safety limits a plan is checked against.
type MonitorThresholds struct {
	MaxDailyDistanceKm     float64
	MaxDailyTimeMinutes    float64
	OptimalDailyDistanceKm float64
	OptimalDailyMinutes    float64
	MaxStationsPerDay      int
	// Total distance limit applied when the request spans ShortTripDays days.
	MaxShortTripDistanceKm float64
	ShortTripDays          int
}

func DefaultMonitorThresholds() MonitorThresholds {
	return MonitorThresholds{
		MaxDailyDistanceKm:     300,
		MaxDailyTimeMinutes:    480,
		OptimalDailyDistanceKm: 250,
		OptimalDailyMinutes:    420,
		MaxStationsPerDay:      15,
		MaxShortTripDistanceKm: 500,
		ShortTripDays:          2,
	}
}

// MonitorResult is the outcome of a plan check. Violations are never dropped;
// any critical one sets InterventionNeeded.
type MonitorResult struct {
	Violations         []domain.Violation
	SeverityScore      int
	InterventionNeeded bool
	TotalDistanceKm    float64
	TotalTimeMinutes   float64
	ActualStations     int
	RequestedStations  int
	RequestedDays      int
	Summary            string
	Recommendations    []string
}

// Add records a violation and refreshes the derived fields.
func (r *MonitorResult) Add(v domain.Violation) {
	r.Violations = append(r.Violations, v)
	r.SeverityScore = domain.SeverityScore(r.Violations)
	r.InterventionNeeded = domain.HasCritical(r.Violations)
}

// CriticalCount returns the number of critical violations.
func (r MonitorResult) CriticalCount() int {
	n := 0
	for _, v := range r.Violations {
		if v.Critical() {
			n++
		}
	}
	return n
}

// PlanMonitor checks finished daily plans against the safety thresholds.
type PlanMonitor struct {
	Thresholds MonitorThresholds
	Metrics    *obs.Metrics
}

func (m *PlanMonitor) Check(
	ctx context.Context,
	plans []domain.DailyPlan,
	requestedStations int,
	requestedDays int,
) MonitorResult {
	t := m.Thresholds
	res := MonitorResult{
		Violations:        []domain.Violation{},
		RequestedStations: requestedStations,
		RequestedDays:     requestedDays,
	}

	for _, p := range plans {
		res.TotalDistanceKm += p.TotalDistanceKm
		res.TotalTimeMinutes += p.TotalTimeMinutes
		res.ActualStations += p.StationCount()

		if p.TotalDistanceKm > t.MaxDailyDistanceKm {
			res.Add(domain.Violation{
				Severity: domain.SeverityCritical,
				Category: domain.CategoryDailyDistance,
				Day:      p.DayNumber,
				Observed: p.TotalDistanceKm,
				Limit:    t.MaxDailyDistanceKm,
				Message:  fmt.Sprintf("day %d covers %.1f km, over the %.0f km safety limit", p.DayNumber, p.TotalDistanceKm, t.MaxDailyDistanceKm),
			})
		}
		if p.TotalTimeMinutes > t.MaxDailyTimeMinutes {
			res.Add(domain.Violation{
				Severity: domain.SeverityCritical,
				Category: domain.CategoryDailyTime,
				Day:      p.DayNumber,
				Observed: p.TotalTimeMinutes,
				Limit:    t.MaxDailyTimeMinutes,
				Message:  fmt.Sprintf("day %d takes %.0f min, over the %.0f min working limit", p.DayNumber, p.TotalTimeMinutes, t.MaxDailyTimeMinutes),
			})
		}
		if p.TotalDistanceKm > t.OptimalDailyDistanceKm {
			res.Add(domain.Violation{
				Severity: domain.SeverityWarning,
				Category: domain.CategoryDailyDistance,
				Day:      p.DayNumber,
				Observed: p.TotalDistanceKm,
				Limit:    t.OptimalDailyDistanceKm,
				Message:  fmt.Sprintf("day %d covers %.1f km, above the optimal %.0f km", p.DayNumber, p.TotalDistanceKm, t.OptimalDailyDistanceKm),
			})
		}
		if p.StationCount() > t.MaxStationsPerDay {
			res.Add(domain.Violation{
				Severity: domain.SeverityWarning,
				Category: domain.CategoryTooManyStations,
				Day:      p.DayNumber,
				Observed: float64(p.StationCount()),
				Limit:    float64(t.MaxStationsPerDay),
				Message:  fmt.Sprintf("day %d has %d stations, above the %d per day limit", p.DayNumber, p.StationCount(), t.MaxStationsPerDay),
			})
		}
	}

	if requestedDays == t.ShortTripDays && res.TotalDistanceKm > t.MaxShortTripDistanceKm {
		res.Add(domain.Violation{
			Severity: domain.SeverityCritical,
			Category: domain.CategoryTotalDistance,
			Observed: res.TotalDistanceKm,
			Limit:    t.MaxShortTripDistanceKm,
			Message:  fmt.Sprintf("%d-day trip covers %.1f km, over the %.0f km limit", requestedDays, res.TotalDistanceKm, t.MaxShortTripDistanceKm),
		})
	}

	if res.ActualStations < requestedStations {
		res.Add(domain.Violation{
			Severity: domain.SeverityWarning,
			Category: domain.CategoryStationShortfall,
			Observed: float64(res.ActualStations),
			Limit:    float64(requestedStations),
			Message:  fmt.Sprintf("only %d of %d requested stations fit the working days", res.ActualStations, requestedStations),
		})
	}

	res.SeverityScore = domain.SeverityScore(res.Violations)
	res.InterventionNeeded = domain.HasCritical(res.Violations)
	res.Summary = summarize(res)
	res.Recommendations = m.recommend(res)

	m.Metrics.Violations(res.Violations)
	zerolog.Ctx(ctx).Debug().
		Int("violations", len(res.Violations)).
		Int("severity", res.SeverityScore).
		Bool("intervention", res.InterventionNeeded).
		Msg("plan checked")

	return res
}

func summarize(res MonitorResult) string {
	if len(res.Violations) == 0 {
		return "all safety checks passed"
	}
	critical := res.CriticalCount()
	return fmt.Sprintf("%d critical safety violation(s), %d optimization opportunity(ies)",
		critical, len(res.Violations)-critical)
}

func (m *PlanMonitor) recommend(res MonitorResult) []string {
	seen := map[string]bool{}
	out := []string{}
	add := func(s string) {
		if !seen[s] {
			seen[s] = true
			out = append(out, s)
		}
	}

	for _, v := range res.Violations {
		switch {
		case v.Category == domain.CategoryDailyDistance && v.Critical():
			add("extend the trip by a day or reduce the number of stations")
		case v.Category == domain.CategoryDailyDistance:
			add("group stations by district to shorten daily driving")
		case v.Category == domain.CategoryDailyTime:
			add("start earlier or spread stations over more days")
		case v.Category == domain.CategoryTotalDistance:
			add("focus on a single region or add a third day")
		case v.Category == domain.CategoryTooManyStations:
			add(fmt.Sprintf("keep each day at or below %d stations", m.Thresholds.MaxStationsPerDay))
		case v.Category == domain.CategoryStationShortfall:
			add("add a day to schedule the remaining stations")
		}
	}

	if len(out) == 0 && res.TotalTimeMinutes > m.Thresholds.OptimalDailyMinutes*float64(max(1, res.RequestedDays)) {
		add("days are long but within limits; consider a later finish buffer")
	}

	return out
}
