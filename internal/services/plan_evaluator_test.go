package services

import (
	"inspection-route-service/internal/domain"
	"testing"

	"github.com/stretchr/testify/assert"
)

func routedDay(n int, km, minutes float64, stations ...domain.Station) domain.DailyPlan {
	p := domain.DailyPlan{DayNumber: n, TotalDistanceKm: km, TotalTimeMinutes: minutes, Feasible: true}
	for i, st := range stations {
		p.Stops = append(p.Stops, domain.PlannedStop{Station: st, Sequence: i + 1})
	}
	return p
}

func TestEvaluate_EmptyPlan(t *testing.T) {
	ev := (&PlanEvaluator{Home: testHome}).Evaluate(nil)

	assert.Equal(t, 100.0, ev.Efficiency)
	assert.Equal(t, PatternUnknown, ev.Pattern)
	assert.Equal(t, "unknown", ev.Fatigue.Level)
	assert.False(t, ev.NeedsDayExtension)
	assert.InDelta(t, 81.5, ev.Score, 0.05)
	assert.Equal(t, "Good", ev.Rating)
}

func TestEvaluate_StraightRunIsExcellent(t *testing.T) {
	day := routedDay(1, 80, 300,
		station("s1", "A", testHome.Lat+0.1, testHome.Lon),
		station("s2", "A", testHome.Lat+0.2, testHome.Lon),
		station("s3", "A", testHome.Lat+0.3, testHome.Lon),
	)

	ev := (&PlanEvaluator{Home: testHome}).Evaluate([]domain.DailyPlan{day})

	assert.InDelta(t, 100, ev.Efficiency, 1e-6)
	assert.Equal(t, PatternConsistent, ev.Pattern)
	assert.Zero(t, ev.BacktrackCount)
	assert.False(t, ev.Backtracking)
	assert.Zero(t, ev.InefficientJumps)
	assert.Equal(t, "low", ev.Fatigue.Level)
	assert.GreaterOrEqual(t, ev.Score, 90.0)
	assert.Equal(t, "Excellent", ev.Rating)
	assert.Equal(t, "accept", ev.RecommendedAction)
}

func TestEvaluate_ZigzagBacktracks(t *testing.T) {
	day := routedDay(1, 150, 400,
		station("n1", "A", testHome.Lat+0.5, testHome.Lon),
		station("s1", "A", testHome.Lat+0.05, testHome.Lon),
		station("n2", "A", testHome.Lat+0.6, testHome.Lon),
		station("s2", "A", testHome.Lat+0.1, testHome.Lon),
	)

	ev := (&PlanEvaluator{Home: testHome}).Evaluate([]domain.DailyPlan{day})

	assert.Equal(t, 3, ev.BacktrackCount)
	assert.True(t, ev.Backtracking)
	assert.Less(t, ev.Efficiency, 100.0)
	assert.Positive(t, ev.InefficientJumps)
}

func TestEvaluate_DemandingTrip(t *testing.T) {
	plans := []domain.DailyPlan{
		routedDay(1, 450, 500, station("a", "A", testHome.Lat+1, testHome.Lon)),
		routedDay(2, 450, 500, station("b", "B", testHome.Lat-1, testHome.Lon)),
	}

	ev := (&PlanEvaluator{Home: testHome}).Evaluate(plans)

	assert.Equal(t, "high", ev.Fatigue.Level)
	assert.Contains(t, ev.Fatigue.Factors, "consecutive long driving days")
	assert.True(t, ev.Fatigue.TooDemanding)
	assert.True(t, ev.NeedsDayExtension)
	assert.InDelta(t, 450, ev.Fatigue.AvgDailyKm, 1e-9)
}

func TestEvaluate_LocatesUnlocatableStops(t *testing.T) {
	centre := domain.Coordinates{Lat: testHome.Lat + 0.2, Lon: testHome.Lon}
	day := routedDay(1, 50, 200, domain.Station{ID: "lost", Region: "A"})

	without := (&PlanEvaluator{Home: testHome}).Evaluate([]domain.DailyPlan{day})
	assert.Equal(t, PatternUnknown, without.Pattern)

	with := (&PlanEvaluator{
		Home:   testHome,
		Locate: func(domain.Station) (domain.Coordinates, bool) { return centre, true },
	}).Evaluate([]domain.DailyPlan{day})
	assert.InDelta(t, 100, with.Efficiency, 1e-6)
	assert.Zero(t, with.BacktrackCount)
}
