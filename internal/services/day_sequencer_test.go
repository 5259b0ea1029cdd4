package services

import (
	"context"
	"fmt"
	"inspection-route-service/internal/domain"
	"inspection-route-service/internal/geo"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSequence_EmptyCandidates(t *testing.T) {
	seq := &DaySequencer{Provider: newTestProvider(), Home: testHome, Rules: DefaultDayRules()}

	plan := seq.Sequence(context.Background(), 1, nil)

	assert.True(t, plan.Feasible)
	assert.Empty(t, plan.Stops)
	assert.Zero(t, plan.TotalDistanceKm)
	assert.Zero(t, plan.TotalTimeMinutes)
	assert.Equal(t, DefaultDayRules().DayStart, plan.ReturnTime)
}

func TestSequence_CompactClusterRoutesEverything(t *testing.T) {
	stations := make([]domain.Station, 0, 10)
	for i := 1; i <= 10; i++ {
		region := "A"
		if i%2 == 0 {
			region = "B"
		}
		stations = append(stations, station(fmt.Sprintf("s%02d", i), region, testHome.Lat+float64(i)*0.003, testHome.Lon))
	}

	seq := &DaySequencer{Provider: newTestProvider(), Home: testHome, Rules: DefaultDayRules()}
	plan := seq.Sequence(context.Background(), 1, stations)

	require.Len(t, plan.Stops, 10)
	assert.True(t, plan.Feasible)
	assert.False(t, plan.LunchBreakApplied)
	assert.Less(t, plan.ReturnTime.Minutes(), DefaultDayRules().DayEnd.Minutes())

	monitor := &PlanMonitor{Thresholds: DefaultMonitorThresholds()}
	res := monitor.Check(context.Background(), []domain.DailyPlan{plan}, 10, 1)
	assert.Empty(t, res.Violations)
	assert.False(t, res.InterventionNeeded)
}

func TestSequence_SameRegionBeatsNearer(t *testing.T) {
	home := domain.Coordinates{Lat: 15.0, Lon: 102.0}
	a := station("A", "X", 15.01, 102.0)
	b := station("B", "X", 15.06, 102.0)
	c := station("C", "Y", 15.02, 102.0)

	seq := &DaySequencer{Provider: newTestProvider(), Home: home, Rules: DefaultDayRules()}
	plan := seq.Sequence(context.Background(), 1, []domain.Station{c, b, a})

	require.Equal(t, []string{"A", "B", "C"}, stopIDs(plan))
	assert.Equal(t, domain.SourceSameCluster, plan.Stops[1].EstimateSource)
	assert.Equal(t, 0.5, plan.Stops[1].TravelDistanceKm)
}

func TestSequence_StopsBeforeDeadline(t *testing.T) {
	names := map[domain.Coordinates]string{testHome: "h"}
	stations := make([]domain.Station, 0, 5)
	for i := 1; i <= 5; i++ {
		st := station(fmt.Sprintf("s%d", i), fmt.Sprintf("R%d", i), 15.0+float64(i)*0.1, 102.0)
		names[*st.Location] = st.ID
		stations = append(stations, st)
	}

	provider := &tableProvider{
		names: names,
		legs: map[string]float64{
			"h-s1": 60, "h-s2": 80, "h-s3": 90, "h-s4": 100, "h-s5": 101,
			"s1-s2": 60, "s1-s3": 120, "s1-s4": 180, "s1-s5": 240,
			"s2-s3": 60, "s2-s4": 120, "s2-s5": 180,
			"s3-s4": 60, "s3-s5": 120,
			"s4-s5": 60,
		},
	}

	seq := &DaySequencer{Provider: provider, Home: testHome, Rules: DefaultDayRules()}
	plan := seq.Sequence(context.Background(), 1, stations)

	// The fifth visit would end at 14:50 and return at 16:31, one minute
	// past the latest safe return of 16:30.
	require.Equal(t, []string{"s1", "s2", "s3", "s4"}, stopIDs(plan))
	assert.True(t, plan.Feasible)
	assert.True(t, plan.LunchBreakApplied)
	assert.True(t, plan.Stops[3].LunchBefore)
	assert.Equal(t, "15:20", plan.ReturnTime.String())
	assert.InDelta(t, 440, plan.TotalTimeMinutes, 1e-9)
	assert.InDelta(t, 170, plan.TotalDistanceKm, 1e-9)

	monitor := &PlanMonitor{Thresholds: DefaultMonitorThresholds()}
	res := monitor.Check(context.Background(), []domain.DailyPlan{plan}, 5, 1)
	require.Len(t, res.Violations, 1)
	assert.Equal(t, domain.CategoryStationShortfall, res.Violations[0].Category)
	assert.False(t, res.InterventionNeeded)
}

func TestSequence_FirstStationInfeasible(t *testing.T) {
	far := station("far", "R", 20.0, 100.0)

	seq := &DaySequencer{Provider: newTestProvider(), Home: testHome, Rules: DefaultDayRules()}
	plan := seq.Sequence(context.Background(), 2, []domain.Station{far})

	assert.False(t, plan.Feasible)
	assert.Empty(t, plan.Stops)
	assert.Equal(t, 2, plan.DayNumber)
	assert.Equal(t, DefaultDayRules().DayStart, plan.ReturnTime)
}

func TestSequence_LunchAppliedOnce(t *testing.T) {
	stations := make([]domain.Station, 0, 12)
	for i := 1; i <= 12; i++ {
		stations = append(stations, station(fmt.Sprintf("s%02d", i), fmt.Sprintf("R%d", i), testHome.Lat+float64(i)*0.12, testHome.Lon))
	}

	rules := DefaultDayRules()
	seq := &DaySequencer{Provider: newTestProvider(), Home: testHome, Rules: rules}
	plan := seq.Sequence(context.Background(), 1, stations)

	require.True(t, plan.LunchBreakApplied)
	lunches := 0
	var accounted float64
	for _, s := range plan.Stops {
		if s.LunchBefore {
			lunches++
		}
		accounted += s.TravelMinutes + rules.InspectionMinutes
	}
	accounted += plan.ReturnMinutes

	assert.Equal(t, 1, lunches)
	assert.InDelta(t, accounted+rules.LunchMinutes, plan.TotalTimeMinutes, 1e-6)
}

func TestSequence_DeadlineHoldsForRandomStations(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	rules := DefaultDayRules()

	for round := 0; round < 50; round++ {
		n := 1 + rng.Intn(20)
		stations := make([]domain.Station, 0, n)
		for i := 0; i < n; i++ {
			stations = append(stations, station(
				fmt.Sprintf("r%d-%d", round, i),
				fmt.Sprintf("D%d", rng.Intn(4)),
				testHome.Lat+rng.Float64()*2-1,
				testHome.Lon+rng.Float64()*2-1,
			))
		}

		seq := &DaySequencer{Provider: newTestProvider(), Home: testHome, Rules: rules}
		plan := seq.Sequence(context.Background(), 1, stations)

		if plan.Feasible && len(plan.Stops) > 0 {
			latest := rules.DayEnd.Minutes() - rules.SafetyBufferMinutes
			require.LessOrEqual(t, plan.ReturnTime.Minutes(), latest+1e-9, "round %d", round)
		}
	}
}

func TestSequence_Deterministic(t *testing.T) {
	rng := rand.New(rand.NewSource(3))
	stations := make([]domain.Station, 0, 15)
	for i := 0; i < 15; i++ {
		stations = append(stations, station(fmt.Sprintf("s%d", i), fmt.Sprintf("D%d", i%3),
			testHome.Lat+rng.Float64()-0.5, testHome.Lon+rng.Float64()-0.5))
	}

	provider := newTestProvider()
	seq := &DaySequencer{Provider: provider, Home: testHome, Rules: DefaultDayRules()}

	first := seq.Sequence(context.Background(), 1, stations)
	second := seq.Sequence(context.Background(), 1, stations)

	assert.Equal(t, stopIDs(first), stopIDs(second))
	assert.Equal(t, first.TotalDistanceKm, second.TotalDistanceKm)
}

func TestSequence_UnlocatableStationsAreEstimated(t *testing.T) {
	lost := domain.Station{ID: "lost", Name: "No coordinates", Region: "เมือง", Province: "ชัยภูมิ"}
	nowhere := domain.Station{ID: "nowhere", Name: "No centre", Region: "?", Province: "?"}

	seq := &DaySequencer{
		Provider:      newTestProvider(),
		Home:          testHome,
		Rules:         DefaultDayRules(),
		RegionCenters: map[string]domain.Coordinates{"ชัยภูมิ": {Lat: 15.8068, Lon: 102.0348}},
	}

	pos, ok := seq.Locate(lost)
	require.True(t, ok)
	assert.Equal(t, 15.8068, pos.Lat)

	_, ok = seq.Locate(nowhere)
	assert.False(t, ok)

	plan := seq.Sequence(context.Background(), 1, []domain.Station{lost, nowhere})

	// The flat 25 km estimate makes the centreless station the nearest.
	require.Equal(t, []string{"nowhere", "lost"}, stopIDs(plan))
	assert.Equal(t, domain.SourceRegionEstimate, plan.Stops[0].EstimateSource)
	assert.Equal(t, 25.0, plan.Stops[0].TravelDistanceKm)
	assert.InDelta(t, geo.RoadDistanceKm(testHome, pos, 1.25), plan.Stops[1].TravelDistanceKm, 1e-9)
	assert.Equal(t, domain.SourceFallback, plan.Stops[1].EstimateSource)
	assert.InDelta(t, geo.RoadDistanceKm(pos, testHome, 1.25), plan.ReturnDistanceKm, 1e-9)
}

func TestSequence_CentrelessStationKeepsPosition(t *testing.T) {
	near := station("near", "A", testHome.Lat+0.05, testHome.Lon)
	far := station("far", "C", testHome.Lat+1.0, testHome.Lon)
	nowhere := domain.Station{ID: "nowhere", Name: "No centre", Region: "B"}

	seq := &DaySequencer{Provider: newTestProvider(), Home: testHome, Rules: DefaultDayRules()}

	plan := seq.Sequence(context.Background(), 1, []domain.Station{far, nowhere, near})

	require.Equal(t, []string{"near", "nowhere", "far"}, stopIDs(plan))
	assert.Equal(t, 25.0, plan.Stops[1].TravelDistanceKm)

	// The leg after the centreless stop starts from the last real position.
	farLeg := geo.RoadDistanceKm(*near.Location, *far.Location, 1.25)
	assert.Equal(t, domain.SourceFallback, plan.Stops[2].EstimateSource)
	assert.InDelta(t, farLeg, plan.Stops[2].TravelDistanceKm, 1e-9)
	assert.Greater(t, plan.Stops[2].TravelDistanceKm, 100.0)

	nearLeg := geo.RoadDistanceKm(testHome, *near.Location, 1.25)
	back := geo.RoadDistanceKm(*far.Location, testHome, 1.25)
	assert.InDelta(t, back, plan.ReturnDistanceKm, 1e-9)
	assert.InDelta(t, nearLeg+25+farLeg+back, plan.TotalDistanceKm, 1e-9)
	assert.True(t, plan.Feasible)
}

func TestSequence_CentrelessLastStopReturnsFromLastPosition(t *testing.T) {
	near := station("near", "A", testHome.Lat+0.05, testHome.Lon)
	nowhere := domain.Station{ID: "nowhere", Name: "No centre", Region: "B"}

	seq := &DaySequencer{Provider: newTestProvider(), Home: testHome, Rules: DefaultDayRules()}

	plan := seq.Sequence(context.Background(), 1, []domain.Station{nowhere, near})

	require.Equal(t, []string{"near", "nowhere"}, stopIDs(plan))
	assert.InDelta(t, geo.RoadDistanceKm(*near.Location, testHome, 1.25), plan.ReturnDistanceKm, 1e-9)
}
