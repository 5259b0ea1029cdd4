package services

import (
	"context"
	"inspection-route-service/internal/domain"
	"inspection-route-service/internal/platform/obs"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dayWith(n int, km, minutes float64, stations int) domain.DailyPlan {
	p := domain.DailyPlan{DayNumber: n, TotalDistanceKm: km, TotalTimeMinutes: minutes, Feasible: true}
	for i := 0; i < stations; i++ {
		p.Stops = append(p.Stops, domain.PlannedStop{Sequence: i + 1})
	}
	return p
}

func countBy(vs []domain.Violation, sev domain.Severity, cat domain.Category) int {
	n := 0
	for _, v := range vs {
		if v.Severity == sev && v.Category == cat {
			n++
		}
	}
	return n
}

func TestCheck_LongTwoDayTrip(t *testing.T) {
	monitor := &PlanMonitor{Thresholds: DefaultMonitorThresholds()}
	plans := []domain.DailyPlan{dayWith(1, 400, 470, 10), dayWith(2, 400, 470, 10)}

	res := monitor.Check(context.Background(), plans, 20, 2)

	assert.Equal(t, 2, countBy(res.Violations, domain.SeverityCritical, domain.CategoryDailyDistance))
	assert.Equal(t, 2, countBy(res.Violations, domain.SeverityWarning, domain.CategoryDailyDistance))
	assert.Equal(t, 1, countBy(res.Violations, domain.SeverityCritical, domain.CategoryTotalDistance))
	assert.Zero(t, countBy(res.Violations, domain.SeverityCritical, domain.CategoryDailyTime))
	assert.True(t, res.InterventionNeeded)
	assert.Equal(t, 3, res.CriticalCount())
	assert.Equal(t, 30+30+10+10+20, res.SeverityScore)
	assert.Equal(t, "3 critical safety violation(s), 2 optimization opportunity(ies)", res.Summary)
	assert.NotEmpty(t, res.Recommendations)

	fixer := &AutoFixPlanner{Policy: DefaultFixPolicy()}
	fix := fixer.ProposeFix(res, domain.PlanRequest{Regions: []string{"ชัยภูมิ"}, StationCount: 20, DayCount: 2})
	assert.Equal(t, domain.ActionExtendDays, fix.Action)
	assert.Equal(t, 3, fix.NewDayCount)
	assert.Equal(t, 90, fix.Confidence)
}

func TestCheck_CleanPlan(t *testing.T) {
	monitor := &PlanMonitor{Thresholds: DefaultMonitorThresholds()}

	res := monitor.Check(context.Background(), []domain.DailyPlan{dayWith(1, 120, 300, 8)}, 8, 1)

	assert.Empty(t, res.Violations)
	assert.Zero(t, res.SeverityScore)
	assert.False(t, res.InterventionNeeded)
	assert.Equal(t, "all safety checks passed", res.Summary)
}

func TestCheck_ShortfallWeightedBySize(t *testing.T) {
	monitor := &PlanMonitor{Thresholds: DefaultMonitorThresholds()}

	small := monitor.Check(context.Background(), []domain.DailyPlan{dayWith(1, 100, 300, 9)}, 10, 1)
	large := monitor.Check(context.Background(), []domain.DailyPlan{dayWith(1, 100, 300, 4)}, 10, 1)

	require.Len(t, small.Violations, 1)
	require.Len(t, large.Violations, 1)
	assert.Equal(t, domain.CategoryStationShortfall, large.Violations[0].Category)
	assert.False(t, large.InterventionNeeded)
	assert.Equal(t, 2, small.SeverityScore)
	assert.Equal(t, 12, large.SeverityScore)
}

func TestCheck_TooManyStationsAndLongDay(t *testing.T) {
	monitor := &PlanMonitor{Thresholds: DefaultMonitorThresholds()}

	res := monitor.Check(context.Background(), []domain.DailyPlan{dayWith(1, 200, 500, 16)}, 16, 1)

	assert.Equal(t, 1, countBy(res.Violations, domain.SeverityCritical, domain.CategoryDailyTime))
	assert.Equal(t, 1, countBy(res.Violations, domain.SeverityWarning, domain.CategoryTooManyStations))
	assert.True(t, res.InterventionNeeded)
}

func TestCheck_TotalDistanceOnlyForShortTrips(t *testing.T) {
	monitor := &PlanMonitor{Thresholds: DefaultMonitorThresholds()}
	plans := []domain.DailyPlan{dayWith(1, 200, 400, 6), dayWith(2, 200, 400, 6), dayWith(3, 200, 400, 6)}

	res := monitor.Check(context.Background(), plans, 18, 3)

	assert.Zero(t, countBy(res.Violations, domain.SeverityCritical, domain.CategoryTotalDistance))
	assert.False(t, res.InterventionNeeded)
}

func TestCheck_ConfiguredThresholds(t *testing.T) {
	th := DefaultMonitorThresholds()
	th.MaxDailyDistanceKm = 150
	monitor := &PlanMonitor{Thresholds: th}

	res := monitor.Check(context.Background(), []domain.DailyPlan{dayWith(1, 160, 300, 5)}, 5, 1)

	assert.Equal(t, 1, countBy(res.Violations, domain.SeverityCritical, domain.CategoryDailyDistance))
}

func TestSeverity_Monotonic(t *testing.T) {
	base := []MonitorResult{
		{},
		{Violations: []domain.Violation{{Severity: domain.SeverityWarning, Category: domain.CategoryStationShortfall, Observed: 3, Limit: 5}}},
		{Violations: []domain.Violation{{Severity: domain.SeverityCritical, Category: domain.CategoryDailyTime, Day: 1}}},
	}
	critical := []domain.Violation{
		{Severity: domain.SeverityCritical, Category: domain.CategoryDailyDistance, Day: 2},
		{Severity: domain.SeverityCritical, Category: domain.CategoryTotalDistance},
		{Severity: domain.SeverityCritical, Category: domain.CategoryDailyTime, Day: 3},
	}

	for _, b := range base {
		for _, v := range critical {
			res := MonitorResult{}
			for _, existing := range b.Violations {
				res.Add(existing)
			}
			before := res.SeverityScore

			res.Add(v)

			assert.Greater(t, res.SeverityScore, before)
			assert.True(t, res.InterventionNeeded)
		}
	}
}

func TestCheck_RecordsViolationMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	monitor := &PlanMonitor{Thresholds: DefaultMonitorThresholds(), Metrics: obs.NewMetrics(reg)}

	monitor.Check(context.Background(), []domain.DailyPlan{dayWith(1, 400, 470, 10)}, 10, 1)

	families, err := reg.Gather()
	require.NoError(t, err)

	series := 0
	for _, f := range families {
		if f.GetName() == "inspection_planner_violations_total" {
			series = len(f.GetMetric())
		}
	}
	assert.Equal(t, 2, series)
}
