package narrative

import (
	"context"
	"inspection-route-service/internal/domain"
	"inspection-route-service/internal/ports"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func stop(seq int, name, region string, arrive string, lunch bool) domain.PlannedStop {
	return domain.PlannedStop{
		Station:     domain.Station{ID: name, Name: name, Frequency: "90.5", Region: region},
		Sequence:    seq,
		ArriveAt:    domain.MustParseTimeOfDay(arrive),
		LunchBefore: lunch,
	}
}

func sampleInput() ports.NarrativeInput {
	day := domain.DailyPlan{
		DayNumber:       1,
		StartTime:       domain.MustParseTimeOfDay("08:00"),
		ReturnTime:      domain.MustParseTimeOfDay("15:20"),
		TotalDistanceKm: 170,
		Stops: []domain.PlannedStop{
			stop(1, "Alpha", "เมือง", "09:00", false),
			stop(2, "Bravo", "", "13:10", true),
		},
	}
	return ports.NarrativeInput{
		Request: domain.PlanRequest{Regions: []string{"ชัยภูมิ"}, StationCount: 3, DayCount: 2},
		Itinerary: domain.Itinerary{
			Days:             []domain.DailyPlan{day, {DayNumber: 2}},
			TotalDistanceKm:  170,
			TotalTimeMinutes: 440,
			Dropped:          []domain.Station{{ID: "far", Name: "Faraway"}},
		},
	}
}

func TestNarrate_CleanPlan(t *testing.T) {
	text, err := NewTextGenerator().Narrate(context.Background(), sampleInput())
	require.NoError(t, err)

	lines := strings.Split(text, "\n")
	assert.Equal(t, "Inspection plan for ชัยภูมิ: 2 of 3 stations over 2 day(s), 170.0 km, 7h20m on the road.", lines[0])
	assert.Equal(t, "Day 1: depart 08:00, back 15:20, 2 station(s), 170.0 km.", lines[1])
	assert.Equal(t, "  1. Alpha 90.5 (เมือง) arrive 09:00", lines[2])
	assert.Equal(t, "  lunch break", lines[3])
	assert.Equal(t, "  2. Bravo 90.5 (Unknown) arrive 13:10", lines[4])
	assert.Equal(t, "Day 2: no stations fit the working day.", lines[5])
	assert.Equal(t, "Not scheduled (1): Faraway.", lines[6])
	assert.Equal(t, "All safety checks passed.", lines[7])
	assert.Len(t, lines, 8)
}

func TestNarrate_FindingsAndFix(t *testing.T) {
	in := sampleInput()
	in.Violations = []domain.Violation{{Severity: domain.SeverityCritical, Category: domain.CategoryDailyDistance, Day: 1, Message: "too far"}}
	in.Fix = &domain.FixStrategy{Action: domain.ActionExtendDays, NewDayCount: 3, Confidence: 90, Reason: "too far to drive"}
	in.Alternatives = []domain.FixStrategy{
		{Action: domain.ActionExtendDays, NewDayCount: 3, Confidence: 85},
		{Action: domain.ActionSingleRegion, ChosenRegion: "ชัยภูมิ", Confidence: 75},
	}

	text, err := NewTextGenerator().Narrate(context.Background(), in)
	require.NoError(t, err)

	assert.Contains(t, text, "Safety findings:\n  - [critical] day 1 daily_distance: too far")
	assert.Contains(t, text, "Recommended fix: extend to 3 days (confidence 90%). too far to drive")
	assert.Contains(t, text, "  Alternative: focus on ชัยภูมิ only (confidence 75%)")
	assert.Equal(t, 1, strings.Count(text, "Alternative:"))
	assert.NotContains(t, text, "All safety checks passed.")
}

func TestNarrate_TruncatesLongDays(t *testing.T) {
	in := sampleInput()
	gen := &TextGenerator{MaxStopsPerDay: 1}

	text, err := gen.Narrate(context.Background(), in)
	require.NoError(t, err)

	assert.Contains(t, text, "  ... and 1 more")
	assert.NotContains(t, text, "Bravo")
}

func TestNarrate_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewTextGenerator().Narrate(ctx, sampleInput())
	require.ErrorIs(t, err, context.Canceled)
}
