package narrative

import (
	"context"
	"fmt"
	"inspection-route-service/internal/domain"
	"inspection-route-service/internal/ports"
	"strings"
)

// TextGenerator renders a plan as plain text for the field team.
type TextGenerator struct {
	// Stop listing is cut after this many stops per day; zero lists all.
	MaxStopsPerDay int
}

var _ ports.NarrativeGenerator = (*TextGenerator)(nil)

func NewTextGenerator() *TextGenerator {
	return &TextGenerator{}
}

func (g *TextGenerator) Narrate(ctx context.Context, in ports.NarrativeInput) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", fmt.Errorf("narrate plan: %w", err)
	}

	var b strings.Builder
	it := in.Itinerary

	fmt.Fprintf(&b, "Inspection plan for %s: %d of %d stations over %d day(s), %.1f km, %s on the road.\n",
		strings.Join(in.Request.Regions, ", "),
		it.ScheduledStations(), in.Request.StationCount, len(it.Days),
		it.TotalDistanceKm, formatMinutes(it.TotalTimeMinutes))

	for _, day := range it.Days {
		g.writeDay(&b, day)
	}

	if len(it.Dropped) > 0 {
		names := make([]string, 0, len(it.Dropped))
		for _, st := range it.Dropped {
			names = append(names, st.Name)
		}
		fmt.Fprintf(&b, "Not scheduled (%d): %s.\n", len(it.Dropped), strings.Join(names, ", "))
	}

	if len(in.Violations) == 0 {
		b.WriteString("All safety checks passed.\n")
	} else {
		b.WriteString("Safety findings:\n")
		for _, v := range in.Violations {
			fmt.Fprintf(&b, "  - %s\n", v)
		}
	}

	if in.Fix != nil {
		fmt.Fprintf(&b, "Recommended fix: %s (confidence %d%%). %s\n", describe(*in.Fix), in.Fix.Confidence, in.Fix.Reason)
		for _, alt := range in.Alternatives {
			if alt.Action == in.Fix.Action {
				continue
			}
			fmt.Fprintf(&b, "  Alternative: %s (confidence %d%%)\n", describe(alt), alt.Confidence)
		}
	}

	return strings.TrimRight(b.String(), "\n"), nil
}

func (g *TextGenerator) writeDay(b *strings.Builder, day domain.DailyPlan) {
	if len(day.Stops) == 0 {
		fmt.Fprintf(b, "Day %d: no stations fit the working day.\n", day.DayNumber)
		return
	}

	fmt.Fprintf(b, "Day %d: depart %s, back %s, %d station(s), %.1f km.\n",
		day.DayNumber, day.StartTime, day.ReturnTime, len(day.Stops), day.TotalDistanceKm)

	for i, s := range day.Stops {
		if g.MaxStopsPerDay > 0 && i == g.MaxStopsPerDay {
			fmt.Fprintf(b, "  ... and %d more\n", len(day.Stops)-i)
			break
		}
		if s.LunchBefore {
			b.WriteString("  lunch break\n")
		}
		fmt.Fprintf(b, "  %d. %s %s (%s) arrive %s\n", s.Sequence, s.Name, s.Frequency, s.RegionLabel(), s.ArriveAt)
	}
}

func describe(s domain.FixStrategy) string {
	switch s.Action {
	case domain.ActionExtendDays:
		return fmt.Sprintf("extend to %d days", s.NewDayCount)
	case domain.ActionReduceStations:
		return fmt.Sprintf("reduce to %d stations", s.TargetStationCount)
	case domain.ActionSingleRegion:
		return fmt.Sprintf("focus on %s only", s.ChosenRegion)
	}
	return string(s.Action)
}

func formatMinutes(m float64) string {
	total := int(m + 0.5)
	return fmt.Sprintf("%dh%02dm", total/60, total%60)
}
