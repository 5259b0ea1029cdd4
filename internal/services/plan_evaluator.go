package services

import (
	"inspection-route-service/internal/domain"
	"inspection-route-service/internal/geo"
	"math"
)

// Travel patterns.
const (
	PatternConsistent = "consistent"
	PatternClustered  = "clustered"
	PatternScattered  = "scattered"
	PatternLongJumps  = "mixed_with_long_jumps"
	PatternUnknown    = "unknown"
)

const (
	longJumpKm          = 50.0
	longDayDistanceKm   = 250.0
	backtrackingRatio   = 0.4
	fatigueDistanceKm   = 300.0
	fatigueMinutes      = 480.0
	fatigueStations     = 15.0
	demandingDailyKm    = 350.0
	demandingTwoDayKm   = 500.0
	extensionTwoDayKm   = 800.0
	extensionDayKm      = 500.0
	extensionDayMinutes = 600.0
)

// FatigueAnalysis summarizes how demanding a plan is for the inspector.
type FatigueAnalysis struct {
	Level           string
	Factors         []string
	TooDemanding    bool
	AvgDailyKm      float64
	AvgDailyMinutes float64
	AvgStations     float64
}

// Evaluation is an informational 0-100 quality score; it never gates a plan.
type Evaluation struct {
	Score             float64
	Rating            string
	Efficiency        float64
	Consistency       float64
	Pattern           string
	PatternScore      float64
	Backtracking      bool
	BacktrackCount    int
	InefficientJumps  int
	Fatigue           FatigueAnalysis
	NeedsDayExtension bool
	RecommendedAction string
}

// PlanEvaluator scores finished plans. Home is the start of every day.
type PlanEvaluator struct {
	Home domain.Coordinates
	// Position used for stations without coordinates; nil skips them.
	Locate func(domain.Station) (domain.Coordinates, bool)
}

func (e *PlanEvaluator) Evaluate(plans []domain.DailyPlan) Evaluation {
	ev := Evaluation{Pattern: PatternUnknown}

	var actual, optimal float64
	var jumps []float64
	positions := 0

	for _, p := range plans {
		pts := e.points(p)
		if len(pts) == 0 {
			continue
		}

		route := append([]domain.Coordinates{e.Home}, pts...)
		actual += pathKm(route) + geo.DistanceKm(pts[len(pts)-1], e.Home)
		optimal += nearestNeighbourKm(e.Home, pts)

		for i := 1; i < len(route); i++ {
			jumps = append(jumps, geo.DistanceKm(route[i-1], route[i]))
		}

		ev.BacktrackCount += backtracks(route)
		positions += len(route)
	}

	ev.Efficiency = 100
	if actual > 0 {
		ev.Efficiency = math.Min(100, optimal/actual*100)
	}

	ev.Consistency = consistency(jumps)
	ev.Pattern = pattern(jumps)
	ev.PatternScore = patternScore(ev.Pattern)
	ev.Backtracking = positions > 0 && float64(ev.BacktrackCount) > backtrackingRatio*float64(positions)
	for _, j := range jumps {
		if j > longJumpKm {
			ev.InefficientJumps++
		}
	}

	ev.Fatigue = fatigue(plans)
	ev.NeedsDayExtension = needsExtension(plans)

	fatigueScore := map[string]float64{"low": 95, "moderate": 75, "high": 30}[ev.Fatigue.Level]
	if fatigueScore == 0 {
		fatigueScore = 60
	}
	if ev.Fatigue.TooDemanding {
		fatigueScore /= 2
	}
	backtrackScore := 90.0
	if ev.Backtracking {
		backtrackScore = 30
	}

	score := ev.Efficiency*0.3 + ev.Consistency*0.2 + ev.PatternScore*0.15 + fatigueScore*0.25 + backtrackScore*0.1
	ev.Score = math.Round(math.Max(0, math.Min(100, score))*10) / 10
	ev.Rating = rating(ev.Score)
	ev.RecommendedAction = recommendedAction(ev.Score)

	return ev
}

func (e *PlanEvaluator) points(p domain.DailyPlan) []domain.Coordinates {
	out := make([]domain.Coordinates, 0, len(p.Stops))
	for _, s := range p.Stops {
		if s.Locatable() {
			out = append(out, *s.Location)
			continue
		}
		if e.Locate != nil {
			if c, ok := e.Locate(s.Station); ok {
				out = append(out, c)
			}
		}
	}
	return out
}

func pathKm(route []domain.Coordinates) float64 {
	var km float64
	for i := 1; i < len(route); i++ {
		km += geo.DistanceKm(route[i-1], route[i])
	}
	return km
}

// nearestNeighbourKm is the closed-tour length of a fresh greedy ordering.
func nearestNeighbourKm(home domain.Coordinates, pts []domain.Coordinates) float64 {
	visited := make([]bool, len(pts))
	cur := home
	var km float64
	for range pts {
		best := -1
		bestKm := math.Inf(1)
		for i, p := range pts {
			if visited[i] {
				continue
			}
			if d := geo.DistanceKm(cur, p); d < bestKm {
				best, bestKm = i, d
			}
		}
		visited[best] = true
		km += bestKm
		cur = pts[best]
	}
	return km + geo.DistanceKm(cur, home)
}

// backtracks counts turns sharper than 90 degrees along the route.
func backtracks(route []domain.Coordinates) int {
	n := 0
	for i := 2; i < len(route); i++ {
		ax, ay := route[i-1].Lon-route[i-2].Lon, route[i-1].Lat-route[i-2].Lat
		bx, by := route[i].Lon-route[i-1].Lon, route[i].Lat-route[i-1].Lat
		if ax*bx+ay*by < 0 {
			n++
		}
	}
	return n
}

func consistency(jumps []float64) float64 {
	if len(jumps) < 2 {
		return 100
	}
	avg := mean(jumps)
	if avg == 0 {
		return 100
	}
	var v float64
	for _, j := range jumps {
		v += (j - avg) * (j - avg)
	}
	std := math.Sqrt(v / float64(len(jumps)))
	return math.Max(0, 100-std/avg*100)
}

func pattern(jumps []float64) string {
	if len(jumps) < 2 {
		return PatternUnknown
	}
	lo, hi := jumps[0], jumps[0]
	for _, j := range jumps[1:] {
		lo = math.Min(lo, j)
		hi = math.Max(hi, j)
	}
	switch {
	case hi-lo < 10:
		return PatternConsistent
	case hi > 2*mean(jumps):
		return PatternLongJumps
	case hi < 20:
		return PatternClustered
	default:
		return PatternScattered
	}
}

func patternScore(p string) float64 {
	switch p {
	case PatternConsistent:
		return 90
	case PatternClustered:
		return 85
	case PatternScattered:
		return 60
	case PatternLongJumps:
		return 40
	}
	return 50
}

func fatigue(plans []domain.DailyPlan) FatigueAnalysis {
	f := FatigueAnalysis{Level: "unknown", Factors: []string{}}
	if len(plans) == 0 {
		return f
	}

	var km, minutes, stations float64
	consecutive, longest := 0, 0
	for _, p := range plans {
		km += p.TotalDistanceKm
		minutes += p.TotalTimeMinutes
		stations += float64(p.StationCount())
		if p.TotalDistanceKm > longDayDistanceKm {
			consecutive++
			longest = max(longest, consecutive)
		} else {
			consecutive = 0
		}
	}
	n := float64(len(plans))
	f.AvgDailyKm = km / n
	f.AvgDailyMinutes = minutes / n
	f.AvgStations = stations / n

	if f.AvgDailyKm > fatigueDistanceKm {
		f.Factors = append(f.Factors, "high average daily distance")
	}
	if f.AvgDailyMinutes > fatigueMinutes {
		f.Factors = append(f.Factors, "long working days")
	}
	if f.AvgStations > fatigueStations {
		f.Factors = append(f.Factors, "too many stations per day")
	}
	if longest > 1 {
		f.Factors = append(f.Factors, "consecutive long driving days")
	}

	switch {
	case len(f.Factors) == 0:
		f.Level = "low"
	case len(f.Factors) <= 2:
		f.Level = "moderate"
	default:
		f.Level = "high"
	}

	f.TooDemanding = f.Level == "high" || f.AvgDailyKm > demandingDailyKm ||
		(len(plans) == 2 && km > demandingTwoDayKm)

	return f
}

func needsExtension(plans []domain.DailyPlan) bool {
	var total float64
	for _, p := range plans {
		total += p.TotalDistanceKm
		if p.TotalDistanceKm > extensionDayKm || p.TotalTimeMinutes > extensionDayMinutes {
			return true
		}
	}
	return len(plans) == 2 && total > extensionTwoDayKm
}

func rating(score float64) string {
	switch {
	case score >= 90:
		return "Excellent"
	case score >= 80:
		return "Good"
	case score >= 70:
		return "Fair"
	case score >= 60:
		return "Poor"
	}
	return "Very Poor"
}

func recommendedAction(score float64) string {
	switch {
	case score >= 85:
		return "accept"
	case score >= 75:
		return "accept_with_minor_changes"
	case score >= 60:
		return "optimize"
	}
	return "rework"
}

func mean(xs []float64) float64 {
	var s float64
	for _, x := range xs {
		s += x
	}
	return s / float64(len(xs))
}
