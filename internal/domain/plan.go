package domain

// Estimate source tags.
const (
	SourceRouting        = "osrm"
	SourceFallback       = "fallback"
	SourceSameCluster    = "same_cluster"
	SourceRegionEstimate = "region_estimate"
)

// TravelEstimate is an immutable distance/duration figure between two points.
type TravelEstimate struct {
	DistanceKm      float64
	DurationMinutes float64
	Source          string
}

// Authoritative reports whether the estimate came from the routing source.
func (e TravelEstimate) Authoritative() bool {
	return e.Source == SourceRouting
}

// PlannedStop is a station placed in a day's route, plus the leg that reached it.
type PlannedStop struct {
	Station
	Sequence         int
	TravelDistanceKm float64
	TravelMinutes    float64
	EstimateSource   string
	ArriveAt         TimeOfDay
	DepartAt         TimeOfDay
	LunchBefore      bool
}

// DailyPlan is the route for one day. It is read-only once returned.
type DailyPlan struct {
	DayNumber         int
	Stops             []PlannedStop
	TotalDistanceKm   float64
	TotalTimeMinutes  float64
	ReturnDistanceKm  float64
	ReturnMinutes     float64
	StartTime         TimeOfDay
	ReturnTime        TimeOfDay
	LunchBreakApplied bool
	Feasible          bool
	Candidates        int
}

// StationCount returns the number of routed stations.
func (p DailyPlan) StationCount() int { return len(p.Stops) }

// Itinerary aggregates the daily plans of one allocation.
// Selected is the number of stations handed to the allocator; Dropped lists
// the selected stations no day could fit.
type Itinerary struct {
	Days             []DailyPlan
	Selected         int
	TotalDistanceKm  float64
	TotalTimeMinutes float64
	Dropped          []Station
}

// ScheduledStations returns the number of stations routed across all days.
func (it Itinerary) ScheduledStations() int {
	n := 0
	for _, d := range it.Days {
		n += len(d.Stops)
	}
	return n
}

// Shortfall returns how many of the requested stations were not scheduled.
func (it Itinerary) Shortfall(requested int) int {
	if s := requested - it.ScheduledStations(); s > 0 {
		return s
	}
	return 0
}
