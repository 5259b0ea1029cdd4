package domain

import "fmt"

type Severity string

const (
	SeverityCritical Severity = "critical"
	SeverityWarning  Severity = "warning"
)

type Category string

const (
	CategoryDailyDistance    Category = "daily_distance"
	CategoryDailyTime        Category = "daily_time"
	CategoryTotalDistance    Category = "total_distance"
	CategoryStationShortfall Category = "station_shortfall"
	CategoryTooManyStations  Category = "too_many_stations"
)

// Violation is one breached planning threshold.
// Day is the 1-based day number, or 0 for plan-wide findings.
type Violation struct {
	Severity Severity
	Category Category
	Day      int
	Observed float64
	Limit    float64
	Message  string
}

// Critical reports whether the violation forces intervention.
func (v Violation) Critical() bool { return v.Severity == SeverityCritical }

// Weight is the violation's contribution to a severity score. Every weight is
// positive, so adding a violation never lowers the score.
func (v Violation) Weight() int {
	switch v.Category {
	case CategoryDailyDistance:
		if v.Critical() {
			return 30
		}
		return 10
	case CategoryDailyTime:
		if v.Critical() {
			return 25
		}
		return 10
	case CategoryTotalDistance:
		if v.Critical() {
			return 20
		}
		return 10
	case CategoryTooManyStations:
		return 15
	case CategoryStationShortfall:
		if missing := int(v.Limit - v.Observed); missing > 0 {
			return 2 * missing
		}
		return 1
	}
	if v.Critical() {
		return 20
	}
	return 5
}

func (v Violation) String() string {
	if v.Day > 0 {
		return fmt.Sprintf("[%s] day %d %s: %s", v.Severity, v.Day, v.Category, v.Message)
	}
	return fmt.Sprintf("[%s] %s: %s", v.Severity, v.Category, v.Message)
}

// SeverityScore sums the weights of the given violations.
func SeverityScore(violations []Violation) int {
	score := 0
	for _, v := range violations {
		score += v.Weight()
	}
	return score
}

// HasCritical reports whether any violation is critical.
func HasCritical(violations []Violation) bool {
	for _, v := range violations {
		if v.Critical() {
			return true
		}
	}
	return false
}
