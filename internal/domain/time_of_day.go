package domain

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// TimeOfDay is a wall-clock time expressed in minutes after midnight.
type TimeOfDay float64

// ParseTimeOfDay parses "HH:MM".
func ParseTimeOfDay(s string) (TimeOfDay, error) {
	h, m, ok := strings.Cut(strings.TrimSpace(s), ":")
	if !ok {
		return 0, fmt.Errorf("parse time of day %q: expected HH:MM", s)
	}

	hours, err := strconv.Atoi(h)
	if err != nil || hours < 0 || hours > 23 {
		return 0, fmt.Errorf("parse time of day %q: invalid hour", s)
	}

	minutes, err := strconv.Atoi(m)
	if err != nil || minutes < 0 || minutes > 59 {
		return 0, fmt.Errorf("parse time of day %q: invalid minute", s)
	}

	return TimeOfDay(hours*60 + minutes), nil
}

// MustParseTimeOfDay is ParseTimeOfDay for constants known to be valid.
func MustParseTimeOfDay(s string) TimeOfDay {
	t, err := ParseTimeOfDay(s)
	if err != nil {
		panic(err)
	}
	return t
}

// Add returns the time advanced by the given minutes.
func (t TimeOfDay) Add(minutes float64) TimeOfDay {
	return t + TimeOfDay(minutes)
}

// Minutes returns the raw minute count.
func (t TimeOfDay) Minutes() float64 { return float64(t) }

// String formats as HH:MM, rounding to the nearest minute. Times past
// midnight keep counting hours (e.g. 25:10).
func (t TimeOfDay) String() string {
	total := int(math.Round(float64(t)))
	if total < 0 {
		total = 0
	}
	return fmt.Sprintf("%02d:%02d", total/60, total%60)
}
