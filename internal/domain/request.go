package domain

import (
	"errors"
	"fmt"
	"slices"
	"strings"
)

var ErrInvalidRequest = errors.New("invalid plan request")

// PlanRequest is the structured request produced by the request parser.
type PlanRequest struct {
	Regions      []string
	StationCount int
	DayCount     int
}

// Validate checks the request against the planner's hard limits.
func (r PlanRequest) Validate(maxDays int) error {
	var problems []string

	if len(r.normalizedRegions()) == 0 {
		problems = append(problems, "at least one region is required")
	}
	if r.StationCount < 1 {
		problems = append(problems, fmt.Sprintf("station_count must be positive, got %d", r.StationCount))
	}
	if r.DayCount < 1 {
		problems = append(problems, fmt.Sprintf("day_count must be positive, got %d", r.DayCount))
	} else if maxDays > 0 && r.DayCount > maxDays {
		problems = append(problems, fmt.Sprintf("day_count must be at most %d, got %d", maxDays, r.DayCount))
	}

	if len(problems) > 0 {
		return fmt.Errorf("%w: %s", ErrInvalidRequest, strings.Join(problems, "; "))
	}
	return nil
}

// Normalized returns a copy with trimmed, de-duplicated regions in request order.
func (r PlanRequest) Normalized() PlanRequest {
	out := r
	out.Regions = r.normalizedRegions()
	return out
}

func (r PlanRequest) normalizedRegions() []string {
	out := make([]string, 0, len(r.Regions))
	for _, region := range r.Regions {
		region = strings.TrimSpace(region)
		if region == "" || slices.Contains(out, region) {
			continue
		}
		out = append(out, region)
	}
	return out
}
