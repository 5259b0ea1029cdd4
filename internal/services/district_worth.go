package services

import (
	"cmp"
	"fmt"
	"inspection-route-service/internal/domain"
	"inspection-route-service/internal/geo"
	"slices"
)

// DistrictWorth scores one cluster of stations.
type DistrictWorth struct {
	Region           string
	StationCount     int
	Score            int
	CountScore       int
	DensityScore     int
	CompactnessScore int
	ShouldVisit      bool
	Reason           string
	Centroid         *domain.Coordinates
}

// DistrictWorthAnalyzer decides whether a cluster justifies a dedicated pass.
type DistrictWorthAnalyzer struct {
	MinStations int
	MinScore    int
}

func NewDistrictWorthAnalyzer() *DistrictWorthAnalyzer {
	return &DistrictWorthAnalyzer{MinStations: 2, MinScore: 40}
}

// Analyze scores count (0-40), density (0-30) and compactness (0-30).
func (a *DistrictWorthAnalyzer) Analyze(region string, stations []domain.Station) DistrictWorth {
	w := DistrictWorth{Region: region, StationCount: len(stations)}

	w.CountScore = min(40, 4*len(stations))

	points := make([]domain.Coordinates, 0, len(stations))
	for _, st := range stations {
		if st.Locatable() {
			points = append(points, *st.Location)
		}
	}

	if len(points) < 2 {
		w.DensityScore = 15
		w.CompactnessScore = 15
	} else {
		w.DensityScore = densityScore(float64(len(points)) / geo.BoundingBoxAreaKm2(points))
		w.CompactnessScore = compactnessScore(geo.MeanPairwiseKm(points))
	}

	if c, ok := geo.Centroid(points); ok {
		w.Centroid = &c
	}

	w.Score = w.CountScore + w.DensityScore + w.CompactnessScore

	switch {
	case w.StationCount < a.MinStations:
		w.Reason = fmt.Sprintf("too few stations (%d)", w.StationCount)
	case w.Score < a.MinScore:
		w.Reason = fmt.Sprintf("low worth score (%d)", w.Score)
	default:
		w.ShouldVisit = true
		w.Reason = fmt.Sprintf("good target: %d stations, score %d", w.StationCount, w.Score)
	}

	return w
}

// AnalyzeAll groups stations by region label and returns the clusters
// ordered by score, best first.
func (a *DistrictWorthAnalyzer) AnalyzeAll(stations []domain.Station) []DistrictWorth {
	order := []string{}
	groups := map[string][]domain.Station{}
	for _, st := range stations {
		label := st.RegionLabel()
		if _, ok := groups[label]; !ok {
			order = append(order, label)
		}
		groups[label] = append(groups[label], st)
	}

	out := make([]DistrictWorth, 0, len(order))
	for _, label := range order {
		out = append(out, a.Analyze(label, groups[label]))
	}

	slices.SortStableFunc(out, func(x, y DistrictWorth) int {
		if c := cmp.Compare(y.Score, x.Score); c != 0 {
			return c
		}
		return cmp.Compare(x.Region, y.Region)
	})

	return out
}

func densityScore(perKm2 float64) int {
	switch {
	case perKm2 > 10:
		return 30
	case perKm2 > 5:
		return 25
	case perKm2 > 1:
		return 20
	case perKm2 > 0.5:
		return 15
	default:
		return 10
	}
}

func compactnessScore(meanKm float64) int {
	switch {
	case meanKm < 5:
		return 30
	case meanKm < 10:
		return 25
	case meanKm < 20:
		return 20
	case meanKm < 30:
		return 15
	case meanKm < 50:
		return 10
	default:
		return 5
	}
}
