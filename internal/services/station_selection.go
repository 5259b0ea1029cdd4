package services

import (
	"cmp"
	"inspection-route-service/internal/domain"
	"inspection-route-service/internal/geo"
	"slices"
)

// EnrichWithDistance annotates copies of the stations with their straight-line
// distance from ref and sorts them nearest first. Stations with no known
// position keep input order at the end.
func EnrichWithDistance(
	stations []domain.Station,
	ref domain.Coordinates,
	locate func(domain.Station) (domain.Coordinates, bool),
) []domain.Candidate {
	type keyed struct {
		c     domain.Candidate
		known bool
	}

	rows := make([]keyed, 0, len(stations))
	for _, st := range stations {
		row := keyed{c: domain.Candidate{Station: st}}
		if pos, ok := locate(st); ok {
			row.c.DistanceFromHomeKm = geo.DistanceKm(ref, pos)
			row.known = true
		}
		rows = append(rows, row)
	}

	slices.SortStableFunc(rows, func(a, b keyed) int {
		if a.known != b.known {
			if a.known {
				return -1
			}
			return 1
		}
		if !a.known {
			return 0
		}
		return cmp.Compare(a.c.DistanceFromHomeKm, b.c.DistanceFromHomeKm)
	})

	out := make([]domain.Candidate, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.c)
	}
	return out
}

// GroupByWorth reorders stations so each district forms one contiguous run,
// districts ordered best first by the analysis. Order inside a district is kept.
func GroupByWorth(stations []domain.Station, worth []DistrictWorth) []domain.Station {
	rank := make(map[string]int, len(worth))
	for i, w := range worth {
		rank[w.Region] = i
	}

	out := slices.Clone(stations)
	slices.SortStableFunc(out, func(a, b domain.Station) int {
		ra, oka := rank[a.RegionLabel()]
		rb, okb := rank[b.RegionLabel()]
		if !oka {
			ra = len(worth)
		}
		if !okb {
			rb = len(worth)
		}
		return cmp.Compare(ra, rb)
	})
	return out
}

// dedupeStations drops repeated station ids, keeping the first occurrence.
func dedupeStations(stations []domain.Station) []domain.Station {
	seen := make(map[string]struct{}, len(stations))
	out := make([]domain.Station, 0, len(stations))
	for _, st := range stations {
		if _, ok := seen[st.ID]; ok {
			continue
		}
		seen[st.ID] = struct{}{}
		out = append(out, st)
	}
	return out
}
