// Package geo holds the great-circle math used when no routing source answers.
package geo

import (
	"inspection-route-service/internal/domain"
	"math"
)

const earthRadiusKm = 6371.0

// kmPerDegree approximates one degree of latitude (and of longitude near the
// equator) for bounding-box areas.
const kmPerDegree = 111.0

// DistanceKm returns the haversine distance between a and b.
func DistanceKm(a, b domain.Coordinates) float64 {
	if a == b {
		return 0
	}

	lat1 := a.Lat * math.Pi / 180
	lat2 := b.Lat * math.Pi / 180
	dLat := (b.Lat - a.Lat) * math.Pi / 180
	dLon := (b.Lon - a.Lon) * math.Pi / 180

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLon/2)*math.Sin(dLon/2)

	return earthRadiusKm * 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))
}

// RoadDistanceKm inflates the straight-line distance to approximate the road network.
func RoadDistanceKm(a, b domain.Coordinates, factor float64) float64 {
	if factor <= 0 {
		factor = 1
	}
	return DistanceKm(a, b) * factor
}

// EstimateDurationMinutes converts a distance to minutes at a constant speed.
func EstimateDurationMinutes(distanceKm, speedKmh float64) float64 {
	if speedKmh <= 0 {
		return 0
	}
	return distanceKm / speedKmh * 60
}

// BoundingBoxAreaKm2 returns the area of the points' lat/lon box, never less than 1 km².
func BoundingBoxAreaKm2(points []domain.Coordinates) float64 {
	if len(points) == 0 {
		return 1
	}

	minLat, maxLat := points[0].Lat, points[0].Lat
	minLon, maxLon := points[0].Lon, points[0].Lon
	for _, p := range points[1:] {
		minLat = math.Min(minLat, p.Lat)
		maxLat = math.Max(maxLat, p.Lat)
		minLon = math.Min(minLon, p.Lon)
		maxLon = math.Max(maxLon, p.Lon)
	}

	area := (maxLat - minLat) * kmPerDegree * (maxLon - minLon) * kmPerDegree
	return math.Max(area, 1)
}

// MeanPairwiseKm returns the mean haversine distance over all unordered pairs.
func MeanPairwiseKm(points []domain.Coordinates) float64 {
	var total float64
	pairs := 0
	for i := 0; i < len(points); i++ {
		for j := i + 1; j < len(points); j++ {
			total += DistanceKm(points[i], points[j])
			pairs++
		}
	}
	if pairs == 0 {
		return 0
	}
	return total / float64(pairs)
}

// Centroid returns the arithmetic mean of the points.
func Centroid(points []domain.Coordinates) (domain.Coordinates, bool) {
	if len(points) == 0 {
		return domain.Coordinates{}, false
	}

	var lat, lon float64
	for _, p := range points {
		lat += p.Lat
		lon += p.Lon
	}
	n := float64(len(points))
	return domain.Coordinates{Lat: lat / n, Lon: lon / n}, true
}
