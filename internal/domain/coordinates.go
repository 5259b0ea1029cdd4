package domain

import (
	"fmt"
	"math"
)

// Immutable geographic coordinates (latitude, longitude) in WGS84 degrees.
type Coordinates struct {
	Lat float64
	Lon float64
}

// Valid reports whether the coordinates are finite, in range and not the
// zero point used by the catalog for "no location".
func (c Coordinates) Valid() bool {
	if math.IsNaN(c.Lat) || math.IsNaN(c.Lon) || math.IsInf(c.Lat, 0) || math.IsInf(c.Lon, 0) {
		return false
	}
	if c.Lat < -90 || c.Lat > 90 || c.Lon < -180 || c.Lon > 180 {
		return false
	}
	return c.Lat != 0 || c.Lon != 0
}

// Round snaps the coordinates to a grid with the given number of decimals.
func (c Coordinates) Round(decimals int) Coordinates {
	p := math.Pow(10, float64(decimals))
	return Coordinates{
		Lat: math.Round(c.Lat*p) / p,
		Lon: math.Round(c.Lon*p) / p,
	}
}

func (c Coordinates) String() string {
	return fmt.Sprintf("%.6f,%.6f", c.Lat, c.Lon)
}
