package domain

// UnknownRegion labels stations whose catalog entry has no district.
const UnknownRegion = "Unknown"

// StatusFlags mirrors the catalog's licensing and inspection state.
type StatusFlags struct {
	OnAir            bool
	Inspected        bool
	RequestSubmitted bool
}

// Station is a radio station as read from the catalog.
// Location is nil when the catalog has no usable coordinates; such a station
// is "unlocatable" and is planned with a region-level estimate.
// Stations are shared values and are never mutated by planning code.
type Station struct {
	ID        string
	Name      string
	Location  *Coordinates
	Region    string
	Province  string
	Frequency string
	Status    StatusFlags
}

// Locatable reports whether the station has valid coordinates.
func (s Station) Locatable() bool {
	return s.Location != nil && s.Location.Valid()
}

// RegionLabel returns the cluster label, substituting UnknownRegion for blanks.
func (s Station) RegionLabel() string {
	if s.Region == "" {
		return UnknownRegion
	}
	return s.Region
}

// Candidate is a station annotated with its distance from the home base.
// It is a copy; the catalog entry stays untouched.
type Candidate struct {
	Station
	DistanceFromHomeKm float64
}
