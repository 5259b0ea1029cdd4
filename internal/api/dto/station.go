package dto

type StationResponse struct {
	StationID          string   `json:"station_id"`
	Name               string   `json:"name"`
	Frequency          string   `json:"frequency"`
	District           string   `json:"district"`
	Province           string   `json:"province"`
	Lat                *float64 `json:"lat"`
	Lon                *float64 `json:"lon"`
	DistanceFromHomeKm *float64 `json:"distance_from_home_km,omitempty"`
}

type ListStationsResponse struct {
	Region   string            `json:"region"`
	Stations []StationResponse `json:"stations"`
}
