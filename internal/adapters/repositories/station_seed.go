package repositories

import (
	"encoding/json"
	"fmt"
	"inspection-route-service/internal/domain"
	"os"
	"strconv"
	"strings"
)

// InspectedStatus marks a catalog row whose inspection is already done.
const InspectedStatus = "ตรวจแล้ว"

// StationSeed is one catalog row as found in seed files. Source exports use
// several names for the same field; UnmarshalJSON folds them into one.
type StationSeed struct {
	ID               string
	Name             string
	Frequency        string
	Province         string
	District         string
	Latitude         *float64
	Longitude        *float64
	OnAir            bool
	InspectionStatus string
	RequestSubmitted bool
}

var seedAliases = map[string][]string{
	"id":         {"id", "station_id", "stationId"},
	"name":       {"name", "station_name"},
	"frequency":  {"frequency", "freq"},
	"province":   {"province"},
	"district":   {"district", "amphoe"},
	"lat":        {"lat", "latitude"},
	"lon":        {"lon", "lng", "long", "longitude"},
	"on_air":     {"on_air", "onAir"},
	"inspection": {"inspection_status", "inspection_68"},
	"submitted":  {"request_submitted", "submit_a_request"},
}

func (s *StationSeed) UnmarshalJSON(b []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}

	pick := func(field string) (json.RawMessage, bool) {
		for _, k := range seedAliases[field] {
			if v, ok := raw[k]; ok && string(v) != "null" {
				return v, true
			}
		}
		return nil, false
	}

	var err error
	if s.ID, err = seedString(pick("id")); err != nil {
		return fmt.Errorf("id: %w", err)
	}
	if s.Name, err = seedString(pick("name")); err != nil {
		return fmt.Errorf("name: %w", err)
	}
	if s.Frequency, err = seedString(pick("frequency")); err != nil {
		return fmt.Errorf("frequency: %w", err)
	}
	if s.Province, err = seedString(pick("province")); err != nil {
		return fmt.Errorf("province: %w", err)
	}
	if s.District, err = seedString(pick("district")); err != nil {
		return fmt.Errorf("district: %w", err)
	}
	if s.Latitude, err = seedFloat(pick("lat")); err != nil {
		return fmt.Errorf("latitude: %w", err)
	}
	if s.Longitude, err = seedFloat(pick("lon")); err != nil {
		return fmt.Errorf("longitude: %w", err)
	}
	if s.InspectionStatus, err = seedString(pick("inspection")); err != nil {
		return fmt.Errorf("inspection status: %w", err)
	}
	if s.OnAir, err = seedBool(pick("on_air")); err != nil {
		return fmt.Errorf("on_air: %w", err)
	}
	if s.RequestSubmitted, err = seedBool(pick("submitted")); err != nil {
		return fmt.Errorf("request_submitted: %w", err)
	}

	return nil
}

// Station converts the seed into a catalog entry. Missing or zero
// coordinates leave the station unlocatable.
func (s StationSeed) Station() domain.Station {
	st := domain.Station{
		ID:        s.ID,
		Name:      s.Name,
		Frequency: s.Frequency,
		Province:  s.Province,
		Region:    s.District,
		Status: domain.StatusFlags{
			OnAir:            s.OnAir,
			Inspected:        s.InspectionStatus == InspectedStatus,
			RequestSubmitted: s.RequestSubmitted,
		},
	}
	if s.Latitude != nil && s.Longitude != nil {
		c := domain.Coordinates{Lat: *s.Latitude, Lon: *s.Longitude}
		if c.Valid() {
			st.Location = &c
		}
	}
	return st
}

// Awaiting reports whether the station is on air, not yet inspected and has
// a submitted request.
func Awaiting(st domain.Station) bool {
	return st.Status.OnAir && !st.Status.Inspected && st.Status.RequestSubmitted
}

// LoadSeedFile reads and validates a JSON array of station seeds.
func LoadSeedFile(path string) ([]StationSeed, error) {
	bytes, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %q: %w", path, err)
	}

	var seeds []StationSeed
	if err := json.Unmarshal(bytes, &seeds); err != nil {
		return nil, fmt.Errorf("parse json: %w", err)
	}

	for i := range seeds {
		seeds[i].ID = strings.TrimSpace(seeds[i].ID)
		if seeds[i].ID == "" {
			return nil, fmt.Errorf("station at index %d: id cannot be empty", i+1)
		}
		seeds[i].Name = strings.TrimSpace(seeds[i].Name)
		if seeds[i].Name == "" {
			return nil, fmt.Errorf("station %s: name cannot be empty", seeds[i].ID)
		}
		seeds[i].Province = strings.TrimSpace(seeds[i].Province)
		seeds[i].District = strings.TrimSpace(seeds[i].District)
	}

	return seeds, nil
}

func seedString(v json.RawMessage, ok bool) (string, error) {
	if !ok {
		return "", nil
	}
	var s string
	if err := json.Unmarshal(v, &s); err == nil {
		return s, nil
	}
	var n json.Number
	if err := json.Unmarshal(v, &n); err != nil {
		return "", err
	}
	return n.String(), nil
}

func seedFloat(v json.RawMessage, ok bool) (*float64, error) {
	if !ok {
		return nil, nil
	}
	var f float64
	if err := json.Unmarshal(v, &f); err == nil {
		return &f, nil
	}
	var s string
	if err := json.Unmarshal(v, &s); err != nil {
		return nil, err
	}
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil, err
	}
	return &f, nil
}

// seedBool accepts booleans or common strings; a missing field means true.
func seedBool(v json.RawMessage, ok bool) (bool, error) {
	if !ok {
		return true, nil
	}
	var b bool
	if err := json.Unmarshal(v, &b); err == nil {
		return b, nil
	}
	var s string
	if err := json.Unmarshal(v, &s); err != nil {
		return false, err
	}
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "true", "yes", "y", "1", "on", "ยื่นแล้ว":
		return true, nil
	case "false", "no", "n", "0", "off", "ยังไม่ยื่น":
		return false, nil
	}
	return false, fmt.Errorf("unrecognized boolean %q", s)
}
