package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"inspection-route-service/internal/domain"
	"inspection-route-service/internal/platform/obs"
	"inspection-route-service/internal/ports"
	"strings"
)

// Postgres-backed implementation of the StationCatalog port.
type PostgresStationCatalog struct{ DB *sql.DB }

var _ ports.StationCatalog = (*PostgresStationCatalog)(nil)

func NewPostgresStationCatalog(db *sql.DB) *PostgresStationCatalog {
	return &PostgresStationCatalog{DB: db}
}

// Return the stations of a province that are on air, not yet inspected and
// have a submitted request.
func (s *PostgresStationCatalog) Stations(ctx context.Context, region string) (_ []domain.Station, err error) {
	defer obs.Time(ctx, "catalog.postgres.Stations")(&err)

	if s.DB == nil {
		return nil, errors.New("postgres station catalog: DB is nil")
	}
	region = strings.TrimSpace(region)
	if region == "" {
		return nil, errors.New("list stations: region must not be empty")
	}

	query := `
	SELECT
		station_id,
		name,
		frequency,
		province,
		district,
		latitude,
		longitude
	FROM stations
	WHERE province = $1
		AND on_air
		AND inspection_status <> $2
		AND request_submitted
	ORDER BY district, station_id;
	`
	rows, err := s.DB.QueryContext(ctx, query, region, InspectedStatus)
	if err != nil {
		return nil, fmt.Errorf("list stations: query stations table: %w", err)
	}
	defer rows.Close()

	stations := make([]domain.Station, 0, 64)
	for rows.Next() {
		var seed StationSeed
		var lat, lon sql.NullFloat64
		err := rows.Scan(&seed.ID, &seed.Name, &seed.Frequency, &seed.Province, &seed.District, &lat, &lon)
		if err != nil {
			return nil, fmt.Errorf("list stations: scan row: %w", err)
		}
		if lat.Valid {
			seed.Latitude = &lat.Float64
		}
		if lon.Valid {
			seed.Longitude = &lon.Float64
		}
		seed.OnAir = true
		seed.RequestSubmitted = true
		stations = append(stations, seed.Station())
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list stations: row iteration: %w", err)
	}

	return stations, nil
}
