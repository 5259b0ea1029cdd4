package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// Initialize the Postgres schema for the station catalog and estimate cache.
func InitSchema(ctx context.Context, db *sql.DB) error {
	if db == nil {
		return errors.New("init schema: DB is nil")
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("init schema: begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	createStationsQuery := `
	CREATE TABLE IF NOT EXISTS stations (
		station_id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		frequency TEXT NOT NULL DEFAULT '',
		province TEXT NOT NULL DEFAULT '',
		district TEXT NOT NULL DEFAULT '',
		latitude DOUBLE PRECISION,
		longitude DOUBLE PRECISION,
		on_air BOOLEAN NOT NULL DEFAULT TRUE,
		inspection_status TEXT NOT NULL DEFAULT '',
		request_submitted BOOLEAN NOT NULL DEFAULT TRUE
	);
	`

	createEstimateCacheQuery := `
	CREATE TABLE IF NOT EXISTS travel_estimate_cache (
		cache_key TEXT PRIMARY KEY,
		distance_km DOUBLE PRECISION NOT NULL,
		duration_minutes DOUBLE PRECISION NOT NULL,
		source TEXT NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now()
	);
	`

	createIndexQuery := `
	CREATE INDEX IF NOT EXISTS idx_stations_province_district
	ON stations(province, district);
	`

	statements := []string{
		createStationsQuery,
		createEstimateCacheQuery,
		createIndexQuery,
	}

	for i, stmt := range statements {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("init schema: exec statement #%d: %w", i+1, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("init schema: commit tx: %w", err)
	}

	return nil
}

// Populate the stations table from a JSON seed file. Existing rows are replaced.
func SeedFromJSON(ctx context.Context, db *sql.DB, jsonPath string) (int, error) {
	seeds, err := LoadSeedFile(jsonPath)
	if err != nil {
		return 0, fmt.Errorf("seed stations: %w", err)
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("seed stations: begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	query := `
	INSERT INTO stations (
		station_id, name, frequency, province, district,
		latitude, longitude, on_air, inspection_status, request_submitted
	)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	ON CONFLICT (station_id) DO UPDATE SET
		name = EXCLUDED.name,
		frequency = EXCLUDED.frequency,
		province = EXCLUDED.province,
		district = EXCLUDED.district,
		latitude = EXCLUDED.latitude,
		longitude = EXCLUDED.longitude,
		on_air = EXCLUDED.on_air,
		inspection_status = EXCLUDED.inspection_status,
		request_submitted = EXCLUDED.request_submitted;
	`
	stmt, err := tx.PrepareContext(ctx, query)
	if err != nil {
		return 0, fmt.Errorf("seed stations: prepare insert: %w", err)
	}
	defer stmt.Close()

	for _, s := range seeds {
		if _, err := stmt.ExecContext(ctx,
			s.ID, s.Name, s.Frequency, s.Province, s.District,
			s.Latitude, s.Longitude, s.OnAir, s.InspectionStatus, s.RequestSubmitted,
		); err != nil {
			return 0, fmt.Errorf("seed stations: insert station_id=%s: %w", s.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("seed stations: commit tx: %w", err)
	}

	return len(seeds), nil
}
