package repositories

import (
	"cmp"
	"context"
	"fmt"
	"inspection-route-service/internal/domain"
	"inspection-route-service/internal/ports"
	"slices"
	"strings"
)

// FileStationCatalog serves stations from a seed file held in memory.
type FileStationCatalog struct {
	stations []domain.Station
}

var _ ports.StationCatalog = (*FileStationCatalog)(nil)

// NewFileStationCatalog loads the seed file at path.
func NewFileStationCatalog(path string) (*FileStationCatalog, error) {
	seeds, err := LoadSeedFile(path)
	if err != nil {
		return nil, fmt.Errorf("file station catalog: %w", err)
	}
	return NewMemoryStationCatalog(seeds), nil
}

// NewMemoryStationCatalog builds a catalog from already-parsed seeds.
func NewMemoryStationCatalog(seeds []StationSeed) *FileStationCatalog {
	stations := make([]domain.Station, 0, len(seeds))
	for _, s := range seeds {
		stations = append(stations, s.Station())
	}
	slices.SortStableFunc(stations, func(a, b domain.Station) int {
		if c := cmp.Compare(a.Region, b.Region); c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})
	return &FileStationCatalog{stations: stations}
}

func (c *FileStationCatalog) Stations(ctx context.Context, region string) ([]domain.Station, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	region = strings.TrimSpace(region)

	out := make([]domain.Station, 0, 16)
	for _, st := range c.stations {
		if st.Province == region && Awaiting(st) {
			out = append(out, st)
		}
	}
	return out, nil
}

// Len returns the number of stations in the file, regardless of status.
func (c *FileStationCatalog) Len() int { return len(c.stations) }
