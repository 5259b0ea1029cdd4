package handlers

import (
	"inspection-route-service/internal/api/dto"
	"inspection-route-service/internal/domain"
	"inspection-route-service/internal/ports"
	"inspection-route-service/internal/services"
	"net/http"
	"strings"

	"github.com/rs/zerolog"
)

// StationHandler exposes the catalog view used to pick a request.
type StationHandler struct {
	Catalog ports.StationCatalog
	Home    domain.Coordinates
	// Position for stations without coordinates.
	Locate func(domain.Station) (domain.Coordinates, bool)
}

func (h *StationHandler) List(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", http.MethodGet)
		writeError(w, r, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	region := strings.TrimSpace(r.URL.Query().Get("region"))
	if region == "" {
		writeError(w, r, http.StatusBadRequest, "region is required")
		return
	}

	stations, err := h.Catalog.Stations(r.Context(), region)
	if err != nil {
		zerolog.Ctx(r.Context()).Error().Err(err).Str("region", region).Msg("list stations failed")
		writeError(w, r, http.StatusInternalServerError, "internal server error")
		return
	}

	locate := h.Locate
	if locate == nil {
		locate = func(st domain.Station) (domain.Coordinates, bool) {
			if st.Locatable() {
				return *st.Location, true
			}
			return domain.Coordinates{}, false
		}
	}

	res := dto.ListStationsResponse{
		Region:   region,
		Stations: make([]dto.StationResponse, 0, len(stations)),
	}
	for _, c := range services.EnrichWithDistance(stations, h.Home, locate) {
		sr := toStation(c.Station)
		if _, ok := locate(c.Station); ok {
			d := c.DistanceFromHomeKm
			sr.DistanceFromHomeKm = &d
		}
		res.Stations = append(res.Stations, sr)
	}

	writeJSON(w, r, http.StatusOK, res)
}

func toStation(st domain.Station) dto.StationResponse {
	res := dto.StationResponse{
		StationID: st.ID,
		Name:      st.Name,
		Frequency: st.Frequency,
		District:  st.RegionLabel(),
		Province:  st.Province,
	}
	if st.Locatable() {
		lat, lon := st.Location.Lat, st.Location.Lon
		res.Lat, res.Lon = &lat, &lon
	}
	return res
}
