package api

import (
	"inspection-route-service/internal/api/handlers"
	"inspection-route-service/internal/domain"
	"inspection-route-service/internal/platform/obs"
	"inspection-route-service/internal/ports"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// RouterDeps are the collaborators the HTTP layer needs.
type RouterDeps struct {
	Planner handlers.PlanService
	Catalog ports.StationCatalog
	Home    domain.Coordinates
	Locate  func(domain.Station) (domain.Coordinates, bool)
	Metrics *obs.Metrics
	// Gatherer backs /metrics; nil leaves the endpoint out.
	Gatherer prometheus.Gatherer
}

// NewRouter wires HTTP handlers with their dependencies and returns an http.Handler.
// This is the API composition root (handlers stay unaware of concrete adapters).
func NewRouter(deps RouterDeps) http.Handler {
	mux := http.NewServeMux()

	stationHandler := &handlers.StationHandler{
		Catalog: deps.Catalog,
		Home:    deps.Home,
		Locate:  deps.Locate,
	}
	planHandler := &handlers.PlanHandler{Service: deps.Planner}

	mux.HandleFunc("/health", handlers.Health)
	mux.HandleFunc("/stations", stationHandler.List)
	mux.HandleFunc("/plans", planHandler.Plan)
	mux.HandleFunc("/plans/fix", planHandler.Fix)
	if deps.Gatherer != nil {
		mux.Handle("/metrics", promhttp.HandlerFor(deps.Gatherer, promhttp.HandlerOpts{}))
	}

	return requestIDMiddleware(loggingMiddleware(deps.Metrics, mux))
}
