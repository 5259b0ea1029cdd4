package obs

import (
	"inspection-route-service/internal/domain"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "inspection"

// Metrics groups the service's collectors. It is created once by the
// composition root and handed to each component; a nil *Metrics is a no-op.
type Metrics struct {
	travelEstimates    *prometheus.CounterVec
	travelCache        *prometheus.CounterVec
	routeSourceErrors  *prometheus.CounterVec
	routeSourceLatency prometheus.Histogram
	plans              *prometheus.CounterVec
	violations         *prometheus.CounterVec
	httpRequests       *prometheus.CounterVec
	httpDuration       *prometheus.HistogramVec
}

// NewMetrics registers the collectors on reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)

	return &Metrics{
		travelEstimates: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "travel",
			Name:      "estimates_total",
			Help:      "Travel estimates produced, by source.",
		}, []string{"source"}),
		travelCache: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "travel",
			Name:      "cache_lookups_total",
			Help:      "In-process travel cache lookups, by result.",
		}, []string{"result"}),
		routeSourceErrors: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "routing",
			Name:      "errors_total",
			Help:      "Failed routing source calls, by reason.",
		}, []string{"reason"}),
		routeSourceLatency: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "routing",
			Name:      "request_duration_seconds",
			Help:      "Routing source call latency.",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}),
		plans: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "planner",
			Name:      "plans_total",
			Help:      "Planning runs, by outcome status.",
		}, []string{"status"}),
		violations: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "planner",
			Name:      "violations_total",
			Help:      "Plan violations found, by category and severity.",
		}, []string{"category", "severity"}),
		httpRequests: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "HTTP requests, by method, path and status.",
		}, []string{"method", "path", "status"}),
		httpDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request latency.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "path"}),
	}
}

func (m *Metrics) TravelEstimate(source string) {
	if m == nil {
		return
	}
	m.travelEstimates.WithLabelValues(source).Inc()
}

func (m *Metrics) TravelCacheLookup(hit bool) {
	if m == nil {
		return
	}
	result := "miss"
	if hit {
		result = "hit"
	}
	m.travelCache.WithLabelValues(result).Inc()
}

func (m *Metrics) RouteSourceError(reason string) {
	if m == nil {
		return
	}
	m.routeSourceErrors.WithLabelValues(reason).Inc()
}

func (m *Metrics) RouteSourceLatency(d time.Duration) {
	if m == nil {
		return
	}
	m.routeSourceLatency.Observe(d.Seconds())
}

func (m *Metrics) PlanFinished(status string) {
	if m == nil {
		return
	}
	m.plans.WithLabelValues(status).Inc()
}

func (m *Metrics) Violations(vs []domain.Violation) {
	if m == nil {
		return
	}
	for _, v := range vs {
		m.violations.WithLabelValues(string(v.Category), string(v.Severity)).Inc()
	}
}

func (m *Metrics) HTTPRequest(method, path string, status int, d time.Duration) {
	if m == nil {
		return
	}
	m.httpRequests.WithLabelValues(method, path, strconv.Itoa(status)).Inc()
	m.httpDuration.WithLabelValues(method, path).Observe(d.Seconds())
}
