package routing

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"inspection-route-service/internal/domain"
	"inspection-route-service/internal/platform/obs"
	"inspection-route-service/internal/ports"
	"net/http"
	"strings"
	"time"
)

type OSRMOptions struct {
	BaseURL string
	Profile string
	Timeout time.Duration
	// Requests per second allowed towards the server; <= 0 disables limiting.
	RatePerSecond float64
	Burst         int
	MaxAttempts   int
	Backoff       time.Duration
	// Wait applied once after a 429 before the final try.
	RateLimitBackoff time.Duration
	HTTPClient       *http.Client
}

func DefaultOSRMOptions() OSRMOptions {
	return OSRMOptions{
		BaseURL:          "http://router.project-osrm.org",
		Profile:          "driving",
		Timeout:          10 * time.Second,
		RatePerSecond:    5,
		Burst:            1,
		MaxAttempts:      3,
		Backoff:          200 * time.Millisecond,
		RateLimitBackoff: 2 * time.Second,
	}
}

// OSRMClient implements ports.RouteSource against the OSRM route API.
//
// It coordinates:
//   - Client-side rate limiting
//   - Retry with exponential backoff on network errors and 5xx responses
//   - One extended backoff on 429 before giving up
//
// The client is safe for concurrent use.
type OSRMClient struct {
	transport *retrier
	baseURL   string
	profile   string
	metrics   *obs.Metrics
}

var _ ports.RouteSource = (*OSRMClient)(nil)

func NewOSRMClient(opts OSRMOptions, metrics *obs.Metrics) (*OSRMClient, error) {
	base := strings.TrimRight(strings.TrimSpace(opts.BaseURL), "/")
	if base == "" {
		return nil, errors.New("osrm base url is empty")
	}
	if opts.Profile == "" {
		opts.Profile = "driving"
	}

	return &OSRMClient{
		transport: newRetrier(opts.HTTPClient, opts.Timeout, opts.RatePerSecond, opts.Burst,
			opts.MaxAttempts, opts.Backoff, opts.RateLimitBackoff),
		baseURL:   base,
		profile:   opts.Profile,
		metrics:   metrics,
	}, nil
}

type routeResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Routes  []struct {
		Duration float64 `json:"duration"`
		Distance float64 `json:"distance"`
	} `json:"routes"`
}

// Route returns road distance (m) and duration (s) between two coordinates.
func (c *OSRMClient) Route(
	ctx context.Context,
	origin domain.Coordinates,
	destination domain.Coordinates,
) (_ ports.RouteResult, err error) {
	defer obs.Time(ctx, "osrm.Route")(&err)

	start := time.Now()
	defer func() { c.metrics.RouteSourceLatency(time.Since(start)) }()

	// OSRM expects lon,lat order.
	endpoint := fmt.Sprintf(
		"%s/route/v1/%s/%.6f,%.6f;%.6f,%.6f?overview=false&alternatives=false&steps=false",
		c.baseURL, c.profile, origin.Lon, origin.Lat, destination.Lon, destination.Lat,
	)

	resp, err := c.transport.doWithRetry(ctx, func() (*http.Request, error) {
		return newRequest(ctx, http.MethodGet, endpoint, nil)
	})
	if err != nil {
		c.metrics.RouteSourceError(errorReason(err))
		return ports.RouteResult{}, fmt.Errorf("osrm route request: %w", err)
	}
	defer resp.Body.Close()

	var rr routeResponse
	if err := json.NewDecoder(resp.Body).Decode(&rr); err != nil {
		c.metrics.RouteSourceError("decode")
		return ports.RouteResult{}, fmt.Errorf("decode osrm response: %w", err)
	}

	if rr.Code != "Ok" || len(rr.Routes) == 0 {
		c.metrics.RouteSourceError("no_route")
		return ports.RouteResult{}, fmt.Errorf("osrm returned code=%q message=%q routes=%d", rr.Code, rr.Message, len(rr.Routes))
	}

	return ports.RouteResult{
		DistanceMeters:  rr.Routes[0].Distance,
		DurationSeconds: rr.Routes[0].Duration,
	}, nil
}
