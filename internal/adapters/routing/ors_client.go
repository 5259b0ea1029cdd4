package routing

import (
	"bytes"
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

type ORSOptions struct {
	BaseURL          string
	Profile          string
	APIKey           string
	Timeout          time.Duration
	RatePerSecond    float64
	Burst            int
	MaxAttempts      int
	Backoff          time.Duration
	RateLimitBackoff time.Duration
	HTTPClient       *http.Client
}

func DefaultORSOptions() ORSOptions {
	return ORSOptions{
		BaseURL:          "https://api.openrouteservice.org",
		Profile:          "driving-car",
		Timeout:          10 * time.Second,
		RatePerSecond:    0.6,
		Burst:            1,
		MaxAttempts:      4,
		Backoff:          200 * time.Millisecond,
		RateLimitBackoff: 2 * time.Second,
	}
}

// ORSClient implements ports.RouteSource with the OpenRouteService matrix
// endpoint, asking for a single origin-destination cell.
type ORSClient struct {
	transport *retrier
	baseURL   string
	profile   string
	apiKey    string
	metrics   *obs.Metrics
}

var _ ports.RouteSource = (*ORSClient)(nil)

func NewORSClient(opts ORSOptions, metrics *obs.Metrics) (*ORSClient, error) {
	if strings.TrimSpace(opts.APIKey) == "" {
		return nil, errors.New("ORS api key is empty")
	}
	base := strings.TrimRight(strings.TrimSpace(opts.BaseURL), "/")
	if base == "" {
		return nil, errors.New("ORS base url is empty")
	}
	if opts.Profile == "" {
		opts.Profile = "driving-car"
	}

	return &ORSClient{
		transport: newRetrier(opts.HTTPClient, opts.Timeout, opts.RatePerSecond, opts.Burst,
			opts.MaxAttempts, opts.Backoff, opts.RateLimitBackoff),
		baseURL: base,
		profile: opts.Profile,
		apiKey:  opts.APIKey,
		metrics: metrics,
	}, nil
}

type matrixRequest struct {
	Locations    [][]float64 `json:"locations"`
	Sources      []int       `json:"sources"`
	Destinations []int       `json:"destinations"`
	Metrics      []string    `json:"metrics"`
	Units        string      `json:"units"`
}

type matrixResponse struct {
	Distances [][]*float64 `json:"distances"`
	Durations [][]*float64 `json:"durations"`
}

// Route returns road distance (m) and duration (s) between two coordinates.
func (c *ORSClient) Route(
	ctx context.Context,
	origin domain.Coordinates,
	destination domain.Coordinates,
) (_ ports.RouteResult, err error) {
	defer obs.Time(ctx, "ors.Route")(&err)

	start := time.Now()
	defer func() { c.metrics.RouteSourceLatency(time.Since(start)) }()

	payload, err := json.Marshal(matrixRequest{
		// ORS expects [lon, lat] pairs.
		Locations:    [][]float64{{origin.Lon, origin.Lat}, {destination.Lon, destination.Lat}},
		Sources:      []int{0},
		Destinations: []int{1},
		Metrics:      []string{"distance", "duration"},
		Units:        "m",
	})
	if err != nil {
		return ports.RouteResult{}, fmt.Errorf("marshal matrix request: %w", err)
	}

	endpoint := fmt.Sprintf("%s/v2/matrix/%s", c.baseURL, c.profile)
	resp, err := c.transport.doWithRetry(ctx, func() (*http.Request, error) {
		req, err := newRequest(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Authorization", c.apiKey)
		return req, nil
	})
	if err != nil {
		c.metrics.RouteSourceError(errorReason(err))
		return ports.RouteResult{}, fmt.Errorf("ors matrix request: %w", err)
	}
	defer resp.Body.Close()

	var mr matrixResponse
	if err := json.NewDecoder(resp.Body).Decode(&mr); err != nil {
		c.metrics.RouteSourceError("decode")
		return ports.RouteResult{}, fmt.Errorf("decode matrix response: %w", err)
	}

	if len(mr.Distances) != 1 || len(mr.Durations) != 1 ||
		len(mr.Distances[0]) != 1 || len(mr.Durations[0]) != 1 {
		c.metrics.RouteSourceError("no_route")
		return ports.RouteResult{}, fmt.Errorf("expected a 1x1 matrix; got distances=%d durations=%d",
			len(mr.Distances), len(mr.Durations))
	}

	meters, seconds := mr.Distances[0][0], mr.Durations[0][0]
	if meters == nil || seconds == nil {
		c.metrics.RouteSourceError("no_route")
		return ports.RouteResult{}, errors.New("matrix has no route between the points")
	}

	return ports.RouteResult{DistanceMeters: *meters, DurationSeconds: *seconds}, nil
}
