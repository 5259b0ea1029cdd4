package routing

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"golang.org/x/time/rate"
)

type httpStatusError struct {
	Code int
	Body string
}

func (e *httpStatusError) Error() string {
	return fmt.Sprintf("Code %d: %s", e.Code, e.Body)
}

// retrier sends requests through a rate limiter and retries transient failures.
// It is shared by the routing clients and is safe for concurrent use.
type retrier struct {
	session          *http.Client
	limiter          *rate.Limiter
	maxAttempts      int
	backoff          time.Duration
	rateLimitBackoff time.Duration
}

func newRetrier(session *http.Client, timeout time.Duration, perSecond float64, burst, maxAttempts int, backoff, rateLimitBackoff time.Duration) *retrier {
	if session == nil {
		session = &http.Client{Timeout: timeout}
	}

	limiter := rate.NewLimiter(rate.Inf, 0)
	if perSecond > 0 {
		limiter = rate.NewLimiter(rate.Limit(perSecond), max(1, burst))
	}

	return &retrier{
		session:          session,
		limiter:          limiter,
		maxAttempts:      max(1, maxAttempts),
		backoff:          backoff,
		rateLimitBackoff: rateLimitBackoff,
	}
}

func newRequest(ctx context.Context, method string, url string, body io.Reader) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", "inspection-route-service")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return req, nil
}

func (c *retrier) do(req *http.Request) (*http.Response, error) {
	resp, err := c.session.Do(req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode >= 400 {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		resp.Body.Close()
		return nil, &httpStatusError{
			Code: resp.StatusCode,
			Body: strings.TrimSpace(string(b)),
		}
	}
	return resp, nil
}

// doWithRetry retries transient failures (network errors, 5xx responses)
// with exponential backoff. A 429 gets one extended wait and a single extra
// try; a second 429 is returned to the caller.
func (c *retrier) doWithRetry(
	ctx context.Context,
	makeReq func() (*http.Request, error),
) (*http.Response, error) {
	backoff := c.backoff
	rateLimited := false

	var lastErr error

	for attempt := 1; attempt <= c.maxAttempts; attempt++ {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, err
		}

		req, err := makeReq()
		if err != nil {
			return nil, fmt.Errorf("make request: %w", err)
		}

		resp, err := c.do(req)
		if err == nil {
			return resp, nil
		}
		lastErr = err

		wait := backoff
		retry := false

		var he *httpStatusError
		if errors.As(err, &he) {
			switch he.Code {
			case http.StatusTooManyRequests:
				if rateLimited {
					return nil, lastErr
				}
				rateLimited = true
				wait = c.rateLimitBackoff
				// The extended wait buys exactly one more try.
				attempt = c.maxAttempts - 1
				retry = true
			case 500, 502, 503, 504:
				retry = true
			}
		}

		var netErr net.Error
		if !retry && errors.As(err, &netErr) {
			retry = true
		}

		if !retry || attempt == c.maxAttempts {
			return nil, lastErr
		}

		if err := sleep(ctx, wait); err != nil {
			return nil, err
		}

		backoff *= 2
	}

	return nil, lastErr
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func errorReason(err error) string {
	var he *httpStatusError
	if errors.As(err, &he) {
		if he.Code == http.StatusTooManyRequests {
			return "rate_limited"
		}
		return "http_status"
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return "timeout"
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return "network"
	}
	return "other"
}
