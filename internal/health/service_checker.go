package health

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"
)

// ServiceChecker checks that the identity service answers HTTP at all.
// It sends no credentials, so it never affects the saved session.
type ServiceChecker struct {
	baseURL string
	client  *http.Client
}

// NewServiceChecker creates a checker for baseURL.
func NewServiceChecker(baseURL string, timeout time.Duration) *ServiceChecker {
	return &ServiceChecker{
		baseURL: baseURL,
		client:  &http.Client{Timeout: timeout},
	}
}

// Name returns the name of this health check.
func (c *ServiceChecker) Name() string {
	return "identity-service"
}

// Check issues a GET against the base URL. Any response below 500 counts
// as reachable; the root path of an API commonly answers 404.
func (c *ServiceChecker) Check(ctx context.Context) *Result {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL, nil)
	if err != nil {
		return Unhealthy("Invalid identity service URL").
			WithDetail("url", c.baseURL).
			WithDetail("error", err.Error())
	}

	start := time.Now()
	resp, err := c.client.Do(req)
	latency := time.Since(start)
	if err != nil {
		return Unhealthy("Identity service unreachable").
			WithDetail("url", c.baseURL).
			WithDetail("error", err.Error()).
			WithLatency(latency)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4<<10))

	if resp.StatusCode >= http.StatusInternalServerError {
		return Degraded(fmt.Sprintf("Identity service returned HTTP %d", resp.StatusCode)).
			WithDetail("url", c.baseURL).
			WithDetail("status", resp.StatusCode).
			WithLatency(latency)
	}

	return Healthy("Identity service reachable").
		WithDetail("url", c.baseURL).
		WithDetail("status", resp.StatusCode).
		WithLatency(latency)
}
