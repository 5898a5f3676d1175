// Package linkcheck confirms candidate URLs are reachable and backfills dead
// best-list entries from the source pool under a fixed check budget.
package linkcheck

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/ppiankov/credence/internal/metrics"
	"github.com/ppiankov/credence/internal/model"
	"github.com/ppiankov/credence/internal/reference"
	"github.com/ppiankov/credence/internal/util"
)

// Checker reports whether a URL is live
type Checker interface {
	Check(ctx context.Context, rawURL string) model.LinkStatus
}

// HTTPChecker checks links with HEAD, falling back to GET when HEAD is refused
type HTTPChecker struct {
	client    *http.Client
	tables    *reference.Tables
	limiter   *Limiter
	timeout   time.Duration
	userAgent string
	metrics   *metrics.Metrics
}

// NewHTTPChecker creates a checker from the link check configuration
func NewHTTPChecker(cfg model.LinkCheckConfig, tables *reference.Tables, m *metrics.Metrics) *HTTPChecker {
	if tables == nil {
		tables = reference.Default()
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 1200 * time.Millisecond
	}

	return &HTTPChecker{
		client: &http.Client{
			Transport: util.NewTransport(cfg.HTTPProxy, cfg.HTTPSProxy, cfg.NoProxy),
			// A redirect response is itself proof of life
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				return http.ErrUseLastResponse
			},
		},
		tables:    tables,
		limiter:   NewLimiter(cfg.RequestsPerSecond, cfg.BurstSize),
		timeout:   timeout,
		userAgent: cfg.UserAgent,
		metrics:   m,
	}
}

// Check performs one live check. Network errors and timeouts mark the link dead.
func (c *HTTPChecker) Check(ctx context.Context, rawURL string) model.LinkStatus {
	start := time.Now()
	status := c.check(ctx, rawURL)
	c.metrics.ObserveLinkCheck(status, time.Since(start))
	return status
}

func (c *HTTPChecker) check(ctx context.Context, rawURL string) model.LinkStatus {
	status := model.LinkStatus{URL: rawURL}

	if err := c.limiter.Wait(ctx, rawURL); err != nil {
		status.Error = fmt.Sprintf("rate limit wait: %v", err)
		return status
	}

	code, err := c.do(ctx, http.MethodHead, rawURL)
	status.Method = http.MethodHead
	if err == nil && (code == http.StatusForbidden || code == http.StatusMethodNotAllowed) {
		code, err = c.do(ctx, http.MethodGet, rawURL)
		status.Method = http.MethodGet
	}
	if err != nil {
		status.Error = err.Error()
		return status
	}

	status.StatusCode = code
	switch {
	case code >= 200 && code < 400:
		status.IsLive = true
	case code == http.StatusForbidden && c.tables.IsBotBlocking(util.Hostname(rawURL)):
		status.IsLive = true
	default:
		status.Error = fmt.Sprintf("HTTP %d", code)
	}
	return status
}

// do issues a single request with its own timeout and discards the body
func (c *HTTPChecker) do(ctx context.Context, method, rawURL string) (int, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, method, rawURL, nil)
	if err != nil {
		return 0, fmt.Errorf("create request: %w", err)
	}
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return 0, fmt.Errorf("%s failed: %w", method, err)
	}
	_ = resp.Body.Close()

	return resp.StatusCode, nil
}
