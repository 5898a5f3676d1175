package oracle

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"syscall"
	"time"

	"github.com/ppiankov/credence/internal/cache"
	"github.com/ppiankov/credence/internal/metrics"
)

// oracleSleepFunc waits between retries and returns early with ctx's error
// (injectable for tests)
var oracleSleepFunc = func(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

const defaultMaxAttempts = 3

// Client wraps a provider with retries, caching and metrics
type Client struct {
	provider    Provider
	model       string
	maxAttempts int
	cache       cache.Cache
	cacheTTL    time.Duration
	metrics     *metrics.Metrics
	logger      *slog.Logger
}

// ClientOption configures a Client
type ClientOption func(*Client)

// WithCache caches successful JSON responses for ttl (0 uses the cache default)
func WithCache(c cache.Cache, ttl time.Duration) ClientOption {
	return func(cl *Client) {
		cl.cache = c
		cl.cacheTTL = ttl
	}
}

// WithMetrics records oracle outcomes
func WithMetrics(m *metrics.Metrics) ClientOption {
	return func(cl *Client) {
		cl.metrics = m
	}
}

// WithLogger sets the diagnostic logger
func WithLogger(l *slog.Logger) ClientOption {
	return func(cl *Client) {
		cl.logger = l
	}
}

// NewClient creates a client. A nil provider yields a client whose Evaluate
// always fails with ErrNoProvider.
func NewClient(p Provider, cfg Config, opts ...ClientOption) *Client {
	c := &Client{
		provider:    p,
		model:       cfg.Model,
		maxAttempts: cfg.MaxAttempts,
		logger:      slog.New(slog.DiscardHandler),
	}
	if c.maxAttempts <= 0 {
		c.maxAttempts = defaultMaxAttempts
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Enabled reports whether a provider is configured
func (c *Client) Enabled() bool {
	return c.provider != nil
}

// ProviderName returns the provider name, or empty when disabled
func (c *Client) ProviderName() string {
	if c.provider == nil {
		return ""
	}
	return c.provider.Name()
}

// Evaluate returns the oracle answer for req, from cache when possible,
// retrying transient failures with exponential backoff
func (c *Client) Evaluate(ctx context.Context, req Request) (*Response, error) {
	if c.provider == nil {
		return nil, ErrNoProvider
	}
	name := c.provider.Name()

	key := cache.OracleKey(name, c.model, req.Claim.Text, req.Claim.Now)
	if c.cache != nil {
		raw, hit := c.cache.Get(key)
		c.metrics.ObserveCacheLookup(hit)
		if hit {
			c.metrics.ObserveOracle(name, "cached", 0)
			c.logger.Debug("oracle cache hit", "provider", name)
			return &Response{Raw: raw, Model: c.model, Cached: true}, nil
		}
	}

	start := time.Now()
	var lastErr error
	for attempt := 0; attempt < c.maxAttempts; attempt++ {
		resp, err := c.provider.Evaluate(ctx, req)
		if err == nil {
			c.metrics.ObserveOracle(name, "success", time.Since(start))
			c.store(key, resp.Raw)
			return resp, nil
		}

		lastErr = err
		if !IsRetryable(err) || ctx.Err() != nil {
			break
		}
		if attempt < c.maxAttempts-1 {
			backoff := time.Duration(1<<uint(attempt)) * time.Second
			c.logger.Debug("oracle attempt failed, retrying",
				"provider", name, "attempt", attempt+1, "backoff", backoff, "error", err)
			if oracleSleepFunc(ctx, backoff) != nil {
				break
			}
		}
	}

	c.metrics.ObserveOracle(name, "error", time.Since(start))
	return nil, fmt.Errorf("%s oracle: %w", name, lastErr)
}

// store caches raw only when it is a clean JSON document
func (c *Client) store(key string, raw []byte) {
	if c.cache == nil || !json.Valid(raw) {
		return
	}
	if err := c.cache.Set(key, raw, c.cacheTTL); err != nil {
		c.logger.Warn("oracle cache write failed", "error", err)
	}
}

// IsRetryable reports whether err is a transient failure: rate limiting,
// server errors, timeouts and refused or reset connections
func IsRetryable(err error) bool {
	if err == nil || errors.Is(err, context.Canceled) {
		return false
	}

	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		return statusErr.Retryable()
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}
	return errors.Is(err, syscall.ECONNREFUSED) || errors.Is(err, syscall.ECONNRESET)
}
