// Package oracle asks an LLM for candidate evidence about a claim. The
// response is untrusted: the engine normalizes, validates and live-checks
// everything it returns.
package oracle

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/ppiankov/credence/internal/model"
)

var (
	// ErrNoProvider is returned when no oracle provider is configured
	ErrNoProvider = errors.New("no oracle provider configured")

	// ErrEmptyResponse is returned when a provider answers with no content
	ErrEmptyResponse = errors.New("oracle returned an empty response")
)

// Provider is an LLM backend that can produce an evidence payload
type Provider interface {
	// Name returns the provider name
	Name() string

	// Evaluate asks the model for evidence about the claim and returns its raw answer
	Evaluate(ctx context.Context, req Request) (*Response, error)
}

// Request is one evidence request
type Request struct {
	Claim    model.ClaimContext
	Temporal model.TemporalSignal
	Facts    model.FactCheckResult

	// Prompt overrides the built prompt when set
	Prompt    string
	Model     string
	MaxTokens int
}

// Response is the raw oracle answer
type Response struct {
	Raw        []byte // Expected to hold a JSON payload, possibly wrapped in prose
	Model      string
	TokensUsed int
	Cached     bool
}

// Config holds provider configuration
type Config struct {
	Provider    string // openai, anthropic, ollama, file, or empty to disable
	Model       string
	APIKey      string
	BaseURL     string
	PayloadPath string // file provider only
	Timeout     int    // seconds
	MaxTokens   int
	MaxAttempts int

	HTTPProxy  string
	HTTPSProxy string
	NoProxy    string
}

// ConfigFromModel builds provider configuration from the runtime config
func ConfigFromModel(cfg *model.Config) Config {
	return Config{
		Provider:    cfg.Oracle.Provider,
		Model:       cfg.Oracle.Model,
		APIKey:      cfg.Oracle.APIKey,
		BaseURL:     cfg.Oracle.BaseURL,
		PayloadPath: cfg.Oracle.PayloadPath,
		Timeout:     cfg.Oracle.Timeout,
		MaxTokens:   cfg.Oracle.MaxTokens,
		MaxAttempts: cfg.Oracle.MaxAttempts,
		HTTPProxy:   cfg.LinkCheck.HTTPProxy,
		HTTPSProxy:  cfg.LinkCheck.HTTPSProxy,
		NoProxy:     cfg.LinkCheck.NoProxy,
	}
}

func (c Config) timeout(fallback time.Duration) time.Duration {
	if c.Timeout > 0 {
		return time.Duration(c.Timeout) * time.Second
	}
	return fallback
}

func (c Config) maxTokens(req Request) int {
	switch {
	case req.MaxTokens > 0:
		return req.MaxTokens
	case c.MaxTokens > 0:
		return c.MaxTokens
	default:
		return 1500
	}
}

func (c Config) model(req Request, fallback string) string {
	switch {
	case req.Model != "":
		return req.Model
	case c.Model != "":
		return c.Model
	default:
		return fallback
	}
}

// StatusError is a non-success HTTP answer from a provider
type StatusError struct {
	Provider   string
	StatusCode int
	Message    string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s API error (%d): %s", e.Provider, e.StatusCode, e.Message)
}

// Retryable reports whether the status is worth another attempt
func (e *StatusError) Retryable() bool {
	return e.StatusCode == http.StatusTooManyRequests || e.StatusCode >= 500
}
