// Package pipeline runs a complete claim check: preflight, oracle, evidence
// evaluation and rendering.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/ppiankov/credence/internal/cache"
	"github.com/ppiankov/credence/internal/engine"
	"github.com/ppiankov/credence/internal/linkcheck"
	"github.com/ppiankov/credence/internal/metrics"
	"github.com/ppiankov/credence/internal/model"
	"github.com/ppiankov/credence/internal/normalize"
	"github.com/ppiankov/credence/internal/oracle"
	"github.com/ppiankov/credence/internal/reference"
)

// Pipeline orchestrates claim checks
type Pipeline struct {
	engine   *engine.Engine
	oracle   *oracle.Client
	renderer *Renderer
	metrics  *metrics.Metrics
	logger   *slog.Logger
	now      func() time.Time

	provider oracle.Provider
	checker  linkcheck.Checker
}

// Option configures a Pipeline
type Option func(*Pipeline)

// WithMetrics records pipeline, oracle and link check metrics
func WithMetrics(m *metrics.Metrics) Option {
	return func(p *Pipeline) {
		p.metrics = m
	}
}

// WithLogger sets the structured logger
func WithLogger(l *slog.Logger) Option {
	return func(p *Pipeline) {
		p.logger = l
	}
}

// WithProvider replaces the configured oracle provider
func WithProvider(provider oracle.Provider) Option {
	return func(p *Pipeline) {
		p.provider = provider
	}
}

// WithChecker replaces the HTTP link checker
func WithChecker(c linkcheck.Checker) Option {
	return func(p *Pipeline) {
		p.checker = c
	}
}

// WithClock sets the source of "now" for checks without an explicit date
func WithClock(now func() time.Time) Option {
	return func(p *Pipeline) {
		p.now = now
	}
}

// NewPipeline builds a pipeline from configuration
func NewPipeline(cfg *model.Config, opts ...Option) (*Pipeline, error) {
	p := &Pipeline{
		logger: slog.New(slog.DiscardHandler),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(p)
	}

	tables, err := reference.Load(cfg.Reference.Path)
	if err != nil {
		return nil, fmt.Errorf("load reference tables: %w", err)
	}

	oracleCfg := oracle.ConfigFromModel(cfg)
	if p.provider == nil {
		provider, err := oracle.NewProvider(oracleCfg)
		if err != nil {
			return nil, fmt.Errorf("create oracle provider: %w", err)
		}
		p.provider = provider
	}

	clientOpts := []oracle.ClientOption{oracle.WithMetrics(p.metrics), oracle.WithLogger(p.logger)}
	if cfg.Cache.Enabled {
		clientOpts = append(clientOpts, oracle.WithCache(cache.New(cfg.Cache.MemoryTTL, cfg.Cache.Dir, cfg.Cache.DiskTTL), cfg.Cache.DiskTTL))
	}
	p.oracle = oracle.NewClient(p.provider, oracleCfg, clientOpts...)

	engineOpts := []engine.Option{engine.WithLogger(p.logger)}
	if cfg.LinkCheck.Enabled {
		checker := p.checker
		if checker == nil {
			checker = linkcheck.NewHTTPChecker(cfg.LinkCheck, tables, p.metrics)
		}
		engineOpts = append(engineOpts, engine.WithVerifier(
			linkcheck.NewVerifier(checker, cfg.LinkCheck.Budget, cfg.LinkCheck.Workers, p.metrics)))
	}
	p.engine = engine.New(cfg.Engine, tables, engineOpts...)
	p.renderer = NewRenderer(cfg.Output.IncludeFooter)

	return p, nil
}

// OracleEnabled reports whether an oracle provider is configured
func (p *Pipeline) OracleEnabled() bool {
	return p.oracle.Enabled()
}

// Check evaluates a claim as of the pipeline clock
func (p *Pipeline) Check(ctx context.Context, text string) (*model.Result, error) {
	return p.CheckAt(ctx, model.ClaimContext{Text: text, Now: p.now().UTC()})
}

// CheckAt evaluates a claim as of claim.Now. Oracle failures degrade to a
// no-evidence result; only an empty claim or cancellation is an error.
func (p *Pipeline) CheckAt(ctx context.Context, claim model.ClaimContext) (*model.Result, error) {
	claim.Text = strings.TrimSpace(claim.Text)
	if claim.Text == "" {
		return nil, errors.New("claim text is empty")
	}

	start := time.Now()
	requestID := uuid.NewString()
	log := p.logger.With("request_id", requestID)
	log.Info("checking claim", "claim", claim.Text, "now", claim.Now.Format(time.DateOnly))

	pre, err := p.engine.Prepare(ctx, claim)
	if err != nil {
		return nil, err
	}
	if pre.Facts.HasConflict {
		log.Info("claim conflicts with a critical fact", "details", pre.Facts.ConflictDetails)
	}

	payload := p.fetchEvidence(ctx, log, claim, pre)
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("check cancelled: %w", err)
	}

	result := p.engine.Evaluate(ctx, claim, pre, payload)
	result.RequestID = requestID

	elapsed := time.Since(start)
	p.metrics.ObserveResult(result, elapsed)
	log.Info("claim checked",
		"verdict", result.Verdict,
		"score", result.Score,
		"confidence", result.Confidence.Level,
		"sources", len(result.Sources),
		"duration", elapsed)

	return result, nil
}

// fetchEvidence asks the oracle and decodes its answer. It never fails.
func (p *Pipeline) fetchEvidence(ctx context.Context, log *slog.Logger, claim model.ClaimContext, pre engine.Preflight) normalize.Payload {
	if !p.oracle.Enabled() {
		return normalize.Payload{Notes: []string{"No oracle configured: no candidate sources were requested"}}
	}

	resp, err := p.oracle.Evaluate(ctx, oracle.Request{
		Claim:    claim,
		Temporal: pre.Temporal,
		Facts:    pre.Facts,
	})
	if err != nil {
		log.Warn("oracle unavailable", "provider", p.oracle.ProviderName(), "error", err)
		return normalize.Payload{Notes: []string{fmt.Sprintf("Oracle unavailable, evaluated without sources: %v", err)}}
	}

	payload := normalize.DecodePayload(resp.Raw)
	log.Debug("oracle answered",
		"provider", p.oracle.ProviderName(),
		"model", resp.Model,
		"cached", resp.Cached,
		"tokens", resp.TokensUsed,
		"candidates", len(payload.Candidates))
	return payload
}

// RenderReport writes the requested outputs and prints the summary
func (p *Pipeline) RenderReport(result *model.Result, jsonPath, mdPath string, verbose bool) error {
	if jsonPath != "" {
		if err := p.renderer.RenderJSON(result, jsonPath); err != nil {
			return fmt.Errorf("render JSON: %w", err)
		}
		if verbose {
			p.logger.Info("wrote JSON report", "path", jsonPath)
		}
	}

	if mdPath != "" {
		if err := p.renderer.RenderMarkdown(result, mdPath); err != nil {
			return fmt.Errorf("render markdown: %w", err)
		}
		if verbose {
			p.logger.Info("wrote Markdown report", "path", mdPath)
		}
	}

	p.renderer.RenderSummary(result)
	return nil
}

// Renderer returns the pipeline renderer
func (p *Pipeline) Renderer() *Renderer {
	return p.renderer
}
