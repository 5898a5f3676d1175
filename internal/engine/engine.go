// Package engine wires the corroboration stages into a single evaluation:
// normalize, validate, deduplicate, verify links, resolve contradictions and
// score confidence.
package engine

import (
	"context"
	"fmt"
	"log/slog"
	"math"

	"golang.org/x/sync/errgroup"

	"github.com/ppiankov/credence/internal/confidence"
	"github.com/ppiankov/credence/internal/contradiction"
	"github.com/ppiankov/credence/internal/dedup"
	"github.com/ppiankov/credence/internal/facts"
	"github.com/ppiankov/credence/internal/linkcheck"
	"github.com/ppiankov/credence/internal/model"
	"github.com/ppiankov/credence/internal/normalize"
	"github.com/ppiankov/credence/internal/reference"
	"github.com/ppiankov/credence/internal/temporal"
)

// Preflight holds the claim-only analyses that run before evidence arrives
type Preflight struct {
	Temporal model.TemporalSignal
	Facts    model.FactCheckResult
}

// Engine evaluates one claim against oracle evidence. It holds no per-request
// state and is safe for concurrent use.
type Engine struct {
	cfg         model.EngineConfig
	interpreter *temporal.Interpreter
	facts       *facts.Checker
	normalizer  *normalize.Normalizer
	processor   *dedup.Processor
	resolver    *contradiction.Resolver
	scorer      *confidence.Scorer
	verifier    *linkcheck.Verifier
	logger      *slog.Logger
}

// Option configures an Engine
type Option func(*Engine)

// WithVerifier enables live link verification
func WithVerifier(v *linkcheck.Verifier) Option {
	return func(e *Engine) {
		e.verifier = v
	}
}

// WithLogger sets the diagnostic logger
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = l
	}
}

// New creates an engine over the given reference tables
func New(cfg model.EngineConfig, tables *reference.Tables, opts ...Option) *Engine {
	if tables == nil {
		tables = reference.Default()
	}
	defaults := model.DefaultConfig().Engine
	if cfg.BestSize <= 0 {
		cfg.BestSize = defaults.BestSize
	}
	if cfg.PoolSize <= 0 {
		cfg.PoolSize = defaults.PoolSize
	}

	e := &Engine{
		cfg:         cfg,
		interpreter: temporal.NewInterpreter(tables),
		facts:       facts.NewChecker(tables),
		normalizer:  normalize.NewNormalizer(tables),
		processor:   dedup.NewProcessor(tables, cfg.MinRationaleLength),
		resolver:    contradiction.NewResolver(contradiction.ParamsFromConfig(cfg)),
		scorer:      confidence.NewScorer(),
		logger:      slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Prepare runs the temporal interpreter and the critical fact checker
// concurrently. Both are pure; the only possible error is cancellation.
func (e *Engine) Prepare(ctx context.Context, claim model.ClaimContext) (Preflight, error) {
	var pre Preflight

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		pre.Temporal = e.interpreter.Interpret(claim.Text, claim.Now)
		return ctx.Err()
	})
	g.Go(func() error {
		pre.Facts = e.facts.Check(claim.Text, claim.Now)
		return ctx.Err()
	})
	if err := g.Wait(); err != nil {
		return Preflight{}, fmt.Errorf("preflight: %w", err)
	}

	return pre, nil
}

// Evaluate scores the oracle payload for a prepared claim. It never fails:
// bad candidates are dropped, dead links are replaced and zero evidence is
// reported as limited verification.
func (e *Engine) Evaluate(ctx context.Context, claim model.ClaimContext, pre Preflight, payload normalize.Payload) *model.Result {
	result := &model.Result{
		Claim:        claim.Text,
		Now:          claim.Now,
		DraftVerdict: payload.DraftVerdict,
		DraftScore:   payload.DraftScore,
		Temporal:     pre.Temporal,
		Facts:        pre.Facts,
	}
	result.Notes = append(result.Notes, payload.Notes...)

	// 1. Normalize at the boundary
	normalized := e.normalizer.Normalize(payload.Candidates)
	if dropped := len(payload.Candidates) - len(normalized); dropped > 0 {
		result.Notes = append(result.Notes, fmt.Sprintf("%d candidate source(s) dropped as malformed", dropped))
	}

	// 2. Validate, deduplicate, order by trust
	processed := e.processor.Process(normalized)
	if rejected := len(normalized) - len(processed); rejected > 0 {
		result.Notes = append(result.Notes, fmt.Sprintf("%d source(s) rejected as invalid or duplicate", rejected))
	}
	pool := processed
	if len(pool) > e.cfg.PoolSize {
		pool = pool[:e.cfg.PoolSize]
	}
	best := dedup.SelectBest(pool, e.cfg.BestSize)

	// 3. Live link verification
	dead := map[string]bool{}
	if e.verifier != nil && len(best) > 0 {
		v := e.verifier.Verify(ctx, best, pool)
		result.BestSources = v.Best
		result.LinkChecks = v.Statuses
		dead = v.Dead()
		if len(dead) > 0 {
			result.Notes = append(result.Notes, fmt.Sprintf("%d dead link(s) removed after %d check(s)", len(dead), v.ChecksUsed))
		}
	} else {
		for _, s := range best {
			result.BestSources = append(result.BestSources, model.VerifiedSource{Source: s})
		}
	}
	if result.BestSources == nil {
		result.BestSources = []model.VerifiedSource{}
	}

	// Confirmed-dead sources carry no weight
	scoring := make([]model.NormalizedSource, 0, len(pool))
	for _, s := range pool {
		if !dead[s.URL] {
			scoring = append(scoring, s)
		}
	}
	result.Sources = scoring

	// 4. Contradiction and confidence
	result.Assessment = e.resolver.Assess(scoring, pre.Temporal, pre.Facts.HasConflict)
	result.Conflict = model.ConflictExplanation{
		Found:         result.Assessment.HasContradiction,
		Type:          result.Assessment.Type,
		WeightedScore: result.Assessment.WeightedScore,
		Note:          result.Assessment.Resolution.Note,
	}
	result.Confidence = e.scorer.Calculate(ConfidenceInput(scoring, result.Assessment, pre, claim))

	// 5. Final score and verdict
	result.ScoreCap = model.MinCap(result.Confidence.ScoreCap, result.Assessment.Resolution.ScoreCap)
	result.Score = FinalScore(payload.DraftScore, result.Assessment.Resolution.PreferredStance, result.Confidence.Score, result.ScoreCap)

	if len(scoring) == 0 {
		result.LimitedVerification = true
		result.Verdict = model.VerdictUnverified
		result.Notes = append(result.Notes, "Limited verification: no usable sources were found")
	} else {
		result.Verdict = VerdictFor(result.Score)
	}
	result.Notes = append(result.Notes, pre.Facts.ConflictDetails...)

	e.logger.Debug("claim evaluated",
		"candidates", len(payload.Candidates),
		"sources", len(scoring),
		"best", len(result.BestSources),
		"contradiction", result.Assessment.Type,
		"confidence", result.Confidence.Score,
		"score", result.Score,
		"verdict", result.Verdict)

	return result
}

// ConfidenceInput summarises the scoring set from the side the resolver
// settled on
func ConfidenceInput(sources []model.NormalizedSource, a model.ContradictionAssessment, pre Preflight, claim model.ClaimContext) confidence.Input {
	side := model.StanceCorroborating
	if a.Resolution.PreferredStance == model.PreferContradicting {
		side = model.StanceContradicting
	}

	in := confidence.Input{
		TotalSources:      len(sources),
		HasContradictions: a.Type == model.ContradictionHard,
		TimeSensitive:     pre.Temporal.RequiresRecentSources || pre.Facts.RequiresEnhancedVerification,
		OnlyWeakSources:   len(sources) > 0,
	}

	recent := claim.Now.Year() - 1
	var support, contra int
	for _, s := range sources {
		if s.TrustTier != model.TierLow {
			in.OnlyWeakSources = false
		}
		switch s.Stance {
		case model.StanceCorroborating:
			support++
		case model.StanceContradicting:
			contra++
		}
		if s.Stance != side {
			continue
		}
		switch s.TrustTier {
		case model.TierHigh:
			in.OfficialSourceCount++
		case model.TierMedium:
			in.MajorNewsSourceCount++
		}
		if s.AsOfYear >= recent {
			in.HasRecentConfirmation = true
		}
	}

	switch {
	case support+contra == 0:
		in.SourceAgreement = model.AgreementNone
	case a.Type == model.ContradictionHard && a.Resolution.PreferredStance == model.PreferUncertain:
		in.SourceAgreement = model.AgreementConflicting
	case (support == 0 || contra == 0) && support+contra >= 2:
		in.SourceAgreement = model.AgreementStrong
	default:
		in.SourceAgreement = model.AgreementPartial
	}

	return in
}

// FinalScore derives a score from the preferred stance and confidence. An
// oracle draft is taken as is only when the evidence corroborates the claim;
// otherwise it can lower the derived score but never raise it. The cap is
// applied last.
func FinalScore(draft *int, preferred model.PreferredStance, conf float64, limit *int) int {
	var score float64
	switch preferred {
	case model.PreferCorroborating:
		score = 50 + 50*conf
	case model.PreferContradicting:
		score = 50 - 50*conf
	default:
		score = 50
	}

	if draft != nil {
		d := float64(*draft)
		if preferred == model.PreferCorroborating || d < score {
			score = d
		}
	}

	s := int(math.Round(math.Max(0, math.Min(100, score))))
	if limit != nil && s > *limit {
		s = *limit
	}
	return s
}

// VerdictFor maps a final score onto a verdict
func VerdictFor(score int) model.Verdict {
	switch {
	case score >= 75:
		return model.VerdictCredible
	case score >= 55:
		return model.VerdictMostlyCredible
	case score >= 40:
		return model.VerdictUncertain
	case score >= 20:
		return model.VerdictMisleading
	default:
		return model.VerdictNotCredible
	}
}
