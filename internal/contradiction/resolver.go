// Package contradiction weighs supporting against contradicting evidence and
// decides whether a disagreement is unresolved or explained by time.
package contradiction

import (
	"fmt"
	"math"

	"github.com/ppiankov/credence/internal/model"
)

// Score caps applied to unresolved disagreement
const (
	hardCap             = 55
	hardCapWithFact     = 35
	moderateCapWithFact = 40
)

// Params tunes the resolver
type Params struct {
	NeutralWeight  float64 // Share of a neutral source's weight counted as support
	HardThreshold  float64 // Weighted score above which disagreement is unresolved
	ScopeThreshold float64 // Weighted score at or below which disagreement is a scope difference
}

// DefaultParams returns the built-in tuning
func DefaultParams() Params {
	return ParamsFromConfig(model.DefaultConfig().Engine)
}

// ParamsFromConfig extracts resolver tuning from the engine config
func ParamsFromConfig(cfg model.EngineConfig) Params {
	return Params{
		NeutralWeight:  cfg.NeutralWeight,
		HardThreshold:  cfg.HardThreshold,
		ScopeThreshold: cfg.ScopeThreshold,
	}
}

// TierWeight maps a trust tier onto its evidence weight
func TierWeight(t model.TrustTier) float64 {
	switch t {
	case model.TierHigh:
		return 3.0
	case model.TierMedium:
		return 2.0
	default:
		return 1.0
	}
}

// side accumulates one side of the disagreement
type side struct {
	weight    float64
	count     int
	hasHigh   bool
	hasMedium bool
	yearSum   int
	dated     int
}

func (s *side) add(src model.NormalizedSource, weight float64) {
	s.weight += weight
	s.count++
	s.hasHigh = s.hasHigh || src.TrustTier == model.TierHigh
	s.hasMedium = s.hasMedium || src.TrustTier == model.TierMedium
	if src.AsOfYear > 0 {
		s.yearSum += src.AsOfYear
		s.dated++
	}
}

func (s *side) avgYear() float64 {
	return float64(s.yearSum) / float64(s.dated)
}

// Resolver computes weighted contradiction assessments
type Resolver struct {
	params Params
}

// NewResolver creates a resolver
func NewResolver(params Params) *Resolver {
	return &Resolver{params: params}
}

// Assess weighs the stance-tagged sources. factConflict tightens caps when the
// critical fact checker already flagged the claim.
func (r *Resolver) Assess(sources []model.NormalizedSource, temporal model.TemporalSignal, factConflict bool) model.ContradictionAssessment {
	var support, contra side
	for _, src := range sources {
		w := TierWeight(src.TrustTier)
		switch src.Stance {
		case model.StanceCorroborating:
			support.add(src, w)
		case model.StanceContradicting:
			contra.add(src, w)
		default:
			// Neutral and unknown stances count as weak support
			support.add(src, w*r.params.NeutralWeight)
		}
	}

	a := model.ContradictionAssessment{
		Type:             model.ContradictionNone,
		SupportWeight:    round2(support.weight),
		ContradictWeight: round2(contra.weight),
	}

	switch {
	case support.count == 0 && contra.count == 0:
		a.Resolution = model.Resolution{
			PreferredStance: model.PreferUncertain,
			ConfidenceLevel: model.ConfidenceLow,
			Note:            "No stance-tagged evidence was available to weigh.",
		}
		return a

	case contra.count == 0:
		a.Resolution = model.Resolution{
			PreferredStance: model.PreferCorroborating,
			ConfidenceLevel: model.ConfidenceHigh,
			Note:            fmt.Sprintf("No contradicting evidence among %d source(s).", support.count),
		}
		return a

	case support.weight == 0:
		// Unanimous refutation, not a disagreement between sources
		a.WeightedScore = 100
		a.Resolution = model.Resolution{
			PreferredStance: model.PreferContradicting,
			ConfidenceLevel: model.ConfidenceHigh,
			Note:            fmt.Sprintf("All %d weighed source(s) contradict the claim.", contra.count),
		}
		return a
	}

	score := 100 * contra.weight / (support.weight + contra.weight)
	if support.hasHigh && contra.hasHigh {
		score *= 1.5
	}
	if support.hasMedium && contra.hasMedium {
		score *= 1.25
	}
	score = math.Min(score, 100)
	a.WeightedScore = round2(score)
	a.HasContradiction = true

	if support.dated > 0 && contra.dated > 0 && temporal.ReferenceType == model.RefCurrent {
		supportYear, contraYear := support.avgYear(), contra.avgYear()
		if math.Abs(contraYear-supportYear) >= 1 {
			a.Type = model.ContradictionTemporalShift
			a.Resolution = temporalResolution(support, contra, supportYear, contraYear)
			return a
		}
	}

	switch {
	case score > r.params.HardThreshold:
		limit := hardCap
		if factConflict {
			limit = hardCapWithFact
		}
		a.Type = model.ContradictionHard
		a.Resolution = model.Resolution{
			PreferredStance: model.PreferUncertain,
			ConfidenceLevel: model.ConfidenceLow,
			ScoreCap:        model.IntPtr(limit),
			Note: fmt.Sprintf("Credible sources disagree (weighted contradiction %.0f/100); the claim cannot be resolved either way.",
				score),
		}

	case score > r.params.ScopeThreshold:
		a.Type = model.ContradictionHard
		a.Resolution = model.Resolution{
			PreferredStance: heavierSide(support.weight, contra.weight),
			ConfidenceLevel: model.ConfidenceMedium,
			Note: fmt.Sprintf("Sources partly disagree (weighted contradiction %.0f/100); the better-supported side is preferred.",
				score),
		}
		if factConflict {
			a.Resolution.ScoreCap = model.IntPtr(moderateCapWithFact)
		}

	default:
		a.Type = model.ContradictionScopeDifference
		a.Resolution = model.Resolution{
			PreferredStance: model.PreferCorroborating,
			ConfidenceLevel: model.ConfidenceMedium,
			Note: fmt.Sprintf("Minor disagreement (weighted contradiction %.0f/100), most likely a difference in scope or framing.",
				score),
		}
	}

	return a
}

func temporalResolution(support, contra side, supportYear, contraYear float64) model.Resolution {
	preferred, newer, older := model.PreferContradicting, contra, support
	newerYear, olderYear := contraYear, supportYear
	if supportYear > contraYear {
		preferred, newer, older = model.PreferCorroborating, support, contra
		newerYear, olderYear = supportYear, contraYear
	}

	level := model.ConfidenceMedium
	if newer.weight >= older.weight {
		level = model.ConfidenceHigh
	}

	return model.Resolution{
		PreferredStance: preferred,
		ConfidenceLevel: level,
		Note: fmt.Sprintf("Sources disagree because they describe different points in time (%.0f vs %.0f); the more recent %s evidence is preferred.",
			olderYear, newerYear, preferred),
	}
}

func heavierSide(support, contra float64) model.PreferredStance {
	switch {
	case contra > support:
		return model.PreferContradicting
	case support > contra:
		return model.PreferCorroborating
	default:
		return model.PreferUncertain
	}
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
