// Package confidence turns evidence counts into a bounded confidence score
// with an audit trail of every adjustment applied.
package confidence

import (
	"fmt"
	"math"

	"github.com/ppiankov/credence/internal/model"
)

const (
	baseConfidence = 0.5
	minConfidence  = 0.05
	maxConfidence  = 0.98

	// Zero evidence is pinned regardless of anything else
	noEvidenceConfidence = 0.15
	noEvidenceCap        = 40

	highThreshold   = 0.75
	mediumThreshold = 0.45
)

// Input is the evidence summary the scorer works from
type Input struct {
	OfficialSourceCount   int
	MajorNewsSourceCount  int
	TotalSources          int
	SourceAgreement       model.SourceAgreement
	HasRecentConfirmation bool
	HasContradictions     bool
	OnlyWeakSources       bool
	TimeSensitive         bool
}

// Scorer calculates dynamic confidence
type Scorer struct{}

// NewScorer creates a new scorer
func NewScorer() *Scorer {
	return &Scorer{}
}

// Calculate applies the ordered adjustments to the base confidence
func (s *Scorer) Calculate(in Input) model.ConfidenceResult {
	if in.TotalSources <= 0 {
		return model.ConfidenceResult{
			Score:    noEvidenceConfidence,
			Level:    model.ConfidenceLow,
			ScoreCap: model.IntPtr(noEvidenceCap),
			Adjustments: []model.Adjustment{{
				Delta:  noEvidenceConfidence - baseConfidence,
				Reason: "No sources found: confidence pinned to the floor for limited verification",
			}},
		}
	}

	t := &trail{score: baseConfidence}

	// 1. Official sources
	switch {
	case in.OfficialSourceCount >= 2:
		t.apply(0.25, fmt.Sprintf("%d official sources", in.OfficialSourceCount))
	case in.OfficialSourceCount == 1:
		t.apply(0.15, "1 official source")
	}

	// 2. Major news
	switch {
	case in.MajorNewsSourceCount >= 2:
		t.apply(0.15, fmt.Sprintf("%d major news sources", in.MajorNewsSourceCount))
	case in.MajorNewsSourceCount == 1:
		t.apply(0.08, "1 major news source")
	}

	// 3. Agreement
	if in.SourceAgreement == model.AgreementStrong && in.TotalSources >= 3 {
		t.apply(0.12, fmt.Sprintf("Strong agreement across %d sources", in.TotalSources))
	}

	// 4. Recency
	if in.HasRecentConfirmation {
		t.apply(0.08, "Confirmed by recent sources")
	}

	// 5. Penalties, each with a cap
	if in.HasContradictions {
		t.apply(-0.25, "Credible sources contradict each other")
		t.limit(55)
	}
	if in.SourceAgreement == model.AgreementConflicting {
		t.apply(-0.20, "Source agreement is conflicting")
		t.limit(50)
	}
	if in.OnlyWeakSources {
		t.apply(-0.15, "Only weak or indirect sources")
		t.limit(60)
	}
	if in.TotalSources == 1 {
		t.apply(-0.10, "Single source")
		t.limit(70)
	}
	if in.TimeSensitive && !in.HasRecentConfirmation {
		t.apply(-0.12, "Time-sensitive claim without recent confirmation")
	}

	score := math.Max(minConfidence, math.Min(maxConfidence, t.score))
	score = math.Round(score*1000) / 1000

	return model.ConfidenceResult{
		Score:       score,
		Level:       Level(score),
		ScoreCap:    t.cap,
		Adjustments: t.adjustments,
	}
}

// Level buckets a confidence score
func Level(score float64) model.ConfidenceLevel {
	switch {
	case score >= highThreshold:
		return model.ConfidenceHigh
	case score >= mediumThreshold:
		return model.ConfidenceMedium
	default:
		return model.ConfidenceLow
	}
}

type trail struct {
	score       float64
	cap         *int
	adjustments []model.Adjustment
}

func (t *trail) apply(delta float64, reason string) {
	t.score += delta
	t.adjustments = append(t.adjustments, model.Adjustment{Delta: delta, Reason: reason})
}

// limit keeps the stricter cap
func (t *trail) limit(v int) {
	t.cap = model.MinCap(t.cap, model.IntPtr(v))
}
