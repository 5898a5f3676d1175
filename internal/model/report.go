package model

import "time"

// ContradictionType classifies disagreement between supporting and contradicting evidence
type ContradictionType string

const (
	ContradictionHard            ContradictionType = "hard"
	ContradictionTemporalShift   ContradictionType = "temporal_shift"
	ContradictionScopeDifference ContradictionType = "scope_difference"
	ContradictionNone            ContradictionType = "none"
)

// PreferredStance is the side the resolver settles on
type PreferredStance string

const (
	PreferCorroborating PreferredStance = "corroborating"
	PreferContradicting PreferredStance = "contradicting"
	PreferUncertain     PreferredStance = "uncertain"
)

// ConfidenceLevel is the coarse confidence bucket
type ConfidenceLevel string

const (
	ConfidenceLow    ConfidenceLevel = "low"
	ConfidenceMedium ConfidenceLevel = "medium"
	ConfidenceHigh   ConfidenceLevel = "high"
)

// Resolution is how a contradiction should be read
type Resolution struct {
	PreferredStance PreferredStance `json:"preferred_stance"`
	ConfidenceLevel ConfidenceLevel `json:"confidence_level"`
	ScoreCap        *int            `json:"score_cap,omitempty"`
	Note            string          `json:"note"`
}

// ContradictionAssessment is the output of the weighted contradiction resolver
type ContradictionAssessment struct {
	HasContradiction bool              `json:"has_contradiction"`
	Type             ContradictionType `json:"type"`
	WeightedScore    float64           `json:"weighted_score"` // 0..100
	SupportWeight    float64           `json:"support_weight"`
	ContradictWeight float64           `json:"contradict_weight"`
	Resolution       Resolution        `json:"resolution"`
}

// SourceAgreement summarises how the evidence agrees
type SourceAgreement string

const (
	AgreementStrong      SourceAgreement = "strong"
	AgreementPartial     SourceAgreement = "partial"
	AgreementConflicting SourceAgreement = "conflicting"
	AgreementNone        SourceAgreement = "none"
)

// Adjustment is one audit-trail entry of the confidence scorer
type Adjustment struct {
	Delta  float64 `json:"delta"`
	Reason string  `json:"reason"`
}

// ConfidenceResult is the output of the dynamic confidence scorer
type ConfidenceResult struct {
	Score       float64         `json:"score"` // 0.05..0.98
	Level       ConfidenceLevel `json:"level"`
	ScoreCap    *int            `json:"score_cap,omitempty"`
	Adjustments []Adjustment    `json:"adjustments"`
}

// Verdict is the final user-facing classification
type Verdict string

const (
	VerdictCredible       Verdict = "credible"
	VerdictMostlyCredible Verdict = "mostly_credible"
	VerdictUncertain      Verdict = "uncertain"
	VerdictMisleading     Verdict = "misleading"
	VerdictNotCredible    Verdict = "not_credible"
	VerdictUnverified     Verdict = "unverified" // No usable evidence: limited verification
)

// ConflictExplanation is the rendering-facing view of the contradiction assessment
type ConflictExplanation struct {
	Found         bool              `json:"found"`
	Type          ContradictionType `json:"type"`
	WeightedScore float64           `json:"weighted_score"`
	Note          string            `json:"note"`
}

// Result is the complete structure handed to the rendering layer
type Result struct {
	RequestID string    `json:"request_id,omitempty"`
	Claim     string    `json:"claim"`
	Now       time.Time `json:"now"`

	Verdict             Verdict `json:"verdict"`
	Score               int     `json:"score"` // 0-100, already capped
	ScoreCap            *int    `json:"score_cap,omitempty"`
	LimitedVerification bool    `json:"limited_verification"`

	DraftVerdict string `json:"draft_verdict,omitempty"` // Oracle's advisory verdict
	DraftScore   *int   `json:"draft_score,omitempty"`

	Confidence ConfidenceResult        `json:"confidence"`
	Temporal   TemporalSignal          `json:"temporal"`
	Facts      FactCheckResult         `json:"facts"`
	Assessment ContradictionAssessment `json:"assessment"`
	Conflict   ConflictExplanation     `json:"conflict"`

	BestSources []VerifiedSource   `json:"best_sources"`
	Sources     []NormalizedSource `json:"sources"`
	LinkChecks  []LinkStatus       `json:"link_checks,omitempty"`

	Notes []string `json:"notes,omitempty"`
}

// IntPtr returns a pointer to v
func IntPtr(v int) *int {
	return &v
}

// MinCap returns the stricter of two optional caps
func MinCap(a, b *int) *int {
	switch {
	case a == nil:
		return b
	case b == nil:
		return a
	case *b < *a:
		return b
	default:
		return a
	}
}
