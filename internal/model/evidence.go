package model

import "strings"

// TrustTier represents the coarse reliability class of a source
type TrustTier string

const (
	TierHigh   TrustTier = "high"   // Government, academic, wire services, global health bodies
	TierMedium TrustTier = "medium" // Major newspapers and broadcasters
	TierLow    TrustTier = "low"    // Everything else; the conservative default
)

// Rank orders tiers for sorting (high first)
func (t TrustTier) Rank() int {
	switch t {
	case TierHigh:
		return 0
	case TierMedium:
		return 1
	default:
		return 2
	}
}

// ParseTrustTier maps tier labels used by oracles onto a TrustTier
func ParseTrustTier(s string) (TrustTier, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "high", "official", "primary", "1":
		return TierHigh, true
	case "medium", "major_news", "major-news", "secondary", "2":
		return TierMedium, true
	case "low", "other", "tertiary", "3":
		return TierLow, true
	default:
		return "", false
	}
}

// Stance is the position a source takes on the claim
type Stance string

const (
	StanceCorroborating Stance = "corroborating"
	StanceNeutral       Stance = "neutral"
	StanceContradicting Stance = "contradicting"
	StanceUnknown       Stance = ""
)

// ParseStance maps loose stance labels onto a Stance
func ParseStance(s string) Stance {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "corroborating", "corroborates", "supporting", "supports", "support", "for", "confirms":
		return StanceCorroborating
	case "contradicting", "contradicts", "refutes", "refuting", "against", "disputes":
		return StanceContradicting
	case "neutral", "context", "mixed", "background":
		return StanceNeutral
	default:
		return StanceUnknown
	}
}

// Candidate is a raw evidence item proposed by the oracle. The set of
// implementations is closed: ArticleCandidate and LegacyCandidate.
type Candidate interface {
	candidate()
}

// ArticleCandidate is the current oracle shape: one flat list, stance per item
type ArticleCandidate struct {
	Title        string
	URL          string
	ArticleURL   string
	CanonicalURL string
	Publisher    string
	Snippet      string
	TrustTier    string
	Stance       string
	Score        *float64
	Published    string // Date or year as returned by the oracle
}

func (ArticleCandidate) candidate() {}

// LegacyCandidate is the older shape: sources grouped into stance buckets
type LegacyCandidate struct {
	Name         string
	URL          string
	Publisher    string
	WhyItMatters string
	Published    string
	Bucket       Stance // Bucket the item was listed under
}

func (LegacyCandidate) candidate() {}

// NormalizedSource is the canonical evidence record used by the engine
type NormalizedSource struct {
	Title        string    `json:"title"`
	Publisher    string    `json:"publisher,omitempty"`
	URL          string    `json:"url"`
	TrustTier    TrustTier `json:"trust_tier"`
	Stance       Stance    `json:"stance,omitempty"`
	Rationale    string    `json:"rationale"`
	IsGenericURL bool      `json:"is_generic_url"`
	AsOfYear     int       `json:"as_of_year,omitempty"` // 0 when unknown
}

// LinkStatus is the outcome of one live-link check
type LinkStatus struct {
	URL        string `json:"url"`
	IsLive     bool   `json:"is_live"`
	StatusCode int    `json:"status_code,omitempty"`
	Method     string `json:"method,omitempty"` // HEAD or GET
	Error      string `json:"error,omitempty"`
}

// VerifiedSource is a best-list entry together with its link state
type VerifiedSource struct {
	Source         NormalizedSource `json:"source"`
	Checked        bool             `json:"checked"`
	IsLive         bool             `json:"is_live"`
	ReplacementFor string           `json:"replacement_for,omitempty"` // Dead URL this entry replaced
}
