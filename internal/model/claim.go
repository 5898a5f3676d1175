package model

import "time"

// ClaimContext is the immutable input of one evaluation
type ClaimContext struct {
	Text string    `json:"text"` // The claim under evaluation
	Now  time.Time `json:"now"`  // Injected wall-clock date; never read ad hoc
}

// ReferenceType classifies the temporal reference a claim makes
type ReferenceType string

const (
	RefCurrent      ReferenceType = "current"       // "currently", "now", current/prior year
	RefPast         ReferenceType = "past"          // "was", "formerly", "ago"
	RefFuture       ReferenceType = "future"        // "will be", "upcoming", later year
	RefSpecificYear ReferenceType = "specific_year" // explicit historical year
	RefRelative     ReferenceType = "relative"      // "recently", "last year"
	RefNone         ReferenceType = "none"
)

// TemporalSignal describes the time sensitivity of a claim
type TemporalSignal struct {
	HasReference          bool          `json:"has_reference"`
	ReferenceType         ReferenceType `json:"reference_type"`
	TargetYear            *int          `json:"target_year,omitempty"`
	RequiresRecentSources bool          `json:"requires_recent_sources"`
	TimeSensitiveTopics   []string      `json:"time_sensitive_topics,omitempty"` // Topics that forced recency
}

// CriticalFact is a time-bounded fact such as "who holds role X"
type CriticalFact struct {
	Subject        string     `json:"subject"`
	SubjectAliases []string   `json:"subject_aliases,omitempty"`
	Role           string     `json:"role"`
	RoleAliases    []string   `json:"role_aliases,omitempty"`
	Entity         string     `json:"entity"`
	EntityAliases  []string   `json:"entity_aliases,omitempty"`
	ValidFrom      time.Time  `json:"valid_from"`
	ValidUntil     *time.Time `json:"valid_until,omitempty"` // nil means "present"
}

// IsCurrentAt reports whether the fact holds at the given date
func (f CriticalFact) IsCurrentAt(now time.Time) bool {
	if now.Before(f.ValidFrom) {
		return false
	}
	return f.ValidUntil == nil || now.Before(*f.ValidUntil)
}

// FactMatchKind distinguishes hard conflicts from softer stale-claim hints
type FactMatchKind string

const (
	FactMatchConflict   FactMatchKind = "conflict"
	FactMatchStaleClaim FactMatchKind = "possible_stale_claim"
)

// FactMatch records a critical fact the claim touched
type FactMatch struct {
	Fact CriticalFact  `json:"fact"`
	Kind FactMatchKind `json:"kind"`
	Note string        `json:"note"`
}

// FactCheckResult annotates a claim against the critical fact table
type FactCheckResult struct {
	HasConflict                  bool        `json:"has_conflict"`
	ConflictDetails              []string    `json:"conflict_details,omitempty"`
	MatchedFacts                 []FactMatch `json:"matched_facts,omitempty"`
	RequiresEnhancedVerification bool        `json:"requires_enhanced_verification"`
}
