// Package reference holds the static tables the engine matches against:
// critical facts, trusted domains, URL patterns and topic lists. Tables are
// compiled once and are safe for concurrent reads.
package reference

import (
	_ "embed"
	"fmt"
	"os"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/ppiankov/credence/internal/model"
	"gopkg.in/yaml.v3"
)

//go:embed defaults.yaml
var defaultTables []byte

const dateLayout = "2006-01-02"

// File is the YAML shape of a reference table file
type File struct {
	CriticalFacts          []FactEntry    `yaml:"critical_facts"`
	TrustedDomains         TrustedDomains `yaml:"trusted_domains"`
	HighTrustPattern       string         `yaml:"high_trust_pattern"`
	MediumTrustPattern     string         `yaml:"medium_trust_pattern"`
	HubPaths               []string       `yaml:"hub_paths"`
	BadURLPatterns         []string       `yaml:"bad_url_patterns"`
	BroadReferencePatterns []string       `yaml:"broad_reference_patterns"`
	BotBlockingDomains     []string       `yaml:"bot_blocking_domains"`
	TimeSensitiveTopics    []string       `yaml:"time_sensitive_topics"`
	TrackingParams         []string       `yaml:"tracking_params"`
	SuspiciousTLDs         []string       `yaml:"suspicious_tlds"`
	SuspiciousKeywords     []string       `yaml:"suspicious_keywords"`
}

// TrustedDomains lists domains per trust tier
type TrustedDomains struct {
	High   []string `yaml:"high"`
	Medium []string `yaml:"medium"`
}

// FactEntry is the YAML form of a critical fact
type FactEntry struct {
	Subject        string   `yaml:"subject"`
	SubjectAliases []string `yaml:"subject_aliases"`
	Role           string   `yaml:"role"`
	RoleAliases    []string `yaml:"role_aliases"`
	Entity         string   `yaml:"entity"`
	EntityAliases  []string `yaml:"entity_aliases"`
	ValidFrom      string   `yaml:"valid_from"`
	ValidUntil     string   `yaml:"valid_until"` // Date or "present"
}

// Tables is the compiled, read-only form of a reference file
type Tables struct {
	facts          []model.CriticalFact
	highDomains    []string
	mediumDomains  []string
	highTrust      *regexp.Regexp
	mediumTrust    *regexp.Regexp
	hubPaths       map[string]bool
	badURL         []*regexp.Regexp
	broadReference []*regexp.Regexp
	botBlocking    []string
	topics         []string
	topicPattern   *regexp.Regexp
	tracking       map[string]bool
	suspiciousTLDs map[string]bool
	suspiciousKeys []string
}

// Default returns the built-in tables, compiled on first use and shared
// by every caller afterwards
func Default() *Tables {
	return builtin()
}

var builtin = sync.OnceValue(func() *Tables {
	t, err := Parse(defaultTables)
	if err != nil {
		panic(fmt.Sprintf("reference: built-in tables are invalid: %v", err))
	}
	return t
})

// Load reads tables from a YAML file; an empty path returns the built-in tables
func Load(path string) (*Tables, error) {
	if path == "" {
		return Default(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read reference tables: %w", err)
	}

	return Parse(data)
}

// Parse compiles tables from YAML
func Parse(data []byte) (*Tables, error) {
	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse reference tables: %w", err)
	}
	return Compile(f)
}

// Compile validates a File and builds the immutable Tables
func Compile(f File) (*Tables, error) {
	t := &Tables{
		highDomains:    lowerAll(f.TrustedDomains.High),
		mediumDomains:  lowerAll(f.TrustedDomains.Medium),
		hubPaths:       make(map[string]bool),
		botBlocking:    lowerAll(f.BotBlockingDomains),
		topics:         lowerAll(f.TimeSensitiveTopics),
		tracking:       make(map[string]bool),
		suspiciousTLDs: make(map[string]bool),
		suspiciousKeys: lowerAll(f.SuspiciousKeywords),
	}

	for i, entry := range f.CriticalFacts {
		fact, err := entry.toFact()
		if err != nil {
			return nil, fmt.Errorf("critical fact %d (%s): %w", i, entry.Subject, err)
		}
		t.facts = append(t.facts, fact)
	}

	var err error
	if t.highTrust, err = compileOptional(f.HighTrustPattern); err != nil {
		return nil, fmt.Errorf("high trust pattern: %w", err)
	}
	if t.mediumTrust, err = compileOptional(f.MediumTrustPattern); err != nil {
		return nil, fmt.Errorf("medium trust pattern: %w", err)
	}
	if t.badURL, err = compileAll(f.BadURLPatterns); err != nil {
		return nil, fmt.Errorf("bad URL patterns: %w", err)
	}
	if t.broadReference, err = compileAll(f.BroadReferencePatterns); err != nil {
		return nil, fmt.Errorf("broad reference patterns: %w", err)
	}

	for _, hub := range f.HubPaths {
		t.hubPaths[strings.Trim(strings.ToLower(hub), "/")] = true
	}
	for _, param := range f.TrackingParams {
		t.tracking[strings.ToLower(param)] = true
	}
	for _, tld := range f.SuspiciousTLDs {
		t.suspiciousTLDs[strings.TrimPrefix(strings.ToLower(tld), ".")] = true
	}

	if len(t.topics) > 0 {
		quoted := make([]string, len(t.topics))
		for i, topic := range t.topics {
			quoted[i] = regexp.QuoteMeta(topic)
		}
		t.topicPattern = regexp.MustCompile(`\b(` + strings.Join(quoted, "|") + `)\b`)
	}

	return t, nil
}

func (e FactEntry) toFact() (model.CriticalFact, error) {
	if e.Subject == "" || e.Role == "" {
		return model.CriticalFact{}, fmt.Errorf("subject and role are required")
	}

	from, err := time.Parse(dateLayout, e.ValidFrom)
	if err != nil {
		return model.CriticalFact{}, fmt.Errorf("valid_from: %w", err)
	}

	fact := model.CriticalFact{
		Subject:        strings.ToLower(e.Subject),
		SubjectAliases: lowerAll(e.SubjectAliases),
		Role:           strings.ToLower(e.Role),
		RoleAliases:    lowerAll(e.RoleAliases),
		Entity:         strings.ToLower(e.Entity),
		EntityAliases:  lowerAll(e.EntityAliases),
		ValidFrom:      from,
	}

	until := strings.ToLower(strings.TrimSpace(e.ValidUntil))
	if until != "" && until != "present" {
		end, err := time.Parse(dateLayout, until)
		if err != nil {
			return model.CriticalFact{}, fmt.Errorf("valid_until: %w", err)
		}
		fact.ValidUntil = &end
	}

	return fact, nil
}

// CriticalFacts returns a copy of the fact table
func (t *Tables) CriticalFacts() []model.CriticalFact {
	out := make([]model.CriticalFact, len(t.facts))
	copy(out, t.facts)
	return out
}

// DomainTier returns the tier of an explicitly trusted domain
func (t *Tables) DomainTier(host string) (model.TrustTier, bool) {
	host = CleanHost(host)
	if matchesAny(host, t.highDomains) {
		return model.TierHigh, true
	}
	if matchesAny(host, t.mediumDomains) {
		return model.TierMedium, true
	}
	return "", false
}

// IsTrustedDomain reports whether the host is in a trusted list or carries an official TLD
func (t *Tables) IsTrustedDomain(host string) bool {
	if _, ok := t.DomainTier(host); ok {
		return true
	}
	return HasOfficialTLD(host)
}

// PatternTier matches free text (title + URL) against the trust regexes
func (t *Tables) PatternTier(text string) (model.TrustTier, bool) {
	if t.highTrust != nil && t.highTrust.MatchString(text) {
		return model.TierHigh, true
	}
	if t.mediumTrust != nil && t.mediumTrust.MatchString(text) {
		return model.TierMedium, true
	}
	return "", false
}

// IsHubPath reports whether a path segment names a section/hub page
func (t *Tables) IsHubPath(segment string) bool {
	return t.hubPaths[strings.ToLower(segment)]
}

// IsBadURL matches 404/error/redirect markers
func (t *Tables) IsBadURL(rawURL string) bool {
	return matchesPattern(rawURL, t.badURL)
}

// IsBroadReference matches over-broad encyclopedia anchors
func (t *Tables) IsBroadReference(rawURL string) bool {
	return matchesPattern(rawURL, t.broadReference)
}

// IsBotBlocking reports whether a 403 from this host should still count as live
func (t *Tables) IsBotBlocking(host string) bool {
	host = CleanHost(host)
	return matchesAny(host, t.botBlocking) || HasOfficialTLD(host)
}

// TimeSensitiveTopics returns the topics mentioned in lower-cased text
func (t *Tables) TimeSensitiveTopics(lower string) []string {
	if t.topicPattern == nil {
		return nil
	}

	seen := make(map[string]bool)
	var found []string
	for _, m := range t.topicPattern.FindAllString(lower, -1) {
		if !seen[m] {
			seen[m] = true
			found = append(found, m)
		}
	}
	return found
}

// IsTrackingParam reports whether a query parameter only tracks the click
func (t *Tables) IsTrackingParam(name string) bool {
	name = strings.ToLower(name)
	return t.tracking[name] || strings.HasPrefix(name, "utm_")
}

// IsSuspicious reports throwaway TLDs and clickbait keywords in a URL
func (t *Tables) IsSuspicious(host, rawURL string) bool {
	host = CleanHost(host)
	if idx := strings.LastIndex(host, "."); idx >= 0 && t.suspiciousTLDs[host[idx+1:]] {
		return true
	}

	lower := strings.ToLower(rawURL)
	for _, kw := range t.suspiciousKeys {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}

// CleanHost lower-cases a host and strips the port and a leading "www."
func CleanHost(host string) string {
	host = strings.ToLower(host)
	if idx := strings.LastIndex(host, ":"); idx > 0 && !strings.Contains(host[idx:], "]") {
		host = host[:idx]
	}
	return strings.TrimPrefix(host, "www.")
}

// HasOfficialTLD reports government and academic hosts
func HasOfficialTLD(host string) bool {
	host = CleanHost(host)
	if strings.HasSuffix(host, ".gov") || strings.HasSuffix(host, ".edu") ||
		strings.HasSuffix(host, ".mil") || strings.HasSuffix(host, ".ac.uk") {
		return true
	}
	// Country government domains: gov.uk, gov.au, ...
	return strings.Contains(host, ".gov.") || strings.HasPrefix(host, "gov.")
}

func matchesAny(host string, domains []string) bool {
	for _, domain := range domains {
		if host == domain || strings.HasSuffix(host, "."+domain) {
			return true
		}
	}
	return false
}

func matchesPattern(s string, patterns []*regexp.Regexp) bool {
	for _, re := range patterns {
		if re.MatchString(s) {
			return true
		}
	}
	return false
}

func compileOptional(pattern string) (*regexp.Regexp, error) {
	if pattern == "" {
		return nil, nil
	}
	return regexp.Compile(pattern)
}

func compileAll(patterns []string) ([]*regexp.Regexp, error) {
	compiled := make([]*regexp.Regexp, 0, len(patterns))
	for _, p := range patterns {
		re, err := regexp.Compile(p)
		if err != nil {
			return nil, fmt.Errorf("%q: %w", p, err)
		}
		compiled = append(compiled, re)
	}
	return compiled, nil
}

func lowerAll(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		if s = strings.ToLower(strings.TrimSpace(s)); s != "" {
			out = append(out, s)
		}
	}
	return out
}
