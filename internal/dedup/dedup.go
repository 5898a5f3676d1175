// Package dedup validates, deduplicates and ranks normalized sources.
package dedup

import (
	"net/url"
	"regexp"
	"sort"
	"strings"

	"github.com/ppiankov/credence/internal/model"
	"github.com/ppiankov/credence/internal/reference"
	"github.com/ppiankov/credence/internal/util"
)

var (
	datedPath   = regexp.MustCompile(`/(19|20)\d{2}[/-](0?[1-9]|1[0-2])([/-]|$)`)
	articlePath = regexp.MustCompile(`(?i)/(article|articles|story|stories|news/articles)/`)
	slugSegment = regexp.MustCompile(`^[a-z0-9]+(-[a-z0-9]+){3,}(\.html?)?$`)
)

// Processor filters, deduplicates and sorts sources against the reference tables
type Processor struct {
	tables             *reference.Tables
	minRationaleLength int
}

// NewProcessor creates a processor. minRationale <= 0 disables the rationale check.
func NewProcessor(tables *reference.Tables, minRationale int) *Processor {
	if tables == nil {
		tables = reference.Default()
	}
	return &Processor{tables: tables, minRationaleLength: minRationale}
}

// IsValidSource reports whether a source is actionable evidence
func (p *Processor) IsValidSource(s model.NormalizedSource) bool {
	if strings.TrimSpace(s.URL) == "" {
		return false
	}

	u, err := url.Parse(s.URL)
	if err != nil || u.Hostname() == "" {
		return false
	}

	if p.tables.IsBadURL(s.URL) || p.tables.IsBroadReference(s.URL) {
		return false
	}
	if len([]rune(strings.TrimSpace(s.Rationale))) < p.minRationaleLength {
		return false
	}

	host := u.Hostname()
	trusted := p.tables.IsTrustedDomain(host)
	if !trusted && p.tables.IsSuspicious(host, s.URL) {
		return false
	}

	return trusted || IsDeepLink(u)
}

// IsDeepLink reports whether a URL looks like a specific article
func IsDeepLink(u *url.URL) bool {
	path := u.Path
	if datedPath.MatchString(path) || articlePath.MatchString(path) {
		return true
	}

	segments := strings.FieldsFunc(path, func(r rune) bool { return r == '/' })
	if len(segments) >= 3 {
		return true
	}
	for _, seg := range segments {
		if slugSegment.MatchString(strings.ToLower(seg)) {
			return true
		}
	}
	return false
}

// Filter keeps only valid sources, preserving order
func (p *Processor) Filter(sources []model.NormalizedSource) []model.NormalizedSource {
	out := make([]model.NormalizedSource, 0, len(sources))
	for _, s := range sources {
		if p.IsValidSource(s) {
			out = append(out, s)
		}
	}
	return out
}

// Key returns the dedup key of a URL: scheme dropped, host lower-cased without
// "www.", tracking parameters and fragment removed, remaining query sorted,
// trailing slash removed
func (p *Processor) Key(rawURL string) string {
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil || u.Host == "" {
		return strings.TrimSuffix(strings.ToLower(strings.TrimSpace(rawURL)), "/")
	}

	host := strings.TrimPrefix(strings.ToLower(u.Hostname()), "www.")
	if port := u.Port(); port != "" && port != "80" && port != "443" {
		host += ":" + port
	}

	query := u.Query()
	for name := range query {
		if p.tables.IsTrackingParam(name) {
			query.Del(name)
		}
	}

	key := host + strings.TrimSuffix(u.EscapedPath(), "/")
	if encoded := query.Encode(); encoded != "" { // Encode sorts by key
		key += "?" + encoded
	}
	return key
}

// Dedup collapses sources sharing a key. On collision the non-generic URL wins,
// then the higher trust tier, then the longer rationale, else the first seen.
// Output keeps first-seen order of keys.
func (p *Processor) Dedup(sources []model.NormalizedSource) []model.NormalizedSource {
	index := make(map[string]int, len(sources))
	out := make([]model.NormalizedSource, 0, len(sources))

	for _, s := range sources {
		key := p.Key(s.URL)
		if i, seen := index[key]; seen {
			if preferred(s, out[i]) {
				out[i] = s
			}
			continue
		}
		index[key] = len(out)
		out = append(out, s)
	}
	return out
}

// preferred reports whether candidate should replace current
func preferred(candidate, current model.NormalizedSource) bool {
	if candidate.IsGenericURL != current.IsGenericURL {
		return !candidate.IsGenericURL
	}
	if candidate.TrustTier.Rank() != current.TrustTier.Rank() {
		return candidate.TrustTier.Rank() < current.TrustTier.Rank()
	}
	return len(candidate.Rationale) > len(current.Rationale)
}

// Sort orders by trust tier (high first), then rationale length descending.
// The sort is stable and returns a new slice.
func Sort(sources []model.NormalizedSource) []model.NormalizedSource {
	out := make([]model.NormalizedSource, len(sources))
	copy(out, sources)
	sort.SliceStable(out, func(i, j int) bool {
		if ri, rj := out[i].TrustTier.Rank(), out[j].TrustTier.Rank(); ri != rj {
			return ri < rj
		}
		return len(out[i].Rationale) > len(out[j].Rationale)
	})
	return out
}

// Process filters, deduplicates and sorts. Process(Process(s)) == Process(s).
func (p *Processor) Process(sources []model.NormalizedSource) []model.NormalizedSource {
	return Sort(p.Dedup(p.Filter(sources)))
}

// SelectBest picks up to n sources with at most one per registrable domain.
// A generic URL is only selected when no non-generic source of equal or
// higher tier exists in the set. Input order is preserved.
func SelectBest(sources []model.NormalizedSource, n int) []model.NormalizedSource {
	if n <= 0 {
		return nil
	}

	// Best (lowest) tier rank among specific links
	bestSpecificRank := -1
	for _, s := range sources {
		if !s.IsGenericURL {
			if r := s.TrustTier.Rank(); bestSpecificRank < 0 || r < bestSpecificRank {
				bestSpecificRank = r
			}
		}
	}

	used := make(map[string]bool)
	var best []model.NormalizedSource
	for _, s := range sources {
		if len(best) == n {
			break
		}
		if s.IsGenericURL && bestSpecificRank >= 0 && bestSpecificRank <= s.TrustTier.Rank() {
			continue
		}
		domain := DomainOf(s.URL)
		if used[domain] {
			continue
		}
		used[domain] = true
		best = append(best, s)
	}
	return best
}

// DomainOf returns the registrable domain of a source URL
func DomainOf(rawURL string) string {
	return util.RegistrableDomain(util.Hostname(rawURL))
}
