// Package normalize turns heterogeneous oracle candidates into canonical sources.
package normalize

import (
	"net"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"unicode"

	"github.com/ppiankov/credence/internal/model"
	"github.com/ppiankov/credence/internal/reference"
	"github.com/ppiankov/credence/internal/util"
)

var (
	yearPattern      = regexp.MustCompile(`\b(19\d{2}|20\d{2})\b`)
	datedPathPattern = regexp.MustCompile(`(?:^|/)((?:19|20)\d{2})[/-](?:0?[1-9]|1[0-2])(?:[/-]|$)`)
)

// Normalizer converts raw candidates into NormalizedSource records
type Normalizer struct {
	tables *reference.Tables
}

// NewNormalizer creates a normalizer backed by the given reference tables
func NewNormalizer(tables *reference.Tables) *Normalizer {
	if tables == nil {
		tables = reference.Default()
	}
	return &Normalizer{tables: tables}
}

// Normalize converts candidates, dropping those without a usable URL
func (n *Normalizer) Normalize(candidates []model.Candidate) []model.NormalizedSource {
	sources := make([]model.NormalizedSource, 0, len(candidates))
	for _, c := range candidates {
		if s, ok := n.NormalizeOne(c); ok {
			sources = append(sources, s)
		}
	}
	return sources
}

// NormalizeOne converts a single candidate. This is the only place candidate
// shapes are distinguished.
func (n *Normalizer) NormalizeOne(c model.Candidate) (model.NormalizedSource, bool) {
	var (
		urls      []string
		title     string
		publisher string
		rationale string
		tier      string
		score     *float64
		stance    model.Stance
		published string
	)

	switch v := c.(type) {
	case model.ArticleCandidate:
		urls = []string{v.ArticleURL, v.CanonicalURL, v.URL}
		title, publisher, rationale = v.Title, v.Publisher, v.Snippet
		tier, score, published = v.TrustTier, v.Score, v.Published
		stance = model.ParseStance(v.Stance)
	case model.LegacyCandidate:
		urls = []string{v.URL}
		title, publisher, rationale = v.Name, v.Publisher, v.WhyItMatters
		published = v.Published
		stance = v.Bucket
	default:
		return model.NormalizedSource{}, false
	}

	chosen, generic, ok := n.pickURL(urls)
	if !ok {
		return model.NormalizedSource{}, false
	}

	host := strings.TrimPrefix(strings.ToLower(chosen.Hostname()), "www.")
	if publisher == "" {
		publisher = util.PublisherName(host)
	}
	if title == "" {
		title = publisher
	}

	src := model.NormalizedSource{
		Title:        strings.TrimSpace(title),
		Publisher:    strings.TrimSpace(publisher),
		URL:          chosen.String(),
		Stance:       stance,
		Rationale:    strings.TrimSpace(rationale),
		IsGenericURL: generic,
	}
	src.TrustTier = n.resolveTier(tier, score, host, src.Title+" "+src.URL)
	src.AsOfYear = asOfYear(published, chosen.Path)

	return src, true
}

// pickURL returns the first valid non-generic URL in priority order. When
// every URL is generic it falls back to the deepest path, so a section hub
// beats a bare homepage; ties keep priority order.
func (n *Normalizer) pickURL(raw []string) (*url.URL, bool, bool) {
	var fallback *url.URL
	for _, r := range raw {
		u, ok := parseHTTPURL(r)
		if !ok {
			continue
		}
		if !n.IsGenericURL(u) {
			return u, false, true
		}
		if fallback == nil || pathDepth(u) > pathDepth(fallback) {
			fallback = u
		}
	}
	if fallback != nil {
		return fallback, true, true
	}
	return nil, false, false
}

// IsGenericURL reports homepages and section/hub pages
func (n *Normalizer) IsGenericURL(u *url.URL) bool {
	path := strings.Trim(u.Path, "/")
	if path == "" {
		return true
	}

	segments := strings.Split(path, "/")
	if len(segments) == 1 && len(segments[0]) < 12 {
		return true
	}

	if n.tables.IsHubPath(segments[0]) && len(segments) <= 2 {
		return len(segments) == 1 || !looksLikeArticleSlug(segments[len(segments)-1])
	}
	return false
}

func (n *Normalizer) resolveTier(explicit string, score *float64, host, text string) model.TrustTier {
	if tier, ok := model.ParseTrustTier(explicit); ok {
		return tier
	}

	if score != nil {
		s := percentScore(*score)
		switch {
		case s >= 80:
			return model.TierHigh
		case s >= 55:
			return model.TierMedium
		default:
			return model.TierLow
		}
	}

	if tier, ok := n.tables.DomainTier(host); ok {
		return tier
	}
	if tier, ok := n.tables.PatternTier(text); ok {
		return tier
	}
	return model.TierLow
}

func pathDepth(u *url.URL) int {
	path := strings.Trim(u.Path, "/")
	if path == "" {
		return 0
	}
	return strings.Count(path, "/") + 1
}

func parseHTTPURL(raw string) (*url.URL, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" || strings.ContainsAny(raw, " \t\n") {
		return nil, false
	}
	if !strings.Contains(raw, "://") && strings.Contains(raw, ".") {
		raw = "https://" + strings.TrimPrefix(raw, "//")
	}

	u, err := url.Parse(raw)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Hostname() == "" {
		return nil, false
	}
	if !strings.Contains(u.Hostname(), ".") && u.Hostname() != "localhost" && net.ParseIP(u.Hostname()) == nil {
		return nil, false
	}
	return u, true
}

// looksLikeArticleSlug distinguishes "/news/2025-election-results" from "/news/world"
func looksLikeArticleSlug(segment string) bool {
	if strings.Count(segment, "-") >= 2 {
		return true
	}
	digits := 0
	for _, r := range segment {
		if unicode.IsDigit(r) {
			digits++
		}
	}
	return digits >= 4
}

func asOfYear(published, path string) int {
	if m := yearPattern.FindString(published); m != "" {
		year, _ := strconv.Atoi(m)
		return year
	}
	if m := datedPathPattern.FindStringSubmatch(path); m != nil {
		year, _ := strconv.Atoi(m[1])
		return year
	}
	return 0
}
