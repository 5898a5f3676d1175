package normalize

import (
	"bytes"
	"encoding/json"
	"math"
	"strconv"
	"strings"

	"github.com/ppiankov/credence/internal/model"
)

// Payload is the decoded oracle response
type Payload struct {
	Candidates   []model.Candidate
	DraftVerdict string
	DraftScore   *int // 0-100
	Summary      string
	Notes        []string // Decoding problems worth surfacing in the audit trail
}

var bucketKeys = []struct {
	key    string
	stance model.Stance
}{
	{"corroborating", model.StanceCorroborating},
	{"supporting", model.StanceCorroborating},
	{"neutral", model.StanceNeutral},
	{"contradicting", model.StanceContradicting},
	{"refuting", model.StanceContradicting},
}

// DecodePayload parses a loosely structured oracle response. It never fails:
// malformed candidates are dropped and unusable payloads decode to an empty
// Payload with a note.
func DecodePayload(data []byte) Payload {
	var p Payload

	data = bytes.TrimSpace(stripCodeFence(data))
	if len(data) == 0 {
		p.Notes = append(p.Notes, "oracle returned an empty payload")
		return p
	}

	var root map[string]any
	if err := json.Unmarshal(data, &root); err != nil {
		// Models often wrap the object in prose
		start, end := bytes.IndexByte(data, '{'), bytes.LastIndexByte(data, '}')
		if start < 0 || end <= start || json.Unmarshal(data[start:end+1], &root) != nil {
			p.Notes = append(p.Notes, "oracle payload is not a JSON object")
			return p
		}
	}

	p.DraftVerdict = stringField(root, "verdict", "draftVerdict", "draft_verdict")
	p.Summary = stringField(root, "summary", "explanation")
	if score, ok := numberField(root, "score", "credibilityScore", "credibility_score"); ok {
		s := int(math.Round(clamp(percentScore(score), 0, 100)))
		p.DraftScore = &s
	}

	dropped := 0
	for _, key := range []string{"sources", "articles"} {
		items, _ := root[key].([]any)
		for _, item := range items {
			if c, ok := decodeCandidate(item, model.StanceUnknown); ok {
				p.Candidates = append(p.Candidates, c)
			} else {
				dropped++
			}
		}
	}

	// Legacy shape: stance buckets, nested under "evidence" or at top level
	containers := []map[string]any{root}
	if evidence, ok := root["evidence"].(map[string]any); ok {
		containers = append(containers, evidence)
	}
	for _, container := range containers {
		for _, b := range bucketKeys {
			items, _ := container[b.key].([]any)
			for _, item := range items {
				if c, ok := decodeCandidate(item, b.stance); ok {
					p.Candidates = append(p.Candidates, c)
				} else {
					dropped++
				}
			}
		}
	}

	if dropped > 0 {
		p.Notes = append(p.Notes, "dropped "+strconv.Itoa(dropped)+" malformed candidate(s) from oracle payload")
	}

	return p
}

// decodeCandidate tags an item by its distinguishing fields: items carrying
// title/articleUrl/canonicalUrl/trustTier are the article shape, items carrying
// name/whyItMatters are the legacy shape.
func decodeCandidate(item any, bucket model.Stance) (model.Candidate, bool) {
	switch v := item.(type) {
	case string:
		if s := strings.TrimSpace(v); s != "" {
			return model.ArticleCandidate{URL: s, Stance: string(bucket)}, true
		}
		return nil, false
	case map[string]any:
		if isLegacy(v) {
			c := model.LegacyCandidate{
				Name:         stringField(v, "name", "title"),
				URL:          stringField(v, "url", "link"),
				Publisher:    stringField(v, "publisher", "source", "outlet"),
				WhyItMatters: stringField(v, "whyItMatters", "why_it_matters", "snippet", "summary"),
				Published:    stringField(v, "published", "publishedAt", "published_at", "date", "year"),
				Bucket:       bucketOr(bucket, stringField(v, "stance")),
			}
			return c, c.URL != ""
		}

		c := model.ArticleCandidate{
			Title:        stringField(v, "title", "name", "headline"),
			URL:          stringField(v, "url", "link"),
			ArticleURL:   stringField(v, "articleUrl", "article_url"),
			CanonicalURL: stringField(v, "canonicalUrl", "canonical_url"),
			Publisher:    stringField(v, "publisher", "source", "outlet"),
			Snippet:      stringField(v, "snippet", "rationale", "summary", "whyItMatters", "description"),
			TrustTier:    stringField(v, "trustTier", "trust_tier", "tier"),
			Stance:       stringField(v, "stance"),
			Published:    stringField(v, "published", "publishedAt", "published_at", "date", "year"),
		}
		if c.Stance == "" {
			c.Stance = string(bucket)
		}
		if score, ok := numberField(v, "score", "trustScore", "trust_score"); ok {
			c.Score = &score
		}
		if c.URL == "" && c.ArticleURL == "" && c.CanonicalURL == "" {
			return nil, false
		}
		return c, true
	default:
		return nil, false
	}
}

func isLegacy(m map[string]any) bool {
	for _, k := range []string{"title", "articleUrl", "article_url", "canonicalUrl", "canonical_url", "trustTier", "trust_tier"} {
		if _, ok := m[k]; ok {
			return false
		}
	}
	for _, k := range []string{"name", "whyItMatters", "why_it_matters"} {
		if _, ok := m[k]; ok {
			return true
		}
	}
	return false
}

func bucketOr(bucket model.Stance, raw string) model.Stance {
	if bucket != model.StanceUnknown {
		return bucket
	}
	return model.ParseStance(raw)
}

// stringField returns the first non-empty value among keys, converting numbers
func stringField(m map[string]any, keys ...string) string {
	for _, k := range keys {
		switch v := m[k].(type) {
		case string:
			if s := strings.TrimSpace(v); s != "" {
				return s
			}
		case float64:
			return strconv.FormatFloat(v, 'f', -1, 64)
		}
	}
	return ""
}

// numberField returns the first numeric value among keys; numeric strings are accepted
func numberField(m map[string]any, keys ...string) (float64, bool) {
	for _, k := range keys {
		switch v := m[k].(type) {
		case float64:
			return v, true
		case string:
			if f, err := strconv.ParseFloat(strings.TrimSpace(strings.TrimSuffix(v, "%")), 64); err == nil {
				return f, true
			}
		}
	}
	return 0, false
}

func stripCodeFence(data []byte) []byte {
	trimmed := bytes.TrimSpace(data)
	if !bytes.HasPrefix(trimmed, []byte("```")) {
		return data
	}
	trimmed = trimmed[3:]
	if nl := bytes.IndexByte(trimmed, '\n'); nl >= 0 {
		trimmed = trimmed[nl+1:] // Drop the language tag line
	}
	return bytes.TrimSuffix(bytes.TrimSpace(trimmed), []byte("```"))
}

// percentScore reads a fraction strictly between 0 and 1 as a share of 100.
// Whole numbers, including 1, are already on the 0-100 scale.
func percentScore(v float64) float64 {
	if v > 0 && v < 1 {
		return v * 100
	}
	return v
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}
