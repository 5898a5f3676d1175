package normalize

import (
	"net/url"
	"testing"

	"github.com/ppiankov/credence/internal/model"
	"github.com/ppiankov/credence/internal/reference"
)

func floatPtr(f float64) *float64 { return &f }

func TestNormalize_URLPriority(t *testing.T) {
	n := NewNormalizer(reference.Default())

	tests := []struct {
		candidate model.ArticleCandidate
		expected  string
		generic   bool
		desc      string
	}{
		{
			candidate: model.ArticleCandidate{
				URL:          "https://www.reuters.com/",
				CanonicalURL: "https://www.reuters.com/world/europe/story-about-things-2025-05-01/",
				ArticleURL:   "https://www.reuters.com/world/uk/election-results-2025-05-02/",
			},
			expected: "https://www.reuters.com/world/uk/election-results-2025-05-02/",
			desc:     "articleUrl wins",
		},
		{
			candidate: model.ArticleCandidate{
				URL:          "https://www.reuters.com/",
				CanonicalURL: "https://www.reuters.com/world/europe/story-about-things-2025-05-01/",
			},
			expected: "https://www.reuters.com/world/europe/story-about-things-2025-05-01/",
			desc:     "canonicalUrl before url",
		},
		{
			candidate: model.ArticleCandidate{
				URL:        "https://www.bbc.co.uk/news/uk-politics-12345678",
				ArticleURL: "https://www.bbc.co.uk/news",
			},
			expected: "https://www.bbc.co.uk/news/uk-politics-12345678",
			desc:     "generic articleUrl skipped",
		},
		{
			candidate: model.ArticleCandidate{
				URL:        "https://example.com/",
				ArticleURL: "https://example.com/news",
			},
			expected: "https://example.com/news",
			generic:  true,
			desc:     "all generic keeps first valid",
		},
		{
			candidate: model.ArticleCandidate{
				URL:        "https://example.com/news",
				ArticleURL: "https://example.com/",
			},
			expected: "https://example.com/news",
			generic:  true,
			desc:     "all generic prefers hub over homepage",
		},
		{
			candidate: model.ArticleCandidate{
				URL:          "https://example.com/world",
				CanonicalURL: "https://example.com/politics",
				ArticleURL:   "https://example.com/",
			},
			expected: "https://example.com/politics",
			generic:  true,
			desc:     "equal depth hubs keep priority order",
		},
		{
			candidate: model.ArticleCandidate{URL: "www.apnews.com/article/some-long-story-slug"},
			expected:  "https://www.apnews.com/article/some-long-story-slug",
			desc:      "missing scheme tolerated",
		},
	}

	for _, tt := range tests {
		t.Run(tt.desc, func(t *testing.T) {
			src, ok := n.NormalizeOne(tt.candidate)
			if !ok {
				t.Fatal("Expected candidate to normalize")
			}
			if src.URL != tt.expected {
				t.Errorf("Expected URL %s, got %s", tt.expected, src.URL)
			}
			if src.IsGenericURL != tt.generic {
				t.Errorf("Expected generic=%v, got %v", tt.generic, src.IsGenericURL)
			}
		})
	}
}

func TestNormalize_DropsInvalid(t *testing.T) {
	n := NewNormalizer(nil)

	candidates := []model.Candidate{
		nil,
		model.ArticleCandidate{URL: ""},
		model.ArticleCandidate{URL: "not a url"},
		model.ArticleCandidate{URL: "ftp://files.example.com/report.pdf"},
		model.ArticleCandidate{URL: "javascript:alert(1)"},
		model.LegacyCandidate{Name: "no url"},
		model.ArticleCandidate{URL: "https://www.example.com/2025/03/04/valid-story"},
	}

	sources := n.Normalize(candidates)
	if len(sources) != 1 {
		t.Fatalf("Expected 1 valid source, got %d: %+v", len(sources), sources)
	}
}

func TestNormalize_TrustTierResolution(t *testing.T) {
	n := NewNormalizer(reference.Default())

	tests := []struct {
		candidate model.ArticleCandidate
		expected  model.TrustTier
		desc      string
	}{
		{model.ArticleCandidate{URL: "https://randomblog.net/2025/01/01/post", TrustTier: "official"}, model.TierHigh, "explicit tier wins"},
		{model.ArticleCandidate{URL: "https://www.reuters.com/world/a-b-c", TrustTier: "low"}, model.TierLow, "explicit tier beats domain"},
		{model.ArticleCandidate{URL: "https://randomblog.net/2025/01/01/post", Score: floatPtr(85)}, model.TierHigh, "score >= 80"},
		{model.ArticleCandidate{URL: "https://randomblog.net/2025/01/01/post", Score: floatPtr(55)}, model.TierMedium, "score >= 55"},
		{model.ArticleCandidate{URL: "https://www.reuters.com/world/a-b-c", Score: floatPtr(20)}, model.TierLow, "score beats domain"},
		{model.ArticleCandidate{URL: "https://randomblog.net/2025/01/01/post", Score: floatPtr(0.9)}, model.TierHigh, "fractional score"},
		{model.ArticleCandidate{URL: "https://randomblog.net/2025/01/01/post", Score: floatPtr(0.6)}, model.TierMedium, "fractional medium score"},
		{model.ArticleCandidate{URL: "https://randomblog.net/2025/01/01/post", Score: floatPtr(1)}, model.TierLow, "score of 1 is on the 0-100 scale"},
		{model.ArticleCandidate{URL: "https://www.reuters.com/world/a-b-c", Score: floatPtr(1)}, model.TierLow, "score of 1 beats domain"},
		{model.ArticleCandidate{URL: "https://uk.reuters.com/world/a-b-c"}, model.TierHigh, "trusted domain suffix"},
		{model.ArticleCandidate{URL: "https://www.theguardian.com/politics/2025/jan/01/story"}, model.TierMedium, "medium domain"},
		{model.ArticleCandidate{URL: "https://www.cdc.gov/flu/season/2025-report.html"}, model.TierHigh, "gov pattern"},
		{model.ArticleCandidate{URL: "https://randomblog.net/2025/01/01/post", Title: "Summary of a New York Times report"}, model.TierMedium, "medium regex over title"},
		{model.ArticleCandidate{URL: "https://randomblog.net/2025/01/01/post"}, model.TierLow, "conservative default"},
	}

	for _, tt := range tests {
		t.Run(tt.desc, func(t *testing.T) {
			src, ok := n.NormalizeOne(tt.candidate)
			if !ok {
				t.Fatal("Expected candidate to normalize")
			}
			if src.TrustTier != tt.expected {
				t.Errorf("Expected %s, got %s", tt.expected, src.TrustTier)
			}
		})
	}
}

func TestNormalize_TrustTierAlwaysResolved(t *testing.T) {
	n := NewNormalizer(nil)

	inputs := []model.Candidate{
		model.ArticleCandidate{URL: "https://a.example.com/x/y/z", TrustTier: "garbage"},
		model.ArticleCandidate{URL: "https://b.example.com/x/y/z", Score: floatPtr(-5)},
		model.LegacyCandidate{URL: "https://c.example.com/x/y/z", Bucket: model.StanceNeutral},
		model.ArticleCandidate{URL: "https://d.example.com/"},
	}

	for _, src := range n.Normalize(inputs) {
		switch src.TrustTier {
		case model.TierHigh, model.TierMedium, model.TierLow:
		default:
			t.Errorf("Unresolved tier %q for %s", src.TrustTier, src.URL)
		}
	}
}

func TestNormalize_PublisherStanceAndYear(t *testing.T) {
	n := NewNormalizer(nil)

	legacy := model.LegacyCandidate{
		Name:         "Election result",
		URL:          "https://www.theguardian.com/politics/2024/jul/05/labour-wins",
		WhyItMatters: "Reports the official result of the general election",
		Bucket:       model.StanceContradicting,
	}
	src, ok := n.NormalizeOne(legacy)
	if !ok {
		t.Fatal("Expected legacy candidate to normalize")
	}
	if src.Publisher != "Theguardian" {
		t.Errorf("Expected derived publisher Theguardian, got %q", src.Publisher)
	}
	if src.Stance != model.StanceContradicting {
		t.Errorf("Expected stance from bucket, got %q", src.Stance)
	}
	if src.Rationale != legacy.WhyItMatters {
		t.Errorf("Expected rationale from whyItMatters, got %q", src.Rationale)
	}

	article := model.ArticleCandidate{
		Title:     "Story",
		URL:       "https://www.example.com/2023/11/02/story",
		Publisher: "Example Daily",
		Stance:    "supports",
		Published: "2025-01-05T10:00:00Z",
	}
	src, _ = n.NormalizeOne(article)
	if src.Publisher != "Example Daily" {
		t.Errorf("Expected supplied publisher kept, got %q", src.Publisher)
	}
	if src.Stance != model.StanceCorroborating {
		t.Errorf("Expected corroborating, got %q", src.Stance)
	}
	if src.AsOfYear != 2025 {
		t.Errorf("Expected published date to win, got %d", src.AsOfYear)
	}

	article.Published = ""
	src, _ = n.NormalizeOne(article)
	if src.AsOfYear != 2023 {
		t.Errorf("Expected year from dated path, got %d", src.AsOfYear)
	}
}

func TestIsGenericURL(t *testing.T) {
	n := NewNormalizer(reference.Default())

	tests := []struct {
		raw      string
		expected bool
	}{
		{"https://example.com", true},
		{"https://example.com/", true},
		{"https://example.com/about", true},
		{"https://www.bbc.co.uk/news", true},
		{"https://www.bbc.co.uk/news/world", true},
		{"https://example.com/topics/climate", true},
		{"https://www.bbc.co.uk/news/uk-politics-12345678", false},
		{"https://example.com/news/2025-election-results", false},
		{"https://example.com/a-very-long-single-segment-story", false},
		{"https://example.com/2025/05/01/story", false},
	}

	for _, tt := range tests {
		u, err := url.Parse(tt.raw)
		if err != nil {
			t.Fatal(err)
		}
		if got := n.IsGenericURL(u); got != tt.expected {
			t.Errorf("IsGenericURL(%s) = %v, want %v", tt.raw, got, tt.expected)
		}
	}
}
