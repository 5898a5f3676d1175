package reference

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/ppiankov/credence/internal/model"
)

func TestDefault_CompiledOnce(t *testing.T) {
	first := Default()
	for i := 0; i < 3; i++ {
		if got := Default(); got != first {
			t.Errorf("Expected shared tables %p, got %p", first, got)
		}
	}

	loaded, err := Load("")
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if loaded != first {
		t.Errorf("Expected Load(\"\") to return the shared tables")
	}
}

func TestDefault_Loads(t *testing.T) {
	tables := Default()

	facts := tables.CriticalFacts()
	if len(facts) == 0 {
		t.Fatal("Expected built-in critical facts")
	}

	var biden *model.CriticalFact
	for i := range facts {
		if facts[i].Subject == "joe biden" {
			biden = &facts[i]
		}
	}
	if biden == nil {
		t.Fatal("Expected a fact for joe biden")
	}
	if biden.ValidUntil == nil || biden.ValidUntil.Format(dateLayout) != "2025-01-20" {
		t.Errorf("Expected valid_until 2025-01-20, got %v", biden.ValidUntil)
	}
}

func TestCriticalFacts_ReturnsCopy(t *testing.T) {
	tables := Default()

	facts := tables.CriticalFacts()
	facts[0].Subject = "mutated"

	if tables.CriticalFacts()[0].Subject == "mutated" {
		t.Error("CriticalFacts should not expose the internal slice")
	}
}

func TestDomainTier(t *testing.T) {
	tables := Default()

	tests := []struct {
		host     string
		expected model.TrustTier
		ok       bool
	}{
		{"reuters.com", model.TierHigh, true},
		{"www.reuters.com", model.TierHigh, true},
		{"uk.reuters.com", model.TierHigh, true},
		{"www.bbc.co.uk", model.TierMedium, true},
		{"en.wikipedia.org:443", model.TierMedium, true},
		{"notreuters.com", "", false},
		{"randomblog.net", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.host, func(t *testing.T) {
			tier, ok := tables.DomainTier(tt.host)
			if ok != tt.ok || tier != tt.expected {
				t.Errorf("Expected (%q, %v), got (%q, %v)", tt.expected, tt.ok, tier, ok)
			}
		})
	}
}

func TestIsTrustedDomain_OfficialTLDs(t *testing.T) {
	tables := Default()

	for _, host := range []string{"whitehouse.gov", "mit.edu", "ox.ac.uk", "www.gov.uk", "health.gov.au"} {
		if !tables.IsTrustedDomain(host) {
			t.Errorf("Expected %s to be trusted", host)
		}
	}
	if tables.IsTrustedDomain("governance-blog.com") {
		t.Error("governance-blog.com should not be trusted")
	}
}

func TestPatternTier(t *testing.T) {
	tables := Default()

	tests := []struct {
		text     string
		expected model.TrustTier
		ok       bool
	}{
		{"Statement https://www.whitehouse.gov/briefing-room/", model.TierHigh, true},
		{"Report by the World Health Organization", model.TierHigh, true},
		{"https://www.nytimes.com/2025/01/20/us/politics/x.html", model.TierMedium, true},
		{"Some blog https://blog.example.net/post", "", false},
	}

	for _, tt := range tests {
		tier, ok := tables.PatternTier(tt.text)
		if ok != tt.ok || tier != tt.expected {
			t.Errorf("%q: expected (%q, %v), got (%q, %v)", tt.text, tt.expected, tt.ok, tier, ok)
		}
	}
}

func TestURLPatterns(t *testing.T) {
	tables := Default()

	if !tables.IsBadURL("https://site.com/404") {
		t.Error("Expected /404 to be a bad URL")
	}
	if !tables.IsBadURL("https://site.com/page-not-found") {
		t.Error("Expected not-found to be a bad URL")
	}
	if tables.IsBadURL("https://site.com/2025/01/02/story") {
		t.Error("Plain article should not be a bad URL")
	}

	if !tables.IsBroadReference("https://en.wikipedia.org/wiki/Animal") {
		t.Error("Expected root wiki topic to be a broad reference")
	}
	if tables.IsBroadReference("https://en.wikipedia.org/wiki/2024_United_Kingdom_general_election") {
		t.Error("Specific wiki article should not be a broad reference")
	}
}

func TestIsBotBlocking(t *testing.T) {
	tables := Default()

	for _, host := range []string{"en.wikipedia.org", "www.nytimes.com", "nasa.gov"} {
		if !tables.IsBotBlocking(host) {
			t.Errorf("Expected %s to be bot-blocking", host)
		}
	}
	if tables.IsBotBlocking("example.com") {
		t.Error("example.com should not be bot-blocking")
	}
}

func TestTimeSensitiveTopics(t *testing.T) {
	tables := Default()

	topics := tables.TimeSensitiveTopics("the prime minister said inflation and the prime minister")
	if len(topics) != 2 {
		t.Fatalf("Expected 2 distinct topics, got %v", topics)
	}
	if topics[0] != "prime minister" || topics[1] != "inflation" {
		t.Errorf("Unexpected topics %v", topics)
	}

	if got := tables.TimeSensitiveTopics("the sky is blue"); len(got) != 0 {
		t.Errorf("Expected no topics, got %v", got)
	}
}

func TestTrackingAndSuspicious(t *testing.T) {
	tables := Default()

	for _, p := range []string{"utm_source", "UTM_Medium", "utm_whatever", "fbclid"} {
		if !tables.IsTrackingParam(p) {
			t.Errorf("Expected %s to be a tracking param", p)
		}
	}
	if tables.IsTrackingParam("id") {
		t.Error("id should not be a tracking param")
	}

	if !tables.IsSuspicious("news.xyz", "https://news.xyz/story") {
		t.Error("Expected .xyz to be suspicious")
	}
	if !tables.IsSuspicious("site.com", "https://site.com/you-wont-believe-this") {
		t.Error("Expected clickbait keyword to be suspicious")
	}
	if tables.IsSuspicious("site.com", "https://site.com/2025/report") {
		t.Error("Plain URL should not be suspicious")
	}
}

func TestParse_Override(t *testing.T) {
	data := []byte(`
critical_facts:
  - subject: alice
    role: mayor
    entity: springfield
    valid_from: "2020-01-01"
    valid_until: present
trusted_domains:
  high: [example.org]
`)

	tables, err := Parse(data)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}

	facts := tables.CriticalFacts()
	if len(facts) != 1 || facts[0].ValidUntil != nil {
		t.Errorf("Expected one open-ended fact, got %+v", facts)
	}
	if tier, ok := tables.DomainTier("news.example.org"); !ok || tier != model.TierHigh {
		t.Errorf("Expected high tier from override, got %q", tier)
	}
	if tables.IsBadURL("https://x.com/404") {
		t.Error("Override without patterns should not match bad URLs")
	}
}

func TestParse_Errors(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"not yaml", "critical_facts: [:"},
		{"bad date", "critical_facts:\n  - {subject: a, role: b, valid_from: yesterday}"},
		{"missing role", "critical_facts:\n  - {subject: a, valid_from: \"2020-01-01\"}"},
		{"bad regex", "bad_url_patterns: ['(']"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Parse([]byte(tt.data)); err == nil {
				t.Error("Expected an error")
			}
		})
	}
}

func TestLoad(t *testing.T) {
	tables, err := Load("")
	if err != nil || tables == nil {
		t.Fatalf("Load(\"\") should return defaults, got %v", err)
	}

	path := filepath.Join(t.TempDir(), "tables.yaml")
	if err := os.WriteFile(path, []byte("hub_paths: [news]\n"), 0644); err != nil {
		t.Fatal(err)
	}
	tables, err = Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if !tables.IsHubPath("NEWS") {
		t.Error("Expected news to be a hub path")
	}

	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("Expected error for missing file")
	}
}
