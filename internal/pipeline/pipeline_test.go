package pipeline

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/ppiankov/credence/internal/metrics"
	"github.com/ppiankov/credence/internal/model"
	"github.com/ppiankov/credence/internal/oracle"
)

const bridgePayload = `{
  "verdict": "credible",
  "score": 88,
  "summary": "Several wire services report the opening.",
  "sources": [
    {"title": "Bridge opens", "articleUrl": "https://www.reuters.com/world/bridge-opens-to-traffic-after-delays", "stance": "corroborating", "published": "2025-05-20", "snippet": "Reuters reports the bridge opened on schedule"},
    {"title": "Opening ceremony", "articleUrl": "https://apnews.com/article/bridge-opening-ceremony-crowds", "stance": "corroborating", "published": "2025-05-21", "snippet": "AP covers the opening ceremony and first traffic"},
    {"title": "First vehicles", "articleUrl": "https://www.bbc.com/news/world-bridge-opening-2025", "stance": "corroborating", "published": "2025", "snippet": "BBC confirms first vehicles crossed the bridge"}
  ]
}`

var fixedNow = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

func testConfig(t *testing.T) *model.Config {
	t.Helper()
	cfg := model.DefaultConfig()
	cfg.LinkCheck.Enabled = false
	cfg.Cache.Enabled = false
	return cfg
}

func writePayload(t *testing.T, data string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "payload.json")
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatalf("write payload: %v", err)
	}
	return path
}

func newTestPipeline(t *testing.T, cfg *model.Config, opts ...Option) *Pipeline {
	t.Helper()
	opts = append([]Option{WithClock(func() time.Time { return fixedNow })}, opts...)
	p, err := NewPipeline(cfg, opts...)
	if err != nil {
		t.Fatalf("NewPipeline failed: %v", err)
	}
	p.Renderer().SetOutput(&bytes.Buffer{})
	return p
}

type countingProvider struct {
	raw   []byte
	err   error
	calls atomic.Int32
}

func (p *countingProvider) Name() string { return "counting" }

func (p *countingProvider) Evaluate(ctx context.Context, _ oracle.Request) (*oracle.Response, error) {
	p.calls.Add(1)
	if p.err != nil {
		return nil, p.err
	}
	return &oracle.Response{Raw: p.raw, Model: "test"}, nil
}

type liveChecker struct {
	checked atomic.Int32
}

func (c *liveChecker) Check(_ context.Context, rawURL string) model.LinkStatus {
	c.checked.Add(1)
	return model.LinkStatus{URL: rawURL, IsLive: true, StatusCode: 200, Method: "HEAD"}
}

func TestPipeline_Check_FileProvider(t *testing.T) {
	cfg := testConfig(t)
	cfg.Oracle.Provider = "file"
	cfg.Oracle.PayloadPath = writePayload(t, bridgePayload)
	m := metrics.NewWith(prometheus.NewRegistry())

	p := newTestPipeline(t, cfg, WithMetrics(m))
	if !p.OracleEnabled() {
		t.Fatal("Expected oracle to be enabled")
	}

	result, err := p.Check(context.Background(), "  The bridge opened to traffic ")
	if err != nil {
		t.Fatalf("Check failed: %v", err)
	}

	if result.Claim != "The bridge opened to traffic" {
		t.Errorf("Expected trimmed claim, got %q", result.Claim)
	}
	if result.RequestID == "" {
		t.Error("Expected a request ID")
	}
	if len(result.Sources) != 3 {
		t.Fatalf("Expected 3 sources, got %d", len(result.Sources))
	}
	if result.Verdict != model.VerdictCredible {
		t.Errorf("Expected credible, got %s (score %d)", result.Verdict, result.Score)
	}
	if result.DraftScore == nil || *result.DraftScore != 88 {
		t.Errorf("Expected draft score 88, got %v", result.DraftScore)
	}
	if got := testutil.ToFloat64(m.Verdicts.WithLabelValues("credible")); got != 1 {
		t.Errorf("Expected 1 credible verdict recorded, got %v", got)
	}
}

func TestPipeline_Check_NoOracle(t *testing.T) {
	p := newTestPipeline(t, testConfig(t))
	if p.OracleEnabled() {
		t.Fatal("Expected oracle to be disabled without a provider")
	}

	result, err := p.Check(context.Background(), "The bridge opened to traffic")
	if err != nil {
		t.Fatalf("Check failed: %v", err)
	}
	if result.Verdict != model.VerdictUnverified || !result.LimitedVerification {
		t.Errorf("Expected unverified with limited verification, got %s", result.Verdict)
	}
	if !containsNote(result.Notes, "No oracle configured") {
		t.Errorf("Expected a no-oracle note, got %v", result.Notes)
	}
}

func TestPipeline_Check_OracleFailureDegrades(t *testing.T) {
	provider := &countingProvider{err: errors.New("quota exhausted")}
	p := newTestPipeline(t, testConfig(t), WithProvider(provider))

	result, err := p.Check(context.Background(), "The bridge opened to traffic")
	if err != nil {
		t.Fatalf("Oracle failure should not fail the check, got %v", err)
	}
	if result.Verdict != model.VerdictUnverified {
		t.Errorf("Expected unverified, got %s", result.Verdict)
	}
	if !containsNote(result.Notes, "Oracle unavailable") {
		t.Errorf("Expected an oracle failure note, got %v", result.Notes)
	}
	if provider.calls.Load() != 1 {
		t.Errorf("Expected a single attempt for a permanent error, got %d", provider.calls.Load())
	}
}

func TestPipeline_Check_Errors(t *testing.T) {
	p := newTestPipeline(t, testConfig(t))

	if _, err := p.Check(context.Background(), "   "); err == nil {
		t.Error("Expected error for empty claim")
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := p.Check(ctx, "The bridge opened to traffic"); err == nil {
		t.Error("Expected error for cancelled context")
	}
}

func TestPipeline_CheckAt_UsesGivenDate(t *testing.T) {
	p := newTestPipeline(t, testConfig(t))
	at := time.Date(2020, 3, 1, 0, 0, 0, 0, time.UTC)

	result, err := p.CheckAt(context.Background(), model.ClaimContext{Text: "Rates rose in 2019", Now: at})
	if err != nil {
		t.Fatalf("CheckAt failed: %v", err)
	}
	if !result.Now.Equal(at) {
		t.Errorf("Expected now %v, got %v", at, result.Now)
	}
}

func TestPipeline_Check_LinkCheck(t *testing.T) {
	cfg := testConfig(t)
	cfg.LinkCheck.Enabled = true
	checker := &liveChecker{}
	provider := &countingProvider{raw: []byte(bridgePayload)}

	p := newTestPipeline(t, cfg, WithProvider(provider), WithChecker(checker))
	result, err := p.Check(context.Background(), "The bridge opened to traffic")
	if err != nil {
		t.Fatalf("Check failed: %v", err)
	}

	if checker.checked.Load() != 3 {
		t.Errorf("Expected 3 link checks, got %d", checker.checked.Load())
	}
	if len(result.LinkChecks) != 3 {
		t.Errorf("Expected 3 link statuses, got %d", len(result.LinkChecks))
	}
	for _, v := range result.BestSources {
		if !v.Checked || !v.IsLive {
			t.Errorf("Expected %s checked and live", v.Source.URL)
		}
	}
}

func TestPipeline_Check_CachesOracleAnswers(t *testing.T) {
	cfg := testConfig(t)
	cfg.Cache.Enabled = true
	cfg.Cache.Dir = t.TempDir()
	provider := &countingProvider{raw: []byte(bridgePayload)}

	p := newTestPipeline(t, cfg, WithProvider(provider))
	for i := 0; i < 2; i++ {
		if _, err := p.Check(context.Background(), "The bridge opened to traffic"); err != nil {
			t.Fatalf("Check %d failed: %v", i, err)
		}
	}

	if provider.calls.Load() != 1 {
		t.Errorf("Expected 1 oracle call, got %d", provider.calls.Load())
	}
	entries, err := os.ReadDir(cfg.Cache.Dir)
	if err != nil {
		t.Fatalf("read cache dir: %v", err)
	}
	if len(entries) != 1 {
		t.Errorf("Expected 1 cache file, got %d", len(entries))
	}
}

func TestPipeline_NewPipeline_Errors(t *testing.T) {
	tests := []struct {
		mutate func(*model.Config)
		desc   string
	}{
		{func(c *model.Config) { c.Oracle.Provider = "carrier-pigeon" }, "unknown provider"},
		{func(c *model.Config) { c.Oracle.Provider = "file" }, "file provider without a path"},
		{func(c *model.Config) { c.Reference.Path = "/nonexistent/tables.yaml" }, "missing reference tables"},
	}

	for _, tt := range tests {
		t.Run(tt.desc, func(t *testing.T) {
			cfg := model.DefaultConfig()
			tt.mutate(cfg)
			if _, err := NewPipeline(cfg); err == nil {
				t.Error("Expected error")
			}
		})
	}
}

func TestPipeline_RenderReport(t *testing.T) {
	cfg := testConfig(t)
	cfg.Oracle.Provider = "file"
	cfg.Oracle.PayloadPath = writePayload(t, bridgePayload)
	p := newTestPipeline(t, cfg)
	var summary bytes.Buffer
	p.Renderer().SetOutput(&summary)

	result, err := p.Check(context.Background(), "The bridge opened to traffic")
	if err != nil {
		t.Fatalf("Check failed: %v", err)
	}

	dir := t.TempDir()
	jsonPath := filepath.Join(dir, "report.json")
	mdPath := filepath.Join(dir, "report.md")
	if err := p.RenderReport(result, jsonPath, mdPath, false); err != nil {
		t.Fatalf("RenderReport failed: %v", err)
	}

	data, err := os.ReadFile(jsonPath)
	if err != nil {
		t.Fatalf("read JSON: %v", err)
	}
	if !strings.Contains(string(data), `"verdict": "credible"`) {
		t.Errorf("Expected verdict in JSON report, got %s", data)
	}

	md, err := os.ReadFile(mdPath)
	if err != nil {
		t.Fatalf("read markdown: %v", err)
	}
	if !strings.Contains(string(md), "## Best sources") {
		t.Error("Expected best sources section in markdown")
	}
	if !strings.Contains(summary.String(), "Verdict:    Credible") {
		t.Errorf("Expected verdict in summary, got %q", summary.String())
	}
}

func containsNote(notes []string, substr string) bool {
	for _, n := range notes {
		if strings.Contains(n, substr) {
			return true
		}
	}
	return false
}
