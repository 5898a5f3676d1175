package pipeline

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/ppiankov/credence/internal/model"
)

const footer = "_Generated by credence. Scores are evidence weighting, not ground truth; read the sources._"

// Renderer writes results as JSON, Markdown and a terminal summary
type Renderer struct {
	includeFooter bool
	out           io.Writer
}

// NewRenderer creates a renderer writing summaries to stdout
func NewRenderer(includeFooter bool) *Renderer {
	return &Renderer{includeFooter: includeFooter, out: os.Stdout}
}

// SetOutput redirects terminal summaries
func (r *Renderer) SetOutput(w io.Writer) {
	r.out = w
}

// RenderJSON writes the result as indented JSON
func (r *Renderer) RenderJSON(result *model.Result, path string) error {
	data, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal result: %w", err)
	}
	return os.WriteFile(path, append(data, '\n'), 0o644)
}

// RenderMarkdown writes the Markdown report
func (r *Renderer) RenderMarkdown(result *model.Result, path string) error {
	return os.WriteFile(path, []byte(r.Markdown(result)), 0o644)
}

// Markdown renders the full report
func (r *Renderer) Markdown(result *model.Result) string {
	var b strings.Builder

	fmt.Fprintf(&b, "# Claim check\n\n")
	fmt.Fprintf(&b, "> %s\n\n", result.Claim)
	fmt.Fprintf(&b, "- **Verdict:** %s\n", verdictLabel(result.Verdict))
	fmt.Fprintf(&b, "- **Score:** %d/100", result.Score)
	if result.ScoreCap != nil {
		fmt.Fprintf(&b, " (capped at %d)", *result.ScoreCap)
	}
	b.WriteString("\n")
	fmt.Fprintf(&b, "- **Confidence:** %s (%.2f)\n", result.Confidence.Level, result.Confidence.Score)
	fmt.Fprintf(&b, "- **Checked as of:** %s\n", result.Now.Format(time.DateOnly))
	if result.RequestID != "" {
		fmt.Fprintf(&b, "- **Request:** `%s`\n", result.RequestID)
	}
	b.WriteString("\n")

	if result.LimitedVerification {
		b.WriteString("**Limited verification:** no usable evidence was found, so this claim could not be confirmed or refuted.\n\n")
	}

	if len(result.Facts.ConflictDetails) > 0 || result.Temporal.RequiresRecentSources {
		b.WriteString("## Time sensitivity\n\n")
		if result.Temporal.HasReference {
			fmt.Fprintf(&b, "- Temporal reference: %s", result.Temporal.ReferenceType)
			if result.Temporal.TargetYear != nil {
				fmt.Fprintf(&b, " (%d)", *result.Temporal.TargetYear)
			}
			b.WriteString("\n")
		}
		if len(result.Temporal.TimeSensitiveTopics) > 0 {
			fmt.Fprintf(&b, "- Time-sensitive topics: %s\n", strings.Join(result.Temporal.TimeSensitiveTopics, ", "))
		}
		for _, d := range result.Facts.ConflictDetails {
			fmt.Fprintf(&b, "- ⚠️ %s\n", d)
		}
		b.WriteString("\n")
	}

	if result.Conflict.Found {
		b.WriteString("## Conflicting evidence\n\n")
		fmt.Fprintf(&b, "- Type: %s\n", result.Conflict.Type)
		fmt.Fprintf(&b, "- Weighted contradiction: %.0f/100\n", result.Conflict.WeightedScore)
		fmt.Fprintf(&b, "- %s\n\n", result.Conflict.Note)
	}

	if len(result.BestSources) > 0 {
		b.WriteString("## Best sources\n\n")
		for i, v := range result.BestSources {
			s := v.Source
			title := s.Title
			if title == "" {
				title = s.URL
			}
			fmt.Fprintf(&b, "%d. [%s](%s) (%s", i+1, title, s.URL, s.TrustTier)
			if s.Stance != "" {
				fmt.Fprintf(&b, ", %s", s.Stance)
			}
			if s.AsOfYear > 0 {
				fmt.Fprintf(&b, ", %d", s.AsOfYear)
			}
			fmt.Fprintf(&b, ") %s\n", linkMark(v))
			if s.Rationale != "" {
				fmt.Fprintf(&b, "   - %s\n", s.Rationale)
			}
			if v.ReplacementFor != "" {
				fmt.Fprintf(&b, "   - Replaces dead link %s\n", v.ReplacementFor)
			}
		}
		b.WriteString("\n")
	}

	if len(result.Confidence.Adjustments) > 0 {
		b.WriteString("## Confidence\n\n")
		for _, a := range result.Confidence.Adjustments {
			fmt.Fprintf(&b, "- %+.2f %s\n", a.Delta, a.Reason)
		}
		b.WriteString("\n")
	}

	if len(result.Notes) > 0 {
		b.WriteString("## Notes\n\n")
		for _, n := range result.Notes {
			fmt.Fprintf(&b, "- %s\n", n)
		}
		b.WriteString("\n")
	}

	if r.includeFooter {
		b.WriteString("---\n\n")
		b.WriteString(footer + "\n")
	}

	return b.String()
}

// RenderSummary prints a short verdict block
func (r *Renderer) RenderSummary(result *model.Result) {
	fmt.Fprintf(r.out, "\n%s\n", strings.Repeat("═", 60))
	fmt.Fprintf(r.out, "Claim:      %s\n", result.Claim)
	fmt.Fprintf(r.out, "Verdict:    %s\n", verdictLabel(result.Verdict))
	fmt.Fprintf(r.out, "Score:      %d/100\n", result.Score)
	fmt.Fprintf(r.out, "Confidence: %s (%.2f)\n", result.Confidence.Level, result.Confidence.Score)
	fmt.Fprintf(r.out, "Sources:    %d weighed, %d best\n", len(result.Sources), len(result.BestSources))
	if result.Conflict.Found {
		fmt.Fprintf(r.out, "Conflict:   %s (%.0f/100)\n", result.Conflict.Type, result.Conflict.WeightedScore)
	}
	if result.LimitedVerification {
		fmt.Fprintf(r.out, "⚠️  Limited verification: no usable evidence\n")
	}
	fmt.Fprintf(r.out, "%s\n", strings.Repeat("═", 60))
}

func verdictLabel(v model.Verdict) string {
	switch v {
	case model.VerdictCredible:
		return "Credible"
	case model.VerdictMostlyCredible:
		return "Mostly credible"
	case model.VerdictUncertain:
		return "Uncertain"
	case model.VerdictMisleading:
		return "Misleading"
	case model.VerdictNotCredible:
		return "Not credible"
	default:
		return "Unverified"
	}
}

func linkMark(v model.VerifiedSource) string {
	switch {
	case !v.Checked:
		return "(unchecked)"
	case v.IsLive:
		return "✓"
	default:
		return "✗"
	}
}
