package cli

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/ppiankov/credence/internal/metrics"
	"github.com/ppiankov/credence/internal/model"
	"github.com/ppiankov/credence/internal/pipeline"
)

var (
	outJSON string
	outMD   string
	timeout time.Duration
	asOf    string
)

// checkCmd represents the check command
var checkCmd = &cobra.Command{
	Use:   "check <claim>",
	Short: "Check a single claim against corroborating and contradicting sources",
	Long: `Check evaluates one claim:
- Detect whether the claim is time-sensitive and which year it refers to
- Compare it against known time-bounded facts (office holders, etc.)
- Ask the oracle for candidate sources, or replay a saved payload
- Normalize, deduplicate and rank the sources by trust tier
- Verify the best links are live and replace dead ones
- Resolve contradictions and explain the confidence level

Example:
  credence check "The Eiffel Tower is in Paris"
  credence check "Joe Biden is the current US president" --provider openai
  credence check "Rates rose in 2024" --sources payload.json --now 2025-01-15 --md report.md`,
	Args: cobra.MinimumNArgs(1),
	RunE: runCheck,
}

func init() {
	rootCmd.AddCommand(checkCmd)

	checkCmd.Flags().StringVar(&outJSON, "json", "", "output JSON path (optional)")
	checkCmd.Flags().StringVar(&outMD, "md", "", "output Markdown path (optional)")
	checkCmd.Flags().DurationVar(&timeout, "timeout", 90*time.Second, "overall check timeout")
	checkCmd.Flags().StringVar(&asOf, "now", "", "evaluate as of this date (YYYY-MM-DD, default today)")
	addOracleFlags(checkCmd)
}

func runCheck(cmd *cobra.Command, args []string) error {
	claim := strings.Join(args, " ")

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if err := applyFlags(cmd, cfg); err != nil {
		return err
	}

	now, err := parseNow(asOf)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if verbose {
		fmt.Fprintf(os.Stderr, "Checking: %s\n", claim)
		fmt.Fprintf(os.Stderr, "As of:    %s\n", now.Format(time.DateOnly))
		fmt.Fprintf(os.Stderr, "Oracle:   %s\n", describeOracle(cfg))
		fmt.Fprintf(os.Stderr, "Links:    %v (budget %d)\n", cfg.LinkCheck.Enabled, cfg.LinkCheck.Budget)
		fmt.Fprintln(os.Stderr)
	}

	m := metrics.New()
	p, err := pipeline.NewPipeline(cfg, pipeline.WithMetrics(m), pipeline.WithLogger(newLogger()))
	if err != nil {
		return err
	}

	result, err := p.CheckAt(ctx, model.ClaimContext{Text: claim, Now: now})
	if err != nil {
		return fmt.Errorf("check failed: %w", err)
	}

	if verbose {
		fmt.Fprintf(os.Stderr, "✓ Weighed %d source(s)\n", len(result.Sources))
		fmt.Fprintf(os.Stderr, "✓ Verified %d link(s)\n", len(result.LinkChecks))
		fmt.Fprintf(os.Stderr, "✓ Final score: %d/100\n", result.Score)
	}

	if err := p.RenderReport(result, outJSON, outMD, verbose); err != nil {
		return fmt.Errorf("render failed: %w", err)
	}

	return writeMetrics(m, metricsFile)
}

// parseNow reads the --now flag; empty means the current UTC date
func parseNow(s string) (time.Time, error) {
	if s == "" {
		return time.Now().UTC(), nil
	}
	t, err := time.Parse(time.DateOnly, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid --now %q: expected YYYY-MM-DD", s)
	}
	return t, nil
}

func describeOracle(cfg *model.Config) string {
	switch {
	case cfg.Oracle.Provider == "":
		return "none (limited verification)"
	case cfg.Oracle.Provider == "file":
		return "file " + cfg.Oracle.PayloadPath
	case cfg.Oracle.Model != "":
		return cfg.Oracle.Provider + "/" + cfg.Oracle.Model
	default:
		return cfg.Oracle.Provider
	}
}

func writeMetrics(m *metrics.Metrics, path string) error {
	if path == "" {
		return nil
	}
	if err := m.WriteTextfile(path); err != nil {
		return fmt.Errorf("write metrics: %w", err)
	}
	if verbose {
		fmt.Fprintf(os.Stderr, "✓ Metrics written to %s\n", path)
	}
	return nil
}
