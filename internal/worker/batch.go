package worker

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/ppiankov/credence/internal/model"
)

// Checker evaluates a single claim
type Checker interface {
	Check(ctx context.Context, claim string) (*model.Result, error)
}

// CheckJob is one claim to evaluate
type CheckJob struct {
	Claim   string
	Checker Checker
	Timeout time.Duration // Per-claim limit; zero means none
}

// Execute runs the check
func (j *CheckJob) Execute(ctx context.Context) Result {
	if j.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, j.Timeout)
		defer cancel()
	}

	result, err := j.Checker.Check(ctx, j.Claim)
	if err != nil {
		return &CheckResult{Claim: j.Claim, Error: err}
	}
	return &CheckResult{Claim: j.Claim, Result: result}
}

// CheckResult is the outcome of one claim check
type CheckResult struct {
	Claim  string
	Result *model.Result
	Error  error
}

// GetError returns the check error
func (r *CheckResult) GetError() error {
	return r.Error
}

// BatchProcessor checks many claims concurrently
type BatchProcessor struct {
	checker     Checker
	concurrency int
	timeout     time.Duration
}

// NewBatchProcessor creates a batch processor
func NewBatchProcessor(checker Checker, concurrency int, timeout time.Duration) *BatchProcessor {
	return &BatchProcessor{
		checker:     checker,
		concurrency: concurrency,
		timeout:     timeout,
	}
}

// ProcessClaims checks claims concurrently and returns results in input order.
// Claims not started before ctx is cancelled are reported with ctx's error.
func (b *BatchProcessor) ProcessClaims(ctx context.Context, claims []string) []*CheckResult {
	if len(claims) == 0 {
		return []*CheckResult{}
	}

	pool := NewPool(ctx, b.concurrency)
	pool.Start()

	for _, claim := range claims {
		if !pool.Submit(&CheckJob{Claim: claim, Checker: b.checker, Timeout: b.timeout}) {
			break
		}
	}

	results := pool.Wait()

	out := make([]*CheckResult, len(claims))
	for i, claim := range claims {
		if i < len(results) && results[i] != nil {
			out[i] = results[i].(*CheckResult)
			continue
		}
		err := ctx.Err()
		if err == nil {
			err = context.Canceled
		}
		out[i] = &CheckResult{Claim: claim, Error: fmt.Errorf("not checked: %w", err)}
	}

	return out
}

// ProcessFile reads claims from a file and checks them concurrently
func (b *BatchProcessor) ProcessFile(ctx context.Context, filePath string) ([]*CheckResult, error) {
	claims, err := ReadClaimsFromFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("read claims: %w", err)
	}

	return b.ProcessClaims(ctx, claims), nil
}

// ReadClaimsFromFile reads one claim per line. Blank lines and # comments are
// skipped; repeated claims (ignoring case and spacing) are checked once.
func ReadClaimsFromFile(filePath string) ([]string, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("open file: %w", err)
	}
	defer func() { _ = file.Close() }()

	var claims []string
	seen := make(map[string]bool)

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.Join(strings.Fields(scanner.Text()), " ")

		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		key := strings.ToLower(line)
		if !seen[key] {
			seen[key] = true
			claims = append(claims, line)
		}
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan file: %w", err)
	}

	return claims, nil
}
