package linkcheck

import (
	"context"
	"sort"

	"golang.org/x/sync/errgroup"

	"github.com/ppiankov/credence/internal/dedup"
	"github.com/ppiankov/credence/internal/metrics"
	"github.com/ppiankov/credence/internal/model"
)

// Verification is the outcome of verifying a best list
type Verification struct {
	Best       []model.VerifiedSource
	Statuses   []model.LinkStatus // Every check performed, in issue order
	ChecksUsed int
}

// Dead returns the URLs confirmed dead
func (v Verification) Dead() map[string]bool {
	dead := make(map[string]bool)
	for _, s := range v.Statuses {
		if !s.IsLive {
			dead[s.URL] = true
		}
	}
	return dead
}

// Verifier checks the best list and backfills dead entries from the pool
type Verifier struct {
	checker Checker
	budget  int
	workers int
	metrics *metrics.Metrics
}

// NewVerifier creates a verifier with a total check budget and a worker limit
func NewVerifier(checker Checker, budget, workers int, m *metrics.Metrics) *Verifier {
	if workers <= 0 {
		workers = 4
	}
	if budget < 0 {
		budget = 0
	}
	return &Verifier{checker: checker, budget: budget, workers: workers, metrics: m}
}

// Verify checks best first, then replacement candidates from pool in trust
// tier order. Replacements never share a registrable domain with a kept entry
// and fill vacated positions in order. Once the budget is spent, originals
// stay unchecked and vacated slots stay empty.
func (v *Verifier) Verify(ctx context.Context, best, pool []model.NormalizedSource) Verification {
	var out Verification
	remaining := v.budget

	// Phase 1: the original best list
	n := len(best)
	if n > remaining {
		n = remaining
	}
	statuses := v.checkAll(ctx, urlsOf(best[:n]))
	out.Statuses = append(out.Statuses, statuses...)
	remaining -= n

	entries := make([]*model.VerifiedSource, len(best))
	considered := make(map[string]bool)
	usedDomains := make(map[string]bool)
	var vacated []int

	for i, s := range best {
		considered[s.URL] = true
		if i >= n {
			entries[i] = &model.VerifiedSource{Source: s}
			usedDomains[dedup.DomainOf(s.URL)] = true
			continue
		}
		if statuses[i].IsLive {
			entries[i] = &model.VerifiedSource{Source: s, Checked: true, IsLive: true}
			usedDomains[dedup.DomainOf(s.URL)] = true
			continue
		}
		vacated = append(vacated, i)
	}

	// Phase 2: replacements in tier order
	candidates := replacementCandidates(pool, considered)

	filled := 0
	for filled < len(vacated) && remaining > 0 && len(candidates) > 0 {
		want := len(vacated) - filled
		if want > remaining {
			want = remaining
		}

		// One candidate per domain per batch so two live results never collide
		var batch []model.NormalizedSource
		batchDomains := make(map[string]bool)
		var rest []model.NormalizedSource
		for _, c := range candidates {
			domain := dedup.DomainOf(c.URL)
			switch {
			case usedDomains[domain]:
				// Drop: domain already represented
			case len(batch) < want && !batchDomains[domain]:
				batch = append(batch, c)
				batchDomains[domain] = true
			default:
				rest = append(rest, c)
			}
		}
		candidates = rest
		if len(batch) == 0 {
			break
		}

		results := v.checkAll(ctx, urlsOf(batch))
		out.Statuses = append(out.Statuses, results...)
		remaining -= len(batch)

		for i, c := range batch {
			if !results[i].IsLive || filled == len(vacated) {
				continue
			}
			pos := vacated[filled]
			entries[pos] = &model.VerifiedSource{
				Source:         c,
				Checked:        true,
				IsLive:         true,
				ReplacementFor: best[pos].URL,
			}
			usedDomains[dedup.DomainOf(c.URL)] = true
			filled++
		}
	}

	for _, e := range entries {
		if e != nil {
			out.Best = append(out.Best, *e)
		}
	}
	out.ChecksUsed = v.budget - remaining
	v.metrics.IncrementReplacements(filled)

	return out
}

// replacementCandidates returns the unconsidered pool entries in tier order.
// A generic URL is dropped when a specific candidate of the same or a better
// tier exists, and otherwise sorts after specific links of its tier.
func replacementCandidates(pool []model.NormalizedSource, considered map[string]bool) []model.NormalizedSource {
	bestSpecificRank := -1
	for _, s := range pool {
		if considered[s.URL] || s.IsGenericURL {
			continue
		}
		if r := s.TrustTier.Rank(); bestSpecificRank < 0 || r < bestSpecificRank {
			bestSpecificRank = r
		}
	}

	candidates := make([]model.NormalizedSource, 0, len(pool))
	for _, s := range pool {
		if considered[s.URL] {
			continue
		}
		if s.IsGenericURL && bestSpecificRank >= 0 && bestSpecificRank <= s.TrustTier.Rank() {
			continue
		}
		candidates = append(candidates, s)
	}
	sort.SliceStable(candidates, func(i, j int) bool {
		ri, rj := candidates[i].TrustTier.Rank(), candidates[j].TrustTier.Rank()
		if ri != rj {
			return ri < rj
		}
		return !candidates[i].IsGenericURL && candidates[j].IsGenericURL
	})
	return candidates
}

// checkAll checks urls concurrently up to the worker limit, preserving order
func (v *Verifier) checkAll(ctx context.Context, urls []string) []model.LinkStatus {
	results := make([]model.LinkStatus, len(urls))

	var g errgroup.Group
	g.SetLimit(v.workers)
	for i, u := range urls {
		g.Go(func() error {
			results[i] = v.checker.Check(ctx, u)
			return nil
		})
	}
	_ = g.Wait()

	return results
}

func urlsOf(sources []model.NormalizedSource) []string {
	urls := make([]string, len(sources))
	for i, s := range sources {
		urls[i] = s.URL
	}
	return urls
}
