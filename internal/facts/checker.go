// Package facts matches claims against the curated table of time-bounded facts.
package facts

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/ppiankov/credence/internal/model"
	"github.com/ppiankov/credence/internal/reference"
)

const dateLayout = "2006-01-02"

var (
	// Lexical signals that the claim presents the role as held today
	currentAssertion = regexp.MustCompile(`\b(is|are|remains|remain|currently|serves as|serving as|still|now|incumbent|sitting|current)\b`)
	pastMarker       = regexp.MustCompile(`\b(was|were|former|formerly|ex-|previously|used to|until|served as|had been|once)\b`)

	// A role mention ending in one of these names a different office
	subordinateOffice = regexp.MustCompile(`(^|[^a-z0-9])(vice|deputy|lieutenant)[\s-]*$`)
)

// phrase matches any of a set of lower-cased phrases on word boundaries
type phrase struct {
	re *regexp.Regexp
}

func newPhrase(main string, aliases []string) phrase {
	var alts []string
	for _, p := range append([]string{main}, aliases...) {
		if p = strings.TrimSpace(p); p != "" {
			alts = append(alts, regexp.QuoteMeta(p))
		}
	}
	if len(alts) == 0 {
		return phrase{}
	}
	return phrase{re: regexp.MustCompile(`(^|[^a-z0-9])(` + strings.Join(alts, "|") + `)($|[^a-z0-9])`)}
}

func (p phrase) in(lower string) bool {
	return p.re != nil && p.re.MatchString(lower)
}

// inOffice is like in but ignores mentions of a subordinate office, so
// "vice president" does not count as "president"
func (p phrase) inOffice(lower string) bool {
	if p.re == nil {
		return false
	}
	for _, m := range p.re.FindAllStringSubmatchIndex(lower, -1) {
		if !subordinateOffice.MatchString(lower[:m[4]]) {
			return true
		}
	}
	return false
}

type compiledFact struct {
	fact    model.CriticalFact
	subject phrase
	role    phrase
	entity  phrase
}

// Checker flags claims that present an expired office-holder as current
type Checker struct {
	facts []compiledFact
}

// NewChecker compiles the critical fact table
func NewChecker(tables *reference.Tables) *Checker {
	if tables == nil {
		tables = reference.Default()
	}

	c := &Checker{}
	for _, f := range tables.CriticalFacts() {
		c.facts = append(c.facts, compiledFact{
			fact:    f,
			subject: newPhrase(f.Subject, f.SubjectAliases),
			role:    newPhrase(f.Role, f.RoleAliases),
			entity:  newPhrase(f.Entity, f.EntityAliases),
		})
	}
	return c
}

// Check annotates text against the fact table as of now. It never raises a verdict.
func (c *Checker) Check(text string, now time.Time) model.FactCheckResult {
	lower := strings.ToLower(text)
	assertsCurrent := currentAssertion.MatchString(lower) && !pastMarker.MatchString(lower)

	var result model.FactCheckResult

	for _, cf := range c.facts {
		if !cf.role.inOffice(lower) {
			continue
		}
		subjectNamed := cf.subject.in(lower)

		if subjectNamed && assertsCurrent && cf.fact.ValidUntil != nil && cf.fact.ValidUntil.Before(now) {
			detail := fmt.Sprintf("%s held the role of %s of %s only until %s",
				cf.fact.Subject, cf.fact.Role, cf.fact.Entity, cf.fact.ValidUntil.Format(dateLayout))
			if holder, ok := c.currentHolder(cf.fact, now); ok {
				detail += fmt.Sprintf("; the current holder is %s (since %s)", holder.Subject, holder.ValidFrom.Format(dateLayout))
			}

			result.HasConflict = true
			result.ConflictDetails = append(result.ConflictDetails, detail)
			result.MatchedFacts = append(result.MatchedFacts, model.FactMatch{
				Fact: cf.fact,
				Kind: model.FactMatchConflict,
				Note: detail,
			})
			continue
		}

		// Role and entity named, current holder not named
		if !subjectNamed && cf.entity.in(lower) && cf.fact.IsCurrentAt(now) {
			result.MatchedFacts = append(result.MatchedFacts, model.FactMatch{
				Fact: cf.fact,
				Kind: model.FactMatchStaleClaim,
				Note: fmt.Sprintf("claim mentions the %s of %s without naming the current holder, %s",
					cf.fact.Role, cf.fact.Entity, cf.fact.Subject),
			})
		}
	}

	result.RequiresEnhancedVerification = len(result.MatchedFacts) > 0
	return result
}

// currentHolder finds the fact for the same role and entity that holds at now
func (c *Checker) currentHolder(f model.CriticalFact, now time.Time) (model.CriticalFact, bool) {
	for _, cf := range c.facts {
		if cf.fact.Role == f.Role && cf.fact.Entity == f.Entity && cf.fact.IsCurrentAt(now) {
			return cf.fact, true
		}
	}
	return model.CriticalFact{}, false
}
