package facts

import (
	"strings"
	"testing"
	"time"

	"github.com/ppiankov/credence/internal/model"
	"github.com/ppiankov/credence/internal/reference"
)

var now = time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)

func TestCheck_ExpiredOfficeHolderConflict(t *testing.T) {
	checker := NewChecker(reference.Default())

	result := checker.Check("Joe Biden is the current President of the United States", now)

	if !result.HasConflict {
		t.Fatal("Expected a conflict")
	}
	if len(result.ConflictDetails) != 1 {
		t.Fatalf("Expected one conflict detail, got %v", result.ConflictDetails)
	}
	detail := result.ConflictDetails[0]
	if !strings.Contains(detail, "2025-01-20") {
		t.Errorf("Expected detail to cite the end date, got %q", detail)
	}
	if !strings.Contains(detail, "donald trump") {
		t.Errorf("Expected detail to name the current holder, got %q", detail)
	}
	if !result.RequiresEnhancedVerification {
		t.Error("Conflict should require enhanced verification")
	}
}

func TestCheck_NoConflict(t *testing.T) {
	checker := NewChecker(reference.Default())

	tests := []struct {
		text string
		now  time.Time
		desc string
	}{
		{"Donald Trump is the current president of the United States", now, "current holder named"},
		{"Joe Biden was president of the United States", now, "past tense"},
		{"Former president Joe Biden is writing a book", now, "former marker"},
		{"Joe Biden is the current President of the United States", time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC), "before end date"},
		{"Bread is made from flour", now, "unrelated claim"},
	}

	for _, tt := range tests {
		t.Run(tt.desc, func(t *testing.T) {
			if result := checker.Check(tt.text, tt.now); result.HasConflict {
				t.Errorf("Unexpected conflict: %v", result.ConflictDetails)
			}
		})
	}
}

func TestCheck_StaleClaim(t *testing.T) {
	checker := NewChecker(reference.Default())

	result := checker.Check("Joe Biden was president of the United States", now)
	if result.HasConflict {
		t.Fatal("Past-tense claim should not conflict")
	}
	if !result.RequiresEnhancedVerification {
		t.Error("Expected enhanced verification for a role without its current holder")
	}

	var stale *model.FactMatch
	for i := range result.MatchedFacts {
		if result.MatchedFacts[i].Kind == model.FactMatchStaleClaim {
			stale = &result.MatchedFacts[i]
		}
	}
	if stale == nil {
		t.Fatal("Expected a possible stale claim match")
	}
	if stale.Fact.Subject != "donald trump" {
		t.Errorf("Expected stale match on the current holder, got %s", stale.Fact.Subject)
	}
}

func TestCheck_CurrentHolderNamedNoStaleMatch(t *testing.T) {
	checker := NewChecker(reference.Default())

	result := checker.Check("Keir Starmer is prime minister of the UK", now)
	for _, m := range result.MatchedFacts {
		if m.Kind == model.FactMatchStaleClaim && m.Fact.Subject == "keir starmer" {
			t.Errorf("Current holder is named; unexpected stale match %+v", m)
		}
	}
	if result.HasConflict {
		t.Errorf("Unexpected conflict %v", result.ConflictDetails)
	}
}

func TestCheck_SubordinateOfficeIgnored(t *testing.T) {
	checker := NewChecker(reference.Default())

	tests := []struct {
		text     string
		expected int
		desc     string
	}{
		{"JD Vance is the Vice President of the United States", 0, "vice president"},
		{"Kamala Harris is the vice-president of the USA", 0, "hyphenated vice president"},
		{"Angela Rayner is the Deputy Prime Minister of the UK", 0, "deputy prime minister"},
		{"The vice president met the president of the United States", 1, "both offices named"},
		{"The President of the United States signed the bill", 1, "plain office still matches"},
	}

	for _, tt := range tests {
		t.Run(tt.desc, func(t *testing.T) {
			result := checker.Check(tt.text, now)
			if result.HasConflict {
				t.Errorf("Unexpected conflict: %v", result.ConflictDetails)
			}
			if len(result.MatchedFacts) != tt.expected {
				t.Errorf("Expected %d matched facts, got %d: %+v", tt.expected, len(result.MatchedFacts), result.MatchedFacts)
			}
		})
	}
}

func TestCheck_AliasesAndPunctuation(t *testing.T) {
	checker := NewChecker(reference.Default())

	result := checker.Check("Sunak is still the U.K. prime minister.", now)
	if !result.HasConflict {
		t.Fatal("Expected conflict via subject and entity aliases")
	}
	if !strings.Contains(result.ConflictDetails[0], "keir starmer") {
		t.Errorf("Expected current holder in detail, got %q", result.ConflictDetails[0])
	}
}

func TestCheck_WordBoundaries(t *testing.T) {
	tables, err := reference.Parse([]byte(`
critical_facts:
  - subject: al
    role: mayor
    entity: springfield
    valid_from: "2000-01-01"
    valid_until: "2010-01-01"
`))
	if err != nil {
		t.Fatal(err)
	}
	checker := NewChecker(tables)

	if result := checker.Check("Alice is the mayor", now); result.HasConflict {
		t.Error("Subject should not match inside another word")
	}
	if result := checker.Check("Al is the mayor", now); !result.HasConflict {
		t.Error("Expected conflict for whole-word subject")
	}
}
