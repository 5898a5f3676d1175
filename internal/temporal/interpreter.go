// Package temporal extracts time sensitivity and recency requirements from claim text.
package temporal

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/ppiankov/credence/internal/model"
	"github.com/ppiankov/credence/internal/reference"
)

var (
	currentPattern  = regexp.MustCompile(`\b(currently|now|as of today|as of now|today|current|at present|presently|incumbent|still|these days|right now|remains)\b`)
	pastPattern     = regexp.MustCompile(`\b(was|were|formerly|former|ago|previously|used to|had been|once|in the past|ex-)\b`)
	futurePattern   = regexp.MustCompile(`\b(will be|will|upcoming|going to|next year|next month|is expected to|plans to|scheduled to|soon)\b`)
	relativePattern = regexp.MustCompile(`\b(recently|lately|last (year|month|week)|this (year|month|week)|yesterday|past (few )?(days|weeks|months|years))\b`)
	yearPattern     = regexp.MustCompile(`\b(19\d{2}|20\d{2})\b`)
)

// Interpreter classifies the temporal reference of a claim
type Interpreter struct {
	tables *reference.Tables
}

// NewInterpreter creates an interpreter backed by the given reference tables
func NewInterpreter(tables *reference.Tables) *Interpreter {
	if tables == nil {
		tables = reference.Default()
	}
	return &Interpreter{tables: tables}
}

// Interpret derives the temporal signal of text relative to now
func (i *Interpreter) Interpret(text string, now time.Time) model.TemporalSignal {
	lower := strings.ToLower(text)

	signal := model.TemporalSignal{ReferenceType: model.RefNone}

	if year, ok := latestYear(lower); ok {
		signal.HasReference = true
		signal.TargetYear = &year

		switch {
		case year == now.Year() || year == now.Year()-1:
			signal.ReferenceType = model.RefCurrent
			signal.RequiresRecentSources = true
		case year > now.Year():
			signal.ReferenceType = model.RefFuture
		default:
			signal.ReferenceType = model.RefSpecificYear
		}
	} else {
		switch {
		case currentPattern.MatchString(lower):
			signal.ReferenceType = model.RefCurrent
			signal.RequiresRecentSources = true
		case futurePattern.MatchString(lower):
			signal.ReferenceType = model.RefFuture
		case relativePattern.MatchString(lower):
			signal.ReferenceType = model.RefRelative
			signal.RequiresRecentSources = true
		case pastPattern.MatchString(lower):
			signal.ReferenceType = model.RefPast
		}
		signal.HasReference = signal.ReferenceType != model.RefNone
	}

	if topics := i.tables.TimeSensitiveTopics(lower); len(topics) > 0 {
		signal.TimeSensitiveTopics = topics
		signal.RequiresRecentSources = true
	}

	return signal
}

// latestYear returns the most recent 4-digit year mentioned in text
func latestYear(lower string) (int, bool) {
	found := false
	latest := 0
	for _, m := range yearPattern.FindAllString(lower, -1) {
		year, err := strconv.Atoi(m)
		if err != nil {
			continue
		}
		if year > latest {
			latest = year
		}
		found = true
	}
	return latest, found
}
