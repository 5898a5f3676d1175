package oracle

import (
	"fmt"
	"strings"
	"time"

	"github.com/ppiankov/credence/internal/model"
)

const systemPrompt = "You are an evidence researcher for a claim credibility checker. " +
	"You return candidate sources as strict JSON and never invent URLs."

// BuildPrompt asks for a JSON evidence payload, annotated with what the
// preflight found about time sensitivity and known facts
func BuildPrompt(req Request) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Today is %s.\n\n", req.Claim.Now.Format(time.DateOnly))
	fmt.Fprintf(&b, "Claim: %q\n\n", req.Claim.Text)

	b.WriteString(`Find published sources that corroborate or contradict this claim.

RULES:
1. Only cite specific article pages you are confident exist. Never cite homepages, section pages, search results or generic encyclopedia entries.
2. Prefer official bodies (government, intergovernmental, academic) and major news organizations.
3. Tag each source with a stance: corroborating, neutral or contradicting.
4. Give the publication date of each source when known.
5. If you find nothing reliable, return an empty "sources" list. Do not pad it.
`)

	if notes := temporalNotes(req.Claim.Now, req.Temporal); len(notes) > 0 {
		b.WriteString("\nTIME SENSITIVITY:\n")
		for _, n := range notes {
			fmt.Fprintf(&b, "- %s\n", n)
		}
	}

	if len(req.Facts.MatchedFacts) > 0 {
		b.WriteString("\nKNOWN FACTS (verify the claim against these):\n")
		for _, m := range req.Facts.MatchedFacts {
			fmt.Fprintf(&b, "- %s\n", m.Note)
		}
	}

	b.WriteString(`
Respond with a single JSON object and nothing else:
{
  "verdict": "credible | mostly_credible | uncertain | misleading | not_credible",
  "score": 0-100,
  "summary": "one or two sentences",
  "sources": [
    {
      "title": "...",
      "articleUrl": "https://...",
      "publisher": "...",
      "snippet": "why this source matters for the claim",
      "trustTier": "high | medium | low",
      "stance": "corroborating | neutral | contradicting",
      "published": "YYYY-MM-DD"
    }
  ]
}`)

	return b.String()
}

func temporalNotes(now time.Time, t model.TemporalSignal) []string {
	var notes []string

	switch t.ReferenceType {
	case model.RefCurrent:
		notes = append(notes, "The claim is about the present. Older sources may describe a situation that has since changed.")
	case model.RefSpecificYear:
		if t.TargetYear != nil {
			notes = append(notes, fmt.Sprintf("The claim is about %d. Prefer sources from or about that year.", *t.TargetYear))
		}
	case model.RefFuture:
		notes = append(notes, "The claim is about the future. Sources can only report plans or forecasts.")
	}
	if t.RequiresRecentSources {
		notes = append(notes, fmt.Sprintf("Prefer sources published in %d or %d.", now.Year()-1, now.Year()))
	}
	if len(t.TimeSensitiveTopics) > 0 {
		notes = append(notes, "Time-sensitive topics: "+strings.Join(t.TimeSensitiveTopics, ", ")+".")
	}

	return notes
}
