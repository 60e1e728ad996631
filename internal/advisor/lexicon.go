package advisor

import (
	"strings"

	"golang.org/x/text/cases"
)

// Intent names a class of user message the orchestrator reacts to.
type Intent string

const (
	// IntentAccept accepts an outstanding recommendation offer.
	IntentAccept Intent = "accept"
	// IntentCourse asks about courses directly.
	IntentCourse Intent = "course"
)

// Lexicon maps each intent to its trigger phrases.
// Matching is a case-insensitive substring test, so "math" also fires on
// "aftermath". Keep triggers specific enough for that.
type Lexicon map[Intent][]string

// DefaultLexicon returns the built-in trigger table.
func DefaultLexicon() Lexicon {
	return Lexicon{
		IntentAccept: {"yes", "sure", "recommend"},
		IntentCourse: {
			"course", "credit", "class", "subject", "recommend", "suggest",
			"dual credit", "english", "science", "math", "history", "art",
			"elective", "graduation", "requirements", "what should i take",
		},
	}
}

// Match reports whether message contains any trigger of intent.
func (l Lexicon) Match(intent Intent, message string) bool {
	if message == "" {
		return false
	}
	// cases.Caser is stateful, so each call gets its own.
	folder := cases.Fold()
	folded := folder.String(message)
	for _, trigger := range l[intent] {
		if trigger == "" {
			continue
		}
		if strings.Contains(folded, folder.String(trigger)) {
			return true
		}
	}
	return false
}
