package adapt

import (
	"time"

	"github.com/abhisek/singular/internal/card"
)

// PatternType identifies a detectable weakness in recent answer history.
type PatternType string

const (
	// PatternVocabWeakness: the learner keeps missing vocabulary cards.
	PatternVocabWeakness PatternType = "vocab_weakness"
	// PatternGrammarConfusion: grammatical structures are being missed.
	PatternGrammarConfusion PatternType = "grammar_confusion"
	// PatternStructureConfusion: sentence-ordering exercises are failing.
	PatternStructureConfusion PatternType = "structure_confusion"
)

// Detection thresholds: a pattern activates when the rolling error rate
// strictly exceeds its threshold.
const (
	VocabErrorThreshold     = 0.40
	GrammarErrorThreshold   = 0.35
	StructureErrorThreshold = 0.45
)

// ErrorPattern is a weakness derived from the ledger window. It is never
// stored; the engine recomputes it on every snapshot.
type ErrorPattern struct {
	Type       PatternType
	SampleSize int
	ErrorRate  float64
	// Severity measures how far the error rate sits past the threshold,
	// normalized to [0,1].
	Severity float64
	Active   bool
	LastSeen time.Time
}

// Category returns the card category this pattern recommends practicing.
// Structure confusion points at phrase cards, where sentence building lives.
func (t PatternType) Category() card.Category {
	switch t {
	case PatternVocabWeakness:
		return card.CategoryVocabulary
	case PatternGrammarConfusion:
		return card.CategoryGrammar
	case PatternStructureConfusion:
		return card.CategoryPhrase
	}
	return ""
}

// Matches reports whether a card with the given category and sub-type falls
// under this pattern for interval damping purposes.
func (p *ErrorPattern) Matches(cat card.Category, sub card.SubType) bool {
	switch p.Type {
	case PatternVocabWeakness:
		return cat == card.CategoryVocabulary
	case PatternGrammarConfusion:
		return cat == card.CategoryGrammar
	case PatternStructureConfusion:
		return sub == card.SubTypeBuildSentence
	}
	return false
}

// severity normalizes how far errorRate exceeds threshold into [0,1].
func severity(errorRate, threshold float64) float64 {
	s := (errorRate - threshold) / (1 - threshold)
	if s < 0 {
		return 0
	}
	if s > 1 {
		return 1
	}
	return s
}
