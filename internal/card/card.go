// Package card defines the immutable review card model produced by the
// content-generation pipeline and consumed by the scheduler.
package card

import (
	"fmt"
	"time"
)

// Category classifies what kind of knowledge a card carries.
type Category string

const (
	CategoryVocabulary Category = "vocabulary"
	CategoryPhrase     Category = "phrase"
	CategoryGrammar    Category = "grammar"
)

// SubType tags phrase and grammar cards with the exercise form they were
// generated for. Vocabulary cards carry no sub-type.
type SubType string

const (
	SubTypeNone          SubType = ""
	SubTypeTranslation   SubType = "translation"
	SubTypeFillBlank     SubType = "fill_blank"
	SubTypeBuildSentence SubType = "build_sentence"
)

// Card is the atomic unit of knowledge under review. Cards are created once
// at lesson-ingestion time and never mutated afterwards; all mutable review
// bookkeeping lives in the paired ReviewState.
type Card struct {
	ID        string
	Lesson    string
	Category  Category
	SubType   SubType
	Front     string
	Back      string
	CreatedAt time.Time
}

// Validate checks the fields a card must carry before ingestion.
func (c *Card) Validate() error {
	if c.Front == "" {
		return fmt.Errorf("card %q: empty front", c.ID)
	}
	if c.Back == "" {
		return fmt.Errorf("card %q: empty back", c.ID)
	}
	switch c.Category {
	case CategoryVocabulary, CategoryPhrase, CategoryGrammar:
	default:
		return fmt.Errorf("card %q: unknown category %q", c.ID, c.Category)
	}
	switch c.SubType {
	case SubTypeNone, SubTypeTranslation, SubTypeFillBlank, SubTypeBuildSentence:
	default:
		return fmt.Errorf("card %q: unknown sub-type %q", c.ID, c.SubType)
	}
	if c.Category == CategoryVocabulary && c.SubType != SubTypeNone {
		return fmt.Errorf("card %q: vocabulary cards carry no sub-type", c.ID)
	}
	return nil
}
