package srs

import "time"

// CardState represents a card's position in the review lifecycle.
type CardState string

const (
	StateNew        CardState = "new"
	StateLearning   CardState = "learning"
	StateReview     CardState = "review"
	StateRelearning CardState = "relearning"
)

// ReviewState holds the spaced repetition state for a single card.
// It is mutated only by the scheduler; one state exists per card for the
// card's whole lifetime.
type ReviewState struct {
	CardID       string
	State        CardState
	EaseFactor   float64
	IntervalDays int
	Repetitions  int
	Lapses       int

	// IntervalBeforeLapse remembers the review interval held when the card
	// last lapsed out of the review state. Relearning recovery grants half
	// of it back on graduation.
	IntervalBeforeLapse int

	DueAt          time.Time
	LastReviewedAt time.Time
}

// NewReviewState returns the initial state for a freshly ingested card.
func NewReviewState(cardID string, createdAt time.Time) ReviewState {
	return ReviewState{
		CardID:     cardID,
		State:      StateNew,
		EaseFactor: EaseFactorDefault,
		DueAt:      createdAt,
	}
}

// IsDue reports whether the card is at or past its due time.
func (rs *ReviewState) IsDue(now time.Time) bool {
	return !now.Before(rs.DueAt)
}

// OverdueDays returns how many days past due the card is. Returns 0 if the
// card is not yet due.
func (rs *ReviewState) OverdueDays(now time.Time) float64 {
	if now.Before(rs.DueAt) {
		return 0
	}
	return now.Sub(rs.DueAt).Hours() / 24.0
}
