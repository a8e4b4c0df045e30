package store

import (
	"context"
	"errors"
	"time"

	"github.com/abhisek/singular/internal/card"
	"github.com/abhisek/singular/internal/srs"
)

// ErrCardNotFound indicates a lookup for a card id that was never ingested.
var ErrCardNotFound = errors.New("card not found")

// ReviewEvent is one scored attempt in the append-only ledger. Events are
// written once and never mutated; every aggregate statistic is derived from
// them rather than maintained as a separate counter.
type ReviewEvent struct {
	CardID     string
	Category   card.Category
	SubType    card.SubType
	Quality    int
	WasCorrect bool
	LatencyMs  int
	Timestamp  time.Time
}

// CardWithState pairs a card with its current review state for queue and
// display purposes.
type CardWithState struct {
	Card  card.Card
	State srs.ReviewState
}

// EventRepo is the review ledger: append plus bounded most-recent-first
// window reads. The adaptation engine reads exclusively through it.
type EventRepo interface {
	// Append adds one event to the ledger.
	Append(ctx context.Context, ev ReviewEvent) error

	// RecentByCategory returns up to limit events for a category,
	// most recent first.
	RecentByCategory(ctx context.Context, cat card.Category, limit int) ([]ReviewEvent, error)

	// RecentBySubType returns up to limit events for an exercise sub-type,
	// most recent first.
	RecentBySubType(ctx context.Context, sub card.SubType, limit int) ([]ReviewEvent, error)
}

// Repo is the full persistence surface the review service depends on.
type Repo interface {
	EventRepo

	// InsertCards stores freshly generated cards together with their
	// initial review states, atomically.
	InsertCards(ctx context.Context, cards []card.Card) error

	// GetCard returns a card by id, or ErrCardNotFound.
	GetCard(ctx context.Context, id string) (*card.Card, error)

	// GetState returns the review state for a card, or ErrCardNotFound.
	GetState(ctx context.Context, cardID string) (*srs.ReviewState, error)

	// CommitReview persists a post-attempt review state and appends the
	// paired ledger event in a single transaction. Neither is visible
	// unless both succeed.
	CommitReview(ctx context.Context, state srs.ReviewState, ev ReviewEvent) error

	// DueCards returns non-new cards with due_at <= now, oldest due first,
	// ties broken by card id.
	DueCards(ctx context.Context, now time.Time, limit int) ([]CardWithState, error)

	// NewCards returns cards still in the new state, in ingestion order.
	NewCards(ctx context.Context, limit int) ([]CardWithState, error)

	// CountByState returns the number of cards per review state.
	CountByState(ctx context.Context) (map[srs.CardState]int, error)

	// DueCount returns how many non-new cards are due at now.
	DueCount(ctx context.Context, now time.Time) (int, error)

	// MasteredCount returns how many review-state cards hold an interval
	// strictly greater than minIntervalDays.
	MasteredCount(ctx context.Context, minIntervalDays int) (int, error)

	// AccuracySince returns correct and total attempt counts for events at
	// or after since.
	AccuracySince(ctx context.Context, since time.Time) (correct, total int, err error)
}
