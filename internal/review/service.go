// Package review orchestrates the core loop: normalize an answer signal,
// advance the card's schedule, append to the ledger, and serve the review
// queue and adaptation snapshot to callers.
package review

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/abhisek/singular/internal/adapt"
	"github.com/abhisek/singular/internal/card"
	"github.com/abhisek/singular/internal/srs"
	"github.com/abhisek/singular/internal/store"
)

// MasteredIntervalDays is the review interval beyond which a card counts as
// mastered in progress stats.
const MasteredIntervalDays = 7

// Service is the externally callable core.
type Service struct {
	repo          store.Repo
	engine        *adapt.Engine
	fastLatencyMs int
	log           *zap.SugaredLogger
	locks         cardLocks
}

// NewService wires the review service. A nil logger disables logging.
func NewService(repo store.Repo, engine *adapt.Engine, fastLatencyMs int, log *zap.SugaredLogger) *Service {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	if fastLatencyMs <= 0 {
		fastLatencyMs = srs.DefaultFastLatencyMs
	}
	return &Service{
		repo:          repo,
		engine:        engine,
		fastLatencyMs: fastLatencyMs,
		log:           log,
	}
}

// ReviewResult reports the outcome of one recorded attempt.
type ReviewResult struct {
	CardID          string
	Quality         int
	WasCorrect      bool
	NewState        srs.CardState
	NewIntervalDays int
	NextDue         time.Time
	Feedback        string
}

// RecordAttempt scores one answer for a card and advances its schedule.
// The state update and the ledger append commit together or not at all, and
// concurrent attempts on the same card are serialized.
//
// Duplicate submissions of the same logical attempt are a caller concern:
// the service scores whatever it is given.
func (s *Service) RecordAttempt(ctx context.Context, cardID string, sig srs.Signal, now time.Time) (*ReviewResult, error) {
	quality, err := srs.Normalize(sig, s.fastLatencyMs)
	if err != nil {
		return nil, err
	}

	mu := s.locks.lock(cardID)
	defer mu.Unlock()

	c, err := s.repo.GetCard(ctx, cardID)
	if err != nil {
		return nil, err
	}
	state, err := s.repo.GetState(ctx, cardID)
	if err != nil {
		return nil, err
	}

	// The snapshot is a tuning signal; a slightly stale ledger view here
	// is acceptable.
	snap, err := s.engine.Snapshot(ctx, now)
	if err != nil {
		return nil, fmt.Errorf("adaptation snapshot: %w", err)
	}
	damping := snap.DampingFor(c.Category, c.SubType)

	next := srs.Next(*state, quality, damping, now)
	ev := store.ReviewEvent{
		CardID:     cardID,
		Category:   c.Category,
		SubType:    c.SubType,
		Quality:    quality,
		WasCorrect: quality >= srs.LapseThreshold,
		LatencyMs:  sig.LatencyMs,
		Timestamp:  now,
	}

	if err := s.repo.CommitReview(ctx, next, ev); err != nil {
		return nil, err
	}

	s.log.Debugw("attempt recorded",
		"card", cardID,
		"quality", quality,
		"state", string(next.State),
		"interval_days", next.IntervalDays,
		"damping", damping,
	)

	return &ReviewResult{
		CardID:          cardID,
		Quality:         quality,
		WasCorrect:      ev.WasCorrect,
		NewState:        next.State,
		NewIntervalDays: next.IntervalDays,
		NextDue:         next.DueAt,
		Feedback:        srs.QualityFeedback(quality),
	}, nil
}

// DueCards selects the review queue: due cards oldest-overdue first, then,
// if includeNew, new cards capped by both the remaining room under limit
// and the adaptation snapshot's daily new-card quota.
func (s *Service) DueCards(ctx context.Context, now time.Time, limit int, includeNew bool) ([]store.CardWithState, error) {
	if limit <= 0 {
		return nil, nil
	}

	due, err := s.repo.DueCards(ctx, now, limit)
	if err != nil {
		return nil, err
	}
	if !includeNew || len(due) >= limit {
		return due, nil
	}

	snap, err := s.engine.Snapshot(ctx, now)
	if err != nil {
		return nil, fmt.Errorf("adaptation snapshot: %w", err)
	}

	room := limit - len(due)
	if room > snap.DailyNewLimit {
		room = snap.DailyNewLimit
	}
	if room <= 0 {
		return due, nil
	}

	fresh, err := s.repo.NewCards(ctx, room)
	if err != nil {
		return nil, err
	}
	return append(due, fresh...), nil
}

// Snapshot returns the current adaptation snapshot.
func (s *Service) Snapshot(ctx context.Context, now time.Time) (*adapt.Snapshot, error) {
	return s.engine.Snapshot(ctx, now)
}

// Ingest stores newly generated cards, minting ids and timestamps where the
// producer left them empty. Returns the number of cards stored.
func (s *Service) Ingest(ctx context.Context, cards []card.Card, now time.Time) (int, error) {
	for i := range cards {
		if cards[i].ID == "" {
			cards[i].ID = uuid.New().String()
		}
		if cards[i].CreatedAt.IsZero() {
			cards[i].CreatedAt = now
		}
		if err := cards[i].Validate(); err != nil {
			return 0, err
		}
	}
	if err := s.repo.InsertCards(ctx, cards); err != nil {
		return 0, err
	}
	s.log.Infow("cards ingested", "count", len(cards))
	return len(cards), nil
}

// ProgressStats summarizes the learner's position for display.
type ProgressStats struct {
	TotalCards int
	ByState    map[srs.CardState]int
	DueNow     int
	Mastered   int
	Reviews7d  int
	Accuracy7d float64
}

// ProgressStats derives progress metrics from current states and the last
// seven days of ledger events.
func (s *Service) ProgressStats(ctx context.Context, now time.Time) (*ProgressStats, error) {
	byState, err := s.repo.CountByState(ctx)
	if err != nil {
		return nil, err
	}
	total := 0
	for _, n := range byState {
		total += n
	}

	dueNow, err := s.repo.DueCount(ctx, now)
	if err != nil {
		return nil, err
	}
	mastered, err := s.repo.MasteredCount(ctx, MasteredIntervalDays)
	if err != nil {
		return nil, err
	}

	correct, reviews, err := s.repo.AccuracySince(ctx, now.AddDate(0, 0, -7))
	if err != nil {
		return nil, err
	}
	accuracy := 0.0
	if reviews > 0 {
		accuracy = float64(correct) / float64(reviews) * 100
	}

	return &ProgressStats{
		TotalCards: total,
		ByState:    byState,
		DueNow:     dueNow,
		Mastered:   mastered,
		Reviews7d:  reviews,
		Accuracy7d: accuracy,
	}, nil
}
