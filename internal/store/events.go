package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/abhisek/singular/internal/card"
)

type eventRow struct {
	ID         int64  `db:"id"`
	CardID     string `db:"card_id"`
	Category   string `db:"category"`
	SubType    string `db:"sub_type"`
	Quality    int    `db:"quality"`
	WasCorrect bool   `db:"was_correct"`
	LatencyMs  int    `db:"latency_ms"`
	CreatedAt  string `db:"created_at"`
}

func (r *eventRow) toEvent() (ReviewEvent, error) {
	ts, err := time.Parse(time.RFC3339, r.CreatedAt)
	if err != nil {
		return ReviewEvent{}, fmt.Errorf("parse event %d created_at: %w", r.ID, err)
	}
	return ReviewEvent{
		CardID:     r.CardID,
		Category:   card.Category(r.Category),
		SubType:    card.SubType(r.SubType),
		Quality:    r.Quality,
		WasCorrect: r.WasCorrect,
		LatencyMs:  r.LatencyMs,
		Timestamp:  ts,
	}, nil
}

// execer is satisfied by both *sqlx.DB and *sqlx.Tx, so event appends share
// one code path inside and outside the review transaction.
type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func insertEvent(ctx context.Context, ex execer, ev ReviewEvent) error {
	_, err := ex.ExecContext(ctx,
		`INSERT INTO review_events (card_id, category, sub_type, quality, was_correct, latency_ms, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		ev.CardID, string(ev.Category), string(ev.SubType),
		ev.Quality, ev.WasCorrect, ev.LatencyMs,
		ev.Timestamp.UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("append review event for %s: %w", ev.CardID, err)
	}
	return nil
}

// Append adds one event to the ledger outside of a review transaction.
func (s *Store) Append(ctx context.Context, ev ReviewEvent) error {
	return insertEvent(ctx, s.db, ev)
}

// RecentByCategory returns up to limit ledger events for a category, most
// recent first. Recency follows insertion order, which per card matches
// review order.
func (s *Store) RecentByCategory(ctx context.Context, cat card.Category, limit int) ([]ReviewEvent, error) {
	return s.queryEvents(ctx,
		`SELECT * FROM review_events WHERE category = ? ORDER BY id DESC LIMIT ?`,
		string(cat), limit,
	)
}

// RecentBySubType returns up to limit ledger events for an exercise
// sub-type, most recent first.
func (s *Store) RecentBySubType(ctx context.Context, sub card.SubType, limit int) ([]ReviewEvent, error) {
	return s.queryEvents(ctx,
		`SELECT * FROM review_events WHERE sub_type = ? ORDER BY id DESC LIMIT ?`,
		string(sub), limit,
	)
}

func (s *Store) queryEvents(ctx context.Context, query string, args ...any) ([]ReviewEvent, error) {
	var rows []eventRow
	if err := s.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("query review events: %w", err)
	}
	out := make([]ReviewEvent, 0, len(rows))
	for _, r := range rows {
		ev, err := r.toEvent()
		if err != nil {
			return nil, err
		}
		out = append(out, ev)
	}
	return out, nil
}
