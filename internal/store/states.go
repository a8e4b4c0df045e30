package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/abhisek/singular/internal/srs"
)

type stateRow struct {
	CardID              string         `db:"card_id"`
	State               string         `db:"state"`
	EaseFactor          float64        `db:"ease_factor"`
	IntervalDays        int            `db:"interval_days"`
	Repetitions         int            `db:"repetitions"`
	Lapses              int            `db:"lapses"`
	IntervalBeforeLapse int            `db:"interval_before_lapse"`
	DueAt               string         `db:"due_at"`
	LastReviewedAt      sql.NullString `db:"last_reviewed_at"`
}

func (r *stateRow) toState() (srs.ReviewState, error) {
	due, err := time.Parse(time.RFC3339, r.DueAt)
	if err != nil {
		return srs.ReviewState{}, fmt.Errorf("parse state %s due_at: %w", r.CardID, err)
	}
	st := srs.ReviewState{
		CardID:              r.CardID,
		State:               srs.CardState(r.State),
		EaseFactor:          r.EaseFactor,
		IntervalDays:        r.IntervalDays,
		Repetitions:         r.Repetitions,
		Lapses:              r.Lapses,
		IntervalBeforeLapse: r.IntervalBeforeLapse,
		DueAt:               due,
	}
	if r.LastReviewedAt.Valid {
		last, err := time.Parse(time.RFC3339, r.LastReviewedAt.String)
		if err != nil {
			return srs.ReviewState{}, fmt.Errorf("parse state %s last_reviewed_at: %w", r.CardID, err)
		}
		st.LastReviewedAt = last
	}
	return st, nil
}

// GetState returns the review state for a card, or ErrCardNotFound.
func (s *Store) GetState(ctx context.Context, cardID string) (*srs.ReviewState, error) {
	var row stateRow
	err := s.db.GetContext(ctx, &row, `SELECT * FROM review_states WHERE card_id = ?`, cardID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrCardNotFound, cardID)
	}
	if err != nil {
		return nil, fmt.Errorf("get review state %s: %w", cardID, err)
	}
	st, err := row.toState()
	if err != nil {
		return nil, err
	}
	return &st, nil
}

// CommitReview writes the post-attempt state and appends the ledger event in
// one transaction, so a failed append never leaves a mutated state behind.
func (s *Store) CommitReview(ctx context.Context, state srs.ReviewState, ev ReviewEvent) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin review tx: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx,
		`UPDATE review_states SET
			state = ?, ease_factor = ?, interval_days = ?, repetitions = ?,
			lapses = ?, interval_before_lapse = ?, due_at = ?, last_reviewed_at = ?
		 WHERE card_id = ?`,
		string(state.State), state.EaseFactor, state.IntervalDays, state.Repetitions,
		state.Lapses, state.IntervalBeforeLapse,
		state.DueAt.UTC().Format(time.RFC3339),
		state.LastReviewedAt.UTC().Format(time.RFC3339),
		state.CardID,
	)
	if err != nil {
		return fmt.Errorf("update review state %s: %w", state.CardID, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update review state %s: %w", state.CardID, err)
	}
	if affected == 0 {
		return fmt.Errorf("%w: %s", ErrCardNotFound, state.CardID)
	}

	if err := insertEvent(ctx, tx, ev); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit review tx: %w", err)
	}
	return nil
}

// DueCards returns non-new cards due at now, oldest overdue first, ties by
// card id for a stable queue.
func (s *Store) DueCards(ctx context.Context, now time.Time, limit int) ([]CardWithState, error) {
	return s.queryQueue(ctx,
		`SELECT c.id, c.lesson, c.category, c.sub_type, c.front, c.back, c.created_at,
		        s.card_id AS s_card_id, s.state, s.ease_factor, s.interval_days,
		        s.repetitions, s.lapses, s.interval_before_lapse, s.due_at, s.last_reviewed_at
		 FROM review_states s JOIN cards c ON c.id = s.card_id
		 WHERE s.state != 'new' AND s.due_at <= ?
		 ORDER BY s.due_at ASC, s.card_id ASC
		 LIMIT ?`,
		now.UTC().Format(time.RFC3339), limit,
	)
}

// NewCards returns cards still in the new state, in ingestion order.
func (s *Store) NewCards(ctx context.Context, limit int) ([]CardWithState, error) {
	return s.queryQueue(ctx,
		`SELECT c.id, c.lesson, c.category, c.sub_type, c.front, c.back, c.created_at,
		        s.card_id AS s_card_id, s.state, s.ease_factor, s.interval_days,
		        s.repetitions, s.lapses, s.interval_before_lapse, s.due_at, s.last_reviewed_at
		 FROM review_states s JOIN cards c ON c.id = s.card_id
		 WHERE s.state = 'new'
		 ORDER BY c.created_at ASC, c.id ASC
		 LIMIT ?`,
		limit,
	)
}

type queueRow struct {
	cardRow
	SCardID             string         `db:"s_card_id"`
	State               string         `db:"state"`
	EaseFactor          float64        `db:"ease_factor"`
	IntervalDays        int            `db:"interval_days"`
	Repetitions         int            `db:"repetitions"`
	Lapses              int            `db:"lapses"`
	IntervalBeforeLapse int            `db:"interval_before_lapse"`
	DueAt               string         `db:"due_at"`
	LastReviewedAt      sql.NullString `db:"last_reviewed_at"`
}

func (s *Store) queryQueue(ctx context.Context, query string, args ...any) ([]CardWithState, error) {
	var rows []queueRow
	if err := s.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("query review queue: %w", err)
	}

	out := make([]CardWithState, 0, len(rows))
	for _, r := range rows {
		c, err := r.cardRow.toCard()
		if err != nil {
			return nil, err
		}
		sr := stateRow{
			CardID:              r.SCardID,
			State:               r.State,
			EaseFactor:          r.EaseFactor,
			IntervalDays:        r.IntervalDays,
			Repetitions:         r.Repetitions,
			Lapses:              r.Lapses,
			IntervalBeforeLapse: r.IntervalBeforeLapse,
			DueAt:               r.DueAt,
			LastReviewedAt:      r.LastReviewedAt,
		}
		st, err := sr.toState()
		if err != nil {
			return nil, err
		}
		out = append(out, CardWithState{Card: c, State: st})
	}
	return out, nil
}
