package store

import (
	"context"
	"fmt"
	"time"

	"github.com/abhisek/singular/internal/srs"
)

// CountByState returns the number of cards per review state.
func (s *Store) CountByState(ctx context.Context) (map[srs.CardState]int, error) {
	rows, err := s.db.QueryxContext(ctx,
		`SELECT state, COUNT(*) FROM review_states GROUP BY state`)
	if err != nil {
		return nil, fmt.Errorf("count by state: %w", err)
	}
	defer rows.Close()

	counts := make(map[srs.CardState]int)
	for rows.Next() {
		var state string
		var n int
		if err := rows.Scan(&state, &n); err != nil {
			return nil, fmt.Errorf("scan state count: %w", err)
		}
		counts[srs.CardState(state)] = n
	}
	return counts, rows.Err()
}

// DueCount returns how many non-new cards are due at now.
func (s *Store) DueCount(ctx context.Context, now time.Time) (int, error) {
	var n int
	err := s.db.GetContext(ctx, &n,
		`SELECT COUNT(*) FROM review_states WHERE state != 'new' AND due_at <= ?`,
		now.UTC().Format(time.RFC3339))
	if err != nil {
		return 0, fmt.Errorf("count due: %w", err)
	}
	return n, nil
}

// MasteredCount returns how many review-state cards hold an interval
// strictly greater than minIntervalDays.
func (s *Store) MasteredCount(ctx context.Context, minIntervalDays int) (int, error) {
	var n int
	err := s.db.GetContext(ctx, &n,
		`SELECT COUNT(*) FROM review_states WHERE state = 'review' AND interval_days > ?`,
		minIntervalDays)
	if err != nil {
		return 0, fmt.Errorf("count mastered: %w", err)
	}
	return n, nil
}

// AccuracySince returns correct and total attempt counts for ledger events
// at or after since.
func (s *Store) AccuracySince(ctx context.Context, since time.Time) (int, int, error) {
	var res struct {
		Correct int `db:"correct"`
		Total   int `db:"total"`
	}
	err := s.db.GetContext(ctx, &res,
		`SELECT COALESCE(SUM(was_correct), 0) AS correct, COUNT(*) AS total
		 FROM review_events WHERE created_at >= ?`,
		since.UTC().Format(time.RFC3339))
	if err != nil {
		return 0, 0, fmt.Errorf("accuracy since: %w", err)
	}
	return res.Correct, res.Total, nil
}
