package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/abhisek/singular/internal/card"
	"github.com/abhisek/singular/internal/srs"
)

type cardRow struct {
	ID        string `db:"id"`
	Lesson    string `db:"lesson"`
	Category  string `db:"category"`
	SubType   string `db:"sub_type"`
	Front     string `db:"front"`
	Back      string `db:"back"`
	CreatedAt string `db:"created_at"`
}

func (r *cardRow) toCard() (card.Card, error) {
	created, err := time.Parse(time.RFC3339, r.CreatedAt)
	if err != nil {
		return card.Card{}, fmt.Errorf("parse card %s created_at: %w", r.ID, err)
	}
	return card.Card{
		ID:        r.ID,
		Lesson:    r.Lesson,
		Category:  card.Category(r.Category),
		SubType:   card.SubType(r.SubType),
		Front:     r.Front,
		Back:      r.Back,
		CreatedAt: created,
	}, nil
}

// InsertCards stores generated cards and their initial review states in one
// transaction. A card and its state always come into existence together.
func (s *Store) InsertCards(ctx context.Context, cards []card.Card) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin ingest tx: %w", err)
	}
	defer tx.Rollback()

	for _, c := range cards {
		if err := c.Validate(); err != nil {
			return err
		}
		_, err := tx.ExecContext(ctx,
			`INSERT INTO cards (id, lesson, category, sub_type, front, back, created_at)
			 VALUES (?, ?, ?, ?, ?, ?, ?)`,
			c.ID, c.Lesson, string(c.Category), string(c.SubType),
			c.Front, c.Back, c.CreatedAt.UTC().Format(time.RFC3339),
		)
		if err != nil {
			return fmt.Errorf("insert card %s: %w", c.ID, err)
		}

		st := srs.NewReviewState(c.ID, c.CreatedAt)
		_, err = tx.ExecContext(ctx,
			`INSERT INTO review_states
			 (card_id, state, ease_factor, interval_days, repetitions, lapses, interval_before_lapse, due_at, last_reviewed_at)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, NULL)`,
			st.CardID, string(st.State), st.EaseFactor, st.IntervalDays,
			st.Repetitions, st.Lapses, st.IntervalBeforeLapse,
			st.DueAt.UTC().Format(time.RFC3339),
		)
		if err != nil {
			return fmt.Errorf("insert review state %s: %w", c.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit ingest tx: %w", err)
	}
	return nil
}

// GetCard returns a card by id, or ErrCardNotFound.
func (s *Store) GetCard(ctx context.Context, id string) (*card.Card, error) {
	var row cardRow
	err := s.db.GetContext(ctx, &row, `SELECT * FROM cards WHERE id = ?`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrCardNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("get card %s: %w", id, err)
	}
	c, err := row.toCard()
	if err != nil {
		return nil, err
	}
	return &c, nil
}
