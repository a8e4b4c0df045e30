// Package adapt mines the review ledger for category-specific weaknesses
// and derives the tuning snapshot fed back into scheduling and intake.
package adapt

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/abhisek/singular/internal/card"
	"github.com/abhisek/singular/internal/store"
)

// Config bounds the analysis windows and intake limits.
type Config struct {
	// WindowSize is the number of most recent ledger events examined per
	// category. The window policy is fixed-count; it never mixes with a
	// time-bounded definition.
	WindowSize int
	// MinSample is the smallest window that may activate a pattern.
	// Sparser history is never flagged.
	MinSample int
	// BaseNewLimit is the daily new-card quota with no active weaknesses.
	BaseNewLimit int
	// MinNewLimit is the quota floor regardless of severity.
	MinNewLimit int
}

// DefaultConfig returns the standard analysis bounds.
func DefaultConfig() Config {
	return Config{
		WindowSize:   20,
		MinSample:    5,
		BaseNewLimit: 20,
		MinNewLimit:  5,
	}
}

// Snapshot is the adaptation state derived from the ledger at one instant.
// It is a pure function of ledger contents and is safe to recompute at any
// frequency; nothing in it is authoritative storage.
type Snapshot struct {
	ComputedAt time.Time
	// ActivePatterns holds only active patterns, in detection order
	// (vocabulary, grammar, structure).
	ActivePatterns []ErrorPattern
	// DailyNewLimit is the new-card intake quota after severity scaling.
	DailyNewLimit int
	// RecommendedCategory is the category of the most severe active
	// pattern, or empty when nothing is flagged.
	RecommendedCategory card.Category
	HasActiveWeaknesses bool
}

// DampingFor returns the interval multiplier for a card in the given
// category and sub-type: 1 - 0.5*severity of the strongest matching active
// pattern, or 1 when none match.
func (s *Snapshot) DampingFor(cat card.Category, sub card.SubType) float64 {
	maxSev := 0.0
	for i := range s.ActivePatterns {
		p := &s.ActivePatterns[i]
		if p.Matches(cat, sub) && p.Severity > maxSev {
			maxSev = p.Severity
		}
	}
	return 1 - 0.5*maxSev
}

// Engine derives adaptation snapshots from the review ledger.
type Engine struct {
	ledger store.EventRepo
	cfg    Config
}

// NewEngine creates an engine reading from the given ledger.
func NewEngine(ledger store.EventRepo, cfg Config) *Engine {
	if cfg.WindowSize <= 0 {
		cfg = DefaultConfig()
	}
	return &Engine{ledger: ledger, cfg: cfg}
}

// Snapshot computes the current adaptation state. Two calls with no
// intervening ledger appends return identical pattern data.
func (e *Engine) Snapshot(ctx context.Context, now time.Time) (*Snapshot, error) {
	snap := &Snapshot{ComputedAt: now}

	vocabEvents, err := e.ledger.RecentByCategory(ctx, card.CategoryVocabulary, e.cfg.WindowSize)
	if err != nil {
		return nil, fmt.Errorf("vocabulary window: %w", err)
	}
	grammarEvents, err := e.ledger.RecentByCategory(ctx, card.CategoryGrammar, e.cfg.WindowSize)
	if err != nil {
		return nil, fmt.Errorf("grammar window: %w", err)
	}
	structureEvents, err := e.ledger.RecentBySubType(ctx, card.SubTypeBuildSentence, e.cfg.WindowSize)
	if err != nil {
		return nil, fmt.Errorf("structure window: %w", err)
	}

	candidates := []struct {
		ptype     PatternType
		threshold float64
		events    []store.ReviewEvent
	}{
		{PatternVocabWeakness, VocabErrorThreshold, vocabEvents},
		{PatternGrammarConfusion, GrammarErrorThreshold, grammarEvents},
		{PatternStructureConfusion, StructureErrorThreshold, structureEvents},
	}

	for _, c := range candidates {
		if p, ok := detect(c.ptype, c.threshold, c.events, e.cfg.MinSample); ok {
			snap.ActivePatterns = append(snap.ActivePatterns, p)
		}
	}

	maxSeverity := 0.0
	var top *ErrorPattern
	for i := range snap.ActivePatterns {
		p := &snap.ActivePatterns[i]
		if p.Severity > maxSeverity {
			maxSeverity = p.Severity
		}
		// Highest severity wins; ties resolve to the lexically smaller
		// pattern type so the recommendation is deterministic.
		if top == nil || p.Severity > top.Severity ||
			(p.Severity == top.Severity && p.Type < top.Type) {
			top = p
		}
	}
	if top != nil {
		snap.RecommendedCategory = top.Type.Category()
	}

	snap.HasActiveWeaknesses = len(snap.ActivePatterns) > 0
	snap.DailyNewLimit = newCardLimit(e.cfg, maxSeverity)
	return snap, nil
}

// detect evaluates one category window. Returns ok=false when the sample is
// too sparse or the error rate sits at or under the threshold.
func detect(ptype PatternType, threshold float64, events []store.ReviewEvent, minSample int) (ErrorPattern, bool) {
	if len(events) < minSample {
		return ErrorPattern{}, false
	}

	failures := 0
	for _, ev := range events {
		if !ev.WasCorrect {
			failures++
		}
	}
	errorRate := float64(failures) / float64(len(events))
	sev := severity(errorRate, threshold)
	if sev <= 0 {
		return ErrorPattern{}, false
	}

	return ErrorPattern{
		Type:       ptype,
		SampleSize: len(events),
		ErrorRate:  errorRate,
		Severity:   sev,
		Active:     true,
		LastSeen:   events[0].Timestamp,
	}, true
}

// newCardLimit scales the base quota down by the worst severity, floored at
// the configured minimum. Consolidate before expanding.
func newCardLimit(cfg Config, maxSeverity float64) int {
	limit := int(math.Round(float64(cfg.BaseNewLimit) * (1 - maxSeverity)))
	if limit < cfg.MinNewLimit {
		return cfg.MinNewLimit
	}
	return limit
}
