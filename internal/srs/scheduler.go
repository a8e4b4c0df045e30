// Package srs implements the SM-2 variant scheduling state machine and the
// quality normalization that feeds it.
package srs

import (
	"math"
	"time"
)

const (
	// EaseFactorMin is the SM-2 lower bound on the ease factor.
	EaseFactorMin = 1.3
	// EaseFactorDefault is the ease factor assigned to new cards.
	EaseFactorDefault = 2.5

	// LapseThreshold separates failures from successes: quality below it
	// counts as a lapse.
	LapseThreshold = 3

	// LearningStepDays is the short step interval while a card is in the
	// learning or relearning state.
	LearningStepDays = 1
	// GraduationDays is the interval granted when a card graduates from
	// learning into review.
	GraduationDays = 3
	// GraduationStreak is the number of consecutive successes needed to
	// graduate out of learning or relearning.
	GraduationStreak = 2

	// LapseEasePenalty is subtracted from the ease factor when a review
	// card lapses.
	LapseEasePenalty = 0.2
	// RelapseRecoveryFactor is the share of the pre-lapse interval granted
	// back when a card graduates out of relearning.
	RelapseRecoveryFactor = 0.5
)

// Next computes the state following a scored attempt. It is a pure function
// of the current state, the normalized quality, the adaptation damping
// multiplier, and the clock; callers persist the result.
//
// damping scales the freshly computed interval for review-state successes
// only. 1.0 means no damping; the adaptation engine supplies values below
// 1.0 for cards in an actively weak category.
func Next(rs ReviewState, quality int, damping float64, now time.Time) ReviewState {
	correct := quality >= LapseThreshold

	switch rs.State {
	case StateNew:
		if correct {
			rs.State = StateLearning
			rs.Repetitions = 1
			rs.IntervalDays = LearningStepDays
		} else {
			// A failed first encounter is not a loss; the card simply
			// hasn't started yet.
			rs.Lapses++
		}

	case StateLearning:
		if correct {
			rs.Repetitions++
			if rs.Repetitions >= GraduationStreak {
				rs.State = StateReview
				rs.IntervalDays = GraduationDays
				rs.Repetitions = 0
			} else {
				rs.IntervalDays = LearningStepDays
			}
		} else {
			rs.Lapses++
			rs.Repetitions = 0
			rs.State = StateRelearning
			rs.IntervalBeforeLapse = rs.IntervalDays
			rs.IntervalDays = LearningStepDays
		}

	case StateReview:
		if correct {
			rs.EaseFactor = nextEase(rs.EaseFactor, quality)
			interval := int(math.Round(float64(rs.IntervalDays) * rs.EaseFactor))
			rs.IntervalDays = dampInterval(interval, damping)
		} else {
			rs.Lapses++
			rs.EaseFactor = math.Max(EaseFactorMin, rs.EaseFactor-LapseEasePenalty)
			rs.State = StateRelearning
			rs.Repetitions = 0
			rs.IntervalBeforeLapse = rs.IntervalDays
			rs.IntervalDays = LearningStepDays
		}

	case StateRelearning:
		if correct {
			rs.Repetitions++
			if rs.Repetitions >= GraduationStreak {
				rs.State = StateReview
				recovered := math.Round(float64(rs.IntervalBeforeLapse) * RelapseRecoveryFactor)
				rs.IntervalDays = int(math.Max(1, recovered))
				rs.Repetitions = 0
			} else {
				rs.IntervalDays = LearningStepDays
			}
		} else {
			rs.Lapses++
			rs.Repetitions = 0
			rs.IntervalDays = LearningStepDays
		}
	}

	rs.DueAt = now.AddDate(0, 0, rs.IntervalDays)
	rs.LastReviewedAt = now
	return rs
}

// nextEase applies the SM-2 ease update for a successful review:
// EF' = EF + (0.1 - (5-q)*(0.08 + (5-q)*0.02)), floored at EaseFactorMin.
// The ease factor only moves while a card is in the review state; the
// short-step states leave it untouched.
func nextEase(ease float64, quality int) float64 {
	q := float64(5 - quality)
	next := ease + (0.1 - q*(0.08+q*0.02))
	return math.Max(EaseFactorMin, next)
}

// dampInterval applies the adaptation multiplier, keeping at least one day.
func dampInterval(interval int, damping float64) int {
	if damping > 0 && damping < 1 {
		interval = int(math.Round(float64(interval) * damping))
	}
	if interval < 1 {
		return 1
	}
	return interval
}
