package srs

import (
	"errors"
	"fmt"
)

// ErrInvalidQuality indicates a self-rated signal outside the 0-5 range.
var ErrInvalidQuality = errors.New("quality out of range")

// SignalKind distinguishes the two answer sources the normalizer accepts.
type SignalKind string

const (
	// SignalSelfRated carries an explicit 0-5 rating from the learner.
	SignalSelfRated SignalKind = "self_rated"
	// SignalAutoGraded carries a correctness verdict from an auto-graded
	// exercise, optionally with response latency and an error category.
	SignalAutoGraded SignalKind = "auto_graded"
)

// DefaultFastLatencyMs is the response-time threshold below which a correct
// auto-graded answer earns the top grade.
const DefaultFastLatencyMs = 5000

// Signal is a raw answer observation before normalization.
type Signal struct {
	Kind SignalKind

	// Self-rated fields.
	Rating int

	// Auto-graded fields. LatencyMs 0 means the latency was not measured.
	Correct       bool
	LatencyMs     int
	ErrorCategory string
}

// Normalize converts a raw answer signal into the canonical 0-5 quality
// grade. The mapping is pure: the same signal always yields the same grade.
//
// Auto-graded answers map as follows: a wrong answer with an identified
// error category earns 1 (the learner engaged, the grader found structure in
// the mistake), a wrong answer with no category earns 0. A correct answer
// earns 5 when latency is unknown or under fastLatencyMs, otherwise 4,
// since correct but slow signals shakier recall.
func Normalize(sig Signal, fastLatencyMs int) (int, error) {
	if fastLatencyMs <= 0 {
		fastLatencyMs = DefaultFastLatencyMs
	}

	switch sig.Kind {
	case SignalSelfRated:
		if sig.Rating < 0 || sig.Rating > 5 {
			return 0, fmt.Errorf("%w: %d", ErrInvalidQuality, sig.Rating)
		}
		return sig.Rating, nil

	case SignalAutoGraded:
		if !sig.Correct {
			if sig.ErrorCategory != "" {
				return 1, nil
			}
			return 0, nil
		}
		if sig.LatencyMs == 0 || sig.LatencyMs < fastLatencyMs {
			return 5, nil
		}
		return 4, nil

	default:
		return 0, fmt.Errorf("%w: unknown signal kind %q", ErrInvalidQuality, sig.Kind)
	}
}

// QualityFeedback returns a short human-readable line for a quality grade,
// shown to the learner after each recorded attempt.
func QualityFeedback(quality int) string {
	switch quality {
	case 0:
		return "No recall. The card will come back shortly."
	case 1:
		return "Missed, but the answer felt familiar."
	case 2:
		return "Missed, though the answer was recognizable."
	case 3:
		return "Correct, with real difficulty. Keep at it."
	case 4:
		return "Good, with some hesitation."
	case 5:
		return "Perfect. Quick and easy."
	default:
		return "Review recorded."
	}
}
