// Package sm2 implements the SM-2 spaced repetition schedule used for verse
// memorization. Everything here is a pure function of its inputs.
package sm2

import (
	"math"
	"time"

	"github.com/heartmarshall/tilawah/internal/domain"
)

// Quality is the recall grade fed to the scheduler, 0 (forgot) to 3 (easy).
type Quality int

const (
	QualityForgot Quality = 0
	QualityHard   Quality = 1
	QualityGood   Quality = 2
	QualityEasy   Quality = 3
)

// IsValid reports whether q is in 0..3.
func (q Quality) IsValid() bool { return q >= QualityForgot && q <= QualityEasy }

// QualityFromConfidence maps a confidence label onto a recall grade.
func QualityFromConfidence(c domain.Confidence) Quality {
	switch c {
	case domain.ConfidenceLearning, domain.ConfidenceShaky:
		return QualityHard
	case domain.ConfidenceGood:
		return QualityGood
	case domain.ConfidenceSolid:
		return QualityEasy
	default:
		return QualityForgot
	}
}

// State is the scheduling state carried between reviews.
type State struct {
	EaseFactor float64
	Interval   int // days
	Streak     int
}

// Config holds the ease bounds.
type Config struct {
	DefaultEaseFactor float64
	MinEaseFactor     float64
}

// DefaultConfig returns the classic SM-2 bounds (2.5 start, 1.3 floor).
func DefaultConfig() Config {
	return Config{DefaultEaseFactor: 2.5, MinEaseFactor: 1.3}
}

// Initial is the state of a verse that has never been reviewed.
func (c Config) Initial() State {
	return State{EaseFactor: c.DefaultEaseFactor}
}

// ComputeNextState applies one review with the default config.
func ComputeNextState(q Quality, prev State) State {
	return DefaultConfig().Next(q, prev)
}

// Next applies one review of quality q to prev.
// Out-of-range qualities are clamped into 0..3.
func (c Config) Next(q Quality, prev State) State {
	q = min(max(q, QualityForgot), QualityEasy)

	ease := prev.EaseFactor
	if ease <= 0 {
		ease = c.DefaultEaseFactor
	}
	interval := prev.Interval
	streak := prev.Streak

	var next State
	switch q {
	case QualityForgot:
		next = State{
			EaseFactor: ease - 0.2,
			Interval:   1,
			Streak:     0,
		}
	case QualityHard:
		next = State{
			EaseFactor: ease - 0.15,
			Interval:   max(1, min(3, roundDays(float64(interval)*0.5))),
			Streak:     0,
		}
	case QualityGood:
		next = State{EaseFactor: ease, Streak: streak + 1}
		switch streak {
		case 0:
			next.Interval = 1
		case 1:
			next.Interval = 6
		default:
			next.Interval = roundDays(float64(interval) * ease)
		}
	case QualityEasy:
		next = State{EaseFactor: ease + 0.1, Streak: streak + 1}
		switch streak {
		case 0:
			next.Interval = 2
		case 1:
			next.Interval = 7
		default:
			next.Interval = roundDays(float64(interval) * ease * 1.2)
		}
	}

	next.EaseFactor = roundEase(math.Max(next.EaseFactor, c.MinEaseFactor))
	next.Interval = max(1, next.Interval)
	return next
}

// NextReviewAt is now plus interval whole days.
func NextReviewAt(now time.Time, interval int) time.Time {
	return now.Add(time.Duration(interval) * 24 * time.Hour)
}

func roundDays(v float64) int {
	return int(math.Round(v))
}

// roundEase keeps two decimals so repeated ±0.1/0.15/0.2 steps stay exact.
func roundEase(v float64) float64 {
	return math.Round(v*100) / 100
}
