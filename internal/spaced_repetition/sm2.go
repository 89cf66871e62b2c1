package spaced_repetition

import (
	"math"
	"time"

	"github.com/example/studyplanner/internal/apperrors"
	"github.com/example/studyplanner/pkg/models"
)

// Quality bounds of the SM-2 scale the scheduler works in.
const (
	MinQuality = 0.0
	MaxQuality = 5.0

	// RatingScale converts a 0-100 UI rating into the 0-5 scheduler scale.
	RatingScale = 20.0
)

// QualityResponse is the self-reported recall quality on the SM-2 scale.
type QualityResponse float64

const (
	// Complete blackout, unable to recall
	QualityBlackout QualityResponse = 0
	// Incorrect response but remembered upon seeing the material again
	QualityIncorrect QualityResponse = 1
	// Incorrect response but the material felt familiar
	QualityIncorrectFamiliar QualityResponse = 2
	// Correct response but required significant effort
	QualityCorrectDifficult QualityResponse = 3
	// Correct response after some hesitation
	QualityCorrectHesitation QualityResponse = 4
	// Perfect response with no hesitation
	QualityPerfect QualityResponse = 5
)

// QualityFromRating converts a 0-100 UI rating (five buttons at 20/40/60/80/100)
// to the scheduler scale by dividing by 20.
func QualityFromRating(rating int) (QualityResponse, error) {
	if rating < 0 || rating > 100 {
		return 0, apperrors.Validation("performance", "rating %d must be between 0 and 100", rating)
	}
	return QualityResponse(float64(rating) / RatingScale), nil
}

// Interval bounds in days.
const (
	// DefaultMaxInterval is one year
	DefaultMaxInterval = 365.0
	// MaxScheduleDays holds even when no cap is configured, so next revision
	// dates stay representable.
	MaxScheduleDays = 36500.0
)

// SM2 implements the SuperMemo-2 update used for revisions.
type SM2 struct {
	// Lowest ease factor a completion can produce
	EaseFloor float64
	// Maximum interval in days, 0 means only MaxScheduleDays applies
	MaxInterval float64
}

// NewSM2 returns an SM2 with the standard 1.3 ease floor and a one year interval cap.
func NewSM2() *SM2 {
	return &SM2{
		EaseFloor:   1.3,
		MaxInterval: DefaultMaxInterval,
	}
}

func (sm *SM2) intervalCap() float64 {
	if sm.MaxInterval > 0 && sm.MaxInterval < MaxScheduleDays {
		return sm.MaxInterval
	}
	return MaxScheduleDays
}

// UpdateSchedule applies one completed review with the given quality at completedAt
// and returns the new state. The input state is never modified.
func (sm *SM2) UpdateSchedule(state models.RevisionState, quality QualityResponse, completedAt time.Time) (models.RevisionState, error) {
	q := float64(quality)
	if math.IsNaN(q) || q < MinQuality || q > MaxQuality {
		return state, apperrors.Validation("performance", "quality %v must be between %v and %v", q, MinQuality, MaxQuality)
	}
	if err := ValidateState(state); err != nil {
		return state, err
	}

	newEF := state.EaseFactor + (0.1 - (5.0-q)*(0.08+(5.0-q)*0.02))
	if newEF < sm.EaseFloor {
		newEF = sm.EaseFloor
	}

	newInterval := state.Interval * newEF
	if limit := sm.intervalCap(); newInterval > limit || math.IsInf(newInterval, 1) {
		newInterval = limit
	}

	lastRevised := completedAt
	next := NextRevisionDate(completedAt, newInterval)

	return models.RevisionState{
		Interval:     newInterval,
		EaseFactor:   newEF,
		Repetitions:  state.Repetitions + 1,
		LastRevised:  &lastRevised,
		NextRevision: &next,
	}, nil
}

// NextRevisionDate adds ceil(interval) calendar days to from, at most MaxScheduleDays.
func NextRevisionDate(from time.Time, interval float64) time.Time {
	days := math.Ceil(interval)
	if math.IsNaN(days) || days < 0 {
		days = 0
	}
	if days > MaxScheduleDays {
		days = MaxScheduleDays
	}
	return from.AddDate(0, 0, int(days))
}

// ValidateState checks the invariants a persisted state must satisfy.
func ValidateState(state models.RevisionState) error {
	switch {
	case math.IsNaN(state.Interval) || math.IsInf(state.Interval, 0) || state.Interval <= 0:
		return &apperrors.InvalidStateError{Message: "interval must be a positive number of days"}
	case math.IsNaN(state.EaseFactor) || math.IsInf(state.EaseFactor, 0) || state.EaseFactor <= 0:
		return &apperrors.InvalidStateError{Message: "ease factor must be positive"}
	case state.Repetitions < 0:
		return &apperrors.InvalidStateError{Message: "repetitions must not be negative"}
	}
	return nil
}

// IsMastered reports whether a topic is considered learned:
// at least 5 repetitions, the latest rating 80 or above and an interval of 30 days or more.
func IsMastered(state models.RevisionState, lastRating int) bool {
	return state.Repetitions >= 5 &&
		lastRating >= 80 &&
		state.Interval >= 30
}
