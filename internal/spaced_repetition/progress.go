package spaced_repetition

import (
	"time"

	"github.com/example/studyplanner/internal/apperrors"
	"github.com/example/studyplanner/pkg/models"
)

// DaysForProgress maps a 0-100 mastery value to the days until the next revision.
func DaysForProgress(progress int) int {
	switch {
	case progress >= 80:
		return 7
	case progress >= 60:
		return 3
	default:
		return 1
	}
}

// ApplyProgress is the coarse mastery rule behind the topic progress slider. It is
// independent from UpdateSchedule and leaves the topic's RevisionState untouched.
func ApplyProgress(topic models.Topic, progress int, now time.Time) (models.Topic, error) {
	if progress < 0 || progress > 100 {
		return topic, apperrors.Validation("progress", "%d must be between 0 and 100", progress)
	}

	next := now.AddDate(0, 0, DaysForProgress(progress))
	lastRevised := now

	topic.Progress = progress
	topic.LastRevised = &lastRevised
	topic.NextRevision = &next
	topic.RevisionCount++
	return topic, nil
}
