package models

import "time"

// Default scheduling values for a freshly created topic or revision.
const (
	DefaultInterval   = 1.0
	DefaultEaseFactor = 2.5
)

// RevisionState is the spaced-repetition state embedded in topics and revisions.
type RevisionState struct {
	Interval     float64    `json:"interval" db:"sr_interval"`       // days until the next review
	EaseFactor   float64    `json:"ease_factor" db:"sr_ease_factor"` // SM-2 EF
	Repetitions  int        `json:"repetitions" db:"sr_repetitions"` // completed review cycles
	LastRevised  *time.Time `json:"last_revised,omitempty" db:"sr_last_revised"`
	NextRevision *time.Time `json:"next_revision,omitempty" db:"sr_next_revision"`
}

// NewRevisionState returns the state every topic and revision starts with.
func NewRevisionState() RevisionState {
	return RevisionState{
		Interval:   DefaultInterval,
		EaseFactor: DefaultEaseFactor,
	}
}
