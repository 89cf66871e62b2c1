package models

import "time"

// Topic is a unit of study within a subject. Progress, LastRevised and NextRevision
// follow the coarse mastery rule; RevisionState follows the SM-2 scheduler.
type Topic struct {
	ID            int64      `json:"id" db:"id"`
	SubjectID     int64      `json:"subject_id" db:"subject_id"`
	Name          string     `json:"name" db:"name"`
	Description   string     `json:"description" db:"description"`
	Difficulty    Difficulty `json:"difficulty" db:"difficulty"`
	Progress      int        `json:"progress" db:"progress"`
	LastRevised   *time.Time `json:"last_revised,omitempty" db:"last_revised"`
	NextRevision  *time.Time `json:"next_revision,omitempty" db:"next_revision"`
	RevisionCount int        `json:"revision_count" db:"revision_count"`
	RevisionState `json:"spaced_repetition"`
	Version       int       `json:"-" db:"version"`
	CreatedAt     time.Time `json:"created_at" db:"created_at"`
	UpdatedAt     time.Time `json:"updated_at" db:"updated_at"`
}
