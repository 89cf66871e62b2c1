package models

import "time"

// Revision is a scheduled or completed review session for a topic.
type Revision struct {
	ID            int64          `json:"id" db:"id"`
	UserID        int64          `json:"user_id" db:"user_id"`
	SubjectID     int64          `json:"subject_id" db:"subject_id"`
	SubjectName   string         `json:"subject_name" db:"subject_name"`
	TopicID       int64          `json:"topic_id" db:"topic_id"`
	TopicName     string         `json:"topic_name" db:"topic_name"`
	ScheduledDate time.Time      `json:"scheduled_date" db:"scheduled_date"`
	CompletedDate *time.Time     `json:"completed_date,omitempty" db:"completed_date"`
	Duration      int            `json:"duration" db:"duration"` // minutes
	Status        RevisionStatus `json:"status" db:"status"`
	Performance   *int           `json:"performance,omitempty" db:"performance"` // 0-100 rating
	Notes         string         `json:"notes" db:"notes"`
	Priority      Priority       `json:"priority" db:"priority"`
	Difficulty    Difficulty     `json:"difficulty" db:"difficulty"`
	RevisionState `json:"spaced_repetition"`
	Version       int       `json:"-" db:"version"`
	CreatedAt     time.Time `json:"created_at" db:"created_at"`
	UpdatedAt     time.Time `json:"updated_at" db:"updated_at"`
}
