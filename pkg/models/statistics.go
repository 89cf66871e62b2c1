package models

import "time"

// Overview is the dashboard summary for one user.
type Overview struct {
	TotalSubjects     int `json:"total_subjects"`
	UpcomingRevisions int `json:"upcoming_revisions"`
	CompletedToday    int `json:"completed_today"`
	Streak            int `json:"streak"`
}

// SubjectProgress is one row of the per-subject progress report.
type SubjectProgress struct {
	ID            int64  `json:"id" db:"id"`
	Name          string `json:"name" db:"name"`
	TotalProgress int    `json:"total_progress" db:"total_progress"`
}

// TopicProgress is one row of the per-topic progress report.
type TopicProgress struct {
	SubjectID     int64  `json:"subject_id" db:"subject_id"`
	Subject       string `json:"subject" db:"subject"`
	TopicID       int64  `json:"topic_id" db:"topic_id"`
	Topic         string `json:"topic" db:"topic"`
	Progress      int    `json:"progress" db:"progress"`
	RevisionCount int    `json:"revision_count" db:"revision_count"`
}

// CompletedSession is the part of a completed revision the analytics read.
type CompletedSession struct {
	CompletedDate time.Time  `json:"completed_date" db:"completed_date"`
	Duration      int        `json:"duration" db:"duration"`
	Performance   int        `json:"performance" db:"performance"`
	Difficulty    Difficulty `json:"difficulty" db:"difficulty"`
}
