package models

import (
	"math"
	"time"
)

// DefaultSubjectColor is used when a subject is created without a color.
const DefaultSubjectColor = "#3498db"

// Subject is a top-level study domain containing topics.
type Subject struct {
	ID            int64      `json:"id" db:"id"`
	UserID        int64      `json:"user_id" db:"user_id"`
	Name          string     `json:"name" db:"name"`
	Description   string     `json:"description" db:"description"`
	Color         string     `json:"color" db:"color"`
	TotalProgress int        `json:"total_progress" db:"total_progress"`
	LastStudied   *time.Time `json:"last_studied,omitempty" db:"last_studied"`
	StudyTime     int        `json:"study_time" db:"study_time"` // minutes
	Topics        []Topic    `json:"topics" db:"-"`
	CreatedAt     time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at" db:"updated_at"`
}

// RecalculateProgress sets TotalProgress to the rounded mean of the topics' progress.
func (s *Subject) RecalculateProgress() {
	if len(s.Topics) == 0 {
		s.TotalProgress = 0
		return
	}
	sum := 0
	for _, t := range s.Topics {
		sum += t.Progress
	}
	s.TotalProgress = int(math.Round(float64(sum) / float64(len(s.Topics))))
}

// Topic returns the topic with the given id, or nil.
func (s *Subject) Topic(id int64) *Topic {
	for i := range s.Topics {
		if s.Topics[i].ID == id {
			return &s.Topics[i]
		}
	}
	return nil
}
