package models

// Difficulty of a topic or a revision session.
type Difficulty string

const (
	DifficultyEasy   Difficulty = "easy"
	DifficultyMedium Difficulty = "medium"
	DifficultyHard   Difficulty = "hard"
)

// Difficulties lists every difficulty in display order.
var Difficulties = []Difficulty{DifficultyEasy, DifficultyMedium, DifficultyHard}

func (d Difficulty) IsValid() bool {
	switch d {
	case DifficultyEasy, DifficultyMedium, DifficultyHard:
		return true
	}
	return false
}

// Priority of a scheduled revision.
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
)

func (p Priority) IsValid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh:
		return true
	}
	return false
}

// RevisionStatus is the lifecycle state of a revision.
type RevisionStatus string

const (
	StatusScheduled RevisionStatus = "scheduled"
	StatusCompleted RevisionStatus = "completed"
	StatusMissed    RevisionStatus = "missed"
)

func (s RevisionStatus) IsValid() bool {
	switch s {
	case StatusScheduled, StatusCompleted, StatusMissed:
		return true
	}
	return false
}
