package study

import (
	"strings"
	"time"

	"github.com/example/studyplanner/internal/apperrors"
	"github.com/example/studyplanner/pkg/models"
)

// CompleteRevisionCommand marks a revision as done with a 0-100 rating.
type CompleteRevisionCommand struct {
	UserID     int64
	RevisionID int64
	Rating     int
	Notes      string
}

// UpdateProgressCommand sets a topic's mastery from the progress slider.
type UpdateProgressCommand struct {
	UserID    int64
	SubjectID int64
	TopicID   int64
	Progress  int
}

// CreateSubjectCommand creates a subject with optional initial topics.
type CreateSubjectCommand struct {
	UserID      int64
	Name        string
	Description string
	Color       string
	Topics      []CreateTopicCommand
}

// UpdateSubjectCommand changes the fields that are set.
type UpdateSubjectCommand struct {
	UserID      int64
	SubjectID   int64
	Name        *string
	Description *string
	Color       *string
}

// CreateTopicCommand adds a topic to a subject.
type CreateTopicCommand struct {
	UserID      int64
	SubjectID   int64
	Name        string
	Description string
	Difficulty  models.Difficulty
}

// UpdateTopicCommand changes the fields that are set.
type UpdateTopicCommand struct {
	UserID      int64
	SubjectID   int64
	TopicID     int64
	Name        *string
	Description *string
	Difficulty  *models.Difficulty
}

// ScheduleRevisionCommand plans a revision session for a topic.
type ScheduleRevisionCommand struct {
	UserID        int64
	SubjectID     int64
	TopicID       int64
	ScheduledDate time.Time
	Duration      int
	Difficulty    models.Difficulty
	Priority      models.Priority
	Notes         string
}

// UpdateRevisionCommand changes the fields that are set. Status may only move
// between scheduled and missed.
type UpdateRevisionCommand struct {
	UserID        int64
	RevisionID    int64
	ScheduledDate *time.Time
	Duration      *int
	Status        *models.RevisionStatus
	Notes         *string
	Priority      *models.Priority
}

// CreateNoteCommand attaches a note to a topic of a subject.
type CreateNoteCommand struct {
	UserID    int64
	SubjectID int64
	TopicID   int64
	Content   string
	Tags      []string
}

// UpdateNoteCommand changes the fields that are set.
type UpdateNoteCommand struct {
	UserID  int64
	NoteID  int64
	Content *string
	Tags    *[]string
}

func requireName(field, name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", apperrors.Validation(field, "is required")
	}
	return name, nil
}

func difficultyOrDefault(d models.Difficulty, def models.Difficulty) (models.Difficulty, error) {
	if d == "" {
		return def, nil
	}
	if !d.IsValid() {
		return "", apperrors.Validation("difficulty", "%q must be easy, medium or hard", d)
	}
	return d, nil
}

func (c CreateTopicCommand) topic() (models.Topic, error) {
	name, err := requireName("topic name", c.Name)
	if err != nil {
		return models.Topic{}, err
	}
	d, err := difficultyOrDefault(c.Difficulty, models.DifficultyMedium)
	if err != nil {
		return models.Topic{}, err
	}
	return models.Topic{
		SubjectID:     c.SubjectID,
		Name:          name,
		Description:   strings.TrimSpace(c.Description),
		Difficulty:    d,
		RevisionState: models.NewRevisionState(),
	}, nil
}

func (c ScheduleRevisionCommand) validate() error {
	if c.ScheduledDate.IsZero() {
		return apperrors.Validation("scheduled_date", "is required")
	}
	if c.Duration <= 0 {
		return apperrors.Validation("duration", "must be a positive number of minutes")
	}
	if c.Priority != "" && !c.Priority.IsValid() {
		return apperrors.Validation("priority", "%q must be low, medium or high", c.Priority)
	}
	_, err := difficultyOrDefault(c.Difficulty, models.DifficultyMedium)
	return err
}
