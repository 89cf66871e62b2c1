package study

import (
	"context"
	"strings"

	"github.com/example/studyplanner/internal/apperrors"
	"github.com/example/studyplanner/internal/events"
	sr "github.com/example/studyplanner/internal/spaced_repetition"
	"github.com/example/studyplanner/pkg/models"
)

// CreateSubject creates a subject and its initial topics.
func (s *Service) CreateSubject(ctx context.Context, cmd CreateSubjectCommand) (*models.Subject, error) {
	name, err := requireName("name", cmd.Name)
	if err != nil {
		return nil, err
	}
	color := strings.TrimSpace(cmd.Color)
	if color == "" {
		color = models.DefaultSubjectColor
	}

	subject := &models.Subject{
		UserID:      cmd.UserID,
		Name:        name,
		Description: strings.TrimSpace(cmd.Description),
		Color:       color,
		Topics:      []models.Topic{},
	}
	for _, tc := range cmd.Topics {
		topic, err := tc.topic()
		if err != nil {
			return nil, err
		}
		subject.Topics = append(subject.Topics, topic)
	}

	if err := s.repos.Subjects.Create(ctx, subject); err != nil {
		return nil, err
	}
	s.log.Info("subject created", "user_id", cmd.UserID, "subject_id", subject.ID, "topics", len(subject.Topics))
	return subject, nil
}

// ListSubjects returns the user's subjects with their topics.
func (s *Service) ListSubjects(ctx context.Context, userID int64) ([]models.Subject, error) {
	return s.repos.Subjects.GetAllByUserID(ctx, userID)
}

// GetSubject returns one subject with its topics.
func (s *Service) GetSubject(ctx context.Context, userID, subjectID int64) (*models.Subject, error) {
	return s.repos.Subjects.GetByID(ctx, userID, subjectID)
}

// FindSubjectByName looks a subject up by name, ignoring case.
func (s *Service) FindSubjectByName(ctx context.Context, userID int64, name string) (*models.Subject, error) {
	return s.repos.Subjects.FindByName(ctx, userID, name)
}

// UpdateSubject changes name, description or color.
func (s *Service) UpdateSubject(ctx context.Context, cmd UpdateSubjectCommand) (*models.Subject, error) {
	subject, err := s.repos.Subjects.GetByID(ctx, cmd.UserID, cmd.SubjectID)
	if err != nil {
		return nil, err
	}
	if cmd.Name != nil {
		name, err := requireName("name", *cmd.Name)
		if err != nil {
			return nil, err
		}
		subject.Name = name
	}
	if cmd.Description != nil {
		subject.Description = strings.TrimSpace(*cmd.Description)
	}
	if cmd.Color != nil {
		subject.Color = strings.TrimSpace(*cmd.Color)
		if subject.Color == "" {
			subject.Color = models.DefaultSubjectColor
		}
	}
	if err := s.repos.Subjects.Update(ctx, subject); err != nil {
		return nil, err
	}
	return subject, nil
}

// DeleteSubject removes a subject with its topics and revisions.
func (s *Service) DeleteSubject(ctx context.Context, userID, subjectID int64) error {
	return s.repos.Subjects.Delete(ctx, userID, subjectID)
}

// CreateTopic adds a topic to a subject and refreshes the subject's total progress.
func (s *Service) CreateTopic(ctx context.Context, cmd CreateTopicCommand) (*models.Topic, error) {
	topic, err := cmd.topic()
	if err != nil {
		return nil, err
	}
	subject, err := s.repos.Subjects.GetByID(ctx, cmd.UserID, cmd.SubjectID)
	if err != nil {
		return nil, err
	}

	topic.SubjectID = subject.ID
	if err := s.repos.Topics.Create(ctx, &topic); err != nil {
		return nil, err
	}

	subject.Topics = append(subject.Topics, topic)
	if err := s.refreshTotal(ctx, subject); err != nil {
		return nil, err
	}
	return &topic, nil
}

// UpdateTopic changes name, description or difficulty of a topic.
func (s *Service) UpdateTopic(ctx context.Context, cmd UpdateTopicCommand) (*models.Topic, error) {
	if _, err := s.repos.Subjects.GetByID(ctx, cmd.UserID, cmd.SubjectID); err != nil {
		return nil, err
	}
	topic, err := s.repos.Topics.GetByID(ctx, cmd.SubjectID, cmd.TopicID)
	if err != nil {
		return nil, err
	}
	if cmd.Name != nil {
		name, err := requireName("topic name", *cmd.Name)
		if err != nil {
			return nil, err
		}
		topic.Name = name
	}
	if cmd.Description != nil {
		topic.Description = strings.TrimSpace(*cmd.Description)
	}
	if cmd.Difficulty != nil {
		if !cmd.Difficulty.IsValid() {
			return nil, apperrors.Validation("difficulty", "%q must be easy, medium or hard", *cmd.Difficulty)
		}
		topic.Difficulty = *cmd.Difficulty
	}
	if err := s.repos.Topics.Update(ctx, topic); err != nil {
		return nil, err
	}
	return topic, nil
}

// DeleteTopic removes a topic and refreshes the subject's total progress.
func (s *Service) DeleteTopic(ctx context.Context, userID, subjectID, topicID int64) error {
	subject, err := s.repos.Subjects.GetByID(ctx, userID, subjectID)
	if err != nil {
		return err
	}
	if err := s.repos.Topics.Delete(ctx, subjectID, topicID); err != nil {
		return err
	}

	kept := subject.Topics[:0]
	for _, t := range subject.Topics {
		if t.ID != topicID {
			kept = append(kept, t)
		}
	}
	subject.Topics = kept
	return s.refreshTotal(ctx, subject)
}

func (s *Service) refreshTotal(ctx context.Context, subject *models.Subject) error {
	before := subject.TotalProgress
	subject.RecalculateProgress()
	if subject.TotalProgress == before {
		return nil
	}
	return s.repos.Subjects.Update(ctx, subject)
}

// UpdateTopicProgress applies the coarse mastery rule to a topic and returns the
// subject with its recalculated total progress.
func (s *Service) UpdateTopicProgress(ctx context.Context, cmd UpdateProgressCommand) (*models.Subject, error) {
	if cmd.Progress < 0 || cmd.Progress > 100 {
		return nil, apperrors.Validation("progress", "%d must be between 0 and 100", cmd.Progress)
	}

	subject, err := s.repos.Subjects.GetByID(ctx, cmd.UserID, cmd.SubjectID)
	if err != nil {
		return nil, err
	}
	topic := subject.Topic(cmd.TopicID)
	if topic == nil {
		return nil, apperrors.NotFound("topic", cmd.TopicID)
	}

	updated, err := sr.ApplyProgress(*topic, cmd.Progress, s.Now())
	if err != nil {
		return nil, err
	}
	*topic = updated
	subject.RecalculateProgress()

	if err := s.repos.Subjects.SaveTopicProgress(ctx, subject, topic); err != nil {
		return nil, err
	}

	s.publish(ctx, events.TopicProgressUpdated, subject.UserID, events.ProgressUpdated{
		SubjectID:     subject.ID,
		Subject:       subject.Name,
		TopicID:       topic.ID,
		Topic:         topic.Name,
		Progress:      topic.Progress,
		TotalProgress: subject.TotalProgress,
		NextRevision:  *topic.NextRevision,
	})
	return subject, nil
}

// DueTopics returns the user's topics whose coarse next revision date has passed.
func (s *Service) DueTopics(ctx context.Context, userID int64) ([]models.Topic, error) {
	now := s.Now()
	topics, err := s.repos.Topics.ListDue(ctx, userID, now)
	if err != nil {
		return nil, err
	}
	return sr.DueTopics(topics, now), nil
}
