package study

import (
	"context"

	"github.com/example/studyplanner/internal/apperrors"
	"github.com/example/studyplanner/internal/database"
	"github.com/example/studyplanner/internal/events"
	sr "github.com/example/studyplanner/internal/spaced_repetition"
	"github.com/example/studyplanner/pkg/models"
)

const defaultListLimit = 10

// CompleteRevision records a finished revision, advances the SM-2 state of the
// revision and its topic, and schedules the follow-up revision.
func (s *Service) CompleteRevision(ctx context.Context, cmd CompleteRevisionCommand) (*models.Revision, error) {
	quality, err := sr.QualityFromRating(cmd.Rating)
	if err != nil {
		return nil, err
	}

	rev, err := s.repos.Revisions.GetByID(ctx, cmd.UserID, cmd.RevisionID)
	if err != nil {
		return nil, err
	}
	if rev.Status == models.StatusCompleted {
		return nil, apperrors.Conflict("revision", rev.ID, "already completed")
	}

	now := s.Now()
	state, err := s.sm2.UpdateSchedule(rev.RevisionState, quality, now)
	if err != nil {
		return nil, err
	}

	rating := cmd.Rating
	rev.CompletedDate = &now
	rev.Performance = &rating
	if cmd.Notes != "" {
		rev.Notes = cmd.Notes
	}
	rev.RevisionState = state

	var followUp *models.Revision
	if s.autoFollowUp {
		followUp = &models.Revision{
			UserID:        rev.UserID,
			SubjectID:     rev.SubjectID,
			SubjectName:   rev.SubjectName,
			TopicID:       rev.TopicID,
			TopicName:     rev.TopicName,
			ScheduledDate: *state.NextRevision,
			Duration:      rev.Duration,
			Status:        models.StatusScheduled,
			Priority:      rev.Priority,
			Difficulty:    rev.Difficulty,
			RevisionState: state,
		}
	}

	err = s.repos.Revisions.Complete(ctx, database.Completion{
		Revision:     rev,
		StudyMinutes: rev.Duration,
		FollowUp:     followUp,
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("revision completed",
		"user_id", rev.UserID,
		"revision_id", rev.ID,
		"rating", rating,
		"ease_factor", state.EaseFactor,
		"next_revision", state.NextRevision)

	payload := events.RevisionCompleted{
		RevisionID:   rev.ID,
		TopicID:      rev.TopicID,
		Topic:        rev.TopicName,
		Performance:  rating,
		EaseFactor:   state.EaseFactor,
		Interval:     state.Interval,
		NextRevision: *state.NextRevision,
		Mastered:     sr.IsMastered(state, rating),
	}
	if followUp != nil {
		payload.FollowUpID = followUp.ID
	}
	s.publish(ctx, events.TopicRevisionCompleted, rev.UserID, payload)
	return rev, nil
}

// ScheduleRevision plans a revision seeded with the topic's current scheduling state.
func (s *Service) ScheduleRevision(ctx context.Context, cmd ScheduleRevisionCommand) (*models.Revision, error) {
	if err := cmd.validate(); err != nil {
		return nil, err
	}
	subject, err := s.repos.Subjects.GetByID(ctx, cmd.UserID, cmd.SubjectID)
	if err != nil {
		return nil, err
	}
	topic := subject.Topic(cmd.TopicID)
	if topic == nil {
		return nil, apperrors.NotFound("topic", cmd.TopicID)
	}

	difficulty, _ := difficultyOrDefault(cmd.Difficulty, topic.Difficulty)
	priority := cmd.Priority
	if priority == "" {
		priority = models.PriorityMedium
	}

	rev := &models.Revision{
		UserID:        cmd.UserID,
		SubjectID:     subject.ID,
		SubjectName:   subject.Name,
		TopicID:       topic.ID,
		TopicName:     topic.Name,
		ScheduledDate: cmd.ScheduledDate,
		Duration:      cmd.Duration,
		Status:        models.StatusScheduled,
		Notes:         cmd.Notes,
		Priority:      priority,
		Difficulty:    difficulty,
		RevisionState: topic.RevisionState,
	}
	if err := s.repos.Revisions.Create(ctx, rev); err != nil {
		return nil, err
	}

	s.publish(ctx, events.TopicRevisionScheduled, rev.UserID, events.RevisionScheduled{
		RevisionID:    rev.ID,
		TopicID:       rev.TopicID,
		Topic:         rev.TopicName,
		ScheduledDate: rev.ScheduledDate,
	})
	return rev, nil
}

// UpdateRevision edits a revision. Completed revisions only accept notes.
func (s *Service) UpdateRevision(ctx context.Context, cmd UpdateRevisionCommand) (*models.Revision, error) {
	rev, err := s.repos.Revisions.GetByID(ctx, cmd.UserID, cmd.RevisionID)
	if err != nil {
		return nil, err
	}

	if rev.Status == models.StatusCompleted &&
		(cmd.ScheduledDate != nil || cmd.Duration != nil || cmd.Status != nil || cmd.Priority != nil) {
		return nil, apperrors.Conflict("revision", rev.ID, "already completed")
	}

	if cmd.ScheduledDate != nil {
		if cmd.ScheduledDate.IsZero() {
			return nil, apperrors.Validation("scheduled_date", "is required")
		}
		rev.ScheduledDate = *cmd.ScheduledDate
	}
	if cmd.Duration != nil {
		if *cmd.Duration <= 0 {
			return nil, apperrors.Validation("duration", "must be a positive number of minutes")
		}
		rev.Duration = *cmd.Duration
	}
	if cmd.Status != nil {
		switch *cmd.Status {
		case models.StatusScheduled, models.StatusMissed:
			rev.Status = *cmd.Status
		case models.StatusCompleted:
			return nil, apperrors.Validation("status", "use the complete operation to finish a revision")
		default:
			return nil, apperrors.Validation("status", "%q is not a revision status", *cmd.Status)
		}
	}
	if cmd.Priority != nil {
		if !cmd.Priority.IsValid() {
			return nil, apperrors.Validation("priority", "%q must be low, medium or high", *cmd.Priority)
		}
		rev.Priority = *cmd.Priority
	}
	if cmd.Notes != nil {
		rev.Notes = *cmd.Notes
	}

	if err := s.repos.Revisions.Update(ctx, rev); err != nil {
		return nil, err
	}
	return rev, nil
}

// GetRevision returns one revision of the user.
func (s *Service) GetRevision(ctx context.Context, userID, revisionID int64) (*models.Revision, error) {
	return s.repos.Revisions.GetByID(ctx, userID, revisionID)
}

// ListRevisions returns every revision of the user.
func (s *Service) ListRevisions(ctx context.Context, userID int64) ([]models.Revision, error) {
	return s.repos.Revisions.GetAllByUserID(ctx, userID)
}

// UpcomingRevisions returns the next scheduled revisions, 10 when limit is 0.
func (s *Service) UpcomingRevisions(ctx context.Context, userID int64, limit int) ([]models.Revision, error) {
	if limit <= 0 {
		limit = defaultListLimit
	}
	return s.repos.Revisions.GetUpcoming(ctx, userID, s.Now(), limit)
}

// CompletedRevisions returns the latest completed revisions, 10 when limit is 0.
func (s *Service) CompletedRevisions(ctx context.Context, userID int64, limit int) ([]models.Revision, error) {
	if limit <= 0 {
		limit = defaultListLimit
	}
	return s.repos.Revisions.GetCompleted(ctx, userID, limit)
}

// DueRevisions returns overdue revisions, hardest first. limit 0 means all.
func (s *Service) DueRevisions(ctx context.Context, userID int64, limit int) ([]models.Revision, error) {
	now := s.Now()
	revisions, err := s.repos.Revisions.GetDue(ctx, userID, now)
	if err != nil {
		return nil, err
	}
	return sr.DueRevisions(revisions, now, limit), nil
}

// DeleteRevision removes a revision of the user.
func (s *Service) DeleteRevision(ctx context.Context, userID, revisionID int64) error {
	return s.repos.Revisions.Delete(ctx, userID, revisionID)
}
