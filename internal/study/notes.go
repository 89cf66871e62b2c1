package study

import (
	"context"
	"strings"

	"github.com/example/studyplanner/internal/apperrors"
	"github.com/example/studyplanner/pkg/models"
)

func noteContent(content string) (string, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return "", apperrors.Validation("content", "is required")
	}
	return content, nil
}

// CreateNote stores a note on a topic the user owns.
func (s *Service) CreateNote(ctx context.Context, cmd CreateNoteCommand) (*models.Note, error) {
	content, err := noteContent(cmd.Content)
	if err != nil {
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

	note := &models.Note{
		UserID:      cmd.UserID,
		SubjectID:   subject.ID,
		SubjectName: subject.Name,
		TopicID:     topic.ID,
		TopicName:   topic.Name,
		Content:     content,
		Tags:        models.NormalizeTags(cmd.Tags),
	}
	if err := s.repos.Notes.Create(ctx, note); err != nil {
		return nil, err
	}
	return note, nil
}

func (s *Service) GetNote(ctx context.Context, userID, noteID int64) (*models.Note, error) {
	return s.repos.Notes.GetByID(ctx, userID, noteID)
}

// ListNotes returns every note of the user, newest first.
func (s *Service) ListNotes(ctx context.Context, userID int64) ([]models.Note, error) {
	return s.repos.Notes.List(ctx, userID)
}

// NotesBySubject fails with not found when the subject is not the user's.
func (s *Service) NotesBySubject(ctx context.Context, userID, subjectID int64) ([]models.Note, error) {
	if _, err := s.repos.Subjects.GetByID(ctx, userID, subjectID); err != nil {
		return nil, err
	}
	return s.repos.Notes.ListBySubject(ctx, userID, subjectID)
}

func (s *Service) NotesByTopic(ctx context.Context, userID, topicID int64) ([]models.Note, error) {
	return s.repos.Notes.ListByTopic(ctx, userID, topicID)
}

// UpdateNote edits content and tags. Every save moves last_edited.
func (s *Service) UpdateNote(ctx context.Context, cmd UpdateNoteCommand) (*models.Note, error) {
	note, err := s.repos.Notes.GetByID(ctx, cmd.UserID, cmd.NoteID)
	if err != nil {
		return nil, err
	}
	if cmd.Content != nil {
		content, err := noteContent(*cmd.Content)
		if err != nil {
			return nil, err
		}
		note.Content = content
	}
	if cmd.Tags != nil {
		note.Tags = models.NormalizeTags(*cmd.Tags)
	}
	if err := s.repos.Notes.Update(ctx, note); err != nil {
		return nil, err
	}
	return note, nil
}

func (s *Service) DeleteNote(ctx context.Context, userID, noteID int64) error {
	return s.repos.Notes.Delete(ctx, userID, noteID)
}
