package database

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/example/studyplanner/pkg/models"
)

const noteSelect = `
	SELECT n.id, n.user_id, n.subject_id, s.name AS subject_name, n.topic_id, t.name AS topic_name,
		n.content, n.tags, n.last_edited, n.created_at, n.updated_at
	FROM notes n
	JOIN subjects s ON s.id = n.subject_id
	JOIN topics t ON t.id = n.topic_id
`

// NoteRepository handles database operations for notes
type NoteRepository struct {
	db *sqlx.DB
}

// NewNoteRepository creates a new repository instance
func NewNoteRepository(db *sqlx.DB) *NoteRepository {
	return &NoteRepository{db: db}
}

// Create inserts a new note
func (r *NoteRepository) Create(ctx context.Context, note *models.Note) error {
	now := utc(time.Now())
	if note.Tags == nil {
		note.Tags = models.Tags{}
	}
	err := r.db.QueryRowxContext(ctx, r.db.Rebind(`
		INSERT INTO notes (user_id, subject_id, topic_id, content, tags, last_edited, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		RETURNING id
	`),
		note.UserID,
		note.SubjectID,
		note.TopicID,
		note.Content,
		note.Tags,
		now,
		now,
		now,
	).Scan(&note.ID)
	if err != nil {
		return fmt.Errorf("failed to create note: %w", err)
	}
	note.LastEdited = now
	note.CreatedAt = now
	note.UpdatedAt = now
	return nil
}

// GetByID returns a note of the user
func (r *NoteRepository) GetByID(ctx context.Context, userID, noteID int64) (*models.Note, error) {
	var note models.Note
	err := r.db.GetContext(ctx, &note, r.db.Rebind(noteSelect+` WHERE n.id = ? AND n.user_id = ?`), noteID, userID)
	if err != nil {
		return nil, notFound(err, "note", noteID)
	}
	return &note, nil
}

// List returns all notes of the user, newest first
func (r *NoteRepository) List(ctx context.Context, userID int64) ([]models.Note, error) {
	return r.selectNotes(ctx, noteSelect+`
		WHERE n.user_id = ?
		ORDER BY n.created_at DESC, n.id DESC
	`, userID)
}

// ListBySubject returns the user's notes of one subject, newest first
func (r *NoteRepository) ListBySubject(ctx context.Context, userID, subjectID int64) ([]models.Note, error) {
	return r.selectNotes(ctx, noteSelect+`
		WHERE n.user_id = ? AND n.subject_id = ?
		ORDER BY n.created_at DESC, n.id DESC
	`, userID, subjectID)
}

// ListByTopic returns the user's notes of one topic, newest first
func (r *NoteRepository) ListByTopic(ctx context.Context, userID, topicID int64) ([]models.Note, error) {
	return r.selectNotes(ctx, noteSelect+`
		WHERE n.user_id = ? AND n.topic_id = ?
		ORDER BY n.created_at DESC, n.id DESC
	`, userID, topicID)
}

func (r *NoteRepository) selectNotes(ctx context.Context, query string, args ...interface{}) ([]models.Note, error) {
	notes := []models.Note{}
	if err := r.db.SelectContext(ctx, &notes, r.db.Rebind(query), args...); err != nil {
		return nil, fmt.Errorf("failed to get notes: %w", err)
	}
	return notes, nil
}

// Update saves the content and tags of a note and stamps last_edited
func (r *NoteRepository) Update(ctx context.Context, note *models.Note) error {
	now := utc(time.Now())
	if note.Tags == nil {
		note.Tags = models.Tags{}
	}
	res, err := r.db.ExecContext(ctx, r.db.Rebind(`
		UPDATE notes SET
			content = ?,
			tags = ?,
			last_edited = ?,
			updated_at = ?
		WHERE id = ? AND user_id = ?
	`),
		note.Content,
		note.Tags,
		now,
		now,
		note.ID,
		note.UserID,
	)
	if err != nil {
		return fmt.Errorf("failed to update note: %w", err)
	}
	if err := checkAffected(res, "note", note.ID); err != nil {
		return err
	}
	note.LastEdited = now
	note.UpdatedAt = now
	return nil
}

// Delete removes a note of the user
func (r *NoteRepository) Delete(ctx context.Context, userID, noteID int64) error {
	res, err := r.db.ExecContext(ctx, r.db.Rebind(`DELETE FROM notes WHERE id = ? AND user_id = ?`), noteID, userID)
	if err != nil {
		return fmt.Errorf("failed to delete note: %w", err)
	}
	return checkAffected(res, "note", noteID)
}
