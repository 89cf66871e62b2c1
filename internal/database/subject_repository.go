package database

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/example/studyplanner/internal/apperrors"
	"github.com/example/studyplanner/pkg/models"
)

const subjectColumns = `id, user_id, name, description, color, total_progress, last_studied, study_time, created_at, updated_at`

// SubjectRepository handles database operations for subjects and their topics
type SubjectRepository struct {
	db     *sqlx.DB
	topics *TopicRepository
}

// NewSubjectRepository creates a new repository instance
func NewSubjectRepository(db *sqlx.DB) *SubjectRepository {
	return &SubjectRepository{db: db, topics: NewTopicRepository(db)}
}

// Create inserts a subject together with its initial topics
func (r *SubjectRepository) Create(ctx context.Context, subject *models.Subject) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to start transaction: %w", err)
	}
	defer tx.Rollback()

	now := utc(time.Now())
	err = tx.QueryRowxContext(ctx, tx.Rebind(`
		INSERT INTO subjects (user_id, name, description, color, total_progress, last_studied, study_time, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		RETURNING id
	`),
		subject.UserID,
		subject.Name,
		subject.Description,
		subject.Color,
		subject.TotalProgress,
		utcPtr(subject.LastStudied),
		subject.StudyTime,
		now,
		now,
	).Scan(&subject.ID)
	if err != nil {
		return fmt.Errorf("failed to create subject: %w", err)
	}
	subject.CreatedAt = now
	subject.UpdatedAt = now

	for i := range subject.Topics {
		subject.Topics[i].SubjectID = subject.ID
		if err := insertTopic(ctx, tx, &subject.Topics[i]); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// GetByID returns a subject with its topics
func (r *SubjectRepository) GetByID(ctx context.Context, userID, subjectID int64) (*models.Subject, error) {
	var subject models.Subject
	err := r.db.GetContext(ctx, &subject, r.db.Rebind(`
		SELECT `+subjectColumns+` FROM subjects WHERE id = ? AND user_id = ?
	`), subjectID, userID)
	if err != nil {
		return nil, notFound(err, "subject", subjectID)
	}

	topics, err := r.topics.ListBySubject(ctx, subjectID)
	if err != nil {
		return nil, err
	}
	subject.Topics = topics
	return &subject, nil
}

// FindByName returns the user's subject with the given name, ignoring case
func (r *SubjectRepository) FindByName(ctx context.Context, userID int64, name string) (*models.Subject, error) {
	var subject models.Subject
	err := r.db.GetContext(ctx, &subject, r.db.Rebind(`
		SELECT `+subjectColumns+` FROM subjects WHERE user_id = ? AND LOWER(name) = ?
		ORDER BY id LIMIT 1
	`), userID, strings.ToLower(strings.TrimSpace(name)))
	if err != nil {
		return nil, notFound(err, "subject", 0)
	}
	topics, err := r.topics.ListBySubject(ctx, subject.ID)
	if err != nil {
		return nil, err
	}
	subject.Topics = topics
	return &subject, nil
}

// GetAllByUserID returns all subjects of a user, each with its topics
func (r *SubjectRepository) GetAllByUserID(ctx context.Context, userID int64) ([]models.Subject, error) {
	var subjects []models.Subject
	err := r.db.SelectContext(ctx, &subjects, r.db.Rebind(`
		SELECT `+subjectColumns+` FROM subjects WHERE user_id = ? ORDER BY name, id
	`), userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get subjects: %w", err)
	}

	topics, err := r.topics.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	bySubject := make(map[int64][]models.Topic)
	for _, t := range topics {
		bySubject[t.SubjectID] = append(bySubject[t.SubjectID], t)
	}
	for i := range subjects {
		subjects[i].Topics = bySubject[subjects[i].ID]
		if subjects[i].Topics == nil {
			subjects[i].Topics = []models.Topic{}
		}
	}
	return subjects, nil
}

// Update saves the editable subject fields
func (r *SubjectRepository) Update(ctx context.Context, subject *models.Subject) error {
	now := utc(time.Now())
	res, err := r.db.ExecContext(ctx, r.db.Rebind(`
		UPDATE subjects SET
			name = ?,
			description = ?,
			color = ?,
			total_progress = ?,
			updated_at = ?
		WHERE id = ? AND user_id = ?
	`),
		subject.Name,
		subject.Description,
		subject.Color,
		subject.TotalProgress,
		now,
		subject.ID,
		subject.UserID,
	)
	if err != nil {
		return fmt.Errorf("failed to update subject: %w", err)
	}
	if err := checkAffected(res, "subject", subject.ID); err != nil {
		return err
	}
	subject.UpdatedAt = now
	return nil
}

// SaveTopicProgress stores a topic changed by the progress rule and the subject's
// recalculated total in one transaction. The topic write is guarded by its version.
func (r *SubjectRepository) SaveTopicProgress(ctx context.Context, subject *models.Subject, topic *models.Topic) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to start transaction: %w", err)
	}
	defer tx.Rollback()

	now := utc(time.Now())
	res, err := tx.ExecContext(ctx, tx.Rebind(`
		UPDATE topics SET
			progress = ?,
			last_revised = ?,
			next_revision = ?,
			revision_count = ?,
			version = version + 1,
			updated_at = ?
		WHERE id = ? AND subject_id = ? AND version = ?
	`),
		topic.Progress,
		utcPtr(topic.LastRevised),
		utcPtr(topic.NextRevision),
		topic.RevisionCount,
		now,
		topic.ID,
		subject.ID,
		topic.Version,
	)
	if err != nil {
		return fmt.Errorf("failed to update topic progress: %w", err)
	}
	if rows, err := res.RowsAffected(); err != nil {
		return err
	} else if rows == 0 {
		return apperrors.Conflict("topic", topic.ID, "modified concurrently")
	}

	_, err = tx.ExecContext(ctx, tx.Rebind(`
		UPDATE subjects SET total_progress = ?, updated_at = ? WHERE id = ? AND user_id = ?
	`), subject.TotalProgress, now, subject.ID, subject.UserID)
	if err != nil {
		return fmt.Errorf("failed to update subject progress: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	topic.Version++
	topic.UpdatedAt = now
	subject.UpdatedAt = now
	return nil
}

// Delete removes a subject; topics and revisions go with it
func (r *SubjectRepository) Delete(ctx context.Context, userID, subjectID int64) error {
	res, err := r.db.ExecContext(ctx, r.db.Rebind(`DELETE FROM subjects WHERE id = ? AND user_id = ?`), subjectID, userID)
	if err != nil {
		return fmt.Errorf("failed to delete subject: %w", err)
	}
	return checkAffected(res, "subject", subjectID)
}
