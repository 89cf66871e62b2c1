package database

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/example/studyplanner/internal/apperrors"
	"github.com/example/studyplanner/pkg/models"
)

const revisionSelect = `
	SELECT r.id, r.user_id, r.subject_id, s.name AS subject_name, r.topic_id, t.name AS topic_name,
		r.scheduled_date, r.completed_date, r.duration, r.status, r.performance, r.notes,
		r.priority, r.difficulty, r.sr_interval, r.sr_ease_factor, r.sr_repetitions,
		r.sr_last_revised, r.sr_next_revision, r.version, r.created_at, r.updated_at
	FROM revisions r
	JOIN subjects s ON s.id = r.subject_id
	JOIN topics t ON t.id = r.topic_id
`

// RevisionRepository handles database operations for revisions
type RevisionRepository struct {
	db *sqlx.DB
}

// NewRevisionRepository creates a new repository instance
func NewRevisionRepository(db *sqlx.DB) *RevisionRepository {
	return &RevisionRepository{db: db}
}

// Completion is everything written when a revision is marked complete.
type Completion struct {
	Revision *models.Revision
	// StudyMinutes is added to the subject's study time.
	StudyMinutes int
	// FollowUp, when set, is inserted as the next scheduled revision of the topic.
	FollowUp *models.Revision
}

func insertRevision(ctx context.Context, q queryerRebinder, rev *models.Revision) error {
	now := utc(time.Now())
	err := q.QueryRowxContext(ctx, q.Rebind(`
		INSERT INTO revisions (
			user_id, subject_id, topic_id, scheduled_date, completed_date, duration, status,
			performance, notes, priority, difficulty, sr_interval, sr_ease_factor, sr_repetitions,
			sr_last_revised, sr_next_revision, version, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, 0, ?, ?)
		RETURNING id
	`),
		rev.UserID,
		rev.SubjectID,
		rev.TopicID,
		utc(rev.ScheduledDate),
		utcPtr(rev.CompletedDate),
		rev.Duration,
		rev.Status,
		rev.Performance,
		rev.Notes,
		rev.Priority,
		rev.Difficulty,
		rev.Interval,
		rev.EaseFactor,
		rev.Repetitions,
		utcPtr(rev.LastRevised),
		utcPtr(rev.NextRevision),
		now,
		now,
	).Scan(&rev.ID)
	if err != nil {
		return fmt.Errorf("failed to create revision: %w", err)
	}
	rev.Version = 0
	rev.CreatedAt = now
	rev.UpdatedAt = now
	return nil
}

// Create inserts a new revision
func (r *RevisionRepository) Create(ctx context.Context, rev *models.Revision) error {
	return insertRevision(ctx, r.db, rev)
}

// GetByID returns a revision of the user
func (r *RevisionRepository) GetByID(ctx context.Context, userID, revisionID int64) (*models.Revision, error) {
	var rev models.Revision
	err := r.db.GetContext(ctx, &rev, r.db.Rebind(revisionSelect+` WHERE r.id = ? AND r.user_id = ?`), revisionID, userID)
	if err != nil {
		return nil, notFound(err, "revision", revisionID)
	}
	return &rev, nil
}

// GetAllByUserID returns all revisions of a user by scheduled date
func (r *RevisionRepository) GetAllByUserID(ctx context.Context, userID int64) ([]models.Revision, error) {
	return r.selectRevisions(ctx, revisionSelect+` WHERE r.user_id = ? ORDER BY r.scheduled_date, r.id`, userID)
}

// GetUpcoming returns scheduled revisions at or after now, soonest first
func (r *RevisionRepository) GetUpcoming(ctx context.Context, userID int64, now time.Time, limit int) ([]models.Revision, error) {
	return r.selectRevisions(ctx, revisionSelect+`
		WHERE r.user_id = ? AND r.status = ? AND r.scheduled_date >= ?
		ORDER BY r.scheduled_date, r.id
		LIMIT ?
	`, userID, models.StatusScheduled, utc(now), limit)
}

// GetCompleted returns completed revisions, most recent first
func (r *RevisionRepository) GetCompleted(ctx context.Context, userID int64, limit int) ([]models.Revision, error) {
	return r.selectRevisions(ctx, revisionSelect+`
		WHERE r.user_id = ? AND r.status = ?
		ORDER BY r.completed_date DESC, r.id DESC
		LIMIT ?
	`, userID, models.StatusCompleted, limit)
}

// GetDue returns scheduled revisions whose date has passed
func (r *RevisionRepository) GetDue(ctx context.Context, userID int64, now time.Time) ([]models.Revision, error) {
	return r.selectRevisions(ctx, revisionSelect+`
		WHERE r.user_id = ? AND r.status = ? AND r.scheduled_date <= ?
		ORDER BY r.scheduled_date, r.id
	`, userID, models.StatusScheduled, utc(now))
}

func (r *RevisionRepository) selectRevisions(ctx context.Context, query string, args ...interface{}) ([]models.Revision, error) {
	revisions := []models.Revision{}
	if err := r.db.SelectContext(ctx, &revisions, r.db.Rebind(query), args...); err != nil {
		return nil, fmt.Errorf("failed to get revisions: %w", err)
	}
	return revisions, nil
}

// Update saves the editable fields of a revision, guarded by its version
func (r *RevisionRepository) Update(ctx context.Context, rev *models.Revision) error {
	now := utc(time.Now())
	res, err := r.db.ExecContext(ctx, r.db.Rebind(`
		UPDATE revisions SET
			scheduled_date = ?,
			duration = ?,
			status = ?,
			notes = ?,
			priority = ?,
			version = version + 1,
			updated_at = ?
		WHERE id = ? AND user_id = ? AND version = ?
	`),
		utc(rev.ScheduledDate),
		rev.Duration,
		rev.Status,
		rev.Notes,
		rev.Priority,
		now,
		rev.ID,
		rev.UserID,
		rev.Version,
	)
	if err != nil {
		return fmt.Errorf("failed to update revision: %w", err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return apperrors.Conflict("revision", rev.ID, "modified concurrently")
	}
	rev.Version++
	rev.UpdatedAt = now
	return nil
}

// Complete stores a completed revision, copies its new scheduling state onto the
// topic, adds the study time to the subject and inserts the follow-up revision.
// The revision write only succeeds if nobody completed or changed it in between.
func (r *RevisionRepository) Complete(ctx context.Context, c Completion) error {
	rev := c.Revision
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to start transaction: %w", err)
	}
	defer tx.Rollback()

	now := utc(time.Now())
	res, err := tx.ExecContext(ctx, tx.Rebind(`
		UPDATE revisions SET
			status = ?,
			completed_date = ?,
			performance = ?,
			notes = ?,
			sr_interval = ?,
			sr_ease_factor = ?,
			sr_repetitions = ?,
			sr_last_revised = ?,
			sr_next_revision = ?,
			version = version + 1,
			updated_at = ?
		WHERE id = ? AND user_id = ? AND version = ? AND status <> ?
	`),
		models.StatusCompleted,
		utcPtr(rev.CompletedDate),
		rev.Performance,
		rev.Notes,
		rev.Interval,
		rev.EaseFactor,
		rev.Repetitions,
		utcPtr(rev.LastRevised),
		utcPtr(rev.NextRevision),
		now,
		rev.ID,
		rev.UserID,
		rev.Version,
		models.StatusCompleted,
	)
	if err != nil {
		return fmt.Errorf("failed to complete revision: %w", err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return apperrors.Conflict("revision", rev.ID, "modified concurrently")
	}

	_, err = tx.ExecContext(ctx, tx.Rebind(`
		UPDATE topics SET
			sr_interval = ?,
			sr_ease_factor = ?,
			sr_repetitions = ?,
			sr_last_revised = ?,
			sr_next_revision = ?,
			version = version + 1,
			updated_at = ?
		WHERE id = ?
	`),
		rev.Interval,
		rev.EaseFactor,
		rev.Repetitions,
		utcPtr(rev.LastRevised),
		utcPtr(rev.NextRevision),
		now,
		rev.TopicID,
	)
	if err != nil {
		return fmt.Errorf("failed to update topic schedule: %w", err)
	}

	_, err = tx.ExecContext(ctx, tx.Rebind(`
		UPDATE subjects SET study_time = study_time + ?, last_studied = ?, updated_at = ?
		WHERE id = ?
	`), c.StudyMinutes, utcPtr(rev.CompletedDate), now, rev.SubjectID)
	if err != nil {
		return fmt.Errorf("failed to update study time: %w", err)
	}

	if c.FollowUp != nil {
		if err := insertRevision(ctx, tx, c.FollowUp); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	rev.Status = models.StatusCompleted
	rev.Version++
	rev.UpdatedAt = now
	return nil
}

// Delete removes a revision
func (r *RevisionRepository) Delete(ctx context.Context, userID, revisionID int64) error {
	res, err := r.db.ExecContext(ctx, r.db.Rebind(`DELETE FROM revisions WHERE id = ? AND user_id = ?`), revisionID, userID)
	if err != nil {
		return fmt.Errorf("failed to delete revision: %w", err)
	}
	return checkAffected(res, "revision", revisionID)
}
