package database

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/example/studyplanner/pkg/models"
)

// StatisticsRepository runs the read-only progress queries
type StatisticsRepository struct {
	db *sqlx.DB
}

// NewStatisticsRepository creates a new repository instance
func NewStatisticsRepository(db *sqlx.DB) *StatisticsRepository {
	return &StatisticsRepository{db: db}
}

// CountSubjects returns the number of subjects a user has
func (r *StatisticsRepository) CountSubjects(ctx context.Context, userID int64) (int, error) {
	var n int
	if err := r.db.GetContext(ctx, &n, r.db.Rebind(`SELECT COUNT(*) FROM subjects WHERE user_id = ?`), userID); err != nil {
		return 0, fmt.Errorf("failed to count subjects: %w", err)
	}
	return n, nil
}

// CountUpcoming returns the number of scheduled revisions at or after now
func (r *StatisticsRepository) CountUpcoming(ctx context.Context, userID int64, now time.Time) (int, error) {
	var n int
	err := r.db.GetContext(ctx, &n, r.db.Rebind(`
		SELECT COUNT(*) FROM revisions WHERE user_id = ? AND status = ? AND scheduled_date >= ?
	`), userID, models.StatusScheduled, utc(now))
	if err != nil {
		return 0, fmt.Errorf("failed to count upcoming revisions: %w", err)
	}
	return n, nil
}

// CountCompletedBetween returns completions in [from, to)
func (r *StatisticsRepository) CountCompletedBetween(ctx context.Context, userID int64, from, to time.Time) (int, error) {
	var n int
	err := r.db.GetContext(ctx, &n, r.db.Rebind(`
		SELECT COUNT(*) FROM revisions
		WHERE user_id = ? AND status = ? AND completed_date >= ? AND completed_date < ?
	`), userID, models.StatusCompleted, utc(from), utc(to))
	if err != nil {
		return 0, fmt.Errorf("failed to count completed revisions: %w", err)
	}
	return n, nil
}

// CompletedDates returns every completion time, most recent first
func (r *StatisticsRepository) CompletedDates(ctx context.Context, userID int64) ([]time.Time, error) {
	var dates []time.Time
	err := r.db.SelectContext(ctx, &dates, r.db.Rebind(`
		SELECT completed_date FROM revisions
		WHERE user_id = ? AND status = ? AND completed_date IS NOT NULL
		ORDER BY completed_date DESC
	`), userID, models.StatusCompleted)
	if err != nil {
		return nil, fmt.Errorf("failed to get completed dates: %w", err)
	}
	return dates, nil
}

// CompletedSessions returns completed revisions in [from, to); zero bounds are open
func (r *StatisticsRepository) CompletedSessions(ctx context.Context, userID int64, from, to time.Time) ([]models.CompletedSession, error) {
	query := `
		SELECT completed_date, duration, COALESCE(performance, 0) AS performance, difficulty
		FROM revisions
		WHERE user_id = ? AND status = ? AND completed_date IS NOT NULL`
	args := []interface{}{userID, models.StatusCompleted}
	if !from.IsZero() {
		query += ` AND completed_date >= ?`
		args = append(args, utc(from))
	}
	if !to.IsZero() {
		query += ` AND completed_date < ?`
		args = append(args, utc(to))
	}
	query += ` ORDER BY completed_date`

	sessions := []models.CompletedSession{}
	if err := r.db.SelectContext(ctx, &sessions, r.db.Rebind(query), args...); err != nil {
		return nil, fmt.Errorf("failed to get completed sessions: %w", err)
	}
	return sessions, nil
}

// SubjectProgress returns name and total progress of each subject
func (r *StatisticsRepository) SubjectProgress(ctx context.Context, userID int64) ([]models.SubjectProgress, error) {
	rows := []models.SubjectProgress{}
	err := r.db.SelectContext(ctx, &rows, r.db.Rebind(`
		SELECT id, name, total_progress FROM subjects WHERE user_id = ? ORDER BY name, id
	`), userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get subject progress: %w", err)
	}
	return rows, nil
}

// TopicProgress returns the progress of every topic with its subject name
func (r *StatisticsRepository) TopicProgress(ctx context.Context, userID int64) ([]models.TopicProgress, error) {
	rows := []models.TopicProgress{}
	err := r.db.SelectContext(ctx, &rows, r.db.Rebind(`
		SELECT s.id AS subject_id, s.name AS subject, t.id AS topic_id, t.name AS topic,
			t.progress, t.revision_count
		FROM topics t
		JOIN subjects s ON s.id = t.subject_id
		WHERE s.user_id = ?
		ORDER BY s.name, s.id, t.id
	`), userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get topic progress: %w", err)
	}
	return rows, nil
}
