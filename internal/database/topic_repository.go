package database

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/example/studyplanner/pkg/models"
)

const topicColumns = `t.id, t.subject_id, t.name, t.description, t.difficulty, t.progress, t.last_revised,
	t.next_revision, t.revision_count, t.sr_interval, t.sr_ease_factor, t.sr_repetitions,
	t.sr_last_revised, t.sr_next_revision, t.version, t.created_at, t.updated_at`

// TopicRepository handles database operations for topics
type TopicRepository struct {
	db *sqlx.DB
}

// NewTopicRepository creates a new repository instance
func NewTopicRepository(db *sqlx.DB) *TopicRepository {
	return &TopicRepository{db: db}
}

type queryerRebinder interface {
	sqlx.QueryerContext
	Rebind(string) string
}

func insertTopic(ctx context.Context, q queryerRebinder, topic *models.Topic) error {
	now := utc(time.Now())
	err := q.QueryRowxContext(ctx, q.Rebind(`
		INSERT INTO topics (
			subject_id, name, description, difficulty, progress, last_revised, next_revision,
			revision_count, sr_interval, sr_ease_factor, sr_repetitions, sr_last_revised,
			sr_next_revision, version, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, 0, ?, ?)
		RETURNING id
	`),
		topic.SubjectID,
		topic.Name,
		topic.Description,
		topic.Difficulty,
		topic.Progress,
		utcPtr(topic.LastRevised),
		utcPtr(topic.NextRevision),
		topic.RevisionCount,
		topic.Interval,
		topic.EaseFactor,
		topic.Repetitions,
		utcPtr(topic.RevisionState.LastRevised),
		utcPtr(topic.RevisionState.NextRevision),
		now,
		now,
	).Scan(&topic.ID)
	if err != nil {
		return fmt.Errorf("failed to create topic: %w", err)
	}
	topic.Version = 0
	topic.CreatedAt = now
	topic.UpdatedAt = now
	return nil
}

// Create inserts a topic into an existing subject
func (r *TopicRepository) Create(ctx context.Context, topic *models.Topic) error {
	return insertTopic(ctx, r.db, topic)
}

// GetByID returns a topic of the given subject
func (r *TopicRepository) GetByID(ctx context.Context, subjectID, topicID int64) (*models.Topic, error) {
	var topic models.Topic
	err := r.db.GetContext(ctx, &topic, r.db.Rebind(`
		SELECT `+topicColumns+` FROM topics t WHERE t.id = ? AND t.subject_id = ?
	`), topicID, subjectID)
	if err != nil {
		return nil, notFound(err, "topic", topicID)
	}
	return &topic, nil
}

// ListBySubject returns the topics of a subject in creation order
func (r *TopicRepository) ListBySubject(ctx context.Context, subjectID int64) ([]models.Topic, error) {
	topics := []models.Topic{}
	err := r.db.SelectContext(ctx, &topics, r.db.Rebind(`
		SELECT `+topicColumns+` FROM topics t WHERE t.subject_id = ? ORDER BY t.id
	`), subjectID)
	if err != nil {
		return nil, fmt.Errorf("failed to get topics: %w", err)
	}
	return topics, nil
}

// ListByUser returns every topic across the user's subjects
func (r *TopicRepository) ListByUser(ctx context.Context, userID int64) ([]models.Topic, error) {
	var topics []models.Topic
	err := r.db.SelectContext(ctx, &topics, r.db.Rebind(`
		SELECT `+topicColumns+` FROM topics t
		JOIN subjects s ON s.id = t.subject_id
		WHERE s.user_id = ?
		ORDER BY t.subject_id, t.id
	`), userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get topics: %w", err)
	}
	return topics, nil
}

// ListDue returns the user's topics whose coarse next revision date has passed
func (r *TopicRepository) ListDue(ctx context.Context, userID int64, now time.Time) ([]models.Topic, error) {
	var topics []models.Topic
	err := r.db.SelectContext(ctx, &topics, r.db.Rebind(`
		SELECT `+topicColumns+` FROM topics t
		JOIN subjects s ON s.id = t.subject_id
		WHERE s.user_id = ? AND t.next_revision IS NOT NULL AND t.next_revision <= ?
		ORDER BY t.next_revision
	`), userID, utc(now))
	if err != nil {
		return nil, fmt.Errorf("failed to get due topics: %w", err)
	}
	return topics, nil
}

// Update saves the descriptive topic fields
func (r *TopicRepository) Update(ctx context.Context, topic *models.Topic) error {
	now := utc(time.Now())
	res, err := r.db.ExecContext(ctx, r.db.Rebind(`
		UPDATE topics SET
			name = ?,
			description = ?,
			difficulty = ?,
			version = version + 1,
			updated_at = ?
		WHERE id = ? AND subject_id = ?
	`),
		topic.Name,
		topic.Description,
		topic.Difficulty,
		now,
		topic.ID,
		topic.SubjectID,
	)
	if err != nil {
		return fmt.Errorf("failed to update topic: %w", err)
	}
	if err := checkAffected(res, "topic", topic.ID); err != nil {
		return err
	}
	topic.Version++
	topic.UpdatedAt = now
	return nil
}

// Delete removes a topic and its revisions
func (r *TopicRepository) Delete(ctx context.Context, subjectID, topicID int64) error {
	res, err := r.db.ExecContext(ctx, r.db.Rebind(`DELETE FROM topics WHERE id = ? AND subject_id = ?`), topicID, subjectID)
	if err != nil {
		return fmt.Errorf("failed to delete topic: %w", err)
	}
	return checkAffected(res, "topic", topicID)
}
