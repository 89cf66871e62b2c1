// Package events carries study notifications between the service, the reminder
// job and the chat surfaces.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Topic names the kind of an event.
type Topic string

const (
	TopicRevisionDue       Topic = "revision-due"
	TopicProgressUpdated   Topic = "progress-updated"
	TopicRevisionCompleted Topic = "revision-completed"
	TopicRevisionScheduled Topic = "revision-scheduled"
)

// Event is one message on the bus. Payload is the JSON encoding of one of the
// payload types below, chosen by Topic.
type Event struct {
	ID         uuid.UUID       `json:"id"`
	Topic      Topic           `json:"topic"`
	UserID     int64           `json:"user_id"`
	OccurredAt time.Time       `json:"occurred_at"`
	Payload    json.RawMessage `json:"payload,omitempty"`
}

// New builds an event with a fresh id and the JSON-encoded payload.
func New(topic Topic, userID int64, at time.Time, payload interface{}) (Event, error) {
	ev := Event{ID: uuid.New(), Topic: topic, UserID: userID, OccurredAt: at.UTC()}
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			return Event{}, fmt.Errorf("failed to encode %s payload: %w", topic, err)
		}
		ev.Payload = raw
	}
	return ev, nil
}

// Decode unmarshals the payload into v.
func (e Event) Decode(v interface{}) error {
	if len(e.Payload) == 0 {
		return fmt.Errorf("event %s has no payload", e.ID)
	}
	return json.Unmarshal(e.Payload, v)
}

// DueItem is one revision or topic waiting for review.
type DueItem struct {
	RevisionID int64     `json:"revision_id,omitempty"`
	SubjectID  int64     `json:"subject_id"`
	Subject    string    `json:"subject"`
	TopicID    int64     `json:"topic_id"`
	Topic      string    `json:"topic"`
	DueAt      time.Time `json:"due_at"`
}

// RevisionDue is the payload of TopicRevisionDue.
type RevisionDue struct {
	TelegramID *int64    `json:"telegram_id,omitempty"`
	Items      []DueItem `json:"items"`
}

// ProgressUpdated is the payload of TopicProgressUpdated.
type ProgressUpdated struct {
	SubjectID     int64     `json:"subject_id"`
	Subject       string    `json:"subject"`
	TopicID       int64     `json:"topic_id"`
	Topic         string    `json:"topic"`
	Progress      int       `json:"progress"`
	TotalProgress int       `json:"total_progress"`
	NextRevision  time.Time `json:"next_revision"`
}

// RevisionCompleted is the payload of TopicRevisionCompleted.
type RevisionCompleted struct {
	RevisionID   int64     `json:"revision_id"`
	TopicID      int64     `json:"topic_id"`
	Topic        string    `json:"topic"`
	Performance  int       `json:"performance"`
	EaseFactor   float64   `json:"ease_factor"`
	Interval     float64   `json:"interval"`
	NextRevision time.Time `json:"next_revision"`
	FollowUpID   int64     `json:"follow_up_id,omitempty"`
	Mastered     bool      `json:"mastered"`
}

// RevisionScheduled is the payload of TopicRevisionScheduled.
type RevisionScheduled struct {
	RevisionID    int64     `json:"revision_id"`
	TopicID       int64     `json:"topic_id"`
	Topic         string    `json:"topic"`
	ScheduledDate time.Time `json:"scheduled_date"`
}

// Publisher sends events.
type Publisher interface {
	Publish(ctx context.Context, ev Event) error
}

// Handler receives delivered events.
type Handler func(ctx context.Context, ev Event)

// Bus is a Publisher that can also deliver events to subscribers. Subscribe
// returns once the subscription is active; delivery stops when ctx is done or
// the bus is closed.
type Bus interface {
	Publisher
	Subscribe(ctx context.Context, h Handler) error
	Close() error
}
