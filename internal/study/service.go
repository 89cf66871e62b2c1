// Package study holds the application operations shared by the HTTP API, the
// Telegram bot and the reminder job.
package study

import (
	"context"
	"time"

	"github.com/example/studyplanner/internal/database"
	"github.com/example/studyplanner/internal/events"
	"github.com/example/studyplanner/internal/logger"
	sr "github.com/example/studyplanner/internal/spaced_repetition"
	"github.com/example/studyplanner/pkg/models"
)

// UserStore is the user persistence the service needs.
type UserStore interface {
	Create(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, id int64) (*models.User, error)
	GetByTelegramID(ctx context.Context, telegramID int64) (*models.User, error)
	UpdateNotifications(ctx context.Context, userID int64, enabled bool, hour int) error
}

// SubjectStore is the subject persistence the service needs.
type SubjectStore interface {
	Create(ctx context.Context, subject *models.Subject) error
	GetByID(ctx context.Context, userID, subjectID int64) (*models.Subject, error)
	FindByName(ctx context.Context, userID int64, name string) (*models.Subject, error)
	GetAllByUserID(ctx context.Context, userID int64) ([]models.Subject, error)
	Update(ctx context.Context, subject *models.Subject) error
	SaveTopicProgress(ctx context.Context, subject *models.Subject, topic *models.Topic) error
	Delete(ctx context.Context, userID, subjectID int64) error
}

// TopicStore is the topic persistence the service needs.
type TopicStore interface {
	Create(ctx context.Context, topic *models.Topic) error
	GetByID(ctx context.Context, subjectID, topicID int64) (*models.Topic, error)
	ListDue(ctx context.Context, userID int64, now time.Time) ([]models.Topic, error)
	Update(ctx context.Context, topic *models.Topic) error
	Delete(ctx context.Context, subjectID, topicID int64) error
}

// RevisionStore is the revision persistence the service needs.
type RevisionStore interface {
	Create(ctx context.Context, rev *models.Revision) error
	GetByID(ctx context.Context, userID, revisionID int64) (*models.Revision, error)
	GetAllByUserID(ctx context.Context, userID int64) ([]models.Revision, error)
	GetUpcoming(ctx context.Context, userID int64, now time.Time, limit int) ([]models.Revision, error)
	GetCompleted(ctx context.Context, userID int64, limit int) ([]models.Revision, error)
	GetDue(ctx context.Context, userID int64, now time.Time) ([]models.Revision, error)
	Update(ctx context.Context, rev *models.Revision) error
	Complete(ctx context.Context, c database.Completion) error
	Delete(ctx context.Context, userID, revisionID int64) error
}

// StatsStore is the read model behind the progress pages.
type StatsStore interface {
	CountSubjects(ctx context.Context, userID int64) (int, error)
	CountUpcoming(ctx context.Context, userID int64, now time.Time) (int, error)
	CountCompletedBetween(ctx context.Context, userID int64, from, to time.Time) (int, error)
	CompletedDates(ctx context.Context, userID int64) ([]time.Time, error)
	CompletedSessions(ctx context.Context, userID int64, from, to time.Time) ([]models.CompletedSession, error)
	SubjectProgress(ctx context.Context, userID int64) ([]models.SubjectProgress, error)
	TopicProgress(ctx context.Context, userID int64) ([]models.TopicProgress, error)
}

// NoteStore is the note persistence the service needs.
type NoteStore interface {
	Create(ctx context.Context, note *models.Note) error
	GetByID(ctx context.Context, userID, noteID int64) (*models.Note, error)
	List(ctx context.Context, userID int64) ([]models.Note, error)
	ListBySubject(ctx context.Context, userID, subjectID int64) ([]models.Note, error)
	ListByTopic(ctx context.Context, userID, topicID int64) ([]models.Note, error)
	Update(ctx context.Context, note *models.Note) error
	Delete(ctx context.Context, userID, noteID int64) error
}

// Repositories groups the stores.
type Repositories struct {
	Users     UserStore
	Subjects  SubjectStore
	Topics    TopicStore
	Revisions RevisionStore
	Stats     StatsStore
	Notes     NoteStore
}

// Config tunes the scheduling behaviour.
type Config struct {
	EaseFloor   float64
	MaxInterval float64
	// AutoFollowUp schedules the next revision of a topic when one is completed.
	AutoFollowUp bool
	// Location decides calendar days for streaks and daily counts.
	Location *time.Location
	// Now overrides the clock, used by tests.
	Now func() time.Time
}

// Service implements the study operations.
type Service struct {
	repos        Repositories
	sm2          *sr.SM2
	bus          events.Publisher
	log          *logger.Logger
	clock        func() time.Time
	loc          *time.Location
	autoFollowUp bool
}

// New creates a Service. A nil bus discards events.
func New(repos Repositories, bus events.Publisher, log *logger.Logger, cfg Config) *Service {
	sm2 := sr.NewSM2()
	if cfg.EaseFloor > 0 {
		sm2.EaseFloor = cfg.EaseFloor
	}
	if cfg.MaxInterval > 0 {
		sm2.MaxInterval = cfg.MaxInterval
	}

	if bus == nil {
		bus = events.Discard
	}
	if log == nil {
		log = logger.Nop()
	}
	clock := cfg.Now
	if clock == nil {
		clock = time.Now
	}
	loc := cfg.Location
	if loc == nil {
		loc = time.UTC
	}

	return &Service{
		repos:        repos,
		sm2:          sm2,
		bus:          bus,
		log:          log.With("service", "StudyService"),
		clock:        clock,
		loc:          loc,
		autoFollowUp: cfg.AutoFollowUp,
	}
}

// Now returns the current time in the service's location.
func (s *Service) Now() time.Time {
	return s.clock().In(s.loc)
}

// publish sends an event after a successful change. Failures are logged only:
// the change itself is already committed.
func (s *Service) publish(ctx context.Context, topic events.Topic, userID int64, payload interface{}) {
	ev, err := events.New(topic, userID, s.Now(), payload)
	if err != nil {
		s.log.Error("failed to build event", "topic", topic, "error", err)
		return
	}
	if err := s.bus.Publish(ctx, ev); err != nil {
		s.log.Warn("failed to publish event", "topic", topic, "user_id", userID, "error", err)
	}
}
