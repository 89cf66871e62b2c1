package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/go-co-op/gocron"

	"github.com/example/studyplanner/internal/events"
	"github.com/example/studyplanner/internal/logger"
	"github.com/example/studyplanner/pkg/models"
)

// Default notification window
const (
	DefaultNotificationStartHour = 8
	DefaultNotificationEndHour   = 22
)

// UserSource finds the users to remind.
type UserSource interface {
	GetUsersForNotification(ctx context.Context, hour int) ([]models.User, error)
	GetByID(ctx context.Context, id int64) (*models.User, error)
}

// DueSource lists what a user should review now.
type DueSource interface {
	DueRevisions(ctx context.Context, userID int64, limit int) ([]models.Revision, error)
	DueTopics(ctx context.Context, userID int64) ([]models.Topic, error)
}

// Options configures the reminder job.
type Options struct {
	Interval  time.Duration
	StartHour int
	EndHour   int
	Location  *time.Location
	// Now overrides the clock, used by tests.
	Now func() time.Time
}

// DefaultOptions is an hourly check inside the default window, in UTC.
func DefaultOptions() Options {
	return Options{
		Interval:  time.Hour,
		StartHour: DefaultNotificationStartHour,
		EndHour:   DefaultNotificationEndHour,
		Location:  time.UTC,
	}
}

// Scheduler manages scheduled tasks for the application
type Scheduler struct {
	scheduler *gocron.Scheduler
	users     UserSource
	due       DueSource
	publisher events.Publisher
	log       *logger.Logger
	opts      Options
}

// New creates a new scheduler instance
func New(users UserSource, due DueSource, publisher events.Publisher, log *logger.Logger, opts Options) *Scheduler {
	if opts.Interval <= 0 {
		opts.Interval = time.Hour
	}
	if opts.Location == nil {
		opts.Location = time.UTC
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Scheduler{
		scheduler: gocron.NewScheduler(opts.Location),
		users:     users,
		due:       due,
		publisher: publisher,
		log:       log.With("service", "ReminderScheduler"),
		opts:      opts,
	}
}

// Start begins running all scheduled tasks
func (s *Scheduler) Start(ctx context.Context) error {
	_, err := s.scheduler.Every(s.opts.Interval).Do(func() {
		if _, err := s.CheckReminders(ctx); err != nil {
			s.log.Error("reminder check failed", "error", err)
		}
	})
	if err != nil {
		return fmt.Errorf("failed to schedule reminders: %w", err)
	}

	// Start the scheduler in a non-blocking manner
	s.scheduler.StartAsync()
	s.log.Info("reminder scheduler started",
		"interval", s.opts.Interval,
		"start_hour", s.opts.StartHour,
		"end_hour", s.opts.EndHour)
	return nil
}

// Stop terminates all scheduled tasks
func (s *Scheduler) Stop() {
	s.scheduler.Stop()
}

// InWindow reports whether hour lies in the notification window. A window whose
// start is after its end wraps around midnight.
func (s *Scheduler) InWindow(hour int) bool {
	start, end := s.opts.StartHour, s.opts.EndHour
	if start <= end {
		return hour >= start && hour <= end
	}
	return hour >= start || hour <= end
}

// CheckReminders publishes a revision-due event for every user whose reminder
// hour is now and who has something due. It returns the number of users reminded.
func (s *Scheduler) CheckReminders(ctx context.Context) (int, error) {
	now := s.opts.Now().In(s.opts.Location)
	hour := now.Hour()
	if !s.InWindow(hour) {
		s.log.Debug("outside notification hours, skipping reminders",
			"hour", hour, "start_hour", s.opts.StartHour, "end_hour", s.opts.EndHour)
		return 0, nil
	}

	users, err := s.users.GetUsersForNotification(ctx, hour)
	if err != nil {
		return 0, fmt.Errorf("failed to get users for notification: %w", err)
	}

	reminded := 0
	for _, user := range users {
		n, err := s.remind(ctx, user, now)
		if err != nil {
			s.log.Warn("failed to remind user", "user_id", user.ID, "error", err)
			continue
		}
		if n > 0 {
			reminded++
		}
	}
	s.log.Info("reminder check done", "hour", hour, "candidates", len(users), "reminded", reminded)
	return reminded, nil
}

// RunManualCheck forces a check for a specific user, ignoring the window. It
// returns the number of due items.
func (s *Scheduler) RunManualCheck(ctx context.Context, userID int64) (int, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return 0, err
	}
	return s.remind(ctx, *user, s.opts.Now().In(s.opts.Location))
}

func (s *Scheduler) remind(ctx context.Context, user models.User, now time.Time) (int, error) {
	revisions, err := s.due.DueRevisions(ctx, user.ID, 0)
	if err != nil {
		return 0, err
	}
	topics, err := s.due.DueTopics(ctx, user.ID)
	if err != nil {
		return 0, err
	}

	items := make([]events.DueItem, 0, len(revisions)+len(topics))
	for _, r := range revisions {
		items = append(items, events.DueItem{
			RevisionID: r.ID,
			SubjectID:  r.SubjectID,
			Subject:    r.SubjectName,
			TopicID:    r.TopicID,
			Topic:      r.TopicName,
			DueAt:      r.ScheduledDate,
		})
	}
	for _, t := range topics {
		items = append(items, events.DueItem{
			SubjectID: t.SubjectID,
			TopicID:   t.ID,
			Topic:     t.Name,
			DueAt:     *t.NextRevision,
		})
	}
	if len(items) == 0 {
		return 0, nil
	}

	ev, err := events.New(events.TopicRevisionDue, user.ID, now, events.RevisionDue{
		TelegramID: user.TelegramID,
		Items:      items,
	})
	if err != nil {
		return 0, err
	}
	if err := s.publisher.Publish(ctx, ev); err != nil {
		return 0, fmt.Errorf("failed to publish reminder: %w", err)
	}
	return len(items), nil
}
