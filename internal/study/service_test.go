package study

import (
	"context"
	"encoding/json"
	"errors"
	"math"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/studyplanner/internal/apperrors"
	"github.com/example/studyplanner/internal/database"
	"github.com/example/studyplanner/internal/events"
	"github.com/example/studyplanner/internal/logger"
	"github.com/example/studyplanner/pkg/models"
)

type capturePublisher struct {
	mu     sync.Mutex
	events []events.Event
}

func (c *capturePublisher) Publish(_ context.Context, ev events.Event) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.events = append(c.events, ev)
	return nil
}

func (c *capturePublisher) topics() []events.Topic {
	c.mu.Lock()
	defer c.mu.Unlock()
	var out []events.Topic
	for _, ev := range c.events {
		out = append(out, ev.Topic)
	}
	return out
}

func (c *capturePublisher) last() events.Event {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.events[len(c.events)-1]
}

type fixture struct {
	svc  *Service
	bus  *capturePublisher
	now  time.Time
	user *models.User
}

func newFixture(t *testing.T, autoFollowUp bool) *fixture {
	t.Helper()
	db, err := database.Connect("sqlite", filepath.Join(t.TempDir(), "study.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	f := &fixture{
		bus: &capturePublisher{},
		now: time.Date(2025, 6, 18, 10, 0, 0, 0, time.UTC),
	}
	repos := Repositories{
		Users:     database.NewUserRepository(db),
		Subjects:  database.NewSubjectRepository(db),
		Topics:    database.NewTopicRepository(db),
		Revisions: database.NewRevisionRepository(db),
		Stats:     database.NewStatisticsRepository(db),
		Notes:     database.NewNoteRepository(db),
	}
	f.svc = New(repos, f.bus, logger.Nop(), Config{
		EaseFloor:    1.3,
		AutoFollowUp: autoFollowUp,
		Now:          func() time.Time { return f.now },
	})

	f.user, err = f.svc.CreateUser(context.Background(), "student")
	require.NoError(t, err)
	return f
}

func (f *fixture) subject(t *testing.T, topics ...string) *models.Subject {
	t.Helper()
	cmd := CreateSubjectCommand{UserID: f.user.ID, Name: "Mathematics"}
	for _, name := range topics {
		cmd.Topics = append(cmd.Topics, CreateTopicCommand{Name: name})
	}
	subject, err := f.svc.CreateSubject(context.Background(), cmd)
	require.NoError(t, err)
	return subject
}

func (f *fixture) schedule(t *testing.T, subject *models.Subject, topicIdx int, at time.Time) *models.Revision {
	t.Helper()
	rev, err := f.svc.ScheduleRevision(context.Background(), ScheduleRevisionCommand{
		UserID:        f.user.ID,
		SubjectID:     subject.ID,
		TopicID:       subject.Topics[topicIdx].ID,
		ScheduledDate: at,
		Duration:      30,
	})
	require.NoError(t, err)
	return rev
}

func TestCreateSubjectDefaults(t *testing.T) {
	f := newFixture(t, true)
	subject := f.subject(t, "Algebra")

	assert.Equal(t, models.DefaultSubjectColor, subject.Color)
	require.Len(t, subject.Topics, 1)
	assert.Equal(t, models.DifficultyMedium, subject.Topics[0].Difficulty)
	assert.Equal(t, 2.5, subject.Topics[0].EaseFactor)
	assert.Equal(t, 1.0, subject.Topics[0].Interval)

	_, err := f.svc.CreateSubject(context.Background(), CreateSubjectCommand{UserID: f.user.ID, Name: "  "})
	assert.True(t, errors.Is(err, apperrors.ErrValidation))

	_, err = f.svc.CreateSubject(context.Background(), CreateSubjectCommand{
		UserID: f.user.ID,
		Name:   "Art",
		Topics: []CreateTopicCommand{{Name: "Color", Difficulty: "impossible"}},
	})
	assert.True(t, errors.Is(err, apperrors.ErrValidation))
}

func TestCompleteRevisionChainsSchedule(t *testing.T) {
	f := newFixture(t, true)
	ctx := context.Background()
	subject := f.subject(t, "Algebra")
	rev := f.schedule(t, subject, 0, f.now.Add(-time.Hour))
	assert.Equal(t, 2.5, rev.EaseFactor, "seeded from the topic")

	done, err := f.svc.CompleteRevision(ctx, CompleteRevisionCommand{UserID: f.user.ID, RevisionID: rev.ID, Rating: 100, Notes: "easy"})
	require.NoError(t, err)
	assert.Equal(t, models.StatusCompleted, done.Status)
	assert.InDelta(t, 2.6, done.EaseFactor, 1e-9)
	assert.InDelta(t, 2.6, done.Interval, 1e-9)
	assert.Equal(t, 1, done.Repetitions)
	require.NotNil(t, done.Performance)
	assert.Equal(t, 100, *done.Performance)
	assert.Equal(t, "easy", done.Notes)
	require.NotNil(t, done.NextRevision)
	assert.True(t, done.NextRevision.Equal(f.now.AddDate(0, 0, 3)))

	ev := f.bus.last()
	assert.Equal(t, events.TopicRevisionCompleted, ev.Topic)
	var payload events.RevisionCompleted
	require.NoError(t, ev.Decode(&payload))
	assert.Equal(t, rev.ID, payload.RevisionID)
	assert.NotZero(t, payload.FollowUpID)
	assert.False(t, payload.Mastered, "one repetition is not mastery")

	upcoming, err := f.svc.UpcomingRevisions(ctx, f.user.ID, 0)
	require.NoError(t, err)
	require.Len(t, upcoming, 1)
	assert.Equal(t, payload.FollowUpID, upcoming[0].ID)
	assert.InDelta(t, 2.6, upcoming[0].EaseFactor, 1e-9)
	assert.True(t, upcoming[0].ScheduledDate.Equal(f.now.AddDate(0, 0, 3)))

	got, err := f.svc.GetSubject(ctx, f.user.ID, subject.ID)
	require.NoError(t, err)
	assert.Equal(t, 30, got.StudyTime)
	assert.InDelta(t, 2.6, got.Topics[0].EaseFactor, 1e-9)

	// the follow-up continues from the new state
	f.now = f.now.AddDate(0, 0, 3)
	next, err := f.svc.CompleteRevision(ctx, CompleteRevisionCommand{UserID: f.user.ID, RevisionID: payload.FollowUpID, Rating: 60})
	require.NoError(t, err)
	assert.Equal(t, 2, next.Repetitions)
	assert.InDelta(t, 2.6-0.14, next.EaseFactor, 1e-9)
	assert.InDelta(t, 2.6*(2.6-0.14), next.Interval, 1e-9)
}

func TestCompleteRevisionWithoutFollowUp(t *testing.T) {
	f := newFixture(t, false)
	ctx := context.Background()
	subject := f.subject(t, "Algebra")
	rev := f.schedule(t, subject, 0, f.now)

	_, err := f.svc.CompleteRevision(ctx, CompleteRevisionCommand{UserID: f.user.ID, RevisionID: rev.ID, Rating: 80})
	require.NoError(t, err)

	upcoming, err := f.svc.UpcomingRevisions(ctx, f.user.ID, 0)
	require.NoError(t, err)
	assert.Empty(t, upcoming)
}

func TestChainedPerfectCompletionsStayBounded(t *testing.T) {
	f := newFixture(t, true)
	ctx := context.Background()
	subject := f.subject(t, "Algebra")
	revisionID := f.schedule(t, subject, 0, f.now.Add(-time.Hour)).ID

	var done *models.Revision
	for i := 0; i < 20; i++ {
		var err error
		done, err = f.svc.CompleteRevision(ctx, CompleteRevisionCommand{UserID: f.user.ID, RevisionID: revisionID, Rating: 100})
		require.NoError(t, err, "completion %d", i+1)

		require.NotNil(t, done.NextRevision)
		want := f.now.AddDate(0, 0, int(math.Ceil(done.Interval)))
		assert.True(t, done.NextRevision.Equal(want), "completion %d: next %v, want %v", i+1, done.NextRevision, want)
		_, err = json.Marshal(done)
		require.NoError(t, err, "completion %d", i+1)

		var payload events.RevisionCompleted
		require.NoError(t, f.bus.last().Decode(&payload))
		require.NotZero(t, payload.FollowUpID)
		revisionID = payload.FollowUpID
	}
	assert.Equal(t, 365.0, done.Interval)
	assert.Equal(t, 20, done.Repetitions)

	stored, err := f.svc.GetSubject(ctx, f.user.ID, subject.ID)
	require.NoError(t, err)
	_, err = json.Marshal(stored)
	assert.NoError(t, err)

	all, err := f.svc.ListRevisions(ctx, f.user.ID)
	require.NoError(t, err)
	assert.Len(t, all, 21)
	_, err = json.Marshal(all)
	assert.NoError(t, err)
}

func TestCompleteRevisionErrors(t *testing.T) {
	f := newFixture(t, true)
	ctx := context.Background()
	subject := f.subject(t, "Algebra")
	rev := f.schedule(t, subject, 0, f.now)

	t.Run("rating out of range", func(t *testing.T) {
		for _, rating := range []int{-1, 101} {
			_, err := f.svc.CompleteRevision(ctx, CompleteRevisionCommand{UserID: f.user.ID, RevisionID: rev.ID, Rating: rating})
			assert.True(t, errors.Is(err, apperrors.ErrValidation), "rating %d", rating)
		}
		got, err := f.svc.GetRevision(ctx, f.user.ID, rev.ID)
		require.NoError(t, err)
		assert.Equal(t, models.StatusScheduled, got.Status, "nothing written")
	})

	t.Run("unknown revision", func(t *testing.T) {
		_, err := f.svc.CompleteRevision(ctx, CompleteRevisionCommand{UserID: f.user.ID, RevisionID: 9999, Rating: 80})
		assert.True(t, errors.Is(err, apperrors.ErrNotFound))
	})

	t.Run("other user's revision", func(t *testing.T) {
		_, err := f.svc.CompleteRevision(ctx, CompleteRevisionCommand{UserID: f.user.ID + 1, RevisionID: rev.ID, Rating: 80})
		assert.True(t, errors.Is(err, apperrors.ErrNotFound))
	})

	t.Run("already completed", func(t *testing.T) {
		_, err := f.svc.CompleteRevision(ctx, CompleteRevisionCommand{UserID: f.user.ID, RevisionID: rev.ID, Rating: 80})
		require.NoError(t, err)
		_, err = f.svc.CompleteRevision(ctx, CompleteRevisionCommand{UserID: f.user.ID, RevisionID: rev.ID, Rating: 80})
		assert.True(t, errors.Is(err, apperrors.ErrConflict))
	})
}

func TestUpdateTopicProgress(t *testing.T) {
	f := newFixture(t, true)
	ctx := context.Background()
	subject := f.subject(t, "Algebra", "Geometry")

	got, err := f.svc.UpdateTopicProgress(ctx, UpdateProgressCommand{
		UserID: f.user.ID, SubjectID: subject.ID, TopicID: subject.Topics[0].ID, Progress: 85,
	})
	require.NoError(t, err)
	assert.Equal(t, 43, got.TotalProgress)
	topic := got.Topic(subject.Topics[0].ID)
	require.NotNil(t, topic)
	assert.Equal(t, 85, topic.Progress)
	assert.Equal(t, 1, topic.RevisionCount)
	require.NotNil(t, topic.NextRevision)
	assert.True(t, topic.NextRevision.Equal(f.now.AddDate(0, 0, 7)))
	assert.Equal(t, 2.5, topic.EaseFactor, "SM-2 state untouched")

	assert.Equal(t, events.TopicProgressUpdated, f.bus.last().Topic)

	reloaded, err := f.svc.GetSubject(ctx, f.user.ID, subject.ID)
	require.NoError(t, err)
	assert.Equal(t, 43, reloaded.TotalProgress)

	_, err = f.svc.UpdateTopicProgress(ctx, UpdateProgressCommand{
		UserID: f.user.ID, SubjectID: subject.ID, TopicID: subject.Topics[0].ID, Progress: 150,
	})
	assert.True(t, errors.Is(err, apperrors.ErrValidation))

	_, err = f.svc.UpdateTopicProgress(ctx, UpdateProgressCommand{
		UserID: f.user.ID, SubjectID: subject.ID, TopicID: 9999, Progress: 50,
	})
	assert.True(t, errors.Is(err, apperrors.ErrNotFound))

	_, err = f.svc.UpdateTopicProgress(ctx, UpdateProgressCommand{
		UserID: f.user.ID, SubjectID: 9999, TopicID: subject.Topics[0].ID, Progress: 50,
	})
	assert.True(t, errors.Is(err, apperrors.ErrNotFound))
}

func TestTopicLifecycleRefreshesTotal(t *testing.T) {
	f := newFixture(t, true)
	ctx := context.Background()
	subject := f.subject(t, "Algebra")

	_, err := f.svc.UpdateTopicProgress(ctx, UpdateProgressCommand{
		UserID: f.user.ID, SubjectID: subject.ID, TopicID: subject.Topics[0].ID, Progress: 80,
	})
	require.NoError(t, err)

	topic, err := f.svc.CreateTopic(ctx, CreateTopicCommand{UserID: f.user.ID, SubjectID: subject.ID, Name: "Calculus", Difficulty: models.DifficultyHard})
	require.NoError(t, err)
	got, err := f.svc.GetSubject(ctx, f.user.ID, subject.ID)
	require.NoError(t, err)
	assert.Equal(t, 40, got.TotalProgress)

	name := "Integral calculus"
	updated, err := f.svc.UpdateTopic(ctx, UpdateTopicCommand{UserID: f.user.ID, SubjectID: subject.ID, TopicID: topic.ID, Name: &name})
	require.NoError(t, err)
	assert.Equal(t, name, updated.Name)
	assert.Equal(t, models.DifficultyHard, updated.Difficulty)

	require.NoError(t, f.svc.DeleteTopic(ctx, f.user.ID, subject.ID, topic.ID))
	got, err = f.svc.GetSubject(ctx, f.user.ID, subject.ID)
	require.NoError(t, err)
	assert.Equal(t, 80, got.TotalProgress)
	assert.Len(t, got.Topics, 1)
}

func TestUpdateRevisionStatusRules(t *testing.T) {
	f := newFixture(t, true)
	ctx := context.Background()
	subject := f.subject(t, "Algebra")
	rev := f.schedule(t, subject, 0, f.now.Add(time.Hour))

	missed := models.StatusMissed
	got, err := f.svc.UpdateRevision(ctx, UpdateRevisionCommand{UserID: f.user.ID, RevisionID: rev.ID, Status: &missed})
	require.NoError(t, err)
	assert.Equal(t, models.StatusMissed, got.Status)

	completed := models.StatusCompleted
	_, err = f.svc.UpdateRevision(ctx, UpdateRevisionCommand{UserID: f.user.ID, RevisionID: rev.ID, Status: &completed})
	assert.True(t, errors.Is(err, apperrors.ErrValidation))

	zero := 0
	_, err = f.svc.UpdateRevision(ctx, UpdateRevisionCommand{UserID: f.user.ID, RevisionID: rev.ID, Duration: &zero})
	assert.True(t, errors.Is(err, apperrors.ErrValidation))

	notes := "moved"
	got, err = f.svc.UpdateRevision(ctx, UpdateRevisionCommand{UserID: f.user.ID, RevisionID: rev.ID, Notes: &notes})
	require.NoError(t, err)
	assert.Equal(t, "moved", got.Notes)
}

func TestScheduleRevisionValidation(t *testing.T) {
	f := newFixture(t, true)
	ctx := context.Background()
	subject := f.subject(t, "Algebra")

	_, err := f.svc.ScheduleRevision(ctx, ScheduleRevisionCommand{UserID: f.user.ID, SubjectID: subject.ID, TopicID: subject.Topics[0].ID, Duration: 30})
	assert.True(t, errors.Is(err, apperrors.ErrValidation), "missing date")

	_, err = f.svc.ScheduleRevision(ctx, ScheduleRevisionCommand{UserID: f.user.ID, SubjectID: subject.ID, TopicID: 9999, ScheduledDate: f.now, Duration: 30})
	assert.True(t, errors.Is(err, apperrors.ErrNotFound))

	rev := f.schedule(t, subject, 0, f.now)
	assert.Equal(t, models.PriorityMedium, rev.Priority)
	assert.Equal(t, "Mathematics", rev.SubjectName)
	assert.Equal(t, "Algebra", rev.TopicName)
	assert.Contains(t, f.bus.topics(), events.TopicRevisionScheduled)
}

func TestDueRevisionsOrder(t *testing.T) {
	f := newFixture(t, false)
	ctx := context.Background()
	subject := f.subject(t, "Algebra", "Geometry")

	easy := f.schedule(t, subject, 0, f.now.Add(-2*time.Hour))
	_, err := f.svc.CompleteRevision(ctx, CompleteRevisionCommand{UserID: f.user.ID, RevisionID: easy.ID, Rating: 0})
	require.NoError(t, err)

	// Algebra now has a lower ease factor than Geometry
	a := f.schedule(t, subject, 0, f.now.Add(-time.Hour))
	g := f.schedule(t, subject, 1, f.now.Add(-3*time.Hour))
	f.schedule(t, subject, 1, f.now.Add(time.Hour))

	due, err := f.svc.DueRevisions(ctx, f.user.ID, 0)
	require.NoError(t, err)
	require.Len(t, due, 2)
	assert.Equal(t, a.ID, due[0].ID)
	assert.Equal(t, g.ID, due[1].ID)
}

func TestEnsureTelegramUser(t *testing.T) {
	f := newFixture(t, true)
	ctx := context.Background()

	user, created, err := f.svc.EnsureTelegramUser(ctx, 777, "alex")
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, DefaultNotificationHour, user.NotificationHour)

	again, created, err := f.svc.EnsureTelegramUser(ctx, 777, "alex")
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, user.ID, again.ID)

	require.NoError(t, f.svc.SetNotificationHour(ctx, user.ID, 20, true))
	got, err := f.svc.GetUser(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, 20, got.NotificationHour)

	err = f.svc.SetNotificationHour(ctx, user.ID, 24, true)
	assert.True(t, errors.Is(err, apperrors.ErrValidation))
}

func TestAnalytics(t *testing.T) {
	f := newFixture(t, false)
	ctx := context.Background()
	subject := f.subject(t, "Algebra")

	// Completions on Monday and Tuesday of this week and today (Wednesday).
	for _, daysAgo := range []int{2, 1, 0} {
		f.now = time.Date(2025, 6, 18-daysAgo, 10, 0, 0, 0, time.UTC)
		rev := f.schedule(t, subject, 0, f.now.Add(-time.Minute))
		_, err := f.svc.CompleteRevision(ctx, CompleteRevisionCommand{UserID: f.user.ID, RevisionID: rev.ID, Rating: 80})
		require.NoError(t, err)
	}
	f.schedule(t, subject, 0, f.now.Add(24*time.Hour))

	ov, err := f.svc.Overview(ctx, f.user.ID)
	require.NoError(t, err)
	assert.Equal(t, models.Overview{TotalSubjects: 1, UpcomingRevisions: 1, CompletedToday: 1, Streak: 3}, *ov)

	week, err := f.svc.StudyTime(ctx, f.user.ID)
	require.NoError(t, err)
	require.Len(t, week, 7)
	assert.Equal(t, 0, week[0].Minutes)
	assert.Equal(t, 30, week[1].Minutes)
	assert.Equal(t, 30, week[2].Minutes)
	assert.Equal(t, 30, week[3].Minutes)

	perf, err := f.svc.Performance(ctx, f.user.ID)
	require.NoError(t, err)
	assert.Equal(t, 80, perf[1].Average)
	assert.Equal(t, 3, perf[1].Sessions)

	subjects, err := f.svc.SubjectProgress(ctx, f.user.ID)
	require.NoError(t, err)
	require.Len(t, subjects, 1)

	topics, err := f.svc.TopicProgress(ctx, f.user.ID)
	require.NoError(t, err)
	require.Len(t, topics, 1)
	assert.Equal(t, "Algebra", topics[0].Topic)
}

func TestNoteLifecycle(t *testing.T) {
	f := newFixture(t, true)
	ctx := context.Background()
	subject := f.subject(t, "Algebra", "Calculus")

	_, err := f.svc.CreateNote(ctx, CreateNoteCommand{UserID: f.user.ID, SubjectID: subject.ID, TopicID: subject.Topics[0].ID, Content: "   "})
	assert.True(t, errors.Is(err, apperrors.ErrValidation))

	_, err = f.svc.CreateNote(ctx, CreateNoteCommand{UserID: f.user.ID, SubjectID: subject.ID, TopicID: subject.Topics[0].ID + 100, Content: "lost"})
	assert.True(t, errors.Is(err, apperrors.ErrNotFound))

	_, err = f.svc.CreateNote(ctx, CreateNoteCommand{UserID: f.user.ID + 100, SubjectID: subject.ID, TopicID: subject.Topics[0].ID, Content: "not mine"})
	assert.True(t, errors.Is(err, apperrors.ErrNotFound))

	note, err := f.svc.CreateNote(ctx, CreateNoteCommand{
		UserID:    f.user.ID,
		SubjectID: subject.ID,
		TopicID:   subject.Topics[0].ID,
		Content:   "  quadratic formula  ",
		Tags:      []string{"exam", " Exam ", "", "formula"},
	})
	require.NoError(t, err)
	assert.Equal(t, "quadratic formula", note.Content)
	assert.Equal(t, models.Tags{"exam", "formula"}, note.Tags)
	assert.Equal(t, "Mathematics", note.SubjectName)
	assert.Equal(t, "Algebra", note.TopicName)

	other, err := f.svc.CreateNote(ctx, CreateNoteCommand{UserID: f.user.ID, SubjectID: subject.ID, TopicID: subject.Topics[1].ID, Content: "limits"})
	require.NoError(t, err)
	assert.NotNil(t, other.Tags)

	all, err := f.svc.ListNotes(ctx, f.user.ID)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	bySubject, err := f.svc.NotesBySubject(ctx, f.user.ID, subject.ID)
	require.NoError(t, err)
	assert.Len(t, bySubject, 2)

	_, err = f.svc.NotesBySubject(ctx, f.user.ID, subject.ID+100)
	assert.True(t, errors.Is(err, apperrors.ErrNotFound))

	byTopic, err := f.svc.NotesByTopic(ctx, f.user.ID, subject.Topics[1].ID)
	require.NoError(t, err)
	require.Len(t, byTopic, 1)
	assert.Equal(t, other.ID, byTopic[0].ID)

	empty := ""
	_, err = f.svc.UpdateNote(ctx, UpdateNoteCommand{UserID: f.user.ID, NoteID: note.ID, Content: &empty})
	assert.True(t, errors.Is(err, apperrors.ErrValidation))

	tags := []string{"review"}
	updated, err := f.svc.UpdateNote(ctx, UpdateNoteCommand{UserID: f.user.ID, NoteID: note.ID, Tags: &tags})
	require.NoError(t, err)
	assert.Equal(t, "quadratic formula", updated.Content)
	assert.Equal(t, models.Tags{"review"}, updated.Tags)
	assert.False(t, updated.LastEdited.Before(note.LastEdited))

	got, err := f.svc.GetNote(ctx, f.user.ID, note.ID)
	require.NoError(t, err)
	assert.Equal(t, models.Tags{"review"}, got.Tags)

	require.NoError(t, f.svc.DeleteNote(ctx, f.user.ID, note.ID))
	_, err = f.svc.GetNote(ctx, f.user.ID, note.ID)
	assert.True(t, errors.Is(err, apperrors.ErrNotFound))

	require.NoError(t, f.svc.DeleteTopic(ctx, f.user.ID, subject.ID, subject.Topics[1].ID))
	all, err = f.svc.ListNotes(ctx, f.user.ID)
	require.NoError(t, err)
	assert.Empty(t, all)
}
