package bot

import (
	"context"
	"sync"
	"testing"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/studyplanner/internal/apperrors"
	"github.com/example/studyplanner/internal/events"
	"github.com/example/studyplanner/internal/logger"
	"github.com/example/studyplanner/internal/study"
	"github.com/example/studyplanner/pkg/models"
)

type fakeAPI struct {
	mu       sync.Mutex
	sent     []tgbotapi.MessageConfig
	requests int
	updates  chan tgbotapi.Update
}

func (f *fakeAPI) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if msg, ok := c.(tgbotapi.MessageConfig); ok {
		f.sent = append(f.sent, msg)
	}
	return tgbotapi.Message{}, nil
}

func (f *fakeAPI) Request(tgbotapi.Chattable) (*tgbotapi.APIResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.requests++
	return &tgbotapi.APIResponse{Ok: true}, nil
}

func (f *fakeAPI) GetUpdatesChan(tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel {
	if f.updates != nil {
		return f.updates
	}
	return make(chan tgbotapi.Update)
}

func (f *fakeAPI) StopReceivingUpdates() {}

func (f *fakeAPI) messages() []tgbotapi.MessageConfig {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]tgbotapi.MessageConfig(nil), f.sent...)
}

type fakeService struct {
	user      models.User
	subjects  []models.Subject
	due       []models.Revision
	completed []study.CompleteRevisionCommand
	progress  []study.UpdateProgressCommand
	notify    [2]int
	completeE error
	// when set, Overview reports on entered and blocks until release is closed
	entered chan struct{}
	release chan struct{}
}

func (f *fakeService) EnsureTelegramUser(_ context.Context, telegramID int64, _ string) (*models.User, bool, error) {
	u := f.user
	u.TelegramID = &telegramID
	return &u, false, nil
}

func (f *fakeService) GetUser(_ context.Context, userID int64) (*models.User, error) {
	if userID != f.user.ID {
		return nil, apperrors.NotFound("user", userID)
	}
	u := f.user
	return &u, nil
}

func (f *fakeService) ListSubjects(context.Context, int64) ([]models.Subject, error) {
	return f.subjects, nil
}

func (f *fakeService) DueRevisions(context.Context, int64, int) ([]models.Revision, error) {
	return f.due, nil
}

func (f *fakeService) CompleteRevision(_ context.Context, cmd study.CompleteRevisionCommand) (*models.Revision, error) {
	f.completed = append(f.completed, cmd)
	if f.completeE != nil {
		return nil, f.completeE
	}
	next := time.Date(2025, 6, 21, 10, 0, 0, 0, time.UTC)
	rev := &models.Revision{ID: cmd.RevisionID, TopicName: "Algebra", Status: models.StatusCompleted}
	rev.EaseFactor = 2.6
	rev.NextRevision = &next
	return rev, nil
}

func (f *fakeService) UpdateTopicProgress(_ context.Context, cmd study.UpdateProgressCommand) (*models.Subject, error) {
	f.progress = append(f.progress, cmd)
	if cmd.Progress > 100 {
		return nil, apperrors.Validation("progress", "%d must be between 0 and 100", cmd.Progress)
	}
	next := time.Date(2025, 6, 25, 10, 0, 0, 0, time.UTC)
	return &models.Subject{
		ID:            cmd.SubjectID,
		Name:          "Math",
		TotalProgress: cmd.Progress,
		Topics:        []models.Topic{{ID: cmd.TopicID, Name: "Algebra", Progress: cmd.Progress, NextRevision: &next}},
	}, nil
}

func (f *fakeService) Overview(context.Context, int64) (*models.Overview, error) {
	if f.entered != nil {
		f.entered <- struct{}{}
		<-f.release
	}
	return &models.Overview{TotalSubjects: 2, UpcomingRevisions: 3, CompletedToday: 1, Streak: 4}, nil
}

func (f *fakeService) SetNotificationHour(_ context.Context, _ int64, hour int, enabled bool) error {
	if hour < 0 || hour > 23 {
		return apperrors.Validation("hour", "%d must be between 0 and 23", hour)
	}
	f.notify = [2]int{hour, boolInt(enabled)}
	return nil
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func newTestBot() (*Bot, *fakeAPI, *fakeService) {
	api := &fakeAPI{}
	svc := &fakeService{user: models.User{ID: 1, NotificationEnabled: true, NotificationHour: 9}}
	return New(api, svc, logger.Nop()), api, svc
}

func command(text string) *tgbotapi.Message {
	cmdLen := len(text)
	for i, r := range text {
		if r == ' ' {
			cmdLen = i
			break
		}
	}
	return &tgbotapi.Message{
		From:     &tgbotapi.User{ID: 100, UserName: "learner"},
		Chat:     &tgbotapi.Chat{ID: 100},
		Text:     text,
		Entities: []tgbotapi.MessageEntity{{Type: "bot_command", Offset: 0, Length: cmdLen}},
	}
}

func callback(data string) *tgbotapi.CallbackQuery {
	return &tgbotapi.CallbackQuery{
		ID:      "cb",
		From:    &tgbotapi.User{ID: 100},
		Message: &tgbotapi.Message{Chat: &tgbotapi.Chat{ID: 100}},
		Data:    data,
	}
}

func TestParseRateCallback(t *testing.T) {
	id, rating, err := parseRateCallback("rate:42:80")
	require.NoError(t, err)
	assert.Equal(t, int64(42), id)
	assert.Equal(t, 80, rating)

	for _, bad := range []string{"rate:", "rate:42", "rate:x:80", "rate:42:y", "rate:0:80", "done:42:80", "rate:1:2:3"} {
		_, _, err := parseRateCallback(bad)
		assert.Error(t, err, bad)
	}
}

func TestRatingKeyboard(t *testing.T) {
	kb := ratingKeyboard(7)
	require.Len(t, kb.InlineKeyboard, 1)
	row := kb.InlineKeyboard[0]
	require.Len(t, row, 5)
	assert.Equal(t, "1", row[0].Text)
	require.NotNil(t, row[0].CallbackData)
	assert.Equal(t, "rate:7:20", *row[0].CallbackData)
	assert.Equal(t, "rate:7:100", *row[4].CallbackData)
}

func TestDueCommandSendsRatingKeyboards(t *testing.T) {
	b, api, svc := newTestBot()
	svc.due = []models.Revision{
		{ID: 3, SubjectName: "Math", TopicName: "Algebra", Duration: 30},
		{ID: 4, SubjectName: "Math", TopicName: "Geometry", Duration: 20},
	}

	require.NoError(t, b.HandleCommand(context.Background(), command("/due")))
	msgs := api.messages()
	require.Len(t, msgs, 2)
	assert.Contains(t, msgs[0].Text, "Math / Algebra")
	kb, ok := msgs[1].ReplyMarkup.(tgbotapi.InlineKeyboardMarkup)
	require.True(t, ok)
	assert.Equal(t, "rate:4:60", *kb.InlineKeyboard[0][2].CallbackData)
}

func TestDueCommandWithNothingDue(t *testing.T) {
	b, api, _ := newTestBot()
	require.NoError(t, b.HandleCommand(context.Background(), command("/due")))
	require.Len(t, api.messages(), 1)
	assert.Contains(t, api.messages()[0].Text, "Nothing is due")
}

func TestRateCallbackCompletesRevision(t *testing.T) {
	b, api, svc := newTestBot()

	require.NoError(t, b.HandleCallback(context.Background(), callback("rate:9:80")))
	require.Len(t, svc.completed, 1)
	assert.Equal(t, study.CompleteRevisionCommand{UserID: 1, RevisionID: 9, Rating: 80}, svc.completed[0])
	assert.Equal(t, 1, api.requests, "callback answered")
	assert.Contains(t, api.messages()[0].Text, "21.06.2025")
}

func TestRateCallbackAlreadyCompleted(t *testing.T) {
	b, api, svc := newTestBot()
	svc.completeE = apperrors.Conflict("revision", 9, "already completed")

	require.NoError(t, b.HandleCallback(context.Background(), callback("rate:9:80")))
	assert.Contains(t, api.messages()[0].Text, "already completed")
}

func TestProgressCommand(t *testing.T) {
	b, api, svc := newTestBot()

	require.NoError(t, b.HandleCommand(context.Background(), command("/progress 1 2 85")))
	require.Len(t, svc.progress, 1)
	assert.Equal(t, study.UpdateProgressCommand{UserID: 1, SubjectID: 1, TopicID: 2, Progress: 85}, svc.progress[0])
	assert.Contains(t, api.messages()[0].Text, "Math / Algebra set to 85%")

	require.NoError(t, b.HandleCommand(context.Background(), command("/progress 1 2")))
	assert.Contains(t, api.messages()[1].Text, "Usage")

	require.NoError(t, b.HandleCommand(context.Background(), command("/progress 1 2 150")))
	assert.Contains(t, api.messages()[2].Text, "between 0 and 100")
}

func TestNotifyCommand(t *testing.T) {
	b, api, svc := newTestBot()
	ctx := context.Background()

	require.NoError(t, b.HandleCommand(ctx, command("/notify 20")))
	assert.Equal(t, [2]int{20, 1}, svc.notify)

	require.NoError(t, b.HandleCommand(ctx, command("/notify off")))
	assert.Equal(t, [2]int{9, 0}, svc.notify)

	require.NoError(t, b.HandleCommand(ctx, command("/notify 30")))
	msgs := api.messages()
	assert.Contains(t, msgs[len(msgs)-1].Text, "between 0 and 23")
}

func TestStatsAndStreak(t *testing.T) {
	b, api, _ := newTestBot()
	ctx := context.Background()

	require.NoError(t, b.HandleCommand(ctx, command("/stats")))
	require.NoError(t, b.HandleCallback(ctx, callback(callbackStreak)))
	msgs := api.messages()
	require.Len(t, msgs, 2)
	assert.Contains(t, msgs[0].Text, "Upcoming revisions: 3")
	assert.Contains(t, msgs[1].Text, "4 day streak")
}

func TestUnknownCommandAndCallback(t *testing.T) {
	b, api, _ := newTestBot()
	ctx := context.Background()

	require.NoError(t, b.HandleCommand(ctx, command("/dance")))
	require.NoError(t, b.HandleCallback(ctx, callback("dance")))
	msgs := api.messages()
	require.Len(t, msgs, 2)
	assert.Contains(t, msgs[0].Text, "Unknown command")
	assert.Contains(t, msgs[1].Text, "Unknown action")
}

func TestForwardRevisionDueEvent(t *testing.T) {
	b, api, _ := newTestBot()
	tg := int64(555)
	ev, err := events.New(events.TopicRevisionDue, 1, time.Now(), events.RevisionDue{
		TelegramID: &tg,
		Items:      []events.DueItem{{Subject: "Math", Topic: "Algebra"}, {Topic: "Geometry"}},
	})
	require.NoError(t, err)

	b.handleEvent(context.Background(), ev)
	msgs := api.messages()
	require.Len(t, msgs, 1)
	assert.Equal(t, int64(555), msgs[0].ChatID)
	assert.Contains(t, msgs[0].Text, "2 item(s)")
	assert.Contains(t, msgs[0].Text, "Math / Algebra")
}

func TestForwardProgressEventResolvesChat(t *testing.T) {
	b, api, svc := newTestBot()
	tg := int64(777)
	svc.user.TelegramID = &tg

	ev, err := events.New(events.TopicProgressUpdated, 1, time.Now(), events.ProgressUpdated{Subject: "Math", Topic: "Algebra", Progress: 60})
	require.NoError(t, err)
	b.handleEvent(context.Background(), ev)

	// users without Telegram are skipped
	other, err := events.New(events.TopicProgressUpdated, 2, time.Now(), events.ProgressUpdated{})
	require.NoError(t, err)
	b.handleEvent(context.Background(), other)

	msgs := api.messages()
	require.Len(t, msgs, 1)
	assert.Equal(t, int64(777), msgs[0].ChatID)
	assert.Contains(t, msgs[0].Text, "60%")
}

func TestForwardEventsThroughBus(t *testing.T) {
	b, api, _ := newTestBot()
	bus := events.NewMemoryBus(logger.Nop())
	defer bus.Close()
	ctx := context.Background()
	require.NoError(t, b.ForwardEvents(ctx, bus))

	tg := int64(1)
	ev, err := events.New(events.TopicRevisionDue, 1, time.Now(), events.RevisionDue{TelegramID: &tg, Items: []events.DueItem{{Topic: "X"}}})
	require.NoError(t, err)
	require.NoError(t, bus.Publish(ctx, ev))

	require.Eventually(t, func() bool { return len(api.messages()) == 1 }, time.Second, 5*time.Millisecond)
}

func TestRunWaitsForInFlightUpdates(t *testing.T) {
	b, api, svc := newTestBot()
	api.updates = make(chan tgbotapi.Update)
	svc.entered = make(chan struct{})
	svc.release = make(chan struct{})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- b.Run(ctx) }()

	api.updates <- tgbotapi.Update{UpdateID: 1, Message: command("/stats")}
	<-svc.entered
	cancel()

	select {
	case <-done:
		t.Fatal("Run returned while an update was still being handled")
	case <-time.After(50 * time.Millisecond):
	}

	close(svc.release)
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("Run did not return after the handler finished")
	}
	msgs := api.messages()
	require.Len(t, msgs, 1)
	assert.Contains(t, msgs[0].Text, "Streak: 4")
}
