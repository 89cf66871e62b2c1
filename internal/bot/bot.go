package bot

import (
	"context"
	"errors"
	"fmt"
	"sync"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/example/studyplanner/internal/apperrors"
	"github.com/example/studyplanner/internal/events"
	"github.com/example/studyplanner/internal/logger"
	"github.com/example/studyplanner/internal/study"
	"github.com/example/studyplanner/pkg/models"
)

// API is the part of tgbotapi.BotAPI the bot uses.
type API interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
	GetUpdatesChan(config tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel
	StopReceivingUpdates()
}

// Service is the study functionality reachable from chat.
type Service interface {
	EnsureTelegramUser(ctx context.Context, telegramID int64, username string) (*models.User, bool, error)
	GetUser(ctx context.Context, userID int64) (*models.User, error)
	ListSubjects(ctx context.Context, userID int64) ([]models.Subject, error)
	DueRevisions(ctx context.Context, userID int64, limit int) ([]models.Revision, error)
	CompleteRevision(ctx context.Context, cmd study.CompleteRevisionCommand) (*models.Revision, error)
	UpdateTopicProgress(ctx context.Context, cmd study.UpdateProgressCommand) (*models.Subject, error)
	Overview(ctx context.Context, userID int64) (*models.Overview, error)
	SetNotificationHour(ctx context.Context, userID int64, hour int, enabled bool) error
}

// MenuButton represents a button in the menu
type MenuButton struct {
	Text         string
	CallbackData string
}

// createKeyboard creates a keyboard from menu buttons
func createKeyboard(buttons [][]MenuButton) tgbotapi.InlineKeyboardMarkup {
	var keyboard [][]tgbotapi.InlineKeyboardButton
	for _, row := range buttons {
		var keyboardRow []tgbotapi.InlineKeyboardButton
		for _, button := range row {
			keyboardRow = append(keyboardRow, tgbotapi.NewInlineKeyboardButtonData(button.Text, button.CallbackData))
		}
		keyboard = append(keyboard, keyboardRow)
	}
	return tgbotapi.NewInlineKeyboardMarkup(keyboard...)
}

// Bot represents the Telegram bot application
type Bot struct {
	api API
	svc Service
	log *logger.Logger
	// in-flight update handlers
	wg sync.WaitGroup
}

// New creates a bot on top of an authorized API client.
func New(api API, svc Service, log *logger.Logger) *Bot {
	return &Bot{api: api, svc: svc, log: log.With("service", "TelegramBot")}
}

// Connect authorizes token against Telegram and returns the client.
func Connect(token string) (*tgbotapi.BotAPI, error) {
	if token == "" {
		return nil, fmt.Errorf("TELEGRAM_BOT_TOKEN is not set")
	}
	botAPI, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("unable to create bot: %w", err)
	}
	return botAPI, nil
}

// Run receives updates until ctx is cancelled. It returns once every update
// handler it started has finished.
func (b *Bot) Run(ctx context.Context) error {
	updateConfig := tgbotapi.NewUpdate(0)
	updateConfig.Timeout = 60

	updates := b.api.GetUpdatesChan(updateConfig)
	b.log.Info("bot started")
	defer b.wg.Wait()
	for {
		select {
		case <-ctx.Done():
			b.api.StopReceivingUpdates()
			b.log.Info("bot stopped")
			return nil
		case update, ok := <-updates:
			if !ok {
				return nil
			}
			b.wg.Add(1)
			go func() {
				defer b.wg.Done()
				b.HandleUpdate(ctx, update)
			}()
		}
	}
}

// ForwardEvents subscribes to the bus and sends reminders and progress changes
// to the owners' chats.
func (b *Bot) ForwardEvents(ctx context.Context, bus events.Bus) error {
	return bus.Subscribe(ctx, b.handleEvent)
}

// HandleUpdate handles one incoming update from Telegram
func (b *Bot) HandleUpdate(ctx context.Context, update tgbotapi.Update) {
	var err error
	switch {
	case update.CallbackQuery != nil:
		err = b.HandleCallback(ctx, update.CallbackQuery)
	case update.Message != nil && update.Message.IsCommand():
		err = b.HandleCommand(ctx, update.Message)
	case update.Message != nil:
		err = b.reply(update.Message.Chat.ID, "I don't understand. Use /help to see the commands.")
	}
	if err != nil {
		b.log.Error("failed to handle update", "update_id", update.UpdateID, "error", err)
	}
}

func (b *Bot) handleEvent(ctx context.Context, ev events.Event) {
	var (
		chatID *int64
		text   string
	)
	switch ev.Topic {
	case events.TopicRevisionDue:
		var p events.RevisionDue
		if err := ev.Decode(&p); err != nil {
			b.log.Warn("bad revision-due payload", "event_id", ev.ID, "error", err)
			return
		}
		chatID = p.TelegramID
		text = formatDue(p)
	case events.TopicProgressUpdated:
		var p events.ProgressUpdated
		if err := ev.Decode(&p); err != nil {
			b.log.Warn("bad progress-updated payload", "event_id", ev.ID, "error", err)
			return
		}
		text = fmt.Sprintf("📈 %s / %s is now at %d%% (subject %d%%). Next revision on %s.",
			p.Subject, p.Topic, p.Progress, p.TotalProgress, p.NextRevision.Format("02.01.2006"))
	default:
		return
	}

	if chatID == nil {
		user, err := b.svc.GetUser(ctx, ev.UserID)
		if err != nil {
			b.log.Warn("cannot resolve chat for event", "user_id", ev.UserID, "error", err)
			return
		}
		chatID = user.TelegramID
	}
	if chatID == nil {
		return
	}
	if err := b.reply(*chatID, text); err != nil {
		b.log.Error("failed to forward event", "topic", ev.Topic, "user_id", ev.UserID, "error", err)
	}
}

func (b *Bot) sendMessage(msg tgbotapi.MessageConfig) error {
	_, err := b.api.Send(msg)
	return err
}

func (b *Bot) reply(chatID int64, text string) error {
	return b.sendMessage(tgbotapi.NewMessage(chatID, text))
}

// userMessage turns a service error into something to show in chat.
func userMessage(err error) string {
	var verr *apperrors.ValidationError
	switch {
	case errors.As(err, &verr):
		return "⚠️ " + verr.Error()
	case errors.Is(err, apperrors.ErrNotFound):
		return "🔍 Not found. Check the IDs with /subjects or /due."
	case errors.Is(err, apperrors.ErrConflict):
		return "✅ This revision was already completed."
	default:
		return "❌ Something went wrong. Please try again later."
	}
}
