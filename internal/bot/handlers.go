package bot

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/example/studyplanner/internal/events"
	"github.com/example/studyplanner/internal/study"
	"github.com/example/studyplanner/pkg/models"
)

// Constants for callback data
const (
	callbackSubjects = "subjects"
	callbackDue      = "due"
	callbackStats    = "stats"
	callbackStreak   = "streak"
	callbackHelp     = "help"

	ratePrefix = "rate:"
	dueLimit   = 5
)

// Ratings offered on the rating keyboard
var ratings = []int{20, 40, 60, 80, 100}

// HandleCommand handles bot commands
func (b *Bot) HandleCommand(ctx context.Context, message *tgbotapi.Message) error {
	if message == nil || message.From == nil || message.Chat == nil {
		return fmt.Errorf("invalid message: required fields are missing")
	}
	chatID := message.Chat.ID

	user, created, err := b.svc.EnsureTelegramUser(ctx, message.From.ID, message.From.UserName)
	if err != nil {
		return fmt.Errorf("failed to get user: %w", err)
	}

	switch message.Command() {
	case "start":
		return b.handleStart(chatID, created)
	case "help":
		return b.handleHelp(chatID)
	case "subjects":
		return b.handleSubjects(ctx, chatID, user)
	case "due":
		return b.handleDue(ctx, chatID, user)
	case "progress":
		return b.handleProgress(ctx, chatID, user, message.CommandArguments())
	case "stats":
		return b.handleStats(ctx, chatID, user)
	case "streak":
		return b.handleStreak(ctx, chatID, user)
	case "notify":
		return b.handleNotify(ctx, chatID, user, message.CommandArguments())
	default:
		return b.reply(chatID, "Unknown command. Use /help to see the commands.")
	}
}

// MainMenuButtons returns the main menu layout
func (b *Bot) MainMenuButtons() [][]MenuButton {
	return [][]MenuButton{
		{{Text: "📚 Subjects", CallbackData: callbackSubjects}, {Text: "⏰ Due now", CallbackData: callbackDue}},
		{{Text: "📊 Stats", CallbackData: callbackStats}, {Text: "🔥 Streak", CallbackData: callbackStreak}},
		{{Text: "❓ Help", CallbackData: callbackHelp}},
	}
}

func (b *Bot) handleStart(chatID int64, created bool) error {
	text := "👋 Welcome back to Study Planner!"
	if created {
		text = "👋 Welcome to Study Planner!\n\n" +
			"I schedule your revisions with spaced repetition.\n\n" +
			"🔹 How it works:\n" +
			"1. Add subjects and topics in the web app\n" +
			"2. Get reminded when revisions are due\n" +
			"3. Rate how well you remembered\n" +
			"4. Watch your progress and streak grow"
	}
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ReplyMarkup = createKeyboard(b.MainMenuButtons())
	return b.sendMessage(msg)
}

func (b *Bot) handleHelp(chatID int64) error {
	text := "📖 Commands\n\n" +
		"/start - Register and show the menu\n" +
		"/subjects - List subjects and topics with their IDs\n" +
		"/due - Show due revisions and rate them\n" +
		"/progress <subjectID> <topicID> <0-100> - Set topic progress\n" +
		"/stats - Show your overview\n" +
		"/streak - Show your study streak\n" +
		"/notify <hour|on|off> - Set the reminder hour (0-23) or switch reminders\n" +
		"/help - Show this help"
	return b.reply(chatID, text)
}

func (b *Bot) handleSubjects(ctx context.Context, chatID int64, user *models.User) error {
	subjects, err := b.svc.ListSubjects(ctx, user.ID)
	if err != nil {
		return fmt.Errorf("failed to list subjects: %w", err)
	}
	if len(subjects) == 0 {
		return b.reply(chatID, "You have no subjects yet.")
	}

	var text strings.Builder
	text.WriteString("📚 Your subjects\n")
	for _, s := range subjects {
		fmt.Fprintf(&text, "\n[%d] %s - %d%%\n", s.ID, s.Name, s.TotalProgress)
		for _, t := range s.Topics {
			fmt.Fprintf(&text, "   [%d] %s (%s) - %d%%\n", t.ID, t.Name, t.Difficulty, t.Progress)
		}
	}
	return b.reply(chatID, text.String())
}

func (b *Bot) handleDue(ctx context.Context, chatID int64, user *models.User) error {
	due, err := b.svc.DueRevisions(ctx, user.ID, dueLimit)
	if err != nil {
		return fmt.Errorf("failed to get due revisions: %w", err)
	}
	if len(due) == 0 {
		return b.reply(chatID, "🎉 Nothing is due right now.")
	}

	for _, r := range due {
		text := fmt.Sprintf("⏰ %s / %s\nScheduled for %s, %d min.\nHow well did you remember it?",
			r.SubjectName, r.TopicName, r.ScheduledDate.Format("02.01.2006 15:04"), r.Duration)
		msg := tgbotapi.NewMessage(chatID, text)
		msg.ReplyMarkup = ratingKeyboard(r.ID)
		if err := b.sendMessage(msg); err != nil {
			return err
		}
	}
	return nil
}

func ratingKeyboard(revisionID int64) tgbotapi.InlineKeyboardMarkup {
	row := make([]MenuButton, 0, len(ratings))
	for i, rating := range ratings {
		row = append(row, MenuButton{
			Text:         strconv.Itoa(i + 1),
			CallbackData: fmt.Sprintf("%s%d:%d", ratePrefix, revisionID, rating),
		})
	}
	return createKeyboard([][]MenuButton{row})
}

// parseRateCallback reads "rate:<revisionID>:<rating>".
func parseRateCallback(data string) (int64, int, error) {
	parts := strings.Split(strings.TrimPrefix(data, ratePrefix), ":")
	if !strings.HasPrefix(data, ratePrefix) || len(parts) != 2 {
		return 0, 0, fmt.Errorf("malformed rating callback %q", data)
	}
	id, err := strconv.ParseInt(parts[0], 10, 64)
	if err != nil || id <= 0 {
		return 0, 0, fmt.Errorf("invalid revision ID in callback %q", data)
	}
	rating, err := strconv.Atoi(parts[1])
	if err != nil {
		return 0, 0, fmt.Errorf("invalid rating in callback %q", data)
	}
	return id, rating, nil
}

func (b *Bot) handleProgress(ctx context.Context, chatID int64, user *models.User, args string) error {
	usage := "Usage: /progress <subjectID> <topicID> <0-100>"
	fields := strings.Fields(args)
	if len(fields) != 3 {
		return b.reply(chatID, usage)
	}
	var nums [3]int64
	for i, f := range fields {
		n, err := strconv.ParseInt(f, 10, 64)
		if err != nil {
			return b.reply(chatID, usage)
		}
		nums[i] = n
	}

	subject, err := b.svc.UpdateTopicProgress(ctx, study.UpdateProgressCommand{
		UserID:    user.ID,
		SubjectID: nums[0],
		TopicID:   nums[1],
		Progress:  int(nums[2]),
	})
	if err != nil {
		b.log.Warn("progress update rejected", "user_id", user.ID, "error", err)
		return b.reply(chatID, userMessage(err))
	}

	topic := subject.Topic(nums[1])
	text := fmt.Sprintf("✅ %s / %s set to %d%%. Subject progress: %d%%.",
		subject.Name, topic.Name, topic.Progress, subject.TotalProgress)
	if topic.NextRevision != nil {
		text += "\nNext revision on " + topic.NextRevision.Format("02.01.2006") + "."
	}
	return b.reply(chatID, text)
}

func (b *Bot) handleStats(ctx context.Context, chatID int64, user *models.User) error {
	ov, err := b.svc.Overview(ctx, user.ID)
	if err != nil {
		return fmt.Errorf("failed to get statistics: %w", err)
	}
	text := fmt.Sprintf("📊 Your statistics\n\n"+
		"Subjects: %d\n"+
		"Upcoming revisions: %d\n"+
		"Completed today: %d\n"+
		"Streak: %d day(s)",
		ov.TotalSubjects, ov.UpcomingRevisions, ov.CompletedToday, ov.Streak)
	return b.reply(chatID, text)
}

func (b *Bot) handleStreak(ctx context.Context, chatID int64, user *models.User) error {
	ov, err := b.svc.Overview(ctx, user.ID)
	if err != nil {
		return fmt.Errorf("failed to get streak: %w", err)
	}
	if ov.Streak == 0 {
		return b.reply(chatID, "No streak yet. Complete a revision today to start one!")
	}
	return b.reply(chatID, fmt.Sprintf("🔥 %d day streak. Keep going!", ov.Streak))
}

func (b *Bot) handleNotify(ctx context.Context, chatID int64, user *models.User, args string) error {
	args = strings.ToLower(strings.TrimSpace(args))
	if args == "" {
		return b.reply(chatID, fmt.Sprintf("Reminders are %s at %d:00.\nUsage: /notify <hour|on|off>",
			enabledString(user.NotificationEnabled), user.NotificationHour))
	}

	enabled, hour := user.NotificationEnabled, user.NotificationHour
	switch args {
	case "on":
		enabled = true
	case "off":
		enabled = false
	default:
		h, err := strconv.Atoi(args)
		if err != nil {
			return b.reply(chatID, "Please give an hour between 0 and 23, or on/off.")
		}
		enabled, hour = true, h
	}

	if err := b.svc.SetNotificationHour(ctx, user.ID, hour, enabled); err != nil {
		return b.reply(chatID, userMessage(err))
	}
	if !enabled {
		return b.reply(chatID, "🔕 Reminders switched off.")
	}
	return b.reply(chatID, fmt.Sprintf("🔔 Reminders at %d:00.", hour))
}

// enabledString converts a boolean to a human-readable enabled/disabled string
func enabledString(enabled bool) string {
	if enabled {
		return "on"
	}
	return "off"
}

// HandleCallback handles callback queries from buttons
func (b *Bot) HandleCallback(ctx context.Context, callback *tgbotapi.CallbackQuery) error {
	if callback == nil || callback.Message == nil || callback.Message.Chat == nil || callback.From == nil {
		return fmt.Errorf("invalid callback data: required fields are missing")
	}

	// Always send an answer to the callback query to remove the loading state
	if _, err := b.api.Request(tgbotapi.NewCallback(callback.ID, "")); err != nil {
		b.log.Warn("failed to answer callback", "error", err)
	}

	chatID := callback.Message.Chat.ID
	user, _, err := b.svc.EnsureTelegramUser(ctx, callback.From.ID, callback.From.UserName)
	if err != nil {
		return fmt.Errorf("failed to get user: %w", err)
	}

	switch callback.Data {
	case callbackSubjects:
		return b.handleSubjects(ctx, chatID, user)
	case callbackDue:
		return b.handleDue(ctx, chatID, user)
	case callbackStats:
		return b.handleStats(ctx, chatID, user)
	case callbackStreak:
		return b.handleStreak(ctx, chatID, user)
	case callbackHelp:
		return b.handleHelp(chatID)
	}

	if strings.HasPrefix(callback.Data, ratePrefix) {
		return b.handleRate(ctx, chatID, user, callback.Data)
	}
	return b.reply(chatID, "⚠️ Unknown action")
}

func (b *Bot) handleRate(ctx context.Context, chatID int64, user *models.User, data string) error {
	revisionID, rating, err := parseRateCallback(data)
	if err != nil {
		b.log.Warn("bad rating callback", "data", data, "error", err)
		return b.reply(chatID, "⚠️ Unknown action")
	}

	rev, err := b.svc.CompleteRevision(ctx, study.CompleteRevisionCommand{
		UserID:     user.ID,
		RevisionID: revisionID,
		Rating:     rating,
	})
	if err != nil {
		return b.reply(chatID, userMessage(err))
	}

	text := fmt.Sprintf("✅ %s done. Next revision on %s (ease %.2f).",
		rev.TopicName, rev.NextRevision.Format("02.01.2006"), rev.EaseFactor)
	return b.reply(chatID, text)
}

func formatDue(p events.RevisionDue) string {
	var text strings.Builder
	fmt.Fprintf(&text, "⏰ You have %d item(s) to revise:\n", len(p.Items))
	for _, it := range p.Items {
		if it.Subject != "" {
			fmt.Fprintf(&text, "• %s / %s\n", it.Subject, it.Topic)
		} else {
			fmt.Fprintf(&text, "• %s\n", it.Topic)
		}
	}
	text.WriteString("\nUse /due to rate them.")
	return text.String()
}
