package study

import (
	"context"
	"errors"
	"strings"

	"github.com/example/studyplanner/internal/apperrors"
	"github.com/example/studyplanner/pkg/models"
)

// DefaultNotificationHour is the reminder hour of new users.
const DefaultNotificationHour = 9

// CreateUser registers a user that is not linked to Telegram.
func (s *Service) CreateUser(ctx context.Context, username string) (*models.User, error) {
	username, err := requireName("username", username)
	if err != nil {
		return nil, err
	}
	user := &models.User{
		Username:            username,
		NotificationEnabled: true,
		NotificationHour:    DefaultNotificationHour,
	}
	if err := s.repos.Users.Create(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// GetUser returns a user by id.
func (s *Service) GetUser(ctx context.Context, userID int64) (*models.User, error) {
	return s.repos.Users.GetByID(ctx, userID)
}

// EnsureTelegramUser returns the user linked to telegramID, creating it on first
// contact. created reports whether a new user was made.
func (s *Service) EnsureTelegramUser(ctx context.Context, telegramID int64, username string) (*models.User, bool, error) {
	user, err := s.repos.Users.GetByTelegramID(ctx, telegramID)
	if err == nil {
		return user, false, nil
	}
	if !errors.Is(err, apperrors.ErrNotFound) {
		return nil, false, err
	}

	tg := telegramID
	user = &models.User{
		TelegramID:          &tg,
		Username:            strings.TrimSpace(username),
		NotificationEnabled: true,
		NotificationHour:    DefaultNotificationHour,
	}
	if err := s.repos.Users.Create(ctx, user); err != nil {
		return nil, false, err
	}
	s.log.Info("registered telegram user", "user_id", user.ID, "telegram_id", telegramID)
	return user, true, nil
}

// SetNotificationHour enables reminders at hour (0-23), or disables them.
func (s *Service) SetNotificationHour(ctx context.Context, userID int64, hour int, enabled bool) error {
	if hour < 0 || hour > 23 {
		return apperrors.Validation("hour", "%d must be between 0 and 23", hour)
	}
	return s.repos.Users.UpdateNotifications(ctx, userID, enabled, hour)
}
