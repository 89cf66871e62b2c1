package database

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/example/studyplanner/pkg/models"
)

const userColumns = `id, telegram_id, username, notification_enabled, notification_hour, created_at, updated_at`

// UserRepository handles database operations for users
type UserRepository struct {
	db *sqlx.DB
}

// NewUserRepository creates a new repository instance
func NewUserRepository(db *sqlx.DB) *UserRepository {
	return &UserRepository{db: db}
}

// Create inserts a new user
func (r *UserRepository) Create(ctx context.Context, user *models.User) error {
	now := utc(time.Now())
	query := r.db.Rebind(`
		INSERT INTO users (telegram_id, username, notification_enabled, notification_hour, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		RETURNING id
	`)
	err := r.db.QueryRowxContext(ctx, query,
		user.TelegramID,
		user.Username,
		user.NotificationEnabled,
		user.NotificationHour,
		now,
		now,
	).Scan(&user.ID)
	if err != nil {
		return fmt.Errorf("failed to create user: %w", err)
	}
	user.CreatedAt = now
	user.UpdatedAt = now
	return nil
}

// GetByID returns a user by ID
func (r *UserRepository) GetByID(ctx context.Context, id int64) (*models.User, error) {
	var user models.User
	err := r.db.GetContext(ctx, &user, r.db.Rebind(`SELECT `+userColumns+` FROM users WHERE id = ?`), id)
	if err != nil {
		return nil, notFound(err, "user", id)
	}
	return &user, nil
}

// GetByTelegramID returns the user linked to a Telegram account
func (r *UserRepository) GetByTelegramID(ctx context.Context, telegramID int64) (*models.User, error) {
	var user models.User
	err := r.db.GetContext(ctx, &user, r.db.Rebind(`SELECT `+userColumns+` FROM users WHERE telegram_id = ?`), telegramID)
	if err != nil {
		return nil, notFound(err, "user", telegramID)
	}
	return &user, nil
}

// UpdateNotifications changes the reminder preferences of a user
func (r *UserRepository) UpdateNotifications(ctx context.Context, userID int64, enabled bool, hour int) error {
	res, err := r.db.ExecContext(ctx, r.db.Rebind(`
		UPDATE users SET notification_enabled = ?, notification_hour = ?, updated_at = ?
		WHERE id = ?
	`), enabled, hour, utc(time.Now()), userID)
	if err != nil {
		return fmt.Errorf("failed to update notifications: %w", err)
	}
	return checkAffected(res, "user", userID)
}

// GetUsersForNotification returns users whose reminder hour is the given hour
func (r *UserRepository) GetUsersForNotification(ctx context.Context, hour int) ([]models.User, error) {
	var users []models.User
	err := r.db.SelectContext(ctx, &users, r.db.Rebind(`
		SELECT `+userColumns+` FROM users
		WHERE notification_enabled = ? AND notification_hour = ?
		ORDER BY id
	`), true, hour)
	if err != nil {
		return nil, fmt.Errorf("failed to get users for notification: %w", err)
	}
	return users, nil
}
