package models

import "time"

// User owns subjects and revisions. TelegramID is set for users that talk to the bot.
type User struct {
	ID                  int64     `json:"id" db:"id"`
	TelegramID          *int64    `json:"telegram_id,omitempty" db:"telegram_id"`
	Username            string    `json:"username" db:"username"`
	NotificationEnabled bool      `json:"notification_enabled" db:"notification_enabled"`
	NotificationHour    int       `json:"notification_hour" db:"notification_hour"` // Hour of day for reminders (0-23)
	CreatedAt           time.Time `json:"created_at" db:"created_at"`
	UpdatedAt           time.Time `json:"updated_at" db:"updated_at"`
}
