package config

import (
	"errors"
	"fmt"
	"io/fs"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Config holds every setting read from the environment.
type Config struct {
	Env string `env:"APP_ENV" envDefault:"development"`

	// Database
	DBType string `env:"DB_TYPE" envDefault:"sqlite"` // sqlite or postgres
	DBURL  string `env:"DATABASE_URL" envDefault:"data/studyplanner.db"`

	// Surfaces
	HTTPAddr      string   `env:"HTTP_ADDR" envDefault:":8080"`
	CORSOrigins   []string `env:"CORS_ORIGINS" envSeparator:"," envDefault:"http://localhost:3000"`
	TelegramToken string   `env:"TELEGRAM_BOT_TOKEN"`

	// Event bus, in-process when RedisAddr is empty
	RedisAddr    string `env:"REDIS_ADDR"`
	RedisChannel string `env:"REDIS_CHANNEL" envDefault:"studyplanner-events"`

	// Reminders
	EnableScheduler       bool          `env:"ENABLE_SCHEDULER" envDefault:"true"`
	ReminderInterval      time.Duration `env:"REMINDER_INTERVAL" envDefault:"1h"`
	NotificationStartHour int           `env:"NOTIFICATION_START_HOUR" envDefault:"8"`
	NotificationEndHour   int           `env:"NOTIFICATION_END_HOUR" envDefault:"22"`
	Timezone              string        `env:"TIMEZONE" envDefault:"UTC"`

	// Spaced repetition
	EaseFloor    float64 `env:"SR_EASE_FLOOR" envDefault:"1.3"`
	MaxInterval  float64 `env:"SR_MAX_INTERVAL_DAYS" envDefault:"365"`
	AutoFollowUp bool    `env:"SR_AUTO_FOLLOW_UP" envDefault:"true"`

	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"5s"`
}

// Load reads the optional .env files and parses the environment into a Config.
func Load(files ...string) (*Config, error) {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("load %s: %w", f, err)
		}
	}

	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks value ranges the env tags cannot express.
func (c *Config) Validate() error {
	switch c.DBType {
	case "sqlite", "postgres":
	default:
		return fmt.Errorf("DB_TYPE must be sqlite or postgres, got %q", c.DBType)
	}
	if c.NotificationStartHour < 0 || c.NotificationStartHour > 23 ||
		c.NotificationEndHour < 0 || c.NotificationEndHour > 23 {
		return fmt.Errorf("notification hours must be within 0-23")
	}
	if c.EaseFloor <= 1.0 {
		return fmt.Errorf("SR_EASE_FLOOR must be greater than 1.0, got %v", c.EaseFloor)
	}
	if c.MaxInterval <= 0 || c.MaxInterval > 36500 {
		return fmt.Errorf("SR_MAX_INTERVAL_DAYS must be within 1-36500, got %v", c.MaxInterval)
	}
	if c.ReminderInterval <= 0 {
		return fmt.Errorf("REMINDER_INTERVAL must be positive")
	}
	if _, err := c.Location(); err != nil {
		return err
	}
	return nil
}

// Location resolves Timezone.
func (c *Config) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid TIMEZONE %q: %w", c.Timezone, err)
	}
	return loc, nil
}
