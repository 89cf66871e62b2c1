package database

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
)

// Connect opens the database for dbType ("sqlite" or "postgres") and creates the
// schema if it does not exist yet.
func Connect(dbType, url string) (*sqlx.DB, error) {
	var (
		db  *sqlx.DB
		err error
	)

	switch dbType {
	case "postgres":
		db, err = sqlx.Connect("postgres", url)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to database: %w", err)
		}
	case "sqlite":
		if dir := filepath.Dir(url); dir != "." && !strings.HasPrefix(url, "file:") {
			if err := os.MkdirAll(dir, 0755); err != nil {
				return nil, fmt.Errorf("failed to create data directory: %w", err)
			}
		}
		db, err = sqlx.Connect("sqlite3", sqliteDSN(url))
		if err != nil {
			return nil, fmt.Errorf("failed to connect to database: %w", err)
		}
		// SQLite doesn't support multiple writers
		db.SetMaxOpenConns(1)
		db.SetMaxIdleConns(1)
	default:
		return nil, fmt.Errorf("unsupported database type %q", dbType)
	}

	if err := initializeSchema(db); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}

func sqliteDSN(path string) string {
	if strings.Contains(path, "?") {
		return path
	}
	return path + "?_foreign_keys=on&_busy_timeout=5000"
}

// initializeSchema creates necessary tables if they don't exist
func initializeSchema(db *sqlx.DB) error {
	r := sqliteTypes
	if db.DriverName() == "postgres" {
		r = postgresTypes
	}
	for _, stmt := range schema {
		if _, err := db.Exec(r.Replace(stmt)); err != nil {
			return fmt.Errorf("failed to initialize schema: %w", err)
		}
	}
	return nil
}

var (
	sqliteTypes = strings.NewReplacer(
		"%PK%", "INTEGER PRIMARY KEY AUTOINCREMENT",
		"%ID%", "INTEGER",
		"%TS%", "TIMESTAMP",
		"%REAL%", "REAL",
	)
	postgresTypes = strings.NewReplacer(
		"%PK%", "BIGSERIAL PRIMARY KEY",
		"%ID%", "BIGINT",
		"%TS%", "TIMESTAMPTZ",
		"%REAL%", "DOUBLE PRECISION",
	)
)

var schema = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id %PK%,
		telegram_id %ID% UNIQUE,
		username TEXT NOT NULL DEFAULT '',
		notification_enabled BOOLEAN NOT NULL DEFAULT TRUE,
		notification_hour INTEGER NOT NULL DEFAULT 9,
		created_at %TS% NOT NULL,
		updated_at %TS% NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS subjects (
		id %PK%,
		user_id %ID% NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		name TEXT NOT NULL,
		description TEXT NOT NULL DEFAULT '',
		color TEXT NOT NULL DEFAULT '#3498db',
		total_progress INTEGER NOT NULL DEFAULT 0,
		last_studied %TS%,
		study_time INTEGER NOT NULL DEFAULT 0,
		created_at %TS% NOT NULL,
		updated_at %TS% NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_subjects_user_name ON subjects (user_id, name)`,
	`CREATE TABLE IF NOT EXISTS topics (
		id %PK%,
		subject_id %ID% NOT NULL REFERENCES subjects(id) ON DELETE CASCADE,
		name TEXT NOT NULL,
		description TEXT NOT NULL DEFAULT '',
		difficulty TEXT NOT NULL DEFAULT 'medium',
		progress INTEGER NOT NULL DEFAULT 0,
		last_revised %TS%,
		next_revision %TS%,
		revision_count INTEGER NOT NULL DEFAULT 0,
		sr_interval %REAL% NOT NULL DEFAULT 1,
		sr_ease_factor %REAL% NOT NULL DEFAULT 2.5,
		sr_repetitions INTEGER NOT NULL DEFAULT 0,
		sr_last_revised %TS%,
		sr_next_revision %TS%,
		version INTEGER NOT NULL DEFAULT 0,
		created_at %TS% NOT NULL,
		updated_at %TS% NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_topics_subject ON topics (subject_id)`,
	`CREATE TABLE IF NOT EXISTS revisions (
		id %PK%,
		user_id %ID% NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		subject_id %ID% NOT NULL REFERENCES subjects(id) ON DELETE CASCADE,
		topic_id %ID% NOT NULL REFERENCES topics(id) ON DELETE CASCADE,
		scheduled_date %TS% NOT NULL,
		completed_date %TS%,
		duration INTEGER NOT NULL,
		status TEXT NOT NULL DEFAULT 'scheduled',
		performance INTEGER,
		notes TEXT NOT NULL DEFAULT '',
		priority TEXT NOT NULL DEFAULT 'medium',
		difficulty TEXT NOT NULL,
		sr_interval %REAL% NOT NULL DEFAULT 1,
		sr_ease_factor %REAL% NOT NULL DEFAULT 2.5,
		sr_repetitions INTEGER NOT NULL DEFAULT 0,
		sr_last_revised %TS%,
		sr_next_revision %TS%,
		version INTEGER NOT NULL DEFAULT 0,
		created_at %TS% NOT NULL,
		updated_at %TS% NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_revisions_user_scheduled ON revisions (user_id, scheduled_date)`,
	`CREATE INDEX IF NOT EXISTS idx_revisions_status ON revisions (status)`,
	`CREATE TABLE IF NOT EXISTS notes (
		id %PK%,
		user_id %ID% NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		subject_id %ID% NOT NULL REFERENCES subjects(id) ON DELETE CASCADE,
		topic_id %ID% NOT NULL REFERENCES topics(id) ON DELETE CASCADE,
		content TEXT NOT NULL,
		tags TEXT NOT NULL DEFAULT '[]',
		last_edited %TS% NOT NULL,
		created_at %TS% NOT NULL,
		updated_at %TS% NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_notes_user_subject ON notes (user_id, subject_id)`,
	`CREATE INDEX IF NOT EXISTS idx_notes_user_topic ON notes (user_id, topic_id)`,
}
