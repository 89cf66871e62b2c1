package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// Note is free-form study material attached to a topic of a subject.
type Note struct {
	ID          int64     `json:"id" db:"id"`
	UserID      int64     `json:"user_id" db:"user_id"`
	SubjectID   int64     `json:"subject_id" db:"subject_id"`
	SubjectName string    `json:"subject_name" db:"subject_name"`
	TopicID     int64     `json:"topic_id" db:"topic_id"`
	TopicName   string    `json:"topic_name" db:"topic_name"`
	Content     string    `json:"content" db:"content"`
	Tags        Tags      `json:"tags" db:"tags"`
	LastEdited  time.Time `json:"last_edited" db:"last_edited"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time `json:"updated_at" db:"updated_at"`
}

// Tags is a list of note labels, stored as a JSON array.
type Tags []string

// NormalizeTags trims tags, drops empty ones and keeps the first of any
// case-insensitive duplicates.
func NormalizeTags(tags []string) Tags {
	out := Tags{}
	seen := make(map[string]bool, len(tags))
	for _, tag := range tags {
		tag = strings.TrimSpace(tag)
		key := strings.ToLower(tag)
		if tag == "" || seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, tag)
	}
	return out
}

func (t Tags) Value() (driver.Value, error) {
	if t == nil {
		t = Tags{}
	}
	b, err := json.Marshal([]string(t))
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

func (t *Tags) Scan(src interface{}) error {
	var raw []byte
	switch v := src.(type) {
	case nil:
		*t = Tags{}
		return nil
	case string:
		raw = []byte(v)
	case []byte:
		raw = v
	default:
		return fmt.Errorf("cannot scan %T into Tags", src)
	}
	var tags []string
	if err := json.Unmarshal(raw, &tags); err != nil {
		return fmt.Errorf("failed to decode tags: %w", err)
	}
	if tags == nil {
		tags = []string{}
	}
	*t = Tags(tags)
	return nil
}
