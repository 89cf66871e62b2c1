package database

import (
	"database/sql"
	"errors"
	"time"

	"github.com/example/studyplanner/internal/apperrors"
)

// Timestamps are stored in UTC so that SQLite's text comparison orders them correctly.
func utc(t time.Time) time.Time { return t.UTC() }

func utcPtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	u := t.UTC()
	return &u
}

// notFound converts sql.ErrNoRows into a NotFoundError and leaves other errors alone.
func notFound(err error, entity string, id int64) error {
	if errors.Is(err, sql.ErrNoRows) {
		return apperrors.NotFound(entity, id)
	}
	return err
}

func checkAffected(res sql.Result, entity string, id int64) error {
	rows, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return apperrors.NotFound(entity, id)
	}
	return nil
}
