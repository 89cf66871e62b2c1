// Package httpapi is the JSON HTTP surface of the study planner.
package httpapi

import (
	"context"
	"fmt"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/example/studyplanner/internal/apperrors"
	"github.com/example/studyplanner/internal/excel"
	"github.com/example/studyplanner/internal/logger"
	"github.com/example/studyplanner/internal/study"
)

// ReminderChecker runs the reminder check for one user on demand.
type ReminderChecker interface {
	RunManualCheck(ctx context.Context, userID int64) (int, error)
}

type Handler struct {
	svc       *study.Service
	importer  *excel.Importer
	reminders ReminderChecker
	log       *logger.Logger
}

func NewHandler(svc *study.Service, importer *excel.Importer, reminders ReminderChecker, log *logger.Logger) *Handler {
	if log == nil {
		log = logger.Nop()
	}
	return &Handler{
		svc:       svc,
		importer:  importer,
		reminders: reminders,
		log:       log,
	}
}

// GET /healthcheck
func (h *Handler) HealthCheck(c *gin.Context) {
	RespondOK(c, gin.H{"healthy": true})
}

func idParam(c *gin.Context, name string) (int64, error) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		return 0, apperrors.Validation(name, "%q is not a valid id", c.Param(name))
	}
	return id, nil
}

func limitQuery(c *gin.Context) (int, error) {
	raw := c.Query("limit")
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0, apperrors.Validation("limit", "%q must be a non-negative number", raw)
	}
	return n, nil
}

func bindError(err error) error {
	return fmt.Errorf("invalid request body: %w", err)
}

func errMissing(field string) error {
	return apperrors.Validation(field, "is required")
}
