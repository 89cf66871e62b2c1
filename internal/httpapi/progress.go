package httpapi

import (
	"bytes"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/example/studyplanner/internal/excel"
	"github.com/example/studyplanner/pkg/models"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// GET /api/progress/overview
func (h *Handler) Overview(c *gin.Context) {
	ov, err := h.svc.Overview(c.Request.Context(), userID(c))
	if err != nil {
		h.respondServiceError(c, err)
		return
	}
	RespondOK(c, ov)
}

// GET /api/progress/subjects
func (h *Handler) SubjectProgress(c *gin.Context) {
	rows, err := h.svc.SubjectProgress(c.Request.Context(), userID(c))
	if err != nil {
		h.respondServiceError(c, err)
		return
	}
	if rows == nil {
		rows = []models.SubjectProgress{}
	}
	RespondOK(c, rows)
}

// GET /api/progress/topics
func (h *Handler) TopicProgress(c *gin.Context) {
	rows, err := h.svc.TopicProgress(c.Request.Context(), userID(c))
	if err != nil {
		h.respondServiceError(c, err)
		return
	}
	if rows == nil {
		rows = []models.TopicProgress{}
	}
	RespondOK(c, rows)
}

// GET /api/progress/study-streak
func (h *Handler) StudyStreak(c *gin.Context) {
	streak, err := h.svc.Streak(c.Request.Context(), userID(c))
	if err != nil {
		h.respondServiceError(c, err)
		return
	}
	RespondOK(c, gin.H{"streak": streak})
}

// GET /api/progress/study-time
func (h *Handler) StudyTime(c *gin.Context) {
	days, err := h.svc.StudyTime(c.Request.Context(), userID(c))
	if err != nil {
		h.respondServiceError(c, err)
		return
	}
	RespondOK(c, days)
}

// GET /api/progress/performance
func (h *Handler) Performance(c *gin.Context) {
	rows, err := h.svc.Performance(c.Request.Context(), userID(c))
	if err != nil {
		h.respondServiceError(c, err)
		return
	}
	RespondOK(c, rows)
}

// GET /api/progress/export
func (h *Handler) ExportProgress(c *gin.Context) {
	subjects, err := h.svc.ListSubjects(c.Request.Context(), userID(c))
	if err != nil {
		h.respondServiceError(c, err)
		return
	}
	var buf bytes.Buffer
	if err := excel.ExportProgress(&buf, subjects); err != nil {
		h.respondServiceError(c, err)
		return
	}
	filename := fmt.Sprintf("progress-%s.xlsx", h.svc.Now().Format("2006-01-02"))
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Data(http.StatusOK, xlsxContentType, buf.Bytes())
}
