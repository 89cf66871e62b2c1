package httpapi

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/example/studyplanner/internal/study"
	"github.com/example/studyplanner/pkg/models"
)

type scheduleRevisionRequest struct {
	SubjectID     int64             `json:"subject_id"`
	TopicID       int64             `json:"topic_id"`
	ScheduledDate time.Time         `json:"scheduled_date"`
	Duration      int               `json:"duration"`
	Difficulty    models.Difficulty `json:"difficulty"`
	Priority      models.Priority   `json:"priority"`
	Notes         string            `json:"notes"`
}

type updateRevisionRequest struct {
	ScheduledDate *time.Time             `json:"scheduled_date"`
	Duration      *int                   `json:"duration"`
	Status        *models.RevisionStatus `json:"status"`
	Notes         *string                `json:"notes"`
	Priority      *models.Priority       `json:"priority"`
}

type completeRevisionRequest struct {
	Performance *int   `json:"performance"`
	Notes       string `json:"notes"`
}

func respondRevisions(c *gin.Context, revisions []models.Revision) {
	if revisions == nil {
		revisions = []models.Revision{}
	}
	RespondOK(c, revisions)
}

// GET /api/revisions
func (h *Handler) ListRevisions(c *gin.Context) {
	revisions, err := h.svc.ListRevisions(c.Request.Context(), userID(c))
	if err != nil {
		h.respondServiceError(c, err)
		return
	}
	respondRevisions(c, revisions)
}

// POST /api/revisions
func (h *Handler) ScheduleRevision(c *gin.Context) {
	var req scheduleRevisionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, bindError(err))
		return
	}
	rev, err := h.svc.ScheduleRevision(c.Request.Context(), study.ScheduleRevisionCommand{
		UserID:        userID(c),
		SubjectID:     req.SubjectID,
		TopicID:       req.TopicID,
		ScheduledDate: req.ScheduledDate,
		Duration:      req.Duration,
		Difficulty:    req.Difficulty,
		Priority:      req.Priority,
		Notes:         req.Notes,
	})
	if err != nil {
		h.respondServiceError(c, err)
		return
	}
	RespondCreated(c, rev)
}

// GET /api/revisions/upcoming?limit=n
func (h *Handler) UpcomingRevisions(c *gin.Context) {
	limit, err := limitQuery(c)
	if err != nil {
		h.respondServiceError(c, err)
		return
	}
	revisions, err := h.svc.UpcomingRevisions(c.Request.Context(), userID(c), limit)
	if err != nil {
		h.respondServiceError(c, err)
		return
	}
	respondRevisions(c, revisions)
}

// GET /api/revisions/completed?limit=n
func (h *Handler) CompletedRevisions(c *gin.Context) {
	limit, err := limitQuery(c)
	if err != nil {
		h.respondServiceError(c, err)
		return
	}
	revisions, err := h.svc.CompletedRevisions(c.Request.Context(), userID(c), limit)
	if err != nil {
		h.respondServiceError(c, err)
		return
	}
	respondRevisions(c, revisions)
}

// GET /api/revisions/due?limit=n
func (h *Handler) DueRevisions(c *gin.Context) {
	limit, err := limitQuery(c)
	if err != nil {
		h.respondServiceError(c, err)
		return
	}
	revisions, err := h.svc.DueRevisions(c.Request.Context(), userID(c), limit)
	if err != nil {
		h.respondServiceError(c, err)
		return
	}
	respondRevisions(c, revisions)
}

// GET /api/revisions/:id
func (h *Handler) GetRevision(c *gin.Context) {
	id, err := idParam(c, "id")
	if err != nil {
		h.respondServiceError(c, err)
		return
	}
	rev, err := h.svc.GetRevision(c.Request.Context(), userID(c), id)
	if err != nil {
		h.respondServiceError(c, err)
		return
	}
	RespondOK(c, rev)
}

// PATCH /api/revisions/:id
func (h *Handler) UpdateRevision(c *gin.Context) {
	id, err := idParam(c, "id")
	if err != nil {
		h.respondServiceError(c, err)
		return
	}
	var req updateRevisionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, bindError(err))
		return
	}
	rev, err := h.svc.UpdateRevision(c.Request.Context(), study.UpdateRevisionCommand{
		UserID:        userID(c),
		RevisionID:    id,
		ScheduledDate: req.ScheduledDate,
		Duration:      req.Duration,
		Status:        req.Status,
		Notes:         req.Notes,
		Priority:      req.Priority,
	})
	if err != nil {
		h.respondServiceError(c, err)
		return
	}
	RespondOK(c, rev)
}

// PATCH /api/revisions/:id/complete
// body: { "performance": 0-100, "notes": "..." }
func (h *Handler) CompleteRevision(c *gin.Context) {
	id, err := idParam(c, "id")
	if err != nil {
		h.respondServiceError(c, err)
		return
	}
	var req completeRevisionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, bindError(err))
		return
	}
	if req.Performance == nil {
		h.respondServiceError(c, errMissing("performance"))
		return
	}
	rev, err := h.svc.CompleteRevision(c.Request.Context(), study.CompleteRevisionCommand{
		UserID:     userID(c),
		RevisionID: id,
		Rating:     *req.Performance,
		Notes:      req.Notes,
	})
	if err != nil {
		h.respondServiceError(c, err)
		return
	}
	RespondOK(c, rev)
}

// DELETE /api/revisions/:id
func (h *Handler) DeleteRevision(c *gin.Context) {
	id, err := idParam(c, "id")
	if err != nil {
		h.respondServiceError(c, err)
		return
	}
	if err := h.svc.DeleteRevision(c.Request.Context(), userID(c), id); err != nil {
		h.respondServiceError(c, err)
		return
	}
	RespondOK(c, gin.H{"deleted": id})
}
