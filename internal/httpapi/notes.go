package httpapi

import (
	"github.com/gin-gonic/gin"

	"github.com/example/studyplanner/internal/study"
	"github.com/example/studyplanner/pkg/models"
)

type createNoteRequest struct {
	SubjectID int64    `json:"subject_id"`
	TopicID   int64    `json:"topic_id"`
	Content   string   `json:"content"`
	Tags      []string `json:"tags"`
}

type updateNoteRequest struct {
	Content *string   `json:"content"`
	Tags    *[]string `json:"tags"`
}

func respondNotes(c *gin.Context, notes []models.Note) {
	if notes == nil {
		notes = []models.Note{}
	}
	RespondOK(c, notes)
}

// GET /api/notes
func (h *Handler) ListNotes(c *gin.Context) {
	notes, err := h.svc.ListNotes(c.Request.Context(), userID(c))
	if err != nil {
		h.respondServiceError(c, err)
		return
	}
	respondNotes(c, notes)
}

// GET /api/notes/subject/:subjectId
func (h *Handler) NotesBySubject(c *gin.Context) {
	id, err := idParam(c, "subjectId")
	if err != nil {
		h.respondServiceError(c, err)
		return
	}
	notes, err := h.svc.NotesBySubject(c.Request.Context(), userID(c), id)
	if err != nil {
		h.respondServiceError(c, err)
		return
	}
	respondNotes(c, notes)
}

// GET /api/notes/topic/:topicId
func (h *Handler) NotesByTopic(c *gin.Context) {
	id, err := idParam(c, "topicId")
	if err != nil {
		h.respondServiceError(c, err)
		return
	}
	notes, err := h.svc.NotesByTopic(c.Request.Context(), userID(c), id)
	if err != nil {
		h.respondServiceError(c, err)
		return
	}
	respondNotes(c, notes)
}

// POST /api/notes
// body: { "subject_id": 1, "topic_id": 2, "content": "...", "tags": ["..."] }
func (h *Handler) CreateNote(c *gin.Context) {
	var req createNoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, bindError(err))
		return
	}
	switch {
	case req.SubjectID <= 0:
		h.respondServiceError(c, errMissing("subject_id"))
		return
	case req.TopicID <= 0:
		h.respondServiceError(c, errMissing("topic_id"))
		return
	}
	note, err := h.svc.CreateNote(c.Request.Context(), study.CreateNoteCommand{
		UserID:    userID(c),
		SubjectID: req.SubjectID,
		TopicID:   req.TopicID,
		Content:   req.Content,
		Tags:      req.Tags,
	})
	if err != nil {
		h.respondServiceError(c, err)
		return
	}
	RespondCreated(c, note)
}

// GET /api/notes/:id
func (h *Handler) GetNote(c *gin.Context) {
	id, err := idParam(c, "id")
	if err != nil {
		h.respondServiceError(c, err)
		return
	}
	note, err := h.svc.GetNote(c.Request.Context(), userID(c), id)
	if err != nil {
		h.respondServiceError(c, err)
		return
	}
	RespondOK(c, note)
}

// PATCH /api/notes/:id
func (h *Handler) UpdateNote(c *gin.Context) {
	id, err := idParam(c, "id")
	if err != nil {
		h.respondServiceError(c, err)
		return
	}
	var req updateNoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, bindError(err))
		return
	}
	note, err := h.svc.UpdateNote(c.Request.Context(), study.UpdateNoteCommand{
		UserID:  userID(c),
		NoteID:  id,
		Content: req.Content,
		Tags:    req.Tags,
	})
	if err != nil {
		h.respondServiceError(c, err)
		return
	}
	RespondOK(c, note)
}

// DELETE /api/notes/:id
func (h *Handler) DeleteNote(c *gin.Context) {
	id, err := idParam(c, "id")
	if err != nil {
		h.respondServiceError(c, err)
		return
	}
	if err := h.svc.DeleteNote(c.Request.Context(), userID(c), id); err != nil {
		h.respondServiceError(c, err)
		return
	}
	RespondOK(c, gin.H{"deleted": id})
}
