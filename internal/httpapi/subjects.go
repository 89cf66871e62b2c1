package httpapi

import (
	"github.com/gin-gonic/gin"

	"github.com/example/studyplanner/internal/study"
	"github.com/example/studyplanner/pkg/models"
)

type topicRequest struct {
	Name        string            `json:"name"`
	Description string            `json:"description"`
	Difficulty  models.Difficulty `json:"difficulty"`
}

type createSubjectRequest struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Color       string         `json:"color"`
	Topics      []topicRequest `json:"topics"`
}

type updateSubjectRequest struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
	Color       *string `json:"color"`
}

type updateTopicRequest struct {
	Name        *string            `json:"name"`
	Description *string            `json:"description"`
	Difficulty  *models.Difficulty `json:"difficulty"`
}

type progressRequest struct {
	Progress *int `json:"progress"`
}

// GET /api/subjects?name=...
func (h *Handler) ListSubjects(c *gin.Context) {
	if name := c.Query("name"); name != "" {
		subject, err := h.svc.FindSubjectByName(c.Request.Context(), userID(c), name)
		if err != nil {
			h.respondServiceError(c, err)
			return
		}
		RespondOK(c, []models.Subject{*subject})
		return
	}
	subjects, err := h.svc.ListSubjects(c.Request.Context(), userID(c))
	if err != nil {
		h.respondServiceError(c, err)
		return
	}
	if subjects == nil {
		subjects = []models.Subject{}
	}
	RespondOK(c, subjects)
}

// POST /api/subjects
// body: { "name": "...", "description": "...", "color": "#...", "topics": [{ "name": "...", "difficulty": "easy" }] }
func (h *Handler) CreateSubject(c *gin.Context) {
	var req createSubjectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, bindError(err))
		return
	}
	cmd := study.CreateSubjectCommand{
		UserID:      userID(c),
		Name:        req.Name,
		Description: req.Description,
		Color:       req.Color,
	}
	for _, t := range req.Topics {
		cmd.Topics = append(cmd.Topics, study.CreateTopicCommand{
			UserID:      cmd.UserID,
			Name:        t.Name,
			Description: t.Description,
			Difficulty:  t.Difficulty,
		})
	}
	subject, err := h.svc.CreateSubject(c.Request.Context(), cmd)
	if err != nil {
		h.respondServiceError(c, err)
		return
	}
	RespondCreated(c, subject)
}

// GET /api/subjects/:id
func (h *Handler) GetSubject(c *gin.Context) {
	id, err := idParam(c, "id")
	if err != nil {
		h.respondServiceError(c, err)
		return
	}
	subject, err := h.svc.GetSubject(c.Request.Context(), userID(c), id)
	if err != nil {
		h.respondServiceError(c, err)
		return
	}
	RespondOK(c, subject)
}

// PATCH /api/subjects/:id
func (h *Handler) UpdateSubject(c *gin.Context) {
	id, err := idParam(c, "id")
	if err != nil {
		h.respondServiceError(c, err)
		return
	}
	var req updateSubjectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, bindError(err))
		return
	}
	subject, err := h.svc.UpdateSubject(c.Request.Context(), study.UpdateSubjectCommand{
		UserID:      userID(c),
		SubjectID:   id,
		Name:        req.Name,
		Description: req.Description,
		Color:       req.Color,
	})
	if err != nil {
		h.respondServiceError(c, err)
		return
	}
	RespondOK(c, subject)
}

// DELETE /api/subjects/:id
func (h *Handler) DeleteSubject(c *gin.Context) {
	id, err := idParam(c, "id")
	if err != nil {
		h.respondServiceError(c, err)
		return
	}
	if err := h.svc.DeleteSubject(c.Request.Context(), userID(c), id); err != nil {
		h.respondServiceError(c, err)
		return
	}
	RespondOK(c, gin.H{"deleted": id})
}

// POST /api/subjects/:id/topics
func (h *Handler) CreateTopic(c *gin.Context) {
	subjectID, err := idParam(c, "id")
	if err != nil {
		h.respondServiceError(c, err)
		return
	}
	var req topicRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, bindError(err))
		return
	}
	topic, err := h.svc.CreateTopic(c.Request.Context(), study.CreateTopicCommand{
		UserID:      userID(c),
		SubjectID:   subjectID,
		Name:        req.Name,
		Description: req.Description,
		Difficulty:  req.Difficulty,
	})
	if err != nil {
		h.respondServiceError(c, err)
		return
	}
	RespondCreated(c, topic)
}

// PATCH /api/subjects/:id/topics/:topicId
func (h *Handler) UpdateTopic(c *gin.Context) {
	subjectID, topicID, ok := h.topicParams(c)
	if !ok {
		return
	}
	var req updateTopicRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, bindError(err))
		return
	}
	topic, err := h.svc.UpdateTopic(c.Request.Context(), study.UpdateTopicCommand{
		UserID:      userID(c),
		SubjectID:   subjectID,
		TopicID:     topicID,
		Name:        req.Name,
		Description: req.Description,
		Difficulty:  req.Difficulty,
	})
	if err != nil {
		h.respondServiceError(c, err)
		return
	}
	RespondOK(c, topic)
}

// DELETE /api/subjects/:id/topics/:topicId
func (h *Handler) DeleteTopic(c *gin.Context) {
	subjectID, topicID, ok := h.topicParams(c)
	if !ok {
		return
	}
	if err := h.svc.DeleteTopic(c.Request.Context(), userID(c), subjectID, topicID); err != nil {
		h.respondServiceError(c, err)
		return
	}
	RespondOK(c, gin.H{"deleted": topicID})
}

// PATCH /api/subjects/:id/topics/:topicId/progress
// body: { "progress": 0-100 }
func (h *Handler) UpdateTopicProgress(c *gin.Context) {
	subjectID, topicID, ok := h.topicParams(c)
	if !ok {
		return
	}
	var req progressRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, bindError(err))
		return
	}
	if req.Progress == nil {
		h.respondServiceError(c, errMissing("progress"))
		return
	}
	subject, err := h.svc.UpdateTopicProgress(c.Request.Context(), study.UpdateProgressCommand{
		UserID:    userID(c),
		SubjectID: subjectID,
		TopicID:   topicID,
		Progress:  *req.Progress,
	})
	if err != nil {
		h.respondServiceError(c, err)
		return
	}
	RespondOK(c, subject)
}

func (h *Handler) topicParams(c *gin.Context) (int64, int64, bool) {
	subjectID, err := idParam(c, "id")
	if err != nil {
		h.respondServiceError(c, err)
		return 0, 0, false
	}
	topicID, err := idParam(c, "topicId")
	if err != nil {
		h.respondServiceError(c, err)
		return 0, 0, false
	}
	return subjectID, topicID, true
}
