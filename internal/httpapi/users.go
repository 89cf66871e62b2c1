package httpapi

import (
	"github.com/gin-gonic/gin"
)

type createUserRequest struct {
	Username string `json:"username"`
}

type notificationsRequest struct {
	Enabled *bool `json:"enabled"`
	Hour    *int  `json:"hour"`
}

// POST /api/users
// body: { "username": "..." }
func (h *Handler) CreateUser(c *gin.Context) {
	var req createUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, bindError(err))
		return
	}
	user, err := h.svc.CreateUser(c.Request.Context(), req.Username)
	if err != nil {
		h.respondServiceError(c, err)
		return
	}
	RespondCreated(c, user)
}

// GET /api/me
func (h *Handler) GetMe(c *gin.Context) {
	user, _ := currentUser(c)
	RespondOK(c, user)
}

// PATCH /api/me/notifications
// body: { "enabled": true, "hour": 9 }
func (h *Handler) UpdateNotifications(c *gin.Context) {
	var req notificationsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, bindError(err))
		return
	}
	user, _ := currentUser(c)
	enabled, hour := user.NotificationEnabled, user.NotificationHour
	if req.Enabled != nil {
		enabled = *req.Enabled
	}
	if req.Hour != nil {
		hour = *req.Hour
	}
	if err := h.svc.SetNotificationHour(c.Request.Context(), user.ID, hour, enabled); err != nil {
		h.respondServiceError(c, err)
		return
	}
	updated, err := h.svc.GetUser(c.Request.Context(), user.ID)
	if err != nil {
		h.respondServiceError(c, err)
		return
	}
	RespondOK(c, updated)
}
