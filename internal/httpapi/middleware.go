package httpapi

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/example/studyplanner/internal/apperrors"
	"github.com/example/studyplanner/internal/logger"
	"github.com/example/studyplanner/pkg/models"
)

const (
	headerRequestID = "X-Request-Id"
	headerUserID    = "X-User-ID"

	ctxRequestID = "request_id"
	ctxUser      = "user"
)

func CORS(origins []string) gin.HandlerFunc {
	return cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", headerUserID, headerRequestID},
		ExposeHeaders:    []string{headerRequestID},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	})
}

// RequestID tags every request with the caller's X-Request-Id or a fresh uuid.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		reqID := strings.TrimSpace(c.GetHeader(headerRequestID))
		if reqID == "" {
			reqID = uuid.New().String()
		}
		c.Set(ctxRequestID, reqID)
		c.Writer.Header().Set(headerRequestID, reqID)
		c.Next()
	}
}

func RequestLogger(log *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		if log == nil {
			return
		}

		status := c.Writer.Status()
		path := c.FullPath()
		if path == "" {
			path = c.Request.URL.Path
		}
		fields := []interface{}{
			"method", strings.ToUpper(c.Request.Method),
			"path", path,
			"status", status,
			"duration_ms", time.Since(start).Milliseconds(),
		}
		if reqID := c.GetString(ctxRequestID); reqID != "" {
			fields = append(fields, "request_id", reqID)
		}
		if user, ok := currentUser(c); ok {
			fields = append(fields, "user_id", user.ID)
		}

		switch {
		case status >= 500:
			log.Error("HTTP request", fields...)
		case status >= 400:
			log.Warn("HTTP request", fields...)
		default:
			log.Info("HTTP request", fields...)
		}
	}
}

// RequireUser resolves X-User-ID to a stored user.
func (h *Handler) RequireUser() gin.HandlerFunc {
	return func(c *gin.Context) {
		raw := strings.TrimSpace(c.GetHeader(headerUserID))
		if raw == "" {
			RespondError(c, http.StatusUnauthorized, "unauthorized", errors.New("missing "+headerUserID+" header"))
			return
		}
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || id <= 0 {
			RespondError(c, http.StatusUnauthorized, "unauthorized", errors.New("invalid "+headerUserID+" header"))
			return
		}
		user, err := h.svc.GetUser(c.Request.Context(), id)
		if err != nil {
			if errors.Is(err, apperrors.ErrNotFound) {
				RespondError(c, http.StatusUnauthorized, "unauthorized", errors.New("unknown user"))
				return
			}
			h.respondServiceError(c, err)
			return
		}
		c.Set(ctxUser, user)
		c.Next()
	}
}

func currentUser(c *gin.Context) (*models.User, bool) {
	v, ok := c.Get(ctxUser)
	if !ok {
		return nil, false
	}
	user, ok := v.(*models.User)
	return user, ok
}

func userID(c *gin.Context) int64 {
	if user, ok := currentUser(c); ok {
		return user.ID
	}
	return 0
}
