package httpapi

import (
	"github.com/gin-gonic/gin"

	"github.com/example/studyplanner/internal/logger"
)

type RouterConfig struct {
	Handler     *Handler
	Log         *logger.Logger
	CORSOrigins []string
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(RequestID())
	r.Use(RequestLogger(cfg.Log))
	if len(cfg.CORSOrigins) > 0 {
		r.Use(CORS(cfg.CORSOrigins))
	}

	h := cfg.Handler

	// Health
	r.GET("/healthcheck", h.HealthCheck)

	api := r.Group("/api")
	{
		// Registration (public)
		api.POST("/users", h.CreateUser)
	}

	protected := api.Group("/")
	protected.Use(h.RequireUser())
	{
		protected.GET("/me", h.GetMe)
		protected.PATCH("/me/notifications", h.UpdateNotifications)

		// Subjects and topics
		protected.GET("/subjects", h.ListSubjects)
		protected.POST("/subjects", h.CreateSubject)
		protected.GET("/subjects/:id", h.GetSubject)
		protected.PATCH("/subjects/:id", h.UpdateSubject)
		protected.DELETE("/subjects/:id", h.DeleteSubject)
		protected.POST("/subjects/:id/topics", h.CreateTopic)
		protected.PATCH("/subjects/:id/topics/:topicId", h.UpdateTopic)
		protected.DELETE("/subjects/:id/topics/:topicId", h.DeleteTopic)
		protected.PATCH("/subjects/:id/topics/:topicId/progress", h.UpdateTopicProgress)

		// Revisions
		protected.GET("/revisions", h.ListRevisions)
		protected.POST("/revisions", h.ScheduleRevision)
		protected.GET("/revisions/upcoming", h.UpcomingRevisions)
		protected.GET("/revisions/completed", h.CompletedRevisions)
		protected.GET("/revisions/due", h.DueRevisions)
		protected.GET("/revisions/:id", h.GetRevision)
		protected.PATCH("/revisions/:id", h.UpdateRevision)
		protected.DELETE("/revisions/:id", h.DeleteRevision)
		protected.PATCH("/revisions/:id/complete", h.CompleteRevision)

		// Notes
		protected.GET("/notes", h.ListNotes)
		protected.POST("/notes", h.CreateNote)
		protected.GET("/notes/subject/:subjectId", h.NotesBySubject)
		protected.GET("/notes/topic/:topicId", h.NotesByTopic)
		protected.GET("/notes/:id", h.GetNote)
		protected.PATCH("/notes/:id", h.UpdateNote)
		protected.DELETE("/notes/:id", h.DeleteNote)

		// Progress
		protected.GET("/progress/overview", h.Overview)
		protected.GET("/progress/subjects", h.SubjectProgress)
		protected.GET("/progress/topics", h.TopicProgress)
		protected.GET("/progress/study-streak", h.StudyStreak)
		protected.GET("/progress/study-time", h.StudyTime)
		protected.GET("/progress/performance", h.Performance)
		protected.GET("/progress/export", h.ExportProgress)

		// Import and reminders
		protected.POST("/import", h.Import)
		protected.POST("/reminders/check", h.CheckReminders)
	}

	return r
}
