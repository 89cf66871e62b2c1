package httpapi

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
)

const maxUploadSize = 10 << 20

// POST /api/import
// multipart form with a "file" field holding an .xlsx or .csv sheet
func (h *Handler) Import(c *gin.Context) {
	if h.importer == nil {
		RespondError(c, http.StatusNotImplemented, "not_configured", errors.New("import is not enabled"))
		return
	}
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxUploadSize)
	fh, err := c.FormFile("file")
	if err != nil {
		badRequest(c, errors.New("multipart field \"file\" is required"))
		return
	}
	f, err := fh.Open()
	if err != nil {
		badRequest(c, err)
		return
	}
	defer f.Close()

	result, err := h.importer.Import(c.Request.Context(), userID(c), fh.Filename, f)
	if err != nil {
		badRequest(c, err)
		return
	}
	h.log.Info("imported study plan",
		"user_id", userID(c),
		"file", fh.Filename,
		"subjects_created", result.SubjectsCreated,
		"topics_created", result.TopicsCreated,
		"errors", len(result.Errors),
	)
	RespondOK(c, result)
}

// POST /api/reminders/check
func (h *Handler) CheckReminders(c *gin.Context) {
	if h.reminders == nil {
		RespondError(c, http.StatusNotImplemented, "not_configured", errors.New("reminders are not enabled"))
		return
	}
	n, err := h.reminders.RunManualCheck(c.Request.Context(), userID(c))
	if err != nil {
		h.respondServiceError(c, err)
		return
	}
	RespondOK(c, gin.H{"due": n})
}
