package httpapi

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/example/studyplanner/internal/apperrors"
)

type APIError struct {
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
	Field   string `json:"field,omitempty"`
}

type ErrorEnvelope struct {
	Error APIError `json:"error"`
}

type SuccessEnvelope struct {
	Status string `json:"status"`
	Data   any    `json:"data"`
}

func RespondOK(c *gin.Context, payload any) {
	c.JSON(http.StatusOK, SuccessEnvelope{Status: "success", Data: payload})
}

func RespondCreated(c *gin.Context, payload any) {
	c.JSON(http.StatusCreated, SuccessEnvelope{Status: "success", Data: payload})
}

func RespondError(c *gin.Context, status int, code string, err error) {
	msg := "unknown error"
	if err != nil {
		msg = err.Error()
	}
	c.AbortWithStatusJSON(status, ErrorEnvelope{
		Error: APIError{
			Message: msg,
			Code:    code,
		},
	})
}

// StatusFor maps a service error to its HTTP status and error code.
func StatusFor(err error) (int, string) {
	switch {
	case errors.Is(err, apperrors.ErrValidation):
		return http.StatusBadRequest, "validation_error"
	case errors.Is(err, apperrors.ErrNotFound):
		return http.StatusNotFound, "not_found"
	case errors.Is(err, apperrors.ErrConflict):
		return http.StatusConflict, "conflict"
	case errors.Is(err, apperrors.ErrInvalidState):
		return http.StatusUnprocessableEntity, "invalid_state"
	default:
		return http.StatusInternalServerError, "internal_error"
	}
}

// respondServiceError writes err with its mapped status. Internal errors are
// logged and hidden from the client.
func (h *Handler) respondServiceError(c *gin.Context, err error) {
	status, code := StatusFor(err)
	if status == http.StatusInternalServerError {
		h.log.Error("request failed", "path", c.FullPath(), "error", err)
		RespondError(c, status, code, errors.New("internal server error"))
		return
	}

	var verr *apperrors.ValidationError
	if errors.As(err, &verr) {
		c.AbortWithStatusJSON(status, ErrorEnvelope{Error: APIError{Message: err.Error(), Code: code, Field: verr.Field}})
		return
	}
	RespondError(c, status, code, err)
}

func badRequest(c *gin.Context, err error) {
	RespondError(c, http.StatusBadRequest, "invalid_request", err)
}
