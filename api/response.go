package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/Domenick1991/flightbooking/internal/domain"
	"github.com/Domenick1991/flightbooking/internal/validation"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type envelope struct {
	Success bool                `json:"success"`
	Data    any                 `json:"data,omitempty"`
	Error   string              `json:"error,omitempty"`
	Message string              `json:"message,omitempty"`
	Details []domain.FieldError `json:"details,omitempty"`
}

func ok(c *gin.Context, status int, data any, message string) {
	c.JSON(status, envelope{Success: true, Data: data, Message: message})
}

// ErrorHandler renders the last error attached with c.Error. It has to run
// before any handler that may abort so aborted chains still get an envelope.
func ErrorHandler(log *zap.Logger, exposeInternal bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		last := c.Errors.Last()
		if last == nil || c.Writer.Written() {
			return
		}

		status, body := classify(last.Err, exposeInternal)
		fields := []zap.Field{
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", status),
			zap.Error(last.Err),
		}
		if status >= http.StatusInternalServerError {
			log.Error("request failed", fields...)
		} else {
			log.Warn("request rejected", fields...)
		}
		c.AbortWithStatusJSON(status, body)
	}
}

func classify(err error, exposeInternal bool) (int, envelope) {
	var verr *domain.ValidationError
	var nf *domain.NotFoundError

	switch {
	case errors.As(err, &verr):
		return http.StatusBadRequest, envelope{Error: "Validation Error", Details: verr.Fields}
	case errors.As(err, &nf):
		return http.StatusNotFound, envelope{Error: nf.Error()}
	case errors.Is(err, domain.ErrUnauthorized):
		return http.StatusUnauthorized, envelope{Error: err.Error()}
	}

	msg := "Internal Server Error"
	if exposeInternal {
		msg = err.Error()
	}
	return http.StatusInternalServerError, envelope{Error: msg}
}

// bindError converts a gin binding failure into a validation error.
func bindError(err error, where string) error {
	var syntax *json.SyntaxError
	var typeErr *json.UnmarshalTypeError
	switch {
	case errors.As(err, &syntax):
		return domain.NewValidationError(where, "must be valid JSON")
	case errors.As(err, &typeErr):
		return domain.NewValidationError(typeErr.Field, "has the wrong type")
	}

	translated := validation.Translate(err)
	var verr *domain.ValidationError
	if errors.As(translated, &verr) {
		return verr
	}
	return domain.NewValidationError(where, "is malformed")
}
