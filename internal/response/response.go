// Package response writes the JSON envelopes shared by every endpoint.
package response

import (
	"log/slog"
	"net/http"

	"accounts-be/internal/apierror"
	"accounts-be/internal/models"

	"github.com/gin-gonic/gin"
)

// JSON writes a success envelope.
func JSON(c *gin.Context, status int, data any, message string) {
	c.JSON(status, models.APIResponse{
		StatusCode: status,
		Success:    true,
		Message:    message,
		Data:       data,
	})
}

// Error writes the error envelope for err. Server-side failures are logged
// with their cause; the client only sees the message.
func Error(c *gin.Context, err error) {
	apiErr := apierror.From(err)
	if apiErr.StatusCode >= http.StatusInternalServerError {
		slog.ErrorContext(c.Request.Context(), "request failed",
			"method", c.Request.Method,
			"path", c.FullPath(),
			"status", apiErr.StatusCode,
			"error", err,
		)
	}
	c.JSON(apiErr.StatusCode, envelope(apiErr))
}

// Abort writes the error envelope and stops the handler chain.
func Abort(c *gin.Context, err error) {
	apiErr := apierror.From(err)
	c.AbortWithStatusJSON(apiErr.StatusCode, envelope(apiErr))
}

// BadBody reports a request body that could not be decoded or bound.
func BadBody(c *gin.Context, err error) {
	Error(c, apierror.BadRequest("Invalid request body", err.Error()))
}

func envelope(e *apierror.Error) models.ErrorResponse {
	return models.ErrorResponse{
		StatusCode: e.StatusCode,
		Success:    false,
		Message:    e.Message,
		Errors:     e.Errors,
	}
}
