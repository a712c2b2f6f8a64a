package errors

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/stwalsh4118/listings/api/internal/middleware"
	"github.com/stwalsh4118/listings/api/internal/validation"
)

// Error code constants for standardized error responses
const (
	ErrNotFound        = "NOT_FOUND"
	ErrBadRequest      = "BAD_REQUEST"
	ErrInternalServer  = "INTERNAL_SERVER_ERROR"
	ErrValidation      = "VALIDATION_ERROR"
	ErrPayloadTooLarge = "PAYLOAD_TOO_LARGE"
)

// InternalErrorMessage is the only message clients see for server-side failures.
const InternalErrorMessage = "Internal server error"

// ErrorResponse is the envelope every failed request receives.
type ErrorResponse struct {
	Code      string `json:"code"`
	Message   string `json:"message"`
	Field     string `json:"field,omitempty"`
	RequestID string `json:"request_id,omitempty"`
	Timestamp string `json:"timestamp"`
	Success   bool   `json:"success"`
}

// Timestamp formats t the way all responses carry it.
func Timestamp(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func respond(c *gin.Context, status int, code, message, field string) {
	c.AbortWithStatusJSON(status, ErrorResponse{
		Code:      code,
		Message:   message,
		Field:     field,
		RequestID: middleware.GetRequestID(c),
		Timestamp: Timestamp(time.Now()),
	})
}

// NotFound returns a 404 Not Found error response.
func NotFound(c *gin.Context, message string) {
	if log := middleware.GetLogger(c); log != nil {
		log.Warn("Resource not found", map[string]interface{}{
			"message": message,
			"path":    c.Request.URL.Path,
		})
	}

	respond(c, http.StatusNotFound, ErrNotFound, message, "")
}

// BadRequest returns a 400 Bad Request error response.
// It logs a warning and sends a JSON response with the error details.
func BadRequest(c *gin.Context, message string) {
	if log := middleware.GetLogger(c); log != nil {
		log.Warn("Bad request", map[string]interface{}{
			"message": message,
			"path":    c.Request.URL.Path,
		})
	}

	respond(c, http.StatusBadRequest, ErrBadRequest, message, "")
}

// ValidationFailed returns a 400 response carrying the submission rule that
// failed. The message is sent verbatim.
func ValidationFailed(c *gin.Context, err *validation.Error) {
	if log := middleware.GetLogger(c); log != nil {
		log.Warn("Validation error", map[string]interface{}{
			"field":   err.Field,
			"message": err.Message,
			"path":    c.Request.URL.Path,
		})
	}

	respond(c, http.StatusBadRequest, ErrValidation, err.Message, err.Field)
}

// BindingFailed returns a 400 response for a request body that failed gin
// binding. Only the first violated field is reported.
func BindingFailed(c *gin.Context, validationErrors validator.ValidationErrors) {
	if len(validationErrors) == 0 {
		BadRequest(c, "Invalid request body")
		return
	}
	fe := validationErrors[0]
	ValidationFailed(c, &validation.Error{
		Field:   fe.Field(),
		Message: formatValidationError(fe),
	})
}

// PayloadTooLarge returns a 413 response for a body above limit bytes.
func PayloadTooLarge(c *gin.Context, limit int64) {
	if log := middleware.GetLogger(c); log != nil {
		log.Warn("Request body too large", map[string]interface{}{
			"limit_bytes": limit,
			"path":        c.Request.URL.Path,
		})
	}

	respond(c, http.StatusRequestEntityTooLarge, ErrPayloadTooLarge,
		fmt.Sprintf("Request body exceeds the %d MB limit", limit>>20), "")
}

// InternalServerError returns a 500 Internal Server Error response.
// err and context are logged; the client only ever sees InternalErrorMessage.
func InternalServerError(c *gin.Context, context string, err error) {
	if log := middleware.GetLogger(c); log != nil {
		log.Error("Internal server error", err, map[string]interface{}{
			"context": context,
			"path":    c.Request.URL.Path,
			"method":  c.Request.Method,
		})
	}

	respond(c, http.StatusInternalServerError, ErrInternalServer, InternalErrorMessage, "")
}

// formatValidationError converts a validator.FieldError to a human-readable message.
func formatValidationError(err validator.FieldError) string {
	switch err.Tag() {
	case "required":
		return "Missing required field: " + err.Field()
	case "oneof":
		return "Invalid " + err.Field() + ": must be one of " + err.Param()
	case "max":
		return err.Field() + " is too long (maximum: " + err.Param() + ")"
	default:
		return "Invalid " + err.Field()
	}
}
