package errors

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"reflect"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stwalsh4118/listings/api/internal/logger"
	"github.com/stwalsh4118/listings/api/internal/middleware"
	"github.com/stwalsh4118/listings/api/internal/validation"
)

func init() {
	// Set Gin to test mode to suppress logs during tests
	gin.SetMode(gin.TestMode)
}

// setupTestContext creates a test Gin context with logger and request ID in context.
func setupTestContext() (*gin.Context, *httptest.ResponseRecorder) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	c.Request = httptest.NewRequest(http.MethodPost, "/api/properties/", nil)
	c.Set(middleware.LoggerKey, logger.New("test"))
	c.Set(middleware.RequestIDKey, "test-request-id")

	return c, w
}

// parseErrorResponse parses the JSON response into an ErrorResponse struct.
func parseErrorResponse(t *testing.T, body *bytes.Buffer) ErrorResponse {
	t.Helper()
	var response ErrorResponse
	require.NoError(t, json.Unmarshal(body.Bytes(), &response), "Failed to parse error response JSON")
	return response
}

func assertEnvelope(t *testing.T, response ErrorResponse) {
	t.Helper()
	assert.False(t, response.Success)
	assert.Equal(t, "test-request-id", response.RequestID)
	_, err := time.Parse(time.RFC3339Nano, response.Timestamp)
	assert.NoError(t, err, "timestamp should be RFC 3339")
}

func TestNotFound(t *testing.T) {
	c, w := setupTestContext()

	NotFound(c, "Property not found")

	assert.Equal(t, http.StatusNotFound, w.Code)
	response := parseErrorResponse(t, w.Body)
	assertEnvelope(t, response)
	assert.Equal(t, ErrNotFound, response.Code)
	assert.Equal(t, "Property not found", response.Message)
	assert.True(t, c.IsAborted())
}

func TestBadRequest(t *testing.T) {
	c, w := setupTestContext()

	BadRequest(c, "Invalid JSON data")

	assert.Equal(t, http.StatusBadRequest, w.Code)
	response := parseErrorResponse(t, w.Body)
	assertEnvelope(t, response)
	assert.Equal(t, ErrBadRequest, response.Code)
	assert.Equal(t, "Invalid JSON data", response.Message)
	assert.Empty(t, response.Field)
}

func TestValidationFailed(t *testing.T) {
	c, w := setupTestContext()

	ValidationFailed(c, &validation.Error{Field: "price", Message: "Price must be greater than 0"})

	assert.Equal(t, http.StatusBadRequest, w.Code)
	response := parseErrorResponse(t, w.Body)
	assertEnvelope(t, response)
	assert.Equal(t, ErrValidation, response.Code)
	assert.Equal(t, "Price must be greater than 0", response.Message)
	assert.Equal(t, "price", response.Field)
}

func TestBindingFailed(t *testing.T) {
	type statusRequest struct {
		Status string `json:"status" validate:"required"`
	}

	validate := validator.New()
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string { return fld.Tag.Get("json") })
	err := validate.Struct(statusRequest{})
	require.Error(t, err)

	var verrs validator.ValidationErrors
	require.True(t, errors.As(err, &verrs))

	c, w := setupTestContext()
	BindingFailed(c, verrs)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	response := parseErrorResponse(t, w.Body)
	assert.Equal(t, ErrValidation, response.Code)
	assert.Equal(t, "Missing required field: status", response.Message)
}

func TestPayloadTooLarge(t *testing.T) {
	c, w := setupTestContext()

	PayloadTooLarge(c, 32<<20)

	assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
	response := parseErrorResponse(t, w.Body)
	assertEnvelope(t, response)
	assert.Equal(t, ErrPayloadTooLarge, response.Code)
	assert.Equal(t, "Request body exceeds the 32 MB limit", response.Message)
}

func TestInternalServerError_HidesDetail(t *testing.T) {
	c, w := setupTestContext()

	InternalServerError(c, "failed to save property", errors.New("disk I/O error at /var/lib/properties.db"))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	response := parseErrorResponse(t, w.Body)
	assertEnvelope(t, response)
	assert.Equal(t, ErrInternalServer, response.Code)
	assert.Equal(t, InternalErrorMessage, response.Message)
	assert.NotContains(t, w.Body.String(), "disk I/O")
}

func TestResponders_WithoutLogger(t *testing.T) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/api/properties/1", nil)

	assert.NotPanics(t, func() {
		NotFound(c, "Property not found")
	})
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Empty(t, parseErrorResponse(t, w.Body).RequestID)
}
