package handlers

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"reflect"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	apierrors "github.com/stwalsh4118/listings/api/internal/errors"
	"github.com/stwalsh4118/listings/api/internal/logger"
	"github.com/stwalsh4118/listings/api/internal/middleware"
	"github.com/stwalsh4118/listings/api/internal/models"
	"github.com/stwalsh4118/listings/api/internal/services"
	"github.com/stwalsh4118/listings/api/internal/storage"
	"github.com/stwalsh4118/listings/api/internal/validation"
)

const (
	// PropertyDataField is the multipart field holding the listing as JSON.
	PropertyDataField = "propertyData"
	// LegalDocumentPrefix marks multipart file parts that are legal documents.
	LegalDocumentPrefix = "legalDocument_"
	// ImageField is the multipart file part holding the listing photo.
	ImageField = "image"
)

// Submission outcomes written to the submission log.
const (
	outcomeCreated  = "created"
	outcomeRejected = "rejected"
	outcomeFailed   = "failed"
)

func init() {
	// Report binding failures by JSON name rather than Go field name.
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		v.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
			if name == "-" || name == "" {
				return fld.Name
			}
			return name
		})
	}
}

// PropertyHandler handles property listing HTTP requests.
type PropertyHandler struct {
	service     services.PropertyService
	files       *storage.FileStore
	submissions *logger.SubmissionLog
	maxBody     int64
}

// NewPropertyHandler creates a new PropertyHandler instance.
// submissions may be nil, in which case nothing is recorded. maxBody is the
// request body limit enforced by middleware.BodyLimit, reported on 413s.
func NewPropertyHandler(service services.PropertyService, files *storage.FileStore, submissions *logger.SubmissionLog, maxBody int64) *PropertyHandler {
	return &PropertyHandler{
		service:     service,
		files:       files,
		submissions: submissions,
		maxBody:     maxBody,
	}
}

// RegisterRoutes mounts the property endpoints on rg.
func (h *PropertyHandler) RegisterRoutes(rg *gin.RouterGroup) {
	properties := rg.Group("/properties")
	{
		properties.POST("", h.Submit)
		properties.POST("/", h.Submit)
		properties.GET("", h.List)
		properties.GET("/:id", h.Get)
		properties.PATCH("/:id/status", h.UpdateStatus)
	}
}

// SubmitResponse is returned when a listing is stored.
type SubmitResponse struct {
	Message       string `json:"message"`
	Timestamp     string `json:"timestamp"`
	FilesUploaded *int   `json:"files_uploaded,omitempty"`
	PropertyID    int64  `json:"property_id"`
	Success       bool   `json:"success"`
}

// PropertyResponse is returned by the single-property endpoint.
type PropertyResponse struct {
	Property  *models.Property `json:"property"`
	Timestamp string           `json:"timestamp"`
	Success   bool             `json:"success"`
}

// ListResponse is returned by the list endpoint.
type ListResponse struct {
	Properties []models.Property `json:"properties"`
	Timestamp  string            `json:"timestamp"`
	Count      int               `json:"count"`
	Success    bool              `json:"success"`
}

// StatusRequest is the body of a status change.
type StatusRequest struct {
	Status string `json:"status" binding:"required"`
}

// StatusResponse is returned after a status change.
type StatusResponse struct {
	Message    string                `json:"message"`
	Status     models.PropertyStatus `json:"status"`
	Timestamp  string                `json:"timestamp"`
	PropertyID int64                 `json:"property_id"`
	Success    bool                  `json:"success"`
}

// Submit handles POST /api/properties/.
// Multipart requests carry the listing in the propertyData field (or as
// plain form fields) plus optional legalDocument_* and image file parts.
// Any other request body is read as a JSON object.
func (h *PropertyHandler) Submit(c *gin.Context) {
	if strings.HasPrefix(c.ContentType(), "multipart/form-data") {
		h.submitMultipart(c)
		return
	}
	h.submitJSON(c)
}

func (h *PropertyHandler) submitJSON(c *gin.Context) {
	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		if h.tooLarge(c, err) {
			apierrors.PayloadTooLarge(c, h.maxBody)
			return
		}
		apierrors.BadRequest(c, "Invalid JSON data")
		return
	}

	input, err := decodeInput(body)
	if err != nil {
		h.record(c, validation.Input{}, nil, outcomeRejected, 0)
		apierrors.BadRequest(c, "Invalid JSON data")
		return
	}

	id, ok := h.create(c, input, nil)
	if !ok {
		return
	}

	c.JSON(http.StatusCreated, SubmitResponse{
		Success:    true,
		Message:    "Property submitted successfully!",
		PropertyID: id,
		Timestamp:  apierrors.Timestamp(time.Now()),
	})
}

func (h *PropertyHandler) submitMultipart(c *gin.Context) {
	form, err := c.MultipartForm()
	if err != nil {
		if h.tooLarge(c, err) {
			apierrors.PayloadTooLarge(c, h.maxBody)
			return
		}
		apierrors.BadRequest(c, "Invalid multipart form data")
		return
	}
	defer func() { _ = form.RemoveAll() }()

	input, err := formInput(form)
	if err != nil {
		h.record(c, validation.Input{}, nil, outcomeRejected, 0)
		apierrors.BadRequest(c, "Invalid JSON data")
		return
	}

	stored, err := h.saveFiles(form)
	if err != nil {
		h.discard(c, stored)
		apierrors.InternalServerError(c, "failed to store uploaded file", err)
		return
	}

	for _, f := range stored {
		if strings.HasPrefix(f.Path, storage.CategoryImages+"/") && inputString(input, validation.FieldImage) == "" {
			input[validation.FieldImage] = f.Path
		}
	}

	id, ok := h.create(c, input, stored)
	if !ok {
		h.discard(c, stored)
		return
	}

	uploaded := len(stored)
	c.JSON(http.StatusCreated, SubmitResponse{
		Success:       true,
		Message:       "Property submitted successfully! Files saved.",
		PropertyID:    id,
		FilesUploaded: &uploaded,
		Timestamp:     apierrors.Timestamp(time.Now()),
	})
}

// create stores input through the service and writes the error response
// itself when that fails.
func (h *PropertyHandler) create(c *gin.Context, input validation.Input, stored []storage.StoredFile) (int64, bool) {
	id, err := h.service.Create(c.Request.Context(), input)
	if err != nil {
		var verr *validation.Error
		if errors.As(err, &verr) {
			h.record(c, input, stored, outcomeRejected, 0)
			apierrors.ValidationFailed(c, verr)
			return 0, false
		}
		h.record(c, input, stored, outcomeFailed, 0)
		apierrors.InternalServerError(c, "failed to save property", err)
		return 0, false
	}

	h.record(c, input, stored, outcomeCreated, id)
	return id, true
}

// saveFiles stores legal documents and the image part. Part names are
// visited in sorted order so stored paths are deterministic.
func (h *PropertyHandler) saveFiles(form *multipart.Form) ([]storage.StoredFile, error) {
	keys := make([]string, 0, len(form.File))
	for key := range form.File {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	var stored []storage.StoredFile
	for _, key := range keys {
		var category string
		switch {
		case strings.HasPrefix(key, LegalDocumentPrefix):
			category = storage.CategoryLegalDocuments
		case key == ImageField:
			category = storage.CategoryImages
		default:
			continue
		}

		for _, fh := range form.File[key] {
			saved, err := h.saveFile(category, fh)
			if err != nil {
				return stored, err
			}
			stored = append(stored, *saved)
		}
	}
	return stored, nil
}

func (h *PropertyHandler) saveFile(category string, fh *multipart.FileHeader) (*storage.StoredFile, error) {
	src, err := fh.Open()
	if err != nil {
		return nil, err
	}
	defer src.Close()
	return h.files.Save(category, fh.Filename, fh.Header.Get("Content-Type"), src)
}

// discard removes files saved for a submission that was not stored.
func (h *PropertyHandler) discard(c *gin.Context, stored []storage.StoredFile) {
	for _, f := range stored {
		if err := h.files.Delete(f.Path); err != nil {
			if log := middleware.GetLogger(c); log != nil {
				log.Warn("Failed to remove orphaned upload", map[string]interface{}{
					"file_path": f.Path,
					"error":     err.Error(),
				})
			}
		}
	}
}

func (h *PropertyHandler) record(c *gin.Context, input validation.Input, stored []storage.StoredFile, outcome string, id int64) {
	files := make([]logger.SubmissionFile, 0, len(stored))
	for _, f := range stored {
		files = append(files, logger.SubmissionFile{
			OriginalName: f.OriginalName,
			StoredPath:   f.Path,
			Size:         f.Size,
		})
	}

	h.submissions.Record(logger.SubmissionEntry{
		RequestID:    middleware.GetRequestID(c),
		ContentType:  c.ContentType(),
		Title:        inputString(input, validation.FieldTitle),
		Location:     inputString(input, validation.FieldLocation),
		Price:        inputString(input, validation.FieldPrice),
		ContactEmail: inputString(input, validation.FieldContactEmail),
		Outcome:      outcome,
		Files:        files,
		PropertyID:   id,
	})
}

// Get handles GET /api/properties/:id.
func (h *PropertyHandler) Get(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	property, err := h.service.Get(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, services.ErrPropertyNotFound) {
			apierrors.NotFound(c, "Property not found")
			return
		}
		apierrors.InternalServerError(c, "failed to retrieve property", err)
		return
	}

	c.JSON(http.StatusOK, PropertyResponse{
		Success:   true,
		Property:  property,
		Timestamp: apierrors.Timestamp(time.Now()),
	})
}

// List handles GET /api/properties with an optional status query parameter.
func (h *PropertyHandler) List(c *gin.Context) {
	var filter *models.PropertyStatus
	if raw := c.Query("status"); raw != "" {
		status, err := models.ParsePropertyStatus(raw)
		if err != nil {
			apierrors.ValidationFailed(c, &validation.Error{Field: "status", Message: "Invalid status: must be one of pending, approved, rejected"})
			return
		}
		filter = &status
	}

	properties, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		apierrors.InternalServerError(c, "failed to list properties", err)
		return
	}

	c.JSON(http.StatusOK, ListResponse{
		Success:    true,
		Properties: properties,
		Count:      len(properties),
		Timestamp:  apierrors.Timestamp(time.Now()),
	})
}

// UpdateStatus handles PATCH /api/properties/:id/status.
func (h *PropertyHandler) UpdateStatus(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	var req StatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			apierrors.BindingFailed(c, verrs)
			return
		}
		apierrors.BadRequest(c, "Invalid JSON data")
		return
	}

	status, err := models.ParsePropertyStatus(req.Status)
	if err != nil {
		apierrors.ValidationFailed(c, &validation.Error{Field: "status", Message: "Invalid status: must be one of pending, approved, rejected"})
		return
	}

	updated, err := h.service.UpdateStatus(c.Request.Context(), id, status)
	if err != nil {
		var verr *validation.Error
		if errors.As(err, &verr) {
			apierrors.ValidationFailed(c, verr)
			return
		}
		apierrors.InternalServerError(c, "failed to update property status", err)
		return
	}
	if !updated {
		apierrors.NotFound(c, "Property not found")
		return
	}

	c.JSON(http.StatusOK, StatusResponse{
		Success:    true,
		Message:    "Property status updated",
		PropertyID: id,
		Status:     status,
		Timestamp:  apierrors.Timestamp(time.Now()),
	})
}

func parseID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		apierrors.BadRequest(c, "Invalid property id")
		return 0, false
	}
	return id, true
}

// decodeInput parses body as a single JSON object, keeping numbers exact.
func decodeInput(body []byte) (validation.Input, error) {
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()

	var input validation.Input
	if err := dec.Decode(&input); err != nil {
		return nil, err
	}
	if dec.More() {
		return nil, errors.New("unexpected data after JSON object")
	}
	if input == nil {
		return nil, errors.New("expected a JSON object")
	}
	return input, nil
}

// formInput builds the submission from propertyData when present, otherwise
// from the plain form fields.
func formInput(form *multipart.Form) (validation.Input, error) {
	if values := form.Value[PropertyDataField]; len(values) > 0 && strings.TrimSpace(values[0]) != "" {
		return decodeInput([]byte(values[0]))
	}

	input := make(validation.Input, len(form.Value))
	for key, values := range form.Value {
		if key == PropertyDataField || len(values) == 0 {
			continue
		}
		input[key] = values[0]
	}
	return input, nil
}

func inputString(input validation.Input, key string) string {
	switch v := input[key].(type) {
	case nil:
		return ""
	case string:
		return v
	case json.Number:
		return v.String()
	default:
		b, err := json.Marshal(v)
		if err != nil {
			return ""
		}
		return string(b)
	}
}

// tooLarge reports whether reading the body failed because it crossed the
// BodyLimit. A declared Content-Length above the limit counts too, since the
// multipart reader does not promise to wrap the reader error it hit.
func (h *PropertyHandler) tooLarge(c *gin.Context, err error) bool {
	var maxErr *http.MaxBytesError
	if errors.As(err, &maxErr) {
		return true
	}
	return h.maxBody > 0 && c.Request.ContentLength > h.maxBody
}
