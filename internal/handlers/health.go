package handlers

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stwalsh4118/listings/api/internal/database"
	apierrors "github.com/stwalsh4118/listings/api/internal/errors"
	"github.com/stwalsh4118/listings/api/internal/middleware"
)

const (
	// APIVersion is reported by /api/v1/info.
	APIVersion = "1.0.0"
	// HealthCheckTimeout bounds the store ping of a readiness check.
	HealthCheckTimeout = 2 * time.Second
)

// Readiness check names and results.
const (
	CheckDatabase = "database"
	CheckUploads  = "uploads"

	CheckOK          = "ok"
	CheckUnavailable = "unavailable"
)

// HealthHandler serves liveness, readiness and build information.
type HealthHandler struct {
	db        database.Database
	uploadDir string
	startTime time.Time
	env       string
}

// NewHealthHandler reports on db and on the upload directory submissions
// are written to.
func NewHealthHandler(db database.Database, uploadDir, env string) *HealthHandler {
	return &HealthHandler{
		db:        db,
		uploadDir: uploadDir,
		startTime: time.Now(),
		env:       env,
	}
}

// RegisterRoutes mounts the health endpoints on router.
func (h *HealthHandler) RegisterRoutes(router gin.IRouter) {
	router.GET("/health", h.Health)
	router.GET("/health/ready", h.Ready)
	router.GET("/api/v1/info", h.Info)
}

// HealthResponse is the liveness body.
type HealthResponse struct {
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
	Success   bool   `json:"success"`
}

// ReadyResponse lists each readiness check and its result.
type ReadyResponse struct {
	Checks    map[string]string `json:"checks"`
	Status    string            `json:"status"`
	Driver    string            `json:"driver,omitempty"`
	Timestamp string            `json:"timestamp"`
	Success   bool              `json:"success"`
}

// InfoResponse describes the running API.
type InfoResponse struct {
	Version     string `json:"version"`
	Environment string `json:"environment"`
	Uptime      string `json:"uptime"`
	Database    string `json:"database"`
	Timestamp   string `json:"timestamp"`
	Success     bool   `json:"success"`
}

// Health always answers 200; it touches no dependency.
func (h *HealthHandler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, HealthResponse{
		Status:    "healthy",
		Timestamp: apierrors.Timestamp(time.Now()),
		Success:   true,
	})
}

// Ready answers 200 only when the store answers a ping and the upload
// directory accepts new files. Otherwise 503, with the failing checks marked.
func (h *HealthHandler) Ready(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), HealthCheckTimeout)
	defer cancel()

	checks := map[string]string{
		CheckDatabase: h.checkDatabase(ctx, c),
		CheckUploads:  h.checkUploads(c),
	}

	ready := true
	for _, result := range checks {
		if result != CheckOK {
			ready = false
		}
	}

	response := ReadyResponse{
		Checks:    checks,
		Status:    "ready",
		Timestamp: apierrors.Timestamp(time.Now()),
		Success:   ready,
	}
	if h.db != nil {
		response.Driver = h.db.Driver()
	}

	if !ready {
		response.Status = "not_ready"
		c.JSON(http.StatusServiceUnavailable, response)
		return
	}
	c.JSON(http.StatusOK, response)
}

func (h *HealthHandler) checkDatabase(ctx context.Context, c *gin.Context) string {
	if h.db == nil {
		return CheckUnavailable
	}
	if err := h.db.Ping(ctx); err != nil {
		h.logCheckFailure(c, CheckDatabase, err)
		return CheckUnavailable
	}
	return CheckOK
}

// checkUploads passes only if a scratch file can be created in the upload
// directory.
func (h *HealthHandler) checkUploads(c *gin.Context) string {
	if h.uploadDir == "" {
		return CheckUnavailable
	}
	f, err := os.CreateTemp(h.uploadDir, ".ready-*")
	if err != nil {
		h.logCheckFailure(c, CheckUploads, err)
		return CheckUnavailable
	}
	name := f.Name()
	_ = f.Close()
	_ = os.Remove(name)
	return CheckOK
}

func (h *HealthHandler) logCheckFailure(c *gin.Context, check string, err error) {
	if log := middleware.GetLogger(c); log != nil {
		log.Error("Readiness check failed", err, map[string]interface{}{
			"check":   check,
			"timeout": HealthCheckTimeout.String(),
		})
	}
}

// Info handles GET /api/v1/info.
func (h *HealthHandler) Info(c *gin.Context) {
	driver := ""
	if h.db != nil {
		driver = h.db.Driver()
	}

	c.JSON(http.StatusOK, InfoResponse{
		Version:     APIVersion,
		Environment: h.env,
		Uptime:      formatUptime(time.Since(h.startTime)),
		Database:    driver,
		Timestamp:   apierrors.Timestamp(time.Now()),
		Success:     true,
	})
}

func formatUptime(d time.Duration) string {
	days := int(d.Hours() / 24)
	hours := int(d.Hours()) % 24
	minutes := int(d.Minutes()) % 60
	seconds := int(d.Seconds()) % 60

	if days > 0 {
		return fmt.Sprintf("%dd %dh %dm %ds", days, hours, minutes, seconds)
	}
	return fmt.Sprintf("%dh %dm %ds", hours, minutes, seconds)
}
