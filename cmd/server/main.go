package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stwalsh4118/listings/api/internal/config"
	"github.com/stwalsh4118/listings/api/internal/database"
	"github.com/stwalsh4118/listings/api/internal/handlers"
	"github.com/stwalsh4118/listings/api/internal/logger"
	"github.com/stwalsh4118/listings/api/internal/middleware"
	"github.com/stwalsh4118/listings/api/internal/repository"
	"github.com/stwalsh4118/listings/api/internal/services"
	"github.com/stwalsh4118/listings/api/internal/storage"
	"github.com/stwalsh4118/listings/api/internal/validation"
)

const (
	shutdownTimeout = 30 * time.Second
)

func main() {
	// Load configuration from environment variables
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize structured logger
	log := logger.New(cfg.Server.Env)
	log.Info("Starting Listings API", map[string]interface{}{
		"version":     handlers.APIVersion,
		"environment": cfg.Server.Env,
		"port":        cfg.Server.Port,
	})

	// Open the property store
	ctx := context.Background()
	db, err := database.Open(ctx, cfg.Database)
	if err != nil {
		log.Fatal("Failed to open database", err, map[string]interface{}{
			"driver": cfg.Database.Driver,
		})
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Failed to close database", err, nil)
		}
	}()

	log.Info("Database connection established", storeFields(cfg.Database))

	files, err := storage.NewFileStore(cfg.Uploads.Dir)
	if err != nil {
		log.Fatal("Failed to prepare upload directory", err, map[string]interface{}{
			"dir": cfg.Uploads.Dir,
		})
	}

	submissions, err := logger.OpenSubmissionLog(cfg.Logging.SubmissionLogPath)
	if err != nil {
		log.Fatal("Failed to open submission log", err, map[string]interface{}{
			"path": cfg.Logging.SubmissionLogPath,
		})
	}
	defer func() {
		if err := submissions.Close(); err != nil {
			log.Error("Failed to close submission log", err, nil)
		}
	}()

	validator, err := validation.New(nil)
	if err != nil {
		log.Fatal("Failed to build validator", err, nil)
	}

	// Initialize repository and service layers
	propertyRepo, err := repository.New(db)
	if err != nil {
		log.Fatal("Failed to build property repository", err, storeFields(cfg.Database))
	}
	propertyService := services.NewPropertyService(propertyRepo, validator, log)

	// Setup Gin router
	if cfg.Server.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()

	// Add middleware in order: RequestID -> Logger -> Recovery -> CORS -> BodyLimit
	router.Use(middleware.RequestID())
	router.Use(middleware.Logger(log))
	router.Use(middleware.Recovery(log))
	router.Use(middleware.CORS(cfg.CORS.Origins))
	router.Use(middleware.BodyLimit(cfg.Uploads.MaxBodySize))

	// Register health check routes
	healthHandler := handlers.NewHealthHandler(db, files.BasePath(), cfg.Server.Env)
	healthHandler.RegisterRoutes(router)

	// Register property routes
	propertyHandler := handlers.NewPropertyHandler(propertyService, files, submissions, cfg.Uploads.MaxBodySize)
	propertyHandler.RegisterRoutes(router.Group("/api"))

	// Create HTTP server
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%s", cfg.Server.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Start server in goroutine
	go func() {
		log.Info("Server listening", map[string]interface{}{
			"port": cfg.Server.Port,
			"addr": srv.Addr,
		})
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("Server failed to start", err, nil)
		}
	}()

	// Wait for interrupt signal (SIGINT or SIGTERM)
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	// Graceful shutdown
	log.Info("Shutting down server...", nil)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", err, map[string]interface{}{
			"timeout": shutdownTimeout.String(),
		})
	}

	log.Info("Server exited", nil)
}

func storeFields(cfg config.DatabaseConfig) map[string]interface{} {
	if cfg.Driver == config.DriverPostgres {
		return map[string]interface{}{
			"driver":   cfg.Driver,
			"host":     cfg.Host,
			"port":     cfg.Port,
			"database": cfg.Name,
			"pool_min": cfg.PoolMin,
			"pool_max": cfg.PoolMax,
		}
	}
	return map[string]interface{}{
		"driver": cfg.Driver,
		"path":   cfg.Path,
	}
}
