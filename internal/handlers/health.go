// Package handlers contains HTTP handler functions for the API.
//
// Go Pattern: Handlers in Gin receive a *gin.Context which provides:
// - Request data (params, query, body, headers)
// - Response methods (JSON, String, Status)
// - Middleware data (c.Get/c.Set)
//
// We group related handlers into a struct (Handler) that holds shared dependencies.
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Shimizu-Technology/pdf-tools-api/internal/config"
	"github.com/Shimizu-Technology/pdf-tools-api/internal/database"
	"github.com/Shimizu-Technology/pdf-tools-api/internal/models"
	"github.com/Shimizu-Technology/pdf-tools-api/internal/services/preview"
	"github.com/Shimizu-Technology/pdf-tools-api/internal/services/translate"
	"github.com/Shimizu-Technology/pdf-tools-api/internal/services/webhook"
	"github.com/Shimizu-Technology/pdf-tools-api/internal/services/worker"
)

// Handler holds shared dependencies for all HTTP handlers.
// Go Pattern: Dependency injection via struct fields. Instead of global
// variables or service locators, we pass dependencies explicitly.
// The stateless /pdf/* tools only need MaxUploadBytes, so tests can build
// a bare Handler for them.
type Handler struct {
	DB          *database.DB
	Worker      *worker.Pool
	Webhooks    *webhook.Service
	Renderer    preview.Renderer
	Translators map[string]translate.Translator

	DefaultBackend   string
	DefaultRateLimit int
	MaxUploadBytes   int64

	JWTSecret         string
	AdminAPIKey       string
	OwnerAPIKeyID     string
	OwnerAPIKeyPrefix string
}

// NewHandler creates a new handler with all dependencies.
func NewHandler(
	db *database.DB,
	wp *worker.Pool,
	ws *webhook.Service,
	renderer preview.Renderer,
	translators map[string]translate.Translator,
	cfg *config.Config,
) *Handler {
	return &Handler{
		DB:                db,
		Worker:            wp,
		Webhooks:          ws,
		Renderer:          renderer,
		Translators:       translators,
		DefaultBackend:    cfg.TranslateBackend,
		DefaultRateLimit:  cfg.DefaultRateLimit,
		MaxUploadBytes:    cfg.MaxUploadBytes(),
		JWTSecret:         cfg.JWTSecret,
		AdminAPIKey:       cfg.AdminAPIKey,
		OwnerAPIKeyID:     cfg.OwnerAPIKeyID,
		OwnerAPIKeyPrefix: cfg.OwnerAPIKeyPrefix,
	}
}

// HealthCheck returns the API health status.
// GET /api/v1/health
func (h *Handler) HealthCheck(c *gin.Context) {
	// Check database connectivity
	dbStatus := "healthy"
	if err := h.DB.HealthCheck(c.Request.Context()); err != nil {
		dbStatus = "unhealthy: " + err.Error()
	}

	c.JSON(http.StatusOK, models.HealthResponse{
		Status:     "ok",
		Version:    "1.0.0",
		Database:   dbStatus,
		Workers:    h.Worker.WorkerCount(),
		QueueDepth: h.Worker.QueueSize(),
		Previews:   h.Renderer != nil && h.Renderer.Available(),
		Translate:  h.DefaultBackend,
	})
}
