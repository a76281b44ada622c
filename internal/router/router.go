// Package router sets up all HTTP routes for the API.
package router

import (
	"github.com/gin-gonic/gin"

	"github.com/Shimizu-Technology/pdf-tools-api/internal/config"
	"github.com/Shimizu-Technology/pdf-tools-api/internal/database"
	"github.com/Shimizu-Technology/pdf-tools-api/internal/handlers"
	"github.com/Shimizu-Technology/pdf-tools-api/internal/middleware"
	"github.com/Shimizu-Technology/pdf-tools-api/internal/services/preview"
	"github.com/Shimizu-Technology/pdf-tools-api/internal/services/translate"
	"github.com/Shimizu-Technology/pdf-tools-api/internal/services/webhook"
	"github.com/Shimizu-Technology/pdf-tools-api/internal/services/worker"
)

// Setup creates and configures the Gin router with all routes.
func Setup(
	db *database.DB,
	wp *worker.Pool,
	ws *webhook.Service,
	renderer preview.Renderer,
	translators map[string]translate.Translator,
	rateLimiter *middleware.RateLimiter,
	cfg *config.Config,
) *gin.Engine {
	r := gin.New()
	r.Use(middleware.RequestID(), middleware.AccessLog(), gin.Recovery())
	r.Use(middleware.CORS(cfg.AllowedOrigins))
	// Multipart parts beyond this are spooled to disk instead of memory
	r.MaxMultipartMemory = 32 << 20

	h := handlers.NewHandler(db, wp, ws, renderer, translators, cfg)

	// --- Public Routes (no auth required) ---
	r.GET("/api/v1/health", h.HealthCheck)
	r.POST("/api/v1/keys", h.CreateAPIKey)

	r.GET("/api/docs", h.ServeSwaggerUI)
	r.GET("/api/docs/openapi.yaml", h.ServeOpenAPISpec)

	r.POST("/api/v1/auth/register", h.Register)
	r.POST("/api/v1/auth/login", h.Login)

	// --- JWT-protected routes ---
	jwtProtected := r.Group("/api/v1")
	jwtProtected.Use(middleware.JWTAuth(db, cfg.JWTSecret))
	{
		jwtProtected.GET("/auth/me", h.GetMe)
		jwtProtected.POST("/auth/refresh", h.RefreshToken)
		jwtProtected.GET("/workspace", h.GetWorkspace)
		jwtProtected.POST("/workspace", h.SaveToWorkspace)
		jwtProtected.DELETE("/workspace/:type/:id", h.RemoveFromWorkspace)
	}

	// --- Protected Routes (API key OR JWT) ---
	protected := r.Group("/api/v1")
	protected.Use(middleware.DualAuth(db, cfg.JWTSecret))
	protected.Use(rateLimiter.RateLimit())
	{
		// Stateless tools: upload, get the result back
		protected.POST("/pdf/merge", h.MergePDFs)
		protected.POST("/pdf/organize", h.OrganizePDF)
		protected.POST("/pdf/annotate", h.AnnotatePDF)
		protected.POST("/pdf/extract", h.ExtractPDF)

		// Stored documents
		protected.POST("/documents", h.UploadDocument)
		protected.GET("/documents", h.ListDocuments)
		protected.POST("/documents/merge", h.MergeDocuments)
		protected.GET("/documents/:id", h.GetDocument)
		protected.DELETE("/documents/:id", h.DeleteDocument)
		protected.GET("/documents/:id/download", h.DownloadDocument)
		protected.GET("/documents/:id/pages", h.GetPageLayout)
		protected.GET("/documents/:id/pages/:page/preview", h.PreviewPage)
		protected.GET("/documents/:id/text", h.GetDocumentText)
		protected.GET("/documents/:id/text/export", h.ExportDocumentText)

		// Annotation editor
		protected.POST("/documents/:id/annotations", h.CreateAnnotation)
		protected.GET("/documents/:id/annotations", h.ListAnnotations)

		// Page organizer
		protected.POST("/documents/:id/organize", h.CreateOrganizeSession)
		protected.GET("/organize/:id", h.GetOrganizeSession)
		protected.POST("/organize/:id/toggle", h.TogglePage)
		protected.POST("/organize/:id/move", h.MovePage)
		protected.POST("/organize/:id/select-all", h.SelectAllPages)
		protected.POST("/organize/:id/clear", h.ClearSelection)
		protected.POST("/organize/:id/save", h.SaveOrganizeSession)

		// Translation
		protected.POST("/documents/:id/translations", h.CreateTranslation)
		protected.GET("/translations", h.ListTranslations)
		protected.GET("/translations/:id", h.GetTranslation)
		protected.GET("/translations/:id/export", h.ExportTranslation)

		// API key management
		protected.GET("/keys", h.ListAPIKeys)
		protected.DELETE("/keys/:id", h.RevokeAPIKey)

		// Webhook management
		protected.POST("/webhooks", h.CreateWebhook)
		protected.GET("/webhooks", h.ListWebhooks)
		protected.GET("/webhooks/deliveries", h.ListWebhookDeliveries)
		protected.PATCH("/webhooks/:id", h.UpdateWebhook)
		protected.DELETE("/webhooks/:id", h.DeleteWebhook)
	}

	return r
}
