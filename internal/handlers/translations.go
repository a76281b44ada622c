// translations.go handles document translation jobs.
package handlers

import (
	"context"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/Shimizu-Technology/pdf-tools-api/internal/models"
	"github.com/Shimizu-Technology/pdf-tools-api/internal/services/translate"
	"github.com/Shimizu-Technology/pdf-tools-api/internal/services/worker"
)

// CreateTranslation queues a translation of a stored document.
// POST /api/v1/documents/:id/translations
//
// Request body:
//
//	{"target_lang": "pt", "source_lang": "en", "backend": "llm"}
//
// Response: The created translation record (status will be "pending").
// Poll GET /translations/:id, or subscribe to translation.completed.
func (h *Handler) CreateTranslation(c *gin.Context) {
	var req models.CreateTranslationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		errorJSON(c, http.StatusBadRequest, "invalid_request", "Provide 'target_lang' in the request body")
		return
	}

	target, err := translate.NormalizeLanguage(req.TargetLang)
	if err != nil || target == translate.AutoDetect {
		errorJSON(c, http.StatusBadRequest, "invalid_language", "target_lang must be a language code such as 'en' or 'pt'")
		return
	}
	source := translate.AutoDetect
	if req.SourceLang != "" {
		if source, err = translate.NormalizeLanguage(req.SourceLang); err != nil {
			errorJSON(c, http.StatusBadRequest, "invalid_language", err.Error())
			return
		}
	}
	if source == target {
		errorJSON(c, http.StatusBadRequest, "invalid_language", "source_lang and target_lang are the same")
		return
	}

	backend := req.Backend
	if backend == "" {
		backend = h.DefaultBackend
	}
	if _, ok := h.Translators[backend]; !ok {
		errorJSON(c, http.StatusBadRequest, "invalid_backend", "Unknown backend '"+backend+"'; use 'http' or 'llm'")
		return
	}

	doc, ok := h.loadDocument(c, false)
	if !ok {
		return
	}

	// Create a new translation record with "pending" status
	t := &models.Translation{
		DocumentID: doc.ID,
		SourceLang: source,
		TargetLang: target,
		Backend:    backend,
		Status:     models.StatusPending,
		APIKeyID:   apiKeyID(c),
	}
	ctx := c.Request.Context()
	if err := h.DB.CreateTranslation(ctx, t); err != nil {
		log.Printf("❌ Failed to create translation record: %v", err)
		errorJSON(c, http.StatusInternalServerError, "database_error", "Failed to create translation record")
		return
	}

	// Go Pattern: We respond immediately with the pending record and process
	// in the background. The client polls GET /translations/:id for status.
	job := worker.Job{
		ID:        t.ID,
		Type:      worker.JobTranslation,
		CreatedAt: time.Now(),
	}

	if err := h.submit(c, job); err != nil {
		log.Printf("⚠️  Failed to queue translation job: %v", err)
		t.Status = models.StatusFailed
		t.ErrorMessage = err.Error()
		if err := h.DB.UpdateTranslation(context.WithoutCancel(ctx), t); err != nil {
			log.Printf("⚠️  Failed to mark translation %s as failed: %v", t.ID, err)
		}
		errorJSON(c, http.StatusServiceUnavailable, "queue_full", "The translation queue is full; try again later")
		return
	}

	// 202 Accepted: the work happens in the background
	c.JSON(http.StatusAccepted, t)
}

// submit queues a job. The owner key waits briefly for space instead of
// failing on a full queue.
func (h *Handler) submit(c *gin.Context, job worker.Job) error {
	err := h.Worker.Submit(job)
	if err == nil || !h.isOwnerRequest(c) {
		return err
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 15*time.Second)
	defer cancel()
	return h.Worker.SubmitBlocking(ctx, job)
}

// loadTranslation fetches the translation named by :id.
func (h *Handler) loadTranslation(c *gin.Context) (*models.Translation, bool) {
	t, err := h.DB.GetTranslation(c.Request.Context(), c.Param("id"))
	if err != nil || !h.canAccess(c, t.APIKeyID) {
		errorJSON(c, http.StatusNotFound, "not_found", "Translation not found")
		return nil, false
	}
	return t, true
}

// GetTranslation retrieves a single translation by ID, including the
// source and translated text once available.
// GET /api/v1/translations/:id
func (h *Handler) GetTranslation(c *gin.Context) {
	t, ok := h.loadTranslation(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, t)
}

// ListTranslations returns recent translations for the caller.
// GET /api/v1/translations?limit=20
func (h *Handler) ListTranslations(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))

	var owner *string
	if !h.isOwnerRequest(c) {
		owner = apiKeyID(c)
	}

	translations, err := h.DB.ListTranslations(c.Request.Context(), limit, owner)
	if err != nil {
		log.Printf("Failed to list translations: %v", err)
		errorJSON(c, http.StatusInternalServerError, "database_error", "Failed to list translations")
		return
	}

	if translations == nil {
		translations = []models.Translation{}
	}
	c.JSON(http.StatusOK, translations)
}
