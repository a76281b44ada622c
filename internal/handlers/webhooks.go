// webhooks.go handles webhook management. Webhooks belong to the API key
// that created them and only receive that key's events.
package handlers

import (
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Shimizu-Technology/pdf-tools-api/internal/middleware"
	"github.com/Shimizu-Technology/pdf-tools-api/internal/models"
	webhookservice "github.com/Shimizu-Technology/pdf-tools-api/internal/services/webhook"
)

func requireAPIKey(c *gin.Context) *models.APIKey {
	apiKey := middleware.GetAPIKey(c)
	if apiKey == nil {
		errorJSON(c, http.StatusUnauthorized, "unauthorized", "Webhook management requires API key authentication")
	}
	return apiKey
}

// loadWebhook fetches the webhook named by :id if the caller's key owns it.
func (h *Handler) loadWebhook(c *gin.Context) (*models.Webhook, bool) {
	apiKey := requireAPIKey(c)
	if apiKey == nil {
		return nil, false
	}

	wh, err := h.DB.GetWebhook(c.Request.Context(), c.Param("id"))
	if err != nil || wh.APIKeyID != apiKey.ID {
		errorJSON(c, http.StatusNotFound, "not_found", "Webhook not found")
		return nil, false
	}
	return wh, true
}

// CreateWebhook registers a new webhook endpoint.
// POST /api/v1/webhooks
//
//	{"url": "https://example.com/hook", "events": ["translation.completed"]}
func (h *Handler) CreateWebhook(c *gin.Context) {
	apiKey := requireAPIKey(c)
	if apiKey == nil {
		return
	}

	var req models.CreateWebhookRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		errorJSON(c, http.StatusBadRequest, "invalid_request", "URL and at least one event are required")
		return
	}

	for _, event := range req.Events {
		if !models.ValidWebhookEvents[event] {
			errorJSON(c, http.StatusBadRequest, "invalid_event", "Invalid event type: "+event)
			return
		}
	}

	secret, err := webhookservice.GenerateSecret()
	if err != nil {
		log.Printf("❌ Failed to generate webhook secret: %v", err)
		errorJSON(c, http.StatusInternalServerError, "generation_error", "Failed to generate webhook secret")
		return
	}

	wh := &models.Webhook{
		APIKeyID: apiKey.ID,
		URL:      req.URL,
		Events:   req.Events,
		Secret:   secret,
		Active:   true,
	}
	if err := h.DB.CreateWebhook(c.Request.Context(), wh); err != nil {
		log.Printf("❌ Failed to create webhook: %v", err)
		errorJSON(c, http.StatusInternalServerError, "database_error", "Failed to create webhook")
		return
	}

	// The secret is only shown once, like API keys
	c.JSON(http.StatusCreated, gin.H{
		"id":               wh.ID,
		"url":              wh.URL,
		"events":           wh.Events,
		"secret":           secret,
		"signature_header": webhookservice.SignatureHeader,
		"active":           wh.Active,
		"created_at":       wh.CreatedAt,
	})
}

// ListWebhooks returns all webhooks for the authenticated API key.
// GET /api/v1/webhooks
func (h *Handler) ListWebhooks(c *gin.Context) {
	apiKey := requireAPIKey(c)
	if apiKey == nil {
		return
	}

	webhooks, err := h.DB.ListWebhooksByAPIKey(c.Request.Context(), apiKey.ID)
	if err != nil {
		errorJSON(c, http.StatusInternalServerError, "database_error", "Failed to list webhooks")
		return
	}

	if webhooks == nil {
		webhooks = []models.Webhook{}
	}
	c.JSON(http.StatusOK, webhooks)
}

// UpdateWebhook toggles a webhook's active state.
// PATCH /api/v1/webhooks/:id
func (h *Handler) UpdateWebhook(c *gin.Context) {
	var req models.UpdateWebhookRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Active == nil {
		errorJSON(c, http.StatusBadRequest, "invalid_request", "active field is required (true/false)")
		return
	}

	wh, ok := h.loadWebhook(c)
	if !ok {
		return
	}

	if err := h.DB.UpdateWebhookActive(c.Request.Context(), wh.ID, *req.Active); err != nil {
		errorJSON(c, http.StatusNotFound, "not_found", "Webhook not found")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Webhook updated", "active": *req.Active})
}

// DeleteWebhook removes a webhook.
// DELETE /api/v1/webhooks/:id
func (h *Handler) DeleteWebhook(c *gin.Context) {
	wh, ok := h.loadWebhook(c)
	if !ok {
		return
	}

	if err := h.DB.DeleteWebhook(c.Request.Context(), wh.ID); err != nil {
		errorJSON(c, http.StatusNotFound, "not_found", "Webhook not found")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Webhook deleted"})
}

// ListWebhookDeliveries returns recent delivery attempts for the authenticated API key.
// GET /api/v1/webhooks/deliveries
func (h *Handler) ListWebhookDeliveries(c *gin.Context) {
	apiKey := requireAPIKey(c)
	if apiKey == nil {
		return
	}

	deliveries, err := h.DB.ListAllDeliveriesByAPIKey(c.Request.Context(), apiKey.ID, 50)
	if err != nil {
		errorJSON(c, http.StatusInternalServerError, "database_error", "Failed to list deliveries")
		return
	}

	if deliveries == nil {
		deliveries = []models.WebhookDelivery{}
	}
	c.JSON(http.StatusOK, deliveries)
}
