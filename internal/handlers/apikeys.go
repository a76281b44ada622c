// apikeys.go handles API key management endpoints.
package handlers

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/hex"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Shimizu-Technology/pdf-tools-api/internal/middleware"
	"github.com/Shimizu-Technology/pdf-tools-api/internal/models"
)

// apiKeyPrefix marks keys issued by this service.
const apiKeyPrefix = "pdf_"

// requireAdmin checks the X-Admin-Key header when an admin key is
// configured. Without one (development) key management stays open for
// bootstrapping.
func (h *Handler) requireAdmin(c *gin.Context) bool {
	if h.AdminAPIKey == "" {
		return true
	}

	providedKey := c.GetHeader("X-Admin-Key")
	if providedKey == "" {
		errorJSON(c, http.StatusUnauthorized, "unauthorized", "X-Admin-Key header is required to manage API keys")
		return false
	}
	if subtle.ConstantTimeCompare([]byte(providedKey), []byte(h.AdminAPIKey)) != 1 {
		errorJSON(c, http.StatusForbidden, "forbidden", "Invalid admin key")
		return false
	}
	return true
}

// CreateAPIKey generates a new API key.
// POST /api/v1/keys
//
// Request body:
//
//	{"name": "My App", "rate_limit": 200}
//
// Response includes the raw key. SAVE IT! It's only shown once.
func (h *Handler) CreateAPIKey(c *gin.Context) {
	if !h.requireAdmin(c) {
		return
	}

	var req models.CreateAPIKeyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		errorJSON(c, http.StatusBadRequest, "invalid_request", "name is required")
		return
	}

	// Go Pattern: crypto/rand is the cryptographically secure random source.
	// NEVER use math/rand for security-sensitive things like API keys!
	rawKey, err := generateAPIKey()
	if err != nil {
		log.Printf("❌ Failed to generate API key: %v", err)
		errorJSON(c, http.StatusInternalServerError, "generation_error", "Failed to generate API key")
		return
	}

	rateLimit := req.RateLimit
	if rateLimit <= 0 {
		rateLimit = h.DefaultRateLimit
	}

	// Create the key record with the HASH (never store the raw key)
	key := &models.APIKey{
		KeyHash:   middleware.HashAPIKey(rawKey),
		KeyPrefix: rawKey[:8] + "...", // Show first 8 chars for identification
		Name:      req.Name,
		Active:    true,
		RateLimit: rateLimit,
	}
	if user := middleware.GetUser(c); user != nil {
		key.UserID = &user.ID
	}

	if err := h.DB.CreateAPIKey(c.Request.Context(), key); err != nil {
		log.Printf("❌ Failed to create API key: %v", err)
		errorJSON(c, http.StatusInternalServerError, "database_error", "Failed to create API key")
		return
	}

	c.JSON(http.StatusCreated, models.CreateAPIKeyResponse{
		APIKey: *key,
		RawKey: rawKey,
	})
}

// ListAPIKeys returns all API keys (without the raw key values).
// GET /api/v1/keys
func (h *Handler) ListAPIKeys(c *gin.Context) {
	if !h.requireAdmin(c) {
		return
	}

	keys, err := h.DB.ListAPIKeys(c.Request.Context())
	if err != nil {
		errorJSON(c, http.StatusInternalServerError, "database_error", "Failed to list API keys")
		return
	}

	if keys == nil {
		keys = []models.APIKey{}
	}
	c.JSON(http.StatusOK, keys)
}

// RevokeAPIKey deactivates an API key.
// DELETE /api/v1/keys/:id
func (h *Handler) RevokeAPIKey(c *gin.Context) {
	if !h.requireAdmin(c) {
		return
	}

	if err := h.DB.RevokeAPIKey(c.Request.Context(), c.Param("id")); err != nil {
		errorJSON(c, http.StatusNotFound, "not_found", "API key not found")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "API key revoked"})
}

// generateAPIKey creates a cryptographically secure random API key:
// "pdf_" followed by 32 random hex characters.
func generateAPIKey() (string, error) {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return apiKeyPrefix + hex.EncodeToString(b), nil
}
