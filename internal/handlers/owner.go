package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/Shimizu-Technology/pdf-tools-api/internal/middleware"
)

// isOwnerRequest returns true when the authenticated API key is configured
// as the owner override. The owner skips the queue cap and sees every
// key's documents and translations.
func (h *Handler) isOwnerRequest(c *gin.Context) bool {
	apiKey := middleware.GetAPIKey(c)
	return middleware.IsOwnerAPIKey(apiKey, h.OwnerAPIKeyID, h.OwnerAPIKeyPrefix)
}
