// workspace.go handles a logged-in user's workspace: documents and
// translations pinned for quick access.
package handlers

import (
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Shimizu-Technology/pdf-tools-api/internal/middleware"
	"github.com/Shimizu-Technology/pdf-tools-api/internal/models"
)

// Workspace item types.
const (
	itemDocument    = "document"
	itemTranslation = "translation"
)

// GetWorkspace returns the authenticated user's saved workspace items.
// GET /api/v1/workspace
func (h *Handler) GetWorkspace(c *gin.Context) {
	user := middleware.GetUser(c)
	if user == nil {
		errorJSON(c, http.StatusUnauthorized, "unauthorized", "Login required to access workspace")
		return
	}

	ctx := c.Request.Context()
	docs, err := h.DB.GetWorkspaceDocuments(ctx, user.ID)
	if err != nil {
		log.Printf("Failed to get workspace documents: %v", err)
	}
	if docs == nil {
		docs = []models.Document{}
	}
	for i := range docs {
		present(&docs[i])
	}

	translations, err := h.DB.GetWorkspaceTranslations(ctx, user.ID)
	if err != nil {
		log.Printf("Failed to get workspace translations: %v", err)
	}
	if translations == nil {
		translations = []models.Translation{}
	}

	c.JSON(http.StatusOK, models.WorkspaceResponse{
		Documents:    docs,
		Translations: translations,
	})
}

// SaveToWorkspace pins a document or translation.
// POST /api/v1/workspace
func (h *Handler) SaveToWorkspace(c *gin.Context) {
	user := middleware.GetUser(c)
	if user == nil {
		errorJSON(c, http.StatusUnauthorized, "unauthorized", "Login required to save to workspace")
		return
	}

	var req models.SaveToWorkspaceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		errorJSON(c, http.StatusBadRequest, "invalid_request", "item_type and item_id are required")
		return
	}

	// The item must exist before it can be pinned
	ctx := c.Request.Context()
	var err error
	switch req.ItemType {
	case itemDocument:
		_, err = h.DB.GetDocument(ctx, req.ItemID)
	case itemTranslation:
		_, err = h.DB.GetTranslation(ctx, req.ItemID)
	default:
		errorJSON(c, http.StatusBadRequest, "invalid_type", "item_type must be 'document' or 'translation'")
		return
	}
	if err != nil {
		errorJSON(c, http.StatusNotFound, "not_found", "No "+req.ItemType+" with that id")
		return
	}

	item := &models.WorkspaceItem{
		UserID:   user.ID,
		ItemType: req.ItemType,
		ItemID:   req.ItemID,
	}

	if err := h.DB.SaveWorkspaceItem(ctx, item); err != nil {
		// ON CONFLICT DO NOTHING: the item may already be pinned
		c.JSON(http.StatusOK, gin.H{"message": "Item saved to workspace"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"message": "Item saved to workspace", "id": item.ID})
}

// RemoveFromWorkspace unpins an item.
// DELETE /api/v1/workspace/:type/:id
func (h *Handler) RemoveFromWorkspace(c *gin.Context) {
	user := middleware.GetUser(c)
	if user == nil {
		errorJSON(c, http.StatusUnauthorized, "unauthorized", "Login required")
		return
	}

	itemType := c.Param("type")
	if itemType != itemDocument && itemType != itemTranslation {
		errorJSON(c, http.StatusBadRequest, "invalid_type", "item type must be 'document' or 'translation'")
		return
	}

	if err := h.DB.RemoveWorkspaceItem(c.Request.Context(), user.ID, itemType, c.Param("id")); err != nil {
		errorJSON(c, http.StatusInternalServerError, "database_error", "Failed to remove item")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Item removed from workspace"})
}
