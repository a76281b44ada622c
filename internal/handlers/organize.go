// organize.go handles page organize sessions: reorder pages, pick which to
// keep, then save the result as a new document.
//
// POST /api/v1/documents/:id/organize  Start a session
// GET  /api/v1/organize/:id            Current order and selection
// POST /api/v1/organize/:id/toggle     Toggle one page
// POST /api/v1/organize/:id/move       Drag one page onto another
// POST /api/v1/organize/:id/select-all Select every page
// POST /api/v1/organize/:id/clear      Deselect every page
// POST /api/v1/organize/:id/save       Save selected pages as a new document
package handlers

import (
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Shimizu-Technology/pdf-tools-api/internal/models"
	"github.com/Shimizu-Technology/pdf-tools-api/internal/services/organize"
	pdfservice "github.com/Shimizu-Technology/pdf-tools-api/internal/services/pdf"
)

func sessionResponse(s *models.OrganizeSession, sel *organize.Selection) models.OrganizeSessionResponse {
	s.PageOrder = sel.Order()
	s.Selected = sel.Selected()

	pages := make([]models.OrganizePage, 0, len(s.PageOrder))
	for _, i := range s.PageOrder {
		pages = append(pages, models.OrganizePage{Index: i, Selected: sel.IsSelected(i)})
	}

	return models.OrganizeSessionResponse{
		OrganizeSession: *s,
		Pages:           pages,
		SelectedCount:   sel.Count(),
		CanSave:         sel.CanSave(),
	}
}

// loadSession fetches the session named by :id with its document metadata.
func (h *Handler) loadSession(c *gin.Context) (*models.OrganizeSession, *models.Document, *organize.Selection, bool) {
	ctx := c.Request.Context()

	s, err := h.DB.GetOrganizeSession(ctx, c.Param("id"))
	if err != nil {
		errorJSON(c, http.StatusNotFound, "not_found", "Organize session not found")
		return nil, nil, nil, false
	}

	doc, err := h.DB.GetDocument(ctx, s.DocumentID)
	if err != nil || !h.canAccess(c, doc.APIKeyID) {
		errorJSON(c, http.StatusNotFound, "not_found", "Organize session not found")
		return nil, nil, nil, false
	}

	sel, err := organize.Restore(doc.PageCount, s.PageOrder, s.Selected)
	if err != nil {
		log.Printf("⚠️  Organize session %s is inconsistent: %v", s.ID, err)
		errorJSON(c, http.StatusConflict, "invalid_state", err.Error())
		return nil, nil, nil, false
	}
	return s, doc, sel, true
}

// saveSession writes the selection back and returns the session.
func (h *Handler) saveSession(c *gin.Context, s *models.OrganizeSession, sel *organize.Selection) {
	resp := sessionResponse(s, sel)
	if err := h.DB.UpdateOrganizeSession(c.Request.Context(), s); err != nil {
		log.Printf("Failed to update organize session %s: %v", s.ID, err)
		errorJSON(c, http.StatusInternalServerError, "database_error", "Failed to update organize session")
		return
	}
	resp.UpdatedAt = s.UpdatedAt
	c.JSON(http.StatusOK, resp)
}

func selectionError(c *gin.Context, err error) {
	if errors.Is(err, organize.ErrPageOutOfRange) {
		errorJSON(c, http.StatusBadRequest, "page_out_of_range", err.Error())
		return
	}
	errorJSON(c, http.StatusBadRequest, "invalid_request", err.Error())
}

// CreateOrganizeSession starts a session with every page selected in
// natural order.
// POST /api/v1/documents/:id/organize
func (h *Handler) CreateOrganizeSession(c *gin.Context) {
	doc, ok := h.loadDocument(c, false)
	if !ok {
		return
	}
	if doc.PageCount < 1 {
		errorJSON(c, http.StatusBadRequest, "empty_document", "Document has no pages to organize")
		return
	}

	sel := organize.NewSelection(doc.PageCount)
	s := &models.OrganizeSession{
		DocumentID: doc.ID,
		PageOrder:  sel.Order(),
		Selected:   sel.Selected(),
	}
	if err := h.DB.CreateOrganizeSession(c.Request.Context(), s); err != nil {
		log.Printf("Failed to create organize session for %s: %v", doc.ID, err)
		errorJSON(c, http.StatusInternalServerError, "database_error", "Failed to create organize session")
		return
	}

	c.JSON(http.StatusCreated, sessionResponse(s, sel))
}

// GetOrganizeSession returns a session.
// GET /api/v1/organize/:id
func (h *Handler) GetOrganizeSession(c *gin.Context) {
	s, _, sel, ok := h.loadSession(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, sessionResponse(s, sel))
}

// TogglePage flips one page in or out of the selection.
// POST /api/v1/organize/:id/toggle
func (h *Handler) TogglePage(c *gin.Context) {
	var req models.OrganizeTogglePageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		errorJSON(c, http.StatusBadRequest, "invalid_request", "Provide the 0-based page to toggle: "+err.Error())
		return
	}

	s, _, sel, ok := h.loadSession(c)
	if !ok {
		return
	}
	if _, err := sel.Toggle(*req.Page); err != nil {
		selectionError(c, err)
		return
	}
	h.saveSession(c, s, sel)
}

// MovePage drops page From right after page To in the display order.
// POST /api/v1/organize/:id/move
func (h *Handler) MovePage(c *gin.Context) {
	var req models.OrganizeMovePageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		errorJSON(c, http.StatusBadRequest, "invalid_request", "Provide 0-based from and to pages: "+err.Error())
		return
	}

	s, _, sel, ok := h.loadSession(c)
	if !ok {
		return
	}
	if err := sel.Move(*req.From, *req.To); err != nil {
		selectionError(c, err)
		return
	}
	h.saveSession(c, s, sel)
}

// SelectAllPages selects every page.
// POST /api/v1/organize/:id/select-all
func (h *Handler) SelectAllPages(c *gin.Context) {
	s, _, sel, ok := h.loadSession(c)
	if !ok {
		return
	}
	sel.SelectAll()
	h.saveSession(c, s, sel)
}

// ClearSelection deselects every page.
// POST /api/v1/organize/:id/clear
func (h *Handler) ClearSelection(c *gin.Context) {
	s, _, sel, ok := h.loadSession(c)
	if !ok {
		return
	}
	sel.Clear()
	h.saveSession(c, s, sel)
}

// SaveOrganizeSession builds a new document from the selected pages in
// display order. The session stays open for further edits.
// POST /api/v1/organize/:id/save
func (h *Handler) SaveOrganizeSession(c *gin.Context) {
	s, doc, sel, ok := h.loadSession(c)
	if !ok {
		return
	}
	if !sel.CanSave() {
		errorJSON(c, http.StatusBadRequest, "empty_selection", pdfservice.ErrEmptySelection.Error())
		return
	}

	source, err := h.DB.GetDocumentWithData(c.Request.Context(), doc.ID)
	if err != nil {
		errorJSON(c, http.StatusNotFound, "not_found", "Document not found")
		return
	}

	out, err := pdfservice.Collect(source.Data, sel.Selected(), sel.Len())
	if err != nil {
		pdfError(c, err)
		return
	}

	name := exportBaseName(doc.OriginalName, "document") + "_organized.pdf"
	result, err := h.storeDerived(c, out, name, models.KindOrganized, &doc.ID)
	if err != nil {
		log.Printf("Failed to store organized document for session %s: %v", s.ID, err)
		errorJSON(c, http.StatusInternalServerError, "database_error", "Failed to store organized document")
		return
	}

	c.JSON(http.StatusCreated, present(result))
}
