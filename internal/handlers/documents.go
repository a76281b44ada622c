// documents.go handles stored PDF documents.
//
// POST   /api/v1/documents              Upload a PDF (multipart field "file")
// GET    /api/v1/documents              List documents (paginated)
// GET    /api/v1/documents/:id          Document metadata
// GET    /api/v1/documents/:id/download PDF bytes
// DELETE /api/v1/documents/:id          Delete a document
// POST   /api/v1/documents/merge        Merge stored documents into a new one
package handlers

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/Shimizu-Technology/pdf-tools-api/internal/models"
	pdfservice "github.com/Shimizu-Technology/pdf-tools-api/internal/services/pdf"
)

// present fills in derived fields before a document is returned.
func present(d *models.Document) *models.Document {
	d.SizeHuman = pdfservice.FormatFileSize(d.SizeBytes)
	return d
}

// canAccess reports whether the caller may see a document or translation
// owned by owner. Records without an owning key are shared; JWT sessions
// see everything, like the workspace does.
func (h *Handler) canAccess(c *gin.Context, owner *string) bool {
	caller := apiKeyID(c)
	if caller == nil || owner == nil {
		return true
	}
	return *caller == *owner || h.isOwnerRequest(c)
}

// loadDocument fetches the document named by the :id param and writes a
// 404 when it is missing or belongs to another key.
func (h *Handler) loadDocument(c *gin.Context, withData bool) (*models.Document, bool) {
	id := c.Param("id")

	var (
		doc *models.Document
		err error
	)
	if withData {
		doc, err = h.DB.GetDocumentWithData(c.Request.Context(), id)
	} else {
		doc, err = h.DB.GetDocument(c.Request.Context(), id)
	}
	if err != nil || !h.canAccess(c, doc.APIKeyID) {
		errorJSON(c, http.StatusNotFound, "not_found", "Document not found")
		return nil, false
	}
	return doc, true
}

// storeDocument saves a new document and fires document.created.
func (h *Handler) storeDocument(ctx context.Context, doc *models.Document) error {
	if err := h.DB.CreateDocument(ctx, doc); err != nil {
		return err
	}
	if h.Webhooks != nil {
		summary := *doc
		summary.Data = nil
		h.Webhooks.NotifyEvent(ctx, models.EventDocumentCreated, doc.APIKeyID, present(&summary))
	}
	return nil
}

// UploadDocument stores an uploaded PDF.
// POST /api/v1/documents
func (h *Handler) UploadDocument(c *gin.Context) {
	h.limitUpload(c)

	up, ok := h.formPDF(c, "file")
	if !ok {
		return
	}

	info, err := pdfservice.Inspect(up.Data)
	if err != nil {
		pdfError(c, err)
		return
	}

	doc := &models.Document{
		OriginalName: up.Name,
		Kind:         models.KindUpload,
		PageCount:    info.PageCount,
		Data:         up.Data,
		APIKeyID:     apiKeyID(c),
	}
	if err := h.storeDocument(c.Request.Context(), doc); err != nil {
		log.Printf("Failed to store document %s: %v", up.Name, err)
		errorJSON(c, http.StatusInternalServerError, "database_error", "Failed to store document")
		return
	}

	c.JSON(http.StatusCreated, present(doc))
}

// ListDocuments returns a paginated list of documents.
// GET /api/v1/documents?page=1&per_page=20&kind=merged&search=report
func (h *Handler) ListDocuments(c *gin.Context) {
	var params models.DocumentListParams
	if err := c.ShouldBindQuery(&params); err != nil {
		errorJSON(c, http.StatusBadRequest, "invalid_request", "Invalid query parameters: "+err.Error())
		return
	}

	// Set defaults
	if params.Page < 1 {
		params.Page = 1
	}
	if params.PerPage < 1 || params.PerPage > 100 {
		params.PerPage = 20
	}
	if !h.isOwnerRequest(c) {
		params.APIKeyID = apiKeyID(c)
	}

	docs, total, err := h.DB.ListDocuments(c.Request.Context(), params)
	if err != nil {
		log.Printf("Failed to list documents: %v", err)
		errorJSON(c, http.StatusInternalServerError, "database_error", "Failed to list documents")
		return
	}

	if docs == nil {
		docs = []models.Document{}
	}
	for i := range docs {
		present(&docs[i])
	}

	totalPages := (total + params.PerPage - 1) / params.PerPage
	c.JSON(http.StatusOK, models.PaginatedResponse[models.Document]{
		Data:       docs,
		Page:       params.Page,
		PerPage:    params.PerPage,
		TotalItems: total,
		TotalPages: totalPages,
	})
}

// GetDocument returns document metadata.
// GET /api/v1/documents/:id
func (h *Handler) GetDocument(c *gin.Context) {
	doc, ok := h.loadDocument(c, false)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, present(doc))
}

// DownloadDocument streams the stored PDF.
// GET /api/v1/documents/:id/download
func (h *Handler) DownloadDocument(c *gin.Context) {
	doc, ok := h.loadDocument(c, true)
	if !ok {
		return
	}
	sendPDF(c, sanitizeFilename(doc.OriginalName), doc.Data)
}

// DeleteDocument removes a document with its annotations, organize
// sessions and translations.
// DELETE /api/v1/documents/:id
func (h *Handler) DeleteDocument(c *gin.Context) {
	doc, ok := h.loadDocument(c, false)
	if !ok {
		return
	}

	if err := h.DB.DeleteDocument(c.Request.Context(), doc.ID); err != nil {
		errorJSON(c, http.StatusNotFound, "not_found", err.Error())
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Document deleted"})
}

// MergeDocuments concatenates stored documents, in the order given, into a
// new document.
// POST /api/v1/documents/merge
func (h *Handler) MergeDocuments(c *gin.Context) {
	var req models.MergeDocumentsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		errorJSON(c, http.StatusBadRequest, "invalid_request",
			"Provide at least two document_ids to merge: "+err.Error())
		return
	}

	ctx := c.Request.Context()
	docs := make([][]byte, len(req.DocumentIDs))
	for i, id := range req.DocumentIDs {
		d, err := h.DB.GetDocumentWithData(ctx, id)
		if err != nil || !h.canAccess(c, d.APIKeyID) {
			errorJSON(c, http.StatusNotFound, "not_found", fmt.Sprintf("Document %s not found", id))
			return
		}
		docs[i] = d.Data
	}

	merged, err := pdfservice.Merge(docs)
	if err != nil {
		pdfError(c, err)
		return
	}

	doc, err := h.storeDerived(c, merged, mergedName(req.Name), models.KindMerged, nil)
	if err != nil {
		log.Printf("Failed to store merged document: %v", err)
		errorJSON(c, http.StatusInternalServerError, "database_error", "Failed to store merged document")
		return
	}

	c.JSON(http.StatusCreated, present(doc))
}

// storeDerived stores a document produced from other documents.
func (h *Handler) storeDerived(c *gin.Context, data []byte, name string, kind models.DocumentKind, source *string) (*models.Document, error) {
	pageCount := 0
	if info, err := pdfservice.Inspect(data); err == nil {
		pageCount = info.PageCount
	}

	doc := &models.Document{
		OriginalName:     name,
		Kind:             kind,
		PageCount:        pageCount,
		Data:             data,
		SourceDocumentID: source,
		APIKeyID:         apiKeyID(c),
	}
	if err := h.storeDocument(c.Request.Context(), doc); err != nil {
		return nil, err
	}
	return doc, nil
}

// mergedName returns the file name for a merge result.
func mergedName(name string) string {
	name = sanitizeFilename(strings.TrimSpace(name))
	if name == "" {
		return "merged.pdf"
	}
	if !strings.HasSuffix(strings.ToLower(name), ".pdf") {
		name += ".pdf"
	}
	return name
}
