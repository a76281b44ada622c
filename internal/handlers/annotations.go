// annotations.go handles text annotations drawn onto stored documents.
//
// POST /api/v1/documents/:id/annotations  Draw text onto a page
// GET  /api/v1/documents/:id/annotations  List what has been drawn
package handlers

import (
	"errors"
	"log"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/Shimizu-Technology/pdf-tools-api/internal/database"
	"github.com/Shimizu-Technology/pdf-tools-api/internal/models"
	pdfservice "github.com/Shimizu-Technology/pdf-tools-api/internal/services/pdf"
	"github.com/Shimizu-Technology/pdf-tools-api/internal/services/preview"
)

const maxAnnotationSize = 200

var errBadSize = errors.New("size must be between 1 and 200")

// normalizeAnnotation applies defaults and validates the request.
func normalizeAnnotation(req *models.CreateAnnotationRequest, pageCount int) error {
	req.Text = strings.TrimSpace(req.Text)
	if req.Text == "" {
		return errors.New("text is required")
	}
	if req.Size == 0 {
		req.Size = pdfservice.DefaultTextSize
	}
	if req.Size < 0 || req.Size > maxAnnotationSize {
		return errBadSize
	}
	if req.Color == "" {
		req.Color = pdfservice.DefaultTextColor
	}
	if req.Page == 0 {
		req.Page = 1
	}
	if req.Page < 1 || req.Page > pageCount {
		return pdfservice.ErrPageOutOfRange
	}
	if (req.X == nil) != (req.Y == nil) {
		return errors.New("x and y must be given together")
	}
	if (req.CanvasX == nil) != (req.CanvasY == nil) {
		return errors.New("canvas_x and canvas_y must be given together")
	}
	return nil
}

// resolvePosition picks where the text goes: explicit PDF points first, then
// a click on a rendered preview, then the stacked default below the
// existing annotations on the page.
func resolvePosition(req models.CreateAnnotationRequest, page pdfservice.PageSize, existing int) (x, y float64, err error) {
	switch {
	case req.X != nil && req.Y != nil:
		return *req.X, *req.Y, nil
	case req.CanvasX != nil && req.CanvasY != nil:
		return preview.CanvasToPDF(*req.CanvasX, *req.CanvasY, req.CanvasWidth, req.CanvasHeight, page.Width, page.Height)
	default:
		x, y = pdfservice.DefaultAnnotationPosition(page.Height, req.Size, existing)
		return x, y, nil
	}
}

// stamp draws a normalized request onto data.
func stamp(data []byte, req models.CreateAnnotationRequest, x, y float64) ([]byte, error) {
	return pdfservice.StampText(data, pdfservice.Stamp{
		Page:  req.Page,
		Text:  req.Text,
		Size:  req.Size,
		Color: pdfservice.ParseHexColor(req.Color),
		X:     x,
		Y:     y,
	})
}

// CreateAnnotation draws text onto a stored document and records it.
// POST /api/v1/documents/:id/annotations
func (h *Handler) CreateAnnotation(c *gin.Context) {
	var req models.CreateAnnotationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		errorJSON(c, http.StatusBadRequest, "invalid_request", "Invalid request: "+err.Error())
		return
	}

	doc, ok := h.loadDocument(c, true)
	if !ok {
		return
	}

	info, err := pdfservice.Inspect(doc.Data)
	if err != nil {
		pdfError(c, err)
		return
	}
	if err := normalizeAnnotation(&req, info.PageCount); err != nil {
		errorJSON(c, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}
	page, _ := info.Page(req.Page)

	ctx := c.Request.Context()
	existing, err := h.DB.CountAnnotationsOnPage(ctx, doc.ID, req.Page)
	if err != nil {
		log.Printf("Failed to count annotations for %s: %v", doc.ID, err)
		errorJSON(c, http.StatusInternalServerError, "database_error", "Failed to load annotations")
		return
	}

	x, y, err := resolvePosition(req, page, existing)
	if err != nil {
		errorJSON(c, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}

	data, err := stamp(doc.Data, req, x, y)
	if err != nil {
		pdfError(c, err)
		return
	}

	doc.Data = data
	annotation := &models.Annotation{
		Page:  req.Page,
		Text:  req.Text,
		Size:  req.Size,
		Color: req.Color,
		X:     x,
		Y:     y,
	}
	if err := h.DB.ApplyAnnotation(ctx, doc, annotation); err != nil {
		if errors.Is(err, database.ErrStaleRevision) {
			errorJSON(c, http.StatusConflict, "conflict", "The document changed while annotating; retry the request")
			return
		}
		log.Printf("Failed to save annotation on %s: %v", doc.ID, err)
		errorJSON(c, http.StatusInternalServerError, "database_error", "Failed to save annotation")
		return
	}

	doc.Data = nil
	c.JSON(http.StatusCreated, models.AnnotationResponse{
		Annotation: *annotation,
		Document:   *present(doc),
	})
}

// ListAnnotations returns a document's annotations, oldest first.
// GET /api/v1/documents/:id/annotations
func (h *Handler) ListAnnotations(c *gin.Context) {
	doc, ok := h.loadDocument(c, false)
	if !ok {
		return
	}

	annotations, err := h.DB.ListAnnotations(c.Request.Context(), doc.ID)
	if err != nil {
		log.Printf("Failed to list annotations for %s: %v", doc.ID, err)
		errorJSON(c, http.StatusInternalServerError, "database_error", "Failed to list annotations")
		return
	}
	if annotations == nil {
		annotations = []models.Annotation{}
	}
	c.JSON(http.StatusOK, annotations)
}
