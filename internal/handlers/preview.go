package handlers

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	pdfservice "github.com/Shimizu-Technology/pdf-tools-api/internal/services/pdf"
	"github.com/Shimizu-Technology/pdf-tools-api/internal/services/preview"
)

const previewTimeout = 30 * time.Second

// previewParams reads ?width= and ?zoom=. Missing values fall back to the
// defaults; zoom is clamped rather than rejected.
func previewParams(c *gin.Context) (width, zoom float64, err error) {
	zoom = preview.DefaultZoom

	if v := c.Query("width"); v != "" {
		width, err = strconv.ParseFloat(v, 64)
		if err != nil || width < 0 {
			return 0, 0, fmt.Errorf("width must be a non-negative number")
		}
	}
	if v := c.Query("zoom"); v != "" {
		zoom, err = strconv.ParseFloat(v, 64)
		if err != nil {
			return 0, 0, fmt.Errorf("zoom must be a number")
		}
	}
	return width, preview.ClampZoom(zoom), nil
}

// GetPageLayout returns the page count and the size of every page in points.
// GET /api/v1/documents/:id/pages
func (h *Handler) GetPageLayout(c *gin.Context) {
	doc, ok := h.loadDocument(c, true)
	if !ok {
		return
	}

	info, err := pdfservice.Inspect(doc.Data)
	if err != nil {
		pdfError(c, err)
		return
	}
	c.JSON(http.StatusOK, info)
}

// PreviewPage renders one page as a PNG sized for a container ?width= pixels
// wide at ?zoom=. The response headers carry the scale and pixel size so a
// click on the image can be sent back as canvas coordinates.
// GET /api/v1/documents/:id/pages/:page/preview
func (h *Handler) PreviewPage(c *gin.Context) {
	if h.Renderer == nil || !h.Renderer.Available() {
		errorJSON(c, http.StatusServiceUnavailable, "previews_unavailable", preview.ErrRendererUnavailable.Error())
		return
	}

	pageNum, err := strconv.Atoi(c.Param("page"))
	if err != nil {
		errorJSON(c, http.StatusBadRequest, "invalid_request", "page must be a number")
		return
	}
	width, zoom, err := previewParams(c)
	if err != nil {
		errorJSON(c, http.StatusBadRequest, "invalid_request", err.Error())
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
	page, err := info.Page(pageNum)
	if err != nil {
		pdfError(c, err)
		return
	}

	scale := preview.ComputeScale(width, page.Width, zoom)
	size := preview.NewViewport(page.Width, page.Height, scale)

	ctx, cancel := context.WithTimeout(c.Request.Context(), previewTimeout)
	defer cancel()

	png, err := h.Renderer.Render(ctx, doc.Data, pageNum, size)
	if err != nil {
		if errors.Is(err, preview.ErrRendererUnavailable) {
			errorJSON(c, http.StatusServiceUnavailable, "previews_unavailable", err.Error())
			return
		}
		log.Printf("❌ Preview of %s page %d failed: %v", doc.ID, pageNum, err)
		errorJSON(c, http.StatusInternalServerError, "render_failed", "Failed to render page preview")
		return
	}

	c.Header("X-Preview-Scale", strconv.FormatFloat(scale, 'f', 4, 64))
	c.Header("X-Preview-Width", strconv.Itoa(size.Width))
	c.Header("X-Preview-Height", strconv.Itoa(size.Height))
	c.Data(http.StatusOK, "image/png", png)
}
