// pdf.go holds the one-shot PDF tools. They take uploads, return a result,
// and keep nothing unless asked to.
//
// POST /api/v1/pdf/merge     Merge uploaded PDFs (field "files")
// POST /api/v1/pdf/organize  Keep and reorder pages (fields "file", "pages")
// POST /api/v1/pdf/annotate  Draw text onto a page (field "file" + annotation fields)
// POST /api/v1/pdf/extract   Extract text (field "file")
package handlers

import (
	"fmt"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Shimizu-Technology/pdf-tools-api/internal/models"
	pdfservice "github.com/Shimizu-Technology/pdf-tools-api/internal/services/pdf"
)

// maxMergeFiles bounds a single merge request.
const maxMergeFiles = 50

// MergePDFs merges uploaded PDFs in upload order. A file name that appears
// twice is only merged once. With ?download=true the result is streamed
// back as merged.pdf; otherwise it is stored as a new document.
// POST /api/v1/pdf/merge
func (h *Handler) MergePDFs(c *gin.Context) {
	h.limitUpload(c)

	form, err := c.MultipartForm()
	if err != nil {
		if uploadTooLarge(err) {
			errorJSON(c, http.StatusRequestEntityTooLarge, "file_too_large", h.uploadLimitMessage())
			return
		}
		errorJSON(c, http.StatusBadRequest, "invalid_request", "Expected a multipart form with PDF files in the 'files' field")
		return
	}

	files := dedupeByName(form.File["files"])
	if len(files) < 2 {
		errorJSON(c, http.StatusBadRequest, "too_few_documents", "Upload at least two distinct PDF files to merge")
		return
	}
	if len(files) > maxMergeFiles {
		errorJSON(c, http.StatusBadRequest, "too_many_documents",
			fmt.Sprintf("At most %d files can be merged at once", maxMergeFiles))
		return
	}

	docs := make([][]byte, len(files))
	for i, fh := range files {
		up, err := readPDF(fh)
		if err != nil {
			uploadError(c, err)
			return
		}
		docs[i] = up.Data
	}

	merged, err := pdfservice.Merge(docs)
	if err != nil {
		pdfError(c, err)
		return
	}

	if c.Query("download") == "true" {
		sendPDF(c, "merged.pdf", merged)
		return
	}

	doc, err := h.storeDerived(c, merged, mergedName(c.PostForm("name")), models.KindMerged, nil)
	if err != nil {
		log.Printf("Failed to store merged document: %v", err)
		errorJSON(c, http.StatusInternalServerError, "database_error", "Failed to store merged document")
		return
	}
	c.JSON(http.StatusCreated, present(doc))
}

// OrganizePDF keeps the listed pages of an upload, in the listed order.
// pages is comma separated and 1-based, e.g. "3,1,2".
// POST /api/v1/pdf/organize
func (h *Handler) OrganizePDF(c *gin.Context) {
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

	pages, err := parsePageList(c.PostForm("pages"), info.PageCount)
	if err != nil {
		pdfError(c, err)
		return
	}

	out, err := pdfservice.Collect(up.Data, pages, info.PageCount)
	if err != nil {
		pdfError(c, err)
		return
	}
	sendPDF(c, "organized.pdf", out)
}

// AnnotatePDF draws one piece of text onto an uploaded PDF and streams the
// result back. Without x/y the text goes 50pt in from the top-left corner.
// POST /api/v1/pdf/annotate
func (h *Handler) AnnotatePDF(c *gin.Context) {
	h.limitUpload(c)

	up, ok := h.formPDF(c, "file")
	if !ok {
		return
	}

	var req models.CreateAnnotationRequest
	if err := c.ShouldBind(&req); err != nil {
		errorJSON(c, http.StatusBadRequest, "invalid_request", "Invalid request: "+err.Error())
		return
	}

	info, err := pdfservice.Inspect(up.Data)
	if err != nil {
		pdfError(c, err)
		return
	}
	if err := normalizeAnnotation(&req, info.PageCount); err != nil {
		errorJSON(c, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}
	page, _ := info.Page(req.Page)

	x, y, err := resolvePosition(req, page, 0)
	if err != nil {
		errorJSON(c, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}

	out, err := stamp(up.Data, req, x, y)
	if err != nil {
		pdfError(c, err)
		return
	}
	sendPDF(c, "edited.pdf", out)
}

// ExtractPDF returns the text of an uploaded PDF, page by page.
// POST /api/v1/pdf/extract
func (h *Handler) ExtractPDF(c *gin.Context) {
	h.limitUpload(c)

	up, ok := h.formPDF(c, "file")
	if !ok {
		return
	}

	result, err := pdfservice.Extract(up.Data)
	if err != nil {
		log.Printf("PDF extraction failed for %s: %v", up.Name, err)
		errorJSON(c, http.StatusUnprocessableEntity, "extraction_failed", "PDF text extraction failed: "+err.Error())
		return
	}
	c.JSON(http.StatusOK, result)
}
