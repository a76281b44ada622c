package handlers

import (
	"errors"
	"fmt"
	"io"
	"log"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/Shimizu-Technology/pdf-tools-api/internal/middleware"
	"github.com/Shimizu-Technology/pdf-tools-api/internal/models"
	pdfservice "github.com/Shimizu-Technology/pdf-tools-api/internal/services/pdf"
)

var errNotPDF = errors.New("not a PDF file")

// upload is one PDF read from a multipart form.
type upload struct {
	Name string
	Data []byte
}

func errorJSON(c *gin.Context, status int, code, message string) {
	c.JSON(status, models.ErrorResponse{
		Error:   code,
		Message: message,
		Code:    status,
	})
}

// limitUpload caps the request body at the configured upload size.
func (h *Handler) limitUpload(c *gin.Context) {
	if h.MaxUploadBytes > 0 {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.MaxUploadBytes)
	}
}

// uploadTooLarge reports whether err came from the body limit.
func uploadTooLarge(err error) bool {
	var maxErr *http.MaxBytesError
	return errors.As(err, &maxErr)
}

func (h *Handler) uploadLimitMessage() string {
	return fmt.Sprintf("Upload exceeds the %s limit", pdfservice.FormatFileSize(h.MaxUploadBytes))
}

// readPDF opens a multipart file and checks both the extension and the
// %PDF- header.
func readPDF(fh *multipart.FileHeader) (*upload, error) {
	name := filepath.Base(fh.Filename)
	if ext := strings.ToLower(filepath.Ext(name)); ext != ".pdf" {
		return nil, fmt.Errorf("%w: %q (only .pdf files are accepted)", errNotPDF, name)
	}

	f, err := fh.Open()
	if err != nil {
		return nil, fmt.Errorf("failed to open %q: %w", name, err)
	}
	defer f.Close()

	// Go Pattern: io.ReadAll reads the entire reader into a byte slice.
	// The PDF libraries need random access, so documents live in memory.
	data, err := io.ReadAll(f)
	if err != nil {
		return nil, fmt.Errorf("failed to read %q: %w", name, err)
	}

	if !pdfservice.ValidatePDF(data) {
		return nil, fmt.Errorf("%w: %q does not appear to be a valid PDF", errNotPDF, name)
	}
	return &upload{Name: name, Data: data}, nil
}

// formPDF reads the single PDF in the given form field.
func (h *Handler) formPDF(c *gin.Context, field string) (*upload, bool) {
	fh, err := c.FormFile(field)
	if err != nil {
		if uploadTooLarge(err) {
			errorJSON(c, http.StatusRequestEntityTooLarge, "file_too_large", h.uploadLimitMessage())
			return nil, false
		}
		errorJSON(c, http.StatusBadRequest, "invalid_request",
			fmt.Sprintf("No PDF file provided. Upload a file with the field name '%s'.", field))
		return nil, false
	}

	up, err := readPDF(fh)
	if err != nil {
		uploadError(c, err)
		return nil, false
	}
	return up, true
}

func uploadError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, errNotPDF):
		errorJSON(c, http.StatusBadRequest, "invalid_file_type", err.Error())
	case uploadTooLarge(err):
		errorJSON(c, http.StatusRequestEntityTooLarge, "file_too_large", err.Error())
	default:
		errorJSON(c, http.StatusBadRequest, "read_error", err.Error())
	}
}

// dedupeByName keeps the first file of each name, so picking the same file
// twice only merges it once.
func dedupeByName(files []*multipart.FileHeader) []*multipart.FileHeader {
	seen := make(map[string]bool, len(files))
	out := make([]*multipart.FileHeader, 0, len(files))
	for _, fh := range files {
		name := filepath.Base(fh.Filename)
		if seen[name] {
			continue
		}
		seen[name] = true
		out = append(out, fh)
	}
	return out
}

// pdfError maps errors from the pdf service to API errors.
func pdfError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, pdfservice.ErrInvalidPDF):
		errorJSON(c, http.StatusBadRequest, "invalid_pdf", err.Error())
	case errors.Is(err, pdfservice.ErrTooFewDocuments):
		errorJSON(c, http.StatusBadRequest, "too_few_documents", err.Error())
	case errors.Is(err, pdfservice.ErrEmptySelection):
		errorJSON(c, http.StatusBadRequest, "empty_selection", err.Error())
	case errors.Is(err, pdfservice.ErrPageOutOfRange):
		errorJSON(c, http.StatusBadRequest, "page_out_of_range", err.Error())
	default:
		log.Printf("❌ [%s] PDF processing failed: %v", middleware.GetRequestID(c), err)
		errorJSON(c, http.StatusInternalServerError, "processing_failed", "PDF processing failed: "+err.Error())
	}
}

// sendPDF streams PDF bytes as a download.
func sendPDF(c *gin.Context, name string, data []byte) {
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, name))
	c.Data(http.StatusOK, "application/pdf", data)
}

// apiKeyID returns the caller's API key ID, or nil for JWT-only requests.
func apiKeyID(c *gin.Context) *string {
	if apiKey := middleware.GetAPIKey(c); apiKey != nil {
		return &apiKey.ID
	}
	return nil
}

// parsePageList parses "3, 1,2" into 0-based indices [2 0 1]. Pages are
// 1-based in the input and may repeat.
func parsePageList(s string, pageCount int) ([]int, error) {
	var pages []int
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		n, err := strconv.Atoi(part)
		if err != nil {
			return nil, fmt.Errorf("invalid page number %q", part)
		}
		if n < 1 || n > pageCount {
			return nil, fmt.Errorf("%w: page %d of %d", pdfservice.ErrPageOutOfRange, n, pageCount)
		}
		pages = append(pages, n-1)
	}
	if len(pages) == 0 {
		return nil, pdfservice.ErrEmptySelection
	}
	return pages, nil
}
