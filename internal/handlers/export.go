// export.go handles text export of documents and translations.
//
// Supported formats:
//   - txt   Plain text with page markers
//   - md    Markdown with a metadata table and one section per page
//   - html  The Markdown export rendered to a standalone HTML page
//   - json  Metadata plus per-page text
//
// Go Pattern: Each export format is its own function. This makes it easy
// to add new formats later: add a case to the switch and a new
// formatter function.
package handlers

import (
	"bytes"
	"encoding/json"
	"fmt"
	"html"
	"log"
	"math"
	"net/http"
	"path/filepath"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/gin-gonic/gin"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"

	"github.com/Shimizu-Technology/pdf-tools-api/internal/models"
	pdfservice "github.com/Shimizu-Technology/pdf-tools-api/internal/services/pdf"
	"github.com/Shimizu-Technology/pdf-tools-api/internal/services/translate"
)

var validExportFormats = map[string]bool{"txt": true, "md": true, "html": true, "json": true}

// markdown renders the md export for the html format. GFM adds the tables
// used for the metadata block.
var markdown = goldmark.New(goldmark.WithExtensions(extension.GFM))

// textExport is everything a formatter needs, independent of where the
// text came from.
type textExport struct {
	ID        string
	Title     string
	Filename  string // Without extension
	Fields    [][2]string
	Pages     []pdfservice.PageText
	CreatedAt time.Time
}

func (e *textExport) text() string {
	return pdfservice.JoinPages(e.Pages)
}

func (e *textExport) wordCount() int {
	return pdfservice.CountWords(e.Pages)
}

// exportBaseName turns "Annual Report.pdf" into "Annual Report".
func exportBaseName(name, fallback string) string {
	base := strings.TrimSuffix(name, filepath.Ext(name))
	base = sanitizeFilename(base)
	if base == "" {
		return fallback
	}
	return base
}

func checkExportFormat(c *gin.Context) (string, bool) {
	format := c.DefaultQuery("format", "txt")
	if !validExportFormats[format] {
		errorJSON(c, http.StatusBadRequest, "invalid_format", "Supported formats: txt, md, html, json")
		return "", false
	}
	return format, true
}

// GetDocumentText extracts a stored document's text.
// GET /api/v1/documents/:id/text
func (h *Handler) GetDocumentText(c *gin.Context) {
	doc, ok := h.loadDocument(c, true)
	if !ok {
		return
	}

	result, err := pdfservice.Extract(doc.Data)
	if err != nil {
		log.Printf("PDF extraction failed for %s: %v", doc.ID, err)
		errorJSON(c, http.StatusUnprocessableEntity, "extraction_failed", "PDF text extraction failed: "+err.Error())
		return
	}
	c.JSON(http.StatusOK, result)
}

// ExportDocumentText exports a stored document's text in the requested format.
// GET /api/v1/documents/:id/text/export?format=txt|md|html|json
func (h *Handler) ExportDocumentText(c *gin.Context) {
	// Validate format before doing any database work
	format, ok := checkExportFormat(c)
	if !ok {
		return
	}

	doc, ok := h.loadDocument(c, true)
	if !ok {
		return
	}

	pages, err := pdfservice.ExtractPages(doc.Data)
	if err != nil {
		errorJSON(c, http.StatusUnprocessableEntity, "extraction_failed", "PDF text extraction failed: "+err.Error())
		return
	}

	writeExport(c, format, &textExport{
		ID:       doc.ID,
		Title:    doc.OriginalName,
		Filename: exportBaseName(doc.OriginalName, doc.ID),
		Fields: [][2]string{
			{"Pages", fmt.Sprint(doc.PageCount)},
			{"Size", pdfservice.FormatFileSize(doc.SizeBytes)},
			{"Kind", string(doc.Kind)},
		},
		Pages:     pages,
		CreatedAt: doc.CreatedAt,
	})
}

// ExportTranslation exports a completed translation's text.
// GET /api/v1/translations/:id/export?format=txt|md|html|json
func (h *Handler) ExportTranslation(c *gin.Context) {
	format, ok := checkExportFormat(c)
	if !ok {
		return
	}

	t, ok := h.loadTranslation(c)
	if !ok {
		return
	}

	// Only export completed translations
	if t.Status != models.StatusCompleted {
		errorJSON(c, http.StatusNotFound, "not_ready", "Translation is not completed (status: "+string(t.Status)+")")
		return
	}

	title := "Translation " + t.ID
	if doc, err := h.DB.GetDocument(c.Request.Context(), t.DocumentID); err == nil {
		title = doc.OriginalName
	}

	writeExport(c, format, &textExport{
		ID:       t.ID,
		Title:    title,
		Filename: exportBaseName(title, t.ID) + "_" + t.TargetLang,
		Fields: [][2]string{
			{"From", translate.LanguageName(t.SourceLang)},
			{"To", translate.LanguageName(t.TargetLang)},
			{"Backend", t.Backend},
		},
		Pages:     splitPages(t.TranslatedText),
		CreatedAt: t.CreatedAt,
	})
}

// pageMarker finds the JoinPages marker that opens page n, plain or failed.
func pageMarker(text string, n int) (start, end int, failed bool) {
	plain := fmt.Sprintf("\n--- Page %d ---", n)
	bad := fmt.Sprintf("\n--- Page %d (text extraction failed) ---", n)
	i, j := strings.Index(text, plain), strings.Index(text, bad)
	switch {
	case j >= 0 && (i < 0 || j < i):
		return j, j + len(bad), true
	case i >= 0:
		return i, i + len(plain), false
	}
	return -1, -1, false
}

// splitPages undoes JoinPages for stored text.
func splitPages(text string) []pdfservice.PageText {
	// JoinPages trims its output, which can eat the newline before a
	// marker when the first page is empty.
	text = "\n" + text

	failed := false
	if start, end, f := pageMarker(text, 1); start == 0 && f {
		failed, text = true, text[end:]
	}

	var pages []pdfservice.PageText
	for number := 1; ; number++ {
		start, end, nextFailed := pageMarker(text, number+1)
		if start < 0 {
			return append(pages, pdfservice.PageText{Number: number, Text: strings.TrimSpace(text), Failed: failed})
		}
		pages = append(pages, pdfservice.PageText{Number: number, Text: strings.TrimSpace(text[:start]), Failed: failed})
		text, failed = text[end:], nextFailed
	}
}

func writeExport(c *gin.Context, format string, e *textExport) {
	var (
		body        []byte
		contentType string
		err         error
	)

	// Go Pattern: Switch on the format string, clean and extensible.
	switch format {
	case "txt":
		body, contentType = []byte(e.text()), "text/plain; charset=utf-8"
	case "md":
		body, contentType = []byte(exportMarkdown(e)), "text/markdown; charset=utf-8"
	case "html":
		body, err = exportHTML(e)
		contentType = "text/html; charset=utf-8"
	case "json":
		body, err = exportJSON(e)
		contentType = "application/json; charset=utf-8"
	}
	if err != nil {
		errorJSON(c, http.StatusInternalServerError, "export_error", "Failed to generate "+format+" export")
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s.%s"`, e.Filename, format))
	c.Data(http.StatusOK, contentType, body)
}

// exportMarkdown renders a metadata table followed by one section per page.
func exportMarkdown(e *textExport) string {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("# %s\n\n", e.Title))
	sb.WriteString("| Field | Value |\n")
	sb.WriteString("|-------|-------|\n")
	for _, f := range e.Fields {
		sb.WriteString(fmt.Sprintf("| %s | %s |\n", f[0], f[1]))
	}
	sb.WriteString(fmt.Sprintf("| Words | %d |\n", e.wordCount()))
	sb.WriteString(fmt.Sprintf("| Reading time | %s |\n", readingTime(e.wordCount())))
	sb.WriteString(fmt.Sprintf("| Created | %s |\n", e.CreatedAt.Format("2006-01-02 15:04:05 MST")))

	for _, p := range e.Pages {
		sb.WriteString(fmt.Sprintf("\n---\n\n## Page %d\n\n", p.Number))
		switch {
		case p.Failed:
			sb.WriteString("_(text extraction failed)_\n")
		case strings.TrimSpace(p.Text) == "":
			sb.WriteString("_(no text)_\n")
		default:
			sb.WriteString(p.Text)
			sb.WriteString("\n")
		}
	}
	return sb.String()
}

// exportHTML renders the Markdown export as a standalone page. Raw HTML in
// the document text is dropped by goldmark's default renderer.
func exportHTML(e *textExport) ([]byte, error) {
	var body bytes.Buffer
	if err := markdown.Convert([]byte(exportMarkdown(e)), &body); err != nil {
		return nil, err
	}

	var out bytes.Buffer
	out.WriteString("<!DOCTYPE html>\n<html>\n<head>\n<meta charset=\"utf-8\">\n")
	out.WriteString("<title>" + html.EscapeString(e.Title) + "</title>\n")
	out.WriteString("</head>\n<body>\n")
	out.Write(body.Bytes())
	out.WriteString("</body>\n</html>\n")
	return out.Bytes(), nil
}

func exportJSON(e *textExport) ([]byte, error) {
	// Build a clean export structure (we control what's included)
	fields := make(map[string]string, len(e.Fields))
	for _, f := range e.Fields {
		fields[strings.ToLower(f[0])] = f[1]
	}

	return json.MarshalIndent(map[string]interface{}{
		"id":           e.ID,
		"title":        e.Title,
		"metadata":     fields,
		"pages":        e.Pages,
		"text":         e.text(),
		"word_count":   e.wordCount(),
		"reading_time": readingTime(e.wordCount()),
		"created_at":   e.CreatedAt,
	}, "", "  ")
}

// --- Helper Functions ---

// readingTime estimates reading time at 200 words per minute.
func readingTime(words int) string {
	return fmt.Sprintf("%d min", int(math.Ceil(float64(words)/200.0)))
}

// sanitizeFilename removes characters that aren't safe for filenames.
// Go Pattern: Keep it simple. Replace unsafe characters with hyphens
// and trim the result. This is only for the Content-Disposition header.
func sanitizeFilename(name string) string {
	// Replace common unsafe characters
	replacer := strings.NewReplacer(
		"/", "-", "\\", "-", ":", "-", "*", "-",
		"?", "-", "\"", "-", "<", "-", ">", "-",
		"|", "-", "\n", " ", "\r", "",
	)
	name = replacer.Replace(name)

	// Collapse multiple hyphens/spaces
	for strings.Contains(name, "  ") {
		name = strings.ReplaceAll(name, "  ", " ")
	}
	for strings.Contains(name, "--") {
		name = strings.ReplaceAll(name, "--", "-")
	}

	name = strings.TrimSpace(name)

	// Limit length without splitting a multi-byte rune
	name = strings.ToValidUTF8(name, "")
	if len(name) > 100 {
		cut := 100
		for cut > 0 && !utf8.RuneStart(name[cut]) {
			cut--
		}
		name = name[:cut]
	}

	return name
}
