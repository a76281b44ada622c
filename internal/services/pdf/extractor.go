// Package pdf wraps the PDF libraries the service delegates to.
//
// Text extraction uses ledongthuc/pdf, a pure Go reader with no CGO or external
// dependencies. Structural edits (merge, page selection, stamping)
// go through pdfcpu, and rebuilding a document from translated text uses
// gopdf with an embedded TrueType font.
package pdf

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/ledongthuc/pdf"
)

// ExtractionResult holds the output from a PDF text extraction.
type ExtractionResult struct {
	Text      string     `json:"text"` // All pages, separated by page markers
	Pages     []PageText `json:"pages"`
	PageCount int        `json:"page_count"`
	WordCount int        `json:"word_count"`
}

// PageText is the plain text of one page. Number is 1-based.
type PageText struct {
	Number int    `json:"page"`
	Text   string `json:"text"`
	Failed bool   `json:"failed,omitempty"` // Text could not be decoded (e.g. image-only page)
}

// ExtractPages returns the plain text of every page in order.
//
// Go Pattern: We accept a []byte instead of a filename because the data
// comes from an HTTP upload or the database, not a file on disk. The pdf
// library needs an io.ReaderAt, which bytes.Reader provides.
func ExtractPages(data []byte) ([]PageText, error) {
	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("failed to open PDF: %w", err)
	}

	pageCount := reader.NumPage()
	pages := make([]PageText, 0, pageCount)
	for i := 1; i <= pageCount; i++ {
		p := reader.Page(i)
		if p.V.IsNull() {
			pages = append(pages, PageText{Number: i})
			continue
		}

		text, err := p.GetPlainText(nil)
		if err != nil {
			// Some pages are images only; keep going
			pages = append(pages, PageText{Number: i, Failed: true})
			continue
		}
		pages = append(pages, PageText{Number: i, Text: strings.TrimSpace(text)})
	}

	return pages, nil
}

// Extract reads a PDF and joins the text of all pages.
func Extract(data []byte) (*ExtractionResult, error) {
	pages, err := ExtractPages(data)
	if err != nil {
		return nil, err
	}

	return &ExtractionResult{
		Text:      JoinPages(pages),
		Pages:     pages,
		PageCount: len(pages),
		WordCount: CountWords(pages),
	}, nil
}

// JoinPages concatenates page texts with a "--- Page N ---" marker before
// every page after the first.
func JoinPages(pages []PageText) string {
	var sb strings.Builder
	for i, p := range pages {
		switch {
		case p.Failed:
			sb.WriteString(fmt.Sprintf("\n--- Page %d (text extraction failed) ---\n", p.Number))
			continue
		case i > 0:
			sb.WriteString(fmt.Sprintf("\n--- Page %d ---\n", p.Number))
		}
		sb.WriteString(p.Text)
	}
	return strings.TrimSpace(sb.String())
}

// CountWords counts the words on every page, leaving out page markers.
func CountWords(pages []PageText) int {
	n := 0
	for _, p := range pages {
		n += len(strings.Fields(p.Text))
	}
	return n
}

// ValidatePDF checks if the data looks like a PDF by checking the magic bytes.
func ValidatePDF(data []byte) bool {
	// PDF files start with "%PDF-"
	return len(data) >= 5 && string(data[:5]) == "%PDF-"
}
