// Package pdftest builds small, valid PDF files for tests.
package pdftest

import (
	"bytes"
	"fmt"
	"strings"
)

// Page is one page of a generated document.
type Page struct {
	Width, Height float64 // Defaults to US Letter
	Text          string  // Drawn in Helvetica 12pt near the top-left
}

// Build returns a PDF with one page per entry. Each page uses the standard
// Helvetica font so text extraction works without embedded fonts.
func Build(pages ...Page) []byte {
	if len(pages) == 0 {
		pages = []Page{{}}
	}

	// Object layout: 1 catalog, 2 page tree, 3 font, then a page object and
	// its content stream for every page.
	var objects []string
	kids := make([]string, len(pages))
	for i := range pages {
		kids[i] = fmt.Sprintf("%d 0 R", 4+i*2)
	}

	objects = append(objects,
		"<< /Type /Catalog /Pages 2 0 R >>",
		fmt.Sprintf("<< /Type /Pages /Kids [%s] /Count %d >>", strings.Join(kids, " "), len(pages)),
		"<< /Type /Font /Subtype /Type1 /BaseFont /Helvetica /Encoding /WinAnsiEncoding >>",
	)

	for i, p := range pages {
		w, h := p.Width, p.Height
		if w <= 0 || h <= 0 {
			w, h = 612, 792
		}
		content := ""
		if p.Text != "" {
			content = fmt.Sprintf("BT /F1 12 Tf 72 %.0f Td (%s) Tj ET", h-72, escape(p.Text))
		}
		objects = append(objects,
			fmt.Sprintf("<< /Type /Page /Parent 2 0 R /MediaBox [0 0 %.0f %.0f] /Resources << /Font << /F1 3 0 R >> >> /Contents %d 0 R >>",
				w, h, 5+i*2),
			fmt.Sprintf("<< /Length %d >>\nstream\n%s\nendstream", len(content), content),
		)
	}

	var buf bytes.Buffer
	buf.WriteString("%PDF-1.4\n")

	offsets := make([]int, len(objects))
	for i, obj := range objects {
		offsets[i] = buf.Len()
		fmt.Fprintf(&buf, "%d 0 obj\n%s\nendobj\n", i+1, obj)
	}

	xref := buf.Len()
	fmt.Fprintf(&buf, "xref\n0 %d\n", len(objects)+1)
	buf.WriteString("0000000000 65535 f \n")
	for _, off := range offsets {
		fmt.Fprintf(&buf, "%010d 00000 n \n", off)
	}
	fmt.Fprintf(&buf, "trailer\n<< /Size %d /Root 1 0 R >>\nstartxref\n%d\n%%%%EOF\n", len(objects)+1, xref)

	return buf.Bytes()
}

// Pages is shorthand for n letter-size pages labelled "Page 1".."Page n".
func Pages(n int) []byte {
	pages := make([]Page, n)
	for i := range pages {
		pages[i] = Page{Text: fmt.Sprintf("Page %d", i+1)}
	}
	return Build(pages...)
}

func escape(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `(`, `\(`, `)`, `\)`)
	return r.Replace(s)
}
