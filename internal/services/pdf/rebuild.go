package pdf

import (
	"bytes"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/signintech/gopdf"
)

// ErrFontNotConfigured means no TrueType font is available for rebuilding.
// The standard 14 PDF fonts only cover Latin-1, which isn't enough for most
// translation targets.
var ErrFontNotConfigured = errors.New("no TrueType font configured (set FONT_PATH)")

const (
	rebuildFontName   = "body"
	rebuildFontSize   = 11
	rebuildMargin     = 50
	rebuildLineFactor = 1.4
)

// RebuildOptions controls how Rebuild lays out text.
type RebuildOptions struct {
	FontPath  string
	FontSize  float64    // Default 11
	PageSizes []PageSize // Source page sizes; missing entries fall back to A4
}

// Rebuild writes each page's text onto a fresh page of the same size.
// Text that doesn't fit continues on extra pages; empty pages stay blank.
func Rebuild(pages []PageText, opts RebuildOptions) ([]byte, error) {
	if opts.FontPath == "" {
		return nil, ErrFontNotConfigured
	}
	if opts.FontSize <= 0 {
		opts.FontSize = rebuildFontSize
	}
	if len(pages) == 0 {
		pages = []PageText{{Number: 1}}
	}

	doc := gopdf.GoPdf{}
	doc.Start(gopdf.Config{PageSize: *gopdf.PageSizeA4, Unit: gopdf.UnitPT})

	if err := doc.AddTTFFont(rebuildFontName, opts.FontPath); err != nil {
		return nil, fmt.Errorf("failed to load font %s: %w", opts.FontPath, err)
	}
	if err := doc.SetFont(rebuildFontName, "", opts.FontSize); err != nil {
		return nil, fmt.Errorf("failed to set font: %w", err)
	}

	lineHeight := opts.FontSize * rebuildLineFactor
	for i, p := range pages {
		size := pageSizeAt(opts.PageSizes, i)
		rect := &gopdf.Rect{W: size.Width, H: size.Height}
		doc.AddPageWithOption(gopdf.PageOption{PageSize: rect})

		lines, err := wrapText(p.Text, size.Width-2*rebuildMargin, doc.MeasureTextWidth)
		if err != nil {
			return nil, fmt.Errorf("page %d: %w", p.Number, err)
		}

		y := float64(rebuildMargin)
		for _, line := range lines {
			if y+lineHeight > size.Height-rebuildMargin {
				doc.AddPageWithOption(gopdf.PageOption{PageSize: rect})
				y = rebuildMargin
			}
			if line != "" {
				doc.SetXY(rebuildMargin, y)
				if err := doc.Cell(nil, line); err != nil {
					return nil, fmt.Errorf("page %d: %w", p.Number, err)
				}
			}
			y += lineHeight
		}
	}

	var out bytes.Buffer
	if _, err := doc.WriteTo(&out); err != nil {
		return nil, fmt.Errorf("failed to write PDF: %w", err)
	}
	return out.Bytes(), nil
}

func pageSizeAt(sizes []PageSize, i int) PageSize {
	if i < len(sizes) && sizes[i].Width > 0 && sizes[i].Height > 0 {
		return sizes[i]
	}
	return PageSize{Width: gopdf.PageSizeA4.W, Height: gopdf.PageSizeA4.H}
}

// wrapText breaks text into lines no wider than width. Newlines are kept as
// line breaks and words longer than a whole line are split by rune.
func wrapText(text string, width float64, measure func(string) (float64, error)) ([]string, error) {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	if strings.TrimSpace(text) == "" {
		return nil, nil
	}

	var lines []string
	for _, para := range strings.Split(text, "\n") {
		words := strings.Fields(para)
		if len(words) == 0 {
			lines = append(lines, "")
			continue
		}

		current := ""
		for _, word := range words {
			candidate := word
			if current != "" {
				candidate = current + " " + word
			}
			w, err := measure(candidate)
			if err != nil {
				return nil, err
			}
			if w <= width {
				current = candidate
				continue
			}

			if current != "" {
				lines = append(lines, current)
				current = ""
			}

			// The word alone may still be too wide.
			ww, err := measure(word)
			if err != nil {
				return nil, err
			}
			if ww <= width {
				current = word
				continue
			}
			pieces, err := splitWord(word, width, measure)
			if err != nil {
				return nil, err
			}
			lines = append(lines, pieces[:len(pieces)-1]...)
			current = pieces[len(pieces)-1]
		}
		if current != "" {
			lines = append(lines, current)
		}
	}
	return lines, nil
}

func splitWord(word string, width float64, measure func(string) (float64, error)) ([]string, error) {
	var pieces []string
	current := ""
	for len(word) > 0 {
		r, n := utf8.DecodeRuneInString(word)
		word = word[n:]

		candidate := current + string(r)
		w, err := measure(candidate)
		if err != nil {
			return nil, err
		}
		if w > width && current != "" {
			pieces = append(pieces, current)
			candidate = string(r)
		}
		current = candidate
	}
	return append(pieces, current), nil
}
