package pdf

import (
	"bytes"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/font"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"
	"golang.org/x/text/encoding/charmap"
)

const (
	DefaultTextSize  = 14
	DefaultTextColor = "#000000"

	// Default placement: 50pt in from the left, first line 50pt below the
	// top edge, later lines stacked below with 6pt of leading.
	defaultMargin  = 50
	defaultLeading = 6

	stampFont = "Helvetica"
)

// RGB is a color with components in [0, 1].
type RGB struct {
	R, G, B float64
}

// Stamp describes text to draw onto one page.
type Stamp struct {
	Page  int     // 1-based
	Text  string
	Size  int     // Font size in points
	Color RGB
	X, Y  float64 // Baseline start, PDF points from the bottom-left corner
}

// ParseHexColor converts "#rrggbb" to RGB. Anything that doesn't parse is black.
func ParseHexColor(hex string) RGB {
	h := strings.TrimPrefix(strings.TrimSpace(hex), "#")
	if len(h) != 6 {
		return RGB{}
	}

	var c [3]float64
	for i := 0; i < 3; i++ {
		v, err := strconv.ParseUint(h[i*2:i*2+2], 16, 8)
		if err != nil {
			return RGB{}
		}
		c[i] = float64(v) / 255
	}
	return RGB{R: c[0], G: c[1], B: c[2]}
}

// DefaultAnnotationPosition returns where the next annotation goes when the
// caller didn't pick a spot: below the existing ones on the page.
func DefaultAnnotationPosition(pageHeight float64, size, existing int) (x, y float64) {
	if size <= 0 {
		size = DefaultTextSize
	}
	return defaultMargin, pageHeight - defaultMargin - float64(existing*(size+defaultLeading))
}

// StampText draws s onto its page in Helvetica and returns the new PDF.
func StampText(data []byte, s Stamp) ([]byte, error) {
	text := winAnsi(s.Text)
	if strings.TrimSpace(text) == "" {
		return nil, fmt.Errorf("stamp text is empty")
	}
	if s.Size <= 0 {
		s.Size = DefaultTextSize
	}
	if s.Page < 1 {
		s.Page = 1
	}

	// The offset positions the stamp's box, not its baseline.
	desc := fmt.Sprintf(
		"fontname:%s, points:%d, position:bl, offset:%.2f %.2f, scalefactor:1 abs, rotation:0, fillcolor:%.3f %.3f %.3f, opacity:1",
		stampFont, s.Size, s.X, s.Y-stampDescent(s.Size), s.Color.R, s.Color.G, s.Color.B,
	)

	wm, err := api.TextWatermark(text, desc, true, false, types.POINTS)
	if err != nil {
		return nil, fmt.Errorf("invalid stamp: %w", err)
	}

	var out bytes.Buffer
	err = api.AddWatermarks(bytes.NewReader(data), &out, []string{strconv.Itoa(s.Page)}, wm, newConf())
	if err != nil {
		return nil, fmt.Errorf("stamp failed: %w", err)
	}
	return out.Bytes(), nil
}

// stampDescent is how far above the stamp box's bottom edge the text
// baseline is drawn.
func stampDescent(size int) float64 {
	return math.Ceil(font.Descent(stampFont, size))
}

// winAnsi replaces runes the standard Helvetica encoding can't represent.
func winAnsi(s string) string {
	var sb strings.Builder
	sb.Grow(len(s))
	for _, r := range s {
		if r == '\n' {
			sb.WriteRune(r)
			continue
		}
		if _, ok := charmap.Windows1252.EncodeRune(r); !ok || r < 0x20 {
			sb.WriteByte('?')
			continue
		}
		sb.WriteRune(r)
	}
	return sb.String()
}
