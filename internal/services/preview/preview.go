// Package preview computes page preview geometry and renders pages to PNG.
//
// A preview is a page drawn at some scale into a fixed-width container. The
// scale math lives here so the HTTP layer and the annotation click mapping
// agree on exactly how big the picture was.
package preview

import (
	"errors"
	"math"
)

const (
	DefaultZoom = 1.0
	MinZoom     = 0.3
	MaxZoom     = 3.0
	ZoomStep    = 0.1

	defaultContainerWidth = 300
	minContainerWidth     = 150
	minBaseScale          = 0.2
	maxBaseScale          = 2.0
)

// ErrInvalidCanvas is returned when a click can't be mapped because the
// canvas or page has no area.
var ErrInvalidCanvas = errors.New("canvas and page dimensions must be positive")

// ClampZoom keeps a zoom level inside [MinZoom, MaxZoom], rounded to one
// decimal so repeated steps don't drift.
func ClampZoom(z float64) float64 {
	z = math.Round(z*10) / 10
	return math.Min(MaxZoom, math.Max(MinZoom, z))
}

// ZoomIn returns the next zoom level up.
func ZoomIn(z float64) float64 { return ClampZoom(z + ZoomStep) }

// ZoomOut returns the next zoom level down.
func ZoomOut(z float64) float64 { return ClampZoom(z - ZoomStep) }

// ComputeScale returns the render scale for a page of pageWidth points shown
// in a container containerWidth pixels wide. A zero container width means
// unknown and uses the default.
func ComputeScale(containerWidth, pageWidth, zoom float64) float64 {
	if containerWidth <= 0 {
		containerWidth = defaultContainerWidth
	}
	containerWidth = math.Max(minContainerWidth, containerWidth)

	base := 1.0
	if pageWidth > 0 {
		base = math.Min(maxBaseScale, math.Max(minBaseScale, containerWidth/pageWidth))
	}
	return base * ClampZoom(zoom)
}

// Viewport is the pixel size of a rendered page.
type Viewport struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

// NewViewport scales a page's point size to whole pixels.
func NewViewport(pageWidth, pageHeight, scale float64) Viewport {
	return Viewport{
		Width:  int(math.Floor(pageWidth * scale)),
		Height: int(math.Floor(pageHeight * scale)),
	}
}

// CanvasToPDF maps a click on a rendered page to PDF points. The click is
// measured in pixels from the canvas's top-left corner; the result has the
// PDF origin at the page's bottom-left. Clicks outside the canvas are pulled
// onto its edge.
func CanvasToPDF(clickX, clickY, canvasWidth, canvasHeight, pageWidth, pageHeight float64) (x, y float64, err error) {
	if canvasWidth <= 0 || canvasHeight <= 0 || pageWidth <= 0 || pageHeight <= 0 {
		return 0, 0, ErrInvalidCanvas
	}

	clickX = math.Min(canvasWidth, math.Max(0, clickX))
	clickY = math.Min(canvasHeight, math.Max(0, clickY))

	x = clickX / canvasWidth * pageWidth
	y = (canvasHeight - clickY) / canvasHeight * pageHeight
	return x, y, nil
}
