package preview

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
)

// ErrRendererUnavailable means no pdftoppm binary was found.
var ErrRendererUnavailable = errors.New("page rendering is not available (install poppler-utils)")

// Renderer draws one page of a PDF as a PNG of exactly the given size.
type Renderer interface {
	Render(ctx context.Context, data []byte, page int, size Viewport) ([]byte, error)
	Available() bool
}

// PopplerRenderer shells out to pdftoppm from poppler-utils.
type PopplerRenderer struct {
	Path string // pdftoppm binary; empty disables rendering
}

// NewPopplerRenderer creates a renderer that uses the pdftoppm at path.
func NewPopplerRenderer(path string) *PopplerRenderer {
	return &PopplerRenderer{Path: path}
}

// Available reports whether a pdftoppm binary is configured.
func (r *PopplerRenderer) Available() bool {
	return r != nil && r.Path != ""
}

// Render writes the PDF to a temp dir, runs pdftoppm for a single page and
// reads back the PNG. The process is killed if ctx is cancelled.
func (r *PopplerRenderer) Render(ctx context.Context, data []byte, page int, size Viewport) ([]byte, error) {
	if !r.Available() {
		return nil, ErrRendererUnavailable
	}
	if page < 1 {
		return nil, fmt.Errorf("invalid page %d", page)
	}
	if size.Width < 1 || size.Height < 1 {
		return nil, fmt.Errorf("invalid preview size %dx%d", size.Width, size.Height)
	}

	tmpDir, err := os.MkdirTemp("", "pdf-preview-*")
	if err != nil {
		return nil, fmt.Errorf("failed to create temp dir: %w", err)
	}
	defer os.RemoveAll(tmpDir)

	input := filepath.Join(tmpDir, "input.pdf")
	if err := os.WriteFile(input, data, 0o600); err != nil {
		return nil, fmt.Errorf("failed to write temp PDF: %w", err)
	}

	outputPrefix := filepath.Join(tmpDir, "page")
	args := []string{
		"-png",
		"-f", strconv.Itoa(page),
		"-l", strconv.Itoa(page),
		"-scale-to-x", strconv.Itoa(size.Width),
		"-scale-to-y", strconv.Itoa(size.Height),
		"-singlefile",
		input,
		outputPrefix,
	}

	cmd := exec.CommandContext(ctx, r.Path, args...)
	if output, err := cmd.CombinedOutput(); err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("pdftoppm failed: %w, output: %s", err, string(output))
	}

	png, err := os.ReadFile(outputPrefix + ".png")
	if err != nil {
		return nil, fmt.Errorf("failed to read rendered page: %w", err)
	}
	return png, nil
}
