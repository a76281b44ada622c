package pdf

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"strconv"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
)

var (
	ErrInvalidPDF      = errors.New("not a valid PDF")
	ErrTooFewDocuments = errors.New("at least two PDF documents are required to merge")
	ErrEmptySelection  = errors.New("select at least one page")
	ErrPageOutOfRange  = errors.New("page out of range")
)

// PageSize is a page's width and height in PDF points.
type PageSize struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Info describes a document's page layout.
type Info struct {
	PageCount int        `json:"page_count"`
	Pages     []PageSize `json:"pages"`
}

// Page returns the size of a 1-based page.
func (i *Info) Page(n int) (PageSize, error) {
	if n < 1 || n > len(i.Pages) {
		return PageSize{}, fmt.Errorf("%w: page %d of %d", ErrPageOutOfRange, n, len(i.Pages))
	}
	return i.Pages[n-1], nil
}

func newConf() *model.Configuration {
	return model.NewDefaultConfiguration()
}

// Inspect reads page count and per-page dimensions.
func Inspect(data []byte) (*Info, error) {
	if !ValidatePDF(data) {
		return nil, ErrInvalidPDF
	}

	dims, err := api.PageDims(bytes.NewReader(data), newConf())
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPDF, err)
	}

	info := &Info{PageCount: len(dims), Pages: make([]PageSize, len(dims))}
	for i, d := range dims {
		info.Pages[i] = PageSize{Width: d.Width, Height: d.Height}
	}
	return info, nil
}

// Merge concatenates documents in the order given, copying every page of each.
func Merge(docs [][]byte) ([]byte, error) {
	if len(docs) < 2 {
		return nil, ErrTooFewDocuments
	}

	readers := make([]io.ReadSeeker, len(docs))
	for i, d := range docs {
		if !ValidatePDF(d) {
			return nil, fmt.Errorf("document %d: %w", i+1, ErrInvalidPDF)
		}
		readers[i] = bytes.NewReader(d)
	}

	var out bytes.Buffer
	if err := api.MergeRaw(readers, &out, false, newConf()); err != nil {
		return nil, fmt.Errorf("merge failed: %w", err)
	}
	return out.Bytes(), nil
}

// Collect builds a new document from the 0-based page indices in pages,
// in exactly that order. Indices may repeat.
func Collect(data []byte, pages []int, pageCount int) ([]byte, error) {
	if len(pages) == 0 {
		return nil, ErrEmptySelection
	}

	selected := make([]string, len(pages))
	for i, p := range pages {
		if p < 0 || p >= pageCount {
			return nil, fmt.Errorf("%w: index %d of %d pages", ErrPageOutOfRange, p, pageCount)
		}
		selected[i] = strconv.Itoa(p + 1)
	}

	var out bytes.Buffer
	if err := api.Collect(bytes.NewReader(data), &out, selected, newConf()); err != nil {
		return nil, fmt.Errorf("collect pages failed: %w", err)
	}
	return out.Bytes(), nil
}
