package handlers

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Shimizu-Technology/pdf-tools-api/internal/models"
	pdfservice "github.com/Shimizu-Technology/pdf-tools-api/internal/services/pdf"
	"github.com/Shimizu-Technology/pdf-tools-api/internal/services/preview"
)

func float(v float64) *float64 { return &v }

func TestNormalizeAnnotation_Defaults(t *testing.T) {
	req := models.CreateAnnotationRequest{Text: "  Signed  "}
	require.NoError(t, normalizeAnnotation(&req, 3))

	assert.Equal(t, "Signed", req.Text)
	assert.Equal(t, pdfservice.DefaultTextSize, req.Size)
	assert.Equal(t, pdfservice.DefaultTextColor, req.Color)
	assert.Equal(t, 1, req.Page)
}

func TestNormalizeAnnotation_Errors(t *testing.T) {
	tests := []struct {
		name string
		req  models.CreateAnnotationRequest
	}{
		{"blank text", models.CreateAnnotationRequest{Text: "   "}},
		{"negative size", models.CreateAnnotationRequest{Text: "a", Size: -1}},
		{"huge size", models.CreateAnnotationRequest{Text: "a", Size: maxAnnotationSize + 1}},
		{"page past end", models.CreateAnnotationRequest{Text: "a", Page: 4}},
		{"negative page", models.CreateAnnotationRequest{Text: "a", Page: -1}},
		{"x without y", models.CreateAnnotationRequest{Text: "a", X: float(1)}},
		{"canvas y without x", models.CreateAnnotationRequest{Text: "a", CanvasY: float(1)}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := tt.req
			assert.Error(t, normalizeAnnotation(&req, 3))
		})
	}
}

func TestResolvePosition(t *testing.T) {
	letter := pdfservice.PageSize{Width: 612, Height: 792}

	t.Run("explicit points win", func(t *testing.T) {
		req := models.CreateAnnotationRequest{
			Size: 14, X: float(10), Y: float(20),
			CanvasX: float(5), CanvasY: float(5), CanvasWidth: 100, CanvasHeight: 100,
		}
		x, y, err := resolvePosition(req, letter, 0)
		require.NoError(t, err)
		assert.Equal(t, 10.0, x)
		assert.Equal(t, 20.0, y)
	})

	t.Run("canvas click maps from top-left", func(t *testing.T) {
		req := models.CreateAnnotationRequest{
			Size: 14, CanvasX: float(306), CanvasY: float(0), CanvasWidth: 612, CanvasHeight: 792,
		}
		x, y, err := resolvePosition(req, letter, 0)
		require.NoError(t, err)
		assert.InDelta(t, 306, x, 0.001)
		assert.InDelta(t, 792, y, 0.001)
	})

	t.Run("canvas without size", func(t *testing.T) {
		req := models.CreateAnnotationRequest{Size: 14, CanvasX: float(1), CanvasY: float(1)}
		_, _, err := resolvePosition(req, letter, 0)
		assert.ErrorIs(t, err, preview.ErrInvalidCanvas)
	})

	t.Run("default stacks below existing", func(t *testing.T) {
		req := models.CreateAnnotationRequest{Size: 14}
		x0, y0, err := resolvePosition(req, letter, 0)
		require.NoError(t, err)
		x1, y1, err := resolvePosition(req, letter, 1)
		require.NoError(t, err)

		wantX, wantY := pdfservice.DefaultAnnotationPosition(letter.Height, 14, 0)
		assert.Equal(t, wantX, x0)
		assert.Equal(t, wantY, y0)
		assert.Equal(t, x0, x1)
		assert.Less(t, y1, y0)
	})
}

func TestPreviewParams(t *testing.T) {
	gin.SetMode(gin.TestMode)

	tests := []struct {
		query     string
		wantWidth float64
		wantZoom  float64
		wantErr   bool
	}{
		{query: "", wantWidth: 0, wantZoom: preview.DefaultZoom},
		{query: "width=800&zoom=1.5", wantWidth: 800, wantZoom: 1.5},
		{query: "zoom=10", wantZoom: preview.MaxZoom},
		{query: "zoom=0", wantZoom: preview.MinZoom},
		{query: "width=-1", wantErr: true},
		{query: "width=wide", wantErr: true},
		{query: "zoom=big", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			c, _ := gin.CreateTestContext(httptest.NewRecorder())
			c.Request = httptest.NewRequest(http.MethodGet, "/preview?"+tt.query, nil)

			width, zoom, err := previewParams(c)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantWidth, width)
			assert.InDelta(t, tt.wantZoom, zoom, 1e-9)
		})
	}
}

func TestPreviewPage_NoRenderer(t *testing.T) {
	gin.SetMode(gin.TestMode)
	h := &Handler{}

	r := gin.New()
	r.GET("/documents/:id/pages/:page/preview", h.PreviewPage)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/documents/x/pages/1/preview", nil))

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Equal(t, "previews_unavailable", errorCode(t, w))
}
