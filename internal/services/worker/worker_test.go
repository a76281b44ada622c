package worker

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Shimizu-Technology/pdf-tools-api/internal/models"
	"github.com/Shimizu-Technology/pdf-tools-api/internal/pdftest"
	"github.com/Shimizu-Technology/pdf-tools-api/internal/services/pdf"
	"github.com/Shimizu-Technology/pdf-tools-api/internal/services/translate"
)

type memStore struct {
	mu           sync.Mutex
	translations map[string]*models.Translation
	documents    map[string]*models.Document
	updates      []models.JobStatus
}

func newMemStore() *memStore {
	return &memStore{
		translations: map[string]*models.Translation{},
		documents:    map[string]*models.Document{},
	}
}

func (s *memStore) GetTranslation(_ context.Context, id string) (*models.Translation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.translations[id]
	if !ok {
		return nil, errors.New("translation not found")
	}
	cp := *t
	return &cp, nil
}

func (s *memStore) UpdateTranslation(_ context.Context, t *models.Translation) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *t
	s.translations[t.ID] = &cp
	s.updates = append(s.updates, t.Status)
	return nil
}

func (s *memStore) GetDocumentWithData(_ context.Context, id string) (*models.Document, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	d, ok := s.documents[id]
	if !ok {
		return nil, errors.New("document not found")
	}
	return d, nil
}

func (s *memStore) CreateDocument(_ context.Context, d *models.Document) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	d.ID = "doc-" + string(rune('a'+len(s.documents)))
	s.documents[d.ID] = d
	return nil
}

// flakyStore fails the first write of a given status.
type flakyStore struct {
	*memStore
	failOn models.JobStatus
	failed bool
}

func (s *flakyStore) UpdateTranslation(ctx context.Context, t *models.Translation) error {
	if t.Status == s.failOn && !s.failed {
		s.failed = true
		return errors.New("connection reset")
	}
	return s.memStore.UpdateTranslation(ctx, t)
}

type upper struct{}

func (upper) Name() string { return "upper" }
func (upper) Translate(_ context.Context, text, _, _ string) (string, error) {
	return strings.ToUpper(text), nil
}

type failing struct{}

func (failing) Name() string { return "failing" }
func (failing) Translate(context.Context, string, string, string) (string, error) {
	return "", errors.New("endpoint unreachable")
}

type event struct {
	name     string
	apiKeyID *string
	data     interface{}
}

type recorder struct {
	mu     sync.Mutex
	events []event
}

func (r *recorder) NotifyEvent(_ context.Context, name string, apiKeyID *string, data interface{}) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event{name, apiKeyID, data})
}

func newTestPool(store *memStore, notifier Notifier) *Pool {
	p := NewPool(Config{Workers: 1, QueueSize: 1}, store, map[string]translate.Translator{
		"upper":   upper{},
		"failing": failing{},
	}, notifier)

	p.rebuild = func(pages []pdf.PageText, _ pdf.RebuildOptions) ([]byte, error) {
		out := make([]pdftest.Page, len(pages))
		for i, pg := range pages {
			out[i] = pdftest.Page{Text: pg.Text}
		}
		return pdftest.Build(out...), nil
	}
	return p
}

func TestProcessTranslation(t *testing.T) {
	store := newMemStore()
	key := "key-1"
	store.documents["src"] = &models.Document{
		ID:           "src",
		OriginalName: "report.pdf",
		Data:         pdftest.Build(pdftest.Page{Text: "hello there"}, pdftest.Page{}, pdftest.Page{Text: "bye"}),
	}
	store.translations["tr-1"] = &models.Translation{
		ID: "tr-1", DocumentID: "src", SourceLang: "en", TargetLang: "pt", Backend: "upper", APIKeyID: &key,
	}

	rec := &recorder{}
	p := newTestPool(store, rec)

	err := p.processTranslation(Job{ID: "tr-1", Type: JobTranslation})
	require.NoError(t, err)

	tr := store.translations["tr-1"]
	assert.Equal(t, models.StatusCompleted, tr.Status)
	require.NotNil(t, tr.ResultDocumentID)
	assert.Contains(t, tr.SourceText, "hello there")
	assert.Contains(t, tr.TranslatedText, "HELLO THERE")
	assert.Contains(t, tr.TranslatedText, "BYE")
	assert.Equal(t, []models.JobStatus{models.StatusProcessing, models.StatusCompleted}, store.updates)

	result := store.documents[*tr.ResultDocumentID]
	assert.Equal(t, "report_pt.pdf", result.OriginalName)
	assert.Equal(t, models.KindTranslated, result.Kind)
	assert.Equal(t, 3, result.PageCount)
	assert.Equal(t, "src", *result.SourceDocumentID)
	assert.Equal(t, &key, result.APIKeyID)

	require.Len(t, rec.events, 1)
	assert.Equal(t, models.EventTranslationCompleted, rec.events[0].name)
	assert.Equal(t, &key, rec.events[0].apiKeyID)
	sent := rec.events[0].data.(models.Translation)
	assert.Empty(t, sent.TranslatedText)
}

func TestProcessTranslation_PayloadID(t *testing.T) {
	store := newMemStore()
	store.documents["src"] = &models.Document{ID: "src", OriginalName: "a.pdf", Data: pdftest.Pages(1)}
	store.translations["tr-2"] = &models.Translation{ID: "tr-2", DocumentID: "src", Backend: "upper", TargetLang: "de"}

	p := newTestPool(store, nil)
	err := p.processTranslation(Job{ID: "ignored", Type: JobTranslation, Payload: []byte(`{"translation_id":"tr-2"}`)})
	require.NoError(t, err)
	assert.Equal(t, models.StatusCompleted, store.translations["tr-2"].Status)
}

func TestProcessTranslation_Failures(t *testing.T) {
	tests := []struct {
		name    string
		backend string
		data    []byte
		wantMsg string
	}{
		{"translator error", "failing", pdftest.Pages(1), "endpoint unreachable"},
		{"unknown backend", "nope", pdftest.Pages(1), "unknown translation backend"},
		{"no text", "upper", pdftest.Build(pdftest.Page{}), errNoText.Error()},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := newMemStore()
			store.documents["src"] = &models.Document{ID: "src", OriginalName: "a.pdf", Data: tt.data}
			store.translations["tr"] = &models.Translation{ID: "tr", DocumentID: "src", Backend: tt.backend, TargetLang: "fr"}

			rec := &recorder{}
			p := newTestPool(store, rec)

			err := p.processTranslation(Job{ID: "tr", Type: JobTranslation})
			require.Error(t, err)

			tr := store.translations["tr"]
			assert.Equal(t, models.StatusFailed, tr.Status)
			assert.Contains(t, tr.ErrorMessage, tt.wantMsg)
			assert.Nil(t, tr.ResultDocumentID)

			require.Len(t, rec.events, 1)
			assert.Equal(t, models.EventTranslationFailed, rec.events[0].name)
		})
	}
}

func TestProcessTranslation_StatusWriteFails(t *testing.T) {
	tests := []struct {
		name       string
		failOn     models.JobStatus
		wantResult bool
	}{
		{"processing", models.StatusProcessing, false},
		{"completed", models.StatusCompleted, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mem := newMemStore()
			mem.documents["src"] = &models.Document{ID: "src", OriginalName: "a.pdf", Data: pdftest.Pages(1)}
			mem.translations["tr"] = &models.Translation{ID: "tr", DocumentID: "src", Backend: "upper", TargetLang: "fr"}
			store := &flakyStore{memStore: mem, failOn: tt.failOn}

			rec := &recorder{}
			p := newTestPool(mem, rec)
			p.store = store

			err := p.processTranslation(Job{ID: "tr", Type: JobTranslation})
			require.Error(t, err)
			assert.Contains(t, err.Error(), "connection reset")

			tr := mem.translations["tr"]
			assert.Equal(t, models.StatusFailed, tr.Status)
			assert.Contains(t, tr.ErrorMessage, "connection reset")

			require.Len(t, rec.events, 1)
			assert.Equal(t, models.EventTranslationFailed, rec.events[0].name)

			if tt.wantResult {
				require.NotNil(t, tr.ResultDocumentID)
				assert.Contains(t, mem.documents, *tr.ResultDocumentID)
			} else {
				assert.Nil(t, tr.ResultDocumentID)
				assert.Len(t, mem.documents, 1)
			}
		})
	}
}

func TestSubmit_QueueFull(t *testing.T) {
	p := NewPool(Config{Workers: 1, QueueSize: 1}, newMemStore(), nil, nil)

	require.NoError(t, p.Submit(Job{ID: "1", Type: JobTranslation}))
	assert.Error(t, p.Submit(Job{ID: "2", Type: JobTranslation}))
	assert.Equal(t, 1, p.QueueSize())

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, p.SubmitBlocking(ctx, Job{ID: "3", Type: JobTranslation}), context.DeadlineExceeded)
}

func TestPool_StartStop(t *testing.T) {
	store := newMemStore()
	store.documents["src"] = &models.Document{ID: "src", OriginalName: "a.pdf", Data: pdftest.Pages(1)}
	store.translations["tr"] = &models.Translation{ID: "tr", DocumentID: "src", Backend: "upper", TargetLang: "es"}

	p := newTestPool(store, nil)
	p.Start()
	require.NoError(t, p.Submit(Job{ID: "tr", Type: JobTranslation}))

	assert.Eventually(t, func() bool {
		tr, err := store.GetTranslation(context.Background(), "tr")
		return err == nil && tr.Status == models.StatusCompleted
	}, 5*time.Second, 10*time.Millisecond)

	p.Stop()
	assert.Equal(t, 1, p.WorkerCount())
}

func TestTranslatedName(t *testing.T) {
	assert.Equal(t, "report_pt.pdf", translatedName("report.pdf", "pt"))
	assert.Equal(t, "SCAN_de.pdf", translatedName("SCAN.PDF", "de"))
	assert.Equal(t, "document_fr.pdf", translatedName(".pdf", "fr"))
}
