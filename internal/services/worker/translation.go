package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/Shimizu-Technology/pdf-tools-api/internal/models"
	"github.com/Shimizu-Technology/pdf-tools-api/internal/services/pdf"
	"github.com/Shimizu-Technology/pdf-tools-api/internal/services/translate"
)

// TranslationPayload is the optional payload of a translation job.
type TranslationPayload struct {
	TranslationID string `json:"translation_id"`
}

// errNoText is returned for documents with nothing to translate, usually
// scanned pages without a text layer.
var errNoText = errors.New("document has no extractable text")

// processTranslation extracts the document's text page by page, translates
// each page, and rebuilds a new PDF from the result.
func (p *Pool) processTranslation(job Job) error {
	ctx, cancel := context.WithTimeout(p.ctx, jobTimeout)
	defer cancel()

	id := job.ID
	if len(job.Payload) > 0 {
		var payload TranslationPayload
		if err := json.Unmarshal(job.Payload, &payload); err != nil {
			return fmt.Errorf("invalid translation payload: %w", err)
		}
		if payload.TranslationID != "" {
			id = payload.TranslationID
		}
	}

	t, err := p.store.GetTranslation(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to get translation: %w", err)
	}

	t.Status = models.StatusProcessing
	if err := p.store.UpdateTranslation(ctx, t); err != nil {
		err = fmt.Errorf("failed to update status: %w", err)
		p.fail(t, err)
		return err
	}

	result, err := p.translateDocument(ctx, t)
	if err != nil {
		p.fail(t, err)
		return err
	}

	// If this write fails the failed record still points at the stored PDF.
	t.ResultDocumentID = &result.ID
	t.Status = models.StatusCompleted
	t.ErrorMessage = ""
	if err := p.store.UpdateTranslation(ctx, t); err != nil {
		err = fmt.Errorf("failed to save translation: %w", err)
		p.fail(t, err)
		return err
	}

	p.notify(models.EventTranslationCompleted, t)
	return nil
}

// translateDocument does the work and stores the rebuilt PDF. It fills in
// t.SourceText and t.TranslatedText as it goes.
func (p *Pool) translateDocument(ctx context.Context, t *models.Translation) (*models.Document, error) {
	translator, ok := p.translators[t.Backend]
	if !ok || translator == nil {
		return nil, fmt.Errorf("unknown translation backend %q", t.Backend)
	}

	source, err := p.store.GetDocumentWithData(ctx, t.DocumentID)
	if err != nil {
		return nil, fmt.Errorf("failed to load document: %w", err)
	}

	pages, err := pdf.ExtractPages(source.Data)
	if err != nil {
		return nil, fmt.Errorf("text extraction failed: %w", err)
	}
	t.SourceText = pdf.JoinPages(pages)
	if strings.TrimSpace(t.SourceText) == "" {
		return nil, errNoText
	}

	log.Printf("🌐 Translating %s via %s (%s → %s, %d pages)",
		t.ID, translator.Name(), t.SourceLang, t.TargetLang, len(pages))

	translated := make([]pdf.PageText, len(pages))
	for i, page := range pages {
		translated[i] = pdf.PageText{Number: page.Number}
		if strings.TrimSpace(page.Text) == "" {
			continue
		}

		text, err := translate.TranslateLong(ctx, translator, page.Text, t.SourceLang, t.TargetLang, p.chunkSize)
		if err != nil {
			return nil, fmt.Errorf("page %d: %w", page.Number, err)
		}
		translated[i].Text = text
	}
	t.TranslatedText = pdf.JoinPages(translated)

	// Page sizes are best effort; Rebuild falls back to A4.
	var sizes []pdf.PageSize
	if info, err := pdf.Inspect(source.Data); err == nil {
		sizes = info.Pages
	}

	data, err := p.rebuild(translated, pdf.RebuildOptions{FontPath: p.fontPath, PageSizes: sizes})
	if err != nil {
		return nil, fmt.Errorf("failed to rebuild PDF: %w", err)
	}

	pageCount := len(translated)
	if info, err := pdf.Inspect(data); err == nil {
		pageCount = info.PageCount
	}

	doc := &models.Document{
		OriginalName:     translatedName(source.OriginalName, t.TargetLang),
		Kind:             models.KindTranslated,
		PageCount:        pageCount,
		Data:             data,
		SourceDocumentID: &source.ID,
		APIKeyID:         t.APIKeyID,
	}
	if err := p.store.CreateDocument(ctx, doc); err != nil {
		return nil, fmt.Errorf("failed to store translated document: %w", err)
	}
	return doc, nil
}

// fail records the error on the translation and fires translation.failed.
// It uses a fresh context so a timed-out job can still be marked failed.
func (p *Pool) fail(t *models.Translation, cause error) {
	ctx, cancel := context.WithTimeout(context.Background(), jobTimeout/30)
	defer cancel()

	t.Status = models.StatusFailed
	t.ErrorMessage = cause.Error()
	if err := p.store.UpdateTranslation(ctx, t); err != nil {
		log.Printf("⚠️  Failed to mark translation %s as failed: %v", t.ID, err)
	}
	p.notify(models.EventTranslationFailed, t)
}

func (p *Pool) notify(event string, t *models.Translation) {
	if p.notifier == nil {
		return
	}
	// Webhook payloads carry the record, not the (possibly huge) texts.
	summary := *t
	summary.SourceText = ""
	summary.TranslatedText = ""
	p.notifier.NotifyEvent(context.Background(), event, t.APIKeyID, summary)
}

// translatedName turns "report.pdf" into "report_pt.pdf".
func translatedName(original, target string) string {
	base := strings.TrimSuffix(original, ".pdf")
	base = strings.TrimSuffix(base, ".PDF")
	if base == "" {
		base = "document"
	}
	return base + "_" + target + ".pdf"
}
