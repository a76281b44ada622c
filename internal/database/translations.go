// translations.go handles translation job records.
package database

import (
	"context"
	"fmt"

	"github.com/Shimizu-Technology/pdf-tools-api/internal/models"
)

// CreateTranslation inserts a new translation job in pending state.
func (db *DB) CreateTranslation(ctx context.Context, t *models.Translation) error {
	if t.Status == "" {
		t.Status = models.StatusPending
	}

	query := `
		INSERT INTO translations (document_id, source_lang, target_lang, backend, status, api_key_id)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at, updated_at`

	return db.QueryRowContext(ctx, query,
		t.DocumentID, t.SourceLang, t.TargetLang, t.Backend, t.Status, t.APIKeyID,
	).Scan(&t.ID, &t.CreatedAt, &t.UpdatedAt)
}

// GetTranslation retrieves a single translation by ID.
func (db *DB) GetTranslation(ctx context.Context, id string) (*models.Translation, error) {
	var t models.Translation
	err := db.GetContext(ctx, &t, `SELECT * FROM translations WHERE id = $1`, id)
	if err != nil {
		return nil, fmt.Errorf("translation not found: %w", err)
	}
	return &t, nil
}

// UpdateTranslation writes back a translation's progress.
func (db *DB) UpdateTranslation(ctx context.Context, t *models.Translation) error {
	query := `
		UPDATE translations
		SET status = $2, source_text = $3, translated_text = $4,
			result_document_id = $5, error_message = $6, updated_at = NOW()
		WHERE id = $1
		RETURNING updated_at`

	return db.QueryRowContext(ctx, query,
		t.ID, t.Status, t.SourceText, t.TranslatedText, t.ResultDocumentID, t.ErrorMessage,
	).Scan(&t.UpdatedAt)
}

// ListTranslations returns recent translations, optionally scoped to an API key.
func (db *DB) ListTranslations(ctx context.Context, limit int, apiKeyID *string) ([]models.Translation, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	var apiKeyValue interface{} = nil
	if apiKeyID != nil {
		apiKeyValue = *apiKeyID
	}

	// Texts can be large, so the list view leaves them out.
	var translations []models.Translation
	err := db.SelectContext(ctx, &translations,
		`SELECT id, document_id, source_lang, target_lang, backend, status,
			result_document_id, error_message, api_key_id, created_at, updated_at
		 FROM translations
		 WHERE ($1::uuid IS NULL OR api_key_id = $1)
		 ORDER BY created_at DESC
		 LIMIT $2`,
		apiKeyValue, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list translations: %w", err)
	}
	return translations, nil
}
