// documents.go handles stored PDF documents and their annotations.
package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/Shimizu-Technology/pdf-tools-api/internal/models"
)

// documentColumns is every documents column except data. List and metadata
// queries use it so they never pull PDF bytes across the wire.
const documentColumns = `id, original_name, kind, page_count, size_bytes, revision,
	source_document_id, api_key_id, created_at, updated_at`

// CreateDocument inserts a new document with its PDF bytes.
func (db *DB) CreateDocument(ctx context.Context, d *models.Document) error {
	if d.Kind == "" {
		d.Kind = models.KindUpload
	}
	d.SizeBytes = int64(len(d.Data))

	query := `
		INSERT INTO documents (original_name, kind, page_count, size_bytes, data, source_document_id, api_key_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, revision, created_at, updated_at`

	return db.QueryRowContext(ctx, query,
		d.OriginalName, d.Kind, d.PageCount, d.SizeBytes, d.Data,
		d.SourceDocumentID, d.APIKeyID,
	).Scan(&d.ID, &d.Revision, &d.CreatedAt, &d.UpdatedAt)
}

// GetDocument retrieves document metadata (without the PDF bytes).
func (db *DB) GetDocument(ctx context.Context, id string) (*models.Document, error) {
	var d models.Document
	err := db.GetContext(ctx, &d, `SELECT `+documentColumns+` FROM documents WHERE id = $1`, id)
	if err != nil {
		return nil, fmt.Errorf("document not found: %w", err)
	}
	return &d, nil
}

// GetDocumentWithData retrieves a document including its PDF bytes.
func (db *DB) GetDocumentWithData(ctx context.Context, id string) (*models.Document, error) {
	var d models.Document
	err := db.GetContext(ctx, &d, `SELECT * FROM documents WHERE id = $1`, id)
	if err != nil {
		return nil, fmt.Errorf("document not found: %w", err)
	}
	return &d, nil
}

// ListDocuments returns a paginated list of documents with optional filters.
func (db *DB) ListDocuments(ctx context.Context, params models.DocumentListParams) ([]models.Document, int, error) {
	if params.Page < 1 {
		params.Page = 1
	}
	if params.PerPage < 1 || params.PerPage > 100 {
		params.PerPage = 20
	}

	// Build WHERE clause dynamically
	var conditions []string
	var args []interface{}
	argNum := 1

	if params.Kind != "" {
		conditions = append(conditions, fmt.Sprintf("kind = $%d", argNum))
		args = append(args, params.Kind)
		argNum++
	}

	if params.Search != "" {
		conditions = append(conditions, fmt.Sprintf("original_name ILIKE $%d", argNum))
		args = append(args, "%"+params.Search+"%")
		argNum++
	}

	if params.APIKeyID != nil {
		conditions = append(conditions, fmt.Sprintf("api_key_id = $%d", argNum))
		args = append(args, *params.APIKeyID)
		argNum++
	}

	whereClause := ""
	if len(conditions) > 0 {
		whereClause = "WHERE " + strings.Join(conditions, " AND ")
	}

	var total int
	err := db.GetContext(ctx, &total, fmt.Sprintf("SELECT COUNT(*) FROM documents %s", whereClause), args...)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			total = 0
		} else {
			return nil, 0, fmt.Errorf("count query failed: %w", err)
		}
	}

	offset := (params.Page - 1) * params.PerPage
	selectQuery := fmt.Sprintf(
		"SELECT %s FROM documents %s ORDER BY created_at DESC LIMIT $%d OFFSET $%d",
		documentColumns, whereClause, argNum, argNum+1,
	)
	args = append(args, params.PerPage, offset)

	var docs []models.Document
	if err := db.SelectContext(ctx, &docs, selectQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("list query failed: %w", err)
	}

	return docs, total, nil
}

// DeleteDocument removes a document by ID. Annotations, organize sessions
// and translations cascade.
func (db *DB) DeleteDocument(ctx context.Context, id string) error {
	result, err := db.ExecContext(ctx, `DELETE FROM documents WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete document: %w", err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return fmt.Errorf("document not found")
	}
	return nil
}

// --- Annotation Operations ---

// ListAnnotations returns a document's annotations in the order they were added.
func (db *DB) ListAnnotations(ctx context.Context, documentID string) ([]models.Annotation, error) {
	var annotations []models.Annotation
	err := db.SelectContext(ctx, &annotations,
		`SELECT * FROM annotations WHERE document_id = $1 ORDER BY created_at ASC`, documentID)
	if err != nil {
		return nil, fmt.Errorf("failed to list annotations: %w", err)
	}
	return annotations, nil
}

// CountAnnotationsOnPage returns how many annotations already sit on a page.
// The default placement stacks each new line below the previous ones.
func (db *DB) CountAnnotationsOnPage(ctx context.Context, documentID string, page int) (int, error) {
	var n int
	err := db.GetContext(ctx, &n,
		`SELECT COUNT(*) FROM annotations WHERE document_id = $1 AND page = $2`, documentID, page)
	if err != nil {
		return 0, fmt.Errorf("failed to count annotations: %w", err)
	}
	return n, nil
}

// ErrStaleRevision is returned when a document changed between being read
// and being written back.
var ErrStaleRevision = errors.New("document was modified concurrently")

// ApplyAnnotation stores the re-rendered PDF and the annotation that produced
// it in one transaction, so the annotation list always matches the bytes.
// d.Revision must be the revision the new bytes were derived from.
func (db *DB) ApplyAnnotation(ctx context.Context, d *models.Document, a *models.Annotation) error {
	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	d.SizeBytes = int64(len(d.Data))
	err = tx.QueryRowContext(ctx, `
		UPDATE documents
		SET data = $2, size_bytes = $3, revision = revision + 1,
			kind = CASE WHEN kind = 'upload' THEN 'edited' ELSE kind END,
			updated_at = NOW()
		WHERE id = $1 AND revision = $4
		RETURNING revision, kind, updated_at`,
		d.ID, d.Data, d.SizeBytes, d.Revision,
	).Scan(&d.Revision, &d.Kind, &d.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrStaleRevision
	}
	if err != nil {
		return fmt.Errorf("failed to update document: %w", err)
	}

	a.DocumentID = d.ID
	err = tx.QueryRowContext(ctx, `
		INSERT INTO annotations (document_id, page, text, size, color, x, y)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at`,
		a.DocumentID, a.Page, a.Text, a.Size, a.Color, a.X, a.Y,
	).Scan(&a.ID, &a.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert annotation: %w", err)
	}

	return tx.Commit()
}
