// organize.go persists page order/selection sessions.
//
// page_order and selected are INTEGER[] columns. sqlx can't scan Postgres
// arrays into []int on its own, so these queries scan by hand through
// pq.Array, the same way webhooks.go handles its events column.
package database

import (
	"context"
	"fmt"

	"github.com/lib/pq"

	"github.com/Shimizu-Technology/pdf-tools-api/internal/models"
)

// CreateOrganizeSession inserts a new session for a document.
func (db *DB) CreateOrganizeSession(ctx context.Context, s *models.OrganizeSession) error {
	query := `
		INSERT INTO organize_sessions (document_id, page_order, selected)
		VALUES ($1, $2, $3)
		RETURNING id, created_at, updated_at`

	return db.QueryRowContext(ctx, query,
		s.DocumentID, pq.Array(toInt64s(s.PageOrder)), pq.Array(toInt64s(s.Selected)),
	).Scan(&s.ID, &s.CreatedAt, &s.UpdatedAt)
}

// GetOrganizeSession retrieves a session by ID.
func (db *DB) GetOrganizeSession(ctx context.Context, id string) (*models.OrganizeSession, error) {
	var s models.OrganizeSession
	var order, selected []int64

	query := `SELECT id, document_id, page_order, selected, created_at, updated_at FROM organize_sessions WHERE id = $1`
	err := db.QueryRowContext(ctx, query, id).Scan(
		&s.ID, &s.DocumentID, pq.Array(&order), pq.Array(&selected), &s.CreatedAt, &s.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("organize session not found: %w", err)
	}

	s.PageOrder = toInts(order)
	s.Selected = toInts(selected)
	return &s, nil
}

// UpdateOrganizeSession writes back the order and selection.
func (db *DB) UpdateOrganizeSession(ctx context.Context, s *models.OrganizeSession) error {
	query := `
		UPDATE organize_sessions
		SET page_order = $2, selected = $3, updated_at = NOW()
		WHERE id = $1
		RETURNING updated_at`

	err := db.QueryRowContext(ctx, query,
		s.ID, pq.Array(toInt64s(s.PageOrder)), pq.Array(toInt64s(s.Selected)),
	).Scan(&s.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to update organize session: %w", err)
	}
	return nil
}

// pq.Array handles []int64 but not []int.
func toInt64s(in []int) []int64 {
	out := make([]int64, len(in))
	for i, v := range in {
		out[i] = int64(v)
	}
	return out
}

func toInts(in []int64) []int {
	out := make([]int, len(in))
	for i, v := range in {
		out[i] = int(v)
	}
	return out
}
