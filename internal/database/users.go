// users.go handles user accounts and their pinned workspace items.
package database

import (
	"context"
	"fmt"

	"github.com/Shimizu-Technology/pdf-tools-api/internal/models"
)

// CreateUser inserts a new user record.
func (db *DB) CreateUser(ctx context.Context, u *models.User) error {
	query := `
		INSERT INTO users (email, password_hash, name)
		VALUES ($1, $2, $3)
		RETURNING id, created_at`

	return db.QueryRowContext(ctx, query,
		u.Email, u.PasswordHash, u.Name,
	).Scan(&u.ID, &u.CreatedAt)
}

// GetUserByEmail retrieves a user by email address.
func (db *DB) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	var u models.User
	err := db.GetContext(ctx, &u, `SELECT * FROM users WHERE email = $1`, email)
	if err != nil {
		return nil, fmt.Errorf("user not found: %w", err)
	}
	return &u, nil
}

// GetUserByID retrieves a user by ID.
func (db *DB) GetUserByID(ctx context.Context, id string) (*models.User, error) {
	var u models.User
	err := db.GetContext(ctx, &u, `SELECT * FROM users WHERE id = $1`, id)
	if err != nil {
		return nil, fmt.Errorf("user not found: %w", err)
	}
	return &u, nil
}

// --- Workspace Operations ---

// SaveWorkspaceItem pins an item to a user's workspace. Saving the same item
// twice is a no-op that leaves item.ID empty.
func (db *DB) SaveWorkspaceItem(ctx context.Context, item *models.WorkspaceItem) error {
	query := `
		INSERT INTO workspace_items (user_id, item_type, item_id)
		VALUES ($1, $2, $3)
		ON CONFLICT (user_id, item_type, item_id) DO NOTHING
		RETURNING id, created_at`

	return db.QueryRowContext(ctx, query,
		item.UserID, item.ItemType, item.ItemID,
	).Scan(&item.ID, &item.CreatedAt)
}

// RemoveWorkspaceItem unpins an item from a user's workspace.
func (db *DB) RemoveWorkspaceItem(ctx context.Context, userID, itemType, itemID string) error {
	_, err := db.ExecContext(ctx,
		`DELETE FROM workspace_items WHERE user_id = $1 AND item_type = $2 AND item_id = $3`,
		userID, itemType, itemID)
	return err
}

// GetWorkspaceDocuments returns documents pinned to a user's workspace.
func (db *DB) GetWorkspaceDocuments(ctx context.Context, userID string) ([]models.Document, error) {
	var docs []models.Document
	err := db.SelectContext(ctx, &docs,
		`SELECT d.id, d.original_name, d.kind, d.page_count, d.size_bytes, d.revision,
			d.source_document_id, d.api_key_id, d.created_at, d.updated_at
		 FROM documents d
		 JOIN workspace_items wi ON wi.item_id = d.id AND wi.item_type = 'document'
		 WHERE wi.user_id = $1
		 ORDER BY wi.created_at DESC LIMIT 50`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get workspace documents: %w", err)
	}
	return docs, nil
}

// GetWorkspaceTranslations returns translations pinned to a user's workspace.
func (db *DB) GetWorkspaceTranslations(ctx context.Context, userID string) ([]models.Translation, error) {
	var translations []models.Translation
	err := db.SelectContext(ctx, &translations,
		`SELECT t.id, t.document_id, t.source_lang, t.target_lang, t.backend, t.status,
			t.result_document_id, t.error_message, t.api_key_id, t.created_at, t.updated_at
		 FROM translations t
		 JOIN workspace_items wi ON wi.item_id = t.id AND wi.item_type = 'translation'
		 WHERE wi.user_id = $1
		 ORDER BY wi.created_at DESC LIMIT 50`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get workspace translations: %w", err)
	}
	return translations, nil
}
