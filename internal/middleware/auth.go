// Package middleware provides HTTP middleware for the API.
//
// Go Pattern: Middleware in Go is a function that wraps an HTTP handler.
// In Gin, middleware is a gin.HandlerFunc that calls c.Next() to continue
// the chain, or c.Abort() to stop processing.
package middleware

import (
	"context"
	"crypto/sha256"
	"fmt"
	"log"

	"github.com/gin-gonic/gin"

	"github.com/Shimizu-Technology/pdf-tools-api/internal/models"
)

// contextKey is a custom type for context keys to avoid collisions.
// Go Pattern: Use unexported types for context keys so other packages
// can't accidentally overwrite your values.
type contextKey string

const apiKeyContextKey contextKey = "api_key"

// Store is what authentication looks up. *database.DB satisfies it.
type Store interface {
	GetAPIKeyByHash(ctx context.Context, hash string) (*models.APIKey, error)
	UpdateAPIKeyLastUsed(ctx context.Context, id string) error
	GetUserByID(ctx context.Context, id string) (*models.User, error)
}

// lookupAPIKey resolves a raw X-API-Key value. On success last_used_at is
// bumped in the background.
func lookupAPIKey(c *gin.Context, store Store, rawKey string) (*models.APIKey, error) {
	apiKey, err := store.GetAPIKeyByHash(c.Request.Context(), HashAPIKey(rawKey))
	if err != nil {
		return nil, err
	}

	// Go Pattern: Using a goroutine for non-critical background work. The
	// request context is cancelled when the response is written, so the
	// update runs detached from it.
	ctx := context.WithoutCancel(c.Request.Context())
	go func() {
		if err := store.UpdateAPIKeyLastUsed(ctx, apiKey.ID); err != nil {
			log.Printf("⚠️  Failed to update last_used_at for key %s: %v", apiKey.ID, err)
		}
	}()
	return apiKey, nil
}

// GetAPIKey retrieves the authenticated API key from the request context.
// It is nil for requests authenticated with a JWT.
func GetAPIKey(c *gin.Context) *models.APIKey {
	val, exists := c.Get(string(apiKeyContextKey))
	if !exists {
		return nil
	}
	// Go Pattern: Type assertion with the comma-ok idiom won't panic.
	key, ok := val.(*models.APIKey)
	if !ok {
		return nil
	}
	return key
}

// HashAPIKey creates a SHA-256 hash of an API key.
// We store hashes, not raw keys, same principle as password hashing.
func HashAPIKey(key string) string {
	hash := sha256.Sum256([]byte(key))
	return fmt.Sprintf("%x", hash)
}
