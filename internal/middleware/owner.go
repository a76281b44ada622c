package middleware

import (
	"strings"

	"github.com/Shimizu-Technology/pdf-tools-api/internal/models"
)

// IsOwnerAPIKey reports whether apiKey is the configured owner key, by ID or
// by display prefix. Stored prefixes end in "..."; the configured one may
// be given with or without it.
func IsOwnerAPIKey(apiKey *models.APIKey, ownerKeyID, ownerKeyPrefix string) bool {
	switch {
	case apiKey == nil:
		return false
	case ownerKeyID != "" && apiKey.ID == ownerKeyID:
		return true
	}

	want := strings.TrimSuffix(strings.TrimSpace(ownerKeyPrefix), "...")
	return want != "" && strings.TrimSuffix(apiKey.KeyPrefix, "...") == want
}
