// Package models defines the data structures used throughout the application.
//
// Go Pattern: Models are plain structs with JSON tags for serialization.
// Go models are just data containers, no ORM magic. The database package
// handles persistence.
//
// JSON tags (e.g., `json:"id"`) control how struct fields are serialized
// to/from JSON. The `db` tags work with sqlx for database column mapping.
package models

import (
	"time"
)

// JobStatus represents the processing state of an async job.
// Go Pattern: We use string constants instead of enums (Go doesn't have enums).
type JobStatus string

const (
	StatusPending    JobStatus = "pending"
	StatusProcessing JobStatus = "processing"
	StatusCompleted  JobStatus = "completed"
	StatusFailed     JobStatus = "failed"
)

// DocumentKind records how a stored document came to exist.
type DocumentKind string

const (
	KindUpload     DocumentKind = "upload"
	KindMerged     DocumentKind = "merged"
	KindEdited     DocumentKind = "edited"
	KindOrganized  DocumentKind = "organized"
	KindTranslated DocumentKind = "translated"
)

// Document is a PDF held by the service. The bytes live in the data column
// and are never serialized to JSON; download them via /documents/:id/download.
type Document struct {
	ID               string       `json:"id" db:"id"`
	OriginalName     string       `json:"original_name" db:"original_name"`
	Kind             DocumentKind `json:"kind" db:"kind"`
	PageCount        int          `json:"page_count" db:"page_count"`
	SizeBytes        int64        `json:"size_bytes" db:"size_bytes"`
	SizeHuman        string       `json:"size_human" db:"-"`
	Revision         int          `json:"revision" db:"revision"` // Bumped on every in-place edit
	Data             []byte       `json:"-" db:"data"`
	SourceDocumentID *string      `json:"source_document_id,omitempty" db:"source_document_id"`
	APIKeyID         *string      `json:"api_key_id,omitempty" db:"api_key_id"`
	CreatedAt        time.Time    `json:"created_at" db:"created_at"`
	UpdatedAt        time.Time    `json:"updated_at" db:"updated_at"`
}

// Annotation is a piece of text drawn onto a document page.
// X and Y are PDF points with the origin at the bottom-left of the page.
type Annotation struct {
	ID         string    `json:"id" db:"id"`
	DocumentID string    `json:"document_id" db:"document_id"`
	Page       int       `json:"page" db:"page"` // 1-based
	Text       string    `json:"text" db:"text"`
	Size       int       `json:"size" db:"size"`
	Color      string    `json:"color" db:"color"` // #rrggbb
	X          float64   `json:"x" db:"x"`
	Y          float64   `json:"y" db:"y"`
	CreatedAt  time.Time `json:"created_at" db:"created_at"`
}

// OrganizeSession tracks the page order and selection a user is building
// for a document. Indices are 0-based page positions in the source document.
type OrganizeSession struct {
	ID         string    `json:"id" db:"id"`
	DocumentID string    `json:"document_id" db:"document_id"`
	PageOrder  []int     `json:"page_order" db:"page_order"`
	Selected   []int     `json:"selected" db:"selected"`
	CreatedAt  time.Time `json:"created_at" db:"created_at"`
	UpdatedAt  time.Time `json:"updated_at" db:"updated_at"`
}

// Translation is an async job that translates a document's text and
// rebuilds it as a new PDF.
type Translation struct {
	ID               string    `json:"id" db:"id"`
	DocumentID       string    `json:"document_id" db:"document_id"`
	SourceLang       string    `json:"source_lang" db:"source_lang"`
	TargetLang       string    `json:"target_lang" db:"target_lang"`
	Backend          string    `json:"backend" db:"backend"`
	Status           JobStatus `json:"status" db:"status"`
	SourceText       string    `json:"source_text,omitempty" db:"source_text"`
	TranslatedText   string    `json:"translated_text,omitempty" db:"translated_text"`
	ResultDocumentID *string   `json:"result_document_id,omitempty" db:"result_document_id"`
	ErrorMessage     string    `json:"error_message,omitempty" db:"error_message"`
	APIKeyID         *string   `json:"api_key_id,omitempty" db:"api_key_id"`
	CreatedAt        time.Time `json:"created_at" db:"created_at"`
	UpdatedAt        time.Time `json:"updated_at" db:"updated_at"`
}

// APIKey represents an API key for authentication.
// Note: We store the HASH of the key, never the raw key itself.
type APIKey struct {
	ID         string     `json:"id" db:"id"`
	KeyHash    string     `json:"-" db:"key_hash"`            // "-" means never serialize to JSON
	KeyPrefix  string     `json:"key_prefix" db:"key_prefix"` // First 8 chars for identification
	Name       string     `json:"name" db:"name"`
	Active     bool       `json:"active" db:"active"`
	RateLimit  int        `json:"rate_limit" db:"rate_limit"` // Requests per hour
	UserID     *string    `json:"user_id,omitempty" db:"user_id"`
	CreatedAt  time.Time  `json:"created_at" db:"created_at"`
	LastUsedAt *time.Time `json:"last_used_at,omitempty" db:"last_used_at"` // Pointer = nullable
}

// User is an account that logs in with email + password and receives a JWT.
type User struct {
	ID           string    `json:"id" db:"id"`
	Email        string    `json:"email" db:"email"`
	PasswordHash string    `json:"-" db:"password_hash"`
	Name         string    `json:"name" db:"name"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
}

// WorkspaceItem pins a document or translation to a user's workspace.
type WorkspaceItem struct {
	ID        string    `json:"id" db:"id"`
	UserID    string    `json:"user_id" db:"user_id"`
	ItemType  string    `json:"item_type" db:"item_type"` // "document" or "translation"
	ItemID    string    `json:"item_id" db:"item_id"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// Webhook is a URL that receives signed event notifications.
type Webhook struct {
	ID        string    `json:"id" db:"id"`
	APIKeyID  string    `json:"api_key_id" db:"api_key_id"`
	URL       string    `json:"url" db:"url"`
	Events    []string  `json:"events" db:"events"`
	Secret    string    `json:"-" db:"secret"`
	Active    bool      `json:"active" db:"active"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// WebhookDelivery logs one notification and its retry attempts.
type WebhookDelivery struct {
	ID           string     `json:"id" db:"id"`
	WebhookID    string     `json:"webhook_id" db:"webhook_id"`
	Event        string     `json:"event" db:"event"`
	Payload      string     `json:"payload" db:"payload"`
	Status       string     `json:"status" db:"status"` // "pending", "success", "failed"
	Attempts     int        `json:"attempts" db:"attempts"`
	LastError    string     `json:"last_error,omitempty" db:"last_error"`
	ResponseCode int        `json:"response_code,omitempty" db:"response_code"`
	CreatedAt    time.Time  `json:"created_at" db:"created_at"`
	DeliveredAt  *time.Time `json:"delivered_at,omitempty" db:"delivered_at"`
}

// WebhookPayload is the JSON body POSTed to webhook URLs.
type WebhookPayload struct {
	Event     string      `json:"event"`
	Data      interface{} `json:"data"`
	Timestamp time.Time   `json:"timestamp"`
}

// Webhook event names.
const (
	EventDocumentCreated      = "document.created"
	EventTranslationCompleted = "translation.completed"
	EventTranslationFailed    = "translation.failed"
)

// ValidWebhookEvents is the set of events a webhook may subscribe to.
var ValidWebhookEvents = map[string]bool{
	EventDocumentCreated:      true,
	EventTranslationCompleted: true,
	EventTranslationFailed:    true,
}

// --- Request/Response DTOs (Data Transfer Objects) ---
// Go Pattern: Separate structs for API input/output vs database models.

// MergeDocumentsRequest is the JSON body for POST /api/v1/documents/merge.
type MergeDocumentsRequest struct {
	DocumentIDs []string `json:"document_ids" binding:"required,min=2,max=50"`
	Name        string   `json:"name,omitempty"`
}

// CreateAnnotationRequest is the JSON body for POST /api/v1/documents/:id/annotations.
//
// Position can be given three ways: explicit PDF points (x, y), a click on a
// rendered preview (canvas_x, canvas_y with the preview's pixel size), or
// nothing at all, in which case the text is stacked below earlier annotations.
type CreateAnnotationRequest struct {
	Text  string `json:"text" form:"text" binding:"required"`
	Size  int    `json:"size,omitempty" form:"size"`   // Default 14
	Color string `json:"color,omitempty" form:"color"` // Default #000000
	Page  int    `json:"page,omitempty" form:"page"`   // 1-based, default 1

	X *float64 `json:"x,omitempty" form:"x"`
	Y *float64 `json:"y,omitempty" form:"y"`

	CanvasX      *float64 `json:"canvas_x,omitempty" form:"canvas_x"`
	CanvasY      *float64 `json:"canvas_y,omitempty" form:"canvas_y"`
	CanvasWidth  float64  `json:"canvas_width,omitempty" form:"canvas_width"`
	CanvasHeight float64  `json:"canvas_height,omitempty" form:"canvas_height"`
}

// AnnotationResponse returns the created annotation with the updated document.
type AnnotationResponse struct {
	Annotation Annotation `json:"annotation"`
	Document   Document   `json:"document"`
}

// OrganizeTogglePageRequest toggles one page in or out of the selection.
type OrganizeTogglePageRequest struct {
	Page *int `json:"page" binding:"required"` // 0-based
}

// OrganizeMovePageRequest drags page From and drops it onto page To.
type OrganizeMovePageRequest struct {
	From *int `json:"from" binding:"required"`
	To   *int `json:"to" binding:"required"`
}

// OrganizePage is one thumbnail in the organize grid.
type OrganizePage struct {
	Index    int  `json:"index"` // 0-based
	Selected bool `json:"selected"`
}

// OrganizeSessionResponse decorates a session with derived counts.
type OrganizeSessionResponse struct {
	OrganizeSession
	Pages         []OrganizePage `json:"pages"`
	SelectedCount int            `json:"selected_count"`
	CanSave       bool           `json:"can_save"`
}

// CreateTranslationRequest is the JSON body for POST /api/v1/documents/:id/translations.
type CreateTranslationRequest struct {
	SourceLang string `json:"source_lang,omitempty"` // Default "auto"
	TargetLang string `json:"target_lang" binding:"required"`
	Backend    string `json:"backend,omitempty"` // "http" or "llm", default from config
}

// CreateAPIKeyRequest is the JSON body for POST /api/v1/keys.
type CreateAPIKeyRequest struct {
	Name      string `json:"name" binding:"required"`
	RateLimit int    `json:"rate_limit,omitempty"` // 0 = use default
}

// CreateAPIKeyResponse includes the raw key, shown only once at creation time.
type CreateAPIKeyResponse struct {
	APIKey
	RawKey string `json:"raw_key"` // The actual API key. Save it! Only shown once.
}

// RegisterRequest is the JSON body for POST /api/v1/auth/register.
type RegisterRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=8"`
	Name     string `json:"name" binding:"required"`
}

// LoginRequest is the JSON body for POST /api/v1/auth/login.
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// AuthResponse carries a fresh JWT and the user it belongs to.
type AuthResponse struct {
	Token string `json:"token"`
	User  User   `json:"user"`
}

// SaveToWorkspaceRequest is the JSON body for POST /api/v1/workspace.
type SaveToWorkspaceRequest struct {
	ItemType string `json:"item_type" binding:"required"`
	ItemID   string `json:"item_id" binding:"required"`
}

// WorkspaceResponse lists everything a user has pinned.
type WorkspaceResponse struct {
	Documents    []Document    `json:"documents"`
	Translations []Translation `json:"translations"`
}

// CreateWebhookRequest is the JSON body for POST /api/v1/webhooks.
type CreateWebhookRequest struct {
	URL    string   `json:"url" binding:"required,url"`
	Events []string `json:"events" binding:"required,min=1"`
}

// UpdateWebhookRequest is the JSON body for PATCH /api/v1/webhooks/:id.
type UpdateWebhookRequest struct {
	Active *bool `json:"active"`
}

// DocumentListParams holds query parameters for listing documents.
type DocumentListParams struct {
	Page     int          `form:"page"`     // Page number (1-indexed)
	PerPage  int          `form:"per_page"` // Items per page
	Kind     DocumentKind `form:"kind"`     // Filter by kind
	Search   string       `form:"search"`   // Search in original_name
	APIKeyID *string      `form:"-"`
}

// PaginatedResponse wraps a list response with pagination metadata.
// Go Pattern: Generics (added in Go 1.18) let us create type-safe
// containers. `any` is an alias for `interface{}`; it means "any type".
type PaginatedResponse[T any] struct {
	Data       []T `json:"data"`
	Page       int `json:"page"`
	PerPage    int `json:"per_page"`
	TotalItems int `json:"total_items"`
	TotalPages int `json:"total_pages"`
}

// ErrorResponse is a standard error format for all API errors.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Code    int    `json:"code"`
}

// HealthResponse is returned by the health check endpoint.
type HealthResponse struct {
	Status     string `json:"status"`
	Version    string `json:"version"`
	Database   string `json:"database"`
	Workers    int    `json:"workers"`
	QueueDepth int    `json:"queue_depth"`
	Previews   bool   `json:"previews"`
	Translate  string `json:"translate_backend"`
}
