// auth.go handles user accounts. A logged-in user gets a JWT that works on
// every protected route and unlocks the workspace.
package handlers

import (
	"log"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"golang.org/x/crypto/bcrypt"

	"github.com/Shimizu-Technology/pdf-tools-api/internal/middleware"
	"github.com/Shimizu-Technology/pdf-tools-api/internal/models"
)

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Register creates a new user account.
// POST /api/v1/auth/register
func (h *Handler) Register(c *gin.Context) {
	var req models.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		errorJSON(c, http.StatusBadRequest, "invalid_request", "Email, password (min 8 chars), and name are required")
		return
	}
	req.Email = normalizeEmail(req.Email)

	ctx := c.Request.Context()
	if existing, _ := h.DB.GetUserByEmail(ctx, req.Email); existing != nil {
		errorJSON(c, http.StatusConflict, "email_taken", "An account with this email already exists")
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		log.Printf("❌ Failed to hash password: %v", err)
		errorJSON(c, http.StatusInternalServerError, "server_error", "Failed to create account")
		return
	}

	user := &models.User{
		Email:        req.Email,
		PasswordHash: string(hash),
		Name:         strings.TrimSpace(req.Name),
	}
	if err := h.DB.CreateUser(ctx, user); err != nil {
		log.Printf("❌ Failed to create user: %v", err)
		errorJSON(c, http.StatusInternalServerError, "database_error", "Failed to create account")
		return
	}

	h.respondWithToken(c, http.StatusCreated, user)
}

// Login authenticates a user and returns a JWT token.
// POST /api/v1/auth/login
func (h *Handler) Login(c *gin.Context) {
	var req models.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		errorJSON(c, http.StatusBadRequest, "invalid_request", "Email and password are required")
		return
	}

	user, err := h.DB.GetUserByEmail(c.Request.Context(), normalizeEmail(req.Email))
	if err != nil {
		errorJSON(c, http.StatusUnauthorized, "invalid_credentials", "Invalid email or password")
		return
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		errorJSON(c, http.StatusUnauthorized, "invalid_credentials", "Invalid email or password")
		return
	}

	h.respondWithToken(c, http.StatusOK, user)
}

// GetMe returns the current authenticated user.
// GET /api/v1/auth/me
func (h *Handler) GetMe(c *gin.Context) {
	user := middleware.GetUser(c)
	if user == nil {
		errorJSON(c, http.StatusUnauthorized, "unauthorized", "Not authenticated")
		return
	}
	c.JSON(http.StatusOK, user)
}

// RefreshToken issues a new JWT for an authenticated user, so clients can
// renew a session before the current token expires.
// POST /api/v1/auth/refresh
func (h *Handler) RefreshToken(c *gin.Context) {
	user := middleware.GetUser(c)
	if user == nil {
		errorJSON(c, http.StatusUnauthorized, "unauthorized", "Not authenticated")
		return
	}
	h.respondWithToken(c, http.StatusOK, user)
}

func (h *Handler) respondWithToken(c *gin.Context, status int, user *models.User) {
	token, err := middleware.GenerateJWT(user, h.JWTSecret)
	if err != nil {
		log.Printf("❌ Failed to generate token for %s: %v", user.ID, err)
		errorJSON(c, http.StatusInternalServerError, "token_error", "Failed to generate token")
		return
	}

	c.JSON(status, models.AuthResponse{
		Token: token,
		User:  *user,
	})
}
