// jwt.go provides JWT authentication for user accounts. Protected routes
// accept a JWT or an API key; the workspace requires a JWT.
package middleware

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"

	"github.com/Shimizu-Technology/pdf-tools-api/internal/models"
)

const userContextKey = "user"

// tokenTTL is how long an issued token stays valid.
const tokenTTL = 72 * time.Hour

// JWTClaims extends standard JWT claims with user info.
type JWTClaims struct {
	UserID string `json:"user_id"`
	Email  string `json:"email"`
	jwt.RegisteredClaims
}

// GenerateJWT creates a new HS256 token for a user.
func GenerateJWT(user *models.User, secret string) (string, error) {
	now := time.Now()
	claims := JWTClaims{
		UserID: user.ID,
		Email:  user.Email,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(tokenTTL)),
			IssuedAt:  jwt.NewNumericDate(now),
			Subject:   user.ID,
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}

// ParseJWT validates and parses a token string. Only HS256 is accepted.
func ParseJWT(tokenString, secret string) (*JWTClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &JWTClaims{}, func(token *jwt.Token) (interface{}, error) {
		return []byte(secret), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return nil, err
	}

	if claims, ok := token.Claims.(*JWTClaims); ok && token.Valid {
		return claims, nil
	}
	return nil, jwt.ErrSignatureInvalid
}

// bearerToken returns the token from "Authorization: Bearer <token>".
func bearerToken(c *gin.Context) (string, bool) {
	authHeader := c.GetHeader("Authorization")
	if !strings.HasPrefix(authHeader, "Bearer ") {
		return "", false
	}
	token := strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer "))
	return token, token != ""
}

func lookupUser(c *gin.Context, store Store, tokenString, secret string) (*models.User, error) {
	claims, err := ParseJWT(tokenString, secret)
	if err != nil {
		return nil, err
	}
	return store.GetUserByID(c.Request.Context(), claims.UserID)
}

func unauthorized(c *gin.Context, message string) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, models.ErrorResponse{
		Error:   "unauthorized",
		Message: message,
		Code:    http.StatusUnauthorized,
	})
}

// JWTAuth returns middleware that requires a valid JWT Bearer token and
// puts the user in the context.
func JWTAuth(store Store, jwtSecret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString, ok := bearerToken(c)
		if !ok {
			unauthorized(c, "Missing or invalid Authorization header. Use 'Bearer <token>'")
			return
		}

		user, err := lookupUser(c, store, tokenString, jwtSecret)
		if err != nil {
			unauthorized(c, "Invalid or expired token")
			return
		}

		c.Set(userContextKey, user)
		c.Next()
	}
}

// DualAuth returns middleware that accepts EITHER an API key OR a JWT.
// The API key wins when both are sent.
func DualAuth(store Store, jwtSecret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if rawKey := c.GetHeader("X-API-Key"); rawKey != "" {
			if apiKey, err := lookupAPIKey(c, store, rawKey); err == nil {
				c.Set(string(apiKeyContextKey), apiKey)
				c.Next()
				return
			}
		}

		if tokenString, ok := bearerToken(c); ok {
			if user, err := lookupUser(c, store, tokenString, jwtSecret); err == nil {
				c.Set(userContextKey, user)
				c.Next()
				return
			}
		}

		unauthorized(c, "Provide a valid X-API-Key header or Authorization: Bearer <token>")
	}
}

// GetUser retrieves the authenticated user from the request context.
func GetUser(c *gin.Context) *models.User {
	val, exists := c.Get(userContextKey)
	if !exists {
		return nil
	}
	user, ok := val.(*models.User)
	if !ok {
		return nil
	}
	return user
}
