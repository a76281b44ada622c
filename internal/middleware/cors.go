// cors.go configures Cross-Origin Resource Sharing (CORS) so a browser
// frontend on another origin can call the API.
package middleware

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// CORS returns configured CORS middleware. Preview and download headers
// are exposed so the frontend can map clicks and name saved files.
func CORS(allowedOrigins []string) gin.HandlerFunc {
	return cors.New(cors.Config{
		AllowOrigins: allowedOrigins,
		AllowMethods: []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders: []string{"Origin", "Content-Type", "Accept", "Authorization", "X-API-Key", "X-Admin-Key", RequestIDHeader},
		ExposeHeaders: []string{
			"X-RateLimit-Limit", "X-RateLimit-Remaining", "Content-Length", "Content-Disposition",
			"X-Preview-Scale", "X-Preview-Width", "X-Preview-Height", RequestIDHeader,
		},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour, // Cache preflight responses
	})
}
