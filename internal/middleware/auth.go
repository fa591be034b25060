package middleware

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"chores-backend/internal/config"
	"chores-backend/internal/response"

	"github.com/gin-gonic/gin"
)

// ServiceAuthMiddleware guards service-to-service endpoints (push delivery)
// with a shared bearer token
func ServiceAuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if !strings.HasPrefix(authHeader, "Bearer ") {
			response.ErrorJSON(c, http.StatusUnauthorized, "Missing authorization header")
			c.Abort()
			return
		}

		token := strings.TrimPrefix(authHeader, "Bearer ")
		expected := config.AppConfig.ServiceAPIKey

		if expected == "" || subtle.ConstantTimeCompare([]byte(token), []byte(expected)) != 1 {
			response.ErrorJSON(c, http.StatusUnauthorized, "Invalid service token")
			c.Abort()
			return
		}

		c.Next()
	}
}
