package api

import (
	"chores-backend/internal/config"
	"chores-backend/internal/middleware"

	"github.com/gin-gonic/gin"
)

// SetupRoutes sets up all routes
func SetupRoutes(r *gin.Engine) {
	// API route group
	api := r.Group("/api")
	{
		// App Store Server Notifications (no authentication, Apple calls these)
		webhooks := api.Group("/webhooks")
		{
			webhooks.GET("/app-store", AppStoreWebhookStatusHandler)
			webhooks.POST("/app-store", AppStoreNotificationHandler)
			webhooks.POST("/app-store/simulate", AppStoreSimulateHandler)
		}

		// Push delivery (service-to-service, bearer token required)
		push := api.Group("/push")
		push.Use(middleware.ServiceAuthMiddleware())
		{
			push.POST("/send", SendPushNotificationHandler)
		}

		// Chore AI proxy (called by the mobile app)
		chores := api.Group("/chores")
		{
			chores.POST("/analyze", AnalyzeChoreHandler)
			chores.POST("/suggest", SuggestChoresHandler)
		}

		// Marketing site endpoints
		api.POST("/validate-email-domain", ValidateEmailDomainHandler)
		api.POST("/waitlist", JoinWaitlistHandler)
	}

	// Health check with masked presence flags for required secrets
	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"status":      "ok",
			"service":     "chores-backend",
			"environment": config.AppConfig.SecretPresence(),
		})
	})
}
