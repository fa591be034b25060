package api

import (
	"net/http"
	"time"

	"chores-backend/internal/config"
	"chores-backend/internal/database"
	"chores-backend/internal/models"
	"chores-backend/internal/response"
	"chores-backend/internal/services"
	"chores-backend/pkg/logging"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// AppStoreWebhookStatusHandler reports webhook liveness and masked presence
// flags for required secrets
// GET /api/webhooks/app-store
func AppStoreWebhookStatusHandler(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":      "ok",
		"message":     "App Store Server Notifications webhook is running",
		"timestamp":   time.Now().UTC().Format(time.RFC3339),
		"environment": config.AppConfig.SecretPresence(),
	})
}

// AppStoreNotificationHandler receives App Store Server Notifications V2
// POST /api/webhooks/app-store
func AppStoreNotificationHandler(c *gin.Context) {
	startTime := time.Now()

	// Simulation flag drives the update routine with synthetic data,
	// bypassing the signed payload. Operational testing only.
	if c.Query("simulate") == "true" {
		simulateNotification(c)
		return
	}

	var wrapper models.AppStoreNotificationWrapper
	if err := c.ShouldBindJSON(&wrapper); err != nil {
		logging.Errorf("Failed to parse notification wrapper: %v", err)
		response.ErrorJSON(c, http.StatusBadRequest, "Invalid notification format")
		return
	}

	if wrapper.SignedPayload == "" {
		logging.Errorf("signedPayload is empty in notification")
		response.ErrorJSON(c, http.StatusBadRequest, "signedPayload is missing")
		return
	}

	notification := services.DecodeSignedPayload(wrapper.SignedPayload)
	if notification == nil {
		response.ErrorJSON(c, http.StatusBadRequest, "Invalid payload")
		return
	}

	logging.Infof("Received notification - type: %s, uuid: %s", notification.NotificationType, notification.NotificationUUID)

	// A redelivered notification is acknowledged without reprocessing so
	// Apple stops retrying it
	guard := services.NewReplayGuard(database.GetRedis())
	if guard.IsDuplicate(c.Request.Context(), notification.NotificationUUID, notification.SignedDate) {
		response.SuccessJSON(c, "Duplicate notification acknowledged")
		return
	}

	reconciler := services.NewSubscriptionReconciler(database.GetDB())
	if err := reconciler.Process(notification); err != nil {
		// Nothing is recorded in the replay guard, so the retry Apple sends
		// after this 500 gets reprocessed
		logging.Errorf("Failed to process notification: %v", err)
		response.ErrorJSON(c, http.StatusInternalServerError, "Failed to process notification")
		return
	}

	guard.MarkProcessed(c.Request.Context(), notification.NotificationUUID, notification.SignedDate)

	logging.Infof("Notification processed - type: %s, time: %v", notification.NotificationType, time.Since(startTime))

	response.SuccessJSON(c, "Notification processed successfully")
}

// AppStoreSimulateHandler exercises the update routine with synthetic data
// POST /api/webhooks/app-store/simulate
func AppStoreSimulateHandler(c *gin.Context) {
	simulateNotification(c)
}

// simulateNotification creates a test user and drives a subscription update
// against it
func simulateNotification(c *gin.Context) {
	logging.Infof("Simulating App Store notification")

	testUserID := uuid.NewString()
	testUser := &models.User{
		ID:                      testUserID,
		Email:                   "test@example.com",
		FirstName:               "Test",
		LastName:                "User",
		Role:                    "parent",
		SubscriptionStatus:      models.SubscriptionFree,
		SubscriptionReceiptData: "test_transaction_123",
	}

	if err := database.CreateUser(testUser); err != nil {
		logging.Errorf("Failed to create test user: %v", err)
		response.ErrorJSON(c, http.StatusInternalServerError, "Failed to create test user")
		return
	}

	reconciler := services.NewSubscriptionReconciler(database.GetDB())
	err := reconciler.ApplyUpdate(services.SubscriptionUpdate{
		OriginalTransactionID: "test_transaction_123",
		ProductID:             "chores_ai_premium_monthly",
		ExpiresDate:           time.Now().Add(30 * 24 * time.Hour).Unix(),
		AutoRenewStatus:       1,
		Environment:           "Sandbox",
		Status:                services.StatusActive,
	})
	if err != nil {
		logging.Errorf("Simulation failed: %v", err)
		response.ErrorJSON(c, http.StatusInternalServerError, "Simulation failed")
		return
	}

	updated, err := database.GetUserByID(testUserID)
	if err != nil {
		logging.Errorf("Failed to read back test user: %v", err)
		response.ErrorJSON(c, http.StatusInternalServerError, "Simulation failed")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":            true,
		"message":            "Test subscription update completed",
		"testUserId":         testUserID,
		"subscriptionStatus": updated.SubscriptionStatus,
		"hasPremium":         updated.HasPremium(),
	})
}
