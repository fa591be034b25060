package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"testing"
	"time"

	"chores-backend/internal/config"
	"chores-backend/internal/database"
	"chores-backend/internal/models"
	"chores-backend/internal/services"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
	"gorm.io/gorm/schema"
)

func webhookRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/api/webhooks/app-store", AppStoreWebhookStatusHandler)
	r.POST("/api/webhooks/app-store", AppStoreNotificationHandler)
	return r
}

// useTestDatabase points the package-level database handle at an in-memory
// SQLite database for the duration of the test
func useTestDatabase(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		NamingStrategy: schema.NamingStrategy{SingularTable: true},
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.User{}))

	prev := database.DB
	database.DB = db
	t.Cleanup(func() { database.DB = prev })
	return db
}

func signedToken(t *testing.T, payload interface{}) string {
	t.Helper()

	data, err := json.Marshal(payload)
	require.NoError(t, err)
	return "eyJhbGciOiJFUzI1NiJ9." + services.EncodeJWTSegment(data) + ".c2ln"
}

func TestWebhookStatus(t *testing.T) {
	prev := config.AppConfig
	config.AppConfig = &config.Config{ServiceAPIKey: "secret"}
	t.Cleanup(func() { config.AppConfig = prev })

	w := performJSON(t, webhookRouter(), "GET", "/api/webhooks/app-store", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Status      string            `json:"status"`
		Environment map[string]string `json:"environment"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, "set", resp.Environment["service_api_key"])
	// Presence flags only, never the values
	for _, v := range resp.Environment {
		assert.Contains(t, []string{"set", "missing"}, v)
	}
}

func TestWebhookRejectsInvalidNotifications(t *testing.T) {
	cases := map[string]gin.H{
		"empty signed payload": {"signedPayload": ""},
		"not a jwt":            {"signedPayload": "garbage"},
		"two segments":         {"signedPayload": "aGVhZGVy.cGF5bG9hZA"},
	}

	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			w := performJSON(t, webhookRouter(), "POST", "/api/webhooks/app-store", body)
			assert.Equal(t, http.StatusBadRequest, w.Code)
		})
	}
}

func TestWebhookProcessesRenewal(t *testing.T) {
	db := useTestDatabase(t)

	user := &models.User{
		ID:                      "f47ac10b-58cc-4372-a567-0e02b2c3d479",
		Email:                   "parent@example.com",
		SubscriptionStatus:      models.SubscriptionFree,
		SubscriptionReceiptData: "receipt original=T900",
	}
	require.NoError(t, db.Create(user).Error)

	tx := &models.TransactionInfo{
		TransactionID:         "T901",
		OriginalTransactionID: "T900",
		ProductID:             "chores_ai_premium_monthly",
		ExpiresDate:           time.Now().Add(30 * 24 * time.Hour).Unix(),
		Environment:           "Production",
	}
	notification := &models.AppStoreNotification{
		NotificationType: "DID_RENEW",
		NotificationUUID: "a3f0e1c2-0000-4000-8000-000000000001",
		SignedDate:       time.Now().Unix(),
		Data: &models.NotificationData{
			BundleID:              "com.choresapp.family",
			Environment:           "Production",
			SignedTransactionInfo: signedToken(t, tx),
		},
	}

	w := performJSON(t, webhookRouter(), "POST", "/api/webhooks/app-store", gin.H{
		"signedPayload": signedToken(t, notification),
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var got models.User
	require.NoError(t, db.First(&got, "id = ?", user.ID).Error)
	assert.Equal(t, models.SubscriptionPremium, got.SubscriptionStatus)
	assert.Equal(t, "chores_ai_premium_monthly", got.SubscriptionProductID)
	require.NotNil(t, got.SubscriptionExpiresAt)
	assert.WithinDuration(t, time.Unix(tx.ExpiresDate, 0), *got.SubscriptionExpiresAt, time.Second)
}

func TestWebhookRetryAfterProcessingFault(t *testing.T) {
	db := useTestDatabase(t)

	user := &models.User{
		ID:                      "f47ac10b-58cc-4372-a567-0e02b2c3d480",
		SubscriptionStatus:      models.SubscriptionFree,
		SubscriptionReceiptData: "receipt original=T910",
	}
	require.NoError(t, db.Create(user).Error)

	tx := &models.TransactionInfo{
		TransactionID:         "T911",
		OriginalTransactionID: "T910",
		ProductID:             "chores_ai_premium_monthly",
		ExpiresDate:           time.Now().Add(30 * 24 * time.Hour).Unix(),
		Environment:           "Production",
	}
	notification := &models.AppStoreNotification{
		NotificationType: "DID_RENEW",
		NotificationUUID: "a3f0e1c2-0000-4000-8000-000000000002",
		SignedDate:       time.Now().Unix(),
		Data: &models.NotificationData{
			BundleID:              "com.choresapp.family",
			Environment:           "Production",
			SignedTransactionInfo: signedToken(t, tx),
		},
	}
	body := gin.H{"signedPayload": signedToken(t, notification)}

	// A database fault mid-processing answers 500 so Apple retries
	require.NoError(t, db.Migrator().DropTable(&models.User{}))
	w := performJSON(t, webhookRouter(), "POST", "/api/webhooks/app-store", body)
	require.Equal(t, http.StatusInternalServerError, w.Code, w.Body.String())

	// The retry of the identical notification must be reprocessed, not
	// acknowledged as a duplicate
	require.NoError(t, db.AutoMigrate(&models.User{}))
	require.NoError(t, db.Create(user).Error)

	w = performJSON(t, webhookRouter(), "POST", "/api/webhooks/app-store", body)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var got models.User
	require.NoError(t, db.First(&got, "id = ?", user.ID).Error)
	assert.Equal(t, models.SubscriptionPremium, got.SubscriptionStatus)
}

func TestWebhookSimulate(t *testing.T) {
	db := useTestDatabase(t)

	w := performJSON(t, webhookRouter(), "POST", "/api/webhooks/app-store?simulate=true", gin.H{})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp struct {
		Success            bool   `json:"success"`
		TestUserID         string `json:"testUserId"`
		SubscriptionStatus string `json:"subscriptionStatus"`
		HasPremium         bool   `json:"hasPremium"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	assert.Equal(t, models.SubscriptionPremium, resp.SubscriptionStatus)
	assert.True(t, resp.HasPremium)

	var got models.User
	require.NoError(t, db.First(&got, "id = ?", resp.TestUserID).Error)
	assert.Equal(t, models.SubscriptionPremium, got.SubscriptionStatus)
	assert.Equal(t, "chores_ai_premium_monthly", got.SubscriptionProductID)
}
