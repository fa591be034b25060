package api

import (
	"net/http"

	"chores-backend/internal/config"
	"chores-backend/internal/database"
	"chores-backend/internal/services"
	"chores-backend/pkg/logging"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// SendPushRequest is the push delivery request body
type SendPushRequest struct {
	UserIDs []string               `json:"userIds" binding:"required"`
	Title   string                 `json:"title" binding:"required"`
	Body    string                 `json:"body" binding:"required"`
	Data    map[string]interface{} `json:"data"`
}

// PushDeliveryResult is the per-user delivery outcome
type PushDeliveryResult struct {
	UserID      string `json:"userId"`
	UserName    string `json:"userName,omitempty"`
	DeviceToken string `json:"deviceToken,omitempty"` // truncated for logs/response
	Success     bool   `json:"success"`
	Error       string `json:"error,omitempty"`
}

// SendPushNotificationHandler delivers a push notification to a list of users
// POST /api/push/send
func SendPushNotificationHandler(c *gin.Context) {
	var req SendPushRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"message": "Invalid request format: " + err.Error(),
		})
		return
	}

	// Every user id must be a canonical UUID before anything touches the
	// database
	var invalidIDs []string
	for _, id := range req.UserIDs {
		if !isCanonicalUUID(id) {
			invalidIDs = append(invalidIDs, id)
		}
	}
	if len(invalidIDs) > 0 {
		logging.Errorf("Push request rejected, invalid user ids: %v", invalidIDs)
		c.JSON(http.StatusBadRequest, gin.H{
			"error":      "Invalid user IDs provided",
			"invalidIds": invalidIDs,
		})
		return
	}

	users, err := database.GetUsersWithDeviceTokens(req.UserIDs)
	if err != nil {
		logging.Errorf("Failed to fetch users for push: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Error fetching users",
		})
		return
	}

	logging.Infof("Push request - requested: %d, with tokens: %d", len(req.UserIDs), len(users))

	if len(users) == 0 {
		// Report which of the requested users exist but lack tokens, to help
		// the caller debug registration issues
		allUsers, _ := database.GetUsersByIDs(req.UserIDs)
		found := make([]gin.H, 0, len(allUsers))
		for _, u := range allUsers {
			found = append(found, gin.H{
				"id":       u.ID,
				"name":     u.FirstName,
				"hasToken": u.DeviceToken != "",
			})
		}
		c.JSON(http.StatusOK, gin.H{
			"message":      "No users found with device tokens",
			"requestedIds": req.UserIDs,
			"foundUsers":   found,
		})
		return
	}

	cfg := config.AppConfig
	apnsConfig := services.APNsConfig{
		KeyID:       cfg.APNsKeyID,
		TeamID:      cfg.APNsTeamID,
		PrivateKey:  cfg.APNsPrivateKey,
		BundleID:    cfg.APNsBundleID,
		Environment: cfg.APNsEnvironment,
	}
	if !apnsConfig.Configured() {
		logging.Errorf("Missing APNs configuration")
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Missing APNs configuration",
			"missing": gin.H{
				"keyId":      cfg.APNsKeyID == "",
				"teamId":     cfg.APNsTeamID == "",
				"privateKey": cfg.APNsPrivateKey == "",
				"bundleId":   cfg.APNsBundleID == "",
			},
		})
		return
	}

	client := services.NewAPNsClient(apnsConfig)

	// One provider token per invocation, shared across devices
	providerToken, err := client.ProviderToken()
	if err != nil {
		logging.Errorf("Failed to generate APNs provider token: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to generate push credential",
		})
		return
	}

	payload := services.NewAlertPayload(req.Title, req.Body, req.Data)

	results := make([]PushDeliveryResult, 0, len(users))
	for _, user := range users {
		if user.Platform != "ios" || user.DeviceToken == "" {
			continue
		}

		result := PushDeliveryResult{
			UserID:      user.ID,
			UserName:    user.FirstName,
			DeviceToken: truncatedToken(user.DeviceToken),
		}

		// A failed device never blocks the rest of the batch
		if err := client.Send(c.Request.Context(), user.DeviceToken, providerToken, payload); err != nil {
			logging.Errorf("Push failed - user: %s, error: %v", user.ID, err)
			result.Error = err.Error()
		} else {
			result.Success = true
		}
		results = append(results, result)
	}

	totalSent := 0
	for _, r := range results {
		if r.Success {
			totalSent++
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"success":     true,
		"results":     results,
		"totalSent":   totalSent,
		"totalFailed": len(results) - totalSent,
		"summary": gin.H{
			"requested":       len(req.UserIDs),
			"foundWithTokens": len(users),
			"successful":      totalSent,
			"failed":          len(results) - totalSent,
		},
	})
}

// isCanonicalUUID accepts the 8-4-4-4-12 text form only. uuid.Parse alone
// also takes braced, urn-prefixed and undashed inputs, which user records
// never carry.
func isCanonicalUUID(id string) bool {
	if len(id) != 36 {
		return false
	}
	_, err := uuid.Parse(id)
	return err == nil
}

func truncatedToken(token string) string {
	if len(token) <= 8 {
		return token
	}
	return token[:8] + "..."
}
