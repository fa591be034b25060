package api

import (
	"context"
	"net/http"
	"strings"
	"time"

	"chores-backend/internal/config"
	"chores-backend/internal/database"
	"chores-backend/internal/models"
	"chores-backend/internal/response"
	"chores-backend/internal/services"
	"chores-backend/pkg/logging"

	"github.com/gin-gonic/gin"
)

// JoinWaitlistRequest is the waitlist signup body
type JoinWaitlistRequest struct {
	Email     string `json:"email" binding:"required"`
	FirstName string `json:"firstName"`
}

// JoinWaitlistHandler signs an email address up for the launch waitlist
// POST /api/waitlist
func JoinWaitlistHandler(c *gin.Context) {
	var req JoinWaitlistRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorJSON(c, http.StatusBadRequest, "Invalid request format: "+err.Error())
		return
	}

	email := strings.ToLower(strings.TrimSpace(req.Email))
	domain := services.DomainOfEmail(email)
	if domain == "" {
		response.ErrorJSON(c, http.StatusBadRequest, "Invalid email address")
		return
	}

	validator := services.NewDomainValidator()
	if !validator.HasMXRecords(c.Request.Context(), domain) {
		response.ErrorJSON(c, http.StatusBadRequest, "Email domain has no valid mail servers")
		return
	}

	limiter := services.NewRateLimiter(database.GetRedis())
	window := time.Duration(config.AppConfig.WaitlistRateLimitMinutes) * time.Minute
	allowed, err := limiter.Allow(c.Request.Context(), "waitlist", email, window)
	if err != nil {
		logging.Errorf("Waitlist rate limit check failed: %v", err)
	}
	if !allowed {
		response.ErrorJSON(c, http.StatusTooManyRequests, "Please wait before trying again")
		return
	}

	exists, err := database.WaitlistEntryExists(email)
	if err != nil {
		logging.Errorf("Failed to check waitlist entry: %v", err)
		response.ErrorJSON(c, http.StatusInternalServerError, "Failed to join waitlist")
		return
	}
	if exists {
		// Signing up twice is fine, answer as success
		response.SuccessJSON(c, "Already on the waitlist")
		return
	}

	entry := &models.WaitlistEntry{
		Email:     email,
		FirstName: req.FirstName,
	}
	if err := database.CreateWaitlistEntry(entry); err != nil {
		logging.Errorf("Failed to create waitlist entry: %v", err)
		response.ErrorJSON(c, http.StatusInternalServerError, "Failed to join waitlist")
		return
	}

	// Confirmation email must not block or fail the signup
	if config.AppConfig.BrevoAPIKey != "" {
		go func(email, firstName string) {
			emailService := services.NewEmailService(
				config.AppConfig.BrevoAPIKey,
				config.AppConfig.BrevoFromEmail,
				config.AppConfig.BrevoFromName,
			)
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			if err := emailService.SendWaitlistConfirmation(ctx, email, firstName); err != nil {
				logging.Errorf("Waitlist confirmation email failed: %v", err)
			}
		}(email, req.FirstName)
	}

	response.JSON(c, http.StatusCreated, response.Success("Joined the waitlist"))
}
