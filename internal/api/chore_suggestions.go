package api

import (
	"net/http"

	"chores-backend/internal/config"
	"chores-backend/internal/services"
	"chores-backend/pkg/logging"

	"github.com/gin-gonic/gin"
)

// SuggestChoresRequest asks for age-appropriate chore ideas
type SuggestChoresRequest struct {
	ChildAge       int                      `json:"childAge"`
	ExistingChores []services.ExistingChore `json:"existingChores"`
}

// SuggestChoresHandler suggests new chores for a child
// POST /api/chores/suggest
func SuggestChoresHandler(c *gin.Context) {
	var req SuggestChoresRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid request format: " + err.Error(),
		})
		return
	}

	if req.ChildAge < 3 || req.ChildAge > 18 {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Child age must be between 3 and 18 years old",
		})
		return
	}

	aiService := services.NewChoreAIService(config.AppConfig.OpenAIAPIKey)
	suggestions, err := aiService.SuggestChores(c.Request.Context(), req.ChildAge, req.ExistingChores)
	if err != nil {
		logging.Errorf("Chore suggestion failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to suggest chores",
		})
		return
	}

	c.JSON(http.StatusOK, suggestions)
}
