package api

import (
	"net/http"

	"chores-backend/internal/config"
	"chores-backend/internal/services"
	"chores-backend/pkg/logging"

	"github.com/gin-gonic/gin"
)

// AnalyzeChoreRequest asks the vision model to judge a completion photo
type AnalyzeChoreRequest struct {
	ImageURL         string `json:"imageUrl"`
	ChoreName        string `json:"choreName"`
	ChoreDescription string `json:"choreDescription"`
}

// AnalyzeChoreHandler evaluates a chore completion photo
// POST /api/chores/analyze
func AnalyzeChoreHandler(c *gin.Context) {
	var req AnalyzeChoreRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid request format: " + err.Error(),
		})
		return
	}

	if req.ImageURL == "" || req.ChoreName == "" {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Missing required fields: imageUrl and choreName",
		})
		return
	}

	aiService := services.NewChoreAIService(config.AppConfig.OpenAIAPIKey)
	analysis, err := aiService.AnalyzeChore(c.Request.Context(), req.ImageURL, req.ChoreName, req.ChoreDescription)
	if err != nil {
		logging.Errorf("Chore analysis failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to analyze chore completion",
		})
		return
	}

	c.JSON(http.StatusOK, analysis)
}
