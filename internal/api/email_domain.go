package api

import (
	"net/http"

	"chores-backend/internal/services"
	"chores-backend/pkg/logging"

	"github.com/gin-gonic/gin"
)

// ValidateEmailDomainRequest carries the domain to check
type ValidateEmailDomainRequest struct {
	Domain string `json:"domain"`
}

// ValidateEmailDomainHandler checks whether a domain can receive mail
// POST /api/validate-email-domain
func ValidateEmailDomainHandler(c *gin.Context) {
	var req ValidateEmailDomainRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Domain == "" {
		c.JSON(http.StatusBadRequest, gin.H{
			"valid": false,
			"error": "Invalid domain parameter",
		})
		return
	}

	validator := services.NewDomainValidator()
	if validator.HasMXRecords(c.Request.Context(), req.Domain) {
		logging.Infof("Valid email domain: %s", req.Domain)
		c.JSON(http.StatusOK, gin.H{
			"valid": true,
			"hasMx": true,
		})
		return
	}

	logging.Infof("Invalid email domain: %s", req.Domain)
	c.JSON(http.StatusOK, gin.H{
		"valid": false,
		"error": "Domain has no valid mail servers",
	})
}
