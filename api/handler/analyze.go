package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/MAYANK12-WQ/advanced-web-scraping-agent/models"
)

// Analyze returns a handler for POST /api/v1/analyze.
//
// Runs site analysis and backend selection without fetching through the
// fallback chain, so callers can preview how a URL would be handled.
func Analyze(orch Orchestrator) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req models.AnalyzeRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, models.ErrorResponse{
				Error: &models.ErrorDetail{
					Code:    models.ErrCodeInvalidInput,
					Message: err.Error(),
				},
			})
			return
		}

		resp, err := orch.Analyze(c.Request.Context(), &req)
		if err != nil {
			respondError(c, err)
			return
		}

		c.JSON(http.StatusOK, resp)
	}
}
