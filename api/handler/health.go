package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/MAYANK12-WQ/advanced-web-scraping-agent/models"
)

// Health returns a handler for GET /api/v1/health.
//
// Reports which backend groups the current configuration can use. Status
// degrades when neither the browser nor any remote API is available,
// leaving only the plain HTTP paths.
func Health(backends models.BackendsHealth, startTime time.Time) gin.HandlerFunc {
	return func(c *gin.Context) {
		status := "healthy"
		if !backends.Browser && len(backends.RemoteAPIs) == 0 {
			status = "degraded"
		}

		c.JSON(http.StatusOK, models.HealthResponse{
			Status:   status,
			Uptime:   time.Since(startTime).Round(time.Second).String(),
			Backends: backends,
			Version:  "0.1.0",
		})
	}
}
