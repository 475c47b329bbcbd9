package api

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/MAYANK12-WQ/advanced-web-scraping-agent/api/handler"
	"github.com/MAYANK12-WQ/advanced-web-scraping-agent/api/middleware"
	"github.com/MAYANK12-WQ/advanced-web-scraping-agent/cache"
	"github.com/MAYANK12-WQ/advanced-web-scraping-agent/config"
	"github.com/MAYANK12-WQ/advanced-web-scraping-agent/models"
)

// NewRouter creates a configured Gin engine with all routes and middleware.
//
// Middleware chain:
//
//	Global:  Recovery → Logger
//	API:     Auth (if enabled) → RateLimit
//
// Health endpoint is intentionally outside auth so monitoring probes always work.
func NewRouter(orch handler.Orchestrator, cc *cache.Cache, backends models.BackendsHealth, cfg *config.Config, startTime time.Time) *gin.Engine {
	gin.SetMode(cfg.Server.Mode)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(gin.Logger())

	v1 := r.Group("/api/v1")

	// Health: no auth required.
	v1.GET("/health", handler.Health(backends, startTime))

	// Protected group: auth + rate limit.
	protected := v1.Group("")
	if cfg.Auth.Enabled {
		protected.Use(middleware.Auth(cfg.Auth.APIKeys))
	}
	protected.Use(middleware.RateLimit(cfg.RateLimit))

	// Scrape: full analyze → select → fallback-chain run.
	protected.POST("/scrape", handler.Scrape(orch, cc))

	// Analyze: site characteristics + selected backend, no chain run.
	protected.POST("/analyze", handler.Analyze(orch))

	return r
}
