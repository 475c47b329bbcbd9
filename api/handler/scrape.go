package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/MAYANK12-WQ/advanced-web-scraping-agent/cache"
	"github.com/MAYANK12-WQ/advanced-web-scraping-agent/models"
)

// Orchestrator is the subset of agent.Agent the handlers call.
type Orchestrator interface {
	Scrape(ctx context.Context, req *models.ScrapeRequest) (*models.ScrapeResult, error)
	Analyze(ctx context.Context, req *models.AnalyzeRequest) (*models.AnalyzeResponse, error)
}

// Scrape returns a handler for POST /api/v1/scrape.
//
// Orchestration flow:
//  1. Parse request, apply defaults.
//  2. Cache lookup when max_age > 0.
//  3. Agent.Scrape → analysis, backend chain, extraction.
//  4. Cache store and respond.
func Scrape(orch Orchestrator, cc *cache.Cache) gin.HandlerFunc {
	return func(c *gin.Context) {
		// ── 1. Parse request ────────────────────────────────────────
		var req models.ScrapeRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, models.ErrorResponse{
				Error: &models.ErrorDetail{
					Code:    models.ErrCodeInvalidInput,
					Message: err.Error(),
				},
			})
			return
		}
		req.Defaults()

		// ── 2. Cache lookup ─────────────────────────────────────────
		var cacheKey string
		if cc != nil && req.MaxAge > 0 {
			cacheKey = cache.Key(&req)
			if cached, hit := cc.Get(cacheKey, req.MaxAge); hit {
				// Copy so the stored entry never carries a cache status.
				out := *cached
				out.CacheStatus = "hit"
				c.JSON(http.StatusOK, &out)
				return
			}
		}

		// ── 3. Scrape ───────────────────────────────────────────────
		result, err := orch.Scrape(c.Request.Context(), &req)
		if err != nil {
			respondError(c, err)
			return
		}

		// ── 4. Cache store ──────────────────────────────────────────
		if cacheKey != "" {
			stored := *result
			cc.Set(cacheKey, &stored)
			result.CacheStatus = "miss"
		}

		c.JSON(http.StatusOK, result)
	}
}

// respondError maps an orchestrator error to the correct HTTP status code
// and writes a structured JSON error response.
func respondError(c *gin.Context, err error) {
	var agg *models.AggregateFailure
	if errors.As(err, &agg) {
		c.JSON(http.StatusBadGateway, models.ErrorResponse{Error: agg.ToDetail()})
		return
	}

	var scrapeErr *models.ScrapeError
	if !errors.As(err, &scrapeErr) {
		scrapeErr = models.NewScrapeError(models.ErrCodeInternal, err.Error(), err)
	}

	c.JSON(mapErrorToStatus(scrapeErr), models.ErrorResponse{Error: scrapeErr.ToDetail()})
}

// mapErrorToStatus translates error codes to HTTP status codes.
func mapErrorToStatus(e *models.ScrapeError) int {
	switch e.Code {
	case models.ErrCodeInvalidInput:
		return http.StatusBadRequest // 400
	case models.ErrCodeTimeout:
		return http.StatusGatewayTimeout // 504
	case models.ErrCodeNavigation, models.ErrCodeProtocol:
		return http.StatusBadGateway // 502
	case models.ErrCodeRateLimited:
		return http.StatusTooManyRequests // 429
	case models.ErrCodeUnauthorized:
		return http.StatusUnauthorized // 401
	default:
		return http.StatusInternalServerError // 500
	}
}
