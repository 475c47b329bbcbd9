package backend

import (
	"context"
	"log/slog"

	"github.com/gocolly/colly"

	"github.com/MAYANK12-WQ/advanced-web-scraping-agent/models"
)

// Crawl fetches pages through a colly collector. It runs in single-page
// mode (no link following registered), which still buys the framework's
// redirect handling, cookie management and body size capping.
type Crawl struct {
	log *slog.Logger
}

// NewCrawl creates the crawl fetcher.
func NewCrawl(logger *slog.Logger) *Crawl {
	if logger == nil {
		logger = slog.Default()
	}
	return &Crawl{log: logger}
}

func (c *Crawl) Name() string { return "colly" }

// Fetch visits the URL with a fresh collector. Collectors are cheap to
// build, and one per attempt keeps cookie jars isolated between
// requests. The collector owns its own timeout; caller cancellation does
// not interrupt an in-flight visit.
func (c *Crawl) Fetch(ctx context.Context, req *FetchRequest) (*FetchResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, classify("colly: attempt not started", err)
	}

	collector := colly.NewCollector(
		colly.UserAgent(browserUA),
		colly.MaxDepth(1),
		colly.IgnoreRobotsTxt(),
	)
	if req.Timeout > 0 {
		collector.SetRequestTimeout(req.Timeout)
	}
	if req.Proxy != nil {
		if err := collector.SetProxy(req.Proxy.String()); err != nil {
			return nil, models.NewScrapeError(models.ErrCodeProtocol, "colly: set proxy", err)
		}
	}

	var result *FetchResult
	collector.OnResponse(func(r *colly.Response) {
		markup := string(r.Body)
		result = &FetchResult{
			HTML:       markup,
			Title:      extractTitle(markup),
			StatusCode: r.StatusCode,
			FinalURL:   r.Request.URL.String(),
			Backend:    c.Name(),
		}
	})
	collector.OnError(func(r *colly.Response, err error) {
		c.log.Debug("crawl visit failed", "url", req.URL, "status", r.StatusCode, "error", err)
	})

	if err := collector.Visit(req.URL); err != nil {
		return nil, classify("colly: visit failed", err)
	}
	if result == nil {
		return nil, models.NewScrapeError(models.ErrCodeProtocol, "colly: no response captured", nil)
	}
	return result, nil
}
