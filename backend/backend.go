// Package backend hosts the retrieval backends behind the fallback
// orchestrator. Every backend implements Fetcher and turns one URL into
// raw page markup; the orchestrator treats them interchangeably and only
// inspects the coded errors they return.
package backend

import (
	"context"
	"errors"
	"net"
	"strings"
	"time"

	"github.com/MAYANK12-WQ/advanced-web-scraping-agent/models"
	"github.com/MAYANK12-WQ/advanced-web-scraping-agent/proxy"
)

// Fetcher is the retrieval capability shared by every backend.
type Fetcher interface {
	// Name identifies the backend in logs, attempt records and response
	// metadata ("static", "rod-stealth", "scrapingbee", ...).
	Name() string

	// Fetch retrieves the page for one attempt. Implementations bound the
	// attempt by req.Timeout on top of whatever deadline ctx already
	// carries, and return a coded *models.ScrapeError on failure.
	Fetch(ctx context.Context, req *FetchRequest) (*FetchResult, error)
}

// FetchRequest carries the parameters for a single attempt.
type FetchRequest struct {
	URL string

	// Timeout bounds this attempt.
	Timeout time.Duration

	// RenderScripts asks script-capable backends for a JavaScript-rendered
	// page. Backends without an engine of their own forward it to the
	// hosted API's render parameter; the static fetcher ignores it.
	RenderScripts bool

	// Proxy routes the attempt through the given endpoint, nil for a
	// direct connection. The headless backends ignore it because the
	// browser process takes its proxy at launch time.
	Proxy *proxy.Config
}

// FetchResult is the outcome of a successful attempt.
type FetchResult struct {
	HTML       string
	Title      string
	StatusCode int
	FinalURL   string
	Backend    string
}

// navSignals are substrings of transport errors that mean the target was
// never reached at all (DNS, connect, chromium net-stack errors).
var navSignals = []string{
	"net::err",
	"no such host",
	"connection refused",
	"network is unreachable",
	"cannot navigate",
}

// classify wraps a raw backend error in a coded ScrapeError so the
// orchestrator and the API layer can tell timeouts, unreachable hosts and
// protocol failures apart. Errors that already carry a code pass through
// unchanged.
func classify(msg string, err error) *models.ScrapeError {
	var scrapeErr *models.ScrapeError
	if errors.As(err, &scrapeErr) {
		return scrapeErr
	}

	var netErr net.Error
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return models.NewScrapeError(models.ErrCodeTimeout, msg, err)
	case errors.Is(err, context.Canceled):
		return models.NewScrapeError(models.ErrCodeTimeout, "attempt canceled", err)
	case errors.As(err, &netErr) && netErr.Timeout():
		return models.NewScrapeError(models.ErrCodeTimeout, msg, err)
	}

	lower := strings.ToLower(err.Error())
	for _, sig := range navSignals {
		if strings.Contains(lower, sig) {
			return models.NewScrapeError(models.ErrCodeNavigation, msg, err)
		}
	}
	return models.NewScrapeError(models.ErrCodeProtocol, msg, err)
}

// attemptContext applies the per-attempt timeout when one is set.
func attemptContext(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if timeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, timeout)
}
