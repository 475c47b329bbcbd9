// Package agent drives the scrape pipeline: analyze the site, select a
// backend class, build the attempt plan and walk it sequentially until a
// backend yields usable markup, then extract the requested facts.
package agent

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/MAYANK12-WQ/advanced-web-scraping-agent/backend"
	"github.com/MAYANK12-WQ/advanced-web-scraping-agent/config"
	"github.com/MAYANK12-WQ/advanced-web-scraping-agent/extractor"
	"github.com/MAYANK12-WQ/advanced-web-scraping-agent/models"
	"github.com/MAYANK12-WQ/advanced-web-scraping-agent/proxy"
	"github.com/MAYANK12-WQ/advanced-web-scraping-agent/strategy"
)

// SiteAnalyzer produces the characteristics the selector consumes.
type SiteAnalyzer interface {
	Analyze(ctx context.Context, url string) models.SiteCharacteristics
}

// ContentDistiller reduces raw markup to the page's main article.
type ContentDistiller interface {
	Distill(markup, pageURL string) string
}

// Options wires the orchestrator's collaborators. Static, BrowserFull,
// BrowserLight and Crawl are the local backends for their classes;
// Remotes is the ordered remote-API tier appended to every plan.
type Options struct {
	Analyzer     SiteAnalyzer
	Static       backend.Fetcher
	BrowserFull  backend.Fetcher
	BrowserLight backend.Fetcher
	Crawl        backend.Fetcher
	Remotes      []backend.Fetcher
	Rotator      *proxy.Rotator
	Distiller    ContentDistiller
	Fetch        config.FetchConfig
	Logger       *slog.Logger
}

// Agent is the fallback orchestrator. It holds no request-scoped state,
// so one instance serves concurrent requests.
type Agent struct {
	analyzer     SiteAnalyzer
	static       backend.Fetcher
	browserFull  backend.Fetcher
	browserLight backend.Fetcher
	crawl        backend.Fetcher
	remotes      []backend.Fetcher
	rotator      *proxy.Rotator
	distiller    ContentDistiller
	fetchCfg     config.FetchConfig
	log          *slog.Logger
}

// New creates the orchestrator.
func New(opts Options) *Agent {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Agent{
		analyzer:     opts.Analyzer,
		static:       opts.Static,
		browserFull:  opts.BrowserFull,
		browserLight: opts.BrowserLight,
		crawl:        opts.Crawl,
		remotes:      opts.Remotes,
		rotator:      opts.Rotator,
		distiller:    opts.Distiller,
		fetchCfg:     opts.Fetch,
		log:          logger,
	}
}

// plannedAttempt pairs a backend with the timeout its class gets.
type plannedAttempt struct {
	fetcher backend.Fetcher
	timeout time.Duration
}

// Scrape runs the full pipeline for one request.
//
//  1. Validate      – reject malformed requests before any network activity
//  2. Analyze       – sample fetch + signal scan (skipped for forced backends)
//  3. Select        – characteristics -> backend class
//  4. Plan          – primary backend for the class, then the remote tier
//  5. Attempt       – strictly sequential, first usable markup wins
//  6. Extract       – requested fact types against the winning markup only
//
// Attempts never run concurrently and no backend is tried twice. When
// every attempt fails the caller gets an AggregateFailure carrying the
// ordered (backend, cause) chain.
func (a *Agent) Scrape(ctx context.Context, req *models.ScrapeRequest) (*models.ScrapeResult, error) {
	// ── 1. Validate ───────────────────────────────────────────────────
	req.Defaults()
	if verr := req.Validate(); verr != nil {
		return nil, verr
	}

	start := time.Now()

	// ── 2+3. Analyze and select (or honor the forced class) ──────────
	var chars models.SiteCharacteristics
	var class models.BackendClass
	if req.ForcedBackend != "" {
		class, _ = models.ParseBackendClass(req.ForcedBackend)
		a.log.Debug("backend forced, skipping analysis", "url", req.URL, "class", class)
	} else {
		chars = a.analyzer.Analyze(ctx, req.URL)
		class = strategy.Select(chars)
		a.log.Debug("backend selected",
			"url", req.URL,
			"class", class,
			"dynamic", chars.IsDynamic,
			"structured", chars.HasStructuredData,
			"antiScraping", chars.HasAntiScraping,
			"interaction", chars.RequiresInteraction,
		)
	}

	// ── 4+5. Walk the attempt plan ────────────────────────────────────
	render := chars.IsDynamic || class.NeedsRender()
	var attempts []models.AttemptFailure
	var winner *backend.FetchResult
	var winnerProxied bool

	for _, planned := range a.plan(class) {
		fetchReq := &backend.FetchRequest{
			URL:           req.URL,
			Timeout:       planned.timeout,
			RenderScripts: render,
		}
		if req.UseProxy {
			fetchReq.Proxy = a.rotator.Next()
		}

		res, err := planned.fetcher.Fetch(ctx, fetchReq)
		if err != nil {
			a.log.Warn("backend attempt failed",
				"backend", planned.fetcher.Name(), "url", req.URL, "error", err)
			attempts = append(attempts, models.AttemptFailure{Backend: planned.fetcher.Name(), Err: err})
			continue
		}
		if strings.TrimSpace(res.HTML) == "" {
			// A nominal success without markup is unusable; keep going.
			emptyErr := models.NewScrapeError(models.ErrCodeProtocol,
				planned.fetcher.Name()+": fetch succeeded with empty markup", nil)
			a.log.Warn("backend returned empty markup",
				"backend", planned.fetcher.Name(), "url", req.URL)
			attempts = append(attempts, models.AttemptFailure{Backend: planned.fetcher.Name(), Err: emptyErr})
			continue
		}

		winner = res
		winnerProxied = fetchReq.Proxy != nil
		break
	}

	if winner == nil {
		agg := &models.AggregateFailure{URL: req.URL, Attempts: attempts}
		a.log.Error("all backends failed", "url", req.URL, "attempts", len(attempts))
		return nil, agg
	}
	a.log.Info("backend won",
		"backend", winner.Backend, "url", req.URL, "attempts", len(attempts)+1)

	// ── 6. Extract facts from the winning markup ──────────────────────
	facts := extractor.Facts(winner.HTML, req.FactTypes)

	result := &models.ScrapeResult{
		Facts: facts,
		Metadata: models.Metadata{
			URL:             req.URL,
			ScrapedAt:       time.Now().UTC(),
			Backend:         winner.Backend,
			ProxyUsed:       winnerProxied,
			Characteristics: chars,
			ElapsedMS:       time.Since(start).Milliseconds(),
		},
	}
	if req.IncludeContent && a.distiller != nil {
		result.Content = a.distiller.Distill(winner.HTML, winner.FinalURL)
	}
	return result, nil
}

// Analyze runs the sample fetch and reports the characteristics along
// with the class the selector would dispatch to.
func (a *Agent) Analyze(ctx context.Context, req *models.AnalyzeRequest) (*models.AnalyzeResponse, error) {
	if verr := req.Validate(); verr != nil {
		return nil, verr
	}
	chars := a.analyzer.Analyze(ctx, req.URL)
	return &models.AnalyzeResponse{
		URL:             req.URL,
		Characteristics: chars,
		Backend:         strategy.Select(chars),
	}, nil
}

// plan builds the ordered attempt list for a class: the class's own
// backend first, then the remote tier. The remote class contributes no
// local backend, so its plan is the tier alone; no backend ever appears
// twice.
func (a *Agent) plan(class models.BackendClass) []plannedAttempt {
	var plan []plannedAttempt
	switch class {
	case models.ClassStatic:
		plan = append(plan, plannedAttempt{a.static, a.fetchCfg.StaticTimeout})
	case models.ClassBrowser:
		plan = append(plan, plannedAttempt{a.browserFull, a.fetchCfg.RenderTimeout})
	case models.ClassBrowserLight:
		plan = append(plan, plannedAttempt{a.browserLight, a.fetchCfg.RenderTimeout})
	case models.ClassCrawl:
		plan = append(plan, plannedAttempt{a.crawl, a.fetchCfg.RenderTimeout})
	case models.ClassRemoteAPI:
		// The remote tier below is the whole plan.
	}
	for _, r := range a.remotes {
		plan = append(plan, plannedAttempt{r, a.fetchCfg.StaticTimeout})
	}
	return plan
}
