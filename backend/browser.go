package backend

import (
	"context"
	"log/slog"
	"net/url"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/launcher/flags"
	"github.com/go-rod/rod/lib/proto"
	"github.com/go-rod/stealth"
	"github.com/ysmood/gson"

	"github.com/MAYANK12-WQ/advanced-web-scraping-agent/config"
	"github.com/MAYANK12-WQ/advanced-web-scraping-agent/models"
)

// Browser owns the shared headless Chrome process and the page pool the
// two rod-backed fetchers borrow from. It is safe for concurrent use.
// A disabled Browser (headless fetching turned off, or launch failed and
// the caller chose to continue) never launches anything; its fetchers
// fail fast so the fallback chain moves on.
type Browser struct {
	browser  *rod.Browser
	pagePool rod.Pool[rod.Page]
	cfg      config.BrowserConfig
	settle   time.Duration
	log      *slog.Logger
}

// NewBrowser launches the headless browser and initialises the page pool.
// When cfg.Enabled is false it returns a disabled Browser and no error.
func NewBrowser(cfg config.BrowserConfig, settle time.Duration, logger *slog.Logger) (*Browser, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if !cfg.Enabled {
		logger.Info("headless backends disabled by configuration")
		return &Browser{cfg: cfg, settle: settle, log: logger}, nil
	}

	l := launcher.New().
		Headless(cfg.Headless).
		NoSandbox(cfg.NoSandbox)

	if cfg.BrowserBin != "" {
		l = l.Bin(cfg.BrowserBin)
	}
	if cfg.Proxy != "" {
		l = l.Proxy(cfg.Proxy)
	}

	// ── Stealth flags ────────────────────────────────────────────────
	l.Set(flags.Flag("disable-blink-features"), "AutomationControlled")
	l.Delete(flags.Flag("enable-automation"))
	l.Set(flags.Flag("disable-features"), "AudioServiceOutOfProcess,TranslateUI")
	l.Set(flags.Flag("disable-ipc-flooding-protection"))
	l.Set(flags.Flag("disable-popup-blocking"))
	l.Set(flags.Flag("disable-prompt-on-repost"))
	l.Set(flags.Flag("disable-renderer-backgrounding"))
	l.Set(flags.Flag("disable-background-timer-throttling"))
	l.Set(flags.Flag("disable-backgrounding-occluded-windows"))
	l.Set(flags.Flag("disable-component-update"))
	l.Set(flags.Flag("disable-default-apps"))
	l.Set(flags.Flag("disable-dev-shm-usage"))
	l.Set(flags.Flag("disable-extensions"))
	l.Set(flags.Flag("no-first-run"))

	controlURL, err := l.Launch()
	if err != nil {
		return nil, models.NewScrapeError(models.ErrCodeInternal, "failed to launch browser", err)
	}
	logger.Info("browser launched", "controlURL", controlURL)

	browser := rod.New().ControlURL(controlURL)
	if err := browser.Connect(); err != nil {
		return nil, models.NewScrapeError(models.ErrCodeInternal, "failed to connect to browser", err)
	}

	return &Browser{
		browser:  browser,
		pagePool: rod.NewPagePool(cfg.MaxPages),
		cfg:      cfg,
		settle:   settle,
		log:      logger,
	}, nil
}

// Enabled reports whether a live browser process is attached.
func (b *Browser) Enabled() bool {
	return b != nil && b.browser != nil
}

// Close drains the page pool and kills the browser process. Call on
// graceful shutdown to prevent zombie Chrome processes.
func (b *Browser) Close() {
	if !b.Enabled() {
		return
	}
	b.log.Info("browser shutting down: draining page pool")
	b.pagePool.Cleanup(func(p *rod.Page) {
		_ = p.Close()
	})
	b.browser.MustClose()
	b.log.Info("browser shutdown complete")
}

// Full returns the primary headless fetcher: stealth script injection,
// spoofed referer and a settle delay for late-running scripts.
func (b *Browser) Full() Fetcher {
	return &rodFetcher{b: b, name: "rod-stealth", stealth: true, settle: true}
}

// Light returns the secondary headless fetcher: a plain render without
// the stealth layer or the settle delay, for pages that only need script
// execution.
func (b *Browser) Light() Fetcher {
	return &rodFetcher{b: b, name: "rod"}
}

type rodFetcher struct {
	b       *Browser
	name    string
	stealth bool
	settle  bool
}

func (r *rodFetcher) Name() string { return r.name }

// Fetch renders the page in a pooled tab.
//
// Lifecycle (numbered steps match the inline comments):
//
//  1. Timeout guard     – hard deadline on the whole attempt
//  2. Acquire page      – borrow a tab from the pool (or create one)
//  3. DEFER: cleanup    – about:blank + return to pool (leak prevention)
//  4. Stealth injection – mask navigator.webdriver etc. (before navigation!)
//  5. Hijack mount      – block heavy resource types (before navigation!)
//  6. Context binding   – propagate the deadline to all Rod operations
//  7. Navigate          – triggers the page load
//  8. Wait + settle     – DOM stable, then the settle delay on the full tier
//  9. Extract           – page.HTML() + title + final URL
//
// Steps 4-5 must happen before step 7: stealth JS and resource blocking
// only take effect for navigations installed before them. Step 3 uses the
// original page reference (without the request context) so cleanup
// succeeds even after the deadline fires.
func (r *rodFetcher) Fetch(ctx context.Context, req *FetchRequest) (*FetchResult, error) {
	if !r.b.Enabled() {
		return nil, models.NewScrapeError(models.ErrCodeProtocol, r.name+": headless browser disabled", nil)
	}

	// ── 1. Timeout guard ──────────────────────────────────────────────
	ctx, cancel := attemptContext(ctx, req.Timeout)
	defer cancel()

	// ── 2. Acquire page from pool ─────────────────────────────────────
	page, acquireErr := r.b.pagePool.Get(func() (*rod.Page, error) {
		return r.b.browser.Page(proto.TargetCreateTarget{})
	})
	if acquireErr != nil {
		return nil, models.NewScrapeError(models.ErrCodeInternal, r.name+": failed to acquire page from pool", acquireErr)
	}

	// ── 3. CRITICAL DEFER: prevent DOM memory leak + guarantee pool return
	defer func() {
		if navErr := page.Navigate("about:blank"); navErr != nil {
			r.b.log.Warn("cleanup: failed to navigate to about:blank", "error", navErr)
		}
		r.b.pagePool.Put(page)
	}()

	// ── 4. Stealth injection + spoofed referer ────────────────────────
	if r.stealth {
		if _, evalErr := page.EvalOnNewDocument(stealth.JS); evalErr != nil {
			r.b.log.Warn("stealth injection failed, proceeding without stealth", "error", evalErr)
		}
		if u, parseErr := url.Parse(req.URL); parseErr == nil {
			_ = proto.NetworkSetExtraHTTPHeaders{
				Headers: toHeadersMap(map[string]string{
					"Referer": "https://www.google.com/search?q=" + url.QueryEscape(u.Hostname()),
				}),
			}.Call(page)
		}
	}

	// ── 5. Mount hijack router (blocks Image/Stylesheet/Font/Media) ──
	router := setupHijack(page, r.b.cfg.BlockedResourceTypes)
	if router != nil {
		defer func() { _ = router.Stop() }()
	}

	// ── 6. Bind request context to page ───────────────────────────────
	p := page.Context(ctx)

	// ── 7. Navigate ───────────────────────────────────────────────────
	if navErr := p.Navigate(req.URL); navErr != nil {
		return nil, classify(r.name+": navigation failed", navErr)
	}

	// ── 8. Wait for the DOM to stop mutating, then let late scripts run
	if stableErr := p.WaitDOMStable(300*time.Millisecond, 0.1); stableErr != nil {
		r.b.log.Debug("WaitDOMStable did not converge, proceeding with current DOM", "error", stableErr)
	}
	if r.settle && r.b.settle > 0 {
		select {
		case <-ctx.Done():
			return nil, classify(r.name+": settle wait interrupted", ctx.Err())
		case <-time.After(r.b.settle):
		}
	}

	// ── 8b. Collect status code via JS (best-effort) ──────────────────
	statusCode := 0
	if res, err := p.Eval(`() => {
		try {
			const entries = performance.getEntriesByType("navigation");
			if (entries.length > 0) return entries[0].responseStatus || 0;
		} catch(e) {}
		return 0;
	}`); err == nil {
		statusCode = res.Value.Int()
	}

	// ── 9. Extract HTML, title and final URL ──────────────────────────
	rawHTML, htmlErr := p.HTML()
	if htmlErr != nil {
		return nil, classify(r.name+": failed to extract page HTML", htmlErr)
	}
	finalURL := evalStringOrEmpty(p, `() => window.location.href`)
	if finalURL == "" {
		finalURL = req.URL
	}

	return &FetchResult{
		HTML:       rawHTML,
		Title:      evalStringOrEmpty(p, `() => document.title`),
		StatusCode: statusCode,
		FinalURL:   finalURL,
		Backend:    r.name,
	}, nil
}

// configToProto maps human-readable config strings to Rod protocol
// resource types.
var configToProto = map[string]proto.NetworkResourceType{
	"Image":      proto.NetworkResourceTypeImage,
	"Stylesheet": proto.NetworkResourceTypeStylesheet,
	"Font":       proto.NetworkResourceTypeFont,
	"Media":      proto.NetworkResourceTypeMedia,
	"Script":     proto.NetworkResourceTypeScript,
}

// setupHijack installs a request interceptor that drops the configured
// resource types before they hit the network. Returns the running router
// so the caller can defer router.Stop(), or nil when nothing is blocked.
func setupHijack(page *rod.Page, blockedTypes []string) *rod.HijackRouter {
	blocked := make(map[proto.NetworkResourceType]struct{}, len(blockedTypes))
	for _, name := range blockedTypes {
		if rt, ok := configToProto[name]; ok {
			blocked[rt] = struct{}{}
		}
	}
	if len(blocked) == 0 {
		return nil
	}

	router := page.HijackRequests()

	// Pattern "*" + empty resourceType = intercept ALL requests, then
	// decide per-request whether to block or continue.
	_ = router.Add("*", "", func(ctx *rod.Hijack) {
		if _, shouldBlock := blocked[ctx.Request.Type()]; shouldBlock {
			ctx.Response.Fail(proto.NetworkErrorReasonBlockedByClient)
			return
		}
		ctx.ContinueRequest(&proto.FetchContinueRequest{})
	})

	// router.Run() blocks, so it lives in its own goroutine; it exits
	// when router.Stop() is called.
	go router.Run()
	return router
}

func evalStringOrEmpty(page *rod.Page, js string) string {
	res, err := page.Eval(js)
	if err != nil {
		return ""
	}
	return res.Value.Str()
}

// toHeadersMap converts a plain string map to the proto.NetworkHeaders
// type (map[string]gson.JSON) required by NetworkSetExtraHTTPHeaders.
func toHeadersMap(headers map[string]string) proto.NetworkHeaders {
	m := make(proto.NetworkHeaders, len(headers))
	for k, v := range headers {
		m[k] = gson.New(v)
	}
	return m
}
