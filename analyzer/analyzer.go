// Package analyzer derives the characteristics of a target site from a
// single sample fetch. The result feeds backend selection; it is a cheap
// heuristic pass, not a rendering-correctness oracle.
package analyzer

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/andybalholm/cascadia"
	"golang.org/x/net/html"

	"github.com/MAYANK12-WQ/advanced-web-scraping-agent/models"
)

const sampleUA = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/131.0.0.0 Safari/537.36"

// maxSampleBytes caps how much of the sample body is read for analysis.
const maxSampleBytes = 10 << 20 // 10 MB

// Keyword sets scanned over the lower-cased body and URL. The first hit
// per set settles that signal.
var (
	frameworkTokens = []string{
		"react", "angular", "vue", "jquery", "ember",
		"backbone", "knockout", "meteor", "aurelia",
	}
	asyncTokens = []string{"ajax", "fetch", "axios", "xmlhttprequest"}

	structuredTokens = []string{
		"<table", "<ul", "<ol", "<dl",
		"json-ld", "structured-data", "schema.org",
	}

	antiScrapingTokens = []string{
		"captcha", "recaptcha", "hcaptcha", "cloudflare",
		"distil", "imperva", "akamai", "bot detection",
	}

	interactionTokens = []string{
		"onclick", "onload", "onscroll", "addeventlistener",
		"infinite scroll", "lazy load",
	}
)

var (
	iframeSel = mustSel("iframe")
	formSel   = mustSel("form")
)

func mustSel(s string) cascadia.Sel {
	sel, err := cascadia.Parse(s)
	if err != nil {
		panic("analyzer: bad selector " + s + ": " + err.Error())
	}
	return sel
}

// Analyzer performs the sample fetch and keyword/structural scans.
type Analyzer struct {
	client *http.Client
	log    *slog.Logger
}

// New builds an Analyzer whose sample fetch is bounded by timeout.
func New(timeout time.Duration, logger *slog.Logger) *Analyzer {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Analyzer{
		client: &http.Client{Timeout: timeout},
		log:    logger,
	}
}

// Analyze fetches url once with a browser User-Agent and derives the four
// site characteristics. It never returns an error: transport failures and
// non-200 statuses yield the all-false default with the cause logged, so
// selection can always proceed.
func (a *Analyzer) Analyze(ctx context.Context, url string) models.SiteCharacteristics {
	var chars models.SiteCharacteristics

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		a.log.Warn("analysis skipped: bad url", "url", url, "error", err)
		return chars
	}
	req.Header.Set("User-Agent", sampleUA)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")

	resp, err := a.client.Do(req)
	if err != nil {
		a.log.Warn("analysis sample fetch failed", "url", url, "error", err)
		return chars
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		a.log.Warn("analysis sample fetch non-200", "url", url, "status", resp.StatusCode)
		return chars
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxSampleBytes))
	if err != nil {
		a.log.Warn("analysis body read failed", "url", url, "error", err)
		return chars
	}

	chars = Scan(string(body), url)
	a.log.Debug("analysis complete",
		"url", url,
		"is_dynamic", chars.IsDynamic,
		"has_structured_data", chars.HasStructuredData,
		"has_anti_scraping", chars.HasAntiScraping,
		"requires_interaction", chars.RequiresInteraction)
	return chars
}

// Scan derives characteristics from already-fetched markup. Split out so
// the scan rules can run without a live fetch.
func Scan(markup, url string) models.SiteCharacteristics {
	lowerBody := strings.ToLower(markup)
	lowerURL := strings.ToLower(url)

	chars := models.SiteCharacteristics{
		IsDynamic: containsAny(lowerBody, frameworkTokens) ||
			containsAny(lowerBody, asyncTokens) ||
			containsAny(lowerURL, frameworkTokens) ||
			containsAny(lowerURL, asyncTokens),
		HasStructuredData: containsAny(lowerBody, structuredTokens) ||
			containsAny(lowerURL, structuredTokens),
		HasAntiScraping: containsAny(lowerBody, antiScrapingTokens) ||
			containsAny(lowerURL, antiScrapingTokens),
		RequiresInteraction: containsAny(lowerBody, interactionTokens) ||
			containsAny(lowerURL, interactionTokens),
	}

	// Structural pass: iframes and script-handled forms are dynamic
	// signals the keyword scan can miss. A markup that fails to parse
	// keeps whatever the keyword scan found.
	doc, err := html.Parse(strings.NewReader(markup))
	if err != nil {
		return chars
	}
	if !chars.IsDynamic && len(cascadia.QueryAll(doc, iframeSel)) > 0 {
		chars.IsDynamic = true
	}
	if !chars.IsDynamic {
		for _, form := range cascadia.QueryAll(doc, formSel) {
			if attrVal(form, "action") == "" || attrVal(form, "onsubmit") != "" {
				chars.IsDynamic = true
				break
			}
		}
	}
	return chars
}

func containsAny(haystack string, tokens []string) bool {
	for _, tok := range tokens {
		if strings.Contains(haystack, tok) {
			return true
		}
	}
	return false
}

func attrVal(n *html.Node, name string) string {
	for _, a := range n.Attr {
		if strings.EqualFold(a.Key, name) {
			return a.Val
		}
	}
	return ""
}
