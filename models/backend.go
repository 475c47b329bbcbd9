package models

import "strings"

// BackendClass names one of the retrieval strategies the orchestrator can
// dispatch to. ClassRemoteAPI stands for the whole ordered tier of remote
// scraping APIs rather than a single backend.
type BackendClass string

const (
	// ClassStatic is a plain HTTP GET with browser-like headers.
	ClassStatic BackendClass = "static"

	// ClassBrowser is the full headless browser with stealth evasions and
	// a settle delay, for dynamic pages that need interaction events.
	ClassBrowser BackendClass = "browser"

	// ClassBrowserLight is a lighter headless render without stealth or
	// settle delay, for dynamic pages without interaction requirements.
	ClassBrowserLight BackendClass = "browser_light"

	// ClassCrawl is a single-page run through the crawl framework, suited
	// to structured listing pages.
	ClassCrawl BackendClass = "crawl"

	// ClassRemoteAPI is the ordered tier of hosted scraping APIs.
	ClassRemoteAPI BackendClass = "api"
)

// ParseBackendClass normalizes a user-supplied backend class name. The
// second return value is false for unknown names.
func ParseBackendClass(s string) (BackendClass, bool) {
	switch BackendClass(strings.ToLower(strings.TrimSpace(s))) {
	case ClassStatic:
		return ClassStatic, true
	case ClassBrowser:
		return ClassBrowser, true
	case ClassBrowserLight:
		return ClassBrowserLight, true
	case ClassCrawl:
		return ClassCrawl, true
	case ClassRemoteAPI:
		return ClassRemoteAPI, true
	}
	return "", false
}

// NeedsRender reports whether the class renders JavaScript locally.
// Remote APIs decide rendering on their side via request parameters.
func (c BackendClass) NeedsRender() bool {
	return c == ClassBrowser || c == ClassBrowserLight
}

// SiteCharacteristics are the four signals derived from one sample fetch
// of the target page. The zero value (all false) is used whenever the
// sample fetch fails or analysis is skipped.
type SiteCharacteristics struct {
	// IsDynamic indicates client-side rendering signals: JS framework or
	// async-call tokens, iframes, or script-handled forms.
	IsDynamic bool `json:"is_dynamic"`

	// HasStructuredData indicates tables, lists, or schema.org style
	// markup worth crawling with a structure-aware backend.
	HasStructuredData bool `json:"has_structured_data"`

	// HasAntiScraping indicates CAPTCHA or bot-mitigation vendor tokens.
	HasAntiScraping bool `json:"has_anti_scraping"`

	// RequiresInteraction indicates event-handler or scroll-loading
	// tokens that call for full browser semantics.
	RequiresInteraction bool `json:"requires_interaction"`
}
