package models

import "time"

// Heading is one <h1> or <h2> element, in document order.
type Heading struct {
	Level int    `json:"level"`
	Text  string `json:"text"`
}

// Link is one anchor extracted from the page. Links keep document order
// and are never deduplicated.
type Link struct {
	URL string `json:"url"`

	// Text is the anchor text, falling back to the href when empty.
	Text string `json:"text"`

	// Internal is true when the href starts with "/" or with the page's
	// base URL.
	Internal bool `json:"internal"`
}

// Facts holds extraction output keyed by fact type. Only requested types
// are non-nil; a requested type with no hits is an empty, non-nil slice.
// Emails and phone numbers are deduplicated and sorted; headings and links
// keep document order.
type Facts struct {
	Emails       []string  `json:"emails,omitempty"`
	PhoneNumbers []string  `json:"phone_numbers,omitempty"`
	Headings     []Heading `json:"headings,omitempty"`
	Links        []Link    `json:"links,omitempty"`
}

// Metadata describes how a result was produced.
type Metadata struct {
	// URL is the requested URL, echoed back verbatim.
	URL string `json:"url"`

	// ScrapedAt is the UTC completion timestamp.
	ScrapedAt time.Time `json:"scraped_at"`

	// Backend is the name of the backend whose fetch succeeded
	// (e.g. "static", "rod-stealth", "scrapingbee").
	Backend string `json:"backend"`

	// ProxyUsed reports whether the winning fetch went through a proxy.
	ProxyUsed bool `json:"proxy_used"`

	// Characteristics are the analyzer's signals for the page. All false
	// when a forced backend skipped analysis.
	Characteristics SiteCharacteristics `json:"characteristics"`

	// ElapsedMS is the end-to-end duration in milliseconds.
	ElapsedMS int64 `json:"elapsed_ms"`
}

// ScrapeResult is the outcome of a successful scrape: the extracted facts
// plus metadata, and optionally a markdown rendering of the main article.
type ScrapeResult struct {
	Facts    Facts    `json:"facts"`
	Metadata Metadata `json:"metadata"`

	// Content is the page's main article as markdown. Populated only when
	// the request set include_content.
	Content string `json:"content,omitempty"`

	// CacheStatus indicates whether the API layer served this result from
	// cache. Values: "hit", "miss", or empty when caching was not requested.
	CacheStatus string `json:"cache_status,omitempty"`
}

// AnalyzeResponse is the response for POST /api/v1/analyze.
type AnalyzeResponse struct {
	URL             string              `json:"url"`
	Characteristics SiteCharacteristics `json:"characteristics"`

	// Backend is the class the selector would dispatch to.
	Backend BackendClass `json:"backend"`
}

// HealthResponse is the response for GET /api/v1/health.
type HealthResponse struct {
	Status   string         `json:"status"` // "healthy" or "degraded"
	Uptime   string         `json:"uptime"`
	Backends BackendsHealth `json:"backends"`
	Version  string         `json:"version"`
}

// BackendsHealth reports which backend groups are usable with the current
// configuration.
type BackendsHealth struct {
	// Browser is false when headless rendering is disabled.
	Browser bool `json:"browser"`

	// RemoteAPIs lists the remote backends that have an API key configured.
	RemoteAPIs []string `json:"remote_apis"`

	// Proxies is the size of the proxy rotation pool.
	Proxies int `json:"proxies"`
}
