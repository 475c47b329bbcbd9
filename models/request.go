package models

import "strings"

// FactType identifies one category of structured data the extractor can
// pull out of fetched markup.
type FactType string

const (
	FactEmails       FactType = "emails"
	FactPhoneNumbers FactType = "phone_numbers"
	FactHeadings     FactType = "headings"
	FactLinks        FactType = "links"
)

// AllFactTypes lists every supported fact type in canonical order.
var AllFactTypes = []FactType{FactEmails, FactPhoneNumbers, FactHeadings, FactLinks}

// ParseFactType normalizes a user-supplied fact type name. The second
// return value is false for unknown names.
func ParseFactType(s string) (FactType, bool) {
	switch FactType(strings.ToLower(strings.TrimSpace(s))) {
	case FactEmails:
		return FactEmails, true
	case FactPhoneNumbers:
		return FactPhoneNumbers, true
	case FactHeadings:
		return FactHeadings, true
	case FactLinks:
		return FactLinks, true
	}
	return "", false
}

// ScrapeRequest is the payload for POST /api/v1/scrape and the input to
// Agent.Scrape.
type ScrapeRequest struct {
	// URL is the target page. Must start with http:// or https://.
	URL string `json:"url" binding:"required"`

	// FactTypes lists the data categories to extract. At least one is
	// required. Allowed: "emails", "phone_numbers", "headings", "links".
	FactTypes []FactType `json:"fact_types" binding:"required"`

	// ForcedBackend pins the retrieval backend class, bypassing site
	// analysis and selection. Allowed: "static", "browser",
	// "browser_light", "crawl", "api". Empty means automatic selection.
	ForcedBackend string `json:"forced_backend,omitempty"`

	// UseProxy routes the fetch through the next proxy from the rotation
	// pool, when one is configured.
	UseProxy bool `json:"use_proxy,omitempty"`

	// IncludeContent adds a markdown rendering of the page's main article
	// to the result. Extraction of fact types is unaffected.
	IncludeContent bool `json:"include_content,omitempty"`

	// MaxAge is the cache acceptance window in milliseconds. 0 disables
	// cache lookup. Only the API layer consults the cache.
	MaxAge int64 `json:"max_age,omitempty" binding:"omitempty,min=0"`
}

// Defaults normalizes fact type names in place.
func (r *ScrapeRequest) Defaults() {
	for i, ft := range r.FactTypes {
		if parsed, ok := ParseFactType(string(ft)); ok {
			r.FactTypes[i] = parsed
		}
	}
}

// Validate checks the request before any network activity happens.
// The URL scheme check is deliberately a string-prefix test: anything that
// is not plain http(s) (ftp://, file://, mailto:, scheme-less hosts) is
// rejected without a fetch.
func (r *ScrapeRequest) Validate() *ScrapeError {
	if !strings.HasPrefix(r.URL, "http://") && !strings.HasPrefix(r.URL, "https://") {
		return NewScrapeError(ErrCodeInvalidInput, "url must start with http:// or https://", nil)
	}
	if len(r.FactTypes) == 0 {
		return NewScrapeError(ErrCodeInvalidInput, "at least one fact type is required", nil)
	}
	for _, ft := range r.FactTypes {
		if _, ok := ParseFactType(string(ft)); !ok {
			return NewScrapeError(ErrCodeInvalidInput, "unknown fact type: "+string(ft), nil)
		}
	}
	if r.ForcedBackend != "" {
		if _, ok := ParseBackendClass(r.ForcedBackend); !ok {
			return NewScrapeError(ErrCodeInvalidInput, "unknown backend: "+r.ForcedBackend, nil)
		}
	}
	return nil
}

// AnalyzeRequest is the payload for POST /api/v1/analyze.
type AnalyzeRequest struct {
	URL string `json:"url" binding:"required"`
}

// Validate applies the same scheme rule as ScrapeRequest.
func (r *AnalyzeRequest) Validate() *ScrapeError {
	if !strings.HasPrefix(r.URL, "http://") && !strings.HasPrefix(r.URL, "https://") {
		return NewScrapeError(ErrCodeInvalidInput, "url must start with http:// or https://", nil)
	}
	return nil
}
