// Package strategy maps site characteristics to the retrieval backend
// class the orchestrator should try first.
package strategy

import "github.com/MAYANK12-WQ/advanced-web-scraping-agent/models"

// Select picks a backend class from the analyzer's signals. It is a pure
// function: same characteristics, same class, no I/O. A forced backend in
// the request is resolved by the orchestrator and never reaches here.
//
// Precedence: dynamic pages get a headless browser, the full one when
// interaction events are in play; otherwise structured markup goes to the
// crawl backend; anti-bot signals skip local fetching for the remote
// tier; everything else is a plain static fetch.
func Select(c models.SiteCharacteristics) models.BackendClass {
	switch {
	case c.IsDynamic && c.RequiresInteraction:
		return models.ClassBrowser
	case c.IsDynamic:
		return models.ClassBrowserLight
	case c.HasStructuredData:
		return models.ClassCrawl
	case c.HasAntiScraping:
		return models.ClassRemoteAPI
	default:
		return models.ClassStatic
	}
}
