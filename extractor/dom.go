package extractor

import (
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/MAYANK12-WQ/advanced-web-scraping-agent/models"
)

// Headings collects every <h1> and <h2> with non-empty trimmed text, in
// document order. Empty headings are skipped, not counted.
func Headings(markup string) []models.Heading {
	headings := []models.Heading{}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(markup))
	if err != nil {
		return headings
	}
	doc.Find("h1, h2").Each(func(_ int, s *goquery.Selection) {
		text := strings.TrimSpace(s.Text())
		if text == "" {
			return
		}
		level := 1
		if goquery.NodeName(s) == "h2" {
			level = 2
		}
		headings = append(headings, models.Heading{Level: level, Text: text})
	})
	return headings
}

var domainPattern = regexp.MustCompile(`(https?://[^/]+)`)

// Links collects every anchor with a usable href, preserving document
// order and keeping duplicates: two anchors to the same URL are two links.
func Links(markup string) []models.Link {
	links := []models.Link{}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(markup))
	if err != nil {
		return links
	}

	base := baseURL(doc)
	doc.Find("a[href]").Each(func(_ int, s *goquery.Selection) {
		href := strings.TrimSpace(s.AttrOr("href", ""))
		if href == "" || href == "#" || strings.HasPrefix(href, "javascript:") {
			return
		}
		text := strings.TrimSpace(s.Text())
		if text == "" {
			text = href
		}
		links = append(links, models.Link{
			URL:      href,
			Text:     text,
			Internal: isInternal(href, base),
		})
	})
	return links
}

// baseURL prefers an explicit <base href>; otherwise it falls back to the
// domain of the canonical link. Empty when the page declares neither.
func baseURL(doc *goquery.Document) string {
	if href, ok := doc.Find("base[href]").First().Attr("href"); ok {
		if trimmed := strings.TrimSpace(href); trimmed != "" {
			return trimmed
		}
	}
	if href, ok := doc.Find(`link[rel="canonical"][href]`).First().Attr("href"); ok {
		if m := domainPattern.FindStringSubmatch(href); m != nil {
			return m[1]
		}
	}
	return ""
}

// isInternal classifies by string prefix: rooted paths are always
// internal; everything else is internal only when the page's base URL is
// known and the href starts with it.
func isInternal(href, base string) bool {
	if strings.HasPrefix(href, "/") {
		return true
	}
	return base != "" && strings.HasPrefix(href, base)
}
