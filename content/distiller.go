// Package content distills raw page markup into a markdown rendering of
// the page's main article.
package content

import (
	"log/slog"
	nurl "net/url"
	"strings"

	"github.com/JohannesKaufmann/html-to-markdown/v2/converter"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/base"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/commonmark"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/table"
	readability "github.com/go-shiori/go-readability"
)

// minArticleLength is the minimum extracted text length (in characters)
// for readability output to be trusted. Below this threshold the whole
// page is converted instead.
const minArticleLength = 50

// Distiller reduces raw markup to the main article as markdown. The
// converter is created once and reused across requests (goroutine-safe).
type Distiller struct {
	conv *converter.Converter
	log  *slog.Logger
}

// NewDistiller configures the two-stage pipeline:
//
//   - base plugin: strips script, style, iframe, noscript, head, meta,
//     link and HTML comments.
//   - commonmark plugin: standard markdown rendering.
//   - table plugin: preserves table structure with minimal cell padding.
func NewDistiller(logger *slog.Logger) *Distiller {
	if logger == nil {
		logger = slog.Default()
	}
	return &Distiller{
		conv: converter.NewConverter(
			converter.WithPlugins(
				base.NewBasePlugin(),
				commonmark.NewCommonmarkPlugin(),
				table.NewTablePlugin(
					table.WithCellPaddingBehavior(table.CellPaddingBehaviorMinimal),
				),
			),
		),
		log: logger,
	}
}

// Distill extracts the main article and renders it as markdown. Content
// is best-effort enrichment: any failure degrades to an empty string
// rather than failing the request that asked for it.
func (d *Distiller) Distill(markup, pageURL string) string {
	md, err := d.conv.ConvertString(d.article(markup, pageURL), converter.WithDomain(pageURL))
	if err != nil {
		d.log.Warn("markdown conversion failed", "url", pageURL, "error", err)
		return ""
	}
	return strings.TrimSpace(md)
}

// article runs the Mozilla Readability algorithm and returns the main
// content HTML. It falls back to the whole page when readability errors
// or finds too little text to be credible.
func (d *Distiller) article(markup, pageURL string) string {
	parsed, err := nurl.Parse(pageURL)
	if err != nil {
		d.log.Warn("readability: invalid source URL, using full page", "url", pageURL, "error", err)
		return markup
	}

	art, err := readability.FromReader(strings.NewReader(markup), parsed)
	if err != nil {
		d.log.Warn("readability: extraction failed, using full page", "url", pageURL, "error", err)
		return markup
	}
	if len(strings.TrimSpace(art.TextContent)) < minArticleLength {
		d.log.Warn("readability: extracted content too short, using full page",
			"url", pageURL, "length", len(art.TextContent))
		return markup
	}
	return art.Content
}
