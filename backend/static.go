package backend

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	tls "github.com/refraction-networking/utls"
	"golang.org/x/net/html"

	"github.com/MAYANK12-WQ/advanced-web-scraping-agent/models"
)

// browserUA is the desktop Chrome identity the static fetcher presents.
// Keeping it close to the headless browser's own UA makes the two tiers
// look alike to origin servers.
const browserUA = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/131.0.0.0 Safari/537.36"

// maxBodyBytes caps how much of a response body a plain HTTP fetch reads.
const maxBodyBytes = 10 << 20

// chromeH1Spec is a Chrome-like TLS ClientHello with ALPN pinned to
// http/1.1 only. Computed once at init time and reused for every direct
// connection.
var chromeH1Spec tls.ClientHelloSpec

func init() {
	spec, err := tls.UTLSIdToSpec(tls.HelloChrome_Auto)
	if err != nil {
		// Fallback: if spec generation fails, use HelloChrome_Auto as-is.
		// (Should never happen with a valid utls version.)
		return
	}
	// Replace h2 with http/1.1 only in the ALPN extension so the server
	// never negotiates HTTP/2, which Go's http.Transport cannot handle
	// over a utls connection.
	for i, ext := range spec.Extensions {
		if alpn, ok := ext.(*tls.ALPNExtension); ok {
			alpn.AlpnProtocols = []string{"http/1.1"}
			spec.Extensions[i] = alpn
			break
		}
	}
	chromeH1Spec = spec
}

// Static fetches pages over plain HTTP with a Chrome-like TLS
// fingerprint. It is the cheapest backend and the default for pages that
// do not need script execution.
type Static struct {
	direct *http.Client
	log    *slog.Logger
}

// NewStatic creates the static fetcher.
func NewStatic(logger *slog.Logger) *Static {
	if logger == nil {
		logger = slog.Default()
	}
	return &Static{direct: newStaticClient(nil), log: logger}
}

func (s *Static) Name() string { return "static" }

// newStaticClient builds the HTTP client for one proxy setting. Direct
// connections handshake through utls so the fingerprint matches a real
// Chrome; proxied connections tunnel through CONNECT on the standard TLS
// stack, which net/http requires when a proxy is involved.
func newStaticClient(proxyURL *url.URL) *http.Client {
	transport := &http.Transport{ForceAttemptHTTP2: false}
	if proxyURL != nil {
		transport.Proxy = http.ProxyURL(proxyURL)
	} else {
		transport.DialTLSContext = dialChromeTLS
	}
	return &http.Client{
		Transport: transport,
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			if len(via) >= 10 {
				return errors.New("too many redirects")
			}
			return nil
		},
	}
}

func dialChromeTLS(ctx context.Context, network, addr string) (net.Conn, error) {
	dialer := &net.Dialer{Timeout: 10 * time.Second}
	conn, err := dialer.DialContext(ctx, network, addr)
	if err != nil {
		return nil, err
	}
	host, _, _ := net.SplitHostPort(addr)
	tlsConn := tls.UClient(conn, &tls.Config{ServerName: host}, tls.HelloCustom)
	if err := tlsConn.ApplyPreset(&chromeH1Spec); err != nil {
		conn.Close()
		return nil, fmt.Errorf("static: apply tls spec: %w", err)
	}
	if err := tlsConn.HandshakeContext(ctx); err != nil {
		conn.Close()
		return nil, err
	}
	return tlsConn, nil
}

func (s *Static) Fetch(ctx context.Context, req *FetchRequest) (*FetchResult, error) {
	ctx, cancel := attemptContext(ctx, req.Timeout)
	defer cancel()

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, req.URL, nil)
	if err != nil {
		return nil, models.NewScrapeError(models.ErrCodeProtocol, "static: build request", err)
	}

	// Simulate browser-like headers.
	httpReq.Header.Set("User-Agent", browserUA)
	httpReq.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,image/avif,image/webp,*/*;q=0.8")
	httpReq.Header.Set("Accept-Language", "en-US,en;q=0.9")
	httpReq.Header.Set("Accept-Encoding", "identity") // no compression for simplicity

	client := s.direct
	if req.Proxy != nil {
		client = newStaticClient(req.Proxy.URL)
		defer client.CloseIdleConnections()
	}

	resp, err := client.Do(httpReq)
	if err != nil {
		return nil, classify("static: request failed", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, classify("static: read body", err)
	}

	// A non-HTML or error response is a failure here so the fallback
	// chain can escalate to a rendering backend.
	ct := resp.Header.Get("Content-Type")
	if resp.StatusCode >= 400 || !isHTMLContentType(ct) {
		return nil, models.NewScrapeError(models.ErrCodeProtocol,
			fmt.Sprintf("static: unusable response: status %d, content-type %q", resp.StatusCode, ct), nil)
	}

	markup := string(body)
	return &FetchResult{
		HTML:       markup,
		Title:      extractTitle(markup),
		StatusCode: resp.StatusCode,
		FinalURL:   resp.Request.URL.String(),
		Backend:    s.Name(),
	}, nil
}

// isHTMLContentType returns true if the content-type header looks like HTML.
func isHTMLContentType(ct string) bool {
	ct = strings.ToLower(ct)
	return strings.Contains(ct, "text/html") || strings.Contains(ct, "application/xhtml+xml")
}

// extractTitle uses the Go HTML tokenizer to find the first <title> element.
func extractTitle(markup string) string {
	tokenizer := html.NewTokenizer(strings.NewReader(markup))
	inTitle := false
	for {
		tt := tokenizer.Next()
		switch tt {
		case html.ErrorToken:
			return ""
		case html.StartTagToken:
			tn, _ := tokenizer.TagName()
			if string(tn) == "title" {
				inTitle = true
			}
		case html.TextToken:
			if inTitle {
				return strings.TrimSpace(string(tokenizer.Text()))
			}
		case html.EndTagToken:
			if inTitle {
				return ""
			}
		}
	}
}
