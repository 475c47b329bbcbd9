package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/MAYANK12-WQ/advanced-web-scraping-agent/config"
	"github.com/MAYANK12-WQ/advanced-web-scraping-agent/models"
)

// Remote is a Fetcher backed by a hosted scraping provider.
type Remote interface {
	Fetcher

	// Available reports whether the provider has credentials configured.
	Available() bool
}

// RemoteTier builds the ordered remote fallback tier. The order is the
// escalation order the orchestrator uses after local backends fail.
func RemoteTier(cfg config.RemoteConfig, logger *slog.Logger) []Remote {
	return []Remote{
		NewScrapingBee(cfg, logger),
		NewWebScrapingAPI(cfg, logger),
		NewScrapeNinja(cfg, logger),
	}
}

// remoteClient holds what every hosted provider needs: a key, an
// endpoint and a plain HTTP client. Requests carry a context deadline,
// so the client itself has no timeout.
type remoteClient struct {
	name     string
	key      string
	endpoint string
	client   *http.Client
	log      *slog.Logger
}

func newRemoteClient(name, key, endpoint string, logger *slog.Logger) remoteClient {
	if logger == nil {
		logger = slog.Default()
	}
	return remoteClient{name: name, key: key, endpoint: endpoint, client: &http.Client{}, log: logger}
}

func (r *remoteClient) Name() string { return r.name }

func (r *remoteClient) Available() bool { return r.key != "" }

func (r *remoteClient) errMissingKey() *models.ScrapeError {
	return models.NewScrapeError(models.ErrCodeProtocol, r.name+": no API key configured", nil)
}

// get performs one provider GET and returns the raw body and status.
func (r *remoteClient) get(ctx context.Context, q url.Values) ([]byte, int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, r.endpoint+"?"+q.Encode(), nil)
	if err != nil {
		return nil, 0, models.NewScrapeError(models.ErrCodeProtocol, r.name+": build request", err)
	}
	resp, err := r.client.Do(req)
	if err != nil {
		return nil, 0, classify(r.name+": request failed", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, 0, classify(r.name+": read body", err)
	}
	return body, resp.StatusCode, nil
}

func (r *remoteClient) statusErr(status int, body []byte) *models.ScrapeError {
	snippet := strings.TrimSpace(string(body))
	if len(snippet) > 200 {
		snippet = snippet[:200]
	}
	return models.NewScrapeError(models.ErrCodeProtocol,
		fmt.Sprintf("%s: provider returned %d: %s", r.name, status, snippet), nil)
}

// noteShortBody flags responses too small to be a real page. Providers
// sometimes hand back 200 with a short error body, so this is a warning
// rather than a failure.
func (r *remoteClient) noteShortBody(markup string) {
	if len(markup) < 100 {
		r.log.Warn("provider returned suspiciously small body", "backend", r.name, "bytes", len(markup))
	}
}

// ScrapingBee is the first-choice hosted provider.
type ScrapingBee struct {
	remoteClient
}

// NewScrapingBee creates the ScrapingBee fetcher.
func NewScrapingBee(cfg config.RemoteConfig, logger *slog.Logger) *ScrapingBee {
	return &ScrapingBee{newRemoteClient("scrapingbee", cfg.ScrapingBeeKey, cfg.ScrapingBeeURL, logger)}
}

func (s *ScrapingBee) Fetch(ctx context.Context, req *FetchRequest) (*FetchResult, error) {
	if !s.Available() {
		return nil, s.errMissingKey()
	}
	ctx, cancel := attemptContext(ctx, req.Timeout)
	defer cancel()

	q := url.Values{}
	q.Set("api_key", s.key)
	q.Set("url", req.URL)
	q.Set("render_js", strconv.FormatBool(req.RenderScripts))
	q.Set("premium_proxy", strconv.FormatBool(req.Proxy != nil))

	body, status, err := s.get(ctx, q)
	if err != nil {
		return nil, err
	}
	if status != http.StatusOK {
		return nil, s.statusErr(status, body)
	}

	markup := string(body)
	s.noteShortBody(markup)
	return &FetchResult{
		HTML:       markup,
		Title:      extractTitle(markup),
		StatusCode: status,
		FinalURL:   req.URL,
		Backend:    s.Name(),
	}, nil
}

// WebScrapingAPI is the second hosted provider. Same shape as
// ScrapingBee but with 1/0 flags instead of true/false.
type WebScrapingAPI struct {
	remoteClient
}

// NewWebScrapingAPI creates the WebScrapingAPI fetcher.
func NewWebScrapingAPI(cfg config.RemoteConfig, logger *slog.Logger) *WebScrapingAPI {
	return &WebScrapingAPI{newRemoteClient("webscrapingapi", cfg.WebScrapingAPIKey, cfg.WebScrapingAPIURL, logger)}
}

func (w *WebScrapingAPI) Fetch(ctx context.Context, req *FetchRequest) (*FetchResult, error) {
	if !w.Available() {
		return nil, w.errMissingKey()
	}
	ctx, cancel := attemptContext(ctx, req.Timeout)
	defer cancel()

	q := url.Values{}
	q.Set("api_key", w.key)
	q.Set("url", req.URL)
	q.Set("render_js", oneZero(req.RenderScripts))
	q.Set("premium_proxy", oneZero(req.Proxy != nil))

	body, status, err := w.get(ctx, q)
	if err != nil {
		return nil, err
	}
	if status != http.StatusOK {
		return nil, w.statusErr(status, body)
	}

	markup := string(body)
	w.noteShortBody(markup)
	return &FetchResult{
		HTML:       markup,
		Title:      extractTitle(markup),
		StatusCode: status,
		FinalURL:   req.URL,
		Backend:    w.Name(),
	}, nil
}

func oneZero(b bool) string {
	if b {
		return "1"
	}
	return "0"
}

// ScrapeNinja is the last hosted provider in the tier. Unlike the other
// two it takes a JSON POST and wraps the page in a JSON envelope.
type ScrapeNinja struct {
	remoteClient
}

// NewScrapeNinja creates the ScrapeNinja fetcher.
func NewScrapeNinja(cfg config.RemoteConfig, logger *slog.Logger) *ScrapeNinja {
	return &ScrapeNinja{newRemoteClient("scrapeninja", cfg.ScrapeNinjaKey, cfg.ScrapeNinjaURL, logger)}
}

// ninjaRequest is the provider's POST body.
type ninjaRequest struct {
	URL          string `json:"url"`
	Javascript   bool   `json:"javascript"`
	PremiumProxy bool   `json:"premium_proxy"`
}

// ninjaResponse is the minimal envelope we need. Success is a pointer
// because only an explicit false means failure; older responses omit it.
type ninjaResponse struct {
	Success *bool  `json:"success"`
	Body    string `json:"body"`
	Error   string `json:"error"`
}

func (s *ScrapeNinja) Fetch(ctx context.Context, req *FetchRequest) (*FetchResult, error) {
	if !s.Available() {
		return nil, s.errMissingKey()
	}
	ctx, cancel := attemptContext(ctx, req.Timeout)
	defer cancel()

	payload, err := json.Marshal(ninjaRequest{
		URL:          req.URL,
		Javascript:   req.RenderScripts,
		PremiumProxy: req.Proxy != nil,
	})
	if err != nil {
		return nil, models.NewScrapeError(models.ErrCodeProtocol, "scrapeninja: marshal request", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, s.endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, models.NewScrapeError(models.ErrCodeProtocol, "scrapeninja: build request", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("X-API-KEY", s.key)

	resp, err := s.client.Do(httpReq)
	if err != nil {
		return nil, classify("scrapeninja: request failed", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, classify("scrapeninja: read body", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, s.statusErr(resp.StatusCode, body)
	}

	var envelope ninjaResponse
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil, models.NewScrapeError(models.ErrCodeProtocol, "scrapeninja: parse response", err)
	}
	if envelope.Success != nil && !*envelope.Success {
		msg := envelope.Error
		if msg == "" {
			msg = "unknown provider error"
		}
		return nil, models.NewScrapeError(models.ErrCodeProtocol, "scrapeninja: "+msg, nil)
	}

	s.noteShortBody(envelope.Body)
	return &FetchResult{
		HTML:       envelope.Body,
		Title:      extractTitle(envelope.Body),
		StatusCode: resp.StatusCode,
		FinalURL:   req.URL,
		Backend:    s.Name(),
	}, nil
}
