package backend

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/MAYANK12-WQ/advanced-web-scraping-agent/config"
	"github.com/MAYANK12-WQ/advanced-web-scraping-agent/models"
	"github.com/MAYANK12-WQ/advanced-web-scraping-agent/proxy"
)

const remoteTestPage = `<html><head><title>Remote</title></head><body>via provider, padded to look like a real page body with enough bytes</body></html>`

func testProxy(t *testing.T) *proxy.Config {
	t.Helper()
	u, err := url.Parse("http://10.0.0.1:8080")
	if err != nil {
		t.Fatal(err)
	}
	return &proxy.Config{URL: u}
}

func TestScrapingBeeFetch_SendsCredentialsAndParams(t *testing.T) {
	var gotQuery url.Values
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.Query()
		_, _ = w.Write([]byte(remoteTestPage))
	}))
	defer srv.Close()

	bee := NewScrapingBee(config.RemoteConfig{ScrapingBeeKey: "bee-key", ScrapingBeeURL: srv.URL}, nil)
	res, err := bee.Fetch(context.Background(), &FetchRequest{
		URL:           "https://example.com",
		RenderScripts: true,
		Proxy:         testProxy(t),
	})
	if err != nil {
		t.Fatalf("Fetch returned error: %v", err)
	}

	if gotQuery.Get("api_key") != "bee-key" {
		t.Errorf("api_key = %q, want %q", gotQuery.Get("api_key"), "bee-key")
	}
	if gotQuery.Get("url") != "https://example.com" {
		t.Errorf("url = %q, want target", gotQuery.Get("url"))
	}
	if gotQuery.Get("render_js") != "true" {
		t.Errorf("render_js = %q, want %q", gotQuery.Get("render_js"), "true")
	}
	if gotQuery.Get("premium_proxy") != "true" {
		t.Errorf("premium_proxy = %q, want %q", gotQuery.Get("premium_proxy"), "true")
	}
	if res.HTML != remoteTestPage {
		t.Errorf("HTML mismatch: got %q", res.HTML)
	}
	if res.Backend != "scrapingbee" {
		t.Errorf("Backend = %q, want %q", res.Backend, "scrapingbee")
	}
}

func TestScrapingBeeFetch_MissingKeyFailsFast(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("provider should not be called without a key")
	}))
	defer srv.Close()

	bee := NewScrapingBee(config.RemoteConfig{ScrapingBeeURL: srv.URL}, nil)
	_, err := bee.Fetch(context.Background(), &FetchRequest{URL: "https://example.com"})
	if err == nil {
		t.Fatal("expected an error without a key")
	}

	var scrapeErr *models.ScrapeError
	if !errors.As(err, &scrapeErr) || scrapeErr.Code != models.ErrCodeProtocol {
		t.Errorf("expected %s, got %v", models.ErrCodeProtocol, err)
	}
}

func TestScrapingBeeFetch_ProviderError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "monthly quota exceeded", http.StatusInternalServerError)
	}))
	defer srv.Close()

	bee := NewScrapingBee(config.RemoteConfig{ScrapingBeeKey: "k", ScrapingBeeURL: srv.URL}, nil)
	_, err := bee.Fetch(context.Background(), &FetchRequest{URL: "https://example.com"})
	if err == nil {
		t.Fatal("expected an error for provider 500")
	}
	if !strings.Contains(err.Error(), "500") || !strings.Contains(err.Error(), "quota") {
		t.Errorf("error should carry provider status and message, got %v", err)
	}
}

func TestWebScrapingAPIFetch_UsesNumericFlags(t *testing.T) {
	var gotQuery url.Values
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.Query()
		_, _ = w.Write([]byte(remoteTestPage))
	}))
	defer srv.Close()

	wsa := NewWebScrapingAPI(config.RemoteConfig{WebScrapingAPIKey: "wsa-key", WebScrapingAPIURL: srv.URL}, nil)
	res, err := wsa.Fetch(context.Background(), &FetchRequest{URL: "https://example.com", RenderScripts: false})
	if err != nil {
		t.Fatalf("Fetch returned error: %v", err)
	}

	if gotQuery.Get("render_js") != "0" {
		t.Errorf("render_js = %q, want %q", gotQuery.Get("render_js"), "0")
	}
	if gotQuery.Get("premium_proxy") != "0" {
		t.Errorf("premium_proxy = %q, want %q", gotQuery.Get("premium_proxy"), "0")
	}
	if res.Backend != "webscrapingapi" {
		t.Errorf("Backend = %q, want %q", res.Backend, "webscrapingapi")
	}
}

func TestScrapeNinjaFetch_PostsJSON(t *testing.T) {
	var gotKey, gotContentType string
	var gotBody ninjaRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotKey = r.Header.Get("X-API-KEY")
		gotContentType = r.Header.Get("Content-Type")
		if err := json.NewDecoder(r.Body).Decode(&gotBody); err != nil {
			t.Errorf("decode request body: %v", err)
		}
		ok := true
		_ = json.NewEncoder(w).Encode(ninjaResponse{Success: &ok, Body: remoteTestPage})
	}))
	defer srv.Close()

	ninja := NewScrapeNinja(config.RemoteConfig{ScrapeNinjaKey: "ninja-key", ScrapeNinjaURL: srv.URL}, nil)
	res, err := ninja.Fetch(context.Background(), &FetchRequest{URL: "https://example.com", RenderScripts: true})
	if err != nil {
		t.Fatalf("Fetch returned error: %v", err)
	}

	if gotKey != "ninja-key" {
		t.Errorf("X-API-KEY = %q, want %q", gotKey, "ninja-key")
	}
	if gotContentType != "application/json" {
		t.Errorf("Content-Type = %q, want application/json", gotContentType)
	}
	if gotBody.URL != "https://example.com" || !gotBody.Javascript {
		t.Errorf("request body = %+v, want target URL with javascript on", gotBody)
	}
	if res.HTML != remoteTestPage {
		t.Errorf("HTML mismatch: got %q", res.HTML)
	}
	if res.Backend != "scrapeninja" {
		t.Errorf("Backend = %q, want %q", res.Backend, "scrapeninja")
	}
}

func TestScrapeNinjaFetch_ProviderReportsFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		failed := false
		_ = json.NewEncoder(w).Encode(ninjaResponse{Success: &failed, Error: "target blocked the request"})
	}))
	defer srv.Close()

	ninja := NewScrapeNinja(config.RemoteConfig{ScrapeNinjaKey: "k", ScrapeNinjaURL: srv.URL}, nil)
	_, err := ninja.Fetch(context.Background(), &FetchRequest{URL: "https://example.com"})
	if err == nil {
		t.Fatal("expected an error when the provider reports failure")
	}
	if !strings.Contains(err.Error(), "target blocked the request") {
		t.Errorf("error should carry the provider message, got %v", err)
	}
}

func TestScrapeNinjaFetch_EnvelopeWithoutSuccessField(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(ninjaResponse{Body: remoteTestPage})
	}))
	defer srv.Close()

	ninja := NewScrapeNinja(config.RemoteConfig{ScrapeNinjaKey: "k", ScrapeNinjaURL: srv.URL}, nil)
	res, err := ninja.Fetch(context.Background(), &FetchRequest{URL: "https://example.com"})
	if err != nil {
		t.Fatalf("an envelope without success should pass, got %v", err)
	}
	if res.HTML != remoteTestPage {
		t.Errorf("HTML mismatch: got %q", res.HTML)
	}
}

func TestRemoteTier_OrderAndAvailability(t *testing.T) {
	tier := RemoteTier(config.RemoteConfig{ScrapingBeeKey: "only-bee"}, nil)

	wantNames := []string{"scrapingbee", "webscrapingapi", "scrapeninja"}
	if len(tier) != len(wantNames) {
		t.Fatalf("tier size = %d, want %d", len(tier), len(wantNames))
	}
	for i, want := range wantNames {
		if tier[i].Name() != want {
			t.Errorf("tier[%d] = %q, want %q", i, tier[i].Name(), want)
		}
	}

	if !tier[0].Available() {
		t.Error("scrapingbee should be available with a key")
	}
	if tier[1].Available() || tier[2].Available() {
		t.Error("providers without keys should be unavailable")
	}
}
