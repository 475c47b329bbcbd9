package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/MAYANK12-WQ/advanced-web-scraping-agent/cache"
	"github.com/MAYANK12-WQ/advanced-web-scraping-agent/models"
)

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	os.Exit(m.Run())
}

type fakeOrch struct {
	result      *models.ScrapeResult
	scrapeErr   error
	analysis    *models.AnalyzeResponse
	analyzeErr  error
	scrapeCalls int
}

func (f *fakeOrch) Scrape(ctx context.Context, req *models.ScrapeRequest) (*models.ScrapeResult, error) {
	f.scrapeCalls++
	if f.scrapeErr != nil {
		return nil, f.scrapeErr
	}
	return f.result, nil
}

func (f *fakeOrch) Analyze(ctx context.Context, req *models.AnalyzeRequest) (*models.AnalyzeResponse, error) {
	if f.analyzeErr != nil {
		return nil, f.analyzeErr
	}
	return f.analysis, nil
}

func scrapedResult() *models.ScrapeResult {
	return &models.ScrapeResult{
		Facts: models.Facts{Emails: []string{"team@example.com"}},
		Metadata: models.Metadata{
			URL:       "https://example.com",
			ScrapedAt: time.Now().UTC(),
			Backend:   "static",
		},
	}
}

func performJSON(r http.Handler, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) *models.ErrorDetail {
	t.Helper()
	var resp models.ErrorResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal error body: %v", err)
	}
	if resp.Error == nil {
		t.Fatalf("error body missing error field: %s", w.Body.String())
	}
	return resp.Error
}

func TestScrape_Success(t *testing.T) {
	fake := &fakeOrch{result: scrapedResult()}
	r := gin.New()
	r.POST("/scrape", Scrape(fake, nil))

	w := performJSON(r, http.MethodPost, "/scrape",
		`{"url":"https://example.com","fact_types":["emails"]}`)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200; body: %s", w.Code, w.Body.String())
	}

	var result models.ScrapeResult
	if err := json.Unmarshal(w.Body.Bytes(), &result); err != nil {
		t.Fatalf("unmarshal response: %v", err)
	}
	if result.Metadata.Backend != "static" {
		t.Errorf("backend = %q, want %q", result.Metadata.Backend, "static")
	}
	if len(result.Facts.Emails) != 1 || result.Facts.Emails[0] != "team@example.com" {
		t.Errorf("emails = %v, want [team@example.com]", result.Facts.Emails)
	}
	if result.CacheStatus != "" {
		t.Errorf("cache status = %q, want empty without max_age", result.CacheStatus)
	}
}

func TestScrape_MalformedJSON(t *testing.T) {
	fake := &fakeOrch{result: scrapedResult()}
	r := gin.New()
	r.POST("/scrape", Scrape(fake, nil))

	w := performJSON(r, http.MethodPost, "/scrape", `{"url": not json`)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", w.Code)
	}
	if code := decodeError(t, w).Code; code != models.ErrCodeInvalidInput {
		t.Errorf("error code = %q, want %q", code, models.ErrCodeInvalidInput)
	}
	if fake.scrapeCalls != 0 {
		t.Errorf("orchestrator called %d times for malformed JSON, want 0", fake.scrapeCalls)
	}
}

func TestScrape_ValidationErrorMapsTo400(t *testing.T) {
	fake := &fakeOrch{
		scrapeErr: models.NewScrapeError(models.ErrCodeInvalidInput, "url must start with http:// or https://", nil),
	}
	r := gin.New()
	r.POST("/scrape", Scrape(fake, nil))

	w := performJSON(r, http.MethodPost, "/scrape",
		`{"url":"ftp://example.com","fact_types":["emails"]}`)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", w.Code)
	}
	if code := decodeError(t, w).Code; code != models.ErrCodeInvalidInput {
		t.Errorf("error code = %q, want %q", code, models.ErrCodeInvalidInput)
	}
}

func TestScrape_AggregateFailureMapsTo502(t *testing.T) {
	fake := &fakeOrch{
		scrapeErr: &models.AggregateFailure{
			URL: "https://example.com",
			Attempts: []models.AttemptFailure{
				{Backend: "static", Err: models.NewScrapeError(models.ErrCodeTimeout, "deadline exceeded", nil)},
				{Backend: "scrapingbee", Err: models.NewScrapeError(models.ErrCodeProtocol, "status 500", nil)},
			},
		},
	}
	r := gin.New()
	r.POST("/scrape", Scrape(fake, nil))

	w := performJSON(r, http.MethodPost, "/scrape",
		`{"url":"https://example.com","fact_types":["emails"]}`)

	if w.Code != http.StatusBadGateway {
		t.Fatalf("status = %d, want 502", w.Code)
	}

	detail := decodeError(t, w)
	if detail.Code != models.ErrCodeAllFailed {
		t.Errorf("error code = %q, want %q", detail.Code, models.ErrCodeAllFailed)
	}
	if len(detail.Attempts) != 2 {
		t.Fatalf("attempts = %d, want 2", len(detail.Attempts))
	}
	if detail.Attempts[0].Backend != "static" || detail.Attempts[1].Backend != "scrapingbee" {
		t.Errorf("attempt order = [%s, %s], want [static, scrapingbee]",
			detail.Attempts[0].Backend, detail.Attempts[1].Backend)
	}
}

func TestScrape_CacheHitSkipsOrchestrator(t *testing.T) {
	cc := cache.New(10)
	fake := &fakeOrch{result: scrapedResult()}
	r := gin.New()
	r.POST("/scrape", Scrape(fake, cc))

	body := `{"url":"https://example.com","fact_types":["emails"],"max_age":60000}`

	w1 := performJSON(r, http.MethodPost, "/scrape", body)
	if w1.Code != http.StatusOK {
		t.Fatalf("first request status = %d, want 200", w1.Code)
	}
	var first models.ScrapeResult
	if err := json.Unmarshal(w1.Body.Bytes(), &first); err != nil {
		t.Fatalf("unmarshal first response: %v", err)
	}
	if first.CacheStatus != "miss" {
		t.Errorf("first cache status = %q, want %q", first.CacheStatus, "miss")
	}

	w2 := performJSON(r, http.MethodPost, "/scrape", body)
	if w2.Code != http.StatusOK {
		t.Fatalf("second request status = %d, want 200", w2.Code)
	}
	var second models.ScrapeResult
	if err := json.Unmarshal(w2.Body.Bytes(), &second); err != nil {
		t.Fatalf("unmarshal second response: %v", err)
	}
	if second.CacheStatus != "hit" {
		t.Errorf("second cache status = %q, want %q", second.CacheStatus, "hit")
	}

	if fake.scrapeCalls != 1 {
		t.Errorf("orchestrator calls = %d, want 1 (second request should hit cache)", fake.scrapeCalls)
	}
}

func TestScrape_NoCachingWithoutMaxAge(t *testing.T) {
	cc := cache.New(10)
	fake := &fakeOrch{result: scrapedResult()}
	r := gin.New()
	r.POST("/scrape", Scrape(fake, cc))

	body := `{"url":"https://example.com","fact_types":["emails"]}`
	performJSON(r, http.MethodPost, "/scrape", body)
	performJSON(r, http.MethodPost, "/scrape", body)

	if fake.scrapeCalls != 2 {
		t.Errorf("orchestrator calls = %d, want 2 when max_age is absent", fake.scrapeCalls)
	}
}

func TestAnalyze_Success(t *testing.T) {
	fake := &fakeOrch{
		analysis: &models.AnalyzeResponse{
			URL:             "https://example.com",
			Characteristics: models.SiteCharacteristics{IsDynamic: true},
			Backend:         models.ClassBrowserLight,
		},
	}
	r := gin.New()
	r.POST("/analyze", Analyze(fake))

	w := performJSON(r, http.MethodPost, "/analyze", `{"url":"https://example.com"}`)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200; body: %s", w.Code, w.Body.String())
	}

	var resp models.AnalyzeResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal response: %v", err)
	}
	if resp.Backend != models.ClassBrowserLight {
		t.Errorf("backend = %q, want %q", resp.Backend, models.ClassBrowserLight)
	}
	if !resp.Characteristics.IsDynamic {
		t.Error("characteristics should report dynamic")
	}
}

func TestAnalyze_ValidationErrorMapsTo400(t *testing.T) {
	fake := &fakeOrch{
		analyzeErr: models.NewScrapeError(models.ErrCodeInvalidInput, "url must start with http:// or https://", nil),
	}
	r := gin.New()
	r.POST("/analyze", Analyze(fake))

	w := performJSON(r, http.MethodPost, "/analyze", `{"url":"ftp://example.com"}`)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", w.Code)
	}
}

func TestHealth_Healthy(t *testing.T) {
	backends := models.BackendsHealth{
		Browser:    true,
		RemoteAPIs: []string{"scrapingbee"},
		Proxies:    2,
	}
	r := gin.New()
	r.GET("/health", Health(backends, time.Now().Add(-90*time.Second)))

	w := performJSON(r, http.MethodGet, "/health", "")

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}

	var resp models.HealthResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal response: %v", err)
	}
	if resp.Status != "healthy" {
		t.Errorf("status = %q, want %q", resp.Status, "healthy")
	}
	if !resp.Backends.Browser || resp.Backends.Proxies != 2 {
		t.Errorf("backends = %+v, want browser=true proxies=2", resp.Backends)
	}
	if resp.Uptime == "" {
		t.Error("uptime should be populated")
	}
}

func TestHealth_DegradedWithoutRenderPaths(t *testing.T) {
	backends := models.BackendsHealth{Browser: false, RemoteAPIs: nil}
	r := gin.New()
	r.GET("/health", Health(backends, time.Now()))

	w := performJSON(r, http.MethodGet, "/health", "")

	var resp models.HealthResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal response: %v", err)
	}
	if resp.Status != "degraded" {
		t.Errorf("status = %q, want %q", resp.Status, "degraded")
	}
}
