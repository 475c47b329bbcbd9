package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/MAYANK12-WQ/advanced-web-scraping-agent/config"
	"github.com/MAYANK12-WQ/advanced-web-scraping-agent/models"
)

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	os.Exit(m.Run())
}

func okHandler(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

func perform(r http.Handler, headers map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func errorCode(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	var resp models.ErrorResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal error body: %v", err)
	}
	if resp.Error == nil {
		t.Fatalf("error body missing error field: %s", w.Body.String())
	}
	return resp.Error.Code
}

func TestAuth_OpenAccessWithoutKeys(t *testing.T) {
	r := gin.New()
	r.Use(Auth(nil))
	r.GET("/", okHandler)

	if w := perform(r, nil); w.Code != http.StatusOK {
		t.Errorf("status = %d, want 200 with no keys configured", w.Code)
	}
}

func TestAuth_MissingKey(t *testing.T) {
	r := gin.New()
	r.Use(Auth([]string{"secret"}))
	r.GET("/", okHandler)

	w := perform(r, nil)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", w.Code)
	}
	if code := errorCode(t, w); code != models.ErrCodeUnauthorized {
		t.Errorf("error code = %q, want %q", code, models.ErrCodeUnauthorized)
	}
}

func TestAuth_InvalidKey(t *testing.T) {
	r := gin.New()
	r.Use(Auth([]string{"secret"}))
	r.GET("/", okHandler)

	w := perform(r, map[string]string{"X-API-Key": "wrong"})
	if w.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", w.Code)
	}
}

func TestAuth_AcceptsHeaderStyles(t *testing.T) {
	tests := []struct {
		name    string
		headers map[string]string
	}{
		{name: "x-api-key", headers: map[string]string{"X-API-Key": "secret"}},
		{name: "bearer", headers: map[string]string{"Authorization": "Bearer secret"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := gin.New()
			r.Use(Auth([]string{"secret"}))
			r.GET("/", okHandler)

			if w := perform(r, tt.headers); w.Code != http.StatusOK {
				t.Errorf("status = %d, want 200", w.Code)
			}
		})
	}
}

func TestRateLimit_BlocksBeyondBurst(t *testing.T) {
	r := gin.New()
	r.Use(RateLimit(config.RateLimitConfig{RequestsPerSecond: 0.001, Burst: 2}))
	r.GET("/", okHandler)

	for i := 0; i < 2; i++ {
		if w := perform(r, nil); w.Code != http.StatusOK {
			t.Fatalf("request %d status = %d, want 200", i+1, w.Code)
		}
	}

	w := perform(r, nil)
	if w.Code != http.StatusTooManyRequests {
		t.Fatalf("status = %d, want 429 after burst", w.Code)
	}
	if code := errorCode(t, w); code != models.ErrCodeRateLimited {
		t.Errorf("error code = %q, want %q", code, models.ErrCodeRateLimited)
	}
}

func TestRateLimit_SeparateBucketsPerKey(t *testing.T) {
	r := gin.New()
	// Simulate the auth middleware having stored the caller's key.
	r.Use(func(c *gin.Context) {
		if key := c.GetHeader("X-API-Key"); key != "" {
			c.Set("api_key", key)
		}
	})
	r.Use(RateLimit(config.RateLimitConfig{RequestsPerSecond: 0.001, Burst: 1}))
	r.GET("/", okHandler)

	if w := perform(r, map[string]string{"X-API-Key": "alice"}); w.Code != http.StatusOK {
		t.Fatalf("first key status = %d, want 200", w.Code)
	}
	if w := perform(r, map[string]string{"X-API-Key": "alice"}); w.Code != http.StatusTooManyRequests {
		t.Errorf("first key second request = %d, want 429", w.Code)
	}
	if w := perform(r, map[string]string{"X-API-Key": "bob"}); w.Code != http.StatusOK {
		t.Errorf("second key status = %d, want 200 (own bucket)", w.Code)
	}
}
