package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all application configuration.
type Config struct {
	Server    ServerConfig
	Browser   BrowserConfig
	Fetch     FetchConfig
	Remote    RemoteConfig
	Proxy     ProxyConfig
	Auth      AuthConfig
	RateLimit RateLimitConfig
	Cache     CacheConfig
	Log       LogConfig
}

// ServerConfig controls the HTTP server.
type ServerConfig struct {
	Host string // default: "0.0.0.0"
	Port int    // default: 8080
	Mode string // "debug", "release", "test"; default: "release"
}

// BrowserConfig controls the Rod browser instance shared by the headless
// backends.
type BrowserConfig struct {
	// Enabled toggles the headless backends. When false they fail fast
	// and the fallback chain moves on to the remote tier.
	Enabled bool // default: true

	// Headless controls whether the browser runs headless.
	Headless bool // default: true

	// NoSandbox disables Chrome's sandbox (needed in Docker).
	NoSandbox bool // default: false

	// BrowserBin overrides the Chromium binary path.
	BrowserBin string

	// MaxPages caps the number of concurrently open pages.
	MaxPages int // default: 10

	// Proxy is the launch-time proxy URL for the browser process. Rod
	// applies proxies per browser, not per page, so per-request proxy
	// rotation covers the non-browser backends only.
	Proxy string

	// BlockedResourceTypes lists resource types the browser backends skip
	// loading. default: ["Image", "Stylesheet", "Font", "Media"]
	BlockedResourceTypes []string
}

// FetchConfig controls per-backend fetch behavior.
type FetchConfig struct {
	// StaticTimeout is the deadline for the static and remote-API
	// backends.
	StaticTimeout time.Duration // default: 30s

	// RenderTimeout is the deadline for the browser and crawl backends.
	RenderTimeout time.Duration // default: 60s

	// SettleDelay is the extra wait after load on the full browser
	// backend, giving late scripts time to populate the page.
	SettleDelay time.Duration // default: 5s

	// AnalyzeTimeout is the deadline for the analyzer's sample fetch.
	AnalyzeTimeout time.Duration // default: 10s
}

// RemoteConfig holds credentials and endpoints for the hosted scraping
// APIs. A backend without a key is reported unavailable and fails fast
// when attempted.
type RemoteConfig struct {
	ScrapingBeeKey string
	ScrapingBeeURL string // default: "https://app.scrapingbee.com/api/v1/"

	WebScrapingAPIKey string
	WebScrapingAPIURL string // default: "https://api.webscrapingapi.com/v1"

	ScrapeNinjaKey string
	ScrapeNinjaURL string // default: "https://api.scrapeninja.net/scrape"
}

// ProxyConfig controls the rotating proxy pool used when a request sets
// use_proxy.
type ProxyConfig struct {
	// List is the pool of proxy addresses ("host:port" or full URLs).
	List []string

	// Username and Password apply to every proxy in the pool.
	Username string
	Password string
}

// AuthConfig controls API key authentication.
type AuthConfig struct {
	// Enabled toggles API key authentication.
	Enabled bool // default: false

	// APIKeys is the list of valid API keys.
	APIKeys []string
}

// RateLimitConfig controls per-key rate limiting.
type RateLimitConfig struct {
	// RequestsPerSecond is the sustained rate per API key.
	RequestsPerSecond float64 // default: 5

	// Burst is the maximum burst size per API key.
	Burst int // default: 10
}

// CacheConfig controls the scrape response cache.
type CacheConfig struct {
	// MaxEntries is the maximum number of cached responses.
	MaxEntries int // default: 1000
}

// LogConfig controls structured logging.
type LogConfig struct {
	Level  string // default: "info"
	Format string // "json" or "text"; default: "json"
}

// Load reads configuration from environment variables with sane defaults.
func Load() *Config {
	return &Config{
		Server: ServerConfig{
			Host: envOr("SCRAPER_HOST", "0.0.0.0"),
			Port: envIntOr("SCRAPER_PORT", 8080),
			Mode: envOr("SCRAPER_MODE", "release"),
		},
		Browser: BrowserConfig{
			Enabled:    envBoolOr("SCRAPER_BROWSER_ENABLED", true),
			Headless:   envBoolOr("SCRAPER_HEADLESS", true),
			NoSandbox:  envBoolOr("SCRAPER_NO_SANDBOX", false),
			BrowserBin: os.Getenv("SCRAPER_BROWSER_BIN"),
			MaxPages:   envIntOr("SCRAPER_MAX_PAGES", 10),
			Proxy:      os.Getenv("SCRAPER_BROWSER_PROXY"),
			BlockedResourceTypes: envSliceOr("SCRAPER_BLOCKED_RESOURCES", []string{
				"Image", "Stylesheet", "Font", "Media",
			}),
		},
		Fetch: FetchConfig{
			StaticTimeout:  envDurationOr("SCRAPER_STATIC_TIMEOUT", 30*time.Second),
			RenderTimeout:  envDurationOr("SCRAPER_RENDER_TIMEOUT", 60*time.Second),
			SettleDelay:    envDurationOr("SCRAPER_SETTLE_DELAY", 5*time.Second),
			AnalyzeTimeout: envDurationOr("SCRAPER_ANALYZE_TIMEOUT", 10*time.Second),
		},
		Remote: RemoteConfig{
			ScrapingBeeKey:    os.Getenv("SCRAPINGBEE_API_KEY"),
			ScrapingBeeURL:    envOr("SCRAPER_SCRAPINGBEE_URL", "https://app.scrapingbee.com/api/v1/"),
			WebScrapingAPIKey: os.Getenv("WEBSCRAPINGAPI_API_KEY"),
			WebScrapingAPIURL: envOr("SCRAPER_WEBSCRAPINGAPI_URL", "https://api.webscrapingapi.com/v1"),
			ScrapeNinjaKey:    os.Getenv("SCRAPENINJA_API_KEY"),
			ScrapeNinjaURL:    envOr("SCRAPER_SCRAPENINJA_URL", "https://api.scrapeninja.net/scrape"),
		},
		Proxy: ProxyConfig{
			List:     envSliceOr("SCRAPER_PROXY_LIST", nil),
			Username: os.Getenv("SCRAPER_PROXY_USERNAME"),
			Password: os.Getenv("SCRAPER_PROXY_PASSWORD"),
		},
		Auth: AuthConfig{
			Enabled: envBoolOr("SCRAPER_AUTH_ENABLED", false),
			APIKeys: envSliceOr("SCRAPER_API_KEYS", nil),
		},
		RateLimit: RateLimitConfig{
			RequestsPerSecond: envFloatOr("SCRAPER_RATE_RPS", 5.0),
			Burst:             envIntOr("SCRAPER_RATE_BURST", 10),
		},
		Cache: CacheConfig{
			MaxEntries: envIntOr("SCRAPER_CACHE_ENTRIES", 1000),
		},
		Log: LogConfig{
			Level:  envOr("SCRAPER_LOG_LEVEL", "info"),
			Format: envOr("SCRAPER_LOG_FORMAT", "json"),
		},
	}
}

// Validate rejects configurations the server cannot start with.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid port: %d", c.Server.Port)
	}
	if c.RateLimit.RequestsPerSecond <= 0 {
		return fmt.Errorf("rate limit rps must be positive, got %v", c.RateLimit.RequestsPerSecond)
	}
	if c.Auth.Enabled && len(c.Auth.APIKeys) == 0 {
		return fmt.Errorf("auth enabled but no API keys configured")
	}
	return nil
}

// --- helper functions ---

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envIntOr(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}

func envBoolOr(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func envFloatOr(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}

func envDurationOr(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}

func envSliceOr(key string, fallback []string) []string {
	if v := os.Getenv(key); v != "" {
		parts := strings.Split(v, ",")
		result := make([]string, 0, len(parts))
		for _, p := range parts {
			if trimmed := strings.TrimSpace(p); trimmed != "" {
				result = append(result, trimmed)
			}
		}
		return result
	}
	return fallback
}
