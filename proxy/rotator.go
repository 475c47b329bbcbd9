// Package proxy supplies proxy endpoints for backends that support
// per-request proxying. The pool is static, loaded from configuration;
// selection is random per request.
package proxy

import (
	"log/slog"
	"math/rand"
	"net/url"
	"strings"

	"github.com/MAYANK12-WQ/advanced-web-scraping-agent/config"
)

// Config is one proxy endpoint handed to a backend. The URL carries
// credentials when the pool has them configured.
type Config struct {
	URL *url.URL
}

// String renders the proxy in the form transports and launchers accept.
func (c *Config) String() string {
	if c == nil || c.URL == nil {
		return ""
	}
	return c.URL.String()
}

// Rotator picks a proxy from a fixed pool. A nil or empty Rotator always
// returns nil from Next, which backends interpret as a direct connection.
type Rotator struct {
	pool []*url.URL
	log  *slog.Logger
}

// New builds a Rotator from configuration. Entries may be bare
// "host:port" pairs or full URLs; bare entries get an http scheme, and
// the shared username/password (when set) is attached to every entry.
// Malformed entries are logged and skipped.
func New(cfg config.ProxyConfig, logger *slog.Logger) *Rotator {
	if logger == nil {
		logger = slog.Default()
	}
	r := &Rotator{log: logger}
	for _, raw := range cfg.List {
		entry := raw
		if !strings.Contains(entry, "://") {
			entry = "http://" + entry
		}
		u, err := url.Parse(entry)
		if err != nil || u.Host == "" {
			logger.Warn("skipping malformed proxy entry", "entry", raw, "error", err)
			continue
		}
		if cfg.Username != "" && cfg.Password != "" && u.User == nil {
			u.User = url.UserPassword(cfg.Username, cfg.Password)
		}
		r.pool = append(r.pool, u)
	}
	if len(r.pool) > 0 {
		logger.Info("proxy pool loaded", "size", len(r.pool))
	}
	return r
}

// Next returns a random proxy from the pool, or nil when the pool is
// empty. The returned Config is read-only shared state; callers must not
// mutate the URL.
func (r *Rotator) Next() *Config {
	if r == nil || len(r.pool) == 0 {
		return nil
	}
	u := r.pool[rand.Intn(len(r.pool))]
	return &Config{URL: u}
}

// Size reports the number of usable entries in the pool.
func (r *Rotator) Size() int {
	if r == nil {
		return 0
	}
	return len(r.pool)
}
