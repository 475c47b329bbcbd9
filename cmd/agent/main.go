package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/MAYANK12-WQ/advanced-web-scraping-agent/agent"
	"github.com/MAYANK12-WQ/advanced-web-scraping-agent/analyzer"
	"github.com/MAYANK12-WQ/advanced-web-scraping-agent/api"
	"github.com/MAYANK12-WQ/advanced-web-scraping-agent/backend"
	"github.com/MAYANK12-WQ/advanced-web-scraping-agent/cache"
	"github.com/MAYANK12-WQ/advanced-web-scraping-agent/config"
	"github.com/MAYANK12-WQ/advanced-web-scraping-agent/content"
	"github.com/MAYANK12-WQ/advanced-web-scraping-agent/models"
	"github.com/MAYANK12-WQ/advanced-web-scraping-agent/proxy"
)

func main() {
	// ── 1. Load configuration ───────────────────────────────────────
	cfg := config.Load()

	// ── 2. Initialise structured logging ────────────────────────────
	initLogger(cfg.Log)
	if err := cfg.Validate(); err != nil {
		slog.Error("invalid configuration", "error", err)
		os.Exit(1)
	}
	slog.Info("scraping agent starting",
		"host", cfg.Server.Host,
		"port", cfg.Server.Port,
		"mode", cfg.Server.Mode,
		"browser", cfg.Browser.Enabled,
	)

	// ── 3. Shared infrastructure ────────────────────────────────────
	rotator := proxy.New(cfg.Proxy, slog.Default())
	siteAnalyzer := analyzer.New(cfg.Fetch.AnalyzeTimeout, slog.Default())
	distiller := content.NewDistiller(slog.Default())

	// ── 4. Backends (launches the browser when enabled) ─────────────
	browser, err := backend.NewBrowser(cfg.Browser, cfg.Fetch.SettleDelay, slog.Default())
	if err != nil {
		slog.Error("failed to launch browser", "error", err)
		os.Exit(1)
	}
	defer browser.Close()

	remotes := backend.RemoteTier(cfg.Remote, slog.Default())
	remoteFetchers := make([]backend.Fetcher, len(remotes))
	var remoteNames []string
	for i, r := range remotes {
		remoteFetchers[i] = r
		if r.Available() {
			remoteNames = append(remoteNames, r.Name())
		}
	}

	// ── 5. Orchestrator ─────────────────────────────────────────────
	ag := agent.New(agent.Options{
		Analyzer:     siteAnalyzer,
		Static:       backend.NewStatic(slog.Default()),
		BrowserFull:  browser.Full(),
		BrowserLight: browser.Light(),
		Crawl:        backend.NewCrawl(slog.Default()),
		Remotes:      remoteFetchers,
		Rotator:      rotator,
		Distiller:    distiller,
		Fetch:        cfg.Fetch,
		Logger:       slog.Default(),
	})

	// ── 6. Cache + router ───────────────────────────────────────────
	cc := cache.New(cfg.Cache.MaxEntries)
	backends := models.BackendsHealth{
		Browser:    browser.Enabled(),
		RemoteAPIs: remoteNames,
		Proxies:    rotator.Size(),
	}
	startTime := time.Now()
	router := api.NewRouter(ag, cc, backends, cfg, startTime)

	// ── 7. Start HTTP server ────────────────────────────────────────
	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:    addr,
		Handler: router,
	}

	go func() {
		slog.Info("HTTP server listening", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("HTTP server error", "error", err)
			os.Exit(1)
		}
	}()

	// ── 8. Graceful shutdown ────────────────────────────────────────
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit
	slog.Info("shutdown signal received", "signal", sig.String())

	// Give in-flight requests 5 seconds to complete.
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		slog.Error("HTTP server forced shutdown", "error", err)
	} else {
		slog.Info("HTTP server drained gracefully")
	}

	// browser.Close() runs via defer; it drains the page pool and kills Chrome.
	slog.Info("scraping agent stopped")
}

// initLogger configures slog based on the LogConfig.
func initLogger(cfg config.LogConfig) {
	var level slog.Level
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}

	var handler slog.Handler
	if cfg.Format == "text" {
		handler = slog.NewTextHandler(os.Stdout, opts)
	} else {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	}

	slog.SetDefault(slog.New(handler))
}
