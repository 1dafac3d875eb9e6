package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/nftwatch/mewatch/internal/alerts"
	"github.com/nftwatch/mewatch/internal/config"
	"github.com/nftwatch/mewatch/internal/feed"
	"github.com/nftwatch/mewatch/internal/ledger"
	"github.com/nftwatch/mewatch/internal/notify"
	"github.com/nftwatch/mewatch/internal/observability"
	"github.com/nftwatch/mewatch/internal/poller"
	"github.com/nftwatch/mewatch/internal/seencache"
	"github.com/nftwatch/mewatch/internal/store/postgres"
	"github.com/nftwatch/mewatch/internal/version"
	"github.com/nftwatch/mewatch/internal/watchlist"
	"github.com/nftwatch/mewatch/internal/watermark"
)

func main() {
	configPath := flag.String("config", "configs/watcher.local.yaml", "path to config file")
	flag.Parse()

	// Populate the environment before config expansion; missing .env is fine.
	godotenv.Load()

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	logger.Info("starting watcher",
		"version", version.Version,
		"commit", version.Commit,
		"config", *configPath,
	)

	cfg, err := config.LoadAndValidate(*configPath)
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logger.Info("received shutdown signal", "signal", sig)
		cancel()
	}()

	logger.Info("connecting to state store",
		"host", cfg.Database.Host,
		"port", cfg.Database.Port,
		"database", cfg.Database.Name,
	)

	kv, err := postgres.Connect(ctx, cfg.Database)
	if err != nil {
		logger.Error("failed to connect to state store", "error", err)
		os.Exit(1)
	}
	defer kv.Close()

	client := feed.NewClient(
		cfg.Feed.BaseURL,
		cfg.Feed.APIKey,
		feed.WithLogger(logger),
		feed.WithTimeout(cfg.Feed.Timeout),
		feed.WithRetries(cfg.Feed.MaxRetries, time.Second),
		feed.WithActivityLimit(cfg.Feed.ActivityLimit),
	)

	marks := watermark.New(kv)
	book := ledger.New(kv, cfg.Ledger.Cooldown)
	seen := seencache.NewStore(kv)
	registry := watchlist.NewRegistry(kv, marks, book, seen)
	alertMgr := alerts.NewManager(kv)
	matcher := alerts.NewMatcher(alertMgr, client, logger)
	metrics := observability.NewMetrics("mewatch")

	var sink notify.Sink
	if cfg.Notify.WebhookURL != "" {
		sink = notify.NewDiscordSink(cfg.Notify.WebhookURL, notify.WithLogger(logger))
	} else {
		logger.Warn("no webhook configured, events will be logged only")
		sink = notify.NewLogSink(logger)
	}

	driver := poller.New(
		poller.Config{
			Interval:       cfg.Poller.Interval,
			FetchTimeout:   cfg.Poller.FetchTimeout,
			RecordPause:    cfg.Poller.RecordPause,
			PublishTimeout: cfg.Poller.PublishTimeout,
			Mode:           cfg.Poller.Mode,
			SeenCap:        cfg.SeenCache.Cap,
			SeenTTL:        cfg.SeenCache.TTL,
		},
		client, registry, marks, book, seen, matcher, sink, metrics, logger,
	)

	mux := http.NewServeMux()
	mux.Handle("/healthz", observability.HealthHandler(kv, driver.LastCycle))
	mux.Handle(cfg.Metrics.Path, promhttp.Handler())

	httpServer := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Metrics.Port),
		Handler: mux,
	}
	go func() {
		logger.Info("starting health server", "port", cfg.Metrics.Port)
		if err := httpServer.ListenAndServe(); err != http.ErrServerClosed {
			logger.Error("health server error", "error", err)
		}
	}()

	if err := driver.Start(ctx); err != nil {
		logger.Error("failed to start driver", "error", err)
		os.Exit(1)
	}

	logger.Info("watcher running",
		"interval", cfg.Poller.Interval,
		"mode", cfg.Poller.Mode,
		"health_url", fmt.Sprintf("http://localhost:%d/healthz", cfg.Metrics.Port),
	)

	<-ctx.Done()

	logger.Info("shutting down...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := driver.Stop(shutdownCtx); err != nil {
		logger.Warn("driver stop timed out", "error", err)
	}
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Warn("health server shutdown error", "error", err)
	}

	logger.Info("watcher stopped")
}
