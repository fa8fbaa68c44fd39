// cmd/trendsd serves the dataset API and stream, and refreshes the
// provider-backed datasets on a cron schedule.
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"trendsv1/config"
	"trendsv1/internal/api"
	"trendsv1/internal/dataset"
	"trendsv1/internal/gateway"
	"trendsv1/internal/logger"
	"trendsv1/internal/metrics"
	"trendsv1/internal/notification"
	"trendsv1/internal/provider"
	"trendsv1/internal/scheduler"
	redisstore "trendsv1/internal/store/redis"
	sqlitestore "trendsv1/internal/store/sqlite"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("config", "error", err)
		os.Exit(1)
	}
	logger.Init("trendsd", logger.ParseLevel(cfg.LogLevel))
	slog.Info("trendsd: starting", "http", cfg.HTTPAddr, "metrics", cfg.MetricsAddr)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// ---- Metrics & health ----
	prom := metrics.NewMetrics(nil)
	health := metrics.NewHealthStatus()
	metricsSrv := metrics.NewServer(cfg.MetricsAddr, health)
	metricsSrv.Start()

	// ---- Historical store ----
	if dir := filepath.Dir(cfg.SQLitePath); dir != "" {
		os.MkdirAll(dir, 0o755)
	}
	store, err := sqlitestore.New(sqlitestore.Config{DBPath: cfg.SQLitePath})
	if err != nil {
		slog.Error("trendsd: sqlite init failed", "path", cfg.SQLitePath, "error", err)
		os.Exit(1)
	}
	defer store.Close()
	health.SetSQLiteOK(true)

	// ---- Response cache ----
	health.SetRedisEnabled(cfg.RedisAddr != "")
	cache, err := redisstore.New(redisstore.Config{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
		TTL:      cfg.CacheTTL,
	})
	if err != nil {
		slog.Warn("trendsd: redis unavailable, continuing with in-process cache", "error", err)
		cache, _ = redisstore.New(redisstore.Config{TTL: cfg.CacheTTL})
	}
	defer cache.Close()
	cache.OnFallback = prom.IncCacheFallback
	cache.Breaker().OnStateChange = func(_, to redisstore.State) {
		prom.SetBreakerState(int(to), to == redisstore.StateOpen)
	}
	health.StartLivenessChecker(ctx, cache.Client(), store.DB(), 10*time.Second)

	// ---- Providers & catalog ----
	binanceLimit := provider.NewRateLimiter(cfg.RateLimit)
	catalog := dataset.NewCatalog(dataset.Deps{
		Store: store,
		Fetchers: dataset.Fetchers{
			BTC:     provider.NewBinance(cfg.BinanceBaseURL, "BTCUSDT", binanceLimit),
			ETH:     provider.NewBinance(cfg.BinanceBaseURL, "ETHUSDT", binanceLimit),
			Gold:    provider.NewCoinGecko(cfg.CoinGeckoBaseURL, cfg.GoldCoinID, "usd", provider.NewRateLimiter(cfg.RateLimit)),
			DVOLBTC: provider.NewDeribit(cfg.DeribitBaseURL, "BTC", provider.NewRateLimiter(cfg.RateLimit)),
		},
		Settings: cfg.Settings(),
		Metrics:  prom,
	})
	svc := dataset.NewService(catalog)

	// ---- Stream hub ----
	hub := gateway.NewHub(cache.Client(), prom)
	go hub.Run(ctx)

	// ---- Refresh schedule ----
	refresher := scheduler.New(ctx, catalog, hub, health, prom)
	alerts := notification.Multi{notification.LogNotifier{}}
	if cfg.AlertWebhookURL != "" {
		alerts = append(alerts, notification.NewWebhookNotifier(cfg.AlertWebhookURL))
	}
	refresher.Alerts = alerts
	if err := refresher.Register(cfg.RefreshCron); err != nil {
		slog.Error("trendsd: scheduler", "error", err)
		os.Exit(1)
	}
	refresher.Start()
	go refresher.RunNow()

	// ---- HTTP ----
	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           api.NewRouter(api.Deps{Service: svc, Cache: cache, Metrics: prom, Hub: hub}),
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("trendsd: http server", "error", err)
			cancel()
		}
	}()
	slog.Info("trendsd: ready", "datasets", len(dataset.All))

	// ---- Wait for shutdown signal ----
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-sigCh:
	case <-ctx.Done():
	}
	slog.Info("trendsd: shutting down")

	cancel()
	refresher.Stop()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Warn("trendsd: http shutdown", "error", err)
	}
	metricsSrv.Stop(shutdownCtx)
	slog.Info("trendsd: stopped")
}
