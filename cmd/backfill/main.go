// cmd/backfill fetches the full history of provider-backed datasets into the
// SQLite store, so the server starts with a complete series.
//
// Usage:
//
//	go run ./cmd/backfill --datasets=btc,eth --days=max
//	go run ./cmd/backfill --list
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"trendsv1/config"
	"trendsv1/internal/dataset"
	"trendsv1/internal/logger"
	"trendsv1/internal/model"
	"trendsv1/internal/provider"
	sqlitestore "trendsv1/internal/store/sqlite"
)

func main() {
	ids := flag.String("datasets", "btc,eth,gold,dvol_btc", "Comma-separated provider-backed datasets")
	daysFlag := flag.String("days", "max", `Lookback: "max" or a number of days`)
	list := flag.Bool("list", false, "List stored datasets and exit")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "config:", err)
		os.Exit(1)
	}
	logger.Init("backfill", logger.ParseLevel(cfg.LogLevel))

	days, err := model.ParseDays(*daysFlag)
	if err != nil {
		slog.Error("backfill: --days", "error", err)
		os.Exit(2)
	}
	var targets []dataset.ID
	for _, raw := range strings.Split(*ids, ",") {
		if strings.TrimSpace(raw) == "" {
			continue
		}
		id, err := dataset.ParseID(raw)
		if err != nil {
			slog.Error("backfill: --datasets", "error", err)
			os.Exit(2)
		}
		targets = append(targets, id)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if dir := filepath.Dir(cfg.SQLitePath); dir != "" {
		os.MkdirAll(dir, 0o755)
	}
	store, err := sqlitestore.New(sqlitestore.Config{DBPath: cfg.SQLitePath})
	if err != nil {
		slog.Error("backfill: sqlite init failed", "error", err)
		os.Exit(1)
	}
	defer store.Close()

	if *list {
		if err := listStored(ctx, store); err != nil {
			slog.Error("backfill: list", "error", err)
			os.Exit(1)
		}
		return
	}

	limiter := provider.NewRateLimiter(cfg.RateLimit)
	catalog := dataset.NewCatalog(dataset.Deps{
		Store: store,
		Fetchers: dataset.Fetchers{
			BTC:     provider.NewBinance(cfg.BinanceBaseURL, "BTCUSDT", limiter),
			ETH:     provider.NewBinance(cfg.BinanceBaseURL, "ETHUSDT", limiter),
			Gold:    provider.NewCoinGecko(cfg.CoinGeckoBaseURL, cfg.GoldCoinID, "usd", limiter),
			DVOLBTC: provider.NewDeribit(cfg.DeribitBaseURL, "BTC", limiter),
		},
		Settings: cfg.Settings(),
	})

	failed := 0
	for _, id := range targets {
		src := catalog.Source(id)
		if src == nil {
			slog.Warn("backfill: not a provider-backed dataset, skipping", "dataset", id.String())
			continue
		}
		start := time.Now()
		series := src.Backfill(ctx, days)
		if series.Empty() {
			failed++
			slog.Error("backfill: no data", "dataset", id.String())
			continue
		}
		slog.Info("backfill: stored",
			"dataset", id.String(),
			"points", series.Len(),
			"from", series.Points[0].Time().Format(time.DateOnly),
			"to", series.Points[series.Len()-1].Time().Format(time.DateOnly),
			"took", time.Since(start).Round(time.Millisecond))
	}
	if failed > 0 {
		os.Exit(1)
	}
}

// listStored prints every stored series with its newest day and whether it
// holds full provider history.
func listStored(ctx context.Context, store *sqlitestore.Store) error {
	names, err := store.Names(ctx)
	if err != nil {
		return err
	}
	for _, name := range names {
		last, err := store.LastTimestamp(ctx, name)
		if err != nil {
			return fmt.Errorf("%s: %w", name, err)
		}
		full, err := store.HasFullHistory(ctx, name)
		if err != nil {
			return err
		}
		fmt.Printf("%-10s last=%s full_history=%t\n",
			name, time.UnixMilli(last).UTC().Format(time.DateOnly), full)
	}
	return nil
}
