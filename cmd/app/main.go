package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"venue_go/internal/domain"
	"venue_go/internal/enums"
	"venue_go/internal/gateway"
	"venue_go/internal/infra"
	"venue_go/internal/storage"
	"venue_go/internal/stream"
	"venue_go/internal/venue"
	"venue_go/internal/venue/binance"
	"venue_go/internal/venue/coinbase"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to configuration file")
	flag.Parse()

	cfg, err := infra.LoadConfig(*configPath)
	if err != nil {
		slog.Error("Failed to load config", slog.Any("error", err))
		os.Exit(1)
	}
	slog.SetDefault(infra.NewLogger(cfg))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	registry := venue.NewRegistry()
	registry.Register(binance.New(cfg.Venues.Binance.RestURL))
	registry.Register(coinbase.New(cfg.Venues.Coinbase.RestURL))

	var journal gateway.OrderJournal
	if cfg.Journal.Path != "" {
		j, err := storage.NewJournal(cfg.Journal.Path)
		if err != nil {
			slog.Error("Failed to open order journal", slog.Any("error", err))
			os.Exit(1)
		}
		defer j.Close()
		journal = j
		slog.Info("Order journal ready", slog.String("path", cfg.Journal.Path))
	}

	gw, err := gateway.New(gateway.Config{
		Registry:    registry,
		Executor:    gateway.NewNetHTTPExecutor(cfg.RequestTimeout()),
		Credentials: cfg,
		RateLimits: map[enums.Venue]float64{
			enums.VenueBinance:  cfg.Venues.Binance.RateLimit,
			enums.VenueCoinbase: cfg.Venues.Coinbase.RateLimit,
		},
		DefaultRateLimit: cfg.Gateway.DefaultRateLimit,
		BreakerFailures:  cfg.Gateway.BreakerFailures,
		BreakerCooldown:  cfg.BreakerCooldown(),
		IdempotencyTTL:   cfg.IdempotencyTTL(),
		MaxRetries:       cfg.Gateway.MaxRetries,
		Journal:          journal,
	})
	if err != nil {
		slog.Error("Failed to build gateway", slog.Any("error", err))
		os.Exit(1)
	}

	slog.Info("Gateway ready", slog.Any("venues", registry.Venues()))

	// Live ticker stream: keep a pulse on the market while orders flow.
	ticks := make(chan domain.Ticker, 64)
	worker := stream.NewWorker(stream.NewBinanceTickerHandler(
		cfg.Venues.Binance.WSURL, []string{"BTC-USDT"}, ticks))
	worker.Start(ctx)
	defer worker.Stop()

	go func() {
		for tick := range ticks {
			slog.Debug("ticker",
				slog.String("symbol", tick.Symbol),
				slog.String("last", tick.LastPrice))
		}
	}()

	// Startup probe: confirm each venue answers market-data requests.
	for _, v := range registry.Venues() {
		if t, err := gw.Ticker(ctx, v, "BTC-USDT"); err != nil {
			slog.Warn("Venue probe failed",
				slog.String("venue", string(v)), slog.Any("error", err))
		} else {
			slog.Info("Venue reachable",
				slog.String("venue", string(v)),
				slog.String("last_price", t.LastPrice))
		}
	}

	slog.InfoContext(ctx, "Venue gateway operational. Press Ctrl+C to exit.")
	<-ctx.Done()
	slog.InfoContext(ctx, "Shutting down gracefully...")
}
