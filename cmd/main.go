// Command merx fetches candles from exchanges or CSV files and prints technical indicators.
//
// Usage:
//
//	merx --config config.yaml
//	merx --platform binance --pair BTC_USDT --interval 4h --indicators sma:20,rsi:14,macd
//	merx --platform csv --csv prices.csv --interval 1d
//	merx --setup
//
// Optional environment variables (also read from .env):
//
//	BINANCE_API_KEY, BINANCE_API_SECRET
//	BYBIT_API_KEY, BYBIT_API_SECRET
//	HYPERLIQUID_PRIVATE_KEY, HYPERLIQUID_URL
package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/vadiminshakov/merx/config"
	"github.com/vadiminshakov/merx/internal"
	"github.com/vadiminshakov/merx/internal/render"
	"github.com/vadiminshakov/merx/internal/services/market/collector"
	"github.com/vadiminshakov/merx/internal/setup"
	"github.com/vadiminshakov/merx/internal/storage/klines"
)

func main() {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Printf("failed to load .env: %v", err)
	}

	cfg, err := config.Get()
	if err != nil {
		log.Fatal(err)
	}

	if cfg.Setup {
		if err := setup.RunTUI(cfg.SetupOutput); err != nil {
			log.Fatal(err)
		}
		return
	}

	logger, err := newLogger(cfg.Debug)
	if err != nil {
		log.Fatal(err)
	}
	defer logger.Sync()

	var store collector.SnapshotStore
	if cfg.SnapshotDir != "" {
		walStore, err := klines.NewWALStore(cfg.SnapshotDir)
		if err != nil {
			logger.Fatal("failed to open kline snapshot store", zap.String("dir", cfg.SnapshotDir), zap.Error(err))
		}
		defer walStore.Close()
		store = walStore
	}

	runner, err := internal.NewRunner(cfg, internal.CredentialsFromEnv(), store, logger)
	if err != nil {
		logger.Fatal("failed to set up jobs", zap.Error(err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	report, err := runner.Run(ctx)
	if err != nil {
		logger.Fatal("run failed", zap.Error(err))
	}

	if err := render.Results(os.Stdout, report.Results, cfg.Rows, report.Cached); err != nil {
		logger.Fatal("failed to print results", zap.Error(err))
	}
}

func newLogger(debug bool) (*zap.Logger, error) {
	if debug {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}
