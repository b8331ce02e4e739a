package internal

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	binance "github.com/adshao/go-binance/v2"
	bybit "github.com/hirokisan/bybit/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/vadiminshakov/merx/config"
	"github.com/vadiminshakov/merx/internal/domain"
	"github.com/vadiminshakov/merx/internal/services/market/analysis"
	"github.com/vadiminshakov/merx/internal/services/market/collector"
	"github.com/vadiminshakov/merx/internal/storage/klines"
)

func writeDailyCSV(t *testing.T, days int) string {
	t.Helper()
	var b strings.Builder
	b.WriteString("Date,Open,High,Low,Close,Volume\n")
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < days; i++ {
		c := 100 + float64(i%7) - float64(i%3)
		fmt.Fprintf(&b, "%s,%.2f,%.2f,%.2f,%.2f,1000\n", start.AddDate(0, 0, i).Format("2006-01-02"), c, c+2, c-2, c+0.5)
	}
	path := filepath.Join(t.TempDir(), "daily.csv")
	require.NoError(t, os.WriteFile(path, []byte(b.String()), 0o600))
	return path
}

func csvJob(t *testing.T, path string, indicators string) config.Job {
	t.Helper()
	specs, err := config.ParseIndicatorList(indicators)
	require.NoError(t, err)
	return config.Job{
		Platform:   collector.PlatformCSV,
		Pair:       domain.Pair{From: "AAPL", To: "USD"},
		Interval:   "1d",
		CSV:        path,
		Indicators: specs,
	}
}

func TestNewClient(t *testing.T) {
	binanceClient, err := NewClient(config.Job{Platform: collector.PlatformBinance}, Credentials{})
	require.NoError(t, err)
	assert.IsType(t, &binance.Client{}, binanceClient)

	bybitClient, err := NewClient(config.Job{Platform: collector.PlatformBybit}, Credentials{BybitAPIKey: "k", BybitAPISecret: "s"})
	require.NoError(t, err)
	assert.IsType(t, &bybit.Client{}, bybitClient)

	csvClient, err := NewClient(config.Job{Platform: collector.PlatformCSV, CSV: "prices.csv"}, Credentials{})
	require.NoError(t, err)
	assert.Equal(t, csvSource{path: "prices.csv"}, csvClient)

	_, err = NewClient(config.Job{Platform: "kraken"}, Credentials{})
	assert.Error(t, err)
}

func TestNewKlineProvider(t *testing.T) {
	tests := []struct {
		client any
		name   string
	}{
		{client: binance.NewClient("", ""), name: collector.PlatformBinance},
		{client: bybit.NewClient(), name: collector.PlatformBybit},
		{client: csvSource{path: "prices.csv"}, name: collector.PlatformCSV},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			provider, err := NewKlineProvider(tt.client)
			require.NoError(t, err)
			assert.Equal(t, tt.name, provider.Name())
		})
	}

	_, err := NewKlineProvider("binance")
	assert.Error(t, err)
}

func TestCredentialsFromEnv(t *testing.T) {
	t.Setenv("BINANCE_API_KEY", "bk")
	t.Setenv("BYBIT_API_SECRET", "bs")
	t.Setenv("HYPERLIQUID_URL", "https://api.hyperliquid-testnet.xyz")

	creds := CredentialsFromEnv()
	assert.Equal(t, "bk", creds.BinanceAPIKey)
	assert.Equal(t, "bs", creds.BybitAPISecret)
	assert.Equal(t, "https://api.hyperliquid-testnet.xyz", creds.HyperliquidURL)
}

func TestRunner_Run(t *testing.T) {
	path := writeDailyCSV(t, 40)
	cfg := config.Config{
		Workers:        2,
		RequestTimeout: time.Second,
		Jobs:           []config.Job{csvJob(t, path, "sma:5,rsi:50,pivot_standard")},
	}

	store, err := klines.NewWALStore(t.TempDir())
	require.NoError(t, err)
	defer store.Close()

	runner, err := NewRunner(cfg, Credentials{}, store, zap.NewNop())
	require.NoError(t, err)

	report, err := runner.Run(context.Background())
	require.NoError(t, err)
	require.Len(t, report.Results, 3)
	assert.Empty(t, report.Cached)

	sma := report.Results[0]
	require.NoError(t, sma.Err)
	assert.Equal(t, "sma", sma.Spec.Name)
	assert.Equal(t, 40, sma.Table.Len())
	_, ok := sma.Table.At(3, "sma")
	assert.False(t, ok)
	_, ok = sma.Table.At(4, "sma")
	assert.True(t, ok)

	assert.Error(t, report.Results[1].Err, "40 bars are not enough for rsi(50)")

	pivots := report.Results[2]
	require.NoError(t, pivots.Err)
	assert.Contains(t, pivots.Table.Columns(), "pivot")

	snap, err := store.Latest(collector.PlatformCSV, cfg.Jobs[0].Pair, "1d")
	require.NoError(t, err)
	assert.Len(t, snap.Candles, 40)
}

func TestRunner_FetchFailure(t *testing.T) {
	cfg := config.Config{
		Workers:        1,
		RequestTimeout: time.Second,
		Jobs:           []config.Job{csvJob(t, filepath.Join(t.TempDir(), "missing.csv"), "sma:5")},
	}

	runner, err := NewRunner(cfg, Credentials{}, nil, zap.NewNop())
	require.NoError(t, err)

	_, err = runner.Run(context.Background())
	assert.ErrorIs(t, err, collector.ErrInvalidRequest)
}

func TestRunner_UnknownIndicatorIsReported(t *testing.T) {
	path := writeDailyCSV(t, 10)
	job := csvJob(t, path, "sma:3")
	job.Indicators = append(job.Indicators, analysis.Spec{Name: "vwap"})

	runner := newRunner(config.Config{Workers: 1, RequestTimeout: time.Second, Jobs: []config.Job{job}},
		[]collector.KlineProvider{collector.NewCSVKlineProvider(path)}, nil, zap.NewNop())

	report, err := runner.Run(context.Background())
	require.NoError(t, err)
	require.Len(t, report.Results, 2)
	assert.NoError(t, report.Results[0].Err)
	assert.ErrorIs(t, report.Results[1].Err, analysis.ErrUnknownIndicator)
}
