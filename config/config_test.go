package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vadiminshakov/merx/internal/domain"
	"github.com/vadiminshakov/merx/pkg/series"
)

const sampleYaml = `
workers: 4
request_timeout: 10s
snapshot_dir: ./wal/klines
jobs:
  - platform: binance
    pair: BTC_USDT
    interval: 4h
    limit: 300
    indicators:
      - name: sma
        period: 50
      - name: bollinger
        period: 20
        multiplier: "2.5"
        stddev: population
      - name: macd
        slow: 26
        fast: 12
        signal: 9
  - platform: csv
    csv: ./testdata/aapl.csv
    interval: 1d
    indicators:
      - name: envelope
        ma: ema
        multiplier: "0.05"
      - name: pivot_fibonacci
`

func TestParse(t *testing.T) {
	cfg, err := Parse([]byte(sampleYaml))
	require.NoError(t, err)

	assert.Equal(t, 4, cfg.Workers)
	assert.Equal(t, 10*time.Second, cfg.RequestTimeout)
	assert.Equal(t, "./wal/klines", cfg.SnapshotDir)
	assert.Equal(t, 10, cfg.Rows)
	require.Len(t, cfg.Jobs, 2)

	btc := cfg.Jobs[0]
	assert.Equal(t, "binance", btc.Platform)
	assert.Equal(t, domain.Pair{From: "BTC", To: "USDT"}, btc.Pair)
	assert.Equal(t, "4h", btc.Interval)
	assert.Equal(t, 300, btc.Limit)
	assert.Equal(t, "binance BTC_USDT 4h", btc.Market())
	require.Len(t, btc.Indicators, 3)
	assert.Equal(t, 50, btc.Indicators[0].Period)
	assert.Equal(t, 2.5, btc.Indicators[1].Multiplier)
	assert.Equal(t, series.Population, btc.Indicators[1].StdDev)
	assert.Equal(t, 9, btc.Indicators[2].Signal)

	csv := cfg.Jobs[1]
	assert.Equal(t, "csv", csv.Platform)
	assert.Equal(t, "./testdata/aapl.csv", csv.CSV)
	assert.Equal(t, defaultLimit, csv.Limit)
	assert.Equal(t, "ema", csv.Indicators[0].MA)
	assert.Equal(t, 0.05, csv.Indicators[0].Multiplier)
	assert.Equal(t, "pivot_fibonacci", csv.Indicators[1].Name)
}

func TestParse_Errors(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{name: "no jobs", yaml: "workers: 2\n"},
		{name: "bad pair", yaml: "jobs:\n  - platform: binance\n    pair: BTCUSDT\n    indicators: [{name: sma}]\n"},
		{name: "bad platform", yaml: "jobs:\n  - platform: kraken\n    pair: BTC_USD\n    indicators: [{name: sma}]\n"},
		{name: "limit too high", yaml: "jobs:\n  - platform: bybit\n    pair: BTC_USDT\n    limit: 5000\n    indicators: [{name: sma}]\n"},
		{name: "csv without path", yaml: "jobs:\n  - platform: csv\n    indicators: [{name: sma}]\n"},
		{name: "bad interval", yaml: "jobs:\n  - platform: binance\n    pair: BTC_USDT\n    interval: hourly\n    indicators: [{name: sma}]\n"},
		{name: "unknown indicator", yaml: "jobs:\n  - platform: binance\n    pair: BTC_USDT\n    indicators: [{name: ichimoku}]\n"},
		{name: "bad multiplier", yaml: "jobs:\n  - platform: binance\n    pair: BTC_USDT\n    indicators: [{name: bollinger, multiplier: two}]\n"},
		{name: "negative multiplier", yaml: "jobs:\n  - platform: binance\n    pair: BTC_USDT\n    indicators: [{name: bollinger, multiplier: \"-1\"}]\n"},
		{name: "bad stddev", yaml: "jobs:\n  - platform: binance\n    pair: BTC_USDT\n    indicators: [{name: bollinger, stddev: biased}]\n"},
		{name: "no indicators", yaml: "jobs:\n  - platform: binance\n    pair: BTC_USDT\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.yaml))
			assert.Error(t, err)
		})
	}
}

func TestLoad_Flags(t *testing.T) {
	cfg, err := Load([]string{
		"--platform", "bybit", "--pair", "eth_usdt", "--interval", "15m", "--limit", "100",
		"--indicators", "ema:9, rsi:7,macd", "--workers", "2",
	})
	require.NoError(t, err)

	assert.Equal(t, 2, cfg.Workers)
	require.Len(t, cfg.Jobs, 1)
	job := cfg.Jobs[0]
	assert.Equal(t, "bybit", job.Platform)
	assert.Equal(t, domain.Pair{From: "ETH", To: "USDT"}, job.Pair)
	assert.Equal(t, 100, job.Limit)
	require.Len(t, job.Indicators, 3)
	assert.Equal(t, 9, job.Indicators[0].Period)
	assert.Equal(t, 7, job.Indicators[1].Period)
	assert.Equal(t, 26, job.Indicators[2].Slow)
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load(nil)
	require.NoError(t, err)
	require.Len(t, cfg.Jobs, 1)
	assert.Equal(t, "binance BTC_USDT 1h", cfg.Jobs[0].Market())
	assert.Len(t, cfg.Jobs[0].Indicators, 7)
	assert.False(t, cfg.Setup)
}

func TestLoad_ConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "merx.yaml")
	require.NoError(t, os.WriteFile(path, []byte(sampleYaml), 0o600))

	cfg, err := Load([]string{"--config", path, "--debug"})
	require.NoError(t, err)
	assert.True(t, cfg.Debug)
	assert.Len(t, cfg.Jobs, 2)

	_, err = Load([]string{"--config", filepath.Join(t.TempDir(), "missing.yaml")})
	assert.Error(t, err)
}

func TestLoad_Setup(t *testing.T) {
	cfg, err := Load([]string{"--setup", "--setup-output", "out.yaml"})
	require.NoError(t, err)
	assert.True(t, cfg.Setup)
	assert.Equal(t, "out.yaml", cfg.SetupOutput)
	assert.Empty(t, cfg.Jobs)
}

func TestParseIndicatorList_Errors(t *testing.T) {
	_, err := ParseIndicatorList("sma:twenty")
	assert.Error(t, err)

	_, err = ParseIndicatorList("wavelet")
	assert.Error(t, err)

	for _, list := range []string{"macd:12", "tr:5", "pivot_standard:3"} {
		_, err = ParseIndicatorList(list)
		assert.ErrorIs(t, err, series.ErrInvalidParameter, list)
	}

	specs, err := ParseIndicatorList(" , sma ,")
	require.NoError(t, err)
	assert.Len(t, specs, 1)
}
