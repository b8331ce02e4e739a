// Package collector fetches candlestick data from exchanges and files and hands it to analysis
// as validated, time-ordered candles.
package collector

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"time"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"github.com/vadiminshakov/merx/internal/domain"
)

// Supported platforms.
const (
	PlatformBinance     = "binance"
	PlatformBybit       = "bybit"
	PlatformHyperliquid = "hyperliquid"
	PlatformCSV         = "csv"
)

// ErrInvalidRequest marks a request that no retry can fix.
var ErrInvalidRequest = errors.New("invalid kline request")

// KlineProvider defines the interface for fetching kline (candlestick) data.
type KlineProvider interface {
	// Name identifies the platform in logs and snapshot keys.
	Name() string
	// GetKlines fetches up to limit of the most recent klines for a trading pair,
	// ordered by open time. interval uses the "1m", "4h", "1d" notation.
	GetKlines(ctx context.Context, pair domain.Pair, interval string, limit int) (domain.Candles, error)
}

func parsePrices(raw ...string) ([]decimal.Decimal, error) {
	names := [...]string{"open", "high", "low", "close", "volume"}
	out := make([]decimal.Decimal, len(raw))
	for i, r := range raw {
		d, err := decimal.NewFromString(r)
		if err != nil {
			name := strconv.Itoa(i)
			if i < len(names) {
				name = names[i]
			}
			return nil, errors.Wrapf(err, "failed to parse %s %q", name, r)
		}
		out[i] = d
	}
	return out, nil
}

// normalize orders candles by open time and rejects repeated timestamps.
func normalize(candles domain.Candles) (domain.Candles, error) {
	sort.SliceStable(candles, func(i, j int) bool {
		return candles[i].OpenTime.Before(candles[j].OpenTime)
	})
	for i := 1; i < len(candles); i++ {
		if candles[i].OpenTime.Equal(candles[i-1].OpenTime) {
			return nil, errors.Errorf("duplicate candle at %s", candles[i].OpenTime.UTC().Format(time.RFC3339))
		}
	}
	return candles, nil
}

// ParseInterval converts "15m", "4h", "1d" or "1w" into a duration.
func ParseInterval(interval string) (time.Duration, error) {
	if len(interval) < 2 {
		return 0, fmt.Errorf("invalid interval: %q", interval)
	}
	unit := interval[len(interval)-1]
	n, err := strconv.Atoi(interval[:len(interval)-1])
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("invalid interval number: %q", interval)
	}
	switch unit {
	case 'm':
		return time.Duration(n) * time.Minute, nil
	case 'h':
		return time.Duration(n) * time.Hour, nil
	case 'd':
		return time.Duration(n) * 24 * time.Hour, nil
	case 'w':
		return time.Duration(n) * 7 * 24 * time.Hour, nil
	default:
		return 0, fmt.Errorf("unsupported interval unit: %c", unit)
	}
}
