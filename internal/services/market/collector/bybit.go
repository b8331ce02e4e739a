package collector

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	bybit "github.com/hirokisan/bybit/v2"
	"github.com/pkg/errors"
	"github.com/vadiminshakov/merx/internal/domain"
)

// bybitMaxLimit is the largest page the V5 kline endpoint serves.
const bybitMaxLimit = 1000

// BybitKlineProvider implements KlineProvider for Bybit exchange.
type BybitKlineProvider struct {
	client *bybit.Client
}

// NewBybitKlineProvider creates a new Bybit kline provider.
func NewBybitKlineProvider(client *bybit.Client) *BybitKlineProvider {
	return &BybitKlineProvider{client: client}
}

// Name returns the platform name.
func (p *BybitKlineProvider) Name() string { return PlatformBybit }

// GetKlines fetches spot kline data. Bybit lists newest candles first; the result is re-ordered.
func (p *BybitKlineProvider) GetKlines(ctx context.Context, pair domain.Pair, interval string, limit int) (domain.Candles, error) {
	if limit <= 0 || limit > bybitMaxLimit {
		return nil, errors.Wrapf(ErrInvalidRequest, "bybit limit must be in 1..%d, got %d", bybitMaxLimit, limit)
	}

	bybitInterval, err := convertIntervalToBybit(interval)
	if err != nil {
		return nil, errors.Wrapf(ErrInvalidRequest, "invalid interval %s: %v", interval, err)
	}
	// the SDK call does not take a context
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	param := bybit.V5GetKlineParam{
		Category: bybit.CategoryV5Spot,
		Symbol:   bybit.SymbolV5(pair.Symbol()),
		Interval: bybit.Interval(bybitInterval),
		Limit:    &limit,
	}

	result, err := p.client.V5().Market().GetKline(param)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to fetch klines from Bybit for %s", pair.String())
	}
	if result == nil {
		return nil, errors.Errorf("empty result from Bybit API for %s", pair.String())
	}
	if len(result.Result.List) == 0 {
		return nil, errors.Errorf("no kline data returned from Bybit for %s", pair.String())
	}

	dur, err := ParseInterval(interval)
	if err != nil {
		return nil, errors.Wrapf(ErrInvalidRequest, "invalid interval %s: %v", interval, err)
	}

	candles := make(domain.Candles, len(result.Result.List))
	for i, k := range result.Result.List {
		openTime, err := parseTimestamp(k.StartTime)
		if err != nil {
			return nil, errors.Wrapf(err, "failed to parse start time at index %d", i)
		}

		prices, err := parsePrices(k.Open, k.High, k.Low, k.Close, k.Volume)
		if err != nil {
			return nil, errors.Wrapf(err, "bybit kline %d", i)
		}

		candles[i] = domain.MarketCandle{
			OpenTime:  openTime,
			Open:      prices[0],
			High:      prices[1],
			Low:       prices[2],
			Close:     prices[3],
			Volume:    prices[4],
			CloseTime: openTime.Add(dur - time.Millisecond),
		}
	}

	return normalize(candles)
}

// convertIntervalToBybit converts standard interval format to Bybit format.
// Standard format: "1m", "5m", "15m", "1h", "4h", "1d", etc.
// Bybit format: "1", "5", "15", "60", "240", "D", etc.
func convertIntervalToBybit(interval string) (string, error) {
	if len(interval) < 2 {
		return "", fmt.Errorf("invalid interval format: %s", interval)
	}

	unit := interval[len(interval)-1]
	n, err := strconv.Atoi(interval[:len(interval)-1])
	if err != nil || n <= 0 {
		return "", fmt.Errorf("invalid interval number: %s", interval)
	}

	switch unit {
	case 'm':
		return strconv.Itoa(n), nil
	case 'h':
		return strconv.Itoa(n * 60), nil
	case 'd', 'w':
		if n != 1 {
			return "", fmt.Errorf("bybit only serves single day and week candles: %s", interval)
		}
		return strings.ToUpper(string(unit)), nil
	default:
		return "", fmt.Errorf("unsupported interval unit: %c", unit)
	}
}

// parseTimestamp converts Bybit timestamp string (milliseconds) to time.Time.
func parseTimestamp(ts string) (time.Time, error) {
	if ts == "" {
		return time.Time{}, errors.New("empty timestamp")
	}

	msec, err := strconv.ParseInt(ts, 10, 64)
	if err != nil {
		return time.Time{}, errors.Wrapf(err, "failed to parse timestamp: %s", ts)
	}

	return time.UnixMilli(msec).UTC(), nil
}
