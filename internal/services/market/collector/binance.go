package collector

import (
	"context"
	"time"

	"github.com/adshao/go-binance/v2"
	"github.com/pkg/errors"
	"github.com/vadiminshakov/merx/internal/domain"
)

// binanceMaxLimit is the largest page the klines endpoint serves.
const binanceMaxLimit = 1000

// BinanceKlineProvider implements KlineProvider for Binance exchange.
type BinanceKlineProvider struct {
	client *binance.Client
}

// NewBinanceKlineProvider creates a new Binance kline provider.
func NewBinanceKlineProvider(client *binance.Client) *BinanceKlineProvider {
	return &BinanceKlineProvider{client: client}
}

// Name returns the platform name.
func (p *BinanceKlineProvider) Name() string { return PlatformBinance }

// GetKlines fetches kline data from Binance.
func (p *BinanceKlineProvider) GetKlines(ctx context.Context, pair domain.Pair, interval string, limit int) (domain.Candles, error) {
	if limit <= 0 || limit > binanceMaxLimit {
		return nil, errors.Wrapf(ErrInvalidRequest, "binance limit must be in 1..%d, got %d", binanceMaxLimit, limit)
	}

	klines, err := p.client.NewKlinesService().
		Symbol(pair.Symbol()).
		Interval(interval).
		Limit(limit).
		Do(ctx)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to fetch klines from Binance for %s", pair.String())
	}

	result := make(domain.Candles, len(klines))
	for i, k := range klines {
		prices, err := parsePrices(k.Open, k.High, k.Low, k.Close, k.Volume)
		if err != nil {
			return nil, errors.Wrapf(err, "binance kline %d", i)
		}

		result[i] = domain.MarketCandle{
			OpenTime:  time.UnixMilli(k.OpenTime).UTC(),
			Open:      prices[0],
			High:      prices[1],
			Low:       prices[2],
			Close:     prices[3],
			Volume:    prices[4],
			CloseTime: time.UnixMilli(k.CloseTime).UTC(),
		}
	}

	return normalize(result)
}
