package collector

import (
	"context"
	"strings"
	"time"

	"github.com/pkg/errors"
	hyperliquid "github.com/sonirico/go-hyperliquid"
	"github.com/vadiminshakov/merx/internal/domain"
)

// HyperliquidKlineProvider implements KlineProvider for Hyperliquid exchange.
type HyperliquidKlineProvider struct {
	info *hyperliquid.Info
	now  func() time.Time
}

// NewHyperliquidKlineProvider creates a new Hyperliquid kline provider.
func NewHyperliquidKlineProvider(info *hyperliquid.Info) *HyperliquidKlineProvider {
	return &HyperliquidKlineProvider{info: info, now: time.Now}
}

// Name returns the platform name.
func (p *HyperliquidKlineProvider) Name() string { return PlatformHyperliquid }

// GetKlines fetches kline data.
func (p *HyperliquidKlineProvider) GetKlines(ctx context.Context, pair domain.Pair, interval string, limit int) (domain.Candles, error) {
	if p.info == nil {
		return nil, errors.New("hyperliquid info is nil")
	}
	if limit <= 0 {
		return nil, errors.Wrap(ErrInvalidRequest, "limit must be > 0")
	}
	dur, err := ParseInterval(interval)
	if err != nil {
		return nil, errors.Wrap(ErrInvalidRequest, err.Error())
	}

	endMs := p.now().UnixMilli()
	// two extra candles of slack for boundary rounding
	startMs := endMs - (int64(limit)+2)*dur.Milliseconds()

	// Hyperliquid quotes perps in USD and keys candles by the base coin only.
	coin := strings.ToUpper(pair.From)

	candles, err := p.info.CandlesSnapshot(ctx, coin, interval, startMs, endMs)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to fetch candles from Hyperliquid for %s", coin)
	}
	if len(candles) == 0 {
		return nil, errors.Errorf("no candles from hyperliquid for %s %s", coin, interval)
	}

	out := make(domain.Candles, 0, len(candles))
	for i, c := range candles {
		prices, err := parsePrices(c.Open, c.High, c.Low, c.Close, c.Volume)
		if err != nil {
			return nil, errors.Wrapf(err, "hyperliquid candle %d", i)
		}

		out = append(out, domain.MarketCandle{
			OpenTime:  time.UnixMilli(c.TimeOpen).UTC(),
			Open:      prices[0],
			High:      prices[1],
			Low:       prices[2],
			Close:     prices[3],
			Volume:    prices[4],
			CloseTime: time.UnixMilli(c.TimeClose).UTC(),
		})
	}

	out, err = normalize(out)
	if err != nil {
		return nil, err
	}
	if len(out) > limit {
		out = out[len(out)-limit:]
	}
	return out, nil
}
