package collector

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/vadiminshakov/merx/internal/domain"
	"github.com/vadiminshakov/merx/internal/storage/klines"
	"github.com/vadiminshakov/merx/pkg/retrier"
)

const defaultRequestTimeout = 30 * time.Second

// SnapshotStore keeps the last good candle set per market.
type SnapshotStore interface {
	Save(platform string, pair domain.Pair, interval string, candles domain.Candles) error
	Latest(platform string, pair domain.Pair, interval string) (klines.Snapshot, error)
}

// Fetched is the outcome of a collection.
type Fetched struct {
	Pair     domain.Pair
	Interval string
	Candles  domain.Candles
	// Cached is set when the candles came from the snapshot store because the live fetch failed.
	Cached bool
}

// Collector fetches candles through a provider with retries, a per-attempt timeout and an optional
// snapshot fallback.
type Collector struct {
	provider KlineProvider
	store    SnapshotStore
	retrier  *retrier.Retrier
	timeout  time.Duration
	logger   *zap.Logger
}

// Option configures a Collector.
type Option func(*Collector)

// WithSnapshotStore enables saving fetched candles and serving them when fetching fails.
func WithSnapshotStore(store SnapshotStore) Option {
	return func(c *Collector) { c.store = store }
}

// WithRequestTimeout bounds each fetch attempt.
func WithRequestTimeout(d time.Duration) Option {
	return func(c *Collector) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// WithRetrier replaces the default retry policy.
func WithRetrier(r *retrier.Retrier) Option {
	return func(c *Collector) { c.retrier = r }
}

// NewCollector creates a collector over provider.
func NewCollector(provider KlineProvider, logger *zap.Logger, opts ...Option) *Collector {
	c := &Collector{
		provider: provider,
		timeout:  defaultRequestTimeout,
		logger:   logger,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.retrier == nil {
		c.retrier = retrier.New(
			retrier.WithMaxRetries(3),
			retrier.WithInitialInterval(500*time.Millisecond),
			retrier.WithMaxInterval(5*time.Second),
			retrier.WithRetryIf(isRetryable),
			retrier.WithOnRetry(func(attempt int, err error, wait time.Duration) {
				c.logger.Warn("retrying kline fetch",
					zap.String("platform", provider.Name()),
					zap.Int("attempt", attempt),
					zap.Duration("wait", wait),
					zap.Error(err),
				)
			}),
		)
	}
	return c
}

func isRetryable(err error) bool {
	return !errors.Is(err, ErrInvalidRequest) && !errors.Is(err, context.Canceled)
}

// Fetch returns the most recent limit candles of pair at interval.
func (c *Collector) Fetch(ctx context.Context, pair domain.Pair, interval string, limit int) (Fetched, error) {
	platform := c.provider.Name()
	started := time.Now()

	candles, err := retrier.DoWithData(c.retrier, ctx, func(ctx context.Context) (domain.Candles, error) {
		ctxWithTimeout, cancel := context.WithTimeout(ctx, c.timeout)
		defer cancel()

		candles, err := c.provider.GetKlines(ctxWithTimeout, pair, interval, limit)
		if err != nil {
			return nil, err
		}
		if len(candles) == 0 {
			return nil, errors.Errorf("no kline data returned for %s %s", pair, interval)
		}
		return candles, nil
	})
	if err != nil {
		return c.fallback(pair, interval, errors.Wrapf(err, "failed to fetch klines for %s %s from %s", pair, interval, platform))
	}

	c.logger.Debug("klines fetched",
		zap.String("platform", platform),
		zap.String("pair", pair.String()),
		zap.String("interval", interval),
		zap.Int("candles", len(candles)),
		zap.Duration("took", time.Since(started)),
	)

	if c.store != nil {
		if err := c.store.Save(platform, pair, interval, candles); err != nil {
			c.logger.Warn("failed to save kline snapshot", zap.String("pair", pair.String()), zap.Error(err))
		}
	}

	return Fetched{Pair: pair, Interval: interval, Candles: candles}, nil
}

func (c *Collector) fallback(pair domain.Pair, interval string, fetchErr error) (Fetched, error) {
	if c.store == nil || errors.Is(fetchErr, ErrInvalidRequest) {
		return Fetched{}, fetchErr
	}

	snap, err := c.store.Latest(c.provider.Name(), pair, interval)
	if err != nil {
		c.logger.Debug("no kline snapshot to fall back to", zap.String("pair", pair.String()), zap.Error(err))
		return Fetched{}, fetchErr
	}

	c.logger.Warn("serving klines from snapshot",
		zap.String("platform", c.provider.Name()),
		zap.String("pair", pair.String()),
		zap.String("interval", interval),
		zap.Time("saved_at", snap.SavedAt),
		zap.Error(fetchErr),
	)
	return Fetched{Pair: pair, Interval: interval, Candles: snap.Candles, Cached: true}, nil
}
