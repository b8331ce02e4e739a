package internal

import (
	"context"

	"github.com/pkg/errors"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/vadiminshakov/merx/config"
	"github.com/vadiminshakov/merx/internal/services/market/analysis"
	"github.com/vadiminshakov/merx/internal/services/market/collector"
)

// Report is the outcome of one run over every configured job.
type Report struct {
	Results []analysis.Result
	// Cached lists markets whose candles were served from the snapshot store.
	Cached map[string]bool
}

// Runner fetches candles for each job and computes the job's indicators.
type Runner struct {
	cfg       config.Config
	providers []collector.KlineProvider
	store     collector.SnapshotStore
	analyzer  *analysis.Analyzer
	logger    *zap.Logger
}

// NewRunner resolves a provider per job. store may be nil.
func NewRunner(cfg config.Config, creds Credentials, store collector.SnapshotStore, logger *zap.Logger) (*Runner, error) {
	providers := make([]collector.KlineProvider, len(cfg.Jobs))
	for i, job := range cfg.Jobs {
		client, err := NewClient(job, creds)
		if err != nil {
			return nil, errors.Wrapf(err, "create client for %s", job.Market())
		}
		provider, err := NewKlineProvider(client)
		if err != nil {
			return nil, errors.Wrapf(err, "create kline provider for %s", job.Market())
		}
		providers[i] = provider
	}

	return newRunner(cfg, providers, store, logger), nil
}

func newRunner(cfg config.Config, providers []collector.KlineProvider, store collector.SnapshotStore, logger *zap.Logger) *Runner {
	return &Runner{
		cfg:       cfg,
		providers: providers,
		store:     store,
		analyzer:  analysis.NewAnalyzer(logger, cfg.Workers),
		logger:    logger,
	}
}

// Run fetches every job concurrently, then computes the indicators. A job whose candles cannot be
// fetched fails the run; indicator errors are reported per result.
func (r *Runner) Run(ctx context.Context) (Report, error) {
	fetched := make([]collector.Fetched, len(r.cfg.Jobs))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(r.cfg.Workers, 1))
	for i, job := range r.cfg.Jobs {
		g.Go(func() error {
			opts := []collector.Option{collector.WithRequestTimeout(r.cfg.RequestTimeout)}
			if r.store != nil {
				opts = append(opts, collector.WithSnapshotStore(r.store))
			}
			c := collector.NewCollector(r.providers[i], r.logger.With(zap.String("market", job.Market())), opts...)

			f, err := c.Fetch(gctx, job.Pair, job.Interval, job.Limit)
			if err != nil {
				return errors.Wrapf(err, "fetch %s", job.Market())
			}
			fetched[i] = f
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return Report{}, err
	}

	report := Report{Cached: make(map[string]bool)}
	var reqs []analysis.Request
	for i, job := range r.cfg.Jobs {
		if fetched[i].Cached {
			report.Cached[job.Market()] = true
		}
		ohlcv, err := fetched[i].Candles.OHLCV()
		if err != nil {
			return Report{}, errors.Wrapf(err, "build ohlcv for %s", job.Market())
		}
		for _, spec := range job.Indicators {
			reqs = append(reqs, analysis.Request{Market: job.Market(), Data: ohlcv, Spec: spec})
		}
	}

	r.logger.Info("computing indicators", zap.Int("jobs", len(r.cfg.Jobs)), zap.Int("requests", len(reqs)))
	report.Results = r.analyzer.Run(ctx, reqs)
	return report, nil
}
