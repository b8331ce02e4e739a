package analysis

import (
	"context"
	"sync"
	"time"

	"github.com/bytedance/gopkg/util/gopool"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/vadiminshakov/merx/pkg/series"
)

const defaultWorkers = 8

// Request asks for one indicator over one market's OHLCV table.
type Request struct {
	// Market labels the input, e.g. "binance BTC_USDT 1h".
	Market string
	Data   *series.Table
	Spec   Spec
}

// Result of a Request. Exactly one of Table and Err is set.
type Result struct {
	RequestID string
	Market    string
	Spec      Spec
	Table     *series.Table
	Err       error
	Took      time.Duration
}

// Analyzer computes independent indicator requests in parallel.
type Analyzer struct {
	pool   gopool.Pool
	logger *zap.Logger
}

// NewAnalyzer creates an analyzer running at most workers tasks at once.
func NewAnalyzer(logger *zap.Logger, workers int) *Analyzer {
	if workers <= 0 {
		workers = defaultWorkers
	}
	pool := gopool.NewPool("analysis", int32(workers), gopool.NewConfig())
	pool.SetPanicHandler(func(_ context.Context, r interface{}) {
		logger.Error("analysis worker panicked", zap.Any("panic", r))
	})
	return &Analyzer{pool: pool, logger: logger}
}

// Run computes every request and returns the results in request order. A failing request yields
// a Result with Err set and never stops the others. Requests not yet started when ctx is done
// report ctx.Err().
func (a *Analyzer) Run(ctx context.Context, reqs []Request) []Result {
	results := make([]Result, len(reqs))

	var wg sync.WaitGroup
	wg.Add(len(reqs))
	for i := range reqs {
		a.pool.CtxGo(ctx, func() {
			defer wg.Done()
			results[i] = a.run(ctx, reqs[i])
		})
	}
	wg.Wait()

	return results
}

func (a *Analyzer) run(ctx context.Context, req Request) (res Result) {
	res = Result{
		RequestID: uuid.New().String(),
		Market:    req.Market,
		Spec:      req.Spec,
	}
	if err := ctx.Err(); err != nil {
		res.Err = err
		return res
	}

	started := time.Now()
	defer func() {
		if r := recover(); r != nil {
			res.Table = nil
			res.Err = errors.Errorf("indicator %s panicked: %v", req.Spec.Name, r)
		}
		res.Took = time.Since(started)

		if res.Err != nil {
			a.logger.Warn("indicator failed",
				zap.String("request_id", res.RequestID),
				zap.String("market", res.Market),
				zap.String("indicator", res.Spec.Label()),
				zap.Error(res.Err),
			)
			return
		}
		a.logger.Debug("indicator computed",
			zap.String("request_id", res.RequestID),
			zap.String("market", res.Market),
			zap.String("indicator", res.Spec.Label()),
			zap.Duration("took", res.Took),
		)
	}()

	if req.Data == nil {
		res.Err = errors.Errorf("request for %s has no data", req.Spec.Name)
		return res
	}

	spec, err := Resolve(req.Spec)
	if err != nil {
		res.Err = err
		return res
	}
	res.Spec = spec
	res.Table, res.Err = Compute(req.Data, spec)
	return res
}
