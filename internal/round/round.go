// Package round drives one complete collection pass over all tracked
// products: fetch, extract, outlier-check, persist. Exactly one tagged
// outcome is written per product per round, whatever happens, so downstream
// consumers can rely on one row per product per round.
package round

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/sells-group/pricewatch/internal/extract"
	"github.com/sells-group/pricewatch/internal/fetch"
	"github.com/sells-group/pricewatch/internal/model"
	"github.com/sells-group/pricewatch/internal/outlier"
	"github.com/sells-group/pricewatch/internal/resilience"
	"github.com/sells-group/pricewatch/internal/stats"
	"github.com/sells-group/pricewatch/internal/store"
)

// Options tunes round pacing and the per-product retry policy.
type Options struct {
	// Retry is the fetch+extract retry policy per product.
	Retry resilience.RetryConfig

	// ProductDelay throttles successive products to avoid triggering
	// anti-automation defenses on the scraped origin. Zero disables the
	// throttle (tests).
	ProductDelay time.Duration

	// Concurrency bounds parallel product processing. Values below 2 keep
	// the default fully sequential behavior; higher values share one global
	// throttle across workers.
	Concurrency int
}

// Runner orchestrates collection rounds.
type Runner struct {
	store     store.Store
	fetcher   fetch.Fetcher
	extractor *extract.Extractor
	stats     *stats.Provider
	filter    *outlier.Filter
	opts      Options
}

// NewRunner creates a Runner from its collaborators.
func NewRunner(st store.Store, f fetch.Fetcher, ex *extract.Extractor, sp *stats.Provider, fl *outlier.Filter, opts Options) *Runner {
	return &Runner{
		store:     st,
		fetcher:   f,
		extractor: ex,
		stats:     sp,
		filter:    fl,
		opts:      opts,
	}
}

// Run executes one round over all tracked products. A single product's
// failure never aborts the round; the summary counters are the round's only
// external success signal. The returned error covers environment problems
// only (product list unavailable).
func (r *Runner) Run(ctx context.Context) (*model.RoundSummary, error) {
	products, err := r.store.ListProducts(ctx)
	if err != nil {
		return nil, eris.Wrap(err, "round: list products")
	}

	// One timestamp shared by every sample written this round.
	ts := time.Now().UTC().Truncate(time.Second)
	summary := &model.RoundSummary{Timestamp: ts, Products: len(products)}

	if len(products) == 0 {
		zap.L().Info("round: no products registered")
		return summary, nil
	}

	zap.L().Info("round: starting",
		zap.Time("timestamp", ts),
		zap.Int("products", len(products)),
	)

	var limiter *rate.Limiter
	if r.opts.ProductDelay > 0 {
		limiter = rate.NewLimiter(rate.Every(r.opts.ProductDelay), 1)
	}

	var mu sync.Mutex
	tally := func(status model.SampleStatus) {
		mu.Lock()
		defer mu.Unlock()
		switch status {
		case model.SampleOK:
			summary.OK++
		case model.SampleFailed:
			summary.Failed++
		case model.SampleOutlier:
			summary.Outlier++
		}
	}

	process := func(ctx context.Context, p model.Product) {
		if limiter != nil {
			if err := limiter.Wait(ctx); err != nil {
				tally(r.persist(ctx, p, nil, model.SampleFailed, ts))
				return
			}
		}
		tally(r.collect(ctx, p, ts))
	}

	if r.opts.Concurrency > 1 {
		g, gCtx := errgroup.WithContext(ctx)
		g.SetLimit(r.opts.Concurrency)
		for _, p := range products {
			g.Go(func() error {
				process(gCtx, p)
				return nil
			})
		}
		_ = g.Wait()
	} else {
		for _, p := range products {
			process(ctx, p)
		}
	}

	zap.L().Info("round: finished",
		zap.Time("timestamp", ts),
		zap.Int("ok", summary.OK),
		zap.Int("failed", summary.Failed),
		zap.Int("outlier", summary.Outlier),
	)

	return summary, nil
}

// collect resolves one product's outcome and persists it, returning the
// status actually recorded.
func (r *Runner) collect(ctx context.Context, p model.Product, ts time.Time) model.SampleStatus {
	log := zap.L().With(zap.String("product", p.Name), zap.String("url", p.URL))

	price, err := r.resolvePrice(ctx, p)
	if err != nil {
		log.Warn("round: price resolution failed", zap.Error(err))
		return r.persist(ctx, p, nil, model.SampleFailed, ts)
	}

	status := model.SampleOK
	snap, err := r.stats.For(ctx, p.ID)
	switch {
	case err == nil:
		if r.filter.IsOutlier(price, snap) {
			log.Warn("round: price flagged as outlier",
				zap.Float64("price", price),
				zap.Float64("median", snap.Median),
				zap.Int("history", snap.Count),
			)
			status = model.SampleOutlier
		}
	case errors.Is(err, stats.ErrInsufficient):
		// No statistical basis: first readings are always trusted.
	default:
		log.Warn("round: stats unavailable, accepting reading", zap.Error(err))
	}

	if status == model.SampleOK {
		log.Info("round: price collected", zap.Float64("price", price))
	}
	return r.persist(ctx, p, &price, status, ts)
}

// resolvePrice runs the fetch+extract cycle under the retry policy. Both
// network failures and extraction misses re-fetch, since markup is often
// flaky or inconsistently rendered between requests.
func (r *Runner) resolvePrice(ctx context.Context, p model.Product) (float64, error) {
	cfg := r.opts.Retry
	if cfg.ShouldRetry == nil {
		cfg.ShouldRetry = func(err error) bool {
			return resilience.IsTransient(err) || errors.Is(err, extract.ErrNoPrice)
		}
	}
	if cfg.OnRetry == nil {
		cfg.OnRetry = resilience.RetryLogger("resolve_price", p.URL)
	}

	return resilience.DoVal(ctx, cfg, func(ctx context.Context) (float64, error) {
		body, err := r.fetcher.Fetch(ctx, p.URL)
		if err != nil {
			return 0, err
		}
		return r.extractor.Price(body)
	})
}

// persist writes the product's single outcome row for this round. A write
// failure is logged and the round moves on; partial progress already written
// stays intact.
func (r *Runner) persist(ctx context.Context, p model.Product, price *float64, status model.SampleStatus, ts time.Time) model.SampleStatus {
	sample := model.PriceSample{
		ProductID: p.ID,
		Price:     price,
		Status:    status,
		Date:      ts,
	}
	if err := r.store.InsertSample(ctx, sample); err != nil {
		zap.L().Error("round: persist failed",
			zap.String("product", p.Name),
			zap.String("status", string(status)),
			zap.Error(err),
		)
	}
	return status
}
