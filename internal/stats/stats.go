// Package stats computes robust statistics over a product's recent accepted
// price history.
package stats

import (
	"context"

	mstats "github.com/montanaflynn/stats"
	"github.com/rotisserie/eris"
)

// ErrInsufficient is returned when a product has too few accepted samples to
// form a statistical basis for judging new readings.
var ErrInsufficient = eris.New("stats: insufficient history")

// Snapshot holds point-in-time statistics over a bounded recent window of
// accepted prices. It is derived and ephemeral: recomputed fresh on each
// evaluation, never cached across rounds.
type Snapshot struct {
	Count  int
	Median float64
	Mean   float64
	Min    float64
	Max    float64
}

// PriceHistory supplies the most recent accepted, positive-valued prices for
// a product, newest first.
type PriceHistory interface {
	RecentAcceptedPrices(ctx context.Context, productID string, window int) ([]float64, error)
}

// Provider computes snapshots from a price history source.
type Provider struct {
	history    PriceHistory
	window     int
	minSamples int
}

// NewProvider creates a Provider. window is the maximum number of recent
// samples considered; minSamples is the qualifying floor below which
// ErrInsufficient is returned.
func NewProvider(history PriceHistory, window, minSamples int) *Provider {
	if window <= 0 {
		window = 30
	}
	if minSamples <= 0 {
		minSamples = 3
	}
	return &Provider{history: history, window: window, minSamples: minSamples}
}

// For computes the snapshot for a product.
func (p *Provider) For(ctx context.Context, productID string) (*Snapshot, error) {
	prices, err := p.history.RecentAcceptedPrices(ctx, productID, p.window)
	if err != nil {
		return nil, eris.Wrapf(err, "stats: history for %s", productID)
	}
	if len(prices) < p.minSamples {
		return nil, ErrInsufficient
	}

	data := mstats.Float64Data(prices)
	median, err := data.Median()
	if err != nil {
		return nil, eris.Wrap(err, "stats: median")
	}
	mean, err := data.Mean()
	if err != nil {
		return nil, eris.Wrap(err, "stats: mean")
	}
	min, err := data.Min()
	if err != nil {
		return nil, eris.Wrap(err, "stats: min")
	}
	max, err := data.Max()
	if err != nil {
		return nil, eris.Wrap(err, "stats: max")
	}

	return &Snapshot{
		Count:  len(prices),
		Median: median,
		Mean:   mean,
		Min:    min,
		Max:    max,
	}, nil
}
