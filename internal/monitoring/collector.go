// Package monitoring summarizes collection health from the persisted sample
// history.
package monitoring

import (
	"context"
	"time"

	"github.com/rotisserie/eris"

	"github.com/sells-group/pricewatch/internal/model"
	"github.com/sells-group/pricewatch/internal/store"
)

// Snapshot holds a point-in-time view of collection health.
type Snapshot struct {
	Products    int       `json:"products"`
	SamplesOK   int       `json:"samples_ok"`
	SamplesFail int       `json:"samples_failed"`
	SamplesOut  int       `json:"samples_outlier"`
	FailRate    float64   `json:"fail_rate"`
	LastRound   time.Time `json:"last_round"`

	LookbackHours int       `json:"lookback_hours"`
	CollectedAt   time.Time `json:"collected_at"`
}

// Collector gathers metrics from the store.
type Collector struct {
	store store.Store
}

// NewCollector creates a metrics collector.
func NewCollector(st store.Store) *Collector {
	return &Collector{store: st}
}

// Collect gathers a snapshot over the given lookback window.
func (c *Collector) Collect(ctx context.Context, lookbackHours int) (*Snapshot, error) {
	snap := &Snapshot{
		LookbackHours: lookbackHours,
		CollectedAt:   time.Now().UTC(),
	}

	products, err := c.store.ListProducts(ctx)
	if err != nil {
		return nil, eris.Wrap(err, "monitoring: list products")
	}
	snap.Products = len(products)

	cutoff := snap.CollectedAt.Add(-time.Duration(lookbackHours) * time.Hour)
	counts, err := c.store.CountSamplesByStatus(ctx, cutoff)
	if err != nil {
		return nil, eris.Wrap(err, "monitoring: count samples")
	}
	snap.SamplesOK = counts[model.SampleOK]
	snap.SamplesFail = counts[model.SampleFailed]
	snap.SamplesOut = counts[model.SampleOutlier]

	total := snap.SamplesOK + snap.SamplesFail + snap.SamplesOut
	if total > 0 {
		snap.FailRate = float64(snap.SamplesFail) / float64(total)
	}

	last, err := c.store.LastRoundTime(ctx)
	if err != nil {
		return nil, eris.Wrap(err, "monitoring: last round")
	}
	snap.LastRound = last

	return snap, nil
}
