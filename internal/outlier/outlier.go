// Package outlier flags freshly extracted prices that are statistically
// implausible relative to a product's recent accepted history.
package outlier

import "github.com/sells-group/pricewatch/internal/stats"

// Filter compares candidate prices against historical statistics. Both
// factors come from configuration; price volatility differs by product
// category, so they are never hardcoded at call sites.
type Filter struct {
	UpFactor   float64
	DownFactor float64
}

// NewFilter creates a Filter with the given rejection factors.
func NewFilter(upFactor, downFactor float64) *Filter {
	if upFactor <= 0 {
		upFactor = 3.0
	}
	if downFactor <= 0 {
		downFactor = 0.33
	}
	return &Filter{UpFactor: upFactor, DownFactor: downFactor}
}

// IsOutlier reports whether price is an implausible jump or drop against the
// snapshot's median. A nil snapshot (no statistical basis) or a non-positive
// median never rejects: first readings are always trusted.
func (f *Filter) IsOutlier(price float64, snap *stats.Snapshot) bool {
	if snap == nil || snap.Median <= 0 {
		return false
	}
	return price > snap.Median*f.UpFactor || price < snap.Median*f.DownFactor
}
