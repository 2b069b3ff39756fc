package model

import "time"

// SampleStatus tags the outcome recorded for a product in one round.
type SampleStatus string

const (
	// SampleOK is an accepted reading; Price holds the extracted value.
	SampleOK SampleStatus = "ok"
	// SampleFailed means fetch or extraction exhausted its attempt budget;
	// Price is null.
	SampleFailed SampleStatus = "failed"
	// SampleOutlier is a reading rejected by the outlier filter. The price is
	// still recorded so the rejection stays auditable, but consumers exclude
	// it by status.
	SampleOutlier SampleStatus = "outlier"
)

// PriceSample is one append-only row in the prices table. Exactly one sample
// is written per product per round, whatever the outcome.
type PriceSample struct {
	ID        string       `json:"id"`
	ProductID string       `json:"product_id"`
	Price     *float64     `json:"price,omitempty"`
	Status    SampleStatus `json:"status"`
	Date      time.Time    `json:"date"`
}

// RoundSummary holds the per-status counters for one collection round. It is
// the round's only external success signal.
type RoundSummary struct {
	Timestamp time.Time `json:"timestamp"`
	Products  int       `json:"products"`
	OK        int       `json:"ok"`
	Failed    int       `json:"failed"`
	Outlier   int       `json:"outlier"`
}
