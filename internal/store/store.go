// Package store persists tracked products and their price history. The
// prices table is append-only: samples are never updated or deleted.
package store

import (
	"context"
	"time"

	"github.com/sells-group/pricewatch/internal/model"
)

// Store defines the persistence interface for the price collection pipeline.
type Store interface {
	// Products (read-only to the pipeline; written by the products commands).
	AddProduct(ctx context.Context, name, url, imageURL string) (*model.Product, bool, error)
	ListProducts(ctx context.Context) ([]model.Product, error)
	GetProduct(ctx context.Context, id string) (*model.Product, error)

	// Samples (append-only, written by the round orchestrator).
	InsertSample(ctx context.Context, sample model.PriceSample) error
	RecentAcceptedPrices(ctx context.Context, productID string, window int) ([]float64, error)
	RecentSamples(ctx context.Context, productID string, limit int) ([]model.PriceSample, error)

	// Monitoring.
	CountSamplesByStatus(ctx context.Context, since time.Time) (map[model.SampleStatus]int, error)
	LastRoundTime(ctx context.Context) (time.Time, error)

	// Lifecycle.
	Migrate(ctx context.Context) error
	Close() error
}
