package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/pricewatch/internal/model"
)

func newTestSQLiteStore(t *testing.T) *SQLiteStore {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "test.db")
	st, err := NewSQLite(dbPath)
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() }) //nolint:errcheck
	require.NoError(t, st.Migrate(context.Background()))
	return st
}

func ptr(v float64) *float64 { return &v }

func TestSQLite_AddProduct_Dedupe(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	p, created, err := st.AddProduct(ctx, "Teclado Gamer", "https://shop.example/teclado", "")
	require.NoError(t, err)
	assert.True(t, created)
	assert.NotEmpty(t, p.ID)

	again, created, err := st.AddProduct(ctx, "Teclado Gamer (renomeado)", "https://shop.example/teclado", "")
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, p.ID, again.ID)
	assert.Equal(t, "Teclado Gamer", again.Name)

	products, err := st.ListProducts(ctx)
	require.NoError(t, err)
	assert.Len(t, products, 1)
}

func TestSQLite_GetProduct(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	p, _, err := st.AddProduct(ctx, "Monitor", "https://shop.example/monitor", "https://img.example/m.jpg")
	require.NoError(t, err)

	got, err := st.GetProduct(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, "Monitor", got.Name)
	assert.Equal(t, "https://img.example/m.jpg", got.ImageURL)

	_, err = st.GetProduct(ctx, "missing")
	assert.Error(t, err)
}

func TestSQLite_InsertSample_NullPrice(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	p, _, err := st.AddProduct(ctx, "Mouse", "https://shop.example/mouse", "")
	require.NoError(t, err)

	round := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)
	require.NoError(t, st.InsertSample(ctx, model.PriceSample{
		ProductID: p.ID,
		Price:     nil,
		Status:    model.SampleFailed,
		Date:      round,
	}))

	samples, err := st.RecentSamples(ctx, p.ID, 10)
	require.NoError(t, err)
	require.Len(t, samples, 1)
	assert.Nil(t, samples[0].Price)
	assert.Equal(t, model.SampleFailed, samples[0].Status)
	assert.True(t, samples[0].Date.Equal(round))
}

func TestSQLite_RecentAcceptedPrices_FiltersAndOrders(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	p, _, err := st.AddProduct(ctx, "GPU", "https://shop.example/gpu", "")
	require.NoError(t, err)

	base := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	insert := func(price *float64, status model.SampleStatus, offset time.Duration) {
		t.Helper()
		require.NoError(t, st.InsertSample(ctx, model.PriceSample{
			ProductID: p.ID,
			Price:     price,
			Status:    status,
			Date:      base.Add(offset),
		}))
	}

	insert(ptr(100), model.SampleOK, 0)
	insert(ptr(110), model.SampleOK, time.Hour)
	insert(nil, model.SampleFailed, 2*time.Hour)
	insert(ptr(900), model.SampleOutlier, 3*time.Hour) // excluded by status
	insert(ptr(120), model.SampleOK, 4*time.Hour)

	prices, err := st.RecentAcceptedPrices(ctx, p.ID, 30)
	require.NoError(t, err)
	// Newest first; failed and outlier rows excluded.
	assert.Equal(t, []float64{120, 110, 100}, prices)

	// Window truncates to the most recent entries.
	prices, err = st.RecentAcceptedPrices(ctx, p.ID, 2)
	require.NoError(t, err)
	assert.Equal(t, []float64{120, 110}, prices)
}

func TestSQLite_RecentAcceptedPrices_EmptyHistory(t *testing.T) {
	st := newTestSQLiteStore(t)

	prices, err := st.RecentAcceptedPrices(context.Background(), "nobody", 30)
	require.NoError(t, err)
	assert.Empty(t, prices)
}

func TestSQLite_CountSamplesByStatus(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	p, _, err := st.AddProduct(ctx, "SSD", "https://shop.example/ssd", "")
	require.NoError(t, err)

	now := time.Now().UTC()
	for i, status := range []model.SampleStatus{
		model.SampleOK, model.SampleOK, model.SampleFailed, model.SampleOutlier,
	} {
		require.NoError(t, st.InsertSample(ctx, model.PriceSample{
			ProductID: p.ID,
			Price:     ptr(float64(100 + i)),
			Status:    status,
			Date:      now,
		}))
	}

	counts, err := st.CountSamplesByStatus(ctx, now.Add(-time.Minute))
	require.NoError(t, err)
	assert.Equal(t, 2, counts[model.SampleOK])
	assert.Equal(t, 1, counts[model.SampleFailed])
	assert.Equal(t, 1, counts[model.SampleOutlier])

	counts, err = st.CountSamplesByStatus(ctx, now.Add(time.Minute))
	require.NoError(t, err)
	assert.Empty(t, counts)
}

func TestSQLite_LastRoundTime(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	ts, err := st.LastRoundTime(ctx)
	require.NoError(t, err)
	assert.True(t, ts.IsZero())

	p, _, err := st.AddProduct(ctx, "RAM", "https://shop.example/ram", "")
	require.NoError(t, err)

	round := time.Date(2026, 8, 30, 15, 0, 0, 0, time.UTC)
	require.NoError(t, st.InsertSample(ctx, model.PriceSample{
		ProductID: p.ID, Price: ptr(250), Status: model.SampleOK, Date: round,
	}))

	ts, err = st.LastRoundTime(ctx)
	require.NoError(t, err)
	assert.True(t, ts.Equal(round))
}
