package stats

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeHistory struct {
	prices []float64
	err    error
	window int
}

func (f *fakeHistory) RecentAcceptedPrices(_ context.Context, _ string, window int) ([]float64, error) {
	f.window = window
	return f.prices, f.err
}

func TestFor_ComputesSnapshot(t *testing.T) {
	h := &fakeHistory{prices: []float64{100, 110, 90, 105}}
	p := NewProvider(h, 30, 3)

	snap, err := p.For(context.Background(), "prod-1")
	require.NoError(t, err)

	assert.Equal(t, 4, snap.Count)
	assert.InDelta(t, 102.5, snap.Median, 1e-9)
	assert.InDelta(t, 101.25, snap.Mean, 1e-9)
	assert.InDelta(t, 90, snap.Min, 1e-9)
	assert.InDelta(t, 110, snap.Max, 1e-9)
	assert.Equal(t, 30, h.window)
}

func TestFor_OddSampleMedian(t *testing.T) {
	h := &fakeHistory{prices: []float64{50, 200, 100}}
	p := NewProvider(h, 30, 3)

	snap, err := p.For(context.Background(), "prod-1")
	require.NoError(t, err)
	assert.InDelta(t, 100, snap.Median, 1e-9)
}

func TestFor_InsufficientHistory(t *testing.T) {
	h := &fakeHistory{prices: []float64{100, 101}}
	p := NewProvider(h, 30, 3)

	_, err := p.For(context.Background(), "prod-1")
	assert.ErrorIs(t, err, ErrInsufficient)
}

func TestFor_EmptyHistory(t *testing.T) {
	h := &fakeHistory{}
	p := NewProvider(h, 30, 3)

	_, err := p.For(context.Background(), "prod-1")
	assert.ErrorIs(t, err, ErrInsufficient)
}

func TestFor_HistoryError(t *testing.T) {
	h := &fakeHistory{err: errors.New("db gone")}
	p := NewProvider(h, 30, 3)

	_, err := p.For(context.Background(), "prod-1")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrInsufficient)
}

func TestNewProvider_Defaults(t *testing.T) {
	h := &fakeHistory{prices: []float64{1, 2, 3}}
	p := NewProvider(h, 0, 0)

	_, err := p.For(context.Background(), "prod-1")
	require.NoError(t, err)
	assert.Equal(t, 30, h.window)
}
