package store

import (
	"context"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/pricewatch/internal/model"
)

// newMockPostgresStore creates a PostgresStore backed by pgxmock for unit testing.
func newMockPostgresStore(t *testing.T) (*PostgresStore, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool(pgxmock.QueryMatcherOption(pgxmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { mock.Close() })

	s := &PostgresStore{pool: mock}
	return s, mock
}

func TestPostgresStore_InsertSample(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectExec(`INSERT INTO prices`).
		WithArgs("sample-1", "prod-1", ptr(158.00), "ok", pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	err := s.InsertSample(context.Background(), model.PriceSample{
		ID:        "sample-1",
		ProductID: "prod-1",
		Price:     ptr(158.00),
		Status:    model.SampleOK,
		Date:      time.Now().UTC(),
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_InsertSample_NullPrice(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectExec(`INSERT INTO prices`).
		WithArgs(pgxmock.AnyArg(), "prod-1", (*float64)(nil), "failed", pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	err := s.InsertSample(context.Background(), model.PriceSample{
		ProductID: "prod-1",
		Status:    model.SampleFailed,
		Date:      time.Now().UTC(),
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_RecentAcceptedPrices(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	rows := pgxmock.NewRows([]string{"price"}).
		AddRow(120.0).AddRow(110.0).AddRow(100.0)
	mock.ExpectQuery(`SELECT price FROM prices`).
		WithArgs("prod-1", "ok", 30).
		WillReturnRows(rows)

	prices, err := s.RecentAcceptedPrices(context.Background(), "prod-1", 30)
	require.NoError(t, err)
	assert.Equal(t, []float64{120, 110, 100}, prices)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_GetProduct_NotFound(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectQuery(`SELECT id, name, url, image_url, created_at FROM products WHERE id = \$1`).
		WithArgs("missing").
		WillReturnError(pgx.ErrNoRows)

	_, err := s.GetProduct(context.Background(), "missing")
	require.Error(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_AddProduct_DedupeByURL(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	created := time.Now().UTC()
	rows := pgxmock.NewRows([]string{"id", "name", "url", "image_url", "created_at"}).
		AddRow("prod-1", "Teclado", "https://shop.example/teclado", (*string)(nil), created)
	mock.ExpectQuery(`SELECT id, name, url, image_url, created_at FROM products WHERE url = \$1`).
		WithArgs("https://shop.example/teclado").
		WillReturnRows(rows)

	p, wasCreated, err := s.AddProduct(context.Background(), "Teclado outro nome", "https://shop.example/teclado", "")
	require.NoError(t, err)
	assert.False(t, wasCreated)
	assert.Equal(t, "prod-1", p.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_AddProduct_Inserts(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectQuery(`SELECT id, name, url, image_url, created_at FROM products WHERE url = \$1`).
		WithArgs("https://shop.example/novo").
		WillReturnError(pgx.ErrNoRows)
	mock.ExpectExec(`INSERT INTO products`).
		WithArgs(pgxmock.AnyArg(), "Novo", "https://shop.example/novo", (*string)(nil), pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	p, wasCreated, err := s.AddProduct(context.Background(), "Novo", "https://shop.example/novo", "")
	require.NoError(t, err)
	assert.True(t, wasCreated)
	assert.NotEmpty(t, p.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_CountSamplesByStatus(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	rows := pgxmock.NewRows([]string{"status", "count"}).
		AddRow("ok", 5).AddRow("failed", 2).AddRow("outlier", 1)
	mock.ExpectQuery(`SELECT status, COUNT\(\*\) FROM prices`).
		WithArgs(pgxmock.AnyArg()).
		WillReturnRows(rows)

	counts, err := s.CountSamplesByStatus(context.Background(), time.Now().Add(-24*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, 5, counts[model.SampleOK])
	assert.Equal(t, 2, counts[model.SampleFailed])
	assert.Equal(t, 1, counts[model.SampleOutlier])
	assert.NoError(t, mock.ExpectationsWereMet())
}
