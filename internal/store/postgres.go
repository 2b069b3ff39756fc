package store

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/sells-group/pricewatch/internal/model"
)

// Pool abstracts the pgx pool operations the store needs. Satisfied by
// *pgxpool.Pool and by pgxmock in tests.
type Pool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Ping(ctx context.Context) error
	Close()
}

// PostgresStore implements Store using pgxpool.
type PostgresStore struct {
	pool Pool
}

// NewPostgres creates a PostgresStore with a connection pool.
func NewPostgres(ctx context.Context, connString string) (*PostgresStore, error) {
	pgxCfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}
	pgxCfg.MaxConns = 4
	pgxCfg.MinConns = 1
	pgxCfg.MaxConnLifetime = 30 * time.Minute
	pgxCfg.MaxConnIdleTime = 5 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, pgxCfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: create pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "postgres: ping")
	}
	return &PostgresStore{pool: pool}, nil
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS products (
	id         TEXT PRIMARY KEY,
	name       TEXT NOT NULL,
	url        TEXT NOT NULL UNIQUE,
	image_url  TEXT,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS prices (
	id         TEXT PRIMARY KEY,
	product_id TEXT NOT NULL REFERENCES products(id),
	price      DOUBLE PRECISION,
	status     TEXT NOT NULL DEFAULT 'ok',
	date       TIMESTAMPTZ NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_prices_product_date ON prices(product_id, date DESC);
CREATE INDEX IF NOT EXISTS idx_prices_date ON prices(date);
CREATE INDEX IF NOT EXISTS idx_prices_status ON prices(status);
`

func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}

func (s *PostgresStore) AddProduct(ctx context.Context, name, url, imageURL string) (*model.Product, bool, error) {
	existing, err := s.productByURL(ctx, url)
	if err != nil {
		return nil, false, err
	}
	if existing != nil {
		return existing, false, nil
	}

	p := &model.Product{
		ID:        uuid.New().String(),
		Name:      name,
		URL:       url,
		ImageURL:  imageURL,
		CreatedAt: time.Now().UTC(),
	}

	var image *string
	if imageURL != "" {
		image = &imageURL
	}
	_, err = s.pool.Exec(ctx,
		`INSERT INTO products (id, name, url, image_url, created_at) VALUES ($1, $2, $3, $4, $5)`,
		p.ID, p.Name, p.URL, image, p.CreatedAt,
	)
	if err != nil {
		return nil, false, eris.Wrap(err, "postgres: insert product")
	}
	return p, true, nil
}

func (s *PostgresStore) productByURL(ctx context.Context, url string) (*model.Product, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT id, name, url, image_url, created_at FROM products WHERE url = $1`, url)
	p, err := scanPgProduct(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrap(err, "postgres: product by url")
	}
	return p, nil
}

func (s *PostgresStore) ListProducts(ctx context.Context) ([]model.Product, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, name, url, image_url, created_at FROM products ORDER BY created_at, id`)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list products")
	}
	defer rows.Close()

	var products []model.Product
	for rows.Next() {
		p, err := scanPgProduct(rows)
		if err != nil {
			return nil, eris.Wrap(err, "postgres: scan product")
		}
		products = append(products, *p)
	}
	return products, eris.Wrap(rows.Err(), "postgres: iterate products")
}

func (s *PostgresStore) GetProduct(ctx context.Context, id string) (*model.Product, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT id, name, url, image_url, created_at FROM products WHERE id = $1`, id)
	p, err := scanPgProduct(row)
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: get product %s", id)
	}
	return p, nil
}

func (s *PostgresStore) InsertSample(ctx context.Context, sample model.PriceSample) error {
	id := sample.ID
	if id == "" {
		id = uuid.New().String()
	}
	_, err := s.pool.Exec(ctx,
		`INSERT INTO prices (id, product_id, price, status, date) VALUES ($1, $2, $3, $4, $5)`,
		id, sample.ProductID, sample.Price, string(sample.Status), sample.Date.UTC(),
	)
	return eris.Wrapf(err, "postgres: insert sample for %s", sample.ProductID)
}

func (s *PostgresStore) RecentAcceptedPrices(ctx context.Context, productID string, window int) ([]float64, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT price FROM prices
		 WHERE product_id = $1 AND status = $2 AND price IS NOT NULL AND price > 0
		 ORDER BY date DESC LIMIT $3`,
		productID, string(model.SampleOK), window,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: recent accepted prices")
	}
	defer rows.Close()

	var prices []float64
	for rows.Next() {
		var p float64
		if err := rows.Scan(&p); err != nil {
			return nil, eris.Wrap(err, "postgres: scan price")
		}
		prices = append(prices, p)
	}
	return prices, eris.Wrap(rows.Err(), "postgres: iterate prices")
}

func (s *PostgresStore) RecentSamples(ctx context.Context, productID string, limit int) ([]model.PriceSample, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, product_id, price, status, date FROM prices
		 WHERE product_id = $1 ORDER BY date DESC LIMIT $2`,
		productID, limit,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: recent samples")
	}
	defer rows.Close()

	var samples []model.PriceSample
	for rows.Next() {
		var (
			sm    model.PriceSample
			price *float64
			st    string
		)
		if err := rows.Scan(&sm.ID, &sm.ProductID, &price, &st, &sm.Date); err != nil {
			return nil, eris.Wrap(err, "postgres: scan sample")
		}
		sm.Price = price
		sm.Status = model.SampleStatus(st)
		samples = append(samples, sm)
	}
	return samples, eris.Wrap(rows.Err(), "postgres: iterate samples")
}

func (s *PostgresStore) CountSamplesByStatus(ctx context.Context, since time.Time) (map[model.SampleStatus]int, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT status, COUNT(*) FROM prices WHERE date >= $1 GROUP BY status`,
		since.UTC(),
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: count samples")
	}
	defer rows.Close()

	counts := make(map[model.SampleStatus]int)
	for rows.Next() {
		var (
			st string
			n  int
		)
		if err := rows.Scan(&st, &n); err != nil {
			return nil, eris.Wrap(err, "postgres: scan count")
		}
		counts[model.SampleStatus(st)] = n
	}
	return counts, eris.Wrap(rows.Err(), "postgres: iterate counts")
}

func (s *PostgresStore) LastRoundTime(ctx context.Context) (time.Time, error) {
	var ts *time.Time
	err := s.pool.QueryRow(ctx, `SELECT MAX(date) FROM prices`).Scan(&ts)
	if err != nil {
		return time.Time{}, eris.Wrap(err, "postgres: last round time")
	}
	if ts == nil {
		return time.Time{}, nil
	}
	return ts.UTC(), nil
}

func scanPgProduct(row pgx.Row) (*model.Product, error) {
	var (
		p     model.Product
		image *string
	)
	if err := row.Scan(&p.ID, &p.Name, &p.URL, &image, &p.CreatedAt); err != nil {
		return nil, err
	}
	if image != nil {
		p.ImageURL = *image
	}
	return &p, nil
}
