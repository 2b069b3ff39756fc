package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/sells-group/pricewatch/internal/model"
)

// SQLiteStore implements Store using modernc.org/sqlite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA foreign_keys=ON",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS products (
	id         TEXT PRIMARY KEY,
	name       TEXT NOT NULL,
	url        TEXT NOT NULL UNIQUE,
	image_url  TEXT,
	created_at DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE TABLE IF NOT EXISTS prices (
	id         TEXT PRIMARY KEY,
	product_id TEXT NOT NULL REFERENCES products(id),
	price      REAL,
	status     TEXT NOT NULL DEFAULT 'ok',
	date       TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_prices_product_date ON prices(product_id, date DESC);
CREATE INDEX IF NOT EXISTS idx_prices_date ON prices(date);
CREATE INDEX IF NOT EXISTS idx_prices_status ON prices(status);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) AddProduct(ctx context.Context, name, url, imageURL string) (*model.Product, bool, error) {
	// Products are deduplicated by URL.
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

	var image any
	if imageURL != "" {
		image = imageURL
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO products (id, name, url, image_url, created_at) VALUES (?, ?, ?, ?, ?)`,
		p.ID, p.Name, p.URL, image, p.CreatedAt,
	)
	if err != nil {
		return nil, false, eris.Wrap(err, "sqlite: insert product")
	}
	return p, true, nil
}

func (s *SQLiteStore) productByURL(ctx context.Context, url string) (*model.Product, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, name, url, image_url, created_at FROM products WHERE url = ?`, url)
	p, err := scanProduct(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: product by url")
	}
	return p, nil
}

func (s *SQLiteStore) ListProducts(ctx context.Context) ([]model.Product, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, name, url, image_url, created_at FROM products ORDER BY created_at, id`)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list products")
	}
	defer rows.Close()

	var products []model.Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, eris.Wrap(err, "sqlite: scan product")
		}
		products = append(products, *p)
	}
	return products, eris.Wrap(rows.Err(), "sqlite: iterate products")
}

func (s *SQLiteStore) GetProduct(ctx context.Context, id string) (*model.Product, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, name, url, image_url, created_at FROM products WHERE id = ?`, id)
	p, err := scanProduct(row)
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: get product %s", id)
	}
	return p, nil
}

func (s *SQLiteStore) InsertSample(ctx context.Context, sample model.PriceSample) error {
	id := sample.ID
	if id == "" {
		id = uuid.New().String()
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO prices (id, product_id, price, status, date) VALUES (?, ?, ?, ?, ?)`,
		id, sample.ProductID, sample.Price, string(sample.Status),
		sample.Date.UTC().Format(time.RFC3339),
	)
	return eris.Wrapf(err, "sqlite: insert sample for %s", sample.ProductID)
}

func (s *SQLiteStore) RecentAcceptedPrices(ctx context.Context, productID string, window int) ([]float64, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT price FROM prices
		 WHERE product_id = ? AND status = ? AND price IS NOT NULL AND price > 0
		 ORDER BY date DESC LIMIT ?`,
		productID, string(model.SampleOK), window,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: recent accepted prices")
	}
	defer rows.Close()

	var prices []float64
	for rows.Next() {
		var p float64
		if err := rows.Scan(&p); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan price")
		}
		prices = append(prices, p)
	}
	return prices, eris.Wrap(rows.Err(), "sqlite: iterate prices")
}

func (s *SQLiteStore) RecentSamples(ctx context.Context, productID string, limit int) ([]model.PriceSample, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, product_id, price, status, date FROM prices
		 WHERE product_id = ? ORDER BY date DESC LIMIT ?`,
		productID, limit,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: recent samples")
	}
	defer rows.Close()

	var samples []model.PriceSample
	for rows.Next() {
		var (
			sm    model.PriceSample
			price sql.NullFloat64
			st    string
			date  string
		)
		if err := rows.Scan(&sm.ID, &sm.ProductID, &price, &st, &date); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan sample")
		}
		if price.Valid {
			v := price.Float64
			sm.Price = &v
		}
		sm.Status = model.SampleStatus(st)
		ts, err := time.Parse(time.RFC3339, date)
		if err != nil {
			return nil, eris.Wrapf(err, "sqlite: parse sample date %q", date)
		}
		sm.Date = ts
		samples = append(samples, sm)
	}
	return samples, eris.Wrap(rows.Err(), "sqlite: iterate samples")
}

func (s *SQLiteStore) CountSamplesByStatus(ctx context.Context, since time.Time) (map[model.SampleStatus]int, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT status, COUNT(*) FROM prices WHERE date >= ? GROUP BY status`,
		since.UTC().Format(time.RFC3339),
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: count samples")
	}
	defer rows.Close()

	counts := make(map[model.SampleStatus]int)
	for rows.Next() {
		var (
			st string
			n  int
		)
		if err := rows.Scan(&st, &n); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan count")
		}
		counts[model.SampleStatus(st)] = n
	}
	return counts, eris.Wrap(rows.Err(), "sqlite: iterate counts")
}

func (s *SQLiteStore) LastRoundTime(ctx context.Context) (time.Time, error) {
	var date sql.NullString
	err := s.db.QueryRowContext(ctx, `SELECT MAX(date) FROM prices`).Scan(&date)
	if err != nil {
		return time.Time{}, eris.Wrap(err, "sqlite: last round time")
	}
	if !date.Valid {
		return time.Time{}, nil
	}
	ts, err := time.Parse(time.RFC3339, date.String)
	if err != nil {
		return time.Time{}, eris.Wrapf(err, "sqlite: parse round time %q", date.String)
	}
	return ts, nil
}

// scannable covers *sql.Row and *sql.Rows.
type scannable interface {
	Scan(dest ...any) error
}

func scanProduct(row scannable) (*model.Product, error) {
	var (
		p     model.Product
		image sql.NullString
	)
	if err := row.Scan(&p.ID, &p.Name, &p.URL, &image, &p.CreatedAt); err != nil {
		return nil, err
	}
	if image.Valid {
		p.ImageURL = image.String
	}
	return &p, nil
}
