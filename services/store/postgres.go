package store

import (
	"context"
	"database/sql"

	_ "github.com/lib/pq"

	"konbiniwatch/internal/normalize"
	"konbiniwatch/logger"
	"konbiniwatch/pkg/errors"
)

// ProductStore persists normalized product records
type ProductStore struct {
	db *sql.DB
}

// Open connects to PostgreSQL and verifies the connection
func Open(databaseURL string) (*ProductStore, error) {
	db, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, errors.NewPersistence("", "failed to open database", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, errors.NewPersistence("", "failed to ping database", err)
	}
	return &ProductStore{db: db}, nil
}

// NewWithDB wraps an existing connection, used by tests
func NewWithDB(db *sql.DB) *ProductStore {
	return &ProductStore{db: db}
}

// CreateTables creates the products table if it does not exist
func (s *ProductStore) CreateTables() error {
	query := `
	CREATE TABLE IF NOT EXISTS products (
		id SERIAL PRIMARY KEY,
		brand_id TEXT NOT NULL,
		original_name TEXT NOT NULL,
		translated_name TEXT NOT NULL DEFAULT '',
		price_amount INTEGER,
		price_currency TEXT NOT NULL DEFAULT 'JPY',
		price_note TEXT NOT NULL DEFAULT '',
		image_url TEXT NOT NULL DEFAULT '',
		release_date TEXT NOT NULL DEFAULT '',
		source_url TEXT NOT NULL,
		is_new BOOLEAN NOT NULL DEFAULT FALSE,
		first_seen_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);
	CREATE INDEX IF NOT EXISTS idx_products_brand ON products (brand_id);
	CREATE INDEX IF NOT EXISTS idx_products_source_url ON products (source_url);
	`
	if _, err := s.db.Exec(query); err != nil {
		return errors.NewPersistence("", "failed to create tables", err)
	}
	return nil
}

// Upsert writes one record inside a transaction. An existing row is
// looked up by original name and source URL first, then by translated
// name and source URL, then by source URL alone. The chain keeps a
// re-crawl from duplicating a product whose AI translation changed
// between sweeps.
func (s *ProductStore) Upsert(ctx context.Context, brandID string, rec *normalize.ProductRecord) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return errors.NewPersistence(brandID, "failed to begin transaction", err)
	}
	defer tx.Rollback()

	id, err := s.findExisting(ctx, tx, brandID, rec)
	if err != nil {
		return errors.NewPersistence(brandID, "failed to look up existing product", err)
	}

	var amount sql.NullInt64
	currency := normalize.DefaultCurrency
	note := ""
	if rec.Price != nil {
		amount = sql.NullInt64{Int64: int64(rec.Price.Amount), Valid: true}
		currency = rec.Price.Currency
		note = rec.Price.Note
	}

	if id == 0 {
		err = tx.QueryRowContext(ctx, `
			INSERT INTO products (brand_id, original_name, translated_name, price_amount,
				price_currency, price_note, image_url, release_date, source_url, is_new)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
			RETURNING id`,
			brandID, rec.OriginalName, rec.TranslatedName, amount,
			currency, note, rec.ImageURL, rec.ReleaseDate, rec.SourceURL, rec.IsNew,
		).Scan(&id)
		if err != nil {
			return errors.NewPersistence(brandID, "failed to insert product", err)
		}
		logger.ForStore().Debug().
			Str("brand", brandID).
			Str("name", rec.OriginalName).
			Msg("Inserted product")
	} else {
		_, err = tx.ExecContext(ctx, `
			UPDATE products
			SET original_name = $1, translated_name = $2, price_amount = $3,
				price_currency = $4, price_note = $5, image_url = $6,
				release_date = $7, source_url = $8, is_new = $9, updated_at = NOW()
			WHERE id = $10`,
			rec.OriginalName, rec.TranslatedName, amount,
			currency, note, rec.ImageURL,
			rec.ReleaseDate, rec.SourceURL, rec.IsNew, id,
		)
		if err != nil {
			return errors.NewPersistence(brandID, "failed to update product", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return errors.NewPersistence(brandID, "failed to commit transaction", err)
	}
	return nil
}

// findExisting resolves a record to a stored row id, or 0 when no row
// matches any identity in the chain.
func (s *ProductStore) findExisting(ctx context.Context, tx *sql.Tx, brandID string, rec *normalize.ProductRecord) (int64, error) {
	lookups := []struct {
		query string
		args  []any
	}{
		{
			`SELECT id FROM products WHERE brand_id = $1 AND original_name = $2 AND source_url = $3`,
			[]any{brandID, rec.OriginalName, rec.SourceURL},
		},
		{
			`SELECT id FROM products WHERE brand_id = $1 AND translated_name = $2 AND translated_name <> '' AND source_url = $3`,
			[]any{brandID, rec.TranslatedName, rec.SourceURL},
		},
		{
			`SELECT id FROM products WHERE brand_id = $1 AND source_url = $2`,
			[]any{brandID, rec.SourceURL},
		},
	}
	for _, l := range lookups {
		var id int64
		err := tx.QueryRowContext(ctx, l.query, l.args...).Scan(&id)
		if err == nil {
			return id, nil
		}
		if err != sql.ErrNoRows {
			return 0, err
		}
	}
	return 0, nil
}

// CountByBrand returns the number of stored products for a brand
func (s *ProductStore) CountByBrand(ctx context.Context, brandID string) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM products WHERE brand_id = $1`, brandID).Scan(&n)
	if err != nil {
		return 0, errors.NewPersistence(brandID, "failed to count products", err)
	}
	return n, nil
}

// Close closes the underlying connection pool
func (s *ProductStore) Close() error {
	return s.db.Close()
}
