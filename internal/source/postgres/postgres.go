// Package postgres loads and stores records in a PostgreSQL postal_codes table.
package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/kailas-cloud/postalgeo/internal/domain"
	"github.com/kailas-cloud/postalgeo/internal/domain/postal"
	"github.com/kailas-cloud/postalgeo/internal/source"
)

// Name identifies this backend.
const Name = "postgres"

// Table is the relation holding the dataset.
const Table = "postal_codes"

const createTable = `CREATE TABLE IF NOT EXISTS postal_codes (
	code           text PRIMARY KEY,
	latitude       double precision NOT NULL,
	longitude      double precision NOT NULL,
	region_code    text NOT NULL,
	land_area_sqm  double precision NOT NULL DEFAULT 0,
	water_area_sqm double precision NOT NULL DEFAULT 0,
	country_code   text NOT NULL DEFAULT 'US'
)`

const selectAll = `SELECT code, latitude, longitude, region_code, land_area_sqm, water_area_sqm, country_code
FROM postal_codes`

var columns = []string{
	"code", "latitude", "longitude", "region_code", "land_area_sqm", "water_area_sqm", "country_code",
}

type row struct {
	Code         string  `db:"code"`
	Latitude     float64 `db:"latitude"`
	Longitude    float64 `db:"longitude"`
	RegionCode   string  `db:"region_code"`
	LandAreaSqM  float64 `db:"land_area_sqm"`
	WaterAreaSqM float64 `db:"water_area_sqm"`
	CountryCode  string  `db:"country_code"`
}

var _ source.Source = (*Source)(nil)

// Source reads the dataset through a pgx pool.
type Source struct {
	pool *pgxpool.Pool
}

// Open connects a pool to dsn.
func Open(ctx context.Context, dsn string) (*Source, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("%w: connect: %w", domain.ErrSourceUnavailable, err)
	}
	return &Source{pool: pool}, nil
}

// New wraps an existing pool.
func New(pool *pgxpool.Pool) *Source {
	return &Source{pool: pool}
}

// Pool exposes the underlying pool for writers.
func (s *Source) Pool() *pgxpool.Pool { return s.pool }

// Close closes the pool.
func (s *Source) Close() {
	s.pool.Close()
}

// Name returns the backend name.
func (s *Source) Name() string { return Name }

// Ping checks connectivity.
func (s *Source) Ping(ctx context.Context) error {
	if err := s.pool.Ping(ctx); err != nil {
		return fmt.Errorf("%w: %w", domain.ErrSourceUnavailable, err)
	}
	return nil
}

// Load reads the whole table.
func (s *Source) Load(ctx context.Context) ([]postal.Record, error) {
	rows, err := s.pool.Query(ctx, selectAll)
	if err != nil {
		return nil, fmt.Errorf("%w: query %s: %w", domain.ErrSourceUnavailable, Table, err)
	}
	collected, err := pgx.CollectRows(rows, pgx.RowToStructByName[row])
	if err != nil {
		return nil, fmt.Errorf("%w: read %s: %w", domain.ErrSourceUnavailable, Table, err)
	}

	out := make([]postal.Record, len(collected))
	for i, r := range collected {
		out[i] = postal.New(r.Code, r.Latitude, r.Longitude, r.RegionCode, r.LandAreaSqM, r.WaterAreaSqM, r.CountryCode)
	}
	return out, nil
}

// Replace swaps the table contents for recs in one transaction, creating the
// table when needed.
func (s *Source) Replace(ctx context.Context, recs []postal.Record) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if _, err := tx.Exec(ctx, createTable); err != nil {
		return fmt.Errorf("create %s: %w", Table, err)
	}
	if _, err := tx.Exec(ctx, "TRUNCATE "+Table); err != nil {
		return fmt.Errorf("truncate %s: %w", Table, err)
	}
	n, err := tx.CopyFrom(ctx, pgx.Identifier{Table}, columns, pgx.CopyFromSlice(len(recs), copyRow(recs)))
	if err != nil {
		return fmt.Errorf("copy into %s: %w", Table, err)
	}
	if int(n) != len(recs) {
		return fmt.Errorf("copy into %s: wrote %d of %d rows", Table, n, len(recs))
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

func copyRow(recs []postal.Record) func(int) ([]any, error) {
	return func(i int) ([]any, error) {
		r := &recs[i]
		return []any{
			r.Code(), r.Latitude(), r.Longitude(), r.RegionCode(),
			r.LandAreaSqM(), r.WaterAreaSqM(), r.CountryCode(),
		}, nil
	}
}
