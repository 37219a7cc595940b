// Package sqlite loads records from a SQLite database holding a postal_codes
// table with zcta_code, latitude, longitude, state, land_area_sqm and
// water_area_sqm columns.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3" // registers the sqlite3 driver

	"github.com/kailas-cloud/postalgeo/internal/domain"
	"github.com/kailas-cloud/postalgeo/internal/domain/postal"
	"github.com/kailas-cloud/postalgeo/internal/source"
)

// Name identifies this backend.
const Name = "sqlite"

const selectAll = `SELECT zcta_code, latitude, longitude, state, land_area_sqm, water_area_sqm
FROM postal_codes`

var _ source.Source = (*Source)(nil)

// Source reads postal_codes from a SQLite file opened read-only.
type Source struct {
	db *sql.DB
}

// Open opens the database at path in read-only mode.
func Open(path string) (*Source, error) {
	db, err := sql.Open("sqlite3", "file:"+path+"?mode=ro")
	if err != nil {
		return nil, fmt.Errorf("%w: open %s: %w", domain.ErrSourceUnavailable, path, err)
	}
	return &Source{db: db}, nil
}

// Close releases the database handle.
func (s *Source) Close() error {
	return s.db.Close()
}

// Name returns the backend name.
func (s *Source) Name() string { return Name }

// Ping checks that the database responds.
func (s *Source) Ping(ctx context.Context) error {
	if err := s.db.PingContext(ctx); err != nil {
		return fmt.Errorf("%w: %w", domain.ErrSourceUnavailable, err)
	}
	return nil
}

// Load reads every row of postal_codes. A NULL area aborts the load.
func (s *Source) Load(ctx context.Context) ([]postal.Record, error) {
	rows, err := s.db.QueryContext(ctx, selectAll)
	if err != nil {
		return nil, fmt.Errorf("%w: query postal_codes: %w", domain.ErrSourceUnavailable, err)
	}
	defer rows.Close()

	var out []postal.Record
	for rows.Next() {
		var (
			code        string
			state       sql.NullString
			lat, lon    float64
			land, water sql.NullFloat64
		)
		if err := rows.Scan(&code, &lat, &lon, &state, &land, &water); err != nil {
			return nil, domain.NewBuildError(code, fmt.Sprintf("scan row: %v", err))
		}
		if !land.Valid {
			return nil, domain.NewBuildError(code, "missing land_area_sqm")
		}
		if !water.Valid {
			return nil, domain.NewBuildError(code, "missing water_area_sqm")
		}
		out = append(out, postal.New(code, lat, lon, state.String, land.Float64, water.Float64, postal.CountryUS))
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterate postal_codes: %w", domain.ErrSourceUnavailable, err)
	}
	return out, nil
}
