package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"testing"

	"github.com/kailas-cloud/postalgeo/internal/domain"
)

const createTable = `CREATE TABLE postal_codes (
	zcta_code TEXT PRIMARY KEY,
	latitude REAL NOT NULL,
	longitude REAL NOT NULL,
	state TEXT,
	land_area_sqm REAL,
	water_area_sqm REAL,
	city TEXT
)`

func seed(t *testing.T, rows [][]any) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "postal.db")
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer db.Close()

	if _, err := db.Exec(createTable); err != nil {
		t.Fatalf("create: %v", err)
	}
	for _, r := range rows {
		if _, err := db.Exec(
			"INSERT INTO postal_codes VALUES (?, ?, ?, ?, ?, ?, ?)", r...,
		); err != nil {
			t.Fatalf("insert %v: %v", r, err)
		}
	}
	return path
}

func TestLoad(t *testing.T) {
	path := seed(t, [][]any{
		{"90210", 34.0901, -118.4065, "CA", 1029067.0, 0.0, "Beverly Hills"},
		{"00501", 40.8154, -73.0451, "NY", 0.0, 0.0, "Holtsville"},
	})

	s, err := Open(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer s.Close()

	if err := s.Ping(context.Background()); err != nil {
		t.Fatalf("ping: %v", err)
	}
	recs, err := s.Load(context.Background())
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(recs) != 2 {
		t.Fatalf("expected 2 records, got %d", len(recs))
	}

	byCode := map[string]int{}
	for i := range recs {
		byCode[recs[i].Code()] = i
	}
	bh := recs[byCode["90210"]]
	if bh.Latitude() != 34.0901 || bh.RegionCode() != "CA" || bh.LandAreaSqM() != 1029067 {
		t.Errorf("unexpected record: %+v", bh)
	}
	hv := recs[byCode["00501"]]
	if hv.LandAreaSqM() != 0 || hv.WaterAreaSqM() != 0 || hv.CountryCode() != "US" {
		t.Errorf("zero areas should be kept: %+v", hv)
	}
}

func TestLoad_NullAreaAbortsLoad(t *testing.T) {
	tests := []struct {
		name string
		row  []any
	}{
		{"land", []any{"00501", 40.8154, -73.0451, "NY", nil, 0.0, "Holtsville"}},
		{"water", []any{"00501", 40.8154, -73.0451, "NY", 1.0, nil, "Holtsville"}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			s, err := Open(seed(t, [][]any{tc.row}))
			if err != nil {
				t.Fatalf("open: %v", err)
			}
			defer s.Close()

			if _, err := s.Load(context.Background()); !errors.Is(err, domain.ErrStoreBuild) {
				t.Fatalf("expected ErrStoreBuild, got %v", err)
			}
		})
	}
}

func TestLoad_MissingTable(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.db")
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := db.Exec("CREATE TABLE other (x INTEGER)"); err != nil {
		t.Fatal(err)
	}
	db.Close()

	s, err := Open(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer s.Close()

	if _, err := s.Load(context.Background()); !errors.Is(err, domain.ErrSourceUnavailable) {
		t.Fatalf("expected ErrSourceUnavailable, got %v", err)
	}
}
