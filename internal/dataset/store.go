// Package dataset holds the immutable, indexed postal record set.
//
// A Store is built once from the full record collection and never mutated.
// It keeps a flat arena of records sorted by code and three indices over it:
// an exact-key map, the sorted arena itself for prefix scans, and a grid of
// fixed-size degree cells for proximity pre-filtering. Reads need no locking.
package dataset

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/kailas-cloud/postalgeo/internal/domain"
	"github.com/kailas-cloud/postalgeo/internal/domain/geo"
	"github.com/kailas-cloud/postalgeo/internal/domain/postal"
)

// DefaultCellSizeDeg is the grid cell edge length in degrees.
const DefaultCellSizeDeg = 0.5

// BuildOptions tunes store construction.
type BuildOptions struct {
	// CellSizeDeg is the grid cell edge; <= 0 means DefaultCellSizeDeg.
	CellSizeDeg float64
	// Source names where the records came from (reported in stats and FULL style).
	Source string
	// BuiltAt is the build timestamp reported in stats.
	BuiltAt time.Time
}

// Store is the read-only postal dataset.
type Store struct {
	records []postal.Record // sorted ascending by code
	byCode  map[string]int32
	grid    *grid
	stats   Stats
	source  string
	builtAt time.Time
}

// Build validates the records and constructs all indices. Any duplicate code,
// missing field or out-of-range value aborts the build with a *domain.BuildError.
func Build(records []postal.Record, opts BuildOptions) (*Store, error) {
	if len(records) == 0 {
		return nil, domain.NewBuildError("", "no records")
	}
	if len(records) > math.MaxInt32 {
		return nil, domain.NewBuildError("", fmt.Sprintf("too many records: %d", len(records)))
	}

	cellSize := opts.CellSizeDeg
	if cellSize <= 0 {
		cellSize = DefaultCellSizeDeg
	}

	arena := make([]postal.Record, len(records))
	copy(arena, records)
	sort.Slice(arena, func(i, j int) bool {
		return arena[i].Code() < arena[j].Code()
	})

	byCode := make(map[string]int32, len(arena))
	g := newGrid(cellSize)
	for i := range arena {
		r := &arena[i]
		if err := validateRecord(r); err != nil {
			return nil, err
		}
		if _, dup := byCode[r.Code()]; dup {
			return nil, domain.NewBuildError(r.Code(), "duplicate code")
		}
		byCode[r.Code()] = int32(i)
		g.add(r.Latitude(), r.Longitude(), int32(i))
	}

	return &Store{
		records: arena,
		byCode:  byCode,
		grid:    g,
		stats:   computeStats(arena),
		source:  opts.Source,
		builtAt: opts.BuiltAt,
	}, nil
}

func validateRecord(r *postal.Record) error {
	if !postal.IsWellFormedCode(r.Code()) {
		return domain.NewBuildError(r.Code(), "code must be 5 digits")
	}
	if !geo.ValidateCoordinates(r.Latitude(), r.Longitude()) {
		return domain.NewBuildError(r.Code(),
			fmt.Sprintf("coordinates out of range: (%v, %v)", r.Latitude(), r.Longitude()))
	}
	if strings.TrimSpace(r.RegionCode()) == "" {
		return domain.NewBuildError(r.Code(), "missing region code")
	}
	if !validArea(r.LandAreaSqM()) || !validArea(r.WaterAreaSqM()) {
		return domain.NewBuildError(r.Code(), "area must be a non-negative number")
	}
	if r.CountryCode() != postal.CountryUS {
		return domain.NewBuildError(r.Code(), fmt.Sprintf("unsupported country %q", r.CountryCode()))
	}
	return nil
}

func validArea(v float64) bool {
	return v >= 0 && !math.IsInf(v, 1)
}

// Len returns the number of records.
func (s *Store) Len() int { return len(s.records) }

// Source returns the name of the record source the store was built from.
func (s *Store) Source() string { return s.source }

// BuiltAt returns the build timestamp.
func (s *Store) BuiltAt() time.Time { return s.builtAt }

// LookupExact returns the record with the given code.
func (s *Store) LookupExact(code string) (postal.Record, bool) {
	i, ok := s.byCode[code]
	if !ok {
		return postal.Record{}, false
	}
	return s.records[i], true
}

// LookupPrefix returns up to limit records whose code starts with prefix,
// ascending by code. A non-positive limit yields no records.
func (s *Store) LookupPrefix(prefix string, limit int) []postal.Record {
	if limit <= 0 {
		return nil
	}
	start := sort.Search(len(s.records), func(i int) bool {
		return s.records[i].Code() >= prefix
	})

	var out []postal.Record
	for i := start; i < len(s.records) && len(out) < limit; i++ {
		if !strings.HasPrefix(s.records[i].Code(), prefix) {
			break
		}
		out = append(out, s.records[i])
	}
	return out
}

// CandidatesInBoundingBox returns the records whose centroid lies inside box,
// in no particular order.
func (s *Store) CandidatesInBoundingBox(box geo.Box) []postal.Record {
	var out []postal.Record
	s.grid.visit(box, func(idx int32) {
		r := s.records[idx]
		if box.Contains(r.Latitude(), r.Longitude()) {
			out = append(out, r)
		}
	})
	return out
}

// Stats returns the snapshot computed at build time.
func (s *Store) Stats() Stats {
	return s.stats.clone()
}
