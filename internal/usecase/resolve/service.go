package resolve

import (
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/kailas-cloud/postalgeo/internal/dataset"
	"github.com/kailas-cloud/postalgeo/internal/domain"
	"github.com/kailas-cloud/postalgeo/internal/domain/geo"
	"github.com/kailas-cloud/postalgeo/internal/domain/postal"
)

// Engine limits.
const (
	DefaultMaxRadiusKm   = 1000.0
	DefaultMaxRows       = 100
	MinRows              = 1
	DefaultMaxExpansions = 3
)

// Limits bounds the work of a single operation.
type Limits struct {
	MaxRadiusKm   float64
	MaxRows       int
	MaxExpansions int
}

// DefaultLimits returns the standard engine limits.
func DefaultLimits() Limits {
	return Limits{
		MaxRadiusKm:   DefaultMaxRadiusKm,
		MaxRows:       DefaultMaxRows,
		MaxExpansions: DefaultMaxExpansions,
	}
}

// Match is a proximity hit.
type Match struct {
	Record     postal.Record
	DistanceKm float64
}

// Proximity is the outcome of a proximity search.
type Proximity struct {
	Matches []Match
	// Expansions counts how many times the search box was widened because it
	// held no candidates.
	Expansions int
}

// Reason tags why a code failed validation.
type Reason string

// Validation reasons.
const (
	ReasonNone      Reason = ""
	ReasonMalformed Reason = "malformed"
	ReasonNotFound  Reason = "not_found"
)

// Validation is the result of Validate.
type Validation struct {
	Code   string
	Valid  bool
	Reason Reason
}

// Err returns the tagged error behind a failed validation, or nil.
func (v Validation) Err() error {
	switch v.Reason {
	case ReasonMalformed:
		return domain.ErrMalformedCode
	case ReasonNotFound:
		return domain.ErrNotFound
	}
	return nil
}

// Service resolves postal codes and coordinates against the current dataset.
// It holds no mutable state; every call reads one Store snapshot.
type Service struct {
	stores StoreProvider
	limits Limits
}

// New creates a resolution service.
func New(stores StoreProvider) *Service {
	return &Service{stores: stores, limits: DefaultLimits()}
}

// WithLimits overrides the engine limits. Zero fields keep their defaults.
func (s *Service) WithLimits(l Limits) *Service {
	if l.MaxRadiusKm > 0 {
		s.limits.MaxRadiusKm = l.MaxRadiusKm
	}
	if l.MaxRows > 0 {
		s.limits.MaxRows = l.MaxRows
	}
	if l.MaxExpansions > 0 {
		s.limits.MaxExpansions = l.MaxExpansions
	}
	return s
}

// Snapshot returns a Service bound to the Store published at call time.
// Every call on it reads that one Store, even after a reload swaps in
// another, so results and their provenance always agree.
func (s *Service) Snapshot() *Service {
	return &Service{stores: pinned{store: s.stores.Current()}, limits: s.limits}
}

type pinned struct {
	store *dataset.Store
}

func (p pinned) Current() *dataset.Store { return p.store }

// Limits returns the active limits.
func (s *Service) Limits() Limits { return s.limits }

func (s *Service) store() (*dataset.Store, error) {
	st := s.stores.Current()
	if st == nil {
		return nil, domain.ErrNotReady
	}
	return st, nil
}

// ExactSearch returns the record for a five-digit code. An unknown code is
// not an error: ok is false.
func (s *Service) ExactSearch(code string) (postal.Record, bool, error) {
	if !postal.IsWellFormedCode(code) {
		return postal.Record{}, false, domain.NewMalformedCodeError("postalCode", "must be exactly 5 digits")
	}
	st, err := s.store()
	if err != nil {
		return postal.Record{}, false, err
	}
	r, ok := st.LookupExact(code)
	return r, ok, nil
}

// PrefixSearch returns records whose code starts with prefix, ascending by
// code. maxRows is clamped to [1, MaxRows].
func (s *Service) PrefixSearch(prefix string, maxRows int) ([]postal.Record, error) {
	if !postal.IsValidPrefix(prefix) {
		return nil, domain.NewMalformedCodeError("postalCodeStartsWith", "must be 1 to 5 digits")
	}
	st, err := s.store()
	if err != nil {
		return nil, err
	}
	return st.LookupPrefix(prefix, s.clampRows(maxRows)), nil
}

// ProximitySearch returns the records within radiusKm of (lat, lon), nearest
// first with ties broken by code. maxResults is clamped to [1, MaxRows].
func (s *Service) ProximitySearch(lat, lon, radiusKm float64, maxResults int) (Proximity, error) {
	if !geo.ValidateCoordinates(lat, lon) {
		return Proximity{}, domain.NewValidationError("coordinates",
			fmt.Sprintf("(%v, %v) out of range", lat, lon))
	}
	if !(radiusKm > 0) || math.IsInf(radiusKm, 1) {
		return Proximity{}, domain.NewValidationError("radiusKm", "must be a positive number")
	}
	if radiusKm > s.limits.MaxRadiusKm {
		return Proximity{}, domain.NewValidationError("radiusKm",
			fmt.Sprintf("must not exceed %g km", s.limits.MaxRadiusKm))
	}
	st, err := s.store()
	if err != nil {
		return Proximity{}, err
	}

	searchRadius := radiusKm
	candidates := st.CandidatesInBoundingBox(geo.BoundingBoxForRadius(lat, lon, searchRadius))
	expansions := 0
	for len(candidates) == 0 && expansions < s.limits.MaxExpansions && searchRadius < s.limits.MaxRadiusKm {
		searchRadius = math.Min(searchRadius*2, s.limits.MaxRadiusKm)
		expansions++
		candidates = st.CandidatesInBoundingBox(geo.BoundingBoxForRadius(lat, lon, searchRadius))
	}

	matches := make([]Match, 0, len(candidates))
	for _, r := range candidates {
		d := geo.HaversineKm(lat, lon, r.Latitude(), r.Longitude())
		if d > radiusKm {
			continue
		}
		matches = append(matches, Match{Record: r, DistanceKm: d})
	}

	sort.Slice(matches, func(i, j int) bool {
		if matches[i].DistanceKm != matches[j].DistanceKm {
			return matches[i].DistanceKm < matches[j].DistanceKm
		}
		return matches[i].Record.Code() < matches[j].Record.Code()
	})

	if limit := s.clampRows(maxResults); len(matches) > limit {
		matches = matches[:limit]
	}

	return Proximity{Matches: matches, Expansions: expansions}, nil
}

// Validate reports whether code exists. Malformed and absent codes are both
// invalid but carry different reasons.
func (s *Service) Validate(code string) (Validation, error) {
	if !postal.IsWellFormedCode(code) {
		return Validation{Code: code, Reason: ReasonMalformed}, nil
	}
	st, err := s.store()
	if err != nil {
		return Validation{}, err
	}
	if _, ok := st.LookupExact(code); !ok {
		return Validation{Code: code, Reason: ReasonNotFound}, nil
	}
	return Validation{Code: code, Valid: true}, nil
}

// Summary is the dataset statistics snapshot plus build provenance.
type Summary struct {
	dataset.Stats
	Source  string
	BuiltAt time.Time
}

// Stats returns the dataset summary computed when the store was built.
func (s *Service) Stats() (Summary, error) {
	st, err := s.store()
	if err != nil {
		return Summary{}, err
	}
	return Summary{Stats: st.Stats(), Source: st.Source(), BuiltAt: st.BuiltAt()}, nil
}

// Provenance returns where the current dataset came from and when it was built.
func (s *Service) Provenance() (source string, builtAt time.Time, err error) {
	st, err := s.store()
	if err != nil {
		return "", time.Time{}, err
	}
	return st.Source(), st.BuiltAt(), nil
}

func (s *Service) clampRows(n int) int {
	if n < MinRows {
		return MinRows
	}
	if n > s.limits.MaxRows {
		return s.limits.MaxRows
	}
	return n
}
