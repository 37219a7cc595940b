// Package format renders resolved records into the external response shapes.
// Every function here is pure: the same inputs always produce the same output.
package format

import (
	"time"

	"github.com/kailas-cloud/postalgeo/internal/domain/postal"
	"github.com/kailas-cloud/postalgeo/internal/domain/style"
	"github.com/kailas-cloud/postalgeo/internal/usecase/resolve"
)

// Accuracy describes how a centroid was derived.
const Accuracy = "area-centroid"

// RegionNote is attached to FULL entries so consumers do not read the region
// code as a state boundary.
const RegionNote = "adminCode1 is a regional grouping and may differ from the state the area lies in"

// Entry is one postal code in a response. Fields are populated according to
// the requested style; absent fields are omitted.
type Entry struct {
	PostalCode  string      `json:"postalCode"`
	Lat         float64     `json:"lat"`
	Lng         float64     `json:"lng"`
	CountryCode string      `json:"countryCode,omitempty"`
	AdminCode1  string      `json:"adminCode1,omitempty"`
	AdminName1  string      `json:"adminName1,omitempty"`
	Distance    *float64    `json:"distance,omitempty"`
	LandArea    *float64    `json:"landArea,omitempty"`
	WaterArea   *float64    `json:"waterArea,omitempty"`
	Provenance  *Provenance `json:"provenance,omitempty"`
}

// Provenance is the dataset metadata exposed by the FULL style.
type Provenance struct {
	Source     string    `json:"source"`
	BuiltAt    time.Time `json:"builtAt"`
	Accuracy   string    `json:"accuracy"`
	RegionNote string    `json:"regionNote"`
}

// Envelope wraps a list of entries.
type Envelope struct {
	TotalResultsCount int     `json:"totalResultsCount"`
	Results           []Entry `json:"results"`
}

// Formatter renders entries. The zero value formats without provenance.
type Formatter struct {
	source  string
	builtAt time.Time
}

// New creates a formatter stamping FULL entries with the given dataset origin.
func New(source string, builtAt time.Time) Formatter {
	return Formatter{source: source, builtAt: builtAt}
}

// Entry formats a single record. distanceKm is included from MEDIUM upwards
// when non-nil.
func (f Formatter) Entry(rec *postal.Record, s style.Style, distanceKm *float64) Entry {
	e := Entry{
		PostalCode: rec.Code(),
		Lat:        rec.Latitude(),
		Lng:        rec.Longitude(),
	}

	switch s {
	case style.Short:
		return e
	case style.Medium:
		f.medium(&e, rec, distanceKm)
	case style.Long:
		f.medium(&e, rec, distanceKm)
		f.long(&e, rec)
	case style.Full:
		f.medium(&e, rec, distanceKm)
		f.long(&e, rec)
		e.Provenance = &Provenance{
			Source:     f.source,
			BuiltAt:    f.builtAt,
			Accuracy:   Accuracy,
			RegionNote: RegionNote,
		}
	default:
		f.medium(&e, rec, distanceKm)
	}
	return e
}

func (f Formatter) medium(e *Entry, rec *postal.Record, distanceKm *float64) {
	e.CountryCode = rec.CountryCode()
	e.AdminCode1 = rec.RegionCode()
	e.AdminName1 = postal.RegionName(rec.RegionCode())
	if distanceKm != nil {
		d := *distanceKm
		e.Distance = &d
	}
}

func (f Formatter) long(e *Entry, rec *postal.Record) {
	land, water := rec.LandAreaSqM(), rec.WaterAreaSqM()
	e.LandArea = &land
	e.WaterArea = &water
}

// Records formats records without distances.
func (f Formatter) Records(recs []postal.Record, s style.Style) Envelope {
	out := make([]Entry, len(recs))
	for i := range recs {
		out[i] = f.Entry(&recs[i], s, nil)
	}
	return Envelope{TotalResultsCount: len(out), Results: out}
}

// Matches formats proximity hits, each carrying its distance.
func (f Formatter) Matches(ms []resolve.Match, s style.Style) Envelope {
	out := make([]Entry, len(ms))
	for i := range ms {
		d := ms[i].DistanceKm
		out[i] = f.Entry(&ms[i].Record, s, &d)
	}
	return Envelope{TotalResultsCount: len(out), Results: out}
}

// Empty returns an envelope with no results.
func Empty() Envelope {
	return Envelope{Results: []Entry{}}
}
