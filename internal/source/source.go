// Package source defines where postal records come from and the shared
// column vocabulary used by every tabular backend.
package source

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/kailas-cloud/postalgeo/internal/domain"
	"github.com/kailas-cloud/postalgeo/internal/domain/postal"
)

// Source provides the full record set of the dataset.
type Source interface {
	// Name identifies the backend in stats and logs.
	Name() string
	// Load returns every record. Failures to reach the backend wrap
	// domain.ErrSourceUnavailable; malformed rows wrap domain.ErrStoreBuild.
	Load(ctx context.Context) ([]postal.Record, error)
	// Ping checks that the backend is reachable.
	Ping(ctx context.Context) error
}

// Field is a canonical record column.
type Field string

// Canonical columns of the persisted dataset.
const (
	FieldCode         Field = "code"
	FieldLatitude     Field = "latitude"
	FieldLongitude    Field = "longitude"
	FieldRegionCode   Field = "regionCode"
	FieldLandAreaSqM  Field = "landAreaSqM"
	FieldWaterAreaSqM Field = "waterAreaSqM"
	FieldCountryCode  Field = "countryCode"
)

// Fields lists the canonical columns in persisted order.
var Fields = []Field{
	FieldCode, FieldLatitude, FieldLongitude, FieldRegionCode,
	FieldLandAreaSqM, FieldWaterAreaSqM, FieldCountryCode,
}

// aliases maps normalized header names to canonical fields. Normalization
// lower-cases and drops underscores, spaces and dashes, so "land_area_sqm"
// and "landAreaSqM" both become "landareasqm".
var aliases = map[string]Field{
	"code": FieldCode, "zctacode": FieldCode, "postalcode": FieldCode,
	"zip": FieldCode, "zipcode": FieldCode, "zcta5ce20": FieldCode,
	"geoid20": FieldCode, "geoid": FieldCode,

	"latitude": FieldLatitude, "lat": FieldLatitude,
	"intptlat20": FieldLatitude, "intptlat": FieldLatitude,

	"longitude": FieldLongitude, "lng": FieldLongitude, "lon": FieldLongitude,
	"intptlon20": FieldLongitude, "intptlong": FieldLongitude, "intptlon": FieldLongitude,

	"regioncode": FieldRegionCode, "state": FieldRegionCode, "admincode1": FieldRegionCode,

	"landareasqm": FieldLandAreaSqM, "landarea": FieldLandAreaSqM,
	"aland20": FieldLandAreaSqM, "aland": FieldLandAreaSqM,

	"waterareasqm": FieldWaterAreaSqM, "waterarea": FieldWaterAreaSqM,
	"awater20": FieldWaterAreaSqM, "awater": FieldWaterAreaSqM,

	"countrycode": FieldCountryCode, "country": FieldCountryCode,
}

var separators = strings.NewReplacer("_", "", " ", "", "-", "")

func normalize(name string) string {
	name = strings.TrimPrefix(name, "\ufeff")
	return separators.Replace(strings.ToLower(strings.TrimSpace(name)))
}

// Lookup maps a raw column name to its canonical field.
func Lookup(name string) (Field, bool) {
	f, ok := aliases[normalize(name)]
	return f, ok
}

// Columns maps canonical fields to positions in a row.
type Columns map[Field]int

// ResolveColumns matches a header row against the known aliases. Unknown
// columns are ignored; the first occurrence of a field wins.
func ResolveColumns(header []string) Columns {
	cols := make(Columns, len(Fields))
	for i, name := range header {
		f, ok := Lookup(name)
		if !ok {
			continue
		}
		if _, seen := cols[f]; !seen {
			cols[f] = i
		}
	}
	return cols
}

// Require reports the first missing field.
func (c Columns) Require(fields ...Field) error {
	for _, f := range fields {
		if _, ok := c[f]; !ok {
			return fmt.Errorf("missing column %q", f)
		}
	}
	return nil
}

// Value returns the trimmed cell for f, and false when the column is absent
// or the row is short.
func (c Columns) Value(row []string, f Field) (string, bool) {
	i, ok := c[f]
	if !ok || i >= len(row) {
		return "", false
	}
	return strings.TrimSpace(row[i]), true
}

// Getter returns the raw value of a field, and false when it is absent.
type Getter func(Field) (string, bool)

// RowGetter adapts a positional row.
func (c Columns) RowGetter(row []string) Getter {
	return func(f Field) (string, bool) { return c.Value(row, f) }
}

// MapGetter adapts a field map keyed by canonical names.
func MapGetter(m map[string]string) Getter {
	return func(f Field) (string, bool) {
		v, ok := m[string(f)]
		return strings.TrimSpace(v), ok
	}
}

// Decode builds a record from field values. Every field but the country is
// required; an absent country reads as US. Range checks are left to the
// dataset build.
func Decode(get Getter) (postal.Record, error) {
	code, ok := get(FieldCode)
	if !ok || code == "" {
		return postal.Record{}, domain.NewBuildError("", "missing code")
	}
	lat, err := requireFloat(get, code, FieldLatitude)
	if err != nil {
		return postal.Record{}, err
	}
	lon, err := requireFloat(get, code, FieldLongitude)
	if err != nil {
		return postal.Record{}, err
	}
	region, ok := get(FieldRegionCode)
	if !ok || region == "" {
		return postal.Record{}, domain.NewBuildError(code, "missing regionCode")
	}
	land, err := requireFloat(get, code, FieldLandAreaSqM)
	if err != nil {
		return postal.Record{}, err
	}
	water, err := requireFloat(get, code, FieldWaterAreaSqM)
	if err != nil {
		return postal.Record{}, err
	}
	country, _ := get(FieldCountryCode)

	return postal.New(code, lat, lon, region, land, water, country), nil
}

func requireFloat(get Getter, code string, f Field) (float64, error) {
	raw, ok := get(f)
	if !ok || raw == "" {
		return 0, domain.NewBuildError(code, fmt.Sprintf("missing %s", f))
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, domain.NewBuildError(code, fmt.Sprintf("bad %s %q", f, raw))
	}
	return v, nil
}

// Encode renders a record as canonical string fields.
func Encode(r *postal.Record) map[string]string {
	return map[string]string{
		string(FieldCode):         r.Code(),
		string(FieldLatitude):     strconv.FormatFloat(r.Latitude(), 'f', -1, 64),
		string(FieldLongitude):    strconv.FormatFloat(r.Longitude(), 'f', -1, 64),
		string(FieldRegionCode):   r.RegionCode(),
		string(FieldLandAreaSqM):  strconv.FormatFloat(r.LandAreaSqM(), 'f', -1, 64),
		string(FieldWaterAreaSqM): strconv.FormatFloat(r.WaterAreaSqM(), 'f', -1, 64),
		string(FieldCountryCode):  r.CountryCode(),
	}
}
