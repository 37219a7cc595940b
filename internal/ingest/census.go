// Package ingest converts census ZCTA attribute tables into canonical
// records and hands them to a sink.
package ingest

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/Valentin-Kaiser/go-dbase/dbase"

	"github.com/kailas-cloud/postalgeo/internal/source"
	"github.com/kailas-cloud/postalgeo/internal/source/csvfile"
)

// Row is one ZCTA from a census attribute table.
type Row struct {
	Code         string
	Latitude     float64
	Longitude    float64
	LandAreaSqM  float64
	WaterAreaSqM float64
}

// DBF column names of the 2020 ZCTA shapefile attribute table.
const (
	dbfCode  = "ZCTA5CE20"
	dbfGeoID = "GEOID20"
	dbfLat   = "INTPTLAT20"
	dbfLon   = "INTPTLON20"
	dbfLand  = "ALAND20"
	dbfWater = "AWATER20"
)

// valuer is the part of a dbase row the reader needs.
type valuer interface {
	ValueByName(name string) (interface{}, error)
}

// ReadDBF reads the attribute table of a ZCTA shapefile.
func ReadDBF(ctx context.Context, path string) ([]Row, error) {
	table, err := dbase.OpenTable(&dbase.Config{
		Filename:   path,
		TrimSpaces: true,
	})
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer table.Close()

	var rows []Row
	for n := 0; !table.EOF(); n++ {
		if n%1024 == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}
		rec, err := table.Next()
		if err != nil {
			return nil, fmt.Errorf("read row %d: %w", n+1, err)
		}
		if rec.Deleted {
			continue
		}
		row, err := dbfRow(rec)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", n+1, err)
		}
		rows = append(rows, row)
	}
	return rows, nil
}

func dbfRow(v valuer) (Row, error) {
	code, err := dbfString(v, dbfCode)
	if err != nil || code == "" {
		code, err = dbfString(v, dbfGeoID)
	}
	if err != nil {
		return Row{}, err
	}
	if code == "" {
		return Row{}, errors.New("missing code")
	}

	var r Row
	r.Code = code
	fields := []struct {
		name     string
		dst      *float64
		required bool
	}{
		{dbfLat, &r.Latitude, true},
		{dbfLon, &r.Longitude, true},
		{dbfLand, &r.LandAreaSqM, true},
		{dbfWater, &r.WaterAreaSqM, true},
	}
	for _, f := range fields {
		raw, err := v.ValueByName(f.name)
		if err != nil {
			return Row{}, fmt.Errorf("%s %s: %w", code, f.name, err)
		}
		if f.required && isEmpty(raw) {
			return Row{}, fmt.Errorf("%s: missing %s", code, f.name)
		}
		x, err := toFloat(raw)
		if err != nil {
			return Row{}, fmt.Errorf("%s %s: %w", code, f.name, err)
		}
		*f.dst = x
	}
	return r, nil
}

func dbfString(v valuer, name string) (string, error) {
	raw, err := v.ValueByName(name)
	if err != nil {
		return "", fmt.Errorf("%s: %w", name, err)
	}
	switch x := raw.(type) {
	case string:
		return strings.TrimSpace(x), nil
	case []byte:
		return strings.TrimSpace(string(x)), nil
	case nil:
		return "", nil
	default:
		return fmt.Sprint(x), nil
	}
}

func isEmpty(raw interface{}) bool {
	switch x := raw.(type) {
	case nil:
		return true
	case string:
		return strings.TrimSpace(x) == ""
	case []byte:
		return strings.TrimSpace(string(x)) == ""
	}
	return false
}

func toFloat(raw interface{}) (float64, error) {
	switch x := raw.(type) {
	case float64:
		return x, nil
	case float32:
		return float64(x), nil
	case int64:
		return float64(x), nil
	case int32:
		return float64(x), nil
	case int:
		return float64(x), nil
	case string:
		s := strings.TrimSpace(x)
		if s == "" {
			return 0, nil
		}
		return strconv.ParseFloat(s, 64)
	case []byte:
		return toFloat(string(x))
	case nil:
		return 0, nil
	default:
		return math.NaN(), fmt.Errorf("unsupported value type %T", raw)
	}
}

// ReadDelimited reads a CSV export of the attribute table or the tab
// separated gazetteer file.
func ReadDelimited(ctx context.Context, r io.Reader) ([]Row, error) {
	var rows []Row
	err := csvfile.Rows(ctx, r, func(cols source.Columns, cells []string, line int) error {
		get := cols.RowGetter(cells)
		code, _ := get(source.FieldCode)
		if code == "" {
			return fmt.Errorf("line %d: missing code", line)
		}
		row := Row{Code: code}
		fields := []struct {
			f        source.Field
			dst      *float64
			required bool
		}{
			{source.FieldLatitude, &row.Latitude, true},
			{source.FieldLongitude, &row.Longitude, true},
			{source.FieldLandAreaSqM, &row.LandAreaSqM, true},
			{source.FieldWaterAreaSqM, &row.WaterAreaSqM, true},
		}
		for _, fd := range fields {
			raw, _ := get(fd.f)
			if fd.required && raw == "" {
				return fmt.Errorf("line %d: %s: missing %s", line, code, fd.f)
			}
			x, err := toFloat(raw)
			if err != nil {
				return fmt.Errorf("line %d: %s %s: %w", line, code, fd.f, err)
			}
			*fd.dst = x
		}
		rows = append(rows, row)
		return nil
	}, source.FieldCode, source.FieldLatitude, source.FieldLongitude,
		source.FieldLandAreaSqM, source.FieldWaterAreaSqM)
	if err != nil {
		return nil, err
	}
	return rows, nil
}
