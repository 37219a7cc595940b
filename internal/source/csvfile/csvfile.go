// Package csvfile reads and writes the dataset as a delimited text file.
package csvfile

import (
	"bufio"
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/kailas-cloud/postalgeo/internal/domain"
	"github.com/kailas-cloud/postalgeo/internal/domain/postal"
	"github.com/kailas-cloud/postalgeo/internal/source"
)

// Name identifies this backend.
const Name = "csv"

var _ source.Source = (*Source)(nil)

// Source loads records from a CSV or TSV file.
type Source struct {
	path string
}

// New creates a file source.
func New(path string) *Source {
	return &Source{path: path}
}

// Name returns the backend name.
func (s *Source) Name() string { return Name }

// Ping checks that the file exists and is readable.
func (s *Source) Ping(_ context.Context) error {
	f, err := os.Open(s.path)
	if err != nil {
		return fmt.Errorf("%w: %w", domain.ErrSourceUnavailable, err)
	}
	return f.Close()
}

// Load reads every record from the file.
func (s *Source) Load(ctx context.Context) ([]postal.Record, error) {
	f, err := os.Open(s.path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrSourceUnavailable, err)
	}
	defer f.Close()

	return Parse(ctx, f)
}

// Parse decodes records from r. The header must name code, coordinate,
// region and area columns under any known alias.
func Parse(ctx context.Context, r io.Reader) ([]postal.Record, error) {
	var out []postal.Record
	err := Rows(ctx, r, func(cols source.Columns, row []string, line int) error {
		rec, err := source.Decode(cols.RowGetter(row))
		if err != nil {
			return fmt.Errorf("line %d: %w", line, err)
		}
		out = append(out, rec)
		return nil
	}, source.FieldCode, source.FieldLatitude, source.FieldLongitude, source.FieldRegionCode,
		source.FieldLandAreaSqM, source.FieldWaterAreaSqM)
	if err != nil {
		return nil, err
	}
	return out, nil
}

// RowFunc receives one data row. line is 1-based and counts the header.
type RowFunc func(cols source.Columns, row []string, line int) error

// Rows streams data rows to fn after resolving the header. The delimiter is
// a tab when the header contains one, otherwise a comma.
func Rows(ctx context.Context, r io.Reader, fn RowFunc, required ...source.Field) error {
	br := bufio.NewReader(r)
	head, err := br.Peek(4096)
	if err != nil && !errors.Is(err, io.EOF) && !errors.Is(err, bufio.ErrBufferFull) {
		return fmt.Errorf("%w: read header: %w", domain.ErrSourceUnavailable, err)
	}
	if i := bytes.IndexByte(head, '\n'); i >= 0 {
		head = head[:i]
	}

	cr := csv.NewReader(br)
	cr.ReuseRecord = true
	cr.FieldsPerRecord = -1
	if bytes.IndexByte(head, '\t') >= 0 {
		cr.Comma = '\t'
		cr.LazyQuotes = true
	}

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return domain.NewBuildError("", "empty file")
	}
	if err != nil {
		return fmt.Errorf("%w: read header: %w", domain.ErrSourceUnavailable, err)
	}
	cols := source.ResolveColumns(header)
	if err := cols.Require(required...); err != nil {
		return domain.NewBuildError("", err.Error())
	}

	line := 1
	for {
		row, err := cr.Read()
		if errors.Is(err, io.EOF) {
			return nil
		}
		line++
		if err != nil {
			return domain.NewBuildError("", fmt.Sprintf("line %d: %v", line, err))
		}
		if isBlank(row) {
			continue
		}
		if line%1024 == 0 {
			if err := ctx.Err(); err != nil {
				return err
			}
		}
		if err := fn(cols, row, line); err != nil {
			return err
		}
	}
}

func isBlank(row []string) bool {
	for _, v := range row {
		if v != "" {
			return false
		}
	}
	return true
}

// Write emits records in the canonical column order with a header.
func Write(w io.Writer, recs []postal.Record) error {
	cw := csv.NewWriter(w)
	header := make([]string, len(source.Fields))
	for i, f := range source.Fields {
		header[i] = string(f)
	}
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	row := make([]string, len(source.Fields))
	for i := range recs {
		fields := source.Encode(&recs[i])
		for j, f := range source.Fields {
			row[j] = fields[string(f)]
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("write %s: %w", recs[i].Code(), err)
		}
	}
	cw.Flush()
	return cw.Error()
}
