package ingest

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/postalgeo/internal/dataset"
	"github.com/kailas-cloud/postalgeo/internal/domain/postal"
	"github.com/kailas-cloud/postalgeo/internal/source/csvfile"
)

// Format is the layout of the input table.
type Format string

// Supported input formats.
const (
	FormatDBF Format = "dbf"
	FormatCSV Format = "csv"
)

// DetectFormat picks a format from the file extension.
func DetectFormat(path string) Format {
	if strings.EqualFold(filepath.Ext(path), ".dbf") {
		return FormatDBF
	}
	return FormatCSV
}

// Sink receives the complete, validated record set.
type Sink interface {
	Replace(ctx context.Context, recs []postal.Record) error
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(ctx context.Context, recs []postal.Record) error

// Replace calls f.
func (f SinkFunc) Replace(ctx context.Context, recs []postal.Record) error { return f(ctx, recs) }

// Report summarizes an ingest run.
type Report struct {
	Read     int
	Written  int
	Regions  int
	Unmapped []string
	Took     time.Duration
}

// Read loads rows from path in the given format. An empty format is
// detected from the extension.
func Read(ctx context.Context, path string, format Format) ([]Row, error) {
	if format == "" {
		format = DetectFormat(path)
	}
	switch format {
	case FormatDBF:
		return ReadDBF(ctx, path)
	case FormatCSV:
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("open %s: %w", path, err)
		}
		defer f.Close()
		return ReadDelimited(ctx, f)
	default:
		return nil, fmt.Errorf("unknown format %q", format)
	}
}

// ToRecords assigns regions to rows. Codes with no regional grouping are
// returned separately and left out.
func ToRecords(rows []Row) (recs []postal.Record, unmapped []string) {
	recs = make([]postal.Record, 0, len(rows))
	for _, r := range rows {
		region, ok := RegionForCode(r.Code)
		if !ok {
			unmapped = append(unmapped, r.Code)
			continue
		}
		recs = append(recs, postal.New(r.Code, r.Latitude, r.Longitude, region,
			r.LandAreaSqM, r.WaterAreaSqM, postal.CountryUS))
	}
	return recs, unmapped
}

// Run reads the input, converts it, checks that the result builds into a
// valid dataset and writes it to sink.
func Run(ctx context.Context, path string, format Format, sink Sink, log *zap.Logger) (Report, error) {
	start := time.Now()

	rows, err := Read(ctx, path, format)
	if err != nil {
		return Report{}, fmt.Errorf("read input: %w", err)
	}
	log.Info("input read", zap.String("path", path), zap.Int("rows", len(rows)))

	recs, unmapped := ToRecords(rows)
	if len(unmapped) > 0 {
		log.Warn("codes without regional grouping skipped",
			zap.Int("count", len(unmapped)), zap.Strings("codes", unmapped))
	}

	store, err := dataset.Build(recs, dataset.BuildOptions{Source: "ingest", BuiltAt: start})
	if err != nil {
		return Report{}, fmt.Errorf("validate records: %w", err)
	}

	if err := sink.Replace(ctx, recs); err != nil {
		return Report{}, fmt.Errorf("write output: %w", err)
	}

	return Report{
		Read:     len(rows),
		Written:  len(recs),
		Regions:  store.Stats().UniqueRegions(),
		Unmapped: unmapped,
		Took:     time.Since(start),
	}, nil
}

// CSVSink writes the canonical CSV file, replacing it atomically.
type CSVSink struct {
	Path string
}

// Replace writes recs to a temporary file next to Path and renames it.
func (s CSVSink) Replace(_ context.Context, recs []postal.Record) error {
	dir := filepath.Dir(s.Path)
	tmp, err := os.CreateTemp(dir, filepath.Base(s.Path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if err := csvfile.Write(tmp, recs); err != nil {
		tmp.Close()
		return fmt.Errorf("write %s: %w", tmp.Name(), err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close %s: %w", tmp.Name(), err)
	}
	if err := os.Rename(tmp.Name(), s.Path); err != nil {
		return fmt.Errorf("rename to %s: %w", s.Path, err)
	}
	return nil
}
