// Package reload rebuilds the dataset from its source and publishes it.
package reload

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"

	"github.com/kailas-cloud/postalgeo/internal/dataset"
	"github.com/kailas-cloud/postalgeo/internal/metrics"
)

// ErrInProgress is returned when a reload is requested while another runs.
var ErrInProgress = errors.New("reload already in progress")

// Result describes a successful rebuild.
type Result struct {
	Records  int
	Regions  int
	Source   string
	BuiltAt  time.Time
	Duration time.Duration
}

// Service loads records, builds a Store and publishes it. A failed build
// leaves the previously published Store in place.
type Service struct {
	source   RecordSource
	target   Publisher
	cellSize float64
	clock    clockwork.Clock
	logger   *zap.Logger

	mu sync.Mutex // serializes rebuilds
}

// New creates a Service.
func New(source RecordSource, target Publisher, logger *zap.Logger) *Service {
	return &Service{
		source: source,
		target: target,
		clock:  clockwork.NewRealClock(),
		logger: logger,
	}
}

// WithCellSize sets the grid cell edge used for rebuilt stores.
func (s *Service) WithCellSize(deg float64) *Service {
	s.cellSize = deg
	return s
}

// WithClock replaces the clock used for timestamps and the ticker.
func (s *Service) WithClock(c clockwork.Clock) *Service {
	if c != nil {
		s.clock = c
	}
	return s
}

// Reload rebuilds and publishes the dataset once. It fails fast with
// ErrInProgress if another rebuild is running.
func (s *Service) Reload(ctx context.Context) (Result, error) {
	if !s.mu.TryLock() {
		return Result{}, ErrInProgress
	}
	defer s.mu.Unlock()

	name := s.source.Name()
	start := s.clock.Now()

	res, err := s.rebuild(ctx, name, start)
	metrics.ReloadDuration.WithLabelValues(name).Observe(s.clock.Since(start).Seconds())
	if err != nil {
		metrics.ReloadsTotal.WithLabelValues(name, "error").Inc()
		s.logger.Error("Dataset reload failed, keeping current dataset",
			zap.String("source", name),
			zap.Error(err),
		)
		return Result{}, err
	}
	metrics.ReloadsTotal.WithLabelValues(name, "ok").Inc()
	s.logger.Info("Dataset reloaded",
		zap.String("source", name),
		zap.Int("records", res.Records),
		zap.Int("regions", res.Regions),
		zap.Duration("duration", res.Duration),
	)
	return res, nil
}

func (s *Service) rebuild(ctx context.Context, name string, start time.Time) (Result, error) {
	recs, err := s.source.Load(ctx)
	if err != nil {
		return Result{}, fmt.Errorf("load %s: %w", name, err)
	}
	store, err := dataset.Build(recs, dataset.BuildOptions{
		CellSizeDeg: s.cellSize,
		Source:      name,
		BuiltAt:     start.UTC(),
	})
	if err != nil {
		return Result{}, fmt.Errorf("build from %s: %w", name, err)
	}
	s.target.Swap(store)
	Publish(store)

	stats := store.Stats()
	return Result{
		Records:  stats.TotalRecords,
		Regions:  stats.UniqueRegions(),
		Source:   name,
		BuiltAt:  store.BuiltAt(),
		Duration: s.clock.Since(start),
	}, nil
}

// Run reloads on every tick until ctx is done. A non-positive interval
// disables periodic reloads and Run returns immediately.
func (s *Service) Run(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		return
	}
	ticker := s.clock.NewTicker(interval)
	defer ticker.Stop()

	s.logger.Info("Periodic dataset reload enabled", zap.Duration("interval", interval))
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.Chan():
			if _, err := s.Reload(ctx); errors.Is(err, ErrInProgress) {
				s.logger.Warn("Skipping scheduled reload, previous one still running")
			}
		}
	}
}

// Publish updates the dataset gauges for s.
func Publish(s *dataset.Store) {
	stats := s.Stats()
	metrics.DatasetRecords.Set(float64(stats.TotalRecords))
	metrics.DatasetRegions.Set(float64(stats.UniqueRegions()))
	metrics.DatasetBuiltAt.Set(float64(s.BuiltAt().Unix()))
}
