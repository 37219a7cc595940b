package postalgeo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/postalgeo/internal/dataset"
	dbRedis "github.com/kailas-cloud/postalgeo/internal/db/redis"
	"github.com/kailas-cloud/postalgeo/internal/domain/postal"
	"github.com/kailas-cloud/postalgeo/internal/source"
	"github.com/kailas-cloud/postalgeo/internal/source/csvfile"
	"github.com/kailas-cloud/postalgeo/internal/source/postgres"
	redissrc "github.com/kailas-cloud/postalgeo/internal/source/redis"
	"github.com/kailas-cloud/postalgeo/internal/source/sqlite"
	healthuc "github.com/kailas-cloud/postalgeo/internal/usecase/health"
	reloaduc "github.com/kailas-cloud/postalgeo/internal/usecase/reload"
	"github.com/kailas-cloud/postalgeo/internal/usecase/resolve"
)

const defaultReadinessTimeout = 10 * time.Second

// Internal interfaces, replaced by fakes in tests.
type resolveUseCase interface {
	ExactSearch(code string) (postal.Record, bool, error)
	PrefixSearch(prefix string, maxRows int) ([]postal.Record, error)
	ProximitySearch(lat, lon, radiusKm float64, maxResults int) (resolve.Proximity, error)
	Validate(code string) (resolve.Validation, error)
	Stats() (resolve.Summary, error)
}

type reloadUseCase interface {
	Reload(ctx context.Context) (reloaduc.Result, error)
}

type healthUseCase interface {
	Check(ctx context.Context) healthuc.Report
}

// Client is the postalgeo SDK entry point.
type Client struct {
	resolveSvc resolveUseCase
	reloadSvc  reloadUseCase
	healthSvc  healthUseCase
	closer     func()
	obs        *observer
}

// New creates a Client and loads the dataset from the configured backend.
// The provided context bounds the connection and the initial load.
func New(ctx context.Context, opts ...Option) (*Client, error) {
	cfg := &clientConfig{}
	for _, o := range opts {
		o.apply(cfg)
	}

	if cfg.driver == "" {
		return nil, errors.New("postalgeo: dataset source required (use WithCSV, WithSQLite, WithPostgres or WithRedis)")
	}

	obs, err := newObserver(cfg.logger, cfg.metricsReg)
	if err != nil {
		return nil, err
	}

	src, closer, err := openSource(ctx, cfg)
	if err != nil {
		return nil, err
	}

	c, err := wireClient(ctx, src, cfg, obs)
	if err != nil {
		closer()
		return nil, err
	}
	c.closer = closer
	return c, nil
}

func openSource(ctx context.Context, cfg *clientConfig) (source.Source, func(), error) {
	noop := func() {}
	switch cfg.driver {
	case driverCSV:
		if cfg.path == "" {
			return nil, nil, errors.New("postalgeo: csv path required")
		}
		return csvfile.New(cfg.path), noop, nil
	case driverSQLite:
		s, err := sqlite.Open(cfg.path)
		if err != nil {
			return nil, nil, fmt.Errorf("postalgeo: open sqlite: %w", err)
		}
		return s, func() { _ = s.Close() }, nil
	case driverPostgres:
		s, err := postgres.Open(ctx, cfg.dsn)
		if err != nil {
			return nil, nil, fmt.Errorf("postalgeo: open postgres: %w", err)
		}
		return s, s.Close, nil
	case driverRedis:
		store, err := dbRedis.NewStore(dbRedis.Config{
			Addrs:    cfg.addrs,
			Password: cfg.password,
		})
		if err != nil {
			return nil, nil, fmt.Errorf("postalgeo: create redis store: %w", err)
		}
		if err := store.WaitForReady(ctx, defaultReadinessTimeout); err != nil {
			store.Close()
			return nil, nil, fmt.Errorf("postalgeo: redis not ready: %w", err)
		}
		return redissrc.New(store, cfg.keyPrefix), store.Close, nil
	default:
		return nil, nil, fmt.Errorf("postalgeo: unknown driver %q", cfg.driver)
	}
}

func wireClient(ctx context.Context, src source.Source, cfg *clientConfig, obs *observer) (*Client, error) {
	holder := dataset.NewHolder(nil)
	reloadSvc := reloaduc.New(src, holder, zap.NewNop()).WithCellSize(cfg.gridCellDeg)

	start := time.Now()
	_, err := reloadSvc.Reload(ctx)
	obs.observe("load", start, err)
	if err != nil {
		return nil, fmt.Errorf("postalgeo: initial load: %w", err)
	}

	return &Client{
		resolveSvc: resolve.New(holder).WithLimits(resolve.Limits(cfg.limits)),
		reloadSvc:  reloadSvc,
		healthSvc:  healthuc.New(holder, src),
		closer:     func() {},
		obs:        obs,
	}, nil
}

// Close releases the backend connection. The loaded dataset stays usable.
func (c *Client) Close() {
	if c.closer != nil {
		c.closer()
	}
}

// Geocode returns the postal area for a five-digit code. ok is false when
// the code is well formed but unknown.
func (c *Client) Geocode(_ context.Context, code string) (pc PostalCode, ok bool, err error) {
	start := time.Now()
	defer func() { c.obs.observe("geocode", start, err) }()

	rec, ok, err := c.resolveSvc.ExactSearch(code)
	if err != nil || !ok {
		return PostalCode{}, false, err
	}
	return toPostalCode(&rec), true, nil
}

// Search returns up to maxRows codes starting with prefix, ascending.
func (c *Client) Search(_ context.Context, prefix string, maxRows int) (out []PostalCode, err error) {
	start := time.Now()
	defer func() { c.obs.observe("search", start, err) }()

	recs, err := c.resolveSvc.PrefixSearch(prefix, maxRows)
	if err != nil {
		return nil, err
	}
	out = make([]PostalCode, len(recs))
	for i := range recs {
		out[i] = toPostalCode(&recs[i])
	}
	return out, nil
}

// Near returns up to maxResults codes within radiusKm of a point, nearest
// first.
func (c *Client) Near(_ context.Context, lat, lon, radiusKm float64, maxResults int) (out []Match, err error) {
	start := time.Now()
	defer func() { c.obs.observe("near", start, err) }()

	p, err := c.resolveSvc.ProximitySearch(lat, lon, radiusKm, maxResults)
	if err != nil {
		return nil, err
	}
	out = make([]Match, len(p.Matches))
	for i := range p.Matches {
		out[i] = Match{
			PostalCode: toPostalCode(&p.Matches[i].Record),
			DistanceKm: p.Matches[i].DistanceKm,
		}
	}
	return out, nil
}

// Validate reports whether a code exists in the dataset.
func (c *Client) Validate(_ context.Context, code string) (v Validation, err error) {
	start := time.Now()
	defer func() { c.obs.observe("validate", start, err) }()

	res, err := c.resolveSvc.Validate(code)
	if err != nil {
		return Validation{}, err
	}
	return Validation{Code: res.Code, Valid: res.Valid, Reason: string(res.Reason)}, nil
}

// Stats returns the dataset summary.
func (c *Client) Stats(_ context.Context) (s Stats, err error) {
	start := time.Now()
	defer func() { c.obs.observe("stats", start, err) }()

	sum, err := c.resolveSvc.Stats()
	if err != nil {
		return Stats{}, err
	}
	counts := make(map[string]int, len(sum.PerRegionCounts))
	for k, v := range sum.PerRegionCounts {
		counts[k] = v
	}
	return Stats{
		TotalRecords:    sum.TotalRecords,
		PerRegionCounts: counts,
		UniqueRegions:   sum.UniqueRegions(),
		Bounds: Bounds{
			MinLat: sum.Bounds.MinLat,
			MaxLat: sum.Bounds.MaxLat,
			MinLon: sum.Bounds.MinLon,
			MaxLon: sum.Bounds.MaxLon,
		},
		Source:  sum.Source,
		BuiltAt: sum.BuiltAt,
	}, nil
}

// Reload rebuilds the dataset from the backend. On failure the previous
// dataset keeps serving.
func (c *Client) Reload(ctx context.Context) (r ReloadResult, err error) {
	start := time.Now()
	defer func() { c.obs.observe("reload", start, err) }()

	res, err := c.reloadSvc.Reload(ctx)
	if err != nil {
		return ReloadResult{}, fmt.Errorf("reload: %w", err)
	}
	return ReloadResult(res), nil
}

// Health checks the dataset and the backend.
func (c *Client) Health(ctx context.Context) HealthStatus {
	report := c.healthSvc.Check(ctx)
	checks := make(map[string]string, len(report.Checks))
	for k, v := range report.Checks {
		checks[k] = string(v)
	}
	return HealthStatus{
		Status: string(report.Status),
		Checks: checks,
	}
}

func toPostalCode(r *postal.Record) PostalCode {
	return PostalCode{
		Code:         r.Code(),
		Latitude:     r.Latitude(),
		Longitude:    r.Longitude(),
		RegionCode:   r.RegionCode(),
		RegionName:   postal.RegionName(r.RegionCode()),
		LandAreaSqM:  r.LandAreaSqM(),
		WaterAreaSqM: r.WaterAreaSqM(),
		CountryCode:  r.CountryCode(),
	}
}
