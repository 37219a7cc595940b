package postalgeo

import (
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"
)

// Option configures the Client.
type Option interface {
	apply(*clientConfig)
}

// optionFunc adapts a function to the Option interface.
type optionFunc func(*clientConfig)

func (f optionFunc) apply(c *clientConfig) { f(c) }

type driver string

const (
	driverCSV      driver = "csv"
	driverSQLite   driver = "sqlite"
	driverPostgres driver = "postgres"
	driverRedis    driver = "redis"
)

type clientConfig struct {
	driver    driver
	path      string
	dsn       string
	addrs     []string
	password  string
	keyPrefix string

	gridCellDeg float64
	limits      Limits

	logger     *slog.Logger
	metricsReg prometheus.Registerer
}

// WithCSV loads the dataset from a CSV or TSV file.
func WithCSV(path string) Option {
	return optionFunc(func(c *clientConfig) {
		c.driver = driverCSV
		c.path = path
	})
}

// WithSQLite loads the dataset from a SQLite database file.
func WithSQLite(path string) Option {
	return optionFunc(func(c *clientConfig) {
		c.driver = driverSQLite
		c.path = path
	})
}

// WithPostgres loads the dataset from PostgreSQL.
func WithPostgres(dsn string) Option {
	return optionFunc(func(c *clientConfig) {
		c.driver = driverPostgres
		c.dsn = dsn
	})
}

// WithRedis loads the dataset from Redis or Valkey hashes written by
// postal-ingest. keyPrefix defaults to "postalgeo:".
func WithRedis(addr, password, keyPrefix string) Option {
	return optionFunc(func(c *clientConfig) {
		c.driver = driverRedis
		c.addrs = []string{addr}
		c.password = password
		c.keyPrefix = keyPrefix
	})
}

// WithGridCell sets the spatial grid cell edge in degrees. Default: 0.5.
func WithGridCell(deg float64) Option {
	return optionFunc(func(c *clientConfig) {
		c.gridCellDeg = deg
	})
}

// WithLimits bounds radius, row counts and box expansions. Zero fields keep
// the engine defaults (1000 km, 100 rows, 3 expansions).
func WithLimits(l Limits) Option {
	return optionFunc(func(c *clientConfig) {
		c.limits = l
	})
}

// WithLogger enables structured logging for SDK operations.
// Pass nil to disable (default). Uses standard library slog.
func WithLogger(l *slog.Logger) Option {
	return optionFunc(func(c *clientConfig) {
		c.logger = l
	})
}

// WithPrometheus registers SDK metrics (operation counts and durations)
// on the given registerer. Pass nil to disable (default).
func WithPrometheus(reg prometheus.Registerer) Option {
	return optionFunc(func(c *clientConfig) {
		c.metricsReg = reg
	})
}
