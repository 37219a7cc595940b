package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"strings"

	"gopkg.in/yaml.v3"
)

// Dataset source kinds.
const (
	SourceCSV      = "csv"
	SourceSQLite   = "sqlite"
	SourcePostgres = "postgres"
	SourceRedis    = "redis"
)

// Config holds the postalgeo service configuration.
type Config struct {
	HTTP     HTTPConfig     `yaml:"http"`
	Auth     AuthConfig     `yaml:"auth"`
	Logging  LoggingConfig  `yaml:"logging"`
	Dataset  DatasetConfig  `yaml:"dataset"`
	Database DatabaseConfig `yaml:"database"`
	Engine   EngineConfig   `yaml:"engine"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error (default: determined by env)
}

// AuthConfig holds API authentication settings.
type AuthConfig struct {
	APIKeys []string `yaml:"api_keys"`
}

// HTTPConfig holds HTTP server settings.
type HTTPConfig struct {
	Port            int `yaml:"port"`
	ReadTimeoutSec  int `yaml:"read_timeout_sec"`
	WriteTimeoutSec int `yaml:"write_timeout_sec"`
	ShutdownSec     int `yaml:"shutdown_timeout_sec"`
}

// DatasetConfig selects where records are loaded from.
type DatasetConfig struct {
	Source            string  `yaml:"source"` // csv, sqlite, postgres, redis (default: csv)
	Path              string  `yaml:"path"`   // csv and sqlite
	DSN               string  `yaml:"dsn"`    // postgres
	ReloadIntervalSec int     `yaml:"reload_interval_sec"`
	GridCellDeg       float64 `yaml:"grid_cell_deg"`
}

// DatabaseConfig holds Redis/Valkey connection settings for the redis source.
type DatabaseConfig struct {
	Addrs            []string `yaml:"addrs"`
	Username         string   `yaml:"username"`
	Password         string   `yaml:"password"`
	DB               int      `yaml:"db"`
	KeyPrefix        string   `yaml:"key_prefix"`
	ReadinessTimeout int      `yaml:"readiness_timeout_sec"`
}

// EngineConfig bounds query work and sets request defaults.
type EngineConfig struct {
	MaxRadiusKm     float64 `yaml:"max_radius_km"`
	DefaultRadiusKm float64 `yaml:"default_radius_km"`
	DefaultMaxRows  int     `yaml:"default_max_rows"`
	MaxRows         int     `yaml:"max_rows"`
	MaxExpansions   int     `yaml:"max_expansions"`
}

// Load reads configuration from a YAML file by environment name (local, dev, prod).
func Load(env string) (Config, error) {
	configPath := findConfigPath(env)

	data, err := os.ReadFile(filepath.Clean(configPath))
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config %s: %w", configPath, err)
	}

	// Substitute env variables of the form ${VAR}
	data = expandEnvVars(data)

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.ApplyDefaults()

	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// MustLoad loads configuration or panics.
func MustLoad(env string) Config {
	cfg, err := Load(env)
	if err != nil {
		panic(err)
	}
	return cfg
}

// GetEnv returns the current environment from the ENV variable, defaulting to "local".
func GetEnv() string {
	if env := os.Getenv("ENV"); env != "" {
		return env
	}
	return "local"
}

// ApplyDefaults fills empty fields with default values.
func (c *Config) ApplyDefaults() {
	if c.HTTP.ReadTimeoutSec <= 0 {
		c.HTTP.ReadTimeoutSec = 10
	}
	if c.HTTP.WriteTimeoutSec <= 0 {
		c.HTTP.WriteTimeoutSec = 10
	}
	if c.HTTP.ShutdownSec <= 0 {
		c.HTTP.ShutdownSec = 10
	}
	if c.Dataset.Source == "" {
		c.Dataset.Source = SourceCSV
	}
	if c.Dataset.GridCellDeg <= 0 {
		c.Dataset.GridCellDeg = 0.5
	}
	if c.Database.ReadinessTimeout <= 0 {
		c.Database.ReadinessTimeout = 10
	}
	if c.Database.KeyPrefix == "" {
		c.Database.KeyPrefix = "postalgeo:"
	}
	if c.Engine.MaxRadiusKm <= 0 {
		c.Engine.MaxRadiusKm = 1000
	}
	if c.Engine.DefaultRadiusKm <= 0 {
		c.Engine.DefaultRadiusKm = 5
	}
	if c.Engine.MaxRows <= 0 {
		c.Engine.MaxRows = 100
	}
	if c.Engine.DefaultMaxRows <= 0 {
		c.Engine.DefaultMaxRows = 10
	}
	if c.Engine.MaxExpansions <= 0 {
		c.Engine.MaxExpansions = 3
	}
}

// Validate checks the configuration for correctness.
func (c *Config) Validate() error {
	if c.HTTP.Port <= 0 || c.HTTP.Port > 65535 {
		return fmt.Errorf("http.port must be between 1 and 65535, got %d", c.HTTP.Port)
	}
	switch c.Dataset.Source {
	case SourceCSV, SourceSQLite:
		if c.Dataset.Path == "" {
			return fmt.Errorf("dataset.path is required for source %q", c.Dataset.Source)
		}
	case SourcePostgres:
		if c.Dataset.DSN == "" {
			return fmt.Errorf("dataset.dsn is required for source %q", c.Dataset.Source)
		}
	case SourceRedis:
		if len(c.Database.Addrs) == 0 {
			return fmt.Errorf("database.addrs is required for source %q", c.Dataset.Source)
		}
	default:
		return fmt.Errorf(
			"dataset.source must be one of csv, sqlite, postgres, redis, got %q", c.Dataset.Source,
		)
	}
	if c.Dataset.ReloadIntervalSec < 0 {
		return fmt.Errorf("dataset.reload_interval_sec must not be negative, got %d", c.Dataset.ReloadIntervalSec)
	}
	if c.Engine.DefaultRadiusKm > c.Engine.MaxRadiusKm {
		return fmt.Errorf("engine.default_radius_km (%g) exceeds engine.max_radius_km (%g)",
			c.Engine.DefaultRadiusKm, c.Engine.MaxRadiusKm)
	}
	if c.Engine.DefaultMaxRows > c.Engine.MaxRows {
		return fmt.Errorf("engine.default_max_rows (%d) exceeds engine.max_rows (%d)",
			c.Engine.DefaultMaxRows, c.Engine.MaxRows)
	}
	return nil
}

// findConfigPath locates the config file.
func findConfigPath(env string) string {
	filename := fmt.Sprintf("%s.yaml", env)

	// 1. Check ./config/
	if path := filepath.Join("config", filename); fileExists(path) {
		return path
	}

	// 2. Check relative to the source file
	_, b, _, _ := runtime.Caller(0)
	projectRoot := filepath.Dir(filepath.Dir(filepath.Dir(b))) // internal/config -> project root
	if path := filepath.Join(projectRoot, "config", filename); fileExists(path) {
		return path
	}

	// 3. Fallback to ./config/
	return filepath.Join("config", filename)
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// expandEnvVars replaces ${VAR} and ${VAR:-default} with environment variable values.
var envVarRegex = regexp.MustCompile(`\$\{([^}]+)\}`)

func expandEnvVars(data []byte) []byte {
	return envVarRegex.ReplaceAllFunc(data, func(match []byte) []byte {
		expr := string(match[2 : len(match)-1]) // strip ${ and }
		varName, defaultVal, hasDefault := strings.Cut(expr, ":-")
		val := os.Getenv(varName)
		if val == "" && hasDefault {
			val = defaultVal
		}
		return []byte(val)
	})
}
