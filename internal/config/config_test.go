package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func validConfig() Config {
	cfg := Config{
		HTTP:    HTTPConfig{Port: 8080},
		Dataset: DatasetConfig{Source: SourceCSV, Path: "data/zcta.csv"},
	}
	cfg.ApplyDefaults()
	return cfg
}

func TestValidate_Sources(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"csv ok", func(c *Config) {}, ""},
		{"csv without path", func(c *Config) { c.Dataset.Path = "" }, "dataset.path is required"},
		{"sqlite ok", func(c *Config) { c.Dataset.Source = SourceSQLite }, ""},
		{"postgres without dsn", func(c *Config) { c.Dataset.Source = SourcePostgres }, "dataset.dsn is required"},
		{"postgres ok", func(c *Config) {
			c.Dataset.Source = SourcePostgres
			c.Dataset.DSN = "postgres://localhost/postal"
		}, ""},
		{"redis without addrs", func(c *Config) { c.Dataset.Source = SourceRedis }, "database.addrs is required"},
		{"redis ok", func(c *Config) {
			c.Dataset.Source = SourceRedis
			c.Database.Addrs = []string{"localhost:6379"}
		}, ""},
		{"unknown source", func(c *Config) { c.Dataset.Source = "mysql" }, "dataset.source must be one of"},
		{"negative reload", func(c *Config) { c.Dataset.ReloadIntervalSec = -1 }, "reload_interval_sec"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg := validConfig()
			tc.mutate(&cfg)
			err := cfg.Validate()
			if tc.wantErr == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tc.wantErr) {
				t.Fatalf("expected error containing %q, got %v", tc.wantErr, err)
			}
		})
	}
}

func TestValidate_InvalidPort(t *testing.T) {
	cfg := validConfig()
	cfg.HTTP.Port = 0

	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for invalid port")
	}
}

func TestValidate_EngineDefaultsWithinLimits(t *testing.T) {
	cfg := validConfig()
	cfg.Engine.DefaultRadiusKm = 2000

	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for default radius above the ceiling")
	}

	cfg = validConfig()
	cfg.Engine.DefaultMaxRows = 500
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for default rows above max rows")
	}
}

func TestApplyDefaults(t *testing.T) {
	cfg := Config{}
	cfg.ApplyDefaults()

	if cfg.HTTP.ReadTimeoutSec != 10 {
		t.Errorf("expected ReadTimeoutSec=10, got %d", cfg.HTTP.ReadTimeoutSec)
	}
	if cfg.HTTP.ShutdownSec != 10 {
		t.Errorf("expected ShutdownSec=10, got %d", cfg.HTTP.ShutdownSec)
	}
	if cfg.Dataset.Source != SourceCSV {
		t.Errorf("expected Source=%q, got %q", SourceCSV, cfg.Dataset.Source)
	}
	if cfg.Dataset.GridCellDeg != 0.5 {
		t.Errorf("expected GridCellDeg=0.5, got %g", cfg.Dataset.GridCellDeg)
	}
	if cfg.Database.KeyPrefix != "postalgeo:" {
		t.Errorf("expected KeyPrefix='postalgeo:', got %q", cfg.Database.KeyPrefix)
	}
	if cfg.Engine.MaxRadiusKm != 1000 {
		t.Errorf("expected MaxRadiusKm=1000, got %g", cfg.Engine.MaxRadiusKm)
	}
	if cfg.Engine.DefaultRadiusKm != 5 {
		t.Errorf("expected DefaultRadiusKm=5, got %g", cfg.Engine.DefaultRadiusKm)
	}
	if cfg.Engine.DefaultMaxRows != 10 || cfg.Engine.MaxRows != 100 {
		t.Errorf("expected rows 10/100, got %d/%d", cfg.Engine.DefaultMaxRows, cfg.Engine.MaxRows)
	}
	if cfg.Engine.MaxExpansions != 3 {
		t.Errorf("expected MaxExpansions=3, got %d", cfg.Engine.MaxExpansions)
	}
}

func TestApplyDefaults_NoOverride(t *testing.T) {
	cfg := Config{
		HTTP:     HTTPConfig{ReadTimeoutSec: 30, WriteTimeoutSec: 60, ShutdownSec: 5},
		Dataset:  DatasetConfig{Source: SourceRedis, GridCellDeg: 1},
		Database: DatabaseConfig{ReadinessTimeout: 15, KeyPrefix: "custom:"},
		Engine:   EngineConfig{MaxRadiusKm: 250, MaxRows: 50},
	}
	cfg.ApplyDefaults()

	if cfg.HTTP.WriteTimeoutSec != 60 {
		t.Errorf("expected WriteTimeoutSec=60, got %d", cfg.HTTP.WriteTimeoutSec)
	}
	if cfg.Dataset.Source != SourceRedis || cfg.Dataset.GridCellDeg != 1 {
		t.Errorf("dataset overridden: %+v", cfg.Dataset)
	}
	if cfg.Database.KeyPrefix != "custom:" {
		t.Errorf("expected KeyPrefix='custom:', got %q", cfg.Database.KeyPrefix)
	}
	if cfg.Engine.MaxRadiusKm != 250 || cfg.Engine.MaxRows != 50 {
		t.Errorf("engine overridden: %+v", cfg.Engine)
	}
}

func TestExpandEnvVars(t *testing.T) {
	t.Setenv("POSTALGEO_TEST_PORT", "9090")

	in := "port: ${POSTALGEO_TEST_PORT}\npath: ${POSTALGEO_TEST_UNSET:-data/zcta.csv}\nkey: ${POSTALGEO_TEST_UNSET}\n"
	got := string(expandEnvVars([]byte(in)))

	want := "port: 9090\npath: data/zcta.csv\nkey: \n"
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestLoad_FromConfigDir(t *testing.T) {
	dir := t.TempDir()
	if err := os.Mkdir(filepath.Join(dir, "config"), 0o755); err != nil {
		t.Fatal(err)
	}
	yaml := `http:
  port: ${POSTALGEO_TEST_HTTP_PORT:-8081}
dataset:
  source: sqlite
  path: ./zcta.db
  reload_interval_sec: 3600
engine:
  max_radius_km: 500
`
	if err := os.WriteFile(filepath.Join(dir, "config", "unittest.yaml"), []byte(yaml), 0o600); err != nil {
		t.Fatal(err)
	}
	chdir(t, dir)

	cfg, err := Load("unittest")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.HTTP.Port != 8081 {
		t.Errorf("expected port 8081, got %d", cfg.HTTP.Port)
	}
	if cfg.Dataset.Source != SourceSQLite || cfg.Dataset.ReloadIntervalSec != 3600 {
		t.Errorf("unexpected dataset: %+v", cfg.Dataset)
	}
	if cfg.Engine.MaxRadiusKm != 500 || cfg.Engine.DefaultRadiusKm != 5 {
		t.Errorf("unexpected engine: %+v", cfg.Engine)
	}
}

func TestLoad_Missing(t *testing.T) {
	chdir(t, t.TempDir())
	if _, err := Load("does-not-exist"); err == nil {
		t.Fatal("expected error for missing config file")
	}
}

// chdir mirrors testing.T.Chdir (Go 1.24+) for older toolchains.
func chdir(t *testing.T, dir string) {
	t.Helper()
	prev, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() {
		if err := os.Chdir(prev); err != nil {
			t.Fatal(err)
		}
	})
}
