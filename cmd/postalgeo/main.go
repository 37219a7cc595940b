package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/kailas-cloud/postalgeo/internal/config"
	"github.com/kailas-cloud/postalgeo/internal/dataset"
	dbRedis "github.com/kailas-cloud/postalgeo/internal/db/redis"
	logpkg "github.com/kailas-cloud/postalgeo/internal/logger"
	"github.com/kailas-cloud/postalgeo/internal/metrics"
	"github.com/kailas-cloud/postalgeo/internal/source"
	"github.com/kailas-cloud/postalgeo/internal/source/csvfile"
	"github.com/kailas-cloud/postalgeo/internal/source/postgres"
	redissrc "github.com/kailas-cloud/postalgeo/internal/source/redis"
	"github.com/kailas-cloud/postalgeo/internal/source/sqlite"
	chiTransport "github.com/kailas-cloud/postalgeo/internal/transport/chi"
	healthuc "github.com/kailas-cloud/postalgeo/internal/usecase/health"
	reloaduc "github.com/kailas-cloud/postalgeo/internal/usecase/reload"
	resolveuc "github.com/kailas-cloud/postalgeo/internal/usecase/resolve"
	"github.com/kailas-cloud/postalgeo/internal/version"
)

func main() {
	// .env is optional
	_ = godotenv.Load(".env")

	env := config.GetEnv()

	cfg, err := config.Load(env)
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	logger, err := logpkg.NewLogger(env, cfg.Logging.Level)
	if err != nil {
		panic("failed to create logger: " + err.Error())
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("Starting postalgeo API server",
		zap.String("version", version.Version),
		zap.String("commit", version.Commit),
		zap.String("env", env),
		zap.Int("http_port", cfg.HTTP.Port),
		zap.String("dataset_source", cfg.Dataset.Source),
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	src, closeSource, err := openSource(ctx, cfg)
	if err != nil {
		logger.Fatal("Failed to open record source", zap.Error(err))
	}
	defer closeSource()

	metrics.RegisterDatasetMetrics()

	// The first build must succeed: a corrupted or unreachable dataset is fatal.
	holder := dataset.NewHolder(nil)
	reloader := reloaduc.New(src, holder, logger).WithCellSize(cfg.Dataset.GridCellDeg)
	if _, err := reloader.Reload(ctx); err != nil {
		logger.Fatal("Initial dataset build failed", zap.Error(err))
	}

	resolveSvc := resolveuc.New(holder).WithLimits(resolveuc.Limits{
		MaxRadiusKm:   cfg.Engine.MaxRadiusKm,
		MaxRows:       cfg.Engine.MaxRows,
		MaxExpansions: cfg.Engine.MaxExpansions,
	})
	healthSvc := healthuc.New(holder, src)

	server := chiTransport.NewServer(resolveSvc, healthSvc, reloader, logger).
		WithDefaults(chiTransport.Defaults{
			MaxRows:  cfg.Engine.DefaultMaxRows,
			RadiusKm: cfg.Engine.DefaultRadiusKm,
		})

	go reloader.Run(ctx, time.Duration(cfg.Dataset.ReloadIntervalSec)*time.Second)

	addr := fmt.Sprintf(":%d", cfg.HTTP.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      chiTransport.NewRouter(server, cfg.Auth.APIKeys, logger),
		ReadTimeout:  time.Duration(cfg.HTTP.ReadTimeoutSec) * time.Second,
		WriteTimeout: time.Duration(cfg.HTTP.WriteTimeoutSec) * time.Second,
	}

	go func() {
		logger.Info("Starting HTTP server", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("HTTP server error", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logger.Info("Received shutdown signal")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.HTTP.ShutdownSec)*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Error during shutdown", zap.Error(err))
	}

	logger.Info("Server stopped gracefully")
}

// openSource builds the configured record source and its cleanup.
func openSource(ctx context.Context, cfg config.Config) (source.Source, func(), error) {
	switch cfg.Dataset.Source {
	case config.SourceCSV:
		return csvfile.New(cfg.Dataset.Path), func() {}, nil
	case config.SourceSQLite:
		s, err := sqlite.Open(cfg.Dataset.Path)
		if err != nil {
			return nil, nil, fmt.Errorf("open sqlite: %w", err)
		}
		return s, func() { _ = s.Close() }, nil
	case config.SourcePostgres:
		s, err := postgres.Open(ctx, cfg.Dataset.DSN)
		if err != nil {
			return nil, nil, fmt.Errorf("open postgres: %w", err)
		}
		return s, s.Close, nil
	case config.SourceRedis:
		store, err := dbRedis.NewStore(dbRedis.Config{
			Addrs:    cfg.Database.Addrs,
			Username: cfg.Database.Username,
			Password: cfg.Database.Password,
			DB:       cfg.Database.DB,
		})
		if err != nil {
			return nil, nil, fmt.Errorf("create redis store: %w", err)
		}
		timeout := time.Duration(cfg.Database.ReadinessTimeout) * time.Second
		if err := store.WaitForReady(ctx, timeout); err != nil {
			store.Close()
			return nil, nil, fmt.Errorf("redis not ready: %w", err)
		}
		return redissrc.New(store, cfg.Database.KeyPrefix), store.Close, nil
	default:
		return nil, nil, fmt.Errorf("unknown dataset source %q", cfg.Dataset.Source)
	}
}
