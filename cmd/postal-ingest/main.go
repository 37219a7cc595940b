// Command postal-ingest converts a census ZCTA attribute table into the
// canonical postal dataset and writes it to a CSV file, Redis or PostgreSQL.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/joho/godotenv"
	"go.uber.org/zap"

	dbRedis "github.com/kailas-cloud/postalgeo/internal/db/redis"
	"github.com/kailas-cloud/postalgeo/internal/domain/postal"
	"github.com/kailas-cloud/postalgeo/internal/ingest"
	logpkg "github.com/kailas-cloud/postalgeo/internal/logger"
	"github.com/kailas-cloud/postalgeo/internal/source/postgres"
	redissrc "github.com/kailas-cloud/postalgeo/internal/source/redis"
	"github.com/kailas-cloud/postalgeo/internal/version"
)

type options struct {
	input    string
	format   string
	output   string
	path     string
	dsn      string
	addrs    string
	password string
	prefix   string
	timeout  time.Duration
	logLevel string
	version  bool
}

func parseFlags() options {
	var o options
	flag.StringVar(&o.input, "input", "", "census ZCTA attribute table (.dbf, .csv or gazetteer .txt)")
	flag.StringVar(&o.format, "format", "", "input format: dbf or csv (default: from extension)")
	flag.StringVar(&o.output, "output", "csv", "destination: csv, redis or postgres")
	flag.StringVar(&o.path, "path", "data/zcta.csv", "output file for -output=csv")
	flag.StringVar(&o.dsn, "dsn", os.Getenv("DATASET_DSN"), "PostgreSQL DSN for -output=postgres")
	flag.StringVar(&o.addrs, "addrs", envOr("REDIS_ADDR", "localhost:6379"), "comma separated Redis addresses")
	flag.StringVar(&o.password, "password", os.Getenv("REDIS_PASSWORD"), "Redis password")
	flag.StringVar(&o.prefix, "prefix", redissrc.DefaultPrefix, "Redis key prefix")
	flag.DurationVar(&o.timeout, "timeout", 10*time.Minute, "overall ingest timeout")
	flag.StringVar(&o.logLevel, "log-level", "info", "log level")
	flag.BoolVar(&o.version, "version", false, "print version and exit")
	flag.Parse()
	return o
}

func main() {
	// .env is optional
	_ = godotenv.Load(".env")
	o := parseFlags()

	if o.version {
		fmt.Println(version.String())
		return
	}

	logger, err := logpkg.NewLogger("local", o.logLevel)
	if err != nil {
		fmt.Fprintln(os.Stderr, "failed to create logger:", err)
		os.Exit(2)
	}
	defer func() { _ = logger.Sync() }()

	if o.input == "" {
		flag.Usage()
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithTimeout(ctx, o.timeout)
	defer cancel()

	sink, closeSink, err := openSink(ctx, o, clockwork.NewRealClock())
	if err != nil {
		logger.Fatal("Failed to open output", zap.String("output", o.output), zap.Error(err))
	}
	defer closeSink()

	rep, err := ingest.Run(ctx, o.input, ingest.Format(o.format), sink, logger)
	if err != nil {
		logger.Fatal("Ingest failed", zap.Error(err))
	}

	logger.Info("Ingest complete",
		zap.String("input", o.input),
		zap.String("output", o.output),
		zap.Int("read", rep.Read),
		zap.Int("written", rep.Written),
		zap.Int("regions", rep.Regions),
		zap.Int("unmapped", len(rep.Unmapped)),
		zap.Duration("took", rep.Took),
	)
}

func openSink(ctx context.Context, o options, clock clockwork.Clock) (ingest.Sink, func(), error) {
	switch o.output {
	case "csv":
		return ingest.CSVSink{Path: o.path}, func() {}, nil
	case "postgres":
		if o.dsn == "" {
			return nil, nil, fmt.Errorf("-dsn is required for postgres output")
		}
		pg, err := postgres.Open(ctx, o.dsn)
		if err != nil {
			return nil, nil, err
		}
		return pg, pg.Close, nil
	case "redis":
		store, err := dbRedis.NewStore(dbRedis.Config{
			Addrs:    strings.Split(o.addrs, ","),
			Password: o.password,
		})
		if err != nil {
			return nil, nil, fmt.Errorf("create redis store: %w", err)
		}
		if err := store.WaitForReady(ctx, 30*time.Second); err != nil {
			store.Close()
			return nil, nil, fmt.Errorf("redis not ready: %w", err)
		}
		src := redissrc.New(store, o.prefix)
		sink := ingest.SinkFunc(func(ctx context.Context, recs []postal.Record) error {
			return src.Replace(ctx, recs, clock.Now().UTC())
		})
		return sink, store.Close, nil
	default:
		return nil, nil, fmt.Errorf("unknown output %q (want csv, redis or postgres)", o.output)
	}
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
