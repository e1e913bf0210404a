package config

import (
	"log/slog"
	"os"
	"time"

	"github.com/urfave/cli/v2"
)

const (
	DefaultIdleTimeout   = 30 * time.Minute
	DefaultFlushInterval = 10 * time.Second
	DefaultFeedBuffer    = 4096
)

type Options struct {
	ListenAddress   string
	DataPath        string
	LogLevel        string
	Customer        string
	Shard           string
	IdleTimeout     time.Duration
	FlushInterval   time.Duration
	DryRun          bool
	Namespace       string
	MinPixelVersion int
	FeedBuffer      int
}

func Defaults() *Options {
	return &Options{
		ListenAddress: ":8080",
		DataPath:      "data",
		LogLevel:      "info",
		Customer:      "default",
		IdleTimeout:   DefaultIdleTimeout,
		FlushInterval: DefaultFlushInterval,
		Namespace:     "logjoin",
		FeedBuffer:    DefaultFeedBuffer,
	}
}

func Logger(level string) *slog.Logger {
	var lvl slog.Level
	lvl.UnmarshalText([]byte(level))
	return slog.New(slog.NewTextHandler(
		os.Stdout, &slog.HandlerOptions{
			Level: lvl,
		},
	))
}

func Flags(o *Options) []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Category:    "core",
			Name:        "listen",
			Usage:       "http address serving the tracking pixel and /metrics",
			Value:       ":8080",
			Destination: &o.ListenAddress,
			EnvVars:     []string{"LOGJOIN_LISTEN"},
		},
		&cli.StringFlag{
			Category:    "core",
			Name:        "data",
			Usage:       "path to the session buffer database",
			Value:       "data",
			Destination: &o.DataPath,
			EnvVars:     []string{"LOGJOIN_DATA"},
		},
		&cli.StringFlag{
			Category:    "core",
			Name:        "log-level",
			Usage:       "log level (debug, info, warn, error)",
			Value:       "info",
			Destination: &o.LogLevel,
			EnvVars:     []string{"LOGJOIN_LOG_LEVEL"},
		},
		&cli.StringFlag{
			Category:    "core",
			Name:        "customer",
			Usage:       "customer key stamped on ingested loglines",
			Value:       "default",
			Destination: &o.Customer,
			EnvVars:     []string{"LOGJOIN_CUSTOMER"},
		},
		&cli.StringFlag{
			Category:    "join",
			Name:        "shard",
			Usage:       "shard spec as index/total, empty accepts all uids",
			Destination: &o.Shard,
			EnvVars:     []string{"LOGJOIN_SHARD"},
		},
		&cli.DurationFlag{
			Category:    "join",
			Name:        "idle-timeout",
			Usage:       "inactivity window after which a session is finalized",
			Value:       DefaultIdleTimeout,
			Destination: &o.IdleTimeout,
			EnvVars:     []string{"LOGJOIN_IDLE_TIMEOUT"},
		},
		&cli.DurationFlag{
			Category:    "join",
			Name:        "flush-interval",
			Usage:       "how often due sessions are flushed and the batch committed",
			Value:       DefaultFlushInterval,
			Destination: &o.FlushInterval,
			EnvVars:     []string{"LOGJOIN_FLUSH_INTERVAL"},
		},
		&cli.BoolFlag{
			Category:    "join",
			Name:        "dry-run",
			Usage:       "compute session envelopes without writing them",
			Destination: &o.DryRun,
			EnvVars:     []string{"LOGJOIN_DRY_RUN"},
		},
		&cli.StringFlag{
			Category:    "join",
			Name:        "metrics-namespace",
			Usage:       "prefix for the sessionizer counters",
			Value:       "logjoin",
			Destination: &o.Namespace,
			EnvVars:     []string{"LOGJOIN_METRICS_NAMESPACE"},
		},
		&cli.IntFlag{
			Category:    "tracker",
			Name:        "min-pixel-version",
			Usage:       "reject tracking tags older than this version",
			Destination: &o.MinPixelVersion,
			EnvVars:     []string{"LOGJOIN_MIN_PIXEL_VERSION"},
		},
		&cli.IntFlag{
			Category:    "tracker",
			Name:        "feed-buffer",
			Usage:       "ingest feed capacity between the servlet and the sessionizer",
			Value:       DefaultFeedBuffer,
			Destination: &o.FeedBuffer,
			EnvVars:     []string{"LOGJOIN_FEED_BUFFER"},
		},
	}
}
