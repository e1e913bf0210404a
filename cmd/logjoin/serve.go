package main

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/urfave/cli/v2"
	"github.com/vinceanalytics/logjoin/internal/config"
	"github.com/vinceanalytics/logjoin/internal/join"
	"github.com/vinceanalytics/logjoin/internal/kv"
	"github.com/vinceanalytics/logjoin/internal/logjoin"
	"github.com/vinceanalytics/logjoin/internal/must"
	"github.com/vinceanalytics/logjoin/internal/shard"
	"github.com/vinceanalytics/logjoin/internal/tracker"
	"github.com/vinceanalytics/logjoin/internal/worker"
)

func serveCMD() *cli.Command {
	o := config.Defaults()
	return &cli.Command{
		Name:  "serve",
		Usage: "run the pixel endpoint and the sessionizer",
		Flags: config.Flags(o),
		Action: func(c *cli.Context) error {
			return serve(c.Context, o)
		},
	}
}

func serve(ctx context.Context, o *config.Options) error {
	xlg := config.Logger(o.LogLevel)
	slog.SetDefault(xlg)

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	sh := must.Must(shard.Parse(o.Shard))("parsing shard spec")
	db := must.Must(kv.Open(o.DataPath))("opening session buffer database",
		slog.String("path", o.DataPath))
	defer db.Close()

	stats := logjoin.NewStats(o.Namespace)
	must.One(stats.Register(prometheus.DefaultRegisterer))("registering sessionizer counters")

	core := logjoin.New(logjoin.Config{
		Shard:       sh,
		Target:      join.NewAnalytics(stats.JoinedQueries, stats.JoinedItemVisits),
		IdleTimeout: o.IdleTimeout,
		DryRun:      o.DryRun,
		Stats:       stats,
		Log:         xlg,
	})
	must.One(db.View(core.ImportTimeoutList))("importing timeout list")

	feed := make(chan tracker.Entry, o.FeedBuffer)
	servlet := tracker.NewServlet(tracker.Config{
		Customer:        o.Customer,
		MinPixelVersion: o.MinPixelVersion,
		Feed:            feed,
		Log:             xlg,
	})
	must.One(servlet.Stats().Register(prometheus.DefaultRegisterer))("registering tracker counters")

	mux := http.NewServeMux()
	mux.Handle("/track/", servlet)
	mux.Handle("/metrics", promhttp.Handler())
	srv := &http.Server{
		Addr:    o.ListenAddress,
		Handler: mux,
		BaseContext: func(net.Listener) context.Context {
			return ctx
		},
	}

	errs := make(chan error, 2)
	go func() {
		errs <- worker.New(worker.Config{
			DB:            db,
			Core:          core,
			Feed:          feed,
			FlushInterval: o.FlushInterval,
			Log:           xlg,
		}).Run(ctx)
	}()
	go func() {
		xlg.Info("listening",
			slog.String("addr", o.ListenAddress),
			slog.String("shard", sh.String()))
		err := srv.ListenAndServe()
		if !errors.Is(err, http.ErrServerClosed) {
			errs <- err
		}
	}()

	select {
	case <-ctx.Done():
	case err := <-errs:
		if err != nil {
			xlg.Error("fatal", slog.String("err", err.Error()))
		}
		stop()
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
