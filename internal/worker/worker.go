// Package worker drives the sessionizer: it drains the ingest feed into
// the core and flushes due sessions on a ticker, one store transaction per
// batch.
package worker

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/vinceanalytics/logjoin/internal/kv"
	"github.com/vinceanalytics/logjoin/internal/logjoin"
	"github.com/vinceanalytics/logjoin/internal/tracker"
)

const DefaultFlushInterval = 10 * time.Second

type Sessionizer struct {
	db       *kv.DB
	core     *logjoin.LogJoin
	feed     <-chan tracker.Entry
	interval time.Duration
	log      *slog.Logger
	// now is injectable for tests; production stream time is wall clock.
	now func() time.Time
}

type Config struct {
	DB            *kv.DB
	Core          *logjoin.LogJoin
	Feed          <-chan tracker.Entry
	FlushInterval time.Duration
	Log           *slog.Logger
	Now           func() time.Time
}

func New(cfg Config) *Sessionizer {
	if cfg.FlushInterval <= 0 {
		cfg.FlushInterval = DefaultFlushInterval
	}
	if cfg.Log == nil {
		cfg.Log = slog.Default()
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &Sessionizer{
		db:       cfg.DB,
		core:     cfg.Core,
		feed:     cfg.Feed,
		interval: cfg.FlushInterval,
		log: cfg.Log.With(
			slog.String("component", "sessionizer"),
		),
		now: cfg.Now,
	}
}

// Run owns the core until ctx is cancelled. The core is single-threaded;
// all inserts and flushes happen on this goroutine.
func (s *Sessionizer) Run(ctx context.Context) error {
	s.log.Debug("start")
	defer s.log.Debug("exit")

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	txn := s.db.NewTransaction(true)
	// Discard after Commit is a no-op, so this covers every exit path.
	defer func() { txn.Discard() }()

	commit := func() {
		if err := txn.Commit(); err != nil {
			s.log.Error("commit failed, batch dropped", slog.String("err", err.Error()))
		}
		txn = s.db.NewTransaction(true)
	}

	for {
		select {
		case <-ctx.Done():
			commit()
			return nil

		case e := <-s.feed:
			err := s.core.InsertLogline(e.Line, txn)
			if err != nil && errors.Is(err, logjoin.ErrParse) {
				// Invalid input is expected traffic; already counted.
				s.log.Debug("dropped logline",
					slog.String("id", e.ID.String()),
					slog.String("err", err.Error()))
			} else if err != nil {
				return err
			}

		case <-ticker.C:
			if err := s.core.Flush(txn, s.now()); err != nil {
				return err
			}
			commit()
		}
	}
}
