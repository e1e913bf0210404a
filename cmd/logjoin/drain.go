package main

import (
	"encoding/json"
	"log/slog"
	"os"

	"github.com/urfave/cli/v2"
	"github.com/vinceanalytics/logjoin/internal/config"
	"github.com/vinceanalytics/logjoin/internal/join"
	"github.com/vinceanalytics/logjoin/internal/kv"
	"github.com/vinceanalytics/logjoin/internal/logjoin"
	"github.com/vinceanalytics/logjoin/internal/must"
	"github.com/vinceanalytics/logjoin/internal/session"
)

// drainCMD empties the session queue to stdout, one JSON envelope per
// line. Meant for downstream feed pickup and debugging; drained records
// are gone.
func drainCMD() *cli.Command {
	var (
		dataPath = "data"
		logLevel = "error"
	)
	return &cli.Command{
		Name:  "drain",
		Usage: "print queued session envelopes as JSON lines and delete them",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "data",
				Usage:       "path to the session buffer database",
				Value:       "data",
				Destination: &dataPath,
				EnvVars:     []string{"LOGJOIN_DATA"},
			},
			&cli.StringFlag{
				Name:        "log-level",
				Usage:       "log level (debug, info, warn, error)",
				Value:       "error",
				Destination: &logLevel,
				EnvVars:     []string{"LOGJOIN_LOG_LEVEL"},
			},
		},
		Action: func(c *cli.Context) error {
			slog.SetDefault(config.Logger(logLevel))
			db := must.Must(kv.Open(dataPath))("opening session buffer database",
				slog.String("path", dataPath))
			defer db.Close()

			core := logjoin.New(logjoin.Config{
				Target: join.Func(func(*session.TrackedSession) ([]byte, error) {
					return nil, nil
				}),
			})
			enc := json.NewEncoder(os.Stdout)
			return db.Update(func(txn kv.Txn) error {
				return core.DrainSessionQueue(txn, func(e *session.Envelope) error {
					return enc.Encode(e)
				})
			})
		},
	}
}
