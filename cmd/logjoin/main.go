package main

import (
	"log"
	"os"

	"github.com/urfave/cli/v2"
)

func main() {
	app := &cli.App{
		Name:        "logjoin",
		Usage:       "tracking pixel sessionizer",
		Description: description,
		Commands: []*cli.Command{
			serveCMD(),
			drainCMD(),
		},
	}
	err := app.Run(os.Args)
	if err != nil {
		log.Fatal(err)
	}
}

const description = `logjoin ingests tracking pixel loglines, groups events by user and emits
one consolidated session envelope per user once activity has been idle for
the configured window. Features include
	* Embedded session buffer: events are staged in a local badger
	  database, no external queue or store required.
	* Shard routing: instances carve the uid space between them and drop
	  everything outside their own slot.
	* Crash recovery: flush deadlines are rebuilt from persisted events on
	  startup.
Finalized envelopes are queued in the same database for downstream pickup.
`
