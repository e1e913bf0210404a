package logjoin

import (
	"bytes"
	"log/slog"

	"github.com/vinceanalytics/logjoin/internal/kv"
	"github.com/vinceanalytics/logjoin/internal/session"
)

// DrainSessionQueue scans the "__sessionq-" range, yields each decoded
// envelope to fn and deletes the record in the same pass. A failing fn
// stops the drain with the current and remaining records still queued.
// Undecodable records are logged and dropped; they would otherwise wedge
// the queue.
func (lj *LogJoin) DrainSessionQueue(txn kv.Txn, fn func(*session.Envelope) error) error {
	cur := txn.Cursor()
	defer cur.Close()

	prefix := []byte(sessionQueuePrefix)
	for ok := cur.SeekFirstOrGreater(prefix); ok; ok = cur.Next() {
		if !bytes.HasPrefix(cur.Key(), prefix) {
			break
		}
		value, err := cur.Value()
		if err != nil {
			return err
		}
		envelope, derr := session.DecodeEnvelope(value)
		if derr != nil {
			lj.log.Error("invalid session envelope",
				slog.String("key", string(cur.Key())),
				slog.String("err", derr.Error()))
		} else if err := fn(envelope); err != nil {
			return err
		}
		if err := cur.Delete(); err != nil {
			return err
		}
	}
	return nil
}
