// Package logjoin implements the sessionizer core: loglines in, session
// envelopes out. Events are buffered as compact binary records in an
// ordered key-value store under per-user key ranges; an in-memory deadline
// index decides when a user's session has gone quiescent and is flushed.
//
// The core is single-threaded by contract. One driver owns it and the
// transaction handles passed in; callers needing concurrent ingress must
// serialize outside.
package logjoin

import (
	"bytes"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/vinceanalytics/logjoin/internal/join"
	"github.com/vinceanalytics/logjoin/internal/kv"
	"github.com/vinceanalytics/logjoin/internal/pixel"
	"github.com/vinceanalytics/logjoin/internal/session"
	"github.com/vinceanalytics/logjoin/internal/shard"
)

// DefaultIdleTimeout closes a session after this much inactivity.
const DefaultIdleTimeout = 30 * time.Minute

// sessionQueuePrefix marks output envelope records. Keys under "__" are
// internal and skipped by the bootstrap scan.
const (
	reservedPrefix     = "__"
	sessionQueuePrefix = "__sessionq-"
	custSuffix         = "~cust"
)

// ErrParse covers malformed loglines: bad pipe wrapper, missing or invalid
// c/e params, disallowed event types.
var ErrParse = errors.New("logjoin: parse error")

const microsPerSecond = int64(time.Second / time.Microsecond)

type Config struct {
	// Shard decides which uids this instance owns. Defaults to accepting
	// everything.
	Shard shard.Shard
	// Target computes the session-data blob. Required.
	Target join.Target
	// IdleTimeout defaults to DefaultIdleTimeout.
	IdleTimeout time.Duration
	// DryRun computes envelopes without writing them. Source events are
	// still deleted and counters still move.
	DryRun bool
	// Params defaults to the standard pixel dictionary.
	Params *pixel.Params
	Stats  *Stats
	Log    *slog.Logger
}

// LogJoin is the sessionizer. Construct with New, bootstrap with
// ImportTimeoutList, then drive with InsertLogline and Flush.
type LogJoin struct {
	shard       shard.Shard
	target      join.Target
	params      *pixel.Params
	idleTimeout time.Duration
	dryRun      bool
	deadlines   *deadlineIndex
	stats       *Stats
	log         *slog.Logger
}

func New(cfg Config) *LogJoin {
	if cfg.Target == nil {
		panic("logjoin: nil join target")
	}
	if cfg.Shard == nil {
		cfg.Shard = shard.All()
	}
	if cfg.IdleTimeout <= 0 {
		cfg.IdleTimeout = DefaultIdleTimeout
	}
	if cfg.Params == nil {
		cfg.Params = pixel.Default()
	}
	if cfg.Stats == nil {
		cfg.Stats = NewStats("logjoin")
	}
	if cfg.Log == nil {
		cfg.Log = slog.Default()
	}
	return &LogJoin{
		shard:       cfg.Shard,
		target:      cfg.Target,
		params:      cfg.Params,
		idleTimeout: cfg.IdleTimeout,
		dryRun:      cfg.DryRun,
		deadlines:   newDeadlineIndex(),
		stats:       cfg.Stats,
		log: cfg.Log.With(
			slog.String("component", "logjoin"),
		),
	}
}

// NumSessions reports the number of users with a pending flush deadline.
func (lj *LogJoin) NumSessions() int {
	return lj.deadlines.Len()
}

// Deadline exposes a user's flush deadline in micros, for tests and
// introspection.
func (lj *LogJoin) Deadline(uid string) (int64, bool) {
	return lj.deadlines.Get(uid)
}

// InsertLogline ingests the pipe-wrapped feed form
// "<customer>|<unix_seconds>|<query_string>".
func (lj *LogJoin) InsertLogline(line string, txn kv.Txn) error {
	customer, sec, body, err := pixel.SplitLogline(line)
	if err != nil {
		lj.stats.LoglinesInvalid.Inc()
		return fmt.Errorf("%w: %v", ErrParse, err)
	}
	return lj.Insert(customer, time.Unix(int64(sec), 0), body, txn)
}

// Insert ingests one pixel logline body for the given customer and event
// time. Structural failures count loglines_invalid exactly once here and
// return ErrParse; whether to abort the surrounding transaction is the
// caller's call. Events outside this instance's shard are dropped
// silently.
func (lj *LogJoin) Insert(customer string, t time.Time, body string, txn kv.Txn) error {
	lj.stats.LoglinesTotal.Inc()

	values, err := url.ParseQuery(body)
	if err != nil {
		return lj.invalid(fmt.Errorf("%w: bad query string: %v", ErrParse, err))
	}

	uid, eid, ok := strings.Cut(values.Get("c"), "~")
	if !ok || uid == "" || eid == "" {
		return lj.invalid(fmt.Errorf("%w: missing or invalid c param", ErrParse))
	}

	if !lj.shard.Accept(uid) {
		lj.log.Debug("dropping logline outside shard",
			slog.String("uid", uid),
			slog.String("shard", lj.shard.String()))
		return nil
	}

	evtype := values.Get("e")
	if len(evtype) != 1 {
		return lj.invalid(fmt.Errorf("%w: missing or invalid e param", ErrParse))
	}
	switch evtype[0] {
	case 'q', 'v', 'c', 'u':
	default:
		return lj.invalid(fmt.Errorf("%w: invalid e param %q", ErrParse, evtype))
	}

	stored := storedParams(values)

	// The deadline moves even if the append below fails; an aborted
	// transaction does not roll the index back. A flush then finds no
	// records for the user and drops the entry again.
	lj.deadlines.Touch(uid, t.UnixMicro()+lj.idleTimeout.Microseconds())

	record, err := lj.params.EncodeEvent(uint64(t.Unix()), eid, stored)
	if err != nil {
		return lj.invalid(fmt.Errorf("%w: %v", ErrParse, err))
	}

	evkey := uid + "~" + evtype + "~" + hex64()
	if err := txn.Insert([]byte(evkey), record); err != nil {
		return err
	}
	return txn.Update([]byte(uid+custSuffix), []byte(customer))
}

func (lj *LogJoin) invalid(err error) error {
	lj.stats.LoglinesInvalid.Inc()
	return err
}

// storedParams drops the routing keys c, e and v and flattens the rest in
// stable order.
func storedParams(values url.Values) []pixel.Param {
	names := make([]string, 0, len(values))
	for name := range values {
		switch name {
		case "c", "e", "v":
			continue
		}
		names = append(names, name)
	}
	sort.Strings(names)
	var out []pixel.Param
	for _, name := range names {
		for _, v := range values[name] {
			out = append(out, pixel.Param{Name: name, Value: v})
		}
	}
	return out
}

// Flush finalizes every user whose deadline is before streamTime. Eviction
// order is unspecified. Envelopes written during the flush become visible
// once the caller commits the transaction.
func (lj *LogJoin) Flush(txn kv.Txn, streamTime time.Time) error {
	stream := streamTime.UnixMicro()
	return lj.deadlines.Evict(stream, func(uid string) error {
		return lj.flushSession(uid, stream, txn)
	})
}

// flushSession rebuilds one user's session from the store in a single
// scan-and-drain pass, hands it to the join target and enqueues the
// envelope. Store errors propagate; everything else is best-effort: a
// session without a customer key, with an undecodable record, or a failing
// target is logged, and its events stay deleted either way.
func (lj *LogJoin) flushSession(uid string, streamTime int64, txn kv.Txn) error {
	cur := txn.Cursor()
	defer cur.Close()

	sess := &session.TrackedSession{UID: uid}
	prefix := []byte(uid + "~")
	custKey := uid + custSuffix

	for ok := cur.SeekFirstOrGreater(prefix); ok; ok = cur.Next() {
		key := cur.Key()
		if !bytes.HasPrefix(key, prefix) {
			break
		}
		value, err := cur.Value()
		if err != nil {
			return err
		}
		if string(key) == custKey {
			sess.CustomerKey = string(value)
		} else if len(key) > len(uid)+1 {
			evtype := string(key[len(uid)+1])
			sec, eid, params, derr := lj.params.DecodeEvent(value)
			if derr != nil {
				lj.log.Error("invalid event record",
					slog.String("uid", uid),
					slog.String("err", derr.Error()))
				lj.stats.LoglinesInvalid.Inc()
			} else {
				sess.Insert(sec*uint64(microsPerSecond), evtype, eid, params)
			}
		}
		if err := cur.Delete(); err != nil {
			return err
		}
	}

	if sess.CustomerKey == "" {
		lj.log.Error("missing customer key", slog.String("uid", uid))
		return nil
	}

	firstSeen, ok := sess.FirstSeen()
	if !ok {
		lj.log.Error("session has no events", slog.String("uid", uid))
		return nil
	}

	data, err := lj.target.Join(sess)
	if err != nil {
		lj.log.Error("join target failed",
			slog.String("uid", uid),
			slog.String("err", err.Error()),
			slog.String("session", sess.Debug()))
		return nil
	}

	if !lj.dryRun {
		envelope := &session.Envelope{
			Customer:    sess.CustomerKey,
			SessionID:   sess.UID,
			Time:        firstSeen,
			SessionData: data,
		}
		key := sessionQueuePrefix + hex128()
		if err := txn.Update([]byte(key), envelope.Encode()); err != nil {
			return err
		}
	}

	lj.stats.JoinedSessions.Inc()
	return nil
}

// ImportTimeoutList rebuilds the deadline index from persisted event
// records. It must run to completion before the first Insert. Internal
// "__" keys and customer-key records are skipped; for every event record
// the stored timestamp plus the idle timeout is max-merged into the index.
func (lj *LogJoin) ImportTimeoutList(txn kv.Txn) error {
	cur := txn.Cursor()
	defer cur.Close()

	n := 0
	for ok := cur.SeekFirstOrGreater(nil); ok; ok = cur.Next() {
		key := string(cur.Key())
		if strings.HasPrefix(key, reservedPrefix) {
			continue
		}
		if strings.HasSuffix(key, custSuffix) {
			continue
		}
		uid, _, found := strings.Cut(key, "~")
		if !found {
			continue
		}
		value, err := cur.Value()
		if err != nil {
			return err
		}
		sec, derr := pixel.DecodeEventTime(value)
		if derr != nil {
			lj.log.Error("invalid event record in timeout import",
				slog.String("key", key),
				slog.String("err", derr.Error()))
			continue
		}
		deadline := (int64(sec) + int64(lj.idleTimeout/time.Second)) * microsPerSecond
		lj.deadlines.Touch(uid, deadline)
		n++
	}

	lj.log.Info("imported timeout list",
		slog.Int("events", n),
		slog.Int("sessions", lj.deadlines.Len()))
	return nil
}
