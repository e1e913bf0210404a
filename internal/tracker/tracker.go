// Package tracker is the pixel ingress: it accepts tracking requests from
// the front-end tag, stamps them with the customer key and wall-clock
// seconds, and appends the resulting logline to the ingest feed the
// sessionizer driver consumes.
package tracker

import (
	_ "embed"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/oklog/ulid/v2"
)

// pixelGIF is the 1x1 transparent GIF answered to every /track/push call.
var pixelGIF = []byte{
	0x47, 0x49, 0x46, 0x38, 0x39, 0x61, 0x01, 0x00, 0x01, 0x00, 0x80, 0x00,
	0x00, 0x00, 0x00, 0x00, 0xff, 0xff, 0xff, 0x21, 0xf9, 0x04, 0x01, 0x00,
	0x00, 0x00, 0x00, 0x2c, 0x00, 0x00, 0x00, 0x00, 0x01, 0x00, 0x01, 0x00,
	0x00, 0x02, 0x01, 0x44, 0x00, 0x3b,
}

//go:embed track.js
var trackJS []byte

var (
	errOldPixel  = errors.New("tracker: pixel version too old")
	errFeedFull  = errors.New("tracker: ingest feed is full")
	errBadPixel  = errors.New("tracker: invalid pixel url")
	errNoVersion = errors.New("tracker: missing v parameter")
)

// Entry is one stamped logline queued for the sessionizer.
type Entry struct {
	ID   ulid.ULID
	Line string
}

type Config struct {
	// Customer attributes every logline from this deployment.
	Customer string
	// MinPixelVersion rejects tags older than this. Zero accepts all.
	MinPixelVersion int
	// Feed receives stamped entries. Appends never block; a full feed
	// counts as a write failure.
	Feed chan<- Entry
	Log  *slog.Logger
	// Now is injectable for tests; defaults to time.Now.
	Now func() time.Time
}

// Servlet handles /track/push and /track/api.js.
type Servlet struct {
	customer   string
	minVersion int
	feed       chan<- Entry
	log        *slog.Logger
	now        func() time.Time
	stats      *Stats
}

func NewServlet(cfg Config) *Servlet {
	if cfg.Feed == nil {
		panic("tracker: nil feed")
	}
	if cfg.Log == nil {
		cfg.Log = slog.Default()
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &Servlet{
		customer:   cfg.Customer,
		minVersion: cfg.MinPixelVersion,
		feed:       cfg.Feed,
		log: cfg.Log.With(
			slog.String("component", "tracker"),
		),
		now:   cfg.Now,
		stats: newStats(),
	}
}

func (s *Servlet) Stats() *Stats {
	return s.stats
}

func (s *Servlet) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.stats.RPCRequestsTotal.Inc()

	switch r.URL.Path {
	case "/track/api.js":
		h := w.Header()
		h.Set("Content-Type", "application/javascript")
		noCache(h)
		w.Write(trackJS)

	case "/track/push":
		if err := s.pushEvent(r.URL.RawQuery); err != nil {
			s.log.Debug("rejected tracking pixel",
				slog.String("query", r.URL.RawQuery),
				slog.String("err", err.Error()))
		}
		h := w.Header()
		h.Set("Content-Type", "image/gif")
		noCache(h)
		w.Write(pixelGIF)

	default:
		s.stats.RPCErrorsTotal.Inc()
		http.NotFound(w, r)
	}
}

// pushEvent validates the pixel version gate and appends the stamped
// logline to the feed. The body is forwarded verbatim; full decoding is
// the sessionizer's job.
func (s *Servlet) pushEvent(rawQuery string) error {
	s.stats.LoglinesTotal.Inc()

	params, err := url.ParseQuery(rawQuery)
	if err != nil {
		s.stats.LoglinesInvalid.Inc()
		return fmt.Errorf("%w: %v", errBadPixel, err)
	}

	ver := params.Get("v")
	if ver == "" {
		s.stats.LoglinesInvalid.Inc()
		return errNoVersion
	}
	v, err := strconv.Atoi(ver)
	if err != nil {
		s.stats.LoglinesInvalid.Inc()
		return fmt.Errorf("%w: bad version %q", errBadPixel, ver)
	}
	if v < s.minVersion {
		s.stats.LoglinesVersionTooOld.Inc()
		s.stats.LoglinesInvalid.Inc()
		return fmt.Errorf("%w: %d < %d", errOldPixel, v, s.minVersion)
	}

	entry := Entry{
		ID:   ulid.Make(),
		Line: fmt.Sprintf("%s|%d|%s", s.customer, s.now().Unix(), rawQuery),
	}
	select {
	case s.feed <- entry:
		s.stats.LoglinesWrittenSuccess.Inc()
		return nil
	default:
		s.stats.LoglinesWrittenFailure.Inc()
		return errFeedFull
	}
}

func noCache(h http.Header) {
	h.Set("Cache-Control", "no-cache, no-store, must-revalidate")
	h.Set("Pragma", "no-cache")
	h.Set("Expires", "0")
}
