// Package session holds the in-memory reconstruction of one user's
// activity window and the envelope shipped downstream when it closes.
package session

import (
	"fmt"
	"strings"

	"github.com/vinceanalytics/logjoin/internal/pixel"
)

// Event is one decoded pixel event. Time is micros since epoch.
type Event struct {
	Time   uint64
	Type   string
	ID     string
	Params []pixel.Param
}

// TrackedSession collects the events of one uid between first activity and
// idle-timeout quiescence. Events carry no ordering guarantee; consumers
// must tolerate duplicate and out-of-order timestamps.
type TrackedSession struct {
	UID         string
	CustomerKey string
	Events      []Event
}

func (s *TrackedSession) Insert(timeMicros uint64, evtype, eid string, params []pixel.Param) {
	s.Events = append(s.Events, Event{
		Time:   timeMicros,
		Type:   evtype,
		ID:     eid,
		Params: params,
	})
}

// FirstSeen returns the earliest event time in micros and false if the
// session holds no events.
func (s *TrackedSession) FirstSeen() (uint64, bool) {
	if len(s.Events) == 0 {
		return 0, false
	}
	first := s.Events[0].Time
	for _, e := range s.Events[1:] {
		if e.Time < first {
			first = e.Time
		}
	}
	return first, true
}

// Debug renders the session for error logs.
func (s *TrackedSession) Debug() string {
	var b strings.Builder
	fmt.Fprintf(&b, "session uid=%s customer=%s events=%d", s.UID, s.CustomerKey, len(s.Events))
	for _, e := range s.Events {
		fmt.Fprintf(&b, "\n  t=%d type=%s eid=%s", e.Time, e.Type, e.ID)
		for _, p := range e.Params {
			fmt.Fprintf(&b, " %s=%q", p.Name, p.Value)
		}
	}
	return b.String()
}
