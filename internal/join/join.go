// Package join defines the capability the sessionizer hands finalized
// sessions to. The target computes the opaque session-data blob carried in
// the output envelope.
package join

import "github.com/vinceanalytics/logjoin/internal/session"

// Target consumes one finalized session. Implementations must tolerate
// duplicate and out-of-order event timestamps; the core guarantees no
// ordering within a session.
type Target interface {
	Join(s *session.TrackedSession) ([]byte, error)
}

// Func adapts a plain function to a Target.
type Func func(s *session.TrackedSession) ([]byte, error)

func (f Func) Join(s *session.TrackedSession) ([]byte, error) {
	return f(s)
}
