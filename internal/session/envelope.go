package session

import (
	"errors"
	"fmt"

	"google.golang.org/protobuf/encoding/protowire"
)

// Envelope is the consolidated output record written to the session queue
// once a session is finalized. The wire form is a protobuf message:
//
//	1: customer     (string)
//	2: session_id   (string, == uid)
//	3: time         (uint64, first-seen micros)
//	4: session_data (bytes, opaque, produced by the join target)
//
// Decoding skips unknown fields so older readers survive additions.
type Envelope struct {
	Customer    string
	SessionID   string
	Time        uint64
	SessionData []byte
}

const (
	envCustomer    = 1
	envSessionID   = 2
	envTime        = 3
	envSessionData = 4
)

var ErrBadEnvelope = errors.New("session: invalid envelope")

func (e *Envelope) Encode() []byte {
	buf := protowire.AppendTag(nil, envCustomer, protowire.BytesType)
	buf = protowire.AppendString(buf, e.Customer)
	buf = protowire.AppendTag(buf, envSessionID, protowire.BytesType)
	buf = protowire.AppendString(buf, e.SessionID)
	buf = protowire.AppendTag(buf, envTime, protowire.VarintType)
	buf = protowire.AppendVarint(buf, e.Time)
	buf = protowire.AppendTag(buf, envSessionData, protowire.BytesType)
	buf = protowire.AppendBytes(buf, e.SessionData)
	return buf
}

func DecodeEnvelope(buf []byte) (*Envelope, error) {
	e := new(Envelope)
	for len(buf) > 0 {
		num, typ, n := protowire.ConsumeTag(buf)
		if n < 0 {
			return nil, fmt.Errorf("%w: %v", ErrBadEnvelope, protowire.ParseError(n))
		}
		buf = buf[n:]
		switch {
		case num == envCustomer && typ == protowire.BytesType:
			v, n := protowire.ConsumeString(buf)
			if n < 0 {
				return nil, fmt.Errorf("%w: %v", ErrBadEnvelope, protowire.ParseError(n))
			}
			e.Customer = v
			buf = buf[n:]
		case num == envSessionID && typ == protowire.BytesType:
			v, n := protowire.ConsumeString(buf)
			if n < 0 {
				return nil, fmt.Errorf("%w: %v", ErrBadEnvelope, protowire.ParseError(n))
			}
			e.SessionID = v
			buf = buf[n:]
		case num == envTime && typ == protowire.VarintType:
			v, n := protowire.ConsumeVarint(buf)
			if n < 0 {
				return nil, fmt.Errorf("%w: %v", ErrBadEnvelope, protowire.ParseError(n))
			}
			e.Time = v
			buf = buf[n:]
		case num == envSessionData && typ == protowire.BytesType:
			v, n := protowire.ConsumeBytes(buf)
			if n < 0 {
				return nil, fmt.Errorf("%w: %v", ErrBadEnvelope, protowire.ParseError(n))
			}
			e.SessionData = append([]byte(nil), v...)
			buf = buf[n:]
		default:
			n := protowire.ConsumeFieldValue(num, typ, buf)
			if n < 0 {
				return nil, fmt.Errorf("%w: %v", ErrBadEnvelope, protowire.ParseError(n))
			}
			buf = buf[n:]
		}
	}
	return e, nil
}
