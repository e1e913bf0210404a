package session

import (
	"testing"

	"github.com/stretchr/testify/require"
	"google.golang.org/protobuf/encoding/protowire"
)

func TestEnvelopeRoundTrip(t *testing.T) {
	e := &Envelope{
		Customer:    "CUST1",
		SessionID:   "u1",
		Time:        1000e6,
		SessionData: []byte{0x01, 0x02, 0x03},
	}
	got, err := DecodeEnvelope(e.Encode())
	require.NoError(t, err)
	require.Equal(t, e, got)
}

func TestEnvelopeSkipsUnknownFields(t *testing.T) {
	e := &Envelope{Customer: "c", SessionID: "s", Time: 7}
	buf := e.Encode()
	// A field a newer writer might add.
	buf = protowire.AppendTag(buf, 9, protowire.BytesType)
	buf = protowire.AppendString(buf, "future")

	got, err := DecodeEnvelope(buf)
	require.NoError(t, err)
	require.Equal(t, "c", got.Customer)
	require.Equal(t, "s", got.SessionID)
	require.Equal(t, uint64(7), got.Time)
}

func TestEnvelopeDecodeGarbage(t *testing.T) {
	_, err := DecodeEnvelope([]byte{0xff, 0xff, 0xff})
	require.ErrorIs(t, err, ErrBadEnvelope)
}

func TestFirstSeen(t *testing.T) {
	s := &TrackedSession{UID: "u1"}
	_, ok := s.FirstSeen()
	require.False(t, ok)

	s.Insert(2500e6, "v", "e2", nil)
	s.Insert(1000e6, "q", "e1", nil)
	s.Insert(3000e6, "c", "e3", nil)
	first, ok := s.FirstSeen()
	require.True(t, ok)
	require.Equal(t, uint64(1000e6), first)
}
