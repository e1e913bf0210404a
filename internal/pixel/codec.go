package pixel

import (
	"errors"
	"fmt"

	"google.golang.org/protobuf/encoding/protowire"
)

// ErrTruncated is returned when an event record ends mid-field.
var ErrTruncated = errors.New("pixel: truncated event record")

// Param is a single stored pixel key/value pair.
type Param struct {
	Name  string
	Value string
}

// EncodeEvent packs an event record:
//
//	varint(time_s) varint(len(eid)) eid ( varint(param_id) varint(len(v)) v )*
//
// Parameter names must be registered; an unknown name is a failure (the
// set of stored parameters is decided by the caller, not here).
func (p *Params) EncodeEvent(timeSec uint64, eid string, params []Param) ([]byte, error) {
	buf := protowire.AppendVarint(nil, timeSec)
	buf = protowire.AppendVarint(buf, uint64(len(eid)))
	buf = append(buf, eid...)
	for _, kv := range params {
		id, err := p.ID(kv.Name)
		if err != nil {
			return nil, err
		}
		buf = protowire.AppendVarint(buf, id)
		buf = protowire.AppendVarint(buf, uint64(len(kv.Value)))
		buf = append(buf, kv.Value...)
	}
	return buf, nil
}

// DecodeEvent is the inverse of EncodeEvent. Unknown param ids and short
// buffers fail; the record carries no framing beyond its own length.
func (p *Params) DecodeEvent(buf []byte) (timeSec uint64, eid string, params []Param, err error) {
	timeSec, buf, err = readVarint(buf)
	if err != nil {
		return 0, "", nil, err
	}
	var eb []byte
	eb, buf, err = readBytes(buf)
	if err != nil {
		return 0, "", nil, err
	}
	eid = string(eb)
	for len(buf) > 0 {
		var id uint64
		id, buf, err = readVarint(buf)
		if err != nil {
			return 0, "", nil, err
		}
		var name string
		name, err = p.Name(id)
		if err != nil {
			return 0, "", nil, err
		}
		var vb []byte
		vb, buf, err = readBytes(buf)
		if err != nil {
			return 0, "", nil, err
		}
		params = append(params, Param{Name: name, Value: string(vb)})
	}
	return timeSec, eid, params, nil
}

func readVarint(buf []byte) (uint64, []byte, error) {
	v, n := protowire.ConsumeVarint(buf)
	if n < 0 {
		return 0, nil, fmt.Errorf("%w: %v", ErrTruncated, protowire.ParseError(n))
	}
	return v, buf[n:], nil
}

func readBytes(buf []byte) ([]byte, []byte, error) {
	size, buf, err := readVarint(buf)
	if err != nil {
		return nil, nil, err
	}
	if uint64(len(buf)) < size {
		return nil, nil, ErrTruncated
	}
	return buf[:size], buf[size:], nil
}

// DecodeEventTime reads only the leading timestamp varint of an event
// record, for the bootstrap scan which does not need the payload.
func DecodeEventTime(buf []byte) (uint64, error) {
	v, _, err := readVarint(buf)
	return v, err
}
