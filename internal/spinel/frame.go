package spinel

import (
	"errors"
	"fmt"
)

// Frame layout, fixed by the firmware:
//
//	byte 0:   0x80 | transaction id (0..15)
//	byte 1:   command code
//	byte 2..: payload
//
// The high header bit is always set, on both directions.
const (
	headerFlag = 0x80
	tidMask    = 0x0F

	// MaxTID is the largest transaction id the 4-bit header field can carry.
	MaxTID = 15

	// NumTIDs is the size of the transaction id space, and therefore the hard
	// upper bound on concurrently outstanding requests.
	NumTIDs = 16
)

var (
	// ErrInvalidFrame is returned when bytes are too short to hold a header
	// and a command.
	ErrInvalidFrame = errors.New("spinel: invalid frame")

	// ErrInvalidTID is returned at construction time for out-of-range
	// transaction ids, before any I/O happens.
	ErrInvalidTID = errors.New("spinel: transaction id out of range")
)

// Frame is one protocol message. Frames are built on demand and treated as
// immutable once constructed.
type Frame struct {
	Header  byte
	Command Command
	TID     uint8
	Payload []byte
}

// NewFrame builds a frame, validating the transaction id range here rather
// than at encode time.
func NewFrame(cmd Command, tid uint8, payload []byte) (Frame, error) {
	if tid > MaxTID {
		return Frame{}, fmt.Errorf("%w: %d", ErrInvalidTID, tid)
	}
	return Frame{
		Header:  headerFlag | tid,
		Command: cmd,
		TID:     tid,
		Payload: payload,
	}, nil
}

// NewResetFrame builds a RESET request (empty payload).
func NewResetFrame(tid uint8) (Frame, error) {
	return NewFrame(CmdReset, tid, nil)
}

// NewNoopFrame builds a NOOP request (empty payload).
func NewNoopFrame(tid uint8) (Frame, error) {
	return NewFrame(CmdNoop, tid, nil)
}

// NewPropertyGetFrame builds a PROP_VALUE_GET whose payload is the encoded
// property id.
func NewPropertyGetFrame(tid uint8, prop Property) (Frame, error) {
	return NewFrame(CmdPropValueGet, tid, []byte{byte(prop)})
}

// NewPropertySetFrame builds a PROP_VALUE_SET: property id followed by the
// value bytes, already encoded per the property's wire type.
func NewPropertySetFrame(tid uint8, prop Property, value []byte) (Frame, error) {
	return NewFrame(CmdPropValueSet, tid, propertyPayload(prop, value))
}

// NewPropertyInsertFrame builds a PROP_VALUE_INSERT frame.
func NewPropertyInsertFrame(tid uint8, prop Property, value []byte) (Frame, error) {
	return NewFrame(CmdPropValueInsert, tid, propertyPayload(prop, value))
}

// NewPropertyRemoveFrame builds a PROP_VALUE_REMOVE frame.
func NewPropertyRemoveFrame(tid uint8, prop Property, value []byte) (Frame, error) {
	return NewFrame(CmdPropValueRemove, tid, propertyPayload(prop, value))
}

func propertyPayload(prop Property, value []byte) []byte {
	payload := make([]byte, 0, 1+len(value))
	payload = append(payload, byte(prop))
	return append(payload, value...)
}

// Encode serializes the frame. Identical logical frames always produce
// identical bytes, and the transaction id participates, so frames differing
// only in TID never collide.
func (f Frame) Encode() []byte {
	out := make([]byte, 0, 2+len(f.Payload))
	out = append(out, headerFlag|(f.TID&tidMask), byte(f.Command))
	return append(out, f.Payload...)
}

// DecodeFrame parses one frame from exactly one delivery's bytes.
func DecodeFrame(b []byte) (Frame, error) {
	if len(b) < 2 {
		return Frame{}, fmt.Errorf("%w: %d bytes", ErrInvalidFrame, len(b))
	}
	return Frame{
		Header:  headerFlag | b[0], // high bit always set on inbound frames too
		Command: Command(b[1]),
		TID:     b[0] & tidMask,
		Payload: append([]byte(nil), b[2:]...),
	}, nil
}

// Property extracts the property id from a property-oriented frame's payload.
// An empty payload yields (0, false) rather than an error.
func (f Frame) Property() (Property, bool) {
	if len(f.Payload) == 0 {
		return 0, false
	}
	return Property(f.Payload[0]), true
}

// Value returns the raw value bytes following the property id, or nil when
// the payload carries no value.
func (f Frame) Value() []byte {
	if len(f.Payload) <= 1 {
		return nil
	}
	return f.Payload[1:]
}

func (f Frame) String() string {
	return fmt.Sprintf("%s tid=%d len=%d", f.Command, f.TID, len(f.Payload))
}
