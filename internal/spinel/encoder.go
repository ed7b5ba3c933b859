package spinel

import (
	"encoding/binary"
	"errors"
	"fmt"
	"net"
	"unicode/utf8"
)

// DataType identifies a primitive Spinel wire type. Every property in the
// catalog declares one of these so GET responses can be decoded without the
// caller knowing the byte layout.
type DataType int

const (
	TypeUint8 DataType = iota
	TypeInt8
	TypeUint16
	TypeInt16
	TypeUint32
	TypeInt32
	TypeBool
	TypeUTF8
	TypeData
	TypeEUI64
	TypeIPv6Addr
)

func (t DataType) String() string {
	switch t {
	case TypeUint8:
		return "uint8"
	case TypeInt8:
		return "int8"
	case TypeUint16:
		return "uint16"
	case TypeInt16:
		return "int16"
	case TypeUint32:
		return "uint32"
	case TypeInt32:
		return "int32"
	case TypeBool:
		return "bool"
	case TypeUTF8:
		return "utf8"
	case TypeData:
		return "data"
	case TypeEUI64:
		return "eui64"
	case TypeIPv6Addr:
		return "ipv6addr"
	default:
		return fmt.Sprintf("datatype(%d)", int(t))
	}
}

// EUI64 is an 8-byte hardware address, sent raw with no length prefix.
type EUI64 [8]byte

func (e EUI64) String() string {
	return fmt.Sprintf("%02X:%02X:%02X:%02X:%02X:%02X:%02X:%02X",
		e[0], e[1], e[2], e[3], e[4], e[5], e[6], e[7])
}

// Codec failures. All are local to the bytes at hand and never retried.
var (
	ErrInsufficientData = errors.New("spinel: insufficient data")
	ErrInvalidBoolean   = errors.New("spinel: invalid boolean byte")
	ErrInvalidUTF8      = errors.New("spinel: invalid utf-8 string")

	// ErrValueTooLong is returned when a string or data value exceeds the
	// single-byte packed length form (127 bytes). The firmware's multi-byte
	// packed length encoding is not implemented here.
	ErrValueTooLong = errors.New("spinel: value exceeds single-byte packed length")
)

// maxPackedLen is the largest length expressible in the single-byte packed
// form (high bit clear).
const maxPackedLen = 127

// Encode serializes a single primitive value to its canonical wire bytes.
// Multi-byte integers are little-endian; signed integers are two's-complement.
func Encode(t DataType, v any) ([]byte, error) {
	switch t {
	case TypeUint8:
		u, ok := v.(uint8)
		if !ok {
			return nil, encodeTypeError(t, v)
		}
		return []byte{u}, nil
	case TypeInt8:
		i, ok := v.(int8)
		if !ok {
			return nil, encodeTypeError(t, v)
		}
		return []byte{byte(i)}, nil
	case TypeUint16:
		u, ok := v.(uint16)
		if !ok {
			return nil, encodeTypeError(t, v)
		}
		b := make([]byte, 2)
		binary.LittleEndian.PutUint16(b, u)
		return b, nil
	case TypeInt16:
		i, ok := v.(int16)
		if !ok {
			return nil, encodeTypeError(t, v)
		}
		b := make([]byte, 2)
		binary.LittleEndian.PutUint16(b, uint16(i))
		return b, nil
	case TypeUint32:
		u, ok := v.(uint32)
		if !ok {
			return nil, encodeTypeError(t, v)
		}
		b := make([]byte, 4)
		binary.LittleEndian.PutUint32(b, u)
		return b, nil
	case TypeInt32:
		i, ok := v.(int32)
		if !ok {
			return nil, encodeTypeError(t, v)
		}
		b := make([]byte, 4)
		binary.LittleEndian.PutUint32(b, uint32(i))
		return b, nil
	case TypeBool:
		bv, ok := v.(bool)
		if !ok {
			return nil, encodeTypeError(t, v)
		}
		if bv {
			return []byte{0x01}, nil
		}
		return []byte{0x00}, nil
	case TypeUTF8:
		s, ok := v.(string)
		if !ok {
			return nil, encodeTypeError(t, v)
		}
		if !utf8.ValidString(s) {
			return nil, ErrInvalidUTF8
		}
		return encodePacked([]byte(s))
	case TypeData:
		d, ok := v.([]byte)
		if !ok {
			return nil, encodeTypeError(t, v)
		}
		return encodePacked(d)
	case TypeEUI64:
		switch e := v.(type) {
		case EUI64:
			return append([]byte(nil), e[:]...), nil
		case []byte:
			if len(e) != 8 {
				return nil, fmt.Errorf("spinel: encode eui64: need 8 bytes, got %d", len(e))
			}
			return append([]byte(nil), e...), nil
		default:
			return nil, encodeTypeError(t, v)
		}
	case TypeIPv6Addr:
		ip, ok := v.(net.IP)
		if !ok {
			return nil, encodeTypeError(t, v)
		}
		ip16 := ip.To16()
		if ip16 == nil {
			return nil, fmt.Errorf("spinel: encode ipv6addr: %v is not an IPv6 address", ip)
		}
		return append([]byte(nil), ip16...), nil
	default:
		return nil, fmt.Errorf("spinel: encode: unknown data type %v", t)
	}
}

// Decode parses one primitive value from the front of b, returning the value
// and the unconsumed remainder. The remainder makes sequence decoding a fold
// over the byte slice.
func Decode(t DataType, b []byte) (any, []byte, error) {
	switch t {
	case TypeUint8:
		if len(b) < 1 {
			return nil, nil, ErrInsufficientData
		}
		return b[0], b[1:], nil
	case TypeInt8:
		if len(b) < 1 {
			return nil, nil, ErrInsufficientData
		}
		return int8(b[0]), b[1:], nil
	case TypeUint16:
		if len(b) < 2 {
			return nil, nil, ErrInsufficientData
		}
		return binary.LittleEndian.Uint16(b), b[2:], nil
	case TypeInt16:
		if len(b) < 2 {
			return nil, nil, ErrInsufficientData
		}
		return int16(binary.LittleEndian.Uint16(b)), b[2:], nil
	case TypeUint32:
		if len(b) < 4 {
			return nil, nil, ErrInsufficientData
		}
		return binary.LittleEndian.Uint32(b), b[4:], nil
	case TypeInt32:
		if len(b) < 4 {
			return nil, nil, ErrInsufficientData
		}
		return int32(binary.LittleEndian.Uint32(b)), b[4:], nil
	case TypeBool:
		if len(b) < 1 {
			return nil, nil, ErrInsufficientData
		}
		switch b[0] {
		case 0x00:
			return false, b[1:], nil
		case 0x01:
			return true, b[1:], nil
		default:
			return nil, nil, ErrInvalidBoolean
		}
	case TypeUTF8:
		raw, rest, err := decodePacked(b)
		if err != nil {
			return nil, nil, err
		}
		if !utf8.Valid(raw) {
			return nil, nil, ErrInvalidUTF8
		}
		return string(raw), rest, nil
	case TypeData:
		raw, rest, err := decodePacked(b)
		if err != nil {
			return nil, nil, err
		}
		return raw, rest, nil
	case TypeEUI64:
		if len(b) < 8 {
			return nil, nil, ErrInsufficientData
		}
		var e EUI64
		copy(e[:], b[:8])
		return e, b[8:], nil
	case TypeIPv6Addr:
		if len(b) < 16 {
			return nil, nil, ErrInsufficientData
		}
		ip := make(net.IP, 16)
		copy(ip, b[:16])
		return ip, b[16:], nil
	default:
		return nil, nil, fmt.Errorf("spinel: decode: unknown data type %v", t)
	}
}

// EncodeSequence concatenates the encodings of values[i] as types[i], in order.
func EncodeSequence(types []DataType, values []any) ([]byte, error) {
	if len(types) != len(values) {
		return nil, fmt.Errorf("spinel: encode sequence: %d types for %d values", len(types), len(values))
	}
	var out []byte
	for i, t := range types {
		b, err := Encode(t, values[i])
		if err != nil {
			return nil, err
		}
		out = append(out, b...)
	}
	return out, nil
}

// DecodeSequence decodes one value per type from the front of b, in order,
// short-circuiting on the first failure. On success it returns the decoded
// values and whatever bytes remain.
func DecodeSequence(types []DataType, b []byte) ([]any, []byte, error) {
	values := make([]any, 0, len(types))
	rest := b
	for _, t := range types {
		v, r, err := Decode(t, rest)
		if err != nil {
			return nil, nil, err
		}
		values = append(values, v)
		rest = r
	}
	return values, rest, nil
}

// encodePacked prefixes raw with its single-byte packed length.
func encodePacked(raw []byte) ([]byte, error) {
	if len(raw) > maxPackedLen {
		return nil, ErrValueTooLong
	}
	out := make([]byte, 0, 1+len(raw))
	out = append(out, byte(len(raw)))
	return append(out, raw...), nil
}

// decodePacked reads a single-byte packed length and that many bytes. The
// returned slice is a copy; decoded values never alias the input buffer.
func decodePacked(b []byte) ([]byte, []byte, error) {
	if len(b) < 1 {
		return nil, nil, ErrInsufficientData
	}
	n := int(b[0])
	if n > maxPackedLen {
		// High bit set would mean a multi-byte packed length, which this
		// implementation does not speak.
		return nil, nil, ErrValueTooLong
	}
	if len(b) < 1+n {
		return nil, nil, ErrInsufficientData
	}
	raw := append([]byte(nil), b[1:1+n]...)
	return raw, b[1+n:], nil
}

func encodeTypeError(t DataType, v any) error {
	return fmt.Errorf("spinel: encode %s: unsupported value type %T", t, v)
}
