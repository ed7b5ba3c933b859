package spinel

import (
	"bytes"
	"errors"
	"net"
	"reflect"
	"strings"
	"testing"
)

func TestEncodeKnownVectors(t *testing.T) {
	cases := []struct {
		name string
		typ  DataType
		val  any
		want []byte
	}{
		{"uint16-1000", TypeUint16, uint16(1000), []byte{232, 3}},
		{"uint32", TypeUint32, uint32(0x12345678), []byte{0x78, 0x56, 0x34, 0x12}},
		{"utf8-hello", TypeUTF8, "Hello", []byte{5, 'H', 'e', 'l', 'l', 'o'}},
		{"uint8", TypeUint8, uint8(0xAB), []byte{0xAB}},
		{"int8-neg", TypeInt8, int8(-1), []byte{0xFF}},
		{"int16-neg", TypeInt16, int16(-2), []byte{0xFE, 0xFF}},
		{"int32-neg", TypeInt32, int32(-1), []byte{0xFF, 0xFF, 0xFF, 0xFF}},
		{"bool-true", TypeBool, true, []byte{0x01}},
		{"bool-false", TypeBool, false, []byte{0x00}},
		{"data", TypeData, []byte{0xDE, 0xAD}, []byte{2, 0xDE, 0xAD}},
		{"utf8-empty", TypeUTF8, "", []byte{0}},
		{"eui64", TypeEUI64, EUI64{1, 2, 3, 4, 5, 6, 7, 8}, []byte{1, 2, 3, 4, 5, 6, 7, 8}},
		{"ipv6", TypeIPv6Addr, net.ParseIP("fe80::1"),
			[]byte{0xfe, 0x80, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 1}},
	}
	for _, tc := range cases {
		got, err := Encode(tc.typ, tc.val)
		if err != nil {
			t.Fatalf("%s: encode failed: %v", tc.name, err)
		}
		if !bytes.Equal(got, tc.want) {
			t.Fatalf("%s: got % X, want % X", tc.name, got, tc.want)
		}
	}
}

func TestDecodeRoundTrip(t *testing.T) {
	cases := []struct {
		typ DataType
		val any
	}{
		{TypeUint8, uint8(0)},
		{TypeUint8, uint8(255)},
		{TypeInt8, int8(-128)},
		{TypeUint16, uint16(0xBEEF)},
		{TypeInt16, int16(-30000)},
		{TypeUint32, uint32(0xDEADBEEF)},
		{TypeInt32, int32(-2000000000)},
		{TypeBool, true},
		{TypeBool, false},
		{TypeUTF8, "OpenThread"},
		{TypeData, []byte{1, 2, 3}},
		{TypeEUI64, EUI64{8, 7, 6, 5, 4, 3, 2, 1}},
		{TypeIPv6Addr, net.ParseIP("fd00::abcd")},
	}
	for _, tc := range cases {
		enc, err := Encode(tc.typ, tc.val)
		if err != nil {
			t.Fatalf("%s: encode %v failed: %v", tc.typ, tc.val, err)
		}
		dec, rest, err := Decode(tc.typ, enc)
		if err != nil {
			t.Fatalf("%s: decode failed: %v", tc.typ, err)
		}
		if len(rest) != 0 {
			t.Fatalf("%s: %d leftover bytes after decode", tc.typ, len(rest))
		}
		if tc.typ == TypeIPv6Addr {
			if !dec.(net.IP).Equal(tc.val.(net.IP)) {
				t.Fatalf("ipv6 round trip: got %v, want %v", dec, tc.val)
			}
			continue
		}
		if !reflect.DeepEqual(dec, tc.val) {
			t.Fatalf("%s: round trip got %v (%T), want %v (%T)", tc.typ, dec, dec, tc.val, tc.val)
		}
	}
}

func TestDecodeReturnsRemainder(t *testing.T) {
	v, rest, err := Decode(TypeUint16, []byte{232, 3, 0xAA, 0xBB})
	if err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if v.(uint16) != 1000 {
		t.Fatalf("got %v, want 1000", v)
	}
	if !bytes.Equal(rest, []byte{0xAA, 0xBB}) {
		t.Fatalf("remainder got % X", rest)
	}
}

func TestDecodeFailures(t *testing.T) {
	if _, _, err := Decode(TypeUint16, []byte{1}); !errors.Is(err, ErrInsufficientData) {
		t.Fatalf("short uint16: got %v, want ErrInsufficientData", err)
	}
	if _, _, err := Decode(TypeBool, []byte{2}); !errors.Is(err, ErrInvalidBoolean) {
		t.Fatalf("bool 0x02: got %v, want ErrInvalidBoolean", err)
	}
	if _, _, err := Decode(TypeUTF8, []byte{2, 0xFF, 0xFE}); !errors.Is(err, ErrInvalidUTF8) {
		t.Fatalf("bad utf8: got %v, want ErrInvalidUTF8", err)
	}
	if _, _, err := Decode(TypeUTF8, []byte{5, 'H', 'i'}); !errors.Is(err, ErrInsufficientData) {
		t.Fatalf("truncated string: got %v, want ErrInsufficientData", err)
	}
	if _, _, err := Decode(TypeEUI64, []byte{1, 2, 3}); !errors.Is(err, ErrInsufficientData) {
		t.Fatalf("short eui64: got %v, want ErrInsufficientData", err)
	}
	if _, _, err := Decode(TypeData, []byte{0x80}); !errors.Is(err, ErrValueTooLong) {
		t.Fatalf("multi-byte packed length: got %v, want ErrValueTooLong", err)
	}
}

func TestEncodeRejectsOversizedPacked(t *testing.T) {
	if _, err := Encode(TypeUTF8, strings.Repeat("x", 128)); !errors.Is(err, ErrValueTooLong) {
		t.Fatalf("128-byte string: got %v, want ErrValueTooLong", err)
	}
	if _, err := Encode(TypeData, make([]byte, 200)); !errors.Is(err, ErrValueTooLong) {
		t.Fatalf("200-byte data: got %v, want ErrValueTooLong", err)
	}
	enc, err := Encode(TypeData, make([]byte, 127))
	if err != nil {
		t.Fatalf("127-byte data should encode: %v", err)
	}
	if len(enc) != 128 || enc[0] != 127 {
		t.Fatalf("127-byte data: got len=%d prefix=%d", len(enc), enc[0])
	}
}

func TestEncodeRejectsWrongValueType(t *testing.T) {
	if _, err := Encode(TypeUint16, "not a number"); err == nil {
		t.Fatal("expected type error for string as uint16")
	}
	if _, err := Encode(TypeEUI64, []byte{1, 2, 3}); err == nil {
		t.Fatal("expected length error for 3-byte eui64")
	}
}

func TestSequenceRoundTrip(t *testing.T) {
	types := []DataType{TypeUint8, TypeUint16, TypeUTF8, TypeBool}
	values := []any{uint8(7), uint16(0x1234), "net", true}

	enc, err := EncodeSequence(types, values)
	if err != nil {
		t.Fatalf("encode sequence failed: %v", err)
	}
	dec, rest, err := DecodeSequence(types, enc)
	if err != nil {
		t.Fatalf("decode sequence failed: %v", err)
	}
	if len(rest) != 0 {
		t.Fatalf("%d leftover bytes", len(rest))
	}
	if !reflect.DeepEqual(dec, values) {
		t.Fatalf("got %v, want %v", dec, values)
	}
}

func TestSequenceShortCircuits(t *testing.T) {
	types := []DataType{TypeUint8, TypeUint32}
	_, _, err := DecodeSequence(types, []byte{1, 2})
	if !errors.Is(err, ErrInsufficientData) {
		t.Fatalf("got %v, want ErrInsufficientData", err)
	}
}

func TestSequenceLengthMismatch(t *testing.T) {
	if _, err := EncodeSequence([]DataType{TypeUint8}, nil); err == nil {
		t.Fatal("expected error for mismatched lengths")
	}
}
