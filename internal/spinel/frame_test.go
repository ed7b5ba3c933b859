package spinel

import (
	"bytes"
	"errors"
	"testing"
)

func TestFrameEncodeLayout(t *testing.T) {
	f, err := NewFrame(CmdPropValueGet, 3, []byte{byte(PropPhyChan)})
	if err != nil {
		t.Fatalf("new frame failed: %v", err)
	}
	got := f.Encode()
	want := []byte{0x83, 0x02, 0x21}
	if !bytes.Equal(got, want) {
		t.Fatalf("got % X, want % X", got, want)
	}
}

func TestFrameHeaderHighBit(t *testing.T) {
	for tid := uint8(0); tid <= MaxTID; tid++ {
		f, err := NewFrame(CmdNoop, tid, nil)
		if err != nil {
			t.Fatalf("tid %d: %v", tid, err)
		}
		if f.Header != 0x80|tid {
			t.Fatalf("tid %d: header 0x%02X", tid, f.Header)
		}
		if f.Encode()[0] != 0x80|tid {
			t.Fatalf("tid %d: encoded header 0x%02X", tid, f.Encode()[0])
		}
	}
}

func TestFrameRejectsBadTID(t *testing.T) {
	if _, err := NewFrame(CmdNoop, 16, nil); !errors.Is(err, ErrInvalidTID) {
		t.Fatalf("tid 16: got %v, want ErrInvalidTID", err)
	}
	if _, err := NewFrame(CmdNoop, 255, nil); !errors.Is(err, ErrInvalidTID) {
		t.Fatalf("tid 255: got %v, want ErrInvalidTID", err)
	}
}

func TestFrameDecodeRoundTrip(t *testing.T) {
	for tid := uint8(0); tid <= MaxTID; tid++ {
		for _, payload := range [][]byte{nil, {0x21}, {0x21, 0xDE, 0xAD, 0xBE, 0xEF}} {
			f, err := NewFrame(CmdPropValueSet, tid, payload)
			if err != nil {
				t.Fatalf("new frame failed: %v", err)
			}
			dec, err := DecodeFrame(f.Encode())
			if err != nil {
				t.Fatalf("decode failed: %v", err)
			}
			if dec.Command != f.Command || dec.TID != f.TID {
				t.Fatalf("round trip: got %v, want %v", dec, f)
			}
			if !bytes.Equal(dec.Payload, f.Payload) {
				t.Fatalf("payload: got % X, want % X", dec.Payload, f.Payload)
			}
		}
	}
}

func TestFrameDecodeTooShort(t *testing.T) {
	for _, b := range [][]byte{nil, {}, {0x80}} {
		if _, err := DecodeFrame(b); !errors.Is(err, ErrInvalidFrame) {
			t.Fatalf("%v: got %v, want ErrInvalidFrame", b, err)
		}
	}
}

func TestFrameTIDChangesEncoding(t *testing.T) {
	a, _ := NewFrame(CmdPropValueGet, 1, []byte{0x21})
	b, _ := NewFrame(CmdPropValueGet, 2, []byte{0x21})
	if bytes.Equal(a.Encode(), b.Encode()) {
		t.Fatal("frames differing only in TID must encode differently")
	}
}

func TestFrameEncodeDeterministic(t *testing.T) {
	f, _ := NewFrame(CmdPropValueIs, 9, []byte{0x43, 0x03})
	if !bytes.Equal(f.Encode(), f.Encode()) {
		t.Fatal("encode must be deterministic")
	}
}

func TestPropertyConstructors(t *testing.T) {
	get, err := NewPropertyGetFrame(5, PropNetRole)
	if err != nil {
		t.Fatalf("get frame: %v", err)
	}
	if !bytes.Equal(get.Encode(), []byte{0x85, 0x02, 0x43}) {
		t.Fatalf("get frame bytes: % X", get.Encode())
	}

	set, err := NewPropertySetFrame(6, PropPhyChan, []byte{15})
	if err != nil {
		t.Fatalf("set frame: %v", err)
	}
	if !bytes.Equal(set.Encode(), []byte{0x86, 0x03, 0x21, 15}) {
		t.Fatalf("set frame bytes: % X", set.Encode())
	}

	reset, err := NewResetFrame(0)
	if err != nil {
		t.Fatalf("reset frame: %v", err)
	}
	if !bytes.Equal(reset.Encode(), []byte{0x80, 0x01}) {
		t.Fatalf("reset frame bytes: % X", reset.Encode())
	}
}

func TestFrameExtractors(t *testing.T) {
	set, _ := NewPropertySetFrame(1, PropPhyChan, []byte{15})
	prop, ok := set.Property()
	if !ok || prop != PropPhyChan {
		t.Fatalf("property: got %v ok=%v", prop, ok)
	}
	if !bytes.Equal(set.Value(), []byte{15}) {
		t.Fatalf("value: got % X", set.Value())
	}

	// Empty payload yields zero values, not errors.
	noop, _ := NewNoopFrame(1)
	if _, ok := noop.Property(); ok {
		t.Fatal("empty payload must report no property")
	}
	if noop.Value() != nil {
		t.Fatal("empty payload must report nil value")
	}

	get, _ := NewPropertyGetFrame(1, PropNetRole)
	if get.Value() != nil {
		t.Fatal("get frame carries no value bytes")
	}
}
