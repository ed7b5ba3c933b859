package transport

import (
	"bytes"
	"testing"
)

func collectFrames(dst *[][]byte) func([]byte) {
	return func(f []byte) { *dst = append(*dst, f) }
}

func TestHDLCRoundTrip(t *testing.T) {
	var got [][]byte
	dec := newHDLCDecoder(collectFrames(&got))

	frame := []byte{0x81, 0x02, 0x21}
	dec.Feed(hdlcEncode(frame))

	if len(got) != 1 {
		t.Fatalf("got %d frames, want 1", len(got))
	}
	if !bytes.Equal(got[0], frame) {
		t.Fatalf("got % X, want % X", got[0], frame)
	}
}

func TestHDLCEscapesReservedBytes(t *testing.T) {
	var got [][]byte
	dec := newHDLCDecoder(collectFrames(&got))

	// Payload containing both the flag and the escape byte.
	frame := []byte{0x81, 0x06, 0x7E, 0x7D, 0x00}
	enc := hdlcEncode(frame)

	// No unescaped flag may appear inside the envelope.
	for _, b := range enc[1 : len(enc)-1] {
		if b == hdlcFlag {
			t.Fatalf("unescaped flag inside frame: % X", enc)
		}
	}

	dec.Feed(enc)
	if len(got) != 1 || !bytes.Equal(got[0], frame) {
		t.Fatalf("round trip failed: %v", got)
	}
}

func TestHDLCSplitDeliveries(t *testing.T) {
	var got [][]byte
	dec := newHDLCDecoder(collectFrames(&got))

	frame := []byte{0x83, 0x06, 0x43, 0x02}
	enc := hdlcEncode(frame)

	// Feed one byte at a time: the stream gives no alignment guarantee.
	for _, b := range enc {
		dec.Feed([]byte{b})
	}
	if len(got) != 1 || !bytes.Equal(got[0], frame) {
		t.Fatalf("split delivery failed: %v", got)
	}
}

func TestHDLCCoalescedDeliveries(t *testing.T) {
	var got [][]byte
	dec := newHDLCDecoder(collectFrames(&got))

	a := []byte{0x81, 0x02, 0x21}
	b := []byte{0x82, 0x02, 0x43}
	dec.Feed(append(hdlcEncode(a), hdlcEncode(b)...))

	if len(got) != 2 {
		t.Fatalf("got %d frames, want 2", len(got))
	}
	if !bytes.Equal(got[0], a) || !bytes.Equal(got[1], b) {
		t.Fatalf("frames: % X / % X", got[0], got[1])
	}
}

func TestHDLCRejectsBadFCS(t *testing.T) {
	var got [][]byte
	dec := newHDLCDecoder(collectFrames(&got))

	enc := hdlcEncode([]byte{0x81, 0x02, 0x21})
	enc[2] ^= 0xFF // corrupt a body byte
	dec.Feed(enc)

	if len(got) != 0 {
		t.Fatalf("corrupt frame must be dropped, got %v", got)
	}
	if dec.badFCS != 1 {
		t.Fatalf("badFCS counter: got %d, want 1", dec.badFCS)
	}
}

func TestHDLCDropsRunts(t *testing.T) {
	var got [][]byte
	dec := newHDLCDecoder(collectFrames(&got))

	dec.Feed([]byte{hdlcFlag, 0x01, 0x02, hdlcFlag})
	if len(got) != 0 {
		t.Fatalf("runt must be dropped, got %v", got)
	}
	if dec.tooShort != 1 {
		t.Fatalf("tooShort counter: got %d, want 1", dec.tooShort)
	}
}

func TestHDLCIgnoresInterFrameFlags(t *testing.T) {
	var got [][]byte
	dec := newHDLCDecoder(collectFrames(&got))

	frame := []byte{0x81, 0x02, 0x21}
	dec.Feed([]byte{hdlcFlag, hdlcFlag, hdlcFlag})
	dec.Feed(hdlcEncode(frame))
	dec.Feed([]byte{hdlcFlag})

	if len(got) != 1 || !bytes.Equal(got[0], frame) {
		t.Fatalf("got %v", got)
	}
}
