package transport

// HDLC-lite framing: frames are delimited by 0x7E flags, flag and escape
// bytes inside a frame are escaped as 0x7D followed by the byte XOR 0x20,
// and a 16-bit FCS (CCITT, reflected, init 0xFFFF) trails the payload
// little-endian. This is the defensive layer that turns the raw byte stream
// back into whole frames regardless of how the link chops deliveries.

const (
	hdlcFlag   = 0x7E
	hdlcEscape = 0x7D
	hdlcXOR    = 0x20

	fcsInit = 0xFFFF
	fcsPoly = 0x8408
	fcsGood = 0xF0B8 // residual of FCS computed over payload + trailer
)

func fcsUpdate(fcs uint16, b byte) uint16 {
	fcs ^= uint16(b)
	for i := 0; i < 8; i++ {
		if fcs&1 != 0 {
			fcs = (fcs >> 1) ^ fcsPoly
		} else {
			fcs >>= 1
		}
	}
	return fcs
}

func needsEscape(b byte) bool {
	return b == hdlcFlag || b == hdlcEscape
}

// hdlcEncode wraps one frame's bytes in flags, escaping and appending FCS.
func hdlcEncode(p []byte) []byte {
	out := make([]byte, 0, len(p)+6)
	out = append(out, hdlcFlag)

	fcs := uint16(fcsInit)
	emit := func(b byte) {
		if needsEscape(b) {
			out = append(out, hdlcEscape, b^hdlcXOR)
		} else {
			out = append(out, b)
		}
	}
	for _, b := range p {
		fcs = fcsUpdate(fcs, b)
		emit(b)
	}
	fcs ^= 0xFFFF
	emit(byte(fcs & 0xFF))
	emit(byte(fcs >> 8))

	return append(out, hdlcFlag)
}

// hdlcDecoder reassembles frames from an arbitrarily chopped byte stream.
// Complete frames with a valid FCS are passed to onFrame without the trailer;
// anything else is dropped and counted.
type hdlcDecoder struct {
	onFrame func([]byte)

	buf     []byte
	escaped bool

	// Dropped-garbage counters, read by the transport for diagnostics.
	badFCS   uint64
	tooShort uint64
}

func newHDLCDecoder(onFrame func([]byte)) *hdlcDecoder {
	return &hdlcDecoder{onFrame: onFrame}
}

// Feed consumes a chunk of link bytes, emitting any frames completed by it.
func (d *hdlcDecoder) Feed(p []byte) {
	for _, b := range p {
		switch {
		case b == hdlcFlag:
			d.endFrame()
		case b == hdlcEscape:
			d.escaped = true
		case d.escaped:
			d.buf = append(d.buf, b^hdlcXOR)
			d.escaped = false
		default:
			d.buf = append(d.buf, b)
		}
	}
}

func (d *hdlcDecoder) endFrame() {
	buf := d.buf
	d.buf = nil
	d.escaped = false

	if len(buf) == 0 {
		return // back-to-back flags between frames
	}
	// Header + command + 2-byte FCS is the minimum wire frame.
	if len(buf) < 4 {
		d.tooShort++
		return
	}

	fcs := uint16(fcsInit)
	for _, b := range buf {
		fcs = fcsUpdate(fcs, b)
	}
	if fcs != fcsGood {
		d.badFCS++
		return
	}

	d.onFrame(append([]byte(nil), buf[:len(buf)-2]...))
}
