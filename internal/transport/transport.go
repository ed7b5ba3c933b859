// Package transport provides the ordered byte links the transaction manager
// runs over: a real serial port speaking HDLC-lite framing, and an in-process
// simulated RCP for development and tests.
//
// The contract up to the client is frame-aligned: every receive on Frames()
// carries exactly one protocol frame's bytes. The framing shim below the
// codec enforces that even if the underlying byte stream splits or coalesces
// writes.
package transport

import "errors"

// ErrTransportClosed is returned for writes after Close, and Frames() is
// closed once the link is gone.
var ErrTransportClosed = errors.New("transport: closed")

// Transport is an ordered, reliable frame-aligned byte link to the RCP.
type Transport interface {
	// WriteFrame sends one frame's bytes. Calls are serialized by the caller.
	WriteFrame(p []byte) error

	// Frames delivers inbound frames, one delivery per frame. The channel is
	// closed when the link fails or the transport is closed.
	Frames() <-chan []byte

	Close() error
}
