package transport

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/openlowpan/rcpd/internal/spinel"
)

// Sim is an in-process simulated RCP for development and testing: a Transport
// whose far end answers GET/SET/INSERT/REMOVE/RESET/NOOP with protocol-correct
// frames from a seeded property store, and can emit unsolicited notifications.
type Sim struct {
	mu    sync.Mutex
	props map[spinel.Property][]byte

	sendMu sync.Mutex
	frames chan []byte
	done   chan struct{}
	closed atomic.Bool

	// replyDelay delays each response; tests use it to force timeouts and
	// out-of-order interleavings.
	replyDelay time.Duration
}

// NewSim creates a simulated RCP seeded with plausible firmware identity and
// radio defaults.
func NewSim() *Sim {
	s := &Sim{
		props:  make(map[spinel.Property][]byte),
		frames: make(chan []byte, 64),
		done:   make(chan struct{}),
	}
	s.seed()
	return s
}

func (s *Sim) seed() {
	hw := spinel.EUI64{0x18, 0xB4, 0x30, 0x00, 0x00, 0x00, 0x00, 0x01}
	seedVals := []struct {
		prop spinel.Property
		typ  spinel.DataType
		val  any
	}{
		{spinel.PropLastStatus, spinel.TypeUint8, uint8(spinel.StatusOK)},
		{spinel.PropNCPVersion, spinel.TypeUTF8, "OPENLOWPAN-SIM/1.0; RCP"},
		{spinel.PropInterfaceType, spinel.TypeUint8, uint8(3)},
		{spinel.PropInterfaceCount, spinel.TypeUint8, uint8(1)},
		{spinel.PropHwAddr, spinel.TypeEUI64, hw},
		{spinel.PropPhyEnabled, spinel.TypeBool, true},
		{spinel.PropPhyChan, spinel.TypeUint8, uint8(11)},
		{spinel.PropPhyFreq, spinel.TypeUint32, uint32(2405000)},
		{spinel.PropPhyTxPower, spinel.TypeInt8, int8(8)},
		{spinel.PropPhyRSSI, spinel.TypeInt8, int8(-67)},
		{spinel.PropMac154PANID, spinel.TypeUint16, uint16(0xFFFF)},
		{spinel.PropNetSaved, spinel.TypeBool, false},
		{spinel.PropNetIfUp, spinel.TypeBool, false},
		{spinel.PropNetStackUp, spinel.TypeBool, false},
		{spinel.PropNetRole, spinel.TypeUint8, uint8(0)},
		{spinel.PropNetNetworkName, spinel.TypeUTF8, "OpenThread"},
	}
	for _, sv := range seedVals {
		enc, err := spinel.Encode(sv.typ, sv.val)
		if err != nil {
			panic(err) // seed table is static; a failure is a programming error
		}
		s.props[sv.prop] = enc
	}
}

// SetReplyDelay delays every subsequent response by d.
func (s *Sim) SetReplyDelay(d time.Duration) {
	s.mu.Lock()
	s.replyDelay = d
	s.mu.Unlock()
}

// StartNotifier emits an unsolicited PROP_VALUE_IS for the given property
// every interval until the sim is closed.
func (s *Sim) StartNotifier(prop spinel.Property, interval time.Duration) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-s.done:
				return
			case <-ticker.C:
				s.mu.Lock()
				val := s.props[prop]
				s.mu.Unlock()
				s.Notify(prop, val)
			}
		}
	}()
}

// Notify injects an unsolicited PROP_VALUE_IS with TID 0, the convention the
// real firmware uses for asynchronous updates.
func (s *Sim) Notify(prop spinel.Property, value []byte) {
	payload := append([]byte{byte(prop)}, value...)
	f, err := spinel.NewFrame(spinel.CmdPropValueIs, 0, payload)
	if err != nil {
		return
	}
	s.deliver(f.Encode())
}

// WriteFrame accepts a request frame from the host and schedules its reply.
func (s *Sim) WriteFrame(p []byte) error {
	if s.closed.Load() {
		return ErrTransportClosed
	}
	f, err := spinel.DecodeFrame(p)
	if err != nil {
		// Firmware ignores garbage; so does the sim.
		return nil
	}

	s.mu.Lock()
	delay := s.replyDelay
	s.mu.Unlock()

	go func() {
		if delay > 0 {
			select {
			case <-time.After(delay):
			case <-s.done:
				return
			}
		}
		s.handle(f)
	}()
	return nil
}

func (s *Sim) handle(f spinel.Frame) {
	switch f.Command {
	case spinel.CmdNoop:
		s.replyStatus(f.TID, spinel.StatusOK)
	case spinel.CmdReset:
		s.mu.Lock()
		s.props = make(map[spinel.Property][]byte)
		s.seed()
		s.mu.Unlock()
		// Real firmware reboots and announces the cause with TID 0.
		s.Notify(spinel.PropLastStatus, []byte{byte(spinel.StatusResetSoftware)})
	case spinel.CmdPropValueGet:
		prop, ok := f.Property()
		if !ok {
			s.replyStatus(f.TID, spinel.StatusParseError)
			return
		}
		s.mu.Lock()
		val, found := s.props[prop]
		s.mu.Unlock()
		if !found {
			s.replyStatus(f.TID, spinel.StatusPropNotFound)
			return
		}
		s.replyIs(f.TID, prop, val)
	case spinel.CmdPropValueSet:
		prop, ok := f.Property()
		if !ok {
			s.replyStatus(f.TID, spinel.StatusParseError)
			return
		}
		if prop.ReadOnly() {
			s.replyStatus(f.TID, spinel.StatusInvalidArgument)
			return
		}
		val := append([]byte(nil), f.Value()...)
		s.mu.Lock()
		s.props[prop] = val
		s.mu.Unlock()
		s.replyIs(f.TID, prop, val)
	case spinel.CmdPropValueInsert:
		prop, ok := f.Property()
		if !ok {
			s.replyStatus(f.TID, spinel.StatusParseError)
			return
		}
		s.reply(spinel.CmdPropValueInserted, f.TID, prop, f.Value())
	case spinel.CmdPropValueRemove:
		prop, ok := f.Property()
		if !ok {
			s.replyStatus(f.TID, spinel.StatusParseError)
			return
		}
		s.reply(spinel.CmdPropValueRemoved, f.TID, prop, f.Value())
	default:
		s.replyStatus(f.TID, spinel.StatusInvalidCommand)
	}
}

func (s *Sim) replyIs(tid uint8, prop spinel.Property, value []byte) {
	s.reply(spinel.CmdPropValueIs, tid, prop, value)
}

// replyStatus answers with PROP_VALUE_IS carrying LAST_STATUS, the firmware's
// shape for any per-request failure (and for NOOP acknowledgement).
func (s *Sim) replyStatus(tid uint8, status spinel.Status) {
	s.reply(spinel.CmdPropValueIs, tid, spinel.PropLastStatus, []byte{byte(status)})
}

func (s *Sim) reply(cmd spinel.Command, tid uint8, prop spinel.Property, value []byte) {
	payload := append([]byte{byte(prop)}, value...)
	f, err := spinel.NewFrame(cmd, tid, payload)
	if err != nil {
		return
	}
	s.deliver(f.Encode())
}

// deliver hands a frame to the host side, dropping it if the channel is full
// (the serial adapter behaves the same way).
func (s *Sim) deliver(p []byte) {
	s.sendMu.Lock()
	defer s.sendMu.Unlock()
	if s.closed.Load() {
		return
	}
	select {
	case s.frames <- p:
	default:
	}
}

func (s *Sim) Frames() <-chan []byte { return s.frames }

func (s *Sim) Close() error {
	if s.closed.CompareAndSwap(false, true) {
		close(s.done)
		s.sendMu.Lock()
		close(s.frames)
		s.sendMu.Unlock()
	}
	return nil
}
