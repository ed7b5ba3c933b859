package transport

import (
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
	"go.bug.st/serial"
)

// SerialConfig holds the UART settings for the RCP link.
type SerialConfig struct {
	Path string `yaml:"path" json:"path" env:"RCPD_SERIAL_PATH"`
	Baud int    `yaml:"baud" json:"baud" env:"RCPD_SERIAL_BAUD"`

	// ReadBuffer is the size of the inbound frame channel; deliveries beyond
	// it are dropped rather than blocking the read loop.
	ReadBuffer int `yaml:"read_buffer" json:"readBuffer" env:"RCPD_SERIAL_READ_BUFFER"`
}

// Serial speaks HDLC-lite framed Spinel over a UART via go.bug.st/serial.
type Serial struct {
	path string
	port serial.Port
	log  zerolog.Logger

	writeMu sync.Mutex
	frames  chan []byte
	done    chan struct{}
	closed  atomic.Bool

	dropped atomic.Uint64
}

// OpenSerial opens the port and starts the read loop. The port is configured
// 8N1 at the given baud rate.
func OpenSerial(cfg SerialConfig, log zerolog.Logger) (*Serial, error) {
	if cfg.Baud == 0 {
		cfg.Baud = 115200
	}
	if cfg.ReadBuffer == 0 {
		cfg.ReadBuffer = 32
	}

	mode := &serial.Mode{
		BaudRate: cfg.Baud,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	}
	port, err := serial.Open(cfg.Path, mode)
	if err != nil {
		return nil, fmt.Errorf("transport: open %s: %w", cfg.Path, err)
	}
	// A finite read timeout lets the read loop notice Close.
	if err := port.SetReadTimeout(time.Second); err != nil {
		port.Close()
		return nil, fmt.Errorf("transport: set read timeout: %w", err)
	}

	s := &Serial{
		path:   cfg.Path,
		port:   port,
		log:    log,
		frames: make(chan []byte, cfg.ReadBuffer),
		done:   make(chan struct{}),
	}
	s.log.Info().Str("path", cfg.Path).Int("baud", cfg.Baud).Msg("serial port opened")

	go s.readLoop()
	return s, nil
}

// WriteFrame HDLC-encodes one frame and writes it to the port in a single
// call, preserving issue order across callers via the write mutex.
func (s *Serial) WriteFrame(p []byte) error {
	if s.closed.Load() {
		return ErrTransportClosed
	}
	enc := hdlcEncode(p)

	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	if _, err := s.port.Write(enc); err != nil {
		return fmt.Errorf("transport: write %s: %w", s.path, err)
	}
	return nil
}

// Frames delivers inbound frames, one per receive, FCS already verified and
// framing stripped.
func (s *Serial) Frames() <-chan []byte { return s.frames }

// Dropped reports frames discarded because the inbound channel was full.
func (s *Serial) Dropped() uint64 { return s.dropped.Load() }

func (s *Serial) Close() error {
	if !s.closed.CompareAndSwap(false, true) {
		return nil
	}
	close(s.done)
	return s.port.Close()
}

func (s *Serial) readLoop() {
	defer close(s.frames)

	dec := newHDLCDecoder(func(frame []byte) {
		select {
		case s.frames <- frame:
		default:
			s.dropped.Add(1)
			s.log.Warn().Int("len", len(frame)).Msg("inbound frame dropped, channel full")
		}
	})

	buf := make([]byte, 512)
	for {
		select {
		case <-s.done:
			return
		default:
		}

		n, err := s.port.Read(buf)
		if n > 0 {
			dec.Feed(buf[:n])
		}
		if err != nil {
			if !s.closed.Load() {
				s.log.Error().Err(err).Str("path", s.path).Msg("serial read failed")
			}
			return
		}
	}
}
