// Package events carries asynchronous device notifications out of the
// transaction manager. Frames that match no pending call belong to the
// topology/resource layer above; a Sink is that layer's doorway.
package events

import (
	"errors"
	"sync/atomic"
	"time"
)

// Notification is one decoded unsolicited frame.
type Notification struct {
	Command  string    `json:"command"`
	Property string    `json:"property"`
	Category string    `json:"category"`
	Value    any       `json:"value,omitempty"`
	Raw      []byte    `json:"raw,omitempty"`
	Time     time.Time `json:"time"`
}

// Sink receives notifications. Implementations must not block the caller for
// long: Publish runs on the client's read loop.
type Sink interface {
	Publish(n Notification) error
}

// ChanSink buffers notifications on a channel for in-process consumers.
// When the buffer is full the newest notification is dropped and counted,
// never blocking the publisher.
type ChanSink struct {
	ch      chan Notification
	dropped atomic.Uint64
}

func NewChanSink(buffer int) *ChanSink {
	if buffer <= 0 {
		buffer = 64
	}
	return &ChanSink{ch: make(chan Notification, buffer)}
}

func (s *ChanSink) Publish(n Notification) error {
	select {
	case s.ch <- n:
		return nil
	default:
		s.dropped.Add(1)
		return nil
	}
}

// C exposes the notification stream.
func (s *ChanSink) C() <-chan Notification { return s.ch }

// Dropped reports notifications discarded because the buffer was full.
func (s *ChanSink) Dropped() uint64 { return s.dropped.Load() }

// MultiSink fans one notification out to several sinks.
type MultiSink []Sink

func (m MultiSink) Publish(n Notification) error {
	var errs []error
	for _, s := range m {
		if err := s.Publish(n); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// FuncSink adapts a function to the Sink interface.
type FuncSink func(Notification) error

func (f FuncSink) Publish(n Notification) error { return f(n) }
