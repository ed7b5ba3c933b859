package events

import (
	"errors"
	"testing"
	"time"
)

func TestChanSinkDropsWhenFull(t *testing.T) {
	s := NewChanSink(2)
	for i := 0; i < 5; i++ {
		if err := s.Publish(Notification{Property: "PROP_NET_ROLE", Time: time.Now()}); err != nil {
			t.Fatalf("publish %d: %v", i, err)
		}
	}
	if got := s.Dropped(); got != 3 {
		t.Fatalf("dropped: got %d, want 3", got)
	}
	if got := len(s.C()); got != 2 {
		t.Fatalf("buffered: got %d, want 2", got)
	}
}

func TestMultiSinkJoinsErrors(t *testing.T) {
	fail := errors.New("sink down")
	var delivered int
	m := MultiSink{
		FuncSink(func(Notification) error { delivered++; return nil }),
		FuncSink(func(Notification) error { return fail }),
		FuncSink(func(Notification) error { delivered++; return nil }),
	}

	err := m.Publish(Notification{})
	if !errors.Is(err, fail) {
		t.Fatalf("got %v, want wrapped sink error", err)
	}
	if delivered != 2 {
		t.Fatalf("delivered: got %d, want 2 despite the failing sink", delivered)
	}
}
