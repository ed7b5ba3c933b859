package transport

import (
	"bytes"
	"testing"
	"time"

	"github.com/openlowpan/rcpd/internal/spinel"
)

func simRead(t *testing.T, s *Sim) spinel.Frame {
	t.Helper()
	select {
	case raw := <-s.Frames():
		f, err := spinel.DecodeFrame(raw)
		if err != nil {
			t.Fatalf("sim produced undecodable frame: %v", err)
		}
		return f
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for sim frame")
		return spinel.Frame{}
	}
}

func TestSimAnswersGet(t *testing.T) {
	sim := NewSim()
	defer sim.Close()

	req, _ := spinel.NewPropertyGetFrame(4, spinel.PropPhyChan)
	if err := sim.WriteFrame(req.Encode()); err != nil {
		t.Fatalf("write failed: %v", err)
	}

	resp := simRead(t, sim)
	if resp.Command != spinel.CmdPropValueIs || resp.TID != 4 {
		t.Fatalf("unexpected response %v", resp)
	}
	prop, _ := resp.Property()
	if prop != spinel.PropPhyChan {
		t.Fatalf("property: got %v", prop)
	}
	if !bytes.Equal(resp.Value(), []byte{11}) {
		t.Fatalf("value: got % X", resp.Value())
	}
}

func TestSimSetThenGet(t *testing.T) {
	sim := NewSim()
	defer sim.Close()

	set, _ := spinel.NewPropertySetFrame(1, spinel.PropPhyChan, []byte{26})
	if err := sim.WriteFrame(set.Encode()); err != nil {
		t.Fatalf("write failed: %v", err)
	}
	resp := simRead(t, sim)
	if resp.TID != 1 || !bytes.Equal(resp.Value(), []byte{26}) {
		t.Fatalf("set echo: %v % X", resp, resp.Value())
	}

	get, _ := spinel.NewPropertyGetFrame(2, spinel.PropPhyChan)
	sim.WriteFrame(get.Encode())
	resp = simRead(t, sim)
	if !bytes.Equal(resp.Value(), []byte{26}) {
		t.Fatalf("get after set: % X", resp.Value())
	}
}

func TestSimRejectsReadOnlySet(t *testing.T) {
	sim := NewSim()
	defer sim.Close()

	set, _ := spinel.NewPropertySetFrame(7, spinel.PropNCPVersion, []byte{3, 'a', 'b', 'c'})
	sim.WriteFrame(set.Encode())

	resp := simRead(t, sim)
	prop, _ := resp.Property()
	if prop != spinel.PropLastStatus {
		t.Fatalf("expected LAST_STATUS reply, got %v", prop)
	}
	if spinel.Status(resp.Value()[0]) != spinel.StatusInvalidArgument {
		t.Fatalf("status: got %v", spinel.Status(resp.Value()[0]))
	}
}

func TestSimUnknownPropertyGet(t *testing.T) {
	sim := NewSim()
	defer sim.Close()

	get, _ := spinel.NewPropertyGetFrame(3, spinel.Property(0xEE))
	sim.WriteFrame(get.Encode())

	resp := simRead(t, sim)
	prop, _ := resp.Property()
	if prop != spinel.PropLastStatus {
		t.Fatalf("expected LAST_STATUS reply, got %v", prop)
	}
	if spinel.Status(resp.Value()[0]) != spinel.StatusPropNotFound {
		t.Fatalf("status: got %v", spinel.Status(resp.Value()[0]))
	}
}

func TestSimResetEmitsNotification(t *testing.T) {
	sim := NewSim()
	defer sim.Close()

	// Dirty a property, then reset.
	set, _ := spinel.NewPropertySetFrame(1, spinel.PropPhyChan, []byte{20})
	sim.WriteFrame(set.Encode())
	simRead(t, sim)

	reset, _ := spinel.NewResetFrame(2)
	sim.WriteFrame(reset.Encode())

	note := simRead(t, sim)
	if note.TID != 0 {
		t.Fatalf("reset notice must carry TID 0, got %d", note.TID)
	}
	prop, _ := note.Property()
	if prop != spinel.PropLastStatus {
		t.Fatalf("reset notice property: %v", prop)
	}
	if !spinel.Status(note.Value()[0]).IsReset() {
		t.Fatalf("reset notice status: %v", spinel.Status(note.Value()[0]))
	}

	// State is back to defaults.
	get, _ := spinel.NewPropertyGetFrame(3, spinel.PropPhyChan)
	sim.WriteFrame(get.Encode())
	if resp := simRead(t, sim); !bytes.Equal(resp.Value(), []byte{11}) {
		t.Fatalf("post-reset channel: % X", resp.Value())
	}
}

func TestSimInsertRemovePairing(t *testing.T) {
	sim := NewSim()
	defer sim.Close()

	ins, _ := spinel.NewPropertyInsertFrame(5, spinel.PropIPv6AddressTable, []byte{1, 2})
	sim.WriteFrame(ins.Encode())
	if resp := simRead(t, sim); resp.Command != spinel.CmdPropValueInserted || resp.TID != 5 {
		t.Fatalf("insert reply: %v", resp)
	}

	rem, _ := spinel.NewPropertyRemoveFrame(6, spinel.PropIPv6AddressTable, []byte{1, 2})
	sim.WriteFrame(rem.Encode())
	if resp := simRead(t, sim); resp.Command != spinel.CmdPropValueRemoved || resp.TID != 6 {
		t.Fatalf("remove reply: %v", resp)
	}
}

func TestSimWriteAfterClose(t *testing.T) {
	sim := NewSim()
	sim.Close()
	req, _ := spinel.NewNoopFrame(1)
	if err := sim.WriteFrame(req.Encode()); err != ErrTransportClosed {
		t.Fatalf("got %v, want ErrTransportClosed", err)
	}
}
