package rcp

import (
	"context"
	"strings"
	"testing"

	"github.com/openlowpan/rcpd/internal/spinel"
	"github.com/openlowpan/rcpd/internal/transport"
)

func TestTypedWrappersOverSim(t *testing.T) {
	c := newTestClient(t, transport.NewSim(), Options{})
	ctx := context.Background()

	ver, err := c.GetNCPVersion(ctx)
	if err != nil {
		t.Fatalf("version: %v", err)
	}
	if !strings.Contains(ver, "RCP") {
		t.Fatalf("version: got %q", ver)
	}

	hw, err := c.GetHwAddr(ctx)
	if err != nil {
		t.Fatalf("hwaddr: %v", err)
	}
	if hw == (spinel.EUI64{}) {
		t.Fatal("hwaddr: got zero address")
	}

	if err := c.SetPANID(ctx, 0xFACE); err != nil {
		t.Fatalf("set panid: %v", err)
	}
	panid, err := c.GetPANID(ctx)
	if err != nil {
		t.Fatalf("get panid: %v", err)
	}
	if panid != 0xFACE {
		t.Fatalf("panid: got %#04x", panid)
	}

	role, err := c.GetNetRole(ctx)
	if err != nil {
		t.Fatalf("role: %v", err)
	}
	if role != RoleDetached {
		t.Fatalf("role: got %v", role)
	}
}

func TestRoleString(t *testing.T) {
	cases := []struct {
		role Role
		want string
	}{
		{RoleDetached, "detached"},
		{RoleChild, "child"},
		{RoleRouter, "router"},
		{RoleLeader, "leader"},
		{Role(9), "role(9)"},
	}
	for _, tc := range cases {
		if got := tc.role.String(); got != tc.want {
			t.Fatalf("Role(%d): got %q, want %q", uint8(tc.role), got, tc.want)
		}
	}
}
