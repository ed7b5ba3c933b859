package rcp

import (
	"context"
	"fmt"
	"net"

	"github.com/openlowpan/rcpd/internal/spinel"
)

// Role is the device's position in the Thread network, as reported by
// PROP_NET_ROLE.
type Role uint8

const (
	RoleDetached Role = 0
	RoleChild    Role = 1
	RoleRouter   Role = 2
	RoleLeader   Role = 3
)

func (r Role) String() string {
	switch r {
	case RoleDetached:
		return "detached"
	case RoleChild:
		return "child"
	case RoleRouter:
		return "router"
	case RoleLeader:
		return "leader"
	default:
		return fmt.Sprintf("role(%d)", uint8(r))
	}
}

// Typed wrappers over GetProperty/SetProperty for the well-known properties.
// Each is an ordinary get/set against the property's declared wire type.

func (c *Client) GetNCPVersion(ctx context.Context) (string, error) {
	return getAs[string](c, ctx, spinel.PropNCPVersion)
}

func (c *Client) GetHwAddr(ctx context.Context) (spinel.EUI64, error) {
	return getAs[spinel.EUI64](c, ctx, spinel.PropHwAddr)
}

func (c *Client) GetChannel(ctx context.Context) (uint8, error) {
	return getAs[uint8](c, ctx, spinel.PropPhyChan)
}

func (c *Client) SetChannel(ctx context.Context, channel uint8) error {
	return c.SetProperty(ctx, spinel.PropPhyChan, channel)
}

func (c *Client) GetTxPower(ctx context.Context) (int8, error) {
	return getAs[int8](c, ctx, spinel.PropPhyTxPower)
}

func (c *Client) SetTxPower(ctx context.Context, dbm int8) error {
	return c.SetProperty(ctx, spinel.PropPhyTxPower, dbm)
}

func (c *Client) GetRSSI(ctx context.Context) (int8, error) {
	return getAs[int8](c, ctx, spinel.PropPhyRSSI)
}

func (c *Client) GetPANID(ctx context.Context) (uint16, error) {
	return getAs[uint16](c, ctx, spinel.PropMac154PANID)
}

func (c *Client) SetPANID(ctx context.Context, panid uint16) error {
	return c.SetProperty(ctx, spinel.PropMac154PANID, panid)
}

func (c *Client) GetNetworkName(ctx context.Context) (string, error) {
	return getAs[string](c, ctx, spinel.PropNetNetworkName)
}

func (c *Client) SetNetworkName(ctx context.Context, name string) error {
	return c.SetProperty(ctx, spinel.PropNetNetworkName, name)
}

func (c *Client) SetNetworkKey(ctx context.Context, key []byte) error {
	return c.SetProperty(ctx, spinel.PropNetNetworkKey, key)
}

func (c *Client) SetXPANID(ctx context.Context, xpanid []byte) error {
	return c.SetProperty(ctx, spinel.PropNetXPANID, xpanid)
}

// InterfaceUp raises or lowers the network interface (PROP_NET_IF_UP).
func (c *Client) InterfaceUp(ctx context.Context, up bool) error {
	return c.SetProperty(ctx, spinel.PropNetIfUp, up)
}

// ThreadStart starts or stops the Thread stack (PROP_NET_STACK_UP).
func (c *Client) ThreadStart(ctx context.Context, up bool) error {
	return c.SetProperty(ctx, spinel.PropNetStackUp, up)
}

func (c *Client) GetNetRole(ctx context.Context) (Role, error) {
	v, err := getAs[uint8](c, ctx, spinel.PropNetRole)
	return Role(v), err
}

func (c *Client) GetMLAddr(ctx context.Context) (net.IP, error) {
	return getAs[net.IP](c, ctx, spinel.PropIPv6MLAddr)
}

func (c *Client) GetPartitionID(ctx context.Context) (uint32, error) {
	return getAs[uint32](c, ctx, spinel.PropNetPartitionID)
}

// getAs narrows GetProperty's decoded value to the property's Go type.
func getAs[T any](c *Client, ctx context.Context, prop spinel.Property) (T, error) {
	var zero T
	v, err := c.GetProperty(ctx, prop)
	if err != nil {
		return zero, err
	}
	t, ok := v.(T)
	if !ok {
		return zero, fmt.Errorf("rcp: %s decoded as %T, want %T", prop, v, zero)
	}
	return t, nil
}
