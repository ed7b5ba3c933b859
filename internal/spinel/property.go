package spinel

import (
	"fmt"
	"strconv"
	"strings"
)

// Property is a one-byte Spinel property code: a named unit of device state
// readable and/or writable via the PROP_VALUE_* commands.
type Property uint8

// Category groups properties by protocol area, derived from the name prefix.
type Category string

const (
	CategoryCore   Category = "core"
	CategoryPHY    Category = "phy"
	CategoryMAC    Category = "mac"
	CategoryNet    Category = "net"
	CategoryThread Category = "thread"
	CategoryIPv6   Category = "ipv6"
	CategoryStream Category = "stream"
)

// The fixed property catalog. Codes and layouts are dictated by the RCP
// firmware and must match it bit for bit.
const (
	PropLastStatus     Property = 0x00
	PropProtocolVer    Property = 0x01
	PropNCPVersion     Property = 0x02
	PropInterfaceType  Property = 0x03
	PropVendorID       Property = 0x04
	PropCaps           Property = 0x05
	PropInterfaceCount Property = 0x06
	PropPowerState     Property = 0x07
	PropHwAddr         Property = 0x08
	PropLock           Property = 0x09

	PropPhyEnabled       Property = 0x20
	PropPhyChan          Property = 0x21
	PropPhyChanSupported Property = 0x22
	PropPhyFreq          Property = 0x23
	PropPhyCCAThreshold  Property = 0x24
	PropPhyTxPower       Property = 0x25
	PropPhyRSSI          Property = 0x26
	PropPhyRxSensitivity Property = 0x27

	PropMacScanState        Property = 0x30
	PropMacScanMask         Property = 0x31
	PropMacScanPeriod       Property = 0x32
	PropMacScanBeacon       Property = 0x33
	PropMac154LAddr         Property = 0x34
	PropMac154SAddr         Property = 0x35
	PropMac154PANID         Property = 0x36
	PropMacRawStreamEnabled Property = 0x37
	PropMacPromiscuousMode  Property = 0x38
	PropMacEnergyScanResult Property = 0x39
	PropMacDataPollPeriod   Property = 0x3A

	PropNetSaved              Property = 0x40
	PropNetIfUp               Property = 0x41
	PropNetStackUp            Property = 0x42
	PropNetRole               Property = 0x43
	PropNetNetworkName        Property = 0x44
	PropNetXPANID             Property = 0x45
	PropNetNetworkKey         Property = 0x46
	PropNetKeySequenceCounter Property = 0x47
	PropNetPartitionID        Property = 0x48
	PropNetRequireJoin        Property = 0x49
	PropNetKeySwitchGuard     Property = 0x4A
	PropNetPSKc               Property = 0x4B

	PropThreadLeaderAddr        Property = 0x50
	PropThreadParent            Property = 0x51
	PropThreadChildTable        Property = 0x52
	PropThreadLeaderRID         Property = 0x53
	PropThreadLeaderWeight      Property = 0x54
	PropThreadLocalLeaderWeight Property = 0x55
	PropThreadNetworkData       Property = 0x56
	PropThreadNetworkDataVer    Property = 0x57
	PropThreadStableNetData     Property = 0x58
	PropThreadStableNetDataVer  Property = 0x59
	PropThreadRLOC16            Property = 0x5A
	PropThreadNeighborTable     Property = 0x5B
	PropThreadChildCountMax     Property = 0x5C

	PropIPv6LLAddr          Property = 0x60
	PropIPv6MLAddr          Property = 0x61
	PropIPv6MLPrefix        Property = 0x62
	PropIPv6AddressTable    Property = 0x63
	PropIPv6RouteTable      Property = 0x64
	PropIPv6ICMPPingOffload Property = 0x65

	PropStreamDebug       Property = 0x70
	PropStreamRaw         Property = 0x71
	PropStreamNet         Property = 0x72
	PropStreamNetInsecure Property = 0x73
	PropStreamLog         Property = 0x74
)

type propertyInfo struct {
	name     string
	typ      DataType
	readOnly bool
}

var properties = map[Property]propertyInfo{
	PropLastStatus:     {name: "PROP_LAST_STATUS", typ: TypeUint8, readOnly: true},
	PropProtocolVer:    {name: "PROP_PROTOCOL_VERSION", typ: TypeData, readOnly: true},
	PropNCPVersion:     {name: "PROP_NCP_VERSION", typ: TypeUTF8, readOnly: true},
	PropInterfaceType:  {name: "PROP_INTERFACE_TYPE", typ: TypeUint8, readOnly: true},
	PropVendorID:       {name: "PROP_VENDOR_ID", typ: TypeUint32, readOnly: true},
	PropCaps:           {name: "PROP_CAPS", typ: TypeData, readOnly: true},
	PropInterfaceCount: {name: "PROP_INTERFACE_COUNT", typ: TypeUint8, readOnly: true},
	PropPowerState:     {name: "PROP_POWER_STATE", typ: TypeUint8},
	PropHwAddr:         {name: "PROP_HWADDR", typ: TypeEUI64, readOnly: true},
	PropLock:           {name: "PROP_LOCK", typ: TypeBool},

	PropPhyEnabled:       {name: "PROP_PHY_ENABLED", typ: TypeBool},
	PropPhyChan:          {name: "PROP_PHY_CHAN", typ: TypeUint8},
	PropPhyChanSupported: {name: "PROP_PHY_CHAN_SUPPORTED", typ: TypeData, readOnly: true},
	PropPhyFreq:          {name: "PROP_PHY_FREQ", typ: TypeUint32, readOnly: true},
	PropPhyCCAThreshold:  {name: "PROP_PHY_CCA_THRESHOLD", typ: TypeInt8},
	PropPhyTxPower:       {name: "PROP_PHY_TX_POWER", typ: TypeInt8},
	PropPhyRSSI:          {name: "PROP_PHY_RSSI", typ: TypeInt8, readOnly: true},
	PropPhyRxSensitivity: {name: "PROP_PHY_RX_SENSITIVITY", typ: TypeInt8, readOnly: true},

	PropMacScanState:        {name: "PROP_MAC_SCAN_STATE", typ: TypeUint8},
	PropMacScanMask:         {name: "PROP_MAC_SCAN_MASK", typ: TypeData},
	PropMacScanPeriod:       {name: "PROP_MAC_SCAN_PERIOD", typ: TypeUint16},
	PropMacScanBeacon:       {name: "PROP_MAC_SCAN_BEACON", typ: TypeData, readOnly: true},
	PropMac154LAddr:         {name: "PROP_MAC_15_4_LADDR", typ: TypeEUI64},
	PropMac154SAddr:         {name: "PROP_MAC_15_4_SADDR", typ: TypeUint16},
	PropMac154PANID:         {name: "PROP_MAC_15_4_PANID", typ: TypeUint16},
	PropMacRawStreamEnabled: {name: "PROP_MAC_RAW_STREAM_ENABLED", typ: TypeBool},
	PropMacPromiscuousMode:  {name: "PROP_MAC_PROMISCUOUS_MODE", typ: TypeUint8},
	PropMacEnergyScanResult: {name: "PROP_MAC_ENERGY_SCAN_RESULT", typ: TypeData, readOnly: true},
	PropMacDataPollPeriod:   {name: "PROP_MAC_DATA_POLL_PERIOD", typ: TypeUint32},

	PropNetSaved:              {name: "PROP_NET_SAVED", typ: TypeBool, readOnly: true},
	PropNetIfUp:               {name: "PROP_NET_IF_UP", typ: TypeBool},
	PropNetStackUp:            {name: "PROP_NET_STACK_UP", typ: TypeBool},
	PropNetRole:               {name: "PROP_NET_ROLE", typ: TypeUint8},
	PropNetNetworkName:        {name: "PROP_NET_NETWORK_NAME", typ: TypeUTF8},
	PropNetXPANID:             {name: "PROP_NET_XPANID", typ: TypeData},
	PropNetNetworkKey:         {name: "PROP_NET_NETWORK_KEY", typ: TypeData},
	PropNetKeySequenceCounter: {name: "PROP_NET_KEY_SEQUENCE_COUNTER", typ: TypeUint32},
	PropNetPartitionID:        {name: "PROP_NET_PARTITION_ID", typ: TypeUint32, readOnly: true},
	PropNetRequireJoin:        {name: "PROP_NET_REQUIRE_JOIN_EXISTING", typ: TypeBool},
	PropNetKeySwitchGuard:     {name: "PROP_NET_KEY_SWITCH_GUARDTIME", typ: TypeUint32},
	PropNetPSKc:               {name: "PROP_NET_PSKC", typ: TypeData},

	PropThreadLeaderAddr:        {name: "PROP_THREAD_LEADER_ADDR", typ: TypeIPv6Addr, readOnly: true},
	PropThreadParent:            {name: "PROP_THREAD_PARENT", typ: TypeData, readOnly: true},
	PropThreadChildTable:        {name: "PROP_THREAD_CHILD_TABLE", typ: TypeData, readOnly: true},
	PropThreadLeaderRID:         {name: "PROP_THREAD_LEADER_RID", typ: TypeUint8, readOnly: true},
	PropThreadLeaderWeight:      {name: "PROP_THREAD_LEADER_WEIGHT", typ: TypeUint8, readOnly: true},
	PropThreadLocalLeaderWeight: {name: "PROP_THREAD_LOCAL_LEADER_WEIGHT", typ: TypeUint8},
	PropThreadNetworkData:       {name: "PROP_THREAD_NETWORK_DATA", typ: TypeData, readOnly: true},
	PropThreadNetworkDataVer:    {name: "PROP_THREAD_NETWORK_DATA_VERSION", typ: TypeUint8, readOnly: true},
	PropThreadStableNetData:     {name: "PROP_THREAD_STABLE_NETWORK_DATA", typ: TypeData, readOnly: true},
	PropThreadStableNetDataVer:  {name: "PROP_THREAD_STABLE_NETWORK_DATA_VERSION", typ: TypeUint8, readOnly: true},
	PropThreadRLOC16:            {name: "PROP_THREAD_RLOC16", typ: TypeUint16, readOnly: true},
	PropThreadNeighborTable:     {name: "PROP_THREAD_NEIGHBOR_TABLE", typ: TypeData, readOnly: true},
	PropThreadChildCountMax:     {name: "PROP_THREAD_CHILD_COUNT_MAX", typ: TypeUint8},

	PropIPv6LLAddr:          {name: "PROP_IPV6_LL_ADDR", typ: TypeIPv6Addr, readOnly: true},
	PropIPv6MLAddr:          {name: "PROP_IPV6_ML_ADDR", typ: TypeIPv6Addr, readOnly: true},
	PropIPv6MLPrefix:        {name: "PROP_IPV6_ML_PREFIX", typ: TypeData},
	PropIPv6AddressTable:    {name: "PROP_IPV6_ADDRESS_TABLE", typ: TypeData, readOnly: true},
	PropIPv6RouteTable:      {name: "PROP_IPV6_ROUTE_TABLE", typ: TypeData, readOnly: true},
	PropIPv6ICMPPingOffload: {name: "PROP_IPV6_ICMP_PING_OFFLOAD", typ: TypeBool},

	PropStreamDebug:       {name: "PROP_STREAM_DEBUG", typ: TypeData, readOnly: true},
	PropStreamRaw:         {name: "PROP_STREAM_RAW", typ: TypeData},
	PropStreamNet:         {name: "PROP_STREAM_NET", typ: TypeData},
	PropStreamNetInsecure: {name: "PROP_STREAM_NET_INSECURE", typ: TypeData},
	PropStreamLog:         {name: "PROP_STREAM_LOG", typ: TypeData, readOnly: true},
}

var propertiesByName = func() map[string]Property {
	m := make(map[string]Property, len(properties))
	for p, info := range properties {
		m[info.name] = p
	}
	return m
}()

// Valid reports whether p is in the documented catalog.
func (p Property) Valid() bool {
	_, ok := properties[p]
	return ok
}

// Name returns the catalog name for p. Unknown codes round-trip as
// "PROP_0xNN" so undocumented firmware properties pass through unharmed.
func (p Property) Name() string {
	if info, ok := properties[p]; ok {
		return info.name
	}
	return fmt.Sprintf("PROP_0x%02X", uint8(p))
}

func (p Property) String() string { return p.Name() }

// PropertyByName resolves a catalog name (or a round-tripped "PROP_0xNN"
// form) back to its code.
func PropertyByName(name string) (Property, bool) {
	if p, ok := propertiesByName[name]; ok {
		return p, true
	}
	if rest, ok := strings.CutPrefix(name, "PROP_0x"); ok {
		n, err := strconv.ParseUint(rest, 16, 8)
		if err == nil {
			return Property(n), true
		}
	}
	return 0, false
}

// Type returns the declared wire type for p's value. Unknown properties
// report TypeData: their payloads pass through as opaque bytes.
func (p Property) Type() DataType {
	if info, ok := properties[p]; ok {
		return info.typ
	}
	return TypeData
}

// ReadOnly reports whether the firmware rejects writes to p. The client
// refuses the SET locally before any I/O.
func (p Property) ReadOnly() bool {
	info, ok := properties[p]
	return ok && info.readOnly
}

// CategoryOf derives the category from the property name prefix, core being
// the fallback for the identity/status block and unknown codes.
func (p Property) CategoryOf() Category {
	name := p.Name()
	for _, c := range []Category{CategoryPHY, CategoryMAC, CategoryNet, CategoryThread, CategoryIPv6, CategoryStream} {
		if strings.HasPrefix(name, prefixFor(c)) {
			return c
		}
	}
	return CategoryCore
}

func prefixFor(c Category) string {
	switch c {
	case CategoryPHY:
		return "PROP_PHY_"
	case CategoryMAC:
		return "PROP_MAC_"
	case CategoryNet:
		return "PROP_NET_"
	case CategoryThread:
		return "PROP_THREAD_"
	case CategoryIPv6:
		return "PROP_IPV6_"
	case CategoryStream:
		return "PROP_STREAM_"
	default:
		return ""
	}
}

// Properties returns the documented property codes, for catalog enumeration.
func Properties() []Property {
	out := make([]Property, 0, len(properties))
	for p := range properties {
		out = append(out, p)
	}
	return out
}
