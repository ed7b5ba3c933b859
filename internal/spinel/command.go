package spinel

import (
	"fmt"
	"strconv"
	"strings"
)

// Command is a one-byte Spinel command code.
type Command uint8

// The fixed command catalog. The RCP firmware defines these; the set and the
// codes never change at runtime.
const (
	CmdNoop              Command = 0
	CmdReset             Command = 1
	CmdPropValueGet      Command = 2
	CmdPropValueSet      Command = 3
	CmdPropValueInsert   Command = 4
	CmdPropValueRemove   Command = 5
	CmdPropValueIs       Command = 6
	CmdPropValueInserted Command = 7
	CmdPropValueRemoved  Command = 8
)

// CommandKind classifies a command's role on the wire.
//
// Response commands also arrive unsolicited: a PROP_VALUE_IS with no pending
// transaction is an asynchronous device notification. That classification is
// made by the transaction manager from the pending-call table, not here.
type CommandKind int

const (
	KindRequest CommandKind = iota
	KindResponse
	KindNotification
)

func (k CommandKind) String() string {
	switch k {
	case KindRequest:
		return "request"
	case KindResponse:
		return "response"
	case KindNotification:
		return "notification"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

type commandInfo struct {
	name     string
	kind     CommandKind
	response Command // paired response, requests only
}

var commands = map[Command]commandInfo{
	CmdNoop:              {name: "NOOP", kind: KindRequest, response: CmdPropValueIs},
	CmdReset:             {name: "RESET", kind: KindRequest, response: CmdPropValueIs},
	CmdPropValueGet:      {name: "PROP_VALUE_GET", kind: KindRequest, response: CmdPropValueIs},
	CmdPropValueSet:      {name: "PROP_VALUE_SET", kind: KindRequest, response: CmdPropValueIs},
	CmdPropValueInsert:   {name: "PROP_VALUE_INSERT", kind: KindRequest, response: CmdPropValueInserted},
	CmdPropValueRemove:   {name: "PROP_VALUE_REMOVE", kind: KindRequest, response: CmdPropValueRemoved},
	CmdPropValueIs:       {name: "PROP_VALUE_IS", kind: KindResponse},
	CmdPropValueInserted: {name: "PROP_VALUE_INSERTED", kind: KindResponse},
	CmdPropValueRemoved:  {name: "PROP_VALUE_REMOVED", kind: KindResponse},
}

var commandsByName = func() map[string]Command {
	m := make(map[string]Command, len(commands))
	for c, info := range commands {
		m[info.name] = c
	}
	return m
}()

// Valid reports whether c is in the documented catalog.
func (c Command) Valid() bool {
	_, ok := commands[c]
	return ok
}

// Name returns the catalog name for c. Codes the catalog does not know
// round-trip as "CMD_0xNN" rather than erroring, so undocumented firmware
// commands survive a name/parse cycle intact.
func (c Command) Name() string {
	if info, ok := commands[c]; ok {
		return info.name
	}
	return fmt.Sprintf("CMD_0x%02X", uint8(c))
}

func (c Command) String() string { return c.Name() }

// CommandByName resolves a catalog name (or a round-tripped "CMD_0xNN" form)
// back to its code.
func CommandByName(name string) (Command, bool) {
	if c, ok := commandsByName[name]; ok {
		return c, true
	}
	if rest, ok := strings.CutPrefix(name, "CMD_0x"); ok {
		n, err := strconv.ParseUint(rest, 16, 8)
		if err == nil {
			return Command(n), true
		}
	}
	return 0, false
}

// Kind returns the command's wire role. Unknown codes report false.
func (c Command) Kind() (CommandKind, bool) {
	info, ok := commands[c]
	if !ok {
		return 0, false
	}
	return info.kind, true
}

// IsRequest reports whether c is a host-initiated request command.
func (c Command) IsRequest() bool {
	info, ok := commands[c]
	return ok && info.kind == KindRequest
}

// IsResponse reports whether c is a device-originated response command.
func (c Command) IsResponse() bool {
	info, ok := commands[c]
	return ok && info.kind == KindResponse
}

// ResponseFor returns the response command paired with the given request.
func ResponseFor(req Command) (Command, bool) {
	info, ok := commands[req]
	if !ok || info.kind != KindRequest {
		return 0, false
	}
	return info.response, true
}

// ValidPair reports whether resp is the declared response for req.
func ValidPair(req, resp Command) bool {
	want, ok := ResponseFor(req)
	return ok && want == resp
}
