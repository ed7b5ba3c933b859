package spinel

import "fmt"

// Status is a firmware status code, reported through PROP_LAST_STATUS. The
// transaction manager decodes and surfaces these; it attaches no meaning to
// them beyond the reset-cause block.
type Status uint8

const (
	StatusOK                Status = 0
	StatusFailure           Status = 1
	StatusUnimplemented     Status = 2
	StatusInvalidArgument   Status = 3
	StatusInvalidState      Status = 4
	StatusInvalidCommand    Status = 5
	StatusInvalidInterface  Status = 6
	StatusInternalError     Status = 7
	StatusSecurityError     Status = 8
	StatusParseError        Status = 9
	StatusInProgress        Status = 10
	StatusNoMem             Status = 11
	StatusBusy              Status = 12
	StatusPropNotFound      Status = 13
	StatusDropped           Status = 14
	StatusEmpty             Status = 15
	StatusCmdTooBig         Status = 16
	StatusNoAck             Status = 17
	StatusCCAFailure        Status = 18
	StatusAlready           Status = 19
	StatusItemNotFound      Status = 20
	StatusInvalidCmdForProp Status = 21
	StatusResetPowerOn      Status = 112
	StatusResetExternal     Status = 113
	StatusResetSoftware     Status = 114
	StatusResetFault        Status = 115
	StatusResetCrash        Status = 116
	StatusResetAssert       Status = 117
	StatusResetOther        Status = 118
	StatusResetUnknown      Status = 119
	StatusResetWatchdog     Status = 120
)

var statusNames = map[Status]string{
	StatusOK:                "OK",
	StatusFailure:           "FAILURE",
	StatusUnimplemented:     "UNIMPLEMENTED",
	StatusInvalidArgument:   "INVALID_ARGUMENT",
	StatusInvalidState:      "INVALID_STATE",
	StatusInvalidCommand:    "INVALID_COMMAND",
	StatusInvalidInterface:  "INVALID_INTERFACE",
	StatusInternalError:     "INTERNAL_ERROR",
	StatusSecurityError:     "SECURITY_ERROR",
	StatusParseError:        "PARSE_ERROR",
	StatusInProgress:        "IN_PROGRESS",
	StatusNoMem:             "NOMEM",
	StatusBusy:              "BUSY",
	StatusPropNotFound:      "PROP_NOT_FOUND",
	StatusDropped:           "DROPPED",
	StatusEmpty:             "EMPTY",
	StatusCmdTooBig:         "CMD_TOO_BIG",
	StatusNoAck:             "NO_ACK",
	StatusCCAFailure:        "CCA_FAILURE",
	StatusAlready:           "ALREADY",
	StatusItemNotFound:      "ITEM_NOT_FOUND",
	StatusInvalidCmdForProp: "INVALID_COMMAND_FOR_PROP",
	StatusResetPowerOn:      "RESET_POWER_ON",
	StatusResetExternal:     "RESET_EXTERNAL",
	StatusResetSoftware:     "RESET_SOFTWARE",
	StatusResetFault:        "RESET_FAULT",
	StatusResetCrash:        "RESET_CRASH",
	StatusResetAssert:       "RESET_ASSERT",
	StatusResetOther:        "RESET_OTHER",
	StatusResetUnknown:      "RESET_UNKNOWN",
	StatusResetWatchdog:     "RESET_WATCHDOG",
}

func (s Status) String() string {
	if name, ok := statusNames[s]; ok {
		return name
	}
	return fmt.Sprintf("STATUS_0x%02X", uint8(s))
}

// IsReset reports whether s announces a device reset cause. The firmware
// emits one of these as an unsolicited LAST_STATUS after every reboot.
func (s Status) IsReset() bool {
	return s >= 112 && s <= 127
}
