package spinel

import "fmt"

// CheckCatalogs verifies the process-wide command and property tables once at
// startup: bidirectional name mapping must be lossless, and every request
// command must declare exactly one valid paired response. The tables are
// immutable maps, so id uniqueness is structural; this guards the parts a map
// literal cannot.
func CheckCatalogs() error {
	if len(commandsByName) != len(commands) {
		return fmt.Errorf("spinel: command catalog has duplicate names (%d names for %d codes)",
			len(commandsByName), len(commands))
	}
	if len(propertiesByName) != len(properties) {
		return fmt.Errorf("spinel: property catalog has duplicate names (%d names for %d codes)",
			len(propertiesByName), len(properties))
	}
	for c, info := range commands {
		if info.kind != KindRequest {
			continue
		}
		resp, ok := commands[info.response]
		if !ok {
			return fmt.Errorf("spinel: request %s pairs with unknown command 0x%02X", c, uint8(info.response))
		}
		if resp.kind != KindResponse {
			return fmt.Errorf("spinel: request %s pairs with non-response command %s", c, info.response)
		}
	}
	return nil
}

func init() {
	if err := CheckCatalogs(); err != nil {
		panic(err)
	}
}
