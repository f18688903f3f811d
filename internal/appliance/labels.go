package appliance

import "midea-bridge/internal/protocol"

// Labels returns the selectable semantic labels for a list-valued attribute,
// or nil if the attribute is not list-valued on that appliance type. Used by
// the outer surfaces to render pickers and discovery payloads.
func Labels(deviceType byte, attr string) []string {
	switch deviceType {
	case protocol.TypeA1:
		switch attr {
		case AttrMode:
			return append([]string(nil), a1Modes...)
		case AttrFanSpeed:
			return a1FanSpeeds.labels()
		case AttrWaterLevelSet:
			return append([]string(nil), a1WaterLevels...)
		}
	case protocol.TypeAC:
		if attr == AttrFreshAirMode {
			return acFreshAirSpeeds.labels()
		}
	case protocol.TypeCE:
		if attr == AttrMode {
			return append([]string(nil), ceModes...)
		}
	}
	return nil
}
