package appliance

import (
	"encoding/json"
	"log/slog"

	"midea-bridge/internal/protocol"
)

// Fresh air system (type 0xCE). The preset mode is never transmitted: it is
// derived from the sleep/eco flags on decode and mapped back to them on set.

var ceModes = []string{"Normal", "Sleep mode", "ECO mode"}

const ceDefaultSpeedCount = 7

type ceDevice struct {
	device
	speedCount int
}

func newCE(host Host, logger *slog.Logger) Appliance {
	return &ceDevice{
		device: device{
			deviceType: protocol.TypeCE,
			host:       host,
			logger:     logger,
			attrs: newDeviceState([]attrDef{
				{AttrPower, false},
				{AttrMode, nil},
				{AttrChildLock, false},
				{AttrScheduled, false},
				{AttrFanSpeed, 0},
				{AttrPM25, nil},
				{AttrCO2, nil},
				{AttrCurrentHumidity, nil},
				{AttrCurrentTemperature, nil},
				{AttrHCHO, nil},
				{AttrLinkToAC, false},
				{AttrSleepMode, false},
				{AttrEcoMode, false},
				{AttrAuxHeating, nil},
				{AttrPowerfulPurify, false},
				{AttrFilterCleaningReminder, false},
				{AttrFilterChangeReminder, false},
				{AttrErrorCode, 0},
			}),
		},
		speedCount: ceDefaultSpeedCount,
	}
}

// PresetModes returns the selectable preset modes.
func (d *ceDevice) PresetModes() []string {
	out := make([]string, len(ceModes))
	copy(out, ceModes)
	return out
}

// SpeedCount returns the fan speed count, possibly overridden per device.
func (d *ceDevice) SpeedCount() int { return d.speedCount }

func (d *ceDevice) BuildQuery() []*protocol.Message {
	return []*protocol.Message{d.newMessage(protocol.KindQuery)}
}

func (d *ceDevice) Decode(msg *protocol.Message) map[string]any {
	d.version = msg.Version
	report := make(map[string]any)
	for _, attr := range d.attrs.order {
		if !msg.Has(attr) {
			continue
		}
		d.attrs.set(attr, msg.Get(attr))
		report[attr] = d.attrs.get(attr)
	}
	// Preset mode is derived from the flags and republished every message.
	switch {
	case d.attrs.bool(AttrSleepMode):
		d.attrs.set(AttrMode, "Sleep mode")
	case d.attrs.bool(AttrEcoMode):
		d.attrs.set(AttrMode, "ECO mode")
	default:
		d.attrs.set(AttrMode, "None")
	}
	report[AttrMode] = d.attrs.get(AttrMode)
	return report
}

func (d *ceDevice) buildSet() *protocol.Message {
	msg := d.newMessage(protocol.KindSet)
	msg.Set(AttrPower, d.attrs.bool(AttrPower))
	msg.Set(AttrFanSpeed, d.attrs.get(AttrFanSpeed))
	msg.Set(AttrLinkToAC, d.attrs.bool(AttrLinkToAC))
	msg.Set(AttrSleepMode, d.attrs.bool(AttrSleepMode))
	msg.Set(AttrEcoMode, d.attrs.bool(AttrEcoMode))
	msg.Set(AttrAuxHeating, truthy(d.attrs.get(AttrAuxHeating)))
	msg.Set(AttrPowerfulPurify, d.attrs.bool(AttrPowerfulPurify))
	msg.Set(AttrScheduled, d.attrs.bool(AttrScheduled))
	msg.Set(AttrChildLock, d.attrs.bool(AttrChildLock))
	return msg
}

func (d *ceDevice) SetAttribute(attr string, value any) error {
	msg := d.buildSet()
	if attr == AttrMode {
		msg.Set(AttrSleepMode, false)
		msg.Set(AttrEcoMode, false)
		switch asString(value) {
		case "Sleep mode":
			msg.Set(AttrSleepMode, true)
		case "ECO mode":
			msg.Set(AttrEcoMode, true)
		}
	} else {
		msg.Set(attr, value)
	}
	return d.host.Transmit(msg)
}

// SetCustomize accepts {"speed_count": N} to override the fan speed count.
func (d *ceDevice) SetCustomize(customize string) {
	d.speedCount = ceDefaultSpeedCount
	if customize == "" {
		return
	}
	var params map[string]any
	if err := json.Unmarshal([]byte(customize), &params); err != nil {
		d.logger.Warn("parse customize", "err", err)
		return
	}
	if n, ok := params["speed_count"]; ok {
		if count, ok := asInt(n); ok {
			d.speedCount = count
		}
	}
	d.host.PublishLocalUpdate("speed_count", d.speedCount)
}
