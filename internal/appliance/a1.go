package appliance

import (
	"log/slog"
	"strconv"

	"midea-bridge/internal/protocol"
)

// Dehumidifier (type 0xA1).

var a1Modes = ordinalTable{
	"Manual",
	"Continuous",
	"Auto",
	"Clothes-Dry",
	"Shoes-Dry",
}

var a1FanSpeeds = codeTable{
	{1, "Lowest"},
	{40, "Low"},
	{60, "Medium"},
	{80, "High"},
	{102, "Auto"},
	{127, "Off"},
}

var a1WaterLevels = []string{"25", "50", "75", "100"}

// a1FanSpeedFallback encodes an unset fan speed.
const a1FanSpeedFallback = 40

type a1Device struct {
	device
}

func newA1(host Host, logger *slog.Logger) Appliance {
	return &a1Device{device{
		deviceType: protocol.TypeA1,
		host:       host,
		logger:     logger,
		attrs: newDeviceState([]attrDef{
			{AttrPower, false},
			{AttrPromptTone, true},
			{AttrChildLock, false},
			{AttrMode, nil},
			{AttrFanSpeed, "Medium"},
			{AttrSwing, false},
			{AttrTargetHumidity, 35},
			{AttrAnion, false},
			{AttrTank, 0},
			{AttrWaterLevelSet, "50"},
			{AttrTankFull, nil},
			{AttrCurrentHumidity, nil},
			{AttrCurrentTemperature, nil},
		}),
	}}
}

func (d *a1Device) BuildQuery() []*protocol.Message {
	return []*protocol.Message{d.newMessage(protocol.KindQuery)}
}

func (d *a1Device) Decode(msg *protocol.Message) map[string]any {
	d.version = msg.Version
	report := make(map[string]any)
	for _, attr := range d.attrs.order {
		if !msg.Has(attr) {
			continue
		}
		value := msg.Get(attr)
		switch attr {
		case AttrMode:
			if code, ok := asInt(value); ok {
				if label, ok := a1Modes.label(code); ok {
					d.attrs.set(attr, label)
				} else {
					d.attrs.set(attr, nil)
				}
			} else {
				d.attrs.set(attr, nil)
			}
		case AttrFanSpeed:
			code, _ := asInt(value)
			if label, ok := a1FanSpeeds.label(code); ok {
				d.attrs.set(attr, label)
			} else {
				d.attrs.set(attr, nil)
			}
		case AttrWaterLevelSet:
			d.attrs.set(attr, asString(value))
		default:
			d.attrs.set(attr, value)
		}
		// The tank-full flag is recomputed after every processed field, not
		// only when its own sources change, so it never lags more than one
		// field behind within a single pass.
		if changed, full := d.recomputeTankFull(); changed {
			report[AttrTankFull] = full
		}
		report[attr] = d.attrs.get(attr)
	}
	return report
}

// recomputeTankFull derives tank_full from the current tank reading and the
// configured water level. An empty tank is never full, whatever the level.
func (d *a1Device) recomputeTankFull() (changed, full bool) {
	tank, _ := asInt(d.attrs.get(AttrTank))
	waterLevel, _ := strconv.Atoi(asString(d.attrs.get(AttrWaterLevelSet)))
	full = tank > 0 && tank >= waterLevel

	prev := d.attrs.get(AttrTankFull)
	if prev == nil || prev.(bool) != full {
		d.attrs.set(AttrTankFull, full)
		return true, full
	}
	return false, full
}

// buildSet populates a full command message from current state, substituting
// fallback codes for unset or unrecognized labels.
func (d *a1Device) buildSet() *protocol.Message {
	msg := d.newMessage(protocol.KindSet)
	msg.Set(AttrPower, d.attrs.bool(AttrPower))
	msg.Set(AttrPromptTone, d.attrs.bool(AttrPromptTone))
	msg.Set(AttrChildLock, d.attrs.bool(AttrChildLock))
	if code, ok := a1Modes.code(asString(d.attrs.get(AttrMode))); ok {
		msg.Set(AttrMode, code)
	} else {
		msg.Set(AttrMode, 1)
	}
	if code, ok := a1FanSpeeds.code(asString(d.attrs.get(AttrFanSpeed))); ok {
		msg.Set(AttrFanSpeed, code)
	} else {
		msg.Set(AttrFanSpeed, a1FanSpeedFallback)
	}
	msg.Set(AttrTargetHumidity, d.attrs.get(AttrTargetHumidity))
	msg.Set(AttrSwing, d.attrs.bool(AttrSwing))
	msg.Set(AttrAnion, d.attrs.bool(AttrAnion))
	level, _ := strconv.Atoi(asString(d.attrs.get(AttrWaterLevelSet)))
	msg.Set(AttrWaterLevelSet, level)
	return msg
}

func (d *a1Device) SetAttribute(attr string, value any) error {
	// The prompt tone is acknowledged locally; it never reaches the device.
	if attr == AttrPromptTone {
		d.attrs.set(AttrPromptTone, truthy(value))
		d.host.PublishLocalUpdate(AttrPromptTone, d.attrs.get(AttrPromptTone))
		return nil
	}
	msg := d.buildSet()
	switch attr {
	case AttrMode:
		if code, ok := a1Modes.code(asString(value)); ok {
			msg.Set(AttrMode, code)
		}
	case AttrFanSpeed:
		if code, ok := a1FanSpeeds.code(asString(value)); ok {
			msg.Set(AttrFanSpeed, code)
		}
	case AttrWaterLevelSet:
		if s := asString(value); contains(a1WaterLevels, s) {
			level, _ := strconv.Atoi(s)
			msg.Set(AttrWaterLevelSet, level)
		}
	default:
		msg.Set(attr, value)
	}
	return d.host.Transmit(msg)
}
