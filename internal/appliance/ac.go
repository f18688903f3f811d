package appliance

import (
	"encoding/json"
	"log/slog"

	"midea-bridge/internal/protocol"
)

// Air conditioner (type 0xAC). The most capable variant: besides the general
// command set it speaks the new-protocol property extension (indirect wind,
// breezeless, fresh air, alternate display) and the BB subprotocol used by
// some wall units.

// acFreshAirSpeeds maps fresh air fan thresholds to mode labels; declaration
// order drives the threshold scan on decode.
var acFreshAirSpeeds = codeTable{
	{0, "Off"},
	{20, "Silent"},
	{40, "Low"},
	{60, "Medium"},
	{80, "High"},
	{100, "Full"},
}

// acSensors are reported attributes that never accept a set request.
var acSensors = []string{
	AttrIndoorTemperature,
	AttrOutdoorTemperature,
	AttrIndoorHumidity,
	AttrFullDust,
	AttrTotalEnergyConsumption,
	AttrCurrentEnergyConsumption,
	AttrRealtimePower,
}

// acExclusiveModes reset each other when one is enabled.
var acExclusiveModes = []string{
	AttrBoostMode,
	AttrSleepMode,
	AttrFrostProtect,
	AttrComfortMode,
	AttrEcoMode,
}

const (
	defaultTemperatureStep = 0.5

	// Energy meter digit codings. Most units report BCD digits; some newer
	// firmware reports plain binary hundredths.
	powerAnalysisBCD    = 1
	powerAnalysisBinary = 2

	defaultPowerAnalysisMethod = powerAnalysisBCD
)

type acDevice struct {
	device
	freshAirVersion     string // AttrFreshAir1 or AttrFreshAir2 once detected
	usedSubprotocol     bool
	sn8Flag             bool
	subprotocolTimer    bool
	temperatureStep     float64
	powerAnalysisMethod int
}

func newAC(host Host, logger *slog.Logger) Appliance {
	return &acDevice{
		device: device{
			deviceType: protocol.TypeAC,
			host:       host,
			logger:     logger,
			attrs: newDeviceState([]attrDef{
				{AttrPromptTone, true},
				{AttrPower, false},
				{AttrMode, 0},
				{AttrTargetTemperature, 24.0},
				{AttrFanSpeed, 102},
				{AttrSwingVertical, false},
				{AttrSwingHorizontal, false},
				{AttrSmartEye, false},
				{AttrDry, false},
				{AttrAuxHeating, false},
				{AttrBoostMode, false},
				{AttrSleepMode, false},
				{AttrFrostProtect, false},
				{AttrComfortMode, false},
				{AttrEcoMode, false},
				{AttrNaturalWind, false},
				{AttrTempFahrenheit, false},
				{AttrScreenDisplay, false},
				{AttrScreenDisplayAlternate, false},
				{AttrFullDust, false},
				{AttrIndoorTemperature, nil},
				{AttrOutdoorTemperature, nil},
				{AttrIndirectWind, false},
				{AttrIndoorHumidity, nil},
				{AttrBreezeless, false},
				{AttrTotalEnergyConsumption, nil},
				{AttrCurrentEnergyConsumption, nil},
				{AttrRealtimePower, nil},
				{AttrFreshAirPower, false},
				{AttrFreshAirFanSpeed, 0},
				{AttrFreshAirMode, nil},
				{AttrFreshAir1, nil},
				{AttrFreshAir2, nil},
			}),
		},
		temperatureStep:     defaultTemperatureStep,
		powerAnalysisMethod: defaultPowerAnalysisMethod,
	}
}

// TemperatureStep returns the setpoint granularity, possibly overridden per
// device.
func (d *acDevice) TemperatureStep() float64 { return d.temperatureStep }

// FreshAirModes returns the selectable fresh air mode labels.
func (d *acDevice) FreshAirModes() []string { return acFreshAirSpeeds.labels() }

func (d *acDevice) BuildQuery() []*protocol.Message {
	if d.usedSubprotocol {
		return []*protocol.Message{
			d.subprotocolQuery(0x10),
			d.subprotocolQuery(0x11),
			d.subprotocolQuery(0x30),
		}
	}
	return []*protocol.Message{
		d.newMessage(protocol.KindQuery),
		protocol.NewFormMessage(d.deviceType, protocol.KindQuery, protocol.FormNewProtocol, d.version),
		protocol.NewFormMessage(d.deviceType, protocol.KindQuery, protocol.FormPower, d.version),
	}
}

func (d *acDevice) subprotocolQuery(dataType int) *protocol.Message {
	msg := protocol.NewFormMessage(d.deviceType, protocol.KindQuery, protocol.FormSubprotocol, d.version)
	msg.Set("data_type", dataType)
	return msg
}

func (d *acDevice) Decode(msg *protocol.Message) map[string]any {
	d.version = msg.Version
	report := make(map[string]any)

	if msg.Has("used_subprotocol") {
		d.usedSubprotocol = true
		if msg.Has("sn8_flag") {
			d.sn8Flag = truthy(msg.Get("sn8_flag"))
		}
		if msg.Has("timer") {
			d.subprotocolTimer = truthy(msg.Get("timer"))
		}
	}

	hasFreshAir := false
	for _, attr := range d.attrs.order {
		if !msg.Has(attr) {
			continue
		}
		if attr == AttrFreshAirPower {
			hasFreshAir = true
		}
		switch attr {
		case AttrTotalEnergyConsumption, AttrCurrentEnergyConsumption:
			d.attrs.set(attr, d.parseConsumption(msg.Get(attr)))
		case AttrRealtimePower:
			d.attrs.set(attr, d.parsePower(msg.Get(attr)))
		default:
			d.attrs.set(attr, msg.Get(attr))
		}
		report[attr] = d.attrs.get(attr)
	}

	if hasFreshAir {
		if d.attrs.bool(AttrFreshAirPower) {
			speed := asInt1(d.attrs.get(AttrFreshAirFanSpeed))
			for _, e := range acFreshAirSpeeds {
				if speed < e.code {
					break
				}
				d.attrs.set(AttrFreshAirMode, e.label)
			}
		} else {
			d.attrs.set(AttrFreshAirMode, "Off")
		}
		report[AttrFreshAirMode] = d.attrs.get(AttrFreshAirMode)
	}

	// Indirect wind cannot stay on while the unit is off or the vertical
	// swing is active; the display follows the power state.
	if !d.attrs.bool(AttrPower) || (hasReport(report, AttrSwingVertical) && d.attrs.bool(AttrSwingVertical)) {
		d.attrs.set(AttrIndirectWind, false)
		report[AttrIndirectWind] = false
	}
	if !d.attrs.bool(AttrPower) {
		d.attrs.set(AttrScreenDisplay, false)
		report[AttrScreenDisplay] = false
	}

	if d.attrs.get(AttrFreshAir1) != nil {
		d.freshAirVersion = AttrFreshAir1
	} else if d.attrs.get(AttrFreshAir2) != nil {
		d.freshAirVersion = AttrFreshAir2
	}
	return report
}

func hasReport(report map[string]any, attr string) bool {
	_, ok := report[attr]
	return ok
}

// bcdValue reads a two-digit BCD byte.
func bcdValue(b byte) int {
	return int(b>>4)*10 + int(b&0x0F)
}

// parseConsumption interprets a raw 4-byte energy counter as kWh.
func (d *acDevice) parseConsumption(value any) float64 {
	raw, ok := asInt(value)
	if !ok {
		return 0
	}
	if d.powerAnalysisMethod == powerAnalysisBinary {
		return float64(uint32(raw)) / 100
	}
	return float64(bcdValue(byte(raw>>24)))*10000 +
		float64(bcdValue(byte(raw>>16)))*100 +
		float64(bcdValue(byte(raw>>8))) +
		float64(bcdValue(byte(raw)))/100
}

// parsePower interprets a raw power reading as watts. The meter uses three
// bytes; the top byte of the slot is reserved.
func (d *acDevice) parsePower(value any) float64 {
	raw, ok := asInt(value)
	if !ok {
		return 0
	}
	if d.powerAnalysisMethod == powerAnalysisBinary {
		return float64(uint32(raw)) / 100
	}
	return float64(bcdValue(byte(raw>>16)))*1000 +
		float64(bcdValue(byte(raw>>8)))*10 +
		float64(bcdValue(byte(raw)))/10
}

func (d *acDevice) buildGeneralSet() *protocol.Message {
	msg := d.newMessage(protocol.KindSet)
	msg.Set(AttrPower, d.attrs.bool(AttrPower))
	msg.Set(AttrPromptTone, d.attrs.bool(AttrPromptTone))
	msg.Set(AttrMode, d.attrs.get(AttrMode))
	msg.Set(AttrTargetTemperature, d.attrs.get(AttrTargetTemperature))
	msg.Set(AttrFanSpeed, d.attrs.get(AttrFanSpeed))
	msg.Set(AttrSwingVertical, d.attrs.bool(AttrSwingVertical))
	msg.Set(AttrSwingHorizontal, d.attrs.bool(AttrSwingHorizontal))
	msg.Set(AttrBoostMode, d.attrs.bool(AttrBoostMode))
	msg.Set(AttrSmartEye, d.attrs.bool(AttrSmartEye))
	msg.Set(AttrDry, d.attrs.bool(AttrDry))
	msg.Set(AttrEcoMode, d.attrs.bool(AttrEcoMode))
	msg.Set(AttrAuxHeating, d.attrs.bool(AttrAuxHeating))
	msg.Set(AttrSleepMode, d.attrs.bool(AttrSleepMode))
	msg.Set(AttrNaturalWind, d.attrs.bool(AttrNaturalWind))
	msg.Set(AttrTempFahrenheit, d.attrs.bool(AttrTempFahrenheit))
	msg.Set(AttrFrostProtect, d.attrs.bool(AttrFrostProtect))
	msg.Set(AttrComfortMode, d.attrs.bool(AttrComfortMode))
	return msg
}

func (d *acDevice) buildSubprotocolSet() *protocol.Message {
	msg := protocol.NewFormMessage(d.deviceType, protocol.KindSet, protocol.FormSubprotocol, d.version)
	msg.Set(AttrPower, d.attrs.bool(AttrPower))
	msg.Set(AttrPromptTone, d.attrs.bool(AttrPromptTone))
	msg.Set(AttrAuxHeating, d.attrs.bool(AttrAuxHeating))
	msg.Set(AttrMode, d.attrs.get(AttrMode))
	msg.Set(AttrTargetTemperature, d.attrs.get(AttrTargetTemperature))
	msg.Set(AttrFanSpeed, d.attrs.get(AttrFanSpeed))
	msg.Set(AttrBoostMode, d.attrs.bool(AttrBoostMode))
	msg.Set(AttrDry, d.attrs.bool(AttrDry))
	msg.Set(AttrEcoMode, d.attrs.bool(AttrEcoMode))
	msg.Set(AttrSleepMode, d.attrs.bool(AttrSleepMode))
	msg.Set("sn8_flag", d.sn8Flag)
	msg.Set("timer", d.subprotocolTimer)
	return msg
}

// buildSet picks the command set the unit actually speaks.
func (d *acDevice) buildSet() *protocol.Message {
	if d.usedSubprotocol {
		return d.buildSubprotocolSet()
	}
	return d.buildGeneralSet()
}

func (d *acDevice) newProtocolSet() *protocol.Message {
	return protocol.NewFormMessage(d.deviceType, protocol.KindSet, protocol.FormNewProtocol, d.version)
}

func (d *acDevice) SetAttribute(attr string, value any) error {
	if contains(acSensors, attr) {
		return nil
	}

	var msg *protocol.Message
	switch {
	case attr == AttrPromptTone:
		// Acknowledged locally, never transmitted.
		d.attrs.set(AttrPromptTone, truthy(value))
		d.host.PublishLocalUpdate(AttrPromptTone, d.attrs.get(AttrPromptTone))
		return nil

	case attr == AttrScreenDisplay:
		msg = protocol.NewFormMessage(d.deviceType, protocol.KindSet, protocol.FormToggleDisplay, d.version)
		msg.Set(AttrPromptTone, d.attrs.bool(AttrPromptTone))

	case attr == AttrIndirectWind || attr == AttrBreezeless || attr == AttrScreenDisplayAlternate:
		msg = d.newProtocolSet()
		msg.Set(attr, value)
		msg.Set(AttrPromptTone, d.attrs.bool(AttrPromptTone))

	case attr == AttrFreshAirPower:
		if d.freshAirVersion == "" {
			return nil
		}
		msg = d.newProtocolSet()
		msg.Set(d.freshAirVersion, protocol.FreshAir{
			Power: truthy(value),
			Speed: asInt1(d.attrs.get(AttrFreshAirFanSpeed)),
		})

	case attr == AttrFreshAirMode:
		if d.freshAirVersion == "" {
			return nil
		}
		if code, ok := acFreshAirSpeeds.code(asString(value)); ok {
			fa := protocol.FreshAir{Power: true, Speed: code}
			if code == 0 {
				fa = protocol.FreshAir{Power: false, Speed: asInt1(d.attrs.get(AttrFreshAirFanSpeed))}
			}
			msg = d.newProtocolSet()
			msg.Set(d.freshAirVersion, fa)
		} else if !truthy(value) {
			msg = d.newProtocolSet()
			msg.Set(d.freshAirVersion, protocol.FreshAir{
				Power: false,
				Speed: asInt1(d.attrs.get(AttrFreshAirFanSpeed)),
			})
		}

	case attr == AttrFreshAirFanSpeed:
		if d.freshAirVersion == "" {
			return nil
		}
		speed := asInt1(value)
		fa := protocol.FreshAir{Power: true, Speed: speed}
		if speed <= 0 {
			fa = protocol.FreshAir{Power: false, Speed: asInt1(d.attrs.get(AttrFreshAirFanSpeed))}
		}
		msg = d.newProtocolSet()
		msg.Set(d.freshAirVersion, fa)

	case d.attrs.has(attr):
		msg = d.buildSet()
		if contains(acExclusiveModes, attr) {
			msg.Set(AttrBoostMode, false)
			msg.Set(AttrSleepMode, false)
			msg.Set(AttrEcoMode, false)
			if msg.Form != protocol.FormSubprotocol {
				msg.Set(AttrComfortMode, false)
				msg.Set(AttrFrostProtect, false)
			}
		}
		msg.Set(attr, value)
		if attr == AttrMode {
			msg.Set(AttrPower, true)
		}
	}

	if msg == nil {
		return nil
	}
	return d.host.Transmit(msg)
}

// SetTargetTemperature sets the setpoint, optionally switching mode and
// powering the unit on in the same command.
func (d *acDevice) SetTargetTemperature(target float64, mode int, hasMode bool) error {
	msg := d.buildSet()
	msg.Set(AttrTargetTemperature, target)
	if hasMode {
		msg.Set(AttrPower, true)
		msg.Set(AttrMode, mode)
	}
	return d.host.Transmit(msg)
}

// SetSwing sets both swing axes. The subprotocol command set has no swing
// fields, so on those units the command carries the rest of the state only.
func (d *acDevice) SetSwing(vertical, horizontal bool) error {
	msg := d.buildSet()
	if msg.Form == protocol.FormGeneral {
		msg.Set(AttrSwingVertical, vertical)
		msg.Set(AttrSwingHorizontal, horizontal)
	}
	return d.host.Transmit(msg)
}

// SetCustomize accepts {"temperature_step": F} to override the setpoint
// granularity and {"power_analysis_method": N} to pick the energy meter's
// digit coding.
func (d *acDevice) SetCustomize(customize string) {
	d.temperatureStep = defaultTemperatureStep
	d.powerAnalysisMethod = defaultPowerAnalysisMethod
	if customize == "" {
		return
	}
	var params map[string]any
	if err := json.Unmarshal([]byte(customize), &params); err != nil {
		d.logger.Warn("parse customize", "err", err)
		return
	}
	if v, ok := params["temperature_step"]; ok {
		if step, ok := toStepValue(v); ok {
			d.temperatureStep = step
		}
	}
	if v, ok := params["power_analysis_method"]; ok {
		if method, ok := asInt(v); ok &&
			(method == powerAnalysisBCD || method == powerAnalysisBinary) {
			d.powerAnalysisMethod = method
		}
	}
	d.host.PublishLocalUpdate("temperature_step", d.temperatureStep)
}

func toStepValue(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case int:
		return float64(n), true
	default:
		return 0, false
	}
}
