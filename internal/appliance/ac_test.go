package appliance

import (
	"testing"

	"midea-bridge/internal/protocol"
)

func TestACFreshAirModeThreshold(t *testing.T) {
	tests := []struct {
		power bool
		speed int
		want  string
	}{
		{true, 0, "Off"},
		{true, 19, "Off"},
		{true, 20, "Silent"},
		{true, 50, "Low"},
		{true, 79, "Medium"},
		{true, 80, "High"},
		{true, 100, "Full"},
		{true, 120, "Full"},
		{false, 80, "Off"},
	}
	for _, tt := range tests {
		a, _ := newTestAppliance(t, protocol.TypeAC)
		report := a.Decode(notify(protocol.TypeAC, 0, map[string]any{
			AttrFreshAirPower:    tt.power,
			AttrFreshAirFanSpeed: tt.speed,
		}))
		if got := report[AttrFreshAirMode]; got != tt.want {
			t.Errorf("power=%v speed=%d: fresh_air_mode = %v, want %q", tt.power, tt.speed, got, tt.want)
		}
	}
}

func TestACFreshAirModeAbsentWithoutPowerField(t *testing.T) {
	a, _ := newTestAppliance(t, protocol.TypeAC)
	report := a.Decode(notify(protocol.TypeAC, 0, map[string]any{AttrFreshAirFanSpeed: 60}))
	if _, ok := report[AttrFreshAirMode]; ok {
		t.Error("fresh_air_mode derived without a fresh_air_power field")
	}
}

func TestACIndirectWindForcedOff(t *testing.T) {
	// Powered off: the claim cannot hold.
	a, _ := newTestAppliance(t, protocol.TypeAC)
	report := a.Decode(notify(protocol.TypeAC, 0, map[string]any{
		AttrPower:        false,
		AttrIndirectWind: true,
	}))
	if got := report[AttrIndirectWind]; got != false {
		t.Errorf("indirect_wind = %v, want forced false while off", got)
	}
	if got := report[AttrScreenDisplay]; got != false {
		t.Errorf("screen_display = %v, want forced false while off", got)
	}

	// Vertical swing active in the same report overrides it too.
	b, _ := newTestAppliance(t, protocol.TypeAC)
	report = b.Decode(notify(protocol.TypeAC, 0, map[string]any{
		AttrPower:         true,
		AttrSwingVertical: true,
		AttrIndirectWind:  true,
	}))
	if got := report[AttrIndirectWind]; got != false {
		t.Errorf("indirect_wind = %v, want forced false under vertical swing", got)
	}

	// Powered on without swing: the claim stands.
	c, _ := newTestAppliance(t, protocol.TypeAC)
	report = c.Decode(notify(protocol.TypeAC, 0, map[string]any{
		AttrPower:        true,
		AttrIndirectWind: true,
	}))
	if got := report[AttrIndirectWind]; got != true {
		t.Errorf("indirect_wind = %v, want true", got)
	}
}

func TestACPromptToneLocalEcho(t *testing.T) {
	a, host := newTestAppliance(t, protocol.TypeAC)
	if err := a.SetAttribute(AttrPromptTone, false); err != nil {
		t.Fatal(err)
	}
	if len(host.sent) != 0 {
		t.Fatal("prompt tone set produced a transmitted message")
	}
	if got, ok := host.local[AttrPromptTone]; !ok || got != false {
		t.Errorf("local update = %v (present %v), want false", got, ok)
	}
}

func TestACScreenDisplayToggle(t *testing.T) {
	a, host := newTestAppliance(t, protocol.TypeAC)
	if err := a.SetAttribute(AttrScreenDisplay, true); err != nil {
		t.Fatal(err)
	}
	msg := host.lastSent(t)
	if msg.Form != protocol.FormToggleDisplay {
		t.Errorf("form = 0x%02X, want toggle display", msg.Form)
	}
	if got := msg.Get(AttrPromptTone); got != true {
		t.Errorf("prompt_tone = %v, want current state true", got)
	}
}

func TestACNewProtocolSet(t *testing.T) {
	for _, attr := range []string{AttrIndirectWind, AttrBreezeless, AttrScreenDisplayAlternate} {
		a, host := newTestAppliance(t, protocol.TypeAC)
		if err := a.SetAttribute(attr, true); err != nil {
			t.Fatal(err)
		}
		msg := host.lastSent(t)
		if msg.Form != protocol.FormNewProtocol {
			t.Errorf("%s: form = 0x%02X, want new protocol", attr, msg.Form)
		}
		if got := msg.Get(attr); got != true {
			t.Errorf("%s = %v, want true", attr, got)
		}
		if !msg.Has(AttrPromptTone) {
			t.Errorf("%s: command missing prompt tone", attr)
		}
	}
}

func TestACFreshAirSetRequiresDetectedVersion(t *testing.T) {
	a, host := newTestAppliance(t, protocol.TypeAC)
	if err := a.SetAttribute(AttrFreshAirPower, true); err != nil {
		t.Fatal(err)
	}
	if len(host.sent) != 0 {
		t.Fatal("fresh air command sent before version detection")
	}

	// A report carrying fresh_air_1 pins the version.
	a.Decode(notify(protocol.TypeAC, 0, map[string]any{AttrFreshAir1: 1}))
	if err := a.SetAttribute(AttrFreshAirPower, true); err != nil {
		t.Fatal(err)
	}
	msg := host.lastSent(t)
	if msg.Form != protocol.FormNewProtocol {
		t.Errorf("form = 0x%02X, want new protocol", msg.Form)
	}
	fa, ok := msg.Get(AttrFreshAir1).(protocol.FreshAir)
	if !ok || !fa.Power {
		t.Errorf("fresh_air_1 = %v, want powered FreshAir", msg.Get(AttrFreshAir1))
	}
}

func TestACFreshAirModeSet(t *testing.T) {
	a, host := newTestAppliance(t, protocol.TypeAC)
	a.Decode(notify(protocol.TypeAC, 0, map[string]any{AttrFreshAir2: 1}))

	if err := a.SetAttribute(AttrFreshAirMode, "Medium"); err != nil {
		t.Fatal(err)
	}
	fa := host.lastSent(t).Get(AttrFreshAir2).(protocol.FreshAir)
	if !fa.Power || fa.Speed != 60 {
		t.Errorf("fresh air = %+v, want power on at 60", fa)
	}

	// "Off" maps through the zero code to a power-off command that keeps the
	// last known speed.
	a.Decode(notify(protocol.TypeAC, 0, map[string]any{
		AttrFreshAirPower:    true,
		AttrFreshAirFanSpeed: 60,
		AttrFreshAir2:        1,
	}))
	if err := a.SetAttribute(AttrFreshAirMode, "Off"); err != nil {
		t.Fatal(err)
	}
	fa = host.lastSent(t).Get(AttrFreshAir2).(protocol.FreshAir)
	if fa.Power || fa.Speed != 60 {
		t.Errorf("fresh air = %+v, want power off at 60", fa)
	}
}

func TestACExclusiveModes(t *testing.T) {
	a, host := newTestAppliance(t, protocol.TypeAC)
	a.Decode(notify(protocol.TypeAC, 0, map[string]any{
		AttrPower:       true,
		AttrEcoMode:     true,
		AttrComfortMode: true,
	}))

	if err := a.SetAttribute(AttrBoostMode, true); err != nil {
		t.Fatal(err)
	}
	msg := host.lastSent(t)
	if got := msg.Get(AttrBoostMode); got != true {
		t.Errorf("boost_mode = %v, want true", got)
	}
	for _, attr := range []string{AttrEcoMode, AttrSleepMode, AttrComfortMode, AttrFrostProtect} {
		if got := msg.Get(attr); got != false {
			t.Errorf("%s = %v, want cleared", attr, got)
		}
	}
}

func TestACSetModeImpliesPower(t *testing.T) {
	a, host := newTestAppliance(t, protocol.TypeAC)
	if err := a.SetAttribute(AttrMode, 2); err != nil {
		t.Fatal(err)
	}
	msg := host.lastSent(t)
	if got := msg.Get(AttrMode); got != 2 {
		t.Errorf("mode = %v, want 2", got)
	}
	if got := msg.Get(AttrPower); got != true {
		t.Errorf("power = %v, want true", got)
	}
}

func TestACSensorsRejectSet(t *testing.T) {
	for _, attr := range acSensors {
		a, host := newTestAppliance(t, protocol.TypeAC)
		if err := a.SetAttribute(attr, 25); err != nil {
			t.Fatal(err)
		}
		if len(host.sent) != 0 {
			t.Errorf("set of sensor %q transmitted a command", attr)
		}
	}
}

func TestACSubprotocolSwitch(t *testing.T) {
	a, host := newTestAppliance(t, protocol.TypeAC)

	// Before any subprotocol report: the standard three-message query.
	queries := a.BuildQuery()
	if len(queries) != 3 {
		t.Fatalf("queries = %d, want 3", len(queries))
	}
	if queries[0].Form != protocol.FormGeneral ||
		queries[1].Form != protocol.FormNewProtocol ||
		queries[2].Form != protocol.FormPower {
		t.Errorf("query forms = %02X %02X %02X", queries[0].Form, queries[1].Form, queries[2].Form)
	}

	a.Decode(notify(protocol.TypeAC, 0, map[string]any{
		"used_subprotocol": true,
		"sn8_flag":         true,
		AttrPower:          true,
	}))

	queries = a.BuildQuery()
	if len(queries) != 3 {
		t.Fatalf("subprotocol queries = %d, want 3", len(queries))
	}
	wantTypes := []int{0x10, 0x11, 0x30}
	for i, q := range queries {
		if q.Form != protocol.FormSubprotocol {
			t.Errorf("query %d form = 0x%02X, want subprotocol", i, q.Form)
		}
		if got := q.Get("data_type"); got != wantTypes[i] {
			t.Errorf("query %d data_type = %v, want 0x%02X", i, got, wantTypes[i])
		}
	}

	// Commands switch to the subprotocol form and carry the captured flags.
	if err := a.SetAttribute(AttrDry, true); err != nil {
		t.Fatal(err)
	}
	msg := host.lastSent(t)
	if msg.Form != protocol.FormSubprotocol {
		t.Errorf("form = 0x%02X, want subprotocol", msg.Form)
	}
	if got := msg.Get("sn8_flag"); got != true {
		t.Errorf("sn8_flag = %v, want true", got)
	}
}

func TestACSetSwing(t *testing.T) {
	a, host := newTestAppliance(t, protocol.TypeAC)
	ac := a.(*acDevice)
	if err := ac.SetSwing(true, false); err != nil {
		t.Fatal(err)
	}
	msg := host.lastSent(t)
	if got := msg.Get(AttrSwingVertical); got != true {
		t.Errorf("swing_vertical = %v, want true", got)
	}
	if got := msg.Get(AttrSwingHorizontal); got != false {
		t.Errorf("swing_horizontal = %v, want false", got)
	}
}

func TestACTemperatureStepCustomize(t *testing.T) {
	host := newFakeHost()
	a, err := New(protocol.TypeAC, host, testLogger(), `{"temperature_step": 1}`)
	if err != nil {
		t.Fatal(err)
	}
	ac := a.(*acDevice)
	if ac.TemperatureStep() != 1 {
		t.Errorf("step = %v, want 1", ac.TemperatureStep())
	}
	if got := host.local["temperature_step"]; got != 1.0 {
		t.Errorf("local update = %v, want 1", got)
	}

	ac.SetCustomize("")
	if ac.TemperatureStep() != defaultTemperatureStep {
		t.Errorf("step = %v, want default %v", ac.TemperatureStep(), defaultTemperatureStep)
	}
}

func TestACEnergyDecodeBCD(t *testing.T) {
	a, _ := newTestAppliance(t, protocol.TypeAC)
	report := a.Decode(notify(protocol.TypeAC, 0, map[string]any{
		AttrTotalEnergyConsumption: 0x12345678,
		AttrRealtimePower:          0x00123456,
	}))
	if got := report[AttrTotalEnergyConsumption]; got != 123456.78 {
		t.Errorf("total_energy_consumption = %v, want 123456.78", got)
	}
	if got := report[AttrRealtimePower]; got != 12345.6 {
		t.Errorf("realtime_power = %v, want 12345.6", got)
	}
}

func TestACEnergyDecodeBinaryCustomize(t *testing.T) {
	host := newFakeHost()
	a, err := New(protocol.TypeAC, host, testLogger(), `{"power_analysis_method": 2}`)
	if err != nil {
		t.Fatal(err)
	}
	report := a.Decode(notify(protocol.TypeAC, 0, map[string]any{
		AttrTotalEnergyConsumption: 123456,
		AttrRealtimePower:          4321,
	}))
	if got := report[AttrTotalEnergyConsumption]; got != 1234.56 {
		t.Errorf("total_energy_consumption = %v, want 1234.56", got)
	}
	if got := report[AttrRealtimePower]; got != 43.21 {
		t.Errorf("realtime_power = %v, want 43.21", got)
	}
}

func TestACEnergyCustomizeRejectsUnknownMethod(t *testing.T) {
	host := newFakeHost()
	a, err := New(protocol.TypeAC, host, testLogger(), `{"power_analysis_method": 9}`)
	if err != nil {
		t.Fatal(err)
	}
	if got := a.(*acDevice).powerAnalysisMethod; got != defaultPowerAnalysisMethod {
		t.Errorf("method = %d, want default %d", got, defaultPowerAnalysisMethod)
	}
}
