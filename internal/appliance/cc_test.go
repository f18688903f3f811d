package appliance

import (
	"testing"

	"midea-bridge/internal/protocol"
)

func TestCCFanSpeedTableSelection(t *testing.T) {
	tests := []struct {
		name  string
		level any
		code  int
		want  any
	}{
		{"seven level", 0, 0x08, "Level 4"},
		{"seven level auto", 0, 0x80, "Auto"},
		{"three level", 1, 0x08, "Medium"},
		{"three level unknown bit", 1, 0x02, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a, _ := newTestAppliance(t, protocol.TypeCC)
			report := a.Decode(notify(protocol.TypeCC, 0, map[string]any{
				AttrFanSpeedLevel: tt.level,
				AttrFanSpeed:      tt.code,
			}))
			if got := report[AttrFanSpeed]; got != tt.want {
				t.Errorf("fan code 0x%02X = %v, want %v", tt.code, got, tt.want)
			}
		})
	}
}

func TestCCFanSpeedHeldBackWithoutLevel(t *testing.T) {
	a, _ := newTestAppliance(t, protocol.TypeCC)
	report := a.Decode(notify(protocol.TypeCC, 0, map[string]any{AttrFanSpeed: 0x08}))
	if _, ok := report[AttrFanSpeed]; ok {
		t.Error("fan speed reported before the speed level capability is known")
	}
	if a.(*ccDevice).FanModes() != nil {
		t.Error("fan modes resolved before the speed level capability is known")
	}
}

func TestCCFanSpeedTableSticky(t *testing.T) {
	a, _ := newTestAppliance(t, protocol.TypeCC)
	a.Decode(notify(protocol.TypeCC, 0, map[string]any{
		AttrFanSpeedLevel: 1,
		AttrFanSpeed:      0x08,
	}))
	// A later contradictory level does not flip the chosen table.
	report := a.Decode(notify(protocol.TypeCC, 0, map[string]any{
		AttrFanSpeedLevel: 0,
		AttrFanSpeed:      0x40,
	}))
	if got := report[AttrFanSpeed]; got != "High" {
		t.Errorf("fan speed = %v, want High from the three-level table", got)
	}
}

func TestCCDerivedAuxHeating(t *testing.T) {
	a, _ := newTestAppliance(t, protocol.TypeCC)

	report := a.Decode(notify(protocol.TypeCC, 0, map[string]any{AttrAuxHeatStatus: 1}))
	if got, ok := report[AttrAuxHeating]; !ok || got != true {
		t.Fatalf("aux_heating = %v (present %v), want true", got, ok)
	}

	// No change: not re-reported.
	report = a.Decode(notify(protocol.TypeCC, 0, map[string]any{AttrAuxHeatStatus: 1}))
	if _, ok := report[AttrAuxHeating]; ok {
		t.Error("aux_heating re-reported without a change")
	}

	report = a.Decode(notify(protocol.TypeCC, 0, map[string]any{AttrAuxHeatStatus: 0}))
	if got, ok := report[AttrAuxHeating]; !ok || got != false {
		t.Fatalf("aux_heating = %v (present %v), want false", got, ok)
	}

	// The automatic heater run also raises the composite flag.
	report = a.Decode(notify(protocol.TypeCC, 0, map[string]any{AttrAutoAuxHeatRunning: true}))
	if got, ok := report[AttrAuxHeating]; !ok || got != true {
		t.Fatalf("aux_heating = %v (present %v), want true", got, ok)
	}
}

func TestCCSensorsRejectSet(t *testing.T) {
	for _, attr := range ccSensors {
		a, host := newTestAppliance(t, protocol.TypeCC)
		if err := a.SetAttribute(attr, 25); err != nil {
			t.Fatal(err)
		}
		if len(host.sent) != 0 {
			t.Errorf("set of sensor %q transmitted a command", attr)
		}
	}
}

func TestCCSetModeImpliesPower(t *testing.T) {
	a, host := newTestAppliance(t, protocol.TypeCC)
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

func TestCCEcoSleepExclusive(t *testing.T) {
	a, host := newTestAppliance(t, protocol.TypeCC)
	a.Decode(notify(protocol.TypeCC, 0, map[string]any{AttrSleepMode: true}))

	if err := a.SetAttribute(AttrEcoMode, true); err != nil {
		t.Fatal(err)
	}
	msg := host.lastSent(t)
	if got := msg.Get(AttrEcoMode); got != true {
		t.Errorf("eco_mode = %v, want true", got)
	}
	if got := msg.Get(AttrSleepMode); got != false {
		t.Errorf("sleep_mode = %v, want false", got)
	}

	// Turning eco off leaves sleep alone.
	if err := a.SetAttribute(AttrEcoMode, false); err != nil {
		t.Fatal(err)
	}
	msg = host.lastSent(t)
	if got := msg.Get(AttrSleepMode); got != true {
		t.Errorf("sleep_mode = %v, want true", got)
	}
}

func TestCCSetAuxHeatingCode(t *testing.T) {
	a, host := newTestAppliance(t, protocol.TypeCC)
	if err := a.SetAttribute(AttrAuxHeating, true); err != nil {
		t.Fatal(err)
	}
	if got := host.lastSent(t).Get(AttrAuxHeatStatus); got != 1 {
		t.Errorf("aux_heat_status = %v, want 1", got)
	}
	if err := a.SetAttribute(AttrAuxHeating, false); err != nil {
		t.Fatal(err)
	}
	if got := host.lastSent(t).Get(AttrAuxHeatStatus); got != 2 {
		t.Errorf("aux_heat_status = %v, want 2", got)
	}
}

func TestCCSetFanSpeedBeforeTableKnown(t *testing.T) {
	a, host := newTestAppliance(t, protocol.TypeCC)
	if err := a.SetAttribute(AttrFanSpeed, "High"); err != nil {
		t.Fatal(err)
	}
	// Command still goes out but without a fan speed field to mistranslate.
	if host.lastSent(t).Has(AttrFanSpeed) {
		t.Error("fan speed encoded before the table is known")
	}
}

func TestCCSetTargetTemperature(t *testing.T) {
	a, host := newTestAppliance(t, protocol.TypeCC)
	cc := a.(*ccDevice)

	if err := cc.SetTargetTemperature(22.5, 0, false); err != nil {
		t.Fatal(err)
	}
	msg := host.lastSent(t)
	if got := msg.Get(AttrTargetTemperature); got != 22.5 {
		t.Errorf("target = %v, want 22.5", got)
	}
	if got := msg.Get(AttrPower); got != false {
		t.Errorf("power = %v, want unchanged false", got)
	}

	if err := cc.SetTargetTemperature(20, 4, true); err != nil {
		t.Fatal(err)
	}
	msg = host.lastSent(t)
	if got := msg.Get(AttrMode); got != 4 {
		t.Errorf("mode = %v, want 4", got)
	}
	if got := msg.Get(AttrPower); got != true {
		t.Errorf("power = %v, want true", got)
	}
}
