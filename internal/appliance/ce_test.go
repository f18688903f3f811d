package appliance

import (
	"testing"

	"midea-bridge/internal/protocol"
)

func TestCEDerivedModeAlwaysReported(t *testing.T) {
	a, _ := newTestAppliance(t, protocol.TypeCE)

	// No flag fields in the message: the preset still resolves, to None.
	report := a.Decode(notify(protocol.TypeCE, 0, map[string]any{AttrPower: true}))
	if got := report[AttrMode]; got != "None" {
		t.Errorf("mode = %v, want None", got)
	}

	report = a.Decode(notify(protocol.TypeCE, 0, map[string]any{AttrEcoMode: true}))
	if got := report[AttrMode]; got != "ECO mode" {
		t.Errorf("mode = %v, want ECO mode", got)
	}

	// Sleep wins over eco when both flags are on.
	report = a.Decode(notify(protocol.TypeCE, 0, map[string]any{AttrSleepMode: true}))
	if got := report[AttrMode]; got != "Sleep mode" {
		t.Errorf("mode = %v, want Sleep mode", got)
	}

	report = a.Decode(notify(protocol.TypeCE, 0, map[string]any{AttrSleepMode: false, AttrEcoMode: false}))
	if got := report[AttrMode]; got != "None" {
		t.Errorf("mode = %v, want None", got)
	}
}

func TestCESetModeMapsToFlags(t *testing.T) {
	tests := []struct {
		mode  string
		sleep bool
		eco   bool
	}{
		{"Sleep mode", true, false},
		{"ECO mode", false, true},
		{"Normal", false, false},
	}
	for _, tt := range tests {
		a, host := newTestAppliance(t, protocol.TypeCE)
		// Start from eco on so the reset is observable.
		a.Decode(notify(protocol.TypeCE, 0, map[string]any{AttrEcoMode: true}))
		if err := a.SetAttribute(AttrMode, tt.mode); err != nil {
			t.Fatal(err)
		}
		msg := host.lastSent(t)
		if got := msg.Get(AttrSleepMode); got != tt.sleep {
			t.Errorf("%s: sleep_mode = %v, want %v", tt.mode, got, tt.sleep)
		}
		if got := msg.Get(AttrEcoMode); got != tt.eco {
			t.Errorf("%s: eco_mode = %v, want %v", tt.mode, got, tt.eco)
		}
	}
}

func TestCESetPassthrough(t *testing.T) {
	a, host := newTestAppliance(t, protocol.TypeCE)
	if err := a.SetAttribute(AttrFanSpeed, 4); err != nil {
		t.Fatal(err)
	}
	msg := host.lastSent(t)
	if msg.Kind != protocol.KindSet {
		t.Errorf("kind = 0x%02X, want set", msg.Kind)
	}
	if got := msg.Get(AttrFanSpeed); got != 4 {
		t.Errorf("fan_speed = %v, want 4", got)
	}
	// The full command carries the rest of the state too.
	if !msg.Has(AttrPower) || !msg.Has(AttrChildLock) {
		t.Error("command missing snapshot fields")
	}
}

func TestCESpeedCountCustomize(t *testing.T) {
	host := newFakeHost()
	a, err := New(protocol.TypeCE, host, testLogger(), `{"speed_count": 3}`)
	if err != nil {
		t.Fatal(err)
	}
	ce := a.(*ceDevice)
	if ce.SpeedCount() != 3 {
		t.Errorf("speed count = %d, want 3", ce.SpeedCount())
	}
	if got := host.local["speed_count"]; got != 3 {
		t.Errorf("local update = %v, want 3", got)
	}

	// Garbage resets to the default.
	ce.SetCustomize("{bad json")
	if ce.SpeedCount() != ceDefaultSpeedCount {
		t.Errorf("speed count = %d, want default %d", ce.SpeedCount(), ceDefaultSpeedCount)
	}
}

func TestCEPresetModes(t *testing.T) {
	a, _ := newTestAppliance(t, protocol.TypeCE)
	modes := a.(*ceDevice).PresetModes()
	if len(modes) != 3 || modes[0] != "Normal" || modes[2] != "ECO mode" {
		t.Errorf("preset modes = %v", modes)
	}
}
