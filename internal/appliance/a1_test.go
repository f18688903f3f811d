package appliance

import (
	"testing"

	"midea-bridge/internal/protocol"
)

func TestA1DecodeModeOrdinal(t *testing.T) {
	tests := []struct {
		code int
		want any
	}{
		{1, "Manual"},
		{3, "Auto"},
		{5, "Shoes-Dry"},
		{0, nil}, // below range, not a wraparound to the last label
		{9, nil},
	}
	for _, tt := range tests {
		a, _ := newTestAppliance(t, protocol.TypeA1)
		report := a.Decode(notify(protocol.TypeA1, 0, map[string]any{AttrMode: tt.code}))
		if got := report[AttrMode]; got != tt.want {
			t.Errorf("mode code %d = %v, want %v", tt.code, got, tt.want)
		}
	}
}

func TestA1DecodeFanSpeedSparse(t *testing.T) {
	tests := []struct {
		code int
		want any
	}{
		{1, "Lowest"},
		{60, "Medium"},
		{127, "Off"},
		{55, nil}, // only exact members resolve
	}
	for _, tt := range tests {
		a, _ := newTestAppliance(t, protocol.TypeA1)
		report := a.Decode(notify(protocol.TypeA1, 0, map[string]any{AttrFanSpeed: tt.code}))
		if got := report[AttrFanSpeed]; got != tt.want {
			t.Errorf("fan speed code %d = %v, want %v", tt.code, got, tt.want)
		}
	}
}

func TestA1DecodeWaterLevelStringified(t *testing.T) {
	a, _ := newTestAppliance(t, protocol.TypeA1)
	report := a.Decode(notify(protocol.TypeA1, 0, map[string]any{AttrWaterLevelSet: 75}))
	if got := report[AttrWaterLevelSet]; got != "75" {
		t.Errorf("water_level_set = %v (%T), want \"75\"", got, got)
	}
}

func TestA1TankFullDerived(t *testing.T) {
	a, _ := newTestAppliance(t, protocol.TypeA1)

	// Tank at 60 with the default configured level "50": full.
	report := a.Decode(notify(protocol.TypeA1, 0, map[string]any{AttrTank: 60}))
	if got, ok := report[AttrTankFull]; !ok || got != true {
		t.Fatalf("tank=60: report tank_full = %v (present %v), want true", got, ok)
	}

	// Device emptied, water level unchanged: reported as changed.
	report = a.Decode(notify(protocol.TypeA1, 0, map[string]any{AttrTank: 0}))
	if got, ok := report[AttrTankFull]; !ok || got != false {
		t.Fatalf("tank=0: report tank_full = %v (present %v), want false", got, ok)
	}

	// Unchanged value is not re-reported...
	report = a.Decode(notify(protocol.TypeA1, 0, map[string]any{AttrTank: 0}))
	if _, ok := report[AttrTankFull]; ok {
		t.Error("tank_full re-reported without a change")
	}
	// ...but the touched source attribute is, snapshot style.
	if got, ok := report[AttrTank]; !ok || got != 0 {
		t.Errorf("tank = %v (present %v), want 0", got, ok)
	}
}

func TestA1TankFullRecomputedOnWaterLevelChange(t *testing.T) {
	a, _ := newTestAppliance(t, protocol.TypeA1)
	a.Decode(notify(protocol.TypeA1, 0, map[string]any{AttrTank: 60}))

	// Raising the configured level above the tank reading empties the flag
	// even though the tank field itself was absent from the message.
	report := a.Decode(notify(protocol.TypeA1, 0, map[string]any{AttrWaterLevelSet: 75}))
	if got, ok := report[AttrTankFull]; !ok || got != false {
		t.Errorf("tank_full = %v (present %v), want false", got, ok)
	}
}

func TestA1DecodeMissingFieldsUntouched(t *testing.T) {
	a, _ := newTestAppliance(t, protocol.TypeA1)
	report := a.Decode(notify(protocol.TypeA1, 0, map[string]any{AttrPower: true}))
	if _, ok := report[AttrMode]; ok {
		t.Error("absent field entered the report")
	}
	if got := a.State()[AttrFanSpeed]; got != "Medium" {
		t.Errorf("fan_speed = %v, want default Medium", got)
	}
}

func TestA1EncodeFallbacks(t *testing.T) {
	a, host := newTestAppliance(t, protocol.TypeA1)

	// Unset mode and an unrecognized fan speed fall back to documented codes.
	a.Decode(notify(protocol.TypeA1, 0, map[string]any{AttrFanSpeed: 55})) // -> nil
	if err := a.SetAttribute(AttrTargetHumidity, 45); err != nil {
		t.Fatal(err)
	}
	msg := host.lastSent(t)
	if got := msg.Get(AttrMode); got != 1 {
		t.Errorf("mode fallback = %v, want 1", got)
	}
	if got := msg.Get(AttrFanSpeed); got != a1FanSpeedFallback {
		t.Errorf("fan speed fallback = %v, want %d", got, a1FanSpeedFallback)
	}
	if got := msg.Get(AttrTargetHumidity); got != 45 {
		t.Errorf("target_humidity = %v, want 45", got)
	}
}

func TestA1SetModeRoundTrip(t *testing.T) {
	for _, label := range a1Modes {
		a, host := newTestAppliance(t, protocol.TypeA1)
		if err := a.SetAttribute(AttrMode, label); err != nil {
			t.Fatal(err)
		}
		code, _ := host.lastSent(t).Get(AttrMode).(int)

		b, _ := newTestAppliance(t, protocol.TypeA1)
		report := b.Decode(notify(protocol.TypeA1, 0, map[string]any{AttrMode: code}))
		if got := report[AttrMode]; got != label {
			t.Errorf("round trip %q -> %d -> %v", label, code, got)
		}
	}
}

func TestA1SetFanSpeedRoundTrip(t *testing.T) {
	for _, e := range a1FanSpeeds {
		a, host := newTestAppliance(t, protocol.TypeA1)
		if err := a.SetAttribute(AttrFanSpeed, e.label); err != nil {
			t.Fatal(err)
		}
		if got := host.lastSent(t).Get(AttrFanSpeed); got != e.code {
			t.Errorf("fan speed %q encoded as %v, want %d", e.label, got, e.code)
		}
	}
}

func TestA1WaterLevelRoundTrip(t *testing.T) {
	for _, level := range a1WaterLevels {
		a, host := newTestAppliance(t, protocol.TypeA1)
		if err := a.SetAttribute(AttrWaterLevelSet, level); err != nil {
			t.Fatal(err)
		}
		code, _ := host.lastSent(t).Get(AttrWaterLevelSet).(int)

		b, _ := newTestAppliance(t, protocol.TypeA1)
		report := b.Decode(notify(protocol.TypeA1, 0, map[string]any{AttrWaterLevelSet: code}))
		if got := report[AttrWaterLevelSet]; got != level {
			t.Errorf("round trip %q -> %d -> %v", level, code, got)
		}
	}
}

func TestA1SetInvalidFanSpeedNoOp(t *testing.T) {
	a, host := newTestAppliance(t, protocol.TypeA1)
	if err := a.SetAttribute(AttrFanSpeed, "Turbo"); err != nil {
		t.Fatal(err)
	}
	// The command still goes out, with the field left at the current-state
	// encoding (default "Medium" -> 60).
	if got := host.lastSent(t).Get(AttrFanSpeed); got != 60 {
		t.Errorf("fan speed = %v, want 60", got)
	}
}

func TestA1PromptToneLocalEcho(t *testing.T) {
	a, host := newTestAppliance(t, protocol.TypeA1)
	if err := a.SetAttribute(AttrPromptTone, false); err != nil {
		t.Fatal(err)
	}
	if len(host.sent) != 0 {
		t.Fatal("prompt tone set produced a transmitted message")
	}
	if got, ok := host.local[AttrPromptTone]; !ok || got != false {
		t.Errorf("local update = %v (present %v), want false", got, ok)
	}
	if got := a.State()[AttrPromptTone]; got != false {
		t.Errorf("state prompt_tone = %v, want false", got)
	}
}

func TestA1SetSwingGeneric(t *testing.T) {
	a, host := newTestAppliance(t, protocol.TypeA1)
	if err := a.SetAttribute(AttrSwing, true); err != nil {
		t.Fatal(err)
	}
	msg := host.lastSent(t)
	if msg.Kind != protocol.KindSet {
		t.Errorf("kind = 0x%02X, want set", msg.Kind)
	}
	if got := msg.Get(AttrSwing); got != true {
		t.Errorf("swing = %v, want true", got)
	}
}
