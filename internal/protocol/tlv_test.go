package protocol

import (
	"testing"
)

func TestNewProtocolRoundTrip(t *testing.T) {
	m := NewFormMessage(TypeAC, KindSet, FormNewProtocol, 2)
	m.Set("indirect_wind", true)
	m.Set("prompt_tone", false)
	m.Set("fresh_air_1", FreshAir{Power: true, Speed: 60})

	frame, err := Marshal(m)
	if err != nil {
		t.Fatal(err)
	}
	got, err := Unmarshal(frame)
	if err != nil {
		t.Fatal(err)
	}

	// Only the properties present in the message travel.
	if got.Len() != 3 {
		t.Errorf("fields = %d, want 3", got.Len())
	}
	if v := got.Get("indirect_wind"); v != true {
		t.Errorf("indirect_wind = %v, want true", v)
	}
	if v := got.Get("prompt_tone"); v != false {
		t.Errorf("prompt_tone = %v, want false", v)
	}
	fa, ok := got.Get("fresh_air_1").(FreshAir)
	if !ok || !fa.Power || fa.Speed != 60 {
		t.Errorf("fresh_air_1 = %v, want powered FreshAir at 60", got.Get("fresh_air_1"))
	}
	if got.Has("breezeless") {
		t.Error("absent property materialized on decode")
	}
}

func TestNewProtocolSkipsUnknownProperties(t *testing.T) {
	// Body: two entries, the first an unregistered property id.
	body := []byte{
		2,
		0x99, 0x99, 1, 0xFF, // unknown, skipped
		0x00, 0x18, 1, 1, // breezeless on
	}
	m := NewFormMessage(TypeAC, KindNotify, FormNewProtocol, 0)
	if err := acNewProtocol.decode(body, m); err != nil {
		t.Fatal(err)
	}
	if m.Len() != 1 || m.Get("breezeless") != true {
		t.Errorf("fields = %v", m.Fields())
	}
}

func TestNewProtocolTruncatedEntry(t *testing.T) {
	body := []byte{1, 0x00, 0x18, 5, 1} // claims 5 data bytes, has 1
	m := NewFormMessage(TypeAC, KindNotify, FormNewProtocol, 0)
	if err := acNewProtocol.decode(body, m); err == nil {
		t.Fatal("expected error for truncated property")
	}
}
