package appliance

import (
	"log/slog"
	"os"
	"testing"

	"midea-bridge/internal/protocol"
)

// fakeHost records what a variant hands to its runtime.
type fakeHost struct {
	sent  []*protocol.Message
	local map[string]any
}

func newFakeHost() *fakeHost {
	return &fakeHost{local: make(map[string]any)}
}

func (h *fakeHost) Transmit(msg *protocol.Message) error {
	h.sent = append(h.sent, msg)
	return nil
}

func (h *fakeHost) PublishLocalUpdate(attr string, value any) {
	h.local[attr] = value
}

func (h *fakeHost) lastSent(t *testing.T) *protocol.Message {
	t.Helper()
	if len(h.sent) == 0 {
		t.Fatal("no message transmitted")
	}
	return h.sent[len(h.sent)-1]
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

// notify builds an inbound state message for tests.
func notify(deviceType byte, version byte, fields map[string]any) *protocol.Message {
	msg := protocol.NewMessage(deviceType, protocol.KindNotify, version)
	for k, v := range fields {
		msg.Set(k, v)
	}
	return msg
}

func newTestAppliance(t *testing.T, deviceType byte) (Appliance, *fakeHost) {
	t.Helper()
	host := newFakeHost()
	a, err := New(deviceType, host, testLogger(), "")
	if err != nil {
		t.Fatal(err)
	}
	return a, host
}

func TestNewUnsupportedType(t *testing.T) {
	if _, err := New(0x42, newFakeHost(), testLogger(), ""); err == nil {
		t.Fatal("expected error for unsupported type")
	}
}

func TestTypesAllSupported(t *testing.T) {
	for _, dt := range Types() {
		if !Supported(dt) {
			t.Errorf("type 0x%02X not supported", dt)
		}
		a, err := New(dt, newFakeHost(), testLogger(), "")
		if err != nil {
			t.Fatalf("type 0x%02X: %v", dt, err)
		}
		if a.DeviceType() != dt {
			t.Errorf("DeviceType() = 0x%02X, want 0x%02X", a.DeviceType(), dt)
		}
		if len(a.BuildQuery()) == 0 {
			t.Errorf("type 0x%02X: no query messages", dt)
		}
		if len(a.Attributes()) == 0 {
			t.Errorf("type 0x%02X: no attributes", dt)
		}
	}
}

// Decoding threads the protocol version tag into subsequent outbound builds.
func TestVersionThreading(t *testing.T) {
	a, host := newTestAppliance(t, protocol.TypeA1)
	a.Decode(notify(protocol.TypeA1, 3, map[string]any{"power": true}))

	if err := a.SetAttribute(AttrPower, false); err != nil {
		t.Fatal(err)
	}
	if got := host.lastSent(t).Version; got != 3 {
		t.Errorf("outbound version = %d, want 3", got)
	}
	for _, q := range a.BuildQuery() {
		if q.Version != 3 {
			t.Errorf("query version = %d, want 3", q.Version)
		}
	}
}
