//go:build !no_mqtt

package mqtt

import (
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"midea-bridge/internal/bridge"
	"midea-bridge/internal/protocol"
	"midea-bridge/internal/store"
	"midea-bridge/internal/transport"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

func extractTopics(msgs []discoveryMsg) map[string]bool {
	topics := make(map[string]bool)
	for _, m := range msgs {
		topics[m.Topic] = true
	}
	return topics
}

func findDiscovery(t *testing.T, msgs []discoveryMsg, topic string) haDiscovery {
	t.Helper()
	for _, m := range msgs {
		if m.Topic != topic {
			continue
		}
		var payload haDiscovery
		if err := json.Unmarshal(m.Payload, &payload); err != nil {
			t.Fatalf("unmarshal %s: %v", topic, err)
		}
		return payload
	}
	t.Fatalf("discovery %s not found", topic)
	return haDiscovery{}
}

func TestDiscoveryDehumidifier(t *testing.T) {
	dev := &store.Device{
		ID:           "18691234567890",
		Type:         protocol.TypeA1,
		FriendlyName: "Basement Dehumidifier",
	}

	msgs := buildDiscovery(dev, "midea")
	topics := extractTopics(msgs)

	full := findDiscovery(t, msgs, "homeassistant/binary_sensor/midea_18691234567890/tank_full/config")
	if full.Name != "Basement Dehumidifier Tank Full" {
		t.Errorf("name = %q", full.Name)
	}
	if full.UniqueID != "midea_18691234567890_tank_full" {
		t.Errorf("unique_id = %q", full.UniqueID)
	}
	if full.StateTopic != "midea/basement_dehumidifier" {
		t.Errorf("state_topic = %q", full.StateTopic)
	}
	if full.AvailabilityTopic != "midea/bridge/state" {
		t.Errorf("availability_topic = %q", full.AvailabilityTopic)
	}
	if full.DeviceClass != "problem" {
		t.Errorf("device_class = %q", full.DeviceClass)
	}
	if full.Device.Manufacturer != "Midea" {
		t.Errorf("device.manufacturer = %q", full.Device.Manufacturer)
	}

	mode := findDiscovery(t, msgs, "homeassistant/select/midea_18691234567890/mode/config")
	if mode.CommandTopic != "midea/basement_dehumidifier/set" {
		t.Errorf("command_topic = %q", mode.CommandTopic)
	}
	wantModes := []string{"Manual", "Continuous", "Auto", "Clothes-Dry", "Shoes-Dry"}
	if len(mode.Options) != len(wantModes) {
		t.Fatalf("mode options = %v", mode.Options)
	}
	for i, want := range wantModes {
		if mode.Options[i] != want {
			t.Errorf("mode option %d = %q, want %q", i, mode.Options[i], want)
		}
	}

	humidity := findDiscovery(t, msgs, "homeassistant/number/midea_18691234567890/target_humidity/config")
	if humidity.Min != 35 || humidity.Max != 85 || humidity.Step != 5 {
		t.Errorf("target_humidity range = %v..%v step %v", humidity.Min, humidity.Max, humidity.Step)
	}

	if !topics["homeassistant/switch/midea_18691234567890/power/config"] {
		t.Error("power switch missing")
	}
	if !topics["homeassistant/sensor/midea_18691234567890/current_humidity/config"] {
		t.Error("humidity sensor missing")
	}
}

func TestDiscoveryAirConditioner(t *testing.T) {
	dev := &store.Device{ID: "ac01", Type: protocol.TypeAC}

	msgs := buildDiscovery(dev, "midea")
	topics := extractTopics(msgs)

	power := findDiscovery(t, msgs, "homeassistant/switch/midea_ac01/power/config")
	// No friendly name: the topic falls back to the device id.
	if power.CommandTopic != "midea/ac01/set" {
		t.Errorf("command_topic = %q", power.CommandTopic)
	}
	if power.PayloadOn != "ON" || power.PayloadOff != "OFF" {
		t.Errorf("payloads = %q/%q", power.PayloadOn, power.PayloadOff)
	}
	if power.Name != "air conditioner ac01 Power" {
		t.Errorf("name = %q", power.Name)
	}

	fresh := findDiscovery(t, msgs, "homeassistant/select/midea_ac01/fresh_air_mode/config")
	if len(fresh.Options) != 6 || fresh.Options[0] != "Off" || fresh.Options[5] != "Full" {
		t.Errorf("fresh air options = %v", fresh.Options)
	}

	temp := findDiscovery(t, msgs, "homeassistant/number/midea_ac01/target_temperature/config")
	if temp.Step != 0.5 {
		t.Errorf("target_temperature step = %v", temp.Step)
	}

	if !topics["homeassistant/sensor/midea_ac01/outdoor_temperature/config"] {
		t.Error("outdoor temperature sensor missing")
	}
}

func TestDiscoverySensorOnlyTypes(t *testing.T) {
	for _, devType := range []byte{protocol.TypeB1, protocol.TypeEC} {
		dev := &store.Device{ID: "d1", Type: devType}
		for _, m := range buildDiscovery(dev, "midea") {
			var payload haDiscovery
			if err := json.Unmarshal(m.Payload, &payload); err != nil {
				t.Fatal(err)
			}
			if payload.CommandTopic != "" {
				t.Errorf("type 0x%02X published settable component %s", devType, m.Topic)
			}
		}
	}
}

func TestBuildRemoveDiscoveryCoversAllComponents(t *testing.T) {
	for _, devType := range []byte{
		protocol.TypeA1, protocol.TypeAC, protocol.TypeB1,
		protocol.TypeCC, protocol.TypeCE, protocol.TypeEC,
	} {
		dev := &store.Device{ID: "d1", Type: devType}
		removed := extractTopics(buildRemoveDiscovery(dev))
		for _, m := range buildDiscovery(dev, "midea") {
			if !removed[m.Topic] {
				t.Errorf("type 0x%02X: %s not covered by removal", devType, m.Topic)
			}
		}
	}
	for _, m := range buildRemoveDiscovery(&store.Device{ID: "d1", Type: protocol.TypeA1}) {
		if len(m.Payload) != 0 {
			t.Errorf("removal payload for %s not empty", m.Topic)
		}
	}
}

func TestDeviceDisplayName(t *testing.T) {
	tests := []struct {
		name string
		dev  *store.Device
		want string
	}{
		{
			name: "friendly name",
			dev:  &store.Device{ID: "123", Type: protocol.TypeA1, FriendlyName: "Basement"},
			want: "Basement",
		},
		{
			name: "type fallback",
			dev:  &store.Device{ID: "123", Type: protocol.TypeEC},
			want: "rice cooker 123",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := deviceDisplayName(tt.dev); got != tt.want {
				t.Errorf("deviceDisplayName() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestDeviceTopicName(t *testing.T) {
	tests := []struct {
		name string
		dev  *store.Device
		want string
	}{
		{
			name: "sanitized friendly name",
			dev:  &store.Device{ID: "123", FriendlyName: "Living Room AC!"},
			want: "living_room_ac_",
		},
		{
			name: "id fallback",
			dev:  &store.Device{ID: "123"},
			want: "123",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := deviceTopicName(tt.dev); got != tt.want {
				t.Errorf("deviceTopicName() = %q, want %q", got, tt.want)
			}
		})
	}
}

// commandTestBridge wires a core bridge with an in-memory link so
// handleCommand can be exercised without a broker.
type commandLink struct {
	mu     sync.Mutex
	sent   [][]byte
	frames chan []byte
}

func (l *commandLink) Send(frame []byte) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	cp := make([]byte, len(frame))
	copy(cp, frame)
	l.sent = append(l.sent, cp)
	return nil
}

func (l *commandLink) Frames() <-chan []byte { return l.frames }
func (l *commandLink) Close() error         { return nil }

func (l *commandLink) sentCount() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.sent)
}

func (l *commandLink) lastFrame() []byte {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.sent[len(l.sent)-1]
}

func TestHandleCommandCoercesSwitchPayloads(t *testing.T) {
	st, err := store.NewBoltStore(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { st.Close() })

	logger := testLogger()
	link := &commandLink{frames: make(chan []byte, 1)}
	core := bridge.New(st, bridge.NewEventBus(logger), bridge.Config{PollInterval: time.Hour}, logger)
	core.SetDialFunc(func(context.Context, transport.Config, *slog.Logger) (transport.Link, error) {
		return link, nil
	})
	t.Cleanup(core.Stop)

	if err := core.AddDevice(&store.Device{ID: "dh1", Type: protocol.TypeA1, Transport: "tcp"}); err != nil {
		t.Fatal(err)
	}
	deadline := time.Now().Add(2 * time.Second)
	for link.sentCount() == 0 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	if link.sentCount() == 0 {
		t.Fatal("no connect query")
	}
	before := link.sentCount()

	mq := &Bridge{core: core, prefix: "midea", logger: logger, states: make(map[string]map[string]any)}
	mq.handleCommand("dh1", []byte(`{"power": "ON"}`))

	for link.sentCount() == before && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	if link.sentCount() == before {
		t.Fatal("command did not reach the link")
	}

	msg, err := protocol.Unmarshal(link.lastFrame())
	if err != nil {
		t.Fatal(err)
	}
	if msg.Kind != protocol.KindSet {
		t.Errorf("kind = 0x%02X, want set", msg.Kind)
	}
	if got := msg.Get("power"); got != true {
		t.Errorf("power = %v, want true", got)
	}

	// Invalid JSON is logged and dropped.
	mq.handleCommand("dh1", []byte(`{broken`))
	if link.sentCount() != before+1 {
		t.Error("invalid payload reached the link")
	}
}
