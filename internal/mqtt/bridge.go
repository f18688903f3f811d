//go:build !no_mqtt

package mqtt

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	pahomqtt "github.com/eclipse/paho.mqtt.golang"

	"midea-bridge/internal/bridge"
	"midea-bridge/internal/store"
)

// Config holds MQTT bridge configuration.
type Config struct {
	Broker      string
	Username    string
	Password    string
	TopicPrefix string
}

// Bridge connects the appliance bridge to MQTT with HA autodiscovery.
type Bridge struct {
	client pahomqtt.Client
	core   *bridge.Bridge
	prefix string
	logger *slog.Logger
	unsub  func()

	// Per-device state accumulator.
	mu     sync.Mutex
	states map[string]map[string]any // device id -> attribute map
}

// NewBridge creates and connects an MQTT bridge.
func NewBridge(core *bridge.Bridge, cfg Config, logger *slog.Logger) (*Bridge, error) {
	b := &Bridge{
		core:   core,
		prefix: cfg.TopicPrefix,
		logger: logger.With("component", "mqtt"),
		states: make(map[string]map[string]any),
	}

	opts := pahomqtt.NewClientOptions().
		AddBroker(cfg.Broker).
		SetClientID("midea-bridge").
		SetAutoReconnect(true).
		SetConnectRetry(true).
		SetConnectRetryInterval(5 * time.Second).
		SetWill(cfg.TopicPrefix+"/bridge/state", "offline", 1, true).
		SetOnConnectHandler(func(_ pahomqtt.Client) {
			b.logger.Info("MQTT connected")
			b.publishBridgeState("online")
			b.publishAllDiscovery()
			b.subscribeCommands()
		}).
		SetConnectionLostHandler(func(_ pahomqtt.Client, err error) {
			b.logger.Warn("MQTT connection lost", "err", err)
		})

	if cfg.Username != "" {
		opts.SetUsername(cfg.Username)
		opts.SetPassword(cfg.Password)
	}

	client := pahomqtt.NewClient(opts)
	token := client.Connect()
	if !token.WaitTimeout(10 * time.Second) {
		return nil, fmt.Errorf("mqtt connect timeout")
	}
	if err := token.Error(); err != nil {
		return nil, fmt.Errorf("mqtt connect: %w", err)
	}

	b.client = client
	return b, nil
}

// Start subscribes to bridge events and begins MQTT publishing.
func (b *Bridge) Start() {
	b.unsub = b.core.Events().OnAll(b.handleEvent)
	b.logger.Info("MQTT bridge started", "prefix", b.prefix)
}

// Stop publishes offline state, unsubscribes, and disconnects.
func (b *Bridge) Stop() {
	if b.unsub != nil {
		b.unsub()
	}
	b.publishBridgeState("offline")
	b.client.Disconnect(1000)
	b.logger.Info("MQTT bridge stopped")
}

func (b *Bridge) handleEvent(event bridge.Event) {
	switch event.Type {
	case bridge.EventStateUpdate:
		up, ok := event.Data.(bridge.StateUpdate)
		if !ok {
			return
		}
		b.updateAndPublishState(up.DeviceID, up.Changes)
	case bridge.EventDeviceAdded:
		id, _ := event.Data.(string)
		if dev, err := b.core.Store().GetDevice(id); err == nil {
			b.publishDeviceDiscovery(dev)
			b.subscribeDeviceCommands(dev)
		}
	case bridge.EventDeviceRemoved:
		id, _ := event.Data.(string)
		b.handleDeviceRemoved(id)
	case bridge.EventDeviceOnline:
		id, _ := event.Data.(string)
		b.publishAvailability(id, "online")
	case bridge.EventDeviceOffline:
		id, _ := event.Data.(string)
		b.publishAvailability(id, "offline")
	}
}

// updateAndPublishState folds the changed attributes into the device's
// accumulated state and republishes the whole document retained. A touched
// attribute republishes even when its value did not change.
func (b *Bridge) updateAndPublishState(id string, changes map[string]any) {
	b.mu.Lock()
	state, ok := b.states[id]
	if !ok {
		state = make(map[string]any)
		b.states[id] = state
	}
	for k, v := range changes {
		state[k] = v
	}
	state["last_seen"] = time.Now().Format(time.RFC3339)
	payload := mustJSON(state)
	b.mu.Unlock()

	b.publish(b.prefix+"/"+b.topicName(id), payload, true)
}

func (b *Bridge) handleDeviceRemoved(id string) {
	dev := &store.Device{ID: id}
	for _, msg := range buildRemoveDiscovery(dev) {
		b.publish(msg.Topic, msg.Payload, true)
	}
	b.mu.Lock()
	delete(b.states, id)
	b.mu.Unlock()
}

func (b *Bridge) publishBridgeState(state string) {
	b.publish(b.prefix+"/bridge/state", []byte(state), true)
}

func (b *Bridge) publishAvailability(id, state string) {
	b.publish(b.prefix+"/"+b.topicName(id)+"/availability", []byte(state), true)
}

func (b *Bridge) publishAllDiscovery() {
	devices, err := b.core.Store().ListDevices()
	if err != nil {
		b.logger.Error("list devices for discovery", "err", err)
		return
	}
	for _, dev := range devices {
		b.publishDeviceDiscovery(dev)
	}
}

func (b *Bridge) publishDeviceDiscovery(dev *store.Device) {
	for _, msg := range buildDiscovery(dev, b.prefix) {
		b.publish(msg.Topic, msg.Payload, true)
	}
	b.logger.Info("published HA discovery", "device", dev.ID, "name", deviceDisplayName(dev))
}

func (b *Bridge) subscribeCommands() {
	devices, err := b.core.Store().ListDevices()
	if err != nil {
		b.logger.Error("list devices for command subscription", "err", err)
		return
	}
	for _, dev := range devices {
		b.subscribeDeviceCommands(dev)
	}
}

func (b *Bridge) subscribeDeviceCommands(dev *store.Device) {
	topic := b.prefix + "/" + deviceTopicName(dev) + "/set"
	id := dev.ID
	b.client.Subscribe(topic, 1, func(_ pahomqtt.Client, msg pahomqtt.Message) {
		b.handleCommand(id, msg.Payload())
	})
}

// handleCommand applies each attribute of a JSON set document in turn.
// Requests the appliance does not honor degrade silently, matching the
// device behavior.
func (b *Bridge) handleCommand(id string, payload []byte) {
	var cmd map[string]any
	if err := json.Unmarshal(payload, &cmd); err != nil {
		b.logger.Warn("invalid command JSON", "device", id, "err", err)
		return
	}
	for attr, value := range cmd {
		if s, ok := value.(string); ok {
			// HA switches publish ON/OFF strings for boolean attributes.
			switch strings.ToUpper(s) {
			case "ON":
				value = true
			case "OFF":
				value = false
			}
		}
		if err := b.core.SetAttribute(id, attr, value); err != nil {
			b.logger.Warn("set attribute", "device", id, "attr", attr, "err", err)
		}
	}
}

func (b *Bridge) publish(topic string, payload []byte, retained bool) {
	token := b.client.Publish(topic, 1, retained, payload)
	go func() {
		if !token.WaitTimeout(5 * time.Second) {
			b.logger.Warn("MQTT publish timeout", "topic", topic)
		} else if err := token.Error(); err != nil {
			b.logger.Warn("MQTT publish error", "topic", topic, "err", err)
		}
	}()
}

// topicName returns the MQTT topic name for a device by id.
func (b *Bridge) topicName(id string) string {
	dev, err := b.core.Store().GetDevice(id)
	if err != nil {
		return id
	}
	return deviceTopicName(dev)
}

func mustJSON(v any) []byte {
	data, err := json.Marshal(v)
	if err != nil {
		return []byte("{}")
	}
	return data
}
