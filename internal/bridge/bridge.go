// Package bridge is the runtime that owns the configured appliances: it keeps
// one translation instance and one link per device, routes inbound reports to
// the event bus, persists state snapshots, and carries attribute-set requests
// from the outer surfaces down to the right appliance.
package bridge

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"midea-bridge/internal/appliance"
	"midea-bridge/internal/store"
	"midea-bridge/internal/transport"
)

const defaultPollInterval = 30 * time.Second

// DialFunc opens a link; swapped in tests.
type DialFunc func(ctx context.Context, cfg transport.Config, logger *slog.Logger) (transport.Link, error)

// Config holds bridge configuration.
type Config struct {
	PollInterval time.Duration
}

// Bridge manages the set of running appliance devices.
type Bridge struct {
	store        store.Store
	events       *EventBus
	logger       *slog.Logger
	dial         DialFunc
	pollInterval time.Duration

	mu      sync.RWMutex
	devices map[string]*runtimeDevice
}

// New creates a bridge over the given store and event bus.
func New(st store.Store, events *EventBus, cfg Config, logger *slog.Logger) *Bridge {
	interval := cfg.PollInterval
	if interval <= 0 {
		interval = defaultPollInterval
	}
	return &Bridge{
		store:        st,
		events:       events,
		logger:       logger,
		dial:         transport.Open,
		pollInterval: interval,
		devices:      make(map[string]*runtimeDevice),
	}
}

// SetDialFunc replaces the link dialer. Must be called before Start.
func (b *Bridge) SetDialFunc(dial DialFunc) { b.dial = dial }

// Events returns the event bus.
func (b *Bridge) Events() *EventBus { return b.events }

// Store returns the store.
func (b *Bridge) Store() store.Store { return b.store }

// Start loads every persisted device and brings it up.
func (b *Bridge) Start() error {
	devices, err := b.store.ListDevices()
	if err != nil {
		return fmt.Errorf("list devices: %w", err)
	}
	for _, rec := range devices {
		if err := b.startDevice(rec); err != nil {
			b.logger.Error("start device", "device", rec.ID, "err", err)
		}
	}
	b.logger.Info("bridge started", "devices", len(devices))
	return nil
}

// Stop tears down every running device.
func (b *Bridge) Stop() {
	b.mu.Lock()
	devices := make([]*runtimeDevice, 0, len(b.devices))
	for _, d := range b.devices {
		devices = append(devices, d)
	}
	b.devices = make(map[string]*runtimeDevice)
	b.mu.Unlock()

	for _, d := range devices {
		d.stop()
	}
}

// AddDevice persists a new device and brings it up.
func (b *Bridge) AddDevice(rec *store.Device) error {
	if !appliance.Supported(rec.Type) {
		return fmt.Errorf("unsupported appliance type 0x%02X", rec.Type)
	}
	rec.AddedAt = time.Now()
	if err := b.store.SaveDevice(rec); err != nil {
		return fmt.Errorf("save device: %w", err)
	}
	if err := b.startDevice(rec); err != nil {
		return err
	}
	b.events.Emit(Event{Type: EventDeviceAdded, Data: rec.ID})
	return nil
}

// RemoveDevice tears down a device and deletes it from the store.
func (b *Bridge) RemoveDevice(id string) error {
	b.mu.Lock()
	d, ok := b.devices[id]
	delete(b.devices, id)
	b.mu.Unlock()
	if ok {
		d.stop()
	}
	if err := b.store.DeleteDevice(id); err != nil {
		return err
	}
	b.events.Emit(Event{Type: EventDeviceRemoved, Data: id})
	return nil
}

func (b *Bridge) startDevice(rec *store.Device) error {
	d, err := b.newRuntimeDevice(rec)
	if err != nil {
		return err
	}
	b.mu.Lock()
	if _, exists := b.devices[rec.ID]; exists {
		b.mu.Unlock()
		return fmt.Errorf("device %s already running", rec.ID)
	}
	b.devices[rec.ID] = d
	b.mu.Unlock()
	d.start()
	return nil
}

func (b *Bridge) device(id string) (*runtimeDevice, error) {
	b.mu.RLock()
	d, ok := b.devices[id]
	b.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("device %s: %w", id, store.ErrNotFound)
	}
	return d, nil
}

// SetAttribute routes a semantic attribute change to the device.
func (b *Bridge) SetAttribute(id, attr string, value any) error {
	d, err := b.device(id)
	if err != nil {
		return err
	}
	return d.setAttribute(attr, value)
}

// DeviceState returns the device's current semantic state snapshot.
func (b *Bridge) DeviceState(id string) (map[string]any, error) {
	d, err := b.device(id)
	if err != nil {
		return nil, err
	}
	return d.state(), nil
}

// DeviceAttributes returns the device's attribute names.
func (b *Bridge) DeviceAttributes(id string) ([]string, error) {
	d, err := b.device(id)
	if err != nil {
		return nil, err
	}
	return d.attributes(), nil
}

// DeviceIDs returns the ids of all running devices.
func (b *Bridge) DeviceIDs() []string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	ids := make([]string, 0, len(b.devices))
	for id := range b.devices {
		ids = append(ids, id)
	}
	return ids
}

// publishChanges persists the changed attributes into the device's stored
// snapshot and emits them on the bus.
func (b *Bridge) publishChanges(id string, changes map[string]any) {
	err := b.store.UpdateDevice(id, func(dev *store.Device) error {
		if dev.State == nil {
			dev.State = make(map[string]any, len(changes))
		}
		for k, v := range changes {
			dev.State[k] = v
		}
		dev.LastSeen = time.Now()
		return nil
	})
	if err != nil {
		b.logger.Error("persist state", "device", id, "err", err)
	}
	b.events.Emit(Event{Type: EventStateUpdate, Data: StateUpdate{DeviceID: id, Changes: changes}})
}
