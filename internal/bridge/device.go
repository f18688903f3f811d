package bridge

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"midea-bridge/internal/appliance"
	"midea-bridge/internal/protocol"
	"midea-bridge/internal/store"
	"midea-bridge/internal/transport"
)

const (
	reconnectMin = time.Second
	reconnectMax = time.Minute
)

// runtimeDevice binds one configured appliance to its open link: it owns the
// appliance translation state, pushes inbound frames through it, polls the
// device on a timer, and reconnects the link when it drops. All appliance
// calls are serialized through mu; the link has its own lock so the appliance
// can transmit from inside a call made under mu.
type runtimeDevice struct {
	id     string
	rec    *store.Device
	app    appliance.Appliance
	bridge *Bridge
	logger *slog.Logger

	mu           sync.Mutex
	pendingLocal []map[string]any // local echoes queued while mu is held

	linkMu sync.Mutex
	link   transport.Link

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func (b *Bridge) newRuntimeDevice(rec *store.Device) (*runtimeDevice, error) {
	d := &runtimeDevice{
		id:     rec.ID,
		rec:    rec,
		bridge: b,
		logger: b.logger.With("device", rec.ID, "type", appliance.TypeName(rec.Type)),
	}
	app, err := appliance.New(rec.Type, d, d.logger, rec.Customize)
	if err != nil {
		return nil, err
	}
	d.app = app
	// Customize applied at construction may have queued local echoes.
	pending := d.pendingLocal
	d.pendingLocal = nil
	for _, changes := range pending {
		b.publishChanges(d.id, changes)
	}
	d.ctx, d.cancel = context.WithCancel(context.Background())
	return d, nil
}

func (d *runtimeDevice) start() {
	d.wg.Add(1)
	go d.run()
}

func (d *runtimeDevice) stop() {
	d.cancel()
	d.linkMu.Lock()
	if d.link != nil {
		d.link.Close()
		d.link = nil
	}
	d.linkMu.Unlock()
	d.wg.Wait()
}

// run is the device's session loop: connect, query, consume frames until the
// link drops, then back off and reconnect.
func (d *runtimeDevice) run() {
	defer d.wg.Done()
	backoff := reconnectMin
	for {
		link, err := d.bridge.dial(d.ctx, transport.Config{
			Transport:  d.rec.Transport,
			Address:    d.rec.Address,
			Port:       d.rec.Port,
			SerialPort: d.rec.SerialPort,
		}, d.logger)
		if err != nil {
			if d.ctx.Err() != nil {
				return
			}
			d.logger.Warn("connect", "err", err, "retry_in", backoff)
			select {
			case <-time.After(backoff):
			case <-d.ctx.Done():
				return
			}
			backoff = min(backoff*2, reconnectMax)
			continue
		}
		backoff = reconnectMin

		d.linkMu.Lock()
		d.link = link
		d.linkMu.Unlock()

		d.logger.Info("connected")
		d.bridge.events.Emit(Event{Type: EventDeviceOnline, Data: d.id})
		d.session(link)

		d.linkMu.Lock()
		d.link = nil
		d.linkMu.Unlock()
		link.Close()

		if d.ctx.Err() != nil {
			return
		}
		d.logger.Warn("link lost")
		d.bridge.events.Emit(Event{Type: EventDeviceOffline, Data: d.id})
	}
}

// session consumes one link until it closes, polling on the refresh ticker.
func (d *runtimeDevice) session(link transport.Link) {
	d.query()

	ticker := time.NewTicker(d.bridge.pollInterval)
	defer ticker.Stop()
	for {
		select {
		case frame, ok := <-link.Frames():
			if !ok {
				return
			}
			d.handleFrame(frame)
		case <-ticker.C:
			d.query()
		case <-d.ctx.Done():
			return
		}
	}
}

func (d *runtimeDevice) handleFrame(frame []byte) {
	msg, err := protocol.Unmarshal(frame)
	if err != nil {
		d.logger.Warn("bad frame", "err", err)
		return
	}
	if msg.Kind != protocol.KindNotify {
		return
	}

	d.mu.Lock()
	changes := d.app.Decode(msg)
	d.mu.Unlock()
	if len(changes) == 0 {
		return
	}
	d.bridge.publishChanges(d.id, changes)
}

// query sends the variant's fixed state query sequence.
func (d *runtimeDevice) query() {
	d.mu.Lock()
	msgs := d.app.BuildQuery()
	d.mu.Unlock()
	for _, msg := range msgs {
		if err := d.Transmit(msg); err != nil {
			d.logger.Warn("query", "err", err)
			return
		}
	}
}

func (d *runtimeDevice) setAttribute(attr string, value any) error {
	d.mu.Lock()
	err := d.app.SetAttribute(attr, value)
	pending := d.pendingLocal
	d.pendingLocal = nil
	d.mu.Unlock()
	// Flushed outside the lock so a handler may call back into this device.
	for _, changes := range pending {
		d.bridge.publishChanges(d.id, changes)
	}
	return err
}

func (d *runtimeDevice) state() map[string]any {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.app.State()
}

func (d *runtimeDevice) attributes() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.app.Attributes()
}

// Transmit implements appliance.Host. It takes only linkMu, so the appliance
// may call it from inside SetAttribute or Decode while the owner holds mu.
func (d *runtimeDevice) Transmit(msg *protocol.Message) error {
	frame, err := protocol.Marshal(msg)
	if err != nil {
		return fmt.Errorf("marshal: %w", err)
	}
	d.linkMu.Lock()
	link := d.link
	d.linkMu.Unlock()
	if link == nil {
		return fmt.Errorf("device %s: link down", d.id)
	}
	return link.Send(frame)
}

// PublishLocalUpdate implements appliance.Host: a state change acknowledged
// by the bridge itself flows out exactly like a device report. The appliance
// calls this while its owner holds mu, so the update is queued and flushed by
// the caller.
func (d *runtimeDevice) PublishLocalUpdate(attr string, value any) {
	d.pendingLocal = append(d.pendingLocal, map[string]any{attr: value})
}
