package appliance

import (
	"log/slog"

	"midea-bridge/internal/protocol"
)

// Sterilizer cabinet (type 0xB1). Reports state only; it accepts no commands.

var b1Status = codeTable{
	{0x01, "Standby"},
	{0x02, "Idle"},
	{0x03, "Working"},
	{0x04, "Finished"},
	{0x05, "Delay"},
	{0x06, "Paused"},
}

type b1Device struct {
	device
}

func newB1(host Host, logger *slog.Logger) Appliance {
	return &b1Device{device{
		deviceType: protocol.TypeB1,
		host:       host,
		logger:     logger,
		attrs: newDeviceState([]attrDef{
			{AttrDoor, false},
			{AttrStatus, nil},
			{AttrTimeRemaining, nil},
			{AttrCurrentTemperature, nil},
			{AttrTankEjected, false},
			{AttrWaterChangeReminder, false},
			{AttrWaterShortage, false},
		}),
	}}
}

func (d *b1Device) BuildQuery() []*protocol.Message {
	return []*protocol.Message{d.newMessage(protocol.KindQuery)}
}

func (d *b1Device) Decode(msg *protocol.Message) map[string]any {
	d.version = msg.Version
	report := make(map[string]any)
	for _, attr := range d.attrs.order {
		if !msg.Has(attr) {
			continue
		}
		value := msg.Get(attr)
		if attr == AttrStatus {
			code, _ := asInt(value)
			if label, ok := b1Status.label(code); ok {
				d.attrs.set(attr, label)
			} else {
				d.attrs.set(attr, nil)
			}
		} else {
			d.attrs.set(attr, value)
		}
		report[attr] = d.attrs.get(attr)
	}
	return report
}

// SetAttribute is a no-op: the cabinet has no controllable attributes.
func (d *b1Device) SetAttribute(attr string, value any) error {
	return nil
}
