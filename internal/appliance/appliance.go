// Package appliance implements the per-type attribute translation layer: it
// turns raw protocol fields from inbound messages into a stable semantic
// state map, and semantic attribute-set requests back into outbound command
// messages. One independent variant exists per appliance type; all variants
// expose the same capability set and share no state.
package appliance

import (
	"fmt"
	"log/slog"
	"strconv"

	"midea-bridge/internal/protocol"
)

// Host is what a variant needs from its owning runtime: a way to hand off an
// outbound message, and a way to publish a state change that is acknowledged
// locally without ever reaching the device.
type Host interface {
	Transmit(msg *protocol.Message) error
	PublishLocalUpdate(attr string, value any)
}

// Appliance is the capability set every variant implements. The host owns
// exactly one Appliance per physical device and serializes calls into it;
// none of the methods are safe for concurrent use on the same instance.
type Appliance interface {
	// DeviceType returns the appliance type identifier.
	DeviceType() byte

	// Attributes returns the variant's attribute names in declaration order.
	Attributes() []string

	// State returns a snapshot of the current semantic state.
	State() map[string]any

	// BuildQuery returns the variant's fixed set of state query messages.
	BuildQuery() []*protocol.Message

	// Decode applies an inbound message to the state and returns a report of
	// every attribute the message exposed, plus any derived attribute whose
	// value changed as a side effect. Attributes absent from the message keep
	// their last known value and never enter the report.
	Decode(msg *protocol.Message) map[string]any

	// SetAttribute translates a semantic attribute change into either an
	// outbound command or a local state echo. Requests for values outside the
	// attribute's declared domain degrade to a no-op rather than an error;
	// the returned error only reflects transmit failures.
	SetAttribute(attr string, value any) error

	// SetCustomize applies a per-device JSON customization string. Unknown or
	// malformed input is ignored.
	SetCustomize(customize string)
}

// New constructs the variant for the given appliance type.
func New(deviceType byte, host Host, logger *slog.Logger, customize string) (Appliance, error) {
	ctor, ok := variants[deviceType]
	if !ok {
		return nil, fmt.Errorf("unsupported appliance type 0x%02X", deviceType)
	}
	a := ctor(host, logger)
	if customize != "" {
		a.SetCustomize(customize)
	}
	return a, nil
}

// Supported reports whether an appliance type has a variant.
func Supported(deviceType byte) bool {
	_, ok := variants[deviceType]
	return ok
}

// Types returns all supported appliance type identifiers.
func Types() []byte {
	return []byte{
		protocol.TypeA1,
		protocol.TypeAC,
		protocol.TypeB1,
		protocol.TypeCC,
		protocol.TypeCE,
		protocol.TypeEC,
	}
}

var variants = map[byte]func(Host, *slog.Logger) Appliance{
	protocol.TypeA1: newA1,
	protocol.TypeAC: newAC,
	protocol.TypeB1: newB1,
	protocol.TypeCC: newCC,
	protocol.TypeCE: newCE,
	protocol.TypeEC: newEC,
}

// TypeName returns a human-readable appliance type name.
func TypeName(deviceType byte) string {
	switch deviceType {
	case protocol.TypeA1:
		return "dehumidifier"
	case protocol.TypeAC:
		return "air conditioner"
	case protocol.TypeB1:
		return "sterilizer cabinet"
	case protocol.TypeCC:
		return "fan coil air conditioner"
	case protocol.TypeCE:
		return "fresh air system"
	case protocol.TypeEC:
		return "rice cooker"
	default:
		return fmt.Sprintf("unknown (0x%02X)", deviceType)
	}
}

// device carries what every variant shares: the host callbacks, the ordered
// attribute state, and the protocol version tag threaded from the last
// inbound message into subsequent outbound builds.
type device struct {
	deviceType byte
	host       Host
	logger     *slog.Logger
	version    byte
	attrs      *deviceState
}

func (d *device) DeviceType() byte { return d.deviceType }

func (d *device) Attributes() []string { return d.attrs.names() }

func (d *device) State() map[string]any { return d.attrs.snapshot() }

func (d *device) SetCustomize(string) {}

func (d *device) newMessage(kind protocol.Kind) *protocol.Message {
	return protocol.NewMessage(d.deviceType, kind, d.version)
}

// asInt converts raw wire values to int for table lookups.
func asInt(value any) (int, bool) {
	switch v := value.(type) {
	case int:
		return v, true
	case int64:
		return int(v), true
	case float64:
		return int(v), true
	case bool:
		if v {
			return 1, true
		}
		return 0, true
	case string:
		n, err := strconv.Atoi(v)
		return n, err == nil
	default:
		return 0, false
	}
}

func asString(value any) string {
	switch v := value.(type) {
	case string:
		return v
	case nil:
		return ""
	default:
		return fmt.Sprintf("%v", v)
	}
}

// truthy mirrors the loose boolean test the translation rules use for raw
// values: nil, false, zero and the empty string are all false.
func truthy(value any) bool {
	switch v := value.(type) {
	case bool:
		return v
	case nil:
		return false
	case string:
		return v != "" && v != "false" && v != "0"
	case float64:
		return v != 0
	default:
		n, ok := asInt(v)
		return ok && n != 0
	}
}
