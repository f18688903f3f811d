// Package protocol defines the appliance message objects exchanged between
// the bridge and Midea-protocol devices, plus the link framing used to carry
// them. Session encryption and LAN key exchange are handled by the link layer
// and are outside this package.
package protocol

// Appliance type identifiers (the type byte carried in every frame).
const (
	TypeA1 byte = 0xA1 // dehumidifier
	TypeAC byte = 0xAC // air conditioner
	TypeB1 byte = 0xB1 // sterilizer cabinet
	TypeCC byte = 0xCC // fan coil air conditioner
	TypeCE byte = 0xCE // fresh air system
	TypeEC byte = 0xEC // rice cooker
)

// Kind is the message direction/intent byte.
type Kind byte

const (
	KindSet    Kind = 0x02 // control command
	KindQuery  Kind = 0x03 // state query
	KindNotify Kind = 0x05 // unsolicited or query response
)

// Form discriminates message body layouts within one appliance type and kind.
// Most messages use FormGeneral; the air conditioner additionally speaks the
// "new protocol" extension, the BB subprotocol and a display toggle command.
type Form byte

const (
	FormGeneral       Form = 0x00
	FormPower         Form = 0x21
	FormToggleDisplay Form = 0x41
	FormNewProtocol   Form = 0xB1
	FormSubprotocol   Form = 0xBB
)

// FreshAir is a paired power/speed value used by the air conditioner's fresh
// air extension. It travels as a single named field.
type FreshAir struct {
	Power bool
	Speed int
}

// Message is a parsed appliance message: a set of named fields plus the
// header bytes needed to interpret and answer it. Field names match the
// semantic attribute names of the owning appliance type; values are the raw
// wire values (bool, int, float64, FreshAir) before semantic translation.
type Message struct {
	DeviceType byte
	Kind       Kind
	Form       Form
	Version    byte // protocol version tag, threaded through unchanged

	fields map[string]any
}

// NewMessage creates an empty message of FormGeneral.
func NewMessage(deviceType byte, kind Kind, version byte) *Message {
	return &Message{
		DeviceType: deviceType,
		Kind:       kind,
		Form:       FormGeneral,
		Version:    version,
		fields:     make(map[string]any),
	}
}

// NewFormMessage creates an empty message with an explicit body form.
func NewFormMessage(deviceType byte, kind Kind, form Form, version byte) *Message {
	m := NewMessage(deviceType, kind, version)
	m.Form = form
	return m
}

// Has reports whether the named field is present.
func (m *Message) Has(name string) bool {
	_, ok := m.fields[name]
	return ok
}

// Get returns the named field value, or nil if absent.
func (m *Message) Get(name string) any {
	return m.fields[name]
}

// Set stores a field value.
func (m *Message) Set(name string, value any) {
	m.fields[name] = value
}

// Fields returns the field map. The returned map is a copy; mutating it does
// not affect the message.
func (m *Message) Fields() map[string]any {
	out := make(map[string]any, len(m.fields))
	for k, v := range m.fields {
		out[k] = v
	}
	return out
}

// Len returns the number of fields present.
func (m *Message) Len() int {
	return len(m.fields)
}
