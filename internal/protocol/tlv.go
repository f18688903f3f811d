package protocol

import (
	"encoding/binary"
	"fmt"
)

// tlvLayout is a bodyCodec for the air conditioner's "new protocol" extension.
// The body is a count byte followed by [property id (2 BE), length (1),
// data (N)] entries; only the fields present in the message are emitted, so a
// single-property set does not clobber unrelated properties.
type tlvLayout struct {
	props []tlvProp
}

// tlvProp maps one named field to its new-protocol property id.
type tlvProp struct {
	Name string
	ID   uint16
	Kind FieldKind // FieldBool, FieldUint8 or FieldFreshAir
}

func (l tlvLayout) encode(m *Message) ([]byte, error) {
	body := []byte{0}
	count := 0
	for _, p := range l.props {
		if !m.Has(p.Name) {
			continue
		}
		data, err := tlvData(p, m.Get(p.Name))
		if err != nil {
			return nil, fmt.Errorf("property %s: %w", p.Name, err)
		}
		entry := make([]byte, 3, 3+len(data))
		binary.BigEndian.PutUint16(entry, p.ID)
		entry[2] = byte(len(data))
		body = append(body, append(entry, data...)...)
		count++
	}
	body[0] = byte(count)
	return body, nil
}

func (l tlvLayout) decode(body []byte, m *Message) error {
	if len(body) == 0 {
		return nil
	}
	pos := 1
	for pos+3 <= len(body) {
		id := binary.BigEndian.Uint16(body[pos:])
		size := int(body[pos+2])
		pos += 3
		if pos+size > len(body) {
			return fmt.Errorf("property 0x%04X: need %d bytes at offset %d, have %d",
				id, size, pos, len(body)-pos)
		}
		data := body[pos : pos+size]
		pos += size

		p, ok := l.lookup(id)
		if !ok {
			continue // unknown properties are skipped, not an error
		}
		switch p.Kind {
		case FieldBool:
			if len(data) >= 1 {
				m.Set(p.Name, data[0] != 0)
			}
		case FieldUint8:
			if len(data) >= 1 {
				m.Set(p.Name, int(data[0]))
			}
		case FieldFreshAir:
			if len(data) >= 2 {
				m.Set(p.Name, FreshAir{Power: data[0] != 0, Speed: int(data[1])})
			}
		}
	}
	return nil
}

func (l tlvLayout) lookup(id uint16) (tlvProp, bool) {
	for _, p := range l.props {
		if p.ID == id {
			return p, true
		}
	}
	return tlvProp{}, false
}

func tlvData(p tlvProp, value any) ([]byte, error) {
	switch p.Kind {
	case FieldBool:
		if truthy(value) {
			return []byte{1}, nil
		}
		return []byte{0}, nil
	case FieldUint8:
		n, ok := toInt64(value)
		if !ok {
			return nil, fmt.Errorf("not numeric: %T", value)
		}
		return []byte{byte(n)}, nil
	case FieldFreshAir:
		fa, ok := value.(FreshAir)
		if !ok {
			return nil, fmt.Errorf("not a FreshAir pair: %T", value)
		}
		data := []byte{0, byte(fa.Speed)}
		if fa.Power {
			data[0] = 1
		}
		return data, nil
	}
	return nil, fmt.Errorf("unsupported property kind %d", p.Kind)
}
