package protocol

import (
	"encoding/binary"
	"fmt"
)

// FieldKind describes how a named field is packed into a message body.
type FieldKind int

const (
	FieldBool     FieldKind = iota // single bit
	FieldUint8                     // one byte
	FieldUint16                    // two bytes, big endian
	FieldTempDeci                  // int16 big endian, tenths of a degree -> float64
	FieldRaw32                     // uint32 big endian, surfaced uninterpreted as int
	FieldFreshAir                  // two bytes: power flag, speed
)

// FieldDef locates one named field inside a fixed body layout.
type FieldDef struct {
	Name string
	Byte int // body offset
	Bit  int // bit index for FieldBool, ignored otherwise
	Kind FieldKind
}

// bodyCodec converts between a message's named fields and body bytes.
type bodyCodec interface {
	encode(m *Message) ([]byte, error)
	decode(body []byte, m *Message) error
}

// fixedLayout is a bodyCodec with every field at a fixed offset. Fields the
// message does not carry encode as zero.
type fixedLayout struct {
	size   int
	fields []FieldDef
}

func (l fixedLayout) encode(m *Message) ([]byte, error) {
	body := make([]byte, l.size)
	for _, f := range l.fields {
		if !m.Has(f.Name) {
			continue
		}
		if err := putField(body, f, m.Get(f.Name)); err != nil {
			return nil, fmt.Errorf("field %s: %w", f.Name, err)
		}
	}
	return body, nil
}

func (l fixedLayout) decode(body []byte, m *Message) error {
	if len(body) < l.size {
		return fmt.Errorf("body too short: need %d bytes, have %d", l.size, len(body))
	}
	for _, f := range l.fields {
		m.Set(f.Name, getField(body, f))
	}
	return nil
}

func putField(body []byte, f FieldDef, value any) error {
	switch f.Kind {
	case FieldBool:
		if truthy(value) {
			body[f.Byte] |= 1 << f.Bit
		}
	case FieldUint8:
		n, ok := toInt64(value)
		if !ok {
			return fmt.Errorf("not numeric: %T", value)
		}
		body[f.Byte] = byte(n)
	case FieldUint16:
		n, ok := toInt64(value)
		if !ok {
			return fmt.Errorf("not numeric: %T", value)
		}
		binary.BigEndian.PutUint16(body[f.Byte:], uint16(n))
	case FieldTempDeci:
		v, ok := toFloat64(value)
		if !ok {
			return fmt.Errorf("not numeric: %T", value)
		}
		binary.BigEndian.PutUint16(body[f.Byte:], uint16(int16(v*10)))
	case FieldRaw32:
		n, ok := toInt64(value)
		if !ok {
			return fmt.Errorf("not numeric: %T", value)
		}
		binary.BigEndian.PutUint32(body[f.Byte:], uint32(n))
	case FieldFreshAir:
		fa, ok := value.(FreshAir)
		if !ok {
			return fmt.Errorf("not a FreshAir pair: %T", value)
		}
		if fa.Power {
			body[f.Byte] = 1
		}
		body[f.Byte+1] = byte(fa.Speed)
	default:
		return fmt.Errorf("unknown field kind %d", f.Kind)
	}
	return nil
}

func getField(body []byte, f FieldDef) any {
	switch f.Kind {
	case FieldBool:
		return body[f.Byte]&(1<<f.Bit) != 0
	case FieldUint8:
		return int(body[f.Byte])
	case FieldUint16:
		return int(binary.BigEndian.Uint16(body[f.Byte:]))
	case FieldTempDeci:
		return float64(int16(binary.BigEndian.Uint16(body[f.Byte:]))) / 10
	case FieldRaw32:
		return int(binary.BigEndian.Uint32(body[f.Byte:]))
	case FieldFreshAir:
		return FreshAir{Power: body[f.Byte] != 0, Speed: int(body[f.Byte+1])}
	}
	return nil
}

// toInt64 converts numeric wire/attribute values to int64.
func toInt64(value any) (int64, bool) {
	switch v := value.(type) {
	case int:
		return int64(v), true
	case int64:
		return v, true
	case uint8:
		return int64(v), true
	case uint16:
		return int64(v), true
	case uint32:
		return int64(v), true
	case float64:
		return int64(v), true
	case bool:
		if v {
			return 1, true
		}
		return 0, true
	default:
		return 0, false
	}
}

func toFloat64(value any) (float64, bool) {
	switch v := value.(type) {
	case float64:
		return v, true
	case float32:
		return float64(v), true
	default:
		n, ok := toInt64(value)
		return float64(n), ok
	}
}

func truthy(value any) bool {
	switch v := value.(type) {
	case bool:
		return v
	case nil:
		return false
	case string:
		return v != ""
	default:
		n, ok := toInt64(value)
		return ok && n != 0
	}
}
