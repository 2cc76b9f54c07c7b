package tlv

import "encoding/binary"

func NewU8(id uint16, v uint8) Field {
	return Field{ID: id, Type: TypeU8, Value: []byte{v}}
}

func NewU16(id uint16, v uint16) Field {
	buf := make([]byte, 2)
	binary.BigEndian.PutUint16(buf, v)
	return Field{ID: id, Type: TypeU16, Value: buf}
}

func NewU32(id uint16, v uint32) Field {
	buf := make([]byte, 4)
	binary.BigEndian.PutUint32(buf, v)
	return Field{ID: id, Type: TypeU32, Value: buf}
}

func NewU64(id uint16, v uint64) Field {
	buf := make([]byte, 8)
	binary.BigEndian.PutUint64(buf, v)
	return Field{ID: id, Type: TypeU64, Value: buf}
}

func NewBool(id uint16, v bool) Field {
	b := byte(0)
	if v {
		b = 1
	}
	return Field{ID: id, Type: TypeBool, Value: []byte{b}}
}

func NewString(id uint16, v string) Field {
	return Field{ID: id, Type: TypeString, Value: []byte(v)}
}

func NewBytes(id uint16, v []byte) Field {
	buf := make([]byte, len(v))
	copy(buf, v)
	return Field{ID: id, Type: TypeBytes, Value: buf}
}

func (f Field) U8() (uint8, error) {
	if err := f.fixed(TypeU8, 1); err != nil {
		return 0, err
	}
	return f.Value[0], nil
}

func (f Field) U16() (uint16, error) {
	if err := f.fixed(TypeU16, 2); err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint16(f.Value), nil
}

func (f Field) U32() (uint32, error) {
	if err := f.fixed(TypeU32, 4); err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint32(f.Value), nil
}

func (f Field) U64() (uint64, error) {
	if err := f.fixed(TypeU64, 8); err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint64(f.Value), nil
}

func (f Field) Bool() (bool, error) {
	if err := f.fixed(TypeBool, 1); err != nil {
		return false, err
	}
	switch f.Value[0] {
	case 0:
		return false, nil
	case 1:
		return true, nil
	default:
		return false, ErrInvalidBool
	}
}

func (f Field) Str() (string, error) {
	if err := MustType(f, TypeString); err != nil {
		return "", err
	}
	return string(f.Value), nil
}

// Bytes returns a copy of the raw value.
func (f Field) Bytes() ([]byte, error) {
	if err := MustType(f, TypeBytes); err != nil {
		return nil, err
	}
	buf := make([]byte, len(f.Value))
	copy(buf, f.Value)
	return buf, nil
}

// Any decodes the value according to its declared type. Bytes come back as
// []byte, integers as their sized unsigned type.
func (f Field) Any() (any, error) {
	switch f.Type {
	case TypeU8:
		return f.U8()
	case TypeU16:
		return f.U16()
	case TypeU32:
		return f.U32()
	case TypeU64:
		return f.U64()
	case TypeBool:
		return f.Bool()
	case TypeString:
		return f.Str()
	case TypeBytes:
		return f.Bytes()
	default:
		return nil, ErrUnknownType
	}
}

func (f Field) fixed(want uint8, size int) error {
	if err := MustType(f, want); err != nil {
		return err
	}
	if len(f.Value) != size {
		return ErrInvalidLength
	}
	return nil
}
