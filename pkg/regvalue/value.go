// Package regvalue defines the tagged registry value payload and its
// canonical byte encoding.
package regvalue

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"unicode/utf16"
)

// Type is a Windows registry value type code.
type Type uint32

// Type codes carried by the payload variants below. REG_NONE and REG_LINK
// exist in the type-code space but are only ever carried via Binary.
const (
	TypeNone       Type = 0
	TypeSZ         Type = 1
	TypeExpandSZ   Type = 2
	TypeBinary     Type = 3
	TypeDword      Type = 4
	TypeLink       Type = 6
	TypeMultiSZ    Type = 7
	TypeQword      Type = 11
)

// Data is the tagged payload of a registry value. Exactly one of the
// concrete types below satisfies it.
type Data interface {
	// RegType returns the type code implied by this payload's variant.
	RegType() Type
	// RawBytes returns the canonical byte encoding used for equality and
	// wire transport.
	RawBytes() []byte
	isData()
}

// String is a REG_SZ payload.
type String string

func (String) isData() {}

// RegType implements Data.
func (String) RegType() Type { return TypeSZ }

// RawBytes implements Data: UTF-16LE of the text followed by a U+0000
// terminator.
func (s String) RawBytes() []byte { return utf16Z(string(s)) }

// ExpandString is a REG_EXPAND_SZ payload.
type ExpandString string

func (ExpandString) isData() {}

// RegType implements Data.
func (ExpandString) RegType() Type { return TypeExpandSZ }

// RawBytes implements Data.
func (s ExpandString) RawBytes() []byte { return utf16Z(string(s)) }

// MultiString is a REG_MULTI_SZ payload: an ordered list of strings.
type MultiString []string

func (MultiString) isData() {}

// RegType implements Data.
func (MultiString) RegType() Type { return TypeMultiSZ }

// RawBytes implements Data: each item UTF-16LE-encoded and
// U+0000-terminated, followed by an additional U+0000 terminator.
func (m MultiString) RawBytes() []byte {
	var buf bytes.Buffer
	for _, s := range m {
		buf.Write(utf16Z(s))
	}
	buf.Write([]byte{0, 0})
	return buf.Bytes()
}

// Dword is a REG_DWORD payload.
type Dword uint32

func (Dword) isData() {}

// RegType implements Data.
func (Dword) RegType() Type { return TypeDword }

// RawBytes implements Data: 4 little-endian bytes.
func (d Dword) RawBytes() []byte {
	b := make([]byte, 4)
	binary.LittleEndian.PutUint32(b, uint32(d))
	return b
}

// Qword is a REG_QWORD payload.
type Qword uint64

func (Qword) isData() {}

// RegType implements Data.
func (Qword) RegType() Type { return TypeQword }

// RawBytes implements Data: 8 little-endian bytes.
func (q Qword) RawBytes() []byte {
	b := make([]byte, 8)
	binary.LittleEndian.PutUint64(b, uint64(q))
	return b
}

// Binary is an arbitrary-typed payload. It carries its own type code so
// that non-canonical Windows types round-trip faithfully.
type Binary struct {
	Bytes   []byte
	AsType Type
}

func (Binary) isData() {}

// RegType implements Data: the carried type code, not necessarily
// TypeBinary.
func (b Binary) RegType() Type { return b.AsType }

// RawBytes implements Data: the payload as-is.
func (b Binary) RawBytes() []byte { return append([]byte(nil), b.Bytes...) }

// Value is a named (name, payload) pair attached to a key.
type Value struct {
	Name string
	Data Data
}

// New constructs a Value.
func New(name string, data Data) Value {
	return Value{Name: name, Data: data}
}

// RegType returns the value's type code.
func (v Value) RegType() Type { return v.Data.RegType() }

// RawBytes returns the value's canonical raw bytes.
func (v Value) RawBytes() []byte { return v.Data.RawBytes() }

// Equal reports whether two values are comparator-equal: their type codes
// and canonical raw bytes are both equal.
func Equal(a, b Value) bool {
	return a.RegType() == b.RegType() && bytes.Equal(a.RawBytes(), b.RawBytes())
}

// String renders a short human-readable summary of the value, used in test
// failure messages and %v formatting. It is not the wire format.
func (v Value) String() string {
	return fmt.Sprintf("%s(%s)=%d bytes", v.Name, v.RegType(), len(v.RawBytes()))
}

// String renders a type code's canonical name, falling back to a numeric
// label for unknown codes.
func (t Type) String() string {
	switch t {
	case TypeNone:
		return "REG_NONE"
	case TypeSZ:
		return "REG_SZ"
	case TypeExpandSZ:
		return "REG_EXPAND_SZ"
	case TypeBinary:
		return "REG_BINARY"
	case TypeDword:
		return "REG_DWORD"
	case TypeLink:
		return "REG_LINK"
	case TypeMultiSZ:
		return "REG_MULTI_SZ"
	case TypeQword:
		return "REG_QWORD"
	default:
		return fmt.Sprintf("UNKNOWN_TYPE_%d", uint32(t))
	}
}

// utf16Z encodes s as UTF-16LE followed by a single U+0000 terminator.
func utf16Z(s string) []byte {
	words := utf16.Encode([]rune(s))
	buf := make([]byte, len(words)*2+2)
	for i, w := range words {
		binary.LittleEndian.PutUint16(buf[i*2:], w)
	}
	return buf
}

// decodeUTF16LE decodes UTF-16LE bytes (without any terminator handling)
// into a string. Callers are expected to have already stripped trailing
// U+0000 terminators.
func decodeUTF16LE(b []byte) string {
	if len(b)%2 == 1 {
		b = b[:len(b)-1]
	}
	words := make([]uint16, len(b)/2)
	for i := range words {
		words[i] = binary.LittleEndian.Uint16(b[i*2:])
	}
	return string(utf16.Decode(words))
}

// DecodeUTF16LE exposes decodeUTF16LE for callers outside this package that
// need to turn UTF-16LE bytes back into text (e.g. regtext.DecodeSource
// decoding UTF-16LE registry input).
func DecodeUTF16LE(b []byte) string { return decodeUTF16LE(b) }
