package regvalue

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStringRawBytes(t *testing.T) {
	v := New("Version", String("1.0.0"))
	assert.Equal(t, TypeSZ, v.RegType())
	raw := v.RawBytes()
	require.True(t, len(raw) >= 2)
	assert.Equal(t, byte(0), raw[len(raw)-2])
	assert.Equal(t, byte(0), raw[len(raw)-1])
}

func TestDwordRawBytesLength(t *testing.T) {
	v := New("Enabled", Dword(1))
	assert.Len(t, v.RawBytes(), 4)
	assert.Equal(t, TypeDword, v.RegType())
}

func TestQwordRoundTrip(t *testing.T) {
	v := New("QWORD", Qword(1))
	raw := v.RawBytes()
	require.Len(t, raw, 8)
	assert.Equal(t, byte(1), raw[0])
	for _, b := range raw[1:] {
		assert.Equal(t, byte(0), b)
	}
}

func TestMultiStringRawBytes(t *testing.T) {
	v := New("Items", MultiString{"a", "b"})
	raw := v.RawBytes()
	// "a\0" + "b\0" + "\0" in UTF-16LE => (2+2)+(2+2)+2 = 10 bytes
	assert.Equal(t, 10, len(raw))
}

func TestBinaryCarriesArbitraryType(t *testing.T) {
	v := New("Opaque", Binary{Bytes: []byte{1, 2, 3}, AsType: Type(42)})
	assert.Equal(t, Type(42), v.RegType())
	assert.Equal(t, []byte{1, 2, 3}, v.RawBytes())
}

func TestEqual(t *testing.T) {
	a := New("X", String("hi"))
	b := New("X", String("hi"))
	c := New("X", String("bye"))
	assert.True(t, Equal(a, b))
	assert.False(t, Equal(a, c))
}

func TestTypeStringUnknown(t *testing.T) {
	assert.Equal(t, "UNKNOWN_TYPE_99", Type(99).String())
	assert.Equal(t, "REG_QWORD", TypeQword.String())
}
