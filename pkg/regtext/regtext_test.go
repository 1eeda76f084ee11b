package regtext

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/asLody/winereg/pkg/regtree"
	"github.com/asLody/winereg/pkg/regvalue"
)

func TestParseMinimal(t *testing.T) {
	input := "WINE REGISTRY Version 2\n" +
		";; All keys relative to HKEY_CURRENT_USER\n" +
		"\n" +
		`[Software\\TextCase]` + "\n" +
		`"Value"="Hello"` + "\n"

	res, err := ParseText(input)
	require.NoError(t, err)
	assert.Equal(t, "HKEY_CURRENT_USER", res.RelativeBase)

	key := res.Root.FindKey(`Software\TextCase`)
	require.NotNil(t, key)
	v, ok := key.GetValue("Value")
	require.True(t, ok)
	assert.Equal(t, regvalue.String("Hello").RawBytes(), v.RawBytes())
}

func TestParseArchAndQwordHexB(t *testing.T) {
	input := "WINE REGISTRY Version 2\n" +
		"\n#arch=win64\n" +
		`[Software\\ArchTest]` + "\n" +
		`"QWORD"=hex(b):01,00,00,00,00,00,00,00` + "\n"

	res, err := ParseText(input)
	require.NoError(t, err)
	assert.Equal(t, ArchWin64Value, res.Architecture)

	key := res.Root.FindKey(`Software\ArchTest`)
	require.NotNil(t, key)
	v, ok := key.GetValue("QWORD")
	require.True(t, ok)
	assert.Equal(t, regvalue.Qword(1), v.Data)
}

func TestParseRejectsBadHeader(t *testing.T) {
	_, err := ParseText("NOT A HEADER\n")
	require.Error(t, err)
	assert.True(t, IsHeaderError(err))
}

func TestParseValueOutsideKeyFails(t *testing.T) {
	input := "WINE REGISTRY Version 2\n" + `"Orphan"="x"` + "\n"
	_, err := ParseText(input)
	require.Error(t, err)
	assert.True(t, IsLineError(err))
}

func TestWriteRoundTripMinimal(t *testing.T) {
	res, err := ParseText("WINE REGISTRY Version 2\n" +
		`[Software\\TextCase]` + "\n" +
		`"Value"="Hello"` + "\n")
	require.NoError(t, err)

	out := WriteString(res.Root, WriteOptions{})
	assert.Contains(t, out, FileHeader)
	assert.Contains(t, out, `"Value"="Hello"`)

	res2, err := ParseText(out)
	require.NoError(t, err)
	key2 := res2.Root.FindKey(`Software\TextCase`)
	require.NotNil(t, key2)
	v2, ok := key2.GetValue("Value")
	require.True(t, ok)
	assert.True(t, regvalue.Equal(regvalue.New("Value", regvalue.String("Hello")), v2))
}

func TestWriteQwordAlwaysHexB(t *testing.T) {
	root := regtree.CreateRoot()
	root.SetValue(regvalue.New("Q", regvalue.Qword(1)))
	out := WriteString(root, WriteOptions{})
	assert.Contains(t, out, "hex(b):01,00,00,00,00,00,00,00")
	assert.NotContains(t, out, "qword:")
}

func TestArchitectureFromTagUnknown(t *testing.T) {
	_, ok := ArchitectureFromTag("sparc")
	assert.False(t, ok)
}

func TestCommentTrailingBackslashDoesNotSwallowNextLine(t *testing.T) {
	input := "WINE REGISTRY Version 2\n" +
		`; a trailing note \` + "\n" +
		`[Software\\AfterComment]` + "\n" +
		`"Value"="Hello"` + "\n"

	res, err := ParseText(input)
	require.NoError(t, err)

	key := res.Root.FindKey(`Software\AfterComment`)
	require.NotNil(t, key)
	v, ok := key.GetValue("Value")
	require.True(t, ok)
	assert.Equal(t, regvalue.String("Hello").RawBytes(), v.RawBytes())
}

func TestValueLineContinuationStillJoins(t *testing.T) {
	input := "WINE REGISTRY Version 2\n" +
		`[Software\\Wrapped]` + "\n" +
		`"Long"=hex:01,02,\` + "\n" +
		`  03,04` + "\n"

	res, err := ParseText(input)
	require.NoError(t, err)

	key := res.Root.FindKey(`Software\Wrapped`)
	require.NotNil(t, key)
	v, ok := key.GetValue("Long")
	require.True(t, ok)
	bin, ok := v.Data.(regvalue.Binary)
	require.True(t, ok)
	assert.Equal(t, []byte{0x01, 0x02, 0x03, 0x04}, bin.Bytes)
}

func TestParsedTreeIsNotDirty(t *testing.T) {
	input := "WINE REGISTRY Version 2\n" +
		`[Software\\A\\B]` + "\n" +
		`"V"="x"` + "\n"

	res, err := ParseText(input)
	require.NoError(t, err)

	assert.False(t, res.Root.IsDirty)
	a := res.Root.FindKey("Software")
	require.NotNil(t, a)
	assert.False(t, a.IsDirty)
	b := res.Root.FindKey(`Software\A\B`)
	require.NotNil(t, b)
	assert.False(t, b.IsDirty)
}
