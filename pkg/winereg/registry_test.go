package winereg

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/asLody/winereg/pkg/regvalue"
)

func TestBuilderAndTypes(t *testing.T) {
	reg := New()
	reg.Modify(func(c *KeyCursor) {
		c.Key(`MACHINE\SOFTWARE\TestApp`, func(c *KeyCursor) {
			c.Value("Version", "1.0.0")
			c.Dword("Enabled", 1)
			c.ExpandString("Path", `%ProgramFiles%\Test`)
			c.MultiString("Items", []string{"a", "b"})
		})
	})

	key := reg.Get(`MACHINE\SOFTWARE\TestApp`)
	require.NotNil(t, key)

	version, ok := key.GetValue("Version")
	require.True(t, ok)
	assert.Equal(t, regvalue.TypeSZ, version.RegType())

	enabled, ok := key.GetValue("Enabled")
	require.True(t, ok)
	assert.Len(t, enabled.RawBytes(), 4)

	// case-insensitive lookup
	sameVersion, ok := key.GetValue("version")
	require.True(t, ok)
	assert.Equal(t, version, sameVersion)
}

func TestLoadSaveRoundTrip(t *testing.T) {
	text := "WINE REGISTRY Version 2\n" +
		`[Software\\TestCase]` + "\n" +
		`"Value"="Hello"` + "\n"

	reg, err := LoadText(text)
	require.NoError(t, err)

	out := reg.SaveText()
	reg2, err := LoadText(out)
	require.NoError(t, err)

	v1, _ := reg.Get(`Software\TestCase`).GetValue("Value")
	v2, _ := reg2.Get(`Software\TestCase`).GetValue("Value")
	assert.True(t, regvalue.Equal(v1, v2))
}

func TestCompareAndApplyPatch(t *testing.T) {
	a := New()
	b := New()
	b.Modify(func(c *KeyCursor) {
		c.Key(`SOFTWARE\Example`, func(c *KeyCursor) {
			c.Value("Version", "1.2.3")
			c.Dword("Enabled", 1)
		})
	})

	diff := a.ComparedTo(b)
	assert.True(t, diff.HasChanges())

	result := a.ApplyPatch(diff.Changes, DefaultPatchOptions())
	require.True(t, result.IsSuccess())

	after := a.ComparedTo(b)
	assert.False(t, after.HasChanges())
}

func TestReplaceKeyOnFreshKeyIsPlainCreate(t *testing.T) {
	reg := New()
	reg.Modify(func(c *KeyCursor) {
		c.ReplaceKey(`SOFTWARE\Fresh`, func(c *KeyCursor) {
			c.Value("X", "y")
		})
	})
	key := reg.Get(`SOFTWARE\Fresh`)
	require.NotNil(t, key)
	_, ok := key.GetValue("X")
	assert.True(t, ok)
}

func TestReplaceKeyWipesExistingContents(t *testing.T) {
	reg := New()
	reg.Modify(func(c *KeyCursor) {
		c.Key(`SOFTWARE\App`, func(c *KeyCursor) {
			c.Value("Old", "gone")
			c.Key("Stale", nil)
		})
	})
	reg.Modify(func(c *KeyCursor) {
		c.ReplaceKey(`SOFTWARE\App`, func(c *KeyCursor) {
			c.Value("New", "here")
		})
	})
	key := reg.Get(`SOFTWARE\App`)
	require.NotNil(t, key)
	_, hasOld := key.GetValue("Old")
	assert.False(t, hasOld)
	_, hasNew := key.GetValue("New")
	assert.True(t, hasNew)
	assert.Nil(t, reg.Get(`SOFTWARE\App\Stale`))
}
