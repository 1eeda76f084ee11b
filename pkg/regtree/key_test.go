package regtree

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/asLody/winereg/pkg/regvalue"
)

func TestCreateKeyRecursiveIdempotent(t *testing.T) {
	root := CreateRoot()
	k1 := root.CreateKeyRecursive(`SOFTWARE\TestApp`)
	k2 := root.CreateKeyRecursive(`SOFTWARE\TestApp`)
	assert.Same(t, k1, k2)
}

func TestCaseInsensitiveLookup(t *testing.T) {
	root := CreateRoot()
	root.CreateSubkey("Software")
	k, ok := root.GetSubkey("SOFTWARE")
	require.True(t, ok)
	k2, ok := root.GetSubkey("software")
	require.True(t, ok)
	assert.Same(t, k, k2)
}

func TestFreshTreeNotDirty(t *testing.T) {
	root := CreateRoot()
	child := root.CreateSubkeyForLoading("Software")
	child.SetValueForLoading(regvalue.New("X", regvalue.String("y")))
	assert.False(t, root.IsDirty)
	assert.False(t, child.IsDirty)
}

func TestCreateSubkeyDirtiesChain(t *testing.T) {
	root := CreateRoot()
	child := root.CreateSubkey("Software")
	assert.True(t, root.IsDirty)
	assert.True(t, child.IsDirty)
}

func TestDirtyPropagatesToRoot(t *testing.T) {
	root := CreateRoot()
	a := root.CreateSubkey("A")
	b := a.CreateSubkey("B")
	// creation itself dirties; reset to isolate SetValue's propagation
	root.IsDirty, a.IsDirty, b.IsDirty = false, false, false
	b.SetValue(regvalue.New("V", regvalue.Dword(1)))
	assert.True(t, root.IsDirty)
	assert.True(t, a.IsDirty)
	assert.True(t, b.IsDirty)
}

func TestDeleteSubkeyNonRecursiveRefusesNonEmpty(t *testing.T) {
	root := CreateRoot()
	a := root.CreateSubkey("A")
	a.CreateSubkey("B")
	assert.False(t, root.DeleteSubkey("A", false))
	assert.True(t, root.DeleteSubkey("A", true))
	_, ok := root.GetSubkey("A")
	assert.False(t, ok)
}

func TestFullPathDoubledBackslash(t *testing.T) {
	root := CreateRoot()
	k := root.CreateKeyRecursive(`SOFTWARE\TestApp`)
	assert.Equal(t, `SOFTWARE\\TestApp`, k.FullPath())
}

func TestFindKeyMissingSegment(t *testing.T) {
	root := CreateRoot()
	root.CreateSubkey("SOFTWARE")
	assert.Nil(t, root.FindKey(`SOFTWARE\Missing`))
}

func TestFiletimeRoundTrip(t *testing.T) {
	ft := TimestampToFILETIME(1000)
	assert.Equal(t, uint64(1000), FILETimeToTimestamp(ft))
}
