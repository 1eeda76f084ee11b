package regpatch

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/asLody/winereg/pkg/regdiff"
	"github.com/asLody/winereg/pkg/regtree"
	"github.com/asLody/winereg/pkg/regvalue"
)

func TestApplyEmptyChangeListIsNoop(t *testing.T) {
	root := regtree.CreateRoot()
	root.CreateKeyRecursive(`SOFTWARE\Example`)
	res := Apply(root, nil, DefaultOptions())
	assert.True(t, res.IsSuccess())
	assert.Equal(t, 0, res.TotalCount())
}

func TestApplyOrderingKeyBeforeValue(t *testing.T) {
	root := regtree.CreateRoot()
	changes := []regdiff.Change{
		regdiff.ValueAdded{KeyPath: `A\B`, ValueName: "V", New: regvalue.New("V", regvalue.Dword(1))},
		regdiff.KeyAdded{KeyPath: `A\B`},
		regdiff.KeyAdded{KeyPath: `A`},
	}
	res := Apply(root, changes, DefaultOptions())
	require.True(t, res.IsSuccess())
	key := root.FindKey(`A\B`)
	require.NotNil(t, key)
	v, ok := key.GetValue("V")
	require.True(t, ok)
	assert.Equal(t, regvalue.Dword(1), v.Data)
}

func TestApplyRespectsCreateMissingKeysFlag(t *testing.T) {
	root := regtree.CreateRoot()
	changes := []regdiff.Change{regdiff.KeyAdded{KeyPath: `SOFTWARE\Missing\Child`}}
	opts := DefaultOptions()
	opts.CreateMissingKeys = false

	res := Apply(root, changes, opts)
	assert.False(t, res.IsSuccess())
	assert.Equal(t, 0, res.AppliedCount())
	assert.GreaterOrEqual(t, res.FailedCount(), 1)
	assert.Nil(t, root.FindKey(`SOFTWARE\Missing\Child`))
}

func TestApplyEmptyChainCleanup(t *testing.T) {
	root := regtree.CreateRoot()
	leaf := root.CreateKeyRecursive(`SOFTWARE\Temp\Leaf`)
	leaf.SetValue(regvalue.New("Only", regvalue.Dword(1)))

	changes := []regdiff.Change{
		regdiff.ValueDeleted{KeyPath: `SOFTWARE\Temp\Leaf`, ValueName: "Only", Old: regvalue.New("Only", regvalue.Dword(1))},
	}
	res := Apply(root, changes, DefaultOptions())
	require.True(t, res.IsSuccess())

	assert.Nil(t, root.FindKey(`SOFTWARE\Temp\Leaf`))
	assert.Nil(t, root.FindKey(`SOFTWARE\Temp`))
}

func TestApplyEmptyChainStopsAtNonEmptyAncestor(t *testing.T) {
	root := regtree.CreateRoot()
	leaf := root.CreateKeyRecursive(`SOFTWARE\Temp\Leaf`)
	leaf.SetValue(regvalue.New("Only", regvalue.Dword(1)))
	root.CreateKeyRecursive(`SOFTWARE\Sibling`)

	changes := []regdiff.Change{
		regdiff.ValueDeleted{KeyPath: `SOFTWARE\Temp\Leaf`, ValueName: "Only", Old: regvalue.New("Only", regvalue.Dword(1))},
	}
	res := Apply(root, changes, DefaultOptions())
	require.True(t, res.IsSuccess())

	assert.Nil(t, root.FindKey(`SOFTWARE\Temp`))
	assert.NotNil(t, root.FindKey(`SOFTWARE`))
	assert.NotNil(t, root.FindKey(`SOFTWARE\Sibling`))
}

func TestDiffRoundTrip(t *testing.T) {
	a := regtree.CreateRoot()
	b := regtree.CreateRoot()
	ex := b.CreateKeyRecursive(`SOFTWARE\Example`)
	ex.SetValue(regvalue.New("Version", regvalue.String("1.2.3")))
	ex.SetValue(regvalue.New("Enabled", regvalue.Dword(1)))

	result := regdiff.Compare(a, b)
	text := ExportDiff(result, ExportOptions{})

	parsed, err := ParseDiff(text)
	require.NoError(t, err)
	assert.Equal(t, len(result.Changes), len(parsed))

	applyRes := Apply(a, parsed, DefaultOptions())
	require.True(t, applyRes.IsSuccess())

	after := regdiff.Compare(a, b)
	assert.False(t, after.HasChanges())
}

func TestDiffNoChanges(t *testing.T) {
	a := regtree.CreateRoot()
	result := regdiff.Compare(a, a)
	text := ExportDiff(result, ExportOptions{})
	assert.Contains(t, text, "# No changes")
}
