// Package regdiff implements the structural comparator: walking two
// registry trees simultaneously and producing an unordered list of
// changes.
package regdiff

import (
	"sort"
	"strings"

	"github.com/asLody/winereg/pkg/regtree"
	"github.com/asLody/winereg/pkg/regvalue"
)

// Change is the tagged union of structural differences the comparator can
// produce. Exactly one of the concrete types below satisfies it.
type Change interface {
	// Path returns the change's key path (single-backslash-joined).
	Path() string
	isChange()
}

// KeyAdded records that the key at Path exists only on the right side.
type KeyAdded struct{ KeyPath string }

func (c KeyAdded) Path() string { return c.KeyPath }
func (KeyAdded) isChange()      {}

// KeyDeleted records that the key at Path exists only on the left side.
type KeyDeleted struct{ KeyPath string }

func (c KeyDeleted) Path() string { return c.KeyPath }
func (KeyDeleted) isChange()      {}

// KeyModified records that class name, symlink, or volatile flag differ
// between two keys present on both sides.
type KeyModified struct {
	KeyPath string
	Props   []KeyPropertyChange
}

func (c KeyModified) Path() string { return c.KeyPath }
func (KeyModified) isChange()      {}

// KeyPropertyChange is one of ClassNameChange, SymlinkChange, or
// VolatileChange, each carrying (old, new).
type KeyPropertyChange interface {
	isProp()
}

type ClassNameChange struct{ Old, New *string }

func (ClassNameChange) isProp() {}

type SymlinkChange struct{ Old, New bool }

func (SymlinkChange) isProp() {}

type VolatileChange struct{ Old, New bool }

func (VolatileChange) isProp() {}

// ValueAdded records a value present only on the right side of keyPath.
type ValueAdded struct {
	KeyPath   string
	ValueName string
	New       regvalue.Value
}

func (c ValueAdded) Path() string { return c.KeyPath }
func (ValueAdded) isChange()      {}

// ValueDeleted records a value present only on the left side of keyPath.
type ValueDeleted struct {
	KeyPath   string
	ValueName string
	Old       regvalue.Value
}

func (c ValueDeleted) Path() string { return c.KeyPath }
func (ValueDeleted) isChange()      {}

// ValueModified records a value present on both sides with unequal
// canonical bytes or a differing type code.
type ValueModified struct {
	KeyPath   string
	ValueName string
	Old, New  regvalue.Value
}

func (c ValueModified) Path() string { return c.KeyPath }
func (ValueModified) isChange()      {}

// Result wraps a change list with convenience queries.
type Result struct {
	Changes []Change
}

// HasChanges reports whether the change list is non-empty.
func (r Result) HasChanges() bool { return len(r.Changes) > 0 }

// AddedKeys returns only the KeyAdded changes.
func (r Result) AddedKeys() []Change {
	var out []Change
	for _, c := range r.Changes {
		if _, ok := c.(KeyAdded); ok {
			out = append(out, c)
		}
	}
	return out
}

// Compare walks l and r simultaneously from their roots and returns the
// unordered list of differences.
func Compare(l, r *regtree.Key) Result {
	var changes []Change
	compareKeys(l, r, "", &changes)
	return Result{Changes: changes}
}

func compareKeys(l, r *regtree.Key, path string, changes *[]Change) {
	switch {
	case l == nil && r != nil:
		*changes = append(*changes, KeyAdded{KeyPath: path})
		addSubtreeAdded(r, path, changes)
	case l != nil && r == nil:
		*changes = append(*changes, KeyDeleted{KeyPath: path})
		addSubtreeDeleted(l, path, changes)
	case l != nil && r != nil:
		var props []KeyPropertyChange
		if !stringPtrEqual(l.ClassName, r.ClassName) {
			props = append(props, ClassNameChange{Old: l.ClassName, New: r.ClassName})
		}
		if l.IsSymlink != r.IsSymlink {
			props = append(props, SymlinkChange{Old: l.IsSymlink, New: r.IsSymlink})
		}
		if l.IsVolatile != r.IsVolatile {
			props = append(props, VolatileChange{Old: l.IsVolatile, New: r.IsVolatile})
		}
		if len(props) > 0 {
			*changes = append(*changes, KeyModified{KeyPath: path, Props: props})
		}
		compareValues(l, r, path, changes)
		compareSubkeys(l, r, path, changes)
	}
}

func compareValues(l, r *regtree.Key, path string, changes *[]Change) {
	lVals := valuesByFoldedName(l)
	rVals := valuesByFoldedName(r)

	for _, name := range sortedKeys(rVals) {
		if _, ok := lVals[name]; !ok {
			v := rVals[name]
			*changes = append(*changes, ValueAdded{KeyPath: path, ValueName: v.Name, New: v})
		}
	}
	for _, name := range sortedKeys(lVals) {
		if _, ok := rVals[name]; !ok {
			v := lVals[name]
			*changes = append(*changes, ValueDeleted{KeyPath: path, ValueName: v.Name, Old: v})
		}
	}
	for _, name := range sortedKeys(lVals) {
		lv := lVals[name]
		if rv, ok := rVals[name]; ok {
			if !regvalue.Equal(lv, rv) {
				*changes = append(*changes, ValueModified{KeyPath: path, ValueName: lv.Name, Old: lv, New: rv})
			}
		}
	}
}

func compareSubkeys(l, r *regtree.Key, path string, changes *[]Change) {
	lSub := subkeysByFoldedName(l)
	rSub := subkeysByFoldedName(r)

	names := make(map[string]struct{})
	for n := range lSub {
		names[n] = struct{}{}
	}
	for n := range rSub {
		names[n] = struct{}{}
	}
	sorted := make([]string, 0, len(names))
	for n := range names {
		sorted = append(sorted, n)
	}
	sort.Strings(sorted)

	for _, n := range sorted {
		lc := lSub[n]
		rc := rSub[n]
		subPath := joinPath(path, n)
		compareKeys(lc, rc, subPath, changes)
	}
}

func addSubtreeAdded(node *regtree.Key, path string, changes *[]Change) {
	for _, v := range node.Values() {
		*changes = append(*changes, ValueAdded{KeyPath: path, ValueName: v.Name, New: v})
	}
	for _, sub := range node.Subkeys() {
		subPath := joinPath(path, strings.ToUpper(sub.Name))
		*changes = append(*changes, KeyAdded{KeyPath: subPath})
		addSubtreeAdded(sub, subPath, changes)
	}
}

func addSubtreeDeleted(node *regtree.Key, path string, changes *[]Change) {
	for _, v := range node.Values() {
		*changes = append(*changes, ValueDeleted{KeyPath: path, ValueName: v.Name, Old: v})
	}
	for _, sub := range node.Subkeys() {
		subPath := joinPath(path, strings.ToUpper(sub.Name))
		*changes = append(*changes, KeyDeleted{KeyPath: subPath})
		addSubtreeDeleted(sub, subPath, changes)
	}
}

func joinPath(path, name string) string {
	if path == "" {
		return name
	}
	return path + `\` + name
}

func valuesByFoldedName(k *regtree.Key) map[string]regvalue.Value {
	out := make(map[string]regvalue.Value)
	for _, v := range k.Values() {
		out[strings.ToUpper(v.Name)] = v
	}
	return out
}

func subkeysByFoldedName(k *regtree.Key) map[string]*regtree.Key {
	out := make(map[string]*regtree.Key)
	for _, c := range k.Subkeys() {
		out[strings.ToUpper(c.Name)] = c
	}
	return out
}

func sortedKeys(m map[string]regvalue.Value) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

func stringPtrEqual(a, b *string) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}
