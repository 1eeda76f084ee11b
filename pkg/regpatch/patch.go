// Package regpatch implements the patch application engine: re-ordering a
// change list into dependency-correct phases, applying it to a tree, and
// recording applied/failed outcomes. It also implements the textual diff
// codec, the wire form of a change list.
package regpatch

import (
	"strings"

	"github.com/asLody/winereg/pkg/regdiff"
	"github.com/asLody/winereg/pkg/regtree"
	"github.com/asLody/winereg/pkg/regvalue"
)

// Options controls how a change list is applied.
type Options struct {
	// IgnoreFailures continues applying remaining changes after a
	// failure instead of stopping at the first one.
	IgnoreFailures bool
	// CreateMissingKeys creates intermediate keys as needed for
	// KeyAdded/ValueAdded. When false, KeyAdded requires the parent to
	// already exist.
	CreateMissingKeys bool
	// OverwriteExistingValues allows ValueAdded to replace a value that
	// already exists. When false, ValueAdded fails on a name collision.
	OverwriteExistingValues bool
	// DeleteEmptyKeys walks upward from a deleted value's key, removing
	// any ancestor that has become empty.
	DeleteEmptyKeys bool
	// ValidateBeforeApply requires ValueModified's recorded "old" value
	// to match the tree's current value before applying "new".
	ValidateBeforeApply bool
}

// DefaultOptions returns safe defaults: failures not ignored, missing keys
// created, overwrites allowed, empty chains cleaned, no validation.
func DefaultOptions() Options {
	return Options{
		IgnoreFailures:          false,
		CreateMissingKeys:       true,
		OverwriteExistingValues: true,
		DeleteEmptyKeys:         true,
		ValidateBeforeApply:     false,
	}
}

// Failure records a change that could not be applied.
type Failure struct {
	Change regdiff.Change
	Reason string
}

// Result is the patcher's report.
type Result struct {
	Applied        []regdiff.Change
	Failed         []Failure
	IgnoreFailures bool
}

// AppliedCount returns the number of successfully applied changes.
func (r Result) AppliedCount() int { return len(r.Applied) }

// FailedCount returns the number of failed changes.
func (r Result) FailedCount() int { return len(r.Failed) }

// TotalCount returns applied + failed.
func (r Result) TotalCount() int { return len(r.Applied) + len(r.Failed) }

// IsSuccess is true when there were no failures, or IgnoreFailures was set.
func (r Result) IsSuccess() bool {
	return len(r.Failed) == 0 || r.IgnoreFailures
}

// Apply orders changes into the six dependency-correct phases and applies
// each in turn against root, stopping at the first failure unless
// opts.IgnoreFailures is set.
func Apply(root *regtree.Key, changes []regdiff.Change, opts Options) Result {
	ordered := orderChanges(changes)
	result := Result{IgnoreFailures: opts.IgnoreFailures}

	for _, c := range ordered {
		ok, reason := applyChange(root, c, opts)
		if ok {
			result.Applied = append(result.Applied, c)
			continue
		}
		if reason == "" {
			reason = "unable to apply change"
		}
		result.Failed = append(result.Failed, Failure{Change: c, Reason: reason})
		if !opts.IgnoreFailures {
			break
		}
	}
	return result
}

// orderChanges partitions changes into six dependency-correct phases and
// concatenates them, sorting KeyAdded by ascending depth and KeyDeleted by
// descending depth (depth measured by the number of backslashes in the
// path). Changes within a phase retain their input relative order except
// where a sort is specified.
func orderChanges(changes []regdiff.Change) []regdiff.Change {
	var keyAdded, keyModified, valueAdded, valueModified, valueDeleted, keyDeleted []regdiff.Change

	for _, c := range changes {
		switch c.(type) {
		case regdiff.KeyAdded:
			keyAdded = append(keyAdded, c)
		case regdiff.KeyModified:
			keyModified = append(keyModified, c)
		case regdiff.ValueAdded:
			valueAdded = append(valueAdded, c)
		case regdiff.ValueModified:
			valueModified = append(valueModified, c)
		case regdiff.ValueDeleted:
			valueDeleted = append(valueDeleted, c)
		case regdiff.KeyDeleted:
			keyDeleted = append(keyDeleted, c)
		}
	}

	stableSortByDepth(keyAdded, true)
	stableSortByDepth(keyDeleted, false)

	out := make([]regdiff.Change, 0, len(changes))
	out = append(out, keyAdded...)
	out = append(out, keyModified...)
	out = append(out, valueAdded...)
	out = append(out, valueModified...)
	out = append(out, valueDeleted...)
	out = append(out, keyDeleted...)
	return out
}

func depth(path string) int {
	return strings.Count(path, `\`)
}

// stableSortByDepth performs a stable insertion sort on cs by depth(path),
// ascending if asc is true, descending otherwise. A stable insertion sort
// is used (rather than sort.SliceStable) to keep the ordering logic
// transparent and mirror the "retain input relative order except where a
// sort is specified" rule exactly.
func stableSortByDepth(cs []regdiff.Change, asc bool) {
	for i := 1; i < len(cs); i++ {
		for j := i; j > 0; j-- {
			di := depth(cs[j].Path())
			dj := depth(cs[j-1].Path())
			swap := di < dj
			if !asc {
				swap = di > dj
			}
			if !swap {
				break
			}
			cs[j], cs[j-1] = cs[j-1], cs[j]
		}
	}
}

func applyChange(root *regtree.Key, c regdiff.Change, opts Options) (bool, string) {
	switch change := c.(type) {
	case regdiff.KeyAdded:
		return applyKeyAdded(root, change, opts)
	case regdiff.KeyDeleted:
		return applyKeyDeleted(root, change)
	case regdiff.KeyModified:
		return applyKeyModified(root, change)
	case regdiff.ValueAdded:
		return applyValueAdded(root, change, opts)
	case regdiff.ValueModified:
		return applyValueModified(root, change, opts)
	case regdiff.ValueDeleted:
		return applyValueDeleted(root, change, opts)
	default:
		return false, "unknown change type"
	}
}

func splitParent(path string) (parent, leaf string, hasParent bool) {
	idx := strings.LastIndex(path, `\`)
	if idx < 0 {
		return "", path, false
	}
	return path[:idx], path[idx+1:], true
}

func applyKeyAdded(root *regtree.Key, c regdiff.KeyAdded, opts Options) (bool, string) {
	if opts.CreateMissingKeys {
		root.CreateKeyRecursive(c.KeyPath)
		return true, ""
	}
	parentPath, _, hasParent := splitParent(c.KeyPath)
	if !hasParent {
		root.CreateKeyRecursive(c.KeyPath)
		return true, ""
	}
	if root.FindKey(parentPath) == nil {
		return false, "missing key"
	}
	root.CreateKeyRecursive(c.KeyPath)
	return true, ""
}

func applyKeyDeleted(root *regtree.Key, c regdiff.KeyDeleted) (bool, string) {
	parentPath, leaf, hasParent := splitParent(c.KeyPath)
	var parent *regtree.Key
	if hasParent {
		parent = root.FindKey(parentPath)
	} else {
		parent = root
	}
	if parent == nil {
		return false, "missing key"
	}
	if !parent.DeleteSubkey(leaf, true) {
		return false, "unable to apply change"
	}
	return true, ""
}

func applyKeyModified(root *regtree.Key, c regdiff.KeyModified) (bool, string) {
	key := root.FindKey(c.KeyPath)
	if key == nil {
		return false, "missing key"
	}
	for _, p := range c.Props {
		switch prop := p.(type) {
		case regdiff.ClassNameChange:
			key.ClassName = prop.New
		case regdiff.SymlinkChange:
			key.IsSymlink = prop.New
		case regdiff.VolatileChange:
			key.IsVolatile = prop.New
		}
	}
	key.MarkDirty()
	return true, ""
}

func resolveKeyForValue(root *regtree.Key, path string, create bool) *regtree.Key {
	if create {
		return root.CreateKeyRecursive(path)
	}
	return root.FindKey(path)
}

func applyValueAdded(root *regtree.Key, c regdiff.ValueAdded, opts Options) (bool, string) {
	key := resolveKeyForValue(root, c.KeyPath, opts.CreateMissingKeys)
	if key == nil {
		return false, "missing key"
	}
	if !opts.OverwriteExistingValues {
		if _, exists := key.GetValue(c.ValueName); exists {
			return false, "value already exists"
		}
	}
	key.SetValue(c.New)
	return true, ""
}

func applyValueModified(root *regtree.Key, c regdiff.ValueModified, opts Options) (bool, string) {
	key := root.FindKey(c.KeyPath)
	if key == nil {
		return false, "missing key"
	}
	if opts.ValidateBeforeApply {
		cur, ok := key.GetValue(c.ValueName)
		if !ok || !regvalue.Equal(cur, c.Old) {
			return false, "value does not match expected old value"
		}
	}
	key.SetValue(c.New)
	return true, ""
}

func applyValueDeleted(root *regtree.Key, c regdiff.ValueDeleted, opts Options) (bool, string) {
	key := root.FindKey(c.KeyPath)
	if key == nil {
		return false, "missing key"
	}
	if !key.DeleteValue(c.ValueName) {
		return false, "unable to apply change"
	}
	if opts.DeleteEmptyKeys {
		deleteEmptyChain(root, c.KeyPath)
	}
	return true, ""
}

// deleteEmptyChain walks from path upward, deleting any key that has
// become empty, stopping at the first non-empty ancestor, a missing node,
// or a delete_subkey refusal.
func deleteEmptyChain(root *regtree.Key, path string) {
	current := path
	for current != "" {
		node := root.FindKey(current)
		if node == nil || !node.IsEmpty() {
			return
		}
		parentPath, leaf, hasParent := splitParent(current)
		var parent *regtree.Key
		if hasParent {
			parent = root.FindKey(parentPath)
		} else {
			parent = root
		}
		if parent == nil {
			return
		}
		if !parent.DeleteSubkey(leaf, false) {
			return
		}
		current = parentPath
	}
}
