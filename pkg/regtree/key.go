// Package regtree implements the in-memory registry tree: keys, their
// case-insensitive subkey and value maps, and dirty propagation.
package regtree

import (
	"sort"
	"strings"
	"time"

	"github.com/asLody/winereg/pkg/regvalue"
)

// FILETIME tick constants. FILETIME is an unsigned 64-bit count of 100-ns
// ticks since 1601-01-01 UTC.
const (
	TicksPerSec      uint64 = 10_000_000
	Ticks1601To1970  uint64 = 86400 * (369*365 + 89) * TicksPerSec
)

// TimestampToFILETIME converts a POSIX second count to a FILETIME.
func TimestampToFILETIME(sec uint64) uint64 {
	return sec*TicksPerSec + Ticks1601To1970
}

// FILETimeToTimestamp converts a FILETIME to a POSIX second count. Valid
// for FILETIMEs at or after the 1970 epoch.
func FILETimeToTimestamp(ft uint64) uint64 {
	return (ft - Ticks1601To1970) / TicksPerSec
}

// Key is a node in the registry tree. Parent is a non-owning back-reference
// used only for path reconstruction, never for lifetime: Go's garbage
// collector keeps a parent alive as long as any child is reachable, so
// there is no weak-handle promotion dance to manage here.
type Key struct {
	Name             string
	ClassName        *string
	ModificationTime uint64
	IsSymlink        bool
	IsVolatile       bool
	IsDirty          bool

	Parent *Key

	subkeys map[string]*Key // keyed by folded name
	values  map[string]regvalue.Value
}

// CreateRoot returns a fresh, empty root key. Its name is the empty
// string; no other key in a well-formed tree has an empty name.
func CreateRoot() *Key {
	return &Key{
		subkeys: make(map[string]*Key),
		values:  make(map[string]regvalue.Value),
	}
}

func newChild(name string, parent *Key) *Key {
	return &Key{
		Name:    name,
		Parent:  parent,
		subkeys: make(map[string]*Key),
		values:  make(map[string]regvalue.Value),
	}
}

// fold returns the uppercased form of s via strings.ToUpper. ASCII a-z fold
// to A-Z, and non-ASCII letters that have an uppercase form are folded as
// well; the comparator folds names the same way.
func fold(s string) string {
	return strings.ToUpper(s)
}

// Subkeys returns the key's direct children in folded-name (lexicographic)
// order. The returned slice is a snapshot: mutating the tree afterward does
// not affect it, matching the snapshot-before-recurse discipline the
// comparator and writer both rely on.
func (k *Key) Subkeys() []*Key {
	names := make([]string, 0, len(k.subkeys))
	for n := range k.subkeys {
		names = append(names, n)
	}
	sort.Strings(names)
	out := make([]*Key, len(names))
	for i, n := range names {
		out[i] = k.subkeys[n]
	}
	return out
}

// Values returns the key's values in folded-name order, a snapshot like
// Subkeys.
func (k *Key) Values() []regvalue.Value {
	names := make([]string, 0, len(k.values))
	for n := range k.values {
		names = append(names, n)
	}
	sort.Strings(names)
	out := make([]regvalue.Value, len(names))
	for i, n := range names {
		out[i] = k.values[n]
	}
	return out
}

// GetSubkey looks up a direct child by name, case-insensitively.
func (k *Key) GetSubkey(segment string) (*Key, bool) {
	c, ok := k.subkeys[fold(segment)]
	return c, ok
}

// GetValue looks up a value by name, case-insensitively.
func (k *Key) GetValue(name string) (regvalue.Value, bool) {
	v, ok := k.values[fold(name)]
	return v, ok
}

// MarkDirty sets IsDirty on k and walks up through Parent setting it on
// every ancestor, unconditionally, all the way to the root.
func (k *Key) MarkDirty() {
	for n := k; n != nil; n = n.Parent {
		n.IsDirty = true
	}
}

// CreateSubkey is idempotent: it returns the existing child under segment's
// folded name if one exists, otherwise it inserts a new dirty child with a
// parent back-reference and dirties the ancestor chain.
func (k *Key) CreateSubkey(segment string) *Key {
	f := fold(segment)
	if c, ok := k.subkeys[f]; ok {
		return c
	}
	c := newChild(segment, k)
	k.subkeys[f] = c
	c.MarkDirty()
	return c
}

// CreateKeyRecursive splits path on backslash, skipping empty segments, and
// creates or reuses each segment under k. An empty path returns k itself.
func (k *Key) CreateKeyRecursive(path string) *Key {
	cur := k
	for _, seg := range splitPath(path) {
		cur = cur.CreateSubkey(seg)
	}
	return cur
}

// CreateSubkeyForLoading is CreateSubkey's non-dirtying counterpart, used by
// the parser: a freshly parsed tree must have every key's dirty flag false.
func (k *Key) CreateSubkeyForLoading(segment string) *Key {
	f := fold(segment)
	if c, ok := k.subkeys[f]; ok {
		return c
	}
	c := newChild(segment, k)
	k.subkeys[f] = c
	return c
}

// CreateKeyRecursiveForLoading is CreateKeyRecursive's non-dirtying
// counterpart, used by the parser.
func (k *Key) CreateKeyRecursiveForLoading(path string) *Key {
	cur := k
	for _, seg := range splitPath(path) {
		cur = cur.CreateSubkeyForLoading(seg)
	}
	return cur
}

// FindKey splits path the same way as CreateKeyRecursive but only looks
// up existing segments, returning nil if any segment is absent.
func (k *Key) FindKey(path string) *Key {
	cur := k
	for _, seg := range splitPath(path) {
		child, ok := cur.GetSubkey(seg)
		if !ok {
			return nil
		}
		cur = child
	}
	return cur
}

// SetValue inserts or overwrites v under its folded name and dirties the
// ancestor chain.
func (k *Key) SetValue(v regvalue.Value) {
	k.values[fold(v.Name)] = v
	k.MarkDirty()
}

// SetValueForLoading is the loading-only variant used by the parser: it
// performs the same insert without marking anything dirty, since freshly
// parsed trees are not dirty.
func (k *Key) SetValueForLoading(v regvalue.Value) {
	k.values[fold(v.Name)] = v
}

// DeleteValue removes a value by name, reporting whether one was removed.
// Dirties the chain on success.
func (k *Key) DeleteValue(name string) bool {
	f := fold(name)
	if _, ok := k.values[f]; !ok {
		return false
	}
	delete(k.values, f)
	k.MarkDirty()
	return true
}

// DeleteSubkey removes the named child. If recursive is false and the
// target has any subkeys of its own, the operation fails and returns
// false; otherwise the subkey is removed and the chain is dirtied.
func (k *Key) DeleteSubkey(name string, recursive bool) bool {
	f := fold(name)
	child, ok := k.subkeys[f]
	if !ok {
		return false
	}
	if !recursive && len(child.subkeys) > 0 {
		return false
	}
	delete(k.subkeys, f)
	k.MarkDirty()
	return true
}

// IsEmpty reports whether k has no values and no subkeys.
func (k *Key) IsEmpty() bool {
	return len(k.values) == 0 && len(k.subkeys) == 0
}

// FullPath walks parent back-references collecting non-empty names and
// joins them with a doubled backslash. This is a display form only; it is
// not the canonical single-backslash storage key used internally by the
// comparator and patcher.
func (k *Key) FullPath() string {
	var segs []string
	for n := k; n != nil; n = n.Parent {
		if n.Name != "" {
			segs = append([]string{n.Name}, segs...)
		}
	}
	return strings.Join(segs, `\\`)
}

// SetCurrentTimeRecursive sets ModificationTime on k and every descendant
// to the current wall-clock FILETIME.
func (k *Key) SetCurrentTimeRecursive() {
	ft := TimestampToFILETIME(uint64(time.Now().Unix()))
	var walk func(*Key)
	walk = func(n *Key) {
		n.ModificationTime = ft
		for _, c := range n.Subkeys() {
			walk(c)
		}
	}
	walk(k)
}

// splitPath splits a single-backslash-joined path into its segments,
// discarding empty segments produced by leading/trailing/doubled
// separators.
func splitPath(path string) []string {
	if path == "" {
		return nil
	}
	raw := strings.Split(path, `\`)
	out := make([]string, 0, len(raw))
	for _, s := range raw {
		if s != "" {
			out = append(out, s)
		}
	}
	return out
}
