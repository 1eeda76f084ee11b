// Package winereg is the public façade over the registry tree, textual
// codec, comparator, and patcher: load and save Wine v2 registry text,
// compare and patch trees, and build trees with a fluent cursor DSL.
package winereg

import (
	"os"

	"github.com/asLody/winereg/pkg/regdiff"
	"github.com/asLody/winereg/pkg/regpatch"
	"github.com/asLody/winereg/pkg/regtext"
	"github.com/asLody/winereg/pkg/regtree"
	"github.com/asLody/winereg/pkg/regvalue"
)

// Re-exported types for a clean public surface.
type (
	Key           = regtree.Key
	Value         = regvalue.Value
	Architecture  = regtext.Architecture
	ParseOptions  = regtext.ParseOptions
	WriteOptions  = regtext.WriteOptions
	PatchOptions  = regpatch.Options
	PatchResult   = regpatch.Result
	PatchFailure  = regpatch.Failure
	Change        = regdiff.Change
	KeyAdded      = regdiff.KeyAdded
	KeyDeleted    = regdiff.KeyDeleted
	KeyModified   = regdiff.KeyModified
	ValueAdded    = regdiff.ValueAdded
	ValueDeleted  = regdiff.ValueDeleted
	ValueModified = regdiff.ValueModified
	DiffResult    = regdiff.Result
	ExportOptions = regpatch.ExportOptions
)

const (
	ArchWin32 = regtext.ArchWin32Value
	ArchWin64 = regtext.ArchWin64Value
)

// DefaultPatchOptions returns the safe default patch options.
func DefaultPatchOptions() PatchOptions { return regpatch.DefaultOptions() }

// Registry wraps a loaded (or newly built) registry tree together with the
// relative-base and architecture metadata the textual format carries
// alongside the key tree.
type Registry struct {
	Root         *Key
	RelativeBase string
	Architecture Architecture
}

// New returns an empty Registry with a fresh root key.
//
// Example:
//
//	reg := winereg.New()
//	reg.Modify(func(c *winereg.KeyCursor) {
//	    c.Key(`SOFTWARE\MyApp`, func(c *winereg.KeyCursor) {
//	        c.Value("Version", "1.0.0")
//	    })
//	})
func New() *Registry {
	return &Registry{Root: regtree.CreateRoot()}
}

// LoadText parses Wine v2 registry text into a Registry.
//
// Example:
//
//	reg, err := winereg.LoadText(text)
//	if err != nil {
//	    log.Fatal(err)
//	}
func LoadText(text string) (*Registry, error) {
	res, err := regtext.ParseText(text)
	if err != nil {
		return nil, err
	}
	return &Registry{Root: res.Root, RelativeBase: res.RelativeBase, Architecture: res.Architecture}, nil
}

// LoadFile reads path and parses it as Wine v2 registry text.
//
// Example:
//
//	reg, err := winereg.LoadFile("system.reg", winereg.ParseOptions{})
//	if err != nil {
//	    log.Fatal(err)
//	}
func LoadFile(path string, opts ParseOptions) (*Registry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &regtext.Error{Kind: regtext.ErrKindIO, Msg: "read file", Err: err}
	}
	res, err := regtext.ParseBytes(data, opts)
	if err != nil {
		return nil, err
	}
	return &Registry{Root: res.Root, RelativeBase: res.RelativeBase, Architecture: res.Architecture}, nil
}

// SaveText renders the registry to Wine v2 text.
func (r *Registry) SaveText() string {
	return regtext.WriteString(r.Root, WriteOptions{RelativeBase: r.RelativeBase, Architecture: r.Architecture})
}

// SaveFile renders the registry and atomically writes it to path (write to
// "<path>.tmp" then rename).
//
// Example:
//
//	if err := reg.SaveFile("backup.reg"); err != nil {
//	    log.Fatal(err)
//	}
func (r *Registry) SaveFile(path string) error {
	return regtext.WriteToFile(r.Root, path, WriteOptions{RelativeBase: r.RelativeBase, Architecture: r.Architecture})
}

// UpdateTimes sets every key's modification time to now, recursively, and
// returns the receiver for chaining.
func (r *Registry) UpdateTimes() *Registry {
	r.Root.SetCurrentTimeRecursive()
	return r
}

// Get finds a key by path, or nil if any segment is absent.
func (r *Registry) Get(path string) *Key {
	return r.Root.FindKey(path)
}

// Invoke creates path recursively and invokes f on the resulting key via a
// KeyCursor, returning the key afterward.
func (r *Registry) Invoke(path string, f func(*KeyCursor)) *Key {
	k := r.Root.CreateKeyRecursive(path)
	if f != nil {
		f(&KeyCursor{key: k})
	}
	return k
}

// Modify invokes f with a cursor positioned at the root, returning the
// receiver for chaining.
func (r *Registry) Modify(f func(*KeyCursor)) *Registry {
	f(&KeyCursor{key: r.Root})
	return r
}

// ComparedTo compares the receiver's tree against other's, producing a
// change list. A convenience wrapper around regdiff.Compare.
func (r *Registry) ComparedTo(other *Registry) DiffResult {
	return regdiff.Compare(r.Root, other.Root)
}

// ApplyPatch applies a change list to the receiver's tree with opts.
func (r *Registry) ApplyPatch(changes []Change, opts PatchOptions) PatchResult {
	return regpatch.Apply(r.Root, changes, opts)
}

// ApplyTextPatch parses a textual diff and applies it to the receiver's
// tree with opts.
func (r *Registry) ApplyTextPatch(text string, opts PatchOptions) (PatchResult, error) {
	changes, err := regpatch.ParseDiff(text)
	if err != nil {
		return PatchResult{}, err
	}
	return regpatch.Apply(r.Root, changes, opts), nil
}

// ExportDiffText compares the receiver against other and renders the
// result as the textual diff wire format.
func (r *Registry) ExportDiffText(other *Registry, opts ExportOptions) string {
	return regpatch.ExportDiff(r.ComparedTo(other), opts)
}
