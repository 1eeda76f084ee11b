package winereg

import (
	"github.com/asLody/winereg/pkg/regtree"
	"github.com/asLody/winereg/pkg/regvalue"
)

// KeyCursor is a fluent builder positioned at a single key: plain method
// calls on a struct wrapping a *Key, each returning the cursor for
// chaining.
type KeyCursor struct {
	key *regtree.Key
}

// Key descends into (creating if needed) the subkey at path and invokes f
// with a cursor positioned there.
func (c *KeyCursor) Key(path string, f func(*KeyCursor)) *KeyCursor {
	child := c.key.CreateKeyRecursive(path)
	if f != nil {
		f(&KeyCursor{key: child})
	}
	return c
}

// ClassName sets the cursor's key's class name.
func (c *KeyCursor) ClassName(name string) *KeyCursor {
	c.key.ClassName = &name
	c.key.MarkDirty()
	return c
}

// Symlink sets the cursor's key's symlink flag.
func (c *KeyCursor) Symlink(v bool) *KeyCursor {
	c.key.IsSymlink = v
	c.key.MarkDirty()
	return c
}

// Volatile sets the cursor's key's volatile flag.
func (c *KeyCursor) Volatile(v bool) *KeyCursor {
	c.key.IsVolatile = v
	c.key.MarkDirty()
	return c
}

// Value sets a REG_SZ value.
func (c *KeyCursor) Value(name, value string) *KeyCursor {
	c.key.SetValue(regvalue.New(name, regvalue.String(value)))
	return c
}

// ExpandString sets a REG_EXPAND_SZ value.
func (c *KeyCursor) ExpandString(name, value string) *KeyCursor {
	c.key.SetValue(regvalue.New(name, regvalue.ExpandString(value)))
	return c
}

// MultiString sets a REG_MULTI_SZ value.
func (c *KeyCursor) MultiString(name string, items []string) *KeyCursor {
	c.key.SetValue(regvalue.New(name, regvalue.MultiString(items)))
	return c
}

// Dword sets a REG_DWORD value.
func (c *KeyCursor) Dword(name string, value uint32) *KeyCursor {
	c.key.SetValue(regvalue.New(name, regvalue.Dword(value)))
	return c
}

// Qword sets a REG_QWORD value.
func (c *KeyCursor) Qword(name string, value uint64) *KeyCursor {
	c.key.SetValue(regvalue.New(name, regvalue.Qword(value)))
	return c
}

// Binary sets a typed binary value.
func (c *KeyCursor) Binary(name string, data []byte, typeCode regvalue.Type) *KeyCursor {
	c.key.SetValue(regvalue.New(name, regvalue.Binary{Bytes: data, AsType: typeCode}))
	return c
}

// DeleteValue removes a value by name, reporting whether one was removed.
func (c *KeyCursor) DeleteValue(name string) bool {
	return c.key.DeleteValue(name)
}

// DeleteKey removes the named subkey, reporting whether it was removed.
func (c *KeyCursor) DeleteKey(name string, recursive bool) bool {
	return c.key.DeleteSubkey(name, recursive)
}

// ReplaceKey creates path recursively, then wipes its existing subkeys and
// values, then invokes f with a cursor positioned there. The create happens
// unconditionally before the wipe, so if the key did not previously exist
// there is nothing to wipe and the net effect is a plain create.
func (c *KeyCursor) ReplaceKey(path string, f func(*KeyCursor)) *KeyCursor {
	k := c.key.CreateKeyRecursive(path)
	for _, sub := range k.Subkeys() {
		k.DeleteSubkey(sub.Name, true)
	}
	for _, v := range k.Values() {
		k.DeleteValue(v.Name)
	}
	if f != nil {
		f(&KeyCursor{key: k})
	}
	return c
}

// UpdateTime sets the cursor's key's modification time (and every
// descendant's) to now.
func (c *KeyCursor) UpdateTime() *KeyCursor {
	c.key.SetCurrentTimeRecursive()
	return c
}

// GetKey returns the underlying key the cursor is positioned at.
func (c *KeyCursor) GetKey() *regtree.Key {
	return c.key
}
