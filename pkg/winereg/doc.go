/*
Package winereg provides a high-level, ergonomic API for manipulating
Windows-style registry hives serialized in the textual format used by the
Wine emulator ("WINE REGISTRY Version 2").

# Quick Start

Parse a registry text and read a value:

	reg, err := winereg.LoadText(text)
	if err != nil {
	    log.Fatal(err)
	}
	key := reg.Get(`Software\TestCase`)

# Features

  - Byte-exact round-trip parser and writer for Wine v2 registry text
  - Structural diff between two trees with subtree expansion
  - Dependency-ordered patch application with configurable failure policy
  - A round-trippable textual diff format for patch distribution
  - A fluent builder for constructing trees from code

# Basic Usage

Build a tree and write it out:

	reg := winereg.New()
	reg.Modify(func(c *winereg.KeyCursor) {
	    c.Key(`SOFTWARE\MyApp`, func(c *winereg.KeyCursor) {
	        c.Value("Version", "1.0.0")
	        c.Dword("Enabled", 1)
	    })
	})
	text := reg.SaveText()

Compare two registries and apply the difference:

	diff := a.ComparedTo(b)
	result := a.ApplyPatch(diff.Changes, winereg.DefaultPatchOptions())
	if !result.IsSuccess() {
	    log.Printf("%d changes failed", result.FailedCount())
	}

# Error Handling

Parse errors carry the 1-based source line where applicable:

	_, err := winereg.LoadText(text)
	if regtext.IsLineError(err) {
	    log.Printf("malformed input: %v", err)
	}

# Patch Options

Patch application is governed by PatchOptions, defaulting to the safe
values spec'd for Wine compatibility (missing keys created, overwrites
allowed, empty chains cleaned up, no validation, failures not ignored):

	opts := winereg.DefaultPatchOptions()
	opts.CreateMissingKeys = false // require the parent key to exist

# Non-goals

This package has no access to a live operating-system registry, no binary
hive format support, no concurrent multi-process access, and no
transactional journaling. It operates purely on in-memory trees and text
streams.
*/
package winereg
