package regpatch

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/asLody/winereg/pkg/regdiff"
	"github.com/asLody/winereg/pkg/regvalue"
)

// ExportOptions annotates the textual diff header.
type ExportOptions struct {
	FromFile string
	ToFile   string
}

// ExportDiff renders a change list as the textual diff wire format: a
// #-comment header followed by changes grouped under [<anchor path>] (or
// [ROOT] for the empty path) headers.
func ExportDiff(result regdiff.Result, opts ExportOptions) string {
	var b strings.Builder
	b.WriteString("# Registry Patch File\n")
	fmt.Fprintf(&b, "# Generated: %s\n", time.Now().Format("2006-01-02 15:04:05"))
	if opts.FromFile != "" {
		fmt.Fprintf(&b, "# FROM: %s\n", opts.FromFile)
	}
	if opts.ToFile != "" {
		fmt.Fprintf(&b, "# TO: %s\n", opts.ToFile)
	}
	b.WriteString("\n")

	if !result.HasChanges() {
		b.WriteString("# No changes\n")
		return b.String()
	}

	groups := make(map[string][]regdiff.Change)
	var order []string
	anchorOf := func(c regdiff.Change) string {
		switch change := c.(type) {
		case regdiff.KeyAdded:
			return parentPath(change.KeyPath)
		case regdiff.KeyDeleted:
			return parentPath(change.KeyPath)
		default:
			return c.Path()
		}
	}

	for _, c := range result.Changes {
		a := anchorOf(c)
		if _, ok := groups[a]; !ok {
			order = append(order, a)
		}
		groups[a] = append(groups[a], c)
	}
	sort.Strings(order)

	for _, anchor := range order {
		header := anchor
		if header == "" {
			header = "ROOT"
		}
		fmt.Fprintf(&b, "[%s]\n", header)
		for _, c := range groups[anchor] {
			writeDiffLine(&b, anchor, c)
		}
		b.WriteString("\n")
	}

	return b.String()
}

func writeDiffLine(b *strings.Builder, anchor string, c regdiff.Change) {
	switch change := c.(type) {
	case regdiff.KeyAdded:
		fmt.Fprintf(b, "+key:%s\n", leafName(change.KeyPath))
	case regdiff.KeyDeleted:
		fmt.Fprintf(b, "-key:%s\n", leafName(change.KeyPath))
	case regdiff.KeyModified:
		for _, p := range change.Props {
			switch prop := p.(type) {
			case regdiff.ClassNameChange:
				fmt.Fprintf(b, "~className:%s->%s\n", formatProperty(prop.Old), formatProperty(prop.New))
			case regdiff.SymlinkChange:
				fmt.Fprintf(b, "~isSymlink:%t->%t\n", prop.Old, prop.New)
			case regdiff.VolatileChange:
				fmt.Fprintf(b, "~isVolatile:%t->%t\n", prop.Old, prop.New)
			}
		}
	case regdiff.ValueAdded:
		fmt.Fprintf(b, "+%q=%s\n", change.ValueName, formatValue(change.New))
	case regdiff.ValueDeleted:
		fmt.Fprintf(b, "-%q=%s\n", change.ValueName, formatValue(change.Old))
	case regdiff.ValueModified:
		fmt.Fprintf(b, "~%q=%s->%s\n", change.ValueName, formatValue(change.Old), formatValue(change.New))
	}
}

func parentPath(path string) string {
	idx := strings.LastIndex(path, `\`)
	if idx < 0 {
		return ""
	}
	return path[:idx]
}

func leafName(path string) string {
	idx := strings.LastIndex(path, `\`)
	if idx < 0 {
		return path
	}
	return path[idx+1:]
}

func joinDiffPath(anchor, name string) string {
	if anchor == "" {
		return name
	}
	return anchor + `\` + name
}

func formatProperty(s *string) string {
	if s == nil {
		return "null"
	}
	return fmt.Sprintf("%q", *s)
}

func formatValue(v regvalue.Value) string {
	switch d := v.Data.(type) {
	case regvalue.String:
		return fmt.Sprintf("string:%q", string(d))
	case regvalue.ExpandString:
		return fmt.Sprintf("expand_string:%q", string(d))
	case regvalue.MultiString:
		parts := make([]string, len(d))
		for i, s := range d {
			parts[i] = fmt.Sprintf("%q", s)
		}
		return fmt.Sprintf("multi_string:[%s]", strings.Join(parts, ", "))
	case regvalue.Dword:
		return fmt.Sprintf("dword:%08x", uint32(d))
	case regvalue.Qword:
		return fmt.Sprintf("qword:%016x", uint64(d))
	case regvalue.Binary:
		if d.AsType == regvalue.TypeBinary {
			return "hex:" + hexJoin(d.Bytes)
		}
		return fmt.Sprintf("hex(%x):%s", uint32(d.AsType), hexJoin(d.Bytes))
	default:
		return ""
	}
}

func hexJoin(b []byte) string {
	parts := make([]string, len(b))
	for i, by := range b {
		parts[i] = fmt.Sprintf("%02x", by)
	}
	return strings.Join(parts, ",")
}

// ParseDiff parses the textual diff wire format back into an unordered
// change list. Key-property lines are aggregated into at most one
// KeyModified per anchor path and appended after every other change, in
// the order their anchors were first seen.
func ParseDiff(text string) ([]regdiff.Change, error) {
	var changes []regdiff.Change
	propsByAnchor := make(map[string][]regdiff.KeyPropertyChange)
	var propOrder []string

	current := ""
	for lineNo, raw := range strings.Split(text, "\n") {
		line := strings.TrimRight(raw, "\r")
		trimmed := strings.TrimSpace(line)
		if trimmed == "" || strings.HasPrefix(trimmed, "#") {
			continue
		}
		if strings.HasPrefix(trimmed, "[") && strings.HasSuffix(trimmed, "]") {
			header := trimmed[1 : len(trimmed)-1]
			if header == "ROOT" {
				header = ""
			}
			current = header
			continue
		}

		switch {
		case strings.HasPrefix(trimmed, "+key:"):
			name := strings.TrimPrefix(trimmed, "+key:")
			changes = append(changes, regdiff.KeyAdded{KeyPath: joinDiffPath(current, name)})

		case strings.HasPrefix(trimmed, "-key:"):
			name := strings.TrimPrefix(trimmed, "-key:")
			changes = append(changes, regdiff.KeyDeleted{KeyPath: joinDiffPath(current, name)})

		case strings.HasPrefix(trimmed, "~className:"):
			old, new_, err := splitArrow(strings.TrimPrefix(trimmed, "~className:"))
			if err != nil {
				return nil, fmt.Errorf("line %d: %w", lineNo+1, err)
			}
			if _, ok := propsByAnchor[current]; !ok {
				propOrder = append(propOrder, current)
			}
			propsByAnchor[current] = append(propsByAnchor[current], regdiff.ClassNameChange{
				Old: parsePropertyValue(old), New: parsePropertyValue(new_),
			})

		case strings.HasPrefix(trimmed, "~isSymlink:"):
			old, new_, err := splitArrow(strings.TrimPrefix(trimmed, "~isSymlink:"))
			if err != nil {
				return nil, fmt.Errorf("line %d: %w", lineNo+1, err)
			}
			ob, nb, err := parseBoolPair(old, new_)
			if err != nil {
				return nil, fmt.Errorf("line %d: %w", lineNo+1, err)
			}
			if _, ok := propsByAnchor[current]; !ok {
				propOrder = append(propOrder, current)
			}
			propsByAnchor[current] = append(propsByAnchor[current], regdiff.SymlinkChange{Old: ob, New: nb})

		case strings.HasPrefix(trimmed, "~isVolatile:"):
			old, new_, err := splitArrow(strings.TrimPrefix(trimmed, "~isVolatile:"))
			if err != nil {
				return nil, fmt.Errorf("line %d: %w", lineNo+1, err)
			}
			ob, nb, err := parseBoolPair(old, new_)
			if err != nil {
				return nil, fmt.Errorf("line %d: %w", lineNo+1, err)
			}
			if _, ok := propsByAnchor[current]; !ok {
				propOrder = append(propOrder, current)
			}
			propsByAnchor[current] = append(propsByAnchor[current], regdiff.VolatileChange{Old: ob, New: nb})

		case strings.HasPrefix(trimmed, "~\""):
			name, rest, err := parseQuotedName(trimmed[1:])
			if err != nil {
				return nil, fmt.Errorf("line %d: %w", lineNo+1, err)
			}
			rest = strings.TrimPrefix(rest, "=")
			oldStr, newStr, err := splitArrow(rest)
			if err != nil {
				return nil, fmt.Errorf("line %d: missing ->: %w", lineNo+1, err)
			}
			oldVal, err := parseValueSpelling(oldStr)
			if err != nil {
				return nil, fmt.Errorf("line %d: %w", lineNo+1, err)
			}
			newVal, err := parseValueSpelling(newStr)
			if err != nil {
				return nil, fmt.Errorf("line %d: %w", lineNo+1, err)
			}
			changes = append(changes, regdiff.ValueModified{
				KeyPath: current, ValueName: name,
				Old: regvalue.New(name, oldVal), New: regvalue.New(name, newVal),
			})

		case strings.HasPrefix(trimmed, "+\""):
			name, rest, err := parseQuotedName(trimmed[1:])
			if err != nil {
				return nil, fmt.Errorf("line %d: %w", lineNo+1, err)
			}
			rest = strings.TrimPrefix(rest, "=")
			val, err := parseValueSpelling(rest)
			if err != nil {
				return nil, fmt.Errorf("line %d: %w", lineNo+1, err)
			}
			changes = append(changes, regdiff.ValueAdded{KeyPath: current, ValueName: name, New: regvalue.New(name, val)})

		case strings.HasPrefix(trimmed, "-\""):
			name, rest, err := parseQuotedName(trimmed[1:])
			if err != nil {
				return nil, fmt.Errorf("line %d: %w", lineNo+1, err)
			}
			rest = strings.TrimPrefix(rest, "=")
			val, err := parseValueSpelling(rest)
			if err != nil {
				return nil, fmt.Errorf("line %d: %w", lineNo+1, err)
			}
			changes = append(changes, regdiff.ValueDeleted{KeyPath: current, ValueName: name, Old: regvalue.New(name, val)})
		}
	}

	for _, anchor := range propOrder {
		changes = append(changes, regdiff.KeyModified{KeyPath: anchor, Props: propsByAnchor[anchor]})
	}

	return changes, nil
}

func splitArrow(s string) (string, string, error) {
	idx := strings.Index(s, "->")
	if idx < 0 {
		return "", "", fmt.Errorf("missing ->")
	}
	return s[:idx], s[idx+2:], nil
}

func parsePropertyValue(s string) *string {
	s = strings.TrimSpace(s)
	if s == "null" {
		return nil
	}
	v, err := strconv.Unquote(s)
	if err != nil {
		v = strings.TrimSuffix(strings.TrimPrefix(s, `"`), `"`)
	}
	return &v
}

func parseBoolPair(old, new_ string) (bool, bool, error) {
	ob, err := strconv.ParseBool(strings.TrimSpace(old))
	if err != nil {
		return false, false, fmt.Errorf("invalid bool %q", old)
	}
	nb, err := strconv.ParseBool(strings.TrimSpace(new_))
	if err != nil {
		return false, false, fmt.Errorf("invalid bool %q", new_)
	}
	return ob, nb, nil
}

func parseQuotedName(s string) (name, rest string, err error) {
	if !strings.HasPrefix(s, `"`) {
		return "", "", fmt.Errorf("invalid value line")
	}
	idx := strings.Index(s[1:], `"`)
	if idx < 0 {
		return "", "", fmt.Errorf("invalid value line")
	}
	return s[1 : 1+idx], s[1+idx+1:], nil
}

func parseValueSpelling(s string) (regvalue.Data, error) {
	switch {
	case strings.HasPrefix(s, "string:"):
		v, err := strconv.Unquote(strings.TrimPrefix(s, "string:"))
		if err != nil {
			return nil, fmt.Errorf("unknown value format")
		}
		return regvalue.String(v), nil
	case strings.HasPrefix(s, "expand_string:"):
		v, err := strconv.Unquote(strings.TrimPrefix(s, "expand_string:"))
		if err != nil {
			return nil, fmt.Errorf("unknown value format")
		}
		return regvalue.ExpandString(v), nil
	case strings.HasPrefix(s, "multi_string:"):
		inner := strings.TrimPrefix(s, "multi_string:")
		inner = strings.TrimPrefix(strings.TrimSpace(inner), "[")
		inner = strings.TrimSuffix(strings.TrimSpace(inner), "]")
		var items []string
		if strings.TrimSpace(inner) != "" {
			for _, part := range strings.Split(inner, ",") {
				part = strings.TrimSpace(part)
				v, err := strconv.Unquote(part)
				if err != nil {
					return nil, fmt.Errorf("unknown value format")
				}
				items = append(items, v)
			}
		}
		return regvalue.MultiString(items), nil
	case strings.HasPrefix(s, "dword:"):
		v, err := strconv.ParseUint(strings.TrimPrefix(s, "dword:"), 16, 32)
		if err != nil {
			return nil, fmt.Errorf("unknown value format")
		}
		return regvalue.Dword(v), nil
	case strings.HasPrefix(s, "qword:"):
		v, err := strconv.ParseUint(strings.TrimPrefix(s, "qword:"), 16, 64)
		if err != nil {
			return nil, fmt.Errorf("unknown value format")
		}
		return regvalue.Qword(v), nil
	case strings.HasPrefix(s, "hex("):
		close := strings.Index(s, "):")
		if close < 0 {
			return nil, fmt.Errorf("unknown value format")
		}
		typeVal, err := strconv.ParseUint(s[4:close], 16, 32)
		if err != nil {
			return nil, fmt.Errorf("unknown value format")
		}
		b, err := parseHexJoined(s[close+2:])
		if err != nil {
			return nil, fmt.Errorf("unknown value format")
		}
		return regvalue.Binary{Bytes: b, AsType: regvalue.Type(typeVal)}, nil
	case strings.HasPrefix(s, "hex:"):
		b, err := parseHexJoined(strings.TrimPrefix(s, "hex:"))
		if err != nil {
			return nil, fmt.Errorf("unknown value format")
		}
		return regvalue.Binary{Bytes: b, AsType: regvalue.TypeBinary}, nil
	default:
		return nil, fmt.Errorf("unknown value format")
	}
}

func parseHexJoined(s string) ([]byte, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	parts := strings.Split(s, ",")
	out := make([]byte, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		v, err := strconv.ParseUint(p, 16, 8)
		if err != nil {
			return nil, err
		}
		out = append(out, byte(v))
	}
	return out, nil
}
