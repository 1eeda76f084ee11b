package regtext

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/asLody/winereg/pkg/regtree"
	"github.com/asLody/winereg/pkg/regvalue"
)

// WriteOptions parameterises the writer's header block.
type WriteOptions struct {
	RelativeBase string
	Architecture Architecture
}

// WriteString renders root as Wine v2 registry text.
func WriteString(root *regtree.Key, opts WriteOptions) string {
	var b strings.Builder
	b.WriteString(FileHeader)
	b.WriteString("\n")

	if opts.RelativeBase != "" {
		b.WriteString(RelativeBasePrefix)
		b.WriteString(opts.RelativeBase)
		b.WriteString("\n")
	}

	if tag := opts.Architecture.AsTag(); tag != "" {
		b.WriteString("\n#arch=")
		b.WriteString(tag)
		b.WriteString("\n")
	}

	writeSubkeys(&b, root, root)
	return b.String()
}

// WriteToFile renders root and atomically writes it to path: render to
// "<path>.tmp" then rename to path. On a rename failure the temporary file
// is left in place.
func WriteToFile(root *regtree.Key, path string, opts WriteOptions) error {
	text := WriteString(root, opts)
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, []byte(text), 0o644); err != nil {
		return &Error{Kind: ErrKindIO, Msg: "write temp file", Err: err}
	}
	if err := os.Rename(tmp, path); err != nil {
		return &Error{Kind: ErrKindIO, Msg: "rename temp file", Err: err}
	}
	return nil
}

// writeSubkeys performs a depth-first, relative-to-base traversal: base is
// the root of the current render (dumpPathSegments returns nil for base
// itself), node is the key being visited.
func writeSubkeys(b *strings.Builder, base, node *regtree.Key) {
	if node.IsVolatile {
		return
	}

	values := node.Values()
	subkeys := node.Subkeys()

	hasMeta := node.ClassName != nil || node.IsSymlink
	if len(values) != 0 || len(subkeys) == 0 || hasMeta {
		writeKeyBlock(b, dumpPathSegments(base, node), node, values)
	}

	for _, c := range subkeys {
		writeSubkeys(b, base, c)
	}
}

func writeKeyBlock(b *strings.Builder, segs []string, node *regtree.Key, values []regvalue.Value) {
	sec := regtree.FILETimeToTimestamp(node.ModificationTime)
	fmt.Fprintf(b, "\n[%s] %d\n", escapeKeyPathSegments(segs), sec)
	fmt.Fprintf(b, "%s%x\n", TimeHeaderPrefix, node.ModificationTime)

	if node.ClassName != nil {
		fmt.Fprintf(b, "%s\"%s\"\n", ClassHeaderPrefix, escapeString(*node.ClassName))
	}
	if node.IsSymlink {
		b.WriteString(LinkHeader)
		b.WriteString("\n")
	}

	for _, v := range values {
		writeValueLine(b, v)
	}
}

// dumpPathSegments returns the (unescaped) segment names from base down to
// node, nil when node is base itself.
func dumpPathSegments(base, node *regtree.Key) []string {
	if node == base {
		return nil
	}
	var segs []string
	for n := node; n != nil && n != base; n = n.Parent {
		segs = append([]string{n.Name}, segs...)
	}
	return segs
}

// escapeKeyPathSegments escapes each raw segment name per the escape rules
// and joins the result with a doubled backslash.
func escapeKeyPathSegments(segs []string) string {
	escaped := make([]string, len(segs))
	for i, s := range segs {
		escaped[i] = escapeString(s)
	}
	return strings.Join(escaped, `\\`)
}

func writeValueLine(b *strings.Builder, v regvalue.Value) {
	if v.Name == "" {
		b.WriteString(DefaultValuePrefix)
	} else {
		fmt.Fprintf(b, "\"%s\"", escapeString(v.Name))
	}
	b.WriteString(ValueAssignment)
	b.WriteString(renderPayload(v.Data))
	b.WriteString("\n")
}

func renderPayload(d regvalue.Data) string {
	switch val := d.(type) {
	case regvalue.String:
		return fmt.Sprintf("\"%s\"", escapeString(string(val)))
	case regvalue.ExpandString:
		return fmt.Sprintf("%s\"%s\"", ExpandSZPrefix, escapeString(string(val)))
	case regvalue.MultiString:
		inner := strings.Join([]string(val), "\x00") + "\x00"
		return fmt.Sprintf("%s\"%s\"", MultiSZPrefix, escapeString(inner))
	case regvalue.Dword:
		return fmt.Sprintf("%s%08x", DwordPrefix, uint32(val))
	case regvalue.Qword:
		b := val.RawBytes()
		return HexBPrefix + formatHexBytes(b, 5)
	case regvalue.Binary:
		if val.AsType == regvalue.TypeBinary {
			return HexPrefix + formatHexBytes(val.Bytes, 4)
		}
		prefix := fmt.Sprintf("hex(%x):", uint32(val.AsType))
		return prefix + formatHexBytes(val.Bytes, 6)
	default:
		return ""
	}
}

// TimestampSuffix is exposed for callers that want to render a standalone
// "key timestamp" suffix the way a key header line does, e.g. tooling that
// prints a key summary outside of a full write.
func TimestampSuffix(ft uint64) string {
	return strconv.FormatUint(regtree.FILETimeToTimestamp(ft), 10)
}

// OutputPath returns the .tmp sibling path WriteToFile uses, exposed so
// callers can clean up a stray temp file after a failed rename.
func OutputPath(path string) string {
	return filepath.Clean(path) + ".tmp"
}
