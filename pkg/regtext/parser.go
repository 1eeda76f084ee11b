package regtext

import (
	"io"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/asLody/winereg/pkg/regtree"
	"github.com/asLody/winereg/pkg/regvalue"
)

// LoadResult is the outcome of a successful parse.
type LoadResult struct {
	Root         *regtree.Key
	RelativeBase string
	Architecture Architecture
}

// ParseOptions controls input decoding ahead of lexing.
type ParseOptions struct {
	// Encoding names the source encoding when it cannot be auto-detected
	// from a BOM. "" (default) assumes UTF-8/ASCII and, failing that,
	// falls back to Windows-1252 (see DecodeSource).
	Encoding string
}

// DefaultParseOptions returns the zero-value ParseOptions (auto-detect).
func DefaultParseOptions() ParseOptions { return ParseOptions{} }

// ParseText parses Wine v2 registry text already decoded to a Go string.
func ParseText(text string) (*LoadResult, error) {
	return parseLines(strings.Split(text, "\n"))
}

// ParseBytes decodes src (via DecodeSource) and parses it as Wine v2
// registry text.
func ParseBytes(src []byte, opts ParseOptions) (*LoadResult, error) {
	decoded, err := DecodeSource(src, opts.Encoding)
	if err != nil {
		return nil, &Error{Kind: ErrKindIO, Msg: "decode source", Err: err}
	}
	return ParseText(decoded)
}

// ParseReader reads all of r and parses it.
func ParseReader(r io.Reader, opts ParseOptions) (*LoadResult, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, &Error{Kind: ErrKindIO, Msg: "read input", Err: err}
	}
	return ParseBytes(data, opts)
}

func parseLines(rawLines []string) (*LoadResult, error) {
	root := regtree.CreateRoot()
	result := &LoadResult{Root: root}

	headerSeen := false
	var current *regtree.Key

	for i := 0; i < len(rawLines); i++ {
		lineNo := i + 1
		line := strings.TrimRight(rawLines[i], "\r")
		trimmed := strings.TrimSpace(line)

		if !headerSeen {
			if trimmed == "" {
				continue
			}
			if trimmed != FileHeader {
				return nil, headerErr("missing or invalid " + FileHeader + " header")
			}
			headerSeen = true
			continue
		}

		if trimmed == "" {
			continue
		}

		switch {
		case strings.HasPrefix(line, RelativeBasePrefix):
			result.RelativeBase = strings.TrimSpace(line[len(RelativeBasePrefix):])

		case strings.HasPrefix(trimmed, CommentPrefix):
			// plain comment, ignored

		case trimmed == ArchWin32:
			result.Architecture = ArchWin32Value

		case trimmed == ArchWin64:
			result.Architecture = ArchWin64Value

		case strings.HasPrefix(trimmed, "#arch="):
			// unknown tag: leave architecture unset, no diagnostic

		case strings.HasPrefix(trimmed, KeyOpenBracket):
			k, err := parseKeyHeader(root, trimmed, lineNo)
			if err != nil {
				return nil, err
			}
			current = k

		case strings.HasPrefix(trimmed, TimeHeaderPrefix):
			if current == nil {
				return nil, lineErr(lineNo, "metadata line outside any key")
			}
			hex := strings.TrimPrefix(trimmed, TimeHeaderPrefix)
			ft, err := strconv.ParseUint(hex, 16, 64)
			if err != nil {
				return nil, lineErr(lineNo, "invalid #time= hex value")
			}
			current.ModificationTime = ft

		case strings.HasPrefix(trimmed, ClassHeaderPrefix):
			if current == nil {
				return nil, lineErr(lineNo, "metadata line outside any key")
			}
			raw := strings.TrimPrefix(trimmed, ClassHeaderPrefix)
			raw = strings.TrimPrefix(raw, `"`)
			raw = strings.TrimSuffix(raw, `"`)
			cls := unescapeString(raw)
			current.ClassName = &cls

		case trimmed == LinkHeader:
			if current == nil {
				return nil, lineErr(lineNo, "metadata line outside any key")
			}
			current.IsSymlink = true

		case strings.HasPrefix(trimmed, DefaultValuePrefix) || strings.HasPrefix(trimmed, `"`):
			if current == nil {
				return nil, lineErr(lineNo, "value outside any key")
			}
			joined, consumed := joinValueContinuation(rawLines, i)
			i += consumed
			if err := parseValueLine(current, strings.TrimSpace(joined), lineNo); err != nil {
				return nil, err
			}

		default:
			// unrecognized line: silently skipped
		}
	}

	return result, nil
}

// joinValueContinuation merges a value line's trailing-backslash
// continuations into one logical line: the format only permits a value's
// payload to continue onto following physical lines, never a comment, key
// header, or metadata line. It returns the joined text and the number of
// extra raw lines consumed beyond rawLines[start].
func joinValueContinuation(rawLines []string, start int) (string, int) {
	text := strings.TrimRight(rawLines[start], " \t\r")
	consumed := 0
	for strings.HasSuffix(text, `\`) && !strings.HasSuffix(text, `\\`) {
		text = text[:len(text)-1]
		next := start + consumed + 1
		if next >= len(rawLines) {
			break
		}
		consumed++
		text += strings.TrimSpace(rawLines[next])
	}
	return text, consumed
}

func parseKeyHeader(root *regtree.Key, trimmed string, lineNo int) (*regtree.Key, error) {
	end := strings.Index(trimmed, KeyCloseBracket)
	if end < 0 {
		return nil, lineErr(lineNo, "malformed key header: missing ]")
	}
	escapedPath := trimmed[1:end]
	rest := strings.TrimSpace(trimmed[end+1:])

	path := unescapeKeyPath(escapedPath)
	key := root.CreateKeyRecursiveForLoading(path)

	ft := uint64(0)
	if rest != "" {
		if sec, err := strconv.ParseUint(rest, 10, 64); err == nil {
			ft = regtree.TimestampToFILETIME(sec)
		}
	}
	key.ModificationTime = ft
	return key, nil
}

func parseValueLine(key *regtree.Key, trimmed string, lineNo int) error {
	var name string
	var rest string

	if strings.HasPrefix(trimmed, DefaultValuePrefix) {
		after := strings.TrimPrefix(trimmed, DefaultValuePrefix)
		if !strings.HasPrefix(after, ValueAssignment) {
			return lineErr(lineNo, "malformed default value line")
		}
		name = ""
		rest = strings.TrimPrefix(after, ValueAssignment)
	} else {
		// named value: "<escaped>"=...
		nameEnd, err := findUnescapedQuote(trimmed, 1)
		if err != nil {
			return lineErr(lineNo, "unterminated quoted value name")
		}
		name = unescapeString(trimmed[1:nameEnd])
		after := trimmed[nameEnd+1:]
		if !strings.HasPrefix(after, ValueAssignment) {
			return lineErr(lineNo, "malformed value line: missing =")
		}
		rest = strings.TrimPrefix(after, ValueAssignment)
	}

	data, err := parseValueData(rest, lineNo)
	if err != nil {
		return err
	}
	key.SetValueForLoading(regvalue.New(name, data))
	return nil
}

// findUnescapedQuote scans s starting at start for the closing quote of a
// quoted string begun at index 0, honoring backslash escapes.
func findUnescapedQuote(s string, start int) (int, error) {
	for i := start; i < len(s); i++ {
		switch s[i] {
		case '\\':
			i++
		case '"':
			return i, nil
		}
	}
	return 0, io.ErrUnexpectedEOF
}

func parseValueData(rest string, lineNo int) (regvalue.Data, error) {
	switch {
	case strings.HasPrefix(rest, ExpandSZPrefix):
		s, err := parseQuotedString(strings.TrimPrefix(rest, ExpandSZPrefix))
		if err != nil {
			return nil, lineErr(lineNo, "invalid str(2) payload")
		}
		return regvalue.ExpandString(s), nil

	case strings.HasPrefix(rest, MultiSZPrefix):
		s, err := parseQuotedString(strings.TrimPrefix(rest, MultiSZPrefix))
		if err != nil {
			return nil, lineErr(lineNo, "invalid str(7) payload")
		}
		parts := strings.Split(s, "\x00")
		items := make([]string, 0, len(parts))
		for _, p := range parts {
			if p != "" {
				items = append(items, p)
			}
		}
		return regvalue.MultiString(items), nil

	case strings.HasPrefix(rest, DwordPrefix):
		v, err := strconv.ParseUint(strings.TrimSpace(strings.TrimPrefix(rest, DwordPrefix)), 16, 32)
		if err != nil {
			return nil, lineErr(lineNo, "invalid dword payload")
		}
		return regvalue.Dword(v), nil

	case strings.HasPrefix(rest, QwordPrefix):
		v, err := strconv.ParseUint(strings.TrimSpace(strings.TrimPrefix(rest, QwordPrefix)), 16, 64)
		if err != nil {
			return nil, lineErr(lineNo, "invalid qword payload")
		}
		return regvalue.Qword(v), nil

	case strings.HasPrefix(rest, HexBPrefix):
		b, err := parseHexBytes(strings.TrimPrefix(rest, HexBPrefix))
		if err != nil {
			return nil, lineErr(lineNo, "invalid hex(b) payload")
		}
		if len(b) == 8 {
			return regvalue.Qword(leUint64(b)), nil
		}
		return regvalue.Binary{Bytes: b, AsType: regvalue.TypeQword}, nil

	case strings.HasPrefix(rest, HexTypedPrefixOpen):
		close := strings.Index(rest, HexTypedPrefixClose)
		if close < 0 {
			return nil, lineErr(lineNo, "malformed hex(type) payload")
		}
		typeHex := rest[len(HexTypedPrefixOpen):close]
		typeVal, err := strconv.ParseUint(typeHex, 16, 32)
		if err != nil {
			return nil, lineErr(lineNo, "invalid hex type code")
		}
		b, err := parseHexBytes(rest[close+len(HexTypedPrefixClose):])
		if err != nil {
			return nil, lineErr(lineNo, "invalid hex(type) bytes")
		}
		if regvalue.Type(typeVal) == regvalue.TypeQword && len(b) == 8 {
			return regvalue.Qword(leUint64(b)), nil
		}
		return regvalue.Binary{Bytes: b, AsType: regvalue.Type(typeVal)}, nil

	case strings.HasPrefix(rest, HexPrefix):
		b, err := parseHexBytes(strings.TrimPrefix(rest, HexPrefix))
		if err != nil {
			return nil, lineErr(lineNo, "invalid hex payload")
		}
		return regvalue.Binary{Bytes: b, AsType: regvalue.TypeBinary}, nil

	default:
		s, err := parseQuotedString(rest)
		if err != nil {
			return nil, lineErr(lineNo, "invalid quoted string payload")
		}
		return regvalue.String(s), nil
	}
}

func parseQuotedString(s string) (string, error) {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, `"`) {
		return "", io.ErrUnexpectedEOF
	}
	end, err := findUnescapedQuote(s, 1)
	if err != nil {
		return "", err
	}
	return unescapeString(s[1:end]), nil
}

func leUint64(b []byte) uint64 {
	var v uint64
	for i := 0; i < 8 && i < len(b); i++ {
		v |= uint64(b[i]) << (8 * i)
	}
	return v
}

// DecodeSource decodes raw bytes into a UTF-8 string, honoring a UTF-16LE
// or UTF-8 byte-order mark, an explicit "UTF-16LE" encoding hint, and
// otherwise assuming UTF-8. If the bytes are not valid UTF-8 and no BOM or
// hint applies, it falls back to decoding as Windows-1252, matching real
// Wine-dump files that were produced on a non-UTF-8 locale.
func DecodeSource(data []byte, encodingHint string) (string, error) {
	if len(data) >= 2 && data[0] == 0xFF && data[1] == 0xFE {
		return decodeUTF16LEBytes(data[2:]), nil
	}
	if len(data) >= 3 && data[0] == 0xEF && data[1] == 0xBB && data[2] == 0xBF {
		return string(data[3:]), nil
	}
	if strings.EqualFold(encodingHint, "UTF-16LE") {
		return decodeUTF16LEBytes(data), nil
	}
	if utf8.Valid(data) {
		return string(data), nil
	}
	return decodeWindows1252(data)
}

func decodeUTF16LEBytes(b []byte) string {
	return regvalue.DecodeUTF16LE(b)
}
