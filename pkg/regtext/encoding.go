package regtext

import (
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/transform"
)

// decodeWindows1252 decodes bytes that failed UTF-8 validation as
// Windows-1252, the encoding real-world Wine registry dumps produced on a
// non-UTF-8 locale most commonly use, rather than rejecting the input
// outright.
func decodeWindows1252(data []byte) (string, error) {
	out, _, err := transform.Bytes(charmap.Windows1252.NewDecoder(), data)
	if err != nil {
		return "", err
	}
	return string(out), nil
}
