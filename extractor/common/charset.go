package common

import (
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"
)

// DecodeCharset converts legacy single-byte encodings to UTF-8. Mexican
// bank mail still ships ISO-8859-1 and Windows-1252 bodies. Unknown or
// missing charsets are kept when already valid UTF-8, otherwise read as
// Windows-1252.
func DecodeCharset(data []byte, charset string) string {
	switch strings.ToLower(strings.TrimSpace(charset)) {
	case "iso-8859-1", "iso8859-1", "latin1":
		if decoded, err := charmap.ISO8859_1.NewDecoder().Bytes(data); err == nil {
			return string(decoded)
		}
	case "windows-1252", "cp1252":
		if decoded, err := charmap.Windows1252.NewDecoder().Bytes(data); err == nil {
			return string(decoded)
		}
	}

	if utf8.Valid(data) {
		return string(data)
	}
	if decoded, err := charmap.Windows1252.NewDecoder().Bytes(data); err == nil {
		return string(decoded)
	}
	return string(data)
}
