// Package charset detects and decodes the text encoding of raw log buffers.
//
// Log files produced by the storage service arrive in UTF-8, UTF-16 or one of
// the legacy single-byte Cyrillic code pages. Detection looks at byte order
// marks first and then tries a fixed list of candidates, returning the first
// one that decodes the whole buffer without errors.
package charset

import (
	"bytes"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// Charset is a named text encoding.
type Charset struct {
	// Name is the IANA-style name of the encoding.
	Name string

	// enc is nil for UTF-8, which needs no transformation.
	enc encoding.Encoding
}

// Supported encodings.
var (
	UTF8        = Charset{Name: "UTF-8"}
	UTF16LE     = Charset{Name: "UTF-16LE", enc: unicode.UTF16(unicode.LittleEndian, unicode.IgnoreBOM)}
	UTF16BE     = Charset{Name: "UTF-16BE", enc: unicode.UTF16(unicode.BigEndian, unicode.IgnoreBOM)}
	Windows1251 = Charset{Name: "windows-1251", enc: charmap.Windows1251}
	KOI8R       = Charset{Name: "KOI8-R", enc: charmap.KOI8R}
	CP866       = Charset{Name: "IBM866", enc: charmap.CodePage866}
)

var (
	bomUTF8    = []byte{0xEF, 0xBB, 0xBF}
	bomUTF16LE = []byte{0xFF, 0xFE}
	bomUTF16BE = []byte{0xFE, 0xFF}
)

// candidates is the order in which BOM-less buffers are tried.
var candidates = []Charset{UTF8, UTF16LE, UTF16BE, Windows1251, KOI8R, CP866}

// Candidates returns the ordered list of encodings tried for BOM-less input.
func Candidates() []Charset {
	out := make([]Charset, len(candidates))
	copy(out, candidates)
	return out
}

// String returns the encoding name.
func (c Charset) String() string {
	return c.Name
}

// Detect returns the encoding of data. It never fails: a buffer that no
// candidate decodes cleanly is reported as UTF-8.
func Detect(data []byte) Charset {
	switch {
	case bytes.HasPrefix(data, bomUTF8):
		return UTF8
	case bytes.HasPrefix(data, bomUTF16LE):
		return UTF16LE
	case bytes.HasPrefix(data, bomUTF16BE):
		return UTF16BE
	}

	return firstClean(data, candidates)
}

func firstClean(data []byte, order []Charset) Charset {
	for _, c := range order {
		if c.decodesCleanly(data) {
			return c
		}
	}
	return UTF8
}

// decodesCleanly reports whether data decodes under c without malformed or
// unmappable input.
func (c Charset) decodesCleanly(data []byte) bool {
	if c.enc == nil {
		return utf8.Valid(data)
	}

	isUTF16 := c.Name == UTF16LE.Name || c.Name == UTF16BE.Name
	if isUTF16 && len(data)%2 != 0 {
		return false
	}

	out, _, err := transform.Bytes(c.enc.NewDecoder(), data)
	if err != nil {
		return false
	}
	if bytes.ContainsRune(out, utf8.RuneError) {
		return false
	}

	// Eight-bit text read as UTF-16 decodes without errors but never keeps
	// its line feeds, since 0x0A is never followed by 0x00.
	if isUTF16 && bytes.IndexByte(data, '\n') >= 0 && bytes.IndexByte(out, '\n') < 0 {
		return false
	}
	return true
}

// Decode converts data to a UTF-8 string using c. Byte order marks are
// removed. Invalid sequences are replaced with U+FFFD instead of failing.
func Decode(data []byte, c Charset) string {
	switch c.Name {
	case UTF8.Name:
		data = bytes.TrimPrefix(data, bomUTF8)
	case UTF16LE.Name:
		data = bytes.TrimPrefix(data, bomUTF16LE)
	case UTF16BE.Name:
		data = bytes.TrimPrefix(data, bomUTF16BE)
	}

	if c.enc == nil {
		return strings.ToValidUTF8(string(data), "\uFFFD")
	}

	out, _, err := transform.Bytes(c.enc.NewDecoder(), data)
	if err != nil {
		return strings.ToValidUTF8(string(data), "\uFFFD")
	}
	return strings.TrimPrefix(string(out), "\uFEFF")
}

// DecodeDetected detects the encoding of data and decodes it.
func DecodeDetected(data []byte) (string, Charset) {
	c := Detect(data)
	return Decode(data, c), c
}
