package charset

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

func encode(t *testing.T, c Charset, s string) []byte {
	t.Helper()
	out, _, err := transform.Bytes(c.enc.NewEncoder(), []byte(s))
	require.NoError(t, err)
	return out
}

func TestDetect_ByteOrderMarks(t *testing.T) {
	tests := []struct {
		name string
		data []byte
		want Charset
	}{
		{"utf-8 bom", []byte{0xEF, 0xBB, 0xBF, 'a', ';'}, UTF8},
		{"utf-16le bom", []byte{0xFF, 0xFE, 'a', 0x00}, UTF16LE},
		{"utf-16be bom", []byte{0xFE, 0xFF, 0x00, 'a'}, UTF16BE},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Detect(tt.data))
		})
	}
}

func TestDetect_PlainASCIIIsUTF8(t *testing.T) {
	data := []byte("877000000002265;01.05.2025 0:30:39;8507,6580;0,8315;14,5;\n")
	assert.Equal(t, UTF8, Detect(data))
}

func TestDetect_EmptyIsUTF8(t *testing.T) {
	assert.Equal(t, UTF8, Detect(nil))
	assert.Equal(t, UTF8, Detect([]byte{}))
}

func TestDetect_UTF16LEWithoutBOM(t *testing.T) {
	data := encode(t, UTF16LE, "café;1\n")
	assert.Equal(t, UTF16LE, Detect(data))
	assert.Equal(t, "café;1\n", Decode(data, UTF16LE))
}

func TestDetect_UTF16BEWithoutBOM(t *testing.T) {
	data := encode(t, UTF16BE, "café;1\n")
	require.False(t, UTF16LE.decodesCleanly(data), "little endian must lose the line feed")
	assert.Equal(t, UTF16BE, Detect(data))
	assert.Equal(t, "café;1\n", Decode(data, UTF16BE))
}

func TestDetect_Windows1251(t *testing.T) {
	text := "Резервуар;уровень\n"
	data, _, err := transform.Bytes(charmap.Windows1251.NewEncoder(), []byte(text))
	require.NoError(t, err)

	got := Detect(data)
	assert.Equal(t, Windows1251, got)
	assert.Equal(t, text, Decode(data, got))
}

func TestDetect_FallsBackToUTF8(t *testing.T) {
	// Odd length rules out UTF-16 and the bytes are not valid UTF-8.
	data := []byte{0xC3, 0x28, 0x0A}
	got := firstClean(data, []Charset{UTF8, UTF16LE, UTF16BE})
	assert.Equal(t, UTF8, got)

	assert.NotPanics(t, func() {
		_ = Decode(data, got)
	})
}

func TestDetect_Deterministic(t *testing.T) {
	data := encode(t, UTF16BE, "ü;2\n")
	first := Detect(data)
	for i := 0; i < 5; i++ {
		assert.Equal(t, first, Detect(data))
	}
}

func TestDecode_StripsBOM(t *testing.T) {
	utf8 := append([]byte{0xEF, 0xBB, 0xBF}, []byte("line\n")...)
	assert.Equal(t, "line\n", Decode(utf8, UTF8))

	le, _, err := transform.Bytes(unicode.UTF16(unicode.LittleEndian, unicode.UseBOM).NewEncoder(), []byte("line\n"))
	require.NoError(t, err)
	assert.Equal(t, UTF16LE, Detect(le))
	assert.Equal(t, "line\n", Decode(le, UTF16LE))
}

func TestDecode_InvalidUTF8IsReplaced(t *testing.T) {
	got := Decode([]byte{'a', 0xFF, 'b'}, UTF8)
	assert.Equal(t, "a\uFFFDb", got)
}

func TestCandidates_Order(t *testing.T) {
	names := make([]string, 0, len(candidates))
	for _, c := range Candidates() {
		names = append(names, c.String())
	}
	assert.Equal(t, []string{"UTF-8", "UTF-16LE", "UTF-16BE", "windows-1251", "KOI8-R", "IBM866"}, names)
}

func TestDecodeDetected(t *testing.T) {
	text, c := DecodeDetected([]byte("plain text"))
	assert.Equal(t, UTF8, c)
	assert.Equal(t, "plain text", text)
}
