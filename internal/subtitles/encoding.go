package subtitles

import (
	"bytes"
	"fmt"
	"unicode/utf8"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/simplifiedchinese"
	"golang.org/x/text/encoding/unicode"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// Normalize converts subtitle bytes to UTF-8 with \n line endings and reports
// the source encoding it assumed. Detection order: UTF-8 BOM, UTF-16 BOM,
// valid UTF-8, GB18030 (a superset of GB2312 and GBK) when the high bytes look
// like GB2312 double-byte pairs and decode without replacement characters, and
// finally Windows-1252, which accepts any input.
func Normalize(data []byte) ([]byte, string, error) {
	var (
		text []byte
		name string
		err  error
	)
	switch {
	case bytes.HasPrefix(data, utf8BOM):
		text, name = data[len(utf8BOM):], "utf-8"
	case bytes.HasPrefix(data, []byte{0xFF, 0xFE}):
		text, err = decode(unicode.UTF16(unicode.LittleEndian, unicode.ExpectBOM), data)
		name = "utf-16le"
	case bytes.HasPrefix(data, []byte{0xFE, 0xFF}):
		text, err = decode(unicode.UTF16(unicode.BigEndian, unicode.ExpectBOM), data)
		name = "utf-16be"
	case utf8.Valid(data):
		text, name = data, "utf-8"
	default:
		if looksLikeGB2312(data) {
			text, err = decode(simplifiedchinese.GB18030, data)
			name = "gb18030"
		}
		if name == "" || err != nil || bytes.ContainsRune(text, utf8.RuneError) {
			text, err = decode(charmap.Windows1252, data)
			name = "windows-1252"
		}
	}
	if err != nil {
		return nil, "", fmt.Errorf("decode %s subtitle: %w", name, err)
	}
	return normalizeNewlines(text), name, nil
}

// looksLikeGB2312 reports whether most multi-byte sequences fall in the
// GB2312 range, where both bytes are 0xA1 or above. Latin text in a single
// byte code page mostly puts ASCII after each accented letter, which GB18030
// would still decode as a pair of unrelated CJK characters.
func looksLikeGB2312(data []byte) bool {
	var pairs, common int
	for i := 0; i < len(data); i++ {
		b := data[i]
		if b < 0x80 {
			continue
		}
		if i+1 >= len(data) {
			return false
		}
		pairs++
		next := data[i+1]
		if b >= 0xA1 && b <= 0xF7 && next >= 0xA1 && next <= 0xFE {
			common++
		}
		if next >= 0x30 && next <= 0x39 {
			i += 3
		} else {
			i++
		}
	}
	return pairs > 0 && common*10 >= pairs*8
}

func decode(enc encoding.Encoding, data []byte) ([]byte, error) {
	return enc.NewDecoder().Bytes(data)
}

func normalizeNewlines(data []byte) []byte {
	data = bytes.ReplaceAll(data, []byte("\r\n"), []byte("\n"))
	return bytes.ReplaceAll(data, []byte("\r"), []byte("\n"))
}
