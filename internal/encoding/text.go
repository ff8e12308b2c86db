// Package encoding turns stored bytes of unknown charset into UTF-8 text.
// Documents edited by hand on Windows or exported by older versions of the
// application may carry a BOM or a legacy single-byte charset.
package encoding

import (
	"bytes"
	"fmt"
	"unicode/utf8"

	"github.com/saintfish/chardet"
	xencoding "golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"
)

const (
	CharsetUTF8    = "UTF-8"
	CharsetUTF16LE = "UTF-16LE"
	CharsetUTF16BE = "UTF-16BE"
)

var (
	bomUTF8    = []byte{0xEF, 0xBB, 0xBF}
	bomUTF16LE = []byte{0xFF, 0xFE}
	bomUTF16BE = []byte{0xFE, 0xFF}
)

// legacy maps chardet results to decoders. Anything unknown is read as
// Windows-1252, the usual suspect for Brazilian Portuguese text.
var legacy = map[string]xencoding.Encoding{
	"ISO-8859-1":   charmap.Windows1252,
	"windows-1252": charmap.Windows1252,
	"ISO-8859-9":   charmap.ISO8859_9,
}

// Decode returns b as UTF-8 text along with the charset it was read as.
// BOMs are stripped.
func Decode(b []byte) (string, string, error) {
	switch {
	case bytes.HasPrefix(b, bomUTF8):
		return string(b[len(bomUTF8):]), CharsetUTF8, nil
	case bytes.HasPrefix(b, bomUTF16LE):
		return convert(b, unicode.UTF16(unicode.LittleEndian, unicode.UseBOM), CharsetUTF16LE)
	case bytes.HasPrefix(b, bomUTF16BE):
		return convert(b, unicode.UTF16(unicode.BigEndian, unicode.UseBOM), CharsetUTF16BE)
	}

	if utf8.Valid(b) {
		return string(b), CharsetUTF8, nil
	}

	charset := "windows-1252"

	if res, err := chardet.NewTextDetector().DetectBest(b); err == nil {
		if res.Charset == CharsetUTF8 {
			return string(b), CharsetUTF8, nil
		}

		if _, ok := legacy[res.Charset]; ok {
			charset = res.Charset
		}
	}

	return convert(b, legacy[charset], charset)
}

func convert(b []byte, enc xencoding.Encoding, charset string) (string, string, error) {
	out, err := enc.NewDecoder().Bytes(b)
	if err != nil {
		return "", "", fmt.Errorf("decoding %s: %w", charset, err)
	}

	return string(out), charset, nil
}

// WithBOM prefixes UTF-8 text with a byte order mark so spreadsheet tools
// pick the right charset when opening exports.
func WithBOM(text string) []byte {
	out := make([]byte, 0, len(bomUTF8)+len(text))
	out = append(out, bomUTF8...)

	return append(out, text...)
}
