package plaintext

import (
	"context"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"

	"github.com/kirillkom/studymate/internal/core/domain"
)

// Extractor decodes text uploads. BOM-marked UTF-8/UTF-16 is honoured,
// invalid UTF-8 is read as Windows-1252.
type Extractor struct{}

func NewExtractor() *Extractor {
	return &Extractor{}
}

func (e *Extractor) Extract(_ context.Context, doc domain.UploadedDocument) (string, error) {
	text, err := decode(doc.RawBytes)
	if err != nil {
		return "", err
	}
	return clean(text), nil
}

func decode(data []byte) (string, error) {
	var enc encoding.Encoding
	switch {
	case len(data) >= 3 && data[0] == 0xEF && data[1] == 0xBB && data[2] == 0xBF:
		return string(data[3:]), nil
	case len(data) >= 2 && data[0] == 0xFF && data[1] == 0xFE:
		enc = unicode.UTF16(unicode.LittleEndian, unicode.UseBOM)
	case len(data) >= 2 && data[0] == 0xFE && data[1] == 0xFF:
		enc = unicode.UTF16(unicode.BigEndian, unicode.UseBOM)
	case utf8.Valid(data):
		return string(data), nil
	default:
		enc = charmap.Windows1252
	}

	decoded, _, err := transform.Bytes(enc.NewDecoder(), data)
	if err != nil {
		return "", err
	}
	return string(decoded), nil
}

func clean(text string) string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")
	text = strings.ReplaceAll(text, "\x00", "")

	lines := strings.Split(text, "\n")
	kept := lines[:0]
	for _, line := range lines {
		if line = strings.TrimSpace(line); line != "" {
			kept = append(kept, line)
		}
	}
	return strings.Join(kept, "\n")
}
