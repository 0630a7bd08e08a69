// Package encoding provides character classification and encoding
// conversion for AI5 script text.
//
// MES text is stored as Shift_JIS. Conversion to UTF-8 is done with
// golang.org/x/text; classification of lead bytes follows the engine's own
// rules, which are narrower than the full CP932 lead byte range.
package encoding

import (
	"strings"

	"github.com/pkg/errors"
	"golang.org/x/text/encoding/japanese"
	"golang.org/x/text/transform"
)

// Type selects how script text is converted on output.
type Type int

const (
	ShiftJIS Type = iota // Decode Shift_JIS to UTF-8
	Raw                  // Pass the bytes through untouched
)

func (t Type) String() string {
	switch t {
	case ShiftJIS:
		return "Shift_JIS"
	case Raw:
		return "raw"
	default:
		return "[unknown]"
	}
}

// Parse returns the encoding type from a string name.
func Parse(name string) (Type, error) {
	switch strings.ToUpper(strings.TrimSpace(name)) {
	case "", "SHIFTJIS", "SHIFT_JIS", "SHIFT-JIS", "SJS", "SJIS", "CP932":
		return ShiftJIS, nil
	case "RAW", "NONE":
		return Raw, nil
	}
	return ShiftJIS, errors.Errorf("unsupported encoding: %q", name)
}

// IsZenkaku reports whether b is the lead byte of a double-byte (full-width)
// character as understood by the MES text reader.
func IsZenkaku(b byte) bool {
	return (b >= 0x81 && b <= 0x9f) || (b >= 0xe0 && b <= 0xef)
}

// IsHankaku reports whether b is a single-byte (half-width) character:
// printable ASCII or half-width katakana.
func IsHankaku(b byte) bool {
	return (b >= 0x20 && b <= 0x7e) || (b >= 0xa1 && b <= 0xdf)
}

// ToUTF8 converts script text to UTF-8 according to enc.
func ToUTF8(data []byte, enc Type) (string, error) {
	switch enc {
	case Raw:
		return string(data), nil
	case ShiftJIS:
		s, _, err := transform.String(japanese.ShiftJIS.NewDecoder(), string(data))
		if err != nil {
			return "", errors.Wrap(err, "Shift_JIS decode failed")
		}
		return s, nil
	}
	return "", errors.Errorf("unsupported encoding: %v", enc)
}

// FromUTF8 converts UTF-8 text back to Shift_JIS.
func FromUTF8(text string) ([]byte, error) {
	s, _, err := transform.String(japanese.ShiftJIS.NewEncoder(), text)
	if err != nil {
		return nil, errors.Wrap(err, "Shift_JIS encode failed")
	}
	return []byte(s), nil
}
