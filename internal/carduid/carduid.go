// Package carduid normalizes raw NFC reader payloads into canonical
// card identifiers.
package carduid

import (
	"errors"
	"regexp"
	"strings"
)

// ErrMalformedUID is returned when no card identifier can be extracted
// from a raw payload.
var ErrMalformedUID = errors.New("malformed card uid")

// uidPattern matches a leading colon-separated hex-pair UID of at least
// four pairs, which covers both 4-byte and 7-byte hardware UIDs. The
// reader often appends framing garbage (timestamps, status words) after
// the UID; only the leading match counts.
var uidPattern = regexp.MustCompile(`^([0-9A-Fa-f]{2}:){3,}[0-9A-Fa-f]{2}`)

// Normalize extracts the canonical uppercase identifier from a raw
// reader payload. The payload may contain embedded NUL bytes and
// trailing garbage. Normalizing an already-canonical identifier returns
// it unchanged.
func Normalize(raw string) (string, error) {
	cleaned := strings.ReplaceAll(raw, "\x00", "")
	if cleaned == "" {
		return "", ErrMalformedUID
	}

	match := uidPattern.FindString(cleaned)
	if match == "" {
		return "", ErrMalformedUID
	}

	return strings.ToUpper(match), nil
}
