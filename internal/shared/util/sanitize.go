package util

import (
	"errors"
	"strings"
	"unicode"
)

// MaxFileNameLength bounds stored export file names.
const MaxFileNameLength = 128

var ErrInvalidFileName = errors.New("invalid file name")

// SanitizeFileName makes a download file name safe to use as the last segment of a
// storage key and in a Content-Disposition header. Separators become underscores,
// quotes and control characters are dropped, and traversal patterns are rejected.
func SanitizeFileName(name string) (string, error) {
	if strings.Contains(name, "..") {
		return "", ErrInvalidFileName
	}
	var b strings.Builder
	for _, r := range strings.TrimSpace(name) {
		switch {
		case r == '/' || r == '\\':
			b.WriteByte('_')
		case r == '"' || unicode.IsControl(r):
		default:
			b.WriteRune(r)
		}
	}
	s := b.String()
	if s == "" {
		return "", ErrInvalidFileName
	}
	if len(s) > MaxFileNameLength {
		s = s[len(s)-MaxFileNameLength:]
	}
	return s, nil
}
