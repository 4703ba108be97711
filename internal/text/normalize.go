package text

import (
	"errors"
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"
)

var (
	// ErrEmptyText is returned when the script is empty or whitespace-only.
	ErrEmptyText = errors.New("text is empty")
	// ErrTooLong is returned when the script exceeds the byte limit.
	ErrTooLong = errors.New("text too long")
)

// NormalizeScript prepares raw script text for synthesis.
// It normalizes line endings to \n, drops control characters other than
// newline and tab, trims surrounding whitespace and rejects empty input.
// A maxBytes of 0 disables the length check.
func NormalizeScript(s string, maxBytes int) (string, error) {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	s = strings.ReplaceAll(s, "\r", "\n")

	if !utf8.ValidString(s) {
		s = strings.ToValidUTF8(s, "")
	}

	s = strings.Map(func(r rune) rune {
		if r == '\n' || r == '\t' || !unicode.IsControl(r) {
			return r
		}
		return -1
	}, s)

	s = strings.TrimSpace(s)
	if s == "" {
		return "", ErrEmptyText
	}

	if maxBytes > 0 && len(s) > maxBytes {
		return "", fmt.Errorf("%w: %d bytes exceeds maximum of %d", ErrTooLong, len(s), maxBytes)
	}

	return s, nil
}

// SanitizeName lower-cases s and keeps only ASCII letters and digits, the
// form used for download filenames.
func SanitizeName(s string) string {
	var b strings.Builder
	b.Grow(len(s))

	for _, r := range strings.ToLower(s) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		}
	}

	return b.String()
}

// ExportFilename joins sanitized profile and take names with the extension,
// e.g. "narrator_highpitch.wav".
func ExportFilename(profile, take, ext string) string {
	return SanitizeName(profile) + "_" + SanitizeName(take) + "." + strings.TrimPrefix(ext, ".")
}
