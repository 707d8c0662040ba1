package util

import (
	"strings"
	"unicode/utf8"
)

// SanitizeText makes extracted text safe for Postgres text columns and for
// prompts. NUL, other C0 controls (except tab and newline), byte-order marks
// and invalid UTF-8 are dropped; CRLF becomes LF.
func SanitizeText(s string) string {
	if s == "" {
		return s
	}
	if !utf8.ValidString(s) {
		s = strings.ToValidUTF8(s, "")
	}
	s = strings.ReplaceAll(s, "\r\n", "\n")
	s = strings.Map(func(r rune) rune {
		switch {
		case r == '\n' || r == '\t':
			return r
		case r == '\r':
			return '\n'
		case r < 0x20, r == 0x7f, r == '\uFEFF':
			return -1
		}
		return r
	}, s)
	return strings.TrimSpace(s)
}
