package util

import (
	"strings"
	"unicode"
)

// ChunkText cuts text into windows of at most size runes, each starting
// overlap runes before the previous one ended. A window that would split a
// word is pulled back to the last whitespace in its second half.
func ChunkText(text string, size, overlap int) []string {
	if size <= 0 {
		size = 1200
	}
	if overlap < 0 || overlap >= size {
		overlap = 0
	}
	runes := []rune(text)
	var out []string
	for start := 0; start < len(runes); {
		end := start + size
		if end >= len(runes) {
			end = len(runes)
		} else if cut := lastSpace(runes[start+size/2 : end]); cut >= 0 {
			end = start + size/2 + cut + 1
		}
		if part := strings.TrimSpace(string(runes[start:end])); part != "" {
			out = append(out, part)
		}
		if end == len(runes) {
			break
		}
		next := end - overlap
		if next <= start {
			next = end
		}
		start = next
	}
	return out
}

func lastSpace(rs []rune) int {
	for i := len(rs) - 1; i >= 0; i-- {
		if unicode.IsSpace(rs[i]) {
			return i
		}
	}
	return -1
}
