package util

import (
	"sort"
	"strings"
	"unicode"
)

// DisplaySnippet cleans s for display and cuts it to maxRunes.
func DisplaySnippet(s string, maxRunes int) string {
	return trimClean(s, maxRunes)
}

// QuerySnippet picks the sentences of text that share the most terms with
// query. Ties go to the earlier sentence. With no overlap it falls back to
// the head of text.
func QuerySnippet(text, query string, maxRunes int) string {
	text = trimClean(text, 4000)
	terms := queryTerms(query)
	sentences := splitSentences(text)
	if text == "" || len(terms) == 0 || len(sentences) < 2 {
		return trimClean(text, maxRunes)
	}

	hits := make([]int, len(sentences))
	order := make([]int, len(sentences))
	for i, s := range sentences {
		order[i] = i
		low := strings.ToLower(s)
		for _, term := range terms {
			if strings.Contains(low, term) {
				hits[i]++
			}
		}
	}
	sort.SliceStable(order, func(a, b int) bool { return hits[order[a]] > hits[order[b]] })

	best := order[0]
	if hits[best] == 0 {
		return trimClean(text, maxRunes)
	}
	picked := []int{best}
	if second := order[1]; hits[second] > 0 {
		picked = append(picked, second)
		sort.Ints(picked)
	}
	parts := make([]string, 0, len(picked))
	for _, i := range picked {
		parts = append(parts, sentences[i])
	}
	return trimClean(strings.Join(parts, " "), maxRunes)
}

func splitSentences(s string) []string {
	var out []string
	start := 0
	for i, r := range s {
		if r != '.' && r != '!' && r != '?' {
			continue
		}
		if x := strings.TrimSpace(s[start : i+1]); x != "" {
			out = append(out, x)
		}
		start = i + 1
	}
	if rest := strings.TrimSpace(s[start:]); rest != "" {
		out = append(out, rest)
	}
	return out
}

var stopWords = map[string]bool{
	"the": true, "and": true, "for": true, "are": true, "was": true, "were": true,
	"what": true, "how": true, "why": true, "which": true, "that": true, "this": true,
	"these": true, "those": true, "with": true, "from": true, "about": true, "tell": true,
}

func queryTerms(s string) []string {
	seen := map[string]bool{}
	var terms []string
	for _, f := range strings.Fields(strings.ToLower(s)) {
		f = strings.TrimFunc(f, func(r rune) bool { return !unicode.IsLetter(r) && !unicode.IsNumber(r) })
		if len([]rune(f)) < 3 || stopWords[f] || seen[f] {
			continue
		}
		seen[f] = true
		terms = append(terms, f)
	}
	return terms
}

func trimClean(s string, maxRunes int) string {
	if maxRunes <= 0 {
		maxRunes = 420
	}
	s = normalizeWhitespace(restoreWordBoundaries(SanitizeText(s)))
	s = strings.Map(func(r rune) rune {
		if !unicode.IsPrint(r) {
			return -1
		}
		if unicode.IsLetter(r) || unicode.IsNumber(r) || unicode.IsSpace(r) || unicode.IsPunct(r) {
			return r
		}
		return -1
	}, s)
	s = strings.TrimSpace(s)
	if runes := []rune(s); len(runes) > maxRunes {
		return strings.TrimSpace(string(runes[:maxRunes])) + "..."
	}
	return s
}

// restoreWordBoundaries inserts the spaces PDF extraction tends to drop
// between a lowercase and an uppercase letter or between letters and digits.
func restoreWordBoundaries(s string) string {
	in := []rune(s)
	var b strings.Builder
	b.Grow(len(s) + len(s)/8)
	for i, r := range in {
		if i > 0 && needBoundary(in[i-1], r) && !unicode.IsSpace(in[i-1]) {
			b.WriteByte(' ')
		}
		b.WriteRune(r)
	}
	return b.String()
}

func needBoundary(a, b rune) bool {
	switch {
	case unicode.IsLower(a) && unicode.IsUpper(b):
		return true
	case unicode.IsLetter(a) && unicode.IsDigit(b):
		return true
	case unicode.IsDigit(a) && unicode.IsLetter(b):
		return true
	}
	return false
}

func normalizeWhitespace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
