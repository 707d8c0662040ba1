package speech

import "strings"

// MaxUnitRunes is the length after which a space ends a streaming unit.
const MaxUnitRunes = 50

// Segment splits text into sentence or clause sized units. Splitting is
// suspended inside $...$ math spans. A newline always ends a unit, so blank
// units can appear and act as pacing markers.
func Segment(text string) []string {
	runes := []rune(text)
	units := make([]string, 0, len(runes)/40+1)
	var cur strings.Builder
	curLen := 0
	mathMode := false

	flush := func() {
		units = append(units, strings.TrimSpace(cur.String()))
		cur.Reset()
		curLen = 0
	}

	for i := 0; i < len(runes); i++ {
		r := runes[i]
		if r == '$' && (i == 0 || runes[i-1] != '\\') {
			cur.WriteRune(r)
			curLen++
			if i+1 < len(runes) && runes[i+1] == '$' {
				cur.WriteRune('$')
				curLen++
				i++
			}
			mathMode = !mathMode
			continue
		}
		if mathMode {
			cur.WriteRune(r)
			curLen++
			continue
		}
		switch {
		case r == '\n':
			flush()
		case isTerminal(r) && (i+1 == len(runes) || runes[i+1] == ' ' || runes[i+1] == '\t'):
			cur.WriteRune(r)
			flush()
		case r == ' ' && curLen > MaxUnitRunes:
			flush()
		default:
			cur.WriteRune(r)
			curLen++
		}
	}
	if rest := strings.TrimSpace(cur.String()); rest != "" {
		units = append(units, rest)
	}
	return units
}

func isTerminal(r rune) bool {
	switch r {
	case '.', '!', '?', ':', ';':
		return true
	}
	return false
}
