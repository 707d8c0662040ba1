// Package speech turns answer text into something a TTS voice can read aloud
// and splits it into short units for incremental synthesis.
package speech

import (
	"net/url"
	"regexp"
	"strings"
)

var (
	mermaidBlockRe = regexp.MustCompile("(?s)```mermaid.*?```")
	urlRe          = regexp.MustCompile(`(?i)\b(?:https?://|www\.)[^\s<>"']+`)
)

// Normalize applies fence stripping, math, URL and numeral substitution in
// that order. It is deterministic and never fails.
func Normalize(text string) string {
	text = mermaidBlockRe.ReplaceAllString(text, "")
	text = strings.ReplaceAll(text, "```", "")
	text = strings.ReplaceAll(text, `\$`, " dollar ")
	text = MathToSpeech(text)
	text = URLsToSpeech(text)
	text = NumbersToWords(text)
	return spaceRunRe.ReplaceAllString(text, " ")
}

// URLsToSpeech replaces URLs with "link to example dot com".
func URLsToSpeech(text string) string {
	return urlRe.ReplaceAllStringFunc(text, speakURL)
}

func speakURL(raw string) string {
	trimmed := strings.TrimRight(raw, ".,;:!?)]")
	trailing := raw[len(trimmed):]
	target := trimmed
	if !strings.Contains(strings.ToLower(target), "://") {
		target = "http://" + target
	}
	u, err := url.Parse(target)
	if err != nil || u.Hostname() == "" {
		return raw
	}
	host := strings.TrimPrefix(strings.ToLower(u.Hostname()), "www.")
	host = strings.ReplaceAll(host, ".", " dot ")
	host = strings.ReplaceAll(host, "-", " dash ")
	return "link to " + host + trailing
}
