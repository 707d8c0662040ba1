package decision

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
)

// Parse converts raw model output into a Record. It never fails: strict JSON
// decoding is tried first, then field-by-field repair, then the raw text.
func Parse(raw string) Record {
	if rec, ok := parseStrict(raw); ok {
		return rec
	}
	if rec, ok := repair(raw); ok {
		return rec
	}
	return Record{Text: strings.TrimSpace(raw), Config: map[string]any{}, Tool: ToolNone}
}

type envelope struct {
	Text   json.RawMessage `json:"text"`
	Config json.RawMessage `json:"config"`
	Tool   json.RawMessage `json:"tool"`
	Args   json.RawMessage `json:"args"`
}

func parseStrict(raw string) (Record, bool) {
	body := stripCodeFence(strings.TrimSpace(raw))
	if body == "" {
		return Record{}, false
	}
	var env envelope
	if err := json.Unmarshal([]byte(body), &env); err != nil {
		return Record{}, false
	}
	if len(env.Text) == 0 {
		return Record{}, false
	}
	return Record{
		Text:   rawText(env.Text),
		Config: FilterConfig(decodeConfig(env.Config)),
		Tool:   ParseTool(rawText(env.Tool)),
		Args:   rawText(env.Args),
	}, true
}

// Each field value runs up to the label of the field that follows it, so a
// stray quote inside a value does not end the match early.
var (
	textPatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?s)["']text["']\s*:\s*["'](.*?)["']\s*,\s*["']config["']`),
		regexp.MustCompile(`(?s)["']text["']\s*:\s*["'](.*?)["']\s*,\s*["']tool["']`),
		regexp.MustCompile(`(?s)["']text["']\s*:\s*["'](.*?)["']\s*,\s*["']args["']`),
		regexp.MustCompile(`(?s)["']text["']\s*:\s*["'](.*)["']\s*\}`),
	}
	configPatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?s)["']config["']\s*:\s*(\{.*?\})\s*,\s*["']tool["']`),
		regexp.MustCompile(`(?s)["']config["']\s*:\s*(\{.*?\})\s*,\s*["']args["']`),
		regexp.MustCompile(`(?s)["']config["']\s*:\s*(\{.*\})\s*\}`),
	}
	toolPatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?s)["']tool["']\s*:\s*["'](.*?)["']\s*,\s*["']args["']`),
		regexp.MustCompile(`(?s)["']tool["']\s*:\s*["'](.*?)["']\s*\}`),
	}
	argsPatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?s)["']args["']\s*:\s*["'](.*)["']\s*\}`),
	}
)

func repair(raw string) (Record, bool) {
	text, ok := firstMatch(raw, textPatterns)
	if !ok {
		return Record{}, false
	}
	rec := Record{Text: unescape(text), Config: map[string]any{}, Tool: ToolNone}
	if cfg, ok := firstMatch(raw, configPatterns); ok {
		rec.Config = FilterConfig(decodeConfig(json.RawMessage(cfg)))
	}
	if tool, ok := firstMatch(raw, toolPatterns); ok {
		rec.Tool = ParseTool(tool)
	}
	if args, ok := firstMatch(raw, argsPatterns); ok {
		rec.Args = unescape(args)
	}
	return rec, true
}

func firstMatch(raw string, patterns []*regexp.Regexp) (string, bool) {
	for _, re := range patterns {
		if m := re.FindStringSubmatch(raw); m != nil {
			return m[1], true
		}
	}
	return "", false
}

var escapes = strings.NewReplacer(`\\`, `\`, `\"`, `"`, `\'`, `'`, `\n`, "\n", `\t`, "\t", `\r`, "")

func unescape(s string) string {
	return escapes.Replace(s)
}

func decodeConfig(raw json.RawMessage) map[string]any {
	out := map[string]any{}
	if len(raw) == 0 {
		return out
	}
	if err := json.Unmarshal(raw, &out); err != nil || out == nil {
		return map[string]any{}
	}
	return out
}

// rawText renders a JSON value as text: strings as-is, lists joined, anything
// else in its JSON form.
func rawText(raw json.RawMessage) string {
	if len(raw) == 0 || string(raw) == "null" {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	var list []any
	if err := json.Unmarshal(raw, &list); err == nil {
		var b strings.Builder
		for _, item := range list {
			if str, ok := item.(string); ok {
				b.WriteString(str)
				continue
			}
			b.WriteString(fmt.Sprint(item))
		}
		return b.String()
	}
	return strings.TrimSpace(string(raw))
}

func stripCodeFence(s string) string {
	if strings.HasPrefix(s, "```") {
		s = strings.TrimPrefix(s, "```json")
		s = strings.TrimPrefix(s, "```")
		s = strings.TrimSuffix(s, "```")
	}
	return strings.TrimSpace(s)
}
