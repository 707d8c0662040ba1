package decision

import "strings"

type Tool string

const (
	ToolNone          Tool = "NONE"
	ToolSearchArxiv   Tool = "SEARCH_ARXIV"
	ToolSearchWeb     Tool = "SEARCH_WEB"
	ToolSearchPatents Tool = "SEARCH_PATENTS"
	ToolExecuteCode   Tool = "EXECUTE_CODE"
	ToolRenderMermaid Tool = "RENDER_MERMAID"
	ToolAnswer        Tool = "ANSWER"
)

var tools = []Tool{ToolNone, ToolSearchArxiv, ToolSearchWeb, ToolSearchPatents, ToolExecuteCode, ToolRenderMermaid, ToolAnswer}

// ParseTool maps a model-supplied tool name onto the closed set. Anything
// unrecognized, including the empty string, is ToolNone.
func ParseTool(s string) Tool {
	s = strings.ToUpper(strings.TrimSpace(s))
	for _, t := range tools {
		if string(t) == s {
			return t
		}
	}
	return ToolNone
}

// AllowedConfigKeys are the only settings a model turn may change.
var AllowedConfigKeys = []string{"rate", "pitch", "style", "temperature", "accent_color"}

type Record struct {
	Text   string         `json:"text"`
	Config map[string]any `json:"config"`
	Tool   Tool           `json:"tool"`
	Args   string         `json:"args"`
}

// Failure is the record returned when the whole turn failed.
func Failure(err error) Record {
	msg := "Sorry, something went wrong."
	if err != nil {
		msg = err.Error()
	}
	return Record{Text: msg, Config: map[string]any{}, Tool: ToolNone}
}

func FilterConfig(in map[string]any) map[string]any {
	out := make(map[string]any, len(in))
	for _, k := range AllowedConfigKeys {
		if v, ok := in[k]; ok {
			out[k] = v
		}
	}
	return out
}
