package models

import "time"

type SourceKind string

const (
	SourcePDF    SourceKind = "pdf"
	SourceArxiv  SourceKind = "arxiv"
	SourceWeb    SourceKind = "web"
	SourcePatent SourceKind = "patent"
	SourcePython SourceKind = "python"
)

// SourceKinds lists every kind in the order gating directives are emitted.
var SourceKinds = []SourceKind{SourceArxiv, SourceWeb, SourcePatent, SourcePython, SourcePDF}

func (k SourceKind) Valid() bool {
	for _, s := range SourceKinds {
		if s == k {
			return true
		}
	}
	return false
}

type Document struct {
	ID         string         `json:"id"`
	Title      string         `json:"title"`
	SourceKind SourceKind     `json:"source"`
	Metadata   map[string]any `json:"extra_meta,omitempty"`
	CreatedAt  time.Time      `json:"created_at"`
}

type FAQ struct {
	Q string `json:"q"`
	A string `json:"a"`
}

type Chunk struct {
	ID                 string   `json:"id"`
	DocumentID         string   `json:"doc_id"`
	ConversationalText string   `json:"conversational"`
	KeyDetails         []string `json:"key_details"`
	SourceExtract      string   `json:"source_extract"`
	FAQ                []FAQ    `json:"faq"`
}

// EmbeddingInput is the text a chunk is indexed under.
func (c Chunk) EmbeddingInput() string {
	return c.ConversationalText + "\n" + c.SourceExtract
}

type RetrievalResult struct {
	ChunkID            string     `json:"chunk_id"`
	DocumentID         string     `json:"doc_id"`
	Title              string     `json:"title"`
	SourceKind         SourceKind `json:"source"`
	Score              float64    `json:"score"`
	ConversationalText string     `json:"conversational"`
	KeyDetails         []string   `json:"key_details"`
	SourceExtract      string     `json:"source_extract"`
	FAQ                []FAQ      `json:"faq"`
}

// ToolResult is the raw output of a tool call queued for knowledge persistence.
type ToolResult struct {
	Tool       string     `json:"tool"`
	SourceKind SourceKind `json:"source"`
	Query      string     `json:"query"`
	Output     string     `json:"output"`
	Title      string     `json:"title,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
}

type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)
