package knowledge

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"voxlit/internal/models"
)

const (
	DefaultContextChars = 4000
	excerptRunes        = 600
	contextHeader       = "You have access to the user's stored knowledge base. Here are the most relevant chunks:\n\n"
)

// FormatContext renders results as a compact block for the model. Blocks are
// added in order until the next one would exceed maxChars.
func FormatContext(results []models.RetrievalResult, maxChars int) string {
	if maxChars <= 0 {
		maxChars = DefaultContextChars
	}
	blocks := make([]string, 0, len(results))
	used := 0
	for _, r := range results {
		snippet := r.ConversationalText
		if strings.TrimSpace(snippet) == "" {
			snippet = r.SourceExtract
		}
		snippet = strings.ReplaceAll(strings.TrimSpace(snippet), "\n", " ")
		if rs := []rune(snippet); len(rs) > excerptRunes {
			snippet = string(rs[:excerptRunes])
		}

		block := fmt.Sprintf("Title: %s\nSource: %s (doc_id=%s, chunk_id=%s)\nKey Details: %s\nExcerpt: %s\n",
			r.Title, r.SourceKind, r.DocumentID, r.ChunkID, strings.Join(r.KeyDetails, ", "), snippet)
		n := utf8.RuneCountInString(block)
		if used+n > maxChars {
			break
		}
		blocks = append(blocks, block)
		used += n
	}
	if len(blocks) == 0 {
		return ""
	}
	return contextHeader + strings.Join(blocks, "\n---\n")
}
