package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"voxlit/internal/knowledge"
	"voxlit/internal/models"
	"voxlit/internal/util"
)

const rule = "----------------------------------------"

func writeJSON(out io.Writer, v any) error {
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func printDocument(out io.Writer, d models.Document) {
	fmt.Fprintf(out, "ID: %s\n", d.ID)
	fmt.Fprintf(out, "Title: %s\n", d.Title)
	fmt.Fprintf(out, "Source: %s\n", d.SourceKind)
	if len(d.Metadata) > 0 {
		meta, _ := json.Marshal(d.Metadata)
		fmt.Fprintf(out, "Extra Meta: %s\n", meta)
	}
	fmt.Fprintf(out, "Created At: %s\n", d.CreatedAt.UTC().Format(time.RFC3339))
	fmt.Fprintln(out, rule)
}

func printChunk(out io.Writer, c models.Chunk) {
	fmt.Fprintf(out, "Chunk ID: %s\n", c.ID)
	fmt.Fprintf(out, "Doc ID: %s\n", c.DocumentID)
	fmt.Fprintf(out, "Conversational:\n%s\n\n", c.ConversationalText)
	if len(c.KeyDetails) > 0 {
		fmt.Fprintf(out, "Key Details: %s\n", strings.Join(c.KeyDetails, "; "))
	}
	fmt.Fprintf(out, "Source Extract:\n%s\n\n", c.SourceExtract)
	for _, f := range c.FAQ {
		fmt.Fprintf(out, "Q: %s\nA: %s\n", f.Q, f.A)
	}
	fmt.Fprintln(out, rule)
}

func printResult(out io.Writer, rank int, query string, r models.RetrievalResult) {
	fmt.Fprintf(out, "%d. [%.3f] %s (%s)\n", rank, r.Score, r.Title, r.ChunkID)
	fmt.Fprintf(out, "   %s\n", util.DisplaySnippet(r.ConversationalText, 200))
	if ev := util.QuerySnippet(r.SourceExtract, query, 240); ev != "" {
		fmt.Fprintf(out, "   > %s\n", ev)
	}
}

func printDeleteReport(out io.Writer, r knowledge.DeleteReport) {
	fmt.Fprintf(out, "deleted %s (%d chunks)\n", r.DocumentID, len(r.ChunkIDs))
	if r.Warning != "" {
		fmt.Fprintf(out, "warning: %s\n", r.Warning)
	}
}
