package cli

import (
	"context"
	"fmt"
	"io"

	"voxlit/internal/app"
	"voxlit/internal/models"
	"voxlit/internal/util"

	"github.com/spf13/cobra"
)

type dumpRow struct {
	Document models.Document `json:"document"`
	Chunks   []models.Chunk  `json:"chunks"`
}

func (r *runner) dumpCmd() *cobra.Command {
	var outPath string
	cmd := &cobra.Command{
		Use:   "dump",
		Short: "Print every document followed by every chunk",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return r.withKnowledge(cmd, func(ctx context.Context, kb *app.Knowledge, out io.Writer) error {
				rows, err := collect(ctx, kb)
				if err != nil {
					return err
				}
				if outPath != "" {
					lines := make([]any, 0, len(rows))
					for _, row := range rows {
						lines = append(lines, row)
					}
					if err := util.WriteJSONLinesAtomic(outPath, lines); err != nil {
						return err
					}
					fmt.Fprintf(out, "wrote %d documents to %s\n", len(rows), outPath)
					return nil
				}
				if r.flags.JSON {
					return writeJSON(out, rows)
				}
				fmt.Fprint(out, "\n=== DOCUMENTS ===\n\n")
				for _, row := range rows {
					printDocument(out, row.Document)
				}
				fmt.Fprint(out, "\n=== CHUNKS ===\n\n")
				for _, row := range rows {
					for _, c := range row.Chunks {
						printChunk(out, c)
					}
				}
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&outPath, "out", "", "write one JSON line per document to this file")
	return cmd
}

func collect(ctx context.Context, kb *app.Knowledge) ([]dumpRow, error) {
	docs, err := kb.Store.ListDocuments(ctx)
	if err != nil {
		return nil, err
	}
	rows := make([]dumpRow, 0, len(docs))
	for _, d := range docs {
		chunks, err := kb.Store.ListChunks(ctx, d.ID)
		if err != nil {
			return nil, fmt.Errorf("chunks of %s: %w", d.ID, err)
		}
		if chunks == nil {
			chunks = []models.Chunk{}
		}
		rows = append(rows, dumpRow{Document: d, Chunks: chunks})
	}
	return rows, nil
}
