package cli

import (
	"context"
	"fmt"
	"io"

	"voxlit/internal/app"

	"github.com/spf13/cobra"
)

func (r *runner) chunksCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "chunks",
		Short: "List, show and delete chunks",
	}

	var docID string
	list := &cobra.Command{
		Use:   "list",
		Short: "List chunks, optionally for one document",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return r.withKnowledge(cmd, func(ctx context.Context, kb *app.Knowledge, out io.Writer) error {
				chunks, err := kb.Store.ListChunks(ctx, docID)
				if err != nil {
					return err
				}
				if r.flags.JSON {
					return writeJSON(out, chunks)
				}
				for _, c := range chunks {
					printChunk(out, c)
				}
				fmt.Fprintf(out, "%d chunks\n", len(chunks))
				return nil
			})
		},
	}
	list.Flags().StringVar(&docID, "doc", "", "only chunks of this document")
	cmd.AddCommand(list)

	cmd.AddCommand(&cobra.Command{
		Use:   "get CHUNK_ID",
		Short: "Show one chunk",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return r.withKnowledge(cmd, func(ctx context.Context, kb *app.Knowledge, out io.Writer) error {
				c, err := kb.Store.GetChunk(ctx, args[0])
				if err != nil {
					return fmt.Errorf("chunk %s: %w", args[0], err)
				}
				if r.flags.JSON {
					return writeJSON(out, c)
				}
				printChunk(out, c)
				return nil
			})
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "delete CHUNK_ID",
		Short: "Delete a single chunk and its vector",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return r.withKnowledge(cmd, func(ctx context.Context, kb *app.Knowledge, out io.Writer) error {
				report, err := kb.Store.DeleteChunk(ctx, args[0])
				if err != nil {
					return err
				}
				if r.flags.JSON {
					return writeJSON(out, report)
				}
				fmt.Fprintf(out, "deleted chunk %s of %s\n", args[0], report.DocumentID)
				if report.Warning != "" {
					fmt.Fprintf(out, "warning: %s\n", report.Warning)
				}
				return nil
			})
		},
	})
	return cmd
}
