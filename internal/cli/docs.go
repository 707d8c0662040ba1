package cli

import (
	"context"
	"fmt"
	"io"

	"voxlit/internal/app"

	"github.com/spf13/cobra"
)

func (r *runner) docsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "docs",
		Short: "List, show and delete knowledge documents",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List every document",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return r.withKnowledge(cmd, func(ctx context.Context, kb *app.Knowledge, out io.Writer) error {
				docs, err := kb.Store.ListDocuments(ctx)
				if err != nil {
					return err
				}
				if r.flags.JSON {
					return writeJSON(out, docs)
				}
				for _, d := range docs {
					printDocument(out, d)
				}
				fmt.Fprintf(out, "%d documents\n", len(docs))
				return nil
			})
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "get DOC_ID",
		Short: "Show one document",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return r.withKnowledge(cmd, func(ctx context.Context, kb *app.Knowledge, out io.Writer) error {
				d, err := kb.Store.GetDocument(ctx, args[0])
				if err != nil {
					return fmt.Errorf("document %s: %w", args[0], err)
				}
				if r.flags.JSON {
					return writeJSON(out, d)
				}
				printDocument(out, d)
				return nil
			})
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "delete DOC_ID",
		Short: "Delete a document with its chunks and vectors",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return r.withKnowledge(cmd, func(ctx context.Context, kb *app.Knowledge, out io.Writer) error {
				report, err := kb.Store.Delete(ctx, args[0])
				if err != nil {
					return err
				}
				if r.flags.JSON {
					return writeJSON(out, report)
				}
				printDeleteReport(out, report)
				return nil
			})
		},
	})
	return cmd
}
