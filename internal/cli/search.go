package cli

import (
	"context"
	"fmt"
	"io"
	"strings"

	"voxlit/internal/app"

	"github.com/spf13/cobra"
)

func (r *runner) searchCmd() *cobra.Command {
	var k int
	cmd := &cobra.Command{
		Use:   "search QUERY",
		Short: "Run a semantic search over the stored chunks",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if k < 1 || k > 50 {
				return fmt.Errorf("--k must be between 1 and 50, got %d", k)
			}
			query := strings.Join(args, " ")
			return r.withKnowledge(cmd, func(ctx context.Context, kb *app.Knowledge, out io.Writer) error {
				results, err := kb.Store.Search(ctx, query, k)
				if err != nil {
					return err
				}
				if r.flags.JSON {
					return writeJSON(out, results)
				}
				if len(results) == 0 {
					fmt.Fprintln(out, "no matches")
					return nil
				}
				for i, res := range results {
					printResult(out, i+1, query, res)
				}
				return nil
			})
		},
	}
	cmd.Flags().IntVar(&k, "k", 5, "number of results")
	return cmd
}
