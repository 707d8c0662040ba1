package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"voxlit/internal/app"
	"voxlit/internal/knowledge"

	"github.com/spf13/cobra"
)

func (r *runner) ingestCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "ingest FILE_OR_URL",
		Short: "Extract, chunk and store a PDF synchronously",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			src := args[0]
			return r.withKnowledge(cmd, func(ctx context.Context, kb *app.Knowledge, out io.Writer) error {
				var (
					report knowledge.Report
					err    error
				)
				if strings.HasPrefix(src, "http://") || strings.HasPrefix(src, "https://") {
					report, err = kb.Ingestor.IngestPDFURL(ctx, nil, src)
				} else {
					var data []byte
					data, err = os.ReadFile(src)
					if err != nil {
						return fmt.Errorf("read %s: %w", src, err)
					}
					report, err = kb.Ingestor.IngestPDF(ctx, data, filepath.Base(src))
				}
				if err != nil {
					return err
				}
				if r.flags.JSON {
					return writeJSON(out, report)
				}
				fmt.Fprintf(out, "ingested %s (%d chunks)\n", report.DocumentID, report.Chunks)
				return nil
			})
		},
	}
}
