// Package cli implements kbctl, an operator tool for inspecting and pruning
// the knowledge store outside the chat service.
package cli

import (
	"context"
	"io"
	"os"

	"voxlit/internal/app"
	"voxlit/internal/config"
	"voxlit/internal/logging"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

// Opener builds the knowledge stack a command runs against. The returned
// Knowledge is closed when the command finishes.
type Opener func(ctx context.Context) (*app.Knowledge, error)

// GlobalFlags holds flags shared across all commands.
type GlobalFlags struct {
	JSON bool
}

type runner struct {
	open  Opener
	flags GlobalFlags
}

// NewRootCommand assembles the kbctl command tree around open.
func NewRootCommand(open Opener) *cobra.Command {
	r := &runner{open: open}
	root := &cobra.Command{
		Use:           "kbctl",
		Short:         "Inspect and prune the voxlit knowledge store",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().BoolVar(&r.flags.JSON, "json", false, "emit JSON instead of text")

	root.AddCommand(r.docsCmd())
	root.AddCommand(r.chunksCmd())
	root.AddCommand(r.searchCmd())
	root.AddCommand(r.dumpCmd())
	root.AddCommand(r.ingestCmd())
	return root
}

// Execute runs kbctl against the Postgres store named by the environment.
func Execute() error {
	_ = godotenv.Load(".env")
	cfg := config.Load()
	logger := logging.New(logging.Options{File: cfg.LogFile, Production: cfg.LogProduction})
	defer func() { _ = logger.Sync() }()

	open := func(ctx context.Context) (*app.Knowledge, error) {
		return app.BuildKnowledge(ctx, cfg, true, logger)
	}
	root := NewRootCommand(open)
	root.SetOut(os.Stdout)
	return root.Execute()
}

// withKnowledge opens the store for the duration of fn.
func (r *runner) withKnowledge(cmd *cobra.Command, fn func(ctx context.Context, kb *app.Knowledge, out io.Writer) error) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	kb, err := r.open(ctx)
	if err != nil {
		return err
	}
	defer kb.Close()
	return fn(ctx, kb, cmd.OutOrStdout())
}
