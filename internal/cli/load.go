package cli

import (
	"github.com/spf13/cobra"

	"github.com/roach88/blastdb/internal/store"
)

// LoadOptions holds flags for the load command.
type LoadOptions struct {
	*RootOptions
	Database string
}

// NewLoadCommand creates the load command.
func NewLoadCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &LoadOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "load <results.xml>",
		Short: "Store a BLAST XML result file that is already on disk",
		Long: `Parse a BLAST XML document (as produced by FORMAT_TYPE=XML) and append
its queries, hits and HSPs to the database. Nothing is written if any
required field is missing.

Example:
  blastdb load results.xml --db ./results.db`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLoad(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite database (default "+store.DefaultPath+")")

	return cmd
}

func runLoad(opts *LoadOptions, path string, cmd *cobra.Command) error {
	env, err := newCommandEnv(opts.RootOptions, cmd)
	if err != nil {
		return err
	}
	defer env.writeMetrics()

	ctx, stop := signalContext(cmd, env.logger)
	defer stop()

	res, err := env.runner(env.dbPath(opts.Database)).Load(ctx, path)
	if err != nil {
		return env.runFailed(err)
	}
	return env.stored(res)
}
