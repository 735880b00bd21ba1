package cli

import (
	"github.com/spf13/cobra"

	"github.com/roach88/blastdb/internal/store"
)

// FetchOptions holds flags for the fetch command.
type FetchOptions struct {
	*RootOptions
	Database string
}

// NewFetchCommand creates the fetch command.
func NewFetchCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &FetchOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "fetch <RID>",
		Short: "Wait for an already submitted search and store its results",
		Long: `Poll an existing request ID until it is ready, then fetch, parse and
store its results. No new search is submitted.

Example:
  blastdb fetch 8B1ZRJ4S016 --db ./results.db`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runFetch(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite database (default "+store.DefaultPath+")")

	return cmd
}

func runFetch(opts *FetchOptions, rid string, cmd *cobra.Command) error {
	env, err := newCommandEnv(opts.RootOptions, cmd)
	if err != nil {
		return err
	}
	defer env.writeMetrics()

	ctx, stop := signalContext(cmd, env.logger)
	defer stop()

	res, err := env.runner(env.dbPath(opts.Database)).Resume(ctx, rid)
	if err != nil {
		return env.runFailed(err)
	}
	return env.stored(res)
}
