package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/blastdb/internal/pipeline"
	"github.com/roach88/blastdb/internal/store"
)

// RunOptions holds flags for the run command.
type RunOptions struct {
	*RootOptions
	Input    string
	Database string
}

// NewRunCommand creates the run command.
func NewRunCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RunOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "run -i <fasta>",
		Short: "Submit a sequence file and store the results",
		Long: `Submit a FASTA file to NCBI BLAST (blastn against nt), wait for the
search to finish, and append the results to the SQLite database.

The database is created if it does not exist. Rows are appended, so
running the same input twice stores its results twice.

Example:
  blastdb run -i sample.fasta
  blastdb run -i sample.fasta.gz --db ./results.db --verbose`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPipeline(opts, cmd)
		},
	}

	cmd.Flags().StringVarP(&opts.Input, "input", "i", "", "FASTA file to submit, or - for stdin (required)")
	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite database (default "+store.DefaultPath+")")
	_ = cmd.MarkFlagRequired("input")

	return cmd
}

func runPipeline(opts *RunOptions, cmd *cobra.Command) error {
	env, err := newCommandEnv(opts.RootOptions, cmd)
	if err != nil {
		return err
	}
	defer env.writeMetrics()

	ctx, stop := signalContext(cmd, env.logger)
	defer stop()

	res, err := env.runner(env.dbPath(opts.Database)).Run(ctx, opts.Input)
	if err != nil {
		return env.runFailed(err)
	}
	return env.stored(res)
}

// RunOutput is the printed result of run, fetch and load.
type RunOutput struct {
	RunID        string       `json:"-"` // carried by the JSON envelope
	RID          string       `json:"rid,omitempty"`
	DB           string       `json:"db"`
	Inserted     store.Counts `json:"inserted"`
	ThereAreHits *bool        `json:"there_are_hits,omitempty"`
}

func newRunOutput(res *pipeline.Result) RunOutput {
	out := RunOutput{
		RunID:    res.RunID,
		RID:      res.RID,
		DB:       res.DBPath,
		Inserted: res.Counts,
	}
	if res.HitsKnown {
		hits := res.ThereAreHits
		out.ThereAreHits = &hits
	}
	return out
}

func (o RunOutput) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "✓ Results stored in %s\n", o.DB)
	fmt.Fprintf(&b, "  Run:     %s\n", o.RunID)
	if o.RID != "" {
		fmt.Fprintf(&b, "  RID:     %s\n", o.RID)
	}
	fmt.Fprintf(&b, "  Queries: %d\n", o.Inserted.Queries)
	fmt.Fprintf(&b, "  Hits:    %d\n", o.Inserted.Hits)
	fmt.Fprintf(&b, "  HSPs:    %d\n", o.Inserted.HSPs)
	if o.ThereAreHits != nil && !*o.ThereAreHits {
		b.WriteString("  (the service reported no hits)\n")
	}
	return b.String()
}
