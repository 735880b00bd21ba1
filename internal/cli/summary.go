package cli

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/blastdb/internal/store"
)

// SummaryOptions holds flags for the summary command.
type SummaryOptions struct {
	*RootOptions
	Database string
}

// NewSummaryCommand creates the summary command.
func NewSummaryCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &SummaryOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "summary",
		Short: "Show row counts and stored queries",
		Long: `Print the number of rows in the queries, hits and hsps tables, and each
distinct query ID with the number of hits stored for it.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSummary(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite database (default "+store.DefaultPath+")")

	return cmd
}

// SummaryOutput is the printed result of summary.
type SummaryOutput struct {
	DB      string         `json:"db"`
	Counts  store.Counts   `json:"counts"`
	Queries []QuerySummary `json:"queries"`
}

// QuerySummary describes one distinct query ID.
type QuerySummary struct {
	QueryID string `json:"query_id"`
	Def     string `json:"def"`
	Length  int    `json:"length"`
	Rows    int    `json:"rows"` // times the query was stored
	Hits    int    `json:"hits"`
}

func (o SummaryOutput) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Database: %s\n", o.DB)
	fmt.Fprintf(&b, "  Queries: %d\n", o.Counts.Queries)
	fmt.Fprintf(&b, "  Hits:    %d\n", o.Counts.Hits)
	fmt.Fprintf(&b, "  HSPs:    %d\n", o.Counts.HSPs)
	if len(o.Queries) > 0 {
		b.WriteString("\n")
	}
	for _, q := range o.Queries {
		fmt.Fprintf(&b, "%s\tlength=%d\tstored=%d\thits=%d\t%s\n", q.QueryID, q.Length, q.Rows, q.Hits, q.Def)
	}
	return b.String()
}

func runSummary(opts *SummaryOptions, cmd *cobra.Command) error {
	env, err := newCommandEnv(opts.RootOptions, cmd)
	if err != nil {
		return err
	}
	path := env.dbPath(opts.Database)

	// store.Open would create an empty database.
	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
		msg := fmt.Sprintf("database not found: %s", path)
		_ = env.formatter.Error(ErrCodeNotFound, msg, nil)
		return NewExitError(ExitCommandError, msg)
	}

	st, err := store.Open(path)
	if err != nil {
		_ = env.formatter.Error(ErrCodeStore, err.Error(), nil)
		return WrapExitError(ExitCommandError, "failed to open database", err)
	}
	defer func() {
		if closeErr := st.Close(); closeErr != nil {
			env.logger.Error("error closing database", "error", closeErr)
		}
	}()

	out, err := summarize(cmd, st)
	if err != nil {
		_ = env.formatter.Error(ErrCodeStore, err.Error(), nil)
		return WrapExitError(ExitFailure, "failed to read database", err)
	}
	return env.formatter.Success(out)
}

func summarize(cmd *cobra.Command, st *store.Store) (SummaryOutput, error) {
	ctx := cmd.Context()
	out := SummaryOutput{DB: st.Path(), Queries: []QuerySummary{}}

	counts, err := st.Counts(ctx)
	if err != nil {
		return out, err
	}
	out.Counts = counts

	hits, err := hitsPerQuery(cmd, st)
	if err != nil {
		return out, err
	}

	rows, err := st.ReadQueries(ctx)
	if err != nil {
		return out, err
	}

	index := make(map[string]int)
	for _, r := range rows {
		if i, ok := index[r.QueryID]; ok {
			out.Queries[i].Rows++
			continue
		}
		index[r.QueryID] = len(out.Queries)
		out.Queries = append(out.Queries, QuerySummary{
			QueryID: r.QueryID,
			Def:     r.Def,
			Length:  r.Length,
			Rows:    1,
			Hits:    hits[r.QueryID],
		})
	}
	return out, nil
}

// hitsPerQuery counts stored hit rows by owning query ID.
func hitsPerQuery(cmd *cobra.Command, st *store.Store) (map[string]int, error) {
	rows, err := st.Query(cmd.Context(), `SELECT queryID, COUNT(*) FROM hits GROUP BY queryID`)
	if err != nil {
		return nil, fmt.Errorf("count hits: %w", err)
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var id string
		var n int
		if err := rows.Scan(&id, &n); err != nil {
			return nil, fmt.Errorf("scan hit count: %w", err)
		}
		counts[id] = n
	}
	return counts, rows.Err()
}
