package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// NewStatusCommand creates the status command.
func NewStatusCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "status <RID>",
		Short: "Check the status of a submitted search once",
		Long: `Ask the service for the status of a request ID without waiting.

Prints WAITING, READY, FAILED or UNKNOWN (expired or never submitted).`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStatus(rootOpts, args[0], cmd)
		},
	}

	return cmd
}

// StatusOutput is the printed result of status.
type StatusOutput struct {
	RID          string `json:"rid"`
	Status       string `json:"status"`
	ThereAreHits *bool  `json:"there_are_hits,omitempty"`
}

func (o StatusOutput) String() string {
	s := fmt.Sprintf("%s: %s", o.RID, o.Status)
	if o.ThereAreHits != nil {
		if *o.ThereAreHits {
			s += " (hits found)"
		} else {
			s += " (no hits)"
		}
	}
	return s + "\n"
}

func runStatus(opts *RootOptions, rid string, cmd *cobra.Command) error {
	env, err := newCommandEnv(opts, cmd)
	if err != nil {
		return err
	}

	ctx, stop := signalContext(cmd, env.logger)
	defer stop()

	info, err := env.client().Status(ctx, rid)
	if err != nil {
		_ = env.formatter.Error(ErrCodeRemote, err.Error(), nil)
		return WrapExitError(ExitFailure, "status check failed", err)
	}

	out := StatusOutput{RID: rid, Status: string(info.Status)}
	if info.HitsKnown {
		hits := info.HasHits
		out.ThereAreHits = &hits
	}
	return env.formatter.Success(out)
}
