package cli

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/roach88/blastdb/internal/config"
	"github.com/roach88/blastdb/internal/metrics"
	"github.com/roach88/blastdb/internal/pipeline"
	"github.com/roach88/blastdb/internal/qblast"
)

// Error codes for failures that happen before a pipeline stage runs.
const (
	ErrCodeConfig   = "config"
	ErrCodeNotFound = "not_found"
	ErrCodeStore    = "store"
	ErrCodeRemote   = "remote"
)

// commandEnv is what every command needs after global flags are applied.
type commandEnv struct {
	opts      *RootOptions
	cfg       *config.Config
	logger    *slog.Logger
	metrics   *metrics.Recorder
	formatter *OutputFormatter
}

// newCommandEnv loads the config file (if any) and builds the logger.
// A bad config file is reported and returned as a command error.
func newCommandEnv(opts *RootOptions, cmd *cobra.Command) (*commandEnv, error) {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	cfg := config.Default()
	if opts.ConfigPath != "" {
		loaded, err := config.Load(opts.ConfigPath)
		if err != nil {
			_ = formatter.Error(ErrCodeConfig, err.Error(), nil)
			return nil, WrapExitError(ExitCommandError, "invalid configuration", err)
		}
		cfg = loaded
		formatter.Notef("config: %s", opts.ConfigPath)
	}
	if opts.MetricsFile != "" {
		cfg.MetricsFile = opts.MetricsFile
	}

	env := &commandEnv{
		opts:      opts,
		cfg:       cfg,
		logger:    newLogger(cfg.Logging, opts.Verbose, cmd.ErrOrStderr()),
		formatter: formatter,
	}
	if cfg.MetricsFile != "" {
		env.metrics = metrics.New()
	}
	return env, nil
}

// newLogger configures logging from the config file; --verbose forces debug.
func newLogger(lc config.LoggingConfig, verbose bool, w io.Writer) *slog.Logger {
	level, err := lc.SlogLevel()
	if err != nil {
		level = slog.LevelInfo
	}
	if verbose {
		level = slog.LevelDebug
	}
	handlerOpts := &slog.HandlerOptions{Level: level}
	if lc.Format == "json" {
		return slog.New(slog.NewJSONHandler(w, handlerOpts))
	}
	return slog.New(slog.NewTextHandler(w, handlerOpts))
}

// dbPath returns the --db flag value, or the configured path when unset.
func (e *commandEnv) dbPath(flag string) string {
	if flag != "" {
		return flag
	}
	return e.cfg.DB
}

func (e *commandEnv) client() *qblast.Client {
	return qblast.NewClient(e.cfg.ClientOptions(e.logger))
}

func (e *commandEnv) runner(dbPath string) *pipeline.Runner {
	e.formatter.Notef("database: %s", dbPath)
	client := e.client()
	return pipeline.New(pipeline.Options{
		Service: client,
		Waiter:  qblast.NewPoller(client, e.cfg.PollerConfig(), e.opts.Sleeper, e.logger),
		DBPath:  dbPath,
		RunIDs:  e.opts.RunIDs,
		Logger:  e.logger,
		Metrics: e.metrics,
	})
}

// stored prints the outcome of run, fetch or load.
func (e *commandEnv) stored(res *pipeline.Result) error {
	if res.StatusChecks > 0 {
		e.formatter.Notef("%s: %d status checks, waited %s", res.RID, res.StatusChecks, res.Waited)
	}
	return e.formatter.RunSuccess(res.RunID, newRunOutput(res))
}

// runFailed reports a pipeline error. Unreadable input is a command error;
// everything after it is a run failure.
func (e *commandEnv) runFailed(err error) error {
	code := ExitFailure
	stage := "run"
	cause := err

	var se *pipeline.StageError
	if errors.As(err, &se) {
		stage = string(se.Stage)
		cause = se.Err
		if se.Stage == pipeline.StageInput {
			code = ExitCommandError
		}
	}

	_ = e.formatter.Error(stage, cause.Error(), nil)
	return WrapExitError(code, stage+" failed", cause)
}

// writeMetrics writes the textfile when one is configured. Failure to
// write is logged and does not change the command's outcome.
func (e *commandEnv) writeMetrics() {
	if err := e.metrics.WriteTextfile(e.cfg.MetricsFile); err != nil {
		e.logger.Warn("could not write metrics", "path", e.cfg.MetricsFile, "error", err)
	}
}

// signalContext cancels the returned context on SIGINT or SIGTERM.
// Uses the command's context if available (for testing).
func signalContext(cmd *cobra.Command, logger *slog.Logger) (context.Context, context.CancelFunc) {
	parentCtx := cmd.Context()
	if parentCtx == nil {
		parentCtx = context.Background()
	}
	ctx, cancel := context.WithCancel(parentCtx)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		select {
		case sig := <-sigChan:
			logger.Info("received signal, stopping", "signal", sig)
			cancel()
		case <-ctx.Done():
		}
	}()

	return ctx, func() {
		signal.Stop(sigChan) // Prevent signal handler leak
		cancel()
	}
}
