// Package pipeline runs the stages in order: read the sequence file,
// submit it, wait for the search, fetch and parse the XML result, and
// append it to the results database.
//
// Every failure is returned as a *StageError so callers can report where
// the run stopped. Nothing is written unless the whole document parsed.
package pipeline

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/roach88/blastdb/internal/blastxml"
	"github.com/roach88/blastdb/internal/fasta"
	"github.com/roach88/blastdb/internal/metrics"
	"github.com/roach88/blastdb/internal/qblast"
	"github.com/roach88/blastdb/internal/store"
)

// Service is the remote side of a run. *qblast.Client implements it.
type Service interface {
	Submit(ctx context.Context, query string) (qblast.Submission, error)
	Fetch(ctx context.Context, rid string) ([]byte, error)
}

// Waiter blocks until a submitted search is ready. *qblast.Poller
// implements it.
type Waiter interface {
	Wait(ctx context.Context, sub qblast.Submission) (qblast.WaitResult, error)
}

// Options configures a Runner. Service and Waiter are required for Run and
// Resume; Load needs neither.
type Options struct {
	Service Service
	Waiter  Waiter

	// DBPath defaults to store.DefaultPath.
	DBPath string

	// RunIDs defaults to UUIDv7Generator.
	RunIDs RunIDGenerator

	Logger  *slog.Logger
	Metrics *metrics.Recorder

	// Now defaults to time.Now.
	Now func() time.Time
}

// Runner executes pipeline runs.
type Runner struct {
	service Service
	waiter  Waiter
	dbPath  string
	runIDs  RunIDGenerator
	logger  *slog.Logger
	metrics *metrics.Recorder
	now     func() time.Time
}

// Result summarises a successful run.
type Result struct {
	RunID  string
	RID    string
	DBPath string
	Counts store.Counts

	// HitsKnown is set when the service reported ThereAreHits.
	HitsKnown    bool
	ThereAreHits bool

	// StatusChecks and Waited are zero for Load.
	StatusChecks int
	Waited       time.Duration

	Program  string
	Version  string
	Database string
}

// New creates a Runner.
func New(opts Options) *Runner {
	r := &Runner{
		service: opts.Service,
		waiter:  opts.Waiter,
		dbPath:  opts.DBPath,
		runIDs:  opts.RunIDs,
		logger:  opts.Logger,
		metrics: opts.Metrics,
		now:     opts.Now,
	}
	if r.dbPath == "" {
		r.dbPath = store.DefaultPath
	}
	if r.runIDs == nil {
		r.runIDs = UUIDv7Generator{}
	}
	if r.logger == nil {
		r.logger = slog.Default()
	}
	if r.now == nil {
		r.now = time.Now
	}
	return r
}

// Run submits the sequence file at inputPath and persists its results.
// The input is read before any network activity, so an unreadable file
// leaves both the service and the database untouched.
func (r *Runner) Run(ctx context.Context, inputPath string) (*Result, error) {
	run := r.begin("run")

	var payload *fasta.Payload
	err := run.stage(StageInput, func() (err error) {
		payload, err = fasta.Load(inputPath)
		return err
	})
	if err != nil {
		return nil, err
	}
	run.log.Info("sequence file loaded", "path", payload.Path, "records", len(payload.Names), "bytes", len(payload.Content))
	run.log.Debug("query records", "names", payload.Names)

	if err := r.requireRemote(); err != nil {
		return nil, run.fail(StageSubmit, err)
	}

	var sub qblast.Submission
	err = run.stage(StageSubmit, func() (err error) {
		sub, err = r.service.Submit(ctx, payload.Content)
		return err
	})
	if err != nil {
		return nil, err
	}
	run.log.Info("search submitted", "rid", sub.RID, "rtoe", sub.RTOE)

	return r.collect(ctx, run, sub)
}

// Resume polls, fetches and persists a search submitted earlier, skipping
// the submission step.
func (r *Runner) Resume(ctx context.Context, rid string) (*Result, error) {
	run := r.begin("resume")
	if rid == "" {
		return nil, run.fail(StageInput, errors.New("empty RID"))
	}
	if err := r.requireRemote(); err != nil {
		return nil, run.fail(StagePoll, err)
	}
	run.log.Info("resuming search", "rid", rid)
	return r.collect(ctx, run, qblast.Submission{RID: rid})
}

// Load parses and persists a result document already on disk.
func (r *Runner) Load(ctx context.Context, xmlPath string) (*Result, error) {
	run := r.begin("load")

	var body []byte
	err := run.stage(StageInput, func() (err error) {
		body, err = readDocument(xmlPath)
		return err
	})
	if err != nil {
		return nil, err
	}
	run.log.Info("result document loaded", "path", xmlPath, "bytes", len(body))

	return r.persist(ctx, run, body)
}

func (r *Runner) collect(ctx context.Context, run *runState, sub qblast.Submission) (*Result, error) {
	run.res.RID = sub.RID
	run.log = run.log.With("rid", sub.RID)

	var wr qblast.WaitResult
	err := run.stage(StagePoll, func() (err error) {
		wr, err = r.waiter.Wait(ctx, sub)
		return err
	})
	r.metrics.Polled(wr.Checks, wr.Waited)
	run.res.StatusChecks = wr.Checks
	run.res.Waited = wr.Waited
	if err != nil {
		return nil, err
	}
	run.res.HitsKnown = wr.Info.HitsKnown
	run.res.ThereAreHits = wr.Info.HasHits
	run.log.Info("search ready", "checks", wr.Checks, "waited", wr.Waited, "hits_known", wr.Info.HitsKnown, "has_hits", wr.Info.HasHits)

	var body []byte
	err = run.stage(StageFetch, func() (err error) {
		body, err = r.service.Fetch(ctx, sub.RID)
		return err
	})
	if err != nil {
		return nil, err
	}
	run.log.Info("results fetched", "bytes", len(body))

	return r.persist(ctx, run, body)
}

// persist parses body completely, then opens the store and writes the
// report in one transaction.
func (r *Runner) persist(ctx context.Context, run *runState, body []byte) (*Result, error) {
	var report *blastxml.Report
	err := run.stage(StageParse, func() (err error) {
		report, err = blastxml.Parse(bytes.NewReader(body))
		return err
	})
	if err != nil {
		return nil, err
	}
	run.res.Program = report.Program
	run.res.Version = report.Version
	run.res.Database = report.Database
	run.log.Info("results parsed",
		"program", report.Program,
		"queries", len(report.Queries),
		"hits", report.NumHits(),
		"hsps", report.NumHSPs(),
	)

	var counts store.Counts
	err = run.stage(StagePersist, func() error {
		st, err := store.Open(r.dbPath)
		if err != nil {
			return err
		}
		defer func() {
			if closeErr := st.Close(); closeErr != nil {
				run.log.Error("error closing database", "error", closeErr)
			}
		}()
		counts, err = st.WriteReport(ctx, report)
		return err
	})
	if err != nil {
		return nil, err
	}

	run.res.Counts = counts
	r.metrics.RowsInserted(counts.Queries, counts.Hits, counts.HSPs)
	r.metrics.RunSucceeded(r.now())
	run.log.Info("results stored", "db", r.dbPath, "queries", counts.Queries, "hits", counts.Hits, "hsps", counts.HSPs)

	res := run.res
	return &res, nil
}

func (r *Runner) requireRemote() error {
	if r.service == nil || r.waiter == nil {
		return errors.New("no remote service configured")
	}
	return nil
}

// runState carries one run's logger and partial result between stages.
type runState struct {
	r   *Runner
	log *slog.Logger
	res Result
}

func (r *Runner) begin(mode string) *runState {
	id := r.runIDs.Generate()
	return &runState{
		r:   r,
		log: r.logger.With("run_id", id, "mode", mode),
		res: Result{RunID: id, DBPath: r.dbPath},
	}
}

// stage times fn and converts its error into a *StageError.
func (s *runState) stage(stage Stage, fn func() error) error {
	start := s.r.now()
	s.log.Debug("stage started", "stage", stage)
	err := fn()
	s.r.metrics.StageDone(string(stage), s.r.now().Sub(start))
	if err != nil {
		return s.fail(stage, err)
	}
	return nil
}

func (s *runState) fail(stage Stage, err error) error {
	s.log.Error("run failed", "stage", stage, "error", err)
	s.r.metrics.RunFailed(string(stage))
	return stageErr(stage, err)
}

// readDocument reads a result file. "-" reads standard input.
func readDocument(path string) ([]byte, error) {
	if path == "-" {
		data, err := io.ReadAll(os.Stdin)
		if err != nil {
			return nil, fmt.Errorf("read result document: %w", err)
		}
		return data, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("open result document: %w", err)
	}
	return data, nil
}
