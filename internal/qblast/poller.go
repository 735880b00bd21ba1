package qblast

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/roach88/blastdb/internal/retry"
)

// DefaultInterval is the wait between status checks.
const DefaultInterval = 60 * time.Second

// StatusChecker is the part of Client the poller needs.
type StatusChecker interface {
	Status(ctx context.Context, rid string) (SearchInfo, error)
}

// Sleeper waits for d or until ctx is done.
type Sleeper interface {
	Sleep(ctx context.Context, d time.Duration) error
}

// SleeperFunc adapts a function to Sleeper.
type SleeperFunc func(ctx context.Context, d time.Duration) error

func (f SleeperFunc) Sleep(ctx context.Context, d time.Duration) error { return f(ctx, d) }

// PollConfig controls the status loop.
type PollConfig struct {
	// Interval is the fixed wait between checks after the first.
	Interval time.Duration

	// MaxWait caps the total time spent waiting. Zero waits indefinitely.
	MaxWait time.Duration

	// Attempts is how many times one status check is tried when it fails
	// transiently, counting the first try. Values below 1 mean one try.
	Attempts int

	// RetryDelay is the first backoff delay between attempts.
	RetryDelay time.Duration

	// Jitter spreads each backoff delay by up to this fraction either way.
	// Zero keeps delays exact.
	Jitter float64
}

// WaitResult describes a finished wait.
type WaitResult struct {
	Info   SearchInfo
	Checks int

	// Waited is the sum of all waits, including RTOE and retry backoff.
	Waited time.Duration
}

// Poller waits for a submitted search to become ready.
type Poller struct {
	checker StatusChecker
	cfg     PollConfig
	sleeper Sleeper
	logger  *slog.Logger
}

// NewPoller creates a Poller. A nil sleeper uses real timers and a nil
// logger uses slog.Default().
func NewPoller(checker StatusChecker, cfg PollConfig, sleeper Sleeper, logger *slog.Logger) *Poller {
	if cfg.Interval <= 0 {
		cfg.Interval = DefaultInterval
	}
	if cfg.Attempts < 1 {
		cfg.Attempts = 1
	}
	if cfg.RetryDelay <= 0 {
		cfg.RetryDelay = 5 * time.Second
	}
	if sleeper == nil {
		sleeper = SleeperFunc(retry.SleepContext)
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Poller{checker: checker, cfg: cfg, sleeper: sleeper, logger: logger}
}

// Wait sleeps once for sub.RTOE, then checks status every Interval until
// the search is READY. FAILED and UNKNOWN end the wait with
// ErrSearchFailed and ErrSearchExpired; neither is retried.
func (p *Poller) Wait(ctx context.Context, sub Submission) (WaitResult, error) {
	var res WaitResult

	sleep := func(ctx context.Context, d time.Duration) error {
		if err := p.sleeper.Sleep(ctx, d); err != nil {
			return err
		}
		res.Waited += d
		return nil
	}

	p.logger.Info("waiting for estimated completion", "rid", sub.RID, "rtoe", sub.RTOE)
	if err := sleep(ctx, sub.RTOE); err != nil {
		return res, fmt.Errorf("wait for %s: %w", sub.RID, err)
	}

	retryCfg := retry.Config{
		MaxAttempts:    p.cfg.Attempts,
		InitialDelay:   p.cfg.RetryDelay,
		MaxDelay:       p.cfg.Interval,
		Multiplier:     2,
		JitterFraction: p.cfg.Jitter,
		Retryable:      IsTransient,
		Logger:         p.logger,
		Sleep:          sleep,
	}

	for {
		info, err := retry.DoWithResult(ctx, retryCfg, func() (SearchInfo, error) {
			res.Checks++
			return p.checker.Status(ctx, sub.RID)
		})
		if err != nil {
			return res, fmt.Errorf("check status of %s: %w", sub.RID, err)
		}
		res.Info = info
		p.logger.Info("search status", "rid", sub.RID, "status", info.Status, "checks", res.Checks)

		switch info.Status {
		case StatusReady:
			if info.HitsKnown {
				p.logger.Info("search complete", "rid", sub.RID, "has_hits", info.HasHits)
			}
			return res, nil
		case StatusFailed:
			return res, fmt.Errorf("search %s: %w", sub.RID, ErrSearchFailed)
		case StatusUnknown:
			return res, fmt.Errorf("search %s: %w", sub.RID, ErrSearchExpired)
		}

		if p.cfg.MaxWait > 0 && res.Waited >= p.cfg.MaxWait {
			return res, fmt.Errorf("search %s after %s: %w", sub.RID, res.Waited, ErrPollTimeout)
		}

		if err := sleep(ctx, p.cfg.Interval); err != nil {
			return res, fmt.Errorf("wait for %s: %w", sub.RID, err)
		}
	}
}
