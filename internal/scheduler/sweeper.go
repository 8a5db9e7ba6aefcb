// Package scheduler runs periodic maintenance on negotiation sessions.
package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// ReasonStale is stored on sessions failed by the sweeper.
const ReasonStale = "stale: no progress before the sweep deadline"

// StaleFailer is the slice of the negotiation repository the sweeper needs.
type StaleFailer interface {
	FailStale(ctx context.Context, cutoff time.Time, reason string) (int64, error)
}

// StaleRecorder receives the number of sessions failed per sweep.
type StaleRecorder interface {
	RecordStaleSessions(n int64)
}

type Config struct {
	// Spec is a cron spec such as "@every 5m" or "*/5 * * * *".
	Spec string
	// MaxAge is how long a NEGOTIATING session may go without a new turn.
	MaxAge time.Duration
}

// Sweeper fails NEGOTIATING sessions abandoned by a crashed or restarted
// process, so they cannot stay in flight forever.
type Sweeper struct {
	cron     *cron.Cron
	repo     StaleFailer
	recorder StaleRecorder
	spec     string
	maxAge   time.Duration
	log      *zap.Logger
	now      func() time.Time
}

func NewSweeper(repo StaleFailer, cfg Config, recorder StaleRecorder, log *zap.Logger) (*Sweeper, error) {
	if cfg.MaxAge <= 0 {
		return nil, fmt.Errorf("sweeper max age must be positive, got %s", cfg.MaxAge)
	}
	if _, err := cron.ParseStandard(cfg.Spec); err != nil {
		return nil, fmt.Errorf("invalid sweep spec %q: %w", cfg.Spec, err)
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Sweeper{
		cron:     cron.New(cron.WithLogger(cronLogger{log.Sugar()}), cron.WithChain(cron.Recover(cronLogger{log.Sugar()}))),
		repo:     repo,
		recorder: recorder,
		spec:     cfg.Spec,
		maxAge:   cfg.MaxAge,
		log:      log,
		now:      time.Now,
	}, nil
}

// Start schedules the sweep. ctx bounds every run.
func (s *Sweeper) Start(ctx context.Context) error {
	if _, err := s.cron.AddFunc(s.spec, func() {
		if _, err := s.Sweep(ctx); err != nil {
			s.log.Error("stale negotiation sweep failed", zap.Error(err))
		}
	}); err != nil {
		return fmt.Errorf("cron.AddFunc: %w", err)
	}
	s.cron.Start()
	s.log.Info("negotiation sweeper started", zap.String("spec", s.spec), zap.Duration("max_age", s.maxAge))
	return nil
}

// Stop halts the schedule and waits for a running sweep to return.
func (s *Sweeper) Stop() {
	<-s.cron.Stop().Done()
	s.log.Info("negotiation sweeper stopped")
}

// Sweep fails every session idle for longer than MaxAge.
func (s *Sweeper) Sweep(ctx context.Context) (int64, error) {
	cutoff := s.now().Add(-s.maxAge)
	n, err := s.repo.FailStale(ctx, cutoff, ReasonStale)
	if err != nil {
		return 0, err
	}
	if s.recorder != nil {
		s.recorder.RecordStaleSessions(n)
	}
	if n > 0 {
		s.log.Warn("failed stale negotiations", zap.Int64("count", n), zap.Time("cutoff", cutoff))
	}
	return n, nil
}

// cronLogger routes cron's own logging through zap.
type cronLogger struct {
	s *zap.SugaredLogger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.s.Debugw("cron: "+msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.s.Errorw("cron: "+msg, append(keysAndValues, "error", err)...)
}
