package services

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/pkg/errors"
	"github.com/robfig/cron/v3"
)

// ErrLeaseHeld is returned by Tick when another process holds the worker lease.
var ErrLeaseHeld = errors.New("worker lease held elsewhere")

const leaseKey = "trainerpro:automation-worker"

// Runner is one pass of the automation worker.
type Runner interface {
	RunOnce(ctx context.Context) (*RunReport, error)
}

// Scheduler runs the worker on a fixed interval until stopped.
type Scheduler struct {
	runner     Runner
	locker     Locker
	interval   time.Duration
	lockTTL    time.Duration
	runOnStart bool
	log        *slog.Logger

	mu     sync.Mutex
	cron   *cron.Cron
	ctx    context.Context
	cancel context.CancelFunc
}

type SchedulerOption func(*Scheduler)

// RunOnStart makes Start fire one tick immediately instead of waiting a full
// interval.
func RunOnStart() SchedulerOption {
	return func(s *Scheduler) { s.runOnStart = true }
}

func NewScheduler(runner Runner, locker Locker, interval, lockTTL time.Duration, log *slog.Logger, opts ...SchedulerOption) *Scheduler {
	if locker == nil {
		locker = NopLocker{}
	}
	if log == nil {
		log = slog.Default()
	}
	if lockTTL <= 0 {
		lockTTL = interval
	}
	s := &Scheduler{runner: runner, locker: locker, interval: interval, lockTTL: lockTTL, log: log}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Scheduler) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cron != nil {
		return errors.New("scheduler already started")
	}

	s.ctx, s.cancel = context.WithCancel(context.Background())
	logger := cronLogger{s.log}
	c := cron.New(cron.WithLogger(logger), cron.WithChain(cron.Recover(logger), cron.SkipIfStillRunning(logger)))
	id, err := c.AddFunc("@every "+s.interval.String(), func() {
		if err := s.Tick(s.ctx); err != nil && !errors.Is(err, context.Canceled) {
			s.log.Warn("automation tick skipped", "error", err)
		}
	})
	if err != nil {
		s.cancel()
		return errors.Wrap(err, "scheduling automation worker")
	}
	c.Start()
	s.cron = c
	s.log.Info("automation scheduler started", "interval", s.interval.String())

	if s.runOnStart {
		go c.Entry(id).WrappedJob.Run()
	}
	return nil
}

// Stop cancels the running tick between sends and waits for it to return.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	c, cancel := s.cron, s.cancel
	s.cron = nil
	s.mu.Unlock()
	if c == nil {
		return
	}
	cancel()
	<-c.Stop().Done()
	s.log.Info("automation scheduler stopped")
}

// Tick runs the worker once under the lease.
func (s *Scheduler) Tick(ctx context.Context) error {
	release, ok, err := s.locker.Acquire(ctx, leaseKey, s.lockTTL)
	if err != nil {
		return err
	}
	if !ok {
		return ErrLeaseHeld
	}
	defer release()

	_, err = s.runner.RunOnce(ctx)
	return err
}

// cronLogger routes cron's internal logging through slog.
type cronLogger struct {
	log *slog.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.log.Debug("cron: "+msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.log.Error("cron: "+msg, append([]interface{}{"error", err}, keysAndValues...)...)
}
