// Package scheduler runs a cache refresh on a cron schedule.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
)

// RefreshFunc is invoked on every scheduled run. It should re-fetch the
// cached file lists and return the first failure, if any.
type RefreshFunc func(ctx context.Context) error

// ErrRunning is returned by Trigger while a refresh is in progress.
var ErrRunning = errors.New("refresh already running")

// ErrStopped is returned by Trigger after Stop.
var ErrStopped = errors.New("scheduler is stopped")

// Status describes the scheduler's last and next refresh.
type Status struct {
	Schedule  string
	Running   bool
	LastRun   time.Time
	NextRun   time.Time
	LastError string
}

var parser = cron.NewParser(
	cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor,
)

// Scheduler triggers a RefreshFunc on a cron schedule. Runs never overlap:
// a tick that fires while a refresh is still going is skipped.
type Scheduler struct {
	cron     *cron.Cron
	entry    cron.EntryID
	schedule string
	refresh  RefreshFunc
	logger   *slog.Logger

	mu      sync.Mutex
	running bool
	stopped bool
	lastRun time.Time
	lastErr error

	ctx    context.Context    // cancelled on Stop
	cancel context.CancelFunc // cancels ctx
	wg     sync.WaitGroup     // tracks running refreshes
}

// New creates a scheduler for the given cron expression. Standard five-field
// expressions and descriptors such as "@every 10m" are accepted.
func New(schedule string, refresh RefreshFunc) (*Scheduler, error) {
	ctx, cancel := context.WithCancel(context.Background())
	s := &Scheduler{
		cron:     cron.New(cron.WithParser(parser)),
		schedule: schedule,
		refresh:  refresh,
		logger:   slog.Default(),
		ctx:      ctx,
		cancel:   cancel,
	}
	id, err := s.cron.AddFunc(schedule, func() {
		if err := s.Trigger(); err != nil {
			s.logger.Debug("scheduled refresh skipped", "reason", err)
		}
	})
	if err != nil {
		cancel()
		return nil, fmt.Errorf("invalid cron expression %q: %w", schedule, err)
	}
	s.entry = id
	return s, nil
}

// WithLogger sets the logger for the scheduler.
func (s *Scheduler) WithLogger(logger *slog.Logger) *Scheduler {
	s.logger = logger
	return s
}

// Start begins executing scheduled refreshes.
func (s *Scheduler) Start() {
	s.cron.Start()
	s.logger.Info("refresh scheduler started",
		"schedule", s.schedule,
		"next_run", s.cron.Entry(s.entry).Next)
}

// Stop cancels a running refresh and stops scheduling. The returned context
// is done once in-flight work has finished.
func (s *Scheduler) Stop() context.Context {
	s.mu.Lock()
	s.stopped = true
	s.mu.Unlock()

	cronCtx := s.cron.Stop()
	s.cancel()

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		<-cronCtx.Done()
		s.wg.Wait()
		cancel()
	}()
	return ctx
}

// Trigger starts a refresh now, outside the schedule.
func (s *Scheduler) Trigger() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stopped {
		return ErrStopped
	}
	if s.running {
		return ErrRunning
	}
	s.running = true
	s.wg.Add(1)
	go s.run()
	return nil
}

// run executes one refresh. The caller has set running and called wg.Add.
func (s *Scheduler) run() {
	defer s.wg.Done()

	start := time.Now()
	err := s.refresh(s.ctx)

	s.mu.Lock()
	s.running = false
	s.lastErr = err
	if err == nil {
		s.lastRun = time.Now()
	}
	s.mu.Unlock()

	if err != nil {
		s.logger.Error("cache refresh failed", "duration", time.Since(start), "error", err)
		return
	}
	s.logger.Info("cache refresh completed", "duration", time.Since(start))
}

// Status returns the current refresh status.
func (s *Scheduler) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	st := Status{
		Schedule: s.schedule,
		Running:  s.running,
		LastRun:  s.lastRun,
		NextRun:  s.cron.Entry(s.entry).Next,
	}
	if s.lastErr != nil {
		st.LastError = s.lastErr.Error()
	}
	return st
}

// ValidateSchedule checks a cron expression without scheduling anything.
func ValidateSchedule(expr string) error {
	if _, err := parser.Parse(expr); err != nil {
		return fmt.Errorf("invalid cron expression: %w", err)
	}
	return nil
}
