// Package scheduler runs the periodic jobs of the live service on a cron.
package scheduler

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"

	"github.com/yesmonga/karting-sub000/internal/metrics"
)

const minInterval = time.Second

// Job is one scheduled unit of work. The context is cancelled when the job
// exceeds its timeout or the scheduler stops.
type Job func(ctx context.Context) error

// Scheduler manages scheduled jobs. A job still running when its next run
// is due is skipped for that run.
type Scheduler struct {
	cron            *cron.Cron
	logger          *logrus.Entry
	mu              sync.RWMutex
	isRunning       bool
	jobs            map[string]cron.EntryID
	ctx             context.Context
	cancel          context.CancelFunc
	gracefulTimeout time.Duration
}

// NewScheduler creates a new scheduler
func NewScheduler(logger *logrus.Logger) *Scheduler {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	entry := logger.WithField("component", "scheduler")
	ctx, cancel := context.WithCancel(context.Background())

	return &Scheduler{
		cron: cron.New(
			cron.WithLocation(time.UTC),
			cron.WithChain(cron.SkipIfStillRunning(cron.PrintfLogger(entry))),
		),
		logger:          entry,
		jobs:            make(map[string]cron.EntryID),
		ctx:             ctx,
		cancel:          cancel,
		gracefulTimeout: 30 * time.Second,
	}
}

// ScheduleEvery runs job at a fixed interval. Each run gets the interval as
// timeout.
func (s *Scheduler) ScheduleEvery(name string, interval time.Duration, job Job) error {
	if interval < minInterval {
		interval = minInterval
	}
	return s.schedule(name, fmt.Sprintf("@every %s", interval), interval, job)
}

// ScheduleCron runs job on a cron expression
func (s *Scheduler) ScheduleCron(name, cronExpression string, timeout time.Duration, job Job) error {
	return s.schedule(name, cronExpression, timeout, job)
}

func (s *Scheduler) schedule(name, spec string, timeout time.Duration, job Job) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.jobs[name]; exists {
		return fmt.Errorf("job %q already scheduled", name)
	}

	entryID, err := s.cron.AddFunc(spec, s.wrap(name, timeout, job))
	if err != nil {
		return fmt.Errorf("failed to add job: %w", err)
	}

	s.jobs[name] = entryID
	s.logger.WithFields(logrus.Fields{"job": name, "spec": spec}).Info("Scheduled job")

	return nil
}

func (s *Scheduler) wrap(name string, timeout time.Duration, job Job) func() {
	return func() {
		ctx := s.ctx
		if timeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, timeout)
			defer cancel()
		}

		err := job(ctx)
		metrics.RecordJobRun(name, err)
		if err != nil {
			s.logger.WithField("job", name).WithError(err).Warn("Scheduled job failed")
		}
	}
}

// RunNow runs a scheduled job immediately in the calling goroutine
func (s *Scheduler) RunNow(name string) error {
	s.mu.RLock()
	entryID, ok := s.jobs[name]
	s.mu.RUnlock()
	if !ok {
		return fmt.Errorf("job %q not scheduled", name)
	}
	entry := s.cron.Entry(entryID)
	if !entry.Valid() {
		return fmt.Errorf("job %q not scheduled", name)
	}
	entry.WrappedJob.Run()
	return nil
}

// Start starts the scheduler
func (s *Scheduler) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.isRunning {
		return fmt.Errorf("scheduler is already running")
	}

	if len(s.jobs) == 0 {
		return fmt.Errorf("no jobs scheduled")
	}

	s.cron.Start()
	s.isRunning = true
	s.logger.Infof("Scheduler started with %d jobs", len(s.jobs))

	return nil
}

// Stop cancels running jobs and waits for them to return
func (s *Scheduler) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.isRunning {
		return nil
	}

	s.cancel()
	select {
	case <-s.cron.Stop().Done():
	case <-time.After(s.gracefulTimeout):
		return fmt.Errorf("scheduled jobs did not stop within %s", s.gracefulTimeout)
	}
	s.isRunning = false
	s.logger.Info("Scheduler stopped")

	return nil
}

// IsRunning returns whether the scheduler is currently running
func (s *Scheduler) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.isRunning
}

// GetNextRun returns the time of the next scheduled job run
func (s *Scheduler) GetNextRun() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.isRunning || len(s.jobs) == 0 {
		return time.Time{}
	}

	nextRun := time.Time{}
	for _, jobID := range s.jobs {
		entry := s.cron.Entry(jobID)
		if entry.Valid() {
			if nextRun.IsZero() || entry.Next.Before(nextRun) {
				nextRun = entry.Next
			}
		}
	}

	return nextRun
}

// Jobs returns the names of the scheduled jobs
func (s *Scheduler) Jobs() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	names := make([]string, 0, len(s.jobs))
	for name := range s.jobs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// RemoveJob removes a scheduled job
func (s *Scheduler) RemoveJob(name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	entryID, ok := s.jobs[name]
	if !ok {
		return fmt.Errorf("job %q not scheduled", name)
	}

	s.cron.Remove(entryID)
	delete(s.jobs, name)
	s.logger.WithField("job", name).Info("Removed job")

	return nil
}
