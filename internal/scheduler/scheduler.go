// Package scheduler runs a job on a fixed interval.
package scheduler

import (
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// Job is one scheduled unit of work.
type Job func(ctx context.Context)

// Scheduler invokes a Job immediately on Start and then every interval.
// A tick that fires while the job is still running is dropped by the ticker.
type Scheduler struct {
	interval time.Duration
	job      Job
	logger   logrus.FieldLogger

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// New creates a Scheduler.
func New(interval time.Duration, job Job, logger logrus.FieldLogger) *Scheduler {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &Scheduler{
		interval: interval,
		job:      job,
		logger:   logger.WithField("component", "scheduler"),
	}
}

// Start begins the loop.
func (s *Scheduler) Start(ctx context.Context) {
	s.ctx, s.cancel = context.WithCancel(ctx)

	s.wg.Add(1)
	go s.run()

	s.logger.WithField("interval", s.interval).Info("scheduler started")
}

// Stop cancels the loop and waits for the running job, bounded by ctx.
func (s *Scheduler) Stop(ctx context.Context) error {
	if s.cancel != nil {
		s.cancel()
	}

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		s.logger.Info("scheduler stopped")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *Scheduler) run() {
	defer s.wg.Done()

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	// Run immediately on start.
	s.job(s.ctx)

	for {
		select {
		case <-s.ctx.Done():
			return
		case <-ticker.C:
			s.job(s.ctx)
		}
	}
}
