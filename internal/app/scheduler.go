package app

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"tradeHive/internal/ports"
)

// Scheduler runs named periodic jobs, each on its own ticker and each
// independently cancellable. A job tick is skipped while the previous run of
// the same job is still in flight, so slow exchanges stretch the period
// instead of stacking concurrent runs.
type Scheduler struct {
	logger ports.Logger

	mu      sync.Mutex
	jobs    map[string]*scheduledJob
	started bool
	wg      sync.WaitGroup
}

type scheduledJob struct {
	name     string
	interval time.Duration
	run      func(context.Context)
	cancel   context.CancelFunc
	inFlight atomic.Bool
}

func NewScheduler(logger ports.Logger) (*Scheduler, error) {
	if logger == nil {
		return nil, fmt.Errorf("missing required logger for Scheduler")
	}
	return &Scheduler{logger: logger, jobs: make(map[string]*scheduledJob)}, nil
}

// AddJob registers a job before the scheduler starts.
func (s *Scheduler) AddJob(name string, interval time.Duration, run func(context.Context)) error {
	if name == "" || run == nil || interval <= 0 {
		return fmt.Errorf("job requires a name, a positive interval, and a function")
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.started {
		return fmt.Errorf("scheduler already started")
	}
	if _, exists := s.jobs[name]; exists {
		return fmt.Errorf("job %q already registered", name)
	}
	s.jobs[name] = &scheduledJob{name: name, interval: interval, run: run}
	return nil
}

// Start launches every registered job. Each job inherits the parent context
// plus its own cancel, so one can be stopped without touching the rest.
func (s *Scheduler) Start(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.started {
		return
	}
	s.started = true

	for _, job := range s.jobs {
		jobCtx, cancel := context.WithCancel(ctx)
		job.cancel = cancel
		s.wg.Add(1)
		go s.runJob(jobCtx, job)
	}
	s.logger.Info(ctx, "Scheduler started", map[string]interface{}{"jobs": len(s.jobs)})
}

func (s *Scheduler) runJob(ctx context.Context, job *scheduledJob) {
	defer s.wg.Done()

	ticker := time.NewTicker(job.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if !job.inFlight.CompareAndSwap(false, true) {
				s.logger.Debug(ctx, "Job tick skipped, previous run in flight", map[string]interface{}{"job": job.name})
				continue
			}
			s.wg.Add(1)
			go func() {
				defer s.wg.Done()
				defer job.inFlight.Store(false)
				job.run(ctx)
			}()
		}
	}
}

// StopJob cancels a single job. It returns false when the job is unknown or
// the scheduler has not started.
func (s *Scheduler) StopJob(name string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	job, ok := s.jobs[name]
	if !ok || job.cancel == nil {
		return false
	}
	job.cancel()
	return true
}

// Stop cancels all jobs and waits for in-flight runs to finish.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	for _, job := range s.jobs {
		if job.cancel != nil {
			job.cancel()
		}
	}
	s.mu.Unlock()
	s.wg.Wait()
}
