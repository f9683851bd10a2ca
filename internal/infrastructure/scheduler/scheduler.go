// Package scheduler runs periodic housekeeping tasks in the background.
package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
)

// JobStatus represents the outcome of one task run
type JobStatus string

const (
	JobStatusRunning JobStatus = "RUNNING"
	JobStatusSuccess JobStatus = "SUCCESS"
	JobStatusFailed  JobStatus = "FAILED"
)

// Task is a unit of periodic work
type Task interface {
	Name() string
	Run(ctx context.Context) error
}

// Job records the most recent run of a task
type Job struct {
	Task        string
	Status      JobStatus
	Error       string
	StartedAt   time.Time
	CompletedAt time.Time
	Runs        int
	Failures    int
}

// Config holds scheduler configuration
type Config struct {
	Interval   time.Duration
	JobTimeout time.Duration
	// RunOnStart runs every task once as soon as the scheduler starts
	RunOnStart bool
}

// DefaultConfig returns default scheduler configuration
func DefaultConfig() Config {
	return Config{
		Interval:   time.Hour,
		JobTimeout: 5 * time.Minute,
		RunOnStart: true,
	}
}

// Scheduler runs its tasks one after another every Interval
type Scheduler struct {
	config Config
	logger *zap.Logger

	mu      sync.Mutex
	tasks   []Task
	jobs    map[string]*Job
	cancel  context.CancelFunc
	done    chan struct{}
	running bool
}

// New creates a scheduler; tasks are added with Register before Start
func New(config Config, logger *zap.Logger) (*Scheduler, error) {
	if config.Interval <= 0 {
		return nil, fmt.Errorf("%w: interval must be positive", ErrInvalidConfig)
	}
	if config.JobTimeout <= 0 {
		config.JobTimeout = config.Interval
	}
	return &Scheduler{
		config: config,
		logger: logger,
		jobs:   make(map[string]*Job),
	}, nil
}

// Register adds tasks to the schedule
func (s *Scheduler) Register(tasks ...Task) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		return ErrSchedulerRunning
	}
	s.tasks = append(s.tasks, tasks...)
	return nil
}

// Start launches the background loop. It is a no-op when already running.
func (s *Scheduler) Start(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		return
	}
	s.running = true

	ctx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.done = make(chan struct{})
	go s.loop(ctx, s.done)

	s.logger.Info("Housekeeping scheduler started",
		zap.Int("tasks", len(s.tasks)),
		zap.Duration("interval", s.config.Interval),
	)
}

// Stop cancels the loop and waits for the task in progress, bounded by ctx
func (s *Scheduler) Stop(ctx context.Context) error {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return nil
	}
	s.running = false
	s.cancel()
	done := s.done
	s.mu.Unlock()

	select {
	case <-done:
		s.logger.Info("Housekeeping scheduler stopped")
		return nil
	case <-ctx.Done():
		s.logger.Warn("Housekeeping scheduler stop timed out")
		return ctx.Err()
	}
}

func (s *Scheduler) loop(ctx context.Context, done chan struct{}) {
	defer close(done)

	if s.config.RunOnStart {
		s.RunOnce(ctx)
	}

	ticker := time.NewTicker(s.config.Interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.RunOnce(ctx)
		}
	}
}

// RunOnce runs every registered task immediately, in registration order
func (s *Scheduler) RunOnce(ctx context.Context) {
	s.mu.Lock()
	tasks := append([]Task(nil), s.tasks...)
	s.mu.Unlock()

	for _, task := range tasks {
		if ctx.Err() != nil {
			return
		}
		s.runTask(ctx, task)
	}
}

func (s *Scheduler) runTask(ctx context.Context, task Task) {
	name := task.Name()
	job := s.begin(name)

	taskCtx, cancel := context.WithTimeout(ctx, s.config.JobTimeout)
	defer cancel()

	err := s.safeRun(taskCtx, task)

	s.mu.Lock()
	job.CompletedAt = time.Now()
	if err != nil {
		job.Status = JobStatusFailed
		job.Error = err.Error()
		job.Failures++
	} else {
		job.Status = JobStatusSuccess
	}
	elapsed := job.CompletedAt.Sub(job.StartedAt)
	s.mu.Unlock()

	if err != nil {
		s.logger.Error("Housekeeping task failed",
			zap.String("task", name),
			zap.Duration("elapsed", elapsed),
			zap.Error(err),
		)
		return
	}
	s.logger.Debug("Housekeeping task completed", zap.String("task", name), zap.Duration("elapsed", elapsed))
}

func (s *Scheduler) begin(name string) *Job {
	s.mu.Lock()
	defer s.mu.Unlock()
	job, ok := s.jobs[name]
	if !ok {
		job = &Job{Task: name}
		s.jobs[name] = job
	}
	job.Status = JobStatusRunning
	job.Error = ""
	job.StartedAt = time.Now()
	job.Runs++
	return job
}

func (s *Scheduler) safeRun(ctx context.Context, task Task) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("task panicked: %v", r)
		}
	}()
	return task.Run(ctx)
}

// LastRun returns a copy of the latest run record for task
func (s *Scheduler) LastRun(task string) (Job, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	job, ok := s.jobs[task]
	if !ok {
		return Job{}, false
	}
	return *job, true
}
