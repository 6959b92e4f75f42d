// Package scheduler runs the background jobs of the service on a bounded
// worker pool. A cron trigger submits the periodic ones; handlers may
// submit jobs on demand.
package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/dpnk/backend/internal/infrastructure/telemetry"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// JobRecorder observes finished runs
type JobRecorder interface {
	RecordJob(ctx context.Context, job string, d time.Duration, err error)
}

// Config sizes the worker pool and the retry policy. A failed run is
// retried RetryAttempts times, waiting RetryDelay before the first retry
// and twice as long before each next one, never more than MaxRetryDelay.
type Config struct {
	Workers       int
	QueueSize     int
	JobTimeout    time.Duration
	RetryAttempts int
	RetryDelay    time.Duration
	MaxRetryDelay time.Duration
}

func (c Config) withDefaults() Config {
	if c.Workers <= 0 {
		c.Workers = 1
	}
	if c.QueueSize <= 0 {
		c.QueueSize = 100
	}
	if c.JobTimeout <= 0 {
		c.JobTimeout = 10 * time.Minute
	}
	if c.MaxRetryDelay < c.RetryDelay {
		c.MaxRetryDelay = c.RetryDelay * 8
	}
	return c
}

// Scheduler runs submitted jobs on a fixed number of workers
type Scheduler struct {
	cfg      Config
	logger   *zap.Logger
	recorder JobRecorder

	mu       sync.Mutex
	funcs    map[JobName]JobFunc
	inFlight map[string]uuid.UUID
	running  bool
	cancel   context.CancelFunc

	queue chan Run
	wg    sync.WaitGroup
}

// Option configures a Scheduler
type Option func(*Scheduler)

// WithRecorder reports every finished run to r
func WithRecorder(r JobRecorder) Option {
	return func(s *Scheduler) { s.recorder = r }
}

func NewScheduler(cfg Config, logger *zap.Logger, opts ...Option) *Scheduler {
	cfg = cfg.withDefaults()
	s := &Scheduler{
		cfg:      cfg,
		logger:   logger.Named("scheduler"),
		funcs:    make(map[JobName]JobFunc),
		inFlight: make(map[string]uuid.UUID),
		queue:    make(chan Run, cfg.QueueSize),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Register associates fn with name. Registering twice replaces the function.
func (s *Scheduler) Register(name JobName, fn JobFunc) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.funcs[name] = fn
}

func (s *Scheduler) Registered(name JobName) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.funcs[name]
	return ok
}

// Start launches the workers. Starting a running scheduler does nothing.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		return nil
	}
	ctx, s.cancel = context.WithCancel(ctx)
	s.running = true

	for id := range s.cfg.Workers {
		s.wg.Add(1)
		go s.work(ctx, id)
	}
	s.logger.Info("Scheduler started",
		zap.Int("workers", s.cfg.Workers),
		zap.Duration("job_timeout", s.cfg.JobTimeout),
	)
	return nil
}

// Stop cancels running jobs and waits for the workers until ctx ends.
// Queued runs and pending retries are dropped.
func (s *Scheduler) Stop(ctx context.Context) error {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return nil
	}
	s.running = false
	s.cancel()
	s.mu.Unlock()

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		s.mu.Lock()
		clear(s.inFlight)
		s.mu.Unlock()
		s.logger.Info("Scheduler stopped")
		return nil
	case <-ctx.Done():
		s.logger.Warn("Scheduler stop timed out, jobs still running")
		return ctx.Err()
	}
}

// Submit queues a run of name for campaignID, or for all campaigns when nil
func (s *Scheduler) Submit(name JobName, campaignID *uuid.UUID) (Run, error) {
	run := newRun(name, campaignID)

	s.mu.Lock()
	defer s.mu.Unlock()
	switch {
	case !s.running:
		return Run{}, ErrSchedulerNotRunning
	case s.funcs[name] == nil:
		return Run{}, fmt.Errorf("%w: %s", ErrUnknownJob, name)
	}
	if _, busy := s.inFlight[run.Key()]; busy {
		return Run{}, ErrJobAlreadyQueued
	}

	select {
	case s.queue <- run:
		s.inFlight[run.Key()] = run.ID
		s.logger.Debug("Run queued", zap.String("job", string(name)), zap.Stringer("run_id", run.ID))
		return run, nil
	default:
		return Run{}, ErrJobQueueFull
	}
}

func (s *Scheduler) work(ctx context.Context, id int) {
	defer s.wg.Done()
	for {
		select {
		case <-ctx.Done():
			return
		case run := <-s.queue:
			s.execute(ctx, run, id)
		}
	}
}

func (s *Scheduler) execute(ctx context.Context, run Run, worker int) {
	s.mu.Lock()
	fn := s.funcs[run.Job]
	s.mu.Unlock()

	log := s.logger.With(
		zap.String("job", string(run.Job)),
		zap.Stringer("run_id", run.ID),
		zap.Int("attempt", run.Attempt),
		zap.Int("worker", worker),
	)
	if run.CampaignID != nil {
		log = log.With(zap.Stringer("campaign_id", *run.CampaignID))
	}

	started := time.Now()
	jobCtx, cancel := context.WithTimeout(ctx, s.cfg.JobTimeout)
	err := invoke(jobCtx, fn, run)
	cancel()
	took := time.Since(started)

	if s.recorder != nil {
		s.recorder.RecordJob(ctx, string(run.Job), took, err)
	}
	if err == nil {
		s.release(run)
		log.Info("Job finished", zap.Duration("duration", took))
		return
	}

	log.Error("Job failed", zap.Duration("duration", took), zap.Error(err))
	if run.Attempt >= s.cfg.RetryAttempts || ctx.Err() != nil {
		s.release(run)
		return
	}
	s.retryLater(ctx, run, log)
}

// retryLater queues the next attempt after its backoff without holding a
// worker. The run keeps its key, so new submissions are refused meanwhile.
func (s *Scheduler) retryLater(ctx context.Context, run Run, log *zap.Logger) {
	delay := backoff(s.cfg.RetryDelay, s.cfg.MaxRetryDelay, run.Attempt)
	run.Attempt++
	log.Info("Job retry scheduled", zap.Duration("delay", delay))

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		timer := time.NewTimer(delay)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			s.release(run)
			return
		case <-timer.C:
		}
		select {
		case s.queue <- run:
		default:
			s.release(run)
			log.Warn("Queue full, retry dropped")
		}
	}()
}

func invoke(ctx context.Context, fn JobFunc, run Run) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("job %s panicked: %v", run.Job, r)
		}
	}()
	labels := map[string]string{telemetry.ProfilingLabelJob: string(run.Job)}
	telemetry.WithProfilingLabels(ctx, labels, func(ctx context.Context) {
		err = fn(ctx, run.CampaignID)
	})
	return err
}

func (s *Scheduler) release(run Run) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.inFlight[run.Key()] == run.ID {
		delete(s.inFlight, run.Key())
	}
}
