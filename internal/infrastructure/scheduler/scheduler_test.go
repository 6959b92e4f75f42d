package scheduler

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type recordedRun struct {
	job string
	err error
}

type fakeRecorder struct {
	mu   sync.Mutex
	runs []recordedRun
}

func (r *fakeRecorder) RecordJob(_ context.Context, job string, _ time.Duration, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.runs = append(r.runs, recordedRun{job: job, err: err})
}

func (r *fakeRecorder) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.runs)
}

func startScheduler(t *testing.T, cfg Config, opts ...Option) *Scheduler {
	t.Helper()
	s := NewScheduler(cfg, zap.NewNop(), opts...)
	require.NoError(t, s.Start(context.Background()))
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = s.Stop(ctx)
	})
	return s
}

func testConfig() Config {
	return Config{
		Workers:       2,
		QueueSize:     10,
		JobTimeout:    time.Second,
		RetryAttempts: 2,
		RetryDelay:    time.Millisecond,
	}
}

func TestRun_Key(t *testing.T) {
	campaignID := uuid.New()
	assert.Equal(t, "mailing_sync:"+campaignID.String(), newRun(JobMailingSync, &campaignID).Key())
	assert.Equal(t, "results_flush", newRun(JobResultsFlush, nil).Key())
}

func TestBackoff(t *testing.T) {
	base, limit := 100*time.Millisecond, time.Second
	assert.Equal(t, 100*time.Millisecond, backoff(base, limit, 0))
	assert.Equal(t, 200*time.Millisecond, backoff(base, limit, 1))
	assert.Equal(t, 800*time.Millisecond, backoff(base, limit, 3))
	assert.Equal(t, time.Second, backoff(base, limit, 4))
	assert.Equal(t, time.Second, backoff(base, limit, 40))
}

func TestConfig_Defaults(t *testing.T) {
	cfg := Config{RetryDelay: time.Second}.withDefaults()
	assert.Equal(t, 1, cfg.Workers)
	assert.Equal(t, 100, cfg.QueueSize)
	assert.Equal(t, 10*time.Minute, cfg.JobTimeout)
	assert.Equal(t, 8*time.Second, cfg.MaxRetryDelay)
}

func TestScheduler_SubmitErrors(t *testing.T) {
	stopped := NewScheduler(testConfig(), zap.NewNop())
	stopped.Register(JobResultsFlush, func(context.Context, *uuid.UUID) error { return nil })
	_, err := stopped.Submit(JobResultsFlush, nil)
	assert.ErrorIs(t, err, ErrSchedulerNotRunning)

	s := startScheduler(t, testConfig())
	_, err = s.Submit("missing", nil)
	assert.ErrorIs(t, err, ErrUnknownJob)
}

func TestScheduler_RunsJobs(t *testing.T) {
	recorder := &fakeRecorder{}
	s := startScheduler(t, testConfig(), WithRecorder(recorder))

	var calls atomic.Int32
	var gotCampaign atomic.Value
	s.Register(JobMailingSync, func(_ context.Context, campaignID *uuid.UUID) error {
		calls.Add(1)
		gotCampaign.Store(*campaignID)
		return nil
	})
	assert.True(t, s.Registered(JobMailingSync))

	campaignID := uuid.New()
	run, err := s.Submit(JobMailingSync, &campaignID)
	require.NoError(t, err)
	assert.Equal(t, JobMailingSync, run.Job)
	assert.Zero(t, run.Attempt)

	require.Eventually(t, func() bool { return recorder.count() == 1 }, time.Second, 5*time.Millisecond)
	assert.Equal(t, int32(1), calls.Load())
	assert.Equal(t, campaignID, gotCampaign.Load())
	assert.NoError(t, recorder.runs[0].err)
}

func TestScheduler_RetriesFailedJobs(t *testing.T) {
	recorder := &fakeRecorder{}
	s := startScheduler(t, testConfig(), WithRecorder(recorder))

	var calls atomic.Int32
	s.Register(JobResultsFlush, func(context.Context, *uuid.UUID) error {
		if calls.Add(1) < 3 {
			return errors.New("database unavailable")
		}
		return nil
	})

	_, err := s.Submit(JobResultsFlush, nil)
	require.NoError(t, err)

	require.Eventually(t, func() bool { return recorder.count() == 3 }, time.Second, 5*time.Millisecond)
	assert.Equal(t, int32(3), calls.Load())
	assert.Error(t, recorder.runs[0].err)
	assert.NoError(t, recorder.runs[2].err)
}

func TestScheduler_DeduplicatesQueuedJobs(t *testing.T) {
	s := startScheduler(t, testConfig())

	release := make(chan struct{})
	s.Register(JobResultsFlush, func(ctx context.Context, _ *uuid.UUID) error {
		select {
		case <-release:
		case <-ctx.Done():
		}
		return nil
	})

	_, err := s.Submit(JobResultsFlush, nil)
	require.NoError(t, err)
	_, err = s.Submit(JobResultsFlush, nil)
	assert.ErrorIs(t, err, ErrJobAlreadyQueued)

	close(release)
	require.Eventually(t, func() bool {
		_, err := s.Submit(JobResultsFlush, nil)
		return err == nil
	}, time.Second, 5*time.Millisecond)
}

func TestScheduler_RecoversPanics(t *testing.T) {
	recorder := &fakeRecorder{}
	cfg := testConfig()
	cfg.RetryAttempts = 0
	s := startScheduler(t, cfg, WithRecorder(recorder))

	s.Register(JobMailingSync, func(context.Context, *uuid.UUID) error { panic("nil map") })
	_, err := s.Submit(JobMailingSync, nil)
	require.NoError(t, err)

	require.Eventually(t, func() bool { return recorder.count() == 1 }, time.Second, 5*time.Millisecond)
	assert.ErrorContains(t, recorder.runs[0].err, "panicked")
}

func TestScheduler_PendingRetryHoldsKey(t *testing.T) {
	recorder := &fakeRecorder{}
	cfg := testConfig()
	cfg.RetryAttempts = 1
	cfg.RetryDelay = time.Hour
	s := startScheduler(t, cfg, WithRecorder(recorder))

	s.Register(JobResultsFlush, func(context.Context, *uuid.UUID) error { return errors.New("locked") })
	_, err := s.Submit(JobResultsFlush, nil)
	require.NoError(t, err)
	require.Eventually(t, func() bool { return recorder.count() == 1 }, time.Second, 5*time.Millisecond)

	_, err = s.Submit(JobResultsFlush, nil)
	assert.ErrorIs(t, err, ErrJobAlreadyQueued, "the retry is still waiting")
}

func TestScheduler_StopDropsPendingRetries(t *testing.T) {
	cfg := testConfig()
	cfg.RetryDelay = time.Hour
	s := NewScheduler(cfg, zap.NewNop())
	require.NoError(t, s.Start(context.Background()))

	failed := make(chan struct{})
	var once sync.Once
	s.Register(JobResultsFlush, func(context.Context, *uuid.UUID) error {
		once.Do(func() { close(failed) })
		return errors.New("locked")
	})
	_, err := s.Submit(JobResultsFlush, nil)
	require.NoError(t, err)
	<-failed

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, s.Stop(ctx))
	require.NoError(t, s.Start(context.Background()))
	defer func() { _ = s.Stop(context.Background()) }()

	_, err = s.Submit(JobResultsFlush, nil)
	assert.NoError(t, err)
}
