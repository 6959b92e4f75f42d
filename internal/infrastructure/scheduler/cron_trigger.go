package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// CampaignProvider lists the campaigns that per-campaign jobs run for
type CampaignProvider interface {
	ActiveCampaignIDs(ctx context.Context) ([]uuid.UUID, error)
}

// Entry is one periodic job. PerCampaign entries are submitted once for
// every active campaign, the others once for all campaigns.
type Entry struct {
	Job         JobName
	Spec        string // standard five field cron expression
	PerCampaign bool

	schedule cron.Schedule
	next     time.Time
}

// CronTriggerConfig holds configuration for the cron trigger
type CronTriggerConfig struct {
	// CheckInterval is how often due entries are looked up
	CheckInterval time.Duration
}

// DefaultCronTriggerConfig returns default cron trigger configuration
func DefaultCronTriggerConfig() CronTriggerConfig {
	return CronTriggerConfig{CheckInterval: 10 * time.Second}
}

// CronTrigger submits the periodic jobs to the scheduler
type CronTrigger struct {
	config    CronTriggerConfig
	scheduler *Scheduler
	campaigns CampaignProvider
	logger    *zap.Logger
	now       func() time.Time

	entries   []*Entry
	cancel    context.CancelFunc
	wg        sync.WaitGroup
	mu        sync.Mutex
	isRunning bool
}

// NewCronTrigger creates a new cron trigger. Every entry spec is parsed up
// front.
func NewCronTrigger(
	config CronTriggerConfig,
	scheduler *Scheduler,
	campaigns CampaignProvider,
	logger *zap.Logger,
	entries ...Entry,
) (*CronTrigger, error) {
	if config.CheckInterval <= 0 {
		config.CheckInterval = DefaultCronTriggerConfig().CheckInterval
	}
	c := &CronTrigger{
		config:    config,
		scheduler: scheduler,
		campaigns: campaigns,
		logger:    logger,
		now:       time.Now,
	}

	now := c.now()
	for _, e := range entries {
		schedule, err := ParseSchedule(e.Spec)
		if err != nil {
			return nil, fmt.Errorf("job %s: %w", e.Job, err)
		}
		entry := e
		entry.schedule = schedule
		entry.next = schedule.Next(now)
		c.entries = append(c.entries, &entry)
	}
	return c, nil
}

// ParseSchedule parses a standard five field cron expression
func ParseSchedule(spec string) (cron.Schedule, error) {
	schedule, err := cron.ParseStandard(spec)
	if err != nil {
		return nil, errors.Join(ErrInvalidSchedule, err)
	}
	return schedule, nil
}

// Start starts the cron trigger
func (c *CronTrigger) Start(ctx context.Context) error {
	c.mu.Lock()
	if c.isRunning {
		c.mu.Unlock()
		return nil
	}
	c.isRunning = true
	c.mu.Unlock()

	ctx, cancel := context.WithCancel(ctx)
	c.cancel = cancel

	c.wg.Add(1)
	go c.runLoop(ctx)

	for _, e := range c.entries {
		c.logger.Info("Cron entry scheduled",
			zap.String("job", string(e.Job)),
			zap.String("spec", e.Spec),
			zap.Time("next_run", e.next),
		)
	}
	return nil
}

// Stop stops the cron trigger
func (c *CronTrigger) Stop(ctx context.Context) error {
	c.mu.Lock()
	if !c.isRunning {
		c.mu.Unlock()
		return nil
	}
	c.isRunning = false
	c.mu.Unlock()

	if c.cancel != nil {
		c.cancel()
	}

	done := make(chan struct{})
	go func() {
		c.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		c.logger.Info("Cron trigger stopped")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (c *CronTrigger) runLoop(ctx context.Context) {
	defer c.wg.Done()

	ticker := time.NewTicker(c.config.CheckInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.Tick(ctx)
		}
	}
}

// Tick submits every entry that is due and advances its next run time.
// It returns the number of submitted jobs.
func (c *CronTrigger) Tick(ctx context.Context) int {
	now := c.now()
	submitted := 0

	c.mu.Lock()
	due := make([]*Entry, 0, len(c.entries))
	for _, e := range c.entries {
		if !now.Before(e.next) {
			due = append(due, e)
			e.next = e.schedule.Next(now)
		}
	}
	c.mu.Unlock()

	for _, e := range due {
		submitted += c.trigger(ctx, e)
	}
	return submitted
}

func (c *CronTrigger) trigger(ctx context.Context, e *Entry) int {
	if !e.PerCampaign {
		if c.submit(e.Job, nil) {
			return 1
		}
		return 0
	}

	ids, err := c.campaigns.ActiveCampaignIDs(ctx)
	if err != nil {
		c.logger.Error("Failed to list active campaigns",
			zap.String("job", string(e.Job)),
			zap.Error(err),
		)
		return 0
	}
	submitted := 0
	for _, id := range ids {
		campaignID := id
		if c.submit(e.Job, &campaignID) {
			submitted++
		}
	}
	return submitted
}

func (c *CronTrigger) submit(name JobName, campaignID *uuid.UUID) bool {
	_, err := c.scheduler.Submit(name, campaignID)
	switch {
	case err == nil:
		return true
	case errors.Is(err, ErrJobAlreadyQueued):
		c.logger.Debug("Job still queued, skipping", zap.String("job", string(name)))
	default:
		c.logger.Error("Failed to submit job", zap.String("job", string(name)), zap.Error(err))
	}
	return false
}

// NextRuns returns the next run time of every entry
func (c *CronTrigger) NextRuns() map[JobName]time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	result := make(map[JobName]time.Time, len(c.entries))
	for _, e := range c.entries {
		result[e.Job] = e.next
	}
	return result
}
