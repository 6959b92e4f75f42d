package scheduler

import "errors"

var (
	// ErrSchedulerNotRunning is returned when trying to submit a job to a stopped scheduler
	ErrSchedulerNotRunning = errors.New("scheduler is not running")

	// ErrJobQueueFull is returned when the job queue is full
	ErrJobQueueFull = errors.New("job queue is full")

	// ErrUnknownJob is returned when no function is registered for a job name
	ErrUnknownJob = errors.New("unknown job")

	// ErrJobAlreadyQueued is returned when the same job for the same campaign
	// is already waiting or running
	ErrJobAlreadyQueued = errors.New("job already queued")

	// ErrInvalidSchedule is returned for cron expressions that cannot be parsed
	ErrInvalidSchedule = errors.New("invalid cron schedule")
)
