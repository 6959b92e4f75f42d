package scheduler

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// JobName identifies a registered job function
type JobName string

const (
	// JobResultsFlush recalculates the competitors in the dirty queue
	JobResultsFlush JobName = "results_flush"
	// JobMailingSync pushes changed attendances to the campaign mailing list
	JobMailingSync JobName = "mailing_sync"
	// JobOutboxCleanup deletes delivered outbox entries past their retention
	JobOutboxCleanup JobName = "outbox_cleanup"
)

// JobFunc executes one job run. campaignID is nil for runs across all campaigns.
type JobFunc func(ctx context.Context, campaignID *uuid.UUID) error

// Run is one queued execution of a job, for one campaign or all of them
type Run struct {
	ID         uuid.UUID
	Job        JobName
	CampaignID *uuid.UUID
	Attempt    int
	QueuedAt   time.Time
}

func newRun(job JobName, campaignID *uuid.UUID) Run {
	return Run{ID: uuid.New(), Job: job, CampaignID: campaignID, QueuedAt: time.Now()}
}

// Key is shared by every run of the same job and campaign; one such run
// is in flight at a time
func (r Run) Key() string {
	if r.CampaignID == nil {
		return string(r.Job)
	}
	return string(r.Job) + ":" + r.CampaignID.String()
}

// backoff doubles base for every attempt already made, up to limit
func backoff(base, limit time.Duration, attempt int) time.Duration {
	d := base
	for range attempt {
		d *= 2
		if d >= limit {
			return limit
		}
	}
	return d
}
