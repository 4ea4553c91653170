package scheduler

import (
	"time"

	"github.com/google/uuid"
)

// JobStatus represents the status of a placement retry job
type JobStatus string

const (
	JobStatusPending JobStatus = "PENDING"
	JobStatusRunning JobStatus = "RUNNING"
	JobStatusSuccess JobStatus = "SUCCESS"
	JobStatusPartial JobStatus = "PARTIAL"
	JobStatusFailed  JobStatus = "FAILED"
)

// maxBackoff caps the delay between attempts for one order
const maxBackoff = 30 * time.Minute

// Job re-runs purchase placement for one order
type Job struct {
	ID          uuid.UUID
	OrderID     uuid.UUID
	Attempt     int
	Status      JobStatus
	Error       string
	Placed      int
	Failed      int
	StartedAt   *time.Time
	CompletedAt *time.Time
}

// NewJob creates a pending job for orderID
func NewJob(orderID uuid.UUID, attempt int) *Job {
	return &Job{
		ID:      uuid.New(),
		OrderID: orderID,
		Attempt: attempt,
		Status:  JobStatusPending,
	}
}

// Start marks the job as running
func (j *Job) Start() {
	now := time.Now()
	j.Status = JobStatusRunning
	j.StartedAt = &now
	j.Error = ""
}

// Complete records the placement counts. A run that placed nothing while
// items failed is FAILED, one that placed some is PARTIAL.
func (j *Job) Complete(placed, failed int) {
	now := time.Now()
	j.Placed = placed
	j.Failed = failed
	j.CompletedAt = &now

	switch {
	case failed == 0:
		j.Status = JobStatusSuccess
	case placed > 0:
		j.Status = JobStatusPartial
	default:
		j.Status = JobStatusFailed
	}
}

// Fail marks the job as failed
func (j *Job) Fail(err string) {
	now := time.Now()
	j.Status = JobStatusFailed
	j.CompletedAt = &now
	j.Error = err
}

// NeedsRetry reports whether the order still has work after this job
func (j *Job) NeedsRetry() bool {
	return j.Status == JobStatusFailed || j.Status == JobStatusPartial
}

// Backoff returns baseDelay * 2^(attempt-1), capped at 30 minutes
func Backoff(baseDelay time.Duration, attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	delay := baseDelay
	for i := 1; i < attempt; i++ {
		delay *= 2
		if delay >= maxBackoff {
			return maxBackoff
		}
	}
	if delay > maxBackoff {
		return maxBackoff
	}
	return delay
}
