package fulfillment

import (
	"errors"
	"math/rand"
	"time"

	"github.com/google/uuid"
)

// JobStatus represents the lifecycle state of a queued job
type JobStatus string

const (
	JobStatusPending   JobStatus = "PENDING"
	JobStatusRunning   JobStatus = "RUNNING"
	JobStatusSucceeded JobStatus = "SUCCEEDED"
	JobStatusFailed    JobStatus = "FAILED"
	JobStatusDead      JobStatus = "DEAD"
)

// IsTerminal returns true for statuses a job never leaves on its own.
// Dead jobs can only be revived through an explicit operator replay.
func (s JobStatus) IsTerminal() bool {
	return s == JobStatusSucceeded || s == JobStatusDead
}

// JobPriority orders jobs across tiers; within a tier dequeue is FIFO
type JobPriority string

const (
	JobPriorityUrgent JobPriority = "URGENT"
	JobPriorityHigh   JobPriority = "HIGH"
	JobPriorityMedium JobPriority = "MEDIUM"
	JobPriorityLow    JobPriority = "LOW"
)

// Rank returns the dequeue rank of the priority, lower is dequeued first
func (p JobPriority) Rank() int {
	switch p {
	case JobPriorityUrgent:
		return 0
	case JobPriorityHigh:
		return 1
	case JobPriorityMedium:
		return 2
	case JobPriorityLow:
		return 3
	default:
		return 4
	}
}

// IsValid returns true if the priority is a known tier
func (p JobPriority) IsValid() bool {
	return p.Rank() < 4
}

// Job type names handled by the gateway workers
const (
	JobTypeShipmentUpdate = "shipment.update"
	JobTypeDeliveryUpdate = "delivery.update"
	JobTypeOrderUpdate    = "order.update"
	JobTypeInventorySync  = "inventory.sync"
)

// Retry configuration
const (
	DefaultMaxAttempts = 5
	BaseBackoff        = 5 * time.Second
	MaxBackoff         = 10 * time.Minute
	// backoffJitter is the ± fraction applied to the computed delay
	backoffJitter = 0.2
)

// ErrJobTerminal is returned when a transition is attempted on a terminal job
var ErrJobTerminal = errors.New("job is in a terminal status")

// Job is a durable unit of work in the integration queue. The payload is
// opaque to the queue; handlers for the same (resource type, resource id,
// event type) must be safe to execute more than once.
type Job struct {
	ID          uuid.UUID
	TenantID    uuid.UUID
	Type        string
	Payload     []byte
	Priority    JobPriority
	Status      JobStatus
	Attempts    int
	MaxAttempts int
	LastError   string
	NextRunAt   time.Time
	StartedAt   *time.Time
	FinishedAt  *time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// NewJob creates a pending job eligible to run immediately
func NewJob(tenantID uuid.UUID, jobType string, payload []byte, priority JobPriority) *Job {
	now := time.Now()
	return &Job{
		ID:          uuid.New(),
		TenantID:    tenantID,
		Type:        jobType,
		Payload:     payload,
		Priority:    priority,
		Status:      JobStatusPending,
		Attempts:    0,
		MaxAttempts: DefaultMaxAttempts,
		NextRunAt:   now,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

// MarkRunning transitions the job to running. The persistence layer must pair
// this with a conditional update so only one worker claims the job.
func (j *Job) MarkRunning() error {
	if j.Status != JobStatusPending && j.Status != JobStatusFailed {
		return ErrJobTerminal
	}
	now := time.Now()
	j.Status = JobStatusRunning
	j.Attempts++
	j.StartedAt = &now
	j.UpdatedAt = now
	return nil
}

// MarkSucceeded transitions the job to succeeded
func (j *Job) MarkSucceeded() error {
	if j.Status.IsTerminal() {
		return ErrJobTerminal
	}
	now := time.Now()
	j.Status = JobStatusSucceeded
	j.FinishedAt = &now
	j.UpdatedAt = now
	return nil
}

// MarkFailed records a failure. Below the attempt ceiling the job returns to
// failed with an exponential-backoff next run time; at or beyond the ceiling
// it is dead-lettered and excluded from dequeue until replayed.
func (j *Job) MarkFailed(errMsg string) error {
	if j.Status.IsTerminal() {
		return ErrJobTerminal
	}
	now := time.Now()
	j.LastError = errMsg
	j.UpdatedAt = now

	if j.Attempts >= j.MaxAttempts {
		j.Status = JobStatusDead
		j.FinishedAt = &now
		return nil
	}

	j.Status = JobStatusFailed
	j.NextRunAt = now.Add(backoffDelay(j.Attempts))
	return nil
}

// ResetForReplay revives a dead-lettered job for another round of attempts
func (j *Job) ResetForReplay() error {
	if j.Status != JobStatusDead {
		return errors.New("only dead-lettered jobs can be replayed")
	}
	now := time.Now()
	j.Status = JobStatusPending
	j.Attempts = 0
	j.LastError = ""
	j.NextRunAt = now
	j.FinishedAt = nil
	j.UpdatedAt = now
	return nil
}

// backoffDelay computes base·2^(attempt-1) with ± jitter, capped at MaxBackoff
func backoffDelay(attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	delay := BaseBackoff * time.Duration(1<<uint(attempt-1))
	if delay > MaxBackoff {
		delay = MaxBackoff
	}
	jitter := time.Duration((rand.Float64()*2 - 1) * backoffJitter * float64(delay))
	return delay + jitter
}
