package jobqueue

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/storefront/backend/internal/domain/fulfillment"
	"go.uber.org/zap"
)

// Handler executes one claimed job. A nil return completes the job; an error
// return records a failure and lets the queue schedule a retry or dead-letter
// it. Handlers must be idempotent because a job can run more than once.
type Handler func(ctx context.Context, job *fulfillment.Job) error

// WorkerPoolConfig holds configuration for the worker pool
type WorkerPoolConfig struct {
	WorkerCount    int
	PollInterval   time.Duration
	HandlerTimeout time.Duration
}

// DefaultWorkerPoolConfig returns default configuration
func DefaultWorkerPoolConfig() WorkerPoolConfig {
	return WorkerPoolConfig{
		WorkerCount:    4,
		PollInterval:   2 * time.Second,
		HandlerTimeout: 30 * time.Second,
	}
}

// WorkerPool drains the job queue in the background. Each worker claims jobs
// until the queue is empty, then falls back to polling.
type WorkerPool struct {
	repo    fulfillment.JobRepository
	handler Handler
	config  WorkerPoolConfig
	logger  *zap.Logger

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewWorkerPool creates a new worker pool
func NewWorkerPool(repo fulfillment.JobRepository, handler Handler, config WorkerPoolConfig, logger *zap.Logger) *WorkerPool {
	if config.WorkerCount <= 0 {
		config.WorkerCount = DefaultWorkerPoolConfig().WorkerCount
	}
	if config.PollInterval <= 0 {
		config.PollInterval = DefaultWorkerPoolConfig().PollInterval
	}
	if config.HandlerTimeout <= 0 {
		config.HandlerTimeout = DefaultWorkerPoolConfig().HandlerTimeout
	}
	return &WorkerPool{
		repo:    repo,
		handler: handler,
		config:  config,
		logger:  logger,
	}
}

// Start launches the workers
func (p *WorkerPool) Start(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	p.cancel = cancel

	for i := 0; i < p.config.WorkerCount; i++ {
		p.wg.Add(1)
		go p.workLoop(ctx, i)
	}

	p.logger.Info("job workers started",
		zap.Int("worker_count", p.config.WorkerCount),
		zap.Duration("poll_interval", p.config.PollInterval),
	)
	return nil
}

// Stop gracefully stops the pool, waiting for in-flight jobs to finish
func (p *WorkerPool) Stop(ctx context.Context) error {
	if p.cancel != nil {
		p.cancel()
	}

	done := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		p.logger.Info("job workers stopped")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (p *WorkerPool) workLoop(ctx context.Context, workerID int) {
	defer p.wg.Done()

	log := p.logger.With(zap.Int("worker", workerID))
	ticker := time.NewTicker(p.config.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.drain(ctx, log)
		}
	}
}

// drain claims and runs jobs until the queue is empty or the context ends
func (p *WorkerPool) drain(ctx context.Context, log *zap.Logger) {
	for {
		if ctx.Err() != nil {
			return
		}

		job, err := p.repo.ClaimNext(ctx)
		if err != nil {
			log.Error("failed to claim job", zap.Error(err))
			return
		}
		if job == nil {
			return
		}

		p.runJob(ctx, log, job)
	}
}

// runJob executes one claimed job and records the outcome. A handler panic is
// treated like any other failure so a poisoned payload cannot take the worker
// down with it.
func (p *WorkerPool) runJob(ctx context.Context, log *zap.Logger, job *fulfillment.Job) {
	jobCtx, cancel := context.WithTimeout(ctx, p.config.HandlerTimeout)
	defer cancel()

	start := time.Now()
	err := p.invoke(jobCtx, job)
	elapsed := time.Since(start)

	if err != nil {
		log.Warn("job failed",
			zap.String("job_id", job.ID.String()),
			zap.String("type", job.Type),
			zap.Int("attempt", job.Attempts),
			zap.Duration("elapsed", elapsed),
			zap.Error(err),
		)
		if failErr := p.repo.Fail(ctx, job.ID, err.Error()); failErr != nil {
			log.Error("failed to record job failure", zap.String("job_id", job.ID.String()), zap.Error(failErr))
		}
		return
	}

	if err := p.repo.Complete(ctx, job.ID); err != nil {
		log.Error("failed to record job completion", zap.String("job_id", job.ID.String()), zap.Error(err))
		return
	}

	log.Info("job succeeded",
		zap.String("job_id", job.ID.String()),
		zap.String("type", job.Type),
		zap.Int("attempt", job.Attempts),
		zap.Duration("elapsed", elapsed),
	)
}

func (p *WorkerPool) invoke(ctx context.Context, job *fulfillment.Job) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("job handler panic: %v", r)
		}
	}()
	return p.handler(ctx, job)
}
