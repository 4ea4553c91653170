// Package scheduler re-invokes purchase placement for orders that still have
// unplaced cart items. It is opt-in and sits outside the placement pipeline:
// the pipeline itself never retries.
package scheduler

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Rafcin/openship/internal/domain/order"
	"github.com/Rafcin/openship/internal/infrastructure/config"
	"github.com/Rafcin/openship/internal/infrastructure/logger"
)

var (
	// ErrBackingOff is returned when the order's next attempt is not due yet
	ErrBackingOff = errors.New("placement retry is backing off for order")

	// ErrRetriesExhausted is returned when the order used all its attempts
	ErrRetriesExhausted = errors.New("placement retries exhausted for order")
)

// OrderPlacer runs the placement pipeline for one order
type OrderPlacer interface {
	PlaceOrder(ctx context.Context, orderID uuid.UUID) (*order.PlacementResult, error)
}

// Config holds scheduler configuration
type Config struct {
	Enabled           bool
	Interval          time.Duration
	MaxConcurrentJobs int
	JobTimeout        time.Duration
	RetryAttempts     int
	RetryDelay        time.Duration
	BatchSize         int
	MaxHistory        int
}

// DefaultConfig returns default scheduler configuration
func DefaultConfig() Config {
	return Config{
		Enabled:           false,
		Interval:          time.Minute,
		MaxConcurrentJobs: 3,
		JobTimeout:        2 * time.Minute,
		RetryAttempts:     5,
		RetryDelay:        5 * time.Minute,
		BatchSize:         100,
		MaxHistory:        100,
	}
}

// ConfigFrom builds a scheduler Config from the application settings
func ConfigFrom(cfg config.SchedulerConfig) Config {
	c := DefaultConfig()
	c.Enabled = cfg.Enabled
	if cfg.Interval > 0 {
		c.Interval = cfg.Interval
	}
	if cfg.MaxConcurrentJobs > 0 {
		c.MaxConcurrentJobs = cfg.MaxConcurrentJobs
	}
	if cfg.JobTimeout > 0 {
		c.JobTimeout = cfg.JobTimeout
	}
	if cfg.RetryAttempts > 0 {
		c.RetryAttempts = cfg.RetryAttempts
	}
	if cfg.RetryDelay > 0 {
		c.RetryDelay = cfg.RetryDelay
	}
	return c
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.MaxConcurrentJobs <= 0 || c.JobTimeout <= 0 || c.Interval <= 0 {
		return ErrInvalidConfig
	}
	if c.RetryAttempts <= 0 || c.RetryDelay < 0 {
		return ErrInvalidConfig
	}
	if c.BatchSize <= 0 || c.MaxHistory < 0 {
		return ErrInvalidConfig
	}
	return nil
}

type retryState struct {
	attempts int
	nextAt   time.Time
}

// Scheduler runs placement retry jobs on a fixed worker pool
type Scheduler struct {
	config Config
	placer OrderPlacer
	logger *zap.Logger

	jobs      chan *Job
	cancel    context.CancelFunc
	wg        sync.WaitGroup
	mu        sync.Mutex
	isRunning bool

	stateMu  sync.Mutex
	inFlight map[uuid.UUID]struct{}
	retries  map[uuid.UUID]retryState

	historyMu sync.RWMutex
	history   []*Job
}

// NewScheduler creates a new scheduler instance
func NewScheduler(cfg Config, placer OrderPlacer, logger *zap.Logger) (*Scheduler, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Scheduler{
		config:   cfg,
		placer:   placer,
		logger:   logger,
		jobs:     make(chan *Job, cfg.BatchSize),
		inFlight: make(map[uuid.UUID]struct{}),
		retries:  make(map[uuid.UUID]retryState),
		history:  make([]*Job, 0, cfg.MaxHistory),
	}, nil
}

// Start starts the worker pool
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.isRunning {
		return nil
	}
	s.isRunning = true

	ctx, cancel := context.WithCancel(ctx)
	s.cancel = cancel

	for i := 0; i < s.config.MaxConcurrentJobs; i++ {
		s.wg.Add(1)
		go s.worker(ctx, i)
	}

	s.logger.Info("Placement retry scheduler started",
		zap.Int("workers", s.config.MaxConcurrentJobs),
		zap.Duration("job_timeout", s.config.JobTimeout),
		zap.Int("retry_attempts", s.config.RetryAttempts),
	)
	return nil
}

// Stop cancels running jobs and waits for the workers to exit
func (s *Scheduler) Stop(ctx context.Context) error {
	s.mu.Lock()
	if !s.isRunning {
		s.mu.Unlock()
		return nil
	}
	s.isRunning = false
	if s.cancel != nil {
		s.cancel()
	}
	close(s.jobs)
	s.mu.Unlock()

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		s.logger.Info("Placement retry scheduler stopped gracefully")
		return nil
	case <-ctx.Done():
		s.logger.Warn("Placement retry scheduler stop timed out")
		return ctx.Err()
	}
}

// Running reports whether the worker pool is accepting jobs
func (s *Scheduler) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.isRunning
}

// SubmitOrder queues a placement retry for orderID unless one is already in
// flight, the order is backing off, or it used all its attempts
func (s *Scheduler) SubmitOrder(orderID uuid.UUID) error {
	s.stateMu.Lock()
	if _, ok := s.inFlight[orderID]; ok {
		s.stateMu.Unlock()
		return ErrJobInFlight
	}
	state := s.retries[orderID]
	if state.attempts >= s.config.RetryAttempts {
		s.stateMu.Unlock()
		return ErrRetriesExhausted
	}
	if time.Now().Before(state.nextAt) {
		s.stateMu.Unlock()
		return ErrBackingOff
	}
	s.inFlight[orderID] = struct{}{}
	s.stateMu.Unlock()

	job := NewJob(orderID, state.attempts+1)
	if err := s.enqueue(job); err != nil {
		s.release(orderID)
		return err
	}
	s.logger.Debug("Placement retry job submitted",
		zap.String("job_id", job.ID.String()),
		zap.String("order_id", orderID.String()),
		zap.Int("attempt", job.Attempt),
	)
	return nil
}

func (s *Scheduler) enqueue(job *Job) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.isRunning {
		return ErrSchedulerNotRunning
	}
	select {
	case s.jobs <- job:
		return nil
	default:
		return ErrJobQueueFull
	}
}

func (s *Scheduler) release(orderID uuid.UUID) {
	s.stateMu.Lock()
	delete(s.inFlight, orderID)
	s.stateMu.Unlock()
}

// worker processes jobs from the queue
func (s *Scheduler) worker(ctx context.Context, workerID int) {
	defer s.wg.Done()

	for {
		select {
		case <-ctx.Done():
			return
		case job, ok := <-s.jobs:
			if !ok {
				return
			}
			s.processJob(ctx, job, workerID)
		}
	}
}

// processJob executes a single job
func (s *Scheduler) processJob(ctx context.Context, job *Job, workerID int) {
	job.Start()

	jobCtx, cancel := context.WithTimeout(ctx, s.config.JobTimeout)
	defer cancel()
	// placement logs through the context, tagged with this job
	jobCtx = logger.WithContext(jobCtx, s.logger.With(zap.String("job_id", job.ID.String())))

	result, err := s.placer.PlaceOrder(jobCtx, job.OrderID)
	switch {
	case err != nil:
		job.Fail(err.Error())
		s.logger.Error("Placement retry job failed",
			zap.Int("worker_id", workerID),
			zap.String("job_id", job.ID.String()),
			zap.String("order_id", job.OrderID.String()),
			zap.Int("attempt", job.Attempt),
			zap.Error(err),
		)
	case result == nil:
		job.Complete(0, 0)
	default:
		job.Complete(result.Placed(), result.Failed())
		s.logger.Info("Placement retry job completed",
			zap.Int("worker_id", workerID),
			zap.String("job_id", job.ID.String()),
			zap.String("order_id", job.OrderID.String()),
			zap.String("status", string(job.Status)),
			zap.Int("placed", job.Placed),
			zap.Int("failed", job.Failed),
		)
	}

	s.finish(job)
	s.addToHistory(job)
}

// finish records the backoff state for the job's order
func (s *Scheduler) finish(job *Job) {
	s.stateMu.Lock()
	defer s.stateMu.Unlock()
	delete(s.inFlight, job.OrderID)

	if !job.NeedsRetry() {
		delete(s.retries, job.OrderID)
		return
	}
	s.retries[job.OrderID] = retryState{
		attempts: job.Attempt,
		nextAt:   time.Now().Add(Backoff(s.config.RetryDelay, job.Attempt)),
	}
	if job.Attempt >= s.config.RetryAttempts {
		s.logger.Warn("Placement retries exhausted",
			zap.String("order_id", job.OrderID.String()),
			zap.Int("attempts", job.Attempt),
		)
	}
}

// addToHistory adds a finished job to the front of the history
func (s *Scheduler) addToHistory(job *Job) {
	if s.config.MaxHistory == 0 {
		return
	}
	s.historyMu.Lock()
	defer s.historyMu.Unlock()

	s.history = append([]*Job{job}, s.history...)
	if len(s.history) > s.config.MaxHistory {
		s.history = s.history[:s.config.MaxHistory]
	}
}

// GetJobHistory returns recent job history, newest first
func (s *Scheduler) GetJobHistory(limit int) []*Job {
	s.historyMu.RLock()
	defer s.historyMu.RUnlock()

	if limit <= 0 || limit > len(s.history) {
		limit = len(s.history)
	}
	result := make([]*Job, limit)
	copy(result, s.history[:limit])
	return result
}

// GetJobHistoryByOrder returns job history for a specific order
func (s *Scheduler) GetJobHistoryByOrder(orderID uuid.UUID, limit int) []*Job {
	s.historyMu.RLock()
	defer s.historyMu.RUnlock()

	result := make([]*Job, 0)
	for _, job := range s.history {
		if job.OrderID != orderID {
			continue
		}
		result = append(result, job)
		if limit > 0 && len(result) >= limit {
			break
		}
	}
	return result
}
