package scheduler

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// CandidateFinder lists orders whose placement should be retried
type CandidateFinder interface {
	FindRetryCandidates(ctx context.Context, cutoff time.Time, limit int) ([]uuid.UUID, error)
}

// Trigger periodically lists retry candidates and submits them to the
// scheduler
type Trigger struct {
	config    Config
	finder    CandidateFinder
	scheduler *Scheduler
	logger    *zap.Logger

	cancel    context.CancelFunc
	wg        sync.WaitGroup
	mu        sync.Mutex
	isRunning bool
}

// NewTrigger creates a new trigger
func NewTrigger(cfg Config, finder CandidateFinder, scheduler *Scheduler, logger *zap.Logger) *Trigger {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Trigger{
		config:    cfg,
		finder:    finder,
		scheduler: scheduler,
		logger:    logger,
	}
}

// Start starts the polling loop
func (t *Trigger) Start(ctx context.Context) error {
	t.mu.Lock()
	if t.isRunning {
		t.mu.Unlock()
		return nil
	}
	t.isRunning = true
	t.mu.Unlock()

	ctx, cancel := context.WithCancel(ctx)
	t.cancel = cancel

	t.wg.Add(1)
	go t.runLoop(ctx)

	t.logger.Info("Placement retry trigger started",
		zap.Duration("interval", t.config.Interval),
		zap.Duration("retry_delay", t.config.RetryDelay),
	)
	return nil
}

// Stop stops the polling loop
func (t *Trigger) Stop(ctx context.Context) error {
	t.mu.Lock()
	if !t.isRunning {
		t.mu.Unlock()
		return nil
	}
	t.isRunning = false
	t.mu.Unlock()

	if t.cancel != nil {
		t.cancel()
	}

	done := make(chan struct{})
	go func() {
		t.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		t.logger.Info("Placement retry trigger stopped")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (t *Trigger) runLoop(ctx context.Context) {
	defer t.wg.Done()

	ticker := time.NewTicker(t.config.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			t.TriggerNow(ctx)
		}
	}
}

// TriggerNow lists candidates once and returns how many were submitted
func (t *Trigger) TriggerNow(ctx context.Context) int {
	cutoff := time.Now().Add(-t.config.RetryDelay)
	ids, err := t.finder.FindRetryCandidates(ctx, cutoff, t.config.BatchSize)
	if err != nil {
		t.logger.Error("Failed to list placement retry candidates", zap.Error(err))
		return 0
	}

	submitted := 0
	for _, id := range ids {
		err := t.scheduler.SubmitOrder(id)
		switch {
		case err == nil:
			submitted++
		case errors.Is(err, ErrJobInFlight), errors.Is(err, ErrBackingOff), errors.Is(err, ErrRetriesExhausted):
			// skipped until the order is due again
		case errors.Is(err, ErrJobQueueFull):
			t.logger.Warn("Placement retry queue full", zap.Int("pending", len(ids)-submitted))
			return submitted
		default:
			t.logger.Error("Failed to submit placement retry",
				zap.String("order_id", id.String()),
				zap.Error(err),
			)
			return submitted
		}
	}

	if submitted > 0 {
		t.logger.Info("Submitted placement retries",
			zap.Int("candidates", len(ids)),
			zap.Int("submitted", submitted),
		)
	}
	return submitted
}
