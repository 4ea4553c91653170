package order

import (
	"context"

	"github.com/Rafcin/openship/internal/domain/shared"
	"github.com/Rafcin/openship/internal/infrastructure/event"
	"github.com/Rafcin/openship/internal/infrastructure/logger"
	"go.uber.org/zap"
)

// publishEvents publishes the aggregate's pending events after it was
// persisted. Publication failures never fail the operation.
func publishEvents(ctx context.Context, publisher shared.EventPublisher, aggregate shared.AggregateRoot) {
	if publisher == nil {
		aggregate.ClearDomainEvents()
		return
	}
	if err := event.PublishPending(ctx, publisher, aggregate); err != nil {
		logger.L(ctx).Warn("Failed to publish domain events",
			zap.String("aggregate_id", aggregate.GetID().String()),
			zap.Error(err))
	}
}
