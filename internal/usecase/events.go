package usecase

import (
	"context"

	"github.com/polkiloo/storefront/internal/domain/model"
)

// EventPublisher delivers order events to downstream consumers.
type EventPublisher interface {
	Publish(ctx context.Context, event model.OrderEvent) error
}

func orderEvent(t model.OrderEventType, o *model.Order, source model.PaymentSource) model.OrderEvent {
	return model.OrderEvent{
		Type:          t,
		OrderID:       o.ID,
		Status:        o.Status,
		PaymentStatus: o.PaymentStatus,
		Source:        source,
		Total:         o.Total,
		OccurredAt:    o.UpdatedAt,
	}
}
