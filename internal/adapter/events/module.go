package events

import (
	"context"
	"log/slog"

	"go.uber.org/fx"

	"github.com/polkiloo/storefront/internal/config"
	"github.com/polkiloo/storefront/internal/usecase"
)

// Module provides the order event publisher.
var Module = fx.Provide(newPublisher)

type publisherParams struct {
	fx.In

	Lifecycle fx.Lifecycle
	Config    *config.Config
	Logger    *slog.Logger
}

func newPublisher(p publisherParams) usecase.EventPublisher {
	if len(p.Config.KafkaBrokers) == 0 {
		p.Logger.Warn("kafka brokers not configured, order events are only logged")
		return NewLogPublisher(p.Logger)
	}

	publisher := NewKafkaPublisher(p.Config.KafkaBrokers, p.Config.KafkaTopic, p.Logger)
	p.Lifecycle.Append(fx.Hook{
		OnStop: func(context.Context) error {
			return publisher.Close()
		},
	})
	return publisher
}
