package lock

import (
	"context"
	"log/slog"

	"github.com/go-redis/redis/v8"
	"go.uber.org/fx"

	"github.com/polkiloo/storefront/internal/config"
)

// Module provides the distributed locker.
var Module = fx.Options(
	fx.Provide(newLocker),
)

type lockerParams struct {
	fx.In

	Lifecycle fx.Lifecycle
	Config    *config.Config
	Logger    *slog.Logger
}

func newLocker(p lockerParams) Locker {
	if p.Config.RedisAddress == "" {
		p.Logger.Warn("redis address not configured, using in-process locks")
		return NewLocalLocker()
	}

	client := redis.NewClient(&redis.Options{Addr: p.Config.RedisAddress})
	p.Lifecycle.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			return client.Ping(ctx).Err()
		},
		OnStop: func(context.Context) error {
			return client.Close()
		},
	})
	return NewRedisLocker(client, p.Logger)
}
