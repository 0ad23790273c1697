package config

import (
	"log/slog"

	"go.uber.org/fx"
)

// Module exposes configuration loader for fx graphs and reports insecure settings on startup.
var Module = fx.Options(
	fx.Provide(Load),
	fx.Invoke(warnInsecure),
)

func warnInsecure(cfg *Config, logger *slog.Logger) {
	if cfg.JWTSecret == defaultJWTSecret {
		logger.Warn("auth tokens are signed with the built-in secret, set JWT_SECRET")
	}
	if cfg.RedisAddress == "" {
		logger.Warn("redis address not set, sweep lock only guards this process")
	}
	if len(cfg.KafkaBrokers) == 0 {
		logger.Info("kafka brokers not set, order events stay in process")
	}
}
