package auth

import (
	"go.uber.org/fx"

	"github.com/polkiloo/storefront/internal/config"
)

// Module provides authentication primitives via fx.
var Module = fx.Options(
	fx.Provide(newPasswordHasher),
	fx.Provide(newTokenStrategy),
)

type strategyParams struct {
	fx.In

	Config *config.Config
}

func newPasswordHasher(p strategyParams) PasswordHasher {
	return NewBcryptHasher(p.Config.BcryptCost)
}

func newTokenStrategy(p strategyParams) Strategy {
	return NewHMACStrategy(p.Config.JWTSecret, Options{TTL: p.Config.TokenTTL})
}
