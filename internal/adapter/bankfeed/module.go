package bankfeed

import (
	"log/slog"

	"go.uber.org/fx"

	"github.com/polkiloo/storefront/internal/config"
)

// Module exposes bank feed client implementation to fx graph.
var Module = fx.Provide(newClient)

type clientParams struct {
	fx.In

	Config *config.Config
	Logger *slog.Logger
}

func newClient(p clientParams) (Client, error) {
	if p.Config.BankFeedAddress == "" {
		p.Logger.Info("bank feed address not set, relying on manual imports")
		return NoopClient{}, nil
	}
	return NewHTTPClient(p.Config.BankFeedAddress, p.Logger)
}
