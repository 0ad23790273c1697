package router

import (
	"go.uber.org/fx"

	"github.com/polkiloo/storefront/internal/app"
	"github.com/polkiloo/storefront/internal/server/http/handlers"
)

// Module registers HTTP router construction for fx runtime. The storefront
// facade is exposed to handlers through their narrow interfaces.
var Module = fx.Options(
	fx.Provide(asHandlerFacade),
	fx.Provide(Setup),
)

func asHandlerFacade(f *app.StorefrontFacade) handlers.StorefrontFacade {
	return f
}
