package di

import (
	"go.uber.org/fx"

	"github.com/polkiloo/storefront/internal/adapter/bankfeed"
	"github.com/polkiloo/storefront/internal/adapter/events"
	"github.com/polkiloo/storefront/internal/app"
	"github.com/polkiloo/storefront/internal/config"
	"github.com/polkiloo/storefront/internal/lock"
	"github.com/polkiloo/storefront/internal/logger"
	"github.com/polkiloo/storefront/internal/pkg/auth"
	"github.com/polkiloo/storefront/internal/server/http/router"
	"github.com/polkiloo/storefront/internal/storage/postgres"
	"github.com/polkiloo/storefront/internal/usecase"
)

func Module(opts ...fx.Option) fx.Option {
	modules := []fx.Option{
		config.Module,
		logger.Module,
		auth.Module,
		postgres.Module,
		lock.Module,
		events.Module,
		bankfeed.Module,
		usecase.Module,
		fx.Provide(func(client bankfeed.Client) app.BankFeed { return client }),
		router.Module,
		app.Module,
	}
	modules = append(modules, opts...)
	return fx.Options(modules...)
}
