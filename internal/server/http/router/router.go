package router

import (
	"log/slog"

	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"

	"github.com/polkiloo/storefront/internal/config"
	"github.com/polkiloo/storefront/internal/server/http/handlers"
	"github.com/polkiloo/storefront/internal/server/http/middleware"
)

// Setup configures gin router with handlers and middleware.
func Setup(facade handlers.StorefrontFacade, cfg *config.Config, logger *slog.Logger) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()

	engine.Use(gin.Recovery())
	engine.Use(middleware.RequestLogger(logger))
	engine.Use(middleware.DecompressRequest())
	engine.Use(gzip.Gzip(gzip.DefaultCompression))

	authHandler := handlers.NewAuthHandler(facade)
	orderHandler := handlers.NewOrderHandler(facade)
	walletHandler := handlers.NewWalletHandler(facade)
	voucherHandler := handlers.NewVoucherHandler(facade)
	paymentHandler := handlers.NewPaymentHandler(facade)
	adminHandler := handlers.NewAdminHandler(facade)

	api := engine.Group("/api")
	api.POST("/orders", orderHandler.Checkout)
	api.GET("/orders/:id", orderHandler.Get)
	api.GET("/orders/:id/qr", orderHandler.TransferQR)
	api.GET("/vouchers/popup", voucherHandler.Popup)
	api.POST("/vouchers/quote", voucherHandler.Quote)

	payments := api.Group("/payments")
	payments.Use(middleware.SignatureRequired(cfg.GatewaySecret))
	payments.POST("/gateway", paymentHandler.GatewayCallback)

	user := api.Group("/user")
	user.POST("/register", authHandler.Register)
	user.POST("/login", authHandler.Login)

	userAuth := user.Group("")
	userAuth.Use(middleware.AuthRequired(facade))
	userAuth.GET("/orders", orderHandler.List)
	userAuth.POST("/orders/:id/pay-wallet", orderHandler.PayWithWallet)
	userAuth.GET("/wallet", walletHandler.Balance)
	userAuth.GET("/wallet/history", walletHandler.History)
	userAuth.GET("/vouchers", walletHandler.VoucherUsages)

	admin := api.Group("/admin")
	admin.Use(middleware.AdminRequired(cfg.AdminToken))
	admin.POST("/orders/:id/confirm", adminHandler.ConfirmPayment)
	admin.POST("/orders/:id/status", adminHandler.UpdateStatus)
	admin.POST("/orders/:id/reprocess", adminHandler.Reprocess)
	admin.POST("/reconcile", adminHandler.Sweep)
	admin.POST("/bank-transactions", adminHandler.ImportBankTransactions)
	admin.GET("/bank-transactions/unmatched", adminHandler.UnmatchedBankTransactions)
	admin.POST("/vouchers/public", adminHandler.CreatePublicVoucher)
	admin.POST("/vouchers/gift", adminHandler.CreateGiftVoucher)
	admin.PUT("/vouchers/popup", adminHandler.SetPopup)
	admin.GET("/catalog/:id", adminHandler.CatalogItem)
	admin.PATCH("/catalog/:id", adminHandler.PatchCatalogItem)
	admin.POST("/wallets/deposits", adminHandler.Deposit)

	return engine
}
