// Package routes wires repositories, services, and handlers onto the
// fiber router. All construction happens here; nothing holds package-level
// state.
package routes

import (
	"time"

	"blizz/internal/config"
	"blizz/internal/handlers"
	"blizz/internal/middleware"
	"blizz/internal/repositories"
	"blizz/internal/repositories/cache"
	"blizz/internal/services/auth"
	"blizz/internal/services/currency"
	"blizz/internal/services/dispute"
	"blizz/internal/services/escrow"
	"blizz/internal/services/events"
	"blizz/internal/services/gateway"
	"blizz/internal/services/payout"
	"blizz/internal/services/paymentinfo"
	"blizz/internal/services/shop"
	"blizz/internal/services/transaction"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// Deps is what the router needs from main.
type Deps struct {
	DB        *gorm.DB
	Redis     *redis.Client
	Publisher events.Publisher
}

// Services bundles the constructed service layer so main can reuse it for
// background jobs.
type Services struct {
	Auth        *auth.Service
	Transaction *transaction.Service
	Dispute     *dispute.Service
	Payout      *payout.Service
	Shop        *shop.Service
	Currency    *currency.Service
	PaymentInfo *paymentinfo.Service
}

// Setup builds the full dependency graph and registers every route.
func Setup(app *fiber.App, deps Deps) *Services {
	baseURL := config.GetEnv("APP_BASE_URL", "http://localhost:8080")

	// Repositories
	userRepo := repositories.NewUserRepository(deps.DB)
	postRepo := repositories.NewPostRepository(deps.DB)
	txRepo := repositories.NewTransactionRepository(deps.DB)
	chargeRepo := repositories.NewChargeRepository(deps.DB)
	escrowRepo := repositories.NewEscrowRepository(deps.DB)
	disputeRepo := repositories.NewDisputeRepository(deps.DB)
	payoutRepo := repositories.NewPayoutRepository(deps.DB)
	rateRepo := repositories.NewRateRepository(deps.DB)
	infoRepo := repositories.NewPaymentInfoRepository(deps.DB)
	shopRepo := repositories.NewShopRepository(deps.DB)

	// External seams
	cacheService := cache.NewCacheService(deps.Redis, time.Hour)
	gatewayClient := gateway.NewClient(gateway.Config{
		BaseURL: config.GetEnv("CINETPAY_BASE_URL", ""),
		APIKey:  config.GetEnv("CINETPAY_API_KEY", ""),
		SiteID:  config.GetEnv("CINETPAY_SITE_ID", ""),
	})

	// Services
	currencyService := currency.NewService(
		cacheService,
		currency.NewRepoRateStore(rateRepo),
		currency.NewHTTPRateFetcher(10*time.Second),
	)
	authService := auth.NewService(userRepo)
	infoService := paymentinfo.NewService(infoRepo)
	payoutService := payout.NewService(payoutRepo, deps.Publisher)
	escrowService := escrow.NewService(escrowRepo, payoutService, deps.Publisher)
	txService := transaction.NewService(
		txRepo, chargeRepo, postRepo, escrowRepo,
		escrowService, gatewayClient, currencyService, infoService,
		deps.Publisher, baseURL,
	)
	disputeService := dispute.NewService(
		disputeRepo, txRepo, chargeRepo, escrowRepo,
		escrowService, infoService, deps.Publisher,
	)
	shopService := shop.NewService(shopRepo, chargeRepo, gatewayClient, deps.Publisher, baseURL)

	// Handlers
	authHandler := handlers.NewAuthHandler(authService)
	postHandler := handlers.NewPostHandler(postRepo)
	txHandler := handlers.NewTransactionHandler(txService, currencyService)
	paymentHandler := handlers.NewPaymentHandler(txService, shopService, config.GetEnv("PAYMENT_WEBHOOK_SECRET", ""))
	disputeHandler := handlers.NewDisputeHandler(disputeService)
	payoutHandler := handlers.NewPayoutHandler(payoutService)
	infoHandler := handlers.NewPaymentInfoHandler(infoService)
	shopHandler := handlers.NewShopHandler(shopService)
	shopWebhookHandler := handlers.NewShopWebhookHandler(shopService, config.GetEnv("SHOP_WEBHOOK_SECRET", ""))
	healthHandler := handlers.NewHealthHandler(deps.DB, deps.Redis)

	authMiddleware := middleware.NewAuthMiddleware(authService)

	app.Get("/health", healthHandler.Check)

	api := app.Group("/api")

	// Public auth routes get a tighter rate limit than the rest.
	authLimiter := limiter.New(limiter.Config{
		Max:        5,
		Expiration: time.Minute,
	})
	api.Post("/register", authLimiter, authHandler.Register)
	api.Post("/login", authLimiter, authHandler.Login)
	api.Post("/refresh", authHandler.Refresh)

	// Webhooks authenticate themselves, not the caller's JWT.
	api.Post("/webhooks/payment", paymentHandler.Notify)
	api.Post("/webhooks/shop", shopWebhookHandler.Handle)

	api.Get("/posts/:id", postHandler.Get)
	api.Post("/shop/checkout", shopHandler.Checkout)
	api.Get("/shop/orders/:id", shopHandler.GetOrder)

	authenticated := api.Group("/", authMiddleware.Handler)
	authenticated.Post("/logout", authHandler.Logout)

	authenticated.Post("/posts", postHandler.Create)

	authenticated.Post("/transactions", txHandler.CreatePurchase)
	authenticated.Get("/transactions", txHandler.List)
	authenticated.Get("/transactions/:id", txHandler.Get)
	authenticated.Post("/transactions/:id/pay", txHandler.InitiatePayment)
	authenticated.Post("/transactions/:id/confirm", txHandler.ConfirmReception)
	authenticated.Get("/payments/:ref/check", paymentHandler.Check)

	authenticated.Post("/disputes", disputeHandler.Open)
	authenticated.Get("/disputes/:id", disputeHandler.Get)

	authenticated.Get("/payment-info", infoHandler.Get)
	authenticated.Post("/payment-info/mobile-money", infoHandler.SetMobileMoney)
	authenticated.Post("/payment-info/card", infoHandler.SetCard)

	admin := authenticated.Group("/admin", middleware.AdminOnly)
	admin.Post("/transactions/:id/cancel", txHandler.Cancel)
	admin.Get("/disputes", disputeHandler.ListOpen)
	admin.Get("/disputes/overdue", disputeHandler.ListOverdue)
	admin.Post("/disputes/:id/assign", disputeHandler.Assign)
	admin.Post("/disputes/:id/resolve", disputeHandler.Resolve)
	admin.Get("/payouts", payoutHandler.ListPending)
	admin.Post("/payouts/:id/processing", payoutHandler.MarkProcessing)
	admin.Post("/payouts/:id/complete", payoutHandler.MarkCompleted)
	admin.Post("/payouts/:id/fail", payoutHandler.MarkFailed)
	admin.Post("/payment-info/:userId/verify", infoHandler.Verify)

	return &Services{
		Auth:        authService,
		Transaction: txService,
		Dispute:     disputeService,
		Payout:      payoutService,
		Shop:        shopService,
		Currency:    currencyService,
		PaymentInfo: infoService,
	}
}
