package router

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"

	"github.com/foliotap/foliotap/app/controllers"
	"github.com/foliotap/foliotap/internal/pkg/middleware"
)

type ApiRouter struct {
}

func (h ApiRouter) InstallRouter(app *fiber.App) {
	api := app.Group("/api", limiter.New())
	api.Get("/", func(ctx *fiber.Ctx) error {
		return ctx.Status(fiber.StatusOK).JSON(fiber.Map{
			"message": "Foliotap API",
		})
	})

	v1 := api.Group("/v1")

	// Auth
	v1.Post("/register", controllers.HandleRegister)
	v1.Post("/login", controllers.HandleLogin)
	v1.Post("/logout", controllers.HandleLogout)
	v1.Get("/verify/:token", controllers.HandleVerifyEmail)

	// Plan catalog
	v1.Get("/plans", controllers.HandleListPlans)

	// Checkout. Reads are token-authenticated, writes need a session.
	v1.Get("/checkout/:token", controllers.HandleGetCheckout)
	v1.Post("/checkout", middleware.RequireAuth, controllers.HandleCreateCheckout)
	v1.Post("/checkout/:token/confirm", middleware.RequireAuth, controllers.HandleConfirmCheckout)

	// Billing, authenticated
	me := v1.Group("/me", middleware.RequireAuth)
	me.Get("/subscription", controllers.HandleGetCurrentSubscription)
	me.Get("/subscriptions", controllers.HandleListSubscriptions)
	me.Get("/invoices", controllers.HandleListInvoices)
	me.Get("/orders", controllers.HandleListOrders)
	v1.Post("/subscriptions/:id/cancel", middleware.RequireAuth, controllers.HandleCancelSubscription)

	// Portfolios, authenticated
	portfolios := v1.Group("/portfolios", middleware.RequireAuth)
	portfolios.Get("/", controllers.HandleListPortfolios)
	portfolios.Post("/", controllers.HandleCreatePortfolio)
	portfolios.Get("/:id", controllers.HandleGetPortfolio)
	portfolios.Put("/:id", controllers.HandleUpdatePortfolio)
	portfolios.Delete("/:id", controllers.HandleDeletePortfolio)

	// Admin back office
	admin := v1.Group("/admin", middleware.RequireAdmin)
	admin.Get("/checkouts", controllers.HandleAdminListCheckouts)
	admin.Post("/checkouts/:token/approve", controllers.HandleAdminApproveCheckout)
	admin.Post("/payments/:id/confirm", controllers.HandleAdminConfirmPayment)
	admin.Post("/users/:id/active", controllers.HandleAdminSetUserActive)
	admin.Get("/users", controllers.HandleAdminListUsers)
	admin.Get("/orders", controllers.HandleAdminListOrders)
	admin.Post("/orders/:id/status", controllers.HandleAdminUpdateOrderStatus)
	admin.Get("/revenue", controllers.HandleAdminRevenue)

	// Provider webhooks, signature-authenticated
	v1.Post("/webhooks/:provider", controllers.HandlePaymentWebhook)
}

func NewApiRouter() *ApiRouter {
	return &ApiRouter{}
}
