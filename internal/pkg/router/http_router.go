package router

import (
	"github.com/gofiber/fiber/v2"

	"github.com/foliotap/foliotap/app/controllers"
	"github.com/foliotap/foliotap/internal/pkg/middleware"
	"github.com/foliotap/foliotap/internal/pkg/session"
)

type HttpRouter struct {
}

func (h HttpRouter) InstallRouter(app *fiber.App) {
	// init session
	session.NewSessionStore()

	// Apply UserContext middleware globally as first middleware
	app.Use(middleware.UserContextMiddleware)

	// Public portfolio pages (NFC card landing)
	app.Get("/p/:slug", controllers.HandlePublicPortfolio)
}

func NewHttpRouter() *HttpRouter {
	return &HttpRouter{}
}
