package server

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/logger"

	"github.com/eventatlas/eventatlas-backend/internal/handler"
	"github.com/eventatlas/eventatlas-backend/internal/middleware"
)

// New assembles the fiber app and its route table. Public routes are
// registered before the auth middleware; guarded routes carry their policy
// middleware inline so denial happens before the handler body.
func New(
	authHandler *handler.AuthHandler,
	eventHandler *handler.EventHandler,
	moderationHandler *handler.ModerationHandler,
	userHandler *handler.UserHandler,
	policy *middleware.PolicyMiddleware,
) *fiber.App {
	app := fiber.New()

	app.Use(cors.New(cors.Config{
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
		AllowMethods: "GET, POST, PUT, DELETE",
	}))
	app.Use(logger.New())
	app.Use(limiter.New(limiter.Config{
		Max:        60,
		Expiration: 1 * time.Minute,
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP()
		},
	}))

	api := app.Group("/api")

	auth := api.Group("/auth")
	auth.Post("/register", authHandler.Register)
	auth.Post("/login", authHandler.Login)

	// Public event routes
	api.Get("/events", eventHandler.Index)
	api.Get("/events/search", eventHandler.Search)
	api.Post("/events/search", eventHandler.Search)
	api.Get("/events/country/:countryCode", eventHandler.ByCountry)
	api.Get("/events/:id/:slug", eventHandler.Detail)

	// Protected routes
	api.Use(middleware.AuthMiddleware())
	{
		api.Post("/events", eventHandler.Create)
		api.Get("/events/mine", eventHandler.Mine)
		api.Put("/events/:id", policy.CanEditEvent(), eventHandler.Update)

		moderation := api.Group("/moderation")
		moderation.Get("/pending/:countryCode", policy.IsAmbassador(), moderationHandler.Pending)
		moderation.Get("/approved/:countryCode", policy.IsAmbassador(), moderationHandler.Approved)
		moderation.Put("/events/:id/approve", policy.CanModerateEvent(), moderationHandler.Approve)
		moderation.Put("/events/:id/reject", policy.CanModerateEvent(), moderationHandler.Reject)

		user := api.Group("/user")
		user.Get("/profile", userHandler.GetMyProfile)
	}

	return app
}
