package routes

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/shoplyne/commerce-backend/internal/config"
	"github.com/shoplyne/commerce-backend/internal/handlers"
	"github.com/shoplyne/commerce-backend/internal/middleware"
	"gorm.io/gorm"
)

func Setup(
	app *fiber.App,
	cfg *config.Config,
	db *gorm.DB,
	authHandler *handlers.AuthHandler,
	healthHandler *handlers.HealthHandler,
	catalogHandler *handlers.CatalogHandler,
	installationHandler *handlers.InstallationHandler,
	webhookHandler *handlers.WebhookHandler,
) {
	api := app.Group("/api")

	// General API rate limiter: 60 req/min per IP
	api.Use(limiter.New(limiter.Config{
		Max:               60,
		Expiration:        1 * time.Minute,
		LimiterMiddleware: limiter.SlidingWindow{},
		KeyGenerator:      func(c *fiber.Ctx) string { return c.IP() },
	}))

	// Health (no tenant required)
	api.Get("/health", healthHandler.Check)

	// Public plugin catalog
	api.Get("/catalog", catalogHandler.ListPlugins)
	api.Get("/catalog/:slug", catalogHandler.GetPlugin)

	// Auth — public (tenant middleware already applied globally)
	// Auth-specific rate limit: 10 req/min per IP (stricter)
	auth := api.Group("/auth")
	auth.Use(limiter.New(limiter.Config{
		Max:               10,
		Expiration:        1 * time.Minute,
		LimiterMiddleware: limiter.SlidingWindow{},
		KeyGenerator:      func(c *fiber.Ctx) string { return c.IP() },
	}))
	auth.Post("/register", authHandler.Register)
	auth.Post("/login", authHandler.Login)
	auth.Post("/refresh", authHandler.Refresh)

	api.Post("/auth/logout", middleware.JWTProtected(cfg), authHandler.Logout)

	// Installations — merchant console (JWT) or server-to-server (API key)
	api.Get("/installations", middleware.AuthRequired(cfg), installationHandler.List)

	plugins := api.Group("/plugins", middleware.AuthRequired(cfg))
	plugins.Post("/:slug/install", installationHandler.Install)
	plugins.Delete("/:slug", installationHandler.Uninstall)
	plugins.Patch("/:slug/toggle", installationHandler.Toggle)
	plugins.Put("/:slug/config", installationHandler.Configure)

	// Catalog administration (protected + admin required)
	admin := api.Group("/admin", middleware.JWTProtected(cfg), middleware.AdminRequired(db, cfg))
	admin.Post("/plugins", catalogHandler.CreatePlugin)
	admin.Patch("/plugins/:slug", catalogHandler.UpdatePlugin)
	admin.Post("/plugins/:slug/plans", catalogHandler.CreatePlan)
	admin.Patch("/plugins/:slug/plans/:plan_id", catalogHandler.UpdatePlan)

	// Webhooks — per-tenant auth via :tenant_id path param (no JWT)
	webhooks := api.Group("/webhooks")
	webhooks.Post("/billing/:tenant_id", webhookHandler.HandleBilling)
}
