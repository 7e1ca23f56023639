package router // package router defines how HTTP routes are registered for the API

import (
	"database/sql"

	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"

	"github.com/devfood/restaurant-orders/internal/config"
	"github.com/devfood/restaurant-orders/internal/handler"
	"github.com/devfood/restaurant-orders/internal/middleware"
)

// Handlers bundles everything the route table needs.  main constructs it
// once; nothing here reaches for globals.
type Handlers struct {
	Auth   *handler.AuthHandler
	Users  *handler.UserHandler
	Dishes *handler.DishHandler
	Orders *handler.OrderHandler
}

// Register wires the full route table under /api/v1.  Rate limiting
// applies to the whole API group; the response cache covers public
// catalog reads only.  Both degrade to pass-throughs when Redis is
// unavailable.
func Register(e *echo.Echo, cfg config.Config, db *sql.DB, rdb *redis.Client, h Handlers) {
	e.GET("/health", handler.Health(db))
	// Uploaded dish images are served statically; the API stores paths only.
	e.Static("/images", cfg.ImageDir)

	api := e.Group("/api/v1")
	api.Use(middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb))

	// Authentication endpoints: no session required.
	auth := api.Group("/auth")
	auth.POST("/register", h.Auth.Register)
	auth.POST("/login", h.Auth.Login)
	auth.POST("/refresh", h.Auth.Refresh)
	auth.POST("/logout", h.Auth.Logout)

	// Legacy clients create accounts here; same handler as /auth/register.
	api.POST("/users", h.Auth.Register)

	// Public catalog reads, cached.
	cached := api.Group("", middleware.NewRedisCache(config.LoadCacheConfig(), rdb))
	cached.GET("/dishes", h.Dishes.List)
	cached.GET("/dishes/:id", h.Dishes.Get)

	// Everything below requires a valid access token.
	authed := api.Group("", middleware.JWTAuth(cfg.JWTSecret))

	admin := middleware.RequireRole("admin")

	authed.GET("/users", h.Users.List, admin)
	authed.GET("/users/:id", h.Users.Get)
	authed.PUT("/users/:id", h.Users.Update)
	authed.DELETE("/users/:id", h.Users.Delete)

	authed.POST("/dishes", h.Dishes.Create, admin)
	authed.PUT("/dishes/:id", h.Dishes.Update, admin)
	authed.POST("/dishes/:id/image", h.Dishes.UploadImage, admin)
	authed.DELETE("/dishes/:id", h.Dishes.Delete, admin)

	authed.POST("/orders", h.Orders.Create)
	authed.GET("/orders", h.Orders.List)
	authed.GET("/orders/:id", h.Orders.Get)
	authed.PUT("/orders/:id", h.Orders.Update, admin)
	authed.DELETE("/orders/:id", h.Orders.Delete, admin)
}
