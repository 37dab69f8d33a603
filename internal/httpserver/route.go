package httpserver

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/Skotchmaster/gig_board/internal/service"
	"github.com/Skotchmaster/gig_board/pkg/logging"
)

type Deps struct {
	AuthHandler        *AuthHTTP
	GigHandler         *GigHTTP
	AdminHandler       *AdminHTTP
	InteractionHandler *InteractionHTTP

	Auth       *service.AuthService
	AdminGuard *service.AdminGuard

	// APIThrottle caps requests per client address across /api. Nil disables it.
	APIThrottle middleware.RateLimiterStore
	Ready       func(ctx context.Context) error
}

func Register(e *echo.Echo, d *Deps) {
	e.GET("/health/live", func(c echo.Context) error { return c.NoContent(http.StatusOK) })
	e.GET("/health/ready", func(c echo.Context) error {
		if d.Ready != nil {
			if err := d.Ready(c.Request().Context()); err != nil {
				logging.FromContext(c.Request().Context()).Error("readiness_failed", "error", err)
				return c.NoContent(http.StatusServiceUnavailable)
			}
		}
		return c.NoContent(http.StatusOK)
	})

	api := e.Group("/api")
	if d.APIThrottle != nil {
		api.Use(middleware.RateLimiterWithConfig(middleware.RateLimiterConfig{
			Store: d.APIThrottle,
			IdentifierExtractor: func(c echo.Context) (string, error) {
				return c.RealIP(), nil
			},
			DenyHandler: func(c echo.Context, identifier string, err error) error {
				logging.FromContext(c.Request().Context()).Warn("api_throttled", "status", 429, "remote_ip", identifier)
				return echo.NewHTTPError(http.StatusTooManyRequests, "too many requests")
			},
		}))
	}

	api.POST("/users/register", d.AuthHandler.Register)
	api.POST("/token", d.AuthHandler.Token)

	bearer := BearerAuth(d.Auth)

	gigs := api.Group("/gigs")
	gigs.GET("", d.GigHandler.List)
	gigs.GET("/search", d.GigHandler.Search)
	gigs.GET("/me", d.GigHandler.Mine, bearer)
	gigs.GET("/:id", d.GigHandler.Get)
	gigs.POST("", d.GigHandler.Create, bearer)
	gigs.POST("/:id/complete", d.GigHandler.Complete, bearer)
	gigs.POST("/:id/report", d.GigHandler.Report)
	gigs.POST("/:id/messages", d.InteractionHandler.SendMessage, bearer)
	gigs.POST("/:id/reviews", d.InteractionHandler.CreateReview, bearer)

	admin := api.Group("/admin", AdminKey(d.AdminGuard))
	admin.GET("/flagged", d.AdminHandler.Flagged)
	admin.POST("/gigs/:id/approve", d.AdminHandler.Approve)
	admin.DELETE("/gigs/:id", d.AdminHandler.Delete)
}
