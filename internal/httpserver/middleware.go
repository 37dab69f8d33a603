package httpserver

import (
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/gig_board/internal/domain"
	"github.com/Skotchmaster/gig_board/internal/models"
	"github.com/Skotchmaster/gig_board/internal/service"
	"github.com/Skotchmaster/gig_board/pkg/logging"
)

const (
	userKey      = "user"
	HeaderAPIKey = "X-API-Key"
)

func bearerToken(header string) (string, bool) {
	const prefix = "bearer "
	if len(header) <= len(prefix) || !strings.EqualFold(header[:len(prefix)], prefix) {
		return "", false
	}
	token := strings.TrimSpace(header[len(prefix):])
	return token, token != ""
}

// BearerAuth resolves the Authorization bearer token to a user and stores it
// on the context.
func BearerAuth(auth *service.AuthService) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			ctx := c.Request().Context()
			l := logging.FromContext(ctx).With("middleware", "bearer_auth")

			raw, ok := bearerToken(c.Request().Header.Get(echo.HeaderAuthorization))
			if !ok {
				c.Response().Header().Set(echo.HeaderWWWAuthenticate, "Bearer")
				l.Warn("auth_failed", "status", 401, "reason", "missing bearer token")
				return echo.NewHTTPError(http.StatusUnauthorized, "not authenticated")
			}

			user, err := auth.Authenticate(ctx, raw)
			if err != nil {
				if errors.Is(err, domain.ErrUnauthenticated) {
					c.Response().Header().Set(echo.HeaderWWWAuthenticate, "Bearer")
				}
				return respondError(l, "auth_failed", err)
			}

			c.Set(userKey, user)
			return next(c)
		}
	}
}

// AdminKey lets a request through only with the configured X-API-Key.
func AdminKey(guard *service.AdminGuard) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			l := logging.FromContext(c.Request().Context()).With("middleware", "admin_key")
			if err := guard.Check(c.Request().Header.Get(HeaderAPIKey)); err != nil {
				return respondError(l, "admin_auth_failed", err)
			}
			return next(c)
		}
	}
}

func currentUser(c echo.Context) (*models.User, error) {
	u, ok := c.Get(userKey).(*models.User)
	if !ok || u == nil {
		return nil, echo.NewHTTPError(http.StatusUnauthorized, "not authenticated")
	}
	return u, nil
}
