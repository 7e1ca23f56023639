package middleware // middleware provides reusable HTTP request processing

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/devfood/restaurant-orders/internal/utils"
)

// AccessCookieName is where the short-lived access token travels.  The
// refresh token has its own cookie consumed only by the auth endpoints.
const (
	AccessCookieName  = "accessToken"
	RefreshCookieName = "refreshToken"
)

// JWTAuth returns an Echo middleware that authenticates a request via the
// access-token cookie and injects the verified identity into the request
// context under "user_id", "email" and "role".  A Bearer token in the
// Authorization header is honored as a fallback for non-browser clients.
// The provided secret must match the one used when issuing tokens.
func JWTAuth(secret string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			raw := ""
			if ck, err := c.Cookie(AccessCookieName); err == nil && ck.Value != "" {
				raw = ck.Value
			} else if auth := c.Request().Header.Get("Authorization"); strings.HasPrefix(auth, "Bearer ") {
				raw = strings.TrimPrefix(auth, "Bearer ")
			}
			if raw == "" {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "missing access token"})
			}
			cl, err := utils.ParseToken(secret, raw)
			if err != nil {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid token"})
			}
			c.Set("user_id", cl.UserID)
			c.Set("email", cl.Email)
			c.Set("role", cl.Role)
			return next(c)
		}
	}
}
