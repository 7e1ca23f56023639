package handler // handler defines the HTTP surface of the API

import (
	"errors"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/devfood/restaurant-orders/internal/model"
)

// getUserID extracts the authenticated user id from echo.Context and
// converts it to uint64.  JWTAuth stores it as uint64; the other branches
// keep older token formats working.
func getUserID(c echo.Context) (uint64, error) {
	v := c.Get("user_id")
	switch t := v.(type) {
	case uint64:
		return t, nil
	case int:
		return uint64(t), nil
	case int64:
		return uint64(t), nil
	case float64:
		return uint64(t), nil
	case string:
		if n, err := strconv.ParseUint(t, 10, 64); err == nil {
			return n, nil
		}
	}
	return 0, errors.New("invalid user_id in context")
}

// isAdmin reports whether the authenticated request carries the admin role.
func isAdmin(c echo.Context) bool {
	role, _ := c.Get("role").(string)
	return role == model.RoleAdmin
}

// pathID parses the :id path parameter.
func pathID(c echo.Context) (uint64, error) {
	return strconv.ParseUint(c.Param("id"), 10, 64)
}
