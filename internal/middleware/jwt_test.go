package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/devfood/restaurant-orders/internal/utils"
)

const testSecret = "middleware-test-secret"

func runAuthed(t *testing.T, mw echo.MiddlewareFunc, mutate func(*http.Request)) (*httptest.ResponseRecorder, echo.Context) {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/orders", nil)
	if mutate != nil {
		mutate(req)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	handler := mw(func(c echo.Context) error { return c.NoContent(http.StatusOK) })
	require.NoError(t, handler(c))
	return rec, c
}

func TestJWTAuthFromCookie(t *testing.T) {
	tok, err := utils.NewAccessToken(testSecret, utils.Claims{UserID: 7, Email: "a@b.co", Role: "user"}, 15)
	require.NoError(t, err)

	rec, c := runAuthed(t, JWTAuth(testSecret), func(r *http.Request) {
		r.AddCookie(&http.Cookie{Name: AccessCookieName, Value: tok.Token})
	})
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, uint64(7), c.Get("user_id"))
	assert.Equal(t, "user", c.Get("role"))
}

func TestJWTAuthFromBearerHeader(t *testing.T) {
	tok, err := utils.NewAccessToken(testSecret, utils.Claims{UserID: 7, Role: "admin"}, 15)
	require.NoError(t, err)

	rec, c := runAuthed(t, JWTAuth(testSecret), func(r *http.Request) {
		r.Header.Set("Authorization", "Bearer "+tok.Token)
	})
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "admin", c.Get("role"))
}

func TestJWTAuthMissingToken(t *testing.T) {
	rec, _ := runAuthed(t, JWTAuth(testSecret), nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestJWTAuthWrongSecret(t *testing.T) {
	tok, err := utils.NewAccessToken("other-secret", utils.Claims{UserID: 7, Role: "user"}, 15)
	require.NoError(t, err)

	rec, _ := runAuthed(t, JWTAuth(testSecret), func(r *http.Request) {
		r.AddCookie(&http.Cookie{Name: AccessCookieName, Value: tok.Token})
	})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRequireRole(t *testing.T) {
	e := echo.New()
	mw := RequireRole("admin")

	call := func(role string) int {
		req := httptest.NewRequest(http.MethodDelete, "/api/v1/dishes/1", nil)
		rec := httptest.NewRecorder()
		c := e.NewContext(req, rec)
		if role != "" {
			c.Set("role", role)
		}
		h := mw(func(c echo.Context) error { return c.NoContent(http.StatusOK) })
		require.NoError(t, h(c))
		return rec.Code
	}

	assert.Equal(t, http.StatusOK, call("admin"))
	assert.Equal(t, http.StatusForbidden, call("user"))
	assert.Equal(t, http.StatusForbidden, call(""))
}
