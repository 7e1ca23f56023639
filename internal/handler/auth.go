package handler

import (
	"context"
	"database/sql"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/devfood/restaurant-orders/internal/config"
	"github.com/devfood/restaurant-orders/internal/middleware"
	"github.com/devfood/restaurant-orders/internal/model"
	"github.com/devfood/restaurant-orders/internal/repository"
	"github.com/devfood/restaurant-orders/internal/utils"
)

// AuthHandler bundles dependencies for auth endpoints.  Credentials live
// in the same users table the user endpoints manage; tokens live in
// refresh_tokens.
type AuthHandler struct {
	Cfg    config.Config
	Users  *repository.UserRepo
	Tokens *repository.TokenRepo
}

func NewAuthHandler(cfg config.Config, u *repository.UserRepo, t *repository.TokenRepo) *AuthHandler {
	return &AuthHandler{Cfg: cfg, Users: u, Tokens: t}
}

// ----- DTOs -----

type registerReq struct {
	Username    string `json:"username"`
	LastName    string `json:"last_name"`
	Password    string `json:"password"`
	Email       string `json:"email"`
	Address     string `json:"address"`
	PhoneNumber string `json:"phone_number"`
}

type loginReq struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Register creates an account via public registration.  The role is
// always forced to "user" regardless of anything the caller sends.
func (h *AuthHandler) Register(c echo.Context) error {
	var req registerReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	req.Username = strings.TrimSpace(req.Username)
	if req.Username == "" || req.Password == "" || req.Email == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "username, password and email are required"})
	}
	if !utils.ValidEmail(req.Email) {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid email format"})
	}
	if req.PhoneNumber != "" && !utils.ValidPhone(req.PhoneNumber) {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid phone number format"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	u := &model.User{
		Username:    req.Username,
		LastName:    req.LastName,
		Email:       req.Email,
		Address:     req.Address,
		PhoneNumber: req.PhoneNumber,
		Role:        model.RoleUser,
	}
	uid, err := h.Users.Create(ctx, u, req.Password, h.Cfg.BcryptCost)
	if err != nil {
		if err == repository.ErrEmailExists {
			return c.JSON(http.StatusConflict, echo.Map{"error": "email already exists"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create user failed"})
	}

	return c.JSON(http.StatusCreated, echo.Map{
		"id":    uid,
		"email": req.Email,
		"role":  model.RoleUser,
	})
}

// Login verifies credentials and sets the access and refresh cookies.
// A missing account and a wrong password return the identical message so
// the endpoint cannot be used to enumerate registered emails.
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if req.Email == "" || req.Password == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "email/password required"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	u, err := h.Users.GetByEmail(ctx, req.Email)
	if err != nil {
		if err == sql.ErrNoRows {
			return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid email or password"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	if !utils.VerifyPassword(u.PasswordHash, req.Password) {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid email or password"})
	}

	cl := utils.Claims{UserID: u.ID, Email: u.Email, Role: u.Role}
	access, err := utils.NewAccessToken(h.Cfg.JWTSecret, cl, h.Cfg.AccessTTLMin)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "issue access failed"})
	}
	refresh, err := utils.NewRefreshToken(h.Cfg.JWTSecret, cl, h.Cfg.RefreshTTLDays)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "issue refresh failed"})
	}
	if err := h.Tokens.Store(ctx, u.ID, utils.HashRefreshRaw(refresh.Token), refresh.Exp); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "save refresh failed"})
	}
	// Opportunistic cleanup; there is no background job for expired rows.
	_ = h.Tokens.DeleteExpired(ctx)

	c.SetCookie(h.authCookie(middleware.AccessCookieName, access.Token, access.Exp))
	c.SetCookie(h.authCookie(middleware.RefreshCookieName, refresh.Token, refresh.Exp))

	return c.JSON(http.StatusOK, echo.Map{
		"user_id": u.ID,
		"role":    u.Role,
	})
}

// Refresh verifies the refresh cookie and issues a fresh access cookie.
// The refresh token itself is not rotated: it stays valid until expiry or
// logout.  Signature/expiry problems and a revoked (deleted-from-store)
// token are reported separately, both as 401.
func (h *AuthHandler) Refresh(c echo.Context) error {
	ck, err := c.Cookie(middleware.RefreshCookieName)
	if err != nil || strings.TrimSpace(ck.Value) == "" {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "missing refresh token"})
	}
	raw := strings.TrimSpace(ck.Value)

	cl, err := utils.ParseToken(h.Cfg.JWTSecret, raw)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid refresh token"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	// The signature alone is not enough: logout deletes the stored row,
	// and a deleted row means the token is revoked.
	if _, err := h.Tokens.Validate(ctx, utils.HashRefreshRaw(raw)); err != nil {
		if err == sql.ErrNoRows {
			return c.JSON(http.StatusUnauthorized, echo.Map{"error": "refresh token revoked"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}

	access, err := utils.NewAccessToken(h.Cfg.JWTSecret, cl, h.Cfg.AccessTTLMin)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "issue access failed"})
	}
	c.SetCookie(h.authCookie(middleware.AccessCookieName, access.Token, access.Exp))

	return c.JSON(http.StatusOK, echo.Map{"expires": access.Exp})
}

// Logout revokes the refresh token carried by the cookie and clears both
// cookies.  Deleting an already-absent token succeeds silently, so
// repeated logouts are harmless.
func (h *AuthHandler) Logout(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if ck, err := c.Cookie(middleware.RefreshCookieName); err == nil && ck.Value != "" {
		if err := h.Tokens.Delete(ctx, utils.HashRefreshRaw(ck.Value)); err != nil {
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "logout failed"})
		}
	}
	c.SetCookie(h.clearCookie(middleware.AccessCookieName))
	c.SetCookie(h.clearCookie(middleware.RefreshCookieName))
	return c.NoContent(http.StatusNoContent)
}

func (h *AuthHandler) authCookie(name, value string, exp time.Time) *http.Cookie {
	return &http.Cookie{
		Name:     name,
		Value:    value,
		Expires:  exp,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		Secure:   h.Cfg.CookieSecure,
	}
}

func (h *AuthHandler) clearCookie(name string) *http.Cookie {
	return &http.Cookie{
		Name:     name,
		Value:    "",
		MaxAge:   -1,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		Secure:   h.Cfg.CookieSecure,
	}
}
