package handler

import (
	"context"
	"database/sql"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/devfood/restaurant-orders/internal/config"
	"github.com/devfood/restaurant-orders/internal/model"
	"github.com/devfood/restaurant-orders/internal/repository"
	"github.com/devfood/restaurant-orders/internal/utils"
)

// UserHandler serves the /users endpoints.  Listing is admin-only;
// reading and mutating a single account is allowed for the account owner
// or an admin.
type UserHandler struct {
	Cfg   config.Config
	Users *repository.UserRepo
}

func NewUserHandler(cfg config.Config, u *repository.UserRepo) *UserHandler {
	if u == nil {
		panic("nil repository passed to NewUserHandler")
	}
	return &UserHandler{Cfg: cfg, Users: u}
}

// List handles GET /users (admin).
func (h *UserHandler) List(c echo.Context) error {
	users, err := h.Users.List(c.Request().Context())
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	return c.JSON(http.StatusOK, users)
}

// Get handles GET /users/:id (self or admin).
func (h *UserHandler) Get(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	if ok, err := h.requireSelfOrAdmin(c, id); !ok {
		return err
	}
	u, err := h.Users.GetByID(c.Request().Context(), id)
	if err != nil {
		if err == sql.ErrNoRows {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "user not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	return c.JSON(http.StatusOK, u)
}

type updateUserReq struct {
	Username    *string `json:"username"`
	LastName    *string `json:"last_name"`
	Email       *string `json:"email"`
	Address     *string `json:"address"`
	PhoneNumber *string `json:"phone_number"`
	Password    *string `json:"password"`
	Role        *string `json:"role"`
}

// Update handles PUT /users/:id (self or admin).  Role changes demand
// the admin role and must not target the acting account, which rules out
// both self-escalation and accidentally dropping one's own admin access.
func (h *UserHandler) Update(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	if ok, err := h.requireSelfOrAdmin(c, id); !ok {
		return err
	}
	var req updateUserReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}

	patch := repository.UserPatch{
		Username:    req.Username,
		LastName:    req.LastName,
		Email:       req.Email,
		Address:     req.Address,
		PhoneNumber: req.PhoneNumber,
	}

	if req.Role != nil {
		actorID, _ := getUserID(c)
		if !isAdmin(c) || actorID == id {
			return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
		}
		if *req.Role != model.RoleUser && *req.Role != model.RoleAdmin {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid role"})
		}
		patch.Role = req.Role
	}
	if req.Email != nil && !utils.ValidEmail(*req.Email) {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid email format"})
	}
	if req.PhoneNumber != nil && *req.PhoneNumber != "" && !utils.ValidPhone(*req.PhoneNumber) {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid phone number format"})
	}
	if req.Password != nil {
		if *req.Password == "" {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "password must not be empty"})
		}
		hash, err := utils.HashPassword(*req.Password, h.Cfg.BcryptCost)
		if err != nil {
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "hash failed"})
		}
		patch.PasswordHash = &hash
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if err := h.Users.Update(ctx, id, patch); err != nil {
		switch err {
		case sql.ErrNoRows:
			return c.JSON(http.StatusNotFound, echo.Map{"error": "user not found"})
		case repository.ErrEmailExists:
			return c.JSON(http.StatusConflict, echo.Map{"error": "email already exists"})
		default:
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update failed"})
		}
	}
	u, err := h.Users.GetByID(ctx, id)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	return c.JSON(http.StatusOK, u)
}

// Delete handles DELETE /users/:id (self or admin).  Accounts still
// owning non-completed orders cannot be removed; the cascade would wipe
// live order history.
func (h *UserHandler) Delete(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	if ok, err := h.requireSelfOrAdmin(c, id); !ok {
		return err
	}
	err = h.Users.Delete(c.Request().Context(), id)
	if err != nil {
		switch err {
		case sql.ErrNoRows:
			return c.JSON(http.StatusNotFound, echo.Map{"error": "user not found"})
		case repository.ErrUserHasOpenOrders:
			return c.JSON(http.StatusConflict, echo.Map{"error": "user has orders that are not completed"})
		default:
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "delete failed"})
		}
	}
	return c.NoContent(http.StatusNoContent)
}

// requireSelfOrAdmin reports whether the caller may act on targetID.
// When it returns false the 401/403 response has already been written.
func (h *UserHandler) requireSelfOrAdmin(c echo.Context, targetID uint64) (bool, error) {
	uid, err := getUserID(c)
	if err != nil {
		return false, c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	if uid != targetID && !isAdmin(c) {
		return false, c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
	}
	return true, nil
}
