package handler

import (
	"database/sql"
	"fmt"
	"log"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/devfood/restaurant-orders/internal/model"
	"github.com/devfood/restaurant-orders/internal/repository"
	"github.com/devfood/restaurant-orders/internal/storage"
	"github.com/devfood/restaurant-orders/internal/utils"
)

// DishHandler serves the /dishes endpoints.  Reads are public; every
// mutation sits behind the admin role.  Image bytes are parsed by echo's
// multipart support and land in the ImageStore; the repository only sees
// paths.
type DishHandler struct {
	Dishes *repository.DishRepo
	Images *storage.ImageStore
}

func NewDishHandler(d *repository.DishRepo, img *storage.ImageStore) *DishHandler {
	if d == nil || img == nil {
		panic("nil dependency passed to NewDishHandler")
	}
	return &DishHandler{Dishes: d, Images: img}
}

// List handles GET /dishes.
func (h *DishHandler) List(c echo.Context) error {
	dishes, err := h.Dishes.List(c.Request().Context())
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	return c.JSON(http.StatusOK, dishes)
}

// Get handles GET /dishes/:id.
func (h *DishHandler) Get(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	d, err := h.Dishes.GetByID(c.Request().Context(), id)
	if err != nil {
		if err == sql.ErrNoRows {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "dish not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	return c.JSON(http.StatusOK, d)
}

type createDishReq struct {
	Name        string `json:"name"`
	PriceCents  int64  `json:"price_cents"`
	Ingredients string `json:"ingredients"`
}

// Create handles POST /dishes (admin).
func (h *DishHandler) Create(c echo.Context) error {
	var req createDishReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "name is required"})
	}
	if !utils.ValidPrice(req.PriceCents) {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "price must not be negative"})
	}
	d := &model.Dish{Name: req.Name, PriceCents: req.PriceCents, Ingredients: req.Ingredients}
	if err := h.Dishes.Create(c.Request().Context(), d); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create dish failed"})
	}
	return c.JSON(http.StatusCreated, d)
}

type updateDishReq struct {
	Name        *string `json:"name"`
	PriceCents  *int64  `json:"price_cents"`
	Ingredients *string `json:"ingredients"`
}

// Update handles PUT /dishes/:id (admin).  Field-level partial update;
// image replacement goes through UploadImage.
func (h *DishHandler) Update(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	var req updateDishReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if req.Name == nil && req.PriceCents == nil && req.Ingredients == nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "no fields provided"})
	}
	if req.Name != nil && strings.TrimSpace(*req.Name) == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "name must not be empty"})
	}
	if req.PriceCents != nil && !utils.ValidPrice(*req.PriceCents) {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "price must not be negative"})
	}
	patch := repository.DishPatch{Name: req.Name, PriceCents: req.PriceCents, Ingredients: req.Ingredients}
	if _, err := h.Dishes.Update(c.Request().Context(), id, patch); err != nil {
		if err == sql.ErrNoRows {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "dish not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update failed"})
	}
	d, err := h.Dishes.GetByID(c.Request().Context(), id)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	return c.JSON(http.StatusOK, d)
}

// UploadImage handles POST /dishes/:id/image (admin, multipart field
// "image").  The new file is stored first, then the path update lands,
// then the previous file is removed best-effort: a leftover file is
// preferable to a catalog row pointing at nothing, so unlike Delete a
// removal failure here only logs.
func (h *DishHandler) UploadImage(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	fh, err := c.FormFile("image")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "image file is required"})
	}
	src, err := fh.Open()
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "cannot read image"})
	}
	defer src.Close()

	name := fmt.Sprintf("dish_%d_%d%s", id, time.Now().UnixNano(), filepath.Ext(fh.Filename))
	path, err := h.Images.Save(name, src)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "store image failed"})
	}

	prev, err := h.Dishes.Update(c.Request().Context(), id, repository.DishPatch{ImagePath: &path})
	if err != nil {
		_ = h.Images.Remove(path) // do not leave an orphaned upload behind
		if err == sql.ErrNoRows {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "dish not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update failed"})
	}
	if prev != nil {
		if err := h.Images.Remove(*prev); err != nil {
			log.Printf("dish image: removing replaced file %s failed: %v", *prev, err)
		}
	}
	return c.JSON(http.StatusOK, echo.Map{"image_path": path})
}

// Delete handles DELETE /dishes/:id (admin).  The repository refuses
// while order items reference the dish and unwinds the row delete if the
// image file cannot be removed.
func (h *DishHandler) Delete(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	err = h.Dishes.Delete(c.Request().Context(), id, h.Images.Remove)
	if err != nil {
		switch err {
		case sql.ErrNoRows:
			return c.JSON(http.StatusNotFound, echo.Map{"error": "dish not found"})
		case repository.ErrDishInUse:
			return c.JSON(http.StatusConflict, echo.Map{"error": "cannot delete: referenced by existing orders"})
		default:
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "delete failed"})
		}
	}
	return c.NoContent(http.StatusNoContent)
}
