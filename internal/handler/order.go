package handler

import (
	"database/sql"
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/devfood/restaurant-orders/internal/model"
	"github.com/devfood/restaurant-orders/internal/queue"
	"github.com/devfood/restaurant-orders/internal/repository"
	queue_publisher "github.com/devfood/restaurant-orders/internal/service"
	"github.com/devfood/restaurant-orders/internal/utils"
)

// OrderHandler serves the /orders endpoints.  Any authenticated user may
// place an order for themselves and read their own orders; admins see
// everything and own the lifecycle mutations.  Event publication is
// fire-and-forget: a broker outage never fails a request.
type OrderHandler struct {
	Orders *repository.OrderRepo
}

func NewOrderHandler(o *repository.OrderRepo) *OrderHandler {
	if o == nil {
		panic("nil repository passed to NewOrderHandler")
	}
	return &OrderHandler{Orders: o}
}

type createOrderReq struct {
	DeliveryAddress string                      `json:"delivery_address"`
	Paid            bool                        `json:"paid"`
	Items           []repository.OrderItemInput `json:"items"`
}

// Create handles POST /orders.  The caller's identity is the order
// owner.  Quantities are validated strictly: zero, negative or absent
// quantities are rejected up front rather than coerced.  A dish id
// appearing on more than one line is rejected too; one line per dish
// keeps the (order, dish) pair unique in order_items.
func (h *OrderHandler) Create(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	var req createOrderReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if len(req.Items) == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "items must not be empty"})
	}
	bad := make([]uint64, 0)
	dup := make([]uint64, 0)
	seen := make(map[uint64]struct{}, len(req.Items))
	for _, it := range req.Items {
		if !utils.ValidQuantity(int64(it.Quantity)) {
			bad = append(bad, it.DishID)
		}
		if _, ok := seen[it.DishID]; ok {
			dup = append(dup, it.DishID)
		} else {
			seen[it.DishID] = struct{}{}
		}
	}
	if len(bad) > 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{
			"error":    "quantity must be a positive integer",
			"dish_ids": bad,
		})
	}
	if len(dup) > 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{
			"error":    "duplicate dish ids",
			"dish_ids": dup,
		})
	}

	orderID, err := h.Orders.Create(c.Request().Context(), userID, req.DeliveryAddress, req.Paid, req.Items)
	if err != nil {
		var missing *repository.MissingDishesError
		if errors.As(err, &missing) {
			return c.JSON(http.StatusNotFound, echo.Map{
				"error":    "some dishes do not exist",
				"dish_ids": missing.IDs,
			})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create order failed"})
	}

	if o, err := h.Orders.GetByID(c.Request().Context(), orderID); err == nil {
		ev := queue.OrderCreatedEvent{
			OrderID:         o.ID,
			UserID:          o.UserID,
			DeliveryAddress: o.DeliveryAddress,
			Paid:            o.Paid,
			OrderedAt:       o.OrderedAt.UTC().Format(time.RFC3339),
		}
		for _, it := range o.Items {
			ev.TotalCents += it.UnitPriceCents * int64(it.Quantity)
			ev.Items = append(ev.Items, queue.OrderItemLine{DishID: it.DishID, Name: it.DishName, Quantity: it.Quantity})
		}
		_ = queue_publisher.PublishOrderCreated(c.Request().Context(), ev)
	}

	return c.JSON(http.StatusCreated, echo.Map{"id": orderID})
}

// List handles GET /orders.  Admins get every order; users get their own.
func (h *OrderHandler) List(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	var (
		orders []*model.Order
		qErr   error
	)
	if isAdmin(c) {
		orders, qErr = h.Orders.List(c.Request().Context())
	} else {
		orders, qErr = h.Orders.ListByUser(c.Request().Context(), userID)
	}
	if qErr != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	return c.JSON(http.StatusOK, orders)
}

// Get handles GET /orders/:id (owner or admin).
func (h *OrderHandler) Get(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	id, err := pathID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	o, err := h.Orders.GetByID(c.Request().Context(), id)
	if err != nil {
		if err == sql.ErrNoRows {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "order not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	if o.UserID != userID && !isAdmin(c) {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
	}
	return c.JSON(http.StatusOK, o)
}

type updateOrderReq struct {
	Status *string `json:"status"`
	Paid   *bool   `json:"paid"`
}

// Update handles PUT /orders/:id (admin).  Status moves must follow
// ordered -> processing -> delivering -> completed; each move stamps its
// timestamp column.  Successful status changes are announced on the
// broker.
func (h *OrderHandler) Update(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	var req updateOrderReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if req.Status == nil && req.Paid == nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "no fields provided"})
	}
	if req.Status != nil && !model.ValidStatus(*req.Status) {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "unknown status"})
	}

	err = h.Orders.Update(c.Request().Context(), id, repository.OrderPatch{Status: req.Status, Paid: req.Paid})
	if err != nil {
		switch err {
		case sql.ErrNoRows:
			return c.JSON(http.StatusNotFound, echo.Map{"error": "order not found"})
		case repository.ErrInvalidTransition:
			return c.JSON(http.StatusConflict, echo.Map{"error": "illegal status transition"})
		default:
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update failed"})
		}
	}

	if req.Status != nil {
		_ = queue_publisher.PublishOrderStatusChanged(c.Request().Context(), queue.OrderStatusChangedEvent{
			OrderID:   id,
			NewStatus: *req.Status,
			ChangedAt: time.Now().UTC().Format(time.RFC3339),
		})
	}

	o, err := h.Orders.GetByID(c.Request().Context(), id)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	return c.JSON(http.StatusOK, o)
}

// Delete handles DELETE /orders/:id (admin).  Unconditional; line items
// cascade.
func (h *OrderHandler) Delete(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	if err := h.Orders.Delete(c.Request().Context(), id); err != nil {
		if err == sql.ErrNoRows {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "order not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "delete failed"})
	}
	return c.NoContent(http.StatusNoContent)
}
