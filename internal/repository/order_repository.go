package repository

import (
	"context"
	"database/sql"
	"sort"
	"strings"
	"time"

	"github.com/devfood/restaurant-orders/internal/database"
	"github.com/devfood/restaurant-orders/internal/model"
)

// OrderRepo provides transactional order placement and lifecycle updates.
// An order and its line items are written atomically; line items snapshot
// the dish price at order time.
type OrderRepo struct{ DB *sql.DB }

func NewOrderRepo(db *sql.DB) *OrderRepo { return &OrderRepo{DB: db} }

// OrderItemInput is one requested (dish, quantity) line.  Quantities are
// validated by the handler before reaching the repository.
type OrderItemInput struct {
	DishID   uint64 `json:"dish_id"`
	Quantity uint32 `json:"quantity"`
}

// Create places an order for userID.  It first resolves every distinct
// dish id against the catalog; any absent id aborts with a
// MissingDishesError naming exactly the missing ids before a transaction
// is even opened.  The order row and all line items are then inserted in
// one transaction, the items in a single batched statement.
func (r *OrderRepo) Create(ctx context.Context, userID uint64, deliveryAddress string, paid bool, items []OrderItemInput) (uint64, error) {
	distinct := make([]uint64, 0, len(items))
	seen := make(map[uint64]struct{}, len(items))
	for _, it := range items {
		if _, ok := seen[it.DishID]; !ok {
			seen[it.DishID] = struct{}{}
			distinct = append(distinct, it.DishID)
		}
	}

	prices, err := r.dishPrices(ctx, distinct)
	if err != nil {
		return 0, err
	}
	missing := make([]uint64, 0)
	for _, id := range distinct {
		if _, ok := prices[id]; !ok {
			missing = append(missing, id)
		}
	}
	if len(missing) > 0 {
		sort.Slice(missing, func(i, j int) bool { return missing[i] < missing[j] })
		return 0, &MissingDishesError{IDs: missing}
	}

	var orderID uint64
	now := time.Now().UTC()
	err = database.WithTx(ctx, r.DB, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx,
			"INSERT INTO orders (user_id, delivery_address, status, paid, ordered_at) VALUES (?,?,?,?,?)",
			userID, deliveryAddress, model.StatusOrdered, paid, now)
		if err != nil {
			return err
		}
		id, err := res.LastInsertId()
		if err != nil {
			return err
		}
		orderID = uint64(id)

		q := "INSERT INTO order_items (order_id, dish_id, quantity, unit_price_cents) VALUES "
		args := make([]interface{}, 0, len(items)*4)
		for i, it := range items {
			if i > 0 {
				q += ","
			}
			q += "(?,?,?,?)"
			args = append(args, orderID, it.DishID, it.Quantity, prices[it.DishID])
		}
		_, err = tx.ExecContext(ctx, q, args...)
		return err
	})
	if err != nil {
		return 0, err
	}
	return orderID, nil
}

// dishPrices resolves the current price of each given dish id.  Ids
// absent from the result simply do not exist.
func (r *OrderRepo) dishPrices(ctx context.Context, ids []uint64) (map[uint64]int64, error) {
	prices := make(map[uint64]int64, len(ids))
	if len(ids) == 0 {
		return prices, nil
	}
	placeholders := make([]string, len(ids))
	args := make([]interface{}, len(ids))
	for i, id := range ids {
		placeholders[i] = "?"
		args[i] = id
	}
	rows, err := r.DB.QueryContext(ctx,
		"SELECT id, price_cents FROM dishes WHERE id IN ("+strings.Join(placeholders, ",")+")", args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var id uint64
		var cents int64
		if err := rows.Scan(&id, &cents); err != nil {
			return nil, err
		}
		prices[id] = cents
	}
	return prices, rows.Err()
}

const orderColumns = "id, user_id, delivery_address, status, paid, ordered_at, processing_at, delivering_at, completed_at"

// GetByID returns one order with its line items, dish names denormalized
// at read time.  sql.ErrNoRows when no order matches.
func (r *OrderRepo) GetByID(ctx context.Context, id uint64) (*model.Order, error) {
	row := r.DB.QueryRowContext(ctx,
		"SELECT "+orderColumns+" FROM orders WHERE id=? LIMIT 1", id)
	o, err := scanOrder(row)
	if err != nil {
		return nil, err
	}
	orders := []*model.Order{o}
	if err := r.loadItems(ctx, orders); err != nil {
		return nil, err
	}
	return o, nil
}

// List returns all orders, newest first.  Never fails on an empty table.
func (r *OrderRepo) List(ctx context.Context) ([]*model.Order, error) {
	return r.list(ctx, "SELECT "+orderColumns+" FROM orders ORDER BY ordered_at DESC")
}

// ListByUser returns one user's orders, newest first.
func (r *OrderRepo) ListByUser(ctx context.Context, userID uint64) ([]*model.Order, error) {
	return r.list(ctx, "SELECT "+orderColumns+" FROM orders WHERE user_id=? ORDER BY ordered_at DESC", userID)
}

func (r *OrderRepo) list(ctx context.Context, q string, args ...interface{}) ([]*model.Order, error) {
	rows, err := r.DB.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	orders := make([]*model.Order, 0)
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		orders = append(orders, o)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if err := r.loadItems(ctx, orders); err != nil {
		return nil, err
	}
	return orders, nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanOrder(s rowScanner) (*model.Order, error) {
	var o model.Order
	var processing, delivering, completed sql.NullTime
	if err := s.Scan(&o.ID, &o.UserID, &o.DeliveryAddress, &o.Status, &o.Paid,
		&o.OrderedAt, &processing, &delivering, &completed); err != nil {
		return nil, err
	}
	if processing.Valid {
		t := processing.Time
		o.ProcessingAt = &t
	}
	if delivering.Valid {
		t := delivering.Time
		o.DeliveringAt = &t
	}
	if completed.Valid {
		t := completed.Time
		o.CompletedAt = &t
	}
	o.Items = []model.OrderItem{}
	return &o, nil
}

// loadItems populates the Items of every given order with a single
// batched query.
func (r *OrderRepo) loadItems(ctx context.Context, orders []*model.Order) error {
	if len(orders) == 0 {
		return nil
	}
	index := make(map[uint64]*model.Order, len(orders))
	placeholders := make([]string, 0, len(orders))
	args := make([]interface{}, 0, len(orders))
	for _, o := range orders {
		index[o.ID] = o
		placeholders = append(placeholders, "?")
		args = append(args, o.ID)
	}
	q := `SELECT oi.order_id, oi.dish_id, d.name, oi.unit_price_cents, oi.quantity
	      FROM order_items oi
	      JOIN dishes d ON d.id = oi.dish_id
	      WHERE oi.order_id IN (` + strings.Join(placeholders, ",") + `)
	      ORDER BY oi.order_id, oi.dish_id`
	rows, err := r.DB.QueryContext(ctx, q, args...)
	if err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		var orderID uint64
		var it model.OrderItem
		if err := rows.Scan(&orderID, &it.DishID, &it.DishName, &it.UnitPriceCents, &it.Quantity); err != nil {
			return err
		}
		if o, ok := index[orderID]; ok {
			o.Items = append(o.Items, it)
		}
	}
	return rows.Err()
}

// OrderPatch is a typed partial update for the orders table.  Nil fields
// are left untouched.
type OrderPatch struct {
	Status *string
	Paid   *bool
}

// Update applies a patch to one order.  The current status is read under
// a row lock so two concurrent updates on the same order serialize; the
// requested status must be the legal forward transition or the update
// aborts with ErrInvalidTransition.  A status change stamps the matching
// timestamp column with the current time.  sql.ErrNoRows when the order
// does not exist.
func (r *OrderRepo) Update(ctx context.Context, id uint64, p OrderPatch) error {
	return database.WithTx(ctx, r.DB, func(tx *sql.Tx) error {
		var current string
		if err := tx.QueryRowContext(ctx,
			"SELECT status FROM orders WHERE id=? FOR UPDATE", id).Scan(&current); err != nil {
			return err
		}
		sets := make([]string, 0, 3)
		args := make([]interface{}, 0, 4)
		if p.Status != nil {
			if !model.CanTransition(current, *p.Status) {
				return ErrInvalidTransition
			}
			sets = append(sets, "status=?")
			args = append(args, *p.Status)
			now := time.Now().UTC()
			switch *p.Status {
			case model.StatusProcessing:
				sets = append(sets, "processing_at=?")
				args = append(args, now)
			case model.StatusDelivering:
				sets = append(sets, "delivering_at=?")
				args = append(args, now)
			case model.StatusCompleted:
				sets = append(sets, "completed_at=?")
				args = append(args, now)
			}
		}
		if p.Paid != nil {
			sets = append(sets, "paid=?")
			args = append(args, *p.Paid)
		}
		if len(sets) == 0 {
			return nil
		}
		args = append(args, id)
		_, err := tx.ExecContext(ctx,
			"UPDATE orders SET "+strings.Join(sets, ", ")+" WHERE id=?", args...)
		return err
	})
}

// Delete removes an order unconditionally.  Line items cascade at the
// database level.  sql.ErrNoRows when the order does not exist.
func (r *OrderRepo) Delete(ctx context.Context, id uint64) error {
	res, err := r.DB.ExecContext(ctx, "DELETE FROM orders WHERE id=?", id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return sql.ErrNoRows
	}
	return nil
}
