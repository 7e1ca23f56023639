package repository

import (
	"context"
	"database/sql"
	"strings"

	"github.com/devfood/restaurant-orders/internal/database"
	"github.com/devfood/restaurant-orders/internal/model"
)

// DishRepo provides CRUD operations for the dish catalog.  Deletion is
// transactional: the dish row and its image file either both disappear or
// neither does (a missing file is tolerated).
type DishRepo struct{ DB *sql.DB }

func NewDishRepo(db *sql.DB) *DishRepo { return &DishRepo{DB: db} }

// Create inserts a dish and populates its generated ID.
func (r *DishRepo) Create(ctx context.Context, d *model.Dish) error {
	res, err := r.DB.ExecContext(ctx,
		"INSERT INTO dishes (name, price_cents, ingredients, image_path) VALUES (?,?,?,?)",
		d.Name, d.PriceCents, d.Ingredients, d.ImagePath)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	d.ID = uint64(id)
	return nil
}

// GetByID fetches a dish by id.
func (r *DishRepo) GetByID(ctx context.Context, id uint64) (model.Dish, error) {
	var d model.Dish
	var img sql.NullString
	err := r.DB.QueryRowContext(ctx,
		"SELECT id, name, price_cents, ingredients, image_path FROM dishes WHERE id=? LIMIT 1",
		id).Scan(&d.ID, &d.Name, &d.PriceCents, &d.Ingredients, &img)
	if err != nil {
		return model.Dish{}, err
	}
	if img.Valid {
		p := img.String
		d.ImagePath = &p
	}
	return d, nil
}

// List returns the whole catalog ordered by name.
func (r *DishRepo) List(ctx context.Context) ([]model.Dish, error) {
	rows, err := r.DB.QueryContext(ctx,
		"SELECT id, name, price_cents, ingredients, image_path FROM dishes ORDER BY name")
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	dishes := make([]model.Dish, 0)
	for rows.Next() {
		var d model.Dish
		var img sql.NullString
		if err := rows.Scan(&d.ID, &d.Name, &d.PriceCents, &d.Ingredients, &img); err != nil {
			return nil, err
		}
		if img.Valid {
			p := img.String
			d.ImagePath = &p
		}
		dishes = append(dishes, d)
	}
	return dishes, rows.Err()
}

// DishPatch is a typed partial update for the dishes table.  Nil fields
// are left untouched.
type DishPatch struct {
	Name        *string
	PriceCents  *int64
	Ingredients *string
	ImagePath   *string
}

// Update applies a patch to one dish and returns the previous image path
// when the patch replaces it, so the caller can remove the old file after
// the metadata update lands.  Returns sql.ErrNoRows for a missing dish.
func (r *DishRepo) Update(ctx context.Context, id uint64, p DishPatch) (prevImage *string, err error) {
	var img sql.NullString
	if err := r.DB.QueryRowContext(ctx,
		"SELECT image_path FROM dishes WHERE id=? LIMIT 1", id).Scan(&img); err != nil {
		return nil, err
	}
	if p.ImagePath != nil && img.Valid {
		old := img.String
		prevImage = &old
	}

	sets := make([]string, 0, 4)
	args := make([]interface{}, 0, 5)
	if p.Name != nil {
		sets = append(sets, "name=?")
		args = append(args, *p.Name)
	}
	if p.PriceCents != nil {
		sets = append(sets, "price_cents=?")
		args = append(args, *p.PriceCents)
	}
	if p.Ingredients != nil {
		sets = append(sets, "ingredients=?")
		args = append(args, *p.Ingredients)
	}
	if p.ImagePath != nil {
		sets = append(sets, "image_path=?")
		args = append(args, *p.ImagePath)
	}
	if len(sets) == 0 {
		return nil, nil
	}
	args = append(args, id)
	if _, err := r.DB.ExecContext(ctx,
		"UPDATE dishes SET "+strings.Join(sets, ", ")+" WHERE id=?", args...); err != nil {
		return nil, err
	}
	return prevImage, nil
}

// Delete removes a dish and its image file in one transaction:
//
//  1. count order_items referencing the dish; any reference aborts with
//     ErrDishInUse so order history keeps a valid dish to join against,
//  2. lock the row (FOR UPDATE) and read the image path — the lock
//     serializes concurrent deletes of the same dish against order-item
//     inserts that would otherwise race past the count,
//  3. delete the row,
//  4. remove the image file via removeFile; a failure there rolls the
//     whole transaction back so the catalog never points at nothing.
//
// removeFile must treat a missing file as success.
func (r *DishRepo) Delete(ctx context.Context, id uint64, removeFile func(path string) error) error {
	return database.WithTx(ctx, r.DB, func(tx *sql.Tx) error {
		var refs int
		if err := tx.QueryRowContext(ctx,
			"SELECT COUNT(*) FROM order_items WHERE dish_id=?", id).Scan(&refs); err != nil {
			return err
		}
		if refs > 0 {
			return ErrDishInUse
		}
		var img sql.NullString
		if err := tx.QueryRowContext(ctx,
			"SELECT image_path FROM dishes WHERE id=? FOR UPDATE", id).Scan(&img); err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, "DELETE FROM dishes WHERE id=?", id); err != nil {
			return err
		}
		if img.Valid && removeFile != nil {
			if err := removeFile(img.String); err != nil {
				return err
			}
		}
		return nil
	})
}
