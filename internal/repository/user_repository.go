package repository

import (
	"context"
	"database/sql"
	"strings"

	"github.com/devfood/restaurant-orders/internal/database"
	"github.com/devfood/restaurant-orders/internal/model"
	"github.com/devfood/restaurant-orders/internal/utils"
)

type UserRepo struct{ DB *sql.DB }

func NewUserRepo(db *sql.DB) *UserRepo { return &UserRepo{DB: db} }

const userColumns = "id,username,last_name,password_hash,email,address,phone_number,role,created_at,updated_at"

// Create inserts a user and returns its ID.  The email is normalized and
// checked explicitly before the insert so a duplicate yields a precise
// ErrEmailExists instead of a bare constraint violation; the unique index
// still backs the check against races (MySQL error 1062).
func (r *UserRepo) Create(ctx context.Context, u *model.User, password string, cost int) (uint64, error) {
	email := strings.ToLower(strings.TrimSpace(u.Email))
	var existing uint64
	err := r.DB.QueryRowContext(ctx,
		"SELECT id FROM users WHERE email=? LIMIT 1", email).Scan(&existing)
	if err == nil {
		return 0, ErrEmailExists
	}
	if err != sql.ErrNoRows {
		return 0, err
	}
	hash, err := utils.HashPassword(password, cost)
	if err != nil {
		return 0, err
	}
	res, err := r.DB.ExecContext(ctx,
		"INSERT INTO users (username, last_name, password_hash, email, address, phone_number, role) VALUES (?,?,?,?,?,?,?)",
		u.Username, u.LastName, hash, email, u.Address, u.PhoneNumber, u.Role)
	if err != nil {
		if strings.Contains(strings.ToLower(err.Error()), "1062") {
			return 0, ErrEmailExists
		}
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	return uint64(id), nil
}

// GetByEmail fetches a user by normalized email.
func (r *UserRepo) GetByEmail(ctx context.Context, email string) (model.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	return r.scanOne(r.DB.QueryRowContext(ctx,
		"SELECT "+userColumns+" FROM users WHERE email=? LIMIT 1", email))
}

// GetByID fetches a user by id.
func (r *UserRepo) GetByID(ctx context.Context, id uint64) (model.User, error) {
	return r.scanOne(r.DB.QueryRowContext(ctx,
		"SELECT "+userColumns+" FROM users WHERE id=? LIMIT 1", id))
}

// List returns all users ordered by id.
func (r *UserRepo) List(ctx context.Context) ([]model.User, error) {
	rows, err := r.DB.QueryContext(ctx,
		"SELECT "+userColumns+" FROM users ORDER BY id")
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	users := make([]model.User, 0)
	for rows.Next() {
		var u model.User
		if err := rows.Scan(&u.ID, &u.Username, &u.LastName, &u.PasswordHash, &u.Email,
			&u.Address, &u.PhoneNumber, &u.Role, &u.CreatedAt, &u.UpdatedAt); err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

func (r *UserRepo) scanOne(row *sql.Row) (model.User, error) {
	var u model.User
	err := row.Scan(&u.ID, &u.Username, &u.LastName, &u.PasswordHash, &u.Email,
		&u.Address, &u.PhoneNumber, &u.Role, &u.CreatedAt, &u.UpdatedAt)
	return u, err
}

// UserPatch is a typed partial update for the users table.  Nil fields
// are left untouched.  PasswordHash must already be hashed by the caller.
type UserPatch struct {
	Username     *string
	LastName     *string
	Email        *string
	Address      *string
	PhoneNumber  *string
	PasswordHash *string
	Role         *string
}

// Update applies a patch to one user.  Returns sql.ErrNoRows when the
// user does not exist and ErrEmailExists when an email change collides
// with another account.
func (r *UserRepo) Update(ctx context.Context, id uint64, p UserPatch) error {
	sets := make([]string, 0, 7)
	args := make([]interface{}, 0, 8)
	add := func(col string, v *string) {
		if v != nil {
			sets = append(sets, col+"=?")
			args = append(args, *v)
		}
	}
	var email *string
	if p.Email != nil {
		norm := strings.ToLower(strings.TrimSpace(*p.Email))
		email = &norm
	}
	add("username", p.Username)
	add("last_name", p.LastName)
	add("email", email)
	add("address", p.Address)
	add("phone_number", p.PhoneNumber)
	add("password_hash", p.PasswordHash)
	add("role", p.Role)
	if len(sets) == 0 {
		return nil
	}

	// Existence check first: UPDATE reports zero affected rows both for a
	// missing id and for unchanged values, so rows-affected alone cannot
	// distinguish not-found.
	var exists uint64
	if err := r.DB.QueryRowContext(ctx,
		"SELECT id FROM users WHERE id=? LIMIT 1", id).Scan(&exists); err != nil {
		return err
	}
	args = append(args, id)
	_, err := r.DB.ExecContext(ctx,
		"UPDATE users SET "+strings.Join(sets, ", ")+" WHERE id=?", args...)
	if err != nil && strings.Contains(strings.ToLower(err.Error()), "1062") {
		return ErrEmailExists
	}
	return err
}

// Delete removes a user unless they still own orders that are not
// completed.  The guard and the delete run in one transaction so a
// concurrent order insert cannot slip between them.  Refresh tokens and
// completed orders cascade at the database level.
func (r *UserRepo) Delete(ctx context.Context, id uint64) error {
	return database.WithTx(ctx, r.DB, func(tx *sql.Tx) error {
		var open int
		if err := tx.QueryRowContext(ctx,
			"SELECT COUNT(*) FROM orders WHERE user_id=? AND status<>?",
			id, model.StatusCompleted).Scan(&open); err != nil {
			return err
		}
		if open > 0 {
			return ErrUserHasOpenOrders
		}
		res, err := tx.ExecContext(ctx, "DELETE FROM users WHERE id=?", id)
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
	})
}
