package repository

import (
	"context"
	"database/sql"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/devfood/restaurant-orders/internal/model"
)

func TestUserCreateNormalizesEmail(t *testing.T) {
	db, mock := newMock(t)
	repo := NewUserRepo(db)

	mock.ExpectQuery(regexp.QuoteMeta(
		"SELECT id FROM users WHERE email=? LIMIT 1")).
		WithArgs("alice@example.com").
		WillReturnError(sql.ErrNoRows)
	mock.ExpectExec(regexp.QuoteMeta(
		"INSERT INTO users (username, last_name, password_hash, email, address, phone_number, role) VALUES (?,?,?,?,?,?,?)")).
		WithArgs("alice", "", sqlmock.AnyArg(), "alice@example.com", "", "", "user").
		WillReturnResult(sqlmock.NewResult(1, 1))

	u := &model.User{Username: "alice", Email: "  Alice@Example.COM ", Role: model.RoleUser}
	id, err := repo.Create(context.Background(), u, "s3cret", bcrypt.MinCost)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), id)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserCreateDuplicateEmail(t *testing.T) {
	db, mock := newMock(t)
	repo := NewUserRepo(db)

	mock.ExpectQuery(regexp.QuoteMeta(
		"SELECT id FROM users WHERE email=? LIMIT 1")).
		WithArgs("alice@example.com").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(7))

	u := &model.User{Username: "alice", Email: "alice@example.com", Role: model.RoleUser}
	_, err := repo.Create(context.Background(), u, "s3cret", bcrypt.MinCost)
	assert.ErrorIs(t, err, ErrEmailExists)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserUpdateNotFound(t *testing.T) {
	db, mock := newMock(t)
	repo := NewUserRepo(db)

	mock.ExpectQuery(regexp.QuoteMeta(
		"SELECT id FROM users WHERE id=? LIMIT 1")).
		WithArgs(99).
		WillReturnError(sql.ErrNoRows)

	name := "bob"
	err := repo.Update(context.Background(), 99, UserPatch{Username: &name})
	assert.ErrorIs(t, err, sql.ErrNoRows)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserUpdatePartialPatch(t *testing.T) {
	db, mock := newMock(t)
	repo := NewUserRepo(db)

	mock.ExpectQuery(regexp.QuoteMeta(
		"SELECT id FROM users WHERE id=? LIMIT 1")).
		WithArgs(7).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(7))
	mock.ExpectExec(regexp.QuoteMeta(
		"UPDATE users SET username=?, email=? WHERE id=?")).
		WithArgs("bob", "bob@example.com", 7).
		WillReturnResult(sqlmock.NewResult(0, 1))

	name := "bob"
	email := " Bob@Example.com "
	err := repo.Update(context.Background(), 7, UserPatch{Username: &name, Email: &email})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserUpdateEmptyPatchIsNoop(t *testing.T) {
	db, mock := newMock(t)
	repo := NewUserRepo(db)

	err := repo.Update(context.Background(), 7, UserPatch{})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserDeleteBlockedByOpenOrders(t *testing.T) {
	db, mock := newMock(t)
	repo := NewUserRepo(db)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(
		"SELECT COUNT(*) FROM orders WHERE user_id=? AND status<>?")).
		WithArgs(7, "completed").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(2))
	mock.ExpectRollback()

	err := repo.Delete(context.Background(), 7)
	assert.ErrorIs(t, err, ErrUserHasOpenOrders)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserDelete(t *testing.T) {
	db, mock := newMock(t)
	repo := NewUserRepo(db)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(
		"SELECT COUNT(*) FROM orders WHERE user_id=? AND status<>?")).
		WithArgs(7, "completed").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM users WHERE id=?")).
		WithArgs(7).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err := repo.Delete(context.Background(), 7)
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}
