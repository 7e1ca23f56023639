package handler

import (
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/devfood/restaurant-orders/internal/config"
	"github.com/devfood/restaurant-orders/internal/middleware"
	"github.com/devfood/restaurant-orders/internal/repository"
	"github.com/devfood/restaurant-orders/internal/utils"
)

const userColumnsTest = "id,username,last_name,password_hash,email,address,phone_number,role,created_at,updated_at"

func testCfg() config.Config {
	return config.Config{
		JWTSecret:      "handler-test-secret",
		AccessTTLMin:   15,
		RefreshTTLDays: 7,
		BcryptCost:     bcrypt.MinCost,
	}
}

func newAuthHandler(t *testing.T) (*AuthHandler, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewAuthHandler(testCfg(), repository.NewUserRepo(db), repository.NewTokenRepo(db)), mock
}

func postJSON(target, body string) (*http.Request, *httptest.ResponseRecorder) {
	req := httptest.NewRequest(http.MethodPost, target, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	return req, httptest.NewRecorder()
}

func errorBody(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var m map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &m))
	s, _ := m["error"].(string)
	return s
}

func TestLoginDoesNotRevealWhichCredentialFailed(t *testing.T) {
	h, mock := newAuthHandler(t)
	e := echo.New()

	hash, err := utils.HashPassword("right-password", bcrypt.MinCost)
	require.NoError(t, err)
	now := time.Now().UTC()

	// Unknown account.
	mock.ExpectQuery(regexp.QuoteMeta(
		"SELECT "+userColumnsTest+" FROM users WHERE email=? LIMIT 1")).
		WithArgs("ghost@example.com").
		WillReturnError(sql.ErrNoRows)

	req, rec := postJSON("/api/v1/auth/login", `{"email":"ghost@example.com","password":"whatever"}`)
	require.NoError(t, h.Login(e.NewContext(req, rec)))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	unknownMsg := errorBody(t, rec)

	// Known account, wrong password.
	mock.ExpectQuery(regexp.QuoteMeta(
		"SELECT "+userColumnsTest+" FROM users WHERE email=? LIMIT 1")).
		WithArgs("alice@example.com").
		WillReturnRows(sqlmock.NewRows(strings.Split(userColumnsTest, ",")).
			AddRow(7, "alice", "", hash, "alice@example.com", "", "", "user", now, now))

	req, rec = postJSON("/api/v1/auth/login", `{"email":"alice@example.com","password":"wrong-password"}`)
	require.NoError(t, h.Login(e.NewContext(req, rec)))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	assert.Equal(t, unknownMsg, errorBody(t, rec),
		"missing account and bad password must be indistinguishable")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLoginSetsAuthCookies(t *testing.T) {
	h, mock := newAuthHandler(t)
	e := echo.New()

	hash, err := utils.HashPassword("right-password", bcrypt.MinCost)
	require.NoError(t, err)
	now := time.Now().UTC()

	mock.ExpectQuery(regexp.QuoteMeta(
		"SELECT "+userColumnsTest+" FROM users WHERE email=? LIMIT 1")).
		WithArgs("alice@example.com").
		WillReturnRows(sqlmock.NewRows(strings.Split(userColumnsTest, ",")).
			AddRow(7, "alice", "", hash, "alice@example.com", "", "", "admin", now, now))
	mock.ExpectExec(regexp.QuoteMeta(
		"INSERT INTO refresh_tokens (token_hash, user_id, expires_at) VALUES (?,?,?)")).
		WithArgs(sqlmock.AnyArg(), 7, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec(regexp.QuoteMeta(
		"DELETE FROM refresh_tokens WHERE expires_at < ?")).
		WithArgs(sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 0))

	req, rec := postJSON("/api/v1/auth/login", `{"email":"alice@example.com","password":"right-password"}`)
	require.NoError(t, h.Login(e.NewContext(req, rec)))
	require.Equal(t, http.StatusOK, rec.Code)

	names := map[string]*http.Cookie{}
	for _, ck := range rec.Result().Cookies() {
		names[ck.Name] = ck
	}
	require.Contains(t, names, middleware.AccessCookieName)
	require.Contains(t, names, middleware.RefreshCookieName)
	for _, ck := range names {
		assert.True(t, ck.HttpOnly, "%s must be HttpOnly", ck.Name)
		assert.Equal(t, "/", ck.Path)
	}

	// The access cookie must verify against the same secret.
	cl, err := utils.ParseToken(testCfg().JWTSecret, names[middleware.AccessCookieName].Value)
	require.NoError(t, err)
	assert.Equal(t, uint64(7), cl.UserID)
	assert.Equal(t, "admin", cl.Role)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRefreshRejectsRevokedToken(t *testing.T) {
	h, mock := newAuthHandler(t)
	e := echo.New()

	refresh, err := utils.NewRefreshToken(testCfg().JWTSecret,
		utils.Claims{UserID: 7, Email: "alice@example.com", Role: "user"}, 7)
	require.NoError(t, err)

	// Row gone: token was revoked by logout.
	mock.ExpectQuery(regexp.QuoteMeta(
		"SELECT user_id, expires_at FROM refresh_tokens WHERE token_hash=? LIMIT 1")).
		WithArgs(utils.HashRefreshRaw(refresh.Token)).
		WillReturnError(sql.ErrNoRows)

	req, rec := postJSON("/api/v1/auth/refresh", "")
	req.AddCookie(&http.Cookie{Name: middleware.RefreshCookieName, Value: refresh.Token})

	require.NoError(t, h.Refresh(e.NewContext(req, rec)))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "refresh token revoked", errorBody(t, rec))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRefreshRejectsForgedToken(t *testing.T) {
	h, _ := newAuthHandler(t)
	e := echo.New()

	forged, err := utils.NewRefreshToken("attacker-secret",
		utils.Claims{UserID: 7, Role: "admin"}, 7)
	require.NoError(t, err)

	req, rec := postJSON("/api/v1/auth/refresh", "")
	req.AddCookie(&http.Cookie{Name: middleware.RefreshCookieName, Value: forged.Token})

	require.NoError(t, h.Refresh(e.NewContext(req, rec)))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "invalid refresh token", errorBody(t, rec))
}

func TestLogoutWithoutCookieSucceeds(t *testing.T) {
	h, mock := newAuthHandler(t)
	e := echo.New()

	req, rec := postJSON("/api/v1/auth/logout", "")
	require.NoError(t, h.Logout(e.NewContext(req, rec)))
	assert.Equal(t, http.StatusNoContent, rec.Code)

	// Both cookies are cleared even when nothing was revoked.
	cleared := 0
	for _, ck := range rec.Result().Cookies() {
		if ck.MaxAge < 0 {
			cleared++
		}
	}
	assert.Equal(t, 2, cleared)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRegisterForcesUserRole(t *testing.T) {
	h, mock := newAuthHandler(t)
	e := echo.New()

	mock.ExpectQuery(regexp.QuoteMeta(
		"SELECT id FROM users WHERE email=? LIMIT 1")).
		WithArgs("mallory@example.com").
		WillReturnError(sql.ErrNoRows)
	mock.ExpectExec(regexp.QuoteMeta(
		"INSERT INTO users (username, last_name, password_hash, email, address, phone_number, role) VALUES (?,?,?,?,?,?,?)")).
		WithArgs("mallory", "", sqlmock.AnyArg(), "mallory@example.com", "", "", "user").
		WillReturnResult(sqlmock.NewResult(9, 1))

	// The role field in the body must be ignored.
	req, rec := postJSON("/api/v1/auth/register",
		`{"username":"mallory","email":"mallory@example.com","password":"pw","role":"admin"}`)
	require.NoError(t, h.Register(e.NewContext(req, rec)))
	require.Equal(t, http.StatusCreated, rec.Code)

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "user", body["role"])
	assert.NoError(t, mock.ExpectationsWereMet())
}
