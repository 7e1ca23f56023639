package model

import "time"

// Role values stored in users.role.  Registration always assigns RoleUser;
// RoleAdmin accounts are provisioned directly in the database.
const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// User represents an application user record as stored in the `users`
// table.  Each field corresponds to a column in the database.  The
// password hash never leaves the server, hence the "-" json tag.
//
// Fields:
//  ID           – primary key identifier of the user.
//  Username     – display name, required at registration.
//  LastName     – optional family name.
//  Email        – unique, normalized to lower case.
//  Address      – optional postal address used as default delivery address.
//  PhoneNumber  – optional phone in international or local format.
//  Role         – "user" or "admin".
//  CreatedAt    – timestamp of creation.
//  UpdatedAt    – timestamp of last update.
type User struct {
	ID           uint64    `json:"id"`
	Username     string    `json:"username"`
	LastName     string    `json:"last_name"`
	PasswordHash string    `json:"-"`
	Email        string    `json:"email"`
	Address      string    `json:"address"`
	PhoneNumber  string    `json:"phone_number"`
	Role         string    `json:"role"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// RefreshToken models an entry in the `refresh_tokens` table.  The plain
// token is never stored; only its SHA-256 hash.  Rows are removed at
// logout or by expiry cleanup.
type RefreshToken struct {
	TokenHash string    // refresh_tokens.token_hash
	UserID    uint64    // refresh_tokens.user_id
	ExpiresAt time.Time // refresh_tokens.expires_at
	CreatedAt time.Time // refresh_tokens.created_at
}
