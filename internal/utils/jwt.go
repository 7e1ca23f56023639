package utils // package utils provides helper functions for token creation and hashing

import (
	"crypto/sha256" // SHA-256 hashing for refresh tokens
	"encoding/hex"  // hex encoding of digests
	"errors"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5" // JWT library for creating signed tokens
)

// Claims carries the identity embedded in both access and refresh tokens.
// UserID maps to the standard "sub" claim; email and role travel as
// custom claims so that middleware can authorize without a user lookup.
type Claims struct {
	UserID uint64
	Email  string
	Role   string
}

// SignedToken represents a signed HS256 JWT along with its expiry.
type SignedToken struct {
	Token string    // the serialized JWT string
	Exp   time.Time // the UTC expiration time
}

// ErrInvalidToken is returned by ParseToken for any token whose signature,
// expiry or claim set does not verify.
var ErrInvalidToken = errors.New("invalid token")

// NewAccessToken builds and signs a short-lived HS256 JWT for a user.
func NewAccessToken(secret string, cl Claims, ttlMin int) (SignedToken, error) {
	return signToken(secret, cl, time.Duration(ttlMin)*time.Minute)
}

// NewRefreshToken builds and signs a long-lived HS256 JWT.  The raw token
// goes back to the client; only its SHA-256 hash is persisted, so a
// leaked token table cannot be replayed.
func NewRefreshToken(secret string, cl Claims, ttlDays int) (SignedToken, error) {
	return signToken(secret, cl, time.Duration(ttlDays)*24*time.Hour)
}

func signToken(secret string, cl Claims, ttl time.Duration) (SignedToken, error) {
	exp := time.Now().UTC().Add(ttl)
	claims := jwt.MapClaims{
		"sub":   cl.UserID,
		"email": cl.Email,
		"role":  cl.Role,
		"exp":   exp.Unix(),
		"iat":   time.Now().UTC().Unix(),
	}
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := t.SignedString([]byte(secret))
	if err != nil {
		return SignedToken{}, err
	}
	return SignedToken{Token: signed, Exp: exp}, nil
}

// ParseToken verifies the signature and expiry of raw and returns its
// claims.  Only HMAC-signed tokens are accepted; anything else fails with
// ErrInvalidToken.
func ParseToken(secret, raw string) (Claims, error) {
	tok, err := jwt.Parse(raw, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return []byte(secret), nil
	})
	if err != nil || !tok.Valid {
		return Claims{}, ErrInvalidToken
	}
	mc, ok := tok.Claims.(jwt.MapClaims)
	if !ok {
		return Claims{}, ErrInvalidToken
	}
	var cl Claims
	switch sub := mc["sub"].(type) {
	case float64:
		cl.UserID = uint64(sub)
	case string:
		// some encoders emit numeric strings for sub
		if n, err := strconv.ParseUint(sub, 10, 64); err == nil {
			cl.UserID = n
		}
	}
	if cl.UserID == 0 {
		return Claims{}, ErrInvalidToken
	}
	cl.Email, _ = mc["email"].(string)
	cl.Role, _ = mc["role"].(string)
	return cl, nil
}

// HashRefreshRaw returns the SHA-256 hash of the raw refresh token as a
// hex string.  Storing only the hash in the database prevents attackers
// from using stolen database entries to refresh sessions.
func HashRefreshRaw(raw string) string {
	sum := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(sum[:])
}
