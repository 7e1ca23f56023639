package utils

import "golang.org/x/crypto/bcrypt"

// HashPassword bcrypt-hashes an account password.  The cost comes from
// BCRYPT_COST; bumping it invalidates nothing since each stored hash
// records the cost it was created with.
func HashPassword(plain string, cost int) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(plain), cost)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// VerifyPassword reports whether plain matches the stored bcrypt hash.
// The comparison is constant-time inside bcrypt.
func VerifyPassword(hash, plain string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plain)) == nil
}
