// password.go holds the bcrypt helpers for registry account credentials.
// Hashes live on the users row; the plaintext never goes past this boundary.
package utils

import "golang.org/x/crypto/bcrypt"

// HashPassword derives a bcrypt hash for a new or updated account password.
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// CheckPasswordHash reports whether a login attempt matches the stored hash.
func CheckPasswordHash(password, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}
