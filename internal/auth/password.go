package auth

import (
	"golang.org/x/crypto/bcrypt"

	"git.home.luguber.info/inful/linkbio/internal/foundation/errors"
)

// passwordCost is the bcrypt work factor for new hashes.
const passwordCost = 10

// HashPassword hashes a plaintext password with bcrypt.
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), passwordCost)
	if err != nil {
		return "", errors.WrapError(err, errors.CategoryInternal, "hash password").Build()
	}
	return string(hash), nil
}

// CheckPassword reports whether password matches hash.
func CheckPassword(hash, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}
