package auth

import (
	"errors"

	"golang.org/x/crypto/bcrypt"
)

var ErrPasswordTooShort = errors.New("password must be at least 8 characters")

const (
	bcryptCost        = 12
	minPasswordLength = 8
)

// Gate is the admin login check: a single bcrypt-hashed password
// configured at startup. Anything beyond this boolean is out of
// scope.
type Gate struct {
	passwordHash string
}

func NewGate(passwordHash string) *Gate {
	return &Gate{passwordHash: passwordHash}
}

// Check reports whether the given password matches the configured
// hash.
func (g *Gate) Check(password string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(g.passwordHash), []byte(password))
	return err == nil
}

// HashPassword hashes an admin password for configuration.
func HashPassword(password string) (string, error) {
	if len(password) < minPasswordLength {
		return "", ErrPasswordTooShort
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	if err != nil {
		return "", err
	}

	return string(hash), nil
}
