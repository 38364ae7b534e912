package auth

import (
	"errors"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

var (
	ErrNoEmptyString             = errors.New("password must not be empty")
	ErrMismatchedHashAndPassword = errors.New("password does not match hash")
)

// HashPassword will generate a password hash
func HashPassword(password string) (string, error) {
	if password == "" {
		return "", ErrNoEmptyString
	}

	h, err := bcrypt.GenerateFromPassword([]byte(password), passwordHashCost())
	return string(h), err
}

// ComparePasswordAndHash will validate the given cleartext
// password matches the hashed password
func ComparePasswordAndHash(password, hash string) error {
	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)); err != nil {
		if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			return ErrMismatchedHashAndPassword
		}
		return err
	}
	return nil
}

// RandomPasswordHash hashes a random secret, for accounts that must not be
// able to log in with a password.
func RandomPasswordHash() (string, error) {
	return HashPassword(uuid.NewString())
}

// BcryptEncoder is the PasswordEncoder used by the profile service.
type BcryptEncoder struct{}

var _ PasswordEncoder = BcryptEncoder{}

func (BcryptEncoder) Encode(raw string) (string, error) {
	return HashPassword(raw)
}

// Matches never errors: malformed hashes simply do not match.
func (BcryptEncoder) Matches(raw, hash string) bool {
	if raw == "" || hash == "" {
		return false
	}
	return ComparePasswordAndHash(raw, hash) == nil
}
