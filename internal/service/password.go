package service

import (
	"crypto/subtle"
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

var errPasswordMismatch = errors.New("password mismatch")

// PasswordHasher turns a password into its stored form and checks candidates
// against it.
type PasswordHasher interface {
	Hash(password string) (string, error)
	Compare(stored, candidate string) error
}

// PlaintextPasswords stores passwords as entered. It keeps the persisted
// registry readable by older clients of the same storage layout.
type PlaintextPasswords struct{}

func (PlaintextPasswords) Hash(password string) (string, error) {
	return password, nil
}

func (PlaintextPasswords) Compare(stored, candidate string) error {
	if subtle.ConstantTimeCompare([]byte(stored), []byte(candidate)) != 1 {
		return errPasswordMismatch
	}
	return nil
}

// BcryptPasswords stores bcrypt hashes.
type BcryptPasswords struct {
	Cost int
}

// NewBcryptPasswords clamps cost into bcrypt's accepted range.
func NewBcryptPasswords(cost int) BcryptPasswords {
	if cost <= 0 {
		cost = bcrypt.DefaultCost
	}
	cost = max(bcrypt.MinCost, min(cost, bcrypt.MaxCost))
	return BcryptPasswords{Cost: cost}
}

func (b BcryptPasswords) Hash(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), b.Cost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hash), nil
}

func (b BcryptPasswords) Compare(stored, candidate string) error {
	if err := bcrypt.CompareHashAndPassword([]byte(stored), []byte(candidate)); err != nil {
		return errPasswordMismatch
	}
	return nil
}

// PasswordHasherFor maps the PASSWORD_STORAGE setting to a hasher.
func PasswordHasherFor(mode string, bcryptCost int) (PasswordHasher, error) {
	switch mode {
	case "", "plaintext":
		return PlaintextPasswords{}, nil
	case "bcrypt":
		return NewBcryptPasswords(bcryptCost), nil
	default:
		return nil, fmt.Errorf("unknown password storage %q", mode)
	}
}
