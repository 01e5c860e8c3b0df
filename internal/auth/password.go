package auth

import (
	"golang.org/x/crypto/bcrypt"
)

// DefaultCost is the bcrypt work factor used for stored credentials.
const DefaultCost = 12

// dummyHash is a valid bcrypt hash of a random string. VerifyDummy compares
// against it when no account matches the supplied email, so lookup misses
// take about as long as a real password check.
const dummyHash = "$2a$10$7EqJtq98hPqEX7fNZaFWoOHi6VbU5h6K9v8u5rO0m3j0h6dX5r8e"

// HashPassword creates a bcrypt hash from the given plaintext password.
// Cost values outside bcrypt's supported range fall back to DefaultCost.
func HashPassword(password string, cost int) (string, error) {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = DefaultCost
	}
	hashedBytes, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if err != nil {
		return "", err
	}
	return string(hashedBytes), nil
}

// VerifyPassword checks if the provided plaintext password matches the stored bcrypt hash.
func VerifyPassword(hashedPassword, providedPassword string) error {
	return bcrypt.CompareHashAndPassword([]byte(hashedPassword), []byte(providedPassword))
}

// VerifyDummy burns a bcrypt comparison without revealing anything.
func VerifyDummy(providedPassword string) {
	_ = bcrypt.CompareHashAndPassword([]byte(dummyHash), []byte(providedPassword))
}
