package auth

import (
	"strings"

	"github.com/google/uuid"
)

// GenerateSessionToken returns an opaque token for a new session.
func GenerateSessionToken() (string, error) {
	id, err := uuid.NewRandom()
	if err != nil {
		return "", err
	}
	return id.String(), nil
}

// GenerateResetToken returns an opaque token for a password reset ticket.
func GenerateResetToken() (string, error) {
	id, err := uuid.NewRandom()
	if err != nil {
		return "", err
	}
	return id.String(), nil
}

// NormalizeAnswer canonicalizes a security answer for storage and comparison:
// surrounding whitespace is stripped and the answer is lower-cased, so
// "Paris", " paris " and "PARIS" all normalize to "paris".
func NormalizeAnswer(answer string) string {
	return strings.ToLower(strings.TrimSpace(answer))
}
