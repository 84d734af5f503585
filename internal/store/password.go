package store

import (
	"golang.org/x/crypto/bcrypt"
)

// bcrypt rejects longer inputs, both sides cut to the same prefix
const maxHashedPasswordBytes = 72

func truncatePassword(pw string) []byte {
	b := []byte(pw)
	if len(b) > maxHashedPasswordBytes {
		b = b[:maxHashedPasswordBytes]
	}

	return b
}

func HashPassword(pw string) (string, error) {
	b, err := bcrypt.GenerateFromPassword(truncatePassword(pw), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}

	return string(b), nil
}

// CheckPassword reports whether pw matches a hash made by HashPassword
func CheckPassword(hash, pw string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), truncatePassword(pw)) == nil
}
