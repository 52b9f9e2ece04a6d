package hash

import (
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

const (
	// Cost matches the work factor existing password rows were created with.
	Cost = 10
	// MaxPasswordBytes is the longest input bcrypt accepts.
	MaxPasswordBytes = 72
)

func HashPassword(password string) (string, error) {
	hashbytes, err := bcrypt.GenerateFromPassword([]byte(password), Cost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}

	return string(hashbytes), nil
}

// CheckPassword reports whether password matches hash. The comparison runs
// in constant time with respect to the hash contents.
func CheckPassword(hash, password string) bool {
	if hash == "" {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}
