package service

import (
	"errors"
	"fmt"
	"sync"

	"accounts-be/internal/apierror"

	"golang.org/x/crypto/bcrypt"
)

const minPasswordLength = 8

// passwordCost is lowered by tests.
var passwordCost = bcrypt.DefaultCost

func hashPassword(password string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), passwordCost)
	if errors.Is(err, bcrypt.ErrPasswordTooLong) {
		return "", apierror.BadRequest("Password must be at most 72 bytes long")
	}
	if err != nil {
		return "", apierror.Internal("", fmt.Errorf("failed to hash password: %w", err))
	}
	return string(hashed), nil
}

// checkPassword reports whether password matches hash.
func checkPassword(hash, password string) (bool, error) {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to compare password: %w", err)
	}
	return true, nil
}

var (
	dummyHashOnce sync.Once
	dummyHash     string
)

// burnPasswordCheck spends the same bcrypt work as a real comparison so that
// unknown emails and wrong passwords take similar time.
func burnPasswordCheck(password string) {
	dummyHashOnce.Do(func() {
		h, _ := bcrypt.GenerateFromPassword([]byte("not-a-real-password"), passwordCost)
		dummyHash = string(h)
	})
	_, _ = checkPassword(dummyHash, password)
}

// ValidatePassword returns one message per violated rule, or nil.
func ValidatePassword(password string) []string {
	var violations []string

	if len([]rune(password)) < minPasswordLength {
		violations = append(violations, fmt.Sprintf("Password must be at least %d characters long", minPasswordLength))
	}

	var hasDigit, hasUpper, hasLower bool
	for _, r := range password {
		switch {
		case r >= '0' && r <= '9':
			hasDigit = true
		case r >= 'A' && r <= 'Z':
			hasUpper = true
		case r >= 'a' && r <= 'z':
			hasLower = true
		}
	}
	if !hasDigit {
		violations = append(violations, "Password must contain a number")
	}
	if !hasUpper {
		violations = append(violations, "Password must contain an uppercase letter")
	}
	if !hasLower {
		violations = append(violations, "Password must contain a lowercase letter")
	}

	return violations
}
