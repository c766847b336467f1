package auth

import (
	"regexp"

	"golang.org/x/crypto/bcrypt"
)

const MinPasswordLen = 8

var emailPattern = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)

func ValidEmail(s string) bool {
	return emailPattern.MatchString(s)
}

func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

func CheckPassword(hash, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

// ValidatePassword enforces the minimum length and the confirmation
// field used by the registration and reset forms.
func ValidatePassword(password, confirm string) error {
	if len(password) < MinPasswordLen {
		return &Error{Kind: KindValidation, Message: "password must be at least 8 characters"}
	}
	if password != confirm {
		return &Error{Kind: KindValidation, Message: "passwords do not match"}
	}
	return nil
}
