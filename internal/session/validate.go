package session

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/Vixs101/Framez/internal/apperr"
)

const (
	minPasswordLen = 6
	minFullNameLen = 2
)

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func validateEmail(email string) error {
	if email == "" {
		return apperr.Validation("email", "Email is required")
	}
	if !emailPattern.MatchString(email) {
		return apperr.Validation("email", "Email is invalid")
	}
	return nil
}

func validatePassword(password string) error {
	if password == "" {
		return apperr.Validation("password", "Password is required")
	}
	if utf8.RuneCountInString(password) < minPasswordLen {
		return apperr.Validation("password", "Password must be at least 6 characters")
	}
	return nil
}

// validateSignIn expects an already normalized email.
func validateSignIn(email, password string) error {
	if err := validateEmail(email); err != nil {
		return err
	}
	return validatePassword(password)
}

func validateSignUp(email, password, confirmPassword, fullName string) error {
	if fullName == "" {
		return apperr.Validation("full_name", "Full name is required")
	}
	if utf8.RuneCountInString(fullName) < minFullNameLen {
		return apperr.Validation("full_name", "Name must be at least 2 characters")
	}
	if err := validateSignIn(email, password); err != nil {
		return err
	}
	if confirmPassword == "" {
		return apperr.Validation("confirm_password", "Please confirm your password")
	}
	if password != confirmPassword {
		return apperr.Validation("confirm_password", "Passwords do not match")
	}
	return nil
}
