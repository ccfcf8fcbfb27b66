// Package validation provides input validation utilities
package validation

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"
)

// PasswordSymbols is the fixed set of symbols a password may (and must) use.
const PasswordSymbols = "!@#$%^&*"

const (
	PasswordMinLength = 6
	PasswordMaxLength = 26
)

var (
	passwordCharset = regexp.MustCompile(`^[0-9a-zA-Z!@#$%^&*]+$`)
	usernameRegex   = regexp.MustCompile(`^[a-zA-Z0-9_-]+$`)
	emailRegex      = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)
)

// ValidatePassword checks the password policy: 6 to 26 latin letters, digits
// and symbols from PasswordSymbols, with at least one lowercase letter, one
// uppercase letter, one digit and one symbol.
func ValidatePassword(password string) error {
	if len(password) < PasswordMinLength || len(password) > PasswordMaxLength {
		return fmt.Errorf("password must be between %d and %d characters long", PasswordMinLength, PasswordMaxLength)
	}
	if !passwordCharset.MatchString(password) {
		return fmt.Errorf("password may only contain latin letters, digits and symbols from %s", PasswordSymbols)
	}

	var hasLower, hasUpper, hasDigit, hasSymbol bool
	for _, r := range password {
		switch {
		case r >= 'a' && r <= 'z':
			hasLower = true
		case r >= 'A' && r <= 'Z':
			hasUpper = true
		case r >= '0' && r <= '9':
			hasDigit = true
		case strings.ContainsRune(PasswordSymbols, r):
			hasSymbol = true
		}
	}

	switch {
	case !hasLower:
		return fmt.Errorf("password must contain at least one lowercase letter")
	case !hasUpper:
		return fmt.Errorf("password must contain at least one uppercase letter")
	case !hasDigit:
		return fmt.Errorf("password must contain at least one digit")
	case !hasSymbol:
		return fmt.Errorf("password must contain at least one symbol from %s", PasswordSymbols)
	}
	return nil
}

// ValidateUsername checks if a username meets requirements
func ValidateUsername(username string) error {
	if len(username) < 3 {
		return fmt.Errorf("username must be at least 3 characters long")
	}
	if len(username) > 50 {
		return fmt.Errorf("username must not exceed 50 characters")
	}
	if !usernameRegex.MatchString(username) {
		return fmt.Errorf("username can only contain letters, numbers, underscores, and hyphens")
	}

	first, last := username[0], username[len(username)-1]
	if first == '_' || first == '-' || last == '_' || last == '-' {
		return fmt.Errorf("username cannot start or end with underscore or hyphen")
	}
	return nil
}

// ValidateEmail checks basic email format
func ValidateEmail(email string) error {
	if utf8.RuneCountInString(email) > 254 {
		return fmt.Errorf("email must not exceed 254 characters")
	}
	if !emailRegex.MatchString(email) {
		return fmt.Errorf("invalid email format")
	}
	return nil
}
