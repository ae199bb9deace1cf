package validation

import (
	"errors"
	"fmt"
	"regexp"
)

const (
	MinPasswordLength = 8
	MaxPasswordLength = 72 // bcrypt limit
)

var (
	ErrPasswordEmpty       = errors.New("password cannot be empty")
	ErrPasswordTooShort    = fmt.Errorf("password must be at least %d characters", MinPasswordLength)
	ErrPasswordTooLong     = fmt.Errorf("password must not exceed %d characters", MaxPasswordLength)
	ErrPasswordNoUppercase = errors.New("password must contain at least one uppercase letter")
	ErrPasswordNoLowercase = errors.New("password must contain at least one lowercase letter")
	ErrPasswordNoNumber    = errors.New("password must contain at least one number")
	ErrPasswordNoSpecial   = errors.New("password must contain at least one special character")

	uppercaseRegex = regexp.MustCompile(`[A-Z]`)
	lowercaseRegex = regexp.MustCompile(`[a-z]`)
	numberRegex    = regexp.MustCompile(`[0-9]`)
	specialRegex   = regexp.MustCompile(`[!@#$%^&*()_+\-=\[\]{}|;:,.<>?]`)
)

// ValidatePassword checks the password policy. The same rules run in the
// command line client before a request is sent and in the API.
func ValidatePassword(password string) error {
	switch {
	case password == "":
		return ErrPasswordEmpty
	case len(password) < MinPasswordLength:
		return ErrPasswordTooShort
	case len(password) > MaxPasswordLength:
		return ErrPasswordTooLong
	case !uppercaseRegex.MatchString(password):
		return ErrPasswordNoUppercase
	case !lowercaseRegex.MatchString(password):
		return ErrPasswordNoLowercase
	case !numberRegex.MatchString(password):
		return ErrPasswordNoNumber
	case !specialRegex.MatchString(password):
		return ErrPasswordNoSpecial
	}
	return nil
}
