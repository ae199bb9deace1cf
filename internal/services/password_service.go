package services

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"

	"finance-tracker/internal/validation"

	"golang.org/x/crypto/bcrypt"
)

const (
	DefaultBCryptCost = 12

	resetTokenBytes = 32
)

// PasswordService handles password hashing and validation
type PasswordService struct {
	cost int
}

// NewPasswordService creates a password service hashing with the given bcrypt
// cost. Costs outside bcrypt's range fall back to DefaultBCryptCost.
func NewPasswordService(cost int) PasswordServiceInterface {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = DefaultBCryptCost
	}
	return &PasswordService{cost: cost}
}

func (ps *PasswordService) ValidatePassword(password string) error {
	return validation.ValidatePassword(password)
}

// HashPassword validates and hashes a password using bcrypt
func (ps *PasswordService) HashPassword(password string) (string, error) {
	if err := ps.ValidatePassword(password); err != nil {
		return "", fmt.Errorf("password validation failed: %w", err)
	}

	hashedBytes, err := bcrypt.GenerateFromPassword([]byte(password), ps.cost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}

	return string(hashedBytes), nil
}

func (ps *PasswordService) ComparePassword(password, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

// GenerateResetToken returns a random URL-safe token for password reset links
func (ps *PasswordService) GenerateResetToken() (string, error) {
	buf := make([]byte, resetTokenBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to generate reset token: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}

// PasswordStrength returns a score from 0-100. A password meeting the policy
// scores at least 60.
func (ps *PasswordService) PasswordStrength(password string) int {
	if password == "" {
		return 0
	}

	score := lengthScore(len(password)) + diversityScore(password) + uniquenessBonus(password)

	if ps.ValidatePassword(password) == nil && score < 60 {
		score = 60
	}
	if score > 100 {
		score = 100
	}
	return score
}

func lengthScore(length int) int {
	score := 0
	for _, step := range []int{8, 12, 16, 20} {
		if length >= step {
			score += 10
		}
	}
	return score
}

func diversityScore(password string) int {
	score := 0
	var upper, lower, digit, special bool
	for _, r := range password {
		switch {
		case r >= 'A' && r <= 'Z':
			upper = true
		case r >= 'a' && r <= 'z':
			lower = true
		case r >= '0' && r <= '9':
			digit = true
		default:
			special = true
		}
	}
	for _, has := range []bool{upper, lower, digit, special} {
		if has {
			score += 15
		}
	}
	return score
}

func uniquenessBonus(password string) int {
	unique := make(map[rune]struct{})
	for _, r := range password {
		unique[r] = struct{}{}
	}

	switch {
	case len(unique) > len(password)*3/4:
		return 10
	case len(unique) > len(password)/2:
		return 5
	default:
		return 0
	}
}
