package services

import (
	"encoding/base64"
	"strings"
	"testing"

	"finance-tracker/internal/validation"

	"github.com/stretchr/testify/suite"
	"golang.org/x/crypto/bcrypt"
)

type PasswordServiceTestSuite struct {
	suite.Suite
	service PasswordServiceInterface
}

func (s *PasswordServiceTestSuite) SetupTest() {
	s.service = NewPasswordService(bcrypt.MinCost)
}

func TestPasswordServiceSuite(t *testing.T) {
	suite.Run(t, new(PasswordServiceTestSuite))
}

func (s *PasswordServiceTestSuite) TestValidatePassword() {
	tests := []struct {
		name     string
		password string
		wantErr  error
	}{
		{"valid", "SecurePass123!", nil},
		{"minimum valid", "Abcdef1!", nil},
		{"empty", "", validation.ErrPasswordEmpty},
		{"too short", "Ab1!", validation.ErrPasswordTooShort},
		{"too long", "Aa1!" + strings.Repeat("x", 70), validation.ErrPasswordTooLong},
		{"missing uppercase", "securepass123!", validation.ErrPasswordNoUppercase},
		{"missing lowercase", "SECUREPASS123!", validation.ErrPasswordNoLowercase},
		{"missing number", "SecurePass!!", validation.ErrPasswordNoNumber},
		{"missing special", "SecurePass123", validation.ErrPasswordNoSpecial},
	}

	for _, tt := range tests {
		s.Run(tt.name, func() {
			err := s.service.ValidatePassword(tt.password)
			if tt.wantErr == nil {
				s.NoError(err)
				return
			}
			s.ErrorIs(err, tt.wantErr)
		})
	}
}

func (s *PasswordServiceTestSuite) TestHashPassword() {
	hash, err := s.service.HashPassword("SecurePass123!")

	s.Require().NoError(err)
	s.NotEqual("SecurePass123!", hash)
	s.True(strings.HasPrefix(hash, "$2"))
	s.True(s.service.ComparePassword("SecurePass123!", hash))
}

func (s *PasswordServiceTestSuite) TestHashPassword_RejectsPolicyViolations() {
	_, err := s.service.HashPassword("weak")
	s.ErrorIs(err, validation.ErrPasswordTooShort)
}

func (s *PasswordServiceTestSuite) TestHashPassword_Salted() {
	first, err := s.service.HashPassword("SecurePass123!")
	s.Require().NoError(err)
	second, err := s.service.HashPassword("SecurePass123!")
	s.Require().NoError(err)

	s.NotEqual(first, second)
}

func (s *PasswordServiceTestSuite) TestComparePassword() {
	hash, err := s.service.HashPassword("SecurePass123!")
	s.Require().NoError(err)

	s.False(s.service.ComparePassword("securepass123!", hash))
	s.False(s.service.ComparePassword("", hash))
	s.False(s.service.ComparePassword("SecurePass123!", "not-a-hash"))
	s.False(s.service.ComparePassword("SecurePass123!", ""))
}

func (s *PasswordServiceTestSuite) TestNewPasswordService_OutOfRangeCost() {
	svc := NewPasswordService(100).(*PasswordService)
	s.Equal(DefaultBCryptCost, svc.cost)
}

func (s *PasswordServiceTestSuite) TestGenerateResetToken() {
	first, err := s.service.GenerateResetToken()
	s.Require().NoError(err)
	second, err := s.service.GenerateResetToken()
	s.Require().NoError(err)

	s.NotEqual(first, second)

	raw, err := base64.RawURLEncoding.DecodeString(first)
	s.Require().NoError(err)
	s.Len(raw, 32)
}

func (s *PasswordServiceTestSuite) TestPasswordStrength() {
	s.Zero(s.service.PasswordStrength(""))
	s.Less(s.service.PasswordStrength("aaaa"), 60)
	s.GreaterOrEqual(s.service.PasswordStrength("Abcdef1!"), 60)
	s.LessOrEqual(s.service.PasswordStrength("Xk9#mQ2$vL7!pR4&wZ8*"), 100)
	s.Greater(s.service.PasswordStrength("Xk9#mQ2$vL7!pR4&wZ8*"), s.service.PasswordStrength("Abcdef1!"))
}
