package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUser_Validate(t *testing.T) {
	tests := []struct {
		name   string
		user   User
		errMsg string
	}{
		{
			name: "valid user",
			user: User{Email: "ana@example.com", PasswordHash: "hash"},
		},
		{
			name:   "empty email",
			user:   User{PasswordHash: "hash"},
			errMsg: "email is required",
		},
		{
			name:   "invalid email",
			user:   User{Email: "ana.example.com", PasswordHash: "hash"},
			errMsg: "invalid email format",
		},
		{
			name:   "missing hash",
			user:   User{Email: "ana@example.com"},
			errMsg: "password hash is required",
		},
		{
			name:   "mfa without secret",
			user:   User{Email: "ana@example.com", PasswordHash: "hash", MFAEnabled: true},
			errMsg: "mfa secret is required",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.user.Validate()
			if tt.errMsg == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errMsg)
		})
	}
}

func TestUser_Lockout(t *testing.T) {
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	u := &User{}

	for i := 0; i < 4; i++ {
		assert.False(t, u.IncrementFailedAttempts(now, 5))
	}
	assert.False(t, u.IsLocked(now, 15*time.Minute))

	assert.True(t, u.IncrementFailedAttempts(now, 5), "fifth failure locks")
	assert.True(t, u.IsLocked(now.Add(14*time.Minute), 15*time.Minute))
	assert.False(t, u.IsLocked(now.Add(15*time.Minute), 15*time.Minute), "lockout elapses")
	assert.True(t, u.IsLocked(now.Add(24*time.Hour), 0), "zero duration never elapses")

	assert.False(t, u.IncrementFailedAttempts(now, 5), "already locked")

	u.Unlock()
	assert.Nil(t, u.LockedAt)
	assert.Zero(t, u.FailedLoginAttempts)
}

func TestUser_IncrementFailedAttempts_DefaultLimit(t *testing.T) {
	u := &User{FailedLoginAttempts: DefaultMaxFailedLoginAttempts - 1}
	assert.True(t, u.IncrementFailedAttempts(time.Now(), 0))
}
