package models

import (
	"errors"
	"regexp"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// DefaultMaxFailedLoginAttempts is used when no limit is configured
const DefaultMaxFailedLoginAttempts = 5

var (
	emailRegex = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)
)

type User struct {
	ID                  uuid.UUID      `gorm:"type:uuid;primary_key" json:"id"`
	Email               string         `gorm:"type:varchar(255);uniqueIndex;not null" json:"email"`
	PasswordHash        string         `gorm:"type:varchar(255);not null" json:"-"`
	MFAEnabled          bool           `gorm:"not null;default:false" json:"mfa_enabled"`
	MFASecret           string         `gorm:"type:varchar(255)" json:"-"`
	FailedLoginAttempts int            `gorm:"default:0" json:"-"`
	LockedAt            *time.Time     `gorm:"index" json:"locked_at,omitempty"`
	LastLoginAt         *time.Time     `gorm:"index" json:"last_login_at,omitempty"`
	CreatedAt           time.Time      `gorm:"not null" json:"created_at"`
	UpdatedAt           time.Time      `gorm:"not null" json:"updated_at"`
	DeletedAt           gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`

	Transactions        []Transaction        `gorm:"foreignKey:UserID" json:"-"`
	PasswordResetTokens []PasswordResetToken `gorm:"foreignKey:UserID" json:"-"`
	BlacklistedTokens   []BlacklistedToken   `gorm:"foreignKey:UserID" json:"-"`
	AuditLogs           []AuditLog           `gorm:"foreignKey:UserID" json:"-"`
}

func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}

	// Set timestamps if not already set (for tests)
	now := time.Now()
	if u.CreatedAt.IsZero() {
		u.CreatedAt = now
	}
	if u.UpdatedAt.IsZero() {
		u.UpdatedAt = now
	}

	return u.Validate()
}

func (u *User) BeforeUpdate(tx *gorm.DB) error {
	// Map-based updates only touch specific columns
	if tx.Statement.Dest != nil {
		if _, ok := tx.Statement.Dest.(map[string]interface{}); ok {
			return nil
		}
	}
	return u.Validate()
}

func (u *User) Validate() error {
	if u.Email == "" {
		return errors.New("email is required")
	}
	if !emailRegex.MatchString(u.Email) {
		return errors.New("invalid email format")
	}
	if u.PasswordHash == "" {
		return errors.New("password hash is required")
	}
	if u.MFAEnabled && u.MFASecret == "" {
		return errors.New("mfa secret is required when mfa is enabled")
	}
	return nil
}

// IsLocked reports whether the lockout started at LockedAt is still running.
// A zero duration never expires.
func (u *User) IsLocked(now time.Time, lockout time.Duration) bool {
	if u.LockedAt == nil {
		return false
	}
	if lockout <= 0 {
		return true
	}
	return now.Before(u.LockedAt.Add(lockout))
}

func (u *User) Lock(now time.Time) {
	u.LockedAt = &now
}

func (u *User) Unlock() {
	u.LockedAt = nil
	u.FailedLoginAttempts = 0
}

// IncrementFailedAttempts counts a failed login and locks the account once
// max attempts are reached. It reports whether the account became locked.
func (u *User) IncrementFailedAttempts(now time.Time, max int) bool {
	if max <= 0 {
		max = DefaultMaxFailedLoginAttempts
	}
	u.FailedLoginAttempts++
	if u.FailedLoginAttempts >= max && u.LockedAt == nil {
		u.Lock(now)
		return true
	}
	return false
}

func (u *User) UpdateLastLogin(now time.Time) {
	u.LastLoginAt = &now
}

func (u *User) TableName() string {
	return "users"
}
