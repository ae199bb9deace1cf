package database

import (
	"context"
	"testing"
	"time"

	"finance-tracker/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCleanupExpiredTokens(t *testing.T) {
	db := SetupTestDB(t)
	defer CleanupTestDB(t, db)

	user := CreateTestUser(t, db, "cleanup@example.com")
	now := time.Now()

	require.NoError(t, db.Create(&models.PasswordResetToken{UserID: user.ID, TokenHash: models.HashResetToken("old"), ExpiresAt: now.Add(-time.Hour)}).Error)
	require.NoError(t, db.Create(&models.PasswordResetToken{UserID: user.ID, TokenHash: models.HashResetToken("new"), ExpiresAt: now.Add(time.Hour)}).Error)
	require.NoError(t, db.Create(&models.BlacklistedToken{UserID: user.ID, JTI: "gone", ExpiresAt: now.Add(-time.Minute)}).Error)
	require.NoError(t, db.Create(&models.BlacklistedToken{UserID: user.ID, JTI: "live", ExpiresAt: now.Add(time.Minute)}).Error)

	removed, err := db.CleanupExpiredTokens(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(2), removed)

	var resets, blacklisted int64
	db.Model(&models.PasswordResetToken{}).Count(&resets)
	db.Model(&models.BlacklistedToken{}).Count(&blacklisted)
	assert.Equal(t, int64(1), resets)
	assert.Equal(t, int64(1), blacklisted)
}

func TestHealthCheck(t *testing.T) {
	db := SetupTestDB(t)
	assert.NoError(t, db.HealthCheck(context.Background()))
	require.NoError(t, db.Close())
	assert.Error(t, db.HealthCheck(context.Background()))
}
