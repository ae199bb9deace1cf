package models

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAuditLog_Metadata(t *testing.T) {
	log := &AuditLog{}
	assert.Equal(t, "fallback", log.GetMetadata("category", "fallback"))

	log.SetMetadata("category", "Housing")
	log.SetMetadata("recurring", true)

	assert.Equal(t, JSONBMap{"category": "Housing", "recurring": true}, log.Metadata)
	assert.Equal(t, "Housing", log.GetMetadata("category", ""))
	assert.Equal(t, 0, log.GetMetadata("missing", 0))
}

func TestAuditLog_String(t *testing.T) {
	userID := uuid.New()
	log := &AuditLog{
		UserID:     &userID,
		Action:     AuditActionTransactionDeleted,
		Resource:   AuditResourceTransaction,
		ResourceID: "tx-1",
		IPAddress:  "10.0.0.7",
	}

	str := log.String()
	assert.Contains(t, str, userID.String())
	assert.Contains(t, str, "transaction_deleted")
	assert.Contains(t, str, "transaction/tx-1")
	assert.Contains(t, str, "10.0.0.7")

	assert.Contains(t, (&AuditLog{Action: AuditActionFailedLogin}).String(), "anonymous")
}

func TestJSONBMap_ValueAndScan(t *testing.T) {
	v, err := JSONBMap(nil).Value()
	require.NoError(t, err)
	assert.Nil(t, v)

	v, err = JSONBMap{"attempts": 3}.Value()
	require.NoError(t, err)
	assert.Equal(t, `{"attempts":3}`, v)

	var m JSONBMap
	require.NoError(t, m.Scan([]byte(`{"reason":"lockout"}`)))
	assert.Equal(t, "lockout", m["reason"])

	require.NoError(t, m.Scan(nil))
	assert.Nil(t, m)

	assert.Error(t, m.Scan(42))
}
