package events

import (
	"encoding/json"
	"time"

	"finance-tracker/internal/ledger"
)

// Routing keys. The notifications queue is bound to each of them.
const (
	RoutingTransactionCreated = "transaction.created"
	RoutingOccurrenceCreated  = "transaction.occurrence_created"
	RoutingPasswordReset      = "auth.password_reset"
)

var RoutingKeys = []string{RoutingTransactionCreated, RoutingOccurrenceCreated, RoutingPasswordReset}

// TransactionEvent announces a stored transaction
type TransactionEvent struct {
	UserID      string             `json:"userId"`
	Transaction ledger.Transaction `json:"transaction"`
	Timestamp   time.Time          `json:"timestamp"`
}

func NewTransactionEvent(userID string, tx ledger.Transaction) *TransactionEvent {
	return &TransactionEvent{
		UserID:      userID,
		Transaction: tx,
		Timestamp:   time.Now().UTC(),
	}
}

// OccurrenceEvent announces an occurrence materialized by the recurrence worker
type OccurrenceEvent struct {
	ParentID    string             `json:"parentId"`
	Occurrence  ledger.Transaction `json:"occurrence"`
	NextDueDate ledger.Date        `json:"nextDueDate"`
	Timestamp   time.Time          `json:"timestamp"`
}

func NewOccurrenceEvent(m ledger.Materialized) *OccurrenceEvent {
	return &OccurrenceEvent{
		ParentID:    m.ParentID,
		Occurrence:  m.Occurrence,
		NextDueDate: m.NextDueDate,
		Timestamp:   time.Now().UTC(),
	}
}

// PasswordResetEvent carries a reset token to the mail delivery consumer.
// It is the only place the plain token exists after the request returns.
type PasswordResetEvent struct {
	Email     string    `json:"email"`
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expiresAt"`
	Timestamp time.Time `json:"timestamp"`
}

func NewPasswordResetEvent(email, token string, expiresAt time.Time) *PasswordResetEvent {
	return &PasswordResetEvent{
		Email:     email,
		Token:     token,
		ExpiresAt: expiresAt,
		Timestamp: time.Now().UTC(),
	}
}

// Delivery is a consumed message
type Delivery struct {
	RoutingKey string
	Body       []byte
}

// Decode unmarshals the body into v
func (d Delivery) Decode(v any) error {
	return json.Unmarshal(d.Body, v)
}
