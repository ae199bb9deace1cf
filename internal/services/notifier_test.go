package services

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"testing"
	"time"

	"finance-tracker/internal/events"
	"finance-tracker/internal/ledger"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"
)

type publishedEvent struct {
	routingKey string
	event      any
}

type fakePublisher struct {
	published []publishedEvent
	err       error
}

func (p *fakePublisher) Publish(_ context.Context, routingKey string, event any) error {
	if p.err != nil {
		return p.err
	}
	p.published = append(p.published, publishedEvent{routingKey: routingKey, event: event})
	return nil
}

type NotifierTestSuite struct {
	suite.Suite
	publisher *fakePublisher
	breaker   CircuitBreakerInterface
	notifier  NotifierInterface
	ctx       context.Context
}

func (s *NotifierTestSuite) SetupTest() {
	s.publisher = &fakePublisher{}
	s.breaker = NewCircuitBreaker(CircuitBreakerConfig{MaxFailures: 2, ResetTimeout: time.Minute, HalfOpenMaxSucc: 1})
	s.notifier = NewEventNotifier(s.publisher, s.breaker, slog.Default())
	s.ctx = context.Background()
}

func TestNotifierSuite(t *testing.T) {
	suite.Run(t, new(NotifierTestSuite))
}

func (s *NotifierTestSuite) TestTransactionCreated() {
	userID := uuid.New()
	tx := ledger.Transaction{ID: uuid.NewString(), Type: ledger.Income, Category: "Salary"}

	s.Require().NoError(s.notifier.TransactionCreated(s.ctx, userID, tx))

	s.Require().Len(s.publisher.published, 1)
	s.Equal(events.RoutingTransactionCreated, s.publisher.published[0].routingKey)
	event, ok := s.publisher.published[0].event.(*events.TransactionEvent)
	s.Require().True(ok)
	s.Equal(userID.String(), event.UserID)
	s.Equal(tx.ID, event.Transaction.ID)
}

func (s *NotifierTestSuite) TestOccurrencesCreated() {
	created := []ledger.Materialized{
		{ParentID: "a", NextDueDate: ledger.NewDate(2024, time.April, 1)},
		{ParentID: "b", NextDueDate: ledger.NewDate(2024, time.April, 8)},
	}

	s.Require().NoError(s.notifier.OccurrencesCreated(s.ctx, created))

	s.Require().Len(s.publisher.published, 2)
	for _, p := range s.publisher.published {
		s.Equal(events.RoutingOccurrenceCreated, p.routingKey)
	}
}

func (s *NotifierTestSuite) TestPasswordResetRequested() {
	expires := time.Now().Add(time.Hour)

	s.Require().NoError(s.notifier.PasswordResetRequested(s.ctx, "user@example.com", "token", expires))

	s.Require().Len(s.publisher.published, 1)
	event, ok := s.publisher.published[0].event.(*events.PasswordResetEvent)
	s.Require().True(ok)
	s.Equal("token", event.Token)
	s.Equal(expires, event.ExpiresAt)
}

func (s *NotifierTestSuite) TestBreakerOpensAfterRepeatedFailures() {
	s.publisher.err = errors.New("connection refused")

	s.Error(s.notifier.TransactionCreated(s.ctx, uuid.New(), ledger.Transaction{}))
	s.Error(s.notifier.TransactionCreated(s.ctx, uuid.New(), ledger.Transaction{}))
	s.True(s.breaker.IsOpen())

	s.publisher.err = nil
	err := s.notifier.TransactionCreated(s.ctx, uuid.New(), ledger.Transaction{})

	s.ErrorIs(err, ErrCircuitBreakerOpen)
	s.Empty(s.publisher.published)
}

func (s *NotifierTestSuite) TestLogNotifier() {
	n := NewLogNotifier(slog.Default(), false)

	s.NoError(n.TransactionCreated(s.ctx, uuid.New(), ledger.Transaction{}))
	s.NoError(n.OccurrencesCreated(s.ctx, []ledger.Materialized{{ParentID: "a"}}))
	s.NoError(n.PasswordResetRequested(s.ctx, "user@example.com", "token", time.Now()))

	exposing := NewLogNotifier(slog.Default(), true)
	s.NoError(exposing.PasswordResetRequested(s.ctx, "user@example.com", "token", time.Now()))
}

type recordingNotifier struct {
	NotifierInterface
	userID  uuid.UUID
	created []ledger.Materialized
	email   string
	token   string
}

func (r *recordingNotifier) TransactionCreated(_ context.Context, userID uuid.UUID, _ ledger.Transaction) error {
	r.userID = userID
	return nil
}

func (r *recordingNotifier) OccurrencesCreated(_ context.Context, created []ledger.Materialized) error {
	r.created = append(r.created, created...)
	return nil
}

func (r *recordingNotifier) PasswordResetRequested(_ context.Context, email, token string, _ time.Time) error {
	r.email, r.token = email, token
	return nil
}

func (s *NotifierTestSuite) delivery(routingKey string, event any) events.Delivery {
	body, err := json.Marshal(event)
	s.Require().NoError(err)
	return events.Delivery{RoutingKey: routingKey, Body: body}
}

func (s *NotifierTestSuite) TestDeliverEvents() {
	target := &recordingNotifier{}
	deliver := DeliverEvents(target)
	userID := uuid.New()

	s.Require().NoError(deliver(s.ctx, s.delivery(events.RoutingTransactionCreated,
		events.NewTransactionEvent(userID.String(), ledger.Transaction{ID: "t1", Type: ledger.Expense}))))
	s.Equal(userID, target.userID)

	due := ledger.NewDate(2024, time.May, 1)
	s.Require().NoError(deliver(s.ctx, s.delivery(events.RoutingOccurrenceCreated,
		events.NewOccurrenceEvent(ledger.Materialized{ParentID: "p1", NextDueDate: due}))))
	s.Require().Len(target.created, 1)
	s.Equal("p1", target.created[0].ParentID)
	s.True(target.created[0].NextDueDate.Equal(due))

	s.Require().NoError(deliver(s.ctx, s.delivery(events.RoutingPasswordReset,
		events.NewPasswordResetEvent("user@example.com", "secret", time.Now()))))
	s.Equal("user@example.com", target.email)
	s.Equal("secret", target.token)
}

func (s *NotifierTestSuite) TestDeliverEventsRejectsBadInput() {
	deliver := DeliverEvents(&recordingNotifier{})

	err := deliver(s.ctx, events.Delivery{RoutingKey: "account.closed", Body: []byte("{}")})
	s.ErrorIs(err, ErrUnknownEvent)

	err = deliver(s.ctx, events.Delivery{RoutingKey: events.RoutingPasswordReset, Body: []byte("not json")})
	s.Error(err)

	err = deliver(s.ctx, s.delivery(events.RoutingTransactionCreated, events.TransactionEvent{UserID: "nope"}))
	s.Error(err)
}
