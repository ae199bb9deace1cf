package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"finance-tracker/internal/events"
	"finance-tracker/internal/ledger"

	"github.com/google/uuid"
)

// ErrUnknownEvent is returned for deliveries with an unrecognised routing key
var ErrUnknownEvent = errors.New("unknown event")

// EventPublisher is satisfied by *events.Broker
type EventPublisher interface {
	Publish(ctx context.Context, routingKey string, event any) error
}

// LogNotifier is used when no message broker is configured. Reset tokens are
// only written to the log when exposeTokens is set, which is meant for
// development.
type LogNotifier struct {
	logger       *slog.Logger
	exposeTokens bool
}

func NewLogNotifier(logger *slog.Logger, exposeTokens bool) NotifierInterface {
	return &LogNotifier{logger: logger, exposeTokens: exposeTokens}
}

func (n *LogNotifier) TransactionCreated(ctx context.Context, userID uuid.UUID, tx ledger.Transaction) error {
	n.logger.DebugContext(ctx, "transaction created",
		"user_id", userID,
		"transaction_id", tx.ID,
		"type", tx.Type)
	return nil
}

func (n *LogNotifier) OccurrencesCreated(ctx context.Context, created []ledger.Materialized) error {
	for _, m := range created {
		n.logger.InfoContext(ctx, "recurring occurrence created",
			"parent_id", m.ParentID,
			"occurrence_id", m.Occurrence.ID,
			"next_due_date", m.NextDueDate.String())
	}
	return nil
}

func (n *LogNotifier) PasswordResetRequested(ctx context.Context, email, token string, expiresAt time.Time) error {
	if !n.exposeTokens {
		n.logger.WarnContext(ctx, "password reset token issued but no delivery channel is configured",
			"email", email)
		return nil
	}
	n.logger.InfoContext(ctx, "password reset token issued",
		"email", email,
		"token", token,
		"expires_at", expiresAt)
	return nil
}

// EventNotifier publishes notifications to the message broker. Once the
// broker keeps failing the breaker opens and notifications are dropped
// without waiting on the broker.
type EventNotifier struct {
	publisher EventPublisher
	breaker   CircuitBreakerInterface
	logger    *slog.Logger
}

func NewEventNotifier(publisher EventPublisher, breaker CircuitBreakerInterface, logger *slog.Logger) NotifierInterface {
	return &EventNotifier{
		publisher: publisher,
		breaker:   breaker,
		logger:    logger,
	}
}

func (n *EventNotifier) TransactionCreated(ctx context.Context, userID uuid.UUID, tx ledger.Transaction) error {
	return n.publish(ctx, events.RoutingTransactionCreated, events.NewTransactionEvent(userID.String(), tx))
}

func (n *EventNotifier) OccurrencesCreated(ctx context.Context, created []ledger.Materialized) error {
	var errs []error
	for _, m := range created {
		if err := n.publish(ctx, events.RoutingOccurrenceCreated, events.NewOccurrenceEvent(m)); err != nil {
			errs = append(errs, fmt.Errorf("occurrence of %s: %w", m.ParentID, err))
		}
	}
	return errors.Join(errs...)
}

func (n *EventNotifier) PasswordResetRequested(ctx context.Context, email, token string, expiresAt time.Time) error {
	return n.publish(ctx, events.RoutingPasswordReset, events.NewPasswordResetEvent(email, token, expiresAt))
}

func (n *EventNotifier) publish(ctx context.Context, routingKey string, event any) error {
	if n.breaker.IsOpen() {
		return ErrCircuitBreakerOpen
	}

	if err := n.publisher.Publish(ctx, routingKey, event); err != nil {
		before := n.breaker.GetState()
		n.breaker.RecordFailure()
		if after := n.breaker.GetState(); after != before {
			n.logger.WarnContext(ctx, "event publishing circuit state changed",
				"from", before.String(),
				"to", after.String())
		}
		return err
	}

	n.breaker.RecordSuccess()
	return nil
}

// DeliverEvents returns a consumer handler that replays broker events on
// target, which does the actual delivery.
func DeliverEvents(target NotifierInterface) func(context.Context, events.Delivery) error {
	return func(ctx context.Context, d events.Delivery) error {
		switch d.RoutingKey {
		case events.RoutingTransactionCreated:
			var ev events.TransactionEvent
			if err := d.Decode(&ev); err != nil {
				return fmt.Errorf("decode %s: %w", d.RoutingKey, err)
			}
			userID, err := uuid.Parse(ev.UserID)
			if err != nil {
				return fmt.Errorf("decode %s: %w", d.RoutingKey, err)
			}
			return target.TransactionCreated(ctx, userID, ev.Transaction)

		case events.RoutingOccurrenceCreated:
			var ev events.OccurrenceEvent
			if err := d.Decode(&ev); err != nil {
				return fmt.Errorf("decode %s: %w", d.RoutingKey, err)
			}
			return target.OccurrencesCreated(ctx, []ledger.Materialized{{
				ParentID:    ev.ParentID,
				Occurrence:  ev.Occurrence,
				NextDueDate: ev.NextDueDate,
			}})

		case events.RoutingPasswordReset:
			var ev events.PasswordResetEvent
			if err := d.Decode(&ev); err != nil {
				return fmt.Errorf("decode %s: %w", d.RoutingKey, err)
			}
			return target.PasswordResetRequested(ctx, ev.Email, ev.Token, ev.ExpiresAt)
		}

		return fmt.Errorf("%w: %s", ErrUnknownEvent, d.RoutingKey)
	}
}
