package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"finance-tracker/internal/config"

	"github.com/rabbitmq/amqp091-go"
)

const publishTimeout = 5 * time.Second

var ErrChannelClosed = errors.New("message channel closed")

// Broker publishes and consumes JSON events on a durable direct exchange
type Broker struct {
	conn         *amqp091.Connection
	channel      *amqp091.Channel
	exchangeName string
	queueName    string
}

func NewBroker(cfg config.EventsConfig) (*Broker, error) {
	conn, err := amqp091.Dial(cfg.AMQPURL)
	if err != nil {
		return nil, fmt.Errorf("dial AMQP: %w", err)
	}

	channel, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}

	b := &Broker{
		conn:         conn,
		channel:      channel,
		exchangeName: cfg.Exchange,
		queueName:    cfg.Queue,
	}

	if err := b.setup(); err != nil {
		b.Close()
		return nil, fmt.Errorf("setup exchange and queue: %w", err)
	}

	return b, nil
}

func (b *Broker) setup() error {
	err := b.channel.ExchangeDeclare(
		b.exchangeName, // name
		"direct",       // type
		true,           // durable
		false,          // auto-deleted
		false,          // internal
		false,          // no-wait
		nil,            // arguments
	)
	if err != nil {
		return fmt.Errorf("declare exchange: %w", err)
	}

	_, err = b.channel.QueueDeclare(
		b.queueName, // name
		true,        // durable
		false,       // delete when unused
		false,       // exclusive
		false,       // no-wait
		nil,         // arguments
	)
	if err != nil {
		return fmt.Errorf("declare queue: %w", err)
	}

	for _, key := range RoutingKeys {
		if err := b.channel.QueueBind(b.queueName, key, b.exchangeName, false, nil); err != nil {
			return fmt.Errorf("bind queue to %s: %w", key, err)
		}
	}

	return nil
}

// Publish sends event as a persistent JSON message
func (b *Broker) Publish(ctx context.Context, routingKey string, event any) error {
	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal message: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, publishTimeout)
	defer cancel()

	err = b.channel.PublishWithContext(
		ctx,
		b.exchangeName, // exchange
		routingKey,     // routing key
		false,          // mandatory
		false,          // immediate
		amqp091.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp091.Persistent,
			Timestamp:    time.Now(),
			Body:         body,
		},
	)
	if err != nil {
		return fmt.Errorf("publish message: %w", err)
	}

	slog.DebugContext(ctx, "Published event",
		"routing_key", routingKey,
		"exchange", b.exchangeName)

	return nil
}

// Consume hands every message to handler until ctx is cancelled. Messages
// the handler fails on are requeued once; redelivered failures are dropped.
func (b *Broker) Consume(ctx context.Context, handler func(context.Context, Delivery) error) error {
	msgs, err := b.channel.Consume(
		b.queueName, // queue
		"",          // consumer
		false,       // auto-ack
		false,       // exclusive
		false,       // no-local
		false,       // no-wait
		nil,         // args
	)
	if err != nil {
		return fmt.Errorf("start consuming: %w", err)
	}

	slog.InfoContext(ctx, "Started consuming events", "queue", b.queueName)

	for {
		select {
		case <-ctx.Done():
			slog.InfoContext(ctx, "Stopping event consumption", "reason", ctx.Err())
			return nil
		case msg, ok := <-msgs:
			if !ok {
				return ErrChannelClosed
			}

			if err := handler(ctx, Delivery{RoutingKey: msg.RoutingKey, Body: msg.Body}); err != nil {
				slog.ErrorContext(ctx, "Failed to handle event",
					"routing_key", msg.RoutingKey,
					"redelivered", msg.Redelivered,
					"error", err)
				msg.Nack(false, !msg.Redelivered)
				continue
			}

			msg.Ack(false)
		}
	}
}

// Healthy reports whether the broker connection is still open
func (b *Broker) Healthy(ctx context.Context) error {
	if b.conn == nil || b.conn.IsClosed() {
		return ErrChannelClosed
	}
	return nil
}

func (b *Broker) Close() error {
	if b.channel != nil {
		b.channel.Close()
	}
	if b.conn != nil {
		return b.conn.Close()
	}
	return nil
}
