// Package events publishes reconciliation events to AMQP for out-of-band
// monitoring. The engine treats the broker as optional: a nil publisher is
// valid everywhere, and publish failures are the caller's to log, never to
// propagate.
package events

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/rabbitmq/amqp091-go"
)

type Publisher struct {
	conn         *amqp091.Connection
	channel      *amqp091.Channel
	exchangeName string
}

// NewPublisher connects to the broker and declares a durable topic exchange.
func NewPublisher(url, exchangeName string) (*Publisher, error) {
	conn, err := amqp091.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("dial AMQP: %w", err)
	}

	channel, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}

	err = channel.ExchangeDeclare(
		exchangeName, // name
		"topic",      // type
		true,         // durable
		false,        // auto-deleted
		false,        // internal
		false,        // no-wait
		nil,          // arguments
	)
	if err != nil {
		channel.Close()
		conn.Close()
		return nil, fmt.Errorf("declare exchange: %w", err)
	}

	return &Publisher{
		conn:         conn,
		channel:      channel,
		exchangeName: exchangeName,
	}, nil
}

// PublishUpstreamFailure implements services.FailureReporter.
func (p *Publisher) PublishUpstreamFailure(ctx context.Context, operatorID, reason string) error {
	if p == nil {
		return nil
	}
	body, err := NewUpstreamFailureEvent(operatorID, reason).ToJSON()
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}
	return p.publish(ctx, RouteUpstreamFailure, body)
}

// PublishSnapshotRecorded announces a persisted monthly snapshot.
func (p *Publisher) PublishSnapshotRecorded(ctx context.Context, operatorID, month string, totalCents int64) error {
	if p == nil {
		return nil
	}
	body, err := NewSnapshotRecordedEvent(operatorID, month, totalCents).ToJSON()
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}
	return p.publish(ctx, RouteSnapshotRecorded, body)
}

func (p *Publisher) publish(ctx context.Context, routingKey string, body []byte) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	err := p.channel.PublishWithContext(
		ctx,
		p.exchangeName,
		routingKey,
		false, // mandatory
		false, // immediate
		amqp091.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp091.Persistent,
			Timestamp:    time.Now(),
			Body:         body,
		},
	)
	if err != nil {
		return fmt.Errorf("publish event: %w", err)
	}

	slog.DebugContext(ctx, "Published reconciliation event",
		"routing_key", routingKey,
		"exchange", p.exchangeName)

	return nil
}

// Close releases the channel and connection.
func (p *Publisher) Close() error {
	if p == nil {
		return nil
	}
	var errs []error
	if p.channel != nil {
		if err := p.channel.Close(); err != nil {
			errs = append(errs, fmt.Errorf("channel: %w", err))
		}
	}
	if p.conn != nil {
		if err := p.conn.Close(); err != nil {
			errs = append(errs, fmt.Errorf("connection: %w", err))
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("close publisher: %v", errs)
	}
	return nil
}
