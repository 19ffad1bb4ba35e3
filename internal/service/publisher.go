package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/iliyamo/planetarium-reservation/internal/queue"
)

// Publisher delivers reservation events to downstream consumers.
type Publisher interface {
	Publish(ctx context.Context, ev queue.ReservationEvent) error
}

// NopPublisher drops every event.  It is used when events are disabled.
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, queue.ReservationEvent) error { return nil }

// AMQPPublisher publishes events to the reservation queue on RabbitMQ.
// Each Publish dials its own connection; the event rate is a few per
// reservation, so there is no pooled channel to babysit.
type AMQPPublisher struct {
	url    string
	logger *slog.Logger
}

// NewAMQPPublisher returns a publisher for the broker at url.
func NewAMQPPublisher(url string, logger *slog.Logger) *AMQPPublisher {
	if logger == nil {
		logger = slog.Default()
	}
	return &AMQPPublisher{url: url, logger: logger.With("component", "amqp-publisher")}
}

// Publish sends ev to the durable reservation queue as a persistent JSON
// message.  ctx bounds the whole exchange, handshake included: when it
// is done the socket is closed and every pending step fails.
func (p *AMQPPublisher) Publish(ctx context.Context, ev queue.ReservationEvent) error {
	var stop func() bool
	conn, err := amqp.DialConfig(p.url, amqp.Config{
		Heartbeat: 10 * time.Second,
		Locale:    "en_US",
		Dial: func(network, addr string) (net.Conn, error) {
			var d net.Dialer
			nc, err := d.DialContext(ctx, network, addr)
			if err != nil {
				return nil, err
			}
			stop = context.AfterFunc(ctx, func() { _ = nc.Close() })
			return nc, nil
		},
	})
	if stop != nil {
		defer stop()
	}
	if err != nil {
		return fmt.Errorf("amqp dial: %w", err)
	}
	defer func() { _ = conn.Close() }()

	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("amqp channel: %w", err)
	}
	defer func() { _ = ch.Close() }()

	// Ensure the queue exists (idempotent). Durable so messages survive broker restarts.
	if _, err := ch.QueueDeclare(
		queue.ReservationQueueName, // name
		true,                       // durable
		false,                      // autoDelete
		false,                      // exclusive
		false,                      // noWait
		nil,                        // args
	); err != nil {
		return fmt.Errorf("declare %s: %w", queue.ReservationQueueName, err)
	}

	body, err := json.Marshal(ev)
	if err != nil {
		return err
	}

	pub := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent, // store on disk
		MessageId:    ev.ID,
		Type:         ev.Type,
		Timestamp:    time.Now().UTC(),
		Body:         body,
	}
	if err := ch.PublishWithContext(ctx,
		"",                         // default exchange
		queue.ReservationQueueName, // routing key = queue name
		false,                      // mandatory
		false,                      // immediate
		pub,
	); err != nil {
		return fmt.Errorf("publish %s: %w", ev.ID, err)
	}
	p.logger.DebugContext(ctx, "event published", "event_id", ev.ID, "type", ev.Type)
	return nil
}
