package ingest

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

const (
	telemetryExchange = "telemetry"
	telemetryQueue    = "telemetry.samples"
	telemetryBindKey  = "telemetry.sample.*"
)

// Consumer feeds samples published by device gateways into the same
// processing pipeline the HTTP endpoints use.
type Consumer struct {
	conn    *amqp.Connection
	channel *amqp.Channel
	proc    *Processor
}

func NewConsumer(amqpURL string, proc *Processor) (*Consumer, error) {
	conn, err := amqp.Dial(amqpURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to open channel: %w", err)
	}

	return &Consumer{conn: conn, channel: ch, proc: proc}, nil
}

// Start declares the telemetry topology and begins consuming in a background
// goroutine. Malformed or unroutable messages are logged and skipped.
func (c *Consumer) Start(ctx context.Context) error {
	if err := c.channel.ExchangeDeclare(
		telemetryExchange,
		"topic",
		true,  // durable
		false, // auto-delete
		false, // internal
		false, // no-wait
		nil,
	); err != nil {
		return fmt.Errorf("failed to declare exchange: %w", err)
	}

	q, err := c.channel.QueueDeclare(
		telemetryQueue,
		true,  // durable
		false, // auto-delete
		false, // exclusive
		false, // no-wait
		nil,
	)
	if err != nil {
		return fmt.Errorf("failed to declare queue: %w", err)
	}

	if err := c.channel.QueueBind(q.Name, telemetryBindKey, telemetryExchange, false, nil); err != nil {
		return fmt.Errorf("failed to bind queue: %w", err)
	}

	deliveries, err := c.channel.Consume(
		q.Name,
		"",
		true,  // auto-ack
		false, // exclusive
		false, // no-local
		false, // no-wait
		nil,
	)
	if err != nil {
		return fmt.Errorf("failed to start consuming: %w", err)
	}

	go func() {
		for d := range deliveries {
			c.handle(ctx, d.Body)
		}
	}()

	return nil
}

func (c *Consumer) handle(ctx context.Context, body []byte) {
	var raw RawSample
	if err := json.Unmarshal(body, &raw); err != nil {
		log.Printf("telemetry consumer: failed to unmarshal sample: %v", err)
		return
	}

	in, err := raw.Normalize(time.Now())
	if err != nil {
		log.Printf("telemetry consumer: rejected sample: %v", err)
		return
	}

	if _, err := c.proc.Process(ctx, in); err != nil {
		log.Printf("telemetry consumer: failed to process sample for %s: %v", in.DeviceIMEI, err)
	}
}

func (c *Consumer) Close() error {
	if c.channel != nil {
		if err := c.channel.Close(); err != nil {
			return fmt.Errorf("failed to close channel: %w", err)
		}
	}
	if c.conn != nil {
		if err := c.conn.Close(); err != nil {
			return fmt.Errorf("failed to close connection: %w", err)
		}
	}
	return nil
}
