package amqp

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/rabbitmq/amqp091-go"

	"contas/internal/core"
)

// Client publishes contas domain events to a direct exchange and consumes
// statement export requests from a dedicated queue. Services treat a nil
// client as "events disabled"; publish failures are logged by callers and
// never fail the originating request.
type Client struct {
	conn         *amqp091.Connection
	channel      *amqp091.Channel
	exchangeName string
	exportQueue  string
}

func NewClient(url, exchangeName, exportQueue string) (*Client, error) {
	conn, err := amqp091.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("dial AMQP: %w", err)
	}

	channel, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}

	client := &Client{
		conn:         conn,
		channel:      channel,
		exchangeName: exchangeName,
		exportQueue:  exportQueue,
	}

	if err := client.setup(); err != nil {
		client.Close()
		return nil, fmt.Errorf("setup exchange and queues: %w", err)
	}

	return client, nil
}

func (c *Client) setup() error {
	err := c.channel.ExchangeDeclare(
		c.exchangeName,
		"direct",
		true,  // durable
		false, // auto-deleted
		false, // internal
		false, // no-wait
		nil,
	)
	if err != nil {
		return fmt.Errorf("declare exchange: %w", err)
	}

	// Only the export queue has an in-process consumer. Event routing keys
	// are published to the exchange for external consumers to bind.
	_, err = c.channel.QueueDeclare(
		c.exportQueue,
		true,  // durable
		false, // delete when unused
		false, // exclusive
		false, // no-wait
		nil,
	)
	if err != nil {
		return fmt.Errorf("declare queue: %w", err)
	}

	err = c.channel.QueueBind(
		c.exportQueue,
		KeyStatementExport,
		c.exchangeName,
		false,
		nil,
	)
	if err != nil {
		return fmt.Errorf("bind queue: %w", err)
	}

	return nil
}

func (c *Client) publish(ctx context.Context, routingKey string, msg any) error {
	body, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("marshal message: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	err = c.channel.PublishWithContext(
		ctx,
		c.exchangeName,
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
		return fmt.Errorf("publish message: %w", err)
	}

	slog.InfoContext(ctx, "Published event",
		"routing_key", routingKey,
		"exchange", c.exchangeName)

	return nil
}

// PublishBillUpdated publishes a bill.updated event.
func (c *Client) PublishBillUpdated(ctx context.Context, billID string, version int64) error {
	return c.publish(ctx, KeyBillUpdated, &BillUpdatedMessage{
		BillID:    billID,
		Version:   version,
		Timestamp: time.Now(),
	})
}

// PublishInstancePaid publishes an instance.paid event.
func (c *Client) PublishInstancePaid(ctx context.Context, i *core.BillInstance) error {
	return c.publish(ctx, KeyInstancePaid, &InstanceEventMessage{
		InstanceID:  i.ID,
		BillID:      i.BillID,
		Period:      i.Period.String(),
		AmountCents: i.EffectiveAmount().Cents,
		Timestamp:   time.Now(),
	})
}

// PublishInstanceCancelled publishes an instance.cancelled event.
func (c *Client) PublishInstanceCancelled(ctx context.Context, i *core.BillInstance) error {
	return c.publish(ctx, KeyInstanceCancelled, &InstanceEventMessage{
		InstanceID:  i.ID,
		BillID:      i.BillID,
		Period:      i.Period.String(),
		AmountCents: i.EffectiveAmount().Cents,
		Timestamp:   time.Now(),
	})
}

// PublishStatementExport enqueues a statement export request for the worker.
func (c *Client) PublishStatementExport(ctx context.Context, userID string, p core.Period) error {
	return c.publish(ctx, KeyStatementExport, &StatementExportMessage{
		UserID:    userID,
		Year:      p.Year,
		Month:     p.Month,
		Timestamp: time.Now(),
	})
}

// ConsumeStatementExports delivers export requests to handler with manual
// acks. Handler errors requeue the message; malformed payloads are dropped.
func (c *Client) ConsumeStatementExports(ctx context.Context, handler func(*StatementExportMessage) error) error {
	msgs, err := c.channel.Consume(
		c.exportQueue,
		"",    // consumer
		false, // auto-ack (we want manual ack)
		false, // exclusive
		false, // no-local
		false, // no-wait
		nil,
	)
	if err != nil {
		return fmt.Errorf("start consuming: %w", err)
	}

	slog.InfoContext(ctx, "Started consuming statement export requests", "queue", c.exportQueue)

	for {
		select {
		case <-ctx.Done():
			slog.InfoContext(ctx, "Stopping message consumption", "reason", ctx.Err())
			return ctx.Err()
		case delivery, ok := <-msgs:
			if !ok {
				return fmt.Errorf("message channel closed")
			}

			msg, err := StatementExportMessageFromJSON(delivery.Body)
			if err != nil {
				slog.ErrorContext(ctx, "Failed to unmarshal message", "error", err)
				delivery.Nack(false, false) // reject and don't requeue
				continue
			}

			if err := handler(msg); err != nil {
				slog.ErrorContext(ctx, "Failed to handle export request",
					"error", err,
					"user_id", msg.UserID,
					"period", msg.PeriodValue().String())
				delivery.Nack(false, true) // reject and requeue
				continue
			}

			delivery.Ack(false)
			slog.InfoContext(ctx, "Processed statement export request",
				"user_id", msg.UserID,
				"period", msg.PeriodValue().String())
		}
	}
}

func (c *Client) Close() error {
	if c.channel != nil {
		c.channel.Close()
	}
	if c.conn != nil {
		return c.conn.Close()
	}
	return nil
}
