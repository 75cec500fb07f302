package amqp

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/rabbitmq/amqp091-go"
)

const (
	routingMirror = "mirror"
	routingRemove = "remove"
)

type Client struct {
	conn         *amqp091.Connection
	channel      *amqp091.Channel
	exchangeName string
	queueName    string
}

func NewClient(url, exchangeName, queueName string) (*Client, error) {
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
		queueName:    queueName,
	}

	if err := client.setup(); err != nil {
		client.Close()
		return nil, fmt.Errorf("setup exchange and queue: %w", err)
	}

	return client, nil
}

func (c *Client) setup() error {
	err := c.channel.ExchangeDeclare(
		c.exchangeName, // name
		"topic",        // type
		true,           // durable
		false,          // auto-deleted
		false,          // internal
		false,          // no-wait
		nil,            // arguments
	)
	if err != nil {
		return fmt.Errorf("declare exchange: %w", err)
	}

	_, err = c.channel.QueueDeclare(
		c.queueName, // name
		true,        // durable
		false,       // delete when unused
		false,       // exclusive
		false,       // no-wait
		nil,         // arguments
	)
	if err != nil {
		return fmt.Errorf("declare queue: %w", err)
	}

	// One queue receives both mirror and remove events.
	for _, key := range []string{routingMirror, routingRemove} {
		if err := c.channel.QueueBind(c.queueName, key, c.exchangeName, false, nil); err != nil {
			return fmt.Errorf("bind queue for %s: %w", key, err)
		}
	}

	return nil
}

// PublishTransactionMirror publishes a mirror request for a saved transaction.
func (c *Client) PublishTransactionMirror(ctx context.Context, id, ownerID string) error {
	msg := NewTransactionMirrorMessage(id, ownerID)
	body, err := msg.ToJSON()
	if err != nil {
		return fmt.Errorf("marshal message: %w", err)
	}

	if err := c.publish(ctx, routingMirror, body); err != nil {
		return err
	}

	slog.InfoContext(ctx, "Published transaction mirror message",
		"id", id,
		"owner_id", ownerID,
		"exchange", c.exchangeName)
	return nil
}

// PublishTransactionRemove publishes a removal request for a deleted transaction.
func (c *Client) PublishTransactionRemove(ctx context.Context, msg *TransactionRemoveMessage) error {
	msg.Timestamp = time.Now()
	body, err := msg.ToJSON()
	if err != nil {
		return fmt.Errorf("marshal message: %w", err)
	}

	if err := c.publish(ctx, routingRemove, body); err != nil {
		return err
	}

	slog.InfoContext(ctx, "Published transaction remove message",
		"id", msg.ID,
		"owner_id", msg.OwnerID)
	return nil
}

func (c *Client) publish(ctx context.Context, routingKey string, body []byte) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	err := c.channel.PublishWithContext(
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
	return nil
}

// Handlers dispatches consumed deliveries by routing key.
type Handlers struct {
	Mirror func(*TransactionMirrorMessage) error
	Remove func(*TransactionRemoveMessage) error
}

// Consume processes queue deliveries until ctx is done. Malformed payloads
// are rejected without requeue; handler failures requeue the delivery.
func (c *Client) Consume(ctx context.Context, h Handlers) error {
	msgs, err := c.channel.Consume(
		c.queueName, // queue
		"",          // consumer
		false,       // auto-ack (we want manual ack)
		false,       // exclusive
		false,       // no-local
		false,       // no-wait
		nil,         // args
	)
	if err != nil {
		return fmt.Errorf("start consuming: %w", err)
	}

	slog.InfoContext(ctx, "Started consuming mirror messages", "queue", c.queueName)

	for {
		select {
		case <-ctx.Done():
			slog.InfoContext(ctx, "Stopping message consumption", "reason", ctx.Err())
			return ctx.Err()
		case delivery, ok := <-msgs:
			if !ok {
				return fmt.Errorf("message channel closed")
			}
			c.dispatch(ctx, delivery, h)
		}
	}
}

func (c *Client) dispatch(ctx context.Context, delivery amqp091.Delivery, h Handlers) {
	var handle func() error
	switch delivery.RoutingKey {
	case routingMirror:
		msg, err := TransactionMirrorMessageFromJSON(delivery.Body)
		if err != nil {
			slog.ErrorContext(ctx, "Failed to unmarshal mirror message", "error", err)
			delivery.Nack(false, false) // reject and don't requeue
			return
		}
		if h.Mirror != nil {
			handle = func() error { return h.Mirror(msg) }
		}
	case routingRemove:
		msg, err := TransactionRemoveMessageFromJSON(delivery.Body)
		if err != nil {
			slog.ErrorContext(ctx, "Failed to unmarshal remove message", "error", err)
			delivery.Nack(false, false)
			return
		}
		if h.Remove != nil {
			handle = func() error { return h.Remove(msg) }
		}
	default:
		slog.WarnContext(ctx, "Unknown routing key", "routing_key", delivery.RoutingKey)
		delivery.Nack(false, false)
		return
	}

	if handle != nil {
		if err := handle(); err != nil {
			slog.ErrorContext(ctx, "Failed to handle message",
				"error", err,
				"routing_key", delivery.RoutingKey)
			delivery.Nack(false, true) // reject and requeue
			return
		}
	}

	delivery.Ack(false)
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
