package amqp

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/rabbitmq/amqp091-go"

	applog "gastitos/internal/log"
)

const publishTimeout = 5 * time.Second

// Client announces transaction changes on a durable direct exchange. Each
// event type is its own routing key; the configured queue is bound to all of
// them.
type Client struct {
	conn     *amqp091.Connection
	exchange string
	queue    string
	logger   *slog.Logger

	mu      sync.Mutex // serializes use of channel
	channel *amqp091.Channel
}

func NewClient(url, exchange, queue string, logger *slog.Logger) (*Client, error) {
	if logger == nil {
		logger = slog.Default()
	}

	conn, err := amqp091.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("dial AMQP: %w", err)
	}

	channel, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}

	c := &Client{
		conn:     conn,
		channel:  channel,
		exchange: exchange,
		queue:    queue,
		logger:   logger.With(applog.FieldComponent, applog.ComponentAMQP),
	}
	if err := c.declare(); err != nil {
		c.Close()
		return nil, err
	}
	return c, nil
}

func (c *Client) declare() error {
	if err := c.channel.ExchangeDeclare(c.exchange, amqp091.ExchangeDirect, true, false, false, false, nil); err != nil {
		return fmt.Errorf("declare exchange %s: %w", c.exchange, err)
	}
	if _, err := c.channel.QueueDeclare(c.queue, true, false, false, false, nil); err != nil {
		return fmt.Errorf("declare queue %s: %w", c.queue, err)
	}
	for _, key := range RoutingKeys() {
		if err := c.channel.QueueBind(c.queue, key, c.exchange, false, nil); err != nil {
			return fmt.Errorf("bind queue %s to %s: %w", c.queue, key, err)
		}
	}
	return nil
}

// PublishTransactionEvent sends a persistent notification that the
// transaction with id changed.
func (c *Client) PublishTransactionEvent(ctx context.Context, eventType EventType, id int64) error {
	event := NewTransactionEvent(eventType, id)
	msg, err := event.Publishing()
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, publishTimeout)
	defer cancel()

	c.mu.Lock()
	if c.channel == nil {
		c.mu.Unlock()
		return amqp091.ErrClosed
	}
	err = c.channel.PublishWithContext(ctx, c.exchange, event.RoutingKey(), false, false, msg)
	c.mu.Unlock()
	if err != nil {
		return fmt.Errorf("publish %s: %w", eventType, err)
	}

	c.logger.DebugContext(ctx, "Published transaction event",
		applog.FieldEventID, event.EventID,
		applog.FieldTransactionID, id,
		"routing_key", event.RoutingKey())
	return nil
}

// Close shuts the channel and connection. Later publishes fail with
// amqp091.ErrClosed.
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.channel != nil {
		c.channel.Close()
		c.channel = nil
	}
	if c.conn == nil {
		return nil
	}
	err := c.conn.Close()
	c.conn = nil
	return err
}
