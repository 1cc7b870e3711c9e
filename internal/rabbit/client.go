// Package rabbit publishes registration and attendance lifecycle messages
// to a topic exchange.
package rabbit

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/rs/zerolog"
)

const (
	KeyRegistrationSubmitted     = "registration.submitted"
	KeyRegistrationStatusChanged = "registration.status_changed"
	KeyAttendanceRecorded        = "attendance.recorded"
)

var ErrClosed = errors.New("rabbit: client closed")

type Client struct {
	mu       sync.Mutex
	conn     *amqp.Connection
	channel  *amqp.Channel
	exchange string
	log      zerolog.Logger
}

// Dial connects and declares a durable topic exchange.
func Dial(url, exchange string, log zerolog.Logger) (*Client, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		log.Error().Err(err).Msg("failed to connect to RabbitMQ")
		return nil, err
	}

	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		log.Error().Err(err).Msg("failed to open RabbitMQ channel")
		return nil, err
	}

	if err := ch.ExchangeDeclare(
		exchange,
		amqp.ExchangeTopic,
		true,
		false,
		false,
		false,
		nil,
	); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		log.Error().Err(err).Msg("failed to declare exchange")
		return nil, err
	}

	log.Info().Str("exchange", exchange).Msg("RabbitMQ initialized")
	return &Client{conn: conn, channel: ch, exchange: exchange, log: log}, nil
}

func (c *Client) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.channel != nil {
		_ = c.channel.Close()
		c.channel = nil
	}
	if c.conn != nil {
		_ = c.conn.Close()
		c.conn = nil
	}
	c.log.Info().Msg("RabbitMQ connection closed")
}

// Publish sends payload as JSON with the given routing key.
func (c *Client) Publish(ctx context.Context, routingKey string, payload any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.channel == nil {
		return ErrClosed
	}
	err = c.channel.PublishWithContext(
		ctx,
		c.exchange,
		routingKey,
		false,
		false,
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			Body:         body,
			Timestamp:    time.Now(),
		},
	)
	if err != nil {
		c.log.Error().Err(err).Str("routing_key", routingKey).Msg("failed to publish message to RabbitMQ")
		return err
	}
	c.log.Debug().Str("exchange", c.exchange).Str("routing_key", routingKey).Msg("message published")
	return nil
}
