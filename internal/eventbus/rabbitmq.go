// Package eventbus announces confirmed orders to other services.
package eventbus

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/streadway/amqp"
)

const (
	publishTimeout = 5 * time.Second
	// confirmBuffer leaves room for confirms that arrive after their publish
	// gave up, so the broker's confirm delivery never blocks on us.
	confirmBuffer = 64
)

// ErrNotReady is returned when publishing on a closed manager.
var ErrNotReady = errors.New("producer not ready")

type producerChannel interface {
	Publish(exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	Close() error
}

// RabbitMQConfig names the exchange order events go to.
type RabbitMQConfig struct {
	URL          string
	Exchange     string
	ExchangeType string
	RoutingKey   string
}

// RabbitMQ publishes order events with publisher confirms. Publishes are
// serialized and each waits for the confirmation carrying its own delivery
// tag; confirms for earlier publishes that timed out are discarded.
type RabbitMQ struct {
	cfg    RabbitMQConfig
	logger zerolog.Logger

	mu            sync.Mutex
	conn          *amqp.Connection
	ch            producerChannel
	notifyConfirm chan amqp.Confirmation
	// seq is the delivery tag of the last accepted publish. Tags start at 1
	// once the channel is in confirm mode.
	seq     uint64
	timeout time.Duration
}

// DialRabbitMQ connects, enables confirm mode and declares the exchange.
func DialRabbitMQ(cfg RabbitMQConfig, logger zerolog.Logger) (*RabbitMQ, error) {
	if cfg.ExchangeType == "" {
		cfg.ExchangeType = "topic"
	}

	logger.Info().Str("exchange", cfg.Exchange).Msg("connecting to RabbitMQ")
	conn, err := amqp.Dial(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("dial rabbitmq: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}
	if err := ch.Confirm(false); err != nil {
		conn.Close()
		return nil, fmt.Errorf("enable confirm mode: %w", err)
	}
	confirms := ch.NotifyPublish(make(chan amqp.Confirmation, confirmBuffer))

	err = ch.ExchangeDeclare(
		cfg.Exchange,
		cfg.ExchangeType,
		true,  // durable
		false, // auto-deleted
		false, // internal
		false, // no-wait
		nil,
	)
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("declare exchange %s: %w", cfg.Exchange, err)
	}

	r := newRabbitMQ(cfg, ch, confirms, logger)
	r.conn = conn
	return r, nil
}

func newRabbitMQ(cfg RabbitMQConfig, ch producerChannel, confirms chan amqp.Confirmation, logger zerolog.Logger) *RabbitMQ {
	return &RabbitMQ{
		cfg:           cfg,
		logger:        logger,
		ch:            ch,
		notifyConfirm: confirms,
		timeout:       publishTimeout,
	}
}

func (r *RabbitMQ) PublishOrderConfirmed(ctx context.Context, ev OrderConfirmedEvent) error {
	body, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.ch == nil {
		return ErrNotReady
	}

	err = r.ch.Publish(
		r.cfg.Exchange,
		r.cfg.RoutingKey,
		false, // mandatory
		false, // immediate
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			MessageId:    ev.EventID,
			Body:         body,
			Timestamp:    ev.Timestamp,
		},
	)
	if err != nil {
		return fmt.Errorf("publish %s: %w", ev.OrderID, err)
	}
	r.seq++
	tag := r.seq

	timer := time.NewTimer(r.timeout)
	defer timer.Stop()
	for {
		select {
		case confirm, ok := <-r.notifyConfirm:
			if !ok {
				return ErrNotReady
			}
			if confirm.DeliveryTag < tag {
				r.logger.Warn().Uint64("tag", confirm.DeliveryTag).Bool("ack", confirm.Ack).Msg("discarding late confirmation")
				continue
			}
			if confirm.DeliveryTag > tag {
				return fmt.Errorf("publish %s: confirmation for tag %d skipped past %d", ev.OrderID, confirm.DeliveryTag, tag)
			}
			if !confirm.Ack {
				return fmt.Errorf("publish %s: nacked by broker", ev.OrderID)
			}
			r.logger.Debug().Str("orderId", ev.OrderID).Uint64("tag", tag).Msg("order event confirmed")
			return nil
		case <-timer.C:
			return fmt.Errorf("publish %s: confirmation timeout", ev.OrderID)
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// Close shuts the channel and connection. Later publishes return ErrNotReady.
func (r *RabbitMQ) Close() {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.ch != nil {
		if err := r.ch.Close(); err != nil {
			r.logger.Error().Err(err).Msg("error closing producer channel")
		}
		r.ch = nil
	}
	if r.conn != nil && !r.conn.IsClosed() {
		if err := r.conn.Close(); err != nil {
			r.logger.Error().Err(err).Msg("error closing rabbitmq connection")
		}
		r.conn = nil
	}
}
