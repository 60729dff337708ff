// Package queue publishes newly recorded mining events to RabbitMQ so that
// report generators can refresh without polling the database.
package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/db4e/db4e-supervisor/internal/config"
	"github.com/db4e/db4e-supervisor/internal/observability/metrics"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/rs/zerolog/log"
)

// EventMessage is the JSON body of a published event.
type EventMessage struct {
	EventType string    `json:"event_type"`
	Instance  string    `json:"instance"`
	Timestamp time.Time `json:"timestamp"`
	Worker    string    `json:"worker,omitempty"`
	IPAddr    string    `json:"ip_addr,omitempty"`
	Effort    float64   `json:"effort,omitempty"`
	Payment   string    `json:"payment,omitempty"`
}

// QueueManager owns one connection and channel. A connection or channel
// closed by the broker is re-dialed on the next publish.
type QueueManager struct {
	mu        sync.Mutex
	url       string
	conn      *amqp.Connection
	channel   *amqp.Channel
	queueName string
}

func NewQueueManager(cfg *config.QueueConfig) (*QueueManager, error) {
	qm := &QueueManager{
		url:       cfg.Url,
		queueName: cfg.QueueName,
	}
	if err := qm.connect(); err != nil {
		return nil, err
	}

	return qm, nil
}

// connect must be called with qm.mu held or before qm is shared.
func (qm *QueueManager) connect() error {
	conn, err := amqp.Dial(qm.url)
	if err != nil {
		return fmt.Errorf("failed to connect to queue: %w", err)
	}

	channel, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return fmt.Errorf("failed to open queue channel: %w", err)
	}

	_, err = channel.QueueDeclare(
		qm.queueName,
		true,  // durable
		false, // autoDelete
		false, // exclusive
		false, // noWait
		nil,
	)
	if err != nil {
		_ = conn.Close()
		return fmt.Errorf("failed to declare queue %s: %w", qm.queueName, err)
	}

	qm.conn = conn
	qm.channel = channel
	return nil
}

func (qm *QueueManager) connected() bool {
	return qm.conn != nil && !qm.conn.IsClosed() && qm.channel != nil && !qm.channel.IsClosed()
}

func (qm *QueueManager) reset() {
	if qm.conn != nil && !qm.conn.IsClosed() {
		_ = qm.conn.Close()
	}
	qm.conn = nil
	qm.channel = nil
}

func (qm *QueueManager) PushEvent(ctx context.Context, event *EventMessage) error {
	body, err := json.Marshal(event)
	if err != nil {
		return err
	}

	qm.mu.Lock()
	defer qm.mu.Unlock()

	if !qm.connected() {
		log.Ctx(ctx).Info().Str("queue", qm.queueName).Msg("queue connection lost, reconnecting")
		qm.reset()
		if err := qm.connect(); err != nil {
			metrics.RecordQueueSendError()
			return err
		}
	}

	err = qm.channel.PublishWithContext(ctx,
		"", // default exchange routes by queue name
		qm.queueName,
		false,
		false,
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			Timestamp:    time.Now(),
			Body:         body,
		},
	)
	if err != nil {
		metrics.RecordQueueSendError()
		if !qm.connected() {
			qm.reset()
		}
		return fmt.Errorf("failed to publish %s event: %w", event.EventType, err)
	}

	return nil
}

// Shutdown gracefully stops the interaction with the queue, ensuring all resources are properly released.
func (qm *QueueManager) Shutdown() {
	log.Info().Msg("Shutting down queue manager")

	qm.mu.Lock()
	defer qm.mu.Unlock()

	if qm.conn == nil {
		return
	}
	if err := qm.channel.Close(); err != nil && !errors.Is(err, amqp.ErrClosed) {
		log.Warn().Err(err).Msg("failed to close queue channel")
	}
	if err := qm.conn.Close(); err != nil && !errors.Is(err, amqp.ErrClosed) {
		log.Warn().Err(err).Msg("failed to close queue connection")
	}
	qm.conn = nil
	qm.channel = nil
}
