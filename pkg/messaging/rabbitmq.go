package messaging

import (
	"context"
	"encoding/json"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/sony/gobreaker"
	"go.uber.org/zap"
)

// CampaignEvent is the wire payload published after each campaign dispatch,
// consumed by downstream reporting integrations.
type CampaignEvent struct {
	CampaignID string    `json:"campaignId"`
	Group      string    `json:"group"`
	Status     string    `json:"status"`
	Recipients int       `json:"recipients"`
	Sent       int       `json:"sent"`
	Failed     int       `json:"failed"`
	OccurredAt time.Time `json:"occurredAt"`
}

// Publisher emits campaign lifecycle events.
type Publisher interface {
	PublishCampaignEvent(ctx context.Context, evt CampaignEvent) error
	Close() error
}

// RabbitMQPublisher implements Publisher on a durable RabbitMQ queue,
// guarded by a circuit breaker so a broker outage cannot stall dispatch.
type RabbitMQPublisher struct {
	conn      *amqp.Connection
	ch        *amqp.Channel
	queueName string
	cb        *gobreaker.CircuitBreaker
	logger    *zap.Logger
}

// NewRabbitMQPublisher connects, declares the queue and wires the breaker.
func NewRabbitMQPublisher(amqpURL, queueName string, logger *zap.Logger) (*RabbitMQPublisher, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	conn, err := amqp.Dial(amqpURL)
	if err != nil {
		return nil, err
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, err
	}

	// Declare the queue (idempotent)
	_, err = ch.QueueDeclare(
		queueName,
		true,  // durable
		false, // autoDelete
		false, // exclusive
		false, // noWait
		nil,   // args
	)
	if err != nil {
		ch.Close()
		conn.Close()
		return nil, err
	}

	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "campaign-events",
		MaxRequests: 3,
		Interval:    time.Minute,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("publisher breaker state changed",
				zap.String("breaker", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()),
			)
		},
	})

	return &RabbitMQPublisher{
		conn:      conn,
		ch:        ch,
		queueName: queueName,
		cb:        cb,
		logger:    logger,
	}, nil
}

// PublishCampaignEvent emits one event through the breaker.
func (p *RabbitMQPublisher) PublishCampaignEvent(ctx context.Context, evt CampaignEvent) error {
	body, err := json.Marshal(evt)
	if err != nil {
		return err
	}

	_, err = p.cb.Execute(func() (interface{}, error) {
		return nil, p.ch.PublishWithContext(
			ctx,
			"",          // exchange (default)
			p.queueName, // routing key == queue name
			false,       // mandatory
			false,       // immediate
			amqp.Publishing{
				ContentType:  "application/json",
				DeliveryMode: amqp.Persistent,
				Body:         body,
			},
		)
	})
	return err
}

// Close releases the channel and connection.
func (p *RabbitMQPublisher) Close() error {
	if p.ch != nil {
		if err := p.ch.Close(); err != nil {
			return err
		}
	}
	if p.conn != nil {
		return p.conn.Close()
	}
	return nil
}

// NopPublisher discards events; used when the broker is disabled.
type NopPublisher struct{}

// PublishCampaignEvent implements Publisher.
func (NopPublisher) PublishCampaignEvent(context.Context, CampaignEvent) error { return nil }

// Close implements Publisher.
func (NopPublisher) Close() error { return nil }
