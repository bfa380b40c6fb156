package services

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"fitsocial/logger"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

type EventType string

const (
	EventFollowRequested       EventType = "follow_requested"
	EventFollowed              EventType = "followed"
	EventFollowAccepted        EventType = "follow_accepted"
	EventFriendRequestSent     EventType = "friend_request_sent"
	EventFriendRequestAccepted EventType = "friend_request_accepted"
)

// RelationEvent - a relationship change addressed to the user who should hear about it
type RelationEvent struct {
	Type        EventType `json:"type"`
	RecipientID string    `json:"recipient_id"`
	ActorID     string    `json:"actor_id"`
	SubjectID   string    `json:"subject_id"`
	CreatedAt   time.Time `json:"created_at"`
}

// EventPublisher hands relationship events to the notification transport.
type EventPublisher interface {
	Publish(ctx context.Context, event RelationEvent) error
}

type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, RelationEvent) error { return nil }

// RabbitPublisher publishes events to a topic exchange with routing key user.<recipient>.
type RabbitPublisher struct {
	conn     *amqp.Connection
	channel  *amqp.Channel
	exchange string
}

func NewRabbitPublisher(url, exchange string) (*RabbitPublisher, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}
	channel, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to open channel: %w", err)
	}
	if err := channel.ExchangeDeclare(
		exchange,
		"topic",
		true,  // durable
		false, // auto-delete
		false, // internal
		false, // no-wait
		nil,   // args
	); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to declare exchange: %w", err)
	}
	logger.Info("RabbitMQ publisher ready", zap.String("exchange", exchange))
	return &RabbitPublisher{conn: conn, channel: channel, exchange: exchange}, nil
}

func (p *RabbitPublisher) Publish(ctx context.Context, event RelationEvent) error {
	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}
	return p.channel.PublishWithContext(ctx,
		p.exchange,
		"user."+event.RecipientID,
		false, // mandatory
		false, // immediate
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			Timestamp:    event.CreatedAt,
			Type:         string(event.Type),
			Body:         body,
		},
	)
}

func (p *RabbitPublisher) Close() error {
	if p.channel != nil {
		_ = p.channel.Close()
	}
	return p.conn.Close()
}

// publishEvent never fails the calling operation; the mutation already committed.
func publishEvent(ctx context.Context, events EventPublisher, event RelationEvent) {
	if events == nil {
		return
	}
	if err := events.Publish(ctx, event); err != nil {
		logger.Warn("failed to publish relationship event",
			zap.String("type", string(event.Type)),
			zap.String("recipient_id", event.RecipientID),
			zap.Error(err))
	}
}
