package services

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	amqp "github.com/rabbitmq/amqp091-go"

	"trainerpro-backend/models"
)

// DispatchEvent is published for every logged send attempt.
type DispatchEvent struct {
	MessageID         uuid.UUID  `json:"messageId"`
	TrainerID         uuid.UUID  `json:"trainerId"`
	RecipientID       *uuid.UUID `json:"recipientId,omitempty"`
	RuleID            *uuid.UUID `json:"ruleId,omitempty"`
	TriggerType       string     `json:"triggerType"`
	Status            string     `json:"status"`
	ProviderMessageID string     `json:"providerMessageId,omitempty"`
	Error             string     `json:"error,omitempty"`
	At                time.Time  `json:"at"`
}

func newDispatchEvent(entry *models.MessageLog) DispatchEvent {
	return DispatchEvent{
		MessageID:         entry.ID,
		TrainerID:         entry.TrainerID,
		RecipientID:       entry.RecipientID,
		RuleID:            entry.RuleID,
		TriggerType:       entry.TriggerType,
		Status:            entry.Status,
		ProviderMessageID: entry.ProviderMessageID,
		Error:             entry.ErrorMessage,
		At:                entry.CreatedAt,
	}
}

// Publisher fans dispatch events out to other systems. Publishing is best
// effort and never fails a send.
type Publisher interface {
	Publish(ctx context.Context, event DispatchEvent)
}

type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, DispatchEvent) {}

// amqpChannel is the part of *amqp.Channel the publisher uses.
type amqpChannel interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	Close() error
}

// AMQPPublisher writes events to a durable topic exchange with routing key
// "message.<status>".
type AMQPPublisher struct {
	mu       sync.Mutex
	conn     *amqp.Connection
	channel  amqpChannel
	exchange string
	log      *slog.Logger
}

func NewAMQPPublisher(url, exchange string, log *slog.Logger) (*AMQPPublisher, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, errors.Wrap(err, "connecting to rabbitmq")
	}
	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, errors.Wrap(err, "opening rabbitmq channel")
	}
	if err := ch.ExchangeDeclare(exchange, amqp.ExchangeTopic, true, false, false, false, nil); err != nil {
		conn.Close()
		return nil, errors.Wrapf(err, "declaring exchange %s", exchange)
	}
	p := newChannelPublisher(ch, exchange, log)
	p.conn = conn
	return p, nil
}

func newChannelPublisher(ch amqpChannel, exchange string, log *slog.Logger) *AMQPPublisher {
	if log == nil {
		log = slog.Default()
	}
	return &AMQPPublisher{channel: ch, exchange: exchange, log: log}
}

func (p *AMQPPublisher) Publish(ctx context.Context, event DispatchEvent) {
	body, err := json.Marshal(event)
	if err != nil {
		p.log.Error("could not encode dispatch event", "error", err)
		return
	}

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	p.mu.Lock()
	defer p.mu.Unlock()
	err = p.channel.PublishWithContext(ctx, p.exchange, "message."+event.Status, false, false, amqp.Publishing{
		DeliveryMode: amqp.Persistent,
		ContentType:  "application/json",
		Timestamp:    event.At,
		Body:         body,
	})
	if err != nil {
		p.log.Warn("failed to publish dispatch event", "message_id", event.MessageID, "error", err)
	}
}

func (p *AMQPPublisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	err := p.channel.Close()
	if p.conn != nil {
		if cerr := p.conn.Close(); err == nil {
			err = cerr
		}
	}
	return err
}
