package services

import (
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"time"

	"github.com/pkg/errors"

	"trainerpro-backend/models"
	"trainerpro-backend/utils"
)

// ErrNotAMessage marks webhook payloads that carry no inbound text.
var ErrNotAMessage = errors.New("webhook event is not an inbound text message")

type InboundStore interface {
	RecipientsByPhone(ctx context.Context, phone string) ([]models.Recipient, error)
	AppendMessageLog(ctx context.Context, entry *models.MessageLog) error
}

// stevoWebhook is the subset of the provider's messages.upsert payload we read.
type stevoWebhook struct {
	Event string `json:"event"`
	Data  struct {
		Key struct {
			RemoteJid string `json:"remoteJid"`
			FromMe    bool   `json:"fromMe"`
			ID        string `json:"id"`
		} `json:"key"`
		Message struct {
			Conversation        string `json:"conversation"`
			ExtendedTextMessage struct {
				Text string `json:"text"`
			} `json:"extendedTextMessage"`
		} `json:"message"`
	} `json:"data"`
}

type InboundMessage struct {
	Phone             string `json:"phone"`
	Text              string `json:"text"`
	ProviderMessageID string `json:"providerMessageId,omitempty"`
}

// ParseStevoWebhook extracts the sender number and text of an inbound message.
func ParseStevoWebhook(body []byte) (*InboundMessage, error) {
	var payload stevoWebhook
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, errors.Wrap(err, "decoding webhook")
	}
	if payload.Data.Key.FromMe {
		return nil, ErrNotAMessage
	}
	number, _, _ := strings.Cut(payload.Data.Key.RemoteJid, "@")
	number = utils.DigitsOnly(number)
	text := payload.Data.Message.Conversation
	if text == "" {
		text = payload.Data.Message.ExtendedTextMessage.Text
	}
	if number == "" || strings.TrimSpace(text) == "" {
		return nil, ErrNotAMessage
	}
	return &InboundMessage{Phone: number, Text: text, ProviderMessageID: payload.Data.Key.ID}, nil
}

type InboundResult struct {
	Message    InboundMessage     `json:"message"`
	Recipients []models.Recipient `json:"recipients,omitempty"`
	Intent     PaymentIntent      `json:"intent"`
}

type InboundService struct {
	store InboundStore
	now   func() time.Time
	log   *slog.Logger
}

func NewInboundService(store InboundStore, log *slog.Logger) *InboundService {
	if log == nil {
		log = slog.Default()
	}
	return &InboundService{store: store, now: time.Now, log: log}
}

// Handle logs a message once for every trainer that knows the sender and
// classifies its payment intent. Messages from unknown numbers are
// classified but not stored.
func (s *InboundService) Handle(ctx context.Context, msg InboundMessage) (*InboundResult, error) {
	result := &InboundResult{Message: msg, Intent: ClassifyPayment(msg.Text)}

	recipients, err := s.store.RecipientsByPhone(ctx, msg.Phone)
	if err != nil {
		return nil, errors.Wrap(err, "looking up sender")
	}
	if len(recipients) == 0 {
		s.log.Info("inbound message from unknown number", "phone", msg.Phone, "confidence", result.Intent.Confidence)
		return result, nil
	}
	result.Recipients = recipients

	now := s.now()
	for i := range recipients {
		r := &recipients[i]
		entry := &models.MessageLog{
			TrainerID:         r.TrainerID,
			RecipientID:       &r.ID,
			TriggerType:       models.TriggerInbound,
			Direction:         models.DirectionInbound,
			Status:            models.MessageReceived,
			Phone:             msg.Phone,
			Body:              msg.Text,
			ProviderMessageID: msg.ProviderMessageID,
			CreatedAt:         now,
		}
		if err := s.store.AppendMessageLog(ctx, entry); err != nil {
			return nil, err
		}
		s.log.Info("inbound message logged",
			"trainer_id", r.TrainerID,
			"recipient_id", r.ID,
			"confidence", result.Intent.Confidence,
			"action", result.Intent.Action,
		)
	}
	return result, nil
}
