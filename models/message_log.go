package models

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

var ErrImmutableLog = errors.New("message log entries are append-only")

const (
	DirectionOutbound = "outbound"
	DirectionInbound  = "inbound"
)

const (
	MessageSent     = "sent"
	MessageFailed   = "failed"
	MessageReceived = "received"
)

// MessageLog records one dispatch attempt or one inbound message. Rows are
// only ever inserted.
type MessageLog struct {
	ID          uuid.UUID  `gorm:"type:uuid;primary_key" json:"id"`
	TrainerID   uuid.UUID  `gorm:"type:uuid;index;not null" json:"trainerId"`
	RecipientID *uuid.UUID `gorm:"type:uuid;index" json:"recipientId,omitempty"`
	RuleID      *uuid.UUID `gorm:"type:uuid;index" json:"ruleId,omitempty"`

	TriggerType       string `gorm:"type:varchar(30);index" json:"triggerType"`
	Direction         string `gorm:"type:varchar(10);not null" json:"direction"`
	Status            string `gorm:"type:varchar(20);index;not null" json:"status"`
	Phone             string `gorm:"type:varchar(20)" json:"phone"`
	Body              string `gorm:"type:text" json:"body"`
	ProviderMessageID string `json:"providerMessageId,omitempty"`
	ErrorMessage      string `gorm:"type:text" json:"errorMessage,omitempty"`

	CreatedAt time.Time `gorm:"index" json:"createdAt"`
}

func (m *MessageLog) BeforeCreate(tx *gorm.DB) (err error) {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	return
}

func (m *MessageLog) BeforeUpdate(tx *gorm.DB) error {
	return ErrImmutableLog
}

func (m *MessageLog) BeforeDelete(tx *gorm.DB) error {
	return ErrImmutableLog
}
