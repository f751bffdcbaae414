package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	SessionScheduled = "scheduled"
	SessionCompleted = "completed"
	SessionCancelled = "cancelled"
)

// Session is a scheduled training session with one recipient.
type Session struct {
	ID          uuid.UUID `gorm:"type:uuid;primary_key" json:"id"`
	TrainerID   uuid.UUID `gorm:"type:uuid;index;not null" json:"trainerId"`
	RecipientID uuid.UUID `gorm:"type:uuid;index;not null" json:"recipientId"`

	Title       string    `json:"title"`
	Location    string    `json:"location"`
	ScheduledAt time.Time `gorm:"index;not null" json:"scheduledAt"`
	Duration    int       `json:"duration"` // in minutes
	Status      string    `gorm:"type:varchar(20);index;not null" json:"status"`

	Recipient Recipient `gorm:"foreignKey:RecipientID" json:"recipient,omitempty"`

	CreatedAt time.Time      `json:"createdAt"`
	UpdatedAt time.Time      `json:"updatedAt"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

func (s *Session) BeforeCreate(tx *gorm.DB) (err error) {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	return
}
