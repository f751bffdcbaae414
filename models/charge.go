package models

import (
	"math"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	ChargePending   = "pending"
	ChargePaid      = "paid"
	ChargeCancelled = "cancelled"
)

// Charge is a billing item owed by a recipient.
type Charge struct {
	ID          uuid.UUID `gorm:"type:uuid;primary_key" json:"id"`
	TrainerID   uuid.UUID `gorm:"type:uuid;index;not null" json:"trainerId"`
	RecipientID uuid.UUID `gorm:"type:uuid;index;not null" json:"recipientId"`

	Description string     `json:"description"`
	Amount      float64    `gorm:"type:decimal(10,2);not null" json:"amount"`
	DueDate     time.Time  `gorm:"index;not null" json:"dueDate"`
	Status      string     `gorm:"type:varchar(20);index;not null" json:"status"`
	PaymentLink string     `json:"paymentLink"`
	PaidAt      *time.Time `json:"paidAt,omitempty"`

	Recipient Recipient `gorm:"foreignKey:RecipientID" json:"recipient,omitempty"`

	CreatedAt time.Time      `json:"createdAt"`
	UpdatedAt time.Time      `json:"updatedAt"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

func (c *Charge) BeforeCreate(tx *gorm.DB) (err error) {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return
}

// HoursUntilDue is negative once the due date has passed.
func (c Charge) HoursUntilDue(now time.Time) float64 {
	return c.DueDate.Sub(now).Hours()
}

// DaysOverdue is floor((now - due) / 24h); negative before the due date.
func (c Charge) DaysOverdue(now time.Time) int {
	return int(math.Floor(now.Sub(c.DueDate).Hours() / 24))
}
