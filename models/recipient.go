package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"trainerpro-backend/utils"
)

const (
	KindStudent = "student"
	KindLead    = "lead"
)

const (
	StatusActive    = "active"
	StatusInactive  = "inactive"
	StatusTrial     = "trial"
	StatusConverted = "converted"
)

// Lead temperatures, derived from the lead's age in days.
const (
	TemperatureHot  = "hot"
	TemperatureWarm = "warm"
	TemperatureCold = "cold"
)

// Recipient is a student or a lead that automations may message.
type Recipient struct {
	ID        uuid.UUID `gorm:"type:uuid;primary_key" json:"id"`
	TrainerID uuid.UUID `gorm:"type:uuid;index;not null;uniqueIndex:idx_trainer_phone,priority:1" json:"trainerId"`

	Kind      string     `gorm:"type:varchar(20);not null;index" json:"kind"`
	Name      string     `gorm:"not null" json:"name"`
	Phone     string     `gorm:"not null;uniqueIndex:idx_trainer_phone,priority:2" json:"phone"`
	Email     string     `json:"email"`
	BirthDate *time.Time `json:"birthDate,omitempty"`
	Notes     string     `json:"notes"`

	OptIn  bool   `json:"optIn"`
	Status string `gorm:"type:varchar(20);not null;index" json:"status"`

	LastContactedAt *time.Time `json:"lastContactedAt,omitempty"`

	CreatedAt time.Time      `json:"createdAt"`
	UpdatedAt time.Time      `json:"updatedAt"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

func (r *Recipient) BeforeCreate(tx *gorm.DB) (err error) {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	return
}

// Contactable reports whether automations may message this recipient at all.
func (r Recipient) Contactable() bool {
	return r.OptIn && r.Status == StatusActive
}

func (r Recipient) FirstName() string {
	fields := strings.Fields(r.Name)
	if len(fields) == 0 {
		return ""
	}
	return fields[0]
}

// Temperature classifies a lead by whole calendar days since it was created:
// hot up to 3 days, warm up to 14, cold after that.
func (r Recipient) Temperature(now time.Time) string {
	return LeadTemperature(r.CreatedAt, now)
}

func LeadTemperature(createdAt, now time.Time) string {
	age := utils.DaysBetween(createdAt.In(now.Location()), now)
	switch {
	case age <= 3:
		return TemperatureHot
	case age <= 14:
		return TemperatureWarm
	default:
		return TemperatureCold
	}
}

// HasBirthdayOn matches month and day, ignoring the year. People born on
// February 29 are greeted on February 28 in non-leap years.
func (r Recipient) HasBirthdayOn(day time.Time) bool {
	if r.BirthDate == nil {
		return false
	}
	month, dom := r.BirthDate.Month(), r.BirthDate.Day()
	if month == time.February && dom == 29 && !utils.IsLeapYear(day.Year()) {
		dom = 28
	}
	return day.Month() == month && day.Day() == dom
}
