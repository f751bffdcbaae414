package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"trainerpro-backend/utils"
)

// Trainer is the tenant: every recipient, rule and log row belongs to one.
type Trainer struct {
	ID       uuid.UUID `gorm:"type:uuid;primary_key" json:"id"`
	Email    string    `gorm:"uniqueIndex;not null" json:"email"`
	Password string    `gorm:"not null" json:"-"`
	Name     string    `gorm:"not null" json:"name"`
	Phone    string    `json:"phone"`

	// SignupLink fills the {link} placeholder when a rule has no better link.
	SignupLink string `json:"signupLink"`

	LastLogin *time.Time `json:"lastLogin,omitempty"`
	IsActive  bool       `json:"isActive"`

	CreatedAt time.Time      `json:"createdAt"`
	UpdatedAt time.Time      `json:"updatedAt"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

func (t *Trainer) BeforeCreate(tx *gorm.DB) (err error) {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	if t.Password == "" {
		return nil
	}
	hashed, err := utils.HashPassword(t.Password)
	if err != nil {
		return err
	}
	t.Password = hashed
	return
}
