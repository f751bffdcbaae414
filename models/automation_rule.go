package models

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"trainerpro-backend/utils"
)

// Trigger types an automation rule can carry.
const (
	TriggerSessionReminder = "session_reminder"
	TriggerPaymentReminder = "payment_reminder"
	TriggerPaymentOverdue  = "payment_overdue"
	TriggerBirthday        = "birthday"
	TriggerLeadWelcome     = "lead_welcome"
	TriggerLeadFollowup    = "lead_followup"
	TriggerLeadHot         = "lead_hot"
	TriggerLeadWarm        = "lead_warm"
	TriggerLeadCold        = "lead_cold"

	// TriggerManual marks messages sent by hand from the API.
	TriggerManual  = "manual"
	// TriggerInbound marks messages received through the provider webhook.
	TriggerInbound = "inbound"
)

// CategoryLeadReactivation groups the three temperature triggers so a lead
// gets at most one reactivation message a day, whatever its temperature.
const CategoryLeadReactivation = "lead_reactivation"

var TriggerTypes = []string{
	TriggerSessionReminder,
	TriggerPaymentReminder,
	TriggerPaymentOverdue,
	TriggerBirthday,
	TriggerLeadWelcome,
	TriggerLeadFollowup,
	TriggerLeadHot,
	TriggerLeadWarm,
	TriggerLeadCold,
}

// TemperatureTrigger maps a lead temperature to its reactivation trigger.
func TemperatureTrigger(temperature string) string {
	switch temperature {
	case TemperatureHot:
		return TriggerLeadHot
	case TemperatureWarm:
		return TriggerLeadWarm
	default:
		return TriggerLeadCold
	}
}

// TriggerCategory is the dedup category a trigger belongs to.
func TriggerCategory(trigger string) string {
	switch trigger {
	case TriggerLeadHot, TriggerLeadWarm, TriggerLeadCold:
		return CategoryLeadReactivation
	default:
		return trigger
	}
}

// AutomationRule is an operator-defined trigger plus the template it sends.
type AutomationRule struct {
	ID        uuid.UUID `gorm:"type:uuid;primary_key" json:"id"`
	TrainerID uuid.UUID `gorm:"type:uuid;index;not null" json:"trainerId"`

	Name        string `gorm:"not null" json:"name" validate:"required"`
	TriggerType string `gorm:"type:varchar(30);index;not null" json:"triggerType" validate:"required,trigger_type"`
	Message     string `gorm:"type:text;not null" json:"message" validate:"required"`
	IsActive    bool   `json:"isActive"`

	// Send window in local clock time, "HH:MM". Both empty means any time.
	WindowStart string `gorm:"type:varchar(5)" json:"windowStart" validate:"omitempty,clock"`
	WindowEnd   string `gorm:"type:varchar(5)" json:"windowEnd" validate:"omitempty,clock"`

	HoursBefore     *int `json:"hoursBefore,omitempty" validate:"omitempty,min=0,max=720"`
	DaysAfter       *int `json:"daysAfter,omitempty" validate:"omitempty,min=0,max=365"`
	IncludeWeekends bool `json:"includeWeekends"`

	CreatedAt time.Time      `json:"createdAt"`
	UpdatedAt time.Time      `json:"updatedAt"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

func (r *AutomationRule) BeforeCreate(tx *gorm.DB) (err error) {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	return
}

func (r AutomationRule) Category() string {
	return TriggerCategory(r.TriggerType)
}

func (r AutomationRule) HoursBeforeOr(def int) int {
	if r.HoursBefore == nil {
		return def
	}
	return *r.HoursBefore
}

func (r AutomationRule) DaysAfterOr(def int) int {
	if r.DaysAfter == nil {
		return def
	}
	return *r.DaysAfter
}

// InWindow compares minutes of the day only, in now's location. A window whose
// start is after its end wraps past midnight.
func (r AutomationRule) InWindow(now time.Time) bool {
	if r.WindowStart == "" && r.WindowEnd == "" {
		return true
	}
	start, err := ParseClock(r.WindowStart, 0)
	if err != nil {
		return false
	}
	end, err := ParseClock(r.WindowEnd, 24*60-1)
	if err != nil {
		return false
	}
	current := now.Hour()*60 + now.Minute()
	if start <= end {
		return current >= start && current <= end
	}
	return current >= start || current <= end
}

// AllowsDay applies the weekend flag.
func (r AutomationRule) AllowsDay(now time.Time) bool {
	if r.IncludeWeekends {
		return true
	}
	return !utils.IsWeekend(now)
}

// ParseClock turns "HH:MM" into minutes since midnight; empty yields def.
func ParseClock(s string, def int) (int, error) {
	if s == "" {
		return def, nil
	}
	hh, mm, ok := strings.Cut(s, ":")
	if !ok {
		return 0, fmt.Errorf("invalid clock %q", s)
	}
	h, err := strconv.Atoi(hh)
	if err != nil || h < 0 || h > 23 {
		return 0, fmt.Errorf("invalid hour in %q", s)
	}
	m, err := strconv.Atoi(mm)
	if err != nil || m < 0 || m > 59 {
		return 0, fmt.Errorf("invalid minute in %q", s)
	}
	return h*60 + m, nil
}
