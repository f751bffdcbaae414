package models

import (
	"time"

	"github.com/google/uuid"
)

// PeriodOnce is the dispatch period of triggers that fire once per recipient.
const PeriodOnce = "once"

// DispatchKey claims (recipient, category, period) before a send so a trigger
// fires at most once per period.
type DispatchKey struct {
	RecipientID uuid.UUID `gorm:"type:uuid;primaryKey"`
	Category    string    `gorm:"type:varchar(30);primaryKey"`
	Period      string    `gorm:"type:varchar(16);primaryKey"`
	RuleID      uuid.UUID `gorm:"type:uuid;index"`
	CreatedAt   time.Time
}

// DayPeriod is the calendar day of t in its own location.
func DayPeriod(t time.Time) string {
	return t.Format("2006-01-02")
}

// OccurrencePeriod names the day an elapsed-time trigger comes due, such as a
// charge reaching its overdue threshold. It never equals a DayPeriod.
func OccurrencePeriod(t time.Time) string {
	return "due:" + DayPeriod(t)
}
