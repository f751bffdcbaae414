package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestRecipient_Contactable(t *testing.T) {
	assert.True(t, Recipient{OptIn: true, Status: StatusActive}.Contactable())
	assert.False(t, Recipient{OptIn: false, Status: StatusActive}.Contactable())
	assert.False(t, Recipient{OptIn: true, Status: StatusTrial}.Contactable())
	assert.False(t, Recipient{OptIn: true, Status: StatusConverted}.Contactable())
}

func TestRecipient_FirstName(t *testing.T) {
	assert.Equal(t, "Ana", Recipient{Name: "  Ana Maria Souza "}.FirstName())
	assert.Equal(t, "", Recipient{}.FirstName())
}

func TestLeadTemperature(t *testing.T) {
	now := time.Date(2026, time.October, 14, 9, 0, 0, 0, time.UTC)
	tests := []struct {
		daysAgo int
		want    string
	}{
		{0, TemperatureHot},
		{3, TemperatureHot},
		{4, TemperatureWarm},
		{14, TemperatureWarm},
		{15, TemperatureCold},
		{90, TemperatureCold},
	}
	for _, tt := range tests {
		created := now.AddDate(0, 0, -tt.daysAgo).Add(5 * time.Hour)
		assert.Equal(t, tt.want, LeadTemperature(created, now), "%d days", tt.daysAgo)
	}
}

func TestRecipient_HasBirthdayOn(t *testing.T) {
	born := time.Date(1990, time.October, 14, 0, 0, 0, 0, time.UTC)
	r := Recipient{BirthDate: &born}
	assert.True(t, r.HasBirthdayOn(time.Date(2026, time.October, 14, 8, 0, 0, 0, time.UTC)))
	assert.False(t, r.HasBirthdayOn(time.Date(2026, time.October, 15, 8, 0, 0, 0, time.UTC)))
	assert.False(t, Recipient{}.HasBirthdayOn(born))

	leap := time.Date(2000, time.February, 29, 0, 0, 0, 0, time.UTC)
	r = Recipient{BirthDate: &leap}
	assert.True(t, r.HasBirthdayOn(time.Date(2027, time.February, 28, 0, 0, 0, 0, time.UTC)))
	assert.False(t, r.HasBirthdayOn(time.Date(2028, time.February, 28, 0, 0, 0, 0, time.UTC)))
	assert.True(t, r.HasBirthdayOn(time.Date(2028, time.February, 29, 0, 0, 0, 0, time.UTC)))
}

func TestCharge_DaysOverdue(t *testing.T) {
	due := time.Date(2026, time.October, 10, 12, 0, 0, 0, time.UTC)
	c := Charge{DueDate: due}
	assert.Equal(t, -1, c.DaysOverdue(due.Add(-time.Hour)))
	assert.Equal(t, 0, c.DaysOverdue(due.Add(23*time.Hour)))
	assert.Equal(t, 1, c.DaysOverdue(due.Add(24*time.Hour)))
	assert.Equal(t, 3, c.DaysOverdue(due.Add(80*time.Hour)))
	assert.InDelta(t, 2.0, c.HoursUntilDue(due.Add(-2*time.Hour)), 1e-9)
}
