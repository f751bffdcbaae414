package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func at(hour, minute int) time.Time {
	// 2026-10-14 is a Wednesday
	return time.Date(2026, time.October, 14, hour, minute, 0, 0, time.UTC)
}

func TestAutomationRule_InWindow(t *testing.T) {
	tests := []struct {
		name       string
		start, end string
		now        time.Time
		want       bool
	}{
		{"no window", "", "", at(3, 0), true},
		{"inside", "08:00", "20:00", at(14, 0), true},
		{"start inclusive", "08:00", "20:00", at(8, 0), true},
		{"end inclusive", "08:00", "20:00", at(20, 0), true},
		{"before", "08:00", "20:00", at(7, 59), false},
		{"after", "08:00", "20:00", at(20, 1), false},
		{"early window at 14h", "03:00", "04:00", at(14, 0), false},
		{"wraps midnight late", "22:00", "02:00", at(23, 30), true},
		{"wraps midnight early", "22:00", "02:00", at(1, 0), true},
		{"wraps midnight outside", "22:00", "02:00", at(12, 0), false},
		{"only start", "09:00", "", at(23, 59), true},
		{"malformed", "9h", "20:00", at(14, 0), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rule := AutomationRule{WindowStart: tt.start, WindowEnd: tt.end}
			assert.Equal(t, tt.want, rule.InWindow(tt.now))
		})
	}
}

func TestAutomationRule_AllowsDay(t *testing.T) {
	saturday := time.Date(2026, time.October, 17, 10, 0, 0, 0, time.UTC)
	assert.True(t, AutomationRule{}.AllowsDay(at(10, 0)))
	assert.False(t, AutomationRule{}.AllowsDay(saturday))
	assert.True(t, AutomationRule{IncludeWeekends: true}.AllowsDay(saturday))
}

func TestAutomationRule_Defaults(t *testing.T) {
	rule := AutomationRule{}
	assert.Equal(t, 24, rule.HoursBeforeOr(24))
	assert.Equal(t, 2, rule.DaysAfterOr(2))

	zero := 0
	rule.DaysAfter = &zero
	assert.Equal(t, 0, rule.DaysAfterOr(2))
}

func TestTriggerCategory(t *testing.T) {
	assert.Equal(t, CategoryLeadReactivation, TriggerCategory(TriggerLeadHot))
	assert.Equal(t, CategoryLeadReactivation, TriggerCategory(TriggerLeadCold))
	assert.Equal(t, TriggerBirthday, TriggerCategory(TriggerBirthday))
	assert.Equal(t, TriggerLeadWarm, TemperatureTrigger(TemperatureWarm))
}

func TestParseClock(t *testing.T) {
	m, err := ParseClock("07:30", 0)
	require.NoError(t, err)
	assert.Equal(t, 450, m)

	m, err = ParseClock("", 99)
	require.NoError(t, err)
	assert.Equal(t, 99, m)

	for _, bad := range []string{"24:00", "12:60", "noon", "12"} {
		_, err := ParseClock(bad, 0)
		assert.Error(t, err, bad)
	}
}

func TestAutomationRule_Validate(t *testing.T) {
	valid := AutomationRule{
		Name:        "Lembrete",
		TriggerType: TriggerSessionReminder,
		Message:     "Oi {nome}",
		WindowStart: "08:00",
		WindowEnd:   "20:00",
	}
	require.NoError(t, valid.Validate())

	badTrigger := valid
	badTrigger.TriggerType = "anniversary"
	assert.ErrorContains(t, badTrigger.Validate(), "triggerType")

	badClock := valid
	badClock.WindowEnd = "25:00"
	assert.ErrorContains(t, badClock.Validate(), "windowEnd")

	negative := -1
	badHours := valid
	badHours.HoursBefore = &negative
	assert.ErrorContains(t, badHours.Validate(), "hoursBefore")

	manual := valid
	manual.TriggerType = TriggerManual
	assert.Error(t, manual.Validate())
}
