package utils

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestDaysBetween(t *testing.T) {
	sp, err := time.LoadLocation("America/Sao_Paulo")
	if err != nil {
		sp = time.FixedZone("BRT", -3*60*60)
	}
	start := time.Date(2026, time.October, 13, 23, 50, 0, 0, sp)
	assert.Equal(t, 1, DaysBetween(start, start.Add(20*time.Minute)))
	assert.Equal(t, 0, DaysBetween(start, start.Add(5*time.Minute)))
	assert.Equal(t, 7, DaysBetween(start, start.AddDate(0, 0, 7)))
}

func TestIsLeapYear(t *testing.T) {
	assert.True(t, IsLeapYear(2024))
	assert.True(t, IsLeapYear(2000))
	assert.False(t, IsLeapYear(1900))
	assert.False(t, IsLeapYear(2026))
}

func TestIsWeekend(t *testing.T) {
	assert.True(t, IsWeekend(time.Date(2026, time.October, 17, 0, 0, 0, 0, time.UTC)))
	assert.True(t, IsWeekend(time.Date(2026, time.October, 18, 0, 0, 0, 0, time.UTC)))
	assert.False(t, IsWeekend(time.Date(2026, time.October, 19, 0, 0, 0, 0, time.UTC)))
}

func TestValidatePhone(t *testing.T) {
	assert.True(t, ValidatePhone("+5511987654321"))
	assert.True(t, ValidatePhone("11987654321"))
	assert.False(t, ValidatePhone("12345"))
	assert.False(t, ValidatePhone("011987654321"))
	assert.Equal(t, "5511987654321", DigitsOnly("+55 (11) 98765-4321"))
}
