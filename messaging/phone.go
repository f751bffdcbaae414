package messaging

import (
	"errors"
	"strings"

	"trainerpro-backend/utils"
)

const DefaultCountryCode = "55"

var ErrInvalidPhone = errors.New("invalid phone number")

// FormatPhone reduces a phone number to digits in international form. Local
// numbers (10 or 11 digits: area code plus subscriber) get countryCode
// prepended; anything else is assumed to carry its country code already.
func FormatPhone(phone, countryCode string) (string, error) {
	if countryCode == "" {
		countryCode = DefaultCountryCode
	}
	digits := utils.DigitsOnly(phone)
	digits = strings.TrimLeft(digits, "0")
	if len(digits) < 8 || len(digits) > 15 {
		return "", ErrInvalidPhone
	}
	if strings.HasPrefix(strings.TrimSpace(phone), "+") {
		return digits, nil
	}
	if len(digits) == 10 || len(digits) == 11 {
		return countryCode + digits, nil
	}
	return digits, nil
}
