package verify

import (
	"strings"
)

// FormatPhone normalizes user input into display form. Everything but
// digits is stripped, the number is capped at eleven digits, and
// hyphens are inserted 3-4-4 as the user types.
func FormatPhone(input string) string {
	var digits strings.Builder
	for _, r := range input {
		if r >= '0' && r <= '9' {
			digits.WriteRune(r)
			if digits.Len() == 11 {
				break
			}
		}
	}
	n := digits.String()
	switch {
	case len(n) <= 3:
		return n
	case len(n) <= 7:
		return n[:3] + "-" + n[3:]
	default:
		return n[:3] + "-" + n[3:7] + "-" + n[7:]
	}
}

// Digits strips formatting back out of a phone number.
func Digits(phone string) string {
	var b strings.Builder
	for _, r := range phone {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// ValidPhone reports whether a number is a plausible Korean mobile
// number: starts with 01 and has ten or eleven digits.
func ValidPhone(phone string) bool {
	n := Digits(phone)
	if len(n) != 10 && len(n) != 11 {
		return false
	}
	return strings.HasPrefix(n, "01")
}

// ValidCode reports whether a verification code is exactly four digits.
func ValidCode(code string) bool {
	if len(code) != 4 {
		return false
	}
	for _, r := range code {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
