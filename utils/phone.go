package utils

import "regexp"

var nonDigits = regexp.MustCompile(`\D`)

// SanitizePhoneNumber normalizes a phone number to international +263 format.
// A leading zero is stripped and the Zimbabwe country code is prepended when
// missing, so "0771 234 567" and "771234567" both become "+263771234567".
func SanitizePhoneNumber(phone string) string {
	digits := nonDigits.ReplaceAllString(phone, "")
	if len(digits) > 0 && digits[0] == '0' {
		digits = digits[1:]
	}
	if len(digits) < 3 || digits[:3] != "263" {
		digits = "263" + digits
	}
	return "+" + digits
}
