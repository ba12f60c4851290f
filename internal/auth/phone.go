package auth

import (
	"fmt"
	"regexp"
	"strings"
)

var (
	nonDigits     = regexp.MustCompile(`\D+`)
	domesticPhone = regexp.MustCompile(`^09\d{9}$`)
)

const otpLength = 6

func digitsOnly(s string) string {
	return nonDigits.ReplaceAllString(s, "")
}

// NormalizePhone reduces free-form phone text to the canonical domestic
// form: digits only, an international 98 prefix rewritten to the
// leading 0. Anything that does not come out as an 11-digit 09 number
// is rejected.
func NormalizePhone(raw string) (string, error) {
	digits := digitsOnly(raw)
	if strings.HasPrefix(digits, "98") {
		digits = "0" + digits[2:]
	}
	if !domesticPhone.MatchString(digits) {
		return "", fmt.Errorf("phone %q does not reduce to an 11-digit 09 number", raw)
	}
	return digits, nil
}

// NormalizeOTP extracts the digits of a one-time code. Fewer than six
// digits is a hard reject; extra digits beyond six are dropped, since
// users paste codes with surrounding text.
func NormalizeOTP(raw string) (string, error) {
	digits := digitsOnly(raw)
	if len(digits) < otpLength {
		return "", fmt.Errorf("code must contain at least %d digits", otpLength)
	}
	return digits[:otpLength], nil
}
