// Package phone normalizes Kenyan mobile numbers into the 12-digit MSISDN form
// (254XXXXXXXXX) the payment provider expects.
package phone

import (
	"regexp"
	"strings"
)

const CountryCode = "254"

var (
	nonDigit = regexp.MustCompile(`\D`)
	msisdn   = regexp.MustCompile(`^254[71]\d{8}$`)
)

// Normalize strips formatting and rewrites local forms (07.., 7.., 01.., 1..)
// to the international form. It does not validate.
func Normalize(raw string) string {
	cleaned := nonDigit.ReplaceAllString(raw, "")
	switch {
	case cleaned == "":
		return ""
	case strings.HasPrefix(cleaned, "0"):
		return CountryCode + cleaned[1:]
	case strings.HasPrefix(cleaned, CountryCode):
		return cleaned
	default:
		return CountryCode + cleaned
	}
}

// Valid reports whether raw normalizes to a Safaricom/Airtel style mobile number.
func Valid(raw string) bool {
	return msisdn.MatchString(Normalize(raw))
}

// Mask hides the subscriber digits for logs: 254712***678.
func Mask(raw string) string {
	n := Normalize(raw)
	if len(n) < 9 {
		return "***"
	}
	return n[:6] + "***" + n[len(n)-3:]
}
