package billing

import "strings"

// NormalizePhone converts a subscriber number to the canonical international
// form used for SMS delivery and customer matching: digits only, prefixed
// with the country dialing code. "0712 345678", "+254712345678" and
// "254712345678" all normalize to "254712345678".
func NormalizePhone(msisdn, countryCode string) string {
	var b strings.Builder
	for _, r := range msisdn {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	digits := b.String()
	if digits == "" {
		return ""
	}

	if strings.HasPrefix(digits, countryCode) {
		return digits
	}
	if strings.HasPrefix(digits, "0") {
		return countryCode + strings.TrimLeft(digits, "0")
	}
	return countryCode + digits
}
