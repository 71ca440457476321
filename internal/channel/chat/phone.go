package chat

import (
	"errors"
	"strings"
)

// DefaultCountryCode is used when no country code is configured.
const DefaultCountryCode = "94"

// ErrInvalidPhone is returned for numbers with no digits.
var ErrInvalidPhone = errors.New("invalid phone number")

// NormalizePhone converts a recipient handle into E.164-style international
// form. Everything except digits and '+' is removed, then:
//   - "+…" is kept as is
//   - "00…" becomes "+…"
//   - "0…" (local trunk prefix) becomes "+<countryCode>…"
//   - anything else gets a leading '+'
func NormalizePhone(raw, countryCode string) (string, error) {
	var b strings.Builder
	for _, r := range raw {
		if (r >= '0' && r <= '9') || r == '+' {
			b.WriteRune(r)
		}
	}
	n := b.String()
	if strings.Trim(n, "+") == "" {
		return "", ErrInvalidPhone
	}
	cc := strings.TrimLeft(strings.TrimSpace(countryCode), "+")
	if cc == "" {
		cc = DefaultCountryCode
	}
	switch {
	case strings.HasPrefix(n, "+"):
		return n, nil
	case strings.HasPrefix(n, "00"):
		return "+" + n[2:], nil
	case strings.HasPrefix(n, "0"):
		return "+" + cc + n[1:], nil
	default:
		return "+" + n, nil
	}
}
