package channel

import (
	"context"
	"errors"
	"strings"

	"github.com/gyaneshwarpardhi/notification-service/internal/dispatch"
)

var (
	// ErrUnconfigured marks a channel whose credentials are missing or placeholders.
	ErrUnconfigured = errors.New("channel not configured")
	// ErrUnavailable is returned by Registry.Get when no sender is registered.
	ErrUnavailable = errors.New("channel unavailable")
)

// Sender is the capability every delivery channel implements.
type Sender interface {
	// Channel returns the key this sender is registered under.
	Channel() dispatch.Channel
	// SendWelcome delivers a welcome message to identifier.
	SendWelcome(ctx context.Context, identifier, name string) error
	// SendPaymentConfirmation delivers a payment receipt built from data.
	SendPaymentConfirmation(ctx context.Context, identifier string, data map[string]string) error
}

// Brand is the business identity rendered into every message.
type Brand struct {
	Name         string
	ShortName    string
	Tagline      string
	CatalogURL   string
	ProfileURL   string
	BookingURL   string
	SupportEmail string
	SupportPhone string
}

// Short returns ShortName, falling back to Name.
func (b Brand) Short() string {
	if b.ShortName != "" {
		return b.ShortName
	}
	return b.Name
}

// DisplayName returns the greeting name for a recipient.
func DisplayName(name string) string {
	if n := strings.TrimSpace(name); n != "" {
		return n
	}
	return "there"
}

// Configured reports whether every credential is present and not a
// placeholder such as "changeme", "your_auth_token", "<sid>" or "${TOKEN}".
func Configured(credentials ...string) bool {
	for _, c := range credentials {
		if isPlaceholder(c) {
			return false
		}
	}
	return true
}

func isPlaceholder(v string) bool {
	v = strings.ToLower(strings.TrimSpace(v))
	switch {
	case v == "":
		return true
	case v == "changeme" || v == "change-me" || v == "xxx" || v == "todo":
		return true
	case strings.HasPrefix(v, "your_") || strings.HasPrefix(v, "your-"):
		return true
	case strings.HasPrefix(v, "<") && strings.HasSuffix(v, ">"):
		return true
	case strings.HasPrefix(v, "${") && strings.HasSuffix(v, "}"):
		return true
	}
	return false
}
