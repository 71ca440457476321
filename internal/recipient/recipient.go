package recipient

import (
	"strings"

	"github.com/gyaneshwarpardhi/notification-service/internal/event"
)

// Usable reports whether an identifier can be handed to a channel:
// non-empty after trimming whitespace. It does not normalise.
func Usable(identifier string) bool {
	return strings.TrimSpace(identifier) != ""
}

// Contacts holds an event's recipient identifiers and their usability.
type Contacts struct {
	Phone       string
	Email       string
	Name        string
	PhoneUsable bool
	EmailUsable bool
}

// Reachable reports whether at least one identifier is usable.
func (c Contacts) Reachable() bool {
	return c.PhoneUsable || c.EmailUsable
}

// Resolve extracts the contact identifiers from an event.
func Resolve(ev *event.NotificationEvent) Contacts {
	return Contacts{
		Phone:       strings.TrimSpace(ev.RecipientPhone),
		Email:       strings.TrimSpace(ev.RecipientEmail),
		Name:        strings.TrimSpace(ev.RecipientName),
		PhoneUsable: Usable(ev.RecipientPhone),
		EmailUsable: Usable(ev.RecipientEmail),
	}
}
