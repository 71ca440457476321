package chat

import (
	"fmt"

	"github.com/gyaneshwarpardhi/notification-service/internal/channel"
)

// WelcomeText renders the chat welcome message.
func WelcomeText(brand channel.Brand, name string) string {
	return fmt.Sprintf(
		"Welcome to %s, %s! 🎉\n\nThank you for choosing us for your special day.",
		brand.Short(), channel.DisplayName(name),
	)
}

// PaymentText renders the chat payment confirmation.
func PaymentText(p channel.Payment) string {
	return fmt.Sprintf(
		"Payment Confirmed! ✅\n\nOrder ID: %s\nAmount: Rs. %s\n\nThank you!",
		p.OrderID, p.Amount,
	)
}
