package chat

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/gyaneshwarpardhi/notification-service/internal/channel"
	"github.com/gyaneshwarpardhi/notification-service/internal/dispatch"
	"github.com/gyaneshwarpardhi/notification-service/internal/logger"
)

// Config is the immutable configuration of a chat Sender.
type Config struct {
	Brand       channel.Brand
	CountryCode string
	Transport   Transport
}

// Sender formats notifications as WhatsApp text and hands them to a Transport.
type Sender struct {
	brand       channel.Brand
	countryCode string
	transport   Transport
}

var _ channel.Sender = (*Sender)(nil)

// New creates a chat Sender. A nil transport is a configuration error.
func New(cfg Config) (*Sender, error) {
	if cfg.Transport == nil {
		return nil, fmt.Errorf("chat sender: %w: no transport", channel.ErrUnconfigured)
	}
	cc := cfg.CountryCode
	if cc == "" {
		cc = DefaultCountryCode
	}
	return &Sender{brand: cfg.Brand, countryCode: cc, transport: cfg.Transport}, nil
}

func (s *Sender) Channel() dispatch.Channel { return dispatch.ChannelChat }

func (s *Sender) SendWelcome(ctx context.Context, phone, name string) error {
	return s.send(ctx, phone, WelcomeText(s.brand, name))
}

func (s *Sender) SendPaymentConfirmation(ctx context.Context, phone string, data map[string]string) error {
	return s.send(ctx, phone, PaymentText(channel.PaymentFrom(data)))
}

func (s *Sender) send(ctx context.Context, phone, body string) error {
	to, err := NormalizePhone(phone, s.countryCode)
	if err != nil {
		return fmt.Errorf("whatsapp to %q: %w", phone, err)
	}
	id, err := s.transport.SendText(ctx, to, body)
	if err != nil {
		return fmt.Errorf("whatsapp to %s: %w", to, err)
	}
	logger.From(ctx).Info("whatsapp sent", slog.String("to", to), slog.String("message_id", id))
	return nil
}
